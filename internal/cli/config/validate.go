package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqldf/pkg/adapter"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Engine == "" {
		return fmt.Errorf("engine is required")
	}
	if !adapter.IsRegistered(c.Engine) {
		return &adapter.UnknownAdapterError{Type: c.Engine, Available: adapter.Names()}
	}
	if c.RowLimit < 0 {
		return fmt.Errorf("row_limit must be >= 0, got %d", c.RowLimit)
	}
	format := strings.ToLower(c.OutputFormat)
	if format == "markdown" {
		format = "md"
	}
	if !slices.Contains(OutputFormats, format) {
		return fmt.Errorf("unknown output format %q (expected one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	c.OutputFormat = format
	return nil
}
