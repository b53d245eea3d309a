// Package config provides configuration management for the sqldf CLI.
package config

import (
	"maps"

	"github.com/leapstack-labs/sqldf/pkg/core"
)

// Config holds all CLI configuration options.
type Config struct {
	Engine        string            `koanf:"engine"`
	RowLimit      int               `koanf:"row_limit"`
	OutputFormat  string            `koanf:"output"`
	Verbose       bool              `koanf:"verbose"`
	HistoryFile   string            `koanf:"history_file"`
	Data          []string          `koanf:"data"`
	EngineOptions map[string]string `koanf:"engine_options"`
	EngineParams  map[string]any    `koanf:"engine_params"`
	Vars          map[string]any    `koanf:"vars"`
}

// Default configuration values.
const (
	DefaultEngine      = "sqlite"
	DefaultOutput      = "table"
	DefaultHistoryFile = ".sqldf_history"
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"table", "json", "csv", "md"}

// AdapterConfig builds the engine configuration for query sessions.
func (c *Config) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:    c.Engine,
		Options: maps.Clone(c.EngineOptions),
		Params:  maps.Clone(c.EngineParams),
	}
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Engine:       DefaultEngine,
		OutputFormat: DefaultOutput,
	}
}
