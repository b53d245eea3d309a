package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqldf/pkg/adapter"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display sqldf version and the engines compiled into this binary.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqldf v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "SQL over in-memory data (engines: %s)\n", strings.Join(adapter.Names(), ", "))
		},
	}
}
