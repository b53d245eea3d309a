package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const configTemplate = `# sqldf configuration.
# Environment variables SQLDF_<KEY> and command-line flags override these values.

# Engine used for query sessions: sqlite or duckdb.
engine: sqlite

# Cap on the rows of a final query without its own LIMIT. 0 means no cap.
row_limit: 0

# Output format: table, json, csv or md.
output: table

# Data files loaded for every query. name=path renames a binding.
data: []

# Scalar parameters available as :name.
vars: {}

# Engine settings, e.g. for duckdb:
# engine_params:
#   settings:
#     threads: "4"
#   extensions: [json]
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a sqldf.yaml configuration file",
		Long: `Create a commented sqldf.yaml with the default settings.

Commands read sqldf.yaml from the working directory or its nearest parent.`,
		Example: `  # Initialize in current directory
  sqldf init

  # Force overwrite existing config
  sqldf init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path, err := runInit(dir, force)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(dir string, force bool) (string, error) {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	configPath := filepath.Join(dir, "sqldf.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return "", fmt.Errorf("sqldf.yaml already exists. Use --force to overwrite")
	}

	if err := os.WriteFile(configPath, []byte(configTemplate), 0600); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return configPath, nil
}
