package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/sqldf/pkg/sqldf"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run SQL over data files",
		Long: `Run a SQL script over values loaded from data files and --var parameters.

Every run gets a fresh in-memory engine. A bare table name in FROM or JOIN
position loads the data binding of that name; :name loads it under the
separate table ":name", and :name of a scalar binds a parameter.

When invoked without SQL on a terminal, enters interactive REPL mode.`,
		Example: `  # Query a CSV file
  sqldf query "SELECT region, sum(amount) FROM orders GROUP BY region" -d orders.csv

  # Bind a parameter
  sqldf query "SELECT * FROM orders WHERE amount > :min" -d orders.csv --var min=100

  # Rename a binding and output JSON
  sqldf query "SELECT count(*) FROM o" -d o=data/orders.csv --format json

  # Read SQL from a file or stdin
  sqldf query -i report.sql -d orders.csv
  cat report.sql | sqldf query -d orders.csv

  # Interactive mode
  sqldf query -d orders.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	addDataFlags(cmd)
	cmd.Flags().IntP("limit", "l", 0, "Cap rows of a final query without LIMIT (0 for no cap)")
	cmd.Flags().StringP("format", "f", "", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("data", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "tsv", "yaml", "yml", "json"}, cobra.ShellCompDirectiveFilterFileExt
	})

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	bindings, err := cmdCtx.Bindings(ctx)
	if err != nil {
		return err
	}
	runner := cmdCtx.Runner()
	env := bindings.Environment()

	// Determine SQL source
	var sqlQuery string

	switch in := cmd.InOrStdin(); {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(in):
		// Read from stdin (piped input)
		content, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cmdCtx, runner, bindings)
	}

	return executeAndRender(ctx, cmd.OutOrStdout(), runner, sqlQuery, env, cmdCtx.Cfg.OutputFormat)
}

func executeAndRender(ctx context.Context, w io.Writer, runner *sqldf.Runner, sqlQuery string, env sqldf.Environment, format string) error {
	frame, err := runner.Execute(ctx, sqlQuery, env)
	if err != nil {
		return err
	}
	return renderFrame(w, frame, format)
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
