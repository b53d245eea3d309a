package commands

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqldf/internal/datafile"
	"github.com/leapstack-labs/sqldf/pkg/core"
	"github.com/leapstack-labs/sqldf/pkg/sqldf"
)

type bindingFilter int

const (
	allBindings bindingFilter = iota
	tableBindings
	scalarBindings
)

const (
	kindScalar      = "scalar"
	kindUnsupported = "unsupported"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the bindings loaded from data files",
		Long: `List every binding the query command would see: its name, how it
would be loaded (frame, list, rows, mapping or scalar), the table columns and
row count, and the file or setting it came from.`,
		Example: `  sqldf tables -d orders.csv -d settings.yaml
  sqldf tables -d orders.csv --var min=10 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			bindings, err := cmdCtx.Bindings(cmd.Context())
			if err != nil {
				return err
			}
			return renderBindings(cmd.OutOrStdout(), bindings, cmdCtx.Cfg.OutputFormat, allBindings)
		},
	}

	addDataFlags(cmd)
	cmd.Flags().StringP("format", "f", "", "Output format: table, json, csv, md")
	return cmd
}

// describeBindings summarizes bindings as a frame.
func describeBindings(bindings datafile.Bindings, filter bindingFilter) *core.Frame {
	frame := core.NewFrame("name", "kind", "columns", "rows", "value", "source")
	for _, b := range bindings {
		row := []any{b.Name, nil, nil, nil, nil, b.Source}
		src, err := sqldf.Ingest(b.Value)
		switch {
		case err == nil:
			row[1] = src.Shape().String()
			if cols, n, err := sqldf.Inspect(src); err == nil {
				row[2] = strings.Join(cols, ", ")
				row[3] = n
			} else {
				row[1] = kindUnsupported
			}
		case sqldf.IsScalar(b.Value):
			row[1] = kindScalar
			row[4] = b.Value
		default:
			row[1] = kindUnsupported
		}

		scalar := row[1] == kindScalar
		if (filter == tableBindings && scalar) || (filter == scalarBindings && !scalar) {
			continue
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame
}

func renderBindings(w io.Writer, bindings datafile.Bindings, format string, filter bindingFilter) error {
	return renderFrame(w, describeBindings(bindings, filter), format)
}
