package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqldf/pkg/adapter"
	"github.com/leapstack-labs/sqldf/pkg/core"
	"github.com/leapstack-labs/sqldf/pkg/sqldf"
)

// engineCheckTimeout bounds a single engine probe.
const engineCheckTimeout = 10 * time.Second

// EngineCheck is the result of probing one registered engine.
type EngineCheck struct {
	Engine   string
	Selected bool
	Status   string // "ok" or "error"
	Detail   string
}

// NewEnginesCommand creates the engines command.
func NewEnginesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engines",
		Short: "List available engines and check that they start",
		Long: `List the engines compiled into this binary. Each engine is probed by
running a query over a one-row table in a fresh session, using the configured
engine options.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			checks := checkEngines(cmd.Context(), cmdCtx)
			return renderFrame(cmd.OutOrStdout(), enginesFrame(checks), cmdCtx.Cfg.OutputFormat)
		},
	}
	cmd.Flags().StringP("format", "f", "", "Output format: table, json, csv, md")
	return cmd
}

func checkEngines(ctx context.Context, cmdCtx *CommandContext) []EngineCheck {
	names := adapter.Names()
	checks := make([]EngineCheck, 0, len(names))
	for _, name := range names {
		check := EngineCheck{Engine: name, Selected: name == cmdCtx.Cfg.Engine, Status: "ok"}

		ac := core.AdapterConfig{Type: name}
		if check.Selected {
			ac = cmdCtx.Cfg.AdapterConfig()
		}

		probeCtx, cancel := context.WithTimeout(ctx, engineCheckTimeout)
		frame, err := sqldf.Execute(probeCtx, "SELECT count(*) FROM probe",
			sqldf.Environment{"probe": []int{1}},
			sqldf.WithAdapterConfig(ac), sqldf.WithLogger(cmdCtx.Logger))
		cancel()

		switch {
		case err != nil:
			check.Status, check.Detail = "error", err.Error()
		case frame.Len() != 1:
			check.Status, check.Detail = "error", fmt.Sprintf("probe returned %d rows", frame.Len())
		}
		checks = append(checks, check)
	}
	return checks
}

func enginesFrame(checks []EngineCheck) *core.Frame {
	frame := core.NewFrame("engine", "selected", "status", "detail")
	for _, c := range checks {
		selected := ""
		if c.Selected {
			selected = "*"
		}
		frame.Rows = append(frame.Rows, []any{c.Engine, selected, c.Status, c.Detail})
	}
	return frame
}
