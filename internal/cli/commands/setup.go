package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/sqldf/internal/cli/config"
	"github.com/leapstack-labs/sqldf/internal/datafile"
	"github.com/leapstack-labs/sqldf/pkg/sqldf"
	"github.com/spf13/cobra"
)

// varsSource is the binding source reported for configured vars.
const varsSource = "vars"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext returns the config stored by the root command, or loads
// one from the command's own flags when run standalone.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	cfg, ok := config.FromContext(ctx)
	if !ok {
		var err error
		cfg, err = config.LoadConfig("", cmd.Flags())
		if err != nil {
			return nil, err
		}
	}
	return &CommandContext{
		Cfg:    cfg,
		Logger: config.GetLogger(ctx),
	}, nil
}

// Runner builds a query runner from the configuration.
func (c *CommandContext) Runner() *sqldf.Runner {
	return sqldf.New(
		sqldf.WithAdapterConfig(c.Cfg.AdapterConfig()),
		sqldf.WithRowLimit(c.Cfg.RowLimit),
		sqldf.WithLogger(c.Logger),
	)
}

// Bindings loads the configured data files followed by the configured vars
// in name order.
func (c *CommandContext) Bindings(ctx context.Context) (datafile.Bindings, error) {
	bindings, err := datafile.Load(ctx, c.Cfg.Data, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	names := make([]string, 0, len(c.Cfg.Vars))
	for name := range c.Cfg.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := bindings.Add(datafile.Binding{Name: name, Source: varsSource, Value: c.Cfg.Vars[name]}); err != nil {
			return nil, err
		}
	}

	c.Logger.Debug("environment loaded", slog.Int("bindings", len(bindings)))
	return bindings, nil
}

// addDataFlags registers the flags shared by commands that load data.
func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("data", "d", nil, "Data file to load (csv, tsv, yaml, yml, json); name=path renames it")
	cmd.Flags().StringArray("var", nil, "Scalar parameter as name=value")
	cmd.Flags().StringP("engine", "e", "", "Engine to run queries on (sqlite, duckdb)")
}
