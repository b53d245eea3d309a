package sqldf

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leapstack-labs/sqldf/pkg/core"

	_ "github.com/leapstack-labs/sqldf/pkg/adapters/sqlite" // default engine
)

// DefaultEngine is the engine used when no option selects one.
const DefaultEngine = "sqlite"

// Option configures a Runner.
type Option func(*Runner)

// WithEngine selects a registered engine by name ("sqlite", "duckdb").
func WithEngine(name string) Option {
	return func(r *Runner) { r.cfg.Type = name }
}

// WithAdapterConfig sets engine options and parameters. An empty Type keeps
// the current engine. Path is ignored: sessions are always in memory.
func WithAdapterConfig(cfg core.AdapterConfig) Option {
	return func(r *Runner) {
		if cfg.Type == "" {
			cfg.Type = r.cfg.Type
		}
		r.cfg = cfg
	}
}

// WithRowLimit caps the rows of a trailing query that has no LIMIT of its own.
// n <= 0 means no cap.
func WithRowLimit(n int) Option {
	return func(r *Runner) { r.rowLimit = n }
}

// WithLogger sets the logger for session diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner executes scripts against environments. A Runner holds only
// configuration and is safe for concurrent use; every Execute call gets its
// own engine.
type Runner struct {
	cfg      core.AdapterConfig
	rowLimit int
	logger   *slog.Logger
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		cfg:    core.AdapterConfig{Type: DefaultEngine},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs query against env with a one-off Runner.
func Execute(ctx context.Context, query string, env Environment, opts ...Option) (*core.Frame, error) {
	return New(opts...).Execute(ctx, query, env)
}

// Execute runs the statements of query in order inside a fresh in-memory
// engine and returns the result of the last one.
//
// Tabular environment values referenced by bare name in FROM/JOIN position
// are loaded under that name; values referenced as :name are loaded as a
// separate table, and scalars referenced as :name are bound as parameters.
// The engine is discarded before Execute returns.
func (r *Runner) Execute(ctx context.Context, query string, env Environment) (frame *core.Frame, err error) {
	tokens := Tokenize(query)
	refs, err := Scan(tokens, env)
	if err != nil {
		return nil, err
	}
	tables, params, err := Resolve(refs, env)
	if err != nil {
		return nil, err
	}

	s, err := openSession(ctx, r.cfg, r.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.close(); cerr != nil {
			frame, err = nil, errors.Join(err, cerr)
		}
	}()

	if err := s.load(ctx, tables); err != nil {
		return nil, err
	}
	stmts := Prepare(tokens, refs, s.adp.DialectConfig(), r.rowLimit)
	return s.run(ctx, stmts, params)
}
