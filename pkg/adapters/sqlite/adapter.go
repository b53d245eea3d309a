// Package sqlite provides the SQLite engine adapter for sqldf.
//
// It uses the pure-Go modernc.org/sqlite driver, so no cgo toolchain is
// needed. This is the default engine.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqldf/pkg/adapter"
	"github.com/leapstack-labs/sqldf/pkg/core"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Dialect is the SQLite dialect configuration.
// SQLite columns are dynamically typed; declared types only set affinity, so
// NULL-only and mixed columns are declared without a type.
var Dialect = &core.DialectConfig{
	Name:             "sqlite",
	Identifiers:      core.IdentifierConfig{Quote: `"`, QuoteEnd: `"`, Escape: `""`},
	Placeholder:      core.PlaceholderQuestion,
	NamedParamPrefix: ":",
	Types: map[core.ValueKind]string{
		core.KindInteger: "INTEGER",
		core.KindFloat:   "REAL",
		core.KindText:    "TEXT",
		core.KindBool:    "BOOLEAN",
		core.KindBlob:    "BLOB",
		core.KindTime:    "TIMESTAMP",
		core.KindDecimal: "NUMERIC",
	},
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, Dialect: Dialect},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "sqlite"
}

// Connect opens SQLite and pins its single connection.
// An empty path or ":memory:" opens a private in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildDSN(cfg)

	a.Logger.Debug("opening sqlite", slog.String("dsn", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.Pin(ctx); err != nil {
		_ = a.Close()
		return err
	}
	return nil
}

// buildDSN turns the config into a modernc DSN. Every entry of cfg.Options
// becomes a `_pragma=name(value)` parameter, applied on each new connection.
func buildDSN(cfg adapter.Config) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	if len(cfg.Options) == 0 {
		return path
	}

	names := make([]string, 0, len(cfg.Options))
	for name := range cfg.Options {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]string, 0, len(names))
	for _, name := range names {
		params = append(params, "_pragma="+url.QueryEscape(fmt.Sprintf("%s(%s)", name, cfg.Options[name])))
	}
	return path + "?" + strings.Join(params, "&")
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
