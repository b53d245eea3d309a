package core

import (
	"context"
	"database/sql"
)

// Adapter defines the interface that all engine adapters must implement.
// An adapter owns exactly one embedded database for its lifetime.
type Adapter interface {
	// Connect opens the embedded database.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the database and releases all resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// InsertRows bulk-inserts rows into an existing table inside one transaction.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error

	// DialectConfig returns the static dialect configuration.
	DialectConfig() *DialectConfig
}

// AdapterConfig holds configuration for opening an embedded engine.
type AdapterConfig struct {
	Type    string
	Path    string
	Options map[string]string
	Params  map[string]any
}

// Column represents a column in a frame or a database table.
type Column struct {
	Name string
	Type string
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
