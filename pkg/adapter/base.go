package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqldf/pkg/core"
)

// execer is the subset of *sql.DB and *sql.Conn the base adapter needs.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query and InsertRows implementations.
//
// In-memory engines keep their data per connection, so adapters pin a single
// connection with Pin right after opening; all statements then run on Conn.
type BaseSQLAdapter struct {
	DB      *sql.DB
	Conn    *sql.Conn
	Cfg     core.AdapterConfig
	Logger  *slog.Logger
	Dialect *core.DialectConfig
}

// Pin reserves one connection from DB for the lifetime of the adapter.
func (b *BaseSQLAdapter) Pin(ctx context.Context) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	b.DB.SetMaxOpenConns(1)
	conn, err := b.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to reserve connection: %w", err)
	}
	b.Conn = conn
	return nil
}

// Close releases the pinned connection and closes the database.
func (b *BaseSQLAdapter) Close() error {
	var connErr error
	if b.Conn != nil {
		connErr = b.Conn.Close()
		b.Conn = nil
	}
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		err := b.DB.Close()
		b.DB = nil
		if err != nil {
			return err
		}
	}
	return connErr
}

func (b *BaseSQLAdapter) execer() (execer, error) {
	if b.Conn != nil {
		return b.Conn, nil
	}
	if b.DB != nil {
		return b.DB, nil
	}
	return nil, fmt.Errorf("database connection not established")
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string, args ...any) error {
	ex, err := b.execer()
	if err != nil {
		return err
	}
	if _, err := ex.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, args ...any) (*core.Rows, error) {
	ex, err := b.execer()
	if err != nil {
		return nil, err
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := ex.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// InsertRows inserts rows into table with one prepared statement inside a transaction.
// Table and column names are quoted with the adapter's dialect.
func (b *BaseSQLAdapter) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	ex, err := b.execer()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	d := b.dialect()
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
		marks[i] = d.FormatPlaceholder(i + 1)
	}
	//nolint:gosec // identifiers are quoted by the dialect
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	tx, err := ex.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert into %s: %w", table, err)
	}
	return nil
}

// DialectConfig returns the adapter's dialect, falling back to ANSI quoting.
func (b *BaseSQLAdapter) DialectConfig() *core.DialectConfig {
	return b.dialect()
}

func (b *BaseSQLAdapter) dialect() *core.DialectConfig {
	if b.Dialect != nil {
		return b.Dialect
	}
	return &core.DialectConfig{Name: "ansi"}
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}
