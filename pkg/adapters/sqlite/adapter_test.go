package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqldf/internal/testutil"
	"github.com/leapstack-labs/sqldf/pkg/adapter"
	"github.com/leapstack-labs/sqldf/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ""
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.sqlite")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(testutil.NewTestLogger(t))

			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: dbPath}))
			defer func() { _ = adp.Close() }()

			require.NoError(t, adp.Exec(ctx, "CREATE TABLE t (id INTEGER)"))

			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

// The in-memory database lives on the pinned connection: a table created by
// one statement must be visible to the next.
func TestAdapter_InMemoryStatePersistsAcrossStatements(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{}))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE ":t" (c0 TEXT, c1 INTEGER)`))
	require.NoError(t, adp.InsertRows(ctx, ":t", []string{"c0", "c1"}, [][]any{{"a", 1}, {"b", 2}}))

	rows, err := adp.Query(ctx, `SELECT sum(c1) FROM ":t" WHERE c0 >= :low`, sql.Named("low", "a"))
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var sum int64
	require.NoError(t, rows.Scan(&sum))
	assert.Equal(t, int64(3), sum)
	require.NoError(t, rows.Err())
}

func TestAdapter_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()

	first := New(nil)
	require.NoError(t, first.Connect(ctx, core.AdapterConfig{}))
	defer func() { _ = first.Close() }()
	require.NoError(t, first.Exec(ctx, "CREATE TABLE only_here (id INTEGER)"))

	second := New(nil)
	require.NoError(t, second.Connect(ctx, core.AdapterConfig{}))
	defer func() { _ = second.Close() }()

	err := second.Exec(ctx, "SELECT * FROM only_here")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	err := adp.Exec(ctx, "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection not established")
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, ":memory:", buildDSN(adapter.Config{}))
	assert.Equal(t, "x.db", buildDSN(adapter.Config{Path: "x.db"}))
	assert.Equal(t,
		":memory:?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29",
		buildDSN(adapter.Config{Options: map[string]string{"foreign_keys": "1", "busy_timeout": "5000"}}),
	)
}

func TestSelfRegistration(t *testing.T) {
	assert.True(t, adapter.IsRegistered("sqlite"))

	adp, err := adapter.NewAdapter(core.AdapterConfig{Type: "sqlite"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", adp.DialectConfig().Name)
}
