package duckdb

import (
	"context"
	"database/sql"
	"testing"

	"github.com/leapstack-labs/sqldf/internal/testutil"
	"github.com/leapstack-labs/sqldf/pkg/adapter"
	"github.com/leapstack-labs/sqldf/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name    string
		cfg     core.AdapterConfig
		wantErr string
	}{
		{name: "empty path is in-memory", cfg: core.AdapterConfig{}},
		{name: "explicit in-memory", cfg: core.AdapterConfig{Path: ":memory:"}},
		{
			name: "settings applied",
			cfg: core.AdapterConfig{Params: map[string]any{
				"settings": map[string]any{"threads": 1},
			}},
		},
		{
			name:    "bad params",
			cfg:     core.AdapterConfig{Params: map[string]any{"bogus": true}},
			wantErr: "invalid duckdb params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(testutil.NewTestLogger(t))

			err := adp.Connect(ctx, tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() { _ = adp.Close() }()
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "exec without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "query without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Query(ctx, "SELECT 1")
				return err
			},
		},
		{
			name: "insert without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.InsertRows(ctx, "t", []string{"c0"}, [][]any{{1}})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), New(nil))
			assert.Error(t, err, "expected error when operating without connection")
		})
	}
}

func TestAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		connect bool
	}{
		{"close without connect", false},
		{"close after connect", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			if tt.connect {
				require.NoError(t, adp.Connect(ctx, core.AdapterConfig{}))
			}

			assert.NoError(t, adp.Close())
		})
	}
}

func TestAdapter_InsertAndNamedParams(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{}))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE ":t" (c0 VARCHAR, c1 BIGINT)`))
	require.NoError(t, adp.InsertRows(ctx, ":t", []string{"c0", "c1"}, [][]any{{"a", int64(1)}, {"b", int64(2)}}))

	rows, err := adp.Query(ctx, `SELECT CAST(sum(c1) + $bonus AS BIGINT) FROM ":t"`, sql.Named("bonus", int64(10)))
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var total int64
	require.NoError(t, rows.Scan(&total))
	assert.Equal(t, int64(13), total)
	require.NoError(t, rows.Err())
}

func TestSelfRegistration(t *testing.T) {
	assert.True(t, adapter.IsRegistered("duckdb"))
	assert.True(t, adapter.IsRegistered("DuckDB"))

	adp, err := adapter.NewAdapter(core.AdapterConfig{Type: "duckdb"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "$", adp.DialectConfig().NamedParamPrefix)
}
