package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqldf/internal/cli/config"
	"github.com/leapstack-labs/sqldf/internal/datafile"
	"github.com/leapstack-labs/sqldf/internal/testutil"
	"github.com/leapstack-labs/sqldf/pkg/core"
	"github.com/leapstack-labs/sqldf/pkg/sqldf"
)

const ordersCSV = "region,amount\nnorth,10\nsouth,5\nnorth,20\n"

func TestQueryCommand_DirectSQL(t *testing.T) {
	orders := writeData(t, "orders.csv", ordersCSV)

	out, err := runCommand(t, NewQueryCommand(), "",
		"SELECT region, sum(amount) AS total FROM orders GROUP BY region ORDER BY region",
		"--data", orders)
	require.NoError(t, err)

	assert.Contains(t, out, "region")
	assert.Contains(t, out, "north")
	assert.Contains(t, out, "30")
	assert.Contains(t, out, "(2 rows)")
}

func TestQueryCommand_Vars(t *testing.T) {
	orders := writeData(t, "orders.csv", ordersCSV)

	out, err := runCommand(t, NewQueryCommand(), "",
		"SELECT count(*) AS n FROM orders WHERE amount > :min",
		"-d", orders, "--var", "min=7", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "n\n2\n", out)
}

func TestQueryCommand_JSONFormat(t *testing.T) {
	orders := writeData(t, "orders.csv", ordersCSV)

	out, err := runCommand(t, NewQueryCommand(), "",
		"SELECT region, amount FROM :o ORDER BY amount DESC",
		"-d", "o="+orders, "--format", "json", "--limit", "1")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []map[string]any{{"region": "north", "amount": float64(20)}}, rows)
}

func TestQueryCommand_Sources(t *testing.T) {
	script := writeData(t, "report.sql", "CREATE TABLE t AS SELECT 2 AS x;\nSELECT x * 21 AS answer FROM t;\n")

	t.Run("input file", func(t *testing.T) {
		out, err := runCommand(t, NewQueryCommand(), "", "--input", script, "--format", "csv")
		require.NoError(t, err)
		assert.Equal(t, "answer\n42\n", out)
	})

	t.Run("piped stdin", func(t *testing.T) {
		out, err := runCommand(t, NewQueryCommand(), "SELECT 'piped' AS src;", "--format", "csv")
		require.NoError(t, err)
		assert.Equal(t, "src\npiped\n", out)
	})

	t.Run("missing input file", func(t *testing.T) {
		_, err := runCommand(t, NewQueryCommand(), "", "--input", filepath.Join(t.TempDir(), "nope.sql"))
		assert.ErrorContains(t, err, "failed to read file")
	})
}

func TestQueryCommand_Errors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{name: "unknown table", args: []string{"SELECT * FROM missing"}, errSubstr: "no such table"},
		{name: "unknown engine", args: []string{"SELECT 1", "--engine", "oracle"}, errSubstr: "unknown engine type"},
		{name: "bad var", args: []string{"SELECT 1", "--var", "oops"}, errSubstr: "expected name=value"},
		{name: "missing data file", args: []string{"SELECT 1", "-d", "/nonexistent/x.csv"}, errSubstr: "failed to load data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, NewQueryCommand(), "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestQueryCommand_VarClashesWithData(t *testing.T) {
	orders := writeData(t, "orders.csv", ordersCSV)

	_, err := runCommand(t, NewQueryCommand(), "", "SELECT 1", "-d", orders, "--var", "orders=1")
	var de *datafile.DuplicateBindingError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "orders", de.Name)
	assert.Equal(t, varsSource, de.Second)
}

func TestRenderFrame(t *testing.T) {
	frame := core.NewFrame("id", "Name", "note")
	frame.Rows = [][]any{
		{int64(1), "ann", nil},
		{int64(2), "bob", []byte("a,b")},
	}

	tests := []struct {
		format string
		want   []string
	}{
		{format: "table", want: []string{"Name", "ann", "NULL", "(2 rows)"}},
		{format: "csv", want: []string{"id,Name,note", "1,ann,\n", `"a,b"`}},
		{format: "md", want: []string{"| id | Name | note |", "NULL"}},
		{format: "json", want: []string{`"Name": "ann"`, `"note": null`, `"note": "a,b"`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf strings.Builder
			require.NoError(t, renderFrame(&buf, frame, tt.format))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestRenderFrame_Empty(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, renderFrame(&buf, core.NewFrame("a"), "table"))
	assert.Equal(t, "(0 rows)\n", buf.String())

	buf.Reset()
	require.NoError(t, renderFrame(&buf, core.NewFrame("a"), "json"))
	assert.Equal(t, "[]\n", buf.String())
}

func testBindings(t *testing.T) datafile.Bindings {
	t.Helper()
	frame := core.NewFrame("a", "b")
	frame.Rows = [][]any{{1, "x"}, {2, "y"}}
	return datafile.Bindings{
		{Name: "df", Source: "df.csv", Value: frame},
		{Name: "ids", Source: "doc.yaml", Value: []any{3, 1, 2}},
		{Name: "min", Source: varsSource, Value: 2},
		{Name: "ch", Source: "test", Value: make(chan int)},
	}
}

func TestDescribeBindings(t *testing.T) {
	bindings := testBindings(t)

	all := describeBindings(bindings, allBindings)
	assert.Equal(t, []string{"name", "kind", "columns", "rows", "value", "source"}, all.ColumnNames())
	assert.Equal(t, [][]any{
		{"df", "frame", "a, b", 2, nil, "df.csv"},
		{"ids", "list", "c0", 3, nil, "doc.yaml"},
		{"min", kindScalar, nil, nil, 2, varsSource},
		{"ch", kindUnsupported, nil, nil, nil, "test"},
	}, all.Rows)

	tables := describeBindings(bindings, tableBindings)
	assert.Len(t, tables.Rows, 3)

	scalars := describeBindings(bindings, scalarBindings)
	require.Len(t, scalars.Rows, 1)
	assert.Equal(t, "min", scalars.Rows[0][0])
}

func TestTablesCommand(t *testing.T) {
	orders := writeData(t, "orders.csv", ordersCSV)
	doc := writeData(t, "doc.yaml", "regions: [north, south]\nthreshold: 3\n")

	out, err := runCommand(t, NewTablesCommand(), "", "-d", orders, "-d", doc, "--var", "min=1", "--format", "json")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 4)

	byName := make(map[string]map[string]any)
	for _, r := range rows {
		byName[r["name"].(string)] = r
	}
	assert.Equal(t, "frame", byName["orders"]["kind"])
	assert.Equal(t, "region, amount", byName["orders"]["columns"])
	assert.Equal(t, float64(3), byName["orders"]["rows"])
	assert.Equal(t, "list", byName["regions"]["kind"])
	assert.Equal(t, kindScalar, byName["threshold"]["kind"])
	assert.Equal(t, float64(1), byName["min"]["value"])
	assert.Equal(t, varsSource, byName["min"]["source"])
}

func TestEnginesCommand(t *testing.T) {
	out, err := runCommand(t, NewEnginesCommand(), "", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "engine,selected,status,detail")
	assert.Contains(t, out, "sqlite,*,ok,")
}

func TestCheckEngines(t *testing.T) {
	cfg := config.Default()
	cmdCtx := &CommandContext{Cfg: cfg, Logger: testutil.NewTestLogger(t)}

	checks := checkEngines(context.Background(), cmdCtx)
	require.NotEmpty(t, checks)
	for _, c := range checks {
		if c.Engine == sqldf.DefaultEngine {
			assert.Equal(t, "ok", c.Status, c.Detail)
			assert.True(t, c.Selected)
		}
	}
}

func newREPL(t *testing.T) (*repl, *strings.Builder, *strings.Builder) {
	t.Helper()
	bindings := testBindings(t)
	out, errOut := new(strings.Builder), new(strings.Builder)
	return &repl{
		runner:   sqldf.New(sqldf.WithLogger(testutil.NewTestLogger(t))),
		bindings: bindings,
		env:      bindings.Environment(),
		format:   "csv",
		out:      out,
		errOut:   errOut,
	}, out, errOut
}

func TestREPL_HandleLine(t *testing.T) {
	r, out, errOut := newREPL(t)
	ctx := context.Background()
	var buf strings.Builder

	done, prompt := r.handleLine(ctx, &buf, "SELECT sum(a) AS s")
	assert.False(t, done)
	assert.Equal(t, replContinuePrompt, prompt)
	assert.Empty(t, out.String())

	done, prompt = r.handleLine(ctx, &buf, "FROM df WHERE a >= :min;")
	assert.False(t, done)
	assert.Equal(t, replPrompt, prompt)
	assert.Equal(t, "s\n2\n\n", out.String())
	assert.Zero(t, buf.Len())

	out.Reset()
	r.handleLine(ctx, &buf, "SELECT * FROM nowhere;")
	assert.Contains(t, errOut.String(), "Error:")
	assert.Contains(t, errOut.String(), "nowhere")

	// State does not survive between scripts.
	r.handleLine(ctx, &buf, "CREATE TABLE kept (x);")
	errOut.Reset()
	r.handleLine(ctx, &buf, "SELECT * FROM kept;")
	assert.Contains(t, errOut.String(), "kept")
}

func TestREPL_DotCommands(t *testing.T) {
	tests := []struct {
		line    string
		quit    bool
		wantOut string
		wantErr string
	}{
		{line: ".quit", quit: true},
		{line: ".exit", quit: true},
		{line: ".help", wantOut: ".tables"},
		{line: ".tables", wantOut: "df,frame,"},
		{line: ".vars", wantOut: "min,scalar,"},
		{line: ".bogus", wantErr: "Unknown command: .bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r, out, errOut := newREPL(t)
			var buf strings.Builder

			done, _ := r.handleLine(context.Background(), &buf, tt.line)
			assert.Equal(t, tt.quit, done)
			assert.Contains(t, out.String(), tt.wantOut)
			assert.Contains(t, errOut.String(), tt.wantErr)
		})
	}

	t.Run(".vars hides tables", func(t *testing.T) {
		r, out, _ := newREPL(t)
		r.handleDotCommand(".vars")
		assert.NotContains(t, out.String(), "df,")
	})
}

func TestHistoryFile(t *testing.T) {
	cfg := config.Default()
	cfg.HistoryFile = "/tmp/custom_history"
	assert.Equal(t, "/tmp/custom_history", historyFile(cfg))

	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg.HistoryFile = ""
	assert.Equal(t, filepath.Join(home, config.DefaultHistoryFile), historyFile(cfg))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(strings.NewReader("")))

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, isTerminal(f))
}
