package datafile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqldf/internal/testutil"
	"github.com/leapstack-labs/sqldf/pkg/core"
	"github.com/leapstack-labs/sqldf/pkg/sqldf"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadDelimited(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		comma   rune
		columns []string
		rows    [][]any
	}{
		{
			name:    "typed columns",
			input:   "id,name,score,active\n1,ann,1.5,true\n2,bob,2,false\n",
			comma:   ',',
			columns: []string{"id", "name", "score", "active"},
			rows:    [][]any{{int64(1), "ann", 1.5, true}, {int64(2), "bob", 2.0, false}},
		},
		{
			name:    "empty cells are null and short rows padded",
			input:   "a,b\n1,\n2\n",
			comma:   ',',
			columns: []string{"a", "b"},
			rows:    [][]any{{int64(1), nil}, {int64(2), nil}},
		},
		{
			name:    "leading zeros stay text",
			input:   "zip\n007\n123\n",
			comma:   ',',
			columns: []string{"zip"},
			rows:    [][]any{{"007"}, {"123"}},
		},
		{
			name:    "inf and nan are text",
			input:   "x\ninf\nnan\n",
			comma:   ',',
			columns: []string{"x"},
			rows:    [][]any{{"inf"}, {"nan"}},
		},
		{
			name:    "mixed column falls back to text",
			input:   "x\n1\ntrue\n",
			comma:   ',',
			columns: []string{"x"},
			rows:    [][]any{{"1"}, {"true"}},
		},
		{
			name:    "tab separated with byte order mark",
			input:   "\ufeffk\tv\nx\t0.25\n",
			comma:   '\t',
			columns: []string{"k", "v"},
			rows:    [][]any{{"x", 0.25}},
		},
		{
			name:    "header only",
			input:   "a,b\n",
			comma:   ',',
			columns: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ReadDelimited(strings.NewReader(tt.input), tt.comma)
			require.NoError(t, err)
			assert.Equal(t, tt.columns, f.ColumnNames())
			assert.Equal(t, tt.rows, f.Rows)
		})
	}
}

func TestReadDelimited_Errors(t *testing.T) {
	_, err := ReadDelimited(strings.NewReader(""), ',')
	assert.ErrorContains(t, err, "missing header row")

	_, err = ReadDelimited(strings.NewReader("a\n1,2\n"), ',')
	assert.ErrorContains(t, err, "has 2 fields, header has 1")
}

func TestReadDocument(t *testing.T) {
	doc := `
people:
  - name: ann
    age: 30
  - age: 40
    name: bob
    city: Oslo
pairs:
  - [a, 1]
  - [b, 2]
ids: [3, 1, 2]
scores:
  z: 1
  a: 2
threshold: 35
`
	m, err := ReadDocument(strings.NewReader(doc))
	require.NoError(t, err)

	var keys []any
	for _, e := range m {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []any{"people", "pairs", "ids", "scores", "threshold"}, keys)

	people, _ := m.Get("people")
	frame, ok := people.(*core.Frame)
	require.True(t, ok, "got %T", people)
	assert.Equal(t, []string{"name", "age", "city"}, frame.ColumnNames())
	assert.Equal(t, [][]any{{"ann", 30, nil}, {"bob", 40, "Oslo"}}, frame.Rows)

	pairs, _ := m.Get("pairs")
	assert.Equal(t, []any{[]any{"a", 1}, []any{"b", 2}}, pairs)

	ids, _ := m.Get("ids")
	assert.Equal(t, []any{3, 1, 2}, ids)

	scores, _ := m.Get("scores")
	assert.Equal(t, core.Mapping{{Key: "z", Value: 1}, {Key: "a", Value: 2}}, scores)

	threshold, _ := m.Get("threshold")
	assert.Equal(t, 35, threshold)
}

func TestReadDocument_JSON(t *testing.T) {
	m, err := ReadDocument(strings.NewReader(`{"rows": [{"k": "a", "v": 1.5}], "flag": true}`))
	require.NoError(t, err)

	rows, _ := m.Get("rows")
	frame, ok := rows.(*core.Frame)
	require.True(t, ok)
	assert.Equal(t, [][]any{{"a", 1.5}}, frame.Rows)

	flag, _ := m.Get("flag")
	assert.Equal(t, true, flag)
}

func TestReadDocument_Errors(t *testing.T) {
	_, err := ReadDocument(strings.NewReader("- 1\n- 2\n"))
	assert.ErrorContains(t, err, "top level must be a mapping")

	_, err = ReadDocument(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty document")

	_, err = ReadDocument(strings.NewReader("a: [1, 2"))
	assert.ErrorContains(t, err, "failed to parse document")
}

func TestReadValue_ComplexKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"sequence keys", "? [a]\n: 1\n? [b]\n: 2\n", "line 1:"},
		{"mapping key", "? {x: 1}\n: 1\n", "line 1:"},
		{"nested complex key", "outer:\n  ? [a]\n  : 1\n", "line 2:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = ReadValue(strings.NewReader(tt.input))
			})
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.line)
			assert.ErrorContains(t, err, "mapping keys must be scalars")
		})
	}

	t.Run("load reports the file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "keys.yaml", "? [a]\n: 1\n")
		_, err := Load(context.Background(), []string{path}, nil)
		assert.ErrorContains(t, err, "mapping keys must be scalars")
		assert.ErrorContains(t, err, path)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "orders.csv", "id,amount\n1,10\n2,32\n")
	yamlPath := writeFile(t, dir, "vars.yaml", "min_amount: 15\nregions: [north, south]\n")
	listPath := writeFile(t, dir, "list.json", "[1, 2, 3]")

	bindings, err := Load(context.Background(), []string{csvPath, yamlPath, "nums=" + listPath}, testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"orders", "min_amount", "regions", "nums"}, bindings.Names())
	assert.Equal(t, csvPath, bindings[0].Source)

	env := bindings.Environment()
	result, err := sqldf.Execute(context.Background(),
		"SELECT sum(amount) FROM orders WHERE amount > :min_amount", env)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(32)}}, result.Values())

	result, err = sqldf.Execute(context.Background(), "SELECT count(*) FROM nums", env)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(3)}}, result.Values())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "t.csv", "x\n1\n")
	b := writeFile(t, dir, "t.yaml", "t: [1]\n")
	txt := writeFile(t, dir, "notes.txt", "hello")

	t.Run("duplicate binding", func(t *testing.T) {
		_, err := Load(context.Background(), []string{a, b}, nil)
		var de *DuplicateBindingError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "t", de.Name)
		assert.Equal(t, a, de.First)
		assert.Equal(t, b, de.Second)
	})

	t.Run("renaming avoids the clash", func(t *testing.T) {
		bindings, err := Load(context.Background(), []string{"other=" + a, b}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"other", "t"}, bindings.Names())
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Load(context.Background(), []string{txt}, nil)
		assert.ErrorContains(t, err, "unsupported data file")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(context.Background(), []string{filepath.Join(dir, "nope.csv")}, nil)
		assert.ErrorContains(t, err, "failed to open data file")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Load(ctx, []string{a}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSplitSpec(t *testing.T) {
	tests := []struct {
		spec, name, path string
	}{
		{"data/orders.csv", "", "data/orders.csv"},
		{"o=data/orders.csv", "o", "data/orders.csv"},
		{"data/a=b.csv", "", "data/a=b.csv"},
		{"=x.csv", "", "=x.csv"},
	}
	for _, tt := range tests {
		name, path := splitSpec(tt.spec)
		assert.Equal(t, tt.name, name, tt.spec)
		assert.Equal(t, tt.path, path, tt.spec)
	}
}
