package sqldf

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqldf/pkg/core"
)

// Materialize creates table name in the adapter's engine from src, replacing
// any table of that name. Column types come from the values; columns of
// mixed kinds are declared with the dialect's mixed type, and their values
// stored as text when the dialect declares one.
func Materialize(ctx context.Context, adp core.Adapter, name string, src Ingestible) (int, error) {
	t, err := src.table()
	if err != nil {
		return 0, withName(err, name)
	}
	if len(t.Columns) == 0 {
		return 0, &UnsupportedShapeError{Name: name, Type: src.Shape().String(), Reason: "no columns"}
	}

	d := adp.DialectConfig()
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = d.QuoteIdent(c)
		if typ := d.TypeName(t.Kinds[i]); typ != "" {
			defs[i] += " " + typ
			if t.Kinds[i] == core.KindMixed {
				stringifyColumn(t.Rows, i)
			}
		}
	}

	q := d.QuoteIdent(name)
	if err := adp.Exec(ctx, "DROP TABLE IF EXISTS "+q); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	//nolint:gosec // identifiers are quoted by the dialect
	create := fmt.Sprintf("CREATE TABLE %s (%s)", q, strings.Join(defs, ", "))
	if err := adp.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", name, err)
	}
	if err := adp.InsertRows(ctx, name, t.Columns, t.Rows); err != nil {
		return 0, err
	}
	return len(t.Rows), nil
}

func stringifyColumn(rows [][]any, col int) {
	for _, r := range rows {
		switch v := r[col].(type) {
		case nil, string:
		case []byte:
			r[col] = string(v)
		default:
			r[col] = fmt.Sprint(v)
		}
	}
}
