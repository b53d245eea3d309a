package sqldf

import (
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/sqldf/pkg/core"
)

// marshalRows reads a result set into a frame. Column names, order and
// driver values are kept as the engine produced them. The rows are closed.
func marshalRows(rows *sql.Rows) (*core.Frame, error) {
	defer func() { _ = rows.Close() }()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	frame := &core.Frame{Columns: make([]core.Column, len(types))}
	for i, ct := range types {
		frame.Columns[i] = core.Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}
	if len(types) == 0 {
		return frame, rows.Err()
	}

	for rows.Next() {
		values := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		frame.Rows = append(frame.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return frame, nil
}
