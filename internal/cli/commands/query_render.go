package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/leapstack-labs/sqldf/pkg/core"
)

func renderFrame(w io.Writer, frame *core.Frame, format string) error {
	switch format {
	case "json":
		return renderJSON(w, frame)
	case "csv":
		newTableWriter(w, frame, csvValue).RenderCSV()
		return nil
	case "md", "markdown":
		newTableWriter(w, frame, formatValue).RenderMarkdown()
		return nil
	default:
		return renderTable(w, frame)
	}
}

func newTableWriter(w io.Writer, frame *core.Frame, format func(any) string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	// Column names are case-sensitive; keep them as produced.
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)

	// Header
	headerRow := make(table.Row, len(frame.Columns))
	for i, col := range frame.Columns {
		headerRow[i] = col.Name
	}
	t.AppendHeader(headerRow)

	// Rows
	for _, values := range frame.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = format(v)
		}
		t.AppendRow(row)
	}
	return t
}

func renderTable(w io.Writer, frame *core.Frame) error {
	if frame.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	newTableWriter(w, frame, formatValue).Render()

	noun := "rows"
	if frame.Len() == 1 {
		noun = "row"
	}
	_, _ = fmt.Fprintf(w, "(%d %s)\n", frame.Len(), noun)
	return nil
}

func renderJSON(w io.Writer, frame *core.Frame) error {
	results := make([]map[string]any, 0, frame.Len())
	for _, values := range frame.Rows {
		row := make(map[string]any, len(values))
		for i, v := range values {
			// Convert []byte to string for readability
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[frame.Columns[i].Name] = v
		}
		results = append(results, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	}
	return fmt.Sprintf("%v", v)
}

func csvValue(v any) string {
	if v == nil {
		return ""
	}
	return formatValue(v)
}
