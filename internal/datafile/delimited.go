package datafile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqldf/pkg/core"
)

type cellKind int

const (
	cellInt cellKind = iota
	cellFloat
	cellBool
	cellText
)

// ReadDelimited reads a delimited file with a header row into a frame.
// Each column is typed by its non-empty cells: integer, float, bool, or
// text when they disagree. Empty cells are NULL.
func ReadDelimited(r io.Reader, comma rune) (*core.Frame, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d has %d fields, header has %d", line, len(rec), len(header))
		}
		records = append(records, rec)
	}

	kinds := make([]cellKind, len(header))
	for j := range header {
		kinds[j] = columnKind(records, j)
	}

	frame := core.NewFrame(header...)
	for _, rec := range records {
		row := make([]any, len(header))
		for j, cell := range rec {
			row[j] = parseCell(cell, kinds[j])
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, nil
}

func columnKind(records [][]string, col int) cellKind {
	kind, seen := cellText, false
	for _, rec := range records {
		if col >= len(rec) || rec[col] == "" {
			continue
		}
		if !seen {
			kind, seen = kindOf(rec[col]), true
		} else {
			kind = mergeCell(kind, kindOf(rec[col]))
		}
		if kind == cellText {
			break
		}
	}
	return kind
}

// mergeCell widens a column kind: integers and floats widen to float, any
// other disagreement is text.
func mergeCell(a, b cellKind) cellKind {
	switch {
	case a == b:
		return a
	case (a == cellInt && b == cellFloat) || (a == cellFloat && b == cellInt):
		return cellFloat
	}
	return cellText
}

func kindOf(s string) cellKind {
	if numeric(s) {
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return cellInt
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return cellFloat
		}
	}
	if _, err := strconv.ParseBool(strings.ToLower(s)); err == nil && len(s) > 1 {
		return cellBool
	}
	return cellText
}

// numeric rejects spellings ParseFloat accepts but a data file means as
// text: inf, nan, hex, and codes with leading zeros like 007.
func numeric(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if s == "" || !(s[0] == '.' || ('0' <= s[0] && s[0] <= '9')) {
		return false
	}
	if strings.ContainsAny(s, "xXpP_") {
		return false
	}
	return !(len(s) > 1 && s[0] == '0' && s[1] != '.' && s[1] != 'e' && s[1] != 'E')
}

func parseCell(s string, kind cellKind) any {
	if s == "" {
		return nil
	}
	switch kind {
	case cellInt:
		v, _ := strconv.ParseInt(s, 10, 64)
		return v
	case cellFloat:
		v, _ := strconv.ParseFloat(s, 64)
		return v
	case cellBool:
		v, _ := strconv.ParseBool(strings.ToLower(s))
		return v
	}
	return s
}
