package core

import (
	"fmt"
	"reflect"
)

// Frame is an in-memory table: ordered named columns and row-major values.
// Frames are both an input shape (a host table to materialize) and the
// shape of every query result.
type Frame struct {
	Columns []Column
	Rows    [][]any
}

// NewFrame creates a frame with the given column names and no rows.
func NewFrame(names ...string) *Frame {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n}
	}
	return &Frame{Columns: cols}
}

// Append adds a row. The row must have one value per column.
func (f *Frame) Append(values ...any) error {
	if len(values) != len(f.Columns) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(values), len(f.Columns))
	}
	f.Rows = append(f.Rows, values)
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Values returns the rows of the frame.
func (f *Frame) Values() [][]any {
	if f == nil {
		return nil
	}
	return f.Rows
}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   any
	Value any
}

// Mapping is an ordered key/value collection. Unlike a Go map it keeps
// insertion order, which decides the row order when it is materialized.
type Mapping []Entry

// Set appends key/value, or replaces the value if key is already present.
// Keys that are not comparable, such as slices, never match an existing key.
func (m *Mapping) Set(key, value any) {
	for i := range *m {
		if sameKey((*m)[i].Key, key) {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, Entry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m Mapping) Get(key any) (any, bool) {
	for _, e := range m {
		if sameKey(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// sameKey is a == b without the runtime panic on uncomparable values.
func sameKey(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}
