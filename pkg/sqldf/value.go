package sqldf

import (
	"database/sql/driver"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/sqldf/pkg/core"
	"github.com/shopspring/decimal"
)

// Shape identifies the materialization strategy of an Ingestible.
type Shape int

const (
	ShapeFrame Shape = iota
	ShapeList
	ShapeRows
	ShapeMapping
)

func (s Shape) String() string {
	switch s {
	case ShapeFrame:
		return "frame"
	case ShapeList:
		return "list"
	case ShapeRows:
		return "rows"
	case ShapeMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Ingestible is a host value that can be materialized as a table. The set of
// implementations is closed: FrameValue, ListValue, RowsValue, MappingValue.
type Ingestible interface {
	Shape() Shape
	table() (*table, error)
}

// table is the normalized, row-major form of an Ingestible, freshly
// allocated on every call so the host value is never shared.
type table struct {
	Columns []string
	Kinds   []core.ValueKind
	Rows    [][]any
}

func newTable(columns []string) *table {
	return &table{Columns: columns, Kinds: make([]core.ValueKind, len(columns))}
}

// add normalizes values into a new row, padding with NULL to the table
// width, and widens the column kinds.
func (t *table) add(values []any) error {
	row := make([]any, len(t.Columns))
	for j, v := range values {
		n, k, err := normalize(v)
		if err != nil {
			return err
		}
		row[j] = n
		t.Kinds[j] = mergeKind(t.Kinds[j], k)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// FrameValue is a table with named columns.
type FrameValue struct {
	Frame *core.Frame
}

// ListValue is a flat sequence of scalars, materialized as column c0.
type ListValue struct {
	Items []any
}

// RowsValue is a sequence of sequences, one row per inner sequence.
type RowsValue struct {
	Rows [][]any
}

// MappingValue is a key/value collection, one row per entry.
type MappingValue struct {
	Entries core.Mapping
}

func (FrameValue) Shape() Shape   { return ShapeFrame }
func (ListValue) Shape() Shape    { return ShapeList }
func (RowsValue) Shape() Shape    { return ShapeRows }
func (MappingValue) Shape() Shape { return ShapeMapping }

func (v FrameValue) table() (*table, error) {
	if v.Frame == nil || len(v.Frame.Columns) == 0 {
		return nil, &UnsupportedShapeError{Type: "core.Frame", Reason: "frame has no columns"}
	}
	t := newTable(v.Frame.ColumnNames())
	for i, r := range v.Frame.Rows {
		if len(r) != len(t.Columns) {
			return nil, &UnsupportedShapeError{
				Type:   "core.Frame",
				Reason: fmt.Sprintf("row %d has %d values, frame has %d columns", i, len(r), len(t.Columns)),
			}
		}
		if err := t.add(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (v ListValue) table() (*table, error) {
	t := newTable([]string{positional(0)})
	for _, item := range v.Items {
		if err := t.add([]any{item}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (v RowsValue) table() (*table, error) {
	width := 0
	for _, r := range v.Rows {
		width = max(width, len(r))
	}
	if width == 0 {
		return nil, &UnsupportedShapeError{Type: "rows", Reason: "rows have no columns"}
	}
	cols := make([]string, width)
	for i := range cols {
		cols[i] = positional(i)
	}
	t := newTable(cols)
	for _, r := range v.Rows {
		if err := t.add(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (v MappingValue) table() (*table, error) {
	t := newTable([]string{positional(0), positional(1)})
	for _, e := range v.Entries {
		if err := t.add([]any{e.Key, e.Value}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func positional(i int) string {
	return "c" + strconv.Itoa(i)
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	frameType   = reflect.TypeOf(core.Frame{})
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// IsScalar reports whether v can be bound as a single parameter value.
func IsScalar(v any) bool {
	_, _, err := normalize(v)
	return err == nil
}

// IsTabular reports whether v can be materialized as a table.
func IsTabular(v any) bool {
	_, err := Ingest(v)
	return err == nil
}

// normalize converts a scalar into a value every database/sql driver accepts:
// nil, int64, float64, bool, string, []byte or time.Time. Decimals and
// unsigned integers beyond int64 become their exact string form with
// KindDecimal.
func normalize(v any) (any, core.ValueKind, error) {
	switch x := v.(type) {
	case nil:
		return nil, core.KindNull, nil
	case int64:
		return x, core.KindInteger, nil
	case float64:
		return x, core.KindFloat, nil
	case bool:
		return x, core.KindBool, nil
	case string:
		return x, core.KindText, nil
	case []byte:
		return x, core.KindBlob, nil
	case time.Time:
		return x, core.KindTime, nil
	case decimal.Decimal:
		return x.String(), core.KindDecimal, nil
	case *decimal.Decimal:
		if x == nil {
			return nil, core.KindNull, nil
		}
		return x.String(), core.KindDecimal, nil
	case driver.Valuer:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, core.KindNull, nil
		}
		dv, err := x.Value()
		if err != nil {
			return nil, core.KindNull, err
		}
		return normalize(dv)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, core.KindNull, nil
		}
		rv = rv.Elem()
		if t := rv.Type(); t == timeType || t == decimalType || t.Implements(valuerType) {
			return normalize(rv.Interface())
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), core.KindBool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), core.KindInteger, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0).String(), core.KindDecimal, nil
		}
		return int64(u), core.KindInteger, nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), core.KindFloat, nil
	case reflect.String:
		return rv.String(), core.KindText, nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes(), core.KindBlob, nil
		}
	}
	return nil, core.KindNull, &UnsupportedShapeError{Type: typeName(v)}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

// Ingest classifies a host value into its Ingestible variant. Values with no
// table form return *UnsupportedShapeError.
func Ingest(v any) (Ingestible, error) {
	switch x := v.(type) {
	case Ingestible:
		return x, nil
	case *core.Frame:
		if x == nil {
			break
		}
		return FrameValue{Frame: x}, nil
	case core.Frame:
		return FrameValue{Frame: &x}, nil
	case core.Mapping:
		return MappingValue{Entries: x}, nil
	case *core.Mapping:
		if x == nil {
			break
		}
		return MappingValue{Entries: *x}, nil
	}

	if v == nil {
		return nil, &UnsupportedShapeError{Type: "nil"}
	}
	if IsScalar(v) {
		return nil, &UnsupportedShapeError{Type: typeName(v), Reason: "value is a scalar"}
	}

	rv := indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return ingestSequence(rv, typeName(v))
	case reflect.Map:
		return ingestMap(rv, typeName(v))
	}
	return nil, &UnsupportedShapeError{Type: typeName(v)}
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv
}

type elemClass int

const (
	classNull elemClass = iota
	classScalar
	classSequence
	classRecord
	classMap
	classOther
)

func classify(rv reflect.Value) elemClass {
	rv = indirect(rv)
	if !rv.IsValid() || ((rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil()) {
		return classNull
	}
	if IsScalar(rv.Interface()) {
		return classScalar
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return classSequence
	case reflect.Struct:
		if rv.Type() == frameType {
			return classOther
		}
		return classRecord
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return classMap
		}
	}
	return classOther
}

// ingestSequence decides between list, rows and record frames from the
// elements of a slice or array. All non-nil elements must agree.
func ingestSequence(rv reflect.Value, typ string) (Ingestible, error) {
	class := classNull
	for i := 0; i < rv.Len(); i++ {
		c := classify(rv.Index(i))
		if c == classNull {
			continue
		}
		if c == classOther || (class != classNull && c != class) {
			return nil, &UnsupportedShapeError{Type: typ, Reason: fmt.Sprintf("element %d has an unsupported or mixed shape", i)}
		}
		class = c
	}

	switch class {
	case classSequence:
		rows := make([][]any, rv.Len())
		for i := range rows {
			inner := indirect(rv.Index(i))
			if !inner.IsValid() || inner.Kind() == reflect.Pointer || inner.Kind() == reflect.Interface {
				continue
			}
			rows[i] = sequenceValues(inner)
		}
		return RowsValue{Rows: rows}, nil
	case classRecord:
		return structFrame(rv, typ)
	case classMap:
		return recordFrame(rv)
	case classNull:
		if elem := derefType(rv.Type().Elem()); elem.Kind() == reflect.Struct && elem != timeType && elem != decimalType && !elem.Implements(valuerType) {
			return structFrame(rv, typ)
		}
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = interfaceOf(rv.Index(i))
	}
	return ListValue{Items: items}, nil
}

func sequenceValues(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = interfaceOf(rv.Index(i))
	}
	return out
}

func interfaceOf(rv reflect.Value) any {
	rv = indirect(rv)
	if !rv.IsValid() || ((rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil()) {
		return nil
	}
	return rv.Interface()
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// structFields returns the column names and field indexes of a struct type.
// The db tag renames a field; db:"-" skips it.
func structFields(t reflect.Type) ([]string, [][]int) {
	var names []string
	var index [][]int
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("db"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		names = append(names, name)
		index = append(index, f.Index)
	}
	return names, index
}

func structFrame(rv reflect.Value, typ string) (Ingestible, error) {
	elem := derefType(rv.Type().Elem())
	if elem.Kind() == reflect.Interface {
		for i := 0; i < rv.Len(); i++ {
			if e := indirect(rv.Index(i)); e.IsValid() && e.Kind() == reflect.Struct {
				elem = e.Type()
				break
			}
		}
	}
	names, index := structFields(elem)
	if len(names) == 0 {
		return nil, &UnsupportedShapeError{Type: typ, Reason: "struct has no exported fields"}
	}

	f := core.NewFrame(names...)
	for i := 0; i < rv.Len(); i++ {
		row := make([]any, len(names))
		e := indirect(rv.Index(i))
		if e.IsValid() && e.Kind() == reflect.Struct {
			if e.Type() != elem {
				return nil, &UnsupportedShapeError{Type: typ, Reason: fmt.Sprintf("element %d is %s, want %s", i, e.Type(), elem)}
			}
			for j, idx := range index {
				fv, err := e.FieldByIndexErr(idx)
				if err == nil && fv.CanInterface() {
					row[j] = interfaceOf(fv)
				}
			}
		}
		f.Rows = append(f.Rows, row)
	}
	return FrameValue{Frame: f}, nil
}

// recordFrame builds a frame from a sequence of string-keyed maps. Columns
// are the sorted union of all keys; missing keys are NULL.
func recordFrame(rv reflect.Value) (Ingestible, error) {
	seen := make(map[string]bool)
	var names []string
	for i := 0; i < rv.Len(); i++ {
		e := indirect(rv.Index(i))
		if !e.IsValid() || e.Kind() != reflect.Map {
			continue
		}
		iter := e.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)

	f := core.NewFrame(names...)
	for i := 0; i < rv.Len(); i++ {
		row := make([]any, len(names))
		e := indirect(rv.Index(i))
		if e.IsValid() && e.Kind() == reflect.Map {
			for j, n := range names {
				if mv := e.MapIndex(reflect.ValueOf(n).Convert(e.Type().Key())); mv.IsValid() {
					row[j] = interfaceOf(mv)
				}
			}
		}
		f.Rows = append(f.Rows, row)
	}
	return FrameValue{Frame: f}, nil
}

// ingestMap turns a Go map into a mapping with entries in sorted key order.
// A map whose values are all sequences is read column-wise instead: one
// column per key, in key order.
func ingestMap(rv reflect.Value, typ string) (Ingestible, error) {
	keys := rv.MapKeys()
	sorted := make([]any, len(keys))
	for i, k := range keys {
		n, _, err := normalize(k.Interface())
		if err != nil {
			return nil, &UnsupportedShapeError{Type: typ, Reason: "map key is not a scalar"}
		}
		sorted[i] = n
	}
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return lessKey(sorted[order[a]], sorted[order[b]]) })

	columnar := len(keys) > 0
	for _, k := range keys {
		if classify(rv.MapIndex(k)) != classSequence {
			columnar = false
			break
		}
	}
	if columnar && rv.Type().Key().Kind() == reflect.String {
		return columnFrame(rv, keys, order), nil
	}

	entries := make(core.Mapping, len(keys))
	for i, o := range order {
		entries[i] = core.Entry{Key: interfaceOf(keys[o]), Value: interfaceOf(rv.MapIndex(keys[o]))}
	}
	return MappingValue{Entries: entries}, nil
}

func columnFrame(rv reflect.Value, keys []reflect.Value, order []int) Ingestible {
	names := make([]string, len(order))
	cols := make([][]any, len(order))
	height := 0
	for i, o := range order {
		names[i] = keys[o].String()
		cols[i] = sequenceValues(indirect(rv.MapIndex(keys[o])))
		height = max(height, len(cols[i]))
	}
	f := core.NewFrame(names...)
	for r := 0; r < height; r++ {
		row := make([]any, len(cols))
		for c, col := range cols {
			if r < len(col) {
				row[c] = col[r]
			}
		}
		f.Rows = append(f.Rows, row)
	}
	return FrameValue{Frame: f}
}

// lessKey orders normalized keys: numbers numerically, everything else by
// its printed form, numbers first.
func lessKey(a, b any) bool {
	fa, aNum := number(a)
	fb, bNum := number(b)
	switch {
	case aNum && bNum:
		return fa < fb
	case aNum != bNum:
		return aNum
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// mergeKind widens a column kind with one more value. NULLs are ignored;
// integers mixed with floats widen to float; any other disagreement is
// KindMixed.
func mergeKind(a, b core.ValueKind) core.ValueKind {
	switch {
	case a == b || b == core.KindNull:
		return a
	case a == core.KindNull:
		return b
	case numeric(a) && numeric(b):
		if a == core.KindFloat || b == core.KindFloat {
			return core.KindFloat
		}
		return core.KindDecimal
	}
	return core.KindMixed
}

func numeric(k core.ValueKind) bool {
	return k == core.KindInteger || k == core.KindFloat || k == core.KindDecimal
}

// Inspect returns the column names and row count src would be materialized
// with.
func Inspect(src Ingestible) ([]string, int, error) {
	t, err := src.table()
	if err != nil {
		return nil, 0, err
	}
	return t.Columns, len(t.Rows), nil
}
