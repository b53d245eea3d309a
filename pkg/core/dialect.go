package core

import (
	"strconv"
	"strings"
)

// DialectConfig holds the static configuration for an engine's SQL dialect.
// This is pure data plus a few formatting helpers.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "sqlite", "duckdb")
	Name string

	// Identifiers defines quoting rules
	Identifiers IdentifierConfig

	// Placeholder defines how positional parameters are formatted
	Placeholder PlaceholderStyle

	// NamedParamPrefix is the marker the engine expects before a named
	// parameter (":" for SQLite, "$" for DuckDB).
	NamedParamPrefix string

	// Types maps an inferred value kind to the column type used in CREATE TABLE.
	// An empty type name means "no declared type".
	Types map[ValueKind]string
}

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters.
	PlaceholderDollar
)

// IdentifierConfig defines how identifiers are quoted.
type IdentifierConfig struct {
	Quote    string // Quote character: ", `, [
	QuoteEnd string // End quote character (usually same as Quote, ] for [)
	Escape   string // Escape sequence for QuoteEnd inside a quoted name: "", ``, ]]
}

// ValueKind classifies the values of a column for type inference.
type ValueKind int

const (
	// KindNull means every value in the column is NULL.
	KindNull ValueKind = iota
	KindInteger
	KindFloat
	KindText
	KindBool
	KindBlob
	KindTime
	KindDecimal
	// KindMixed means the column holds values of incompatible kinds.
	KindMixed
)

// String returns the string representation of ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindBlob:
		return "blob"
	case KindTime:
		return "time"
	case KindDecimal:
		return "decimal"
	default:
		return "mixed"
	}
}

// QuoteIdent quotes a table or column name for this dialect.
func (d *DialectConfig) QuoteIdent(name string) string {
	quote, end, esc := d.Identifiers.Quote, d.Identifiers.QuoteEnd, d.Identifiers.Escape
	if quote == "" {
		quote, end, esc = `"`, `"`, `""`
	}
	if end == "" {
		end = quote
	}
	if esc == "" {
		esc = end + end
	}
	return quote + strings.ReplaceAll(name, end, esc) + end
}

// FormatPlaceholder returns the positional placeholder for the 1-based index.
func (d *DialectConfig) FormatPlaceholder(index int) string {
	if d.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

// NamedParam returns the engine spelling of a named parameter.
func (d *DialectConfig) NamedParam(name string) string {
	prefix := d.NamedParamPrefix
	if prefix == "" {
		prefix = ":"
	}
	return prefix + name
}

// TypeName returns the column type declared for values of kind k.
func (d *DialectConfig) TypeName(k ValueKind) string {
	if d.Types == nil {
		return ""
	}
	return d.Types[k]
}
