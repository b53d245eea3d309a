// Package sqldf runs SQL against in-memory Go values.
//
// Every call to Execute opens a private in-memory engine, loads the
// environment values the script references as tables, runs the script and
// throws the engine away.
//
// # Naming
//
// A script can refer to an environment value in two ways:
//
//	SELECT * FROM people                -- ambient: loaded as table people
//	SELECT * FROM :people               -- imported: loaded as table ":people"
//	SELECT * FROM t WHERE age > :min    -- scalar: bound as a parameter
//
// Ambient and imported references to the same name are independent tables,
// so a script may create its own table t and still read the host value as :t.
//
// # Shapes
//
// Values are loaded according to their shape:
//
//   - *core.Frame, slices of structs and slices of string-keyed maps keep
//     their column names.
//   - Flat slices become one column c0.
//   - Slices of slices become one row per inner slice, columns c0, c1, ...
//   - core.Mapping and Go maps become one row per entry, columns c0 (key) and
//     c1 (value). A map whose values are all slices is read column-wise.
//
// # Engines
//
// SQLite (modernc.org/sqlite) is registered by this package and is the
// default. DuckDB is available after importing its adapter:
//
//	import _ "github.com/leapstack-labs/sqldf/pkg/adapters/duckdb"
//
//	frame, err := sqldf.Execute(ctx, query, env, sqldf.WithEngine("duckdb"))
package sqldf
