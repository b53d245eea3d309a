package sqldf

// Origin records how a script referred to a materialized table.
type Origin int

const (
	// OriginAmbient is a bare name in FROM/JOIN position: t.
	OriginAmbient Origin = iota
	// OriginImported is an explicit marker: :t.
	OriginImported
)

func (o Origin) String() string {
	if o == OriginImported {
		return "imported"
	}
	return "ambient"
}

// ResolvedTable is an environment value bound to an engine table name.
type ResolvedTable struct {
	EngineName string
	Ref        string
	Origin     Origin
	Source     Ingestible
}

// Param is a scalar bound to a named placeholder.
type Param struct {
	Name  string
	Value any
}

// ImportedTableName returns the engine table name for the marker :name.
// No bare identifier can spell it, so it never collides with an ambient
// table or one the script creates.
func ImportedTableName(name string) string {
	return ":" + name
}

// Resolve binds every reference to its environment value. Ambient tables come
// first, then imported tables, each in first-use order. A name used both ways
// yields two independent tables.
func Resolve(refs *References, env Environment) ([]ResolvedTable, []Param, error) {
	var tables []ResolvedTable
	for _, name := range refs.Ambient {
		src, err := Ingest(env[name])
		if err != nil {
			return nil, nil, withName(err, name)
		}
		tables = append(tables, ResolvedTable{EngineName: name, Ref: name, Origin: OriginAmbient, Source: src})
	}
	for _, name := range refs.Imported {
		src, err := Ingest(env[name])
		if err != nil {
			return nil, nil, withName(err, name)
		}
		tables = append(tables, ResolvedTable{EngineName: ImportedTableName(name), Ref: name, Origin: OriginImported, Source: src})
	}

	params := make([]Param, 0, len(refs.Params))
	for _, name := range refs.Params {
		v, ok := env[name]
		if !ok {
			return nil, nil, &UnresolvedReferenceError{Name: name}
		}
		n, _, err := normalize(v)
		if err != nil {
			return nil, nil, withName(err, name)
		}
		params = append(params, Param{Name: name, Value: n})
	}
	return tables, params, nil
}
