package sqldf

// Environment maps names visible to a query to host values. It is read, never
// written.
type Environment map[string]any

// References lists the environment names a script uses, in first-use order
// without duplicates.
type References struct {
	// Ambient are bare table names in FROM/JOIN position bound to tabular values.
	Ambient []string
	// Imported are :name markers bound to tabular values.
	Imported []string
	// Params are :name markers bound to scalars.
	Params []string
}

// IsImported reports whether name is used as an imported table.
func (r *References) IsImported(name string) bool { return contains(r.Imported, name) }

// IsParam reports whether name is used as a parameter.
func (r *References) IsParam(name string) bool { return contains(r.Params, name) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	if contains(list, s) {
		return list
	}
	return append(list, s)
}

// fromListEnd are keywords that close a FROM clause at the current depth.
var fromListEnd = map[string]bool{
	"where": true, "group": true, "order": true, "limit": true, "having": true,
	"union": true, "intersect": true, "except": true, "window": true, "set": true,
	"returning": true, "values": true, "select": true, "qualify": true, "offset": true,
	"fetch": true,
}

// Scan finds the environment names referenced by a tokenized script.
//
// Markers (:name) are classified by their value: tables for tabular values,
// parameters for scalars. A marker with no value is an error. Bare names
// right after FROM or JOIN, or after a comma in a FROM list, are ambient
// tables when the environment holds a tabular value under that name;
// otherwise they are left for the engine to resolve.
func Scan(tokens []Token, env Environment) (*References, error) {
	refs := &References{}

	// inFrom[d] tracks whether paren depth d is inside a FROM list.
	inFrom := []bool{false}
	expectTable := false

	for i, tok := range tokens {
		if tok.IsTrivia() {
			continue
		}
		depth := len(inFrom) - 1

		switch tok.Type {
		case TokenMarker:
			expectTable = false
			v, ok := env[tok.Value]
			if !ok {
				return nil, &UnresolvedReferenceError{Name: tok.Value}
			}
			if IsScalar(v) {
				refs.Params = appendUnique(refs.Params, tok.Value)
				continue
			}
			if _, err := Ingest(v); err != nil {
				return nil, withName(err, tok.Value)
			}
			refs.Imported = appendUnique(refs.Imported, tok.Value)

		case TokenIdent, TokenQuotedIdent:
			if tok.Type == TokenIdent {
				kw := lower(tok.Literal)
				if kw == "from" || kw == "join" {
					inFrom[depth] = true
					expectTable = true
					continue
				}
				if inFrom[depth] && fromListEnd[kw] {
					inFrom[depth] = false
				}
			}
			if !expectTable {
				continue
			}
			expectTable = false
			if next := nextSignificant(tokens, i); next != nil && (next.Type == TokenDot || next.Type == TokenLParen) {
				continue
			}
			v, ok := env[tok.Value]
			if !ok || IsScalar(v) {
				continue
			}
			if _, err := Ingest(v); err != nil {
				return nil, withName(err, tok.Value)
			}
			refs.Ambient = appendUnique(refs.Ambient, tok.Value)

		case TokenLParen:
			inFrom = append(inFrom, false)
			expectTable = false

		case TokenRParen:
			if len(inFrom) > 1 {
				inFrom = inFrom[:len(inFrom)-1]
			}
			expectTable = false

		case TokenComma:
			expectTable = inFrom[depth]

		case TokenSemicolon:
			inFrom = []bool{false}
			expectTable = false

		default:
			expectTable = false
		}
	}
	return refs, nil
}

func nextSignificant(tokens []Token, i int) *Token {
	for j := i + 1; j < len(tokens); j++ {
		if !tokens[j].IsTrivia() {
			return &tokens[j]
		}
	}
	return nil
}

func withName(err error, name string) error {
	if se, ok := err.(*UnsupportedShapeError); ok && se.Name == "" {
		cp := *se
		cp.Name = name
		return &cp
	}
	return err
}
