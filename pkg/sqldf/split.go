package sqldf

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqldf/pkg/core"
)

// Statement is one statement of a script, ready to run.
type Statement struct {
	// Index is the zero-based position among the script's non-blank
	// statements; empty statements such as ";;" are not counted.
	Index int
	// SQL is the rewritten text sent to the engine.
	SQL string
	// Params are the parameter names the statement binds, in first-use order.
	Params []string

	tokens []Token
}

// Split cuts a tokenized script into statements at top-level semicolons.
// Leading and trailing trivia is trimmed and blank statements are dropped.
// The body of CREATE TRIGGER ... BEGIN ... END is never cut.
func Split(tokens []Token) [][]Token {
	var out [][]Token
	start := 0
	block := 0
	trigger := false

	flush := func(end int) {
		if stmt := trimTrivia(tokens[start:end]); len(stmt) > 0 {
			out = append(out, stmt)
		}
		start = end + 1
		block = 0
		trigger = false
	}

	for i, tok := range tokens {
		switch {
		case tok.Type == TokenSemicolon:
			if block == 0 {
				flush(i)
			}
		case tok.Type != TokenIdent:
		case tok.IsKeyword("trigger") && leadsWithCreate(tokens[start:i]):
			trigger = true
		case trigger && (tok.IsKeyword("begin") || tok.IsKeyword("case")):
			block++
		case trigger && tok.IsKeyword("end") && block > 0:
			block--
		}
	}
	if start < len(tokens) {
		flush(len(tokens))
	}
	return out
}

// SplitScript splits a SQL script into statement texts.
func SplitScript(script string) []string {
	stmts := Split(Tokenize(script))
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = join(s)
	}
	return out
}

// leadsWithCreate reports whether the significant tokens are CREATE with
// only TEMP/TEMPORARY between it and the current token.
func leadsWithCreate(tokens []Token) bool {
	seenCreate := false
	for _, t := range tokens {
		if t.IsTrivia() {
			continue
		}
		switch {
		case !seenCreate && t.IsKeyword("create"):
			seenCreate = true
		case seenCreate && (t.IsKeyword("temp") || t.IsKeyword("temporary")):
		default:
			return false
		}
	}
	return seenCreate
}

func trimTrivia(tokens []Token) []Token {
	for len(tokens) > 0 && tokens[0].IsTrivia() {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].IsTrivia() {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Literal)
	}
	return b.String()
}

// Prepare splits a script and rewrites each statement for the dialect:
// imported markers become the quoted engine table name and parameter
// markers the dialect's named placeholder. When rowLimit is positive a
// trailing query without a top-level LIMIT gets one.
func Prepare(tokens []Token, refs *References, d *core.DialectConfig, rowLimit int) []Statement {
	parts := Split(tokens)
	stmts := make([]Statement, len(parts))
	for i, part := range parts {
		var b strings.Builder
		var params []string
		for _, t := range part {
			if t.Type != TokenMarker {
				b.WriteString(t.Literal)
				continue
			}
			switch {
			case refs.IsImported(t.Value):
				b.WriteString(d.QuoteIdent(ImportedTableName(t.Value)))
			case refs.IsParam(t.Value):
				b.WriteString(d.NamedParam(t.Value))
				params = appendUnique(params, t.Value)
			default:
				b.WriteString(t.Literal)
			}
		}
		if rowLimit > 0 && i == len(parts)-1 && isQuery(part) && !hasTopLevelLimit(part) {
			b.WriteString(" LIMIT " + strconv.Itoa(rowLimit))
		}
		stmts[i] = Statement{Index: i, SQL: b.String(), Params: params, tokens: part}
	}
	return stmts
}

// isQuery reports whether the statement starts with SELECT, WITH or VALUES,
// ignoring opening parentheses.
func isQuery(tokens []Token) bool {
	for _, t := range tokens {
		if t.IsTrivia() || t.Type == TokenLParen {
			continue
		}
		return t.IsKeyword("select") || t.IsKeyword("with") || t.IsKeyword("values")
	}
	return false
}

func hasTopLevelLimit(tokens []Token) bool {
	depth := 0
	for _, t := range tokens {
		switch {
		case t.Type == TokenLParen:
			depth++
		case t.Type == TokenRParen:
			depth--
		case depth == 0 && t.IsKeyword("limit"):
			return true
		}
	}
	return false
}
