package sqldf

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// TokenEOF marks the end of input. It is never part of a token slice.
	TokenEOF     TokenType = iota
	TokenSpace             // whitespace run
	TokenComment           // -- line or /* block */ comment

	TokenIdent       // bare identifier or keyword
	TokenQuotedIdent // "ident" or `ident`
	TokenString      // 'literal'
	TokenNumber      // 123, 4.5, 1e10
	TokenMarker      // :name

	TokenSemicolon // ;
	TokenComma     // ,
	TokenDot       // .
	TokenLParen    // (
	TokenRParen    // )
	TokenOther     // operators and anything else, including ::
)

var tokenNames = map[TokenType]string{
	TokenEOF:         "EOF",
	TokenSpace:       "SPACE",
	TokenComment:     "COMMENT",
	TokenIdent:       "IDENT",
	TokenQuotedIdent: "QUOTED_IDENT",
	TokenString:      "STRING",
	TokenNumber:      "NUMBER",
	TokenMarker:      "MARKER",
	TokenSemicolon:   ";",
	TokenComma:       ",",
	TokenDot:         ".",
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenOther:       "OTHER",
}

// String returns the string representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token is one lexical unit of a SQL script.
//
// Literal is the exact source text, so concatenating the literals of all
// tokens reproduces the input byte for byte. Value is the identifier name for
// TokenIdent and TokenQuotedIdent (unquoted) and the bare name for
// TokenMarker (without the colon).
type Token struct {
	Type    TokenType
	Literal string
	Value   string
	Offset  int
}

// IsTrivia reports whether the token carries no SQL meaning.
func (t Token) IsTrivia() bool {
	return t.Type == TokenSpace || t.Type == TokenComment
}

// IsKeyword reports whether the token is the bare keyword kw (lowercase).
func (t Token) IsKeyword(kw string) bool {
	return t.Type == TokenIdent && len(t.Literal) == len(kw) && lower(t.Literal) == kw
}

// lower is an ASCII-only strings.ToLower; SQL keywords are ASCII.
func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
