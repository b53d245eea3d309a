package sqldf

import "unicode/utf8"

// Lexer tokenizes a SQL script without discarding anything: whitespace and
// comments come back as trivia tokens so statements can be reassembled
// verbatim after markers are rewritten.
type Lexer struct {
	input string
	pos   int // start of the current token
	next  int // current read position
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize returns every token of input in order, without the EOF token.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) peek(n int) byte {
	if l.next+n >= len(l.input) {
		return 0
	}
	return l.input[l.next+n]
}

func (l *Lexer) emit(t TokenType) Token {
	tok := Token{Type: t, Literal: l.input[l.pos:l.next], Offset: l.pos}
	l.pos = l.next
	return tok
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	if l.next >= len(l.input) {
		return Token{Type: TokenEOF, Offset: len(l.input)}
	}

	ch := l.input[l.next]
	switch {
	case isSpace(ch):
		for l.next < len(l.input) && isSpace(l.input[l.next]) {
			l.next++
		}
		return l.emit(TokenSpace)
	case ch == '-' && l.peek(1) == '-':
		for l.next < len(l.input) && l.input[l.next] != '\n' {
			l.next++
		}
		return l.emit(TokenComment)
	case ch == '/' && l.peek(1) == '*':
		l.next += 2
		for l.next < len(l.input) && (l.input[l.next] != '*' || l.peek(1) != '/') {
			l.next++
		}
		l.next = min(l.next+2, len(l.input))
		return l.emit(TokenComment)
	case ch == '\'':
		l.readQuoted('\'')
		return l.emit(TokenString)
	case ch == '"' || ch == '`':
		l.readQuoted(ch)
		tok := l.emit(TokenQuotedIdent)
		tok.Value = unquote(tok.Literal, ch)
		return tok
	case ch == ':':
		return l.readColon()
	case isDigit(ch) || (ch == '.' && isDigit(l.peek(1))):
		l.readNumber()
		return l.emit(TokenNumber)
	case isIdentStart(ch):
		l.readIdent()
		tok := l.emit(TokenIdent)
		tok.Value = tok.Literal
		return tok
	}

	l.next++
	switch ch {
	case ';':
		return l.emit(TokenSemicolon)
	case ',':
		return l.emit(TokenComma)
	case '.':
		return l.emit(TokenDot)
	case '(':
		return l.emit(TokenLParen)
	case ')':
		return l.emit(TokenRParen)
	}
	return l.emit(TokenOther)
}

// readColon handles `:name` markers and `::` casts. A lone colon is an
// operator.
func (l *Lexer) readColon() Token {
	if l.peek(1) == ':' {
		l.next += 2
		return l.emit(TokenOther)
	}
	if !isIdentStart(l.peek(1)) {
		l.next++
		return l.emit(TokenOther)
	}
	l.next++
	l.readIdent()
	tok := l.emit(TokenMarker)
	tok.Value = tok.Literal[1:]
	return tok
}

// readQuoted consumes a quoted run ending in closer. A doubled closer is an
// escaped closer. Unterminated runs extend to the end of input.
func (l *Lexer) readQuoted(closer byte) {
	l.next++
	for l.next < len(l.input) {
		if l.input[l.next] == closer {
			if l.peek(1) == closer {
				l.next += 2
				continue
			}
			l.next++
			return
		}
		l.next++
	}
}

func (l *Lexer) readIdent() {
	for l.next < len(l.input) && isIdentPart(l.input[l.next]) {
		l.next++
	}
}

func (l *Lexer) readNumber() {
	for l.next < len(l.input) {
		ch := l.input[l.next]
		switch {
		case isDigit(ch), ch == '.':
			l.next++
		case (ch == 'e' || ch == 'E') && (isDigit(l.peek(1)) || ((l.peek(1) == '+' || l.peek(1) == '-') && isDigit(l.peek(2)))):
			l.next += 2
		default:
			return
		}
	}
}

// unquote strips the delimiters from a quoted identifier and collapses
// doubled closers.
func unquote(lit string, closer byte) string {
	if len(lit) < 2 || lit[0] != closer {
		return lit
	}
	body := lit[1:]
	if body[len(body)-1] == closer {
		body = body[:len(body)-1]
	}
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		out = append(out, body[i])
		if body[i] == closer && i+1 < len(body) && body[i+1] == closer {
			i++
		}
	}
	return string(out)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// isIdentStart accepts ASCII letters, underscore and any non-ASCII byte so
// unicode identifiers lex as a single token.
func isIdentStart(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_' || ch >= utf8.RuneSelf
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}
