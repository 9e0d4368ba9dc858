package lexer

import (
	"pebl/internal/token"
)

type Lexer struct {
	input string

	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination

	line int // 1-based
	col  int // 1-based column of current char
}

func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0, // readChar() will advance to col=1 for first char
	}
	// UTF-8 byte order mark
	if len(input) >= 3 && input[0] == 0xEF && input[1] == 0xBB && input[2] == 0xBF {
		l.readPosition = 3
	}
	l.readChar()
	return l
}

// Tokenize lexes the whole input, EOF token included.
func Tokenize(input string) []token.Token {
	l := New(input)
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	// Skip spaces/tabs and comments, but NOT newlines.
	for {
		l.skipWhitespace()
		if l.ch == '#' {
			l.skipLineComment()
			continue
		}
		break
	}

	if l.ch == '\n' || l.ch == ';' {
		tok := l.newToken(token.NEWLINE, "\n", l.line, l.col)
		l.readChar()
		return tok
	}

	if l.ch == 0 {
		return l.newToken(token.EOF, "", l.line, l.col)
	}

	startLine, startCol := l.line, l.col

	switch l.ch {
	case '(':
		return l.single(token.LPAREN, startLine, startCol)
	case ')':
		return l.single(token.RPAREN, startLine, startCol)
	case '{':
		return l.single(token.LBRACE, startLine, startCol)
	case '}':
		return l.single(token.RBRACE, startLine, startCol)
	case '[':
		return l.single(token.LBRACKET, startLine, startCol)
	case ']':
		return l.single(token.RBRACKET, startLine, startCol)
	case ',':
		return l.single(token.COMMA, startLine, startCol)
	case ':':
		// :Name( is an accepted spelling of a call
		if isUpper(l.peekChar()) {
			l.readChar()
			lit := l.readIdentifier()
			return l.newToken(token.LookupIdent(lit), lit, startLine, startCol)
		}
		return l.single(token.COLON, startLine, startCol)
	case '+':
		return l.single(token.PLUS, startLine, startCol)
	case '-':
		return l.single(token.MINUS, startLine, startCol)
	case '*':
		return l.single(token.STAR, startLine, startCol)
	case '/':
		return l.single(token.SLASH, startLine, startCol)
	case '^':
		return l.single(token.CARET, startLine, startCol)

	case '=':
		if l.peekChar() == '=' {
			return l.double(token.EQ, startLine, startCol)
		}
		// bare '=' is accepted as comparison
		return l.single(token.EQ, startLine, startCol)
	case '!', '~':
		if l.peekChar() == '=' {
			return l.double(token.NE, startLine, startCol)
		}
		return l.single(token.ILLEGAL, startLine, startCol)
	case '<':
		switch l.peekChar() {
		case '-':
			return l.double(token.ASSIGN, startLine, startCol)
		case '=':
			return l.double(token.LE, startLine, startCol)
		case '>':
			return l.double(token.NE, startLine, startCol)
		}
		return l.single(token.LT, startLine, startCol)
	case '>':
		if l.peekChar() == '=' {
			return l.double(token.GE, startLine, startCol)
		}
		return l.single(token.GT, startLine, startCol)

	case '"':
		return l.readStringToken(startLine, startCol)
	}

	if isIdentStart(l.ch) {
		lit := l.readIdentifier()
		return l.newToken(token.LookupIdent(lit), lit, startLine, startCol)
	}

	if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
		lit, isFloat := l.readNumber()
		if isFloat {
			return l.newToken(token.FLOAT, lit, startLine, startCol)
		}
		return l.newToken(token.INT, lit, startLine, startCol)
	}

	return l.single(token.ILLEGAL, startLine, startCol)
}

func (l *Lexer) single(t token.Type, line, col int) token.Token {
	tok := l.newToken(t, string(l.ch), line, col)
	l.readChar()
	return tok
}

func (l *Lexer) double(t token.Type, line, col int) token.Token {
	ch := l.ch
	l.readChar()
	tok := l.newToken(t, string([]byte{ch, l.ch}), line, col)
	l.readChar()
	return tok
}

func (l *Lexer) newToken(t token.Type, lit string, line, col int) token.Token {
	return token.Token{
		Type:    t,
		Literal: lit,
		Line:    line,
		Col:     col,
	}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}

	prev := l.ch
	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++

	if prev == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	// NextToken emits the NEWLINE.
}

// readIdentifier also consumes one ".property" suffix, so "win.width" is a
// single variable token.
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentPart(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isIdentStart(l.peekChar()) {
		l.readChar()
		for isIdentPart(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() (string, bool) {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	isFloat := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.position], isFloat
}

// Strings have no escapes and may span lines.
func (l *Lexer) readStringToken(startLine, startCol int) token.Token {
	l.readChar() // move past opening quote
	start := l.position
	for l.ch != '"' {
		if l.ch == 0 {
			return l.newToken(token.ILLEGAL, "unterminated string", startLine, startCol)
		}
		l.readChar()
	}
	lit := l.input[start:l.position]
	l.readChar() // consume closing quote
	return l.newToken(token.STRING, lit, startLine, startCol)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isUpper(ch byte) bool {
	return ch >= 'A' && ch <= 'Z'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
