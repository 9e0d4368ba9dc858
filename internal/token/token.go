package token

import (
	"sort"
	"strings"
)

type Type string

type Token struct {
	Type    Type
	Literal string
	Line    int
	Col     int
}

const (
	// Special
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	// Separators; ';' is lexed as NEWLINE.
	NEWLINE Type = "NEWLINE"

	// Identifiers + literals
	FUNCNAME  Type = "FUNCNAME"  // Start, Print
	LOCALVAR  Type = "LOCALVAR"  // x, win.width
	GLOBALVAR Type = "GLOBALVAR" // gCount, gWin.width
	INT       Type = "INT"
	FLOAT     Type = "FLOAT"
	STRING    Type = "STRING"

	// Keywords
	DEFINE Type = "DEFINE"
	IF     Type = "IF"
	ELSEIF Type = "ELSEIF"
	ELSE   Type = "ELSE"
	WHILE  Type = "WHILE"
	LOOP   Type = "LOOP"
	RETURN Type = "RETURN"
	BREAK  Type = "BREAK"
	AND    Type = "AND"
	OR     Type = "OR"
	NOT    Type = "NOT"

	// Operators
	ASSIGN Type = "<-"
	PLUS   Type = "+"
	MINUS  Type = "-"
	STAR   Type = "*"
	SLASH  Type = "/"
	CARET  Type = "^"

	EQ Type = "=="
	NE Type = "<>"
	LT Type = "<"
	LE Type = "<="
	GT Type = ">"
	GE Type = ">="

	// Delimiters
	COMMA    Type = ","
	COLON    Type = ":"
	LPAREN   Type = "("
	RPAREN   Type = ")"
	LBRACKET Type = "["
	RBRACKET Type = "]"
	LBRACE   Type = "{"
	RBRACE   Type = "}"
)

var keywords = map[string]Type{
	"define": DEFINE,
	"if":     IF,
	"elseif": ELSEIF,
	"else":   ELSE,
	"while":  WHILE,
	"loop":   LOOP,
	"return": RETURN,
	"break":  BREAK,
	"and":    AND,
	"or":     OR,
	"not":    NOT,
}

// LookupIdent classifies a word. Keywords are case-insensitive; otherwise
// the first letter decides: uppercase names a function, g a global
// variable, anything else a local variable.
// Keywords lists the reserved words in sorted order.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for kw := range keywords {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

func LookupIdent(ident string) Type {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	if ident == "" {
		return ILLEGAL
	}
	switch c := ident[0]; {
	case c >= 'A' && c <= 'Z':
		return FUNCNAME
	case c == 'g':
		return GLOBALVAR
	default:
		return LOCALVAR
	}
}

func IsKeyword(t Type) bool {
	for _, kw := range keywords {
		if kw == t {
			return true
		}
	}
	return false
}
