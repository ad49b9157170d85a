package syntax

import (
	"fmt"
	"strconv"
)

// TokenType represents the kind of token.
type TokenType int

const (
	EOF TokenType = iota

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LLEVELS  // ".{" opening the universe arguments of a constant
	RBRACE   // "}"
	COLON    // ":"
	ASSIGN   // ":="
	COMMA    // ","
	PLUS     // "+"
	ARROW    // "->"
	FATARROW // "=>"

	// Literals & identifiers
	IDENT
	MVAR // "?" followed by a name
	NAT
	STRING

	// Keywords
	FUN
	FORALL
	LET
	IN
	TYPE
	PROP
	SORT
	PROJ
)

var tokenNames = map[TokenType]string{
	EOF: "end of input", LPAREN: "'('", RPAREN: "')'", LLEVELS: "'.{'", RBRACE: "'}'",
	COLON: "':'", ASSIGN: "':='", COMMA: "','", PLUS: "'+'", ARROW: "'->'", FATARROW: "'=>'",
	IDENT: "identifier", MVAR: "metavariable", NAT: "number", STRING: "string",
	FUN: "'fun'", FORALL: "'forall'", LET: "'let'", IN: "'in'", TYPE: "'Type'",
	PROP: "'Prop'", SORT: "'Sort'", PROJ: "'proj'",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"fun":    FUN,
	"forall": FORALL,
	"let":    LET,
	"in":     IN,
	"Type":   TYPE,
	"Prop":   PROP,
	"Sort":   SORT,
	"proj":   PROJ,
}

// Pos is a 1-based line and column.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any // uint64 for NAT, string for STRING and MVAR
	Pos     Pos
}

// ParseError reports malformed input together with its position.
type ParseError struct {
	Pos Pos
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Lexer scans a term source string into tokens.
type Lexer struct {
	src    string
	start  int
	cur    int
	line   int
	col    int
	tokPos Pos
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peekN(n int) byte {
	if l.cur+n >= len(l.src) {
		return 0
	}
	return l.src[l.cur+n]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) add(tt TokenType, lit any) {
	l.tokens = append(l.tokens, Token{Type: tt, Lexeme: l.src[l.start:l.cur], Literal: lit, Pos: l.tokPos})
}

func (l *Lexer) err(msg string, args ...any) error {
	return &ParseError{Pos: l.tokPos, Msg: fmt.Sprintf(msg, args...)}
}

// skipSpace skips whitespace and "--" line comments.
func (l *Lexer) skipSpace() {
	for !l.isAtEnd() {
		switch ch := l.peekN(0); {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '-' && l.peekN(1) == '-':
			for !l.isAtEnd() && l.peekN(0) != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isIdentByte(b byte) bool {
	return isAlpha(b) || isDigit(b) || b == '\''
}

// scanName reads an identifier. Dots are part of the name when they join
// two name segments, as in Pair.mk.
func (l *Lexer) scanName() string {
	begin := l.cur
	for !l.isAtEnd() {
		ch := l.peekN(0)
		if isIdentByte(ch) || (ch == '.' && isAlpha(l.peekN(1))) {
			l.advance()
			continue
		}
		break
	}
	return l.src[begin:l.cur]
}

func (l *Lexer) scanToken() error {
	l.tokPos = Pos{Line: l.line, Col: l.col}
	ch := l.advance()
	switch {
	case ch == '(':
		l.add(LPAREN, nil)
	case ch == ')':
		l.add(RPAREN, nil)
	case ch == '}':
		l.add(RBRACE, nil)
	case ch == ',':
		l.add(COMMA, nil)
	case ch == '+':
		l.add(PLUS, nil)
	case ch == '.' && l.peekN(0) == '{':
		l.advance()
		l.add(LLEVELS, nil)
	case ch == ':':
		if l.peekN(0) == '=' {
			l.advance()
			l.add(ASSIGN, nil)
		} else {
			l.add(COLON, nil)
		}
	case ch == '-' && l.peekN(0) == '>':
		l.advance()
		l.add(ARROW, nil)
	case ch == '=' && l.peekN(0) == '>':
		l.advance()
		l.add(FATARROW, nil)
	case ch == '?':
		if l.isAtEnd() || !isAlpha(l.peekN(0)) {
			return l.err("expected a name after '?'")
		}
		l.add(MVAR, l.scanName())
	case ch == '"':
		for !l.isAtEnd() && l.peekN(0) != '"' {
			if l.advance() == '\\' && !l.isAtEnd() {
				l.advance()
			}
		}
		if l.isAtEnd() {
			return l.err("unterminated string")
		}
		l.advance()
		s, err := strconv.Unquote(l.src[l.start:l.cur])
		if err != nil {
			return l.err("bad string literal: %v", err)
		}
		l.add(STRING, s)
	case isDigit(ch):
		for !l.isAtEnd() && isDigit(l.peekN(0)) {
			l.advance()
		}
		n, err := strconv.ParseUint(l.src[l.start:l.cur], 10, 64)
		if err != nil {
			return l.err("bad number: %v", err)
		}
		l.add(NAT, n)
	case isAlpha(ch):
		l.cur--
		l.col--
		name := l.scanName()
		if kw, ok := keywords[name]; ok {
			l.add(kw, nil)
		} else {
			l.add(IDENT, name)
		}
	default:
		return l.err("unexpected character %q", ch)
	}
	return nil
}

// Scan tokenizes the whole source. The last token is always EOF.
func (l *Lexer) Scan() ([]Token, error) {
	for {
		l.skipSpace()
		l.start = l.cur
		if l.isAtEnd() {
			l.tokPos = Pos{Line: l.line, Col: l.col}
			l.add(EOF, nil)
			return l.tokens, nil
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
}
