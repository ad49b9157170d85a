package syntax

import (
	"testing"
)

func TestLexer(t *testing.T) {
	toks, err := NewLexer("fun (x : Pair) => proj Pair 0 x -- done\n?F.{u+1} := \"s\" 42").Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []TokenType{FUN, LPAREN, IDENT, COLON, IDENT, RPAREN, FATARROW, PROJ, IDENT, NAT, IDENT,
		MVAR, LLEVELS, IDENT, PLUS, NAT, RBRACE, ASSIGN, STRING, NAT, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d = %s, want %s", i, toks[i].Type, tt)
		}
	}
	if got := toks[11].Literal; got != "F" {
		t.Errorf("metavariable literal = %v, want F", got)
	}
	if got := toks[11].Pos; got != (Pos{Line: 2, Col: 1}) {
		t.Errorf("metavariable position = %v, want 2:1", got)
	}
	if got := toks[18].Literal; got != "s" {
		t.Errorf("string literal = %v, want s", got)
	}
	if got := toks[19].Literal; got != uint64(42) {
		t.Errorf("number literal = %v, want 42", got)
	}
}

func TestLexerNames(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"Pair.mk", "Pair.mk"},
		{"x'", "x'"},
		{"List.{", "List"},
		{"a_1", "a_1"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks, err := NewLexer(tt.src).Scan()
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if toks[0].Type != IDENT || toks[0].Literal != tt.want {
				t.Errorf("first token = %s %v, want identifier %s", toks[0].Type, toks[0].Literal, tt.want)
			}
		})
	}
}
