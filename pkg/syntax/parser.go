package syntax

import (
	"fmt"

	"github.com/gitrdm/gokanunify/pkg/kernel"
)

// Parse reads a closed term. Names resolve, innermost first, to bound
// variables, free variables of the environment and then constants.
//
// Example:
//
//	e, err := syntax.Parse("fun (x : Nat) => f (?X x)", scope)
func Parse(src string, sc *Scope) (kernel.Expr, error) {
	p, err := newParser(src, sc)
	if err != nil {
		return nil, err
	}
	e, err := p.term()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return e, nil
}

// ParseBinders reads a telescope such as "(A B : Type) (x : A)". Later
// binder types may refer to earlier binders.
func ParseBinders(src string, sc *Scope) ([]kernel.Binder, error) {
	p, err := newParser(src, sc)
	if err != nil {
		return nil, err
	}
	if p.atEnd() {
		return nil, nil
	}
	bs, err := p.binders()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return bs, nil
}

// ParseLevel reads a universe level such as "max(u, 1)" or "u+1".
func ParseLevel(src string, sc *Scope) (kernel.Level, error) {
	p, err := newParser(src, sc)
	if err != nil {
		return nil, err
	}
	l, err := p.level()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return l, nil
}

type parser struct {
	toks  []Token
	i     int
	sc    *Scope
	names []string // bound variable names, innermost last
}

func newParser(src string, sc *Scope) (*parser, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks, sc: sc}, nil
}

func (p *parser) peek() Token { return p.toks[p.i] }
func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) next() Token {
	t := p.toks[p.i]
	if t.Type != EOF {
		p.i++
	}
	return t
}

func (p *parser) match(tt TokenType) bool {
	if p.peek().Type == tt {
		p.next()
		return true
	}
	return false
}

func (p *parser) errAt(t Token, msg string, args ...any) error {
	return &ParseError{Pos: t.Pos, Msg: fmt.Sprintf(msg, args...)}
}

func (p *parser) need(tt TokenType) (Token, error) {
	t := p.peek()
	if t.Type != tt {
		return t, p.errAt(t, "expected %s, found %s", tt, describe(t))
	}
	return p.next(), nil
}

func (p *parser) expectEnd() error {
	if t := p.peek(); t.Type != EOF {
		return p.errAt(t, "unexpected %s", describe(t))
	}
	return nil
}

func describe(t Token) string {
	if t.Type == EOF {
		return t.Type.String()
	}
	return fmt.Sprintf("%q", t.Lexeme)
}

func (p *parser) push(names ...string) { p.names = append(p.names, names...) }
func (p *parser) pop(n int)            { p.names = p.names[:len(p.names)-n] }

// term := "fun" binders "=>" term | "forall" binders "," term
//
//	| "let" ident ":" term ":=" term "in" term | arrow
func (p *parser) term() (kernel.Expr, error) {
	switch p.peek().Type {
	case FUN:
		p.next()
		return p.binding(FATARROW, kernel.MkLambdas)
	case FORALL:
		p.next()
		return p.binding(COMMA, kernel.MkForalls)
	case LET:
		return p.let()
	}
	return p.arrow()
}

func (p *parser) binding(sep TokenType, mk func([]kernel.Binder, kernel.Expr) kernel.Expr) (kernel.Expr, error) {
	bs, err := p.binders()
	if err != nil {
		return nil, err
	}
	defer p.pop(len(bs))
	if _, err := p.need(sep); err != nil {
		return nil, err
	}
	body, err := p.term()
	if err != nil {
		return nil, err
	}
	return mk(bs, body), nil
}

// binders := ("(" ident+ ":" term ")")+ | ident+ ":" term
//
// The names of the binders stay pushed; the caller pops them.
func (p *parser) binders() ([]kernel.Binder, error) {
	if p.peek().Type != LPAREN {
		return p.binderGroup()
	}
	var bs []kernel.Binder
	for p.peek().Type == LPAREN {
		p.next()
		group, err := p.binderGroup()
		if err != nil {
			p.pop(len(bs))
			return nil, err
		}
		bs = append(bs, group...)
		if _, err := p.need(RPAREN); err != nil {
			p.pop(len(bs))
			return nil, err
		}
	}
	return bs, nil
}

func (p *parser) binderGroup() ([]kernel.Binder, error) {
	var names []string
	for p.peek().Type == IDENT {
		names = append(names, p.next().Literal.(string))
	}
	if len(names) == 0 {
		t := p.peek()
		return nil, p.errAt(t, "expected a binder name, found %s", describe(t))
	}
	if _, err := p.need(COLON); err != nil {
		return nil, err
	}
	typ, err := p.term()
	if err != nil {
		return nil, err
	}
	bs := make([]kernel.Binder, len(names))
	for i, n := range names {
		// Every name in the group shares the type, seen from its own position.
		bs[i] = kernel.Binder{Name: n, Type: kernel.Lift(typ, i)}
		p.push(n)
	}
	return bs, nil
}

func (p *parser) let() (kernel.Expr, error) {
	p.next()
	nameTok, err := p.need(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COLON); err != nil {
		return nil, err
	}
	typ, err := p.term()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.term()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(IN); err != nil {
		return nil, err
	}
	name := nameTok.Literal.(string)
	p.push(name)
	defer p.pop(1)
	body, err := p.term()
	if err != nil {
		return nil, err
	}
	return &kernel.Let{Name: name, Type: typ, Value: val, Body: body}, nil
}

// arrow := app ("->" term)?
func (p *parser) arrow() (kernel.Expr, error) {
	dom, err := p.app()
	if err != nil {
		return nil, err
	}
	if !p.match(ARROW) {
		return dom, nil
	}
	cod, err := p.term()
	if err != nil {
		return nil, err
	}
	return kernel.Arrow(dom, cod), nil
}

func startsAtom(tt TokenType) bool {
	switch tt {
	case IDENT, MVAR, NAT, STRING, TYPE, PROP, LPAREN:
		return true
	}
	return false
}

// app := head atom*, where head is "Sort" level, "proj" ident nat atom or an atom.
func (p *parser) app() (kernel.Expr, error) {
	var head kernel.Expr
	switch t := p.peek(); t.Type {
	case SORT:
		p.next()
		l, err := p.levelAtom()
		if err != nil {
			return nil, err
		}
		head = &kernel.Sort{Level: l}
	case PROJ:
		pr, err := p.proj()
		if err != nil {
			return nil, err
		}
		head = pr
	default:
		if !startsAtom(t.Type) {
			return nil, p.errAt(t, "expected a term, found %s", describe(t))
		}
		a, err := p.atom()
		if err != nil {
			return nil, err
		}
		head = a
	}
	for startsAtom(p.peek().Type) {
		a, err := p.atom()
		if err != nil {
			return nil, err
		}
		head = &kernel.App{Fn: head, Arg: a}
	}
	return head, nil
}

func (p *parser) proj() (kernel.Expr, error) {
	p.next()
	st, err := p.need(IDENT)
	if err != nil {
		return nil, err
	}
	idx, err := p.need(NAT)
	if err != nil {
		return nil, err
	}
	name := st.Literal.(string)
	info, ok := p.sc.Env.Structure(name)
	if !ok {
		return nil, p.errAt(st, "%s is not a structure", name)
	}
	i := int(idx.Literal.(uint64))
	if i >= len(info.Fields) {
		return nil, p.errAt(idx, "structure %s has %d fields", name, len(info.Fields))
	}
	arg, err := p.atom()
	if err != nil {
		return nil, err
	}
	return &kernel.Proj{Struct: name, Idx: i, Expr: arg}, nil
}

func (p *parser) atom() (kernel.Expr, error) {
	t := p.next()
	switch t.Type {
	case LPAREN:
		e, err := p.term()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case TYPE:
		return kernel.Type(0), nil
	case PROP:
		return kernel.Prop(), nil
	case NAT:
		return &kernel.NatLit{Value: t.Literal.(uint64)}, nil
	case STRING:
		return &kernel.StrLit{Value: t.Literal.(string)}, nil
	case MVAR:
		m, ok := p.sc.MVars[t.Literal.(string)]
		if !ok {
			return nil, p.errAt(t, "undeclared metavariable %s", t.Lexeme)
		}
		return m, nil
	case IDENT:
		return p.ident(t)
	}
	return nil, p.errAt(t, "expected a term, found %s", describe(t))
}

func (p *parser) ident(t Token) (kernel.Expr, error) {
	name := t.Literal.(string)
	for i := len(p.names) - 1; i >= 0; i-- {
		if p.names[i] == name {
			return &kernel.BVar{Idx: len(p.names) - 1 - i}, nil
		}
	}
	env := p.sc.Env
	if env.IsFVar(name) {
		return &kernel.FVar{Name: name}, nil
	}
	info, ok := env.Lookup(name)
	if !ok {
		return nil, p.errAt(t, "unknown identifier %s", name)
	}
	c := &kernel.Const{Name: name}
	if p.match(LLEVELS) {
		ls, err := p.levelList()
		if err != nil {
			return nil, err
		}
		if len(ls) != len(info.LevelParams) {
			return nil, p.errAt(t, "%s takes %d universe arguments, got %d", name, len(info.LevelParams), len(ls))
		}
		c.Levels = ls
		return c, nil
	}
	// Omitted universe arguments become fresh universe metavariables.
	for range info.LevelParams {
		c.Levels = append(c.Levels, kernel.FreshLevelMVar())
	}
	return c, nil
}

func (p *parser) levelList() ([]kernel.Level, error) {
	var ls []kernel.Level
	for {
		l, err := p.level()
		if err != nil {
			return nil, err
		}
		ls = append(ls, l)
		if p.match(RBRACE) {
			return ls, nil
		}
		if _, err := p.need(COMMA); err != nil {
			return nil, err
		}
	}
}

// level := levelAtom ("+" nat)?
func (p *parser) level() (kernel.Level, error) {
	l, err := p.levelAtom()
	if err != nil {
		return nil, err
	}
	if !p.match(PLUS) {
		return l, nil
	}
	n, err := p.need(NAT)
	if err != nil {
		return nil, err
	}
	for k := n.Literal.(uint64); k > 0; k-- {
		l = kernel.Succ(l)
	}
	return l, nil
}

// levelAtom := nat | ident | "?" ident | "(" level ")"
//
//	| "max" "(" level ("," level)+ ")" | "imax" "(" level "," level ")"
func (p *parser) levelAtom() (kernel.Level, error) {
	t := p.next()
	switch t.Type {
	case NAT:
		return kernel.LevelOf(int(t.Literal.(uint64))), nil
	case MVAR:
		return p.sc.levelMVar(t.Literal.(string)), nil
	case LPAREN:
		l, err := p.level()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN); err != nil {
			return nil, err
		}
		return l, nil
	case IDENT:
		name := t.Literal.(string)
		if (name == "max" || name == "imax") && p.match(LPAREN) {
			return p.levelCall(t, name)
		}
		if !p.sc.isLevelParam(name) {
			return nil, p.errAt(t, "unknown universe %s", name)
		}
		return &kernel.LParam{Name: name}, nil
	}
	return nil, p.errAt(t, "expected a universe level, found %s", describe(t))
}

func (p *parser) levelCall(t Token, name string) (kernel.Level, error) {
	var args []kernel.Level
	for {
		l, err := p.level()
		if err != nil {
			return nil, err
		}
		args = append(args, l)
		if p.match(RPAREN) {
			break
		}
		if _, err := p.need(COMMA); err != nil {
			return nil, err
		}
	}
	if len(args) < 2 || (name == "imax" && len(args) != 2) {
		return nil, p.errAt(t, "%s takes two arguments", name)
	}
	if name == "imax" {
		return &kernel.LIMax{A: args[0], B: args[1]}, nil
	}
	l := args[0]
	for _, a := range args[1:] {
		l = &kernel.LMax{A: l, B: a}
	}
	return l, nil
}
