package kernel

import (
	"fmt"
	"strings"
)

// Format renders e with binder names in place of de Bruijn indices, in the
// concrete syntax accepted by the syntax package.
func Format(e Expr) string {
	return FormatWith(nil, e)
}

// FormatWith renders e like Format. Metavariables declared in mctx are shown
// with their user names.
func FormatWith(mctx *MetaContext, e Expr) string {
	p := &printer{mctx: mctx}
	p.expr(e, precLow)
	return p.b.String()
}

const (
	precLow = iota
	precArrow
	precApp
	precAtom
)

type printer struct {
	b     strings.Builder
	mctx  *MetaContext
	names []string
}

func (p *printer) fresh(name string) string {
	if name == "" || name == "_" {
		name = "x"
	}
	base := name
	for i := 1; ; i++ {
		clash := false
		for _, n := range p.names {
			if n == name {
				clash = true
				break
			}
		}
		if !clash {
			return name
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
}

func (p *printer) open(prec, need int) func() {
	if prec <= need {
		return func() {}
	}
	p.b.WriteString("(")
	return func() { p.b.WriteString(")") }
}

func (p *printer) expr(e Expr, prec int) {
	switch x := e.(type) {
	case *BVar:
		if x.Idx < len(p.names) {
			p.b.WriteString(p.names[len(p.names)-1-x.Idx])
		} else {
			fmt.Fprintf(&p.b, "#%d", x.Idx-len(p.names))
		}
	case *MVar:
		if p.mctx != nil {
			if d, ok := p.mctx.Decl(x.ID); ok && d.UserName != "" {
				p.b.WriteString("?" + d.UserName)
				return
			}
		}
		fmt.Fprintf(&p.b, "?m%d", x.ID)
	case *Sort:
		l := SimplifyLevel(x.Level)
		switch {
		case LevelEqual(l, LZero{}):
			p.b.WriteString("Prop")
		case LevelEqual(l, LevelOf(1)):
			p.b.WriteString("Type")
		default:
			end := p.open(prec, precApp)
			fmt.Fprintf(&p.b, "Sort %s", levelAtomString(l))
			end()
		}
	case *App:
		end := p.open(prec, precApp)
		head, args := GetAppArgs(x)
		p.expr(head, precApp)
		for _, a := range args {
			p.b.WriteString(" ")
			p.expr(a, precAtom)
		}
		end()
	case *Lam:
		end := p.open(prec, precLow)
		p.b.WriteString("fun")
		body := Expr(x)
		pushed := 0
		for {
			l, ok := body.(*Lam)
			if !ok {
				break
			}
			n := p.fresh(l.Name)
			fmt.Fprintf(&p.b, " (%s : ", n)
			p.expr(l.Type, precLow)
			p.b.WriteString(")")
			p.names = append(p.names, n)
			pushed++
			body = l.Body
		}
		p.b.WriteString(" => ")
		p.expr(body, precLow)
		p.names = p.names[:len(p.names)-pushed]
		end()
	case *Forall:
		if !HasLooseBVar(x.Body, 0) {
			end := p.open(prec, precArrow)
			p.expr(x.Type, precApp)
			p.b.WriteString(" -> ")
			p.names = append(p.names, "_")
			p.expr(x.Body, precArrow)
			p.names = p.names[:len(p.names)-1]
			end()
			return
		}
		end := p.open(prec, precLow)
		n := p.fresh(x.Name)
		fmt.Fprintf(&p.b, "forall (%s : ", n)
		p.expr(x.Type, precLow)
		p.b.WriteString("), ")
		p.names = append(p.names, n)
		p.expr(x.Body, precLow)
		p.names = p.names[:len(p.names)-1]
		end()
	case *Let:
		end := p.open(prec, precLow)
		n := p.fresh(x.Name)
		fmt.Fprintf(&p.b, "let %s : ", n)
		p.expr(x.Type, precLow)
		p.b.WriteString(" := ")
		p.expr(x.Value, precLow)
		p.b.WriteString(" in ")
		p.names = append(p.names, n)
		p.expr(x.Body, precLow)
		p.names = p.names[:len(p.names)-1]
		end()
	case *Proj:
		end := p.open(prec, precApp)
		fmt.Fprintf(&p.b, "proj %s %d ", x.Struct, x.Idx)
		p.expr(x.Expr, precAtom)
		end()
	default:
		p.b.WriteString(e.String())
	}
}

func levelAtomString(l Level) string {
	switch l.(type) {
	case LZero, *LParam, *LMVar:
		return l.String()
	case *LSucc:
		if base, _ := levelOffset(l); base == (LZero{}) {
			return l.String()
		}
	}
	return "(" + l.String() + ")"
}
