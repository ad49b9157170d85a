// Package kernel provides the term representation consumed by the
// higher-order unification engine.
//
// Terms of a small dependent type theory are represented with de Bruijn
// indices for bound variables, so alpha-equivalent terms are structurally
// equal. The package offers:
//   - Expressions and universe levels
//   - An Environment of constants, structures and free variables
//   - MetaContext, an immutable snapshot of metavariable declarations and assignments
//   - A TypeChecker with weak-head normalization, eta-expansion and type inference
//
// All values are immutable. Operations that "change" a term or a snapshot
// return a new value and leave the receiver untouched, so snapshots can be
// shared freely between search branches.
package kernel

import (
	"fmt"
	"strconv"
)

// Expr is a term of the type theory.
type Expr interface {
	// String returns a debug rendering using raw de Bruijn indices.
	// Use Format for a rendering with binder names.
	String() string
	// Equal reports structural equality. Binder names are ignored.
	Equal(other Expr) bool
	isExpr()
}

// BVar is a bound variable, referenced by de Bruijn index.
type BVar struct{ Idx int }

// FVar is a free variable declared in the Environment.
type FVar struct{ Name string }

// MVar is a metavariable declared in a MetaContext.
type MVar struct{ ID int64 }

// Sort is the universe at the given level. Sort 0 is Prop.
type Sort struct{ Level Level }

// Const is a reference to a global declaration with universe arguments.
type Const struct {
	Name   string
	Levels []Level
}

// App is function application.
type App struct{ Fn, Arg Expr }

// Lam is lambda abstraction.
type Lam struct {
	Name string
	Type Expr
	Body Expr
}

// Forall is the dependent function type.
type Forall struct {
	Name string
	Type Expr
	Body Expr
}

// Let is a local definition. Body refers to the defined value as BVar 0.
type Let struct {
	Name  string
	Type  Expr
	Value Expr
	Body  Expr
}

// NatLit is a natural number literal of type Nat.
type NatLit struct{ Value uint64 }

// StrLit is a string literal of type String.
type StrLit struct{ Value string }

// Proj projects field Idx out of a value of structure Struct.
type Proj struct {
	Struct string
	Idx    int
	Expr   Expr
}

func (*BVar) isExpr()   {}
func (*FVar) isExpr()   {}
func (*MVar) isExpr()   {}
func (*Sort) isExpr()   {}
func (*Const) isExpr()  {}
func (*App) isExpr()    {}
func (*Lam) isExpr()    {}
func (*Forall) isExpr() {}
func (*Let) isExpr()    {}
func (*NatLit) isExpr() {}
func (*StrLit) isExpr() {}
func (*Proj) isExpr()   {}

func (e *BVar) String() string   { return fmt.Sprintf("#%d", e.Idx) }
func (e *FVar) String() string   { return e.Name }
func (e *MVar) String() string   { return fmt.Sprintf("?m%d", e.ID) }
func (e *Sort) String() string   { return "Sort " + SimplifyLevel(e.Level).String() }
func (e *NatLit) String() string { return strconv.FormatUint(e.Value, 10) }
func (e *StrLit) String() string { return strconv.Quote(e.Value) }

func (e *Const) String() string {
	if len(e.Levels) == 0 {
		return e.Name
	}
	return fmt.Sprintf("%s.{%s}", e.Name, formatLevels(e.Levels))
}

func (e *App) String() string    { return fmt.Sprintf("(%s %s)", e.Fn, e.Arg) }
func (e *Lam) String() string    { return fmt.Sprintf("(fun %s : %s => %s)", e.Name, e.Type, e.Body) }
func (e *Forall) String() string { return fmt.Sprintf("(forall %s : %s, %s)", e.Name, e.Type, e.Body) }
func (e *Let) String() string {
	return fmt.Sprintf("(let %s : %s := %s in %s)", e.Name, e.Type, e.Value, e.Body)
}
func (e *Proj) String() string { return fmt.Sprintf("%s.%d(%s)", e.Struct, e.Idx, e.Expr) }

func (e *BVar) Equal(o Expr) bool {
	x, ok := o.(*BVar)
	return ok && x.Idx == e.Idx
}

func (e *FVar) Equal(o Expr) bool {
	x, ok := o.(*FVar)
	return ok && x.Name == e.Name
}

func (e *MVar) Equal(o Expr) bool {
	x, ok := o.(*MVar)
	return ok && x.ID == e.ID
}

func (e *Sort) Equal(o Expr) bool {
	x, ok := o.(*Sort)
	return ok && LevelEqual(e.Level, x.Level)
}

func (e *Const) Equal(o Expr) bool {
	x, ok := o.(*Const)
	if !ok || x.Name != e.Name || len(x.Levels) != len(e.Levels) {
		return false
	}
	for i := range e.Levels {
		if !LevelEqual(e.Levels[i], x.Levels[i]) {
			return false
		}
	}
	return true
}

func (e *App) Equal(o Expr) bool {
	x, ok := o.(*App)
	return ok && e.Fn.Equal(x.Fn) && e.Arg.Equal(x.Arg)
}

func (e *Lam) Equal(o Expr) bool {
	x, ok := o.(*Lam)
	return ok && e.Type.Equal(x.Type) && e.Body.Equal(x.Body)
}

func (e *Forall) Equal(o Expr) bool {
	x, ok := o.(*Forall)
	return ok && e.Type.Equal(x.Type) && e.Body.Equal(x.Body)
}

func (e *Let) Equal(o Expr) bool {
	x, ok := o.(*Let)
	return ok && e.Type.Equal(x.Type) && e.Value.Equal(x.Value) && e.Body.Equal(x.Body)
}

func (e *NatLit) Equal(o Expr) bool {
	x, ok := o.(*NatLit)
	return ok && x.Value == e.Value
}

func (e *StrLit) Equal(o Expr) bool {
	x, ok := o.(*StrLit)
	return ok && x.Value == e.Value
}

func (e *Proj) Equal(o Expr) bool {
	x, ok := o.(*Proj)
	return ok && x.Struct == e.Struct && x.Idx == e.Idx && e.Expr.Equal(x.Expr)
}

// Binder is one entry of a binder telescope.
type Binder struct {
	Name string
	Type Expr
}

// Prop is Sort 0.
func Prop() Expr { return &Sort{Level: LZero{}} }

// Type returns Sort (n+1).
func Type(n int) Expr { return &Sort{Level: LevelOf(n + 1)} }

// C returns a constant without universe arguments.
func C(name string) Expr { return &Const{Name: name} }

// Arrow returns the non-dependent function type a -> b.
// b must not refer to the new binder, so its loose variables are lifted.
func Arrow(a, b Expr) Expr {
	return &Forall{Name: "_", Type: a, Body: Lift(b, 1)}
}

// MkApp applies f to args from left to right.
func MkApp(f Expr, args ...Expr) Expr {
	for _, a := range args {
		f = &App{Fn: f, Arg: a}
	}
	return f
}

// GetAppFn returns the head of an application spine.
func GetAppFn(e Expr) Expr {
	for {
		a, ok := e.(*App)
		if !ok {
			return e
		}
		e = a.Fn
	}
}

// GetAppArgs returns the head of an application spine and its arguments in
// application order.
func GetAppArgs(e Expr) (Expr, []Expr) {
	n := 0
	for x := e; ; n++ {
		a, ok := x.(*App)
		if !ok {
			break
		}
		x = a.Fn
	}
	args := make([]Expr, n)
	for i := n - 1; i >= 0; i-- {
		a := e.(*App)
		args[i] = a.Arg
		e = a.Fn
	}
	return e, args
}

// MkLambdas wraps body in lambdas over bs, outermost first.
func MkLambdas(bs []Binder, body Expr) Expr {
	for i := len(bs) - 1; i >= 0; i-- {
		body = &Lam{Name: bs[i].Name, Type: bs[i].Type, Body: body}
	}
	return body
}

// MkForalls wraps body in dependent function types over bs, outermost first.
func MkForalls(bs []Binder, body Expr) Expr {
	for i := len(bs) - 1; i >= 0; i-- {
		body = &Forall{Name: bs[i].Name, Type: bs[i].Type, Body: body}
	}
	return body
}

// StripLambdas removes the outer lambda binders of e.
func StripLambdas(e Expr) ([]Binder, Expr) {
	var bs []Binder
	for {
		l, ok := e.(*Lam)
		if !ok {
			return bs, e
		}
		bs = append(bs, Binder{Name: l.Name, Type: l.Type})
		e = l.Body
	}
}

// StripForalls removes the outer dependent function binders of e without
// reducing it.
func StripForalls(e Expr) ([]Binder, Expr) {
	var bs []Binder
	for {
		f, ok := e.(*Forall)
		if !ok {
			return bs, e
		}
		bs = append(bs, Binder{Name: f.Name, Type: f.Type})
		e = f.Body
	}
}

// BVarRefs returns the bound variables referring to n enclosing binders,
// outermost first: #(n-1) ... #0.
func BVarRefs(n int) []Expr {
	refs := make([]Expr, n)
	for i := 0; i < n; i++ {
		refs[i] = &BVar{Idx: n - 1 - i}
	}
	return refs
}
