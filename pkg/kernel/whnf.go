package kernel

// TypeChecker bundles an Environment with one MetaContext snapshot. It is a
// cheap value; create a new one whenever the snapshot changes.
type TypeChecker struct {
	Env  *Environment
	MCtx *MetaContext
}

// NewTypeChecker creates a checker for env under snapshot mctx.
func NewTypeChecker(env *Environment, mctx *MetaContext) *TypeChecker {
	return &TypeChecker{Env: env, MCtx: mctx}
}

// HeadBeta beta-reduces f applied to args as far as f is a lambda.
func HeadBeta(f Expr, args []Expr) Expr {
	i := 0
	body := f
	for i < len(args) {
		l, ok := body.(*Lam)
		if !ok {
			break
		}
		body = l.Body
		i++
	}
	if i == 0 {
		return MkApp(f, args...)
	}
	body = InstantiateRev(body, args[:i])
	if i < len(args) {
		return HeadBeta(body, args[i:])
	}
	return body
}

// Whnf computes the weak-head normal form of e: beta, zeta, delta for
// definitions, iota for projections of constructor applications, and
// replacement of assigned metavariable heads. Loose bound variables are
// allowed and treated as opaque.
func (tc *TypeChecker) Whnf(e Expr) Expr {
	for {
		head, args := GetAppArgs(e)
		switch h := head.(type) {
		case *Lam:
			if len(args) == 0 {
				return e
			}
			e = HeadBeta(h, args)
			continue
		case *MVar:
			v, ok := tc.MCtx.Lookup(h.ID)
			if !ok {
				return e
			}
			e = HeadBeta(v, args)
			continue
		case *Const:
			info, ok := tc.Env.Lookup(h.Name)
			if !ok || info.Kind != Definition || len(h.Levels) != len(info.LevelParams) {
				return e
			}
			v := InstantiateExprLevelParams(info.Value, info.LevelParams, h.Levels)
			e = HeadBeta(v, args)
			continue
		case *Let:
			e = MkApp(Instantiate1(h.Body, h.Value), args...)
			continue
		case *Proj:
			v, ok := tc.reduceProj(h)
			if !ok {
				return e
			}
			e = HeadBeta(v, args)
			continue
		}
		return e
	}
}

func (tc *TypeChecker) reduceProj(p *Proj) (Expr, bool) {
	s := tc.Whnf(p.Expr)
	head, args := GetAppArgs(s)
	c, ok := head.(*Const)
	if !ok {
		return nil, false
	}
	info, ok := tc.Env.StructureOfCtor(c.Name)
	if !ok || info.Name != p.Struct {
		return nil, false
	}
	i := info.NumParams + p.Idx
	if i >= len(args) {
		return nil, false
	}
	return args[i], true
}

// whnfPis puts e in weak-head normal form and continues inside the bodies of
// dependent function types, so the final codomain is in whnf as well.
func (tc *TypeChecker) whnfPis(e Expr) Expr {
	e = tc.Whnf(e)
	if f, ok := e.(*Forall); ok {
		return &Forall{Name: f.Name, Type: f.Type, Body: tc.whnfPis(f.Body)}
	}
	return e
}

// HeadNormalize strips the outer lambdas of e, puts the body in weak-head
// normal form (exposing further lambdas if any) and normalizes through the
// body's dependent function types. The result has the same outer shape the
// term classifier inspects.
func (tc *TypeChecker) HeadNormalize(e Expr) Expr {
	var bs []Binder
	for {
		e = tc.Whnf(e)
		l, ok := e.(*Lam)
		if !ok {
			break
		}
		bs = append(bs, Binder{Name: l.Name, Type: l.Type})
		e = l.Body
	}
	return MkLambdas(bs, tc.whnfPis(e))
}

// Telescope strips up to n dependent function binders from typ, reducing to
// weak-head normal form before each step. A negative n strips all of them.
// The returned body lives under the returned binders.
func (tc *TypeChecker) Telescope(typ Expr, n int) ([]Binder, Expr) {
	var bs []Binder
	for n < 0 || len(bs) < n {
		t := tc.Whnf(typ)
		f, ok := t.(*Forall)
		if !ok {
			return bs, t
		}
		bs = append(bs, Binder{Name: f.Name, Type: f.Type})
		typ = f.Body
	}
	return bs, typ
}

// Normalize returns the beta-eta normal form of e with assigned
// metavariables and definitions unfolded.
func (tc *TypeChecker) Normalize(e Expr) Expr {
	e = tc.Whnf(tc.MCtx.InstantiateMVars(e))
	switch x := e.(type) {
	case *Lam:
		body := tc.Normalize(x.Body)
		if a, ok := body.(*App); ok {
			if v, ok := a.Arg.(*BVar); ok && v.Idx == 0 && !HasLooseBVar(a.Fn, 0) {
				return LowerAt(a.Fn, 0)
			}
		}
		return &Lam{Name: x.Name, Type: tc.Normalize(x.Type), Body: body}
	case *Forall:
		return &Forall{Name: x.Name, Type: tc.Normalize(x.Type), Body: tc.Normalize(x.Body)}
	case *App:
		head, args := GetAppArgs(x)
		for i := range args {
			args[i] = tc.Normalize(args[i])
		}
		if p, ok := head.(*Proj); ok {
			head = &Proj{Struct: p.Struct, Idx: p.Idx, Expr: tc.Normalize(p.Expr)}
		}
		return MkApp(head, args...)
	case *Proj:
		return &Proj{Struct: x.Struct, Idx: x.Idx, Expr: tc.Normalize(x.Expr)}
	case *Sort:
		return &Sort{Level: SimplifyLevel(x.Level)}
	}
	return e
}
