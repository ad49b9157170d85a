package unif

import (
	"github.com/samber/lo"

	"github.com/gitrdm/gokanunify/pkg/kernel"
)

// freshArgs creates one metavariable per binder of tele, each abstracted
// over the outer binders. It returns the metavariables applied to the outer
// variables, as terms under outer, and body with the telescope instantiated
// by them. body may be nil.
//
// Binder j of tele may refer to the earlier binders of tele and to outer;
// its metavariable gets the type ∀outer. tele[j] with the earlier binders
// replaced by the earlier results.
func freshArgs(mctx *kernel.MetaContext, outer, tele []kernel.Binder, body kernel.Expr) (*kernel.MetaContext, []kernel.Expr, kernel.Expr) {
	args := make([]kernel.Expr, 0, len(tele))
	for _, b := range tele {
		t := kernel.InstantiateRev(b.Type, args)
		var h *kernel.MVar
		mctx, h = mctx.MkFreshMVar("", kernel.MkForalls(outer, t))
		args = append(args, kernel.MkApp(h, kernel.BVarRefs(len(outer))...))
	}
	if body != nil {
		body = kernel.InstantiateRev(body, args)
	}
	return mctx, args, body
}

// outerRefs returns the variables of n outer binders as seen from under
// extra further binders.
func outerRefs(n, extra int) []kernel.Expr {
	return lo.Map(kernel.BVarRefs(n), func(e kernel.Expr, _ int) kernel.Expr {
		return kernel.Lift(e, extra)
	})
}

// mvarShape describes a metavariable applied to arity arguments: the
// binders of its type, and the result type under them.
type mvarShape struct {
	mvar   *kernel.MVar
	decl   *kernel.MVarDecl
	tele   []kernel.Binder
	result kernel.Expr
}

func (en *engine) shapeOf(mctx *kernel.MetaContext, f *kernel.MVar, arity int) (mvarShape, bool) {
	decl, ok := mctx.Decl(f.ID)
	if !ok {
		return mvarShape{}, false
	}
	tele, res := en.checker(mctx).Telescope(decl.Type, arity)
	if len(tele) < arity {
		return mvarShape{}, false
	}
	return mvarShape{mvar: f, decl: decl, tele: tele, result: res}, true
}

// argType returns the type of argument i of the shape, valid under all of
// the shape's binders.
func (s mvarShape) argType(i int) kernel.Expr {
	return kernel.Lift(s.tele[i].Type, len(s.tele)-i)
}

// bindSuccessor assigns value to the shape's metavariable and re-adds the
// equation that triggered the bind.
func (en *engine) bindSuccessor(q *Problem, eq *UnifEq, o origin, mctx *kernel.MetaContext, s mvarShape, value kernel.Expr) *Problem {
	succ := q.clone()
	succ.mctx = mctx.Assign(s.mvar.ID, value)
	succ.checked = false
	succ.readd(eq, o)
	return succ
}

// bindFlexRigid enumerates imitation and projection bindings for the
// flexible head of eq. The result is finite.
func (en *engine) bindFlexRigid(q *Problem, eq *UnifEq, o origin, f *kernel.MVar, rs StructType) []*Problem {
	_, lbody := kernel.StripLambdas(eq.Lhs)
	_, largs := kernel.GetAppArgs(lbody)
	s, ok := en.shapeOf(q.mctx, f, len(largs))
	if !ok {
		return nil
	}
	var out []*Problem
	if rs.ForallDepth > 0 {
		if p := en.imitateForall(q, eq, o, s); p != nil {
			out = append(out, p)
		}
	} else {
		rb, rbody := kernel.StripLambdas(eq.Rhs)
		_, rargs := kernel.GetAppArgs(rbody)
		switch rs.Kind {
		case KindConst:
			if p := en.imitate(q, eq, o, s, rs.Head, len(rargs)); p != nil {
				out = append(out, p)
			}
		case KindProj:
			if p := en.imitateProj(q, eq, o, s, rs, len(rb), len(rargs)); p != nil {
				out = append(out, p)
			}
			out = append(out, en.projectField(q, eq, o, s, rs.Head.(*kernel.Proj), len(rargs))...)
		}
	}
	if !q.identVar.Contains(f.ID) {
		out = append(out, en.huetProjections(q, eq, o, s)...)
	}
	return out
}

// imitate binds ?F := λx̄. h (H1 x̄) ... (Hn x̄) for the rigid head h.
func (en *engine) imitate(q *Problem, eq *UnifEq, o origin, s mvarShape, h kernel.Expr, n int) *Problem {
	tc := en.checker(q.mctx)
	ht, err := tc.InferClosed(h)
	if err != nil {
		return nil
	}
	htele, _ := tc.Telescope(ht, n)
	if len(htele) < n {
		return nil
	}
	mctx, args, _ := freshArgs(q.mctx, s.tele, htele, nil)
	value := kernel.MkLambdas(s.tele, kernel.MkApp(h, args...))
	return en.bindSuccessor(q, eq, o, mctx, s, value)
}

// imitateForall binds ?F := λx̄. ∀w : H1 x̄. H2 x̄ w, one binder of the rigid
// side's dependent function type.
func (en *engine) imitateForall(q *Problem, eq *UnifEq, o origin, s mvarShape) *Problem {
	rb, rbody := kernel.StripLambdas(eq.Rhs)
	pi, ok := rbody.(*kernel.Forall)
	if !ok {
		return nil
	}
	tc := en.checker(q.mctx)
	ctx := binderTypes(rb)
	var l1, l2 kernel.Level
	if l, err := tc.SortOf(ctx, pi.Type); err == nil {
		l1 = l
	} else {
		l1 = kernel.FreshLevelMVar()
	}
	if l, err := tc.SortOf(append(ctx, pi.Type), pi.Body); err == nil {
		l2 = l
	} else {
		l2 = kernel.FreshLevelMVar()
	}
	m := len(s.tele)
	mctx, h1 := q.mctx.MkFreshMVar("", kernel.MkForalls(s.tele, &kernel.Sort{Level: l1}))
	dom := kernel.MkApp(h1, kernel.BVarRefs(m)...)
	mctx, h2 := mctx.MkFreshMVar("", kernel.MkForalls(s.tele,
		&kernel.Forall{Name: pi.Name, Type: dom, Body: &kernel.Sort{Level: l2}}))
	body := &kernel.Forall{Name: pi.Name, Type: dom, Body: kernel.MkApp(h2, kernel.BVarRefs(m+1)...)}
	return en.bindSuccessor(q, eq, o, mctx, s, kernel.MkLambdas(s.tele, body))
}

// imitateProj binds ?F := λx̄. (proj S i (H0 x̄)) (H1 x̄) ... (Hn x̄). It only
// applies when the carrier and result types of the projection do not
// depend on the rigid side's binders.
func (en *engine) imitateProj(q *Problem, eq *UnifEq, o origin, s mvarShape, rs StructType, lamDepth, n int) *Problem {
	if rs.ProjCarrier == nil || rs.ProjResult == nil {
		return nil
	}
	carrier := stripN(rs.ProjCarrier, lamDepth)
	result := stripN(rs.ProjResult, lamDepth)
	if carrier == nil || result == nil || kernel.HasLooseBVars(carrier) || kernel.HasLooseBVars(result) {
		return nil
	}
	rp := rs.Head.(*kernel.Proj)
	m := len(s.tele)
	mctx, h0 := q.mctx.MkFreshMVar("", kernel.MkForalls(s.tele, carrier))
	pe := &kernel.Proj{Struct: rp.Struct, Idx: rp.Idx, Expr: kernel.MkApp(h0, kernel.BVarRefs(m)...)}
	tc := en.checker(mctx)
	rtele, _ := tc.Telescope(result, n)
	if len(rtele) < n {
		return nil
	}
	mctx, args, _ := freshArgs(mctx, s.tele, rtele, nil)
	return en.bindSuccessor(q, eq, o, mctx, s, kernel.MkLambdas(s.tele, kernel.MkApp(pe, args...)))
}

// stripN removes n syntactic dependent function binders.
func stripN(e kernel.Expr, n int) kernel.Expr {
	for i := 0; i < n; i++ {
		f, ok := e.(*kernel.Forall)
		if !ok {
			return nil
		}
		e = f.Body
	}
	return e
}

// projectField binds ?F := λx̄. (proj S i x_j) (H1 x̄) ... for every argument
// x_j of ?F whose type is the structure S being projected on the rigid side.
func (en *engine) projectField(q *Problem, eq *UnifEq, o origin, s mvarShape, rp *kernel.Proj, n int) []*Problem {
	tc := en.checker(q.mctx)
	m := len(s.tele)
	ctx := binderTypes(s.tele)
	var out []*Problem
	for j := range s.tele {
		head := kernel.GetAppFn(tc.Whnf(s.argType(j)))
		c, ok := head.(*kernel.Const)
		if !ok || c.Name != rp.Struct {
			continue
		}
		pe := &kernel.Proj{Struct: rp.Struct, Idx: rp.Idx, Expr: &kernel.BVar{Idx: m - 1 - j}}
		pt, err := tc.InferType(ctx, pe)
		if err != nil {
			continue
		}
		ptele, _ := tc.Telescope(pt, n)
		if len(ptele) < n {
			continue
		}
		mctx, args, _ := freshArgs(q.mctx, s.tele, ptele, nil)
		out = append(out, en.bindSuccessor(q, eq, o, mctx, s, kernel.MkLambdas(s.tele, kernel.MkApp(pe, args...))))
	}
	return out
}

// rigidTypeName names the head of a type when it is a rigid constant.
func rigidTypeName(e kernel.Expr) (string, bool) {
	switch h := kernel.GetAppFn(e).(type) {
	case *kernel.Const:
		return h.Name, true
	case *kernel.FVar:
		return h.Name, true
	case *kernel.Sort:
		return "Sort", true
	}
	return "", false
}

// compatibleTypes reports whether two result types might be unifiable.
// Only distinct rigid heads are incompatible.
func compatibleTypes(tc *kernel.TypeChecker, a, b kernel.Expr) bool {
	na, oka := rigidTypeName(tc.Whnf(a))
	nb, okb := rigidTypeName(tc.Whnf(b))
	return !oka || !okb || na == nb
}

// huetProjections binds ?F := λx̄. x_i (H1 x̄) ... (Hp x̄) for every argument
// x_i whose result type is compatible with the result type of ?F.
func (en *engine) huetProjections(q *Problem, eq *UnifEq, o origin, s mvarShape) []*Problem {
	tc := en.checker(q.mctx)
	m := len(s.tele)
	var out []*Problem
	for i := range s.tele {
		ptele, pres := tc.Telescope(s.argType(i), -1)
		if !compatibleTypes(tc, pres, s.result) {
			continue
		}
		mctx, args, _ := freshArgs(q.mctx, s.tele, ptele, nil)
		value := kernel.MkLambdas(s.tele, kernel.MkApp(&kernel.BVar{Idx: m - 1 - i}, args...))
		out = append(out, en.bindSuccessor(q, eq, o, mctx, s, value))
	}
	return out
}
