package unif

import (
	"github.com/gitrdm/gokanunify/internal/lazylist"
	"github.com/gitrdm/gokanunify/pkg/kernel"
)

// flexFlex handles equations with metavariable heads on both sides.
//
// Distinct heads produce a lazy stream interleaving identification and
// JP-projections with iteration on either side. Identical heads decompose
// argument-wise, except for metavariables introduced by elimination, which
// continue with elimination and iteration only.
func (en *engine) flexFlex(q *Problem, eq *UnifEq, o origin, ls, rs StructType) ruleResult {
	f := ls.Head.(*kernel.MVar)
	g := rs.Head.(*kernel.MVar)
	_, lbody := kernel.StripLambdas(eq.Lhs)
	_, rbody := kernel.StripLambdas(eq.Rhs)
	_, largs := kernel.GetAppArgs(lbody)
	_, rargs := kernel.GetAppArgs(rbody)
	fs, okF := en.shapeOf(q.mctx, f, len(largs))
	gs, okG := en.shapeOf(q.mctx, g, len(rargs))
	if !okF || !okG {
		return empty(ruleFlexFlex)
	}

	if f.ID == g.ID {
		if q.elimVar.Contains(f.ID) {
			return lazy(ruleEliminate, lazylist.Interleave(
				en.elimination(q, eq, o, fs, largs, rargs),
				en.iteration(q, eq, o, fs)))
		}
		dec := en.decompose(q.clone(), eq, ls, rs)
		if !en.cfg.elimination {
			return dec
		}
		return lazy(ruleDecompose, lazylist.Concat(
			lazylist.FromSlice(dec.probs),
			en.elimination(q, eq, o, fs, largs, rargs)))
	}

	ident := lazylist.Defer(func() lazylist.List[*Problem] {
		if p := en.identification(q, eq, o, fs, gs); p != nil {
			return lazylist.FromSlice([]*Problem{p})
		}
		return lazylist.Nil[*Problem]()
	})
	jp := lazylist.Defer(func() lazylist.List[*Problem] {
		var ps []*Problem
		if !q.identVar.Contains(f.ID) {
			ps = append(ps, en.huetProjections(q, eq, o, fs)...)
		}
		if !q.identVar.Contains(g.ID) {
			ps = append(ps, en.huetProjections(q, eq, o, gs)...)
		}
		return lazylist.FromSlice(ps)
	})
	return lazy(ruleFlexFlex, lazylist.Interleave(
		lazylist.Interleave(ident, jp),
		lazylist.Interleave(en.iteration(q, eq, o, fs), en.iteration(q, eq, o, gs))))
}

// identification binds both sides to one fresh metavariable ?H that takes
// the arguments of both:
//
//	?F := λx̄. ?H x̄ (?F1 x̄) ... (?Fn x̄)
//	?G := λz̄. ?H (?G1 z̄) ... (?Gm z̄) z̄
//
// ?H is recorded in identVar. It is skipped when either side already came
// out of an identification.
func (en *engine) identification(q *Problem, eq *UnifEq, o origin, fs, gs mvarShape) *Problem {
	if q.identVar.Contains(fs.mvar.ID) || q.identVar.Contains(gs.mvar.ID) {
		return nil
	}
	m, n := len(fs.tele), len(gs.tele)
	htype := kernel.MkForalls(fs.tele, kernel.MkForalls(gs.tele, kernel.Lift(fs.result, n)))
	mctx, h := q.mctx.MkFreshMVar("", htype)

	mctx, fargs, _ := freshArgs(mctx, fs.tele, gs.tele, nil)
	fval := kernel.MkLambdas(fs.tele, kernel.MkApp(kernel.MkApp(h, kernel.BVarRefs(m)...), fargs...))
	mctx, gargs, _ := freshArgs(mctx, gs.tele, fs.tele, nil)
	gval := kernel.MkLambdas(gs.tele, kernel.MkApp(kernel.MkApp(h, gargs...), kernel.BVarRefs(n)...))

	succ := q.clone()
	succ.mctx = mctx.Assign(fs.mvar.ID, fval).Assign(gs.mvar.ID, gval)
	succ.checked = false
	succ.withIdentVar(h.ID)
	succ.readd(eq, o)
	if !en.checkAssignmentType(succ, gs.decl, gval) {
		return nil
	}
	return succ
}

// functionalArgs lists the argument positions of s whose type takes
// arguments itself.
func (en *engine) functionalArgs(mctx *kernel.MetaContext, s mvarShape) []int {
	tc := en.checker(mctx)
	var out []int
	for i := range s.tele {
		if tele, _ := tc.Telescope(s.argType(i), 1); len(tele) > 0 {
			out = append(out, i)
		}
	}
	return out
}

// iteration enumerates, for every functional argument x_i of the
// metavariable and every number d of new binders,
//
//	?F := λx̄. ?H x̄ (λw̄. x_i (?K1 x̄ w̄) ... (?Kp x̄ w̄))
//
// The stream is infinite whenever some argument is functional.
func (en *engine) iteration(q *Problem, eq *UnifEq, o origin, s mvarShape) lazylist.List[*Problem] {
	if !en.cfg.iteration {
		return lazylist.Nil[*Problem]()
	}
	positions := en.functionalArgs(q.mctx, s)
	streams := make([]lazylist.List[*Problem], 0, len(positions))
	for _, i := range positions {
		i := i
		streams = append(streams, lazylist.Generate(func(d int) (*Problem, bool) {
			p := en.iterate(q, eq, o, s, i, d)
			return p, p != nil
		}))
	}
	return lazylist.InterleaveAll(streams...)
}

func (en *engine) iterate(q *Problem, eq *UnifEq, o origin, s mvarShape, i, d int) *Problem {
	m := len(s.tele)
	mctx := q.mctx
	ws := make([]kernel.Binder, d)
	for j := range ws {
		var t *kernel.MVar
		mctx, t = mctx.MkFreshMVar("", kernel.MkForalls(s.tele, &kernel.Sort{Level: kernel.FreshLevelMVar()}))
		ws[j] = kernel.Binder{Name: "w", Type: kernel.MkApp(t, outerRefs(m, j)...)}
	}
	inner := concatBinders(s.tele, ws)
	xi := kernel.Lift(s.tele[i].Type, m+d-i)
	ptele, pres := en.checker(mctx).Telescope(xi, -1)
	mctx, args, res := freshArgs(mctx, inner, ptele, pres)
	fn := kernel.MkLambdas(ws, kernel.MkApp(&kernel.BVar{Idx: m + d - 1 - i}, args...))
	fnType := kernel.MkForalls(ws, res)

	htype := kernel.MkForalls(s.tele, &kernel.Forall{Name: "_", Type: fnType, Body: kernel.Lift(s.result, 1)})
	mctx, h := mctx.MkFreshMVar("", htype)
	value := kernel.MkLambdas(s.tele, &kernel.App{Fn: kernel.MkApp(h, kernel.BVarRefs(m)...), Arg: fn})
	return en.bindSuccessor(q, eq, o, mctx, s, value)
}

// elimination drops one argument position where the two sides differ and
// the dropped variable is not needed by later binder types or the result:
//
//	?F := λx̄. ?G x_1 ... x_(i-1) x_(i+1) ... x_m
//
// The new ?G is recorded in elimVar.
func (en *engine) elimination(q *Problem, eq *UnifEq, o origin, s mvarShape, largs, rargs []kernel.Expr) lazylist.List[*Problem] {
	return lazylist.Defer(func() lazylist.List[*Problem] {
		m := len(s.tele)
		var out []*Problem
		for i := 0; i < m && i < len(largs) && i < len(rargs); i++ {
			if q.mctx.InstantiateMVars(largs[i]).Equal(q.mctx.InstantiateMVars(rargs[i])) {
				continue
			}
			if p := en.eliminate(q, eq, o, s, i); p != nil {
				out = append(out, p)
			}
		}
		return lazylist.FromSlice(out)
	})
}

func (en *engine) eliminate(q *Problem, eq *UnifEq, o origin, s mvarShape, i int) *Problem {
	m := len(s.tele)
	if kernel.HasLooseBVar(s.result, m-1-i) {
		return nil
	}
	kept := make([]kernel.Binder, 0, m-1)
	refs := make([]kernel.Expr, 0, m-1)
	for j, b := range s.tele {
		switch {
		case j < i:
			kept = append(kept, b)
		case j > i:
			if kernel.HasLooseBVar(b.Type, j-1-i) {
				return nil
			}
			kept = append(kept, kernel.Binder{Name: b.Name, Type: kernel.LowerAt(b.Type, j-1-i)})
		}
		if j != i {
			refs = append(refs, &kernel.BVar{Idx: m - 1 - j})
		}
	}
	gtype := kernel.MkForalls(kept, kernel.LowerAt(s.result, m-1-i))
	mctx, g := q.mctx.MkFreshMVar("", gtype)
	succ := en.bindSuccessor(q, eq, o, mctx, s, kernel.MkLambdas(s.tele, kernel.MkApp(g, refs...)))
	succ.withElimVar(g.ID)
	return succ
}
