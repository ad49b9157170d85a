package unif

import (
	"errors"

	"github.com/gitrdm/gokanunify/pkg/kernel"
)

// flexRigid solves an equation whose left side is flexible and right side
// rigid: the oracles first, then the finite set of bind rules.
func (en *engine) flexRigid(q *Problem, eq *UnifEq, o origin, ls, rs StructType) ruleResult {
	f := ls.Head.(*kernel.MVar)
	if succ, ok := en.instantiationOracle(q, eq, f); ok {
		if succ == nil {
			return empty(ruleInstantiate)
		}
		return finite(ruleInstantiate, succ)
	}
	if occursRigid(q.mctx, f.ID, q.mctx.InstantiateMVars(eq.Rhs)) &&
		occursRigid(q.mctx, f.ID, en.checker(q.mctx).Normalize(eq.Rhs)) {
		return empty(ruleOccurs)
	}
	return finite(ruleBind, en.bindFlexRigid(q, eq, o, f, rs)...)
}

// patternPositions maps the de Bruijn index of every argument of a pattern
// to its position. It reports false when some argument is not a bound
// variable or a variable repeats.
func patternPositions(args []kernel.Expr) (map[int]int, bool) {
	pos := make(map[int]int, len(args))
	for i, a := range args {
		v, ok := a.(*kernel.BVar)
		if !ok {
			return nil, false
		}
		if _, dup := pos[v.Idx]; dup {
			return nil, false
		}
		pos[v.Idx] = i
	}
	return pos, true
}

// instantiationOracle solves lhs = rhs directly when lhs is a pattern
// λȳ. ?F y_i1 ... y_im and rhs only uses the variables the pattern passes
// to ?F. The assignment is the unique most general one, so no branching
// happens. A nil problem with true means the only candidate is ill-typed.
//
// Occurrences of ?F or of other variables inside redexes may disappear on
// reduction, so a failed check is repeated once on the normal form of rhs.
func (en *engine) instantiationOracle(q *Problem, eq *UnifEq, f *kernel.MVar) (*Problem, bool) {
	lb, lbody := kernel.StripLambdas(eq.Lhs)
	rb, rbody := kernel.StripLambdas(eq.Rhs)
	if len(lb) != len(rb) {
		return nil, false
	}
	_, args := kernel.GetAppArgs(lbody)
	pos, ok := patternPositions(args)
	if !ok {
		return nil, false
	}
	m := len(args)
	remap := func(e kernel.Expr) (kernel.Expr, bool) {
		if kernel.ContainsMVar(e, f.ID) {
			return nil, false
		}
		return kernel.RemapLooseBVars(e, func(idx int) (int, bool) {
			i, found := pos[idx]
			return m - 1 - i, found
		})
	}
	body, ok := remap(q.mctx.InstantiateMVars(rbody))
	if !ok {
		if body, ok = remap(en.checker(q.mctx).Normalize(rbody)); !ok {
			return nil, false
		}
	}
	decl, ok := q.mctx.Decl(f.ID)
	if !ok {
		return nil, false
	}
	tc := en.checker(q.mctx)
	tele, _ := tc.Telescope(decl.Type, m)
	if len(tele) < m {
		return nil, false
	}
	value := kernel.MkLambdas(tele, body)
	succ := q.assign(f.ID, value)
	if !en.checkAssignmentType(succ, decl, value) {
		return nil, true
	}
	return succ, true
}

// checkAssignmentType pushes a prioritized equation between the declared
// type of a metavariable and the type of its new value when the two differ
// syntactically. It reports false when the value does not type check.
func (en *engine) checkAssignmentType(p *Problem, decl *kernel.MVarDecl, value kernel.Expr) bool {
	tc := en.checker(p.mctx)
	vt, err := tc.InferClosed(value)
	if err != nil {
		return !errors.Is(err, kernel.ErrIllTyped)
	}
	want := p.mctx.InstantiateMVars(decl.Type)
	if p.mctx.InstantiateMVars(vt).Equal(want) {
		return true
	}
	p.pushPrioritized(newEq(tc, want, vt))
	return true
}

// occursRigid reports whether metavariable id occurs in e outside the
// arguments of another assignable metavariable. Such an occurrence can
// never be removed by instantiating other metavariables.
func occursRigid(mctx *kernel.MetaContext, id int64, e kernel.Expr) bool {
	switch x := e.(type) {
	case *kernel.MVar:
		return x.ID == id
	case *kernel.App:
		head, args := kernel.GetAppArgs(x)
		if m, ok := head.(*kernel.MVar); ok {
			if m.ID == id {
				return true
			}
			if mctx.IsAssignable(m.ID) {
				return false
			}
		} else if occursRigid(mctx, id, head) {
			return true
		}
		for _, a := range args {
			if occursRigid(mctx, id, a) {
				return true
			}
		}
		return false
	case *kernel.Lam:
		return occursRigid(mctx, id, x.Type) || occursRigid(mctx, id, x.Body)
	case *kernel.Forall:
		return occursRigid(mctx, id, x.Type) || occursRigid(mctx, id, x.Body)
	case *kernel.Let:
		return occursRigid(mctx, id, x.Type) || occursRigid(mctx, id, x.Value) || occursRigid(mctx, id, x.Body)
	case *kernel.Proj:
		return occursRigid(mctx, id, x.Expr)
	}
	return false
}
