package unif

import (
	"github.com/gitrdm/gokanunify/internal/lazylist"
	"github.com/gitrdm/gokanunify/pkg/kernel"
)

// Rule names, as reported in logs and metrics.
const (
	ruleDelete         = "delete"
	rulePostpone       = "postpone"
	ruleForallToLambda = "forall-to-lambda"
	ruleDecompose      = "decompose"
	ruleInstantiate    = "instantiate"
	ruleOccurs         = "occurs-check"
	ruleBind           = "bind"
	ruleFlexFlex       = "flex-flex"
	ruleEliminate      = "eliminate"
)

type resultKind int

const (
	resultEmpty resultKind = iota
	resultFinite
	resultLazy
)

// ruleResult is the outcome of one rule application: no successor, a
// finite list of successors, or a lazy and possibly infinite stream.
type ruleResult struct {
	kind   resultKind
	rule   string
	probs  []*Problem
	stream lazylist.List[*Problem]
}

func empty(rule string) ruleResult {
	return ruleResult{kind: resultEmpty, rule: rule}
}

func finite(rule string, ps ...*Problem) ruleResult {
	if len(ps) == 0 {
		return empty(rule)
	}
	return ruleResult{kind: resultFinite, rule: rule, probs: ps}
}

func lazy(rule string, l lazylist.List[*Problem]) ruleResult {
	if l.IsNil() {
		return empty(rule)
	}
	return ruleResult{kind: resultLazy, rule: rule, stream: l}
}

// engine applies rules to problems. It holds no per-branch state.
type engine struct {
	env *kernel.Environment
	cfg config
}

func (en *engine) checker(mctx *kernel.MetaContext) *kernel.TypeChecker {
	return kernel.NewTypeChecker(en.env, mctx)
}

// step normalizes p, pops one equation and applies the single rule that
// matches it.
func (en *engine) step(p *Problem) ruleResult {
	p = derefNormProblem(en.env, p)
	q, eq, o := p.pop()
	if eq == nil {
		return finite(ruleDelete, q)
	}
	tc := en.checker(q.mctx)
	eq = derefNormEq(tc, eq)

	if o == fromPrioritized && eq.LFlex && eq.RFlex && q.size() > 0 {
		q.flexflex = append(q.flexflex, eq)
		return finite(rulePostpone, q)
	}
	if q.mctx.InstantiateMVars(eq.Lhs).Equal(q.mctx.InstantiateMVars(eq.Rhs)) {
		return finite(ruleDelete, q)
	}

	ls, rs := Classify(tc, eq.Lhs), Classify(tc, eq.Rhs)
	switch {
	case ls.ForallDepth > 0 && rs.ForallDepth > 0:
		return en.forallToLambda(q, eq, ls, rs)
	case !eq.LFlex:
		return en.decompose(q, eq, ls, rs)
	case !eq.RFlex:
		return en.flexRigid(q, eq, o, ls, rs)
	default:
		return en.flexFlex(q, eq, o, ls, rs)
	}
}

func binderTypes(bs []kernel.Binder) []kernel.Expr {
	ts := make([]kernel.Expr, len(bs))
	for i, b := range bs {
		ts[i] = b.Type
	}
	return ts
}

func concatBinders(a, b []kernel.Binder) []kernel.Binder {
	return append(append(make([]kernel.Binder, 0, len(a)+len(b)), a...), b...)
}

// forallToLambda turns the shared prefix of dependent function binders on
// both sides into lambdas. The rewritten pair and one equation per binder
// type are pushed onto the prioritized stack, the first binder on top.
func (en *engine) forallToLambda(q *Problem, eq *UnifEq, ls, rs StructType) ruleResult {
	if ls.LamDepth != rs.LamDepth {
		return empty(ruleForallToLambda)
	}
	lb, lbody := kernel.StripLambdas(eq.Lhs)
	rb, rbody := kernel.StripLambdas(eq.Rhs)
	lf, lrest := kernel.StripForalls(lbody)
	rf, rrest := kernel.StripForalls(rbody)
	n := min(len(lf), len(rf))
	lrest = kernel.MkForalls(lf[n:], lrest)
	rrest = kernel.MkForalls(rf[n:], rrest)
	lctx := concatBinders(lb, lf[:n])
	rctx := concatBinders(rb, rf[:n])

	tc := en.checker(q.mctx)
	l1, err1 := tc.SortOf(binderTypes(lctx), lrest)
	l2, err2 := tc.SortOf(binderTypes(rctx), rrest)
	if err1 == nil && err2 == nil {
		mctx, ok := q.mctx.UnifyLevel(l1, l2)
		if !ok {
			return empty(ruleForallToLambda)
		}
		q.mctx = mctx
		tc = en.checker(mctx)
	}

	q.pushPrioritized(newEq(tc, kernel.MkLambdas(lctx, lrest), kernel.MkLambdas(rctx, rrest)))
	for j := n - 1; j >= 0; j-- {
		q.pushPrioritized(newEq(tc,
			kernel.MkLambdas(concatBinders(lb, lf[:j]), lf[j].Type),
			kernel.MkLambdas(concatBinders(rb, rf[:j]), rf[j].Type)))
	}
	return finite(ruleForallToLambda, q)
}

// sameHead compares two rigid heads of the same kind, unifying universe
// levels where the heads carry them.
func sameHead(mctx *kernel.MetaContext, kind Kind, lh, rh kernel.Expr) (*kernel.MetaContext, bool) {
	switch kind {
	case KindConst:
		switch l := lh.(type) {
		case *kernel.Const:
			r, ok := rh.(*kernel.Const)
			if !ok || r.Name != l.Name || len(r.Levels) != len(l.Levels) {
				return mctx, false
			}
			for i := range l.Levels {
				if mctx, ok = mctx.UnifyLevel(l.Levels[i], r.Levels[i]); !ok {
					return mctx, false
				}
			}
			return mctx, true
		default:
			return mctx, lh.Equal(rh)
		}
	case KindBound, KindMVar:
		return mctx, lh.Equal(rh)
	case KindProj:
		l, r := lh.(*kernel.Proj), rh.(*kernel.Proj)
		return mctx, l.Struct == r.Struct && l.Idx == r.Idx
	}
	if l, ok := lh.(*kernel.Sort); ok {
		if r, ok := rh.(*kernel.Sort); ok {
			return mctx.UnifyLevel(l.Level, r.Level)
		}
	}
	return mctx, mctx.InstantiateMVars(lh).Equal(mctx.InstantiateMVars(rh))
}

// decompose checks that both heads agree and replaces the equation by one
// equation per argument pair. Arguments are pushed last to first so the
// first argument is solved first. Any mismatch closes the branch.
func (en *engine) decompose(q *Problem, eq *UnifEq, ls, rs StructType) ruleResult {
	if ls.Kind != rs.Kind || ls.LamDepth != rs.LamDepth || ls.ForallDepth != rs.ForallDepth {
		return empty(ruleDecompose)
	}
	lb, lbody := kernel.StripLambdas(eq.Lhs)
	rb, rbody := kernel.StripLambdas(eq.Rhs)
	lh, largs := kernel.GetAppArgs(lbody)
	rh, rargs := kernel.GetAppArgs(rbody)
	if len(largs) != len(rargs) {
		return empty(ruleDecompose)
	}
	if ls.Kind == KindOther {
		// Only sorts are compared structurally; other heads must be equal as a whole.
		if _, ok := lh.(*kernel.Sort); !ok {
			if !q.mctx.InstantiateMVars(lbody).Equal(q.mctx.InstantiateMVars(rbody)) {
				return empty(ruleDecompose)
			}
			return finite(ruleDecompose, q)
		}
	}
	mctx, ok := sameHead(q.mctx, ls.Kind, lh, rh)
	if !ok {
		return empty(ruleDecompose)
	}
	q.mctx = mctx
	tc := en.checker(mctx)
	for i := len(largs) - 1; i >= 0; i-- {
		q.push(newEq(tc, kernel.MkLambdas(lb, largs[i]), kernel.MkLambdas(rb, rargs[i])))
	}
	if ls.Kind == KindProj {
		l, r := lh.(*kernel.Proj), rh.(*kernel.Proj)
		q.push(newEq(tc, kernel.MkLambdas(lb, l.Expr), kernel.MkLambdas(rb, r.Expr)))
	}
	return finite(ruleDecompose, q)
}
