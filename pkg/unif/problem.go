package unif

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-set/v2"

	"github.com/gitrdm/gokanunify/pkg/kernel"
)

type origin int

const (
	fromPrioritized origin = iota
	fromRigidRigid
	fromFlexRigid
	fromFlexFlex
)

// Problem is a conjunction of pending equations together with the
// metavariable snapshot they are solved under. Problems are values: rules
// never modify a Problem they received, they derive successors from it.
type Problem struct {
	mctx *kernel.MetaContext

	// prioritized is a stack of type-level equations; its top is the last element.
	prioritized []*UnifEq
	rigidrigid  []*UnifEq
	flexrigid   []*UnifEq
	flexflex    []*UnifEq

	// checked is set when flexrigid and flexflex are normalized against mctx.
	checked bool

	// identVar and elimVar hold the metavariables introduced by
	// identification and elimination on this branch. Shared between
	// problems and copied before extension.
	identVar *set.Set[int64]
	elimVar  *set.Set[int64]

	tag   string
	depth int
}

func newProblem(mctx *kernel.MetaContext, tag string) *Problem {
	return &Problem{
		mctx:     mctx,
		identVar: set.New[int64](0),
		elimVar:  set.New[int64](0),
		tag:      tag,
	}
}

func (p *Problem) clone() *Problem {
	q := *p
	q.prioritized = append([]*UnifEq(nil), p.prioritized...)
	q.rigidrigid = append([]*UnifEq(nil), p.rigidrigid...)
	q.flexrigid = append([]*UnifEq(nil), p.flexrigid...)
	q.flexflex = append([]*UnifEq(nil), p.flexflex...)
	return &q
}

// MetaContext returns the snapshot of the problem.
func (p *Problem) MetaContext() *kernel.MetaContext { return p.mctx }

// Tag returns the branch path of the problem.
func (p *Problem) Tag() string { return p.tag }

// Solved reports whether no equations remain.
func (p *Problem) Solved() bool { return p.size() == 0 }

func (p *Problem) size() int {
	return len(p.prioritized) + len(p.rigidrigid) + len(p.flexrigid) + len(p.flexflex)
}

// Equations returns every pending equation: prioritized from the top down,
// then the buckets.
func (p *Problem) Equations() []*UnifEq {
	out := make([]*UnifEq, 0, p.size())
	for i := len(p.prioritized) - 1; i >= 0; i-- {
		out = append(out, p.prioritized[i])
	}
	out = append(out, p.rigidrigid...)
	out = append(out, p.flexrigid...)
	return append(out, p.flexflex...)
}

// push files eq into the bucket matching its flags.
func (p *Problem) push(eq *UnifEq) {
	switch {
	case eq.LFlex && eq.RFlex:
		p.flexflex = append(p.flexflex, eq)
	case eq.LFlex:
		p.flexrigid = append(p.flexrigid, eq)
	default:
		p.rigidrigid = append(p.rigidrigid, eq)
	}
}

func (p *Problem) pushPrioritized(eq *UnifEq) {
	p.prioritized = append(p.prioritized, eq)
}

// readd puts a popped equation back where it came from.
func (p *Problem) readd(eq *UnifEq, o origin) {
	switch o {
	case fromPrioritized:
		p.prioritized = append(p.prioritized, eq)
	case fromRigidRigid:
		p.rigidrigid = append(p.rigidrigid, eq)
	case fromFlexRigid:
		p.flexrigid = append(p.flexrigid, eq)
	default:
		p.flexflex = append(p.flexflex, eq)
	}
}

// pop removes the next equation from a copy of p. The prioritized stack
// goes first; the buckets are drained from their back in the order
// rigid-rigid, flex-rigid, flex-flex.
func (p *Problem) pop() (*Problem, *UnifEq, origin) {
	q := p.clone()
	for o, b := range []*[]*UnifEq{&q.prioritized, &q.rigidrigid, &q.flexrigid, &q.flexflex} {
		if n := len(*b); n > 0 {
			eq := (*b)[n-1]
			*b = (*b)[:n-1]
			return q, eq, origin(o)
		}
	}
	return q, nil, fromFlexFlex
}

// assign returns a copy of p with id bound to v. The snapshot changed, so
// the copy must be normalized again before it is inspected.
func (p *Problem) assign(id int64, v kernel.Expr) *Problem {
	q := p.clone()
	q.mctx = p.mctx.Assign(id, v)
	q.checked = false
	return q
}

func (p *Problem) withIdentVar(id int64) {
	s := p.identVar.Copy()
	s.Insert(id)
	p.identVar = s
}

func (p *Problem) withElimVar(id int64) {
	s := p.elimVar.Copy()
	s.Insert(id)
	p.elimVar = s
}

func (p *Problem) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "problem %s:", p.tag)
	for _, eq := range p.Equations() {
		fmt.Fprintf(&b, "\n  %s", eq)
	}
	return b.String()
}

// derefNormProblem brings the equations of p up to date with its snapshot.
// A non-empty prioritized stack only has its top normalized; otherwise the
// flex-rigid and flex-flex buckets are normalized and redistributed.
func derefNormProblem(env *kernel.Environment, p *Problem) *Problem {
	tc := kernel.NewTypeChecker(env, p.mctx)
	if n := len(p.prioritized); n > 0 {
		q := p.clone()
		q.prioritized[n-1] = derefNormEq(tc, q.prioritized[n-1])
		q.checked = false
		return q
	}
	if p.checked {
		return p
	}
	q := p.clone()
	q.flexrigid, q.flexflex = nil, nil
	for _, eq := range append(append([]*UnifEq(nil), p.flexrigid...), p.flexflex...) {
		q.push(derefNormEq(tc, eq))
	}
	q.checked = true
	return q
}
