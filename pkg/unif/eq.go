package unif

import (
	"fmt"

	"github.com/gitrdm/gokanunify/pkg/kernel"
)

// UnifEq is one pending equation between two closed terms. When exactly one
// side is flexible it is always Lhs.
type UnifEq struct {
	Lhs, Rhs     kernel.Expr
	LFlex, RFlex bool
}

func (eq *UnifEq) String() string {
	return fmt.Sprintf("%s =?= %s", kernel.Format(eq.Lhs), kernel.Format(eq.Rhs))
}

// canonical puts the flexible side on the left.
func (eq *UnifEq) canonical() *UnifEq {
	if !eq.LFlex && eq.RFlex {
		return &UnifEq{Lhs: eq.Rhs, Rhs: eq.Lhs, LFlex: true, RFlex: false}
	}
	return eq
}

// normalizeSide eta-expands e and brings it to head normal form.
func normalizeSide(tc *kernel.TypeChecker, e kernel.Expr) kernel.Expr {
	if x, err := tc.EtaExpand(e); err == nil {
		e = x
	}
	return tc.HeadNormalize(e)
}

// newEq builds a canonical equation with both sides normalized.
func newEq(tc *kernel.TypeChecker, lhs, rhs kernel.Expr) *UnifEq {
	lhs = normalizeSide(tc, lhs)
	rhs = normalizeSide(tc, rhs)
	eq := &UnifEq{
		Lhs:   lhs,
		Rhs:   rhs,
		LFlex: Classify(tc, lhs).Flexible(),
		RFlex: Classify(tc, rhs).Flexible(),
	}
	return eq.canonical()
}

// needsRenorm reports whether a side can change shape after an assignment:
// flexible sides, and rigid sides whose head may still reduce.
func needsRenorm(st StructType) bool {
	return st.Kind == KindMVar || st.Kind == KindProj || st.Kind == KindOther
}

// derefNormEq re-normalizes the sides of eq that an assignment may have
// changed, refreshes the flexibility flags and restores the canonical form.
func derefNormEq(tc *kernel.TypeChecker, eq *UnifEq) *UnifEq {
	lhs, rhs := eq.Lhs, eq.Rhs
	ls, rs := Classify(tc, lhs), Classify(tc, rhs)
	changed := false
	if needsRenorm(ls) {
		lhs = normalizeSide(tc, lhs)
		ls = Classify(tc, lhs)
		changed = true
	}
	if needsRenorm(rs) {
		rhs = normalizeSide(tc, rhs)
		rs = Classify(tc, rhs)
		changed = true
	}
	if !changed && eq.LFlex == ls.Flexible() && eq.RFlex == rs.Flexible() {
		return eq
	}
	return (&UnifEq{Lhs: lhs, Rhs: rhs, LFlex: ls.Flexible(), RFlex: rs.Flexible()}).canonical()
}
