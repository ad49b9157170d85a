package unif

import (
	"fmt"

	"github.com/gitrdm/gokanunify/pkg/kernel"
)

// Kind is the structural category of a term head.
type Kind int

const (
	// KindConst covers constants, free variables, literals and metavariables
	// from an outer scope.
	KindConst Kind = iota
	// KindProj is an irreducible field projection.
	KindProj
	// KindBound is a variable bound by one of the stripped binders.
	KindBound
	// KindMVar is a metavariable of the current scope. It is the only
	// flexible category.
	KindMVar
	// KindOther is anything else. It is treated as rigid.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "Const"
	case KindProj:
		return "Proj"
	case KindBound:
		return "Bound"
	case KindMVar:
		return "MVar"
	case KindOther:
		return "Other"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// StructType describes the head of a term after stripping its outer
// lambdas and then the dependent function types of the body.
type StructType struct {
	Kind        Kind
	Head        kernel.Expr
	LamDepth    int
	ForallDepth int

	// ProjCarrier and ProjResult are set for KindProj heads: the type of the
	// projected value and the type of the projection, both abstracted over
	// the stripped binders so they are closed. Nil when inference failed.
	ProjCarrier kernel.Expr
	ProjResult  kernel.Expr
}

// Flexible reports whether the term can be changed by assigning its head.
// A metavariable under a dependent function type is rigid structure.
func (s StructType) Flexible() bool {
	return s.Kind == KindMVar && s.ForallDepth == 0
}

func (s StructType) String() string {
	return fmt.Sprintf("%s(λ%d,∀%d)", s.Kind, s.LamDepth, s.ForallDepth)
}

// Classify reports the structural category of e under the snapshot of tc.
// Metavariables that the snapshot cannot assign are reported as KindConst.
func Classify(tc *kernel.TypeChecker, e kernel.Expr) StructType {
	lams, body := kernel.StripLambdas(e)
	pis, body := kernel.StripForalls(body)
	head := kernel.GetAppFn(body)
	st := StructType{Head: head, LamDepth: len(lams), ForallDepth: len(pis)}
	switch h := head.(type) {
	case *kernel.MVar:
		if tc.MCtx.IsAssignable(h.ID) || tc.MCtx.IsAssigned(h.ID) {
			st.Kind = KindMVar
		} else {
			st.Kind = KindConst
		}
	case *kernel.Const, *kernel.FVar, *kernel.NatLit, *kernel.StrLit:
		st.Kind = KindConst
	case *kernel.BVar:
		st.Kind = KindBound
	case *kernel.Proj:
		st.Kind = KindProj
		binders := append(lams, pis...)
		ctx := make([]kernel.Expr, len(binders))
		for i, b := range binders {
			ctx[i] = b.Type
		}
		if ct, err := tc.InferType(ctx, h.Expr); err == nil {
			st.ProjCarrier = kernel.MkForalls(binders, ct)
		}
		if rt, err := tc.InferType(ctx, h); err == nil {
			st.ProjResult = kernel.MkForalls(binders, rt)
		}
	default:
		st.Kind = KindOther
	}
	return st
}
