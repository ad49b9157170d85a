// Package main walks through the public API of the unification engine.
//
// Each section builds a small problem over the signature
//
//	Nat : Type, a b : Nat, f : Nat -> Nat, g : Nat -> Nat -> Nat
//
// and prints the unifiers the generator finds.
package main

import (
	"context"
	"fmt"

	"github.com/gitrdm/gokanunify/pkg/kernel"
	"github.com/gitrdm/gokanunify/pkg/syntax"
	"github.com/gitrdm/gokanunify/pkg/unif"
)

type tour struct {
	env  *kernel.Environment
	mctx *kernel.MetaContext
	sc   *syntax.Scope
}

func newTour() *tour {
	env := kernel.NewEnvironment()
	nat := kernel.C("Nat")
	must(env.AddAxiom("Nat", nil, kernel.Type(0)))
	must(env.AddAxiom("a", nil, nat))
	must(env.AddAxiom("b", nil, nat))
	must(env.AddAxiom("f", nil, kernel.Arrow(nat, nat)))
	must(env.AddAxiom("g", nil, kernel.Arrow(nat, kernel.Arrow(nat, nat))))
	return &tour{env: env, mctx: kernel.NewMetaContext(), sc: syntax.NewScope(env)}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// mvar declares ?name of the given type.
func (t *tour) mvar(name, typ string) {
	ty, err := syntax.Parse(typ, t.sc)
	must(err)
	var m *kernel.MVar
	t.mctx, m = t.mctx.MkFreshMVar(name, ty)
	t.sc.DeclareMVar(name, m)
}

func (t *tour) pair(lhs, rhs string) unif.Pair {
	l, err := syntax.Parse(lhs, t.sc)
	must(err)
	r, err := syntax.Parse(rhs, t.sc)
	must(err)
	return unif.Pair{Lhs: l, Rhs: r}
}

func main() {
	fmt.Println("=== Higher-Order Unification Tour ===")
	fmt.Println()

	firstOrder()
	imitationAndProjection()
	patterns()
	flexFlex()
	decide()
}

// firstOrder solves f ?X = f a, which needs no higher-order reasoning.
func firstOrder() {
	fmt.Println("1. First-order equation:")
	t := newTour()
	t.mvar("X", "Nat")

	sols, err := unif.Solve(context.Background(), t.env, t.mctx, []unif.Pair{t.pair("f ?X", "f a")}, 5, 100)
	must(err)
	for _, s := range sols {
		fmt.Printf("   f ?X = f a => %s\n", s)
	}
	fmt.Println()
}

// imitationAndProjection enumerates every unifier of ?F a = f a.
func imitationAndProjection() {
	fmt.Println("2. Imitation and projection:")
	t := newTour()
	t.mvar("F", "Nat -> Nat")

	g, err := unif.New(t.env, t.mctx, []unif.Pair{t.pair("?F a", "f a")})
	must(err)
	for !g.IsEmpty() {
		if s, ok := g.Take(); ok {
			fmt.Printf("   ?F a = f a => %s\n", s)
		}
	}
	st := g.Stats()
	fmt.Printf("   search exhausted after %d steps (%d dead branches)\n", st.Takes, st.Failures)
	fmt.Println()
}

// patterns shows the pattern oracle: a metavariable applied to distinct
// bound variables has a unique most general solution.
func patterns() {
	fmt.Println("3. Pattern fragment:")
	t := newTour()
	t.mvar("F", "Nat -> Nat")

	g, err := unif.New(t.env, t.mctx, []unif.Pair{t.pair("fun (x : Nat) => ?F x", "fun (y : Nat) => g y a")})
	must(err)
	s, ok, err := g.TakeWithRetry(context.Background(), 10)
	must(err)
	fmt.Printf("   found=%v in %d step(s): %s\n", ok, g.Stats().Takes, s)
	fmt.Println()
}

// flexFlex runs an equation with metavariables on both sides. Iteration
// makes the search space infinite, so only a budget stops it.
func flexFlex() {
	fmt.Println("4. Flex-flex with a budget:")
	t := newTour()
	t.mvar("F", "(Nat -> Nat) -> Nat")
	t.mvar("G", "(Nat -> Nat) -> Nat")

	g, err := unif.New(t.env, t.mctx, []unif.Pair{t.pair("?F f", "?G f")}, unif.WithDebugTag("ff"))
	must(err)
	for i := 0; i < 3; i++ {
		s, ok, err := g.TakeWithRetry(context.Background(), 200)
		must(err)
		if !ok {
			fmt.Println("   budget spent")
			break
		}
		fmt.Printf("   branch %s => %s\n", s.Branch(), s)
	}
	fmt.Printf("   pending work: %d\n", g.Stats().Pending)
	fmt.Println()
}

// decide uses Check for a yes/no answer.
func decide() {
	fmt.Println("5. Deciding equations:")
	t := newTour()
	t.mvar("X", "Nat")

	for _, p := range []unif.Pair{t.pair("g ?X b", "g a b"), t.pair("f ?X", "g a b")} {
		mctx, ok, err := unif.Check(context.Background(), t.env, t.mctx, p.Lhs, p.Rhs, 100)
		if err != nil {
			fmt.Printf("   %s = %s => rejected: %v\n", kernel.Format(p.Lhs), kernel.Format(p.Rhs), err)
			continue
		}
		fmt.Printf("   %s = %s => %v %v\n", kernel.FormatWith(t.mctx, p.Lhs), kernel.Format(p.Rhs), ok, mctx.Assignments())
	}
	fmt.Println()
}
