package unif

import (
	"testing"

	"github.com/gitrdm/gokanunify/pkg/kernel"
)

var (
	nat = kernel.C("Nat")
	ca  = kernel.C("a")
	cb  = kernel.C("b")
	cf  = kernel.C("f")
	cg  = kernel.C("g")
	cp  = kernel.C("p")
)

// testEnv declares a b : Nat, f : Nat -> Nat, g : Nat -> Nat -> Nat,
// structure Pair := (fst snd : Nat) and p : Pair.
func testEnv(t testing.TB) *kernel.Environment {
	t.Helper()
	env := kernel.NewEnvironment()
	for _, err := range []error{
		env.AddAxiom("Nat", nil, kernel.Type(0)),
		env.AddAxiom("a", nil, nat),
		env.AddAxiom("b", nil, nat),
		env.AddAxiom("f", nil, kernel.Arrow(nat, nat)),
		env.AddAxiom("g", nil, kernel.Arrow(nat, kernel.Arrow(nat, nat))),
		env.AddStructure("Pair", nil, nil, []kernel.Binder{{Name: "fst", Type: nat}, {Name: "snd", Type: nat}}, kernel.LevelOf(1)),
		env.AddAxiom("p", nil, kernel.C("Pair")),
	} {
		if err != nil {
			t.Fatalf("building environment: %v", err)
		}
	}
	return env
}

// drain takes solutions until the generator is exhausted or budget steps
// have been spent in total.
func drain(t *testing.T, g *Generator, budget int) []*Solution {
	t.Helper()
	var sols []*Solution
	for i := 0; i < budget && !g.IsEmpty(); i++ {
		if sol, ok := g.Take(); ok {
			sols = append(sols, sol)
		}
	}
	return sols
}

// assertSound checks that a solution makes every pair beta-eta equal.
func assertSound(t *testing.T, env *kernel.Environment, sol *Solution, pairs []Pair) {
	t.Helper()
	tc := kernel.NewTypeChecker(env, sol.MetaContext())
	for _, p := range pairs {
		l := tc.Normalize(sol.Instantiate(p.Lhs))
		r := tc.Normalize(sol.Instantiate(p.Rhs))
		if !l.Equal(r) {
			t.Errorf("unsound solution %s: %s and %s differ", sol, kernel.Format(l), kernel.Format(r))
		}
	}
}

func assignmentStrings(sol *Solution) []string {
	var out []string
	for _, a := range sol.Assignments() {
		out = append(out, a.String())
	}
	return out
}
