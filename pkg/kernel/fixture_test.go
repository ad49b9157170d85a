package kernel

import "testing"

var (
	nat = C("Nat")
	ca  = C("a")
	cb  = C("b")
	cf  = C("f")
	cg  = C("g")
)

// testEnv declares a small signature over Nat:
//
//	a b : Nat, f : Nat -> Nat, g : Nat -> Nat -> Nat,
//	twice := fun x => f (f x), structure Pair := (fst snd : Nat)
func testEnv(t *testing.T) *Environment {
	t.Helper()
	env := NewEnvironment()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("building environment: %v", err)
		}
	}
	must(env.AddAxiom("Nat", nil, Type(0)))
	must(env.AddAxiom("a", nil, nat))
	must(env.AddAxiom("b", nil, nat))
	must(env.AddAxiom("f", nil, Arrow(nat, nat)))
	must(env.AddAxiom("g", nil, Arrow(nat, Arrow(nat, nat))))
	must(env.AddDefinition("twice", nil, Arrow(nat, nat),
		&Lam{Name: "x", Type: nat, Body: MkApp(cf, MkApp(cf, &BVar{Idx: 0}))}))
	must(env.AddStructure("Pair", nil, nil, []Binder{{Name: "fst", Type: nat}, {Name: "snd", Type: nat}}, LevelOf(1)))
	return env
}
