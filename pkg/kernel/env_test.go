package kernel

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnvironment(t *testing.T) {
	env := testEnv(t)

	t.Run("duplicate declarations are rejected", func(t *testing.T) {
		if err := env.AddAxiom("a", nil, nat); !errors.Is(err, ErrDuplicateDecl) {
			t.Errorf("got %v, want ErrDuplicateDecl", err)
		}
		if err := env.AddFVar("f", nat); !errors.Is(err, ErrDuplicateDecl) {
			t.Errorf("got %v, want ErrDuplicateDecl", err)
		}
	})

	t.Run("open declarations are rejected", func(t *testing.T) {
		if err := env.AddAxiom("bad", nil, &BVar{Idx: 0}); !errors.Is(err, ErrIllTyped) {
			t.Errorf("got %v, want ErrIllTyped", err)
		}
	})

	t.Run("structures", func(t *testing.T) {
		s, ok := env.Structure("Pair")
		if !ok {
			t.Fatal("Pair not registered")
		}
		if s.Ctor != "Pair.mk" || s.NumParams != 0 {
			t.Errorf("got %+v", s)
		}
		if i, ok := s.FieldIndex("snd"); !ok || i != 1 {
			t.Errorf("FieldIndex(snd) = %d, %v", i, ok)
		}
		if got, ok := env.StructureOfCtor("Pair.mk"); !ok || got.Name != "Pair" {
			t.Error("constructor does not map back to its structure")
		}
		if info, _ := env.Lookup("Pair.mk"); info.Kind != Constructor {
			t.Errorf("Pair.mk kind = %s", info.Kind)
		}
	})

	t.Run("free variables", func(t *testing.T) {
		if err := env.AddFVar("n", nat); err != nil {
			t.Fatal(err)
		}
		tc := NewTypeChecker(env, NewMetaContext())
		typ, err := tc.InferClosed(MkApp(cf, &FVar{Name: "n"}))
		if err != nil || !typ.Equal(nat) {
			t.Errorf("f n : %v, %v", typ, err)
		}
	})

	t.Run("declaration order", func(t *testing.T) {
		want := []string{"Nat", "a", "b", "f", "g", "twice", "Pair", "Pair.mk"}
		if diff := cmp.Diff(want, env.Constants()); diff != "" {
			t.Errorf("Constants mismatch (-want +got):\n%s", diff)
		}
	})
}
