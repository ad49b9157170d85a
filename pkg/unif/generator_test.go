package unif

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gitrdm/gokanunify/internal/lazylist"
	"github.com/gitrdm/gokanunify/pkg/kernel"
)

func TestFirstOrder(t *testing.T) {
	env := testEnv(t)

	t.Run("bare metavariable is solved in one take", func(t *testing.T) {
		mctx, x := kernel.NewMetaContext().MkFreshMVar("X", nat)
		g, err := New(env, mctx, []Pair{{Lhs: x, Rhs: ca}})
		if err != nil {
			t.Fatal(err)
		}
		sol, ok := g.Take()
		if !ok {
			t.Fatal("expected a solution from the first take")
		}
		if diff := cmp.Diff([]string{"?X := a"}, assignmentStrings(sol)); diff != "" {
			t.Errorf("assignments mismatch (-want +got):\n%s", diff)
		}
		if mctx.IsAssigned(x.ID) {
			t.Error("input snapshot was modified")
		}
	})

	t.Run("decompose then instantiate", func(t *testing.T) {
		mctx, x := kernel.NewMetaContext().MkFreshMVar("X", nat)
		g, err := New(env, mctx, []Pair{{Lhs: kernel.MkApp(cf, x), Rhs: kernel.MkApp(cf, ca)}})
		if err != nil {
			t.Fatal(err)
		}
		sol, ok, err := g.TakeWithRetry(context.Background(), 2)
		if err != nil || !ok {
			t.Fatalf("TakeWithRetry = %v, %v, %v", sol, ok, err)
		}
		if got := g.Stats().Takes; got != 2 {
			t.Errorf("Takes = %d, want 2", got)
		}
		if v := sol.Instantiate(x); !v.Equal(ca) {
			t.Errorf("X = %s, want a", kernel.Format(v))
		}
	})

	t.Run("equal terms are deleted", func(t *testing.T) {
		g, err := New(env, kernel.NewMetaContext(), []Pair{{Lhs: kernel.MkApp(cf, ca), Rhs: kernel.MkApp(cf, ca)}})
		if err != nil {
			t.Fatal(err)
		}
		sol, ok := g.Take()
		if !ok || len(sol.Assignments()) != 0 {
			t.Fatalf("Take = %v, %v", sol, ok)
		}
		if !g.IsEmpty() {
			t.Error("nothing should be left to search")
		}
	})

	t.Run("clashing constants fail", func(t *testing.T) {
		g, err := New(env, kernel.NewMetaContext(), []Pair{{Lhs: kernel.MkApp(cf, ca), Rhs: kernel.MkApp(cf, cb)}})
		if err != nil {
			t.Fatal(err)
		}
		if sols := drain(t, g, 10); len(sols) != 0 {
			t.Errorf("got %d solutions, want none", len(sols))
		}
		if !g.IsEmpty() {
			t.Error("search should be exhausted")
		}
	})

	t.Run("several pairs share one snapshot", func(t *testing.T) {
		mctx, x := kernel.NewMetaContext().MkFreshMVar("X", nat)
		mctx, y := mctx.MkFreshMVar("Y", nat)
		pairs := []Pair{
			{Lhs: kernel.MkApp(cg, x, y), Rhs: kernel.MkApp(cg, ca, x)},
			{Lhs: kernel.MkApp(cf, y), Rhs: kernel.MkApp(cf, ca)},
		}
		sols, err := Solve(context.Background(), env, mctx, pairs, 1, 50)
		if err != nil || len(sols) != 1 {
			t.Fatalf("Solve = %v, %v", sols, err)
		}
		if diff := cmp.Diff([]string{"?X := a", "?Y := a"}, assignmentStrings(sols[0])); diff != "" {
			t.Errorf("assignments mismatch (-want +got):\n%s", diff)
		}
		assertSound(t, env, sols[0], pairs)
	})
}

func TestOccursCheck(t *testing.T) {
	env := testEnv(t)

	t.Run("rigid occurrence closes the branch", func(t *testing.T) {
		mctx, m := kernel.NewMetaContext().MkFreshMVar("M", nat)
		g, err := New(env, mctx, []Pair{{Lhs: m, Rhs: kernel.MkApp(cf, m)}})
		if err != nil {
			t.Fatal(err)
		}
		if sols := drain(t, g, 5); len(sols) != 0 {
			t.Fatalf("got %v, want no solution", sols)
		}
		if !g.IsEmpty() {
			t.Error("occurs check should close the only branch")
		}
		if s := g.Stats(); s.Takes != 1 || s.Failures != 1 {
			t.Errorf("Stats = %+v", s)
		}
	})

	mctx, m := kernel.NewMetaContext().MkFreshMVar("M", nat)
	vanishing := []struct {
		name string
		arg  kernel.Expr
	}{
		// (fun x : Nat => a) ?M
		{"occurrence inside a redex", kernel.MkApp(&kernel.Lam{Name: "x", Type: nat, Body: ca}, m)},
		// let y : Nat := ?M in a
		{"occurrence inside an unused let", &kernel.Let{Name: "y", Type: nat, Value: m, Body: ca}},
	}
	for _, tt := range vanishing {
		t.Run(tt.name, func(t *testing.T) {
			pairs := []Pair{{Lhs: m, Rhs: kernel.MkApp(cf, tt.arg)}}
			sols, err := Solve(context.Background(), env, mctx, pairs, 1, 10)
			if err != nil || len(sols) != 1 {
				t.Fatalf("Solve = %v, %v", sols, err)
			}
			if diff := cmp.Diff([]string{"?M := f a"}, assignmentStrings(sols[0])); diff != "" {
				t.Errorf("assignments mismatch (-want +got):\n%s", diff)
			}
			assertSound(t, env, sols[0], pairs)
		})
	}
}

func TestOuterScopeMetavariablesAreRigid(t *testing.T) {
	env := testEnv(t)
	mctx, x := kernel.NewMetaContext().MkFreshMVar("X", nat)
	mctx = mctx.EnterScope()
	sols, err := Solve(context.Background(), env, mctx, []Pair{{Lhs: x, Rhs: ca}}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sols) != 0 {
		t.Errorf("outer metavariable was bound: %v", sols)
	}
}

func TestHigherOrder(t *testing.T) {
	env := testEnv(t)
	natToNat := kernel.Arrow(nat, nat)

	t.Run("imitation and projection", func(t *testing.T) {
		mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", natToNat)
		pairs := []Pair{{Lhs: kernel.MkApp(fm, ca), Rhs: kernel.MkApp(cf, ca)}}
		g, err := New(env, mctx, pairs)
		if err != nil {
			t.Fatal(err)
		}
		sols := drain(t, g, 100)
		if !g.IsEmpty() {
			t.Fatal("search should be finite")
		}
		got := map[string]bool{}
		for _, s := range sols {
			assertSound(t, env, s, pairs)
			got[s.String()] = true
		}
		want := map[string]bool{
			"{?F := fun (x : Nat) => f a}": true,
			"{?F := fun (x : Nat) => f x}": true,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("solutions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("pattern is solved by the oracle", func(t *testing.T) {
		mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", kernel.Arrow(nat, natToNat))
		// fun x y => ?F y x  =?=  fun x y => g x (f y)
		lhs := &kernel.Lam{Name: "x", Type: nat, Body: &kernel.Lam{Name: "y", Type: nat,
			Body: kernel.MkApp(fm, &kernel.BVar{Idx: 0}, &kernel.BVar{Idx: 1})}}
		rhs := &kernel.Lam{Name: "x", Type: nat, Body: &kernel.Lam{Name: "y", Type: nat,
			Body: kernel.MkApp(cg, &kernel.BVar{Idx: 1}, kernel.MkApp(cf, &kernel.BVar{Idx: 0}))}}
		g, err := New(env, mctx, []Pair{{Lhs: lhs, Rhs: rhs}})
		if err != nil {
			t.Fatal(err)
		}
		sol, ok := g.Take()
		if !ok {
			t.Fatal("pattern should be solved in one step")
		}
		want := &kernel.Lam{Name: "y", Type: nat, Body: &kernel.Lam{Name: "x", Type: nat,
			Body: kernel.MkApp(cg, &kernel.BVar{Idx: 0}, kernel.MkApp(cf, &kernel.BVar{Idx: 1}))}}
		if v := sol.Instantiate(fm); !v.Equal(want) {
			t.Errorf("F = %s, want %s", kernel.Format(v), kernel.Format(want))
		}
	})

	t.Run("dependent function types", func(t *testing.T) {
		mctx, pm := kernel.NewMetaContext().MkFreshMVar("P", kernel.Arrow(nat, kernel.Type(0)))
		lhs := &kernel.Forall{Name: "x", Type: nat, Body: kernel.MkApp(pm, &kernel.BVar{Idx: 0})}
		rhs := kernel.Arrow(nat, nat)
		sols, err := Solve(context.Background(), env, mctx, []Pair{{Lhs: lhs, Rhs: rhs}}, 1, 10)
		if err != nil || len(sols) != 1 {
			t.Fatalf("Solve = %v, %v", sols, err)
		}
		if diff := cmp.Diff([]string{"?P := fun (x : Nat) => Nat"}, assignmentStrings(sols[0])); diff != "" {
			t.Errorf("assignments mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("field projection", func(t *testing.T) {
		mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", kernel.Arrow(kernel.C("Pair"), nat))
		pairs := []Pair{{Lhs: kernel.MkApp(fm, cp), Rhs: &kernel.Proj{Struct: "Pair", Idx: 0, Expr: cp}}}
		g, err := New(env, mctx, pairs)
		if err != nil {
			t.Fatal(err)
		}
		sols := drain(t, g, 200)
		found := false
		for _, s := range sols {
			assertSound(t, env, s, pairs)
			if s.String() == "{?F := fun (x : Pair) => proj Pair 0 x}" {
				found = true
			}
		}
		if !found {
			t.Errorf("field projection missing from %v", sols)
		}
	})
}

func TestFlexFlex(t *testing.T) {
	env := testEnv(t)
	natToNat := kernel.Arrow(nat, nat)

	t.Run("same head without elimination decomposes only", func(t *testing.T) {
		mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", natToNat)
		g, err := New(env, mctx, []Pair{{Lhs: kernel.MkApp(fm, ca), Rhs: kernel.MkApp(fm, cb)}})
		if err != nil {
			t.Fatal(err)
		}
		if sols := drain(t, g, 10); len(sols) != 0 {
			t.Errorf("got %v, want none", sols)
		}
		if !g.IsEmpty() {
			t.Error("search should be exhausted")
		}
	})

	t.Run("same head with elimination", func(t *testing.T) {
		mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", natToNat)
		pairs := []Pair{{Lhs: kernel.MkApp(fm, ca), Rhs: kernel.MkApp(fm, cb)}}
		g, err := New(env, mctx, pairs, WithElimination(true))
		if err != nil {
			t.Fatal(err)
		}
		sol, ok, err := g.TakeWithRetry(context.Background(), 10)
		if err != nil || !ok {
			t.Fatalf("TakeWithRetry = %v, %v, %v", sol, ok, err)
		}
		assertSound(t, env, sol, pairs)
		v := sol.Instantiate(fm)
		lam, isLam := v.(*kernel.Lam)
		if !isLam || kernel.HasLooseBVar(lam.Body, 0) {
			t.Errorf("F = %s, want a constant function", kernel.Format(v))
		}
	})

	t.Run("distinct heads", func(t *testing.T) {
		mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", natToNat)
		mctx, gm := mctx.MkFreshMVar("G", natToNat)
		pairs := []Pair{{Lhs: kernel.MkApp(fm, ca), Rhs: kernel.MkApp(gm, cb)}}
		sols, err := Solve(context.Background(), env, mctx, pairs, 4, 200)
		if err != nil {
			t.Fatal(err)
		}
		if len(sols) == 0 {
			t.Fatal("expected at least one unifier")
		}
		for _, s := range sols {
			assertSound(t, env, s, pairs)
		}
	})

	t.Run("iteration stream is unbounded", func(t *testing.T) {
		// F : (Nat -> Nat) -> Nat has a functional argument.
		mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", kernel.Arrow(natToNat, nat))
		mctx, gm := mctx.MkFreshMVar("G", kernel.Arrow(natToNat, nat))
		pairs := []Pair{{Lhs: kernel.MkApp(fm, cf), Rhs: kernel.MkApp(gm, cf)}}
		g, err := New(env, mctx, pairs)
		if err != nil {
			t.Fatal(err)
		}
		sols := drain(t, g, 300)
		if g.IsEmpty() {
			t.Error("iteration should keep the search open")
		}
		for _, s := range sols {
			assertSound(t, env, s, pairs)
		}
	})
}

func TestIterationCandidates(t *testing.T) {
	env := testEnv(t)
	mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", kernel.Arrow(kernel.Arrow(nat, nat), nat))
	en := &engine{env: env, cfg: defaultConfig()}
	q := newProblem(mctx, "t")
	eq := newEq(en.checker(mctx), kernel.MkApp(fm, cf), ca)

	s, ok := en.shapeOf(mctx, fm, 1)
	if !ok {
		t.Fatal("shapeOf failed")
	}
	ps := lazylist.Take(en.iteration(q, eq, fromFlexFlex, s), 3)
	if len(ps) != 3 {
		t.Fatalf("got %d candidates, want 3", len(ps))
	}
	for i, p := range ps {
		if !p.mctx.IsAssigned(fm.ID) {
			t.Errorf("candidate %d leaves F unassigned", i)
		}
		if p.checked {
			t.Errorf("candidate %d is marked checked after an assignment", i)
		}
	}

	en.cfg.iteration = false
	if !en.iteration(q, eq, fromFlexFlex, s).IsNil() {
		t.Error("disabled iteration should produce nothing")
	}
}

func TestLeftFlexInvariant(t *testing.T) {
	env := testEnv(t)
	mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", kernel.Arrow(nat, nat))
	mctx, x := mctx.MkFreshMVar("X", nat)
	// Flexible sides start on the right.
	pairs := []Pair{
		{Lhs: kernel.MkApp(cg, ca, x), Rhs: kernel.MkApp(fm, x)},
		{Lhs: cb, Rhs: x},
	}
	g, err := New(env, mctx, pairs)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50 && !g.IsEmpty(); i++ {
		for _, item := range g.queue {
			if item.prob == nil {
				continue
			}
			for _, eq := range item.prob.Equations() {
				if !eq.LFlex && eq.RFlex {
					t.Fatalf("equation %s has its flexible side on the right", eq)
				}
			}
		}
		if sol, ok := g.Take(); ok {
			assertSound(t, env, sol, pairs)
		}
	}
}

func TestAccept(t *testing.T) {
	env := testEnv(t)
	mctx, x := kernel.NewMetaContext().MkFreshMVar("X", nat)
	g, err := New(env, mctx, []Pair{{Lhs: x, Rhs: ca}})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Accept([]Pair{{Lhs: x, Rhs: cb}}); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, s := range drain(t, g, 10) {
		got = append(got, s.String())
	}
	if diff := cmp.Diff([]string{"{?X := a}", "{?X := b}"}, got); diff != "" {
		t.Errorf("solutions mismatch (-want +got):\n%s", diff)
	}
}

func TestTakeWithRetry(t *testing.T) {
	env := testEnv(t)
	mctx, x := kernel.NewMetaContext().MkFreshMVar("X", nat)
	pairs := []Pair{{Lhs: kernel.MkApp(cf, x), Rhs: kernel.MkApp(cf, ca)}}

	t.Run("running out of budget is resumable", func(t *testing.T) {
		g, err := New(env, mctx, pairs)
		if err != nil {
			t.Fatal(err)
		}
		sol, ok, err := g.TakeWithRetry(context.Background(), 1)
		if sol != nil || ok || err != nil {
			t.Fatalf("first call = %v, %v, %v", sol, ok, err)
		}
		if g.IsEmpty() {
			t.Fatal("generator should still have work")
		}
		if _, ok, _ := g.TakeWithRetry(context.Background(), 1); !ok {
			t.Error("second call should find the solution")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		g, err := New(env, mctx, pairs)
		if err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, _, err := g.TakeWithRetry(ctx, 10); !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	})

	t.Run("max depth prunes deep branches", func(t *testing.T) {
		g, err := New(env, mctx, pairs, WithMaxDepth(0))
		if err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := g.TakeWithRetry(context.Background(), 5); !ok {
			t.Error("zero depth limit means unlimited")
		}
		g, err = New(env, mctx, pairs, WithMaxDepth(1))
		if err != nil {
			t.Fatal(err)
		}
		// The decomposed child sits at depth 1 and its solution at depth 2,
		// which is returned directly rather than enqueued.
		sol, ok, _ := g.TakeWithRetry(context.Background(), 5)
		if !ok || sol.Depth() != 2 {
			t.Errorf("got %v, %v", sol, ok)
		}
	})
}

func TestCheck(t *testing.T) {
	env := testEnv(t)
	mctx, x := kernel.NewMetaContext().MkFreshMVar("X", nat)

	got, ok, err := Check(context.Background(), env, mctx, kernel.MkApp(cg, x, cb), kernel.MkApp(cg, ca, cb), 10)
	if err != nil || !ok {
		t.Fatalf("Check = %v, %v", ok, err)
	}
	if v, _ := got.Lookup(x.ID); v == nil || !v.Equal(ca) {
		t.Errorf("X = %v, want a", v)
	}

	same, ok, err := Check(context.Background(), env, mctx, ca, cb, 10)
	if err != nil || ok || same != mctx {
		t.Errorf("Check(a, b) = %v, %v, %v", same, ok, err)
	}
}

func TestMalformedPairs(t *testing.T) {
	env := testEnv(t)

	t.Run("errors are collected per pair", func(t *testing.T) {
		_, err := New(env, kernel.NewMetaContext(), []Pair{
			{Lhs: ca, Rhs: nil},
			{Lhs: kernel.C("missing"), Rhs: ca},
			{Lhs: ca, Rhs: &kernel.BVar{Idx: 0}},
		})
		if err == nil {
			t.Fatal("expected an error")
		}
		if !errors.Is(err, ErrMalformedPair) {
			t.Errorf("error %v does not wrap ErrMalformedPair", err)
		}
		if !errors.Is(err, kernel.ErrUnknownConstant) {
			t.Errorf("error %v does not wrap the cause", err)
		}
		var pe *PairError
		if !errors.As(err, &pe) || pe.Index != 0 {
			t.Errorf("first PairError = %+v", pe)
		}
	})

	t.Run("argument of the wrong type", func(t *testing.T) {
		mctx, x := kernel.NewMetaContext().MkFreshMVar("X", nat)
		// f : Nat -> Nat applied to the type Nat.
		_, err := New(env, mctx, []Pair{{Lhs: x, Rhs: kernel.MkApp(cf, nat)}})
		if !errors.Is(err, kernel.ErrIllTyped) || !errors.Is(err, ErrMalformedPair) {
			t.Fatalf("New() error = %v, want an ill-typed pair", err)
		}
		var pe *PairError
		if !errors.As(err, &pe) || pe.Index != 0 || pe.Side != "rhs" {
			t.Errorf("PairError = %+v", pe)
		}

		g, err := New(env, mctx, []Pair{{Lhs: x, Rhs: ca}})
		if err != nil {
			t.Fatal(err)
		}
		if err := g.Accept([]Pair{{Lhs: kernel.MkApp(cg, ca, nat), Rhs: ca}}); !errors.Is(err, kernel.ErrIllTyped) {
			t.Errorf("Accept() error = %v, want ErrIllTyped", err)
		}
	})
}

// iterationSide names the metavariable an iteration candidate bound, or
// returns "" for candidates produced by other rules.
func iterationSide(mctx *kernel.MetaContext, fm, gm *kernel.MVar) string {
	if mctx.IsAssigned(fm.ID) && mctx.IsAssigned(gm.ID) {
		return ""
	}
	for name, m := range map[string]*kernel.MVar{"F": fm, "G": gm} {
		v, ok := mctx.Lookup(m.ID)
		if !ok {
			continue
		}
		_, body := kernel.StripLambdas(v)
		if _, isMVar := kernel.GetAppFn(body).(*kernel.MVar); isMVar {
			return name
		}
	}
	return ""
}

func TestFairness(t *testing.T) {
	env := testEnv(t)
	natToNat := kernel.Arrow(nat, nat)
	// Both sides have a functional argument, so iteration is infinite on each.
	mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", kernel.Arrow(natToNat, nat))
	mctx, gm := mctx.MkFreshMVar("G", kernel.Arrow(natToNat, nat))
	g, err := New(env, mctx, []Pair{{Lhs: kernel.MkApp(fm, cf), Rhs: kernel.MkApp(gm, cf)}})
	if err != nil {
		t.Fatal(err)
	}

	// Record the candidates of the root equation in the order the
	// generator forces them.
	seen := map[string]bool{}
	var sides []string
	for i := 0; i < 4000 && !g.IsEmpty(); i++ {
		g.Take()
		for _, item := range g.queue {
			if item.prob == nil || item.prob.depth != 1 || seen[item.prob.tag] {
				continue
			}
			seen[item.prob.tag] = true
			if side := iterationSide(item.prob.mctx, fm, gm); side != "" {
				sides = append(sides, side)
			}
		}
	}

	count := map[string]int{}
	for _, s := range sides {
		count[s]++
	}
	if count["F"] < 2 || count["G"] < 2 {
		t.Fatalf("iteration candidates per side = %v, want at least 2 each (sequence %v)", count, sides)
	}
	for i := 1; i < len(sides); i++ {
		if sides[i] == sides[i-1] {
			t.Errorf("side %s contributed twice in a row at %d: %v", sides[i], i, sides)
			break
		}
	}
}

func TestForallToLambdaLevels(t *testing.T) {
	env := testEnv(t)
	en := &engine{env: env, cfg: defaultConfig()}
	mctx, tm := kernel.NewMetaContext().MkFreshMVar("T", kernel.Type(0))

	t.Run("codomains in different universes fail", func(t *testing.T) {
		q := newProblem(mctx, "t")
		// Nat -> Nat lives in Sort 1, Nat -> Type in Sort 2.
		q.push(newEq(en.checker(mctx), kernel.Arrow(nat, nat), kernel.Arrow(nat, kernel.Type(0))))
		res := en.step(q)
		if res.kind != resultEmpty || res.rule != ruleForallToLambda {
			t.Errorf("step = %s with %d successors, want a failed %s", res.rule, len(res.probs), ruleForallToLambda)
		}
	})

	t.Run("matching universes continue", func(t *testing.T) {
		q := newProblem(mctx, "t")
		q.push(newEq(en.checker(mctx), kernel.Arrow(nat, nat), kernel.Arrow(nat, tm)))
		res := en.step(q)
		if res.kind != resultFinite || res.rule != ruleForallToLambda {
			t.Fatalf("step = %s, want %s with a successor", res.rule, ruleForallToLambda)
		}
		if n := len(res.probs[0].prioritized); n != 2 {
			t.Errorf("prioritized equations = %d, want binder type and body", n)
		}
	})
}

func TestEliminatedMetavariablesDoNotDecompose(t *testing.T) {
	env := testEnv(t)
	en := &engine{env: env, cfg: defaultConfig()}
	mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", kernel.Arrow(nat, nat))
	build := func() *Problem {
		q := newProblem(mctx, "t")
		q.push(newEq(en.checker(mctx), kernel.MkApp(fm, ca), kernel.MkApp(fm, cb)))
		return q
	}

	res := en.step(build())
	if res.rule != ruleDecompose || res.kind != resultFinite {
		t.Fatalf("fresh metavariable: step = %s, want %s", res.rule, ruleDecompose)
	}

	q := build()
	q.withElimVar(fm.ID)
	res = en.step(q)
	if res.rule != ruleEliminate || res.kind != resultLazy {
		t.Fatalf("eliminated metavariable: step = %s, want a lazy %s", res.rule, ruleEliminate)
	}
	ps := lazylist.Take(res.stream, 10)
	if len(ps) == 0 {
		t.Fatal("elimination produced no candidates")
	}
	for i, p := range ps {
		if !p.mctx.IsAssigned(fm.ID) {
			t.Errorf("candidate %d decomposed instead of binding F", i)
		}
	}
}

func TestIdentifiedMetavariablesSkipProjection(t *testing.T) {
	env := testEnv(t)
	en := &engine{env: env, cfg: defaultConfig()}
	natToNat := kernel.Arrow(nat, nat)
	mctx, fm := kernel.NewMetaContext().MkFreshMVar("F", natToNat)
	mctx, gm := mctx.MkFreshMVar("G", natToNat)

	t.Run("flex-rigid", func(t *testing.T) {
		build := func() *Problem {
			q := newProblem(mctx, "t")
			q.push(newEq(en.checker(mctx), kernel.MkApp(fm, ca), kernel.MkApp(cf, ca)))
			return q
		}
		if res := en.step(build()); len(res.probs) != 2 {
			t.Fatalf("fresh metavariable: %d candidates, want imitation and projection", len(res.probs))
		}
		q := build()
		q.withIdentVar(fm.ID)
		res := en.step(q)
		if len(res.probs) != 1 {
			t.Fatalf("identified metavariable: %d candidates, want imitation only", len(res.probs))
		}
		v, _ := res.probs[0].mctx.Lookup(fm.ID)
		_, body := kernel.StripLambdas(v)
		if !kernel.GetAppFn(body).Equal(cf) {
			t.Errorf("F := %s, want an imitation of f", kernel.Format(v))
		}
	})

	t.Run("flex-flex", func(t *testing.T) {
		build := func() *Problem {
			q := newProblem(mctx, "t")
			q.push(newEq(en.checker(mctx), kernel.MkApp(fm, ca), kernel.MkApp(gm, cb)))
			return q
		}
		// Neither side has a functional argument, so the streams are finite.
		if ps := lazylist.Take(en.step(build()).stream, 10); len(ps) != 3 {
			t.Fatalf("fresh metavariables: %d candidates, want identification and two projections", len(ps))
		}
		q := build()
		q.withIdentVar(fm.ID)
		ps := lazylist.Take(en.step(q).stream, 10)
		if len(ps) != 1 {
			t.Fatalf("identified F: %d candidates, want the projection of G only", len(ps))
		}
		if ps[0].mctx.IsAssigned(fm.ID) || !ps[0].mctx.IsAssigned(gm.ID) {
			t.Errorf("candidate binds the wrong side: %s", ps[0].mctx)
		}
	})
}
