// Package unif enumerates higher-order pre-unifiers for terms of the
// dependent type theory in package kernel.
//
// # Search
//
// A Generator owns a queue of unification problems. Each problem is a
// conjunction of equations together with the metavariable snapshot it was
// reached under. Every call to Take applies one rule to the problem at the
// front of the queue, or forces one element of a pending stream, and puts
// the successors at the back. The search is therefore breadth first and
// fair: a branch with infinitely many successors never starves its
// siblings.
//
//	g, err := unif.New(env, mctx, []unif.Pair{{Lhs: lhs, Rhs: rhs}})
//	for !g.IsEmpty() {
//	    if sol, ok := g.Take(); ok {
//	        fmt.Println(sol)
//	    }
//	}
//
// # Rules
//
// Equations are kept with their flexible side on the left. The rules are
// tried in a fixed order:
//
//   - Delete drops syntactically equal sides.
//   - Forall-to-lambda turns two dependent function types into two lambdas
//     with equal binder types.
//   - Decompose splits rigid-rigid equations with the same head.
//   - The instantiation oracle solves pattern equations in one step and
//     the occurs check fails equations that can never be solved.
//   - Bind enumerates imitations and projections for flex-rigid equations.
//   - Flex-flex equations branch lazily over identification, projections,
//     iteration and, optionally, elimination.
//
// A problem is solved once it has no equations left. Flex-flex equations
// are not postponed to the end, so a Solution never carries leftover
// constraints.
//
// # Observability
//
// Rule applications are logged with zerolog at debug level, counted by an
// optional Prometheus Metrics value, and TakeWithRetry runs inside an
// OpenTelemetry span.
package unif
