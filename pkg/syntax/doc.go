// Package syntax reads terms, binder telescopes and universe levels written
// in a small surface language:
//
//	fun (x : Nat) => f (?X x)
//	forall (A : Type), A -> A
//	let y : Nat := a in g y y
//	proj Pair 0 p
//	List.{max(u, 1)} Nat
//
// Names resolve against a Scope. Bound variables shadow free variables of
// the environment, which shadow constants. Metavariables are written ?X and
// must be declared in the scope beforehand; universe metavariables ?u are
// created on first use. Output of kernel.Format parses back to the same
// term.
package syntax
