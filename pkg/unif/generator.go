package unif

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gitrdm/gokanunify/internal/lazylist"
	"github.com/gitrdm/gokanunify/pkg/kernel"
)

// Pair is one equation the caller wants solved.
type Pair struct {
	Lhs, Rhs kernel.Expr
}

// queueItem is either a problem or a lazy stream of problems.
type queueItem struct {
	prob   *Problem
	stream lazylist.List[*Problem]
}

// Stats summarizes the work a Generator has done.
type Stats struct {
	Takes            int `json:"takes"`
	RuleApplications int `json:"rule_applications"`
	Failures         int `json:"failures"`
	Solutions        int `json:"solutions"`
	Pending          int `json:"pending"`
}

// Generator enumerates unifiers. It holds a FIFO queue mixing problems and
// not yet forced streams of problems; every Take performs exactly one unit
// of work on the front of the queue, so infinite streams cannot starve the
// rest of the search.
//
// A Generator is not safe for concurrent use.
type Generator struct {
	en     *engine
	base   *kernel.MetaContext
	queue  []queueItem
	runID  string
	logger zerolog.Logger
	stats  Stats
	alts   int
}

// New creates a generator for the conjunction of pairs under the snapshot
// mctx. Malformed pairs are reported together and nothing is enqueued.
//
// Example:
//
//	g, err := unif.New(env, mctx, []unif.Pair{{Lhs: fx, Rhs: fa}})
//	sol, ok, err := g.TakeWithRetry(ctx, 100)
func New(env *kernel.Environment, mctx *kernel.MetaContext, pairs []Pair, opts ...Option) (*Generator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	runID := uuid.NewString()
	g := &Generator{
		en:     &engine{env: env, cfg: cfg},
		base:   mctx,
		runID:  runID,
		logger: cfg.logger.With().Str("run", runID).Str("tag", cfg.debugTag).Logger(),
	}
	if err := g.Accept(pairs); err != nil {
		return nil, err
	}
	return g, nil
}

// RunID identifies the generator in logs and traces.
func (g *Generator) RunID() string { return g.runID }

// Accept adds the conjunction of pairs as a further alternative. Problems
// already in the queue are not affected.
func (g *Generator) Accept(pairs []Pair) error {
	tc := kernel.NewTypeChecker(g.en.env, g.base)
	if err := validatePairs(tc, pairs); err != nil {
		return err
	}
	tag := strconv.Itoa(g.alts)
	if g.en.cfg.debugTag != "" {
		tag = g.en.cfg.debugTag + "#" + tag
	}
	g.alts++
	p := newProblem(g.base, tag)
	for i := len(pairs) - 1; i >= 0; i-- {
		l, r := pairs[i].Lhs, pairs[i].Rhs
		p.push(newEq(tc, l, r))
		lt, _ := tc.InferClosed(l)
		rt, _ := tc.InferClosed(r)
		if !g.base.InstantiateMVars(lt).Equal(g.base.InstantiateMVars(rt)) {
			p.pushPrioritized(newEq(tc, lt, rt))
		}
	}
	g.queue = append(g.queue, queueItem{prob: p})
	g.logger.Debug().Str("branch", tag).Int("pairs", len(pairs)).Msg("alternative accepted")
	return nil
}

var errMissingTerm = errors.New("missing term")
var errOpenTerm = errors.New("term has loose bound variables")

func validatePairs(tc *kernel.TypeChecker, pairs []Pair) error {
	var result *multierror.Error
	for i, p := range pairs {
		if p.Lhs == nil || p.Rhs == nil {
			result = multierror.Append(result, &PairError{Index: i, Err: errMissingTerm})
			continue
		}
		for _, side := range []struct {
			name string
			e    kernel.Expr
		}{{"lhs", p.Lhs}, {"rhs", p.Rhs}} {
			if kernel.HasLooseBVars(side.e) {
				result = multierror.Append(result, &PairError{Index: i, Side: side.name, Err: errOpenTerm})
				continue
			}
			if _, err := tc.InferClosed(side.e); err != nil {
				result = multierror.Append(result, &PairError{Index: i, Side: side.name, Err: err})
			}
		}
	}
	return result.ErrorOrNil()
}

// IsEmpty reports whether the search space is exhausted. Once it returns
// true no further solution can be produced.
func (g *Generator) IsEmpty() bool { return len(g.queue) == 0 }

// Stats returns counters describing the work done so far.
func (g *Generator) Stats() Stats {
	s := g.stats
	s.Pending = len(g.queue)
	return s
}

// Take performs one unit of search: it forces one element of a stream or
// applies one rule to a problem. It returns a solution when that work
// produced a problem without equations.
func (g *Generator) Take() (*Solution, bool) {
	if len(g.queue) == 0 {
		return nil, false
	}
	item := g.queue[0]
	g.queue[0] = queueItem{}
	g.queue = g.queue[1:]
	g.stats.Takes++
	g.en.cfg.metrics.recordTake(len(g.queue))

	if item.prob == nil {
		p, rest, ok := item.stream.Next()
		if !ok {
			return nil, false
		}
		if !p.Solved() {
			g.enqueue(p)
		}
		if !rest.IsNil() {
			g.queue = append(g.queue, queueItem{stream: rest})
		}
		if p.Solved() {
			return g.solution(p), true
		}
		return nil, false
	}

	p := item.prob
	if p.Solved() {
		return g.solution(p), true
	}
	res := g.en.step(p)
	g.stats.RuleApplications++
	g.en.cfg.metrics.recordRule(res.rule)
	g.logger.Debug().
		Str("branch", p.tag).
		Int("depth", p.depth).
		Str("rule", res.rule).
		Int("successors", len(res.probs)).
		Bool("lazy", res.kind == resultLazy).
		Msg("rule applied")

	switch res.kind {
	case resultEmpty:
		g.stats.Failures++
		g.en.cfg.metrics.recordFailure()
	case resultFinite:
		var sol *Solution
		for i, s := range res.probs {
			tagChild(p, s, i)
			if sol == nil && s.Solved() {
				sol = g.solution(s)
				continue
			}
			g.enqueue(s)
		}
		if sol != nil {
			return sol, true
		}
	case resultLazy:
		n := 0
		g.queue = append(g.queue, queueItem{stream: lazylist.Map(res.stream, func(s *Problem) *Problem {
			tagChild(p, s, n)
			n++
			return s
		})})
	}
	return nil, false
}

func tagChild(parent, child *Problem, i int) {
	child.tag = parent.tag + "." + strconv.Itoa(i)
	child.depth = parent.depth + 1
}

func (g *Generator) enqueue(p *Problem) {
	if limit := g.en.cfg.maxDepth; limit > 0 && p.depth > limit {
		g.stats.Failures++
		g.en.cfg.metrics.recordFailure()
		return
	}
	g.queue = append(g.queue, queueItem{prob: p})
}

func (g *Generator) solution(p *Problem) *Solution {
	g.stats.Solutions++
	g.en.cfg.metrics.recordSolution()
	g.logger.Info().Str("branch", p.tag).Int("depth", p.depth).Msg("unifier found")
	return &Solution{mctx: p.mctx, base: g.base, branch: p.tag, depth: p.depth}
}

// TakeWithRetry calls Take until it yields a solution, the queue runs dry,
// or budget calls have been made. Running out of budget is not an error:
// it returns (nil, false, nil) and the generator can be resumed. A done
// context stops the loop with ctx.Err().
func (g *Generator) TakeWithRetry(ctx context.Context, budget int) (*Solution, bool, error) {
	_, span := g.en.cfg.tracer.Start(ctx, "unif.TakeWithRetry", trace.WithAttributes(
		attribute.String("run.id", g.runID),
		attribute.Int("budget", budget),
	))
	defer span.End()

	steps := 0
	for ; steps < budget && !g.IsEmpty(); steps++ {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, false, err
		}
		if sol, ok := g.Take(); ok {
			span.SetAttributes(attribute.Int("steps", steps+1), attribute.Bool("found", true))
			return sol, true, nil
		}
	}
	span.SetAttributes(
		attribute.Int("steps", steps),
		attribute.Bool("found", false),
		attribute.Bool("exhausted", g.IsEmpty()),
	)
	return nil, false, nil
}

// Solution is a unifier: a snapshot under which every accepted pair of one
// alternative is definitionally equal.
type Solution struct {
	mctx   *kernel.MetaContext
	base   *kernel.MetaContext
	branch string
	depth  int
}

// MetaContext returns the full answer snapshot, including assignments of
// auxiliary metavariables created during the search.
func (s *Solution) MetaContext() *kernel.MetaContext { return s.mctx }

// Instantiate applies the solution to e.
func (s *Solution) Instantiate(e kernel.Expr) kernel.Expr {
	return s.mctx.InstantiateMVars(e)
}

// Assignments returns the values of the metavariables the generator was
// created with, fully instantiated. Metavariables the solution leaves open
// are omitted.
func (s *Solution) Assignments() []kernel.Assignment {
	var out []kernel.Assignment
	for _, a := range s.mctx.Assignments() {
		if _, ok := s.base.Decl(a.ID); ok {
			out = append(out, a)
		}
	}
	return out
}

// Branch returns the path of the problem that produced the solution.
func (s *Solution) Branch() string { return s.branch }

// Depth returns the number of rule applications on the solution's branch.
func (s *Solution) Depth() int { return s.depth }

func (s *Solution) String() string {
	var b []byte
	b = append(b, '{')
	for i, a := range s.Assignments() {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, a.String()...)
	}
	return string(append(b, '}'))
}

// Solve returns up to n unifiers of pairs, spending at most budget steps
// on each. Fewer solutions come back when the search is exhausted or a
// budget runs out.
func Solve(ctx context.Context, env *kernel.Environment, mctx *kernel.MetaContext, pairs []Pair, n, budget int, opts ...Option) ([]*Solution, error) {
	g, err := New(env, mctx, pairs, opts...)
	if err != nil {
		return nil, err
	}
	var out []*Solution
	for len(out) < n {
		sol, ok, err := g.TakeWithRetry(ctx, budget)
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, sol)
	}
	return out, nil
}

// Check decides a single equation a = b within budget steps. It returns
// the answer snapshot on success and mctx itself otherwise; mctx is never
// modified either way.
func Check(ctx context.Context, env *kernel.Environment, mctx *kernel.MetaContext, a, b kernel.Expr, budget int, opts ...Option) (*kernel.MetaContext, bool, error) {
	sols, err := Solve(ctx, env, mctx, []Pair{{Lhs: a, Rhs: b}}, 1, budget, opts...)
	if err != nil || len(sols) == 0 {
		return mctx, false, err
	}
	return sols[0].MetaContext(), true, nil
}
