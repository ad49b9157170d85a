package config

import (
	"errors"
	"fmt"

	"github.com/gitrdm/gokanunify/pkg/kernel"
	"github.com/gitrdm/gokanunify/pkg/syntax"
	"github.com/gitrdm/gokanunify/pkg/unif"
)

var errNoAlternatives = errors.New("problem has no alternatives")

// Problem is a problem file elaborated into kernel terms.
type Problem struct {
	Env          *kernel.Environment
	MetaContext  *kernel.MetaContext
	Scope        *syntax.Scope
	Alternatives [][]unif.Pair
	Options      Options
}

// Build elaborates the declarations and equations of f. Sections are
// processed in the order constants, structures, definitions, vars, mvars,
// alternatives; within a section a declaration may refer to the ones
// before it.
func (f *File) Build() (*Problem, error) {
	env := kernel.NewEnvironment()
	sc := syntax.NewScope(env)
	sc.LevelParams = append([]string(nil), f.Universes...)
	mctx := kernel.NewMetaContext()

	for _, d := range f.Constants {
		typ, err := parseType(env, mctx, sc.WithLevelParams(d.Universes), d.Type)
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", d.Name, err)
		}
		if err := env.AddAxiom(d.Name, d.Universes, typ); err != nil {
			return nil, fmt.Errorf("constant %s: %w", d.Name, err)
		}
	}
	for _, s := range f.Structures {
		if err := addStructure(env, sc.WithLevelParams(s.Universes), s); err != nil {
			return nil, fmt.Errorf("structure %s: %w", s.Name, err)
		}
	}
	for _, d := range f.Definitions {
		dsc := sc.WithLevelParams(d.Universes)
		typ, err := parseType(env, mctx, dsc, d.Type)
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", d.Name, err)
		}
		val, err := syntax.Parse(d.Value, dsc)
		if err != nil {
			return nil, fmt.Errorf("definition %s: value: %w", d.Name, err)
		}
		if _, err := kernel.NewTypeChecker(env, mctx).InferClosed(val); err != nil {
			return nil, fmt.Errorf("definition %s: value: %w", d.Name, err)
		}
		if err := env.AddDefinition(d.Name, d.Universes, typ, val); err != nil {
			return nil, fmt.Errorf("definition %s: %w", d.Name, err)
		}
	}
	for _, d := range f.Vars {
		typ, err := parseType(env, mctx, sc, d.Type)
		if err != nil {
			return nil, fmt.Errorf("var %s: %w", d.Name, err)
		}
		if err := env.AddFVar(d.Name, typ); err != nil {
			return nil, fmt.Errorf("var %s: %w", d.Name, err)
		}
	}
	for _, d := range f.MVars {
		if _, dup := sc.MVars[d.Name]; dup {
			return nil, fmt.Errorf("mvar %s: %w", d.Name, kernel.ErrDuplicateDecl)
		}
		typ, err := parseType(env, mctx, sc, d.Type)
		if err != nil {
			return nil, fmt.Errorf("mvar %s: %w", d.Name, err)
		}
		var m *kernel.MVar
		mctx, m = mctx.MkFreshMVar(d.Name, typ)
		sc.DeclareMVar(d.Name, m)
	}

	alts := make([][]unif.Pair, len(f.Alternatives))
	for i, eqs := range f.Alternatives {
		for j, eq := range eqs {
			lhs, err := syntax.Parse(eq.Lhs, sc)
			if err != nil {
				return nil, fmt.Errorf("alternative %d equation %d lhs: %w", i, j, err)
			}
			rhs, err := syntax.Parse(eq.Rhs, sc)
			if err != nil {
				return nil, fmt.Errorf("alternative %d equation %d rhs: %w", i, j, err)
			}
			alts[i] = append(alts[i], unif.Pair{Lhs: lhs, Rhs: rhs})
		}
	}
	return &Problem{Env: env, MetaContext: mctx, Scope: sc, Alternatives: alts, Options: f.Options}, nil
}

// parseType parses src and checks that it is a type.
func parseType(env *kernel.Environment, mctx *kernel.MetaContext, sc *syntax.Scope, src string) (kernel.Expr, error) {
	typ, err := syntax.Parse(src, sc)
	if err != nil {
		return nil, err
	}
	if _, err := kernel.NewTypeChecker(env, mctx).SortOf(nil, typ); err != nil {
		return nil, err
	}
	return typ, nil
}

func addStructure(env *kernel.Environment, sc *syntax.Scope, s Structure) error {
	params, err := syntax.ParseBinders(s.Params, sc)
	if err != nil {
		return fmt.Errorf("params: %w", err)
	}
	// Field types see the parameters: parse both telescopes together.
	all, err := syntax.ParseBinders(s.Params+" "+s.Fields, sc)
	if err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	level, err := syntax.ParseLevel(s.Level, sc)
	if err != nil {
		return fmt.Errorf("level: %w", err)
	}
	return env.AddStructure(s.Name, s.Universes, params, all[len(params):], level)
}

// UnifOptions translates the file options to generator options.
func (o Options) UnifOptions() []unif.Option {
	opts := []unif.Option{
		unif.WithElimination(o.Elimination),
		unif.WithMaxDepth(o.MaxDepth),
		unif.WithDebugTag(o.Tag),
	}
	if o.Iteration != nil {
		opts = append(opts, unif.WithIteration(*o.Iteration))
	}
	return opts
}

// Generator creates a generator over every alternative of the problem. The
// options of the file come first, so opts can override them.
func (p *Problem) Generator(opts ...unif.Option) (*unif.Generator, error) {
	if len(p.Alternatives) == 0 {
		return nil, errNoAlternatives
	}
	all := append(p.Options.UnifOptions(), opts...)
	g, err := unif.New(p.Env, p.MetaContext, p.Alternatives[0], all...)
	if err != nil {
		return nil, fmt.Errorf("alternative 0: %w", err)
	}
	for i, alt := range p.Alternatives[1:] {
		if err := g.Accept(alt); err != nil {
			return nil, fmt.Errorf("alternative %d: %w", i+1, err)
		}
	}
	return g, nil
}
