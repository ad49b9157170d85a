package syntax

import (
	"github.com/gitrdm/gokanunify/pkg/kernel"
)

// Scope resolves the names a term may mention: constants and free
// variables of the environment, declared metavariables, and universe
// parameters and metavariables.
type Scope struct {
	Env         *kernel.Environment
	MVars       map[string]*kernel.MVar
	LevelParams []string

	// LevelMVars collects the universe metavariables named in parsed terms.
	// A name seen for the first time gets a fresh one.
	LevelMVars map[string]*kernel.LMVar
}

// NewScope returns an empty scope over env.
func NewScope(env *kernel.Environment) *Scope {
	return &Scope{
		Env:        env,
		MVars:      make(map[string]*kernel.MVar),
		LevelMVars: make(map[string]*kernel.LMVar),
	}
}

// DeclareMVar makes ?name refer to m.
func (s *Scope) DeclareMVar(name string, m *kernel.MVar) {
	s.MVars[name] = m
}

func (s *Scope) isLevelParam(name string) bool {
	for _, p := range s.LevelParams {
		if p == name {
			return true
		}
	}
	return false
}

func (s *Scope) levelMVar(name string) *kernel.LMVar {
	if m, ok := s.LevelMVars[name]; ok {
		return m
	}
	m := kernel.FreshLevelMVar()
	s.LevelMVars[name] = m
	return m
}

// WithLevelParams returns a copy of s in which names also resolve to the
// given universe parameters.
func (s *Scope) WithLevelParams(names []string) *Scope {
	c := *s
	c.LevelParams = append(append([]string(nil), s.LevelParams...), names...)
	return &c
}
