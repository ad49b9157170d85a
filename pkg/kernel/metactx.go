package kernel

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Global counters for fresh metavariable ids. Ids are unique per process so
// snapshots built on different branches never hand out the same id.
var (
	mvarCounter  int64
	lmvarCounter int64
)

// MVarDecl declares a metavariable. Type is a closed term. Depth is the
// scope depth the metavariable was created at.
type MVarDecl struct {
	ID       int64
	UserName string
	Type     Expr
	Depth    int
}

// Assignment is one solved metavariable.
type Assignment struct {
	ID       int64
	UserName string
	Value    Expr
}

func (a Assignment) String() string {
	name := "?" + a.UserName
	if a.UserName == "" {
		name = fmt.Sprintf("?m%d", a.ID)
	}
	return fmt.Sprintf("%s := %s", name, Format(a.Value))
}

// MetaContext is an immutable snapshot of metavariable declarations and
// assignments. Every update returns a new snapshot; the receiver is never
// modified, so a snapshot captured by one search branch is unaffected by
// the assignments of its siblings.
//
// Only metavariables declared at the current Depth are assignable. EnterScope
// opens a nested scope in which every existing metavariable is read-only.
type MetaContext struct {
	decls  store[*MVarDecl]
	assign store[Expr]
	levels store[Level]
	depth  int
}

// NewMetaContext creates an empty snapshot at depth 0.
func NewMetaContext() *MetaContext {
	return &MetaContext{
		decls:  newStore[*MVarDecl](),
		assign: newStore[Expr](),
		levels: newStore[Level](),
	}
}

func (m *MetaContext) clone() *MetaContext {
	return &MetaContext{decls: m.decls, assign: m.assign, levels: m.levels, depth: m.depth}
}

// Depth returns the current scope depth.
func (m *MetaContext) Depth() int { return m.depth }

// EnterScope returns a snapshot one scope deeper. Metavariables declared so
// far can still be read but no longer assigned.
func (m *MetaContext) EnterScope() *MetaContext {
	n := m.clone()
	n.depth++
	return n
}

// MkFreshMVar declares a new metavariable of the closed type typ at the
// current depth.
func (m *MetaContext) MkFreshMVar(userName string, typ Expr) (*MetaContext, *MVar) {
	id := atomic.AddInt64(&mvarCounter, 1)
	n := m.clone()
	n.decls = m.decls.with(id, &MVarDecl{ID: id, UserName: userName, Type: typ, Depth: m.depth})
	return n, &MVar{ID: id}
}

// FreshLevelMVar returns a new universe metavariable.
func FreshLevelMVar() *LMVar {
	return &LMVar{ID: atomic.AddInt64(&lmvarCounter, 1)}
}

// Decl returns the declaration of metavariable id.
func (m *MetaContext) Decl(id int64) (*MVarDecl, bool) {
	return m.decls.get(id)
}

// Lookup returns the value assigned to metavariable id.
func (m *MetaContext) Lookup(id int64) (Expr, bool) {
	return m.assign.get(id)
}

// IsAssigned reports whether metavariable id has a value.
func (m *MetaContext) IsAssigned(id int64) bool {
	_, ok := m.assign.get(id)
	return ok
}

// IsAssignable reports whether metavariable id is declared in the current
// scope and still unassigned.
func (m *MetaContext) IsAssignable(id int64) bool {
	d, ok := m.decls.get(id)
	return ok && d.Depth == m.depth && !m.IsAssigned(id)
}

// Assign returns a snapshot in which metavariable id is bound to the closed
// term v. Assigning a metavariable to itself is a no-op.
func (m *MetaContext) Assign(id int64, v Expr) *MetaContext {
	if mv, ok := v.(*MVar); ok && mv.ID == id {
		return m
	}
	n := m.clone()
	n.assign = m.assign.with(id, v)
	return n
}

// LevelValue returns the level assigned to universe metavariable id.
func (m *MetaContext) LevelValue(id int64) (Level, bool) {
	return m.levels.get(id)
}

// AssignLevel returns a snapshot with universe metavariable id bound to l.
func (m *MetaContext) AssignLevel(id int64, l Level) *MetaContext {
	n := m.clone()
	n.levels = m.levels.with(id, l)
	return n
}

// InstantiateLevel replaces assigned universe metavariables in l.
func (m *MetaContext) InstantiateLevel(l Level) Level {
	switch x := l.(type) {
	case *LMVar:
		if v, ok := m.levels.get(x.ID); ok {
			return m.InstantiateLevel(v)
		}
		return x
	case *LSucc:
		return Succ(m.InstantiateLevel(x.L))
	case *LMax:
		return &LMax{A: m.InstantiateLevel(x.A), B: m.InstantiateLevel(x.B)}
	case *LIMax:
		return &LIMax{A: m.InstantiateLevel(x.A), B: m.InstantiateLevel(x.B)}
	}
	return l
}

// UnifyLevel makes a and b equal, assigning universe metavariables where
// needed. Constraints it cannot decide, such as a max against a parameter,
// are reported as failure.
func (m *MetaContext) UnifyLevel(a, b Level) (*MetaContext, bool) {
	a = SimplifyLevel(m.InstantiateLevel(a))
	b = SimplifyLevel(m.InstantiateLevel(b))
	if LevelEqual(a, b) {
		return m, true
	}
	if x, ok := a.(*LMVar); ok && !levelOccurs(x.ID, b) {
		return m.AssignLevel(x.ID, b), true
	}
	if y, ok := b.(*LMVar); ok && !levelOccurs(y.ID, a) {
		return m.AssignLevel(y.ID, a), true
	}
	if x, ok := a.(*LSucc); ok {
		if y, ok := b.(*LSucc); ok {
			return m.UnifyLevel(x.L, y.L)
		}
	}
	return m, false
}

// InstantiateMVars replaces every assigned metavariable in e by its value.
// Applications headed by an assigned metavariable are beta-reduced.
func (m *MetaContext) InstantiateMVars(e Expr) Expr {
	if !HasMVars(e) {
		return e
	}
	switch x := e.(type) {
	case *MVar:
		if v, ok := m.assign.get(x.ID); ok {
			return m.InstantiateMVars(v)
		}
		return x
	case *App:
		head, args := GetAppArgs(x)
		for i := range args {
			args[i] = m.InstantiateMVars(args[i])
		}
		if mv, ok := head.(*MVar); ok {
			if v, ok := m.assign.get(mv.ID); ok {
				return m.InstantiateMVars(HeadBeta(v, args))
			}
			return MkApp(mv, args...)
		}
		return MkApp(m.InstantiateMVars(head), args...)
	case *Sort:
		return &Sort{Level: m.InstantiateLevel(x.Level)}
	case *Const:
		return mapLevels(x, m.InstantiateLevel)
	case *Lam:
		return &Lam{Name: x.Name, Type: m.InstantiateMVars(x.Type), Body: m.InstantiateMVars(x.Body)}
	case *Forall:
		return &Forall{Name: x.Name, Type: m.InstantiateMVars(x.Type), Body: m.InstantiateMVars(x.Body)}
	case *Let:
		return &Let{Name: x.Name, Type: m.InstantiateMVars(x.Type), Value: m.InstantiateMVars(x.Value), Body: m.InstantiateMVars(x.Body)}
	case *Proj:
		return &Proj{Struct: x.Struct, Idx: x.Idx, Expr: m.InstantiateMVars(x.Expr)}
	}
	return e
}

// Assignments returns the current assignments ordered by id, with values
// fully instantiated.
func (m *MetaContext) Assignments() []Assignment {
	out := make([]Assignment, 0, m.assign.len())
	m.assign.each(func(id int64, v Expr) {
		a := Assignment{ID: id, Value: m.InstantiateMVars(v)}
		if d, ok := m.decls.get(id); ok {
			a.UserName = d.UserName
		}
		out = append(out, a)
	})
	return out
}

// NumAssigned returns the number of assigned metavariables.
func (m *MetaContext) NumAssigned() int { return m.assign.len() }

// String returns a human-readable representation of the assignments.
func (m *MetaContext) String() string {
	parts := make([]string, 0, m.assign.len())
	for _, a := range m.Assignments() {
		parts = append(parts, a.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
