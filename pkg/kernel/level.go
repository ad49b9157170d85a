package kernel

import (
	"fmt"
	"sort"
	"strings"
)

// Level is a universe level. Levels appear inside Sort and as the universe
// arguments of constants. A Level is immutable.
type Level interface {
	String() string
	isLevel()
}

// LZero is the level of propositions.
type LZero struct{}

// LSucc is the successor of a level.
type LSucc struct{ L Level }

// LMax is the larger of two levels.
type LMax struct{ A, B Level }

// LIMax is the impredicative maximum: zero whenever B is zero, max(A, B) otherwise.
type LIMax struct{ A, B Level }

// LParam is a universe parameter of a declaration.
type LParam struct{ Name string }

// LMVar is a universe metavariable, resolved through a MetaContext.
type LMVar struct{ ID int64 }

func (LZero) isLevel()  {}
func (*LSucc) isLevel() {}
func (*LMax) isLevel()  {}
func (*LIMax) isLevel() {}
func (*LParam) isLevel() {}
func (*LMVar) isLevel() {}

func (LZero) String() string { return "0" }

func (l *LSucc) String() string {
	base, k := levelOffset(l)
	if _, ok := base.(LZero); ok {
		return fmt.Sprintf("%d", k)
	}
	return fmt.Sprintf("%s+%d", base, k)
}

func (l *LMax) String() string  { return fmt.Sprintf("max(%s, %s)", l.A, l.B) }
func (l *LIMax) String() string { return fmt.Sprintf("imax(%s, %s)", l.A, l.B) }
func (l *LParam) String() string { return l.Name }
func (l *LMVar) String() string  { return fmt.Sprintf("?u%d", l.ID) }

// Succ returns the successor of l.
func Succ(l Level) Level { return &LSucc{L: l} }

// LevelOf returns the numeral level n.
func LevelOf(n int) Level {
	var l Level = LZero{}
	for i := 0; i < n; i++ {
		l = Succ(l)
	}
	return l
}

func levelOffset(l Level) (Level, int) {
	k := 0
	for {
		s, ok := l.(*LSucc)
		if !ok {
			return l, k
		}
		l = s.L
		k++
	}
}

// levelAtom is one argument of a flattened max: base plus an offset.
// A nil base stands for zero.
type levelAtom struct {
	base Level
	k    int
}

func (a levelAtom) key() string {
	if a.base == nil {
		return ""
	}
	return a.base.String()
}

// flattenLevel turns l into a list of max arguments. IMax terms whose second
// argument is not known to be zero or a successor are kept opaque.
func flattenLevel(l Level) []levelAtom {
	base, k := levelOffset(l)
	switch b := base.(type) {
	case LZero:
		return []levelAtom{{nil, k}}
	case *LMax:
		return shiftAtoms(append(flattenLevel(b.A), flattenLevel(b.B)...), k)
	case *LIMax:
		rhs := simplifyAtoms(flattenLevel(b.B))
		if len(rhs) == 1 && rhs[0].base == nil && rhs[0].k == 0 {
			return []levelAtom{{nil, k}}
		}
		if atomsNeverZero(rhs) {
			return shiftAtoms(append(flattenLevel(b.A), rhs...), k)
		}
		return []levelAtom{{&LIMax{A: SimplifyLevel(b.A), B: buildLevel(rhs)}, k}}
	default:
		return []levelAtom{{base, k}}
	}
}

func shiftAtoms(as []levelAtom, k int) []levelAtom {
	if k == 0 {
		return as
	}
	out := make([]levelAtom, len(as))
	for i, a := range as {
		out[i] = levelAtom{a.base, a.k + k}
	}
	return out
}

func atomsNeverZero(as []levelAtom) bool {
	for _, a := range as {
		if a.k > 0 {
			return true
		}
	}
	return false
}

// simplifyAtoms keeps the largest offset per base, drops a zero atom that is
// dominated by another atom, and sorts the result.
func simplifyAtoms(as []levelAtom) []levelAtom {
	best := map[string]levelAtom{}
	for _, a := range as {
		if cur, ok := best[a.key()]; !ok || a.k > cur.k {
			best[a.key()] = a
		}
	}
	if z, ok := best[""]; ok && len(best) > 1 {
		for key, a := range best {
			if key != "" && a.k >= z.k {
				delete(best, "")
				break
			}
		}
	}
	out := make([]levelAtom, 0, len(best))
	for _, a := range best {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].key() != out[j].key() {
			return out[i].key() < out[j].key()
		}
		return out[i].k < out[j].k
	})
	return out
}

func buildLevel(as []levelAtom) Level {
	var res Level
	for _, a := range as {
		var l Level = LZero{}
		if a.base != nil {
			l = a.base
		}
		for i := 0; i < a.k; i++ {
			l = Succ(l)
		}
		if res == nil {
			res = l
		} else {
			res = &LMax{A: res, B: l}
		}
	}
	if res == nil {
		return LZero{}
	}
	return res
}

// SimplifyLevel returns a canonical form of l: nested maxima are flattened
// and sorted, redundant arguments removed and decidable imax terms resolved.
func SimplifyLevel(l Level) Level {
	return buildLevel(simplifyAtoms(flattenLevel(l)))
}

// LevelEqual reports whether two levels have the same canonical form.
func LevelEqual(a, b Level) bool {
	return SimplifyLevel(a).String() == SimplifyLevel(b).String()
}

// LevelHasMVar reports whether l mentions a universe metavariable.
func LevelHasMVar(l Level) bool {
	switch x := l.(type) {
	case *LMVar:
		return true
	case *LSucc:
		return LevelHasMVar(x.L)
	case *LMax:
		return LevelHasMVar(x.A) || LevelHasMVar(x.B)
	case *LIMax:
		return LevelHasMVar(x.A) || LevelHasMVar(x.B)
	}
	return false
}

func levelOccurs(id int64, l Level) bool {
	switch x := l.(type) {
	case *LMVar:
		return x.ID == id
	case *LSucc:
		return levelOccurs(id, x.L)
	case *LMax:
		return levelOccurs(id, x.A) || levelOccurs(id, x.B)
	case *LIMax:
		return levelOccurs(id, x.A) || levelOccurs(id, x.B)
	}
	return false
}

// InstantiateLevelParams replaces universe parameters by the given levels.
func InstantiateLevelParams(l Level, params []string, levels []Level) Level {
	if len(params) == 0 {
		return l
	}
	switch x := l.(type) {
	case *LParam:
		for i, p := range params {
			if p == x.Name && i < len(levels) {
				return levels[i]
			}
		}
		return x
	case *LSucc:
		return Succ(InstantiateLevelParams(x.L, params, levels))
	case *LMax:
		return &LMax{A: InstantiateLevelParams(x.A, params, levels), B: InstantiateLevelParams(x.B, params, levels)}
	case *LIMax:
		return &LIMax{A: InstantiateLevelParams(x.A, params, levels), B: InstantiateLevelParams(x.B, params, levels)}
	}
	return l
}

func formatLevels(ls []Level) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = SimplifyLevel(l).String()
	}
	return strings.Join(parts, ", ")
}
