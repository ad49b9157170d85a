package kernel

// mapLooseBVars rebuilds e, replacing every loose bound variable. fn receives
// the variable's index relative to the root of e (the binder depth already
// subtracted) and the current binder depth, and returns the replacement.
func mapLooseBVars(e Expr, depth int, fn func(idx, depth int) Expr) Expr {
	switch x := e.(type) {
	case *BVar:
		if x.Idx < depth {
			return x
		}
		return fn(x.Idx-depth, depth)
	case *App:
		f := mapLooseBVars(x.Fn, depth, fn)
		a := mapLooseBVars(x.Arg, depth, fn)
		if f == x.Fn && a == x.Arg {
			return x
		}
		return &App{Fn: f, Arg: a}
	case *Lam:
		t := mapLooseBVars(x.Type, depth, fn)
		b := mapLooseBVars(x.Body, depth+1, fn)
		if t == x.Type && b == x.Body {
			return x
		}
		return &Lam{Name: x.Name, Type: t, Body: b}
	case *Forall:
		t := mapLooseBVars(x.Type, depth, fn)
		b := mapLooseBVars(x.Body, depth+1, fn)
		if t == x.Type && b == x.Body {
			return x
		}
		return &Forall{Name: x.Name, Type: t, Body: b}
	case *Let:
		t := mapLooseBVars(x.Type, depth, fn)
		v := mapLooseBVars(x.Value, depth, fn)
		b := mapLooseBVars(x.Body, depth+1, fn)
		if t == x.Type && v == x.Value && b == x.Body {
			return x
		}
		return &Let{Name: x.Name, Type: t, Value: v, Body: b}
	case *Proj:
		s := mapLooseBVars(x.Expr, depth, fn)
		if s == x.Expr {
			return x
		}
		return &Proj{Struct: x.Struct, Idx: x.Idx, Expr: s}
	}
	return e
}

// Lift shifts every loose bound variable of e up by n.
func Lift(e Expr, n int) Expr {
	if n == 0 {
		return e
	}
	return mapLooseBVars(e, 0, func(idx, depth int) Expr {
		return &BVar{Idx: idx + depth + n}
	})
}

// LiftFrom shifts loose bound variables with index >= cutoff up by n.
func LiftFrom(e Expr, cutoff, n int) Expr {
	if n == 0 {
		return e
	}
	return mapLooseBVars(e, 0, func(idx, depth int) Expr {
		if idx < cutoff {
			return &BVar{Idx: idx + depth}
		}
		return &BVar{Idx: idx + depth + n}
	})
}

// InstantiateRev substitutes args for the innermost len(args) loose bound
// variables of e: #0 becomes the last argument, #1 the one before it, and so
// on. Remaining loose variables are shifted down by len(args).
func InstantiateRev(e Expr, args []Expr) Expr {
	n := len(args)
	if n == 0 {
		return e
	}
	return mapLooseBVars(e, 0, func(idx, depth int) Expr {
		if idx < n {
			return Lift(args[n-1-idx], depth)
		}
		return &BVar{Idx: idx - n + depth}
	})
}

// Instantiate1 substitutes v for loose bound variable #0 of e.
func Instantiate1(e, v Expr) Expr {
	return InstantiateRev(e, []Expr{v})
}

// LowerAt removes the binder that loose variable #idx refers to. Variables
// above idx shift down by one. The caller guarantees #idx does not occur.
func LowerAt(e Expr, idx int) Expr {
	return mapLooseBVars(e, 0, func(i, depth int) Expr {
		if i > idx {
			return &BVar{Idx: i - 1 + depth}
		}
		return &BVar{Idx: i + depth}
	})
}

// RemapLooseBVars replaces each loose variable #i with #m(i). It reports false
// when m rejects some variable.
func RemapLooseBVars(e Expr, m func(int) (int, bool)) (Expr, bool) {
	ok := true
	out := mapLooseBVars(e, 0, func(idx, depth int) Expr {
		j, found := m(idx)
		if !found {
			ok = false
			return &BVar{Idx: idx + depth}
		}
		return &BVar{Idx: j + depth}
	})
	return out, ok
}

// LooseBVars returns the set of loose variable indices of e.
func LooseBVars(e Expr) map[int]bool {
	found := map[int]bool{}
	mapLooseBVars(e, 0, func(idx, depth int) Expr {
		found[idx] = true
		return &BVar{Idx: idx + depth}
	})
	return found
}

// HasLooseBVars reports whether e has any loose bound variable.
func HasLooseBVars(e Expr) bool {
	return len(LooseBVars(e)) > 0
}

// HasLooseBVar reports whether loose variable #idx occurs in e.
func HasLooseBVar(e Expr, idx int) bool {
	return LooseBVars(e)[idx]
}

// foldExpr visits every subterm of e in pre-order. Returning false from
// visit skips the children of the node.
func foldExpr(e Expr, visit func(Expr) bool) {
	if !visit(e) {
		return
	}
	switch x := e.(type) {
	case *App:
		foldExpr(x.Fn, visit)
		foldExpr(x.Arg, visit)
	case *Lam:
		foldExpr(x.Type, visit)
		foldExpr(x.Body, visit)
	case *Forall:
		foldExpr(x.Type, visit)
		foldExpr(x.Body, visit)
	case *Let:
		foldExpr(x.Type, visit)
		foldExpr(x.Value, visit)
		foldExpr(x.Body, visit)
	case *Proj:
		foldExpr(x.Expr, visit)
	}
}

// ContainsMVar reports whether metavariable id occurs anywhere in e.
func ContainsMVar(e Expr, id int64) bool {
	found := false
	foldExpr(e, func(x Expr) bool {
		if m, ok := x.(*MVar); ok && m.ID == id {
			found = true
		}
		return !found
	})
	return found
}

// HasMVars reports whether e mentions any metavariable, including universe
// metavariables.
func HasMVars(e Expr) bool {
	found := false
	foldExpr(e, func(x Expr) bool {
		switch y := x.(type) {
		case *MVar:
			found = true
		case *Sort:
			found = found || LevelHasMVar(y.Level)
		case *Const:
			for _, l := range y.Levels {
				found = found || LevelHasMVar(l)
			}
		}
		return !found
	})
	return found
}

// CollectMVars returns the metavariables of e in order of first occurrence.
func CollectMVars(e Expr) []int64 {
	var ids []int64
	seen := map[int64]bool{}
	foldExpr(e, func(x Expr) bool {
		if m, ok := x.(*MVar); ok && !seen[m.ID] {
			seen[m.ID] = true
			ids = append(ids, m.ID)
		}
		return true
	})
	return ids
}

// mapLevels rebuilds e applying fn to every universe level.
func mapLevels(e Expr, fn func(Level) Level) Expr {
	switch x := e.(type) {
	case *Sort:
		return &Sort{Level: fn(x.Level)}
	case *Const:
		if len(x.Levels) == 0 {
			return x
		}
		ls := make([]Level, len(x.Levels))
		for i, l := range x.Levels {
			ls[i] = fn(l)
		}
		return &Const{Name: x.Name, Levels: ls}
	case *App:
		return &App{Fn: mapLevels(x.Fn, fn), Arg: mapLevels(x.Arg, fn)}
	case *Lam:
		return &Lam{Name: x.Name, Type: mapLevels(x.Type, fn), Body: mapLevels(x.Body, fn)}
	case *Forall:
		return &Forall{Name: x.Name, Type: mapLevels(x.Type, fn), Body: mapLevels(x.Body, fn)}
	case *Let:
		return &Let{Name: x.Name, Type: mapLevels(x.Type, fn), Value: mapLevels(x.Value, fn), Body: mapLevels(x.Body, fn)}
	case *Proj:
		return &Proj{Struct: x.Struct, Idx: x.Idx, Expr: mapLevels(x.Expr, fn)}
	}
	return e
}

// InstantiateExprLevelParams replaces universe parameters throughout e.
func InstantiateExprLevelParams(e Expr, params []string, levels []Level) Expr {
	if len(params) == 0 {
		return e
	}
	return mapLevels(e, func(l Level) Level {
		return InstantiateLevelParams(l, params, levels)
	})
}
