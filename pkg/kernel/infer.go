package kernel

// InferType returns the type of e. ctx lists the types of the binders e is
// under, outermost first; loose variable #i refers to ctx[len(ctx)-1-i].
//
// Arguments are checked against the domain of the function they are passed
// to. Types that still mention metavariables are accepted as they are; the
// unifier is responsible for making them agree.
func (tc *TypeChecker) InferType(ctx []Expr, e Expr) (Expr, error) {
	switch x := e.(type) {
	case *BVar:
		if x.Idx >= len(ctx) {
			return nil, typeErr(ErrIllTyped, e, "loose bound variable")
		}
		return Lift(ctx[len(ctx)-1-x.Idx], x.Idx+1), nil
	case *FVar:
		t, ok := tc.Env.FVarType(x.Name)
		if !ok {
			return nil, typeErr(ErrUnknownFVar, e, "")
		}
		return t, nil
	case *MVar:
		d, ok := tc.MCtx.Decl(x.ID)
		if !ok {
			return nil, typeErr(ErrUnknownMVar, e, "")
		}
		return d.Type, nil
	case *Sort:
		return &Sort{Level: Succ(x.Level)}, nil
	case *Const:
		info, ok := tc.Env.Lookup(x.Name)
		if !ok {
			return nil, typeErr(ErrUnknownConstant, e, "")
		}
		if len(x.Levels) != len(info.LevelParams) {
			return nil, typeErr(ErrLevelArity, e, "expected %d, got %d", len(info.LevelParams), len(x.Levels))
		}
		return InstantiateExprLevelParams(info.Type, info.LevelParams, x.Levels), nil
	case *NatLit:
		return C("Nat"), nil
	case *StrLit:
		return C("String"), nil
	case *App:
		ft, err := tc.InferType(ctx, x.Fn)
		if err != nil {
			return nil, err
		}
		f, ok := tc.Whnf(ft).(*Forall)
		if !ok {
			return nil, typeErr(ErrIllTyped, e, "function expected, type is %s", ft)
		}
		at, err := tc.InferType(ctx, x.Arg)
		if err != nil {
			return nil, err
		}
		if !tc.conforms(f.Type, at) {
			return nil, typeErr(ErrIllTyped, e, "argument has type %s, expected %s", at, f.Type)
		}
		return Instantiate1(f.Body, x.Arg), nil
	case *Lam:
		if _, err := tc.SortOf(ctx, x.Type); err != nil {
			return nil, err
		}
		bt, err := tc.InferType(append(ctx[:len(ctx):len(ctx)], x.Type), x.Body)
		if err != nil {
			return nil, err
		}
		return &Forall{Name: x.Name, Type: x.Type, Body: bt}, nil
	case *Forall:
		l1, err := tc.SortOf(ctx, x.Type)
		if err != nil {
			return nil, err
		}
		l2, err := tc.SortOf(append(ctx[:len(ctx):len(ctx)], x.Type), x.Body)
		if err != nil {
			return nil, err
		}
		return &Sort{Level: &LIMax{A: l1, B: l2}}, nil
	case *Let:
		vt, err := tc.InferType(ctx, x.Value)
		if err != nil {
			return nil, err
		}
		if !tc.conforms(x.Type, vt) {
			return nil, typeErr(ErrIllTyped, e, "value has type %s, expected %s", vt, x.Type)
		}
		return tc.InferType(ctx, Instantiate1(x.Body, x.Value))
	case *Proj:
		return tc.inferProj(ctx, x)
	}
	return nil, typeErr(ErrIllTyped, e, "unknown term")
}

// conforms reports whether a value of type got may stand where want is
// expected. Types are compared by normal form once both are free of
// metavariables; until then the check passes.
func (tc *TypeChecker) conforms(want, got Expr) bool {
	want = tc.MCtx.InstantiateMVars(want)
	got = tc.MCtx.InstantiateMVars(got)
	if want.Equal(got) || HasMVars(want) || HasMVars(got) {
		return true
	}
	return tc.Normalize(want).Equal(tc.Normalize(got))
}

// SortOf returns the universe level of the type typ.
func (tc *TypeChecker) SortOf(ctx []Expr, typ Expr) (Level, error) {
	t, err := tc.InferType(ctx, typ)
	if err != nil {
		return nil, err
	}
	s, ok := tc.Whnf(t).(*Sort)
	if !ok {
		return nil, typeErr(ErrIllTyped, typ, "type expected")
	}
	return s.Level, nil
}

func (tc *TypeChecker) inferProj(ctx []Expr, p *Proj) (Expr, error) {
	st, err := tc.InferType(ctx, p.Expr)
	if err != nil {
		return nil, err
	}
	head, params := GetAppArgs(tc.Whnf(st))
	c, ok := head.(*Const)
	if !ok || c.Name != p.Struct {
		return nil, typeErr(ErrIllTyped, p, "projection of a value of type %s", st)
	}
	info, ok := tc.Env.Structure(p.Struct)
	if !ok || p.Idx >= len(info.Fields) || len(params) != info.NumParams {
		return nil, typeErr(ErrIllTyped, p, "bad projection")
	}
	ctor, ok := tc.Env.Lookup(info.Ctor)
	if !ok {
		return nil, typeErr(ErrUnknownConstant, p, "missing constructor %s", info.Ctor)
	}
	t := InstantiateExprLevelParams(ctor.Type, ctor.LevelParams, c.Levels)
	for _, a := range params {
		f, ok := tc.Whnf(t).(*Forall)
		if !ok {
			return nil, typeErr(ErrIllTyped, p, "constructor arity")
		}
		t = Instantiate1(f.Body, a)
	}
	for i := 0; ; i++ {
		f, ok := tc.Whnf(t).(*Forall)
		if !ok {
			return nil, typeErr(ErrIllTyped, p, "constructor arity")
		}
		if i == p.Idx {
			return f.Type, nil
		}
		t = Instantiate1(f.Body, &Proj{Struct: p.Struct, Idx: i, Expr: p.Expr})
	}
}

// InferClosed returns the type of the closed term e.
func (tc *TypeChecker) InferClosed(e Expr) (Expr, error) {
	return tc.InferType(nil, e)
}

// EtaExpand returns the closed term e eta-expanded at the top: it gains one
// lambda for every argument its type still accepts.
func (tc *TypeChecker) EtaExpand(e Expr) (Expr, error) {
	t, err := tc.InferType(nil, e)
	if err != nil {
		return nil, err
	}
	lams, body := StripLambdas(e)
	tele, _ := tc.Telescope(t, -1)
	if len(tele) <= len(lams) {
		return e, nil
	}
	extra := tele[len(lams):]
	n := len(extra)
	body = MkApp(Lift(body, n), BVarRefs(n)...)
	return MkLambdas(lams, MkLambdas(extra, body)), nil
}
