package kernel

import (
	"fmt"
	"sort"
)

// ConstKind distinguishes the declarations an Environment can hold.
type ConstKind int

const (
	// Axiom is an opaque constant.
	Axiom ConstKind = iota
	// Definition is unfolded by weak-head normalization.
	Definition
	// Inductive is a type former.
	Inductive
	// Constructor builds values of an inductive type or structure.
	Constructor
)

func (k ConstKind) String() string {
	switch k {
	case Axiom:
		return "axiom"
	case Definition:
		return "definition"
	case Inductive:
		return "inductive"
	case Constructor:
		return "constructor"
	}
	return fmt.Sprintf("ConstKind(%d)", int(k))
}

// ConstantInfo is a global declaration.
type ConstantInfo struct {
	Name        string
	Kind        ConstKind
	LevelParams []string
	Type        Expr
	Value       Expr // Definition only
}

// StructureInfo describes a single-constructor record type. The type former
// takes NumParams parameters and the constructor takes the parameters
// followed by one argument per field.
type StructureInfo struct {
	Name      string
	NumParams int
	Ctor      string
	Fields    []string
}

// Environment holds the global declarations terms refer to. An Environment
// is populated up front and then only read, so it can be shared by many
// concurrent searches.
type Environment struct {
	consts     map[string]*ConstantInfo
	structs    map[string]*StructureInfo
	ctorStruct map[string]string
	fvars      map[string]Expr
	order      []string
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{
		consts:     make(map[string]*ConstantInfo),
		structs:    make(map[string]*StructureInfo),
		ctorStruct: make(map[string]string),
		fvars:      make(map[string]Expr),
	}
}

func (env *Environment) checkFresh(name string) error {
	if _, ok := env.consts[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDecl, name)
	}
	if _, ok := env.fvars[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDecl, name)
	}
	return nil
}

func (env *Environment) add(info *ConstantInfo) error {
	if err := env.checkFresh(info.Name); err != nil {
		return err
	}
	if HasLooseBVars(info.Type) || (info.Value != nil && HasLooseBVars(info.Value)) {
		return fmt.Errorf("%w: declaration %s is not closed", ErrIllTyped, info.Name)
	}
	env.consts[info.Name] = info
	env.order = append(env.order, info.Name)
	return nil
}

// AddAxiom declares an opaque constant.
func (env *Environment) AddAxiom(name string, levelParams []string, typ Expr) error {
	return env.add(&ConstantInfo{Name: name, Kind: Axiom, LevelParams: levelParams, Type: typ})
}

// AddDefinition declares a constant that unfolds to value.
func (env *Environment) AddDefinition(name string, levelParams []string, typ, value Expr) error {
	return env.add(&ConstantInfo{Name: name, Kind: Definition, LevelParams: levelParams, Type: typ, Value: value})
}

// AddInductive declares a type former together with its constructors.
func (env *Environment) AddInductive(name string, levelParams []string, typ Expr, ctors map[string]Expr) error {
	if err := env.add(&ConstantInfo{Name: name, Kind: Inductive, LevelParams: levelParams, Type: typ}); err != nil {
		return err
	}
	names := make([]string, 0, len(ctors))
	for n := range ctors {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := env.add(&ConstantInfo{Name: n, Kind: Constructor, LevelParams: levelParams, Type: ctors[n]}); err != nil {
			return err
		}
	}
	return nil
}

// AddStructure declares a structure type former name, its constructor
// name.mk and the field metadata used to type and reduce projections.
// params and fields are telescopes: field types may refer to the parameters
// and to earlier fields. The structure lives in Sort level.
func (env *Environment) AddStructure(name string, levelParams []string, params, fields []Binder, level Level) error {
	ctor := name + ".mk"
	typ := MkForalls(params, &Sort{Level: level})
	lp := make([]Level, len(levelParams))
	for i, p := range levelParams {
		lp[i] = &LParam{Name: p}
	}
	self := MkApp(&Const{Name: name, Levels: lp}, BVarRefs(len(params))...)
	ctorType := MkForalls(params, MkForalls(fields, Lift(self, len(fields))))
	if err := env.add(&ConstantInfo{Name: name, Kind: Inductive, LevelParams: levelParams, Type: typ}); err != nil {
		return err
	}
	if err := env.add(&ConstantInfo{Name: ctor, Kind: Constructor, LevelParams: levelParams, Type: ctorType}); err != nil {
		return err
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	env.structs[name] = &StructureInfo{Name: name, NumParams: len(params), Ctor: ctor, Fields: names}
	env.ctorStruct[ctor] = name
	return nil
}

// AddFVar declares a free variable of the given closed type.
func (env *Environment) AddFVar(name string, typ Expr) error {
	if err := env.checkFresh(name); err != nil {
		return err
	}
	if HasLooseBVars(typ) {
		return fmt.Errorf("%w: type of %s is not closed", ErrIllTyped, name)
	}
	env.fvars[name] = typ
	return nil
}

// Lookup returns the declaration of a constant.
func (env *Environment) Lookup(name string) (*ConstantInfo, bool) {
	c, ok := env.consts[name]
	return c, ok
}

// Structure returns the structure metadata for a type former name.
func (env *Environment) Structure(name string) (*StructureInfo, bool) {
	s, ok := env.structs[name]
	return s, ok
}

// StructureOfCtor returns the structure a constructor belongs to.
func (env *Environment) StructureOfCtor(ctor string) (*StructureInfo, bool) {
	name, ok := env.ctorStruct[ctor]
	if !ok {
		return nil, false
	}
	return env.structs[name], true
}

// FieldIndex returns the position of a named field.
func (s *StructureInfo) FieldIndex(field string) (int, bool) {
	for i, f := range s.Fields {
		if f == field {
			return i, true
		}
	}
	return 0, false
}

// FVarType returns the type of a free variable.
func (env *Environment) FVarType(name string) (Expr, bool) {
	t, ok := env.fvars[name]
	return t, ok
}

// IsFVar reports whether name is a declared free variable.
func (env *Environment) IsFVar(name string) bool {
	_, ok := env.fvars[name]
	return ok
}

// Constants returns the constant names in declaration order.
func (env *Environment) Constants() []string {
	return append([]string(nil), env.order...)
}
