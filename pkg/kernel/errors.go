package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrIllTyped is returned when a term cannot be given a type.
	ErrIllTyped = errors.New("ill-typed term")
	// ErrUnknownConstant is returned for references to undeclared constants.
	ErrUnknownConstant = errors.New("unknown constant")
	// ErrUnknownFVar is returned for references to undeclared free variables.
	ErrUnknownFVar = errors.New("unknown free variable")
	// ErrUnknownMVar is returned for metavariables missing from the MetaContext.
	ErrUnknownMVar = errors.New("unknown metavariable")
	// ErrLevelArity is returned when a constant gets the wrong number of universe arguments.
	ErrLevelArity = errors.New("wrong number of universe arguments")
	// ErrDuplicateDecl is returned when a name is declared twice.
	ErrDuplicateDecl = errors.New("duplicate declaration")
)

// TypeError reports the term that failed to type check.
type TypeError struct {
	Expr Expr
	Msg  string
	Err  error
}

func (e *TypeError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Expr)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Msg, e.Expr)
}

func (e *TypeError) Unwrap() error { return e.Err }

func typeErr(err error, e Expr, format string, args ...any) error {
	return &TypeError{Expr: e, Msg: fmt.Sprintf(format, args...), Err: err}
}
