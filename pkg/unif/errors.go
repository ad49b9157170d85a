package unif

import (
	"errors"
	"fmt"
)

// ErrMalformedPair is wrapped by every error reported for a term pair that
// cannot enter the search.
var ErrMalformedPair = errors.New("malformed term pair")

// PairError describes why one input pair was rejected.
type PairError struct {
	Index int
	Side  string // "lhs", "rhs" or "" for the pair as a whole
	Err   error
}

func (e *PairError) Error() string {
	if e.Side == "" {
		return fmt.Sprintf("%v: pair %d: %v", ErrMalformedPair, e.Index, e.Err)
	}
	return fmt.Sprintf("%v: pair %d %s: %v", ErrMalformedPair, e.Index, e.Side, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is.
func (e *PairError) Unwrap() []error { return []error{ErrMalformedPair, e.Err} }
