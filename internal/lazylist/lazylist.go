// Package lazylist provides pull-based, possibly infinite sequences.
//
// A List produces its elements on demand: Next forces one element and
// returns it with the remaining List. Forced cells are memoized, so pulling
// the same List twice yields the same element without recomputing it.
// Lists are not safe for concurrent use.
//
// Interleave and InterleaveAll merge lists fairly: every non-empty input
// keeps receiving turns, even when another input is infinite.
package lazylist

// List is a lazy sequence of T. The zero value is the empty list.
type List[T any] struct {
	c *cell[T]
}

type cell[T any] struct {
	thunk func() (T, List[T], bool)
	head  T
	tail  List[T]
	ok    bool
}

func (c *cell[T]) force() {
	if c.thunk == nil {
		return
	}
	f := c.thunk
	c.thunk = nil
	c.head, c.tail, c.ok = f()
}

// Nil returns the empty list.
func Nil[T any]() List[T] { return List[T]{} }

// Cons returns a list starting with head followed by tail.
func Cons[T any](head T, tail List[T]) List[T] {
	return List[T]{c: &cell[T]{head: head, tail: tail, ok: true}}
}

// Defer returns a list whose contents are computed by f on first use.
func Defer[T any](f func() List[T]) List[T] {
	return List[T]{c: &cell[T]{thunk: func() (T, List[T], bool) {
		return f().Next()
	}}}
}

// FromSlice returns a list of the elements of xs.
func FromSlice[T any](xs []T) List[T] {
	if len(xs) == 0 {
		return Nil[T]()
	}
	return Cons(xs[0], Defer(func() List[T] { return FromSlice(xs[1:]) }))
}

// Generate returns the list f(0), f(1), ... up to the first index for which
// f reports false. The list is infinite when f never does.
func Generate[T any](f func(i int) (T, bool)) List[T] {
	return generateFrom(f, 0)
}

func generateFrom[T any](f func(int) (T, bool), i int) List[T] {
	return List[T]{c: &cell[T]{thunk: func() (T, List[T], bool) {
		x, ok := f(i)
		if !ok {
			var zero T
			return zero, Nil[T](), false
		}
		return x, generateFrom(f, i+1), true
	}}}
}

// Next forces the first element of l. It returns the element, the rest of
// the list, and false when l is empty.
func (l List[T]) Next() (T, List[T], bool) {
	if l.c == nil {
		var zero T
		return zero, Nil[T](), false
	}
	l.c.force()
	return l.c.head, l.c.tail, l.c.ok
}

// IsNil reports whether l is known to be empty without forcing anything.
// A deferred list that turns out empty reports false until it is forced.
func (l List[T]) IsNil() bool {
	return l.c == nil || (l.c.thunk == nil && !l.c.ok)
}

// Interleave alternates between a and b, starting with a. When one list
// runs out the other continues alone.
func Interleave[T any](a, b List[T]) List[T] {
	if a.IsNil() {
		return b
	}
	if b.IsNil() {
		return a
	}
	return Defer(func() List[T] {
		x, rest, ok := a.Next()
		if !ok {
			return b
		}
		return Cons(x, Interleave(b, rest))
	})
}

// InterleaveAll takes one element from each list in turn, round-robin.
// Exhausted lists drop out of the rotation.
func InterleaveAll[T any](ls ...List[T]) List[T] {
	live := make([]List[T], 0, len(ls))
	for _, l := range ls {
		if !l.IsNil() {
			live = append(live, l)
		}
	}
	if len(live) == 0 {
		return Nil[T]()
	}
	if len(live) == 1 {
		return live[0]
	}
	return Defer(func() List[T] {
		x, rest, ok := live[0].Next()
		next := append(append([]List[T](nil), live[1:]...), rest)
		if !ok {
			return InterleaveAll(live[1:]...)
		}
		return Cons(x, InterleaveAll(next...))
	})
}

// Map applies f lazily to every element of l.
func Map[T, U any](l List[T], f func(T) U) List[U] {
	if l.IsNil() {
		return Nil[U]()
	}
	return Defer(func() List[U] {
		x, rest, ok := l.Next()
		if !ok {
			return Nil[U]()
		}
		return Cons(f(x), Map(rest, f))
	})
}

// Concat returns the elements of a followed by those of b.
func Concat[T any](a, b List[T]) List[T] {
	if a.IsNil() {
		return b
	}
	return Defer(func() List[T] {
		x, rest, ok := a.Next()
		if !ok {
			return b
		}
		return Cons(x, Concat(rest, b))
	})
}

// Take forces at most n elements of l.
func Take[T any](l List[T], n int) []T {
	var out []T
	for len(out) < n {
		x, rest, ok := l.Next()
		if !ok {
			break
		}
		out = append(out, x)
		l = rest
	}
	return out
}
