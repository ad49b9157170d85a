package kernel

import (
	"encoding/binary"

	iradix "github.com/hashicorp/go-immutable-radix"
)

// store is a persistent map from ids to V. Updates share structure with the
// original, so deriving a snapshot costs O(log n) instead of a full copy.
type store[V any] struct {
	tree *iradix.Tree
}

func newStore[V any]() store[V] { return store[V]{tree: iradix.New()} }

// storeKey encodes id big-endian so that walking the tree visits ids in
// increasing order. Ids are positive.
func storeKey(id int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func (s store[V]) get(id int64) (V, bool) {
	v, ok := s.tree.Get(storeKey(id))
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (s store[V]) with(id int64, v V) store[V] {
	t, _, _ := s.tree.Insert(storeKey(id), v)
	return store[V]{tree: t}
}

func (s store[V]) len() int { return s.tree.Len() }

// each visits the entries in increasing id order.
func (s store[V]) each(fn func(id int64, v V)) {
	s.tree.Root().Walk(func(k []byte, v interface{}) bool {
		fn(int64(binary.BigEndian.Uint64(k)), v.(V))
		return false
	})
}
