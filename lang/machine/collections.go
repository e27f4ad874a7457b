package machine

import "github.com/dolthub/swiss"

// Map is an UnorderedMap: a mapping from value to value with unique keys and
// no defined iteration order. Values are not themselves hashable in general
// (Array/Map/Set/Function among others only have scalar payloads that are
// hashable per Hash), so the bucket table is keyed by the scalar Hash of the
// key and each bucket holds the (key, value) pairs that collided, compared
// with Equal. The bucket table itself is a github.com/dolthub/swiss map.
type Map struct {
	gcHeader
	buckets *swiss.Map[uint64, []mapEntry]
	size    int
}

type mapEntry struct {
	key, val Value
}

// Key and Val expose a mapEntry's fields to other packages iterating the
// result of Map.Items.
func (e mapEntry) Key() Value { return e.key }
func (e mapEntry) Val() Value { return e.val }

var _ trackedValue = (*Map)(nil)
var _ Container = (*Map)(nil)

// NewMap returns an UnorderedMap with initial bucket capacity for at least
// size keys.
func NewMap(size int) *Map {
	if size < 1 {
		size = 1
	}
	m := mapPool.Get().(*Map)
	m.buckets = swiss.NewMap[uint64, []mapEntry](uint32(size))
	return m
}

func (m *Map) header() *gcHeader { return &m.gcHeader }
func (m *Map) Walk(visit func(Value)) {
	m.buckets.Iter(func(_ uint64, bucket []mapEntry) (stop bool) {
		for _, e := range bucket {
			visit(e.key)
			visit(e.val)
		}
		return false
	})
}
func (m *Map) destroy()      { m.buckets = nil }
func (m *Map) String() string { return "map" }
func (m *Map) Type() string   { return "umap" }
func (m *Map) Len() int       { return m.size }

func (m *Map) checkMutable(verb string) error {
	if m.constant {
		return cannotMutateError(verb, "umap")
	}
	return nil
}

// Get returns the value for key, and whether it was found.
func (m *Map) Get(vm *VM, key Value) (Value, bool, error) {
	h, err := Hash(key)
	if err != nil {
		return nil, false, err
	}
	bucket, ok := m.buckets.Get(h)
	if !ok {
		return nil, false, nil
	}
	for _, e := range bucket {
		eq, err := Equal(vm, e.key, key)
		if err != nil {
			return nil, false, err
		}
		if eq {
			return e.val, true, nil
		}
	}
	return nil, false, nil
}

// Put inserts or overwrites the value for key.
func (m *Map) Put(vm *VM, key, val Value) error {
	if err := m.checkMutable("store into"); err != nil {
		return err
	}
	h, err := Hash(key)
	if err != nil {
		return err
	}
	bucket, _ := m.buckets.Get(h)
	for i, e := range bucket {
		eq, err := Equal(vm, e.key, key)
		if err != nil {
			return err
		}
		if eq {
			bucket[i].val = val
			m.buckets.Put(h, bucket)
			return nil
		}
	}
	m.buckets.Put(h, append(bucket, mapEntry{key, val}))
	m.size++
	return nil
}

// Delete removes key, reporting whether it was present.
func (m *Map) Delete(vm *VM, key Value) (bool, error) {
	if err := m.checkMutable("delete from"); err != nil {
		return false, err
	}
	h, err := Hash(key)
	if err != nil {
		return false, err
	}
	bucket, ok := m.buckets.Get(h)
	if !ok {
		return false, nil
	}
	for i, e := range bucket {
		eq, err := Equal(vm, e.key, key)
		if err != nil {
			return false, err
		}
		if eq {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				m.buckets.Delete(h)
			} else {
				m.buckets.Put(h, bucket)
			}
			m.size--
			return true, nil
		}
	}
	return false, nil
}

// Clear removes all entries.
func (m *Map) Clear() error {
	if err := m.checkMutable("clear"); err != nil {
		return err
	}
	m.buckets = swiss.NewMap[uint64, []mapEntry](1)
	m.size = 0
	return nil
}

// Items returns every (key, value) pair, in the arbitrary but deterministic
// (within a run) order the bucket table iterates in — foreach ordering over
// a map/set is unspecified but stable within a single run.
func (m *Map) Items() []mapEntry {
	out := make([]mapEntry, 0, m.size)
	m.buckets.Iter(func(_ uint64, bucket []mapEntry) (stop bool) {
		out = append(out, bucket...)
		return false
	})
	return out
}

// NullMap is the pinned, variant-typed null for umap.
var NullMap = &Map{buckets: swiss.NewMap[uint64, []mapEntry](1)}

func init() { NullMap.pinned = true; NullMap.isNull = true }

// Set is an UnorderedSet, implemented the same way as Map but storing only
// keys.
//
// Design note — set nullability: `push null uset` is deliberately given
// the concrete type *Map rather than *Set, so a cast/type check against it
// reports "umap", not "uset". NullSet below is the same singleton as
// NullMap, not a distinct, properly variant-tagged empty set. Code that
// wants a genuinely empty, properly-tagged set should use NewSet(0)
// instead of the null literal.
// NullSet is the pinned "null uset" literal; see the design note above.
var NullSet Value = NullMap

type Set struct {
	gcHeader
	buckets *swiss.Map[uint64, []Value]
	size    int
}

var _ trackedValue = (*Set)(nil)
var _ Container = (*Set)(nil)

// NewSet returns an UnorderedSet with initial bucket capacity for at least
// size elements.
func NewSet(size int) *Set {
	if size < 1 {
		size = 1
	}
	s := setPool.Get().(*Set)
	s.buckets = swiss.NewMap[uint64, []Value](uint32(size))
	return s
}

func (s *Set) header() *gcHeader { return &s.gcHeader }
func (s *Set) Walk(visit func(Value)) {
	s.buckets.Iter(func(_ uint64, bucket []Value) (stop bool) {
		for _, v := range bucket {
			visit(v)
		}
		return false
	})
}
func (s *Set) destroy()       { s.buckets = nil }
func (s *Set) String() string { return "set" }
func (s *Set) Type() string   { return "uset" }
func (s *Set) Len() int       { return s.size }

func (s *Set) checkMutable(verb string) error {
	if s.constant {
		return cannotMutateError(verb, "uset")
	}
	return nil
}

func (s *Set) Contains(vm *VM, v Value) (bool, error) {
	h, err := Hash(v)
	if err != nil {
		return false, err
	}
	bucket, ok := s.buckets.Get(h)
	if !ok {
		return false, nil
	}
	for _, e := range bucket {
		eq, err := Equal(vm, e, v)
		if err != nil {
			return false, err
		}
		if eq {
			return true, nil
		}
	}
	return false, nil
}

func (s *Set) Add(vm *VM, v Value) error {
	if err := s.checkMutable("add to"); err != nil {
		return err
	}
	ok, err := s.Contains(vm, v)
	if err != nil || ok {
		return err
	}
	h, _ := Hash(v)
	bucket, _ := s.buckets.Get(h)
	s.buckets.Put(h, append(bucket, v))
	s.size++
	return nil
}

func (s *Set) Delete(vm *VM, v Value) (bool, error) {
	if err := s.checkMutable("delete from"); err != nil {
		return false, err
	}
	h, err := Hash(v)
	if err != nil {
		return false, err
	}
	bucket, ok := s.buckets.Get(h)
	if !ok {
		return false, nil
	}
	for i, e := range bucket {
		eq, err := Equal(vm, e, v)
		if err != nil {
			return false, err
		}
		if eq {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				s.buckets.Delete(h)
			} else {
				s.buckets.Put(h, bucket)
			}
			s.size--
			return true, nil
		}
	}
	return false, nil
}

func (s *Set) Clear() error {
	if err := s.checkMutable("clear"); err != nil {
		return err
	}
	s.buckets = swiss.NewMap[uint64, []Value](1)
	s.size = 0
	return nil
}

func (s *Set) Items() []Value {
	out := make([]Value, 0, s.size)
	s.buckets.Iter(func(_ uint64, bucket []Value) (stop bool) {
		out = append(out, bucket...)
		return false
	})
	return out
}
