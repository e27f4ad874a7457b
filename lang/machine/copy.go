package machine

// DeepCopy implements the `copy` opcode's semantics: scalars and containers
// are cloned so mutating the copy never aliases the original, while
// reference-identity values (functions, pointers, sentinels, FFI
// descriptors) are returned unchanged, since the language has no notion of
// copying a callable or a foreign handle.
func DeepCopy(vm *VM, v Value) (Value, error) {
	switch t := v.(type) {
	case *Int:
		cp := NewInt(t.v)
		vm.trackIfFresh(cp)
		return cp, nil
	case *Float:
		cp := NewFloat(vm, t.v)
		vm.trackIfFresh(cp)
		return cp, nil
	case *String:
		cp := NewString(t.s)
		vm.track(cp)
		return cp, nil
	case *Pair:
		a, err := DeepCopy(vm, t.A)
		if err != nil {
			return nil, err
		}
		b, err := DeepCopy(vm, t.B)
		if err != nil {
			return nil, err
		}
		cp := NewPair(a, b)
		vm.track(cp)
		return cp, nil
	case *Array:
		elems := make([]Value, len(t.elems))
		for i, e := range t.elems {
			ce, err := DeepCopy(vm, e)
			if err != nil {
				return nil, err
			}
			elems[i] = ce
		}
		cp := NewArray(elems)
		vm.track(cp)
		return cp, nil
	case *Map:
		cp := NewMap(t.size)
		for _, e := range t.Items() {
			ck, err := DeepCopy(vm, e.key)
			if err != nil {
				return nil, err
			}
			cv, err := DeepCopy(vm, e.val)
			if err != nil {
				return nil, err
			}
			if err := cp.Put(vm, ck, cv); err != nil {
				return nil, err
			}
		}
		vm.track(cp)
		return cp, nil
	case *Projection:
		// copying a projection materializes it: the copy is a real array
		// sliced by the view's bounds, detached from the backing collection.
		cp := t.Materialize()
		vm.track(cp)
		return cp, nil
	case *Set:
		cp := NewSet(t.size)
		for _, e := range t.Items() {
			ce, err := DeepCopy(vm, e)
			if err != nil {
				return nil, err
			}
			if err := cp.Add(vm, ce); err != nil {
				return nil, err
			}
		}
		vm.track(cp)
		return cp, nil
	default:
		return v, nil
	}
}

// trackIfFresh tracks v unless it is one of the pinned shared singletons
// (small ints, cached floats never exist today, so this currently only
// matters for Int), which must never be linked onto the GC chain twice.
func (vm *VM) trackIfFresh(v Value) {
	if t, ok := asTracked(v); ok && !t.header().tracked && !t.header().pinned {
		vm.track(v)
	}
}

// TrackOnce tracks v the first time it is seen and is a no-op on every
// later call with the same value (or any pinned/already-tracked value).
// Package ast's Literal node calls this before every push so a literal
// that builds a fresh heap value (a string) is linked onto the GC chain
// exactly once no matter how many times its enclosing loop evaluates it,
// while pinned singletons (small ints, true/false, variant nulls) are
// left alone.
func (vm *VM) TrackOnce(v Value) { vm.trackIfFresh(v) }

// DestroyNow forces immediate destruction of v if it is tracked and not
// pinned, unlinking it from the GC chain without waiting for the next
// sweep (the `remove` opcode's effect).
func (vm *VM) DestroyNow(v Value) {
	t, ok := asTracked(v)
	if !ok {
		return
	}
	h := t.header()
	if h.pinned || !h.tracked {
		return
	}
	vm.unlink(h)
	t.destroy()
	vm.numObjects--
	vm.recycle(t)
}
