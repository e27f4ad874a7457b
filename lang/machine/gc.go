package machine

// gcHeader is embedded by every heap-allocated, collectable value type (Int,
// Float, String, Pair, Array, Map, Set, Projection, Function, Pointer,
// FFIStruct, FFISymbol and operation-as-value wrappers). It is the Go
// analogue of a C-style intrusive sweep-chain node: next/prev links plus a
// flags byte.
type gcHeader struct {
	tracked   bool // known to the collector; set exactly once by track()
	reachable bool // set during mark, cleared again by sweep on survivors
	pinned    bool // never collected
	constant  bool // mutation forbidden
	foreign   bool // underlying storage not owned; destructor must not free it
	freestore bool // underlying string buffer must be released on destruction
	destructs bool // function flagged as a destructor (ran on owner release)
	isNull    bool // variant-typed null (e.g. the null array, null map, ...)

	next, prev *gcHeader
	owner      trackedValue
}

// trackedValue is implemented by every value that can be linked onto the GC
// chain. Walk must call visit for each Value directly reachable from the
// receiver; values with no children (Bool, Char, bignum Int/Float, String,
// Pointer data) implement it with an empty body.
type trackedValue interface {
	Value
	header() *gcHeader
	Walk(visit func(Value))
	destroy()
}

func asTracked(v Value) (trackedValue, bool) {
	t, ok := v.(trackedValue)
	return t, ok
}

// track links v onto vm's GC chain. A value must be tracked exactly once;
// double-tracking is a programming error and panics.
func (vm *VM) track(v Value) {
	t, ok := asTracked(v)
	if !ok {
		return // untrackable (e.g. Bool, Char): nothing to link
	}
	h := t.header()
	if h.tracked {
		panic("lake: value tracked twice")
	}
	h.tracked = true
	h.owner = t
	h.next = vm.gcHead
	h.prev = nil
	if vm.gcHead != nil {
		vm.gcHead.prev = h
	}
	vm.gcHead = h
	vm.numObjects++
}

// Track links v onto vm's GC chain. It is the exported entry point package
// ast uses whenever an opcode constructs a fresh heap value (a function
// literal, a new array/map/set, a cast result, ...); see track for the
// invariant it enforces.
func (vm *VM) Track(v Value) { vm.track(v) }

// pin marks v so the collector never reclaims it. Used for sentinels, small
// integer/char singletons, true/false, variant nulls, and the parser's define
// table entries.
func pin(v Value) {
	if t, ok := asTracked(v); ok {
		t.header().pinned = true
	}
}

// GCActive reports whether automatic collection is enabled.
func (vm *VM) GCActive() bool { return vm.gcActive }

// SetGCActive enables or disables automatic triggering of collection after
// each expression list (an explicit `gc` opcode still forces a cycle).
func (vm *VM) SetGCActive(active bool) { vm.gcActive = active }

// gcIfNeeded runs a cycle if the live object count has crossed the
// configured threshold and collection is enabled.
func (vm *VM) gcIfNeeded() {
	if vm.gcActive && vm.numObjects >= vm.gcThreshold {
		vm.GC()
	}
}

// GC forces a mark-sweep collection cycle (the `gc` opcode's effect).
func (vm *VM) GC() {
	vm.mark()
	vm.sweep()
}

// mark visits the root function's body and stack, and every live stack in
// the stack-of-stacks, setting reachable on every tracked value transitively
// owned by them.
//
// The root function and every function mid-invocation (see invoke in
// vm.go) are themselves pinned, so the generic markValue would stop at them
// without descending. mark therefore walks them explicitly: the root walk
// reaches constant sub-expressions of the root body (e.g. nested `function`
// literals not yet invoked) that live solely in the expression tree, not on
// any stack, and the keepalive-list walk below reaches values held only by
// an active function's Args/Locals.
func (vm *VM) mark() {
	if vm.Root != nil {
		markChildren(vm.Root)
	}
	// Every function on the invocation keepalive list is pinned for the
	// duration of its call (see invoke in vm.go), so markValue would stop
	// at it without descending — but its Args/Locals vectors may be the
	// only reference to values a mid-body collection must not sweep
	// (saveargs copies caller values into Args, store local writes popped
	// values into Locals). Walk each unconditionally, like the root.
	for _, fn := range vm.active {
		markChildren(fn)
	}
	for _, st := range vm.Stacks {
		for _, v := range st.values {
			markValue(v)
		}
	}
}

// markValue marks v reachable and descends into its children, unless v is
// pinned or already reachable, in which case the branch terminates.
// Expression nodes are not collectable themselves but may own collectable
// values (a push literal's string, a sub-expression list holding one), so
// marking descends through them without setting any flag.
func markValue(v Value) {
	if v == nil {
		return
	}
	t, ok := asTracked(v)
	if !ok {
		if op, ok := v.(OperationNode); ok {
			op.Walk(markValue)
		}
		return
	}
	h := t.header()
	if h.pinned || h.reachable {
		return
	}
	h.reachable = true
	t.Walk(markValue)
}

// markChildren walks v's children unconditionally (used only for the GC
// roots themselves, which are pinned and would otherwise stop markValue).
func markChildren(v Value) {
	t, ok := asTracked(v)
	if !ok {
		return
	}
	t.Walk(markValue)
}

// sweep walks the GC chain once; survivors (reachable, not pinned) have
// reachable cleared for the next cycle, everything else is destroyed and
// unlinked.
func (vm *VM) sweep() {
	h := vm.gcHead
	for h != nil {
		next := h.next
		if h.reachable && !h.pinned {
			h.reachable = false
		} else if h.pinned {
			// pinned values are never swept, but also never re-examined: nothing
			// to do, leave them linked.
		} else {
			vm.unlink(h)
			h.owner.destroy()
			vm.numObjects--
			vm.recycle(h.owner)
		}
		h = next
	}
}

func (vm *VM) unlink(h *gcHeader) {
	if h.prev != nil {
		h.prev.next = h.next
	} else {
		vm.gcHead = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	}
	h.next, h.prev = nil, nil
}

// LiveObjects returns the number of values currently tracked by the
// collector.
func (vm *VM) LiveObjects() int64 { return vm.numObjects }
