package ast

import (
	"fmt"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// Get pops (container, key) and pushes the looked-up value (the `get`).
// For array and pair, key is an Int index; for umap, any hashable key; for
// uset, `get` checks membership and pushes a Bool instead of a stored
// value, since a set has no associated value per key.
type Get struct{ node }

func NewGet(pos token.Position) *Get { return &Get{node{pos}} }
func (*Get) String() string            { return "coll get" }
func (*Get) Type() string               { return "get" }

func (g *Get) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 2 {
		return nil, fmt.Errorf("get: needs 2 operands, has %d", st.Len())
	}
	ops := st.Pop(2)
	container, key := ops[0], ops[1]

	var result machine.Value
	switch c := container.(type) {
	case *machine.Array:
		i, err := indexOf(key)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= c.Len() {
			return nil, fmt.Errorf("get: index %d out of range (length %d)", i, c.Len())
		}
		result = c.Index(i)
	case *machine.Pair:
		i, err := indexOf(key)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			result = c.A
		} else {
			result = c.B
		}
	case *machine.Map:
		v, ok, err := c.Get(vm, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("get: key not present in umap")
		}
		result = v
	case *machine.Set:
		ok, err := c.Contains(vm, key)
		if err != nil {
			return nil, err
		}
		result = machine.Bool(ok)
	default:
		return nil, fmt.Errorf("get: %s is not a collection", container.Type())
	}
	st.Push(result)
	return result, nil
}

func indexOf(key machine.Value) (int, error) {
	i, ok := key.(*machine.Int)
	if !ok {
		return 0, fmt.Errorf("expected int index, got %s", key.Type())
	}
	return int(i.Big().Int64()), nil
}

// Put pops (container, key, value) and stores value under key (the `put`
// instruction), pushing the container back so calls can be chained.
type Put struct{ node }

func NewPut(pos token.Position) *Put { return &Put{node{pos}} }
func (*Put) String() string            { return "coll put" }
func (*Put) Type() string               { return "put" }

func (p *Put) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 3 {
		return nil, fmt.Errorf("put: needs 3 operands, has %d", st.Len())
	}
	ops := st.Pop(3)
	container, key, val := ops[0], ops[1], ops[2]

	switch c := container.(type) {
	case *machine.Array:
		i, err := indexOf(key)
		if err != nil {
			return nil, err
		}
		if err := c.SetIndex(i, val); err != nil {
			return nil, err
		}
	case *machine.Pair:
		i, err := indexOf(key)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			c.A = val
		} else {
			c.B = val
		}
	case *machine.Map:
		if err := c.Put(vm, key, val); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("put: %s is not a mutable keyed collection", container.Type())
	}
	st.Push(container)
	return container, nil
}

// Append pops (container, value) and appends value (array) or adds it
// (uset), pushing the container back (the `append`).
type Append struct{ node }

func NewAppend(pos token.Position) *Append { return &Append{node{pos}} }
func (*Append) String() string                { return "coll append" }
func (*Append) Type() string                   { return "append" }

func (a *Append) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 2 {
		return nil, fmt.Errorf("append: needs 2 operands, has %d", st.Len())
	}
	ops := st.Pop(2)
	container, val := ops[0], ops[1]

	switch c := container.(type) {
	case *machine.Array:
		if err := c.Append(val); err != nil {
			return nil, err
		}
	case *machine.Set:
		if err := c.Add(vm, val); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("append: %s does not support append", container.Type())
	}
	st.Push(container)
	return container, nil
}

// Insert pops (container, index, value) and inserts value at index in an
// array, pushing the container back.
type Insert struct{ node }

func NewInsert(pos token.Position) *Insert { return &Insert{node{pos}} }
func (*Insert) String() string                { return "coll insert" }
func (*Insert) Type() string                   { return "insert" }

func (n *Insert) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 3 {
		return nil, fmt.Errorf("insert: needs 3 operands, has %d", st.Len())
	}
	ops := st.Pop(3)
	container, idx, val := ops[0], ops[1], ops[2]
	a, ok := container.(*machine.Array)
	if !ok {
		return nil, fmt.Errorf("insert: %s does not support insert", container.Type())
	}
	i, err := indexOf(idx)
	if err != nil {
		return nil, err
	}
	if err := a.Insert(i, val); err != nil {
		return nil, err
	}
	st.Push(a)
	return a, nil
}

// Del pops (container, key) and removes the entry, pushing a Bool
// reporting whether anything was removed (the `del`).
type Del struct{ node }

func NewDel(pos token.Position) *Del { return &Del{node{pos}} }
func (*Del) String() string            { return "coll del" }
func (*Del) Type() string               { return "del" }

func (d *Del) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 2 {
		return nil, fmt.Errorf("del: needs 2 operands, has %d", st.Len())
	}
	ops := st.Pop(2)
	container, key := ops[0], ops[1]

	var removed machine.Bool
	switch c := container.(type) {
	case *machine.Array:
		i, err := indexOf(key)
		if err != nil {
			return nil, err
		}
		if err := c.Delete(i); err != nil {
			return nil, err
		}
		removed = true
	case *machine.Map:
		ok, err := c.Delete(vm, key)
		if err != nil {
			return nil, err
		}
		removed = machine.Bool(ok)
	case *machine.Set:
		ok, err := c.Delete(vm, key)
		if err != nil {
			return nil, err
		}
		removed = machine.Bool(ok)
	default:
		return nil, fmt.Errorf("del: %s is not a collection", container.Type())
	}
	st.Push(removed)
	return removed, nil
}

// Contains pops (container, key) and pushes a Bool membership test.
type Contains struct{ node }

func NewContains(pos token.Position) *Contains { return &Contains{node{pos}} }
func (*Contains) String() string                  { return "coll contains" }
func (*Contains) Type() string                     { return "contains" }

func (c *Contains) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 2 {
		return nil, fmt.Errorf("contains: needs 2 operands, has %d", st.Len())
	}
	ops := st.Pop(2)
	container, key := ops[0], ops[1]

	var found bool
	var err error
	switch cc := container.(type) {
	case *machine.Map:
		_, found, err = cc.Get(vm, key)
	case *machine.Set:
		found, err = cc.Contains(vm, key)
	default:
		err = fmt.Errorf("contains: %s is not a keyed collection", container.Type())
	}
	if err != nil {
		return nil, err
	}
	r := machine.Bool(found)
	st.Push(r)
	return r, nil
}

// CollSize pops a collection and pushes its element count as an Int (the
// collection-level `coll size`, distinct from the stack-level `size`).
// Array, umap and uset report their element count; pair always reports 2;
// string reports its rune length. A projection reports the size of its
// full backing array, not the windowed [Start, End) range.
type CollSize struct{ node }

func NewCollSize(pos token.Position) *CollSize { return &CollSize{node{pos}} }
func (*CollSize) String() string                  { return "coll size" }
func (*CollSize) Type() string                     { return "coll size" }

func (c *CollSize) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("coll size: stack is empty")
	}
	container := st.Pop(1)[0]

	var n int
	switch cc := container.(type) {
	case *machine.Array:
		n = cc.Len()
	case *machine.Pair:
		n = 2
	case *machine.Map:
		n = cc.Len()
	case *machine.Set:
		n = cc.Len()
	case *machine.String:
		n = cc.Len()
	case *machine.Projection:
		n = cc.Collection.Len()
	default:
		return nil, fmt.Errorf("coll size: %s is not a collection", container.Type())
	}
	result := machine.NewIntFromInt64(int64(n))
	st.Push(result)
	return result, nil
}

// CollClear pops a collection, empties it in place and pushes it back (the
// collection-level `coll clear`). Array, umap, uset and string are truncated
// to empty; pair has both slots set to machine.Null. Projection is not
// supported.
type CollClear struct{ node }

func NewCollClear(pos token.Position) *CollClear { return &CollClear{node{pos}} }
func (*CollClear) String() string                   { return "coll clear" }
func (*CollClear) Type() string                      { return "coll clear" }

func (c *CollClear) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("coll clear: stack is empty")
	}
	container := st.Pop(1)[0]

	switch cc := container.(type) {
	case *machine.Array:
		if err := cc.Clear(); err != nil {
			return nil, err
		}
	case *machine.Pair:
		cc.A, cc.B = machine.Null, machine.Null
	case *machine.Map:
		if err := cc.Clear(); err != nil {
			return nil, err
		}
	case *machine.Set:
		if err := cc.Clear(); err != nil {
			return nil, err
		}
	case *machine.String:
		cc.Clear()
	default:
		return nil, fmt.Errorf("coll clear: %s does not support clear", container.Type())
	}
	st.Push(container)
	return container, nil
}

// Reverse pops an array and reverses it in place, pushing it back.
type Reverse struct{ node }

func NewReverse(pos token.Position) *Reverse { return &Reverse{node{pos}} }
func (*Reverse) String() string                { return "coll reverse" }
func (*Reverse) Type() string                   { return "reverse" }

func (r *Reverse) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("reverse: stack is empty")
	}
	a, ok := st.Pop(1)[0].(*machine.Array)
	if !ok {
		return nil, fmt.Errorf("reverse: expected array")
	}
	if err := a.Reverse(); err != nil {
		return nil, err
	}
	st.Push(a)
	return a, nil
}

// Projection pops (array, start, end) and pushes a lazy view over the
// array's [start, end) range (the `projection`).
type ProjectionOp struct{ node }

func NewProjectionOp(pos token.Position) *ProjectionOp { return &ProjectionOp{node{pos}} }
func (*ProjectionOp) String() string                     { return "coll projection" }
func (*ProjectionOp) Type() string                        { return "projection" }

func (p *ProjectionOp) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 3 {
		return nil, fmt.Errorf("projection: needs 3 operands, has %d", st.Len())
	}
	ops := st.Pop(3)
	a, ok := ops[0].(*machine.Array)
	if !ok {
		return nil, fmt.Errorf("projection: expected array")
	}
	start, err := indexOf(ops[1])
	if err != nil {
		return nil, err
	}
	end, err := indexOf(ops[2])
	if err != nil {
		return nil, err
	}
	proj := machine.NewProjection(a, start, end)
	vm.Track(proj)
	st.Push(proj)
	return proj, nil
}

// Spread pops an array and pushes every element, in order (ascending
// index); RSpread pushes them in reverse (descending index). Both leave the
// array itself off the stack (the `spread`/`rspread`).
type Spread struct {
	node
	Reverse bool
}

func NewSpread(pos token.Position, reverse bool) *Spread { return &Spread{node{pos}, reverse} }

func (s *Spread) String() string {
	if s.Reverse {
		return "coll rspread"
	}
	return "coll spread"
}
func (s *Spread) Type() string { return "spread" }

func (s *Spread) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("%s: stack is empty", s.String())
	}
	a, ok := st.Pop(1)[0].(*machine.Array)
	if !ok {
		return nil, fmt.Errorf("%s: expected array", s.String())
	}
	elems := a.Elems()
	if s.Reverse {
		for i := len(elems) - 1; i >= 0; i-- {
			st.Push(elems[i])
		}
	} else {
		for _, e := range elems {
			st.Push(e)
		}
	}
	return machine.Null, nil
}

// Foreach pops a container and runs Body once per element, with the
// element pushed onto the active stack before each pass (for umap, Body
// receives the entry's key followed by its value, so a two-deep pop at the
// top of Body retrieves both; for uset, it receives the element alone). exit-scope from Body ends the loop
// early; tailcall-request/raise-request/exit-request propagate to the
// caller (the `foreach`).
type Foreach struct {
	node
	Body *ExprList
}

func NewForeach(pos token.Position, body *ExprList) *Foreach { return &Foreach{node{pos}, body} }
func (f *Foreach) String() string                              { return "foreach" }
func (f *Foreach) Type() string                                 { return "foreach" }
func (f *Foreach) Walk(visit func(machine.Value))              { visit(f.Body) }

func (f *Foreach) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("foreach: stack is empty")
	}
	container := st.Pop(1)[0]

	run := func(push func()) (machine.Value, bool, error) {
		push()
		result, err := f.Body.Eval(vm)
		if err != nil {
			return nil, false, err
		}
		switch result {
		case machine.ExitScope:
			return nil, true, nil
		case machine.TailcallReq, machine.RaiseRequest, machine.ExitRequest:
			return result, true, nil
		default:
			return nil, false, nil
		}
	}

	switch c := container.(type) {
	case *machine.Array:
		for _, e := range c.Elems() {
			v, stop, err := run(func() { st.Push(e) })
			if err != nil {
				return nil, err
			}
			if stop {
				return v, nil
			}
		}
	case *machine.Map:
		for _, e := range c.Items() {
			v, stop, err := run(func() { st.Push(e.Key()); st.Push(e.Val()) })
			if err != nil {
				return nil, err
			}
			if stop {
				return v, nil
			}
		}
	case *machine.Set:
		for _, e := range c.Items() {
			v, stop, err := run(func() { st.Push(e) })
			if err != nil {
				return nil, err
			}
			if stop {
				return v, nil
			}
		}
	default:
		return nil, fmt.Errorf("foreach: %s is not iterable", container.Type())
	}
	return machine.Null, nil
}
