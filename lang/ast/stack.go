package ast

import (
	"fmt"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// Pop discards the top N values from the active stack without destructing
// them (the `pop N`): they remain tracked and are reclaimed by the next
// sweep once nothing else references them.
type Pop struct {
	node
	N int
}

func NewPop(pos token.Position, n int) *Pop { return &Pop{node{pos}, n} }
func (p *Pop) String() string                { return fmt.Sprintf("pop %d", p.N) }
func (p *Pop) Type() string                  { return "pop" }
func (p *Pop) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < p.N {
		return nil, fmt.Errorf("pop %d: stack only has %d items", p.N, st.Len())
	}
	st.Pop(p.N)
	return machine.Null, nil
}

// Remove discards the top N values and, for each one still tracked and not
// pinned, destroys it immediately instead of waiting for the next sweep
// (the `remove N`): a deliberate bypass of the collector for values the
// program knows are otherwise unreachable.
type Remove struct {
	node
	N int
}

func NewRemove(pos token.Position, n int) *Remove { return &Remove{node{pos}, n} }
func (r *Remove) String() string                   { return fmt.Sprintf("remove %d", r.N) }
func (r *Remove) Type() string                      { return "remove" }
func (r *Remove) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < r.N {
		return nil, fmt.Errorf("remove %d: stack only has %d items", r.N, st.Len())
	}
	for _, v := range st.Pop(r.N) {
		vm.DestroyNow(v)
	}
	return machine.Null, nil
}

// Dup pushes a second reference to the top value.
type Dup struct{ node }

func NewDup(pos token.Position) *Dup { return &Dup{node{pos}} }
func (*Dup) String() string           { return "dup" }
func (*Dup) Type() string             { return "dup" }
func (d *Dup) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("dup: stack is empty")
	}
	st.Dup()
	return st.Top(), nil
}

// Copy replaces the top of stack with a deep structural copy of itself,
// leaving scalar values unchanged and cloning containers so mutation of the
// copy does not alias the original (the `copy`).
type Copy struct{ node }

func NewCopy(pos token.Position) *Copy { return &Copy{node{pos}} }
func (*Copy) String() string            { return "copy" }
func (*Copy) Type() string               { return "copy" }
func (c *Copy) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("copy: stack is empty")
	}
	cp, err := machine.DeepCopy(vm, st.Top())
	if err != nil {
		return nil, err
	}
	st.Copy(cp)
	return cp, nil
}

// Swap exchanges the top two values.
type Swap struct{ node }

func NewSwap(pos token.Position) *Swap { return &Swap{node{pos}} }
func (*Swap) String() string            { return "swap" }
func (*Swap) Type() string               { return "swap" }
func (s *Swap) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 2 {
		return nil, fmt.Errorf("swap: needs 2 items, has %d", st.Len())
	}
	st.Swap()
	return st.Top(), nil
}

// Lift moves the top N values from the stack directly below the active one
// up onto the active stack, preserving order (the `lift N`, used to pass
// values into an own-stack function's frame).
type Lift struct {
	node
	N int
}

func NewLift(pos token.Position, n int) *Lift { return &Lift{node{pos}, n} }
func (l *Lift) String() string                 { return fmt.Sprintf("lift %d", l.N) }
func (l *Lift) Type() string                   { return "lift" }
func (l *Lift) Eval(vm *machine.VM) (machine.Value, error) {
	below := vm.StackBelow()
	if below == nil {
		return nil, fmt.Errorf("lift %d: no stack below the active one", l.N)
	}
	if below.Len() < l.N {
		return nil, fmt.Errorf("lift %d: stack below only has %d items", l.N, below.Len())
	}
	vs := below.Pop(l.N)
	st := vm.Stack()
	for _, v := range vs {
		st.Push(v)
	}
	return machine.Null, nil
}

// Sink moves the top N values from the active stack down onto the stack
// directly below it, preserving order (the inverse of lift).
type Sink struct {
	node
	N int
}

func NewSink(pos token.Position, n int) *Sink { return &Sink{node{pos}, n} }
func (s *Sink) String() string                 { return fmt.Sprintf("sink %d", s.N) }
func (s *Sink) Type() string                    { return "sink" }
func (s *Sink) Eval(vm *machine.VM) (machine.Value, error) {
	below := vm.StackBelow()
	if below == nil {
		return nil, fmt.Errorf("sink %d: no stack below the active one", s.N)
	}
	st := vm.Stack()
	if st.Len() < s.N {
		return nil, fmt.Errorf("sink %d: stack only has %d items", s.N, st.Len())
	}
	vs := st.Pop(s.N)
	for _, v := range vs {
		below.Push(v)
	}
	return machine.Null, nil
}

// Squash removes N items immediately below the top, keeping the top intact.
// N == -1 removes everything except the top (the `squash N`).
type Squash struct {
	node
	N int
}

func NewSquash(pos token.Position, n int) *Squash { return &Squash{node{pos}, n} }
func (s *Squash) String() string                   { return fmt.Sprintf("squash %d", s.N) }
func (s *Squash) Type() string                      { return "squash" }
func (s *Squash) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("squash: stack is empty")
	}
	st.Squash(s.N)
	return st.Top(), nil
}

// Reserve pushes N Null placeholders.
type Reserve struct {
	node
	N int
}

func NewReserve(pos token.Position, n int) *Reserve { return &Reserve{node{pos}, n} }
func (r *Reserve) String() string                    { return fmt.Sprintf("reserve %d", r.N) }
func (r *Reserve) Type() string                       { return "reserve" }
func (r *Reserve) Eval(vm *machine.VM) (machine.Value, error) {
	vm.Stack().Reserve(r.N)
	return machine.Null, nil
}

// Clear empties the active stack's values (the `clear`, the no-argument
// form; ClearFrame below is the `clear frame` form).
type Clear struct{ node }

func NewClear(pos token.Position) *Clear { return &Clear{node{pos}} }
func (*Clear) String() string              { return "clear" }
func (*Clear) Type() string                 { return "clear" }
func (c *Clear) Eval(vm *machine.VM) (machine.Value, error) {
	vm.Stack().Clear()
	return machine.Null, nil
}

// ClearFrame truncates the active stack back to the current frame base.
type ClearFrame struct{ node }

func NewClearFrame(pos token.Position) *ClearFrame { return &ClearFrame{node{pos}} }
func (*ClearFrame) String() string                  { return "clear frame" }
func (*ClearFrame) Type() string                     { return "clear" }
func (c *ClearFrame) Eval(vm *machine.VM) (machine.Value, error) {
	vm.Stack().ClearFrame()
	return machine.Null, nil
}

// Size pushes the active stack's current item count as an Int.
type Size struct{ node }

func NewSize(pos token.Position) *Size { return &Size{node{pos}} }
func (*Size) String() string             { return "size" }
func (*Size) Type() string                { return "size" }
func (s *Size) Eval(vm *machine.VM) (machine.Value, error) {
	n := machine.NewIntFromInt64(int64(vm.Stack().Len()))
	vm.Stack().Push(n)
	return n, nil
}

// Frame pushes the active stack's current frame base as an Int.
type Frame struct{ node }

func NewFrame(pos token.Position) *Frame { return &Frame{node{pos}} }
func (*Frame) String() string              { return "frame" }
func (*Frame) Type() string                 { return "frame" }
func (f *Frame) Eval(vm *machine.VM) (machine.Value, error) {
	n := machine.NewIntFromInt64(int64(vm.Stack().FrameBase()))
	vm.Stack().Push(n)
	return n, nil
}
