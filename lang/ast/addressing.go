package ast

import (
	"fmt"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// AddrMode identifies which of the addressing keywords introduced a
// Load/Store node.
type AddrMode uint8

const (
	// AddrAbs addresses an absolute index into the active stack.
	AddrAbs AddrMode = iota
	// AddrRel addresses an index relative to the current top of stack.
	AddrRel
	// AddrRoot addresses an absolute index into the root function's stack.
	AddrRoot
	// AddrParent addresses an index in the stack below the active one.
	AddrParent
	// AddrLocal addresses a function local by position.
	AddrLocal
	// AddrArg addresses a function argument by position.
	AddrArg
	// AddrCommit addresses an index relative to the top of the current
	// commit (see Stack.CommitIndex).
	AddrCommit
	// AddrTop is the bare integer-literal addressing mode: top-relative,
	// index 0 is the current top of stack, and the operand must be <= 0.
	AddrTop
)

func (m AddrMode) String() string {
	switch m {
	case AddrAbs:
		return "abs"
	case AddrRel:
		return "rel"
	case AddrRoot:
		return "root"
	case AddrParent:
		return "parent"
	case AddrLocal:
		return "local"
	case AddrArg:
		return "arg"
	case AddrCommit:
		return "commit"
	case AddrTop:
		return ""
	default:
		return "?"
	}
}

// addrModeOperand formats a Mode/Index pair the way the grammar expects it:
// every mode but AddrTop is spelled "<keyword> <index>"; AddrTop, the bare
// top-relative integer form, has no keyword at all.
func addrModeOperand(mode AddrMode, index int) string {
	if mode == AddrTop {
		return fmt.Sprintf("%d", index)
	}
	return fmt.Sprintf("%s %d", mode, index)
}

// resolveIndex turns a Load/Store's addressing mode and offset into an
// absolute index into the stack it operates on (the active stack for every
// mode except AddrRoot, which always targets the root-function's stack, and
// AddrParent, which targets a stack below the active one).
func resolveIndex(vm *machine.VM, mode AddrMode, offset int) (*machine.Stack, int, error) {
	switch mode {
	case AddrAbs:
		return vm.Stack(), offset, nil
	case AddrRel:
		// index -1 is the first argument, 0 is the frame base cell, +1 the
		// first local.
		return vm.Stack(), vm.Stack().FrameBase() + offset, nil
	case AddrRoot:
		root := vm.RootStack()
		if root == nil {
			return nil, 0, fmt.Errorf("root addressing: no root stack")
		}
		return root, offset, nil
	case AddrParent:
		// offset selects the N-th stack below the active one (0 is the stack
		// immediately below); the addressed slot is that stack's current top,
		// the single value a nested own-stack function exposes to its caller.
		parent, err := vm.ParentStack(offset)
		if err != nil {
			return nil, 0, err
		}
		return parent, parent.Len() - 1, nil
	case AddrTop:
		if offset > 0 {
			return nil, 0, fmt.Errorf("top-relative addressing: index %d must be <= 0", offset)
		}
		return vm.Stack(), vm.Stack().Len() - 1 + offset, nil
	case AddrCommit:
		return vm.Stack(), vm.Stack().CommitIndex() + 1 + offset, nil
	default:
		return nil, 0, fmt.Errorf("addressing mode %s is not a stack index", mode)
	}
}

// Load pushes a reference to the addressed value, per Mode:
//   - abs/rel/root/parent/commit read from a stack slot.
//   - local/arg pop a function value off the active stack first, then
//     read from that function's Locals/Args vector.
type Load struct {
	node
	Mode  AddrMode
	Index int
}

func NewLoad(pos token.Position, mode AddrMode, index int) *Load {
	return &Load{node{pos}, mode, index}
}

func (l *Load) String() string { return "load " + addrModeOperand(l.Mode, l.Index) }
func (l *Load) Type() string   { return "load" }

func (l *Load) Eval(vm *machine.VM) (machine.Value, error) {
	switch l.Mode {
	case AddrLocal:
		fn, err := popAddressedFunction(vm)
		if err != nil {
			return nil, fmt.Errorf("load local %d: %w", l.Index, err)
		}
		if l.Index < 0 || l.Index >= len(fn.Locals) {
			return nil, fmt.Errorf("load local %d: out of range", l.Index)
		}
		v := fn.Locals[l.Index]
		vm.Stack().Push(v)
		return v, nil
	case AddrArg:
		fn, err := popAddressedFunction(vm)
		if err != nil {
			return nil, fmt.Errorf("load arg %d: %w", l.Index, err)
		}
		if l.Index < 0 || l.Index >= len(fn.Args) {
			return nil, fmt.Errorf("load arg %d: out of range", l.Index)
		}
		v := fn.Args[l.Index]
		vm.Stack().Push(v)
		return v, nil
	default:
		st, idx, err := resolveIndex(vm, l.Mode, l.Index)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= st.Len() {
			return nil, fmt.Errorf("load %s %d: index %d out of range (length %d)", l.Mode, l.Index, idx, st.Len())
		}
		v := st.At(idx)
		vm.Stack().Push(v)
		return v, nil
	}
}

// Store writes a value to the addressed slot, per Mode (the Store
// counterpart to Load): abs/rel/root/parent/commit pop the value and write
// it directly; local/arg pop the function operand first and then the value
// below it, writing into the popped function's Locals/Args vector.
type Store struct {
	node
	Mode  AddrMode
	Index int
}

func NewStore(pos token.Position, mode AddrMode, index int) *Store {
	return &Store{node{pos}, mode, index}
}

func (s *Store) String() string { return "store " + addrModeOperand(s.Mode, s.Index) }
func (s *Store) Type() string   { return "store" }

func (s *Store) Eval(vm *machine.VM) (machine.Value, error) {
	switch s.Mode {
	case AddrLocal:
		fn, err := popAddressedFunction(vm)
		if err != nil {
			return nil, fmt.Errorf("store local %d: %w", s.Index, err)
		}
		if s.Index < 0 {
			return nil, fmt.Errorf("store local %d: out of range", s.Index)
		}
		v, err := popStoreValue(vm)
		if err != nil {
			return nil, fmt.Errorf("store local %d: %w", s.Index, err)
		}
		fn.Locals = growValues(fn.Locals, s.Index)
		fn.Locals[s.Index] = v
		return v, nil
	case AddrArg:
		fn, err := popAddressedFunction(vm)
		if err != nil {
			return nil, fmt.Errorf("store arg %d: %w", s.Index, err)
		}
		if s.Index < 0 {
			return nil, fmt.Errorf("store arg %d: out of range", s.Index)
		}
		v, err := popStoreValue(vm)
		if err != nil {
			return nil, fmt.Errorf("store arg %d: %w", s.Index, err)
		}
		fn.Args = growValues(fn.Args, s.Index)
		fn.Args[s.Index] = v
		return v, nil
	default:
		v, err := popStoreValue(vm)
		if err != nil {
			return nil, err
		}
		target, idx, err := resolveIndex(vm, s.Mode, s.Index)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= target.Len() {
			return nil, fmt.Errorf("store %s %d: index %d out of range (length %d)", s.Mode, s.Index, idx, target.Len())
		}
		target.SetAt(idx, v)
		return v, nil
	}
}

// popAddressedFunction pops the function value local/arg addressing targets
// off the active stack (the `local`/`arg` modes consume the function
// operand before touching its locals/args vector).
func popAddressedFunction(vm *machine.VM) (*machine.FunctionData, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("stack is empty, expected a function operand")
	}
	fn, ok := st.Pop(1)[0].(*machine.FunctionData)
	if !ok {
		return nil, fmt.Errorf("expected function operand")
	}
	return fn, nil
}

// popStoreValue pops the value a local/arg store writes, which sits below
// the function operand on the stack.
func popStoreValue(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("stack is empty")
	}
	return st.Pop(1)[0], nil
}

// growValues extends vec so index is valid, padding new slots with
// machine.Null, matching a function's locals/args vector growing on
// first write to a not-yet-seen index.
func growValues(vec []machine.Value, index int) []machine.Value {
	if index < len(vec) {
		return vec
	}
	grown := make([]machine.Value, index+1)
	copy(grown, vec)
	for i := len(vec); i < index; i++ {
		grown[i] = machine.Null
	}
	return grown
}

// Commit records a scratch-use checkpoint on the active stack.
type Commit struct{ node }

func NewCommit(pos token.Position) *Commit { return &Commit{node{pos}} }
func (*Commit) String() string               { return "commit" }
func (*Commit) Type() string                  { return "commit" }
func (c *Commit) Eval(vm *machine.VM) (machine.Value, error) {
	vm.Stack().Commit()
	return machine.Null, nil
}

// CommitIndex pushes the top-item index of the last commit (or -1).
type CommitIndex struct{ node }

func NewCommitIndex(pos token.Position) *CommitIndex { return &CommitIndex{node{pos}} }
func (*CommitIndex) String() string                   { return "commitindex" }
func (*CommitIndex) Type() string                      { return "commitindex" }
func (c *CommitIndex) Eval(vm *machine.VM) (machine.Value, error) {
	n := machine.NewIntFromInt64(int64(vm.Stack().CommitIndex()))
	vm.Stack().Push(n)
	return n, nil
}

// Revert truncates the active stack back to the last commit's recorded
// size and pops that commit level.
type Revert struct{ node }

func NewRevert(pos token.Position) *Revert { return &Revert{node{pos}} }
func (*Revert) String() string               { return "revert" }
func (*Revert) Type() string                  { return "revert" }
func (r *Revert) Eval(vm *machine.VM) (machine.Value, error) {
	vm.Stack().Revert()
	return machine.Null, nil
}
