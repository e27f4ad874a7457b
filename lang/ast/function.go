package ast

import (
	"fmt"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// FunctionLit constructs a Function value from a body ExprList and pushes
// it, closing over the function currently executing as its Creator so free
// variables can resolve through `parent` addressing.
type FunctionLit struct {
	node
	Name     string
	Body     *ExprList
	OwnStack bool
	IsDtor   bool
}

func NewFunctionLit(pos token.Position, name string, body *ExprList, ownStack, isDtor bool) *FunctionLit {
	return &FunctionLit{node: node{pos}, Name: name, Body: body, OwnStack: ownStack, IsDtor: isDtor}
}

func (f *FunctionLit) String() string { return "function " + f.Name }
func (f *FunctionLit) Type() string   { return "function" }

func (f *FunctionLit) Walk(visit func(machine.Value)) { visit(f.Body) }

func (f *FunctionLit) Eval(vm *machine.VM) (machine.Value, error) {
	fn := machine.NewFunction(f.Name, f.Body, f.OwnStack)
	fn.Creator = vm.Current
	fn.IsDtor = f.IsDtor
	vm.Track(fn)
	vm.Stack().Push(fn)
	return fn, nil
}

// Current pushes the currently executing function (the `current`), or
// machine.Null if evaluation has not yet entered a function (should only
// happen while evaluating the root body before any call).
type Current struct{ node }

func NewCurrent(pos token.Position) *Current { return &Current{node{pos}} }
func (*Current) String() string                { return "current" }
func (*Current) Type() string                   { return "current" }
func (c *Current) Eval(vm *machine.VM) (machine.Value, error) {
	if vm.Current == nil {
		vm.Stack().Push(machine.Null)
		return machine.Null, nil
	}
	vm.Stack().Push(vm.Current)
	return vm.Current, nil
}

// SetCreator sets the top-of-stack function's Creator to the currently
// executing function, enabling a chain for free-variable lookup via `parent
// N` addressing.
type SetCreator struct{ node }

func NewSetCreator(pos token.Position) *SetCreator { return &SetCreator{node{pos}} }
func (*SetCreator) String() string                   { return "setcreator" }
func (*SetCreator) Type() string                      { return "setcreator" }
func (s *SetCreator) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("setcreator: stack is empty")
	}
	fn, ok := st.Top().(*machine.FunctionData)
	if !ok {
		return nil, fmt.Errorf("setcreator: expected function, got %s", st.Top().Type())
	}
	fn.Creator = vm.Current
	return fn, nil
}

// SaveArgs pops a count N and copies N values from the active stack, at
// and below the current frame base, into the current function's Args
// vector, in order (the `saveargs`, used for closure-style capture of a
// call's stack-pushed arguments).
type SaveArgs struct{ node }

func NewSaveArgs(pos token.Position) *SaveArgs { return &SaveArgs{node{pos}} }
func (*SaveArgs) String() string                 { return "saveargs" }
func (*SaveArgs) Type() string                    { return "saveargs" }
func (s *SaveArgs) Eval(vm *machine.VM) (machine.Value, error) {
	if vm.Current == nil {
		return nil, fmt.Errorf("saveargs: no function is currently executing")
	}
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("saveargs: stack is empty")
	}
	n, ok := st.Pop(1)[0].(*machine.Int)
	if !ok {
		return nil, fmt.Errorf("saveargs: expected int count")
	}
	count := int(n.Big().Int64())
	base := st.FrameBase()
	args := make([]machine.Value, 0, count)
	for i := 0; i < count; i++ {
		idx := base - i
		if idx < 0 || idx >= st.Len() {
			return nil, fmt.Errorf("saveargs: index %d out of range (length %d)", idx, st.Len())
		}
		args = append(args, st.At(idx))
	}
	vm.Current.Args = args
	return machine.Null, nil
}
