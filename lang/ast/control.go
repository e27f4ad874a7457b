package ast

import (
	"fmt"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// IfExpr is one link of a conditional chain: evaluate Guard (if any) to
// leave a Bool on the active stack, pop it, and run Then when it is true;
// otherwise fall through to Else. An `else if` parses as an Else list
// holding a single nested IfExpr, so a whole chain is a linked sequence of
// these nodes; a plain terminal `else { ... }` is an Else list with no
// guard of its own. A nil Guard means the condition was left on the stack
// by the preceding operations rather than computed inline.
type IfExpr struct {
	node
	Guard      *ExprList
	Then, Else *ExprList
}

func NewIfExpr(pos token.Position, guard, then, els *ExprList) *IfExpr {
	return &IfExpr{node{pos}, guard, then, els}
}

func (i *IfExpr) String() string { return "if" }
func (i *IfExpr) Type() string   { return "if" }

func (i *IfExpr) Walk(visit func(machine.Value)) {
	if i.Guard != nil {
		visit(i.Guard)
	}
	visit(i.Then)
	if i.Else != nil {
		visit(i.Else)
	}
}

func (i *IfExpr) Eval(vm *machine.VM) (machine.Value, error) {
	if i.Guard != nil {
		if _, err := i.Guard.Eval(vm); err != nil {
			return nil, err
		}
	}
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("if: stack is empty")
	}
	cond, ok := st.Pop(1)[0].(machine.Bool)
	if !ok {
		return nil, fmt.Errorf("if: expected bool condition")
	}
	if cond {
		return i.Then.Eval(vm)
	}
	if i.Else != nil {
		return i.Else.Eval(vm)
	}
	return machine.Null, nil
}

// RepeatSignal is the bare `repeat` opcode (and its `repeat true` / `repeat
// false` variants): it does nothing itself but yield one of the
// machine.Repeat / RepeatIfTrue / RepeatIfFalse sentinels, which only
// matters because of what ExprList.Eval does when it sees one returned from
// a child — when this is the last opcode run in an `if` (or
// any other) body, that enclosing list restarts from its own first
// expression, the mechanism the language uses for looping (there is no
// dedicated loop block; `repeat` is itself the result of the list it
// appears in, not a nested construct).
type RepeatSignal struct {
	node
	// If nil, this is a bare `repeat` (unconditional). Otherwise it is
	// `repeat true` or `repeat false`, conditioned on the Bool this value
	// points to.
	Cond *bool
}

func NewRepeatSignal(pos token.Position, cond *bool) *RepeatSignal {
	return &RepeatSignal{node{pos}, cond}
}

func (r *RepeatSignal) String() string {
	if r.Cond == nil {
		return "repeat"
	}
	if *r.Cond {
		return "repeat true"
	}
	return "repeat false"
}
func (r *RepeatSignal) Type() string { return "repeat" }

func (r *RepeatSignal) Eval(vm *machine.VM) (machine.Value, error) {
	if r.Cond == nil {
		return machine.Repeat, nil
	}
	if *r.Cond {
		return machine.RepeatIfTrue, nil
	}
	return machine.RepeatIfFalse, nil
}

// Invoke pops a value from the active stack and evaluates it: a function's
// body runs (using the caller's stack unless the function's OwnStack flag
// says otherwise, honored by invoke in package machine), an operation value
// runs as a first-class snippet, and plain data evaluates to itself with no
// further effect.
type Invoke struct{ node }

func NewInvoke(pos token.Position) *Invoke { return &Invoke{node{pos}} }
func (*Invoke) String() string               { return "invoke" }
func (*Invoke) Type() string                  { return "invoke" }
func (i *Invoke) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("invoke: stack is empty")
	}
	v := st.Pop(1)[0]
	switch t := v.(type) {
	case *machine.FunctionData:
		return vm.Call(t, t.Args)
	case machine.OperationNode:
		return t.Eval(vm)
	default:
		return v, nil
	}
}

// Tail pops a Callable and requests a tail call: the currently running
// function's invoke loop swaps it in without growing the Go call stack.
type Tail struct{ node }

func NewTail(pos token.Position) *Tail { return &Tail{node{pos}} }
func (*Tail) String() string             { return "invoke tail" }
func (*Tail) Type() string                { return "tail" }
func (t *Tail) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("tail: stack is empty")
	}
	fn, ok := st.Pop(1)[0].(*machine.FunctionData)
	if !ok {
		return nil, fmt.Errorf("tail: expected function")
	}
	return vm.RequestTailcall(fn, fn.Args), nil
}

// Unwind raises: it returns the raise-request sentinel, which the nearest
// enclosing checkpointed ExprList catches and resumes from its checkpoint;
// an ExprList with no checkpoint propagates it further up, eventually
// escaping the current invocation if nothing catches it.
type Unwind struct{ node }

func NewUnwind(pos token.Position) *Unwind { return &Unwind{node{pos}} }
func (*Unwind) String() string               { return "unwind" }
func (*Unwind) Type() string                  { return "unwind" }
func (u *Unwind) Eval(vm *machine.VM) (machine.Value, error) {
	return machine.RaiseRequest, nil
}

// Checkpoint marks the position the parser records as its enclosing
// ExprList's ErrorLabelIndex (see parser.parseExprList); evaluating it just
// yields the error-label sentinel, which ExprList.Eval passes over silently.
type Checkpoint struct{ node }

func NewCheckpoint(pos token.Position) *Checkpoint { return &Checkpoint{node{pos}} }
func (*Checkpoint) String() string                   { return "checkpoint" }
func (*Checkpoint) Type() string                      { return "checkpoint" }
func (c *Checkpoint) Eval(vm *machine.VM) (machine.Value, error) {
	return machine.ErrorLabel, nil
}

// Halt requests that evaluation stop entirely and control return to the
// embedding application (the `halt [code]`), propagated the same way as
// exit-request from ExprList.Eval all the way up through invoke. The exit
// code is the literal operand if one was written, otherwise the Int on top
// of the stack if there is one, otherwise 0; it is recorded on the VM for
// the driver to pass through as the process exit code.
type Halt struct {
	node
	Code *int
}

func NewHalt(pos token.Position, code *int) *Halt { return &Halt{node{pos}, code} }
func (h *Halt) String() string {
	if h.Code != nil {
		return fmt.Sprintf("halt %d", *h.Code)
	}
	return "halt"
}
func (*Halt) Type() string { return "halt" }
func (h *Halt) Eval(vm *machine.VM) (machine.Value, error) {
	switch {
	case h.Code != nil:
		vm.ExitCode = *h.Code
	default:
		st := vm.Stack()
		if i, ok := st.Top().(*machine.Int); ok {
			st.Pop(1)
			vm.ExitCode = int(i.Big().Int64())
		} else {
			vm.ExitCode = 0
		}
	}
	return machine.ExitRequest, nil
}
