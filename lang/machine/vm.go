package machine

import (
	"fmt"
	"math/big"

	"github.com/lakevm/lake/lang/token"
)

// VM is the process-wide interpreter state: the stack-of-stacks, the GC
// chain, the FFI registry and the numeric/tracing configuration.
type VM struct {
	// Root is the outermost function being run; it and its body stay pinned
	// for the lifetime of the VM so the mark phase always has a live entry
	// point even between calls.
	Root *FunctionData

	// Stacks is the stack-of-stacks: Stacks[len-1] is the currently active
	// stack. invoke pushes a fresh entry for an own-stack function and
	// otherwise reuses the caller's.
	Stacks []*Stack

	// Current is the function whose body is presently executing, or nil at
	// top level before the first Call.
	Current *FunctionData

	// pendingTailcall is set by the `invoke tail` opcode immediately before it
	// returns the TailcallReq sentinel, and consumed by invoke's trampoline
	// loop so a tail call never grows the Go call stack (
	// "Tail-call trampolining").
	pendingTailcall *FunctionData
	pendingArgs     []Value

	// active is the invocation keepalive list: every function currently
	// being run by invoke, outermost first. The mark phase walks these
	// unconditionally, since their pinned flag would otherwise stop it from
	// reaching values held only by their Args/Locals vectors.
	active []*FunctionData

	// Epsilon is the relative tolerance used by float comparisons.
	Epsilon *big.Float
	// FloatPrecision is the default mantissa precision, in bits, for newly
	// constructed Float values; 0 means DefaultPrecision.
	FloatPrecision uint

	// FreelistCap gates whether swept/removed objects are zeroed and
	// returned to the allocator pools for reuse by later constructors (any
	// value > 0 enables it); 0 disables recycling entirely, leaving every
	// destroyed object to the ordinary Go collector. The pools themselves
	// are runtime-managed (entries are dropped under memory pressure), so
	// no exact retention bound is enforced beyond this on/off gate.
	FreelistCap int

	gcHead      *gcHeader
	numObjects  int64
	gcThreshold int64
	gcActive    bool

	ffiLibs map[string]*FFILib
	FFI     FFILoader

	// TraceLevel gates Tracer output; 0 is silent.
	TraceLevel int
	Tracer     *Tracer

	// DumpStack makes the `dump` opcode print the whole active stack instead
	// of just its top value (the CLI's --tracestack flag).
	DumpStack bool

	// ExitCode is the code recorded by the `halt` opcode before it unwinds
	// evaluation; the driver passes it through as the process exit code.
	ExitCode int

	fileNames []string // process-wide file-index table,

	// Globals holds values registered with the `define` opcode, pinned for
	// the VM's lifetime and shared by every stack.
	Globals map[string]Value
}

// SetGlobal pins v and registers it under name, overwriting any previous
// definition (the `define NAME`).
func (vm *VM) SetGlobal(name string, v Value) {
	if vm.Globals == nil {
		vm.Globals = make(map[string]Value)
	}
	pin(v)
	vm.Globals[name] = v
}

// Global looks up a name registered with SetGlobal.
func (vm *VM) Global(name string) (Value, bool) {
	v, ok := vm.Globals[name]
	return v, ok
}

// Trace forwards to the VM's configured Tracer, gated by TraceLevel.
func (vm *VM) Trace(pos token.Position, msg string) {
	if vm.TraceLevel <= 0 {
		return
	}
	vm.Tracer.trace(pos, msg)
}

// TraceStep writes a per-opcode execution trace line. Step tracing is the
// chattiest tier, so it only fires at trace level 2 and above; level 1
// keeps program-requested dump output without the per-step noise.
func (vm *VM) TraceStep(pos token.Position, msg string) {
	if vm.TraceLevel < 2 {
		return
	}
	vm.Tracer.trace(pos, msg)
}

// Dump writes a program-requested output line (the `dump` opcode),
// whenever a Tracer output writer is configured, regardless of
// TraceLevel.
func (vm *VM) Dump(pos token.Position, msg string) {
	vm.Tracer.dump(pos, msg)
}

// New returns a ready-to-use VM with GC enabled, the default float epsilon
// and an unimplemented FFI loader (callers needing real foreign calls must
// replace VM.FFI before running any `ffi` opcode).
func New() *VM {
	return &VM{
		Stacks:      []*Stack{NewStack()},
		Epsilon:     DefaultEpsilon(),
		gcThreshold: 4096,
		gcActive:    true,
		ffiLibs:     make(map[string]*FFILib),
		FFI:         UnimplementedFFILoader{},
		Tracer:      &Tracer{},
	}
}

// AddFile registers name in the process-wide file table and returns its
// index, used by token.Position values produced during parsing.
func (vm *VM) AddFile(name string) int {
	vm.fileNames = append(vm.fileNames, name)
	return len(vm.fileNames) - 1
}

// FileName returns the name registered at index, or "" if out of range.
func (vm *VM) FileName(index int) string {
	if index < 0 || index >= len(vm.fileNames) {
		return ""
	}
	return vm.fileNames[index]
}

// activeStack returns the stack at the top of the stack-of-stacks.
func (vm *VM) activeStack() *Stack {
	return vm.Stacks[len(vm.Stacks)-1]
}

// Stack returns the currently active stack, the one opcodes push to and
// pop from (package ast's node types call this on every stack operation).
func (vm *VM) Stack() *Stack { return vm.activeStack() }

// StackBelow returns the stack directly below the active one in the
// stack-of-stacks, used by `lift`/`sink` to move values across an
// own-stack function boundary. It returns nil if the active stack has
// nothing below it.
func (vm *VM) StackBelow() *Stack {
	if len(vm.Stacks) < 2 {
		return nil
	}
	return vm.Stacks[len(vm.Stacks)-2]
}

// RootStack returns the outermost stack in the stack-of-stacks, the target
// of `root` addressing.
func (vm *VM) RootStack() *Stack {
	if len(vm.Stacks) == 0 {
		return nil
	}
	return vm.Stacks[0]
}

// ParentStack returns the n-th stack below the active one (n == 0 is the
// stack immediately below), the target of `parent N` addressing.
func (vm *VM) ParentStack(n int) (*Stack, error) {
	idx := len(vm.Stacks) - 2 - n
	if n < 0 || idx < 0 {
		return nil, fmt.Errorf("parent addressing: no stack %d levels below the active one", n)
	}
	return vm.Stacks[idx], nil
}

// RequestTailcall records fn and args as the pending tail call and returns
// the TailcallReq sentinel; the `invoke tail` opcode's Eval should simply
// return vm.RequestTailcall(target, args).
func (vm *VM) RequestTailcall(fn *FunctionData, args []Value) Value {
	vm.pendingTailcall = fn
	vm.pendingArgs = args
	return TailcallReq
}

// Call invokes fn with args from outside any running evaluation (the
// embedding application's entry point, and package ast's implementation of
// the `invoke` and `accumulate` opcodes).
func (vm *VM) Call(fn *FunctionData, args []Value) (Value, error) {
	fn.Args = args
	return vm.invoke(fn)
}

// Run wraps body (typically a parsed file's top-level expression list) in
// an anonymous, shared-stack root function, installs it as vm.Root so the
// GC mark phase always has a live entry point into the program even
// between top-level statements (see gc.go's markChildren special-casing of
// Root), and calls it. This is the entry point an embedder (or a test)
// uses to drive a freshly parsed program; a nested `function` literal
// opcode still goes through Invoke/Tail/Call as usual.
func (vm *VM) Run(body OperationNode) (Value, error) {
	root := NewFunction("", body, false)
	vm.Root = root
	return vm.invoke(root)
}

// invoke runs fn's body to completion, trampolining through any tail calls
// requested via RequestTailcall so that a tail-recursive assembly function
// runs in constant Go stack depth.
//
// Sequence per call: arrange the active stack (push fn's own stack, or mark
// a new frame base on the caller's stack), pin fn and its body for the
// duration of the call, evaluate the body, then unwind in the reverse
// order. A TailcallReq result causes the loop to swap in the next function
// instead of returning, after unwinding the just-finished call's frame.
func (vm *VM) invoke(fn *FunctionData) (Value, error) {
	for {
		ownStack := fn.OwnStack
		var st *Stack
		if ownStack {
			st = fn.Stack
			if st == nil {
				st = NewStack()
				fn.Stack = st
			}
			vm.Stacks = append(vm.Stacks, st)
		} else {
			st = vm.activeStack()
			st.PushFrame()
		}

		fnHeader := fn.header()
		fnWasPinned := fnHeader.pinned
		fnHeader.pinned = true
		var bodyWasPinned bool
		if bh, ok := asTracked(fn.Body); ok {
			bodyWasPinned = bh.header().pinned
			bh.header().pinned = true
		}

		prevCurrent := vm.Current
		vm.Current = fn
		vm.active = append(vm.active, fn)

		for i, a := range fn.Args {
			if i < len(fn.Locals) {
				fn.Locals[i] = a
			} else {
				fn.Locals = append(fn.Locals, a)
			}
		}

		result, err := fn.Body.Eval(vm)

		vm.active = vm.active[:len(vm.active)-1]
		vm.Current = prevCurrent
		if !fnWasPinned {
			fnHeader.pinned = false
		}
		if bh, ok := asTracked(fn.Body); ok && !bodyWasPinned {
			bh.header().pinned = false
		}

		if ownStack {
			vm.Stacks = vm.Stacks[:len(vm.Stacks)-1]
		} else {
			st.PopFrame()
		}

		vm.gcIfNeeded()

		if err != nil {
			return nil, err
		}

		if result == TailcallReq {
			fn = vm.pendingTailcall
			fn.Args = vm.pendingArgs
			vm.pendingTailcall = nil
			vm.pendingArgs = nil
			continue
		}

		return result, nil
	}
}
