package ast

import (
	"fmt"
	"math/big"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// Define registers a typed literal under Name in the VM's global table,
// pinning it for the VM's lifetime (the `define NAME TYPE LITERAL`). The
// parser populates the table as it parses, so a `push define NAME` later in
// the same file resolves even before this node ever evaluates; Eval
// re-registers the same pinned value, which matters only for a tree built
// programmatically rather than through the parser.
type Define struct {
	node
	Name  string
	Value machine.Value
}

func NewDefine(pos token.Position, name string, v machine.Value) *Define {
	return &Define{node{pos}, name, v}
}
func (d *Define) String() string { return "define " + d.Name + " " + PushOperandSyntax(d.Value) }
func (d *Define) Type() string   { return "define" }

func (d *Define) Walk(visit func(machine.Value)) { visit(d.Value) }

func (d *Define) Eval(vm *machine.VM) (machine.Value, error) {
	vm.SetGlobal(d.Name, d.Value)
	return machine.Null, nil
}

// GlobalRef pushes the value registered under Name with `define` (the
// `push define NAME` form).
type GlobalRef struct {
	node
	Name string
}

func NewGlobalRef(pos token.Position, name string) *GlobalRef { return &GlobalRef{node{pos}, name} }
func (g *GlobalRef) String() string                              { return "push define " + g.Name }
func (g *GlobalRef) Type() string                                 { return "push" }

func (g *GlobalRef) Eval(vm *machine.VM) (machine.Value, error) {
	v, ok := vm.Global(g.Name)
	if !ok {
		return nil, fmt.Errorf("undefined name %q", g.Name)
	}
	vm.Stack().Push(v)
	return v, nil
}

// Nop does nothing.
type Nop struct{ node }

func NewNop(pos token.Position) *Nop { return &Nop{node{pos}} }
func (*Nop) String() string            { return "nop" }
func (*Nop) Type() string               { return "nop" }
func (n *Nop) Eval(vm *machine.VM) (machine.Value, error) { return machine.Null, nil }

// Module tags a region of the program with a name, used purely for
// diagnostics and externalization grouping (the `module NAME`); it has
// no runtime stack effect beyond pushing a Symbol naming it.
type Module struct {
	node
	Name string
}

func NewModule(pos token.Position, name string) *Module { return &Module{node{pos}, name} }
func (m *Module) String() string                           { return "module " + m.Name }
func (m *Module) Type() string                              { return "module" }

func (m *Module) Eval(vm *machine.VM) (machine.Value, error) {
	sym := machine.Intern(m.Name)
	vm.Stack().Push(sym)
	return sym, nil
}

// Dump writes the top of stack's textual representation to the VM's
// configured output writer without consuming it. Unlike step tracing it is
// not gated by the trace verbosity level: dump is the program asking for
// output, so it prints whenever a writer is attached at all.
type Dump struct{ node }

func NewDump(pos token.Position) *Dump { return &Dump{node{pos}} }
func (*Dump) String() string             { return "dump" }
func (*Dump) Type() string                { return "dump" }

func (d *Dump) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("dump: stack is empty")
	}
	v := st.Top()
	if vm.DumpStack {
		vm.Dump(d.pos, st.String())
	} else {
		vm.Dump(d.pos, v.String())
	}
	return v, nil
}

// Assert pops a Bool and fails evaluation with a diagnostic naming the
// assertion's source position if it is false (the `assert` instruction).
type Assert struct {
	node
	Message string
}

func NewAssert(pos token.Position, message string) *Assert { return &Assert{node{pos}, message} }
func (a *Assert) String() string {
	if a.Message == "" {
		return "assert"
	}
	return `assert "` + a.Message + `"`
}
func (a *Assert) Type() string                                { return "assert" }

func (a *Assert) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("assert: stack is empty")
	}
	cond, ok := st.Pop(1)[0].(machine.Bool)
	if !ok {
		return nil, fmt.Errorf("assert: expected bool condition")
	}
	if !cond {
		msg := a.Message
		if msg == "" {
			msg = "assertion failed"
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return machine.Null, nil
}

// GC forces an immediate mark-sweep collection cycle.
type GC struct{ node }

func NewGC(pos token.Position) *GC { return &GC{node{pos}} }
func (*GC) String() string           { return "gc" }
func (*GC) Type() string              { return "gc" }

func (g *GC) Eval(vm *machine.VM) (machine.Value, error) {
	vm.GC()
	return machine.Null, nil
}

// Precision pops an Int and sets it as the VM's default Float mantissa
// precision, in bits, for subsequently constructed Float values.
type Precision struct{ node }

func NewPrecision(pos token.Position) *Precision { return &Precision{node{pos}} }
func (*Precision) String() string                  { return "precision" }
func (*Precision) Type() string                     { return "precision" }

func (p *Precision) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("precision: stack is empty")
	}
	i, ok := st.Pop(1)[0].(*machine.Int)
	if !ok {
		return nil, fmt.Errorf("precision: expected int")
	}
	vm.FloatPrecision = uint(i.Big().Int64())
	return machine.Null, nil
}

// Epsilon pops a Float and sets it as the VM's relative-comparison
// tolerance for subsequent float equality checks.
type Epsilon struct{ node }

func NewEpsilon(pos token.Position) *Epsilon { return &Epsilon{node{pos}} }
func (*Epsilon) String() string                { return "epsilon" }
func (*Epsilon) Type() string                   { return "epsilon" }

func (e *Epsilon) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("epsilon: stack is empty")
	}
	f, ok := st.Pop(1)[0].(*machine.Float)
	if !ok {
		return nil, fmt.Errorf("epsilon: expected float")
	}
	vm.Epsilon = new(big.Float).Set(f.Big())
	return machine.Null, nil
}
