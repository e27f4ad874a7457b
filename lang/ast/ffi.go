package ast

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// FFILib pops a string path and registers it under Alias (the `ffi lib`).
type FFILib struct {
	node
	Alias string
}

func NewFFILib(pos token.Position, alias string) *FFILib { return &FFILib{node{pos}, alias} }
func (f *FFILib) String() string                           { return "ffi lib " + f.Alias }
func (f *FFILib) Type() string                              { return "ffi-lib" }

func (f *FFILib) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("ffi lib: stack is empty")
	}
	path, ok := st.Pop(1)[0].(*machine.String)
	if !ok {
		return nil, fmt.Errorf("ffi lib: expected string path")
	}
	if err := vm.LoadLib(f.Alias, path.Go()); err != nil {
		return nil, err
	}
	return machine.Null, nil
}

// FFISym resolves Name in the library registered under Alias, with the
// given argument/return type signature, and pushes the resulting
// FFISymbol (the `ffi sym`).
type FFISym struct {
	node
	Alias    string
	Name     string
	ArgTypes []machine.FFIType
	RetType  machine.FFIType
}

func NewFFISym(pos token.Position, alias, name string, args []machine.FFIType, ret machine.FFIType) *FFISym {
	return &FFISym{node{pos}, alias, name, args, ret}
}

func (f *FFISym) String() string {
	var b strings.Builder
	b.WriteString("ffi sym ")
	b.WriteString(f.Alias)
	b.WriteByte(' ')
	b.WriteString(f.Name)
	b.WriteString(" (")
	for i, t := range f.ArgTypes {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.String())
	}
	b.WriteString(") ")
	b.WriteString(f.RetType.String())
	return b.String()
}
func (f *FFISym) Type() string { return "ffi-sym" }

func (f *FFISym) Eval(vm *machine.VM) (machine.Value, error) {
	sym, err := vm.ResolveSymbol(f.Alias, f.Name, f.ArgTypes, f.RetType)
	if err != nil {
		return nil, err
	}
	vm.Track(sym)
	vm.Stack().Push(sym)
	return sym, nil
}

// FFICall pops an FFISymbol and its declared argument count of values from
// the active stack and performs the foreign call, pushing its result
// (the `ffi call`).
type FFICall struct{ node }

func NewFFICall(pos token.Position) *FFICall { return &FFICall{node{pos}} }
func (*FFICall) String() string                { return "ffi call" }
func (*FFICall) Type() string                   { return "ffi-call" }

func (c *FFICall) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("ffi call: stack is empty")
	}
	sym, ok := st.Pop(1)[0].(*machine.FFISymbol)
	if !ok {
		return nil, fmt.Errorf("ffi call: expected ffi-symbol")
	}
	n := len(sym.ArgTypes)
	if st.Len() < n {
		return nil, fmt.Errorf("ffi call %s: needs %d arguments, has %d", sym.Name, n, st.Len())
	}
	args := st.Pop(n)
	result, err := vm.CallSymbol(sym, args)
	if err != nil {
		return nil, err
	}
	st.Push(result)
	return result, nil
}

// FFIStruct declares a named foreign aggregate layout with the given
// fields and pushes the resulting FFIStruct descriptor (the `ffi struct`
// instruction).
type FFIStruct struct {
	node
	Name   string
	Fields []struct {
		Name string
		Type machine.FFIType
	}
}

func NewFFIStruct(pos token.Position, name string, fields []struct {
	Name string
	Type machine.FFIType
}) *FFIStruct {
	return &FFIStruct{node{pos}, name, fields}
}

func (s *FFIStruct) String() string {
	var b strings.Builder
	b.WriteString("ffi struct ")
	b.WriteString(s.Name)
	b.WriteString(" {")
	for _, f := range s.Fields {
		b.WriteByte(' ')
		b.WriteString(f.Name)
		b.WriteByte(' ')
		b.WriteString(f.Type.String())
	}
	b.WriteString(" }")
	return b.String()
}
func (s *FFIStruct) Type() string { return "ffi-struct" }

func (s *FFIStruct) Eval(vm *machine.VM) (machine.Value, error) {
	desc := machine.NewFFIStruct(s.Name, s.Fields)
	vm.Track(desc)
	vm.Stack().Push(desc)
	return desc, nil
}

// CastFFIStruct pops (ptr, ffi-struct descriptor) and reads the pointed-to
// foreign memory into a fresh Array of field values, laid out according to
// the descriptor (the `cast struct`, the one cast target that reads
// through a Pointer rather than converting a Value in place).
type CastFFIStruct struct{ node }

func NewCastFFIStruct(pos token.Position) *CastFFIStruct { return &CastFFIStruct{node{pos}} }
func (*CastFFIStruct) String() string                      { return "cast struct" }
func (*CastFFIStruct) Type() string                         { return "cast" }

func (c *CastFFIStruct) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 2 {
		return nil, fmt.Errorf("cast ffi-struct: needs 2 operands, has %d", st.Len())
	}
	ops := st.Pop(2)
	ptr, ok := ops[0].(*machine.Pointer)
	if !ok {
		return nil, fmt.Errorf("cast ffi-struct: expected ptr")
	}
	desc, ok := ops[1].(*machine.FFIStruct)
	if !ok {
		return nil, fmt.Errorf("cast ffi-struct: expected ffi-struct descriptor")
	}
	elems := make([]machine.Value, len(desc.Fields))
	for i, f := range desc.Fields {
		v, err := readFFIField(ptr.Addr, f)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	a := machine.NewArray(elems)
	vm.Track(a)
	st.Push(a)
	return a, nil
}

func readFFIField(base unsafe.Pointer, f machine.FFIField) (machine.Value, error) {
	if base == nil {
		return nil, fmt.Errorf("cast ffi-struct: null pointer")
	}
	addr := unsafe.Add(base, f.Offset)
	switch f.Type {
	case machine.FFIUint8, machine.FFIUchar:
		return machine.NewIntFromInt64(int64(*(*uint8)(addr))), nil
	case machine.FFISint8, machine.FFISchar:
		return machine.NewIntFromInt64(int64(*(*int8)(addr))), nil
	case machine.FFIUint16, machine.FFIUshort:
		return machine.NewIntFromInt64(int64(*(*uint16)(addr))), nil
	case machine.FFISint16, machine.FFISshort:
		return machine.NewIntFromInt64(int64(*(*int16)(addr))), nil
	case machine.FFIUint32, machine.FFIUint:
		return machine.NewIntFromInt64(int64(*(*uint32)(addr))), nil
	case machine.FFISint32, machine.FFISint:
		return machine.NewIntFromInt64(int64(*(*int32)(addr))), nil
	case machine.FFIUint64, machine.FFIUlong:
		return machine.NewIntFromInt64(int64(*(*uint64)(addr))), nil
	case machine.FFISint64, machine.FFISlong:
		return machine.NewIntFromInt64(*(*int64)(addr)), nil
	default:
		return nil, fmt.Errorf("cast ffi-struct: unsupported field type for %q", f.Name)
	}
}
