package machine

import "fmt"

// FFIType enumerates the native type descriptors the assembly language uses
// for foreign aggregate layout and call signatures (the
// `_void _uint8 ... _ptr` keyword set).
type FFIType uint8

//nolint:revive
const (
	FFIVoid FFIType = iota
	FFIUint8
	FFIUint16
	FFIUint32
	FFIUint64
	FFISint8
	FFISint16
	FFISint32
	FFISint64
	FFIUchar
	FFIUshort
	FFIUint
	FFIUlong
	FFISchar
	FFISshort
	FFISint
	FFISlong
	FFIFloat
	FFIDouble
	FFIPtr
)

var ffiTypeNames = [...]string{
	FFIVoid: "_void",
	FFIUint8: "_uint8", FFIUint16: "_uint16", FFIUint32: "_uint32", FFIUint64: "_uint64",
	FFISint8: "_sint8", FFISint16: "_sint16", FFISint32: "_sint32", FFISint64: "_sint64",
	FFIUchar: "_uchar", FFIUshort: "_ushort", FFIUint: "_uint", FFIUlong: "_ulong",
	FFISchar: "_schar", FFISshort: "_sshort", FFISint: "_sint", FFISlong: "_slong",
	FFIFloat: "_float", FFIDouble: "_double", FFIPtr: "_ptr",
}

// String returns t's keyword spelling in the assembly grammar.
func (t FFIType) String() string {
	if int(t) < len(ffiTypeNames) {
		return ffiTypeNames[t]
	}
	return fmt.Sprintf("FFIType(%d)", t)
}

// sizeOf returns the in-memory size, in bytes, of t, used to compute field
// offsets for FFIStruct layouts.
func (t FFIType) sizeOf() int {
	switch t {
	case FFIUint8, FFISint8, FFIUchar, FFISchar, FFIVoid:
		return 1
	case FFIUint16, FFISint16, FFIUshort, FFISshort:
		return 2
	case FFIUint32, FFISint32, FFIUint, FFISint, FFIFloat:
		return 4
	default:
		return 8
	}
}

// FFIField describes one member of a foreign struct layout.
type FFIField struct {
	Name   string
	Type   FFIType
	Offset int
}

// FFIStruct is the runtime descriptor for a declared foreign aggregate
// layout (the `struct` keyword), used by `cast struct` to read memory
// pointed to by a Pointer value into an Array of field values.
type FFIStruct struct {
	gcHeader
	Name   string
	Fields []FFIField
	Size   int
}

var _ trackedValue = (*FFIStruct)(nil)

func (s *FFIStruct) header() *gcHeader { return &s.gcHeader }
func (s *FFIStruct) Walk(func(Value))  {}
func (s *FFIStruct) destroy()          {}
func (s *FFIStruct) String() string    { return "ffi-struct(" + s.Name + ")" }
func (s *FFIStruct) Type() string      { return "ffi-struct" }

// NewFFIStruct computes field offsets (naturally packed, no padding) and
// returns the descriptor.
func NewFFIStruct(name string, fields []struct {
	Name string
	Type FFIType
}) *FFIStruct {
	s := &FFIStruct{Name: name}
	off := 0
	for _, f := range fields {
		s.Fields = append(s.Fields, FFIField{Name: f.Name, Type: f.Type, Offset: off})
		off += f.Type.sizeOf()
	}
	s.Size = off
	return s
}

// FFISymbol is a resolved foreign symbol: a library alias, exported name,
// and the call signature needed to marshal arguments (the `ffi sym`
// instruction).
type FFISymbol struct {
	gcHeader
	LibAlias string
	Name     string
	ArgTypes []FFIType
	RetType  FFIType
	handle   uintptr
}

var _ trackedValue = (*FFISymbol)(nil)

func (s *FFISymbol) header() *gcHeader { return &s.gcHeader }
func (s *FFISymbol) Walk(func(Value))  {}
func (s *FFISymbol) destroy()          {}
func (s *FFISymbol) String() string    { return "ffi-symbol(" + s.Name + ")" }
func (s *FFISymbol) Type() string      { return "ffi-symbol" }

// FFILib is a registry entry for a loaded foreign library, keyed by the
// alias given in the `ffi lib` instruction.
type FFILib struct {
	Alias  string
	Path   string
	handle FFIHandle
}

// FFIHandle is the opaque handle a loader hands back for an opened library.
type FFIHandle interface {
	Close() error
}

// FFILoader is the external collaborator that actually performs
// dynamic-library loading, symbol resolution and native calls. The
// calling-convention-level implementation stays out of the core: the core
// specifies and tests the opcode contract (registry bookkeeping, struct
// layout reading) against any FFILoader, including a fake one in tests; a
// real implementation (dlopen/LoadLibrary plus a native call trampoline)
// is supplied by the embedding application.
type FFILoader interface {
	Open(path string) (FFIHandle, error)
	Symbol(h FFIHandle, name string) (uintptr, error)
	Call(sym *FFISymbol, addr uintptr, args []Value) (Value, error)
}

// UnimplementedFFILoader is the zero-value loader a VM starts with: every
// method fails with a clear diagnostic instead of silently doing nothing.
type UnimplementedFFILoader struct{}

func (UnimplementedFFILoader) Open(path string) (FFIHandle, error) {
	return nil, fmt.Errorf("ffi: no native loader configured, cannot open %q", path)
}
func (UnimplementedFFILoader) Symbol(FFIHandle, string) (uintptr, error) {
	return 0, fmt.Errorf("ffi: no native loader configured")
}
func (UnimplementedFFILoader) Call(sym *FFISymbol, _ uintptr, _ []Value) (Value, error) {
	return nil, fmt.Errorf("ffi: no native loader configured, cannot call %q", sym.Name)
}

// LoadLib registers alias -> path using the VM's configured FFILoader,
// failing if the alias is already registered (the `ffi lib` instruction).
func (vm *VM) LoadLib(alias, path string) error {
	if _, ok := vm.ffiLibs[alias]; ok {
		return fmt.Errorf("ffi: library alias %q already registered", alias)
	}
	h, err := vm.FFI.Open(path)
	if err != nil {
		return err
	}
	vm.ffiLibs[alias] = &FFILib{Alias: alias, Path: path, handle: h}
	return nil
}

// ResolveSymbol resolves name in the library registered under alias and
// returns a usable FFISymbol (the `ffi sym`).
func (vm *VM) ResolveSymbol(alias, name string, argTypes []FFIType, ret FFIType) (*FFISymbol, error) {
	lib, ok := vm.ffiLibs[alias]
	if !ok {
		return nil, fmt.Errorf("ffi: no library registered under alias %q", alias)
	}
	addr, err := vm.FFI.Symbol(lib.handle, name)
	if err != nil {
		return nil, err
	}
	return &FFISymbol{LibAlias: alias, Name: name, ArgTypes: argTypes, RetType: ret, handle: addr}, nil
}

// CallSymbol performs the foreign call (the `ffi call`).
func (vm *VM) CallSymbol(sym *FFISymbol, args []Value) (Value, error) {
	return vm.FFI.Call(sym, sym.handle, args)
}
