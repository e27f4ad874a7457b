package ast

import (
	"fmt"
	"math/big"
	"unsafe"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// cStringFromPointer copies a NUL-terminated byte sequence starting at addr
// into a Go string (pointer→string cast: copies the underlying
// NUL-terminated bytes). A nil pointer yields the empty string.
func cStringFromPointer(addr unsafe.Pointer) string {
	if addr == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(addr, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(addr), n))
}

// Cast pops the top of stack and converts it to Target, pushing the
// result (the `cast TYPE`): int, float, string, char, bool, function, and
// pointer→string all go through here. `cast struct` is implemented
// separately in ffi.go (CastFFIStruct) since it reads foreign memory
// through a struct-layout descriptor rather than converting a Value alone.
type Cast struct {
	node
	Target token.Token
}

func NewCast(pos token.Position, target token.Token) *Cast { return &Cast{node{pos}, target} }
func (c *Cast) String() string                               { return "cast " + c.Target.String() }
func (c *Cast) Type() string                                  { return "cast" }

func (c *Cast) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("cast: stack is empty")
	}
	v := st.Pop(1)[0]
	r, err := castTo(vm, c.Target, v)
	if err != nil {
		return nil, err
	}
	st.Push(r)
	return r, nil
}

func castTo(vm *machine.VM, target token.Token, v machine.Value) (machine.Value, error) {
	switch target {
	case token.TY_INT:
		switch t := v.(type) {
		case *machine.Int:
			return t, nil
		case *machine.Float:
			i, _ := t.Big().Int(nil)
			return machine.NewInt(i), nil
		case *machine.String:
			// base 0 auto-detects the radix from the string's leading characters
			// (0x/0X hex, 0b/0B binary, 0o/0O or a bare leading 0 octal,
			// decimal otherwise), the same rule the
			// parser's own integer literals use.
			i, ok := new(big.Int).SetString(t.Go(), 0)
			if !ok {
				return nil, fmt.Errorf("cast int: %q is not a valid integer literal", t.Go())
			}
			return machine.NewInt(i), nil
		case machine.Char:
			return machine.NewIntFromInt64(int64(t)), nil
		case machine.Bool:
			if t {
				return machine.One, nil
			}
			return machine.Zero, nil
		}
	case token.TY_FLOAT:
		switch t := v.(type) {
		case *machine.Float:
			return t, nil
		case *machine.Int:
			f := new(big.Float).SetInt(t.Big())
			return machine.NewFloat(vm, f), nil
		case *machine.String:
			f, _, err := big.ParseFloat(t.Go(), 10, 0, big.ToNearestEven)
			if err != nil {
				return nil, fmt.Errorf("cast float: %q is not a valid float literal", t.Go())
			}
			return machine.NewFloat(vm, f), nil
		}
	case token.TY_STRING:
		if ptr, ok := v.(*machine.Pointer); ok {
			s := machine.NewString(cStringFromPointer(ptr.Addr))
			vm.Track(s)
			return s, nil
		}
		s := machine.NewString(v.String())
		vm.Track(s)
		return s, nil
	case token.FUNCTION:
		s, ok := v.(*machine.String)
		if !ok {
			return nil, fmt.Errorf("cast function: expected string, got %s", v.Type())
		}
		if machine.SourceParser == nil {
			return nil, fmt.Errorf("cast function: no source parser configured")
		}
		body, err := machine.SourceParser(vm, "<cast>", []byte(s.Go()))
		if err != nil {
			return nil, fmt.Errorf("cast function: %w", err)
		}
		fn := machine.NewFunction("", body, false)
		vm.Track(fn)
		return fn, nil
	case token.TY_CHAR:
		switch t := v.(type) {
		case machine.Char:
			return t, nil
		case *machine.Int:
			return machine.Char(rune(t.Big().Int64())), nil
		}
	case token.TY_BOOL:
		switch t := v.(type) {
		case machine.Bool:
			return t, nil
		case *machine.Int:
			return machine.Bool(t.Big().Sign() != 0), nil
		case *machine.String:
			switch t.Go() {
			case "true":
				return machine.Bool(true), nil
			case "false":
				return machine.Bool(false), nil
			}
			return nil, fmt.Errorf("cast bool: %q is neither \"true\" nor \"false\"", t.Go())
		}
	}
	return nil, fmt.Errorf("cast %s: cannot convert from %s", target, v.Type())
}
