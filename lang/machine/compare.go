package machine

import (
	"fmt"
	"hash/fnv"
)

// sameType reports whether x and y have the same concrete dynamic type.
func sameType(x, y Value) bool {
	return fmt.Sprintf("%T", x) == fmt.Sprintf("%T", y)
}

// Equal reports whether x and y are equal under the language's `eq`
// semantics: numeric types compare via epsilon (floats) or exact value
// (ints), and mixed int/float comparison is rejected unless an
// explicit cast has already unified their types.
func Equal(vm *VM, x, y Value) (bool, error) {
	switch xv := x.(type) {
	case Bool:
		yv, ok := y.(Bool)
		return ok && xv == yv, nil
	case Char:
		yv, ok := y.(Char)
		return ok && xv == yv, nil
	case *Int:
		yv, ok := y.(*Int)
		if !ok {
			return false, mixedNumericError()
		}
		c, err := xv.Cmp(vm, yv)
		return c == 0, err
	case *Float:
		yv, ok := y.(*Float)
		if !ok {
			return false, mixedNumericError()
		}
		c, err := xv.Cmp(vm, yv)
		return c == 0, err
	case *String:
		yv, ok := y.(*String)
		return ok && xv.s == yv.s, nil
	case *Pair:
		yv, ok := y.(*Pair)
		if !ok {
			return false, nil
		}
		ea, err := Equal(vm, xv.A, yv.A)
		if err != nil || !ea {
			return false, err
		}
		return Equal(vm, xv.B, yv.B)
	case *Array:
		yv, ok := y.(*Array)
		if !ok || len(xv.elems) != len(yv.elems) {
			return false, nil
		}
		for i := range xv.elems {
			ok, err := Equal(vm, xv.elems[i], yv.elems[i])
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	default:
		// identity fallback, matching Same for types with no value semantics
		// (functions, pointers, containers with reference identity).
		return x == y, nil
	}
}

// mixedNumericError is returned whenever an int is compared to a float (or
// vice-versa) without an explicit cast.
func mixedNumericError() error {
	return fmt.Errorf("mixed int/float comparison requires an explicit cast")
}

// Compare implements the three-way `cmp`-family opcodes: it rejects
// differently-typed operands (including mixed int/float) before delegating
// to the operand's own Cmp, so every ordering opcode shares one diagnostic
// for type mismatches.
func Compare(vm *VM, x, y Value) (int, error) {
	xo, ok := x.(Ordered)
	if !ok {
		return 0, typeError("an orderable type", x)
	}
	if !sameType(x, y) {
		return 0, fmt.Errorf("cannot compare %s with %s", x.Type(), y.Type())
	}
	return xo.Cmp(vm, y)
}

// Same implements the `same` opcode: pointer-identity comparison, bypassing
// payload type checks entirely.
func Same(x, y Value) bool {
	xt, xok := asTracked(x)
	yt, yok := asTracked(y)
	if xok && yok {
		return xt.header() == yt.header()
	}
	if xok != yok {
		return false
	}
	return x == y
}

// Is implements the `is` opcode: type-identity comparison.
func Is(x, y Value) bool { return sameType(x, y) }

// Hash returns a hash consistent with Equal for hashable value types
// (int, float, bool, char, string), used to key UnorderedMap/UnorderedSet
// buckets. Containers are not hashable and return an error: only types
// with a well-defined value hash participate, everything else is rejected
// with an "unhashable type" error.
func Hash(v Value) (uint64, error) {
	h := fnv.New64a()
	switch t := v.(type) {
	case Bool:
		if t {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case Char:
		fmt.Fprintf(h, "c%d", t)
	case *Int:
		fmt.Fprintf(h, "i%s", t.v.String())
	case *Float:
		fmt.Fprintf(h, "f%s", t.v.Text('g', -1))
	case *String:
		h.Write([]byte(t.s))
	default:
		return 0, fmt.Errorf("unhashable type: %s", v.Type())
	}
	return h.Sum64(), nil
}
