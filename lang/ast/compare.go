package ast

import (
	"fmt"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// CompareOp applies an ordering opcode (lt/gt/le/ge) or an equality opcode
// (eq/ne), popping both operands and pushing a Bool result.
type CompareOp struct {
	node
	Op token.Token
}

func NewCompareOp(pos token.Position, op token.Token) *CompareOp { return &CompareOp{node{pos}, op} }
func (c *CompareOp) String() string                               { return c.Op.String() }
func (c *CompareOp) Type() string                                  { return "compare" }

func (c *CompareOp) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 2 {
		return nil, fmt.Errorf("%s: needs 2 operands, has %d", c.Op, st.Len())
	}
	ops := st.Pop(2)
	x, y := ops[0], ops[1]

	var r machine.Bool
	switch c.Op {
	case token.EQ, token.NE:
		eq, err := machine.Equal(vm, x, y)
		if err != nil {
			return nil, err
		}
		r = machine.Bool(eq)
		if c.Op == token.NE {
			r = !r
		}
	default:
		cmp, err := machine.Compare(vm, x, y)
		if err != nil {
			return nil, err
		}
		switch c.Op {
		case token.LT:
			r = cmp < 0
		case token.GT:
			r = cmp > 0
		case token.LE:
			r = cmp <= 0
		case token.GE:
			r = cmp >= 0
		default:
			return nil, fmt.Errorf("unsupported comparison operator %s", c.Op)
		}
	}
	st.Push(r)
	return r, nil
}

// SameOp implements the `same` opcode: pointer-identity comparison.
type SameOp struct{ node }

func NewSameOp(pos token.Position) *SameOp { return &SameOp{node{pos}} }
func (*SameOp) String() string               { return "same" }
func (*SameOp) Type() string                  { return "same" }
func (s *SameOp) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 2 {
		return nil, fmt.Errorf("same: needs 2 operands, has %d", st.Len())
	}
	ops := st.Pop(2)
	r := machine.Bool(machine.Same(ops[0], ops[1]))
	st.Push(r)
	return r, nil
}

// IsOp implements the `is` opcode: type-identity comparison.
type IsOp struct{ node }

func NewIsOp(pos token.Position) *IsOp { return &IsOp{node{pos}} }
func (*IsOp) String() string             { return "is" }
func (*IsOp) Type() string                { return "is" }
func (i *IsOp) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 2 {
		return nil, fmt.Errorf("is: needs 2 operands, has %d", st.Len())
	}
	ops := st.Pop(2)
	r := machine.Bool(machine.Is(ops[0], ops[1]))
	st.Push(r)
	return r, nil
}
