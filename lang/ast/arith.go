package ast

import (
	"fmt"
	"math/big"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// BinaryOp applies a two-operand arithmetic or logical opcode: it pops the
// right operand then the left, and pushes the result. Op is one of
// token.ADD, SUB, MUL, DIV, AND, OR.
type BinaryOp struct {
	node
	Op token.Token
}

func NewBinaryOp(pos token.Position, op token.Token) *BinaryOp { return &BinaryOp{node{pos}, op} }
func (b *BinaryOp) String() string                              { return b.Op.String() }
func (b *BinaryOp) Type() string                                 { return "binop" }

func (b *BinaryOp) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 2 {
		return nil, fmt.Errorf("%s: needs 2 operands, has %d", b.Op, st.Len())
	}
	ops := st.Pop(2)
	x, y := ops[0], ops[1]

	if b.Op == token.AND || b.Op == token.OR {
		xb, ok := x.(machine.Bool)
		if !ok {
			return nil, fmt.Errorf("%s: expected bool, got %s", b.Op, x.Type())
		}
		yb, ok := y.(machine.Bool)
		if !ok {
			return nil, fmt.Errorf("%s: expected bool, got %s", b.Op, y.Type())
		}
		var r machine.Bool
		if b.Op == token.AND {
			r = xb && yb
		} else {
			r = xb || yb
		}
		st.Push(r)
		return r, nil
	}

	result, err := arith(vm, b.Op, x, y)
	if err != nil {
		return nil, err
	}
	st.Push(result)
	return result, nil
}

func arith(vm *machine.VM, op token.Token, x, y machine.Value) (machine.Value, error) {
	switch xi := x.(type) {
	case *machine.Int:
		yi, ok := y.(*machine.Int)
		if !ok {
			return nil, fmt.Errorf("%s: mixed int/%s operands require an explicit cast", op, y.Type())
		}
		r := new(big.Int)
		switch op {
		case token.ADD:
			r.Add(xi.Big(), yi.Big())
		case token.SUB:
			r.Sub(xi.Big(), yi.Big())
		case token.MUL:
			r.Mul(xi.Big(), yi.Big())
		case token.DIV:
			if yi.Big().Sign() == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			r.Quo(xi.Big(), yi.Big())
		default:
			return nil, fmt.Errorf("unsupported int operator %s", op)
		}
		return machine.NewInt(r), nil
	case *machine.Float:
		yf, ok := y.(*machine.Float)
		if !ok {
			return nil, fmt.Errorf("%s: mixed float/%s operands require an explicit cast", op, y.Type())
		}
		r := new(big.Float)
		switch op {
		case token.ADD:
			r.Add(xi.Big(), yf.Big())
		case token.SUB:
			r.Sub(xi.Big(), yf.Big())
		case token.MUL:
			r.Mul(xi.Big(), yf.Big())
		case token.DIV:
			if yf.Big().Sign() == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			r.Quo(xi.Big(), yf.Big())
		default:
			return nil, fmt.Errorf("unsupported float operator %s", op)
		}
		return machine.NewFloat(vm, r), nil
	default:
		return nil, fmt.Errorf("%s: expected int or float, got %s", op, x.Type())
	}
}

// UnaryOp applies a single-operand arithmetic opcode in place: Op is one of
// token.INC, DEC, NEG, NOT.
type UnaryOp struct {
	node
	Op token.Token
}

func NewUnaryOp(pos token.Position, op token.Token) *UnaryOp { return &UnaryOp{node{pos}, op} }
func (u *UnaryOp) String() string                             { return u.Op.String() }
func (u *UnaryOp) Type() string                                { return "unop" }

func (u *UnaryOp) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 1 {
		return nil, fmt.Errorf("%s: stack is empty", u.Op)
	}
	x := st.Pop(1)[0]

	if u.Op == token.NOT {
		xb, ok := x.(machine.Bool)
		if !ok {
			return nil, fmt.Errorf("not: expected bool, got %s", x.Type())
		}
		r := !xb
		st.Push(r)
		return r, nil
	}

	switch xi := x.(type) {
	case *machine.Int:
		r := new(big.Int)
		switch u.Op {
		case token.INC:
			r.Add(xi.Big(), big.NewInt(1))
		case token.DEC:
			r.Sub(xi.Big(), big.NewInt(1))
		case token.NEG:
			r.Neg(xi.Big())
		default:
			return nil, fmt.Errorf("unsupported int operator %s", u.Op)
		}
		v := machine.NewInt(r)
		st.Push(v)
		return v, nil
	case *machine.Float:
		r := new(big.Float)
		switch u.Op {
		case token.INC:
			r.Add(xi.Big(), big.NewFloat(1))
		case token.DEC:
			r.Sub(xi.Big(), big.NewFloat(1))
		case token.NEG:
			r.Neg(xi.Big())
		default:
			return nil, fmt.Errorf("unsupported float operator %s", u.Op)
		}
		v := machine.NewFloat(vm, r)
		st.Push(v)
		return v, nil
	default:
		return nil, fmt.Errorf("%s: expected int or float, got %s", u.Op, x.Type())
	}
}

// Accumulate pops a function, an initial value, a count N and N
// collections/values, flattens them (recursing through array/set/
// projection so a mix of bare values and nested collections folds
// uniformly), then folds left over the flattened elements: for each element
// e it pushes e, then the running accumulator, then calls the function, and
// the call's result becomes the new accumulator (the `accumulate`). The
// final accumulator is pushed.
type Accumulate struct{ node }

func NewAccumulate(pos token.Position) *Accumulate { return &Accumulate{node{pos}} }

func (a *Accumulate) String() string { return "accumulate" }
func (a *Accumulate) Type() string   { return "accumulate" }

func (a *Accumulate) Eval(vm *machine.VM) (machine.Value, error) {
	st := vm.Stack()
	if st.Len() < 3 {
		return nil, fmt.Errorf("accumulate: needs at least 3 operands, has %d", st.Len())
	}
	fn, ok := st.Pop(1)[0].(*machine.FunctionData)
	if !ok {
		return nil, fmt.Errorf("accumulate: expected function")
	}
	acc := st.Pop(1)[0]
	countVal, ok := st.Pop(1)[0].(*machine.Int)
	if !ok {
		return nil, fmt.Errorf("accumulate: expected int count")
	}
	count := int(countVal.Big().Int64())
	if count < 0 {
		return nil, fmt.Errorf("accumulate: negative count %d", count)
	}
	if st.Len() < count {
		return nil, fmt.Errorf("accumulate: needs %d collection operands, has %d", count, st.Len())
	}
	operands := st.Pop(count)

	var elems []machine.Value
	for _, v := range operands {
		elems = flattenAccumulate(v, elems)
	}

	for _, e := range elems {
		st.Push(e)
		st.Push(acc)
		result, err := vm.Call(fn, fn.Args)
		if err != nil {
			return nil, err
		}
		acc = result
	}
	st.Push(acc)
	return acc, nil
}

// flattenAccumulate appends v to elems, recursing into arrays, sets and
// projections so an accumulate operand that is itself a nested collection
// folds over its leaves rather than over the collection value itself.
func flattenAccumulate(v machine.Value, elems []machine.Value) []machine.Value {
	switch c := v.(type) {
	case *machine.Array:
		for _, e := range c.Elems() {
			elems = flattenAccumulate(e, elems)
		}
	case *machine.Set:
		for _, e := range c.Items() {
			elems = flattenAccumulate(e, elems)
		}
	case *machine.Projection:
		for i := 0; i < c.Len(); i++ {
			elems = flattenAccumulate(c.Index(i), elems)
		}
	default:
		elems = append(elems, v)
	}
	return elems
}
