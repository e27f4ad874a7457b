package parser

import (
	"unsafe"

	"github.com/lakevm/lake/lang/ast"
	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

var (
	typedValueToks = []token.Token{
		token.TY_INT, token.TY_FLOAT, token.TY_STRING, token.TY_CHAR, token.TY_BOOL,
		token.TY_OBJECT, token.TY_PTR, token.TY_ARRAY, token.TY_UMAP, token.TY_USET, token.TY_PAIR,
	}
	pushOperandToks = append([]token.Token{token.DEFINE, token.FUNCTION}, typedValueToks...)
)

// parsePush parses the operand of a `push` opcode: `push define NAME` looks
// up the define table, `push function ...` constructs a function literal,
// and every other form is `push TYPE VALUE` (see parseTypedValue).
func (p *parser) parsePush(pos token.Position) machine.OperationNode {
	switch p.tok {
	case token.DEFINE:
		p.advance()
		name := p.parseIdent()
		return ast.NewGlobalRef(pos, name)
	case token.FUNCTION:
		p.advance()
		return p.parseFunctionLit(pos)
	case token.TY_INT, token.TY_FLOAT, token.TY_STRING, token.TY_CHAR, token.TY_BOOL,
		token.TY_OBJECT, token.TY_PTR, token.TY_PAIR, token.TY_ARRAY, token.TY_UMAP, token.TY_USET:
		return ast.NewLiteral(pos, p.parseTypedValue())
	default:
		p.errorExpected(pushOperandToks)
		panic(errPanicMode)
	}
}

// parseTypedValue parses the `TYPE VALUE` operand form shared by `push` and
// `define`: a type keyword followed by either the keyword `null` (yielding
// TYPE's variant null) or a literal appropriate to TYPE, returning the
// Value it denotes.
func (p *parser) parseTypedValue() machine.Value {
	switch p.tok {
	case token.TY_INT:
		p.advance()
		if p.tok == token.NULL {
			p.advance()
			return machine.NullInt
		}
		lit := p.expect(token.INT)
		n, err := parseIntLiteral(lit)
		if err != nil {
			p.errorf("%v", err)
			return machine.Zero
		}
		return machine.NewInt(n)
	case token.TY_FLOAT:
		p.advance()
		if p.tok == token.NULL {
			p.advance()
			return machine.NullFloat
		}
		lit := p.expect(token.FLOAT)
		f, err := parseFloatLiteral(lit)
		if err != nil {
			p.errorf("%v", err)
			return machine.NullFloat
		}
		return machine.NewFloat(p.vm, f)
	case token.TY_STRING:
		p.advance()
		if p.tok == token.NULL {
			p.advance()
			return machine.NullString
		}
		return machine.NewString(p.expect(token.STRING))
	case token.TY_CHAR:
		p.advance()
		if p.tok == token.NULL {
			p.advance()
			return machine.Char(0)
		}
		lit := p.expect(token.CHAR)
		r := rune(0)
		for _, c := range lit {
			r = c
			break
		}
		return machine.Char(r)
	case token.TY_BOOL:
		p.advance()
		switch p.tok {
		case token.NULL:
			p.advance()
			return machine.False
		case token.TRUE:
			p.advance()
			return machine.True
		case token.FALSE:
			p.advance()
			return machine.False
		default:
			p.errorExpected([]token.Token{token.NULL, token.TRUE, token.FALSE})
			panic(errPanicMode)
		}
	case token.TY_OBJECT:
		// An object literal is always the generic null object; the value
		// token that follows must be `null`.
		p.advance()
		p.expect(token.NULL)
		return machine.Null
	case token.TY_PTR:
		p.advance()
		if p.tok == token.NULL {
			p.advance()
			return machine.NullPointer
		}
		lit := p.expect(token.INT)
		n, err := parseIntLiteral(lit)
		if err != nil {
			p.errorf("%v", err)
			return machine.NullPointer
		}
		addr := unsafe.Pointer(uintptr(n.Int64())) //nolint:govet
		return machine.NewPointer(addr, false)
	case token.TY_PAIR:
		p.advance()
		if p.tok == token.NULL {
			p.advance()
			return machine.NullPair
		}
		// The value is consumed but discarded: a non-null pair literal is
		// always constructed with both slots empty.
		p.parseIntOperand()
		return machine.NewPair(machine.Null, machine.Null)
	case token.TY_ARRAY:
		p.advance()
		if p.tok == token.NULL {
			p.advance()
			return machine.NullArray
		}
		n := p.parseIntOperand()
		var elems []machine.Value
		if n > 1 {
			elems = make([]machine.Value, 0, n)
		}
		return machine.NewArray(elems)
	case token.TY_UMAP:
		p.advance()
		if p.tok == token.NULL {
			p.advance()
			return machine.NullMap
		}
		return machine.NewMap(p.parseIntOperand())
	case token.TY_USET:
		p.advance()
		if p.tok == token.NULL {
			p.advance()
			return machine.NullSet
		}
		return machine.NewSet(p.parseIntOperand())
	default:
		p.errorExpected(typedValueToks)
		panic(errPanicMode)
	}
}

// ffiTypeOf maps a `_uintN`/`_sintN`/... type keyword to its FFIType
// constant.
func ffiTypeOf(tok token.Token) (machine.FFIType, bool) {
	switch tok {
	case token.TY_VOID:
		return machine.FFIVoid, true
	case token.TY_UINT8:
		return machine.FFIUint8, true
	case token.TY_UINT16:
		return machine.FFIUint16, true
	case token.TY_UINT32:
		return machine.FFIUint32, true
	case token.TY_UINT64:
		return machine.FFIUint64, true
	case token.TY_SINT8:
		return machine.FFISint8, true
	case token.TY_SINT16:
		return machine.FFISint16, true
	case token.TY_SINT32:
		return machine.FFISint32, true
	case token.TY_SINT64:
		return machine.FFISint64, true
	case token.TY_UCHAR:
		return machine.FFIUchar, true
	case token.TY_USHORT:
		return machine.FFIUshort, true
	case token.TY_UINT:
		return machine.FFIUint, true
	case token.TY_ULONG:
		return machine.FFIUlong, true
	case token.TY_SCHAR:
		return machine.FFISchar, true
	case token.TY_SSHORT:
		return machine.FFISshort, true
	case token.TY_SINT:
		return machine.FFISint, true
	case token.TY_SLONG:
		return machine.FFISlong, true
	case token.TY_FLOAT_NATIVE:
		return machine.FFIFloat, true
	case token.TY_DOUBLE:
		return machine.FFIDouble, true
	case token.TY_PTR_NATIVE:
		return machine.FFIPtr, true
	default:
		return 0, false
	}
}

var ffiTypeToks = []token.Token{
	token.TY_VOID, token.TY_UINT8, token.TY_UINT16, token.TY_UINT32, token.TY_UINT64,
	token.TY_SINT8, token.TY_SINT16, token.TY_SINT32, token.TY_SINT64,
	token.TY_UCHAR, token.TY_USHORT, token.TY_UINT, token.TY_ULONG,
	token.TY_SCHAR, token.TY_SSHORT, token.TY_SINT, token.TY_SLONG,
	token.TY_FLOAT_NATIVE, token.TY_DOUBLE, token.TY_PTR_NATIVE,
}

// parseFFIType consumes one FFI primitive type keyword.
func (p *parser) parseFFIType() machine.FFIType {
	t, ok := ffiTypeOf(p.tok)
	if !ok {
		p.errorExpected(ffiTypeToks)
		panic(errPanicMode)
	}
	p.advance()
	return t
}
