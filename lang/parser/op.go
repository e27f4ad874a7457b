package parser

import (
	"github.com/lakevm/lake/lang/ast"
	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// parseOp parses one opcode line. A malformed operation is recovered here
// (rather than unwinding the whole file): the error is already recorded by
// expect/errorExpected, parsing resynchronizes at the next safe token, and
// a Nop stands in for the broken operation so the rest of the file is
// still checked.
func (p *parser) parseOp() (op machine.OperationNode) {
	pos := p.pos

	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			p.syncToNext()
			op = ast.NewNop(pos)
		}
	}()

	switch p.tok {
	case token.PUSH:
		p.advance()
		return p.parsePush(pos)

	case token.POP:
		p.advance()
		return ast.NewPop(pos, p.parseIntOperand())
	case token.REMOVE:
		p.advance()
		return ast.NewRemove(pos, p.parseIntOperand())
	case token.DUP:
		p.advance()
		return ast.NewDup(pos)
	case token.COPY:
		p.advance()
		return ast.NewCopy(pos)
	case token.SWAP:
		p.advance()
		return ast.NewSwap(pos)
	case token.LIFT:
		p.advance()
		return ast.NewLift(pos, p.parseIntOperand())
	case token.SINK:
		p.advance()
		return ast.NewSink(pos, p.parseIntOperand())
	case token.SQUASH:
		p.advance()
		return ast.NewSquash(pos, p.parseIntOperand())
	case token.RESERVE:
		p.advance()
		return ast.NewReserve(pos, p.parseIntOperand())
	case token.CLEAR:
		p.advance()
		if p.tok == token.FRAME {
			p.advance()
			return ast.NewClearFrame(pos)
		}
		return ast.NewClear(pos)
	case token.SIZE:
		p.advance()
		return ast.NewSize(pos)
	case token.FRAME:
		p.advance()
		return ast.NewFrame(pos)

	case token.LOAD:
		p.advance()
		mode := p.parseAddrMode()
		return ast.NewLoad(pos, mode, p.parseIntOperand())
	case token.STORE:
		p.advance()
		mode := p.parseAddrMode()
		return ast.NewStore(pos, mode, p.parseIntOperand())
	case token.COMMIT:
		p.advance()
		return ast.NewCommit(pos)
	case token.COMMITINDEX:
		p.advance()
		return ast.NewCommitIndex(pos)
	case token.REVERT:
		p.advance()
		return ast.NewRevert(pos)

	case token.INC, token.DEC, token.NEG, token.NOT:
		op := p.tok
		p.advance()
		return ast.NewUnaryOp(pos, op)
	case token.ADD, token.SUB, token.MUL, token.DIV, token.AND, token.OR:
		op := p.tok
		p.advance()
		return ast.NewBinaryOp(pos, op)
	case token.ACCUMULATE:
		p.advance()
		return ast.NewAccumulate(pos)

	case token.LT, token.GT, token.LE, token.GE, token.EQ, token.NE:
		op := p.tok
		p.advance()
		return ast.NewCompareOp(pos, op)
	case token.SAME:
		p.advance()
		return ast.NewSameOp(pos)
	case token.IS:
		p.advance()
		return ast.NewIsOp(pos)

	case token.IF:
		p.advance()
		return p.parseIf(pos)
	case token.REPEAT:
		p.advance()
		switch p.tok {
		case token.TRUE:
			p.advance()
			cond := true
			return ast.NewRepeatSignal(pos, &cond)
		case token.FALSE:
			p.advance()
			cond := false
			return ast.NewRepeatSignal(pos, &cond)
		default:
			return ast.NewRepeatSignal(pos, nil)
		}
	case token.INVOKE:
		p.advance()
		if p.tok == token.TAIL {
			p.advance()
			return ast.NewTail(pos)
		}
		return ast.NewInvoke(pos)
	case token.TAIL:
		// Bare `tail` is accepted as shorthand for the canonical
		// `invoke tail` spelling the externalizer re-emits.
		p.advance()
		return ast.NewTail(pos)
	case token.UNWIND:
		p.advance()
		return ast.NewUnwind(pos)
	case token.CHECKPOINT:
		p.advance()
		return ast.NewCheckpoint(pos)
	case token.HALT:
		p.advance()
		if p.tok == token.INT {
			code := p.parseIntOperand()
			return ast.NewHalt(pos, &code)
		}
		return ast.NewHalt(pos, nil)

	case token.FUNCTION:
		p.advance()
		return p.parseFunctionLit(pos)
	case token.CURRENT:
		p.advance()
		return ast.NewCurrent(pos)
	case token.SETCREATOR:
		p.advance()
		return ast.NewSetCreator(pos)
	case token.SAVEARGS:
		p.advance()
		return ast.NewSaveArgs(pos)

	case token.CAST:
		p.advance()
		return p.parseCast(pos)

	case token.COLL:
		p.advance()
		return p.parseColl(pos)
	case token.FOREACH:
		p.advance()
		return ast.NewForeach(pos, p.parseBlock())

	case token.PRECISION:
		p.advance()
		return ast.NewPrecision(pos)
	case token.EPSILON:
		p.advance()
		return ast.NewEpsilon(pos)

	case token.FFI:
		p.advance()
		return p.parseFFI(pos)

	case token.DEFINE:
		p.advance()
		name := p.parseIdent()
		v := p.parseTypedValue()
		// Definitions are parse-time: register (and pin) the value now so a
		// `push define NAME` later in the file resolves no matter when, or
		// whether, the Define node itself evaluates.
		p.vm.SetGlobal(name, v)
		return ast.NewDefine(pos, name, v)
	case token.NOP:
		p.advance()
		return ast.NewNop(pos)
	case token.MODULE:
		p.advance()
		return ast.NewModule(pos, p.parseIdent())
	case token.DUMP:
		p.advance()
		return ast.NewDump(pos)
	case token.ASSERT:
		p.advance()
		msg := ""
		if p.tok == token.STRING {
			msg = p.lit
			p.advance()
		}
		return ast.NewAssert(pos, msg)
	case token.GC:
		p.advance()
		return ast.NewGC(pos)

	default:
		p.errorExpected([]token.Token{token.PUSH, token.POP, token.IF, token.FUNCTION})
		panic(errPanicMode)
	}
}

var collOpToks = []token.Token{
	token.GET, token.PUT, token.APPEND, token.INSERT, token.DEL, token.CONTAINS,
	token.REVERSE, token.SIZE, token.CLEAR, token.PROJECTION, token.SPREAD, token.RSPREAD,
}

// parseColl parses a `coll` sub-operation: the dispatch is on the value's
// runtime variant at evaluation time, not on a type keyword here.
func (p *parser) parseColl(pos token.Position) machine.OperationNode {
	switch p.tok {
	case token.GET:
		p.advance()
		return ast.NewGet(pos)
	case token.PUT:
		p.advance()
		return ast.NewPut(pos)
	case token.APPEND:
		p.advance()
		return ast.NewAppend(pos)
	case token.INSERT:
		p.advance()
		return ast.NewInsert(pos)
	case token.DEL:
		p.advance()
		return ast.NewDel(pos)
	case token.CONTAINS:
		p.advance()
		return ast.NewContains(pos)
	case token.REVERSE:
		p.advance()
		return ast.NewReverse(pos)
	case token.SIZE:
		p.advance()
		return ast.NewCollSize(pos)
	case token.CLEAR:
		p.advance()
		return ast.NewCollClear(pos)
	case token.PROJECTION:
		p.advance()
		return ast.NewProjectionOp(pos)
	case token.SPREAD:
		p.advance()
		return ast.NewSpread(pos, false)
	case token.RSPREAD:
		p.advance()
		return ast.NewSpread(pos, true)
	default:
		p.errorExpected(collOpToks)
		panic(errPanicMode)
	}
}

// parseCast parses `cast TYPE`: every language-level variant type goes
// through ast.Cast, while `cast struct` reads foreign memory through a
// Pointer and an ffi-struct descriptor instead (see ast.CastFFIStruct).
func (p *parser) parseCast(pos token.Position) machine.OperationNode {
	switch p.tok {
	case token.STRUCT:
		p.advance()
		return ast.NewCastFFIStruct(pos)
	case token.TY_INT, token.TY_FLOAT, token.TY_STRING, token.TY_CHAR, token.TY_BOOL, token.FUNCTION:
		target := p.tok
		p.advance()
		return ast.NewCast(pos, target)
	default:
		p.errorExpected([]token.Token{token.TY_INT, token.TY_FLOAT, token.TY_STRING, token.TY_CHAR, token.TY_BOOL, token.FUNCTION, token.STRUCT})
		panic(errPanicMode)
	}
}

// parseIf parses one link of a conditional chain: an optional
// paren-delimited guard list, the braced body, and an optional `else`
// continuation — either a terminal `else { ... }` block, or `else if ...`,
// which recurses here and wraps the nested link in a one-element ExprList
// so the whole chain is uniformly ExprList-shaped.
func (p *parser) parseIf(pos token.Position) machine.OperationNode {
	var guard *ast.ExprList
	if p.tok == token.LPAREN {
		p.advance()
		guard = p.parseExprList(token.RPAREN)
		p.expect(token.RPAREN)
	}
	then := p.parseBlock()
	var els *ast.ExprList
	if p.tok == token.ELSE {
		p.advance()
		if p.tok == token.IF {
			ifPos := p.pos
			p.advance()
			link := p.parseIf(ifPos)
			els = ast.NewExprList(ifPos, []machine.OperationNode{link})
		} else {
			els = p.parseBlock()
		}
	}
	return ast.NewIfExpr(pos, guard, then, els)
}

func (p *parser) parseFunctionLit(pos token.Position) machine.OperationNode {
	ownStack := false
	isDtor := false
	for {
		switch p.tok {
		case token.WITHSTACK:
			ownStack = true
			p.advance()
			continue
		case token.DTOR:
			isDtor = true
			p.advance()
			continue
		}
		break
	}
	name := ""
	if p.tok == token.IDENT {
		name = p.lit
		p.advance()
	}
	body := p.parseBlock()
	return ast.NewFunctionLit(pos, name, body, ownStack, isDtor)
}

func (p *parser) parseFFI(pos token.Position) machine.OperationNode {
	switch p.tok {
	case token.LIB:
		p.advance()
		return ast.NewFFILib(pos, p.parseIdent())
	case token.SYM:
		p.advance()
		alias := p.parseIdent()
		name := p.parseIdent()
		p.expect(token.LPAREN)
		var args []machine.FFIType
		for p.tok != token.RPAREN && p.tok != token.EOF {
			args = append(args, p.parseFFIType())
		}
		p.expect(token.RPAREN)
		ret := p.parseFFIType()
		return ast.NewFFISym(pos, alias, name, args, ret)
	case token.CALL:
		p.advance()
		return ast.NewFFICall(pos)
	case token.STRUCT:
		p.advance()
		name := p.parseIdent()
		p.expect(token.LBRACE)
		var fields []struct {
			Name string
			Type machine.FFIType
		}
		for p.tok != token.RBRACE && p.tok != token.EOF {
			fname := p.parseIdent()
			ftype := p.parseFFIType()
			fields = append(fields, struct {
				Name string
				Type machine.FFIType
			}{fname, ftype})
		}
		p.expect(token.RBRACE)
		return ast.NewFFIStruct(pos, name, fields)
	default:
		p.errorExpected([]token.Token{token.LIB, token.SYM, token.CALL, token.STRUCT})
		panic(errPanicMode)
	}
}
