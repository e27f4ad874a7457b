package parser

import (
	"github.com/lakevm/lake/lang/ast"
	"github.com/lakevm/lake/lang/token"
)

// parseAddrMode consumes one of the addressing keywords and returns the
// ast.AddrMode it denotes (the `load`/`store`/`accumulate` addressing
// operand).
func (p *parser) parseAddrMode() ast.AddrMode {
	switch p.tok {
	case token.ABS:
		p.advance()
		return ast.AddrAbs
	case token.REL:
		p.advance()
		return ast.AddrRel
	case token.ROOT:
		p.advance()
		return ast.AddrRoot
	case token.PARENT:
		p.advance()
		return ast.AddrParent
	case token.LOCAL:
		p.advance()
		return ast.AddrLocal
	case token.ARG:
		p.advance()
		return ast.AddrArg
	case token.COMMIT:
		p.advance()
		return ast.AddrCommit
	case token.INT:
		// No mode keyword: a bare integer operand is the top-relative mode.
		// Leave the token for parseIntOperand.
		return ast.AddrTop
	default:
		p.errorExpected([]token.Token{token.ABS, token.REL, token.ROOT, token.PARENT, token.LOCAL, token.ARG, token.COMMIT, token.INT})
		panic(errPanicMode)
	}
}
