// Package parser implements a recursive-descent parser that turns the
// textual assembly syntax into the node tree defined by package ast. Its
// per-operation error recovery — a panic carrying a sentinel value,
// recovered one level up to synchronize to the next safe token and
// continue parsing the rest of the file — follows the same pattern as
// recursive-descent parsers in the standard library (see parser.expect
// and parseOp's recover).
package parser

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/lakevm/lake/lang/ast"
	"github.com/lakevm/lake/lang/lexer"
	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

func init() {
	machine.SourceParser = func(vm *machine.VM, filename string, src []byte) (machine.OperationNode, error) {
		return Parse(vm, filename, src)
	}
}

// Parse tokenizes and parses src as a single assembly source file, using vm
// to construct literal Values (so parse-time literals share the same
// small-int cache and True/False/Null singletons evaluation does). The
// returned ExprList is the program's top-level body; a non-nil error is
// always a token.ErrorList.
func Parse(vm *machine.VM, filename string, src []byte) (*ast.ExprList, error) {
	errs := &token.ErrorList{}
	p := &parser{vm: vm, errs: errs, lex: lexer.New(filename, src, errs)}
	p.advance()
	body := p.parseExprList(token.EOF)
	errs.Sort()
	return body, errs.Err()
}

// parser holds the mutable state of a single parse: the lexer, the
// current lookahead token, and the diagnostic sink both it and the lexer
// feed into.
type parser struct {
	vm   *machine.VM
	lex  *lexer.Lexer
	errs *token.ErrorList

	tok token.Token
	lit string
	pos token.Position
}

func (p *parser) advance() {
	lx := p.lex.Next()
	p.tok, p.lit, p.pos = lx.Tok, lx.Lit, lx.Pos
}

// errPanicMode is the sentinel parseOp's recover() checks for; any other
// panic value propagates normally (a real bug, not a syntax error).
var errPanicMode = fmt.Errorf("parser: panic mode")

// expect consumes the current token if it is one of toks and returns its
// text, or records a diagnostic and unwinds the current operation via
// errPanicMode otherwise.
func (p *parser) expect(toks ...token.Token) string {
	for _, t := range toks {
		if p.tok == t {
			lit := p.lit
			p.advance()
			return lit
		}
	}
	p.errorExpected(toks)
	panic(errPanicMode)
}

func (p *parser) errorExpected(toks []token.Token) {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			b.WriteString(" or ")
		}
		b.WriteString(t.String())
	}
	lit := p.lit
	if lit == "" {
		lit = p.tok.String()
	}
	p.errs.Addf(p.pos, "expected %s, found %q", b.String(), lit)
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.errs.Addf(p.pos, format, args...)
}

// syncToNext skips tokens until a NEWLINE, RBRACE or EOF is reached,
// leaving that token unconsumed, so the caller's loop can resume parsing
// the next operation (or close the enclosing brace) cleanly after a
// malformed one.
func (p *parser) syncToNext() {
	for p.tok != token.NEWLINE && p.tok != token.RBRACE && p.tok != token.EOF {
		p.advance()
	}
}

// parseExprList parses operations until end or EOF is reached, skipping
// NEWLINE separators; it does not consume end itself, leaving that to the
// caller (parseBlock for "{ ... }" bodies, Parse for the top-level file).
func (p *parser) parseExprList(end token.Token) *ast.ExprList {
	pos := p.pos
	var exprs []machine.OperationNode
	errorLabelIndex := -1
	for p.tok != end && p.tok != token.EOF {
		if p.tok == token.NEWLINE {
			p.advance()
			continue
		}
		if x := p.parseOp(); x != nil {
			if _, ok := x.(*ast.Checkpoint); ok {
				errorLabelIndex = len(exprs)
			}
			exprs = append(exprs, x)
		}
	}
	list := ast.NewExprList(pos, exprs)
	list.ErrorLabelIndex = errorLabelIndex
	return list
}

// parseBlock parses a brace-delimited ExprList: "{" operations... "}".
func (p *parser) parseBlock() *ast.ExprList {
	p.expect(token.LBRACE)
	body := p.parseExprList(token.RBRACE)
	p.expect(token.RBRACE)
	return body
}

// parseIntOperand parses a required small integer operand (an opcode count
// or index), not an arbitrary-precision pushed int literal.
func (p *parser) parseIntOperand() int {
	lit := p.expect(token.INT)
	n, err := lexer.ParseIntLiteral(lit)
	if err != nil {
		p.errorf("invalid integer operand %q: %v", lit, err)
		return 0
	}
	return int(n)
}

func (p *parser) parseIdent() string {
	return p.expect(token.IDENT)
}

func parseIntLiteral(lit string) (*big.Int, error) {
	i, ok := new(big.Int).SetString(lit, 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer literal %q", lit)
	}
	return i, nil
}

func parseFloatLiteral(lit string) (*big.Float, error) {
	f, _, err := big.ParseFloat(strings.Replace(lit, "@", "e", 1), 10, 0, big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("invalid float literal %q: %w", lit, err)
	}
	return f, nil
}
