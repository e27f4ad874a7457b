// Package externalize re-emits a parsed expression tree as canonical
// assembly text: parsing that text again yields a tree whose further
// externalization is a fixed point. Most opcode nodes already
// carry a faithful String() form usable for diagnostics, but three things
// need this package's own printer rather than a flat String() walk:
// block-bearing nodes (if/else, repeat, foreach, function) must re-emit
// their bodies recursively with braces and indentation, push operands need
// type-keyword-led, quote-wrapped literal syntax instead of a value's raw
// dump form, and anonymous functions need a generated name since the grammar has
// no way to write a nameless one back out other than via "function { ... }"
// (valid, but then re-parsing can't distinguish it from any other anonymous
// literal at the same position for identity purposes downstream).
package externalize

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lakevm/lake/lang/ast"
	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// printer accumulates canonical source text. anon is shared across an
// entire Program/Function call so nested anonymous functions each get a
// distinct generated name.
type printer struct {
	buf  strings.Builder
	anon int
}

// Program externalizes a top-level expression tree (e.g. a parsed file's
// body, or a FunctionData's Body field) with no enclosing braces.
func Program(body machine.OperationNode) string {
	p := &printer{}
	p.list(asExprList(body), 0)
	return p.buf.String()
}

// Function externalizes fn as a `function ... { ... }` literal, the form
// usable wherever a nested function literal opcode is expected.
func Function(fn *machine.FunctionData) string {
	p := &printer{}
	p.writeIndent(0)
	p.functionHeader(fn.Name, fn.OwnStack, fn.IsDtor)
	p.buf.WriteString(" {\n")
	p.list(asExprList(fn.Body), 1)
	p.writeIndent(0)
	p.buf.WriteString("}\n")
	return p.buf.String()
}

func asExprList(op machine.OperationNode) *ast.ExprList {
	if op == nil {
		return ast.NewExprList(token.Position{}, nil)
	}
	if l, ok := op.(*ast.ExprList); ok {
		return l
	}
	return ast.NewExprList(op.Pos(), []machine.OperationNode{op})
}

func (p *printer) writeIndent(depth int) {
	for i := 0; i < depth; i++ {
		p.buf.WriteString("  ")
	}
}

func (p *printer) list(l *ast.ExprList, depth int) {
	for _, op := range l.Exprs {
		p.op(op, depth)
	}
}

func (p *printer) op(op machine.OperationNode, depth int) {
	switch x := op.(type) {
	case *ast.Literal:
		p.writeIndent(depth)
		p.buf.WriteString("push ")
		p.buf.WriteString(formatPushValue(x.Value))
		p.buf.WriteByte('\n')
	case *ast.IfExpr:
		p.writeIndent(depth)
		p.ifChain(x, depth)
		p.buf.WriteByte('\n')
	case *ast.Foreach:
		p.writeIndent(depth)
		p.buf.WriteString("foreach {\n")
		p.list(x.Body, depth+1)
		p.writeIndent(depth)
		p.buf.WriteString("}\n")
	case *ast.FunctionLit:
		name := x.Name
		if name == "" {
			name = p.freshName()
		}
		p.writeIndent(depth)
		p.functionHeader(name, x.OwnStack, x.IsDtor)
		p.buf.WriteString(" {\n")
		p.list(x.Body, depth+1)
		p.writeIndent(depth)
		p.buf.WriteString("}\n")
	default:
		p.writeIndent(depth)
		p.buf.WriteString(op.String())
		p.buf.WriteByte('\n')
	}
}

// ifChain prints one conditional-chain link and its else continuation,
// flattening a nested else-if link (an Else list holding exactly one
// IfExpr, the shape the parser builds) back into the `else if` spelling it
// came from. The caller has already written this link's indentation; the
// trailing newline is the caller's too.
func (p *printer) ifChain(x *ast.IfExpr, depth int) {
	p.buf.WriteString("if ")
	if x.Guard != nil {
		p.buf.WriteByte('(')
		for i, g := range x.Guard.Exprs {
			if i > 0 {
				p.buf.WriteString("; ")
			}
			p.buf.WriteString(g.String())
		}
		p.buf.WriteString(") ")
	}
	p.buf.WriteString("{\n")
	p.list(x.Then, depth+1)
	p.writeIndent(depth)
	p.buf.WriteString("}")
	if x.Else == nil {
		return
	}
	if next, ok := elseIfLink(x.Else); ok {
		p.buf.WriteString(" else ")
		p.ifChain(next, depth)
		return
	}
	p.buf.WriteString(" else {\n")
	p.list(x.Else, depth+1)
	p.writeIndent(depth)
	p.buf.WriteString("}")
}

func elseIfLink(els *ast.ExprList) (*ast.IfExpr, bool) {
	if len(els.Exprs) != 1 {
		return nil, false
	}
	next, ok := els.Exprs[0].(*ast.IfExpr)
	return next, ok
}

func (p *printer) functionHeader(name string, ownStack, isDtor bool) {
	p.buf.WriteString("function")
	if ownStack {
		p.buf.WriteString(" withstack")
	}
	if isDtor {
		p.buf.WriteString(" dtor")
	}
	if name != "" {
		p.buf.WriteString(" ")
		p.buf.WriteString(name)
	}
}

// freshName generates a name for an anonymous function literal, distinct
// within this printer's run. Only letters, digits and underscore are valid
// in an identifier, so this cannot collide with a "$"-style gensym
// convention borrowed from another language.
func (p *printer) freshName() string {
	name := fmt.Sprintf("__anon%d", p.anon)
	p.anon++
	return name
}

// yamlNode is a debug-only nested view of an expression tree, distinct
// from the canonical textual form Program produces: it exists for tooling
// that wants a structured dump (the CLI's `--externalize-format=yaml`),
// not for re-parsing, so Program's fixed-point guarantee does not apply
// to it.
type yamlNode struct {
	Op       string     `yaml:"op"`
	Pos      string     `yaml:"pos,omitempty"`
	Value    string     `yaml:"value,omitempty"`
	Guard    []yamlNode `yaml:"guard,omitempty"`
	Then     []yamlNode `yaml:"then,omitempty"`
	Else     []yamlNode `yaml:"else,omitempty"`
	Body     []yamlNode `yaml:"body,omitempty"`
	Children []yamlNode `yaml:"children,omitempty"`
}

// YAML renders body as a debug YAML tree. It is a secondary, tooling-only
// external representation alongside Program's canonical assembly text.
func YAML(body machine.OperationNode) (string, error) {
	nodes := toYAMLNodes(asExprList(body))
	out, err := yaml.Marshal(nodes)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func toYAMLNodes(l *ast.ExprList) []yamlNode {
	nodes := make([]yamlNode, 0, len(l.Exprs))
	for _, op := range l.Exprs {
		nodes = append(nodes, toYAMLNode(op))
	}
	return nodes
}

func toYAMLNode(op machine.OperationNode) yamlNode {
	n := yamlNode{Op: op.Type(), Pos: op.Pos().String()}
	switch x := op.(type) {
	case *ast.Literal:
		n.Value = formatPushValue(x.Value)
	case *ast.IfExpr:
		if x.Guard != nil {
			n.Guard = toYAMLNodes(x.Guard)
		}
		n.Then = toYAMLNodes(x.Then)
		if x.Else != nil {
			n.Else = toYAMLNodes(x.Else)
		}
	case *ast.Foreach:
		n.Body = toYAMLNodes(x.Body)
	case *ast.FunctionLit:
		n.Body = toYAMLNodes(x.Body)
	case *ast.ExprList:
		n.Children = toYAMLNodes(x)
	}
	return n
}

// formatPushValue renders v as the literal syntax a `push` operand expects:
// ast.PushOperandSyntax already does this (it backs Literal.String too), so
// this is just the name this package's call sites use.
func formatPushValue(v machine.Value) string {
	return ast.PushOperandSyntax(v)
}
