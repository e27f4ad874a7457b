// Package ast defines the expression-tree node types produced by the
// parser: one Go type per opcode family, each implementing
// machine.OperationNode so the machine package can hold, evaluate and walk
// them without importing this package (see machine.OperationNode's doc
// comment for why the dependency runs this direction).
//
// Where an opcode family differs only by which keyword introduced it (the
// arithmetic, comparison and cast families, for instance), a single node
// type carries the distinguishing token.Token as a field, the same pattern
// go/ast uses for BinaryExpr and UnaryExpr, rather than one Go type per
// keyword.
package ast

import (
	"fmt"
	"strings"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/token"
)

// node carries the source position every node needs for diagnostic
// enrichment (enrich wraps every error returned from Eval in a
// *machine.EvalError using this position).
type node struct {
	pos token.Position
}

func (n node) Pos() token.Position  { return n.pos }
func (n node) Walk(func(machine.Value)) {}

// ExprList is a sequence of operations evaluated in order. Function bodies,
// if/else branches and repeat bodies are all *ExprList; it is itself an
// OperationNode so it can be nested and held as a Value by machine
// (FunctionData.Body is an OperationNode, almost always an *ExprList).
type ExprList struct {
	node
	Exprs []machine.OperationNode

	// ErrorLabelIndex is the index of this list's `checkpoint` node, or -1 if
	// it has none. A list with a non-negative index is "checkpointed":
	// a raise-request reaching this list's Eval jumps back to that index
	// instead of propagating further up.
	ErrorLabelIndex int
}

// NewExprList returns an ExprList evaluating exprs in order. The caller
// (parser.parseExprList) sets ErrorLabelIndex afterward if exprs contains a
// checkpoint.
func NewExprList(pos token.Position, exprs []machine.OperationNode) *ExprList {
	return &ExprList{node: node{pos}, Exprs: exprs, ErrorLabelIndex: -1}
}

func (e *ExprList) String() string { return "exprlist" }
func (e *ExprList) Type() string   { return "exprlist" }

func (e *ExprList) Walk(visit func(machine.Value)) {
	for _, x := range e.Exprs {
		visit(x)
	}
}

// Eval runs each sub-expression in order. A sub-expression's result is
// checked against the control-flow sentinels after every step:
//
//   - exit-scope stops this list immediately and yields no value to the
//     caller (the caller — an IfExpr's branch runner or invoke — decides
//     what exit-scope means in its own context).
//   - repeat restarts this same list from its first expression.
//   - repeat-if-true / repeat-if-false pop a Bool and restart this list from
//     its first expression if it matches, otherwise continue to the next
//     expression (this is the loop construct — "repeat" is not a
//     dedicated block, it is any expression list whose last-run expression
//     happens to be one of these sentinels, most often the body of an `if`).
//   - raise-request jumps back to this list's checkpoint (ErrorLabelIndex)
//     and resumes from there if this list is checkpointed; otherwise it
//     propagates to the caller, same as tailcall-request and exit-request.
//   - tailcall-request and exit-request always propagate to the caller
//     without running the remaining expressions: each is meaningful only to
//     a specific ancestor (invoke's trampoline and the top-level runner).
//
// The result of the list is the result of its last evaluated expression.
func (e *ExprList) Eval(vm *machine.VM) (machine.Value, error) {
	var result machine.Value
	i := 0
	for i < len(e.Exprs) {
		x := e.Exprs[i]
		vm.TraceStep(x.Pos(), x.String())
		v, err := x.Eval(vm)
		if err != nil {
			return nil, enrich(x.Pos(), err)
		}
		result = v
		switch result {
		case machine.ExitScope:
			return machine.ExitScope, nil
		case machine.RaiseRequest:
			if e.ErrorLabelIndex >= 0 {
				i = e.ErrorLabelIndex
				continue
			}
			return result, nil
		case machine.TailcallReq, machine.ExitRequest:
			return result, nil
		case machine.Repeat:
			i = 0
			continue
		case machine.RepeatIfTrue, machine.RepeatIfFalse:
			st := vm.Stack()
			if st.Len() < 1 {
				return nil, enrich(x.Pos(), fmt.Errorf("repeat %s: stack is empty", repeatIfWord(result)))
			}
			cond, ok := st.Pop(1)[0].(machine.Bool)
			if !ok {
				return nil, enrich(x.Pos(), fmt.Errorf("repeat %s: expected bool", repeatIfWord(result)))
			}
			if (result == machine.RepeatIfTrue) == bool(cond) {
				i = 0
				continue
			}
			// The sentinel has been consumed here; it is not this list's result.
			result = machine.Null
		}
		i++
	}
	return result, nil
}

func repeatIfWord(sentinel machine.Value) string {
	if sentinel == machine.RepeatIfTrue {
		return "true"
	}
	return "false"
}

// enrich wraps err with x's source position in a *machine.EvalError, unless
// it is already one (the innermost failure's position is the useful one to
// report; "nested re-raises are not further enriched").
func enrich(pos token.Position, err error) error {
	return machine.Enrich(pos, err)
}

// Literal pushes a fixed, already-constructed Value (an int/float/string/
// char/bool/null literal) onto the active stack. For shared pinned
// singletons (small ints, true/false, variant nulls) Value is simply
// reused on every Eval; for a value that must live on the GC chain (a
// string literal) Value is tracked lazily on its first Eval and the same
// tracked instance is then reused by every later Eval of this node, the
// same way the parser reuses the small-int cache.
type Literal struct {
	node
	Value machine.Value
}

func NewLiteral(pos token.Position, v machine.Value) *Literal {
	return &Literal{node: node{pos}, Value: v}
}

func (l *Literal) String() string { return "push " + PushOperandSyntax(l.Value) }
func (l *Literal) Type() string   { return "push" }

// Walk exposes the held value to the GC mark phase: once tracked, it is
// referenced by this node for the node's whole lifetime, not just while a
// copy sits on some stack.
func (l *Literal) Walk(visit func(machine.Value)) { visit(l.Value) }

// PushOperandSyntax renders v as the `push TYPE VALUE` operand text that
// would reparse into an equivalent Literal: unlike Value.String (a dump
// representation meant for diagnostics), this always leads with the type
// keyword push requires and wraps string/char payloads in their literal
// quotes. Used both by Literal.String and by the externalize package's
// own printer.
func PushOperandSyntax(v machine.Value) string {
	switch t := v.(type) {
	case *machine.Int:
		if t == machine.NullInt {
			return "int null"
		}
		return "int " + t.Big().String()
	case *machine.Float:
		if t == machine.NullFloat {
			return "float null"
		}
		s := t.Big().Text('g', -1)
		if !strings.ContainsAny(s, ".e") {
			s += ".0" // a whole number must still lex as a float literal
		}
		return "float " + strings.Replace(s, "e", "@", 1)
	case *machine.String:
		if t == machine.NullString {
			return "string null"
		}
		// Verbatim between the quotes: the grammar has no escape sequences,
		// so a string containing a '"' or a line break has no writable
		// literal form in the first place.
		return `string "` + t.Go() + `"`
	case machine.Char:
		return "char '" + string(rune(t)) + "'"
	case machine.Bool:
		if t {
			return "bool true"
		}
		return "bool false"
	case machine.NullObject:
		return "object null"
	case *machine.Pointer:
		if t == machine.NullPointer {
			return "ptr null"
		}
		return fmt.Sprintf("ptr %d", uintptr(t.Addr))
	case *machine.Pair:
		if t == machine.NullPair {
			return "pair null"
		}
		return "pair 0"
	case *machine.Array:
		if t == machine.NullArray {
			return "array null"
		}
		return "array 0"
	case *machine.Map:
		if t == machine.NullMap {
			return "umap null"
		}
		return "umap 0"
	case *machine.Set:
		return "uset 0"
	default:
		return v.String()
	}
}

func (l *Literal) Eval(vm *machine.VM) (machine.Value, error) {
	vm.TrackOnce(l.Value)
	vm.Stack().Push(l.Value)
	return l.Value, nil
}
