package machine

import (
	"fmt"
	"io"

	"github.com/lakevm/lake/lang/token"
)

// EvalError is a runtime diagnostic enriched with the source location of the
// node whose evaluation produced it. Nested re-raises are not re-enriched:
// once an error is an *EvalError, ExprList.Eval passes it through unchanged.
type EvalError struct {
	Pos token.Position
	Err error
}

func (e *EvalError) Error() string {
	if !e.Pos.IsValid() {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Enrich wraps err in an *EvalError carrying pos, unless it already is one.
// Package ast's ExprList.Eval calls this at every expression-list boundary;
// it lives here rather than in package ast so every EvalError, regardless
// of caller, shares one definition.
func Enrich(pos token.Position, err error) error {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EvalError); ok {
		return ee
	}
	return &EvalError{Pos: pos, Err: err}
}

// SourceParser is set by package parser's init function to the equivalent
// of parser.Parse. Package ast's `cast function` needs to parse a string as
// assembly and install it as a function body, but package parser already
// imports package ast to build the tree it returns; this indirection is the
// usual way Go breaks that cycle (the same trick encoding/json uses for
// html/template's indirection, or text/template for html/template.Escaper).
var SourceParser func(vm *VM, filename string, src []byte) (OperationNode, error)

func typeError(want string, got Value) error {
	return fmt.Errorf("type error: expected %s, got %s", want, got.Type())
}

func cannotMutateError(verb, typ string) error {
	return fmt.Errorf("cannot %s a const %s", verb, typ)
}

func indexRangeError(i, n int) error {
	return fmt.Errorf("index %d out of range (length %d)", i, n)
}

// Tracer writes the trace output: one line per evaluated node when
// VM.TraceLevel is 2 or more (see VM.TraceStep), plus `dump` lines.
// Tracing is an opt-in diagnostic aid, never required for correctness.
type Tracer struct {
	Out   io.Writer
	Level int
}

func (t *Tracer) trace(pos token.Position, msg string) {
	if t == nil || t.Out == nil || t.Level <= 0 {
		return
	}
	fmt.Fprintf(t.Out, "%s: %s\n", pos, msg)
}

// dump writes a `dump` opcode's output line. Unlike trace it is not gated
// by the verbosity level: dump is a program-requested print, not a
// diagnostic, so it fires whenever an output writer is configured at all.
func (t *Tracer) dump(pos token.Position, msg string) {
	if t == nil || t.Out == nil {
		return
	}
	fmt.Fprintf(t.Out, "%s: %s\n", pos, msg)
}
