// Package machine implements the value/object model, the mark-sweep garbage
// collector, the stack-of-stacks, and the virtual machine that drives
// evaluation of a lake expression tree.
package machine

import "github.com/lakevm/lake/lang/token"

// Value is the interface implemented by every object the machine can push on
// a stack, store in a container, or return from an operation.
type Value interface {
	// String returns the value's textual representation, as produced by dump
	// or cast-to-string.
	String() string
	// Type returns the short type name used in diagnostics (e.g. "int",
	// "array", "function").
	Type() string
}

// An Ordered value defines a three-way comparison against another value of
// the same concrete type. Client code should use the package-level Compare
// function rather than calling Cmp directly, since Compare also implements
// cross-type rejection.
type Ordered interface {
	Value
	Cmp(vm *VM, y Value) (int, error)
}

// A Container is a value that owns other Values and must be visited during
// GC marking and whose elements participate in coll operations.
type Container interface {
	Value
	// Walk calls visit once for each Value directly owned by the receiver.
	Walk(visit func(Value))
}

// Callable is implemented by values that `invoke` may run as a function body.
type Callable interface {
	Value
	Invoke(vm *VM) (Value, error)
}

// OperationNode is implemented by every expression-tree node (the "opcode"
// types in package ast). It lets the machine package hold and evaluate nodes,
// and walk their owned sub-expressions for GC marking, without importing the
// ast package (which imports machine): ast.Node values are handed to the
// machine as OperationNode, and the machine never needs to know the concrete
// node types.
type OperationNode interface {
	Value
	// Eval executes the node against vm and returns its result, or one of the
	// control-flow sentinels (see sentinel.go).
	Eval(vm *VM) (Value, error)
	// Pos returns the node's source position, used to enrich diagnostics.
	Pos() token.Position
	// Walk calls visit once for each sub-expression or expression-list owned
	// by the node (used only by the GC mark phase; most node kinds have none).
	Walk(visit func(Value))
}

