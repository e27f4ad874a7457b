package machine

import (
	"fmt"
	"strings"
)

// NullObject is the generic placeholder value `reserve` pushes. It is
// distinct from the per-type variant nulls (NullInt, NullArray, ...): it
// carries no type information at all, used purely to occupy a slot until
// it is overwritten by a `store`.
type NullObject struct{}

func (NullObject) String() string { return "null" }
func (NullObject) Type() string   { return "null" }

// Null is the single shared, pinned NullObject instance.
var Null Value = NullObject{}

// Stack is an ordered sequence of value references, plus a stack of frame
// bases and a stack of commits.
type Stack struct {
	values     []Value
	frameBases []int // root frame base is -1
	commits    []int // initial implicit commit is at 0
}

// NewStack returns an empty stack with the root frame base and the initial
// implicit commit already in place, drawn from the stack pool.
func NewStack() *Stack {
	s := stackPool.Get().(*Stack)
	s.values = s.values[:0]
	s.frameBases = append(s.frameBases[:0], -1)
	s.commits = append(s.commits[:0], 0)
	return s
}

func (s *Stack) Len() int { return len(s.values) }

// String renders the whole stack, bottom first, one value per line prefixed
// with its index; used by the `dump` opcode when VM.DumpStack is set (the
// --tracestack CLI flag).
func (s *Stack) String() string {
	var b strings.Builder
	for i, v := range s.values {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%d] %s", i, v.String())
	}
	return b.String()
}

func (s *Stack) Push(v Value) { s.values = append(s.values, v) }

// Top returns the top value, or nil if the stack is empty.
func (s *Stack) Top() Value {
	if len(s.values) == 0 {
		return nil
	}
	return s.values[len(s.values)-1]
}

// At returns the value at absolute index i (0-based from the bottom).
func (s *Stack) At(i int) Value { return s.values[i] }

// SetAt overwrites the value at absolute index i.
func (s *Stack) SetAt(i int, v Value) { s.values[i] = v }

// Pop removes and returns the top n values, in the order they were pushed
// (values[0] is the deepest of the n). It does not destruct them: the
// values remain tracked and are reclaimed by the next sweep if nothing
// else references them.
func (s *Stack) Pop(n int) []Value {
	start := len(s.values) - n
	popped := append([]Value(nil), s.values[start:]...)
	s.values = s.values[:start]
	return popped
}

// Dup clones (by reference) the top value, leaving the original in place.
func (s *Stack) Dup() { s.Push(s.Top()) }

// Copy replaces the top value with v. The structural copy itself is made
// by package ast's COPY opcode, which calls into the concrete type's own
// copy semantics and passes the result here, since Stack has no notion of
// value kinds.
func (s *Stack) Copy(v Value) { s.values[len(s.values)-1] = v }

// Swap exchanges the top two values.
func (s *Stack) Swap() {
	n := len(s.values)
	s.values[n-1], s.values[n-2] = s.values[n-2], s.values[n-1]
}

// Squash removes n items immediately below the top, keeping the top intact.
// n == -1 removes everything except the top.
func (s *Stack) Squash(n int) {
	if len(s.values) == 0 {
		return
	}
	top := s.values[len(s.values)-1]
	if n < 0 {
		s.values = []Value{top}
		return
	}
	keepFrom := len(s.values) - 1 - n
	s.values = append(s.values[:keepFrom], top)
}

// Reserve pushes n Null placeholders.
func (s *Stack) Reserve(n int) {
	for i := 0; i < n; i++ {
		s.Push(Null)
	}
}

// Clear empties the stack's values entirely.
func (s *Stack) Clear() { s.values = s.values[:0] }

// ClearFrame truncates the stack back to the current frame base (the cell
// just below the first local of the active call).
func (s *Stack) ClearFrame() {
	base := s.frameBases[len(s.frameBases)-1]
	size := base + 1
	if size < 0 {
		size = 0
	}
	if size <= len(s.values) {
		s.values = s.values[:size]
	}
}

// PushFrame marks a new frame base at the current top-of-stack index (the
// own-stack=false call setup case).
func (s *Stack) PushFrame() {
	s.frameBases = append(s.frameBases, len(s.values)-1)
}

// PopFrame removes the current frame base.
func (s *Stack) PopFrame() {
	s.frameBases = s.frameBases[:len(s.frameBases)-1]
}

// FrameBase returns the active frame base.
func (s *Stack) FrameBase() int { return s.frameBases[len(s.frameBases)-1] }

// Commit records the current size as a scratch-use checkpoint.
func (s *Stack) Commit() { s.commits = append(s.commits, len(s.values)) }

// Revert truncates the stack back to the size recorded by the last commit
// (unless the stack has already shrunk below that size, in which case it is
// left alone) and always pops one commit level.
func (s *Stack) Revert() {
	n := len(s.commits)
	size := s.commits[n-1]
	if size <= len(s.values) {
		s.values = s.values[:size]
	}
	s.commits = s.commits[:n-1]
}

// CommitIndex returns the top-item index of the last commit, or -1.
func (s *Stack) CommitIndex() int {
	return s.commits[len(s.commits)-1] - 1
}
