package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/parser"
)

func mustRun(t *testing.T, src string) *machine.Stack {
	t.Helper()
	vm := machine.New()
	body, err := parser.Parse(vm, "test.lake", []byte(src))
	require.NoError(t, err)
	_, err = vm.Run(body)
	require.NoError(t, err)
	return vm.Stack()
}

func topInt(t *testing.T, st *machine.Stack) string {
	t.Helper()
	n, ok := st.Top().(*machine.Int)
	require.True(t, ok, "top of stack is not an int: %#v", st.Top())
	return n.Big().String()
}

// repeat is not a block of its own: it is a bare opcode whose sentinel
// result is interpreted by whichever ExprList it is the last thing run in
// (here, an `if`'s Then body), which restarts itself from index 0 instead
// of propagating the sentinel further up. This hand-rolled counting loop
// increments a counter left on the stack until it reaches 3.
func TestRepeatTrueLoopsUntilConditionFails(t *testing.T) {
	src := `
push int 0
push bool true
if {
  push int 1
  add
  dup
  push int 3
  lt
  repeat true
}
`
	st := mustRun(t, src)
	require.Equal(t, 1, st.Len())
	require.Equal(t, "3", topInt(t, st))
}

// `repeat false` pops its condition and, since it is true (not false), falls
// through without restarting the enclosing list.
func TestRepeatFalseDoesNotLoop(t *testing.T) {
	src := `
push int 1
push bool true
repeat false
push int 2
add
`
	st := mustRun(t, src)
	require.Equal(t, 1, st.Len())
	require.Equal(t, "3", topInt(t, st))
}

// accumulate pops a function, an initial value, a count and that many
// collection/value operands (in that push order: collections deepest,
// function on top), flattens any nested collections, and folds left.
func TestAccumulateFoldsOverFlattenedArray(t *testing.T) {
	src := `
push array 0
push int 1
coll append
push int 2
coll append
push int 3
coll append
push int 1
push int 0
push function {
  add
}
accumulate
`
	st := mustRun(t, src)
	require.Equal(t, "6", topInt(t, st))
}
