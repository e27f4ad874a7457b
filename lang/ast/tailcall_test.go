package ast_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/parser"
)

// TestTailCallRunsInConstantStackDepth: a self-recursive function that
// only terminates via `invoke tail` must run in constant native-stack
// depth. invoke's trampoline (see VM.invoke)
// re-enters its own for loop on a TailcallReq result instead of recursing
// into a fresh Go call, so a countdown deep enough to blow any bounded
// native stack under ordinary recursion must still complete here. Each
// iteration squashes away the previous count before tail-calling so the
// language-level stack stays at a single live value throughout, too.
func TestTailCallRunsInConstantStackDepth(t *testing.T) {
	const iterations = 200000

	vm := machine.New()
	src := `
push int ` + strconv.Itoa(iterations) + `
push function {
  load rel 0
  push int 0
  le
  if {
  } else {
    dup
    push int 1
    sub
    squash 1
    current
    invoke tail
  }
}
invoke
`
	body, err := parser.Parse(vm, "test.lake", []byte(src))
	require.NoError(t, err)

	_, err = vm.Run(body)
	require.NoError(t, err)

	require.Equal(t, 1, vm.Stack().Len())
	n, ok := vm.Stack().Top().(*machine.Int)
	require.True(t, ok)
	require.Equal(t, "0", n.Big().String())
}
