package ast_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/parser"
)

// runTraced parses and runs src with tracing enabled, returning whatever the
// program's `dump` calls wrote and the final stack.
func runTraced(t *testing.T, src string) (string, *machine.Stack) {
	t.Helper()
	vm := machine.New()
	var buf bytes.Buffer
	vm.TraceLevel = 1
	vm.Tracer = &machine.Tracer{Out: &buf, Level: 1}

	body, err := parser.Parse(vm, "test.lake", []byte(src))
	require.NoError(t, err)
	_, err = vm.Run(body)
	require.NoError(t, err)
	return buf.String(), vm.Stack()
}

// lastDumped returns the value text of the last `dump` line traced, stripping
// the leading "file:line:col: " position prefix Tracer.trace writes.
func lastDumped(t *testing.T, traced string) string {
	t.Helper()
	lines := strings.Split(strings.TrimRight(traced, "\n"), "\n")
	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	idx := strings.LastIndex(last, ": ")
	require.GreaterOrEqual(t, idx, 0, "traced line %q has no position prefix", last)
	return last[idx+2:]
}

// TestAddTwoInts: push int 21; push int 7; add; dump must print 28.
func TestAddTwoInts(t *testing.T) {
	out, st := runTraced(t, `
push int 21
push int 7
add
dump
`)
	assert.Equal(t, "28", lastDumped(t, out))
	assert.Equal(t, 1, st.Len())
}

// TestArithmeticCombination: (4*5) + (6/2) must print 23.
func TestArithmeticCombination(t *testing.T) {
	out, _ := runTraced(t, `
push int 4
push int 5
mul
push int 6
push int 2
div
add
dump
`)
	assert.Equal(t, "23", lastDumped(t, out))
}

// TestComparisonCombination: (2 < 3) or (4 == 5) must print true.
func TestComparisonCombination(t *testing.T) {
	out, _ := runTraced(t, `
push int 2
push int 3
lt
push int 4
push int 5
eq
or
dump
`)
	assert.Equal(t, "true", lastDumped(t, out))
}

// TestRecursiveFactorial: factorial of 6, computed with the recursive
// pattern `current; invoke` (no own-stack function, no saveargs — the
// argument is read back with `load rel 0`, the slot the sole pushed
// argument occupies when invoke marks its frame), must leave 720 on the
// stack.
func TestRecursiveFactorial(t *testing.T) {
	out, st := runTraced(t, `
push int 6
push function {
  load rel 0
  push int 1
  le
  if {
    pop 1
    push int 1
  } else {
    dup
    push int 1
    sub
    current
    invoke
    mul
  }
}
invoke
dump
`)
	assert.Equal(t, "720", lastDumped(t, out))
	assert.Equal(t, 1, st.Len())
}

// TestCollectionAppendAndSize: appending two elements to a fresh array
// and asking for its size must print 2.
func TestCollectionAppendAndSize(t *testing.T) {
	out, _ := runTraced(t, `
push array 0
push int 1
coll append
push int 2
coll append
coll size
dump
`)
	assert.Equal(t, "2", lastDumped(t, out))
}

// TestDefineCastIntToString: `define X int 0xFF` registers the literal in
// the define table at parse time, and reading it back and casting to
// string must print the decimal "255".
func TestDefineCastIntToString(t *testing.T) {
	out, _ := runTraced(t, `
define X int 0xFF
push define X
cast string
dump
`)
	assert.Equal(t, "255", lastDumped(t, out))
}

// TestDefineResolvesBeforeItsOwnStatementRuns pins down define's
// parse-time registration: a `push define` evaluating earlier in the file
// than the define statement still resolves — the define line here never
// runs at all, since halt cuts execution short first.
func TestDefineResolvesBeforeItsOwnStatementRuns(t *testing.T) {
	out, _ := runTraced(t, `
push define LIMIT
dump
halt
define LIMIT int 42
`)
	assert.Equal(t, "42", lastDumped(t, out))
}

// TestPushRequiresExplicitTypeKeyword is a regression test for a prior bug
// where push inferred its value's type from the lexed token kind instead of
// requiring the grammar's explicit type keyword: a bare `push 0` (no type)
// must fail to parse now, while every type keyword form succeeds.
func TestPushRequiresExplicitTypeKeyword(t *testing.T) {
	vm := machine.New()
	_, err := parser.Parse(vm, "test.lake", []byte("push 0\n"))
	require.Error(t, err)
}

func TestPushNullFormsForEveryType(t *testing.T) {
	cases := []string{
		"int null", "float null", "string null", "char null", "bool null",
		"object null", "ptr null", "pair null", "array null", "umap null", "uset null",
	}
	for _, operand := range cases {
		t.Run(operand, func(t *testing.T) {
			vm := machine.New()
			body, err := parser.Parse(vm, "test.lake", []byte("push "+operand+"\n"))
			require.NoError(t, err)
			_, err = vm.Run(body)
			require.NoError(t, err)
			require.Equal(t, 1, vm.Stack().Len())
		})
	}
}

// TestCollDispatchRequiresCollPrefix is a regression test for a prior bug
// where collection-dispatch opcodes (get/put/append/...) were bare
// top-level keywords instead of living behind `coll`.
func TestCollDispatchRequiresCollPrefix(t *testing.T) {
	vm := machine.New()
	_, err := parser.Parse(vm, "test.lake", []byte("push array 0\npush int 1\nappend\n"))
	require.Error(t, err)
}

// TestCollSizeAndClear is a regression test for the collection-level
// `coll size`/`coll clear` opcodes.
func TestCollSizeAndClear(t *testing.T) {
	_, st := runTraced(t, `
push array 0
push int 1
coll append
push int 2
coll append
push int 3
coll append
coll size
`)
	n, ok := st.Top().(*machine.Int)
	require.True(t, ok)
	assert.Equal(t, "3", n.Big().String())

	_, st2 := runTraced(t, `
push array 0
push int 1
coll append
coll clear
coll size
`)
	n2, ok := st2.Top().(*machine.Int)
	require.True(t, ok)
	assert.Equal(t, "0", n2.Big().String())
}

// TestLocalAddressingConsumesFunctionFirst is a regression test for a prior
// bug where `local`/`arg` addressing indexed into the currently executing
// function instead of first popping the function operand the grammar
// requires: `load local I`/`store local I` must act on whatever FunctionData
// was just popped off the active stack, not on vm.Current. This runs
// entirely at the root level (vm.Current is the root function throughout,
// never the pushed function literal), so a correct result can only come
// from the popped operand's own Locals vector.
func TestLocalAddressingConsumesFunctionFirst(t *testing.T) {
	out, _ := runTraced(t, `
push function {
  nop
}
dup
push int 11
swap
store local 0
load local 0
dump
`)
	assert.Equal(t, "11", lastDumped(t, out))
}

// TestSaveArgsCopiesFromFrameBaseDownward is a regression test for
// SaveArgs's prior backwards implementation: saveargs must read N values
// starting at the frame base (the shallowest/last-pushed of the caller's
// arguments) and walk downward into the function's Args vector, so Args[0]
// is the caller's last-pushed value and Args[N-1] its first-pushed one.
// Reading an arg back requires re-pushing the function first (`current`),
// since `load arg` pops its function operand off the stack like `load
// local` does.
func TestSaveArgsCopiesFromFrameBaseDownward(t *testing.T) {
	out, _ := runTraced(t, `
push int 10
push int 20
push int 30
push function {
  push int 3
  saveargs
  current
  load arg 0
  current
  load arg 1
  current
  load arg 2
}
invoke
dump
pop 1
dump
pop 1
dump
`)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	got := make([]string, 3)
	for i, l := range lines {
		idx := strings.LastIndex(l, ": ")
		got[i] = l[idx+2:]
	}
	// arg 2 (the deepest/first-pushed caller value, 10) was loaded last, so
	// it is on top; arg 0 (the shallowest/last-pushed, 30) was loaded first
	// and sits deepest.
	assert.Equal(t, []string{"10", "20", "30"}, got)
}

// TestIfGuardChain exercises the inline guard-list form of a conditional
// chain: each link computes its own condition between the parens, and the
// first matching link's body runs.
func TestIfGuardChain(t *testing.T) {
	src := `
push int %s
if (load abs 0; push int 10; lt) {
  push string "small"
} else if (load abs 0; push int 100; lt) {
  push string "medium"
} else {
  push string "large"
}
dump
`
	cases := []struct{ n, want string }{
		{"5", "small"},
		{"50", "medium"},
		{"500", "large"},
	}
	for _, c := range cases {
		t.Run(c.n, func(t *testing.T) {
			out, _ := runTraced(t, strings.Replace(src, "%s", c.n, 1))
			assert.Equal(t, c.want, lastDumped(t, out))
		})
	}
}

// TestIfWithoutGuardPopsStackCondition is the guardless form: the
// condition is whatever Bool the preceding operations left on top.
func TestIfWithoutGuardPopsStackCondition(t *testing.T) {
	out, _ := runTraced(t, `
push bool false
if {
  push string "then"
} else {
  push string "else"
}
dump
`)
	assert.Equal(t, "else", lastDumped(t, out))
}

// TestHaltExitCode verifies both halt forms: a literal operand and a
// popped Int.
func TestHaltExitCode(t *testing.T) {
	vm := machine.New()
	body, err := parser.Parse(vm, "test.lake", []byte("halt 3\n"))
	require.NoError(t, err)
	_, err = vm.Run(body)
	require.NoError(t, err)
	assert.Equal(t, 3, vm.ExitCode)

	vm = machine.New()
	body, err = parser.Parse(vm, "test.lake", []byte("push int 7\nhalt\n"))
	require.NoError(t, err)
	_, err = vm.Run(body)
	require.NoError(t, err)
	assert.Equal(t, 7, vm.ExitCode)
	assert.Equal(t, 0, vm.Stack().Len())
}

// TestHaltStopsExecution: nothing after halt runs, however deep the halt
// sits in nested expression lists.
func TestHaltStopsExecution(t *testing.T) {
	out, st := runTraced(t, `
push int 1
dump
push bool true
if {
  halt 0
}
push int 2
dump
`)
	assert.Equal(t, "1", lastDumped(t, out))
	assert.Equal(t, 1, st.Len())
}

// TestInvokeOnPlainDataIsIdentity: invoking a non-function value consumes
// it and has no other effect, rather than failing.
func TestInvokeOnPlainDataIsIdentity(t *testing.T) {
	vm := machine.New()
	body, err := parser.Parse(vm, "test.lake", []byte("push int 5\ninvoke\n"))
	require.NoError(t, err)
	_, err = vm.Run(body)
	require.NoError(t, err)
	assert.Equal(t, 0, vm.Stack().Len())
}

// TestMixedIntFloatArithFailsWithPosition: int+float without an explicit
// cast is a diagnostic carrying the originating line and column.
func TestMixedIntFloatArithFailsWithPosition(t *testing.T) {
	vm := machine.New()
	body, err := parser.Parse(vm, "test.lake", []byte("push int 1\npush float 2.5\nadd\n"))
	require.NoError(t, err)
	_, err = vm.Run(body)
	require.Error(t, err)

	var ee *machine.EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 3, ee.Pos.Line)
	assert.Equal(t, 1, ee.Pos.Col)
	assert.Contains(t, ee.Error(), "cast")
}

// TestUnwindCheckpointRecovers: a raise inside a checkpointed list jumps
// to the checkpoint instead of unwinding out of the program.
func TestUnwindCheckpointRecovers(t *testing.T) {
	out, _ := runTraced(t, `
push function {
  push bool true
  if {
    unwind
  }
  push string "unreached"
  checkpoint
  push string "recovered"
}
invoke
dump
`)
	assert.Equal(t, "recovered", lastDumped(t, out))
}

// TestGCKeepsActiveFunctionLocalsAlive: a value whose only reference is an
// executing function's Locals vector must survive a collection forced in
// the middle of that function's body (the invocation keepalive list's
// job — the function itself is protected by its transient pinned flag,
// which would otherwise also stop the mark phase from descending into its
// locals).
func TestGCKeepsActiveFunctionLocalsAlive(t *testing.T) {
	out, _ := runTraced(t, `
push function {
  push string "keepme"
  current
  store local 0
  gc
  current
  load local 0
}
invoke
dump
`)
	assert.Equal(t, "keepme", lastDumped(t, out))
}

// TestGCKeepsTreeHeldLiteralsAlive: a string literal's heap value is
// referenced by its expression node between evaluations, not just by
// whatever stack copies exist, so collecting while no copy is on any
// stack must not destroy it — the next evaluation of the same node
// pushes the same value again.
func TestGCKeepsTreeHeldLiteralsAlive(t *testing.T) {
	out, _ := runTraced(t, `
push function {
  push string "x"
}
dup
invoke
pop 1
gc
invoke
dump
`)
	assert.Equal(t, "x", lastDumped(t, out))
}
