package externalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakevm/lake/lang/externalize"
	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/parser"
)

// reemit parses src and externalizes the resulting tree.
func reemit(t *testing.T, src string) string {
	t.Helper()
	vm := machine.New()
	body, err := parser.Parse(vm, "test.lake", []byte(src))
	require.NoError(t, err)
	return externalize.Program(body)
}

// TestProgramFixedPoint is the canonicalization property: externalizing a
// parse of the externalized text yields the externalized text again. The
// input deliberately uses non-canonical spellings (hex literals, ';'
// statement separators, an anonymous function) that the first round
// normalizes.
func TestProgramFixedPoint(t *testing.T) {
	srcs := []string{
		"push int 0xFF; push int 7; add; dump\n",
		`
define LIMIT int 100
push int 50
if (load abs 0; push define LIMIT; lt) {
  push string "below"
} else if (load abs 0; push define LIMIT; eq) {
  push string "at"
} else {
  push string "above"
}
dump
`,
		`
push function {
  load rel 0
  push int 1
  le
  if {
    pop 1
    push int 1
  } else {
    dup
    dec
    current
    invoke
    mul
  }
}
invoke
`,
		`
push array 0
push int 1
coll append
push int 2
coll append
foreach {
  dump
  pop 1
}
`,
		`
push function withstack worker {
  lift 2
  add
  sink 1
}
invoke
`,
		"push float 2.5\npush float 1.5\nadd\ncast string\ndump\n",
		"commit\npush int 1\npush int 2\nrevert\ncommitindex\n",
		"push bool true\nassert \"must hold\"\nhalt 3\n",
		"checkpoint\npush char 'x'\ncast int\n",
	}
	for _, src := range srcs {
		first := reemit(t, src)
		second := reemit(t, first)
		assert.Equal(t, first, second, "externalization is not a fixed point for:\n%s", src)
	}
}

// TestAnonymousFunctionsGetFreshNames: distinct anonymous literals receive
// distinct generated names so a re-parse keeps them apart.
func TestAnonymousFunctionsGetFreshNames(t *testing.T) {
	out := reemit(t, "push function {\n nop\n}\npush function {\n dup\n}\n")
	assert.Contains(t, out, "function __anon0 {")
	assert.Contains(t, out, "function __anon1 {")
}

// TestFunctionExternalizesRuntimeFunctionData covers the Function entry
// point, which prints a machine-level function handle rather than a parsed
// literal node.
func TestFunctionExternalizesRuntimeFunctionData(t *testing.T) {
	vm := machine.New()
	body, err := parser.Parse(vm, "test.lake", []byte("push int 1\npush int 2\nadd\n"))
	require.NoError(t, err)
	fn := machine.NewFunction("adder", body, true)

	out := externalize.Function(fn)
	assert.Contains(t, out, "function withstack adder {")
	assert.Contains(t, out, "push int 1")

	second := reemit(t, out)
	assert.Equal(t, out, second)
}

// TestYAMLDump is the debug-only structured view (--externalize-format=yaml).
func TestYAMLDump(t *testing.T) {
	vm := machine.New()
	body, err := parser.Parse(vm, "test.lake", []byte("push int 1\nif (push bool true) {\n dump\n}\n"))
	require.NoError(t, err)

	out, err := externalize.YAML(body)
	require.NoError(t, err)
	assert.Contains(t, out, "op: push")
	assert.Contains(t, out, "op: if")
	assert.Contains(t, out, "guard:")
	assert.Contains(t, out, "value: int 1")
}
