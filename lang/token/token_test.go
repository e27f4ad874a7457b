package token_test

import (
	"testing"

	"github.com/lakevm/lake/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKeyword(t *testing.T) {
	assert.Equal(t, token.PUSH, token.Lookup("push"))
	assert.Equal(t, token.CHECKPOINT, token.Lookup("checkpoint"))
	assert.Equal(t, token.IDENT, token.Lookup("notakeyword"))
}

func TestFileSet(t *testing.T) {
	fs := token.NewFileSet()
	a := fs.AddFile("a.lake")
	b := fs.AddFile("b.lake")
	require.NotEqual(t, a, b)
	assert.Equal(t, "a.lake", fs.Name(a))
	assert.Equal(t, "b.lake", fs.Name(b))
	assert.Equal(t, "", fs.Name(99))
}

func TestErrorList(t *testing.T) {
	var el token.ErrorList
	el.Add(token.Position{File: "x", Line: 2, Col: 1}, "boom")
	el.Add(token.Position{File: "x", Line: 1, Col: 1}, "earlier")
	el.Sort()
	require.Len(t, el, 2)
	assert.Equal(t, "earlier", el[0].Msg)
	assert.Error(t, el.Err())
}
