package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakevm/lake/lang/lexer"
	"github.com/lakevm/lake/lang/token"
)

// scanAll drains the lexer, returning every lexeme up to and excluding EOF.
func scanAll(t *testing.T, src string) ([]lexer.Lexeme, *token.ErrorList) {
	t.Helper()
	errs := &token.ErrorList{}
	l := lexer.New("test.lake", []byte(src), errs)
	var out []lexer.Lexeme
	for {
		lx := l.Next()
		if lx.Tok == token.EOF {
			return out, errs
		}
		out = append(out, lx)
	}
}

type tokLit struct {
	tok token.Token
	lit string
}

func tokens(lxs []lexer.Lexeme) []tokLit {
	out := make([]tokLit, len(lxs))
	for i, lx := range lxs {
		out[i] = tokLit{lx.Tok, lx.Lit}
	}
	return out
}

func TestScanTokens(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []tokLit
	}{
		{"keywords", "push pop invoke", []tokLit{
			{token.PUSH, "push"}, {token.POP, "pop"}, {token.INVOKE, "invoke"},
		}},
		{"ident", "push define myName", []tokLit{
			{token.PUSH, "push"}, {token.DEFINE, "define"}, {token.IDENT, "myName"},
		}},
		{"semicolon is newline", "dup;swap", []tokLit{
			{token.DUP, "dup"}, {token.NEWLINE, ";"}, {token.SWAP, "swap"},
		}},
		{"decimal int", "42", []tokLit{{token.INT, "42"}}},
		{"negative int", "-42", []tokLit{{token.INT, "-42"}}},
		{"hex int", "0xFF", []tokLit{{token.INT, "0xFF"}}},
		{"binary int", "0b1010", []tokLit{{token.INT, "0b1010"}}},
		{"underscore grouping stripped", "1_000_000", []tokLit{{token.INT, "1000000"}}},
		{"float", "3.25", []tokLit{{token.FLOAT, "3.25"}}},
		{"float exponent canonicalized", "1.5e3", []tokLit{{token.FLOAT, "1.5@3"}}},
		{"float negative exponent", "2.0E-7", []tokLit{{token.FLOAT, "2.0@-7"}}},
		{"bare minus", "- 3", []tokLit{{token.MINUS, "-"}, {token.INT, "3"}}},
		{"string", `"hello world"`, []tokLit{{token.STRING, "hello world"}}},
		{"string backslashes are literal", `"a\nb"`, []tokLit{{token.STRING, `a\nb`}}},
		{"char", "'x'", []tokLit{{token.CHAR, "x"}}},
		{"char backslash is literal", `'\'`, []tokLit{{token.CHAR, `\`}}},
		{"punctuation", "( ) { }", []tokLit{
			{token.LPAREN, "("}, {token.RPAREN, ")"}, {token.LBRACE, "{"}, {token.RBRACE, "}"},
		}},
		{"comment skipped to newline", "dup # a comment\nswap", []tokLit{
			{token.DUP, "dup"}, {token.NEWLINE, ";"}, {token.SWAP, "swap"},
		}},
		{"unicode ident", "push define héllo", []tokLit{
			{token.PUSH, "push"}, {token.DEFINE, "define"}, {token.IDENT, "héllo"},
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			lxs, errs := scanAll(t, c.src)
			require.NoError(t, errs.Err())
			assert.Equal(t, c.want, tokens(lxs))
		})
	}
}

// TestHashBangTerminatesStream: "#!" cuts the source off wherever it
// appears, whether it starts a comment or sits in the middle of one.
func TestHashBangTerminatesStream(t *testing.T) {
	lxs, errs := scanAll(t, "dup\n#! everything below is dead\nswap\n")
	require.NoError(t, errs.Err())
	assert.Equal(t, []tokLit{{token.DUP, "dup"}, {token.NEWLINE, ";"}}, tokens(lxs))

	lxs, errs = scanAll(t, "dup # live comment #! dead from here\nswap\n")
	require.NoError(t, errs.Err())
	assert.Equal(t, []tokLit{{token.DUP, "dup"}}, tokens(lxs))
}

func TestPositions(t *testing.T) {
	lxs, errs := scanAll(t, "push int 1\n  pop 1\n")
	require.NoError(t, errs.Err())
	require.Len(t, lxs, 7)

	assert.Equal(t, token.Position{File: "test.lake", Line: 1, Col: 1}, lxs[0].Pos)  // push
	assert.Equal(t, token.Position{File: "test.lake", Line: 1, Col: 6}, lxs[1].Pos)  // int
	assert.Equal(t, token.Position{File: "test.lake", Line: 1, Col: 10}, lxs[2].Pos) // 1
	assert.Equal(t, token.Position{File: "test.lake", Line: 2, Col: 3}, lxs[4].Pos)  // pop
}

func TestScanErrors(t *testing.T) {
	_, errs := scanAll(t, `"unterminated`)
	require.Error(t, errs.Err())

	_, errs = scanAll(t, "\"split\nacross lines\"")
	require.Error(t, errs.Err())

	_, errs = scanAll(t, "'ab'")
	require.Error(t, errs.Err())

	_, errs = scanAll(t, "push @ 1\n")
	require.Error(t, errs.Err())
}
