package luapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transpile(t *testing.T, source string, lineNumbers, debug bool) string {
	t.Helper()
	tokens, err := Lex("<string>", source)
	require.NoError(t, err)
	meta, err := Transpile("<string>", source, tokens, lineNumbers, debug)
	require.NoError(t, err)
	return meta
}

func TestTranspileVerbatim(t *testing.T) {
	meta := transpile(t, "print(\"hi\")\n", false, false)
	assert.Equal(t, `outputLua("print(\"hi\")\
")
`, meta)
}

func TestTranspileVerbatimDebug(t *testing.T) {
	meta := transpile(t, "print(\"hi\")\n", false, true)
	assert.Equal(t, `outputLua("print(\"hi\")\n")
`, meta)
}

func TestTranspileMetaLine(t *testing.T) {
	meta := transpile(t, "!for i=1,3 do\n    x()\n!end\n", false, false)
	assert.Equal(t, `for i=1,3 do
outputLua("    x()\
")
end
`, meta)
}

func TestTranspileMetaLineComment(t *testing.T) {
	// The comment ends the meta line; the added newline keeps the
	// following fragment out of the comment.
	meta := transpile(t, "!x = 1 -- note\ny\n", false, false)
	assert.Equal(t, `x = 1 -- note
outputLua("\
y\
")
`, meta)
}

func TestTranspileInlineValue(t *testing.T) {
	meta := transpile(t, "local n = !(1+2)\n", false, false)
	assert.Equal(t, `outputLua("local n = ")
outputValue(1+2)
outputLua("\
")
`, meta)
}

func TestTranspileInlineCode(t *testing.T) {
	meta := transpile(t, "!!(\"foo\"..1) = 5\n", false, false)
	assert.Equal(t, `outputLua("foo"..1)
outputLua(" = 5\
")
`, meta)
}

func TestTranspileStatementBlock(t *testing.T) {
	// "x = 1" is not an expression, so the block body runs as
	// metaprogram statements and produces no output of its own.
	meta := transpile(t, "!(x = 1)\n", false, false)
	assert.Equal(t, `x = 1
outputLua("\
")
`, meta)
}

func TestTranspileEmptyMetaBlock(t *testing.T) {
	meta := transpile(t, "!()", false, false)
	assert.Equal(t, "\n", meta)
}

func TestTranspileMetaBlockAcrossLines(t *testing.T) {
	meta := transpile(t, "!(\nx = (1+2)\n)rest\n", false, false)
	assert.Equal(t, `
x = (1+2)

outputLua("rest\
")
`, meta)
}

func TestTranspileLineNumbers(t *testing.T) {
	meta := transpile(t, "a\nb\n", true, false)
	assert.Equal(t, `outputLua("--[[@1]]a\
--[[@2]]b\
")
`, meta)
}

func TestTranspileLineNumbersOnlyOnChange(t *testing.T) {
	meta := transpile(t, "a b\n", true, false)
	assert.Equal(t, `outputLua("--[[@1]]a b\
")
`, meta)
}

func TestTranspileErrors(t *testing.T) {
	tests := []struct {
		source string
		msg    string
	}{
		{"!(1+2", "Missing end of meta block."},
		{"!(a !b)", "Preprocessor token inside metaprogram."},
		{"!local a = !2\n", "Preprocessor token inside metaprogram."},
		{"a !b\n", "Unexpected preprocessor token."},
		{"!!x\n", "Unexpected preprocessor token."},
	}
	for _, tc := range tests {
		tokens, err := Lex("<string>", tc.source)
		require.NoError(t, err, tc.source)
		_, err = Transpile("<string>", tc.source, tokens, false, false)
		require.Error(t, err, tc.source)
		terr, ok := err.(*Error)
		require.True(t, ok)
		assert.Equal(t, "Parser", terr.Sender, tc.source)
		assert.Contains(t, terr.Error(), tc.msg, tc.source)
	}
}

func TestTranspileInvalidInlineCode(t *testing.T) {
	source := "local x = !!(1+)"
	tokens, err := Lex("path.lua2p", source)
	require.NoError(t, err)
	_, err = Transpile("path.lua2p", source, tokens, false, false)
	require.Error(t, err)
	terr := err.(*Error)
	assert.Equal(t, "Parser", terr.Sender)
	assert.Equal(t, "path.lua2p", terr.Filename)
	assert.Equal(t, 1, terr.Line)
	assert.Contains(t, terr.Error(), "valid expression")
}

func TestTranspileNestedParens(t *testing.T) {
	meta := transpile(t, "x = !(f(g(1), 2))\n", false, false)
	assert.Equal(t, `outputLua("x = ")
outputValue(f(g(1), 2))
outputLua("\
")
`, meta)
}
