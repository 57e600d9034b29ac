package luapp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []*Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Typ
	}
	return out
}

func reps(tokens []*Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Rep
	}
	return out
}

func TestLexBasics(t *testing.T) {
	tokens, err := Lex("<string>", "local x = 1.5 -- hi\n")
	require.NoError(t, err)

	assert.Equal(t, []TokenType{
		TokenKeyword, TokenWhitespace, TokenIdentifier, TokenWhitespace,
		TokenPunctuation, TokenWhitespace, TokenNumber, TokenWhitespace,
		TokenComment, TokenWhitespace,
	}, kinds(tokens))
	assert.Equal(t, []string{
		"local", " ", "x", " ", "=", " ", "1.5", " ", "-- hi", "\n",
	}, reps(tokens))

	assert.Equal(t, "local", tokens[0].Val)
	assert.Equal(t, "x", tokens[2].Val)
	assert.Equal(t, 1.5, tokens[6].Num)
	assert.Equal(t, " hi", tokens[8].Val)
	assert.False(t, tokens[8].Long)
}

func TestLexRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"print(\"hi\")\n",
		"local t = { a=1, [2]='x' }\n",
		"-- comment\n--[[ long\ncomment ]]\nx=1\n",
		"s = [[raw\nstring]] .. 'other'\n",
		"!for i=1,3 do\n    x()\n!end\n",
		"a = !(1+2) and !!(\"b\")\n",
		"if a ~= b then c = a <= b end\n",
		"f(...)\nx = 0xFF + 12e-3\n",
		"\t \r\n  \n",
	}
	for _, input := range inputs {
		tokens, err := Lex("<string>", input)
		require.NoError(t, err, "input %q", input)

		var joined strings.Builder
		for _, tok := range tokens {
			joined.WriteString(tok.Rep)
		}
		assert.Equal(t, input, joined.String(), "representations must reconstruct the source")
	}
}

func TestLexKeywords(t *testing.T) {
	for _, kw := range TokenKeywords {
		tokens, err := Lex("<string>", kw)
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		assert.Equal(t, TokenKeyword, tokens[0].Typ, kw)
	}

	tokens, err := Lex("<string>", "ending")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenIdentifier, tokens[0].Typ)
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		input string
		num   float64
	}{
		{"0", 0},
		{"42", 42},
		{"1.5", 1.5},
		{"1.5e2", 150},
		{"12e-3", 0.012},
		{"3E2", 300},
		{"0xFF", 255},
		{"0x10", 16},
	}
	for _, tc := range tests {
		tokens, err := Lex("<string>", tc.input)
		require.NoError(t, err, tc.input)
		require.Len(t, tokens, 1, tc.input)
		assert.Equal(t, TokenNumber, tokens[0].Typ, tc.input)
		assert.Equal(t, tc.num, tokens[0].Num, tc.input)
	}
}

func TestLexHexFloatSplits(t *testing.T) {
	// 0xFFp2 is not a recognized number form; it reads as the number
	// 0xFF followed by the identifier p2.
	tokens, err := Lex("<string>", "0xFFp2")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenNumber, tokens[0].Typ)
	assert.Equal(t, 255.0, tokens[0].Num)
	assert.Equal(t, TokenIdentifier, tokens[1].Typ)
	assert.Equal(t, "p2", tokens[1].Val)
}

func TestLexNumberConcat(t *testing.T) {
	tokens, err := Lex("<string>", "1..2")
	require.NoError(t, err)
	require.Equal(t, []string{"1", "..", "2"}, reps(tokens))
	assert.Equal(t, TokenPunctuation, tokens[1].Typ)
}

func TestLexShortStrings(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{`"abc"`, "abc"},
		{`""`, ""},
		{`"a\nb"`, "a\nb"},
		{`'it\'s'`, "it's"},
		{`"tab\there"`, "tab\there"},
		{`"\65"`, "A"},
		{`"quote \" inside"`, `quote " inside`},
	}
	for _, tc := range tests {
		tokens, err := Lex("<string>", tc.input)
		require.NoError(t, err, tc.input)
		require.Len(t, tokens, 1, tc.input)
		assert.Equal(t, TokenString, tokens[0].Typ)
		assert.Equal(t, tc.value, tokens[0].Val, tc.input)
		assert.Equal(t, tc.input, tokens[0].Rep, tc.input)
		assert.False(t, tokens[0].Long)
	}
}

func TestLexLongStrings(t *testing.T) {
	tokens, err := Lex("<string>", "[[abc]]")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenString, tokens[0].Typ)
	assert.True(t, tokens[0].Long)
	assert.Equal(t, "abc", tokens[0].Val)

	tokens, err = Lex("<string>", "[==[a]b]==]")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "a]b", tokens[0].Val)

	// A newline right after the opening bracket is not part of the
	// value, but stays in the representation.
	tokens, err = Lex("<string>", "[[\nx]]")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "x", tokens[0].Val)
	assert.Equal(t, "[[\nx]]", tokens[0].Rep)
}

func TestLexMismatchedLongBracket(t *testing.T) {
	// "[==x" is no long-bracket opener; the '[' falls through to
	// punctuation.
	tokens, err := Lex("<string>", "[==x")
	require.NoError(t, err)
	require.Equal(t, []string{"[", "==", "x"}, reps(tokens))
	assert.Equal(t, TokenPunctuation, tokens[0].Typ)
}

func TestLexComments(t *testing.T) {
	tokens, err := Lex("<string>", "--[[ multi\nline ]]")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenComment, tokens[0].Typ)
	assert.True(t, tokens[0].Long)
	assert.Equal(t, " multi\nline ", tokens[0].Val)

	// A line comment stops before the line break.
	tokens, err = Lex("<string>", "-- note\nx")
	require.NoError(t, err)
	require.Equal(t, []string{"-- note", "\n", "x"}, reps(tokens))
	assert.Equal(t, " note", tokens[0].Val)
}

func TestLexPPEntry(t *testing.T) {
	tokens, err := Lex("<string>", "!x !!y")
	require.NoError(t, err)
	require.Equal(t, []string{"!", "x", " ", "!!", "y"}, reps(tokens))
	assert.Equal(t, TokenPPEntry, tokens[0].Typ)
	assert.False(t, tokens[0].Double)
	assert.Equal(t, TokenPPEntry, tokens[3].Typ)
	assert.True(t, tokens[3].Double)
}

func TestLexPunctuationGreedy(t *testing.T) {
	tokens, err := Lex("<string>", "...=>=~===..")
	require.NoError(t, err)
	assert.Equal(t, []string{"...", "=", ">=", "~=", "==", ".."}, reps(tokens))
}

func TestLexLineTracking(t *testing.T) {
	tokens, err := Lex("<string>", "a\nbb\n[[x\ny]]\nc")
	require.NoError(t, err)

	lines := make([]int, len(tokens))
	for i, tok := range tokens {
		lines[i] = tok.Line
	}
	// a, \n, bb, \n, [[x\ny]], \n, c
	assert.Equal(t, []int{1, 1, 2, 2, 3, 4, 5}, lines)

	last := 0
	for _, tok := range tokens {
		require.GreaterOrEqual(t, tok.Line, last)
		last = tok.Line
	}
}

func TestLexPositions(t *testing.T) {
	input := "ab ==\ncd"
	tokens, err := Lex("<string>", input)
	require.NoError(t, err)
	for _, tok := range tokens {
		require.Equal(t, tok.Rep, input[tok.Pos-1:tok.Pos-1+len(tok.Rep)],
			"representation must equal the input slice at Pos")
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{`"abc`, "Unfinished string."},
		{`"ab\`, "Unfinished string."},
		{"'x\\", "Unfinished string."},
		{"[[abc", "Unfinished long string."},
		{"--[[abc", "Unfinished long comment."},
		{"$", "Unknown character."},
		{"~", "Unknown character."},
	}
	for _, tc := range tests {
		_, err := Lex("input.lua2p", tc.input)
		require.Error(t, err, "input %q", tc.input)
		lerr, ok := err.(*Error)
		require.True(t, ok)
		assert.Equal(t, "Lexer", lerr.Sender)
		assert.Equal(t, "input.lua2p", lerr.Filename)
		assert.Equal(t, 1, lerr.Line)
		assert.Contains(t, lerr.Error(), tc.msg)
	}
}

func TestLexErrorColumn(t *testing.T) {
	_, err := Lex("input.lua2p", "x = 1\ny = $")
	require.Error(t, err)
	lerr := err.(*Error)
	assert.Equal(t, 2, lerr.Line)
	assert.Equal(t, 5, lerr.Column)
}
