package luapp

import (
	"strings"
	"testing"
)

// FuzzLexer directly fuzzes the lexer to find tokenization edge cases.
// Whatever the input, the lexer must either report an error or produce
// a token vector whose representations reconstruct the input exactly.
func FuzzLexer(f *testing.F) {
	// Plain Lua
	f.Add("print(\"hi\")\n")
	f.Add("local t = { a=1, [2]='x' }\n")
	f.Add("")
	f.Add("\n\n\n")

	// Strings and escapes
	f.Add(`s = "a\nb"`)
	f.Add(`s = 'it\'s'`)
	f.Add(`s = "\65\66"`)
	f.Add(`s = "unfinished`)
	f.Add(`s = "trailing\`)

	// Long brackets
	f.Add("s = [[abc]]")
	f.Add("s = [==[a]b]==]")
	f.Add("s = [[\nx]]")
	f.Add("s = [==[mismatch]=]")
	f.Add("x = [==y")

	// Comments
	f.Add("-- note\n")
	f.Add("--[[ multi\nline ]]\n")
	f.Add("--[==[ deep ]==]\n")
	f.Add("--[[ open")

	// Numbers
	f.Add("n = 0")
	f.Add("n = 42")
	f.Add("n = 1.5e2")
	f.Add("n = 12e-3")
	f.Add("n = 0xFF")
	f.Add("n = 0xFFp2")
	f.Add("n = 1..2")

	// Preprocessor entries
	f.Add("!for i=1,3 do\nx()\n!end\n")
	f.Add("a = !(1+2)\n")
	f.Add("!!(\"x\") = 1\n")
	f.Add("!")
	f.Add("!!")

	// Punctuation
	f.Add("a ~= b; c <= d")
	f.Add("f(...)")
	f.Add("...=>=~===..")

	f.Fuzz(func(t *testing.T, input string) {
		tokens, err := Lex("<fuzz>", input)
		if err != nil {
			return
		}

		var joined strings.Builder
		for _, tok := range tokens {
			joined.WriteString(tok.Rep)
		}
		if joined.String() != input {
			t.Fatalf("representations do not reconstruct the input:\nin:  %q\nout: %q",
				input, joined.String())
		}

		last := 0
		for _, tok := range tokens {
			if tok.Line < last {
				t.Fatalf("token lines must be non-decreasing: %d after %d", tok.Line, last)
			}
			last = tok.Line
			if got := input[tok.Pos-1 : tok.Pos-1+len(tok.Rep)]; got != tok.Rep {
				t.Fatalf("representation %q does not match input slice %q at pos %d",
					tok.Rep, got, tok.Pos)
			}
		}
	})
}

// FuzzTranspiler runs the full lex+transpile front end. The transpiler
// must never panic; any failure has to be a located error.
func FuzzTranspiler(f *testing.F) {
	f.Add("print(\"hi\")\n")
	f.Add("!for i=1,3 do\nx()\n!end\n")
	f.Add("a = !(1+2)\n")
	f.Add("!!(\"x\") = 1\n")
	f.Add("!(x = 1)\n")
	f.Add("!()")
	f.Add("!(unclosed")
	f.Add("!! stray\n")
	f.Add("!local a = !2\n")
	f.Add("!(\nmulti\nline\n)\n")

	f.Fuzz(func(t *testing.T, input string) {
		tokens, err := Lex("<fuzz>", input)
		if err != nil {
			return
		}
		if _, err := Transpile("<fuzz>", input, tokens, true, false); err != nil {
			if _, ok := err.(*Error); !ok {
				t.Fatalf("transpiler returned an unlocated error: %v", err)
			}
		}
	})
}
