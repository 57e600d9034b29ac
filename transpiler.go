package luapp

import (
	"fmt"
	"strings"
)

// transpiler walks the token vector and emits a metaprogram: a pure
// Lua script that rebuilds the output by calling the sink functions
// outputLua (verbatim text) and outputValue (serialized literals).
type transpiler struct {
	name   string
	source string
	tokens []*Token
	idx    int

	// parts is the growing metaprogram fragment list; concatenated in
	// order it yields the metaprogram source.
	parts []string

	// pending holds ordinary source tokens awaiting emission as a
	// single verbatim chunk.
	pending []*Token

	// inMeta is true inside a single-line meta statement.
	inMeta bool

	// startOfLine is true when no non-whitespace, non-line-comment
	// token has been seen since the last newline.
	startOfLine bool

	// lastLine is the last source line number written out, used for
	// the optional line-number annotations.
	lastLine int

	addLineNumbers bool
	debug          bool
}

// Transpile converts a token vector into the metaprogram text. The
// source is the text the tokens were lexed from; it is only used to
// compute error columns.
func Transpile(name, source string, tokens []*Token, addLineNumbers, debug bool) (string, error) {
	t := &transpiler{
		name:           name,
		source:         source,
		tokens:         tokens,
		addLineNumbers: addLineNumbers,
		debug:          debug,
	}
	if err := t.run(); err != nil {
		return "", err
	}
	return strings.Join(t.parts, ""), nil
}

func (t *transpiler) peek(shift int) *Token {
	if t.idx+shift >= len(t.tokens) {
		return nil
	}
	return t.tokens[t.idx+shift]
}

func (t *transpiler) errorAt(tok *Token, format string, args ...any) error {
	return &Error{
		Filename:  t.name,
		Line:      tok.Line,
		Column:    columnAt(t.source, tok.Pos),
		Token:     tok,
		Sender:    "Parser",
		OrigError: fmt.Errorf(format, args...),
	}
}

func (t *transpiler) run() error {
	t.startOfLine = true
	for t.idx < len(t.tokens) {
		tok := t.tokens[t.idx]

		if t.inMeta {
			if err := t.metaToken(tok); err != nil {
				return err
			}
			continue
		}

		switch {
		case tok.Typ == TokenPPEntry:
			next := t.peek(1)
			openParen := next != nil && next.Typ == TokenPunctuation && next.Val == "("
			switch {
			case openParen:
				if err := t.metaBlock(tok); err != nil {
					return err
				}
			case t.startOfLine && !tok.Double:
				// A meta line: everything up to the end of the line is
				// metaprogram code, emitted without the sigil.
				t.flushPending()
				t.inMeta = true
				t.idx++
			default:
				return t.errorAt(tok, "Unexpected preprocessor token.")
			}

		case tok.Typ == TokenWhitespace, tok.Typ == TokenComment && !tok.Long:
			t.pending = append(t.pending, tok)
			if tok.Typ == TokenComment || strings.Contains(tok.Rep, "\n") {
				t.startOfLine = true
			}
			t.idx++

		default:
			t.pending = append(t.pending, tok)
			t.startOfLine = false
			t.idx++
		}
	}
	t.flushPending()
	return nil
}

// metaToken handles one token inside a meta line. The line ends at a
// newline-carrying whitespace token or at a short comment; everything
// else is metaprogram code emitted verbatim.
func (t *transpiler) metaToken(tok *Token) error {
	switch {
	case tok.Typ == TokenPPEntry:
		return t.errorAt(tok, "Preprocessor token inside metaprogram.")

	case tok.Typ == TokenWhitespace && strings.Contains(tok.Rep, "\n"):
		t.parts = append(t.parts, "\n")
		t.inMeta = false
		t.startOfLine = true
		// Whitespace past the newline belongs to the host source
		// again; requeue it so indentation survives.
		if rest := tok.Rep[strings.IndexByte(tok.Rep, '\n')+1:]; rest != "" {
			t.pending = append(t.pending, &Token{
				Filename: tok.Filename,
				Typ:      TokenWhitespace,
				Rep:      rest,
				Val:      rest,
				Line:     tok.Line + strings.Count(tok.Rep[:len(tok.Rep)-len(rest)], "\n"),
				Pos:      tok.Pos + len(tok.Rep) - len(rest),
			})
		}
		t.idx++

	case tok.Typ == TokenComment && !tok.Long:
		// Without the added newline the next fragment would end up
		// inside the comment.
		t.parts = append(t.parts, tok.Rep, "\n")
		t.inMeta = false
		t.startOfLine = true
		t.idx++

	default:
		t.parts = append(t.parts, tok.Rep)
		t.idx++
	}
	return nil
}

// metaBlock handles '!( ... )' and '!!( ... )'. The parentheses are
// balanced at the token level and may span multiple physical lines.
// The block body is classified as expression or statements by asking
// the host compiler.
func (t *transpiler) metaBlock(entry *Token) error {
	t.flushPending()
	t.idx += 2 // the sigil and the opening parenthesis

	depth := 1
	var body strings.Builder
	for {
		if t.idx >= len(t.tokens) {
			return t.errorAt(entry, "Missing end of meta block.")
		}
		tok := t.tokens[t.idx]
		if tok.Typ == TokenPPEntry {
			return t.errorAt(tok, "Preprocessor token inside metaprogram.")
		}
		if tok.Typ == TokenPunctuation {
			switch tok.Val {
			case "(":
				depth++
			case ")":
				depth--
			}
			if depth == 0 {
				t.idx++
				break
			}
		}
		body.WriteString(tok.Rep)
		t.idx++
	}

	b := body.String()
	isExpression := luaCompiles("return(" + b + ")")
	switch {
	case entry.Double:
		if !isExpression {
			return t.errorAt(entry,
				"Meta block variant does not contain a valid expression: '!!(%s)'.", b)
		}
		t.parts = append(t.parts, "outputLua("+b+")\n")
	case isExpression:
		t.parts = append(t.parts, "outputValue("+b+")\n")
	default:
		// Statement block: metaprogram code that produces no output
		// unless it calls the sinks itself.
		t.parts = append(t.parts, b+"\n")
	}
	t.startOfLine = false
	return nil
}

// flushPending emits the accumulated ordinary tokens as one
// outputLua(...) call holding their exact concatenated source text.
func (t *transpiler) flushPending() {
	if len(t.pending) == 0 {
		return
	}
	var lua strings.Builder
	for _, tok := range t.pending {
		if t.addLineNumbers && tok.Typ != TokenWhitespace && tok.Typ != TokenComment &&
			tok.Line != t.lastLine {
			fmt.Fprintf(&lua, "--[[@%d]]", tok.Line)
			t.lastLine = tok.Line
		}
		lua.WriteString(tok.Rep)
	}
	t.pending = t.pending[:0]
	t.parts = append(t.parts, "outputLua("+serializeString(lua.String(), t.debug)+")\n")
}
