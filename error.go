package luapp

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// This Error type is being used to address an error during lexing,
// transpiling, metaprogram execution or output validation. If you want
// to return an error object (for example from a message handler) fill
// this object with as much information as you have. Make sure "Sender"
// is always given: the component that noticed the problem ("Lexer",
// "Parser", "Runtime", "Serializer", "Output" or "CLI").
type Error struct {
	Filename  string
	Line      int
	Column    int
	Token     *Token
	Sender    string
	OrigError error
}

// Returns a nice formatted error string.
func (e *Error) Error() string {
	s := "Error @ "
	if e.Filename != "" {
		s += e.Filename
	} else {
		s += "?"
	}
	if e.Line > 0 {
		s += fmt.Sprintf(":%d", e.Line)
		if e.Column > 0 {
			s += fmt.Sprintf(":%d", e.Column)
		}
	}
	s += ": "
	if e.Sender != "" {
		s += "[" + e.Sender + "] "
	}
	if e.OrigError != nil {
		s += e.OrigError.Error()
	}
	return s
}

// Unwrap exposes the underlying error to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.OrigError
}

// RawLine returns the affected line from the original source file, if
// available.
func (e *Error) RawLine() (line string, available bool) {
	if e.Line <= 0 || e.Filename == "" || e.Filename == "<string>" {
		return "", false
	}

	file, err := os.Open(e.Filename)
	if err != nil {
		return "", false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	l := 0
	for scanner.Scan() {
		l++
		if l == e.Line {
			return scanner.Text(), true
		}
	}
	return "", false
}

// Excerpt returns a two-line excerpt: the offending source line and a
// caret underlining the error column. The excerpt is built from the
// given source if non-empty, otherwise from the file named by Filename.
func (e *Error) Excerpt(source string) (string, bool) {
	var line string
	if source != "" {
		lines := strings.Split(source, "\n")
		if e.Line <= 0 || e.Line > len(lines) {
			return "", false
		}
		line = strings.TrimSuffix(lines[e.Line-1], "\r")
	} else {
		var ok bool
		line, ok = e.RawLine()
		if !ok {
			return "", false
		}
	}

	var caret strings.Builder
	for i := 0; i < e.Column-1 && i < len(line); i++ {
		if line[i] == '\t' {
			caret.WriteByte('\t')
		} else {
			caret.WriteByte(' ')
		}
	}
	caret.WriteByte('^')
	return line + "\n" + caret.String(), true
}

// FormatError renders any error for terminal display. Located lexical
// and structural errors gain a caret-underlined source excerpt.
func FormatError(err error) string {
	e, ok := err.(*Error)
	if !ok {
		return err.Error()
	}
	msg := e.Error()
	if e.Sender == "Lexer" || e.Sender == "Parser" {
		if excerpt, ok := e.Excerpt(""); ok {
			msg += "\n" + excerpt
		}
	}
	return msg
}

// columnAt returns the 1-based column of the 1-based byte offset pos
// within source.
func columnAt(source string, pos int) int {
	if pos <= 0 || pos > len(source)+1 {
		return 0
	}
	col := 1
	for i := pos - 2; i >= 0; i-- {
		if source[i] == '\n' {
			break
		}
		col++
	}
	return col
}
