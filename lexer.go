package luapp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// tokenPunctuation lists all recognized operator and punctuation
	// symbols. The slice is ordered by symbol length (longest first)
	// to ensure greedy matching: "..." is matched before "..".
	tokenPunctuation = []string{
		// 3-char symbols
		"...",

		// 2-char symbols
		"..", "==", "~=", "<=", ">=",

		// 1-char symbols
		"+", "-", "*", "/", "%", "^", "#", "<", ">", "=",
		"(", ")", "{", "}", "[", "]", ";", ":", ",", ".",
	}
)

// lexer scans a preprocessor source file left to right, producing one
// token per dispatch step. It keeps the exact source slice of every
// token so that the concatenated representations reconstruct the input
// byte for byte.
type lexer struct {
	// name is the source path, used only for error reporting.
	name string

	// input is the complete source being lexed.
	input string

	// start is the byte position where the current token begins.
	start int

	// pos is the current byte position in the input (cursor).
	pos int

	// tokens accumulates all tokens produced during lexing.
	tokens []*Token

	// line is the current line number (1-based) in the input.
	line int

	// startline is the line number where the current token begins.
	startline int

	// err is set when a lexical error occurs. Lexing stops; there is
	// no recovery mode.
	err *Error
}

// Lex tokenizes the given source and returns the token vector, or a
// located error on the first malformed token.
func Lex(name, input string) ([]*Token, error) {
	l := &lexer{
		name:      name,
		input:     input,
		tokens:    make([]*Token, 0, 100),
		line:      1,
		startline: 1,
	}
	l.run()
	if l.err != nil {
		return nil, l.err
	}
	return l.tokens, nil
}

// emit creates a token of the given type spanning [start, pos) and
// appends it to the token list. Line accounting happens here: the
// token records the line it starts on, and the cursor line advances by
// the newlines the representation contains.
func (l *lexer) emit(typ TokenType) *Token {
	tok := &Token{
		Filename: l.name,
		Typ:      typ,
		Rep:      l.input[l.start:l.pos],
		Line:     l.startline,
		Pos:      l.start + 1,
	}
	l.tokens = append(l.tokens, tok)
	l.line += strings.Count(tok.Rep, "\n")
	l.start = l.pos
	l.startline = l.line
	return tok
}

// errorf records a lexical error at the start of the current token and
// terminates lexing.
func (l *lexer) errorf(format string, args ...any) {
	l.err = &Error{
		Filename:  l.name,
		Line:      l.startline,
		Column:    columnAt(l.input, l.start+1),
		Sender:    "Lexer",
		OrigError: fmt.Errorf(format, args...),
	}
}

// rest returns the unconsumed input.
func (l *lexer) rest() string {
	return l.input[l.pos:]
}

// run is the main dispatch loop. The order of the cases resolves all
// ambiguities: identifiers before numbers, comments before the '-'
// symbol, long strings before the '[' symbol, multi-char punctuation
// before its prefixes.
func (l *lexer) run() {
	for l.pos < len(l.input) && l.err == nil {
		b := l.input[l.pos]
		switch {
		case isIdentStart(b):
			l.lexIdentifier()
		case isDigit(b):
			l.lexNumber()
		case strings.HasPrefix(l.rest(), "--"):
			l.lexComment()
		case b == '"' || b == '\'':
			l.lexShortString()
		case b == '[' && longBracketLevel(l.rest()) >= 0:
			l.lexLongString()
		case isSpace(b):
			l.lexWhitespace()
		case b == '!':
			l.lexPPEntry()
		default:
			l.lexPunctuation()
		}
	}
}

func (l *lexer) lexIdentifier() {
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	lexeme := l.input[l.start:l.pos]
	typ := TokenIdentifier
	if _, isKeyword := tokenKeywordsMap[lexeme]; isKeyword {
		typ = TokenKeyword
	}
	l.emit(typ).Val = lexeme
}

// lexNumber tries the numeric patterns in a fixed order; the first
// match wins. The exponent forms accept only a leading '-' sign. A hex
// float like 0xFFp2 is therefore read as the number 0xFF followed by
// the identifier p2.
func (l *lexer) lexNumber() {
	lexeme := matchNumber(l.rest())
	if lexeme == "" {
		l.errorf("Malformed number.")
		return
	}
	var (
		n   float64
		err error
	)
	if len(lexeme) > 2 && (lexeme[1] == 'x' || lexeme[1] == 'X') {
		var u uint64
		u, err = strconv.ParseUint(lexeme[2:], 16, 64)
		n = float64(u)
	} else {
		n, err = strconv.ParseFloat(lexeme, 64)
	}
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		l.errorf("Malformed number.")
		return
	}
	l.pos += len(lexeme)
	l.emit(TokenNumber).Num = n
}

// matchNumber returns the numeric lexeme at the start of s, or "".
// Patterns, in order: digits "." digits exponent, digits exponent,
// hex, digits "." digits, digits.
func matchNumber(s string) string {
	if n := matchDecimal(s, true, true); n > 0 {
		return s[:n]
	}
	if n := matchDecimal(s, false, true); n > 0 {
		return s[:n]
	}
	if n := matchHex(s); n > 0 {
		return s[:n]
	}
	if n := matchDecimal(s, true, false); n > 0 {
		return s[:n]
	}
	if n := matchDecimal(s, false, false); n > 0 {
		return s[:n]
	}
	return ""
}

func matchDecimal(s string, wantFraction, wantExponent bool) int {
	i := matchDigits(s, 0)
	if i == 0 {
		return 0
	}
	if wantFraction {
		if i >= len(s) || s[i] != '.' {
			return 0
		}
		j := matchDigits(s, i+1)
		if j == i+1 {
			return 0
		}
		i = j
	}
	if wantExponent {
		if i >= len(s) || (s[i] != 'e' && s[i] != 'E') {
			return 0
		}
		i++
		if i < len(s) && s[i] == '-' {
			i++
		}
		j := matchDigits(s, i)
		if j == i {
			return 0
		}
		i = j
	}
	return i
}

func matchDigits(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

func matchHex(s string) int {
	if len(s) < 3 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return 0
	}
	i := 2
	for i < len(s) && isHexDigit(s[i]) {
		i++
	}
	if i == 2 {
		return 0
	}
	return i
}

// lexComment scans "--" followed by a stringlike body: a long bracket
// form, or everything up to (but not including) the end of the line.
func (l *lexer) lexComment() {
	l.pos += 2
	val, long, ok := l.scanStringlike("comment")
	if !ok {
		return
	}
	tok := l.emit(TokenComment)
	tok.Val = val
	tok.Long = long
}

// lexShortString scans a quote-delimited string. A backslash consumes
// the following byte regardless of what it is; decoding the escape
// sequences is deferred to the host's own string parser.
func (l *lexer) lexShortString() {
	quote := l.input[l.pos]
	l.pos++
	for {
		if l.pos >= len(l.input) {
			l.errorf("Unfinished string.")
			return
		}
		c := l.input[l.pos]
		if c == '\\' {
			if l.pos+1 >= len(l.input) {
				l.errorf("Unfinished string.")
				return
			}
			l.pos += 2
			continue
		}
		l.pos++
		if c == quote {
			break
		}
	}
	val, err := decodeLuaString(l.input[l.start:l.pos])
	if err != nil {
		l.errorf("Malformed string.")
		return
	}
	l.emit(TokenString).Val = val
}

// lexLongString scans a [=*[ ... ]=*] literal. Following Lua, a
// newline directly after the opening bracket is not part of the value.
func (l *lexer) lexLongString() {
	val, long, ok := l.scanStringlike("string")
	if !ok {
		return
	}
	if strings.HasPrefix(val, "\r\n") {
		val = val[2:]
	} else if strings.HasPrefix(val, "\n") {
		val = val[1:]
	}
	tok := l.emit(TokenString)
	tok.Val = val
	tok.Long = long
}

func (l *lexer) lexWhitespace() {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	tok := l.emit(TokenWhitespace)
	tok.Val = tok.Rep
}

func (l *lexer) lexPunctuation() {
	for _, sym := range tokenPunctuation {
		if strings.HasPrefix(l.rest(), sym) {
			l.pos += len(sym)
			l.emit(TokenPunctuation).Val = sym
			return
		}
	}
	l.errorf("Unknown character.")
}

func (l *lexer) lexPPEntry() {
	l.pos++
	double := false
	if l.pos < len(l.input) && l.input[l.pos] == '!' {
		l.pos++
		double = true
	}
	tok := l.emit(TokenPPEntry)
	tok.Val = tok.Rep
	tok.Double = double
}

// scanStringlike scans the shared body form of comments and long
// strings. At entry pos points just past the "--" (for comments) or at
// the opening '[' (for long strings). Returns the decoded body and
// whether the long-bracket form was used.
func (l *lexer) scanStringlike(what string) (val string, long, ok bool) {
	if lvl := longBracketLevel(l.rest()); lvl >= 0 {
		openLen := lvl + 2
		closing := "]" + strings.Repeat("=", lvl) + "]"
		idx := strings.Index(l.input[l.pos+openLen:], closing)
		if idx < 0 {
			l.errorf("Unfinished long %s.", what)
			return "", false, false
		}
		val = l.input[l.pos+openLen : l.pos+openLen+idx]
		l.pos += openLen + idx + len(closing)
		return val, true, true
	}

	// To end of line or EOF; the line break is not part of the token.
	idx := strings.IndexByte(l.rest(), '\n')
	if idx < 0 {
		val = l.rest()
		l.pos = len(l.input)
		return val, false, true
	}
	end := l.pos + idx
	if end > l.pos && l.input[end-1] == '\r' {
		end--
	}
	val = l.input[l.pos:end]
	l.pos = end
	return val, false, true
}

// longBracketLevel reports the equal-sign count of a long-bracket
// opener at the start of s, or -1 if s does not start with one. A
// mismatched form like "[==x" is no opener at all; the '[' falls
// through to punctuation.
func longBracketLevel(s string) int {
	if len(s) < 2 || s[0] != '[' {
		return -1
	}
	i := 1
	for i < len(s) && s[i] == '=' {
		i++
	}
	if i < len(s) && s[i] == '[' {
		return i - 1
	}
	return -1
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
