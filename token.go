package luapp

import (
	"fmt"
)

// TokenType represents the classification of a lexer token.
type TokenType int

const (
	// TokenIdentifier represents a name that is not a reserved word.
	TokenIdentifier TokenType = iota

	// TokenKeyword represents one of Lua's reserved words.
	TokenKeyword

	// TokenNumber represents a numeric literal. The decoded value is
	// stored in Num.
	TokenNumber

	// TokenString represents a short or long string literal. Val holds
	// the decoded contents, Rep the literal exactly as written.
	TokenString

	// TokenComment represents a line comment or a long comment. Val
	// holds the comment body without the delimiters.
	TokenComment

	// TokenWhitespace represents a run of whitespace characters.
	TokenWhitespace

	// TokenPunctuation represents an operator or punctuation symbol.
	TokenPunctuation

	// TokenPPEntry represents a preprocessor sigil: '!' or '!!'.
	TokenPPEntry

	// TokenStringlike names the shared body form of comments and long
	// strings. The lexer scans that body without creating a token of
	// this type, so it never appears in the token vector returned by
	// Lex.
	TokenStringlike
)

var (
	// TokenKeywords lists Lua's reserved words. An identifier-shaped
	// lexeme matching this set is emitted as TokenKeyword.
	TokenKeywords = []string{
		"and", "break", "do", "else", "elseif", "end", "false", "for",
		"function", "if", "in", "local", "nil", "not", "or", "repeat",
		"return", "then", "true", "until", "while",
	}

	// tokenKeywordsMap is a pre-compiled map for O(1) keyword lookup.
	tokenKeywordsMap = map[string]struct{}{
		"and": {}, "break": {}, "do": {}, "else": {}, "elseif": {},
		"end": {}, "false": {}, "for": {}, "function": {}, "if": {},
		"in": {}, "local": {}, "nil": {}, "not": {}, "or": {},
		"repeat": {}, "return": {}, "then": {}, "true": {}, "until": {},
		"while": {},
	}
)

// Token represents a single lexical element of a preprocessor source
// file. Tokens are immutable once produced; concatenating the Rep
// fields of a token vector reconstructs the source byte for byte.
type Token struct {
	// Filename is the name of the file this token came from.
	// Used for error reporting.
	Filename string

	// Typ indicates what kind of token this is.
	Typ TokenType

	// Rep is the exact source substring the token spans, including
	// quotes, brackets and escapes.
	Rep string

	// Val is the decoded semantic value: identifier text, decoded
	// string contents, comment body, the literal characters for
	// whitespace and punctuation, or the sigil for TokenPPEntry.
	Val string

	// Num is the numeric value for TokenNumber tokens.
	Num float64

	// Line is the 1-based line number where this token starts.
	Line int

	// Pos is the 1-based byte offset where this token starts.
	Pos int

	// Long is true for strings and comments delimited by the
	// long-bracket form with matching equal-sign run length.
	Long bool

	// Double is true for a '!!' sigil, false for '!'.
	Double bool
}

// String returns a human-readable representation of the token for
// debugging. Long values (>1000 chars) are truncated.
func (t *Token) String() string {
	rep := t.Rep
	if len(rep) > 1000 {
		rep = fmt.Sprintf("%s...%s", rep[:10], rep[len(rep)-5:])
	}

	typ := ""
	switch t.Typ {
	case TokenIdentifier:
		typ = "Identifier"
	case TokenKeyword:
		typ = "Keyword"
	case TokenNumber:
		typ = "Number"
	case TokenString:
		typ = "String"
	case TokenComment:
		typ = "Comment"
	case TokenWhitespace:
		typ = "Whitespace"
	case TokenPunctuation:
		typ = "Punctuation"
	case TokenPPEntry:
		typ = "PPEntry"
	case TokenStringlike:
		typ = "Stringlike"
	default:
		typ = "Unknown"
	}

	return fmt.Sprintf("<Token Typ=%s (%d) Rep='%s' Line=%d Pos=%d>",
		typ, t.Typ, rep, t.Line, t.Pos)
}
