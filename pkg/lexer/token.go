// Package lexer splits raw source text into a flat, classified token stream.
//
// The lexer knows just enough about a language to tell code apart from comments,
// string literals and whitespace. It never fails: characters it does not recognize
// become single-character code tokens.
package lexer

// Kind classifies a token.
type Kind uint8

const (
	Code Kind = iota
	Comment
	String
	Whitespace
	Newline
)

func (k Kind) String() string {
	switch k {
	case Code:
		return "code"
	case Comment:
		return "comment"
	case String:
		return "string"
	case Whitespace:
		return "whitespace"
	case Newline:
		return "newline"
	default:
		return "unknown"
	}
}

// Token is one lexical unit of the source.
type Token struct {
	Kind Kind
	Text string

	// Col is the visual column (0-based, tabs expanded) where the token starts.
	Col int

	// Continuation marks a Newline token that falls inside a multi-line string
	// literal or block comment. It advances the line count but does not end a
	// logical line.
	Continuation bool

	// Indent is set on Newline tokens: the visual column of the first
	// non-whitespace token on the next physical line, whatever its kind.
	// It is 0 when that line is blank.
	Indent int
}

// IsCode reports whether t is a code token with the given text.
func (t Token) IsCode(text string) bool {
	return t.Kind == Code && t.Text == text
}

// IsIdent reports whether t is a code token that looks like an identifier or keyword.
func (t Token) IsIdent() bool {
	if t.Kind != Code || t.Text == "" {
		return false
	}
	return isIdentStart(firstRune(t.Text))
}
