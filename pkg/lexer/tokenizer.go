package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer lexes source text according to a Syntax.
// A Tokenizer holds no per-call state and is safe for concurrent use.
type Tokenizer struct {
	syntax Syntax
}

// New creates a tokenizer for the given syntax.
func New(syntax Syntax) *Tokenizer {
	if syntax.TabWidth <= 0 {
		syntax.TabWidth = DefaultTabWidth
	}
	return &Tokenizer{syntax: syntax}
}

// Syntax returns the tokenizer's configuration.
func (t *Tokenizer) Syntax() Syntax {
	return t.syntax
}

// GenerateTokens lexes source in a single pass. Concatenating the Text of every
// returned token reproduces source exactly.
func (t *Tokenizer) GenerateTokens(source string) []Token {
	s := &scanner{
		src:         source,
		syn:         &t.syntax,
		tokens:      make([]Token, 0, len(source)/3+1),
		openNewline: -1,
	}
	s.run()
	return s.tokens
}

// CountNLOC counts lines holding at least one code or string token.
// Blank lines and comment-only lines are not counted.
func (t *Tokenizer) CountNLOC(source string) int {
	return CountNLOC(t.GenerateTokens(source))
}

// FilterCodeTokens drops comment, string and whitespace tokens, keeping code
// tokens and every newline token so that consumers can still track lines.
func FilterCodeTokens(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens)/2+1)
	for _, tok := range tokens {
		if tok.Kind == Code || tok.Kind == Newline {
			out = append(out, tok)
		}
	}
	return out
}

// CountNLOC counts the lines of an already lexed stream that hold at least one
// code or non-empty string token.
func CountNLOC(tokens []Token) int {
	count := 0
	lineHasCode := false
	for _, tok := range tokens {
		switch tok.Kind {
		case Newline:
			if lineHasCode {
				count++
			}
			lineHasCode = false
		case Code, String:
			if strings.TrimSpace(tok.Text) != "" {
				lineHasCode = true
			}
		}
	}
	if lineHasCode {
		count++
	}
	return count
}

type scanner struct {
	src    string
	syn    *Syntax
	pos    int
	col    int
	tokens []Token

	// openNewline indexes the last Newline token whose Indent is not yet known.
	openNewline int
}

func (s *scanner) run() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\n':
			s.newline(false)
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			s.scanWhitespace()
		case s.syn.LineComment != "" && strings.HasPrefix(s.src[s.pos:], s.syn.LineComment):
			s.scanLineComment()
		case s.syn.BlockOpen != "" && strings.HasPrefix(s.src[s.pos:], s.syn.BlockOpen):
			s.scanBlockComment()
		case s.isQuote(c):
			s.scanString(s.pos, s.pos)
		case c == '/' && s.syn.RegexLiterals && s.regexAllowed():
			if !s.scanRegex() {
				s.scanOperator()
			}
		case isDigit(c), c == '.' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1]):
			s.scanNumber()
		default:
			r, _ := utf8.DecodeRuneInString(s.src[s.pos:])
			if isIdentStart(r) {
				s.scanWord()
				continue
			}
			s.scanOperator()
		}
	}
}

// emit appends src[start:end] as a token and advances the column.
func (s *scanner) emit(kind Kind, start, end int) {
	if end <= start {
		return
	}
	text := s.src[start:end]
	if kind != Whitespace && s.openNewline >= 0 {
		s.tokens[s.openNewline].Indent = s.col
		s.openNewline = -1
	}
	s.tokens = append(s.tokens, Token{Kind: kind, Text: text, Col: s.col})
	s.advanceCol(text)
	s.pos = end
}

func (s *scanner) advanceCol(text string) {
	for _, r := range text {
		if r == '\t' {
			s.col = (s.col/s.syn.TabWidth + 1) * s.syn.TabWidth
			continue
		}
		s.col++
	}
}

func (s *scanner) newline(continuation bool) {
	s.tokens = append(s.tokens, Token{Kind: Newline, Text: "\n", Col: s.col, Continuation: continuation})
	s.openNewline = len(s.tokens) - 1
	s.pos++
	s.col = 0
}

func (s *scanner) scanWhitespace() {
	end := s.pos
	for end < len(s.src) {
		c := s.src[end]
		if c != ' ' && c != '\t' && c != '\r' && c != '\f' && c != '\v' {
			break
		}
		end++
	}
	s.emit(Whitespace, s.pos, end)
}

func (s *scanner) scanLineComment() {
	end := strings.IndexByte(s.src[s.pos:], '\n')
	if end < 0 {
		end = len(s.src)
	} else {
		end += s.pos
	}
	s.emit(Comment, s.pos, end)
}

// scanBlockComment emits one Comment token per physical line the comment covers,
// separated by continuation newlines. Unterminated comments run to end of input.
func (s *scanner) scanBlockComment() {
	start := s.pos
	i := s.pos + len(s.syn.BlockOpen)
	for i < len(s.src) {
		if strings.HasPrefix(s.src[i:], s.syn.BlockClose) {
			s.emit(Comment, start, i+len(s.syn.BlockClose))
			return
		}
		if s.src[i] == '\n' {
			s.emit(Comment, start, i)
			s.pos = i
			s.newline(true)
			i++
			start = i
			continue
		}
		i++
	}
	s.emit(Comment, start, len(s.src))
	s.pos = len(s.src)
}

func (s *scanner) isQuote(c byte) bool {
	return strings.IndexByte(s.syn.Quotes, c) >= 0 ||
		strings.IndexByte(s.syn.TemplateQuotes, c) >= 0 ||
		strings.IndexByte(s.syn.RawQuotes, c) >= 0
}

// scanString lexes a literal whose (optional) prefix starts at start and whose
// opening quote is at quote.
func (s *scanner) scanString(start, quote int) {
	c := s.src[quote]
	delim := string(c)
	multiline := false
	escapes := true

	switch {
	case s.syn.TripleQuotes && (strings.HasPrefix(s.src[quote:], `"""`) || strings.HasPrefix(s.src[quote:], `'''`)):
		delim = s.src[quote : quote+3]
		multiline = true
	case strings.IndexByte(s.syn.RawQuotes, c) >= 0:
		multiline = true
		escapes = false
	case strings.IndexByte(s.syn.TemplateQuotes, c) >= 0:
		multiline = true
	}

	i := quote + len(delim)
	for i < len(s.src) {
		ch := s.src[i]
		switch {
		case escapes && ch == '\\' && i+1 < len(s.src):
			if s.src[i+1] == '\n' {
				s.emit(String, start, i+1)
				s.pos = i + 1
				s.newline(true)
				i += 2
				start = i
				continue
			}
			i += 2
		case ch == '\n':
			if !multiline {
				s.emit(String, start, i)
				s.pos = i
				return
			}
			s.emit(String, start, i)
			s.pos = i
			s.newline(true)
			i++
			start = i
		case strings.HasPrefix(s.src[i:], delim):
			s.emit(String, start, i+len(delim))
			return
		default:
			i++
		}
	}
	s.emit(String, start, len(s.src))
	s.pos = len(s.src)
}

// regexKeywords may directly precede an expression, so a slash after them
// starts a regular expression.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "instanceof": true, "new": true, "delete": true,
	"void": true, "throw": true, "yield": true, "await": true,
}

// regexAllowed reports whether a slash at the current position starts an
// operand. It does after operators, punctuation other than closing brackets,
// the keywords above and at the start of input.
func (s *scanner) regexAllowed() bool {
	for i := len(s.tokens) - 1; i >= 0; i-- {
		tok := s.tokens[i]
		switch tok.Kind {
		case Whitespace, Comment, Newline:
			continue
		case String:
			return false
		}
		text := tok.Text
		switch {
		case regexKeywords[text]:
			return true
		case isIdentStart(firstRune(text)), isDigit(text[0]), len(text) > 1 && text[0] == '.' && isDigit(text[1]):
			return false
		}
		return text != ")" && text != "]" && text != "++" && text != "--"
	}
	return true
}

// scanRegex lexes a regular expression literal and its flags as one String
// token. It consumes nothing and reports false when the line ends first.
func (s *scanner) scanRegex() bool {
	inClass := false
	for i := s.pos + 1; i < len(s.src); i++ {
		switch s.src[i] {
		case '\\':
			if i+1 < len(s.src) && s.src[i+1] == '\n' {
				return false
			}
			i++
		case '\n':
			return false
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if inClass {
				continue
			}
			end := i + 1
			for end < len(s.src) && s.src[end] >= 'a' && s.src[end] <= 'z' {
				end++
			}
			s.emit(String, s.pos, end)
			return true
		}
	}
	return false
}

func (s *scanner) scanNumber() {
	end := s.pos
	for end < len(s.src) {
		c := s.src[end]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '.') {
			break
		}
		end++
	}
	s.emit(Code, s.pos, end)
}

func (s *scanner) scanWord() {
	end := s.pos
	for end < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[end:])
		if !isIdentPart(r) {
			break
		}
		end += size
	}

	word := s.src[s.pos:end]
	if end < len(s.src) && s.isQuote(s.src[end]) && s.isStringPrefix(word) {
		s.scanString(s.pos, end)
		return
	}
	s.emit(Code, s.pos, end)
}

func (s *scanner) isStringPrefix(word string) bool {
	if s.syn.StringPrefixes == "" || len(word) > 2 {
		return false
	}
	for i := 0; i < len(word); i++ {
		if strings.IndexByte(s.syn.StringPrefixes, word[i]) < 0 {
			return false
		}
	}
	return true
}

func (s *scanner) scanOperator() {
	rest := s.src[s.pos:]
	for _, op := range s.syn.Operators {
		if !strings.HasPrefix(rest, op) {
			continue
		}
		// "?." followed by a digit is a ternary and a decimal literal.
		if op == "?." && len(rest) > 2 && isDigit(rest[2]) {
			continue
		}
		s.emit(Code, s.pos, s.pos+len(op))
		return
	}
	_, size := utf8.DecodeRuneInString(rest)
	s.emit(Code, s.pos, s.pos+size)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
