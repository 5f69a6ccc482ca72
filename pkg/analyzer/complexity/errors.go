package complexity

import (
	"errors"
	"fmt"

	"github.com/panbanda/ccnscan/pkg/lang"
)

// ErrUnsupportedLanguage is matched by every UnsupportedLanguageError.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Scope-tracking failures. Analyze recovers from all of them by falling back to
// aggregate analysis; they are exported so state machines can be tested directly.
var (
	ErrUnterminatedScope  = errors.New("scope still open at end of input")
	ErrInconsistentIndent = errors.New("dedent does not match any enclosing block")
	ErrScopeMismatch      = errors.New("function scope closed at unexpected depth")
)

// UnsupportedLanguageError is returned by New when asked for a language the
// engine has no state machine for.
type UnsupportedLanguageError struct {
	Language lang.Language
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language: %q", string(e.Language))
}

func (e *UnsupportedLanguageError) Unwrap() error {
	return ErrUnsupportedLanguage
}
