package complexity

import (
	"fmt"

	"github.com/panbanda/ccnscan/pkg/lang"
	"github.com/panbanda/ccnscan/pkg/lexer"
)

// StateMachine recognizes function boundaries and decision points in a filtered
// code-token stream and drives a FunctionContext accordingly.
//
// ProcessToken is called once per code or newline token, in order, and does a
// bounded amount of work without looking ahead. Finish is called once after the
// last token. Either may return an error when the stream is malformed.
type StateMachine interface {
	ProcessToken(tok lexer.Token) error
	Finish() error
}

// NewStateMachine returns the state machine for l, bound to ctx and conds.
func NewStateMachine(l lang.Language, ctx *FunctionContext, conds Conditions) (StateMachine, error) {
	switch l {
	case lang.Go:
		return newGoMachine(ctx, conds), nil
	case lang.TypeScript:
		return newScriptMachine(ctx, conds), nil
	case lang.JavaScript:
		return newScriptMachine(ctx, conds), nil
	case lang.Python:
		return newPythonMachine(ctx, conds), nil
	default:
		return nil, &UnsupportedLanguageError{Language: l}
	}
}

type scopeKind uint8

const (
	blockScope scopeKind = iota
	funcScope
	typeScope
)

// braceTracker is the brace stack shared by the curly-brace grammars. Function
// scopes are tied to frames in the FunctionContext.
type braceTracker struct {
	ctx    *FunctionContext
	scopes []scopeKind
}

func (b *braceTracker) depth() int {
	return len(b.scopes)
}

func (b *braceTracker) open(kind scopeKind) {
	b.scopes = append(b.scopes, kind)
	b.ctx.SetNesting(len(b.scopes))
}

// openFunction pushes a frame at the current depth and opens its body scope.
func (b *braceTracker) openFunction(name string, params, startLine int) {
	b.ctx.SetNesting(len(b.scopes))
	b.ctx.PushFunctionAt(name, params, startLine)
	b.open(funcScope)
}

// close pops the innermost scope. A closer with nothing open is dropped.
func (b *braceTracker) close() (scopeKind, error) {
	if len(b.scopes) == 0 {
		return blockScope, nil
	}
	top := len(b.scopes) - 1
	kind := b.scopes[top]
	b.scopes = b.scopes[:top]
	b.ctx.SetNesting(len(b.scopes))

	if kind == funcScope {
		frame, ok := b.ctx.Current()
		if !ok || frame.NestingDepth != len(b.scopes) {
			return kind, fmt.Errorf("line %d: %w", b.ctx.Line(), ErrScopeMismatch)
		}
		b.ctx.FinalizeFunction()
	}
	return kind, nil
}

func (b *braceTracker) finish() error {
	if len(b.scopes) > 0 {
		return fmt.Errorf("%d unclosed brace(s): %w", len(b.scopes), ErrUnterminatedScope)
	}
	return nil
}

// paramCounter counts the entries of a comma-separated parameter list at one
// nesting level. Empty entries (trailing commas) and bare "*" or "/" markers
// are not parameters.
type paramCounter struct {
	items  int
	segLen int
	first  string
}

func (p *paramCounter) observe(tok lexer.Token) {
	if tok.IsCode(",") {
		p.endEntry()
		return
	}
	if p.segLen == 0 {
		p.first = tok.Text
	}
	p.segLen++
}

func (p *paramCounter) endEntry() {
	switch {
	case p.segLen == 0:
	case p.segLen == 1 && (p.first == "*" || p.first == "/"):
	default:
		p.items++
	}
	p.segLen = 0
	p.first = ""
}

func (p *paramCounter) count() int {
	p.endEntry()
	return p.items
}
