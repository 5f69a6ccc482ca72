// Package complexity computes cyclomatic complexity and line counts for Go,
// TypeScript, JavaScript and Python source without building a syntax tree.
//
// Analysis runs in two stages. The function stage feeds the filtered token
// stream through a per-language state machine that detects function boundaries
// and attributes decision points to the innermost open function. If that stage
// fails, or finds no functions, the aggregate stage scores the whole input as one
// unit. Analyze never returns an error.
package complexity

import (
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/ccnscan/pkg/lang"
	"github.com/panbanda/ccnscan/pkg/lexer"
)

// Analyzer computes complexity for one language. Its configuration is immutable
// after construction, and every Analyze call builds fresh scope-tracking state,
// so an Analyzer may be shared between goroutines.
type Analyzer struct {
	language   lang.Language
	conditions Conditions
	tokenizer  *lexer.Tokenizer
	logger     *slog.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger that receives fallback warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTabWidth sets the column stop used to expand tabs in indentation.
func WithTabWidth(width int) Option {
	return func(a *Analyzer) {
		syn := a.tokenizer.Syntax()
		syn.TabWidth = width
		a.tokenizer = lexer.New(syn)
	}
}

// New creates an analyzer for l. It fails with *UnsupportedLanguageError when l
// is not one of the supported languages.
func New(l lang.Language, opts ...Option) (*Analyzer, error) {
	conds, ok := ConditionsFor(l)
	if !ok {
		return nil, &UnsupportedLanguageError{Language: l}
	}
	a := &Analyzer{
		language:   l,
		conditions: conds,
		tokenizer:  lexer.New(lexer.ForLanguage(l)),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ForFile creates an analyzer for the language implied by filename's extension.
// Unknown or missing extensions select TypeScript.
func ForFile(filename string, opts ...Option) *Analyzer {
	a, err := New(lang.DetectOrDefault(filename), opts...)
	if err != nil {
		// DetectOrDefault only yields supported languages.
		panic(err)
	}
	return a
}

// Language returns the language the analyzer was built for.
func (a *Analyzer) Language() lang.Language {
	return a.language
}

// Conditions returns the analyzer's decision-point table.
func (a *Analyzer) Conditions() Conditions {
	return a.conditions
}

// ConditionTokens returns every token counted as a decision point, sorted.
func (a *Analyzer) ConditionTokens() []string {
	return a.conditions.Tokens()
}

// Analyze computes complexity for source.
func (a *Analyzer) Analyze(source string) *Result {
	tokens := a.tokenizer.GenerateTokens(source)
	code := lexer.FilterCodeTokens(tokens)
	lines := CodeLineSet(tokens)

	result, err := a.analyzeFunctions(code, lines)
	if err == nil && len(result.Functions) > 0 {
		return result
	}
	if err != nil {
		a.logger.Warn("function-level analysis failed, using aggregate metrics",
			"language", a.language.String(),
			"error", err,
			"tokens", countCode(code),
		)
	}
	return a.analyzeAggregate(code, lines)
}

// analyzeFunctions is the function stage. A panic in a state machine is reported
// as an error.
func (a *Analyzer) analyzeFunctions(code []lexer.Token, lines *roaring.Bitmap) (result *Result, err error) {
	ctx := NewFunctionContext(lines)
	machine, err := NewStateMachine(a.language, ctx, a.conditions)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("state machine panic: %v", r)
		}
	}()

	line := 1
	for _, tok := range code {
		if tok.Kind == lexer.Newline {
			line++
			ctx.SetLine(line)
		}
		if err = machine.ProcessToken(tok); err != nil {
			break
		}
	}
	if err == nil {
		err = machine.Finish()
	}

	// Always drain the stack, even on failure.
	functions := ctx.FinalizeAllFunctions()
	if err != nil {
		return nil, err
	}

	total := 0
	for _, fn := range functions {
		total += fn.CyclomaticComplexity
	}
	if total < 1 {
		total = 1
	}

	return &Result{
		Language:       a.language,
		Mode:           ModeFunction,
		TotalCCN:       total,
		NLOC:           int(lines.GetCardinality()),
		TokenCount:     countCode(code),
		DecisionPoints: total - len(functions),
		Functions:      functions,
	}, nil
}

// analyzeAggregate is the fallback stage: every decision-point token counts once.
func (a *Analyzer) analyzeAggregate(code []lexer.Token, lines *roaring.Bitmap) *Result {
	decisions := 0
	for _, tok := range code {
		if tok.Kind == lexer.Code && a.conditions.Has(tok.Text) {
			decisions++
		}
	}
	return &Result{
		Language:       a.language,
		Mode:           ModeAggregate,
		TotalCCN:       1 + decisions,
		NLOC:           int(lines.GetCardinality()),
		TokenCount:     countCode(code),
		DecisionPoints: decisions,
		Functions:      []FunctionInfo{},
	}
}

func countCode(tokens []lexer.Token) int {
	n := 0
	for _, tok := range tokens {
		if tok.Kind == lexer.Code {
			n++
		}
	}
	return n
}

// Analyze is a convenience for ForFile(filename).Analyze(source).
func Analyze(filename, source string, opts ...Option) *Result {
	return ForFile(filename, opts...).Analyze(source)
}
