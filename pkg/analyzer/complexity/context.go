package complexity

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/ccnscan/pkg/lexer"
)

// Frame is a function that is still open while tokens are being consumed.
type Frame struct {
	Name         string
	StartLine    int
	Decisions    int
	Params       int
	NestingDepth int
}

// FunctionContext tracks open function frames as a state machine walks a token
// stream. Frames live in a flat slice; the last element is the innermost one.
//
// A FunctionContext serves exactly one analysis and is not safe for concurrent use.
type FunctionContext struct {
	line    int
	nesting int

	frames    []Frame
	completed []FunctionInfo

	// codeLines holds every line carrying code or string text.
	codeLines *roaring.Bitmap
}

// NewFunctionContext creates a context positioned on line 1. codeLines may be nil,
// in which case per-function NLOC is reported as zero.
func NewFunctionContext(codeLines *roaring.Bitmap) *FunctionContext {
	if codeLines == nil {
		codeLines = roaring.New()
	}
	return &FunctionContext{
		line:      1,
		codeLines: codeLines,
	}
}

// SetLine records the current line. Lines never move backwards.
func (c *FunctionContext) SetLine(n int) {
	if n > c.line {
		c.line = n
	}
}

// Line returns the current line.
func (c *FunctionContext) Line() int {
	return c.line
}

// SetNesting records the scope depth the next pushed frame opens at.
func (c *FunctionContext) SetNesting(depth int) {
	c.nesting = depth
}

// Nesting returns the depth set by SetNesting.
func (c *FunctionContext) Nesting() int {
	return c.nesting
}

// PushFunction opens a frame on the current line at the current nesting depth.
func (c *FunctionContext) PushFunction(name string, params int) {
	c.PushFunctionAt(name, params, c.line)
}

// PushFunctionAt opens a frame whose signature began on startLine, for grammars
// that only recognize a function once its body opens. startLine is clamped to
// the current line.
func (c *FunctionContext) PushFunctionAt(name string, params, startLine int) {
	if startLine < 1 || startLine > c.line {
		startLine = c.line
	}
	c.frames = append(c.frames, Frame{
		Name:         name,
		StartLine:    startLine,
		Params:       params,
		NestingDepth: c.nesting,
	})
}

// SetParameterCount updates the innermost frame's parameter count. It is used by
// grammars that open a frame before its parameter list has been read.
func (c *FunctionContext) SetParameterCount(n int) {
	if len(c.frames) == 0 {
		return
	}
	c.frames[len(c.frames)-1].Params = n
}

// RecordDecisionPoint credits a decision point to the innermost open frame.
// Decision points outside any function are dropped.
func (c *FunctionContext) RecordDecisionPoint() {
	if len(c.frames) == 0 {
		return
	}
	c.frames[len(c.frames)-1].Decisions++
}

// Current returns the innermost open frame.
func (c *FunctionContext) Current() (Frame, bool) {
	if len(c.frames) == 0 {
		return Frame{}, false
	}
	return c.frames[len(c.frames)-1], true
}

// Depth returns the number of open frames.
func (c *FunctionContext) Depth() int {
	return len(c.frames)
}

// FinalizeFunction closes the innermost frame on the current line.
// It does nothing when no frame is open.
func (c *FunctionContext) FinalizeFunction() {
	c.FinalizeFunctionAt(c.line)
}

// FinalizeFunctionAt closes the innermost frame on endLine. An endLine before the
// frame's start line is clamped to the start line.
func (c *FunctionContext) FinalizeFunctionAt(endLine int) {
	if len(c.frames) == 0 {
		return
	}
	top := len(c.frames) - 1
	f := c.frames[top]
	c.frames = c.frames[:top]

	if endLine < f.StartLine {
		endLine = f.StartLine
	}
	c.completed = append(c.completed, FunctionInfo{
		Name:                 f.Name,
		StartLine:            f.StartLine,
		EndLine:              endLine,
		CyclomaticComplexity: 1 + f.Decisions,
		NLOC:                 c.linesBetween(f.StartLine, endLine),
		ParameterCount:       f.Params,
	})
}

// FinalizeAllFunctions closes every frame still open, innermost first, and
// returns all completed functions in the order they were closed.
func (c *FunctionContext) FinalizeAllFunctions() []FunctionInfo {
	for len(c.frames) > 0 {
		c.FinalizeFunction()
	}
	out := c.completed
	c.completed = nil
	return out
}

// LastCodeLine returns the last line at or before line that carries code, or 0.
func (c *FunctionContext) LastCodeLine(line int) int {
	if line <= 0 {
		return 0
	}
	rank := c.codeLines.Rank(uint32(line))
	if rank == 0 {
		return 0
	}
	v, err := c.codeLines.Select(uint32(rank - 1))
	if err != nil {
		return 0
	}
	return int(v)
}

func (c *FunctionContext) linesBetween(start, end int) int {
	if start < 1 {
		start = 1
	}
	if end < start {
		return 0
	}
	return int(c.codeLines.Rank(uint32(end)) - c.codeLines.Rank(uint32(start-1)))
}

// CodeLineSet returns the 1-based lines of tokens that carry code or string text.
// Its cardinality equals lexer.CountNLOC(tokens).
func CodeLineSet(tokens []lexer.Token) *roaring.Bitmap {
	lines := roaring.New()
	line := uint32(1)
	for _, tok := range tokens {
		switch tok.Kind {
		case lexer.Newline:
			line++
		case lexer.Code, lexer.String:
			if strings.TrimSpace(tok.Text) != "" {
				lines.Add(line)
			}
		}
	}
	return lines
}
