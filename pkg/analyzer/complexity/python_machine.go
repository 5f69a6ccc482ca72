package complexity

import (
	"fmt"

	"github.com/panbanda/ccnscan/pkg/lexer"
)

type pyState uint8

const (
	pyIdle   pyState = iota
	pyDef            // saw "def", waiting for the name
	pyParams         // waiting for or inside the parameter list
)

// pythonMachine delimits functions by indentation. A def opens a frame tagged
// with the indentation of its line; the first later logical line indented at or
// left of that level closes it on the last line that carried code.
type pythonMachine struct {
	ctx   *FunctionContext
	conds Conditions

	state     pyState
	prev      lexer.Token
	lineStart bool
	// lineIndent is the indentation of the line after the last logical
	// newline, counting strings the machine never sees. The first line has
	// no newline before it and uses the column of its first code token.
	lineIndent int
	haveIndent bool
	indent     int
	indents    []int
	depth      int

	paramDepth int
	counter    paramCounter
}

var _ StateMachine = (*pythonMachine)(nil)

func newPythonMachine(ctx *FunctionContext, conds Conditions) *pythonMachine {
	return &pythonMachine{
		ctx:       ctx,
		conds:     conds,
		lineStart: true,
		indents:   []int{0},
	}
}

func (m *pythonMachine) ProcessToken(tok lexer.Token) error {
	if tok.Kind == lexer.Newline {
		// Bracketed expressions and backslash continuations span physical lines
		// without starting a new logical line.
		if !tok.Continuation && m.depth == 0 && !m.prev.IsCode(`\`) {
			m.lineStart = true
			m.lineIndent = tok.Indent
			m.haveIndent = true
		}
		return nil
	}

	if m.lineStart {
		m.lineStart = false
		col := tok.Col
		if m.haveIndent {
			col = m.lineIndent
		}
		if err := m.startLine(col); err != nil {
			return err
		}
	}

	if m.conds.Has(tok.Text) {
		m.ctx.RecordDecisionPoint()
	}
	err := m.step(tok)
	m.prev = tok
	return err
}

// startLine applies the indentation of a new logical line.
func (m *pythonMachine) startLine(col int) error {
	top := m.indents[len(m.indents)-1]
	switch {
	case col > top:
		m.indents = append(m.indents, col)
	case col < top:
		for len(m.indents) > 1 && m.indents[len(m.indents)-1] > col {
			m.indents = m.indents[:len(m.indents)-1]
		}
		if m.indents[len(m.indents)-1] != col {
			return fmt.Errorf("line %d: indent %d: %w", m.ctx.Line(), col, ErrInconsistentIndent)
		}
	}
	m.indent = col

	end := m.ctx.LastCodeLine(m.ctx.Line() - 1)
	for {
		frame, ok := m.ctx.Current()
		if !ok || frame.NestingDepth < col {
			break
		}
		m.ctx.FinalizeFunctionAt(end)
	}
	return nil
}

func (m *pythonMachine) step(tok lexer.Token) error {
	switch tok.Text {
	case "(", "[", "{":
		m.depth++
	case ")", "]", "}":
		if m.depth > 0 {
			m.depth--
		}
	}

	switch m.state {
	case pyDef:
		m.state = pyIdle
		if tok.IsIdent() {
			m.ctx.SetNesting(m.indent)
			m.ctx.PushFunction(tok.Text, 0)
			m.state = pyParams
			m.paramDepth = 0
		}
	case pyParams:
		m.params(tok)
	default:
		if tok.IsCode("def") {
			m.state = pyDef
		}
	}
	return nil
}

func (m *pythonMachine) params(tok lexer.Token) {
	if m.paramDepth == 0 {
		if tok.IsCode("(") {
			m.paramDepth = m.depth
			m.counter = paramCounter{}
			return
		}
		m.state = pyIdle
		return
	}
	if tok.IsCode(")") && m.depth < m.paramDepth {
		m.ctx.SetParameterCount(m.counter.count())
		m.state = pyIdle
		return
	}
	if m.depth == m.paramDepth {
		m.counter.observe(tok)
	}
}

func (m *pythonMachine) Finish() error {
	for m.ctx.Depth() > 0 {
		m.ctx.FinalizeFunctionAt(m.ctx.LastCodeLine(m.ctx.Line()))
	}
	if m.depth > 0 {
		return fmt.Errorf("%d unclosed bracket(s): %w", m.depth, ErrUnterminatedScope)
	}
	return nil
}
