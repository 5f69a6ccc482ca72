package complexity

import "github.com/panbanda/ccnscan/pkg/lexer"

type goState uint8

const (
	goIdle        goState = iota
	goFuncKw              // saw "func"
	goNamed               // saw "func Name"
	goTypeParams          // inside "func Name[...]"
	goParams              // inside a parameter list
	goAfterFirst          // first group after "func" closed: receiver or literal params
	goMaybeMethod         // "func (recv) Ident": method name or literal result type
	goResults             // reading result types, waiting for the body
)

// goMachine recognizes Go function declarations, methods and function literals.
// Methods are named "Recv.Method"; literals are named "<anonymous>".
type goMachine struct {
	ctx    *FunctionContext
	conds  Conditions
	braces braceTracker

	state goState
	prev  lexer.Token

	name      string
	recv      string
	tentative string
	params    int
	line      int
	base      int
	parens    int
	brackets  int
	first     bool
	counter   paramCounter
}

var _ StateMachine = (*goMachine)(nil)

func newGoMachine(ctx *FunctionContext, conds Conditions) *goMachine {
	return &goMachine{
		ctx:    ctx,
		conds:  conds,
		braces: braceTracker{ctx: ctx},
	}
}

func (m *goMachine) ProcessToken(tok lexer.Token) error {
	if tok.Kind == lexer.Newline {
		if !tok.Continuation {
			m.newline()
		}
		return nil
	}
	if m.conds.Has(tok.Text) {
		m.ctx.RecordDecisionPoint()
	}
	err := m.step(tok)
	m.prev = tok
	return err
}

func (m *goMachine) Finish() error {
	return m.braces.finish()
}

func (m *goMachine) reset() {
	m.state = goIdle
	m.name, m.recv, m.tentative = "", "", ""
	m.params, m.parens, m.brackets = 0, 0, 0
	m.first = false
	m.counter = paramCounter{}
}

// newline ends any signature that has not reached its body: Go inserts a
// semicolon after a line ending in an identifier or closing delimiter.
func (m *goMachine) newline() {
	switch m.state {
	case goFuncKw, goNamed, goAfterFirst, goMaybeMethod:
		m.reset()
	case goResults:
		if m.parens == 0 && m.brackets == 0 && m.braces.depth() == m.base {
			m.reset()
		}
	}
}

func (m *goMachine) step(tok lexer.Token) error {
	switch m.state {
	case goFuncKw:
		return m.funcKeyword(tok)
	case goNamed:
		return m.named(tok)
	case goTypeParams:
		return m.typeParams(tok)
	case goParams:
		return m.paramList(tok)
	case goAfterFirst:
		return m.afterFirst(tok)
	case goMaybeMethod:
		return m.maybeMethod(tok)
	case goResults:
		return m.results(tok)
	default:
		return m.idle(tok)
	}
}

func (m *goMachine) idle(tok lexer.Token) error {
	switch tok.Text {
	case "{":
		m.braces.open(blockScope)
	case "}":
		_, err := m.braces.close()
		return err
	case "func":
		// "[]func()", "chan func()" and "*func()" are types, not literals.
		if m.prev.IsCode("]") || m.prev.IsCode("chan") || m.prev.IsCode("*") {
			return nil
		}
		m.reset()
		m.state = goFuncKw
		m.base = m.braces.depth()
		m.line = m.ctx.Line()
	}
	return nil
}

// nested handles braces that appear inside a signature: struct and interface
// type literals. A closing brace that leaves the signature's depth abandons it.
func (m *goMachine) nested(tok lexer.Token) error {
	if tok.Text == "{" {
		m.braces.open(typeScope)
		return nil
	}
	_, err := m.braces.close()
	if m.braces.depth() < m.base {
		m.reset()
	}
	return err
}

func (m *goMachine) abandon(tok lexer.Token) error {
	m.reset()
	return m.idle(tok)
}

func (m *goMachine) openParams(first bool) {
	m.state = goParams
	m.first = first
	m.parens = 1
	m.brackets = 0
	m.counter = paramCounter{}
}

func (m *goMachine) funcKeyword(tok lexer.Token) error {
	switch {
	case tok.IsCode("("):
		m.openParams(true)
		return nil
	case tok.IsIdent():
		m.name = tok.Text
		m.state = goNamed
		return nil
	}
	return m.abandon(tok)
}

func (m *goMachine) named(tok lexer.Token) error {
	switch tok.Text {
	case "[":
		m.state = goTypeParams
		m.brackets = 1
		return nil
	case "(":
		m.openParams(false)
		return nil
	}
	return m.abandon(tok)
}

func (m *goMachine) typeParams(tok lexer.Token) error {
	switch tok.Text {
	case "{", "}":
		return m.nested(tok)
	case "[":
		m.brackets++
	case "]":
		m.brackets--
		if m.brackets == 0 {
			m.state = goNamed
		}
	}
	return nil
}

func (m *goMachine) paramList(tok lexer.Token) error {
	topLevel := m.parens == 1 && m.brackets == 0 && m.braces.depth() == m.base

	switch tok.Text {
	case "{", "}":
		if topLevel {
			m.counter.observe(tok)
		}
		return m.nested(tok)
	case "(":
		m.parens++
	case ")":
		m.parens--
		if m.parens == 0 {
			m.closeParams()
			return nil
		}
	case "[":
		m.brackets++
	case "]":
		m.brackets--
	}

	if topLevel {
		m.counter.observe(tok)
		if m.first && tok.IsIdent() {
			m.recv = tok.Text
		}
	}
	return nil
}

func (m *goMachine) closeParams() {
	m.params = m.counter.count()
	if m.first {
		m.state = goAfterFirst
		return
	}
	m.state = goResults
	m.parens, m.brackets = 0, 0
}

func (m *goMachine) afterFirst(tok lexer.Token) error {
	switch tok.Text {
	case "{":
		m.openBody("<anonymous>")
		return nil
	case "(":
		m.state = goResults
		m.parens = 1
		return nil
	case ";", ",", ")", "=", "}", "]", ":":
		return m.abandon(tok)
	}
	if tok.IsIdent() && !isGoTypeKeyword(tok.Text) {
		m.tentative = tok.Text
		m.state = goMaybeMethod
		return nil
	}
	m.state = goResults
	m.parens, m.brackets = 0, 0
	return m.results(tok)
}

func (m *goMachine) maybeMethod(tok lexer.Token) error {
	switch tok.Text {
	case "(":
		name := m.tentative
		if m.recv != "" {
			name = m.recv + "." + m.tentative
		}
		m.name = name
		m.openParams(false)
		return nil
	case "{":
		m.openBody("<anonymous>")
		return nil
	case "[", ".":
		m.state = goResults
		m.parens, m.brackets = 0, 0
		return m.results(tok)
	}
	return m.abandon(tok)
}

func (m *goMachine) results(tok lexer.Token) error {
	switch tok.Text {
	case "{":
		if m.prev.IsCode("struct") || m.prev.IsCode("interface") || m.parens > 0 || m.brackets > 0 {
			m.braces.open(typeScope)
			return nil
		}
		name := m.name
		if name == "" {
			name = "<anonymous>"
		}
		m.openBody(name)
		return nil
	case "}":
		return m.nested(tok)
	case "(":
		m.parens++
	case ")":
		m.parens--
		if m.parens < 0 {
			return m.abandon(tok)
		}
	case "[":
		m.brackets++
	case "]":
		m.brackets--
	case ";", "=", ",", ":=":
		if m.parens == 0 && m.brackets == 0 && m.braces.depth() == m.base {
			return m.abandon(tok)
		}
	}
	return nil
}

func (m *goMachine) openBody(name string) {
	m.braces.openFunction(name, m.params, m.line)
	m.reset()
}

func isGoTypeKeyword(s string) bool {
	switch s {
	case "struct", "interface", "map", "chan", "func":
		return true
	}
	return false
}
