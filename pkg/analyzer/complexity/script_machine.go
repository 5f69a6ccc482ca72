package complexity

import "github.com/panbanda/ccnscan/pkg/lexer"

type scriptState uint8

const (
	scIdle         scriptState = iota
	scFuncKw                   // after "function"
	scFuncTypeArgs             // inside "function name<...>"
	scTypeArgs                 // "ident<": maybe a generic method
	scMethodReady              // generic arguments closed, waiting for "("
	scAfterParams              // a parenthesized group just closed
	scReturnType               // after "): "
	scArrowBody                // after "=>"
)

type groupKind uint8

const (
	plainGroup  groupKind = iota // expression, call-free parentheses or arrow parameters
	fnGroup                      // parameters after "function"
	methodGroup                  // parameters or arguments after an identifier
)

// scriptGroup is an open parenthesized group.
type scriptGroup struct {
	kind     groupKind
	name     string
	line     int
	base     int
	brackets int
	angles   int
	counter  paramCounter
	// decisions seen at the group's own depth. They belong to the function
	// if the group turns out to be its parameter list.
	decisions int
}

// candidate is a closed group that may still turn out to be a function signature.
type candidate struct {
	kind      groupKind
	name      string
	params    int
	line      int
	base      int
	decisions int
}

// scriptMachine recognizes TypeScript and JavaScript function declarations,
// function expressions, methods and block-bodied arrow functions. Expression-bodied
// arrows have no delimited body and are not reported as functions.
type scriptMachine struct {
	ctx    *FunctionContext
	conds  Conditions
	braces braceTracker

	state     scriptState
	prev      lexer.Token
	prev2     lexer.Token
	lineStart bool

	groups []scriptGroup
	cand   candidate
	parens int
	angles int

	fnName           string
	fnNamedByKeyword bool
	fnLine           int
	typeArgName      string

	// pendingName is the identifier a following function expression is assigned to.
	pendingName string
	expectDecl  bool

	typeKw         bool
	typeAlias      bool
	typeAliasDepth int

	// heritage is set from "class" to the class body brace. Calls in an
	// extends clause are not method signatures.
	heritage       bool
	heritageDepth  int
	heritageGroups int
}

var _ StateMachine = (*scriptMachine)(nil)

func newScriptMachine(ctx *FunctionContext, conds Conditions) *scriptMachine {
	return &scriptMachine{
		ctx:       ctx,
		conds:     conds,
		braces:    braceTracker{ctx: ctx},
		lineStart: true,
	}
}

func (m *scriptMachine) ProcessToken(tok lexer.Token) error {
	if tok.Kind == lexer.Newline {
		if !tok.Continuation {
			m.newline()
		}
		return nil
	}
	if m.conds.Has(tok.Text) {
		m.recordDecisions(1)
	}

	if n := len(m.groups); n > 0 && !tok.IsCode(")") {
		m.observeGroup(&m.groups[n-1], tok)
	}
	m.trackTypeAlias(tok)

	var err error
	if !m.classBody(tok) {
		err = m.step(tok)
	}
	m.prev2 = m.prev
	m.prev = tok
	m.lineStart = false
	return err
}

func (m *scriptMachine) Finish() error {
	m.reset()
	for n := len(m.groups); n > 0; n = len(m.groups) {
		d := m.groups[n-1].decisions
		m.groups = m.groups[:n-1]
		m.recordDecisions(d)
	}
	return m.braces.finish()
}

// recordDecisions credits n decision points. Inside a parenthesized group at
// its own brace depth they are held on the group until it is known whether
// the group is a parameter list.
func (m *scriptMachine) recordDecisions(n int) {
	if k := len(m.groups); k > 0 && m.groups[k-1].base == m.braces.depth() {
		m.groups[k-1].decisions += n
		return
	}
	for range n {
		m.ctx.RecordDecisionPoint()
	}
}

// classBody tracks a class header and opens the class body as a plain block.
// It reports whether tok was consumed.
func (m *scriptMachine) classBody(tok lexer.Token) bool {
	if !m.heritage {
		if tok.IsCode("class") && !m.prev.IsCode(".") {
			m.heritage = true
			m.heritageDepth = m.braces.depth()
			m.heritageGroups = len(m.groups)
		}
		return false
	}
	if m.prev.IsCode("class") {
		// "class" used as a property name.
		switch tok.Text {
		case ":", "=", ",", ")", ";", "(", "?", "}":
			m.heritage = false
			return false
		}
	}
	if !tok.IsCode("{") || m.braces.depth() != m.heritageDepth || len(m.groups) != m.heritageGroups {
		return false
	}
	m.heritage = false
	m.reset()
	m.braces.open(blockScope)
	m.pendingName = ""
	return true
}

func (m *scriptMachine) newline() {
	if !m.prev.IsCode("=") && !m.prev.IsCode(":") && !m.prev.IsCode("async") {
		m.pendingName = ""
	}
	if m.typeAlias && m.braces.depth() == m.typeAliasDepth && !continuesType(m.prev) {
		m.typeAlias = false
	}

	switch m.state {
	case scAfterParams:
		if m.cand.kind != fnGroup {
			m.reset()
		}
	case scReturnType:
		if m.parens == 0 && m.braces.depth() == m.cand.base && !continuesType(m.prev) {
			m.reset()
		}
	}
	m.lineStart = true
}

// reset drops any pending signature. Decisions held by a dropped candidate
// go to the enclosing scope.
func (m *scriptMachine) reset() {
	held := m.cand.decisions
	m.state = scIdle
	m.cand = candidate{}
	m.parens, m.angles = 0, 0
	m.fnName, m.typeArgName = "", ""
	m.fnNamedByKeyword = false
	m.recordDecisions(held)
}

func (m *scriptMachine) observeGroup(g *scriptGroup, tok lexer.Token) {
	if m.braces.depth() != g.base {
		return
	}
	switch tok.Text {
	case "[":
		g.brackets++
	case "]":
		g.brackets--
	case "<":
		if m.prev.IsIdent() {
			g.angles++
		}
	case ">":
		if g.angles > 0 {
			g.angles--
		}
	case ",":
		if g.brackets > 0 || g.angles > 0 {
			return
		}
	}
	g.counter.observe(tok)
}

func (m *scriptMachine) trackTypeAlias(tok lexer.Token) {
	if m.typeKw {
		m.typeKw = false
		if tok.IsIdent() {
			m.typeAlias = true
			m.typeAliasDepth = m.braces.depth()
		}
	}
	if tok.IsCode("type") && m.atStatementStart() {
		m.typeKw = true
	}
	if tok.IsCode(";") && m.typeAlias && m.braces.depth() == m.typeAliasDepth {
		m.typeAlias = false
	}
}

func (m *scriptMachine) atStatementStart() bool {
	if m.lineStart || m.prev.Text == "" {
		return true
	}
	switch m.prev.Text {
	case ";", "{", "}", "export", "declare":
		return true
	}
	return false
}

func (m *scriptMachine) step(tok lexer.Token) error {
	switch m.state {
	case scFuncKw:
		return m.funcKeyword(tok)
	case scFuncTypeArgs:
		return m.funcTypeArgs(tok)
	case scTypeArgs:
		return m.typeArgs(tok)
	case scMethodReady:
		if tok.IsCode("(") {
			m.openGroup(methodGroup, m.typeArgName)
			return nil
		}
		return m.abandon(tok)
	case scAfterParams:
		return m.afterParams(tok)
	case scReturnType:
		return m.returnType(tok)
	case scArrowBody:
		if tok.IsCode("{") {
			m.openBody()
			return nil
		}
		return m.abandon(tok)
	default:
		return m.idle(tok)
	}
}

func (m *scriptMachine) abandon(tok lexer.Token) error {
	m.reset()
	return m.idle(tok)
}

func (m *scriptMachine) idle(tok lexer.Token) error {
	if tok.Kind != lexer.Code {
		return nil
	}

	switch tok.Text {
	case "{":
		if m.typeAlias {
			m.braces.open(typeScope)
		} else {
			m.braces.open(blockScope)
		}
		m.pendingName = ""
	case "}":
		_, err := m.braces.close()
		m.pendingName = ""
		if m.typeAlias && m.braces.depth() < m.typeAliasDepth {
			m.typeAlias = false
		}
		return err
	case "(":
		switch {
		case m.prev.IsIdent() && !isScriptKeyword(m.prev.Text):
			m.openGroup(methodGroup, m.prev.Text)
		case m.assigned():
			m.openGroup(plainGroup, m.pendingName)
		default:
			m.openGroup(plainGroup, "")
		}
	case ")":
		m.closeGroup()
	case "function":
		m.state = scFuncKw
		m.fnName = ""
		m.fnLine = m.ctx.Line()
		m.fnNamedByKeyword = false
		if m.assigned() {
			m.fnName = m.pendingName
		}
	case "=>":
		if m.prev.IsIdent() && !isScriptKeyword(m.prev.Text) {
			name := ""
			if isAssignment(m.prev2) {
				name = m.pendingName
			}
			m.cand = candidate{kind: plainGroup, name: name, params: 1, line: m.ctx.Line(), base: m.braces.depth()}
			m.state = scArrowBody
		}
	case "<":
		if m.prev.IsIdent() && !isScriptKeyword(m.prev.Text) {
			m.state = scTypeArgs
			m.typeArgName = m.prev.Text
			m.angles = 1
		}
	case "const", "let", "var":
		m.pendingName = ""
		m.expectDecl = true
		return nil
	case "=", ":":
		if m.pendingName == "" && m.prev.IsIdent() {
			m.pendingName = m.prev.Text
		}
	case ";", ",":
		m.pendingName = ""
	default:
		if m.expectDecl && tok.IsIdent() {
			m.pendingName = tok.Text
		}
	}
	m.expectDecl = false
	return nil
}

// assigned reports whether the previous token puts the current one in the
// position of a value being bound to pendingName.
func (m *scriptMachine) assigned() bool {
	if m.pendingName == "" {
		return false
	}
	if isAssignment(m.prev) {
		return true
	}
	return m.prev.IsCode("async") && isAssignment(m.prev2)
}

func isAssignment(tok lexer.Token) bool {
	return tok.IsCode("=") || tok.IsCode(":")
}

func (m *scriptMachine) openGroup(kind groupKind, name string) {
	line := m.ctx.Line()
	if kind == fnGroup {
		line = m.fnLine
	}
	m.pendingName = ""
	m.reset()
	m.groups = append(m.groups, scriptGroup{kind: kind, name: name, line: line, base: m.braces.depth()})
}

// closeGroup pops the innermost group. Unmatched parentheses are ignored: they
// only affect function recognition, never brace balance.
func (m *scriptMachine) closeGroup() {
	n := len(m.groups)
	if n == 0 {
		return
	}
	g := m.groups[n-1]
	m.groups = m.groups[:n-1]

	m.reset()
	m.cand = candidate{
		kind:      g.kind,
		name:      g.name,
		params:    g.counter.count(),
		line:      g.line,
		base:      m.braces.depth(),
		decisions: g.decisions,
	}
	m.state = scAfterParams
}

func (m *scriptMachine) funcKeyword(tok lexer.Token) error {
	switch {
	case tok.IsCode("*"):
		return nil
	case tok.IsCode("<"):
		m.state = scFuncTypeArgs
		m.angles = 1
		return nil
	case tok.IsCode("("):
		m.openGroup(fnGroup, m.fnName)
		return nil
	case tok.IsIdent() && !m.fnNamedByKeyword:
		m.fnName = tok.Text
		m.fnNamedByKeyword = true
		return nil
	}
	return m.abandon(tok)
}

func (m *scriptMachine) funcTypeArgs(tok lexer.Token) error {
	switch tok.Text {
	case "{":
		m.braces.open(typeScope)
	case "}":
		_, err := m.braces.close()
		return err
	case "<":
		m.angles++
	case ">":
		m.angles--
		if m.angles == 0 {
			m.state = scFuncKw
		}
	}
	return nil
}

func (m *scriptMachine) typeArgs(tok lexer.Token) error {
	switch tok.Text {
	case "<":
		m.angles++
		return nil
	case ">":
		m.angles--
		if m.angles == 0 {
			m.state = scMethodReady
		}
		return nil
	case ",", ".", "[", "]", "|", "&", "?", ":", "=":
		return nil
	}
	if tok.IsIdent() {
		return nil
	}
	return m.abandon(tok)
}

func (m *scriptMachine) afterParams(tok lexer.Token) error {
	switch tok.Text {
	case "{":
		if m.cand.kind != plainGroup {
			m.openBody()
			return nil
		}
	case ":":
		m.state = scReturnType
		m.parens = 0
		return nil
	case "=>":
		if m.cand.kind == plainGroup {
			m.state = scArrowBody
			return nil
		}
	}
	return m.abandon(tok)
}

func (m *scriptMachine) returnType(tok lexer.Token) error {
	if m.braces.depth() > m.cand.base {
		switch tok.Text {
		case "{":
			m.braces.open(typeScope)
		case "}":
			_, err := m.braces.close()
			return err
		}
		return nil
	}

	switch tok.Text {
	case "{":
		if m.parens > 0 || opensTypeLiteral(m.prev) {
			m.braces.open(typeScope)
			return nil
		}
		if m.cand.kind != plainGroup {
			m.openBody()
			return nil
		}
	case "}":
		return m.abandon(tok)
	case "(":
		m.parens++
		return nil
	case ")":
		m.parens--
		if m.parens >= 0 {
			return nil
		}
	case "=>":
		if m.parens > 0 {
			return nil
		}
		if m.cand.kind == plainGroup {
			m.state = scArrowBody
		}
		return nil
	case ";", "=", ",", ":":
		if m.parens > 0 {
			return nil
		}
	default:
		return nil
	}
	return m.abandon(tok)
}

func (m *scriptMachine) openBody() {
	if m.typeAlias {
		m.braces.open(typeScope)
		m.reset()
		return
	}
	name := m.cand.name
	if name == "" {
		name = "<anonymous>"
	}
	held := m.cand.decisions
	m.cand.decisions = 0
	m.braces.openFunction(name, m.cand.params, m.cand.line)
	m.pendingName = ""
	m.reset()
	m.recordDecisions(held)
}

func opensTypeLiteral(prev lexer.Token) bool {
	switch prev.Text {
	case ":", "|", "&", "<", ",", "=>":
		return prev.Kind == lexer.Code
	}
	return false
}

func continuesType(prev lexer.Token) bool {
	switch prev.Text {
	case "=", ":", "|", "&", ",", "<", "=>", "?":
		return prev.Kind == lexer.Code
	}
	return false
}

func isScriptKeyword(s string) bool {
	switch s {
	case "if", "for", "while", "switch", "catch", "with", "return", "function",
		"typeof", "delete", "void", "await", "yield", "new", "in", "of", "instanceof",
		"do", "else", "throw", "case", "async", "import", "export", "default",
		"extends", "implements", "keyof", "as", "satisfies":
		return true
	}
	return false
}
