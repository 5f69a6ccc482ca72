package lexer

import (
	"sort"

	"github.com/panbanda/ccnscan/pkg/lang"
)

// DefaultTabWidth is the column stop used to expand tabs.
const DefaultTabWidth = 8

// Syntax describes the lexical conventions of one language family.
type Syntax struct {
	Name string

	LineComment string
	BlockOpen   string
	BlockClose  string

	// Quotes open single-line literals with backslash escapes.
	Quotes string
	// TemplateQuotes open literals that may span lines and honor backslash escapes.
	TemplateQuotes string
	// RawQuotes open literals that may span lines and have no escapes.
	RawQuotes string
	// TripleQuotes enables Python-style """ and ''' literals.
	TripleQuotes bool
	// StringPrefixes lists letters that may prefix a quote (r"", b'', f"").
	StringPrefixes string
	// RegexLiterals lexes /pattern/flags as a String token wherever a slash
	// cannot be division.
	RegexLiterals bool

	// Operators lists multi-character operators. They are matched longest first.
	Operators []string

	TabWidth int
}

func sortedOps(ops ...string) []string {
	sort.SliceStable(ops, func(i, j int) bool { return len(ops[i]) > len(ops[j]) })
	return ops
}

// GoSyntax covers Go source.
func GoSyntax() Syntax {
	return Syntax{
		Name:        "go",
		LineComment: "//",
		BlockOpen:   "/*",
		BlockClose:  "*/",
		Quotes:      `"'`,
		RawQuotes:   "`",
		Operators: sortedOps(
			"<<=", ">>=", "&^=", "...",
			"&&", "||", "<-", "++", "--", "==", "!=", "<=", ">=", ":=",
			"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "&^",
		),
		TabWidth: DefaultTabWidth,
	}
}

// ScriptSyntax covers TypeScript and JavaScript source.
//
// Shift operators are deliberately absent so that nested generic closers (">>")
// stay separate tokens.
func ScriptSyntax() Syntax {
	return Syntax{
		Name:           "script",
		LineComment:    "//",
		BlockOpen:      "/*",
		BlockClose:     "*/",
		Quotes:         `"'`,
		TemplateQuotes: "`",
		RegexLiterals:  true,
		Operators: sortedOps(
			"...", "===", "!==", "**=", "<<=", "&&=", "||=", "??=",
			"=>", "&&", "||", "??", "?.", "?:", "++", "--", "==", "!=", "<=", ">=",
			"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<",
		),
		TabWidth: DefaultTabWidth,
	}
}

// PythonSyntax covers Python source.
func PythonSyntax() Syntax {
	return Syntax{
		Name:           "python",
		LineComment:    "#",
		Quotes:         `"'`,
		TripleQuotes:   true,
		StringPrefixes: "rRbBuUfF",
		Operators: sortedOps(
			"**=", "//=", ">>=", "<<=", "...",
			"->", ":=", "**", "//", "==", "!=", "<=", ">=",
			"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=", "<<", ">>",
		),
		TabWidth: DefaultTabWidth,
	}
}

// ForLanguage returns the syntax preset for l. Unknown languages get ScriptSyntax,
// matching the analyzer's default language.
func ForLanguage(l lang.Language) Syntax {
	switch l {
	case lang.Go:
		return GoSyntax()
	case lang.Python:
		return PythonSyntax()
	default:
		return ScriptSyntax()
	}
}
