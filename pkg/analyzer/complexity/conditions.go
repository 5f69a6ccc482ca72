package complexity

import (
	"sort"

	"github.com/panbanda/ccnscan/pkg/lang"
)

// Category groups decision-point tokens by the construct they introduce.
type Category uint8

const (
	ControlFlow Category = iota
	Logical
	Case
	Ternary
	Exception
)

func (c Category) String() string {
	switch c {
	case ControlFlow:
		return "control_flow"
	case Logical:
		return "logical"
	case Case:
		return "case"
	case Ternary:
		return "ternary"
	case Exception:
		return "exception"
	default:
		return "unknown"
	}
}

// Conditions is the immutable set of tokens that count as decision points for
// one language. The zero value matches nothing.
type Conditions struct {
	byCategory map[Category][]string
	index      map[string]Category
}

func newConditions(table map[Category][]string) Conditions {
	c := Conditions{
		byCategory: make(map[Category][]string, len(table)),
		index:      make(map[string]Category),
	}
	for cat, toks := range table {
		c.byCategory[cat] = append([]string(nil), toks...)
		for _, tok := range toks {
			c.index[tok] = cat
		}
	}
	return c
}

// ConditionsFor returns a fresh copy of the decision-point table for l.
// The second result is false when l has no table.
func ConditionsFor(l lang.Language) (Conditions, bool) {
	switch l {
	case lang.Go:
		// No ternary operator and no exceptions: errors are values.
		return newConditions(map[Category][]string{
			ControlFlow: {"if", "for"},
			Logical:     {"&&", "||"},
			Case:        {"case"},
			Ternary:     {},
			Exception:   {},
		}), true
	case lang.TypeScript, lang.JavaScript:
		return newConditions(map[Category][]string{
			ControlFlow: {"if", "for", "while"},
			Logical:     {"&&", "||", "??"},
			Case:        {"case"},
			Ternary:     {"?"},
			Exception:   {"catch"},
		}), true
	case lang.Python:
		return newConditions(map[Category][]string{
			ControlFlow: {"if", "elif", "for", "while"},
			Logical:     {"and", "or"},
			Case:        {"case"},
			Ternary:     {},
			Exception:   {"except"},
		}), true
	default:
		return Conditions{}, false
	}
}

// Has reports whether text is a decision point.
func (c Conditions) Has(text string) bool {
	_, ok := c.index[text]
	return ok
}

// CategoryOf returns the category text belongs to.
func (c Conditions) CategoryOf(text string) (Category, bool) {
	cat, ok := c.index[text]
	return cat, ok
}

// In returns the tokens of one category, sorted. Empty categories return nil.
func (c Conditions) In(cat Category) []string {
	toks := c.byCategory[cat]
	if len(toks) == 0 {
		return nil
	}
	out := append([]string(nil), toks...)
	sort.Strings(out)
	return out
}

// Tokens returns every decision-point token, sorted.
func (c Conditions) Tokens() []string {
	out := make([]string, 0, len(c.index))
	for tok := range c.index {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
