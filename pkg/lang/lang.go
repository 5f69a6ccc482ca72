// Package lang identifies the source languages the complexity engine understands.
package lang

import (
	"path/filepath"
	"sort"
	"strings"
)

// Language represents a supported programming language.
type Language string

const (
	Go         Language = "go"
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Python     Language = "python"
	Unknown    Language = "unknown"
)

// Default is the language assumed when a file name carries no recognizable extension.
const Default = TypeScript

var extensions = map[string]Language{
	".ts":  TypeScript,
	".tsx": TypeScript,
	".mts": TypeScript,
	".cts": TypeScript,
	".js":  JavaScript,
	".jsx": JavaScript,
	".mjs": JavaScript,
	".cjs": JavaScript,
	".go":  Go,
	".py":  Python,
	".pyw": Python,
	".pyi": Python,
}

var aliases = map[string]Language{
	"go":         Go,
	"golang":     Go,
	"typescript": TypeScript,
	"ts":         TypeScript,
	"tsx":        TypeScript,
	"javascript": JavaScript,
	"js":         JavaScript,
	"jsx":        JavaScript,
	"node":       JavaScript,
	"python":     Python,
	"py":         Python,
	"python3":    Python,
}

// Detect determines the language from a file path.
// Returns Unknown when the extension is not recognized.
func Detect(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := extensions[ext]; ok {
		return l
	}
	return Unknown
}

// DetectOrDefault is Detect with unknown or missing extensions mapped to Default.
func DetectOrDefault(path string) Language {
	if l := Detect(path); l != Unknown {
		return l
	}
	return Default
}

// Parse resolves a user-supplied language name ("ts", "golang", "Python") to a Language.
func Parse(name string) (Language, bool) {
	l, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return l, ok
}

// Supported reports whether l is one of the languages the engine analyzes.
func (l Language) Supported() bool {
	switch l {
	case Go, TypeScript, JavaScript, Python:
		return true
	default:
		return false
	}
}

func (l Language) String() string {
	return string(l)
}

// All returns every supported language in a stable order.
func All() []Language {
	return []Language{Go, JavaScript, Python, TypeScript}
}

// Extensions returns the file extensions mapped to l, sorted.
func Extensions(l Language) []string {
	var exts []string
	for ext, el := range extensions {
		if el == l {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}
