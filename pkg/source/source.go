// Package source supplies file content to the analysis pipeline from the
// working tree, a git revision, or memory.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sync"
	"unicode/utf8"

	"github.com/panbanda/ccnscan/internal/vcs"
)

// ErrTooLarge is returned by a Limited source for content above its cap.
var ErrTooLarge = errors.New("input exceeds size limit")

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// Sizer is implemented by sources that can report a file's size without reading it.
type Sizer interface {
	Size(path string) (int64, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Size implements Sizer.
func (f *FilesystemSource) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// TreeSource reads files from a git tree.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	tree vcs.Tree
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git tree.
func NewTree(tree vcs.Tree) *TreeSource {
	return &TreeSource{tree: tree}
}

// Read implements ContentSource. Paths are slash separated and relative to the repository root.
func (t *TreeSource) Read(p string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.File(path.Clean(p))
}

// MapSource serves content from memory, keyed by path.
type MapSource map[string][]byte

// Read implements ContentSource.
func (m MapSource) Read(p string) ([]byte, error) {
	data, ok := m[p]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, fs.ErrNotExist)
	}
	return data, nil
}

// Size implements Sizer.
func (m MapSource) Size(p string) (int64, error) {
	data, ok := m[p]
	if !ok {
		return 0, fmt.Errorf("%s: %w", p, fs.ErrNotExist)
	}
	return int64(len(data)), nil
}

// LimitedSource rejects files larger than Max bytes with ErrTooLarge.
type LimitedSource struct {
	Source ContentSource
	Max    int64
}

// Limit wraps src so that content above max bytes is rejected.
// max <= 0 returns src unchanged.
func Limit(src ContentSource, max int64) ContentSource {
	if max <= 0 {
		return src
	}
	return &LimitedSource{Source: src, Max: max}
}

// Read implements ContentSource. Sources implementing Sizer are checked before reading.
func (l *LimitedSource) Read(p string) ([]byte, error) {
	if s, ok := l.Source.(Sizer); ok {
		size, err := s.Size(p)
		if err != nil {
			return nil, err
		}
		if size > l.Max {
			return nil, l.tooLarge(p, size)
		}
	}
	data, err := l.Source.Read(p)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.Max {
		return nil, l.tooLarge(p, int64(len(data)))
	}
	return data, nil
}

func (l *LimitedSource) tooLarge(p string, size int64) error {
	return fmt.Errorf("%s: %d bytes (limit %d): %w", p, size, l.Max, ErrTooLarge)
}

// Truncate cuts data to at most max bytes without splitting a UTF-8 sequence.
// It reports whether anything was dropped. max <= 0 disables the cap.
func Truncate(data []byte, max int64) ([]byte, bool) {
	if max <= 0 || int64(len(data)) <= max {
		return data, false
	}
	cut := int(max)
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut], true
}
