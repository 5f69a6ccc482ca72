// Package scanner finds the source files a run should analyze.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/ccnscan/internal/vcs"
	"github.com/panbanda/ccnscan/pkg/config"
	"github.com/panbanda/ccnscan/pkg/lang"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config *config.Config

	matcher    gitignore.Matcher
	ignoreRoot string
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore below the repository root containing
// absRoot (or below absRoot itself outside a repository).
func (s *Scanner) loadGitignore(absRoot string) {
	if !s.config.Exclude.Gitignore {
		return
	}
	base := findGitRoot(absRoot)
	if base == "" {
		base = absRoot
	}
	if s.matcher != nil && s.ignoreRoot == base {
		return
	}

	patterns, err := gitignore.ReadPatterns(osfs.New(base), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.matcher = gitignore.NewMatcher(patterns)
	s.ignoreRoot = base
}

// isExcluded checks config exclusions against rel (relative to the scan root)
// and gitignore rules against abs.
func (s *Scanner) isExcluded(abs, rel string, isDir bool) bool {
	if rel != "." {
		check := filepath.ToSlash(rel)
		if isDir {
			check += "/"
		}
		if s.config.ShouldExclude(check) {
			return true
		}
	}

	if s.matcher == nil {
		return false
	}
	r, err := filepath.Rel(s.ignoreRoot, abs)
	if err != nil || r == "." || strings.HasPrefix(r, "..") {
		return false
	}
	return s.matcher.Match(strings.Split(filepath.ToSlash(r), "/"), isDir)
}

// ScanDir recursively scans a directory for source files in a supported language.
// Validates that all paths stay within the root directory to prevent traversal attacks.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	// Resolve root to absolute path for security validation
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadGitignore(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		absPath := filepath.Join(absRoot, relPath)
		isDir := d.IsDir()

		// Security: validate path stays within root (prevent symlink traversal)
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
			info, err := os.Stat(resolved)
			if err != nil {
				return nil
			}
			// WalkDir does not descend into symlinked directories.
			isDir = info.IsDir()
			if isDir {
				return nil
			}
		}

		if isDir {
			if s.isExcluded(absPath, relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(absPath, relPath, false) {
			return nil
		}
		if lang.Detect(path) != lang.Unknown {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

// ScanPaths scans files and directories and returns the de-duplicated, sorted
// list of source files. Explicit files are kept when their language is known
// and the config does not exclude them.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(f string) {
		key := filepath.Clean(f)
		if !seen[key] {
			seen[key] = true
			files = append(files, key)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := s.ScanDir(p)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
			continue
		}
		ok, err := s.ScanFile(p)
		if err != nil {
			return nil, err
		}
		if ok {
			add(p)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ScanTree filters the entries of a git tree down to analyzable source files.
// Tracked files are not matched against .gitignore.
func (s *Scanner) ScanTree(entries []vcs.TreeEntry) []string {
	var files []string
	for _, e := range entries {
		if s.config.ShouldExclude(e.Path) {
			continue
		}
		if lang.Detect(e.Path) != lang.Unknown {
			files = append(files, e.Path)
		}
	}
	return files
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	if !strings.HasPrefix(absPath, root+string(filepath.Separator)) && absPath != root {
		return false
	}

	return true
}

// ScanFile checks if a single file should be analyzed.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	if info.IsDir() {
		return false, nil
	}

	// Directory rules only apply below a scan root.
	if s.config.ShouldExclude(filepath.Base(path)) {
		return false, nil
	}

	return lang.Detect(path) != lang.Unknown, nil
}

// GroupByLanguage groups files by their detected language.
func GroupByLanguage(files []string) map[lang.Language][]string {
	groups := make(map[lang.Language][]string)
	for _, f := range files {
		l := lang.Detect(f)
		if l != lang.Unknown {
			groups[l] = append(groups[l], f)
		}
	}
	return groups
}

// FilterBySize filters files that exceed the configured maximum size.
// Returns the filtered list and the count of files that were skipped.
// If maxSize is 0, returns the original list unchanged.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			skipped++
			continue
		}
		if info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, skipped
}
