package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/ccnscan/internal/vcs"
	"github.com/panbanda/ccnscan/pkg/config"
	"github.com/panbanda/ccnscan/pkg/lang"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file %s: %v", name, err)
		}
	}
}

func relSet(t *testing.T, root string, files []string) map[string]bool {
	t.Helper()
	found := make(map[string]bool)
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		found[filepath.ToSlash(rel)] = true
	}
	return found
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(nil)
	if s == nil {
		t.Fatal("NewScanner(nil) returned nil")
	}
	if s.config == nil {
		t.Error("scanner.config should not be nil when passing nil")
	}

	cfg := config.DefaultConfig()
	s = NewScanner(cfg)
	if s.config != cfg {
		t.Error("scanner.config should be the provided config")
	}
}

func TestScanDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":          "package main\n",
		"util/helper.py":   "# python\n",
		"web/app.tsx":      "export {}\n",
		"web/legacy.cjs":   "module.exports = {}\n",
		"internal/core.rs": "fn main() {}\n",
		"README.md":        "# readme\n",
	})

	result, err := NewScanner(nil).ScanDir(tmpDir)
	require.NoError(t, err)

	found := relSet(t, tmpDir, result)
	assert.Equal(t, map[string]bool{
		"main.go":        true,
		"util/helper.py": true,
		"web/app.tsx":    true,
		"web/legacy.cjs": true,
	}, found, "only supported languages are returned")
}

func TestScanDirExcludesConfig(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":                   "package main\n",
		"vendor/dep/dep.go":         "package dep\n",
		"node_modules/pkg/index.js": "module.exports = 1\n",
		"web/dist/bundle.js":        "var a\n",
		"web/app.min.js":            "var a\n",
		"types/index.d.ts":          "export {}\n",
		"api/service.pb.go":         "package api\n",
		"tools/gen_generated.go":    "package tools\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Patterns = append(cfg.Exclude.Patterns, "*_generated.go")

	result, err := NewScanner(cfg).ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"main.go": true}, relSet(t, tmpDir, result))
}

func TestScanDirWithGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".gitignore":     "skipme\n*.gen.ts\n",
		"main.go":        "package main\n",
		"skipme/skip.go": "package skipme\n",
		"src/app.go":     "package src\n",
		"src/api.gen.ts": "export {}\n",
		"src/.gitignore": "local.py\n",
		"src/local.py":   "x = 1\n",
		"other/local.py": "x = 1\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = true

	result, err := NewScanner(cfg).ScanDir(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{
		"main.go":        true,
		"src/app.go":     true,
		"other/local.py": true,
	}, relSet(t, tmpDir, result))
}

func TestScanDirSubdirectoryOfRepo(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0755))
	writeTree(t, tmpDir, map[string]string{
		".gitignore":       "pkg/ignored/\n",
		"pkg/keep.go":      "package pkg\n",
		"pkg/ignored/x.go": "package ignored\n",
	})

	root := filepath.Join(tmpDir, "pkg")
	result, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"keep.go": true}, relSet(t, root, result),
		"rules from the repository root apply to a scan of a subdirectory")
}

func TestScanDirDisabledGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".gitignore":     "skipme\n",
		"main.go":        "package main\n",
		"skipme/skip.go": "package skipme\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false

	result, err := NewScanner(cfg).ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestScanDirEmptyDirectory(t *testing.T) {
	result, err := NewScanner(nil).ScanDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestScanPaths(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"a/one.go":     "package a\n",
		"a/two.py":     "x = 1\n",
		"b/three.ts":   "let x = 1\n",
		"notes.txt":    "hello\n",
		"b/gen.min.js": "var x\n",
	})

	s := NewScanner(nil)
	files, err := s.ScanPaths([]string{
		filepath.Join(tmpDir, "a"),
		filepath.Join(tmpDir, "a", "one.go"),
		filepath.Join(tmpDir, "b", "three.ts"),
		filepath.Join(tmpDir, "b", "gen.min.js"),
		filepath.Join(tmpDir, "notes.txt"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(tmpDir, "a", "one.go"),
		filepath.Join(tmpDir, "a", "two.py"),
		filepath.Join(tmpDir, "b", "three.ts"),
	}, files)

	_, err = s.ScanPaths([]string{filepath.Join(tmpDir, "missing")})
	assert.Error(t, err)
}

func TestScanFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":    "package main\n",
		"readme.md":  "# hi\n",
		"app.min.js": "var a\n",
	})

	s := NewScanner(nil)
	tests := []struct {
		name string
		want bool
	}{
		{"main.go", true},
		{"readme.md", false},
		{"app.min.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ScanFile(filepath.Join(tmpDir, tt.name))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	ok, err := s.ScanFile(tmpDir)
	require.NoError(t, err)
	assert.False(t, ok, "directories are not files")

	_, err = s.ScanFile(filepath.Join(tmpDir, "nonexistent.go"))
	assert.Error(t, err)
}

func TestScanTree(t *testing.T) {
	entries := []vcs.TreeEntry{
		{Path: "cmd/main.go"},
		{Path: "vendor/x/x.go"},
		{Path: "web/src/app.ts"},
		{Path: "web/src/app.d.ts"},
		{Path: "docs/guide.md"},
		{Path: "scripts/tool.py"},
	}

	got := NewScanner(nil).ScanTree(entries)
	assert.Equal(t, []string{"cmd/main.go", "web/src/app.ts", "scripts/tool.py"}, got)
}

func TestGroupByLanguage(t *testing.T) {
	groups := GroupByLanguage([]string{"a.go", "b.py", "c.ts", "d.js", "e.go", "f.txt"})

	assert.Equal(t, []string{"a.go", "e.go"}, groups[lang.Go])
	assert.Equal(t, []string{"b.py"}, groups[lang.Python])
	assert.Equal(t, []string{"c.ts"}, groups[lang.TypeScript])
	assert.Equal(t, []string{"d.js"}, groups[lang.JavaScript])
	assert.Len(t, groups, 4)

	assert.Empty(t, GroupByLanguage(nil))
}

func TestFilterBySize(t *testing.T) {
	tmpDir := t.TempDir()

	// Create files of different sizes
	smallContent := "small"
	largeContent := make([]byte, 1024)
	for i := range largeContent {
		largeContent[i] = 'x'
	}

	smallFile := filepath.Join(tmpDir, "small.go")
	largeFile := filepath.Join(tmpDir, "large.go")

	if err := os.WriteFile(smallFile, []byte(smallContent), 0644); err != nil {
		t.Fatalf("Failed to create small file: %v", err)
	}
	if err := os.WriteFile(largeFile, largeContent, 0644); err != nil {
		t.Fatalf("Failed to create large file: %v", err)
	}

	t.Run("no limit", func(t *testing.T) {
		filtered, skipped := FilterBySize([]string{smallFile, largeFile}, 0)
		if len(filtered) != 2 {
			t.Errorf("FilterBySize with no limit should return all files, got %d", len(filtered))
		}
		if skipped != 0 {
			t.Errorf("FilterBySize with no limit should skip 0 files, got %d", skipped)
		}
	})

	t.Run("negative limit", func(t *testing.T) {
		filtered, skipped := FilterBySize([]string{smallFile, largeFile}, -1)
		if len(filtered) != 2 {
			t.Errorf("FilterBySize with negative limit should return all files, got %d", len(filtered))
		}
		if skipped != 0 {
			t.Errorf("FilterBySize with negative limit should skip 0 files, got %d", skipped)
		}
	})

	t.Run("with limit", func(t *testing.T) {
		filtered, skipped := FilterBySize([]string{smallFile, largeFile}, 100)
		if len(filtered) != 1 {
			t.Errorf("FilterBySize should return 1 file, got %d", len(filtered))
		}
		if skipped != 1 {
			t.Errorf("FilterBySize should skip 1 file, got %d", skipped)
		}
		if filtered[0] != smallFile {
			t.Errorf("FilterBySize should keep small file, got %s", filtered[0])
		}
	})

	t.Run("with stat error", func(t *testing.T) {
		nonExistent := filepath.Join(tmpDir, "nonexistent.go")
		filtered, skipped := FilterBySize([]string{smallFile, nonExistent}, 100)
		if len(filtered) != 1 {
			t.Errorf("FilterBySize should return 1 file, got %d", len(filtered))
		}
		if skipped != 1 {
			t.Errorf("FilterBySize should skip non-existent file, got %d skipped", skipped)
		}
	})
}

func TestIsWithinRoot(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		path string
		root string
		want bool
	}{
		{
			name: "same path",
			path: tmpDir,
			root: tmpDir,
			want: true,
		},
		{
			name: "child path",
			path: filepath.Join(tmpDir, "subdir", "file.go"),
			root: tmpDir,
			want: true,
		},
		{
			name: "path outside root",
			path: "/some/other/path",
			root: tmpDir,
			want: false,
		},
		{
			name: "parent path",
			path: filepath.Dir(tmpDir),
			root: tmpDir,
			want: false,
		},
		{
			name: "similar prefix but different dir",
			path: tmpDir + "2/file.go",
			root: tmpDir,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isWithinRoot(tt.path, tt.root)
			if got != tt.want {
				t.Errorf("isWithinRoot(%q, %q) = %v, want %v", tt.path, tt.root, got, tt.want)
			}
		})
	}
}

func TestFindGitRoot(t *testing.T) {
	// Test with non-git directory
	tmpDir := t.TempDir()
	result := findGitRoot(tmpDir)
	if result != "" {
		t.Errorf("findGitRoot() on non-git dir should return empty string, got %q", result)
	}

	// Test with mock .git directory
	gitDir := filepath.Join(tmpDir, ".git")
	if err := os.Mkdir(gitDir, 0755); err != nil {
		t.Fatalf("Failed to create .git dir: %v", err)
	}

	result = findGitRoot(tmpDir)
	if result != tmpDir {
		t.Errorf("findGitRoot() should return %q, got %q", tmpDir, result)
	}

	// Test from subdirectory
	subDir := filepath.Join(tmpDir, "src", "pkg")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	result = findGitRoot(subDir)
	if result != tmpDir {
		t.Errorf("findGitRoot() from subdir should return %q, got %q", tmpDir, result)
	}
}

func TestScanDirWithSymlinks(t *testing.T) {
	// Skip on systems that don't support symlinks
	tmpDir := t.TempDir()

	// Create a real file
	realFile := filepath.Join(tmpDir, "real.go")
	if err := os.WriteFile(realFile, []byte("package main\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	// Create a symlink within the directory
	symlinkPath := filepath.Join(tmpDir, "link.go")
	if err := os.Symlink(realFile, symlinkPath); err != nil {
		t.Skip("Symlinks not supported on this system")
	}

	s := NewScanner(nil)
	result, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	// Should find both the real file and the symlink
	if len(result) < 1 {
		t.Errorf("ScanDir() should find at least the real file, got %d files", len(result))
	}
}

func TestScanDirWithUnresolvableSymlink(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a dangling symlink
	symlinkPath := filepath.Join(tmpDir, "dangling.go")
	if err := os.Symlink("/nonexistent/path/file.go", symlinkPath); err != nil {
		t.Skip("Symlinks not supported on this system")
	}

	// Create a real file to ensure scanner still works
	realFile := filepath.Join(tmpDir, "real.go")
	if err := os.WriteFile(realFile, []byte("package main\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	s := NewScanner(nil)
	result, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	// Should find the real file, skip the dangling symlink
	if len(result) != 1 {
		t.Errorf("ScanDir() should find 1 file (skipping dangling symlink), got %d", len(result))
	}
}

func TestScanDirWithSymlinkDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a real directory with files
	realDir := filepath.Join(tmpDir, "real")
	if err := os.Mkdir(realDir, 0755); err != nil {
		t.Fatalf("Failed to create real dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(realDir, "file.go"), []byte("package real\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	// Create a symlink to a directory outside the root
	outsideDir := t.TempDir() // Different temp directory
	if err := os.WriteFile(filepath.Join(outsideDir, "outside.go"), []byte("package outside\n"), 0644); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}

	symlinkDir := filepath.Join(tmpDir, "linked")
	if err := os.Symlink(outsideDir, symlinkDir); err != nil {
		t.Skip("Symlinks not supported on this system")
	}

	s := NewScanner(nil)
	result, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	// Should only find files in the real directory, not through the symlink
	// (symlink to outside directory should be skipped)
	foundOutside := false
	for _, f := range result {
		if filepath.Base(f) == "outside.go" {
			foundOutside = true
		}
	}

	if foundOutside {
		t.Error("ScanDir() should not follow symlinks outside the root directory")
	}
}
