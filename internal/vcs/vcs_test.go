package vcs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/ccnscan/internal/testutil"
)

func TestGitOpener_PlainOpen(t *testing.T) {
	repoPath, _ := testutil.InitRepo(t)

	repo, err := NewGitOpener().PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}
	if repo == nil {
		t.Fatal("PlainOpen() returned nil repository")
	}
}

func TestGitOpener_PlainOpen_NonExistent(t *testing.T) {
	_, err := NewGitOpener().PlainOpen("/nonexistent/path")
	if err == nil {
		t.Error("PlainOpen() should return error for non-existent path")
	}
}

func TestGitOpener_PlainOpenWithDetect(t *testing.T) {
	repoPath, _ := testutil.InitRepo(t)
	subDir := filepath.Join(repoPath, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	repo, err := NewGitOpener().PlainOpenWithDetect(subDir)
	require.NoError(t, err)

	want, _ := filepath.EvalSymlinks(repoPath)
	got, _ := filepath.EvalSymlinks(repo.RepoPath())
	assert.Equal(t, want, got)
}

func TestResolveAndRead(t *testing.T) {
	repoPath, gitRepo := testutil.InitRepo(t)
	testutil.CommitFiles(t, repoPath, gitRepo, map[string]string{
		"main.go":     "package main\n",
		"web/app.ts":  "export const x = 1\n",
		"docs/readme": "hello\n",
	}, "initial")

	repo, err := NewGitOpener().PlainOpen(repoPath)
	require.NoError(t, err)

	tree, err := repo.Resolve("HEAD")
	require.NoError(t, err)
	assert.Len(t, tree.Hash(), 40)

	entries, err := tree.Entries()
	require.NoError(t, err)
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	assert.Equal(t, []string{"docs/readme", "main.go", "web/app.ts"}, paths)
	assert.Equal(t, int64(len("package main\n")), entries[1].Size)

	data, err := tree.File("web/app.ts")
	require.NoError(t, err)
	assert.Equal(t, "export const x = 1\n", string(data))

	_, err = tree.File("missing.go")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestResolveEmptyRevisionMeansHead(t *testing.T) {
	repoPath, gitRepo := testutil.InitRepo(t)
	testutil.CommitFiles(t, repoPath, gitRepo, map[string]string{"a.py": "x = 1\n"}, "initial")

	repo, err := NewGitOpener().PlainOpen(repoPath)
	require.NoError(t, err)

	head, err := repo.Resolve("HEAD")
	require.NoError(t, err)
	empty, err := repo.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), empty.Hash())
}

func TestResolveUnknownRevision(t *testing.T) {
	repoPath, gitRepo := testutil.InitRepo(t)
	testutil.CommitFiles(t, repoPath, gitRepo, map[string]string{"a.py": "x = 1\n"}, "initial")

	repo, err := NewGitOpener().PlainOpen(repoPath)
	require.NoError(t, err)

	_, err = repo.Resolve("no-such-branch")
	assert.Error(t, err)
}

func TestTreeDiff(t *testing.T) {
	repoPath, gitRepo := testutil.InitRepo(t)
	testutil.CommitFiles(t, repoPath, gitRepo, map[string]string{
		"a.go": "package a\n",
		"b.go": "package b\n",
	}, "first")
	testutil.CommitFiles(t, repoPath, gitRepo, map[string]string{
		"b.go":   "package b\n\nfunc B() {}\n",
		"c/c.py": "def c():\n    pass\n",
		"a.go":   "package a\n",
	}, "second")

	repo, err := NewGitOpener().PlainOpen(repoPath)
	require.NoError(t, err)

	from, err := repo.Resolve("HEAD~1")
	require.NoError(t, err)
	to, err := repo.Resolve("HEAD")
	require.NoError(t, err)

	changed, err := from.Diff(to)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.go", "c/c.py"}, changed)
}

type fakeTree struct{ Tree }

func TestTreeDiffRejectsForeignTree(t *testing.T) {
	repoPath, gitRepo := testutil.InitRepo(t)
	testutil.CommitFiles(t, repoPath, gitRepo, map[string]string{"a.go": "package a\n"}, "first")

	repo, err := NewGitOpener().PlainOpen(repoPath)
	require.NoError(t, err)
	tree, err := repo.Resolve("HEAD")
	require.NoError(t, err)

	_, err = tree.Diff(fakeTree{})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestDefaultOpener(t *testing.T) {
	orig := DefaultOpener()
	defer SetDefaultOpener(orig)

	custom := NewGitOpener()
	SetDefaultOpener(custom)
	assert.Same(t, custom, DefaultOpener())
}
