package remote

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/ccnscan/internal/testutil"
)

func TestParse_LocalPath(t *testing.T) {
	// Create a temp directory that exists
	dir := t.TempDir()

	src, err := Parse(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src != nil {
		t.Errorf("expected nil for local path, got %+v", src)
	}
}

func TestParse_GitHubShorthand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantURL string
		wantRef string
	}{
		{
			name:    "simple owner/repo",
			input:   "facebook/react",
			wantURL: "https://github.com/facebook/react",
			wantRef: "",
		},
		{
			name:    "with ref suffix",
			input:   "facebook/react@v18.2.0",
			wantURL: "https://github.com/facebook/react",
			wantRef: "v18.2.0",
		},
		{
			name:    "with branch ref",
			input:   "owner/repo@feature-branch",
			wantURL: "https://github.com/owner/repo",
			wantRef: "feature-branch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src == nil {
				t.Fatal("expected Source, got nil")
			}
			if src.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", src.URL, tt.wantURL)
			}
			if src.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", src.Ref, tt.wantRef)
			}
		})
	}
}

func TestParse_FullURLs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantURL string
		wantRef string
	}{
		{
			name:    "github.com without scheme",
			input:   "github.com/golang/go",
			wantURL: "https://github.com/golang/go",
			wantRef: "",
		},
		{
			name:    "https URL",
			input:   "https://github.com/kubernetes/kubernetes",
			wantURL: "https://github.com/kubernetes/kubernetes",
			wantRef: "",
		},
		{
			name:    "gitlab URL",
			input:   "https://gitlab.com/group/project",
			wantURL: "https://gitlab.com/group/project",
			wantRef: "",
		},
		{
			name:    "SSH URL",
			input:   "git@github.com:owner/repo.git",
			wantURL: "git@github.com:owner/repo.git",
			wantRef: "",
		},
		{
			name:    "file URL",
			input:   "file:///srv/git/project.git@main",
			wantURL: "file:///srv/git/project.git",
			wantRef: "main",
		},
		{
			name:    "SSH URL with ref",
			input:   "git@github.com:owner/repo.git@v2",
			wantURL: "git@github.com:owner/repo.git",
			wantRef: "v2",
		},
		{
			name:    "URL with ref",
			input:   "github.com/golang/go@go1.21.0",
			wantURL: "https://github.com/golang/go",
			wantRef: "go1.21.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src == nil {
				t.Fatal("expected Source, got nil")
			}
			if src.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", src.URL, tt.wantURL)
			}
			if src.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", src.Ref, tt.wantRef)
			}
		})
	}
}

func TestParse_NotRemote(t *testing.T) {
	for _, input := range []string{"main.go", "missing/dir/file.py", "./local", "a/b/c"} {
		src, err := Parse(input)
		require.NoError(t, err, input)
		assert.Nil(t, src, input)
	}
}

func TestParse_EmptyRef(t *testing.T) {
	_, err := Parse("owner/repo@")
	assert.Error(t, err)
}

// upstream creates a local repository with two commits and a tag on the
// first, and returns its path with the commit hashes.
func upstream(t *testing.T) (string, string, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping clone test in short mode")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir, repo := testutil.InitRepo(t)
	testutil.CommitFiles(t, dir, repo, map[string]string{"main.go": "package main\n"}, "first")
	first, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.0.0", first.Hash(), nil)
	require.NoError(t, err)

	testutil.CommitFiles(t, dir, repo, map[string]string{"lib/util.py": "def f():\n    return 1\n"}, "second")
	second, err := repo.Head()
	require.NoError(t, err)
	return dir, first.Hash().String(), second.Hash().String()
}

func headOf(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	return head.Hash().String()
}

func TestSource_Clone(t *testing.T) {
	dir, first, second := upstream(t)

	tests := []struct {
		name     string
		ref      string
		shallow  bool
		wantHead string
		wantPy   bool
	}{
		{name: "default branch", wantHead: second, wantPy: true},
		{name: "branch", ref: "master", wantHead: second, wantPy: true},
		{name: "tag", ref: "v1.0.0", wantHead: first},
		{name: "sha", ref: first[:12], wantHead: first},
		{name: "sha ignores shallow", ref: first, shallow: true, wantHead: first},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &Source{URL: dir, Ref: tt.ref}
			require.NoError(t, src.Clone(context.Background(), io.Discard, tt.shallow))
			defer src.Cleanup()

			require.NotEmpty(t, src.CloneDir)
			assert.Equal(t, tt.wantHead, headOf(t, src.CloneDir))
			_, err := os.Stat(filepath.Join(src.CloneDir, "lib", "util.py"))
			assert.Equal(t, tt.wantPy, err == nil)
		})
	}
}

func TestSource_Clone_UnknownRef(t *testing.T) {
	dir, _, _ := upstream(t)

	src := &Source{URL: dir, Ref: "no-such-ref"}
	err := src.Clone(context.Background(), io.Discard, false)
	defer src.Cleanup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither a branch nor a tag")
}

func TestSource_Cleanup(t *testing.T) {
	dir, _, _ := upstream(t)

	src := &Source{URL: dir}
	require.NoError(t, src.Clone(context.Background(), io.Discard, false))
	cloneDir := src.CloneDir

	require.NoError(t, src.Cleanup())
	_, err := os.Stat(cloneDir)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, src.CloneDir)
	assert.NoError(t, src.Cleanup())
}
