// Package remote resolves repository references such as owner/repo@v1.2.0
// and clones them for analysis.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source represents a remote repository to analyze.
type Source struct {
	URL      string // normalized git URL
	Ref      string // branch, tag, or SHA (empty = default branch)
	CloneDir string // temp directory after clone
}

var shaPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// Parse detects if a path is a remote reference.
// Returns nil if path exists on filesystem (local path takes precedence).
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	// SSH URLs contain "@" before the host, so only a trailing @ref is split off.
	ref := ""
	if idx := strings.LastIndex(path, "@"); idx != -1 && !strings.Contains(path[idx+1:], ":") {
		ref = path[idx+1:]
		path = path[:idx]
		if ref == "" {
			return nil, fmt.Errorf("empty ref in %q", path+"@")
		}
	}

	switch {
	case strings.HasPrefix(path, "https://"),
		strings.HasPrefix(path, "http://"),
		strings.HasPrefix(path, "ssh://"),
		strings.HasPrefix(path, "file://"),
		strings.HasPrefix(path, "git@"):
		return &Source{URL: path, Ref: ref}, nil
	case isHostPath(path):
		return &Source{URL: "https://" + path, Ref: ref}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path, Ref: ref}, nil
	}
	return nil, nil
}

// isHostPath reports whether path looks like host.tld/owner/repo.
func isHostPath(path string) bool {
	parts := strings.Split(path, "/")
	return len(parts) >= 3 && strings.Contains(parts[0], ".") && parts[1] != "" && parts[2] != ""
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	// No dots before the slash (would indicate a domain)
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// Clone clones the repository into a new temporary directory, checking out
// Ref when set. A shallow clone fetches only the tip of the ref; SHAs always
// need the full history. Callers must call Cleanup.
func (s *Source) Clone(ctx context.Context, progress io.Writer, shallow bool) error {
	dir, err := os.MkdirTemp("", "ccnscan-clone-*")
	if err != nil {
		return fmt.Errorf("create clone dir: %w", err)
	}
	s.CloneDir = dir

	if s.Ref != "" && shaPattern.MatchString(s.Ref) {
		return s.cloneAtCommit(ctx, progress)
	}

	opts := &git.CloneOptions{URL: s.URL, Progress: progress}
	if shallow {
		opts.Depth = 1
		opts.SingleBranch = true
	}
	if s.Ref == "" {
		return s.clone(ctx, opts)
	}

	opts.ReferenceName = plumbing.NewBranchReferenceName(s.Ref)
	branchErr := s.clone(ctx, opts)
	if branchErr == nil {
		return nil
	}
	if err := s.reset(); err != nil {
		return err
	}
	opts.ReferenceName = plumbing.NewTagReferenceName(s.Ref)
	if err := s.clone(ctx, opts); err != nil {
		return fmt.Errorf("ref %s is neither a branch nor a tag: %w", s.Ref, errors.Join(branchErr, err))
	}
	return nil
}

func (s *Source) clone(ctx context.Context, opts *git.CloneOptions) error {
	if _, err := git.PlainCloneContext(ctx, s.CloneDir, false, opts); err != nil {
		return fmt.Errorf("clone %s: %w", s.URL, err)
	}
	return nil
}

func (s *Source) cloneAtCommit(ctx context.Context, progress io.Writer) error {
	if err := s.clone(ctx, &git.CloneOptions{URL: s.URL, Progress: progress}); err != nil {
		return err
	}
	repo, err := git.PlainOpen(s.CloneDir)
	if err != nil {
		return err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(s.Ref))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.Ref, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: *hash})
}

// reset empties the clone directory after a failed attempt.
func (s *Source) reset() error {
	if err := os.RemoveAll(s.CloneDir); err != nil {
		return err
	}
	return os.MkdirAll(s.CloneDir, 0o755)
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() error {
	if s.CloneDir == "" {
		return nil
	}
	err := os.RemoveAll(s.CloneDir)
	s.CloneDir = ""
	return err
}
