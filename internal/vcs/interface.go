// Package vcs provides the git access used for revision analysis.
package vcs

// Repository provides access to git repository operations.
type Repository interface {
	// Resolve returns the tree of the commit a revision (branch, tag, hash, HEAD~2, ...) points at.
	Resolve(rev string) (Tree, error)
	// RepoPath returns the root path of the repository's worktree.
	RepoPath() string
}

// TreeEntry represents a file in a git tree.
type TreeEntry struct {
	Path string
	Size int64
}

// Tree represents the file tree of one commit.
type Tree interface {
	// Hash returns the hash of the commit the tree belongs to.
	Hash() string
	// Entries returns all regular files in the tree (recursively), sorted by path.
	Entries() ([]TreeEntry, error)
	// File returns the contents of the file at path (slash separated).
	File(path string) ([]byte, error)
	// Diff returns the paths added or modified in to relative to this tree.
	Diff(to Tree) ([]string, error)
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
