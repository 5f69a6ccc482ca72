package main

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/panbanda/ccnscan/internal/progress"
	"github.com/panbanda/ccnscan/internal/remote"
	"github.com/panbanda/ccnscan/pkg/analyzer/complexity"
)

// clones tracks remote repositories cloned for a single run.
type clones struct {
	sources []*remote.Source
}

// resolvePaths clones every remote reference in paths (owner/repo@ref, git
// URLs) and replaces it with the clone directory. Local paths pass through.
func resolvePaths(ctx context.Context, paths []string, w io.Writer, shallow bool) ([]string, *clones, error) {
	cl := &clones{}
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		src, err := remote.Parse(p)
		if err != nil {
			cl.Cleanup()
			return nil, nil, err
		}
		if src == nil {
			resolved = append(resolved, p)
			continue
		}
		cl.sources = append(cl.sources, src)
		spin := progress.NewSpinnerTo(w, "Cloning "+src.URL+"...")
		if err := src.Clone(ctx, io.Discard, shallow); err != nil {
			spin.FinishError(err)
			cl.Cleanup()
			return nil, nil, err
		}
		spin.FinishSuccess()
		resolved = append(resolved, src.CloneDir)
	}
	return resolved, cl, nil
}

// Any reports whether at least one path was cloned.
func (cl *clones) Any() bool {
	return len(cl.sources) > 0
}

// Relativize rewrites result paths inside clone directories to be relative
// to the clone root.
func (cl *clones) Relativize(results []complexity.FileResult) {
	for i := range results {
		for _, src := range cl.sources {
			rel, err := filepath.Rel(src.CloneDir, results[i].Path)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			results[i].Path = filepath.ToSlash(rel)
			break
		}
	}
}

// Cleanup removes all clone directories.
func (cl *clones) Cleanup() {
	for _, src := range cl.sources {
		_ = src.Cleanup()
	}
}
