package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/ccnscan/internal/fileproc"
	"github.com/panbanda/ccnscan/internal/output"
	"github.com/panbanda/ccnscan/internal/progress"
	"github.com/panbanda/ccnscan/internal/scanner"
	"github.com/panbanda/ccnscan/internal/vcs"
	"github.com/panbanda/ccnscan/pkg/analyzer/complexity"
	"github.com/panbanda/ccnscan/pkg/source"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Analyze files and directories and report complexity",
		ArgsUsage: "[path...]",
		Description: `Walks each path, honoring .gitignore and configured exclusions, and
reports per-function CCN, NLOC and parameter counts with a project summary.

With --ref the files are read from a git revision instead of the working
tree. With --since only files added or modified since that revision are
analyzed.

A path may also name a remote repository (owner/repo, owner/repo@v1.2.0,
or any git URL). It is cloned to a temporary directory for the run.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Analyze files at this git revision (branch, tag or commit)",
			},
			&cli.StringFlag{
				Name:  "since",
				Usage: "Only analyze files changed since this git revision",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: 20,
				Usage: "Show the N most complex functions (0 for all)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress output",
			},
			&cli.BoolFlag{
				Name:  "shallow",
				Value: true,
				Usage: "Shallow clone remote repositories (ignored with --ref or --since)",
			},
			&cli.BoolFlag{
				Name:  "fail-on-violation",
				Usage: "Exit with status 2 when any threshold is exceeded",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	revision := c.IsSet("ref") || c.IsSet("since")
	paths, cloned, err := resolvePaths(c.Context, getPaths(c), c.App.ErrWriter, !revision && c.Bool("shallow"))
	if err != nil {
		return err
	}
	defer cloned.Cleanup()

	opts := append(fileproc.ConfigOptions(e.cfg), fileproc.WithLogger(e.logger))

	var (
		files []string
		src   source.ContentSource
	)
	if revision {
		files, src, err = revisionFiles(e, paths[0], c.String("ref"), c.String("since"))
		if err != nil {
			return err
		}
	} else {
		files, err = scanner.NewScanner(e.cfg).ScanPaths(paths)
		if err != nil {
			return err
		}
		var skipped int
		files, skipped = scanner.FilterBySize(files, e.cfg.Analysis.MaxInputBytes)
		if skipped > 0 {
			e.logger.Warn("files skipped", "count", skipped, "max_input_bytes", e.cfg.Analysis.MaxInputBytes)
		}
		src = source.NewFilesystem()
		if !cloned.Any() {
			opts = append(opts, fileproc.WithCache(e.cache()))
		}
	}

	if len(files) == 0 {
		formatter.Warning("No source files found")
		return nil
	}
	e.logger.Debug("scanned files", "files", len(files), "languages", languageCounts(files))

	tracker := progress.Disabled("complexity")
	if !c.Bool("quiet") {
		tracker = progress.NewTrackerTo(c.App.ErrWriter, "Analyzing complexity...", len(files))
	}
	opts = append(opts, fileproc.WithProgress(tracker.Tick))
	results, errs := fileproc.New(src, opts...).AnalyzeFiles(c.Context, files)
	if errs.HasErrors() {
		tracker.FinishSkipped(fmt.Sprintf("%d of %d files", len(errs.Errors), len(files)))
		for _, pe := range errs.Errors {
			e.logger.Warn("file skipped", "file", pe.Path, "error", pe.Err)
		}
	} else {
		tracker.FinishSuccess()
	}
	if err := c.Context.Err(); err != nil {
		return err
	}

	cloned.Relativize(results)

	th := e.cfg.ComplexityThresholds()
	report := complexity.Summarize(results, th)
	if err := formatter.Output(output.NewReportView(report, c.Int("top"), th)); err != nil {
		return err
	}

	if n := report.Summary.ViolationCount; n > 0 && c.Bool("fail-on-violation") {
		return cli.Exit(fmt.Sprintf("%d complexity violations", n), 2)
	}
	return nil
}

// revisionFiles lists the analyzable files of a git revision under root.
// When since is set, only files added or modified between since and ref
// are returned. Paths are relative to the repository root.
func revisionFiles(e *env, root, ref, since string) ([]string, source.ContentSource, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid path %s: %w", root, err)
	}
	repo, err := vcs.DefaultOpener().PlainOpenWithDetect(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("open repository at %s: %w", root, err)
	}
	tree, err := repo.Resolve(ref)
	if err != nil {
		return nil, nil, err
	}
	entries, err := tree.Entries()
	if err != nil {
		return nil, nil, err
	}

	if since != "" {
		base, err := repo.Resolve(since)
		if err != nil {
			return nil, nil, err
		}
		changed, err := base.Diff(tree)
		if err != nil {
			return nil, nil, err
		}
		entries = onlyPaths(entries, changed)
	}

	prefix, err := filepath.Rel(repo.RepoPath(), absRoot)
	if err != nil {
		return nil, nil, err
	}
	entries = underPrefix(entries, filepath.ToSlash(prefix))

	e.logger.Debug("resolved revision", "ref", ref, "tree", tree.Hash(), "entries", len(entries))
	return scanner.NewScanner(e.cfg).ScanTree(entries), source.NewTree(tree), nil
}

func onlyPaths(entries []vcs.TreeEntry, paths []string) []vcs.TreeEntry {
	keep := make(map[string]bool, len(paths))
	for _, p := range paths {
		keep[p] = true
	}
	var out []vcs.TreeEntry
	for _, en := range entries {
		if keep[en.Path] {
			out = append(out, en)
		}
	}
	return out
}

func underPrefix(entries []vcs.TreeEntry, prefix string) []vcs.TreeEntry {
	if prefix == "." || prefix == "" {
		return entries
	}
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	var out []vcs.TreeEntry
	for _, en := range entries {
		if strings.HasPrefix(en.Path, prefix) {
			out = append(out, en)
		}
	}
	return out
}

func languageCounts(files []string) map[string]int {
	counts := make(map[string]int)
	for l, group := range scanner.GroupByLanguage(files) {
		counts[string(l)] = len(group)
	}
	return counts
}
