package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/ccnscan/internal/fileproc"
	"github.com/panbanda/ccnscan/internal/output"
	"github.com/panbanda/ccnscan/internal/scanner"
	"github.com/panbanda/ccnscan/pkg/source"
	"github.com/panbanda/ccnscan/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch for file changes and re-analyze",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Wait this long after the last write before analyzing",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	root, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	watcher, err := watch.NewWatcher(root, e.cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()
	watcher.SetLogger(e.logger)

	// Only saves that change content are reported.
	files, err := scanner.NewScanner(e.cfg).ScanDir(root)
	if err != nil {
		return err
	}
	for _, f := range files {
		if content, err := os.ReadFile(f); err == nil {
			watcher.Seed(f, content)
		}
	}

	proc := fileproc.New(source.NewFilesystem(), append(fileproc.ConfigOptions(e.cfg),
		fileproc.WithCache(e.cache()),
		fileproc.WithLogger(e.logger),
	)...)
	maxBytes := e.cfg.Analysis.MaxInputBytes

	watcher.SetHandler(func(path string, content []byte) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		if maxBytes > 0 && int64(len(content)) > maxBytes {
			formatter.Warning("%s: %d bytes exceeds max_input_bytes, skipped", rel, len(content))
			return
		}
		fr := proc.AnalyzeContent(path, content)
		if err := formatter.Output(output.NewResultView(rel, fr.Result)); err != nil {
			e.logger.Error("render result", "file", rel, "error", err)
		}
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter.Info("Watching %d files in %s (Ctrl+C to stop)", len(files), root)
	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
