package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the result cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache entry count and size",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove all cached results",
				Action: runCacheClear,
			},
		},
	}
}

func runCacheStats(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rc := e.cache()
	if !rc.Enabled() {
		formatter.Warning("Cache is disabled")
		return nil
	}
	stats, err := rc.GetStats()
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}

	formatter.Info("Directory: %s", e.cfg.Cache.Dir)
	formatter.Info("Entries:   %d", stats.Entries)
	formatter.Info("Size:      %d bytes", stats.TotalSize)
	if stats.Entries > 0 {
		formatter.Info("Oldest:    %s ago", stats.OldestAge.Round(time.Second))
	}
	return nil
}

func runCacheClear(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rc := e.cache()
	if !rc.Enabled() {
		formatter.Warning("Cache is disabled")
		return nil
	}
	if err := rc.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	formatter.Success("Cleared %s", e.cfg.Cache.Dir)
	return nil
}
