package main

import (
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/ccnscan/internal/cache"
	"github.com/panbanda/ccnscan/internal/logging"
	"github.com/panbanda/ccnscan/internal/output"
	"github.com/panbanda/ccnscan/pkg/config"
)

// env is the per-invocation state shared by commands: the effective config
// with flag overrides applied and a stderr logger.
type env struct {
	cfg    *config.Config
	source string
	logger *slog.Logger
}

// loadEnv loads the config named by --config, or the first one found from
// the working directory, and applies global flag overrides.
func loadEnv(c *cli.Context) (*env, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}

	cfg := result.Config
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	level := cfg.Log.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}

	newLogger := logging.New
	if cfg.Log.Format == "json" {
		newLogger = logging.NewJSON
	}

	return &env{
		cfg:    cfg,
		source: result.Source,
		logger: newLogger(c.App.ErrWriter, logging.LevelFromString(level)),
	}, nil
}

// formatter writes to --output when given, otherwise to the app's writer.
func (e *env) formatter(c *cli.Context) (*output.Formatter, error) {
	format := output.ParseFormat(e.cfg.Output.Format)
	if path := c.String("output"); path != "" {
		return output.NewFormatter(format, path, false)
	}
	return output.NewWriterFormatter(format, c.App.Writer, e.cfg.Output.Color), nil
}

// cache opens the result cache. A cache that cannot be opened is logged and
// disabled rather than failing the run.
func (e *env) cache() *cache.Cache {
	cc := e.cfg.Cache
	c, err := cache.New(cc.Dir, cc.TTL, cc.Enabled)
	if err != nil {
		e.logger.Warn("cache disabled", "dir", cc.Dir, "error", err)
		return nil
	}
	return c
}
