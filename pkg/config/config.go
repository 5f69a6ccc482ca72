package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/panbanda/ccnscan/pkg/analyzer/complexity"
	"github.com/panbanda/ccnscan/pkg/lang"
)

// Config holds all configuration options for ccnscan.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" json:"analysis" toml:"analysis" yaml:"analysis"`

	// Thresholds for violations
	Thresholds ThresholdConfig `koanf:"thresholds" json:"thresholds" toml:"thresholds" yaml:"thresholds"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" json:"exclude" toml:"exclude" yaml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" json:"cache" toml:"cache" yaml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" json:"output" toml:"output" yaml:"output"`

	Log LogConfig `koanf:"log" json:"log" toml:"log" yaml:"log"`
}

// AnalysisConfig controls how source is analyzed.
type AnalysisConfig struct {
	// DefaultLanguage is used for snippets and files with unknown extensions.
	DefaultLanguage string `koanf:"default_language" json:"default_language" toml:"default_language" yaml:"default_language"`
	// MaxInputBytes skips files (and truncates snippets) larger than this. 0 = no limit.
	MaxInputBytes int64 `koanf:"max_input_bytes" json:"max_input_bytes" toml:"max_input_bytes" yaml:"max_input_bytes"`
	// Workers bounds parallel file analysis. 0 = 2x NumCPU.
	Workers int `koanf:"workers" json:"workers" toml:"workers" yaml:"workers"`
}

// ThresholdConfig defines per-function violation thresholds. 0 disables a rule.
type ThresholdConfig struct {
	Cyclomatic   int `koanf:"cyclomatic" json:"cyclomatic" toml:"cyclomatic" yaml:"cyclomatic"`
	FunctionNLOC int `koanf:"function_nloc" json:"function_nloc" toml:"function_nloc" yaml:"function_nloc"`
	Parameters   int `koanf:"parameters" json:"parameters" toml:"parameters" yaml:"parameters"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" json:"patterns" toml:"patterns" yaml:"patterns"`
	Extensions []string `koanf:"extensions" json:"extensions" toml:"extensions" yaml:"extensions"`
	Dirs       []string `koanf:"dirs" json:"dirs" toml:"dirs" yaml:"dirs"`
	Gitignore  bool     `koanf:"gitignore" json:"gitignore" toml:"gitignore" yaml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled" toml:"enabled" yaml:"enabled"`
	Dir     string `koanf:"dir" json:"dir" toml:"dir" yaml:"dir"`
	TTL     int    `koanf:"ttl_hours" json:"ttl_hours" toml:"ttl_hours" yaml:"ttl_hours"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" json:"format" toml:"format" yaml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" json:"color" toml:"color" yaml:"color"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" toml:"level" yaml:"level"`     // debug, info, warn, error
	Format string `koanf:"format" json:"format" toml:"format" yaml:"format"` // text, json
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	t := complexity.DefaultThresholds()
	return &Config{
		Analysis: AnalysisConfig{
			DefaultLanguage: string(lang.Default),
			MaxInputBytes:   1 << 20,
			Workers:         0,
		},
		Thresholds: ThresholdConfig{
			Cyclomatic:   t.Cyclomatic,
			FunctionNLOC: t.FunctionNLOC,
			Parameters:   t.Parameters,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.d.ts",
				"*_pb2.py",
				"*.pb.go",
			},
			Extensions: []string{},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".ccnscan",
				"dist",
				"build",
				"__pycache__",
				".venv",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".ccnscan/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// ErrNotFound is returned by LoadConfig when an explicit path does not exist.
var ErrNotFound = errors.New("config file not found")

// Load loads configuration from a file, layered over DefaultConfig.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if err := validateDocument(k.Raw()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// configNames are searched, in order, by LoadOrDefault and LoadConfig.
var configNames = []string{
	"ccnscan.toml",
	"ccnscan.yaml",
	"ccnscan.yml",
	"ccnscan.json",
	".ccnscan.toml",
	".ccnscan.yaml",
	".ccnscan.yml",
	".ccnscan.json",
}

var searchDirs = []string{".", ".ccnscan"}

// Find returns the first config file in the standard locations under root, or "".
func Find(root string) string {
	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(root, dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
// Invalid config files are ignored.
func LoadOrDefault() *Config {
	if path := Find("."); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// LoadResult is the outcome of LoadConfig.
type LoadResult struct {
	Config *Config
	// Source is the file the config was read from, or "" for defaults.
	Source string
}

type loadOptions struct {
	path string
	root string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads exactly this file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithRoot searches for config files under root instead of the working directory.
func WithRoot(root string) LoadOption {
	return func(o *loadOptions) {
		o.root = root
	}
}

// LoadConfig loads and validates configuration. Unlike LoadOrDefault, errors in a
// found or explicit file are returned.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{root: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
	} else {
		path = Find(o.root)
	}

	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	path = filepath.ToSlash(path)

	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, "/"+dir+"/") || strings.HasPrefix(path, dir+"/") {
			return true
		}
	}

	// Check extension exclusions
	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	// Check pattern exclusions
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}

// ComplexityThresholds converts the threshold section for complexity.Summarize.
func (c *Config) ComplexityThresholds() complexity.Thresholds {
	return complexity.Thresholds{
		Cyclomatic:   c.Thresholds.Cyclomatic,
		FunctionNLOC: c.Thresholds.FunctionNLOC,
		Parameters:   c.Thresholds.Parameters,
	}
}

// Language returns the configured default language, or lang.Default when unset.
func (c *Config) Language() lang.Language {
	if l, ok := lang.Parse(c.Analysis.DefaultLanguage); ok {
		return l
	}
	return lang.Default
}
