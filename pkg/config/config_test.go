package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/ccnscan/pkg/lang"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if cfg.Analysis.DefaultLanguage != "typescript" {
		t.Errorf("Analysis.DefaultLanguage = %q, want typescript", cfg.Analysis.DefaultLanguage)
	}
	if cfg.Analysis.MaxInputBytes != 1<<20 {
		t.Errorf("Analysis.MaxInputBytes = %d, want %d", cfg.Analysis.MaxInputBytes, 1<<20)
	}
	if cfg.Thresholds.Cyclomatic != 10 {
		t.Errorf("Thresholds.Cyclomatic = %d, want 10", cfg.Thresholds.Cyclomatic)
	}
	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be true by default")
	}
	if cfg.Cache.TTL != 24 {
		t.Errorf("Cache.TTL = %d, want 24", cfg.Cache.TTL)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %s, want warn", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %s, want text", cfg.Log.Format)
	}

	require.NoError(t, cfg.Validate())
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "ccnscan.toml", `
[analysis]
default_language = "python"
workers = 4

[thresholds]
cyclomatic = 15
parameters = 0

[exclude]
dirs = ["vendor", "custom_exclude"]
patterns = ["*_generated.go"]

[cache]
enabled = false

[output]
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "python", cfg.Analysis.DefaultLanguage)
	assert.Equal(t, lang.Python, cfg.Language())
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 15, cfg.Thresholds.Cyclomatic)
	assert.Equal(t, 0, cfg.Thresholds.Parameters)
	assert.Equal(t, 60, cfg.Thresholds.FunctionNLOC, "unset keys keep defaults")
	assert.Equal(t, []string{"vendor", "custom_exclude"}, cfg.Exclude.Dirs)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "ccnscan.yaml", `
analysis:
  default_language: go
  max_input_bytes: 4096

thresholds:
  cyclomatic: 20

output:
  format: markdown

log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, lang.Go, cfg.Language())
	assert.Equal(t, int64(4096), cfg.Analysis.MaxInputBytes)
	assert.Equal(t, 20, cfg.Thresholds.Cyclomatic)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "ccnscan.json", `{
  "thresholds": { "cyclomatic": 25, "function_nloc": 100 },
  "output": { "format": "toon", "color": false }
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Thresholds.Cyclomatic)
	assert.Equal(t, 100, cfg.Thresholds.FunctionNLOC)
	assert.Equal(t, "toon", cfg.Output.Format)
	assert.False(t, cfg.Output.Color)

	th := cfg.ComplexityThresholds()
	assert.Equal(t, 25, th.Cyclomatic)
	assert.Equal(t, 100, th.FunctionNLOC)
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/ccnscan.toml")
	if err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := writeConfig(t, "ccnscan.toml", "[analysis\ninvalid toml")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestLoadSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown section", "c.toml", "[analyzers]\nx = 1\n"},
		{"unknown key", "c.toml", "[thresholds]\ncognitive = 3\n"},
		{"wrong type", "c.yaml", "thresholds:\n  cyclomatic: high\n"},
		{"negative", "c.json", `{"thresholds": {"parameters": -1}}`},
		{"bad format", "c.toml", "[output]\nformat = \"html\"\n"},
		{"bad log level", "c.yaml", "log:\n  level: loud\n"},
		{"bad log format", "c.yaml", "log:\n  format: xml\n"},
		{"bad language", "c.toml", "[analysis]\ndefault_language = \"cobol\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Dir = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Analysis.DefaultLanguage = "js"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, lang.JavaScript, cfg.Language())

	cfg.Exclude.Patterns = nil
	assert.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	// In a directory without config files, should return defaults
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cfg := LoadOrDefault()
	if cfg == nil {
		t.Fatal("LoadOrDefault() returned nil")
	}
	assert.Equal(t, DefaultConfig(), cfg)

	if err := os.WriteFile(filepath.Join(tmpDir, "ccnscan.toml"), []byte("[thresholds]\ncyclomatic = 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 7, LoadOrDefault().Thresholds.Cyclomatic)
}

func TestLoadConfig(t *testing.T) {
	root := t.TempDir()

	res, err := LoadConfig(WithRoot(root))
	require.NoError(t, err)
	assert.Empty(t, res.Source)
	assert.Equal(t, DefaultConfig(), res.Config)

	dir := filepath.Join(root, ".ccnscan")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "ccnscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  cyclomatic: 12\n"), 0644))

	res, err = LoadConfig(WithRoot(root))
	require.NoError(t, err)
	assert.Equal(t, path, res.Source)
	assert.Equal(t, 12, res.Config.Thresholds.Cyclomatic)

	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  cyclomatic: nope\n"), 0644))
	_, err = LoadConfig(WithRoot(root))
	assert.Error(t, err, "found but invalid files are reported")
}

func TestLoadConfig_ExplicitMissingPath(t *testing.T) {
	_, err := LoadConfig(WithPath(filepath.Join(t.TempDir(), "missing.toml")))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude.Extensions = []string{".cjs"}

	tests := []struct {
		path     string
		excluded bool
	}{
		{"src/main.go", false},
		{"vendor/lib/x.go", true},
		{"app/node_modules/pkg/index.js", true},
		{"web/dist/bundle.js", true},
		{"web/app.min.js", true},
		{"types/index.d.ts", true},
		{"api/service.pb.go", true},
		{"scripts/build.cjs", true},
		{"pkg/builder.go", false},
		{"lib/__pycache__/m.py", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := cfg.ShouldExclude(tt.path); got != tt.excluded {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.excluded)
			}
		})
	}
}

func TestSchemaIsValidJSON(t *testing.T) {
	sch, err := schema()
	require.NoError(t, err)
	assert.NotNil(t, sch)
	assert.Contains(t, string(Schema()), `"thresholds"`)
}
