package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/ccnscan/pkg/lang"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://ccnscan.dev/schema/config.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse config schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add config schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Schema returns the JSON Schema configuration files are validated against.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}

// validateDocument checks a decoded config document (any of TOML, YAML, JSON)
// against the schema. The document is round-tripped through JSON so that every
// parser's number and map types are normalized.
func validateDocument(doc any) error {
	sch, err := schema()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Validate checks the config against the schema and semantic rules.
func (c *Config) Validate() error {
	if err := validateDocument(c); err != nil {
		return err
	}

	if c.Analysis.DefaultLanguage != "" {
		l, ok := lang.Parse(c.Analysis.DefaultLanguage)
		if !ok || !l.Supported() {
			return fmt.Errorf("analysis.default_language: unsupported language %q", c.Analysis.DefaultLanguage)
		}
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir: required when cache is enabled")
	}
	return nil
}
