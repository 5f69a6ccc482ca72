package mcpserver

import (
	"encoding/json"
)

// Manifest is the MCP registry server.json document, schema version 2025-10-17.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository contains source repository information.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	ID     string `json:"id,omitempty"`
}

// Package describes how to install/run the MCP server.
type Package struct {
	RegistryType         string     `json:"registryType"`
	Identifier           string     `json:"identifier"`
	RuntimeHint          string     `json:"runtimeHint,omitempty"`
	PackageArguments     []Argument `json:"packageArguments,omitempty"`
	EnvironmentVariables []EnvVar   `json:"environmentVariables,omitempty"`
	Transport            Transport  `json:"transport"`
}

// Argument is a command-line argument. Named arguments carry the flag in Name.
type Argument struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
}

// EnvVar is an environment variable the client may set for the server.
type EnvVar struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Default     string   `json:"default,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	IsRequired  bool     `json:"isRequired,omitempty"`
}

// Transport describes the communication method.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest creates the MCP server manifest JSON. The package runs
// the mcp subcommand; the config file and log level are exposed the same
// way the CLI reads them.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	manifest := Manifest{
		Schema:      "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json",
		Name:        "io.github.panbanda/ccnscan",
		Description: "Cyclomatic complexity for Go, TypeScript, JavaScript and Python code, on disk or pasted",
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/panbanda/ccnscan",
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType: "oci",
				Identifier:   "ghcr.io/panbanda/ccnscan:" + version,
				RuntimeHint:  "docker",
				PackageArguments: []Argument{
					{
						Type:        "named",
						Name:        "--config",
						Description: "ccnscan.toml, .yaml or .json with thresholds, exclusions and cache settings",
						Format:      "filepath",
					},
					{Type: "positional", Value: "mcp"},
				},
				EnvironmentVariables: []EnvVar{
					{
						Name:        "CCNSCAN_CONFIG",
						Description: "Config file path, used when --config is not given",
					},
					{
						Name:        "CCNSCAN_LOG_LEVEL",
						Description: "Log level written to stderr",
						Default:     "warn",
						Choices:     []string{"debug", "info", "warn", "error", "silent"},
					},
				},
				Transport: Transport{
					Type: "stdio",
				},
			},
		},
	}

	return json.MarshalIndent(manifest, "", "  ")
}
