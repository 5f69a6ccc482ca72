package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/ccnscan/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a ccnscan configuration file for syntax errors, unknown keys
and invalid values.

Examples:
  ccnscan config validate                      # Validates default config locations
  ccnscan -c ccnscan.toml config validate      # Validates specific file`,
				Action: runConfigValidate,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  ccnscan config show              # Show effective config as TOML
  ccnscan config show --as yaml    # Show effective config as YAML`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "as",
						Value: "toml",
						Usage: "Encoding: toml, yaml, json",
					},
				},
				Action: runConfigShow,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON Schema for configuration files",
				Action: func(c *cli.Context) error {
					_, err := c.App.Writer.Write(config.Schema())
					return err
				},
			},
		},
	}
}

func runConfigValidate(c *cli.Context) error {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}

	w := c.App.Writer
	result, err := config.LoadConfig(opts...)
	if err != nil {
		color.New(color.FgRed).Fprintln(w, "Configuration validation failed:")
		fmt.Fprintf(w, "  - %s\n", err)
		return err
	}

	if result.Source != "" {
		color.New(color.FgGreen).Fprintf(w, "Configuration valid: %s\n", result.Source)
	} else {
		color.New(color.FgYellow).Fprintln(w, "No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}

	result, err := config.LoadConfig(opts...)
	if err != nil {
		return err
	}

	content, err := encodeConfig(result.Config, c.String("as"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	if result.Source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}
	_, err = w.Write(content)
	return err
}

func encodeConfig(cfg *config.Config, as string) ([]byte, error) {
	var (
		content []byte
		err     error
	)
	switch as {
	case "toml", "":
		content, err = toml.Marshal(cfg)
	case "yaml", "yml":
		content, err = yaml.Marshal(cfg)
	case "json":
		content, err = json.MarshalIndent(cfg, "", "  ")
		content = append(content, '\n')
	default:
		return nil, fmt.Errorf("unknown encoding %q (want toml, yaml or json)", as)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return content, nil
}
