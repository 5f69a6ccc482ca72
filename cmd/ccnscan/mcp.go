package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/ccnscan/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the complexity
engine as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "ccnscan": {
        "command": "ccnscan",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_snippet   Complexity of code passed inline
  - analyze_files     Complexity of files and directories on disk`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:  "manifest",
				Usage: "Print the MCP registry server.json manifest",
				Action: func(c *cli.Context) error {
					data, err := mcpserver.GenerateManifest(version)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, string(data))
					return err
				},
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(version,
		mcpserver.WithConfig(e.cfg),
		mcpserver.WithCache(e.cache()),
		mcpserver.WithLogger(e.logger),
	)
	return server.Run(c.Context)
}
