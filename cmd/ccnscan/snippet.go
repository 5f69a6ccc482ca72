package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/ccnscan/internal/output"
	"github.com/panbanda/ccnscan/pkg/analyzer/complexity"
	"github.com/panbanda/ccnscan/pkg/lang"
	"github.com/panbanda/ccnscan/pkg/source"
)

func snippetCmd() *cli.Command {
	return &cli.Command{
		Name:      "snippet",
		Usage:     "Analyze code from a file or standard input",
		ArgsUsage: "[file|-]",
		Description: `Reads one piece of code and prints its complexity. Without a file, or
with "-", the code is read from standard input.

The language comes from --language, else from the extension of --filename
or the file argument, else from analysis.default_language. Input larger
than analysis.max_input_bytes is truncated.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "language",
				Aliases: []string{"l"},
				Usage:   "Language: go, typescript, javascript, python",
			},
			&cli.StringFlag{
				Name:  "filename",
				Usage: "Name used for language detection and in the output",
			},
		},
		Action: runSnippetCmd,
	}
}

func runSnippetCmd(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	name := c.String("filename")
	arg := c.Args().First()

	var code []byte
	if arg == "" || arg == "-" {
		code, err = io.ReadAll(c.App.Reader)
	} else {
		code, err = os.ReadFile(arg)
		if name == "" {
			name = arg
		}
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	l := e.cfg.Language()
	if detected := lang.Detect(name); detected != lang.Unknown {
		l = detected
	}
	if s := c.String("language"); s != "" {
		parsed, ok := lang.Parse(s)
		if !ok {
			return fmt.Errorf("unsupported language %q", s)
		}
		l = parsed
	}

	if limited, truncated := source.Truncate(code, e.cfg.Analysis.MaxInputBytes); truncated {
		e.logger.Warn("input truncated", "bytes", len(code), "limit", e.cfg.Analysis.MaxInputBytes)
		code = limited
	}

	a, err := complexity.New(l, complexity.WithLogger(e.logger))
	if err != nil {
		return err
	}
	res := a.Analyze(string(code))

	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if name == "" {
		name = "snippet"
	}
	return formatter.Output(output.NewResultView(name, res))
}
