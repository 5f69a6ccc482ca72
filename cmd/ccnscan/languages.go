package main

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/ccnscan/internal/output"
	"github.com/panbanda/ccnscan/pkg/analyzer/complexity"
	"github.com/panbanda/ccnscan/pkg/lang"
)

type languageInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	Conditions []string `json:"conditions"`
}

func languagesCmd() *cli.Command {
	return &cli.Command{
		Name:   "languages",
		Usage:  "List supported languages, their extensions and decision-point tokens",
		Action: runLanguagesCmd,
	}
}

func runLanguagesCmd(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var (
		infos []languageInfo
		rows  [][]string
	)
	for _, l := range lang.All() {
		a, err := complexity.New(l)
		if err != nil {
			return err
		}
		info := languageInfo{
			Name:       l.String(),
			Extensions: lang.Extensions(l),
			Conditions: a.ConditionTokens(),
		}
		infos = append(infos, info)
		rows = append(rows, []string{
			info.Name,
			strings.Join(info.Extensions, " "),
			strings.Join(info.Conditions, " "),
		})
	}

	return formatter.Output(output.NewTable("Languages", []string{"Language", "Extensions", "Decision Points"}, rows, nil, infos))
}
