package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/ccnscan/internal/fileproc"
	"github.com/panbanda/ccnscan/internal/output"
	"github.com/panbanda/ccnscan/internal/scanner"
	"github.com/panbanda/ccnscan/pkg/analyzer/complexity"
	"github.com/panbanda/ccnscan/pkg/lang"
	"github.com/panbanda/ccnscan/pkg/source"
)

// defaultTop bounds the markdown function table for analyze_files.
const defaultTop = 20

// SnippetInput is the input for analyze_snippet.
type SnippetInput struct {
	Code     string `json:"code" jsonschema:"Source code to analyze."`
	Filename string `json:"filename,omitempty" jsonschema:"File name whose extension selects the language, e.g. handler.go."`
	Language string `json:"language,omitempty" jsonschema:"Language name: go, typescript, javascript or python. Takes precedence over filename."`
	Format   string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown or text."`
}

// FilesInput is the input for analyze_files.
type FilesInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Files or directories to analyze. Defaults to current directory if empty."`
	Top    int      `json:"top,omitempty" jsonschema:"Rows in the markdown function table. Default 20."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown or text."`
}

func getPaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

// getFormat maps a tool's format argument to an output format. TOON is the
// default because it is the most compact for model context.
func getFormat(format string) output.Format {
	switch strings.ToLower(format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	case "text":
		return output.FormatText
	default:
		return output.FormatTOON
	}
}

func formatOutput(r output.Renderable, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(r); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func toolResult(r output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(r, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// addNote appends a plain-text note after the main tool output.
func addNote(res *mcp.CallToolResult, format string, args ...any) {
	res.Content = append(res.Content, &mcp.TextContent{Text: "Note: " + fmt.Sprintf(format, args...)})
}

// snippetLanguage resolves the analysis language: an explicit name first,
// then the filename extension, then the configured default.
func (s *Server) snippetLanguage(in SnippetInput) (lang.Language, error) {
	if in.Language != "" {
		l, ok := lang.Parse(in.Language)
		if !ok {
			return lang.Unknown, fmt.Errorf("unsupported language %q (supported: go, typescript, javascript, python)", in.Language)
		}
		return l, nil
	}
	if l := lang.Detect(in.Filename); l != lang.Unknown {
		return l, nil
	}
	return s.cfg.Language(), nil
}

func (s *Server) handleAnalyzeSnippet(ctx context.Context, req *mcp.CallToolRequest, in SnippetInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.Code) == "" {
		return toolError("code is empty")
	}
	l, err := s.snippetLanguage(in)
	if err != nil {
		return toolError(err.Error())
	}

	limit := s.cfg.Analysis.MaxInputBytes
	code, truncated := source.Truncate([]byte(in.Code), limit)

	a, err := complexity.New(l, complexity.WithLogger(s.logger))
	if err != nil {
		return toolError(err.Error())
	}
	res := a.Analyze(string(code))

	name := in.Filename
	if name == "" {
		name = "snippet"
	}
	s.logger.Debug("analyzed snippet", "language", l, "mode", res.Mode, "bytes", len(code))

	out, _, err := toolResult(output.NewResultView(name, res), getFormat(in.Format))
	if err != nil {
		return nil, nil, err
	}
	if truncated {
		addNote(out, "input truncated to the first %d bytes", len(code))
	}
	return out, nil, nil
}

func (s *Server) handleAnalyzeFiles(ctx context.Context, req *mcp.CallToolRequest, in FilesInput) (*mcp.CallToolResult, any, error) {
	files, err := scanner.NewScanner(s.cfg).ScanPaths(getPaths(in.Paths))
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no source files found")
	}

	opts := append(fileproc.ConfigOptions(s.cfg),
		fileproc.WithCache(s.cache),
		fileproc.WithLogger(s.logger),
	)
	results, errs := fileproc.New(source.NewFilesystem(), opts...).AnalyzeFiles(ctx, files)
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}
	if len(results) == 0 && errs.HasErrors() {
		return toolError(errs.Error())
	}

	top := in.Top
	if top <= 0 {
		top = defaultTop
	}
	th := s.cfg.ComplexityThresholds()
	report := complexity.Summarize(results, th)

	out, _, err := toolResult(output.NewReportView(report, top, th), getFormat(in.Format))
	if err != nil {
		return nil, nil, err
	}
	if errs.HasErrors() {
		addNote(out, "%d of %d files skipped: %v", len(errs.Errors), len(files), errs)
	}
	return out, nil, nil
}
