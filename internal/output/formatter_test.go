package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "output.txt")

	f, err := NewFormatter(FormatText, outputPath, true)
	require.NoError(t, err)
	assert.False(t, f.Colored(), "file output is never colored")
	assert.Equal(t, FormatText, f.Format())

	f.Info("hello %s", "file")
	require.NoError(t, f.Close())

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "hello file\n", string(content))
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/dir/output.txt", false)
	assert.Error(t, err)
}

func TestTableRenderText(t *testing.T) {
	table := NewTable(
		"Test Results",
		[]string{"File", "Status", "Score"},
		[][]string{
			{"file1.go", "Pass", "100"},
			{"file2.go", "Fail", "50"},
		},
		[]string{"Total", "", "150"},
		nil,
	)

	var buf bytes.Buffer
	require.NoError(t, table.RenderText(&buf, false))

	out := buf.String()
	for _, want := range []string{"Test Results", "FILE", "STATUS", "SCORE", "file1.go", "Pass", "150"} {
		assert.Contains(t, out, want)
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable("Scores", []string{"A", "B"}, [][]string{{"1", "2"}}, []string{"x", "y"}, nil)

	var buf bytes.Buffer
	require.NoError(t, table.RenderMarkdown(&buf))

	assert.Equal(t, "## Scores\n\n| A | B |\n| --- | --- |\n| 1 | 2 |\n| x | y |\n\n", buf.String())
}

func TestTableRenderData(t *testing.T) {
	table := NewTable("", []string{"Name", "Count"}, [][]string{{"a", "1"}, {"b"}}, nil, nil)
	data := table.RenderData().([]map[string]string)
	assert.Equal(t, []map[string]string{{"Name": "a", "Count": "1"}, {"Name": "b"}}, data)

	raw := map[string]int{"x": 1}
	assert.Equal(t, raw, NewTable("", nil, nil, nil, raw).RenderData())
}

func TestSectionRendering(t *testing.T) {
	s := &Section{
		Title:   "Parent",
		Content: "top",
		Sections: []Section{
			{Title: "Child", Content: "nested"},
		},
	}

	var text bytes.Buffer
	require.NoError(t, s.RenderText(&text, false))
	assert.Equal(t, "Parent\n======\ntop\n\nChild\n-----\nnested\n", text.String())

	var md bytes.Buffer
	require.NoError(t, s.RenderMarkdown(&md))
	assert.Equal(t, "## Parent\n\ntop\n\n### Child\n\nnested\n\n", md.String())

	assert.Same(t, s, s.RenderData())
}

func TestReportRendering(t *testing.T) {
	r := &Report{
		Title: "Report",
		Sections: []Renderable{
			&Section{Title: "One", Content: "first"},
			NewTable("Two", []string{"K"}, [][]string{{"v"}}, nil, nil),
		},
	}

	var text bytes.Buffer
	require.NoError(t, r.RenderText(&text, false))
	assert.True(t, strings.HasPrefix(text.String(), "Report\n======\n\nOne\n"))

	var md bytes.Buffer
	require.NoError(t, r.RenderMarkdown(&md))
	assert.Contains(t, md.String(), "# Report\n\n## One\n\nfirst\n")
	assert.Contains(t, md.String(), "| K |")

	data := r.RenderData().(map[string]any)
	assert.Equal(t, "Report", data["title"])
	assert.Len(t, data["sections"], 2)
}

func TestFormatterOutput(t *testing.T) {
	table := NewTable("T", []string{"Name"}, [][]string{{"alpha"}}, nil, map[string]string{"name": "alpha"})

	tests := []struct {
		format Format
		check  func(t *testing.T, out string)
	}{
		{FormatText, func(t *testing.T, out string) { assert.Contains(t, out, "alpha") }},
		{FormatMarkdown, func(t *testing.T, out string) { assert.Contains(t, out, "| alpha |") }},
		{FormatJSON, func(t *testing.T, out string) {
			var got map[string]string
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, "alpha", got["name"])
		}},
		{FormatTOON, func(t *testing.T, out string) {
			assert.Contains(t, out, "name")
			assert.Contains(t, out, "alpha")
			assert.NotContains(t, out, "{")
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewWriterFormatter(tt.format, &buf, false).Output(table))
			tt.check(t, buf.String())
		})
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	data := map[string]int{"count": 3}

	var md bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatMarkdown, &md, false).Output(data))
	assert.True(t, strings.HasPrefix(md.String(), "```json\n"))
	assert.True(t, strings.HasSuffix(md.String(), "```\n"))

	var text bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatText, &text, false).Output(data))
	assert.JSONEq(t, `{"count":3}`, text.String())

	var tn bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatTOON, &tn, false).Output(data))
	assert.Contains(t, tn.String(), "count")
	assert.NotContains(t, tn.String(), "{")
}

func TestFormatterMessageMethods(t *testing.T) {
	tests := []struct {
		name   string
		method func(*Formatter, string, ...any)
		format string
		args   []any
		want   string
	}{
		{"success", (*Formatter).Success, "Operation completed", nil, "Operation completed\n"},
		{"warning", (*Formatter).Warning, "Low disk space", nil, "WARNING: Low disk space\n"},
		{"error", (*Formatter).Error, "File not found", nil, "ERROR: File not found\n"},
		{"info", (*Formatter).Info, "Processing %d files", []any{5}, "Processing 5 files\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.method(NewWriterFormatter(FormatText, &buf, false), tt.format, tt.args...)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestSeverityColor(t *testing.T) {
	for _, sev := range []string{"error", "warning", "ok", "unknown", ""} {
		t.Run(sev, func(t *testing.T) {
			assert.Contains(t, SeverityColor(sev, "text"), "text")
		})
	}
}

func TestMarshalTOON(t *testing.T) {
	out, err := MarshalTOON(struct {
		Name  string `json:"name"`
		Items []int  `json:"items"`
	}{Name: "x", Items: []int{1, 2}})
	require.NoError(t, err)
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "items")
	assert.NotContains(t, out, "\"name\"")
}
