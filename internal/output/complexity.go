package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/panbanda/ccnscan/pkg/analyzer/complexity"
)

var printer = message.NewPrinter(language.English)

// ReportView renders a project complexity report.
type ReportView struct {
	Report *complexity.Report
	// Top limits the hotspot table to the most complex functions. 0 lists all.
	Top int
	// Thresholds color CCN cells in text output.
	Thresholds complexity.Thresholds
}

// NewReportView wraps rep for rendering.
func NewReportView(rep *complexity.Report, top int, t complexity.Thresholds) *ReportView {
	return &ReportView{Report: rep, Top: top, Thresholds: t}
}

func (v *ReportView) RenderData() any {
	return v.Report
}

func (v *ReportView) RenderText(w io.Writer, colored bool) error {
	return v.compose(colored).RenderText(w, colored)
}

func (v *ReportView) RenderMarkdown(w io.Writer) error {
	return v.compose(false).RenderMarkdown(w)
}

func (v *ReportView) compose(colored bool) *Report {
	rep := v.Report
	s := rep.Summary

	summary := &Section{
		Title: "Summary",
		Content: strings.Join([]string{
			printer.Sprintf("Files:            %d (%d without function boundaries)", s.TotalFiles, s.AggregateFiles),
			printer.Sprintf("Functions:        %d", s.TotalFunctions),
			printer.Sprintf("NLOC:             %d", s.TotalNLOC),
			printer.Sprintf("Total CCN:        %d", s.TotalCCN),
			printer.Sprintf("CCN avg/p50/p90:  %.2f / %d / %d", s.AvgCyclomatic, s.P50Cyclomatic, s.P90Cyclomatic),
			printer.Sprintf("Max CCN:          %d", s.MaxCyclomatic),
			printer.Sprintf("Violations:       %d", s.ViolationCount),
		}, "\n"),
	}

	out := &Report{Title: "Complexity Report", Sections: []Renderable{summary}}

	if hot := v.hotspots(colored); hot != nil {
		out.Sections = append(out.Sections, hot)
	}
	if agg := aggregateTable(rep.Files); agg != nil {
		out.Sections = append(out.Sections, agg)
	}
	if len(rep.Violations) > 0 {
		out.Sections = append(out.Sections, violationTable(rep.Violations, colored))
	}
	return out
}

type located struct {
	path string
	fn   complexity.FunctionInfo
}

func (v *ReportView) hotspots(colored bool) *Table {
	var all []located
	for _, f := range v.Report.Files {
		if f.Result == nil {
			continue
		}
		for _, fn := range f.Functions {
			all = append(all, located{path: f.Path, fn: fn})
		}
	}
	if len(all) == 0 {
		return nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.fn.CyclomaticComplexity != b.fn.CyclomaticComplexity {
			return a.fn.CyclomaticComplexity > b.fn.CyclomaticComplexity
		}
		if a.path != b.path {
			return a.path < b.path
		}
		return a.fn.StartLine < b.fn.StartLine
	})

	title := "Functions"
	if v.Top > 0 && len(all) > v.Top {
		all = all[:v.Top]
		title = fmt.Sprintf("Top %d Functions by CCN", v.Top)
	}

	rows := make([][]string, len(all))
	for i, l := range all {
		rows[i] = []string{
			l.path,
			l.fn.Name,
			fmt.Sprintf("%d-%d", l.fn.StartLine, l.fn.EndLine),
			ccnCell(l.fn.CyclomaticComplexity, v.Thresholds.Cyclomatic, colored),
			printer.Sprintf("%d", l.fn.NLOC),
			fmt.Sprintf("%d", l.fn.ParameterCount),
		}
	}
	return NewTable(title, []string{"File", "Function", "Lines", "CCN", "NLOC", "Params"}, rows, nil, nil)
}

func aggregateTable(files []complexity.FileResult) *Table {
	var rows [][]string
	for _, f := range files {
		if f.Result == nil || f.Mode != complexity.ModeAggregate {
			continue
		}
		rows = append(rows, []string{
			f.Path,
			string(f.Language),
			fmt.Sprintf("%d", f.TotalCCN),
			printer.Sprintf("%d", f.NLOC),
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return NewTable("Whole-file Estimates", []string{"File", "Language", "CCN", "NLOC"}, rows, nil, nil)
}

func violationTable(vs []complexity.Violation, colored bool) *Table {
	rows := make([][]string, len(vs))
	for i, v := range vs {
		sev := string(v.Severity)
		if colored {
			sev = SeverityColor(sev, sev)
		}
		rows[i] = []string{
			sev,
			v.Rule,
			fmt.Sprintf("%s:%d", v.File, v.Line),
			v.Function,
			fmt.Sprintf("%d > %d", v.Value, v.Threshold),
		}
	}
	return NewTable("Violations", []string{"Severity", "Rule", "Location", "Function", "Value"}, rows, nil, nil)
}

// ccnCell colors a CCN value against the cyclomatic threshold.
func ccnCell(ccn, threshold int, colored bool) string {
	text := fmt.Sprintf("%d", ccn)
	if !colored || threshold <= 0 {
		return text
	}
	switch {
	case ccn >= threshold*2:
		return SeverityColor("error", text)
	case ccn > threshold:
		return SeverityColor("warning", text)
	default:
		return text
	}
}

// ResultView renders the result for a single file or snippet.
type ResultView struct {
	Name   string
	Result *complexity.Result
}

// NewResultView wraps one analysis result. name labels it (a path or "snippet").
func NewResultView(name string, res *complexity.Result) *ResultView {
	return &ResultView{Name: name, Result: res}
}

func (v *ResultView) RenderData() any {
	return complexity.FileResult{Path: v.Name, Result: v.Result}
}

func (v *ResultView) RenderText(w io.Writer, colored bool) error {
	return v.compose().RenderText(w, colored)
}

func (v *ResultView) RenderMarkdown(w io.Writer) error {
	return v.compose().RenderMarkdown(w)
}

func (v *ResultView) compose() *Report {
	r := v.Result
	header := &Section{
		Content: printer.Sprintf("%s: %s, %s mode, CCN %d, NLOC %d, %d tokens, %d decision points",
			v.Name, r.Language, r.Mode, r.TotalCCN, r.NLOC, r.TokenCount, r.DecisionPoints),
	}
	out := &Report{Sections: []Renderable{header}}
	if len(r.Functions) == 0 {
		return out
	}

	fns := append([]complexity.FunctionInfo(nil), r.Functions...)
	sort.SliceStable(fns, func(i, j int) bool { return fns[i].StartLine < fns[j].StartLine })

	rows := make([][]string, len(fns))
	for i, fn := range fns {
		rows[i] = []string{
			fn.Name,
			fmt.Sprintf("%d-%d", fn.StartLine, fn.EndLine),
			fmt.Sprintf("%d", fn.CyclomaticComplexity),
			fmt.Sprintf("%d", fn.NLOC),
			fmt.Sprintf("%d", fn.ParameterCount),
		}
	}
	out.Sections = append(out.Sections, NewTable("", []string{"Function", "Lines", "CCN", "NLOC", "Params"}, rows, nil, nil))
	return out
}
