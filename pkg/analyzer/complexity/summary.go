package complexity

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// Summarize rolls file results up into a project report. Violations are
// reported against t; a zero threshold disables its rule.
func Summarize(files []FileResult, t Thresholds) *Report {
	report := &Report{
		RunID:      uuid.New().String(),
		Files:      files,
		Violations: make([]Violation, 0),
	}

	var ccns []float64
	s := &report.Summary
	s.TotalFiles = len(files)

	for _, f := range files {
		if f.Result == nil {
			continue
		}
		s.TotalNLOC += f.NLOC
		s.TotalCCN += f.TotalCCN
		if f.Mode == ModeAggregate {
			s.AggregateFiles++
			report.Violations = append(report.Violations, checkAggregate(f, t)...)
			continue
		}
		for _, fn := range f.Functions {
			s.TotalFunctions++
			ccns = append(ccns, float64(fn.CyclomaticComplexity))
			if fn.CyclomaticComplexity > s.MaxCyclomatic {
				s.MaxCyclomatic = fn.CyclomaticComplexity
			}
			report.Violations = append(report.Violations, checkFunction(f.Path, fn, t)...)
		}
	}

	if len(ccns) > 0 {
		sort.Float64s(ccns)
		s.AvgCyclomatic = stat.Mean(ccns, nil)
		s.P50Cyclomatic = int(stat.Quantile(0.5, stat.Empirical, ccns, nil))
		s.P90Cyclomatic = int(stat.Quantile(0.9, stat.Empirical, ccns, nil))
	}

	sort.SliceStable(report.Violations, func(i, j int) bool {
		a, b := report.Violations[i], report.Violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	s.ViolationCount = len(report.Violations)
	return report
}

// severity is an error at twice the threshold and a warning above it.
func severity(value, threshold int) ViolationSeverity {
	if value >= threshold*2 {
		return SeverityError
	}
	return SeverityWarning
}

func checkFunction(path string, fn FunctionInfo, t Thresholds) []Violation {
	var out []Violation
	add := func(rule string, value, threshold int, what string) {
		if threshold <= 0 || value <= threshold {
			return
		}
		out = append(out, Violation{
			Severity:  severity(value, threshold),
			Rule:      rule,
			Message:   fmt.Sprintf("%s has %s %d (threshold %d)", fn.Name, what, value, threshold),
			Value:     value,
			Threshold: threshold,
			File:      path,
			Line:      fn.StartLine,
			Function:  fn.Name,
		})
	}
	add("cyclomatic", fn.CyclomaticComplexity, t.Cyclomatic, "cyclomatic complexity")
	add("function_nloc", fn.NLOC, t.FunctionNLOC, "NLOC")
	add("parameters", fn.ParameterCount, t.Parameters, "parameter count")
	return out
}

func checkAggregate(f FileResult, t Thresholds) []Violation {
	if t.Cyclomatic <= 0 || f.TotalCCN <= t.Cyclomatic {
		return nil
	}
	return []Violation{{
		Severity:  severity(f.TotalCCN, t.Cyclomatic),
		Rule:      "cyclomatic",
		Message:   fmt.Sprintf("file has aggregate cyclomatic complexity %d (threshold %d)", f.TotalCCN, t.Cyclomatic),
		Value:     f.TotalCCN,
		Threshold: t.Cyclomatic,
		File:      f.Path,
		Line:      1,
	}}
}
