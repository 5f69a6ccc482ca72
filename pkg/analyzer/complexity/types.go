package complexity

import "github.com/panbanda/ccnscan/pkg/lang"

// Mode names the stage that produced a Result.
type Mode string

const (
	// ModeFunction means per-function detection succeeded.
	ModeFunction Mode = "function"
	// ModeAggregate means the whole input was scored without function attribution.
	ModeAggregate Mode = "aggregate"
)

// FunctionInfo describes one detected function.
type FunctionInfo struct {
	Name                 string `json:"name"`
	StartLine            int    `json:"start_line"`
	EndLine              int    `json:"end_line"`
	CyclomaticComplexity int    `json:"cyclomatic_complexity"`
	NLOC                 int    `json:"nloc"`
	ParameterCount       int    `json:"parameter_count"`
}

// Lines returns the number of physical lines the function spans.
func (f FunctionInfo) Lines() int {
	return f.EndLine - f.StartLine + 1
}

// Result is the outcome of one Analyze call.
type Result struct {
	Language       lang.Language  `json:"language"`
	Mode           Mode           `json:"mode"`
	TotalCCN       int            `json:"total_ccn"`
	NLOC           int            `json:"nloc"`
	TokenCount     int            `json:"token_count"`
	DecisionPoints int            `json:"decision_points"`
	Functions      []FunctionInfo `json:"functions"`
}

// MaxCCN returns the highest function complexity, or TotalCCN when no
// functions were detected.
func (r *Result) MaxCCN() int {
	if len(r.Functions) == 0 {
		return r.TotalCCN
	}
	highest := 0
	for _, fn := range r.Functions {
		if fn.CyclomaticComplexity > highest {
			highest = fn.CyclomaticComplexity
		}
	}
	return highest
}

// FileResult is a Result attributed to a path.
type FileResult struct {
	Path string `json:"path"`
	*Result
}

// Thresholds defines the limits for complexity violations. Zero disables a check.
type Thresholds struct {
	Cyclomatic   int `json:"cyclomatic" koanf:"cyclomatic"`
	FunctionNLOC int `json:"function_nloc" koanf:"function_nloc"`
	Parameters   int `json:"parameters" koanf:"parameters"`
}

// DefaultThresholds returns sensible defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Cyclomatic:   10,
		FunctionNLOC: 60,
		Parameters:   5,
	}
}

// ViolationSeverity indicates the severity of a complexity violation.
type ViolationSeverity string

const (
	SeverityWarning ViolationSeverity = "warning"
	SeverityError   ViolationSeverity = "error"
)

// Violation represents a complexity threshold violation.
type Violation struct {
	Severity  ViolationSeverity `json:"severity"`
	Rule      string            `json:"rule"`
	Message   string            `json:"message"`
	Value     int               `json:"value"`
	Threshold int               `json:"threshold"`
	File      string            `json:"file"`
	Line      int               `json:"line"`
	Function  string            `json:"function,omitempty"`
}

// Summary provides aggregate statistics over a set of files.
type Summary struct {
	TotalFiles     int     `json:"total_files"`
	AggregateFiles int     `json:"aggregate_files"`
	TotalFunctions int     `json:"total_functions"`
	TotalNLOC      int     `json:"total_nloc"`
	TotalCCN       int     `json:"total_ccn"`
	AvgCyclomatic  float64 `json:"avg_cyclomatic"`
	P50Cyclomatic  int     `json:"p50_cyclomatic"`
	P90Cyclomatic  int     `json:"p90_cyclomatic"`
	MaxCyclomatic  int     `json:"max_cyclomatic"`
	ViolationCount int     `json:"violation_count"`
}

// Report is the project-level roll-up of many file results.
type Report struct {
	RunID      string       `json:"run_id"`
	Summary    Summary      `json:"summary"`
	Violations []Violation  `json:"violations"`
	Files      []FileResult `json:"files"`
}
