package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeSnippet() string {
	return `Measures cyclomatic complexity (CCN) and non-comment lines (NLOC) of a code snippet.

USE WHEN:
- Reviewing a function before or after an edit
- Checking pasted or generated code that is not on disk
- Comparing two versions of the same function

LANGUAGES:
- go, typescript, javascript, python
- Pass language explicitly, or a filename whose extension implies it
- Without either, the configured default language is used (typescript)

INTERPRETING RESULTS:
- mode "function": each detected function has its own CCN, NLOC and parameter count
- mode "aggregate": function boundaries could not be found (incomplete or malformed
  code), so total_ccn scores the whole snippet as one unit and functions is empty
- CCN 1-10: simple; 11-20: consider splitting; over 20: strong refactoring candidate
- total_ccn is 1 + all decision points in the snippet

METRICS RETURNED:
- Per-function: name, start_line, end_line, cyclomatic_complexity, nloc, parameter_count
- Totals: total_ccn, nloc, token_count, decision_points`
}

func describeFiles() string {
	return `Measures cyclomatic complexity across files and directories on disk.

USE WHEN:
- Finding the most complex functions in a project or package
- Checking a change set against complexity thresholds
- Locating files whose functions could not be delimited

INTERPRETING RESULTS:
- Directories are walked recursively, honoring .gitignore and configured exclusions
- Violations list functions above the cyclomatic, NLOC or parameter thresholds;
  severity is "error" at twice the threshold and "warning" above it
- Files in aggregate mode carry a whole-file CCN instead of per-function values
- P50 and P90 show the median and 90th percentile function CCN

METRICS RETURNED:
- Summary: total files, functions, NLOC, CCN, average/P50/P90/max CCN, violation count
- Violations: rule, value, threshold, file, line, function
- Files: per-file results with their functions`
}
