package complexity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_Fixtures(t *testing.T) {
	tests := []struct {
		file string
		want []fnSummary
	}{
		{"sample.go", []fnSummary{
			{"NewServer", 11, 13, 1, 2},
			{"Server.Address", 15, 17, 1, 0},
			{"Server.Validate", 19, 27, 4, 0},
			{"Classify", 29, 40, 4, 1},
		}},
		{"sample.ts", []fnSummary{
			{"parse", 1, 5, 4, 2},
			{"constructor", 8, 8, 1, 1},
			{"run", 9, 14, 3, 1},
		}},
		{"sample.js", []fnSummary{
			{"onClick", 2, 4, 2, 1},
			{"retry", 7, 16, 3, 2},
		}},
		{"sample.py", []fnSummary{
			{"__init__", 5, 7, 1, 3},
			{"load", 9, 16, 3, 1},
			{"merge", 19, 23, 4, 2},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("..", "..", "..", "tests", "fixtures", tt.file))
			require.NoError(t, err)

			r := Analyze(tt.file, string(data), WithLogger(quietLogger()))

			assert.Equal(t, ModeFunction, r.Mode)
			assert.Equal(t, tt.want, summarize(r.Functions))

			sum := 0
			for _, fn := range r.Functions {
				sum += fn.CyclomaticComplexity
			}
			assert.Equal(t, sum, r.TotalCCN)
		})
	}
}
