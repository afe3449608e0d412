package report

import (
	"time"

	"github.com/steveyegge/caseqa/internal/validator"
)

// Period identifies when the two compared reports were generated.
type Period struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// CountDelta is the change in an integer metric.
type CountDelta struct {
	Before int `json:"before"`
	After  int `json:"after"`
	Delta  int `json:"delta"`
}

// ScoreDelta is the change in a rate or score, rounded to 4 decimals.
type ScoreDelta struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Delta  float64 `json:"delta"`
}

func newScoreDelta(before, after float64) ScoreDelta {
	return ScoreDelta{
		Before: validator.Round(before, 4),
		After:  validator.Round(after, 4),
		Delta:  validator.Round(after-before, 4),
	}
}

// Comparison tracks how quality moved between two reports.
type Comparison struct {
	Period       Period                `json:"period"`
	Cases        CountDelta            `json:"cases"`
	PassRate     ScoreDelta            `json:"pass_rate"`
	Completeness ScoreDelta            `json:"completeness"`
	FieldChanges map[string]ScoreDelta `json:"field_changes"`
}

// CompareReports compares an earlier report with a later one. Field changes
// cover the fields of after; a field missing from before counts as 0.
func (r *Reporter) CompareReports(before, after *Report) Comparison {
	return Compare(before, after)
}

// Compare is CompareReports without a reporter.
func Compare(before, after *Report) Comparison {
	c := Comparison{
		Period: Period{
			Before: before.GeneratedAt.Format(time.RFC3339Nano),
			After:  after.GeneratedAt.Format(time.RFC3339Nano),
		},
		Cases: CountDelta{
			Before: before.TotalCases,
			After:  after.TotalCases,
			Delta:  after.TotalCases - before.TotalCases,
		},
		PassRate:     newScoreDelta(before.PassRate(), after.PassRate()),
		Completeness: newScoreDelta(before.AvgCompleteness, after.AvgCompleteness),
		FieldChanges: make(map[string]ScoreDelta, len(after.FieldCompleteness)),
	}
	for name, score := range after.FieldCompleteness {
		c.FieldChanges[name] = newScoreDelta(before.FieldCompleteness[name], score)
	}
	return c
}
