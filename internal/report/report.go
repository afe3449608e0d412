// Package report aggregates validation results into dataset quality reports.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/steveyegge/caseqa/internal/types"
	"github.com/steveyegge/caseqa/internal/validator"
)

// MaxTopIssues caps Report.TopIssues.
const MaxTopIssues = 20

// BucketLabels names the completeness distribution buckets, lowest first.
// Each covers 20 percentage points; the last includes 100%.
var BucketLabels = []string{"0-20%", "20-40%", "40-60%", "60-80%", "80-100%"}

// IssueCount is a group of identical issues across a dataset.
type IssueCount struct {
	Field    string         `json:"field"`
	Message  string         `json:"message"`
	Severity types.Severity `json:"severity"`
	Count    int            `json:"count"`
}

// Report is an aggregated quality report. It is not mutated after creation.
type Report struct {
	GeneratedAt              time.Time
	TotalCases               int
	ValidCases               int
	InvalidCases             int
	AvgCompleteness          float64
	FieldCompleteness        map[string]float64
	SeverityCounts           map[types.Severity]int
	TopIssues                []IssueCount
	CompletenessDistribution map[string]int
}

// PassRate is the fraction of cases that passed validation, 0 for an empty report.
func (r *Report) PassRate() float64 {
	if r.TotalCases == 0 {
		return 0.0
	}
	return float64(r.ValidCases) / float64(r.TotalCases)
}

// Summary is the headline block of a serialized report.
type Summary struct {
	TotalCases      int     `json:"total_cases"`
	ValidCases      int     `json:"valid_cases"`
	InvalidCases    int     `json:"invalid_cases"`
	PassRate        float64 `json:"pass_rate"`
	AvgCompleteness float64 `json:"avg_completeness"`
}

// Record is the serialized form of a Report.
type Record struct {
	GeneratedAt              string             `json:"generated_at"`
	Summary                  Summary            `json:"summary"`
	FieldCompleteness        map[string]float64 `json:"field_completeness"`
	SeverityCounts           map[string]int     `json:"severity_counts"`
	TopIssues                []IssueCount       `json:"top_issues"`
	CompletenessDistribution map[string]int     `json:"completeness_distribution"`
}

// Record converts the report to its serialized form. Rates and scores are
// rounded to 4 decimals.
func (r *Report) Record() Record {
	rec := Record{
		GeneratedAt: r.GeneratedAt.Format(time.RFC3339Nano),
		Summary: Summary{
			TotalCases:      r.TotalCases,
			ValidCases:      r.ValidCases,
			InvalidCases:    r.InvalidCases,
			PassRate:        validator.Round(r.PassRate(), 4),
			AvgCompleteness: validator.Round(r.AvgCompleteness, 4),
		},
		FieldCompleteness:        make(map[string]float64, len(r.FieldCompleteness)),
		SeverityCounts:           make(map[string]int, len(r.SeverityCounts)),
		TopIssues:                r.TopIssues,
		CompletenessDistribution: r.CompletenessDistribution,
	}
	for name, score := range r.FieldCompleteness {
		rec.FieldCompleteness[name] = validator.Round(score, 4)
	}
	for sev, n := range r.SeverityCounts {
		rec.SeverityCounts[sev.String()] = n
	}
	if rec.TopIssues == nil {
		rec.TopIssues = []IssueCount{}
	}
	return rec
}

// FromRecord rebuilds a report from its serialized form. Values keep the
// rounding applied at serialization.
func FromRecord(rec Record) (*Report, error) {
	generated, err := time.Parse(time.RFC3339Nano, rec.GeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid generated_at %q: %w", rec.GeneratedAt, err)
	}

	r := &Report{
		GeneratedAt:              generated,
		TotalCases:               rec.Summary.TotalCases,
		ValidCases:               rec.Summary.ValidCases,
		InvalidCases:             rec.Summary.InvalidCases,
		AvgCompleteness:          rec.Summary.AvgCompleteness,
		FieldCompleteness:        make(map[string]float64, len(rec.FieldCompleteness)),
		SeverityCounts:           make(map[types.Severity]int, len(rec.SeverityCounts)),
		TopIssues:                rec.TopIssues,
		CompletenessDistribution: make(map[string]int, len(BucketLabels)),
	}
	for name, score := range rec.FieldCompleteness {
		r.FieldCompleteness[name] = score
	}
	for name, n := range rec.SeverityCounts {
		sev, err := types.ParseSeverity(name)
		if err != nil {
			return nil, err
		}
		r.SeverityCounts[sev] = n
	}
	for label, n := range rec.CompletenessDistribution {
		r.CompletenessDistribution[label] = n
	}
	return r, nil
}

// JSON renders the serialized report with two-space indentation.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Record(), "", "  ")
}

// Save writes the report as JSON to path, creating parent directories.
// I/O errors are returned as-is.
func (r *Report) Save(path string) error {
	data, err := r.JSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a report previously written by Save.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return FromRecord(rec)
}

// SummaryText renders a human-readable summary: totals, field completeness
// as a bar chart, and the ten most common issues.
func (r *Report) SummaryText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quality Report - %s\n", r.GeneratedAt.Format(time.RFC3339))
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Total cases:      %s\n", humanize.Comma(int64(r.TotalCases)))
	fmt.Fprintf(&b, "Valid:            %s (%s)\n", humanize.Comma(int64(r.ValidCases)), percent(r.PassRate()))
	fmt.Fprintf(&b, "Invalid:          %s\n", humanize.Comma(int64(r.InvalidCases)))
	fmt.Fprintf(&b, "Avg completeness: %s\n", percent(r.AvgCompleteness))
	b.WriteString("\nField Completeness:")

	names := make([]string, 0, len(r.FieldCompleteness))
	for name := range r.FieldCompleteness {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		si, sj := r.FieldCompleteness[names[i]], r.FieldCompleteness[names[j]]
		if si != sj {
			return si > sj
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		score := r.FieldCompleteness[name]
		fmt.Fprintf(&b, "\n  %-20s %6s %s", name, percent(score), strings.Repeat("█", int(score*20)))
	}

	if len(r.TopIssues) > 0 {
		b.WriteString("\n\nTop Issues:")
		for i, issue := range r.TopIssues {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "\n  [%s] %s: %s (x%d)", issue.Severity, issue.Field, issue.Message, issue.Count)
		}
	}
	return b.String()
}

func percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}
