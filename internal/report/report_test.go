package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/caseqa/internal/types"
	"github.com/steveyegge/caseqa/internal/validator"
)

var fixedTime = time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

func newTestReporter() *Reporter {
	r := New(nil)
	r.now = func() time.Time { return fixedTime }
	return r
}

func issue(field string, sev types.Severity, msg string) validator.ValidationIssue {
	return validator.ValidationIssue{Field: field, Severity: sev, Message: msg}
}

func sampleResults() []*validator.ValidationResult {
	return []*validator.ValidationResult{
		{
			CaseID:            "a",
			Valid:             true,
			CompletenessScore: 0.9,
			FieldScores:       map[string]float64{"id": 1.0, "title": 1.0},
			Issues: []validator.ValidationIssue{
				issue("citation", types.SeverityWarning, "Does not match expected pattern"),
				issue("source_url", types.SeverityInfo, "Unknown field not in schema"),
			},
		},
		{
			CaseID:            "b",
			Valid:             false,
			CompletenessScore: 0.1,
			FieldScores:       map[string]float64{"id": 0.0, "title": 0.5},
			Issues: []validator.ValidationIssue{
				issue("id", types.SeverityError, "Required field is missing"),
				issue("citation", types.SeverityWarning, "Does not match expected pattern"),
			},
		},
		{
			CaseID:            "c",
			Valid:             true,
			CompletenessScore: 0.5,
			FieldScores:       map[string]float64{"id": 1.0, "extra": 0.2},
		},
	}
}

func sumBuckets(r *Report) int {
	total := 0
	for _, n := range r.CompletenessDistribution {
		total += n
	}
	return total
}

func TestAnalyzeEmpty(t *testing.T) {
	r := newTestReporter().Analyze(nil)

	assert.Zero(t, r.TotalCases)
	assert.Equal(t, 0.0, r.PassRate())
	assert.Equal(t, 0.0, r.AvgCompleteness)
	assert.Empty(t, r.TopIssues)
	assert.Empty(t, r.FieldCompleteness)
	assert.Len(t, r.CompletenessDistribution, len(BucketLabels))
	assert.Zero(t, sumBuckets(r))
	assert.Equal(t, fixedTime, r.GeneratedAt)
}

func TestAnalyzeResults(t *testing.T) {
	r := newTestReporter().AnalyzeResults(sampleResults())

	assert.Equal(t, 3, r.TotalCases)
	assert.Equal(t, 2, r.ValidCases)
	assert.Equal(t, 1, r.InvalidCases)
	assert.InDelta(t, 2.0/3.0, r.PassRate(), 1e-9)
	assert.InDelta(t, 0.5, r.AvgCompleteness, 1e-9)

	assert.InDelta(t, 2.0/3.0, r.FieldCompleteness["id"], 1e-9)
	assert.InDelta(t, 0.75, r.FieldCompleteness["title"], 1e-9)
	assert.InDelta(t, 0.2, r.FieldCompleteness["extra"], 1e-9)

	assert.Equal(t, map[types.Severity]int{
		types.SeverityError:   1,
		types.SeverityWarning: 2,
		types.SeverityInfo:    1,
	}, r.SeverityCounts)

	assert.Equal(t, []IssueCount{
		{Field: "citation", Message: "Does not match expected pattern", Severity: types.SeverityWarning, Count: 2},
		{Field: "id", Message: "Required field is missing", Severity: types.SeverityError, Count: 1},
	}, r.TopIssues)

	assert.Equal(t, map[string]int{
		"0-20%": 1, "20-40%": 0, "40-60%": 1, "60-80%": 0, "80-100%": 1,
	}, r.CompletenessDistribution)
	assert.Equal(t, r.TotalCases, sumBuckets(r))
}

func TestTopIssuesCapAndTies(t *testing.T) {
	var results []*validator.ValidationResult
	for i := 0; i < 25; i++ {
		results = append(results, &validator.ValidationResult{
			Issues: []validator.ValidationIssue{
				issue(fmt.Sprintf("f%02d", i), types.SeverityWarning, "Too long"),
			},
		})
	}
	results = append(results, &validator.ValidationResult{
		Issues: []validator.ValidationIssue{issue("f24", types.SeverityWarning, "Too long")},
	})

	r := newTestReporter().AnalyzeResults(results)
	require.Len(t, r.TopIssues, MaxTopIssues)
	assert.Equal(t, "f24", r.TopIssues[0].Field)
	assert.Equal(t, 2, r.TopIssues[0].Count)
	assert.Equal(t, "f00", r.TopIssues[1].Field)
	assert.Equal(t, "f18", r.TopIssues[19].Field)
}

func TestBucket(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.0, "0-20%"},
		{0.199, "0-20%"},
		{0.2, "20-40%"},
		{0.45, "40-60%"},
		{0.79, "60-80%"},
		{0.8, "80-100%"},
		{1.0, "80-100%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bucket(tt.score), "score %v", tt.score)
	}
}

func TestAnalyzeRecords(t *testing.T) {
	records := []types.CaseRecord{
		{
			"id":    "2023-HC-100",
			"title": "Doe v. City Planning Authority",
			"text": "The petitioner has challenged the decision of the planning " +
				"authority. After careful examination of the record, the court " +
				"finds the petition has no merit. The decision is affirmed.",
		},
		{"id": "", "title": "Ab", "text": "Short"},
		{"title": "No identifier here", "text": strings.Repeat("Some text ", 20)},
	}

	r := newTestReporter().Analyze(records)
	assert.Equal(t, 3, r.TotalCases)
	assert.Equal(t, 1, r.ValidCases)
	assert.Equal(t, 2, r.InvalidCases)
	assert.Equal(t, r.TotalCases, sumBuckets(r))
	assert.GreaterOrEqual(t, r.SeverityCounts[types.SeverityError], 3)
	for _, ti := range r.TopIssues {
		assert.NotEqual(t, types.SeverityInfo, ti.Severity)
	}
}

func TestRecordAndJSON(t *testing.T) {
	r := newTestReporter().AnalyzeResults(sampleResults())
	rec := r.Record()

	assert.Equal(t, "2024-06-01T12:30:00Z", rec.GeneratedAt)
	assert.Equal(t, Summary{TotalCases: 3, ValidCases: 2, InvalidCases: 1, PassRate: 0.6667, AvgCompleteness: 0.5}, rec.Summary)
	assert.Equal(t, 0.6667, rec.FieldCompleteness["id"])
	assert.Equal(t, map[string]int{"error": 1, "warning": 2, "info": 1}, rec.SeverityCounts)

	data, err := r.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "summary")
	issues := decoded["top_issues"].([]any)
	first := issues[0].(map[string]any)
	assert.Equal(t, "warning", first["severity"])
	assert.Equal(t, float64(2), first["count"])
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"generated_at\""))
}

func TestSaveAndLoad(t *testing.T) {
	r := newTestReporter().AnalyzeResults(sampleResults())
	path := filepath.Join(t.TempDir(), "reports", "nested", "quality.json")

	require.NoError(t, r.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, fixedTime, loaded.GeneratedAt.UTC())
	assert.Equal(t, r.TotalCases, loaded.TotalCases)
	assert.Equal(t, r.ValidCases, loaded.ValidCases)
	assert.Equal(t, 0.6667, loaded.FieldCompleteness["id"])
	assert.Equal(t, r.SeverityCounts, loaded.SeverityCounts)
	assert.Equal(t, r.TopIssues, loaded.TopIssues)
	assert.Equal(t, r.CompletenessDistribution, loaded.CompletenessDistribution)
}

func TestSaveReturnsIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	r := newTestReporter().Analyze(nil)
	err := r.Save(filepath.Join(blocker, "report.json"))
	require.Error(t, err)

	var pathErr *fs.PathError
	assert.True(t, errors.As(err, &pathErr))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	badSeverity := filepath.Join(dir, "sev.json")
	require.NoError(t, os.WriteFile(badSeverity,
		[]byte(`{"generated_at": "2024-06-01T12:30:00Z", "severity_counts": {"fatal": 1}}`), 0644))
	_, err = Load(badSeverity)
	assert.Error(t, err)
}

func TestSummaryText(t *testing.T) {
	r := &Report{
		GeneratedAt:       fixedTime,
		TotalCases:        1234,
		ValidCases:        1000,
		InvalidCases:      234,
		AvgCompleteness:   0.8,
		FieldCompleteness: map[string]float64{"id": 0.5, "title": 1.0},
		TopIssues: []IssueCount{
			{Field: "id", Message: "Required field is missing", Severity: types.SeverityError, Count: 3},
		},
	}

	text := r.SummaryText()
	assert.Contains(t, text, "Quality Report - 2024-06-01T12:30:00Z")
	assert.Contains(t, text, "Total cases:      1,234")
	assert.Contains(t, text, "Valid:            1,000 (81.0%)")
	assert.Contains(t, text, "Avg completeness: 80.0%")
	assert.Contains(t, text, "  title                100.0% "+strings.Repeat("█", 20))
	assert.Contains(t, text, "  id                    50.0% "+strings.Repeat("█", 10))
	assert.Contains(t, text, "  [error] id: Required field is missing (x3)")
	assert.Less(t, strings.Index(text, "title"), strings.Index(text, "  id  "))
}

func TestCompareReports(t *testing.T) {
	before := &Report{
		GeneratedAt:       fixedTime,
		TotalCases:        10,
		ValidCases:        5,
		AvgCompleteness:   0.6,
		FieldCompleteness: map[string]float64{"id": 0.5, "title": 0.8},
	}
	after := &Report{
		GeneratedAt:       fixedTime.Add(24 * time.Hour),
		TotalCases:        12,
		ValidCases:        9,
		AvgCompleteness:   0.75,
		FieldCompleteness: map[string]float64{"id": 0.75, "court": 0.4},
	}

	got := newTestReporter().CompareReports(before, after)
	want := Comparison{
		Period:       Period{Before: "2024-06-01T12:30:00Z", After: "2024-06-02T12:30:00Z"},
		Cases:        CountDelta{Before: 10, After: 12, Delta: 2},
		PassRate:     ScoreDelta{Before: 0.5, After: 0.75, Delta: 0.25},
		Completeness: ScoreDelta{Before: 0.6, After: 0.75, Delta: 0.15},
		FieldChanges: map[string]ScoreDelta{
			"id":    {Before: 0.5, After: 0.75, Delta: 0.25},
			"court": {Before: 0, After: 0.4, Delta: 0.4},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CompareReports() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"),
		[]byte(`{"id": "c1", "title": "Roe v. Board of Education", "text": "`+strings.Repeat("word ", 40)+`"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte(`{"id":`), 0644))

	output := filepath.Join(t.TempDir(), "out", "report.json")
	r, stats, err := GenerateFromDir(dir, output)
	require.NoError(t, err)
	assert.Equal(t, 1, r.TotalCases)
	assert.Equal(t, 1, stats.Skipped)
	assert.FileExists(t, output)

	_, _, err = GenerateFromDir(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)
}
