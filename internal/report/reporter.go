package report

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/steveyegge/caseqa/internal/casefile"
	"github.com/steveyegge/caseqa/internal/logging"
	"github.com/steveyegge/caseqa/internal/metrics"
	"github.com/steveyegge/caseqa/internal/types"
	"github.com/steveyegge/caseqa/internal/validator"
)

// Reporter validates batches of cases and aggregates the results.
type Reporter struct {
	validator *validator.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a reporter. A nil validator means a default one.
func New(v *validator.Validator) *Reporter {
	if v == nil {
		v = validator.NewDefault()
	}
	return &Reporter{
		validator: v,
		logger:    logging.New("report"),
		now:       time.Now,
	}
}

// Analyze validates records and aggregates the results.
func (r *Reporter) Analyze(records []types.CaseRecord) *Report {
	return r.aggregate(r.validator.ValidateBatch(records))
}

// AnalyzeResults aggregates results that were already computed.
func (r *Reporter) AnalyzeResults(results []*validator.ValidationResult) *Report {
	return r.aggregate(results)
}

type issueKey struct {
	field    string
	message  string
	severity types.Severity
}

func (r *Reporter) aggregate(results []*validator.ValidationResult) *Report {
	start := time.Now()
	defer func() {
		metrics.ReportsGenerated.Inc()
		metrics.StageDuration.WithLabelValues("report").Observe(time.Since(start).Seconds())
	}()

	report := &Report{
		GeneratedAt:              r.now(),
		FieldCompleteness:        make(map[string]float64),
		SeverityCounts:           make(map[types.Severity]int),
		TopIssues:                []IssueCount{},
		CompletenessDistribution: make(map[string]int, len(BucketLabels)),
	}
	for _, label := range BucketLabels {
		report.CompletenessDistribution[label] = 0
	}

	total := len(results)
	if total == 0 {
		return report
	}
	report.TotalCases = total

	completeness := 0.0
	fieldTotals := make(map[string]float64)
	fieldCounts := make(map[string]int)
	groups := make(map[issueKey]int)
	var firstSeen []issueKey

	for _, res := range results {
		if res.Valid {
			report.ValidCases++
		}
		completeness += res.CompletenessScore

		for name, score := range res.FieldScores {
			fieldTotals[name] += score
			fieldCounts[name]++
		}

		for _, issue := range res.Issues {
			report.SeverityCounts[issue.Severity]++
			if issue.Severity == types.SeverityInfo {
				continue
			}
			key := issueKey{issue.Field, issue.Message, issue.Severity}
			if _, ok := groups[key]; !ok {
				firstSeen = append(firstSeen, key)
			}
			groups[key]++
		}

		report.CompletenessDistribution[bucket(res.CompletenessScore)]++
	}

	report.InvalidCases = total - report.ValidCases
	report.AvgCompleteness = completeness / float64(total)
	for name, sum := range fieldTotals {
		report.FieldCompleteness[name] = sum / float64(fieldCounts[name])
	}

	// Ties keep first-occurrence order
	sort.SliceStable(firstSeen, func(i, j int) bool {
		return groups[firstSeen[i]] > groups[firstSeen[j]]
	})
	if len(firstSeen) > MaxTopIssues {
		firstSeen = firstSeen[:MaxTopIssues]
	}
	for _, key := range firstSeen {
		report.TopIssues = append(report.TopIssues, IssueCount{
			Field:    key.field,
			Message:  key.message,
			Severity: key.severity,
			Count:    groups[key],
		})
	}

	r.logger.Debug("aggregated report",
		"cases", total,
		"valid", report.ValidCases,
		"issue_groups", len(groups))
	return report
}

// bucket maps a completeness score in [0,1] to its distribution label.
func bucket(score float64) string {
	pct := score * 100
	switch {
	case pct < 20:
		return BucketLabels[0]
	case pct < 40:
		return BucketLabels[1]
	case pct < 60:
		return BucketLabels[2]
	case pct < 80:
		return BucketLabels[3]
	}
	return BucketLabels[4]
}

// GenerateFromDir loads every case file in dir, analyzes them with a default
// reporter and, when output is non-empty, saves the report there. Corrupt
// files are skipped and counted in the returned stats.
func GenerateFromDir(dir, output string) (*Report, casefile.LoadStats, error) {
	records, stats, err := casefile.LoadDir(dir)
	if err != nil {
		return nil, stats, err
	}

	report := New(nil).Analyze(records)
	if output != "" {
		if err := report.Save(output); err != nil {
			return report, stats, fmt.Errorf("failed to save report: %w", err)
		}
	}
	return report, stats, nil
}
