// Package metrics holds the Prometheus collectors for the quality pipeline.
//
// Collectors live on a private registry rather than the global default so a
// run can export exactly what it measured as a node-exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry collects every caseqa metric.
var Registry = prometheus.NewRegistry()

var (
	// CasesValidated counts validated records by outcome ("true"/"false").
	CasesValidated = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "caseqa_cases_validated_total",
		Help: "Case records validated, by validity",
	}, []string{"valid"})

	// ValidationIssues counts issues by severity.
	ValidationIssues = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "caseqa_validation_issues_total",
		Help: "Validation issues found, by severity",
	}, []string{"severity"})

	Fingerprints = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "caseqa_fingerprints_total",
		Help: "SimHash fingerprints computed",
	})

	// DuplicatePairs counts reported pairs by method ("exact"/"near").
	DuplicatePairs = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "caseqa_duplicate_pairs_total",
		Help: "Duplicate pairs reported, by detection method",
	}, []string{"method"})

	ReportsGenerated = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "caseqa_reports_generated_total",
		Help: "Quality reports aggregated",
	})

	// StageDuration observes wall time of pipeline stages.
	StageDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "caseqa_stage_duration_seconds",
		Help:    "Duration of pipeline stages",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	}, []string{"stage"})
)

// WriteTextfile writes the registry in Prometheus text format, creating the
// parent directory if needed.
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
