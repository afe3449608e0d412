// Package validator checks legal case records against a schema and scores
// how complete each record is.
//
// Validation never fails: every defect in a record surfaces as a
// ValidationIssue on the result. A record is valid when it carries no
// error-severity issue.
//
// Each field is scored once, by the first rule that applies:
//
//  1. missing: 0.0 (error if required)
//  2. wrong kind: 0.2 (error if required or strict, else warning)
//  3. text shorter than MinLength: min(len/min, 0.8) (error if required)
//  4. text longer than MaxLength: 0.9, warning
//  5. pattern not found: 0.7, warning
//  6. custom check message: 0.8, warning
//  7. text with MinLength: max(min(len/(min*10), 1.0), 0.9)
//  8. otherwise 1.0
//
// Rule 7 is a coarse heuristic: any text at or above its minimum scores at
// least 0.9, while a shortfall is penalised steeply by rule 3. The formula is
// kept as-is so scores stay comparable with historical reports.
//
// Completeness is the weight-averaged field score over the whole schema.
package validator

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/steveyegge/caseqa/internal/logging"
	"github.com/steveyegge/caseqa/internal/metrics"
	"github.com/steveyegge/caseqa/internal/schema"
	"github.com/steveyegge/caseqa/internal/types"
	"golang.org/x/sync/errgroup"
)

// ValidationIssue is a single problem found in a case.
type ValidationIssue struct {
	Field    string         `json:"field"`
	Severity types.Severity `json:"severity"`
	Message  string         `json:"message"`
	Value    any            `json:"value,omitempty"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(i.Severity.String()), i.Field, i.Message)
}

// ValidationResult is the outcome of validating one case.
type ValidationResult struct {
	CaseID            string
	Valid             bool
	Issues            []ValidationIssue
	CompletenessScore float64
	FieldScores       map[string]float64
}

// Errors returns the error-severity issues.
func (r *ValidationResult) Errors() []ValidationIssue {
	return r.bySeverity(types.SeverityError)
}

// Warnings returns the warning-severity issues.
func (r *ValidationResult) Warnings() []ValidationIssue {
	return r.bySeverity(types.SeverityWarning)
}

func (r *ValidationResult) bySeverity(s types.Severity) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Issues {
		if issue.Severity == s {
			out = append(out, issue)
		}
	}
	return out
}

// IssueRecord is the serialized form of an issue.
type IssueRecord struct {
	Field    string `json:"field"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ResultRecord is the serialized form of a ValidationResult.
type ResultRecord struct {
	CaseID            string             `json:"case_id"`
	Valid             bool               `json:"valid"`
	CompletenessScore float64            `json:"completeness_score"`
	ErrorCount        int                `json:"error_count"`
	WarningCount      int                `json:"warning_count"`
	Issues            []IssueRecord      `json:"issues"`
	FieldScores       map[string]float64 `json:"field_scores"`
}

// Record converts the result to its serialized form with scores rounded to 3 decimals.
func (r *ValidationResult) Record() ResultRecord {
	rec := ResultRecord{
		CaseID:            r.CaseID,
		Valid:             r.Valid,
		CompletenessScore: Round(r.CompletenessScore, 3),
		ErrorCount:        len(r.Errors()),
		WarningCount:      len(r.Warnings()),
		Issues:            make([]IssueRecord, len(r.Issues)),
		FieldScores:       make(map[string]float64, len(r.FieldScores)),
	}
	for i, issue := range r.Issues {
		rec.Issues[i] = IssueRecord{
			Field:    issue.Field,
			Severity: issue.Severity.String(),
			Message:  issue.Message,
		}
	}
	for name, score := range r.FieldScores {
		rec.FieldScores[name] = Round(score, 3)
	}
	return rec
}

// Config configures a Validator.
type Config struct {
	// Schema to validate against; nil means the default case schema.
	// The validator always keeps its own copy.
	Schema schema.Schema

	// Strict escalates type mismatches on optional fields to errors
	Strict bool

	// Workers is the number of goroutines used by ValidateBatch.
	// Values below 1 mean runtime.NumCPU().
	Workers int

	// IDField names the field reported as the case id (default "id")
	IDField string
}

// Validator validates case records against its private schema.
type Validator struct {
	schema  schema.Schema
	strict  bool
	workers int
	idField string
	logger  *slog.Logger
}

// New creates a validator. The schema in cfg is copied.
func New(cfg Config) *Validator {
	s := cfg.Schema.Clone()
	if s == nil {
		s = schema.DefaultSchema()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	idField := cfg.IDField
	if idField == "" {
		idField = "id"
	}
	return &Validator{
		schema:  s,
		strict:  cfg.Strict,
		workers: workers,
		idField: idField,
		logger:  logging.New("validator"),
	}
}

// NewDefault creates a non-strict validator over the default schema.
func NewDefault() *Validator {
	return New(Config{})
}

// ValidateCase validates a single case with a fresh default validator.
func ValidateCase(record types.CaseRecord, strict bool) *ValidationResult {
	return New(Config{Strict: strict, Workers: 1}).Validate(record)
}

// Schema returns a copy of the validator's schema.
func (v *Validator) Schema() schema.Schema {
	return v.schema.Clone()
}

// Strict reports whether strict mode is enabled.
func (v *Validator) Strict() bool {
	return v.strict
}

// AddField appends a spec to this validator's schema, replacing any spec of the same name.
func (v *Validator) AddField(spec schema.FieldSpec) {
	v.RemoveField(spec.Name)
	v.schema = append(v.schema, spec)
}

// RemoveField drops a spec from this validator's schema. Unknown names are ignored.
func (v *Validator) RemoveField(name string) {
	kept := make(schema.Schema, 0, len(v.schema))
	for _, spec := range v.schema {
		if spec.Name != name {
			kept = append(kept, spec)
		}
	}
	v.schema = kept
}

// Validate checks one record.
func (v *Validator) Validate(record types.CaseRecord) *ValidationResult {
	result := v.validate(record)
	recordMetrics(result)
	return result
}

func (v *Validator) validate(record types.CaseRecord) *ValidationResult {
	result := &ValidationResult{
		CaseID:      record.ID(v.idField),
		FieldScores: make(map[string]float64, len(v.schema)),
	}

	weighted := 0.0
	for _, spec := range v.schema {
		score, issues := v.validateField(record, spec)
		result.FieldScores[spec.Name] = score
		result.Issues = append(result.Issues, issues...)
		weighted += score * spec.Weight
	}
	if total := v.schema.TotalWeight(); total > 0 {
		result.CompletenessScore = weighted / total
	}

	// Unknown fields are informational; sorted for stable output
	known := make(map[string]bool, len(v.schema))
	for _, spec := range v.schema {
		known[spec.Name] = true
	}
	var unknown []string
	for key := range record {
		if !known[key] && !strings.HasPrefix(key, types.MetadataPrefix) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		result.Issues = append(result.Issues, ValidationIssue{
			Field:    key,
			Severity: types.SeverityInfo,
			Message:  "Unknown field not in schema",
		})
	}

	result.Valid = true
	for _, issue := range result.Issues {
		if issue.Severity == types.SeverityError {
			result.Valid = false
			break
		}
	}
	return result
}

// validateField scores one field against its spec.
func (v *Validator) validateField(record types.CaseRecord, spec schema.FieldSpec) (float64, []ValidationIssue) {
	value := record.Get(spec.Name)

	if value == nil {
		if spec.Required {
			return 0.0, []ValidationIssue{{
				Field:    spec.Name,
				Severity: types.SeverityError,
				Message:  "Required field is missing",
			}}
		}
		return 0.0, nil
	}

	kind := types.KindOf(value)
	if !spec.Types.Has(kind) {
		severity := types.SeverityWarning
		if spec.Required || v.strict {
			severity = types.SeverityError
		}
		return 0.2, []ValidationIssue{{
			Field:    spec.Name,
			Severity: severity,
			Message:  fmt.Sprintf("Expected type %s, got %s", spec.Types, kind),
			Value:    kind.String(),
		}}
	}

	text, isText := value.(string)
	length := utf8.RuneCountInString(text)

	if isText {
		if spec.MinLength > 0 && length < spec.MinLength {
			severity := types.SeverityWarning
			if spec.Required {
				severity = types.SeverityError
			}
			score := float64(length) / float64(spec.MinLength)
			if score > 0.8 {
				score = 0.8
			}
			return score, []ValidationIssue{{
				Field:    spec.Name,
				Severity: severity,
				Message:  fmt.Sprintf("Too short: %d chars (min: %d)", length, spec.MinLength),
				Value:    length,
			}}
		}

		if spec.MaxLength > 0 && length > spec.MaxLength {
			return 0.9, []ValidationIssue{{
				Field:    spec.Name,
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("Too long: %d chars (max: %d)", length, spec.MaxLength),
				Value:    length,
			}}
		}

		if spec.Pattern != nil && !spec.Pattern.MatchString(text) {
			return 0.7, []ValidationIssue{{
				Field:    spec.Name,
				Severity: types.SeverityWarning,
				Message:  "Does not match expected pattern",
				Value:    truncate(text, 100),
			}}
		}
	}

	if spec.Check != nil {
		if msg := spec.Check(value); msg != "" {
			return 0.8, []ValidationIssue{{
				Field:    spec.Name,
				Severity: types.SeverityWarning,
				Message:  msg,
				Value:    value,
			}}
		}
	}

	if isText && spec.MinLength > 0 {
		ratio := float64(length) / float64(spec.MinLength*10)
		if ratio > 1.0 {
			ratio = 1.0
		}
		if ratio < 0.9 {
			ratio = 0.9
		}
		return ratio, nil
	}

	return 1.0, nil
}

// ValidateBatch validates records concurrently. Results are in input order.
func (v *Validator) ValidateBatch(records []types.CaseRecord) []*ValidationResult {
	start := time.Now()
	results := make([]*ValidationResult, len(records))

	var g errgroup.Group
	g.SetLimit(v.workers)
	for i := range records {
		g.Go(func() error {
			results[i] = v.validate(records[i])
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	invalid := 0
	for _, r := range results {
		recordMetrics(r)
		if !r.Valid {
			invalid++
		}
	}
	metrics.StageDuration.WithLabelValues("validate").Observe(time.Since(start).Seconds())
	v.logger.Debug("validated batch",
		"cases", len(records),
		"invalid", invalid,
		"workers", v.workers,
		"duration", time.Since(start))
	return results
}

func recordMetrics(r *ValidationResult) {
	metrics.CasesValidated.WithLabelValues(strconv.FormatBool(r.Valid)).Inc()
	for _, issue := range r.Issues {
		metrics.ValidationIssues.WithLabelValues(issue.Severity.String()).Inc()
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
