// Package schema defines field specifications for legal case records and the
// default case schema used by the validator.
package schema

import (
	"regexp"

	"github.com/steveyegge/caseqa/internal/types"
)

// CheckFunc is a custom field check. It returns a non-empty message when the
// value is unacceptable.
type CheckFunc func(value any) string

// FieldSpec describes one expected field of a case record.
type FieldSpec struct {
	Name     string
	Required bool

	// Types is the set of acceptable value kinds
	Types types.KindSet

	// MinLength and MaxLength apply to text values; 0 means unset
	MinLength int
	MaxLength int

	// Pattern must match somewhere in text values when set
	Pattern *regexp.Regexp

	Check CheckFunc

	// Weight is this field's share of the completeness score (> 0)
	Weight float64
}

// Schema is an ordered list of field specs. Schemas are values: Clone before
// handing one to code that may mutate it.
type Schema []FieldSpec

// Clone returns an independent copy. Patterns and checks are immutable and shared.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	copy(out, s)
	return out
}

// Names returns field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, spec := range s {
		names[i] = spec.Name
	}
	return names
}

// Lookup finds a spec by field name.
func (s Schema) Lookup(name string) (FieldSpec, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// TotalWeight sums the weights of all specs.
func (s Schema) TotalWeight() float64 {
	total := 0.0
	for _, spec := range s {
		total += spec.Weight
	}
	return total
}

var (
	citationPattern = regexp.MustCompile(`.+\d+.*`)
	datePattern     = regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`)
)

// defaultSchema is never handed out directly; see DefaultSchema.
var defaultSchema = Schema{
	{Name: "id", Required: true, Types: types.Kinds(types.KindText), MinLength: 1, Weight: 1.0},
	{Name: "title", Required: true, Types: types.Kinds(types.KindText), MinLength: 5, Weight: 1.0},
	{Name: "citation", Types: types.Kinds(types.KindText), MinLength: 3, Pattern: citationPattern, Weight: 0.9},
	{Name: "court", Types: types.Kinds(types.KindText), MinLength: 2, Weight: 0.8},
	{Name: "date", Types: types.Kinds(types.KindText), Pattern: datePattern, Weight: 0.7},
	{Name: "year", Types: types.Kinds(types.KindInteger, types.KindText), Weight: 0.7},
	{Name: "judges", Types: types.Kinds(types.KindList, types.KindText), Weight: 0.5},
	{Name: "text", Required: true, Types: types.Kinds(types.KindText), MinLength: 100, Weight: 1.0},
	{Name: "headnotes", Types: types.Kinds(types.KindText, types.KindList), Weight: 0.4},
	{Name: "statutes_cited", Types: types.Kinds(types.KindList, types.KindText), Weight: 0.3},
}

// DefaultSchema returns a fresh copy of the standard legal case schema.
func DefaultSchema() Schema {
	return defaultSchema.Clone()
}
