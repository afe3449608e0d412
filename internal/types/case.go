package types

import (
	"fmt"
	"strconv"
	"strings"
)

// MetadataPrefix marks internal metadata fields (e.g. "_scraped_at") that are
// never reported as unknown schema fields.
const MetadataPrefix = "_"

// UnknownCaseID is reported when a record has no id field.
const UnknownCaseID = "<unknown>"

// CaseRecord is a single scraped legal case: field name to value. Values are
// strings, numbers, booleans or lists of strings; nil means missing.
type CaseRecord map[string]any

// Get returns the value for a field, or nil when absent.
func (c CaseRecord) Get(field string) any {
	if c == nil {
		return nil
	}
	return c[field]
}

// Has reports whether the field is present with a non-nil value.
func (c CaseRecord) Has(field string) bool {
	return c.Get(field) != nil
}

// String returns the field as a string. Non-string values are formatted,
// lists are joined with newlines and missing values yield "".
func (c CaseRecord) String(field string) string {
	return ValueString(c.Get(field))
}

// ID returns the record's id in string form, or UnknownCaseID when absent.
func (c CaseRecord) ID(idField string) string {
	v := c.Get(idField)
	if v == nil {
		return UnknownCaseID
	}
	return ValueString(v)
}

// ValueString formats a record value as text.
func ValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if KindOf(val) == KindInteger {
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case []string:
		return strings.Join(val, "\n")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = ValueString(item)
		}
		return strings.Join(parts, "\n")
	}
	return fmt.Sprint(v)
}

// StringList returns a list value as strings. A plain string yields a
// single-element list; anything else yields nil.
func StringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{val}
	}
	return nil
}
