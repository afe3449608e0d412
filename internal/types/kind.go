package types

import (
	"fmt"
	"math"
	"strings"
)

// Kind is the primitive kind of a case field value.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindText
	KindInteger
	KindNumber // non-integral number
	KindBoolean
	KindList
	KindObject
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindText:    "text",
	KindInteger: "integer",
	KindNumber:  "number",
	KindBoolean: "boolean",
	KindList:    "list",
	KindObject:  "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a kind name ("text", "integer", ...) into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s && k != KindUnknown {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown value kind: %q", s)
}

// KindOf classifies a record value. Callers treat nil as a missing value
// before asking for its kind.
func KindOf(v any) Kind {
	switch val := v.(type) {
	case string:
		return KindText
	case bool:
		return KindBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInteger
	case float32:
		return floatKind(float64(val))
	case float64:
		// JSON decodes every number as float64
		return floatKind(val)
	case []string, []any:
		return KindList
	case map[string]any:
		return KindObject
	}
	return KindUnknown
}

func floatKind(f float64) Kind {
	if !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) {
		return KindInteger
	}
	return KindNumber
}

// KindSet is a small set of acceptable kinds for a field.
type KindSet uint16

// Kinds builds a KindSet from the given kinds.
func Kinds(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	return s&(1<<k) != 0
}

// Accepts reports whether the kind of v is in the set.
func (s KindSet) Accepts(v any) bool {
	return s.Has(KindOf(v))
}

// List returns the kinds in the set in declaration order.
func (s KindSet) List() []Kind {
	var out []Kind
	for k := KindText; k <= KindObject; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// String renders the set as "text|integer".
func (s KindSet) String() string {
	kinds := s.List()
	if len(kinds) == 0 {
		return "none"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, "|")
}
