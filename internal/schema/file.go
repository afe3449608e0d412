package schema

import (
	"fmt"
	"os"
	"regexp"

	"github.com/steveyegge/caseqa/internal/types"
	"gopkg.in/yaml.v3"
)

// FieldFile is the YAML form of a FieldSpec. Custom checks cannot be
// expressed in YAML and are only available to Go callers.
type FieldFile struct {
	Name      string   `yaml:"name"`
	Required  bool     `yaml:"required,omitempty"`
	Types     []string `yaml:"types"`
	MinLength int      `yaml:"min_length,omitempty"`
	MaxLength int      `yaml:"max_length,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`
	Weight    float64  `yaml:"weight"`
}

// File is the YAML document holding a schema.
type File struct {
	Fields []FieldFile `yaml:"fields"`
}

// LoadFile reads a schema from a YAML file.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML schema document.
func Parse(data []byte) (Schema, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if len(f.Fields) == 0 {
		return nil, fmt.Errorf("schema has no fields")
	}

	out := make(Schema, 0, len(f.Fields))
	seen := make(map[string]bool, len(f.Fields))
	for i, ff := range f.Fields {
		spec, err := ff.toSpec()
		if err != nil {
			return nil, fmt.Errorf("field %d (%q): %w", i, ff.Name, err)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate field %q", spec.Name)
		}
		seen[spec.Name] = true
		out = append(out, spec)
	}
	return out, nil
}

func (ff FieldFile) toSpec() (FieldSpec, error) {
	if ff.Name == "" {
		return FieldSpec{}, fmt.Errorf("name is required")
	}
	if ff.Weight <= 0 {
		return FieldSpec{}, fmt.Errorf("weight must be positive (got %.2f)", ff.Weight)
	}
	if ff.MinLength < 0 || ff.MaxLength < 0 {
		return FieldSpec{}, fmt.Errorf("lengths cannot be negative")
	}
	if len(ff.Types) == 0 {
		return FieldSpec{}, fmt.Errorf("at least one type is required")
	}

	var kinds []types.Kind
	for _, name := range ff.Types {
		k, err := types.ParseKind(name)
		if err != nil {
			return FieldSpec{}, err
		}
		kinds = append(kinds, k)
	}

	spec := FieldSpec{
		Name:      ff.Name,
		Required:  ff.Required,
		Types:     types.Kinds(kinds...),
		MinLength: ff.MinLength,
		MaxLength: ff.MaxLength,
		Weight:    ff.Weight,
	}
	if ff.Pattern != "" {
		re, err := regexp.Compile(ff.Pattern)
		if err != nil {
			return FieldSpec{}, fmt.Errorf("invalid pattern: %w", err)
		}
		spec.Pattern = re
	}
	return spec, nil
}

// ToFile converts a schema into its YAML form.
func ToFile(s Schema) File {
	f := File{Fields: make([]FieldFile, len(s))}
	for i, spec := range s {
		ff := FieldFile{
			Name:      spec.Name,
			Required:  spec.Required,
			MinLength: spec.MinLength,
			MaxLength: spec.MaxLength,
			Weight:    spec.Weight,
		}
		for _, k := range spec.Types.List() {
			ff.Types = append(ff.Types, k.String())
		}
		if spec.Pattern != nil {
			ff.Pattern = spec.Pattern.String()
		}
		f.Fields[i] = ff
	}
	return f
}
