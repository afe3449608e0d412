// Package config loads caseqa settings from a YAML file and the environment.
//
// Precedence, lowest first: built-in defaults, the config file, CASEQA_*
// environment variables, then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/caseqa/internal/dedup"
	"github.com/steveyegge/caseqa/internal/schema"
	casevalidator "github.com/steveyegge/caseqa/internal/validator"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = ".caseqa/config.yaml"

// ValidationConfig configures record validation
type ValidationConfig struct {
	// Strict escalates type mismatches on optional fields to errors
	Strict bool `yaml:"strict"`

	// Workers is the validation goroutine count
	// Default: 4, Range: 1-256
	Workers int `yaml:"workers" validate:"min=1,max=256"`

	// SchemaFile replaces the default schema when set
	SchemaFile string `yaml:"schema_file,omitempty"`
}

// DedupConfig configures duplicate detection
type DedupConfig struct {
	// Threshold is the minimum SimHash similarity for a near duplicate
	// Default: 0.85, Range: 0.0-1.0
	Threshold float64 `yaml:"threshold" validate:"gte=0,lte=1"`

	// HashBits is the fingerprint width, 64 or 128
	// Default: 128
	HashBits int `yaml:"hash_bits" validate:"hashbits"`

	// NgramSize is the character shingle length
	// Default: 3, Range: 1-32
	NgramSize int `yaml:"ngram_size" validate:"min=1,max=32"`

	// Workers is the goroutine count for the pairwise scan
	// Default: 4, Range: 1-256
	Workers int `yaml:"workers" validate:"min=1,max=256"`

	IDField   string `yaml:"id_field" validate:"required"`
	TextField string `yaml:"text_field" validate:"required"`
}

// StoreConfig configures the report history database
type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`

	// KeepReports is how many reports per source survive pruning, 0 keeps all
	// Default: 100
	KeepReports int `yaml:"keep_reports" validate:"min=0"`
}

// LogConfig configures slog output
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Config is the full caseqa configuration.
type Config struct {
	Validation ValidationConfig `yaml:"validation"`
	Dedup      DedupConfig      `yaml:"dedup"`
	Store      StoreConfig      `yaml:"store"`
	Log        LogConfig        `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Validation: ValidationConfig{
			Strict:  false,
			Workers: 4,
		},
		Dedup: DedupConfig{
			Threshold: 0.85,
			HashBits:  128,
			NgramSize: 3,
			Workers:   4,
			IDField:   "id",
			TextField: "text",
		},
		Store: StoreConfig{
			Path:        ".caseqa/history.db",
			KeepReports: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report yaml names in errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("hashbits", validateHashBits)
}

// validateHashBits accepts the two supported fingerprint widths.
func validateHashBits(fl validator.FieldLevel) bool {
	bits := fl.Field().Int()
	return bits == 64 || bits == 128
}

// Load reads a YAML config file over the defaults. A missing file yields
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML, creating the parent directory.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", field, fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Strict: %t, Workers: %d, Schema: %q, Threshold: %.2f, HashBits: %d, "+
			"NgramSize: %d, DedupWorkers: %d, Store: %s, Keep: %d, Log: %s/%s}",
		c.Validation.Strict, c.Validation.Workers, c.Validation.SchemaFile,
		c.Dedup.Threshold, c.Dedup.HashBits, c.Dedup.NgramSize, c.Dedup.Workers,
		c.Store.Path, c.Store.KeepReports, c.Log.Level, c.Log.Format,
	)
}

// Schema returns the configured schema: the schema file when set, else the
// default schema.
func (c Config) Schema() (schema.Schema, error) {
	if c.Validation.SchemaFile == "" {
		return schema.DefaultSchema(), nil
	}
	return schema.LoadFile(c.Validation.SchemaFile)
}

// ValidatorConfig builds the validator settings.
func (c Config) ValidatorConfig() (casevalidator.Config, error) {
	s, err := c.Schema()
	if err != nil {
		return casevalidator.Config{}, err
	}
	return casevalidator.Config{
		Schema:  s,
		Strict:  c.Validation.Strict,
		Workers: c.Validation.Workers,
		IDField: c.Dedup.IDField,
	}, nil
}

// DetectorConfig builds the duplicate detector settings.
func (c Config) DetectorConfig() dedup.Config {
	return dedup.Config{
		Threshold: c.Dedup.Threshold,
		HashBits:  c.Dedup.HashBits,
		NgramSize: c.Dedup.NgramSize,
		Workers:   c.Dedup.Workers,
	}
}
