package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/caseqa/internal/dedup"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.85, cfg.Dedup.Threshold)
	assert.Equal(t, 128, cfg.Dedup.HashBits)
	assert.Equal(t, ".caseqa/history.db", cfg.Store.Path)

	// detector defaults only differ in worker count
	want := dedup.DefaultConfig()
	want.Workers = 4
	assert.Equal(t, want, cfg.DetectorConfig())
}

func TestLoad(t *testing.T) {
	t.Run("missing file gives defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("partial file overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("dedup:\n  threshold: 0.9\n  hash_bits: 64\nlog:\n  format: json\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)

		want := Default()
		want.Dedup.Threshold = 0.9
		want.Dedup.HashBits = 64
		want.Log.Format = "json"
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("dedup: [unclosed"), 0644))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config")
	})
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Validation.Strict = true
	cfg.Validation.SchemaFile = "schema.yaml"
	cfg.Store.KeepReports = 7

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"64 bits", func(c *Config) { c.Dedup.HashBits = 64 }, ""},
		{"bad hash bits", func(c *Config) { c.Dedup.HashBits = 256 }, "dedup.hash_bits: failed hashbits"},
		{"threshold too high", func(c *Config) { c.Dedup.Threshold = 1.2 }, "dedup.threshold: failed lte=1"},
		{"negative threshold", func(c *Config) { c.Dedup.Threshold = -0.1 }, "dedup.threshold: failed gte=0"},
		{"zero workers", func(c *Config) { c.Validation.Workers = 0 }, "validation.workers: failed min=1"},
		{"empty text field", func(c *Config) { c.Dedup.TextField = "" }, "dedup.text_field: failed required"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format: failed oneof"},
		{"negative keep", func(c *Config) { c.Store.KeepReports = -1 }, "store.keep_reports: failed min=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CASEQA_STRICT", "true")
	t.Setenv("CASEQA_WORKERS", "8")
	t.Setenv("CASEQA_DEDUP_THRESHOLD", "0.95")
	t.Setenv("CASEQA_HASH_BITS", "64")
	t.Setenv("CASEQA_NGRAM_SIZE", "4")
	t.Setenv("CASEQA_DB_PATH", "/tmp/h.db")
	t.Setenv("CASEQA_LOG_LEVEL", "debug")
	t.Setenv("CASEQA_LOG_FORMAT", "json")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.True(t, cfg.Validation.Strict)
	assert.Equal(t, 8, cfg.Validation.Workers)
	assert.Equal(t, 8, cfg.Dedup.Workers)
	assert.Equal(t, 0.95, cfg.Dedup.Threshold)
	assert.Equal(t, 64, cfg.Dedup.HashBits)
	assert.Equal(t, 4, cfg.Dedup.NgramSize)
	assert.Equal(t, "/tmp/h.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CASEQA_STRICT", "maybe"},
		{"CASEQA_WORKERS", "many"},
		{"CASEQA_DEDUP_THRESHOLD", "high"},
		{"CASEQA_HASH_BITS", "1e2"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := Default()
			err := cfg.ApplyEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid value for "+tt.key)
		})
	}
}

func TestValidatorConfig(t *testing.T) {
	cfg := Default()
	vc, err := cfg.ValidatorConfig()
	require.NoError(t, err)
	assert.Len(t, vc.Schema, 10)
	assert.Equal(t, "id", vc.IDField)

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"fields:",
		"  - name: docket",
		"    required: true",
		"    types: [text]",
		"    weight: 1.0",
	}, "\n")), 0644))
	cfg.Validation.SchemaFile = path

	vc, err = cfg.ValidatorConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"docket"}, vc.Schema.Names())

	cfg.Validation.SchemaFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.ValidatorConfig()
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	s := Default().String()
	assert.Contains(t, s, "Threshold: 0.85")
	assert.Contains(t, s, "HashBits: 128")
}
