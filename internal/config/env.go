package config

import (
	"fmt"
	"os"
	"strconv"
)

// ApplyEnv overlays CASEQA_* environment variables onto the config
//
// Environment variables:
//   - CASEQA_STRICT: Strict type checking (default: false)
//   - CASEQA_WORKERS: Goroutines for validation and the pairwise scan (default: 4)
//   - CASEQA_DEDUP_THRESHOLD: Near-duplicate similarity threshold (default: 0.85)
//   - CASEQA_HASH_BITS: Fingerprint width, 64 or 128 (default: 128)
//   - CASEQA_NGRAM_SIZE: Shingle length (default: 3)
//   - CASEQA_DB_PATH: Report history database (default: .caseqa/history.db)
//   - CASEQA_LOG_LEVEL: debug, info, warn or error (default: info)
//   - CASEQA_LOG_FORMAT: text or json (default: text)
//
// Returns an error if any environment variable has an invalid value.
func (c *Config) ApplyEnv() error {
	if err := parseEnvBool("CASEQA_STRICT", &c.Validation.Strict); err != nil {
		return err
	}
	if err := parseEnvInt("CASEQA_WORKERS", &c.Validation.Workers); err != nil {
		return err
	}
	if err := parseEnvInt("CASEQA_WORKERS", &c.Dedup.Workers); err != nil {
		return err
	}
	if err := parseEnvFloat("CASEQA_DEDUP_THRESHOLD", &c.Dedup.Threshold); err != nil {
		return err
	}
	if err := parseEnvInt("CASEQA_HASH_BITS", &c.Dedup.HashBits); err != nil {
		return err
	}
	if err := parseEnvInt("CASEQA_NGRAM_SIZE", &c.Dedup.NgramSize); err != nil {
		return err
	}
	parseEnvString("CASEQA_DB_PATH", &c.Store.Path)
	parseEnvString("CASEQA_LOG_LEVEL", &c.Log.Level)
	parseEnvString("CASEQA_LOG_FORMAT", &c.Log.Format)
	return nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

func parseEnvString(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}
