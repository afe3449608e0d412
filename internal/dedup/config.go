package dedup

import (
	"fmt"
	"math"

	"github.com/steveyegge/caseqa/internal/fingerprint"
)

// Config holds configuration for the duplicate detector
type Config struct {
	// Threshold is the minimum SimHash similarity (0.0-1.0) for a near-duplicate.
	// Exact duplicates are always reported regardless of the threshold.
	// Default: 0.85
	Threshold float64

	// HashBits is the fingerprint width, 64 or 128.
	// Default: 128
	HashBits int

	// NgramSize is the character shingle length.
	// Default: 3
	NgramSize int

	// Workers is the number of goroutines used for the pairwise near scan.
	// Default: 1
	Workers int
}

// DefaultConfig returns the default detector configuration
func DefaultConfig() Config {
	return Config{
		Threshold: 0.85,
		HashBits:  128,
		NgramSize: 3,
		Workers:   1,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if math.IsNaN(c.Threshold) || c.Threshold < 0.0 || c.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0 (got %.2f)", c.Threshold)
	}
	if c.HashBits != 64 && c.HashBits != 128 {
		return fmt.Errorf("%w (got %d)", fingerprint.ErrInvalidHashBits, c.HashBits)
	}
	if c.NgramSize < 1 {
		return fmt.Errorf("%w (got %d)", fingerprint.ErrInvalidNgramSize, c.NgramSize)
	}
	if c.NgramSize > 32 {
		return fmt.Errorf("ngram_size too large (got %d, max 32)", c.NgramSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive (got %d)", c.Workers)
	}
	if c.Workers > 256 {
		return fmt.Errorf("workers too large (got %d, max 256)", c.Workers)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf("Config{Threshold: %.2f, HashBits: %d, NgramSize: %d, Workers: %d}",
		c.Threshold, c.HashBits, c.NgramSize, c.Workers)
}
