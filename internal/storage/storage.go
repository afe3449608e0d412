// Package storage defines the report history backend used by the CLI.
package storage

import (
	"context"

	"github.com/steveyegge/caseqa/internal/report"
	"github.com/steveyegge/caseqa/internal/storage/sqlite"
)

// Storage defines the interface for report history backends
type Storage interface {
	// Reports
	SaveReport(ctx context.Context, source string, r *report.Report) (string, error)
	GetReport(ctx context.Context, id string) (*report.Report, error)
	ListReports(ctx context.Context, source string, limit int) ([]sqlite.Entry, error)
	LatestPair(ctx context.Context, source string) (before, after *report.Report, err error)

	// Retention
	PruneReports(ctx context.Context, source string, keep int) (int, error)
	CountReports(ctx context.Context) (map[string]int, error)

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".caseqa/history.db"
	Path string
}

// DefaultConfig returns a config with the default database path
func DefaultConfig() *Config {
	return &Config{
		Path: ".caseqa/history.db",
	}
}

// NewStorage opens the SQLite report history.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	return sqlite.New(cfg.Path)
}

var _ Storage = (*sqlite.Store)(nil)
