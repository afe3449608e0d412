// Package sqlite keeps a history of quality reports in a SQLite database so
// successive runs over the same source can be compared.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/steveyegge/caseqa/internal/report"
	"github.com/steveyegge/caseqa/internal/storage/migrations"
)

// ErrReportNotFound is returned when a requested report does not exist.
var ErrReportNotFound = errors.New("report not found")

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Entry is the summary row of a saved report.
type Entry struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	GeneratedAt     time.Time `json:"generated_at"`
	CreatedAt       time.Time `json:"created_at"`
	TotalCases      int       `json:"total_cases"`
	ValidCases      int       `json:"valid_cases"`
	InvalidCases    int       `json:"invalid_cases"`
	PassRate        float64   `json:"pass_rate"`
	AvgCompleteness float64   `json:"avg_completeness"`
}

// Store is a SQLite-backed report history.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) the history database at path.
func New(path string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := migrations.NewManager(schemaMigrations...).Apply(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport stores a report under source and returns its new id.
func (s *Store) SaveReport(ctx context.Context, source string, r *report.Report) (string, error) {
	data, err := json.Marshal(r.Record())
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quality_reports (
			id, source, generated_at, created_at,
			total_cases, valid_cases, invalid_cases, pass_rate, avg_completeness, report_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, source,
		r.GeneratedAt.UTC().Format(timeFormat),
		time.Now().UTC().Format(timeFormat),
		r.TotalCases, r.ValidCases, r.InvalidCases, r.PassRate(), r.AvgCompleteness,
		string(data))
	if err != nil {
		return "", fmt.Errorf("failed to insert report: %w", err)
	}
	return id, nil
}

// ListReports returns saved reports for source, newest first. An empty
// source lists every source; limit <= 0 means no limit.
func (s *Store) ListReports(ctx context.Context, source string, limit int) ([]Entry, error) {
	query := `
		SELECT id, source, generated_at, created_at,
		       total_cases, valid_cases, invalid_cases, pass_rate, avg_completeness
		FROM quality_reports
		WHERE (? = '' OR source = ?)
		ORDER BY generated_at DESC, rowid DESC
	`
	args := []any{source, source}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                    Entry
			generated, createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Source, &generated, &createdAt,
			&e.TotalCases, &e.ValidCases, &e.InvalidCases, &e.PassRate, &e.AvgCompleteness); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if e.GeneratedAt, err = time.Parse(timeFormat, generated); err != nil {
			return nil, fmt.Errorf("invalid generated_at for report %s: %w", e.ID, err)
		}
		if e.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at for report %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return entries, nil
}

// GetReport loads a saved report by id.
func (s *Store) GetReport(ctx context.Context, id string) (*report.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT report_json FROM quality_reports WHERE id = ?
	`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	var rec report.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", id, err)
	}
	return report.FromRecord(rec)
}

// LatestPair returns the two most recent reports for source, older first,
// ready for report.Compare.
func (s *Store) LatestPair(ctx context.Context, source string) (before, after *report.Report, err error) {
	entries, err := s.ListReports(ctx, source, 2)
	if err != nil {
		return nil, nil, err
	}
	if len(entries) < 2 {
		return nil, nil, fmt.Errorf("%w: need two reports for source %q, found %d",
			ErrReportNotFound, source, len(entries))
	}

	if after, err = s.GetReport(ctx, entries[0].ID); err != nil {
		return nil, nil, err
	}
	if before, err = s.GetReport(ctx, entries[1].ID); err != nil {
		return nil, nil, err
	}
	return before, after, nil
}
