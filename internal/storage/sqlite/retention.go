package sqlite

import (
	"context"
	"fmt"
)

// PruneReports keeps the newest keep reports per source and deletes the
// rest, returning how many rows were removed. An empty source prunes every
// source independently.
func (s *Store) PruneReports(ctx context.Context, source string, keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1 (got %d)", keep)
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM quality_reports
		WHERE (? = '' OR source = ?)
		  AND id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY source ORDER BY generated_at DESC, rowid DESC
				) AS rn
				FROM quality_reports
			)
			WHERE rn <= ?
		  )
	`, source, source, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune reports: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// CountReports returns the number of saved reports per source.
func (s *Store) CountReports(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*) FROM quality_reports GROUP BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			source string
			n      int
		)
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}
