package sqlite

import "github.com/steveyegge/caseqa/internal/storage/migrations"

// schemaMigrations builds the report history schema. Append new versions;
// never edit an applied one.
var schemaMigrations = []migrations.Migration{
	{
		Version:     1,
		Description: "Create quality_reports",
		Up: `
			-- Quality report history, one row per saved report
			CREATE TABLE IF NOT EXISTS quality_reports (
				id TEXT PRIMARY KEY,
				source TEXT NOT NULL,
				generated_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				total_cases INTEGER NOT NULL CHECK(total_cases >= 0),
				valid_cases INTEGER NOT NULL CHECK(valid_cases >= 0),
				pass_rate REAL NOT NULL,
				avg_completeness REAL NOT NULL,
				report_json TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_quality_reports_source ON quality_reports(source, generated_at);
			CREATE INDEX IF NOT EXISTS idx_quality_reports_generated_at ON quality_reports(generated_at);
		`,
		Down: `DROP TABLE IF EXISTS quality_reports`,
	},
	{
		Version:     2,
		Description: "Add invalid_cases to quality_reports",
		Up: `
			ALTER TABLE quality_reports ADD COLUMN invalid_cases INTEGER NOT NULL DEFAULT 0;
			UPDATE quality_reports SET invalid_cases = total_cases - valid_cases;
		`,
		Down: `ALTER TABLE quality_reports DROP COLUMN invalid_cases`,
	},
}
