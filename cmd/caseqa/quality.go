package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/caseqa/internal/validator"
)

// textQualityRow pairs a case id with the quality of its text.
type textQualityRow struct {
	CaseID string `json:"case_id"`
	validator.TextQuality
}

var qualityCmd = &cobra.Command{
	Use:   "quality <dir>",
	Short: "Score case texts for scraping artifacts",
	Long: `Check the text of every case for HTML remnants, encoding garbage,
boilerplate and whitespace runs, and score its usability.

Examples:
  caseqa quality ./cases
  caseqa quality ./cases --below 0.7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		below, _ := cmd.Flags().GetFloat64("below")
		asJSON, _ := cmd.Flags().GetBool("json")
		return runQuality(os.Stdout, fieldsFromFlags(cmd), args[0], below, asJSON)
	},
}

func init() {
	qualityCmd.Flags().Float64("below", 1.01, "Only show cases scoring below this")
	qualityCmd.Flags().String("text-field", "", "Field holding the case text (default from config)")
	qualityCmd.Flags().Bool("json", false, "Print scores as JSON")
	rootCmd.AddCommand(qualityCmd)
}

func runQuality(w io.Writer, fields recordFields, dir string, below float64, asJSON bool) error {
	records, err := loadRecords(os.Stderr, dir)
	if err != nil {
		return err
	}

	rows := make([]textQualityRow, 0, len(records))
	for _, rec := range records {
		q := validator.CheckTextQuality(rec.String(fields.text))
		if q.Score >= below {
			continue
		}
		rows = append(rows, textQualityRow{CaseID: rec.ID(fields.id), TextQuality: q})
	}

	if asJSON {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintf(w, "%s No cases below %.2f\n", green("✓"), below)
		return nil
	}

	t := newTable(w, "Case", "Quality", "Words", "Artifacts", "Score")
	for _, r := range rows {
		t.AppendRow([]any{r.CaseID, r.Quality, r.WordCount, r.ArtifactCount, fmt.Sprintf("%.2f", r.Score)})
	}
	t.Render()
	return nil
}
