package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/caseqa/internal/dedup"
	"github.com/steveyegge/caseqa/internal/types"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup <dir>",
	Short: "Find exact and near-duplicate case texts",
	Long: `Fingerprint the text of every case and report duplicate pairs.

Byte-identical texts are reported as exact duplicates regardless of the
threshold. Other pairs are reported when their SimHash similarity reaches
the threshold.

Examples:
  caseqa dedup ./cases
  caseqa dedup ./cases --threshold 0.95 --hash-bits 64
  caseqa dedup ./cases --text-field opinion --id-field docket`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		d, fields, err := newDetector(cmd)
		if err != nil {
			return err
		}
		return runDedup(os.Stdout, d, fields, args[0], asJSON)
	},
}

func init() {
	addDetectorFlags(dedupCmd)
	dedupCmd.Flags().Bool("json", false, "Print pairs as JSON")
	rootCmd.AddCommand(dedupCmd)
}

// addDetectorFlags registers the flags shared by dedup and similar.
func addDetectorFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("threshold", 0, "Near-duplicate similarity threshold (default from config)")
	cmd.Flags().Int("hash-bits", 0, "Fingerprint width, 64 or 128 (default from config)")
	cmd.Flags().Int("ngram-size", 0, "Shingle length (default from config)")
	cmd.Flags().String("text-field", "", "Field holding the case text (default from config)")
	cmd.Flags().String("id-field", "", "Field holding the case id (default from config)")
}

// recordFields names the fields that hold a case's id and text.
type recordFields struct {
	id   string
	text string
}

// fieldsFromFlags returns the configured fields with any flag overrides.
func fieldsFromFlags(cmd *cobra.Command) recordFields {
	fields := recordFields{id: cfg.Dedup.IDField, text: cfg.Dedup.TextField}
	flags := cmd.Flags()
	if flags.Changed("text-field") {
		fields.text, _ = flags.GetString("text-field")
	}
	if flags.Changed("id-field") {
		fields.id, _ = flags.GetString("id-field")
	}
	return fields
}

// newDetector builds a detector from the config with flag overrides applied.
func newDetector(cmd *cobra.Command) (*dedup.Detector, recordFields, error) {
	dcfg := cfg.DetectorConfig()
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		dcfg.Threshold, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("hash-bits") {
		dcfg.HashBits, _ = flags.GetInt("hash-bits")
	}
	if flags.Changed("ngram-size") {
		dcfg.NgramSize, _ = flags.GetInt("ngram-size")
	}
	d, err := dedup.New(dcfg)
	return d, fieldsFromFlags(cmd), err
}

// indexDir loads dir into the detector.
func indexDir(d *dedup.Detector, fields recordFields, dir string) ([]types.CaseRecord, error) {
	records, err := loadRecords(os.Stderr, dir)
	if err != nil {
		return nil, err
	}
	d.AddBatch(records, fields.id, fields.text)
	return records, nil
}

func runDedup(w io.Writer, d *dedup.Detector, fields recordFields, dir string, asJSON bool) error {
	if _, err := indexDir(d, fields, dir); err != nil {
		return err
	}
	pairs := d.FindDuplicates()

	if asJSON {
		if pairs == nil {
			pairs = []dedup.DuplicatePair{}
		}
		return writeJSON(w, pairs)
	}

	stats := d.Stats()
	if len(pairs) == 0 {
		fmt.Fprintf(w, "%s No duplicates among %d case(s) at threshold %.2f\n",
			green("✓"), stats.TotalIndexed, stats.Threshold)
		return nil
	}

	printPairs(w, pairs)
	fmt.Fprintf(w, "\n%s Found %d duplicate pair(s) among %d case(s) (%d exact group(s), threshold %.2f, %d-bit)\n",
		yellow("⚠"), len(pairs), stats.TotalIndexed, stats.ExactDuplicateGroups, stats.Threshold, stats.HashBits)
	return nil
}

func printPairs(w io.Writer, pairs []dedup.DuplicatePair) {
	t := newTable(w, "Case A", "Case B", "Similarity", "Method")
	for _, p := range pairs {
		t.AppendRow([]any{p.IDA, p.IDB, pct(p.Similarity), p.Method})
	}
	t.Render()
}
