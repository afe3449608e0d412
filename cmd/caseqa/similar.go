package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/caseqa/internal/dedup"
)

var similarCmd = &cobra.Command{
	Use:   "similar <dir> <id>",
	Short: "List the cases most similar to one case",
	Long: `Rank every other case by SimHash similarity to the given case.

Example:
  caseqa similar ./cases 2021-nysc-0042 --top 10`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")
		d, fields, err := newDetector(cmd)
		if err != nil {
			return err
		}
		return runSimilar(os.Stdout, d, fields, args[0], args[1], top)
	},
}

func init() {
	addDetectorFlags(similarCmd)
	similarCmd.Flags().IntP("top", "n", 5, "Number of matches to show")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(w io.Writer, d *dedup.Detector, fields recordFields, dir, id string, top int) error {
	if _, err := indexDir(d, fields, dir); err != nil {
		return err
	}
	matches, err := d.FindSimilar(id, top)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintf(w, "%s\n", gray("No other cases indexed"))
		return nil
	}

	t := newTable(w, "#", "Case", "Similarity", "Method")
	for i, m := range matches {
		t.AppendRow([]any{i + 1, m.IDB, pct(m.Similarity), m.Method})
	}
	t.Render()
	return nil
}
