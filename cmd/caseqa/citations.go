package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/steveyegge/caseqa/internal/analytics"
)

var citationsCmd = &cobra.Command{
	Use:   "citations <dir>",
	Short: "Rank the legal citations found in case texts",
	Long: `Extract case citations, statute sections, constitutional articles and
procedural rules from the text of every case and rank the most cited.

Each citation counts once per case. --pattern adds a citation type or
replaces a built-in one (case_citation, statute_section, article, order_rule).

Examples:
  caseqa citations ./cases
  caseqa citations ./cases --pattern ordinance='Ordinance\s+[IVXLCDM]+\s+of\s+\d{4}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patterns, _ := cmd.Flags().GetStringToString("pattern")
		top, _ := cmd.Flags().GetInt("top")
		asJSON, _ := cmd.Flags().GetBool("json")
		return runCitations(os.Stdout, fieldsFromFlags(cmd), args[0], patterns, top, asJSON)
	},
}

func init() {
	citationsCmd.Flags().StringToString("pattern", nil, "Extra citation pattern as name=regexp (repeatable)")
	citationsCmd.Flags().IntP("top", "n", 20, "Number of citations to show")
	citationsCmd.Flags().String("text-field", "", "Field holding the case text (default from config)")
	citationsCmd.Flags().Bool("json", false, "Print the analysis as JSON")
	rootCmd.AddCommand(citationsCmd)
}

func runCitations(w io.Writer, fields recordFields, dir string, patterns map[string]string, top int, asJSON bool) error {
	e, err := analytics.NewExtractor(patterns)
	if err != nil {
		return err
	}
	records, err := loadRecords(os.Stderr, dir)
	if err != nil {
		return err
	}

	stats := e.Analyze(records, fields.text)
	if top >= 0 && len(stats.MostCited) > top {
		stats.MostCited = stats.MostCited[:top]
	}
	if asJSON {
		return writeJSON(w, stats)
	}

	fmt.Fprintf(w, "\n%s\n", bold("=== Citations ==="))
	fmt.Fprintf(w, "  Cases:          %s (%s with citations)\n",
		humanize.Comma(int64(stats.CasesAnalyzed)), humanize.Comma(int64(stats.CasesWithCitations)))
	fmt.Fprintf(w, "  Citations:      %s (%s unique)\n",
		humanize.Comma(int64(stats.TotalCitations)), humanize.Comma(int64(stats.UniqueCitations)))
	fmt.Fprintf(w, "  Avg per case:   %.2f\n\n", stats.AvgPerCase)

	if len(stats.MostCited) == 0 {
		fmt.Fprintf(w, "%s\n", gray("No citations found"))
		return nil
	}
	t := newTable(w, "#", "Citation", "Cases")
	for i, c := range stats.MostCited {
		t.AppendRow([]any{i + 1, c.Name, humanize.Comma(int64(c.Count))})
	}
	t.Render()
	return nil
}
