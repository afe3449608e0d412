package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/steveyegge/caseqa/internal/analytics"
)

var statsCmd = &cobra.Command{
	Use:   "stats <dir>",
	Short: "Show dataset statistics",
	Long: `Summarize a directory of cases: courts, years, text lengths and judges.

With --periods the dataset is split by year and the two ranges compared.

Examples:
  caseqa stats ./cases
  caseqa stats ./cases --periods 1990-1999,2010-2019`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		periods, _ := cmd.Flags().GetString("periods")
		yearField, _ := cmd.Flags().GetString("year-field")
		asJSON, _ := cmd.Flags().GetBool("json")
		return runStats(os.Stdout, args[0], periods, yearField, asJSON)
	},
}

func init() {
	statsCmd.Flags().String("periods", "", "Compare two year ranges, e.g. 1990-1999,2010-2019")
	statsCmd.Flags().String("year-field", "year", "Field holding the decision year")
	statsCmd.Flags().Bool("json", false, "Print statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(w io.Writer, dir, periods, yearField string, asJSON bool) error {
	records, err := loadRecords(os.Stderr, dir)
	if err != nil {
		return err
	}

	if periods != "" {
		first, second, err := parsePeriods(periods)
		if err != nil {
			return err
		}
		cmp := analytics.ComparePeriods(records, yearField, first, second)
		if asJSON {
			return writeJSON(w, cmp)
		}
		fmt.Fprintf(w, "%s %s: %s case(s), avg length %s\n", cyan("●"), first,
			humanize.Comma(int64(cmp.FirstStats.TotalCases)), humanize.Comma(int64(cmp.FirstStats.Text.AvgLength)))
		fmt.Fprintf(w, "%s %s: %s case(s), avg length %s\n", cyan("●"), second,
			humanize.Comma(int64(cmp.SecondStats.TotalCases)), humanize.Comma(int64(cmp.SecondStats.Text.AvgLength)))
		fmt.Fprintf(w, "  Case count change: %s\n", signedInt(cmp.CaseCountChange))
		fmt.Fprintf(w, "  Avg length change: %s\n", signedInt(cmp.AvgLengthChange))
		return nil
	}

	stats := analytics.Generate(records)
	if asJSON {
		return writeJSON(w, stats)
	}

	fmt.Fprintf(w, "\n%s\n", bold("=== Dataset Statistics ==="))
	fmt.Fprintf(w, "  Cases:      %s\n", humanize.Comma(int64(stats.TotalCases)))
	fmt.Fprintf(w, "  With text:  %s\n", humanize.Comma(int64(stats.Text.CasesWithText)))
	fmt.Fprintf(w, "  Text chars: avg %s, min %s, max %s\n\n",
		humanize.Comma(int64(stats.Text.AvgLength)),
		humanize.Comma(int64(stats.Text.MinLength)),
		humanize.Comma(int64(stats.Text.MaxLength)))

	for _, section := range []struct {
		title  string
		counts []analytics.Count
	}{
		{"Court", stats.Courts},
		{"Year", stats.Years},
		{"Judge", stats.TopJudges},
	} {
		if len(section.counts) == 0 {
			continue
		}
		t := newTable(w, section.title, "Cases")
		for _, c := range section.counts {
			t.AppendRow([]any{c.Name, humanize.Comma(int64(c.Count))})
		}
		t.Render()
	}
	return nil
}

// parsePeriods parses "1990-1999,2010-2019".
func parsePeriods(s string) (analytics.Period, analytics.Period, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return analytics.Period{}, analytics.Period{}, fmt.Errorf("invalid periods %q: want START-END,START-END", s)
	}
	var out [2]analytics.Period
	for i, part := range parts {
		start, end, ok := strings.Cut(strings.TrimSpace(part), "-")
		if !ok {
			return analytics.Period{}, analytics.Period{}, fmt.Errorf("invalid period %q", part)
		}
		a, err := strconv.Atoi(start)
		if err != nil {
			return analytics.Period{}, analytics.Period{}, fmt.Errorf("invalid period %q: %w", part, err)
		}
		b, err := strconv.Atoi(end)
		if err != nil {
			return analytics.Period{}, analytics.Period{}, fmt.Errorf("invalid period %q: %w", part, err)
		}
		if a > b {
			return analytics.Period{}, analytics.Period{}, fmt.Errorf("invalid period %q: start after end", part)
		}
		out[i] = analytics.Period{Start: a, End: b}
	}
	return out[0], out[1], nil
}
