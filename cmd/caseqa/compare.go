package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/steveyegge/caseqa/internal/report"
)

var compareCmd = &cobra.Command{
	Use:   "compare [before.json after.json]",
	Short: "Compare two quality reports",
	Long: `Show how quality moved between two reports.

Reports come either from two saved report files or, with --history, from
the two most recent reports of a source in the history database.

Examples:
  caseqa compare reports/may.json reports/june.json
  caseqa compare --history --source courtlistener`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		history, _ := cmd.Flags().GetBool("history")
		source, _ := cmd.Flags().GetString("source")
		asJSON, _ := cmd.Flags().GetBool("json")

		before, after, err := compareInputs(cmd.Context(), args, history, source)
		if err != nil {
			return err
		}
		return printComparison(os.Stdout, report.Compare(before, after), asJSON)
	},
}

func init() {
	compareCmd.Flags().Bool("history", false, "Compare the two latest reports in the history database")
	compareCmd.Flags().String("source", "", "History source to compare (required with --history)")
	compareCmd.Flags().Bool("json", false, "Print the comparison as JSON")
	rootCmd.AddCommand(compareCmd)
}

// compareInputs resolves the before and after reports from files or history.
func compareInputs(ctx context.Context, args []string, history bool, source string) (*report.Report, *report.Report, error) {
	if history {
		if len(args) != 0 {
			return nil, nil, errors.New("--history takes no report files")
		}
		if source == "" {
			return nil, nil, errors.New("--source is required with --history")
		}
		store, err := openStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		defer store.Close()
		return store.LatestPair(ctx, source)
	}

	if len(args) != 2 {
		return nil, nil, errors.New("expected two report files (or --history)")
	}
	before, err := report.Load(args[0])
	if err != nil {
		return nil, nil, err
	}
	after, err := report.Load(args[1])
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func printComparison(w io.Writer, c report.Comparison, asJSON bool) error {
	if asJSON {
		return writeJSON(w, c)
	}

	fmt.Fprintf(w, "\n%s\n", bold("=== Quality Comparison ==="))
	fmt.Fprintf(w, "  Before: %s\n", c.Period.Before)
	fmt.Fprintf(w, "  After:  %s\n\n", c.Period.After)
	fmt.Fprintf(w, "  Cases:        %d -> %d (%s)\n", c.Cases.Before, c.Cases.After, signedInt(c.Cases.Delta))
	fmt.Fprintf(w, "  Pass rate:    %s -> %s (%s)\n", pct(c.PassRate.Before), pct(c.PassRate.After), signedPct(c.PassRate.Delta))
	fmt.Fprintf(w, "  Completeness: %s -> %s (%s)\n\n", pct(c.Completeness.Before), pct(c.Completeness.After), signedPct(c.Completeness.Delta))

	if len(c.FieldChanges) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.FieldChanges))
	for name := range c.FieldChanges {
		names = append(names, name)
	}
	sort.Strings(names)

	t := newTable(w, "Field", "Before", "After", "Change")
	for _, name := range names {
		d := c.FieldChanges[name]
		t.AppendRow([]any{name, pct(d.Before), pct(d.After), signedPct(d.Delta)})
	}
	t.Render()
	return nil
}

func signedInt(n int) string {
	switch {
	case n > 0:
		return green(fmt.Sprintf("+%d", n))
	case n < 0:
		return red(fmt.Sprintf("%d", n))
	}
	return gray("0")
}

func signedPct(f float64) string {
	switch {
	case f > 0:
		return green(fmt.Sprintf("+%.1f%%", f*100))
	case f < 0:
		return red(fmt.Sprintf("%.1f%%", f*100))
	}
	return gray("0.0%")
}
