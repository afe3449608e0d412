package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved quality reports",
	Long: `List reports saved with 'caseqa report --history', newest first.

Examples:
  caseqa history
  caseqa history --source courtlistener --limit 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		return runHistory(cmd.Context(), os.Stdout, source, limit, asJSON)
	},
}

func init() {
	historyCmd.Flags().String("source", "", "Only show reports for this source")
	historyCmd.Flags().Int("limit", 20, "Maximum reports to show (0 for all)")
	historyCmd.Flags().Bool("json", false, "Print entries as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(ctx context.Context, w io.Writer, source string, limit int, asJSON bool) error {
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.ListReports(ctx, source, limit)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "%s\n", gray("No reports saved yet"))
		return nil
	}

	t := newTable(w, "ID", "Source", "Generated", "Cases", "Pass Rate", "Completeness")
	for _, e := range entries {
		t.AppendRow([]any{
			e.ID[:8], e.Source, e.GeneratedAt.Format("2006-01-02 15:04:05"),
			e.TotalCases, pct(e.PassRate), pct(e.AvgCompleteness),
		})
	}
	t.Render()
	return nil
}
