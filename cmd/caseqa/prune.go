package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old reports from the history database",
	Long: `Keep the newest reports per source and delete the rest.

'caseqa report --history' already prunes to store.keep_reports for the
source it saves; this command applies a policy to every source at once.

Examples:
  # Show how many reports each source holds
  caseqa prune --dry-run

  # Keep the 10 newest reports of every source
  caseqa prune --keep 10

  # Prune a single source
  caseqa prune --keep 5 --source courtlistener`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		if !cmd.Flags().Changed("keep") {
			keep = cfg.Store.KeepReports
		}
		source, _ := cmd.Flags().GetString("source")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runPrune(cmd.Context(), os.Stdout, source, keep, dryRun)
	},
}

func init() {
	pruneCmd.Flags().Int("keep", 0, "Reports to keep per source (default: store.keep_reports)")
	pruneCmd.Flags().String("source", "", "Only prune this source")
	pruneCmd.Flags().Bool("dry-run", false, "Show counts without deleting")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(ctx context.Context, w io.Writer, source string, keep int, dryRun bool) error {
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	before, err := store.CountReports(ctx)
	if err != nil {
		return err
	}
	printCounts(w, "Reports in history:", before)

	if dryRun {
		fmt.Fprintf(w, "\n%s\n", gray("Dry run: nothing deleted"))
		return nil
	}
	if keep < 1 {
		fmt.Fprintf(w, "\n%s\n", gray("Retention disabled (keep = 0): nothing deleted"))
		return nil
	}

	deleted, err := store.PruneReports(ctx, source, keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s Deleted %d report(s), keeping %d per source\n", green("✓"), deleted, keep)
	return nil
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	fmt.Fprintf(w, "%s\n", yellow(title))
	if len(counts) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("none"))
		return
	}
	sources := make([]string, 0, len(counts))
	for s := range counts {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		fmt.Fprintf(w, "  %-24s %d\n", cyan(s), counts[s])
	}
}
