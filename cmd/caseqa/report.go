package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/caseqa/internal/report"
	"github.com/steveyegge/caseqa/internal/validator"
)

type reportOptions struct {
	output  string
	history bool
	source  string
	json    bool
}

var reportCmd = &cobra.Command{
	Use:   "report <dir>",
	Short: "Generate a quality report for a directory of cases",
	Long: `Validate every case in a directory and aggregate the results into a
quality report: pass rate, completeness per field, the most common issues
and a completeness distribution.

With --history the report is also saved to the history database under a
source name, so later runs can be compared with 'caseqa compare --history'.
Older reports beyond store.keep_reports are pruned.

Examples:
  caseqa report ./cases
  caseqa report ./cases --output reports/2024-06.json
  caseqa report ./cases --history --source courtlistener`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := reportOptions{}
		opts.output, _ = cmd.Flags().GetString("output")
		opts.history, _ = cmd.Flags().GetBool("history")
		opts.source, _ = cmd.Flags().GetString("source")
		opts.json, _ = cmd.Flags().GetBool("json")
		_, err := runReport(cmd.Context(), os.Stdout, args[0], opts)
		return err
	},
}

func init() {
	reportCmd.Flags().StringP("output", "o", "", "Write the report JSON to this file")
	reportCmd.Flags().Bool("history", false, "Save the report to the history database")
	reportCmd.Flags().String("source", "", "Source name for history (default: directory name)")
	reportCmd.Flags().Bool("json", false, "Print the report as JSON instead of a summary")
	rootCmd.AddCommand(reportCmd)
}

func runReport(ctx context.Context, w io.Writer, dir string, opts reportOptions) (*report.Report, error) {
	vcfg, err := cfg.ValidatorConfig()
	if err != nil {
		return nil, err
	}
	records, err := loadRecords(os.Stderr, dir)
	if err != nil {
		return nil, err
	}

	r := report.New(validator.New(vcfg)).Analyze(records)

	if opts.output != "" {
		if err := r.Save(opts.output); err != nil {
			return r, fmt.Errorf("failed to save report: %w", err)
		}
	}

	if opts.history {
		source := opts.source
		if source == "" {
			source = sourceName(dir)
		}
		if err := saveHistory(ctx, source, r); err != nil {
			return r, err
		}
	}

	if opts.json {
		data, err := r.JSON()
		if err != nil {
			return r, err
		}
		fmt.Fprintln(w, string(data))
		return r, nil
	}

	fmt.Fprintln(w, r.SummaryText())
	if opts.output != "" {
		fmt.Fprintf(w, "\n%s Report saved to %s\n", green("✓"), opts.output)
	}
	return r, nil
}

// saveHistory stores r under source and prunes old reports.
func saveHistory(ctx context.Context, source string, r *report.Report) error {
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveReport(ctx, source, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s Saved report %s for %s\n", green("✓"), gray(id), cyan(source))

	if cfg.Store.KeepReports > 0 {
		pruned, err := store.PruneReports(ctx, source, cfg.Store.KeepReports)
		if err != nil {
			return err
		}
		if pruned > 0 {
			slog.Debug("pruned old reports", "source", source, "deleted", pruned)
		}
	}
	return nil
}

// sourceName derives a history source from a case directory.
func sourceName(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Base(dir)
}
