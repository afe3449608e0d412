package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/caseqa/internal/validator"
)

type validateOptions struct {
	strict  *bool
	json    bool
	verbose bool
}

var validateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Validate case records against the schema",
	Long: `Validate every case record in a directory against the configured schema.

Invalid records are listed with their issues. Use --verbose to list every
record, or --json for machine-readable results.

Examples:
  # Validate with the default schema
  caseqa validate ./cases

  # Treat type mismatches on optional fields as errors
  caseqa validate ./cases --strict

  # Exit non-zero when any record is invalid
  caseqa validate ./cases --fail`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := validateOptions{}
		if cmd.Flags().Changed("strict") {
			strict, _ := cmd.Flags().GetBool("strict")
			opts.strict = &strict
		}
		opts.json, _ = cmd.Flags().GetBool("json")
		opts.verbose, _ = cmd.Flags().GetBool("verbose")
		fail, _ := cmd.Flags().GetBool("fail")

		invalid, err := runValidate(os.Stdout, args[0], opts)
		if err != nil {
			return err
		}
		if fail && invalid > 0 {
			return fmt.Errorf("%d case(s) failed validation", invalid)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Type mismatches on optional fields are errors")
	validateCmd.Flags().Bool("json", false, "Print results as JSON")
	validateCmd.Flags().BoolP("verbose", "v", false, "List valid records too")
	validateCmd.Flags().Bool("fail", false, "Exit with an error if any record is invalid")
	rootCmd.AddCommand(validateCmd)
}

// runValidate validates the records in dir and returns the invalid count.
func runValidate(w io.Writer, dir string, opts validateOptions) (int, error) {
	vcfg, err := cfg.ValidatorConfig()
	if err != nil {
		return 0, err
	}
	if opts.strict != nil {
		vcfg.Strict = *opts.strict
	}

	records, err := loadRecords(os.Stderr, dir)
	if err != nil {
		return 0, err
	}

	results := validator.New(vcfg).ValidateBatch(records)

	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}

	if opts.json {
		out := make([]validator.ResultRecord, len(results))
		for i, r := range results {
			out[i] = r.Record()
		}
		return invalid, writeJSON(w, out)
	}

	for _, r := range results {
		if r.Valid && !opts.verbose {
			continue
		}
		icon := green("✓")
		if !r.Valid {
			icon = red("✗")
		}
		fmt.Fprintf(w, "%s %s (completeness %s)\n", icon, cyan(r.CaseID), pct(r.CompletenessScore))
		for _, issue := range r.Issues {
			fmt.Fprintf(w, "    %s\n", issue)
		}
	}

	total := len(results)
	passRate := 0.0
	if total > 0 {
		passRate = float64(total-invalid) / float64(total)
	}
	fmt.Fprintf(w, "\nValidated %d case(s): %s valid, %s invalid (pass rate %s)\n",
		total, green(total-invalid), red(invalid), pct(passRate))
	return invalid, nil
}
