package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/caseqa/internal/config"
	"github.com/steveyegge/caseqa/internal/logging"
	"github.com/steveyegge/caseqa/internal/metrics"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	metricsOut string
	dbPath     string

	// cfg is the effective configuration, resolved before every command
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "caseqa",
	Short: "Quality checks for scraped court case data",
	Long: `caseqa validates court case records against a field schema, finds exact
and near-duplicate opinions with SimHash fingerprints, and produces quality
reports that can be tracked over time.

Case files are JSON objects (*.json) or JSON Lines (*.jsonl) in a directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded

		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logging.Init(level, cfg.Log.Format)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsOut == "" {
			return nil
		}
		return metrics.WriteTextfile(metricsOut)
	},
}

// loadConfig layers the config file, environment and global flags. Without
// --config the nearest .caseqa/config.yaml above the working directory is
// used and its relative paths resolve against that project.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configPath
	discovered := false
	if !cmd.Flags().Changed("config") {
		found, err := config.Discover()
		if err != nil {
			return config.Default(), err
		}
		if found != "" {
			path, discovered = found, true
		}
	}

	loaded, err := config.Load(path)
	if err != nil {
		return loaded, err
	}
	if discovered {
		if root, err := config.ProjectRoot(path); err == nil {
			loaded.ResolvePaths(root)
		}
	}
	if err := loaded.ApplyEnv(); err != nil {
		return loaded, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		loaded.Log.Format = logFormat
	}
	if flags.Changed("db") {
		loaded.Store.Path = dbPath
	}

	if err := loaded.Validate(); err != nil {
		return loaded, err
	}
	return loaded, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile after the command")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Report history database (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
