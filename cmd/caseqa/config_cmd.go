package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/caseqa/internal/config"
	"github.com/steveyegge/caseqa/internal/schema"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage caseqa configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write the default configuration to the --config path (.caseqa/config.yaml).

With --schema the default case schema is also written next to it so it can
be edited and referenced from validation.schema_file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		schemaPath, _ := cmd.Flags().GetString("schema")
		return runConfigInit(os.Stdout, configPath, schemaPath, force)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after applying the config file, environment and flags.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(os.Stdout, cfg)
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	configInitCmd.Flags().String("schema", "", "Also write the default schema to this file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(w io.Writer, path, schemaPath string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	c := config.Default()
	if schemaPath != "" {
		data, err := yaml.Marshal(schema.ToFile(schema.DefaultSchema()))
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		if err := os.WriteFile(schemaPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write schema: %w", err)
		}
		c.Validation.SchemaFile = schemaPath
		fmt.Fprintf(w, "%s Wrote schema to %s\n", green("✓"), schemaPath)
	}

	if err := c.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Wrote config to %s\n", green("✓"), path)
	return nil
}

func runConfigShow(w io.Writer, c config.Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}
