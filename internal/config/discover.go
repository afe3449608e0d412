package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Dir is the per-project directory holding config.yaml and the history database.
const Dir = ".caseqa"

// Discover finds the config file for the current directory.
//
// CASEQA_CONFIG is used directly when set. Otherwise the directory tree is
// walked up from the working directory looking for .caseqa/config.yaml, so
// caseqa can run from any subdirectory of a project. Returns "" when no
// config file exists anywhere above.
func Discover() (string, error) {
	if path := os.Getenv("CASEQA_CONFIG"); path != "" {
		return path, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return discoverFromDir(dir)
}

// discoverFromDir walks up from startDir to the filesystem root.
func discoverFromDir(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		candidate := filepath.Join(dir, Dir, "config.yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// ProjectRoot returns the directory containing the .caseqa/ directory of
// a discovered config file.
//
// Example:
//
//	configPath: /home/user/corpus/.caseqa/config.yaml
//	returns:    /home/user/corpus
func ProjectRoot(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	configDir := filepath.Dir(absPath)
	if filepath.Base(configDir) != Dir {
		return "", fmt.Errorf("config must be in a %s/ directory, got: %s", Dir, configPath)
	}
	return filepath.Dir(configDir), nil
}

// ResolvePaths makes the relative file paths in the config relative to root
// instead of the working directory.
func (c *Config) ResolvePaths(root string) {
	if c.Store.Path != "" && !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(root, c.Store.Path)
	}
	if c.Validation.SchemaFile != "" && !filepath.IsAbs(c.Validation.SchemaFile) {
		c.Validation.SchemaFile = filepath.Join(root, c.Validation.SchemaFile)
	}
}
