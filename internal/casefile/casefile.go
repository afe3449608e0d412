// Package casefile loads scraped case records from disk.
//
// A directory may hold *.json files (one object per file) and *.jsonl files
// (one object per line). Corrupt files and lines are skipped with a warning
// so one bad download never aborts a whole batch.
package casefile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/steveyegge/caseqa/internal/logging"
	"github.com/steveyegge/caseqa/internal/types"
)

// maxLineSize bounds a single JSONL record; opinions can be large.
const maxLineSize = 16 * 1024 * 1024

// LoadStats reports what LoadDir read.
type LoadStats struct {
	Files   int `json:"files"`
	Records int `json:"records"`
	Skipped int `json:"skipped"`
}

// LoadDir reads every *.json and *.jsonl file directly inside dir, in
// lexical order. Only an unreadable directory is an error.
func LoadDir(dir string) ([]types.CaseRecord, LoadStats, error) {
	var stats LoadStats
	logger := logging.New("casefile")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read case directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".jsonl":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var records []types.CaseRecord
	for _, name := range names {
		path := filepath.Join(dir, name)
		stats.Files++

		var (
			loaded  []types.CaseRecord
			skipped int
			err     error
		)
		if strings.EqualFold(filepath.Ext(name), ".jsonl") {
			loaded, skipped, err = loadLines(path)
		} else {
			var rec types.CaseRecord
			rec, err = loadFile(path)
			if err == nil {
				loaded = []types.CaseRecord{rec}
			}
		}
		if err != nil {
			logger.Warn("skipping unreadable case file", "path", path, "error", err)
			stats.Skipped++
			continue
		}
		if skipped > 0 {
			logger.Warn("skipped corrupt lines", "path", path, "lines", skipped)
		}
		stats.Skipped += skipped
		records = append(records, loaded...)
	}

	stats.Records = len(records)
	logger.Debug("loaded case files",
		"dir", dir,
		"files", stats.Files,
		"records", stats.Records,
		"skipped", stats.Skipped)
	return records, stats, nil
}

func loadFile(path string) (types.CaseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// loadLines decodes a JSONL file. Blank lines are ignored; corrupt lines are
// counted and skipped.
func loadLines(path string) ([]types.CaseRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var (
		records []types.CaseRecord
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := Decode(line)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return records, skipped, nil
}

// Decode parses one JSON object into a case record. Integral numbers become
// int64 and others float64; nested arrays become []any.
func Decode(data []byte) (types.CaseRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid case JSON: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("invalid case JSON: not an object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid case JSON: trailing data")
	}

	rec := make(types.CaseRecord, len(raw))
	for k, v := range raw {
		rec[k] = normalize(v)
	}
	return rec, nil
}

func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		for i := range val {
			val[i] = normalize(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalize(val[k])
		}
		return val
	}
	return v
}
