package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/steveyegge/caseqa/internal/casefile"
	"github.com/steveyegge/caseqa/internal/storage"
	"github.com/steveyegge/caseqa/internal/types"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// loadRecords reads every case file in dir and warns about skipped ones.
func loadRecords(w io.Writer, dir string) ([]types.CaseRecord, error) {
	records, stats, err := casefile.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if stats.Skipped > 0 {
		fmt.Fprintf(w, "%s Skipped %d unreadable record(s) in %s\n", yellow("⚠"), stats.Skipped, dir)
	}
	return records, nil
}

// openStore opens the configured report history.
func openStore(ctx context.Context) (storage.Storage, error) {
	return storage.NewStorage(ctx, &storage.Config{Path: cfg.Store.Path})
}

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	return t
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func pct(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}
