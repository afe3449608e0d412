// Package analytics computes descriptive statistics over case datasets.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/steveyegge/caseqa/internal/types"
)

const (
	// topN bounds the court and judge rankings
	topN = 10

	unknown = "Unknown"
)

// Count is a named tally.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TextStats summarizes document body lengths in characters.
type TextStats struct {
	AvgLength     int `json:"avg_length"`
	MaxLength     int `json:"max_length"`
	MinLength     int `json:"min_length"`
	CasesWithText int `json:"cases_with_text"`
}

// Stats describes a dataset.
type Stats struct {
	TotalCases int       `json:"total_cases"`
	Courts     []Count   `json:"courts"`
	Years      []Count   `json:"years"`
	Text       TextStats `json:"text_stats"`
	TopJudges  []Count   `json:"top_judges"`
}

// Generate computes dataset statistics. Courts and judges are the ten most
// frequent, ties in first-seen order; years are sorted by name.
func Generate(records []types.CaseRecord) Stats {
	stats := Stats{
		TotalCases: len(records),
		Courts:     []Count{},
		Years:      []Count{},
		TopJudges:  []Count{},
	}
	if len(records) == 0 {
		return stats
	}

	courts := newTally()
	years := newTally()
	judges := newTally()
	totalLength := 0

	for _, rec := range records {
		courts.add(nameOr(rec.Get("court")))
		years.add(nameOr(rec.Get("year")))

		if text, ok := rec.Get("text").(string); ok && text != "" {
			n := utf8.RuneCountInString(text)
			if stats.Text.CasesWithText == 0 || n < stats.Text.MinLength {
				stats.Text.MinLength = n
			}
			if n > stats.Text.MaxLength {
				stats.Text.MaxLength = n
			}
			totalLength += n
			stats.Text.CasesWithText++
		}

		if _, isText := rec.Get("judges").(string); !isText {
			for _, judge := range types.StringList(rec.Get("judges")) {
				judges.add(judge)
			}
		}
	}

	if stats.Text.CasesWithText > 0 {
		stats.Text.AvgLength = int(math.RoundToEven(float64(totalLength) / float64(stats.Text.CasesWithText)))
	}
	stats.Courts = courts.top(topN)
	stats.TopJudges = judges.top(topN)
	stats.Years = years.sorted()
	return stats
}

// Period is an inclusive range of years.
type Period struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (p Period) String() string {
	return fmt.Sprintf("%d-%d", p.Start, p.End)
}

func (p Period) contains(year int) bool {
	return year >= p.Start && year <= p.End
}

// PeriodComparison contrasts the statistics of two year ranges.
type PeriodComparison struct {
	First           Period `json:"first"`
	Second          Period `json:"second"`
	FirstStats      Stats  `json:"first_stats"`
	SecondStats     Stats  `json:"second_stats"`
	CaseCountChange int    `json:"case_count_change"`
	AvgLengthChange int    `json:"avg_length_change"`
}

// ComparePeriods splits records by the year field into two periods and
// compares their statistics. Records without a usable year are ignored.
func ComparePeriods(records []types.CaseRecord, yearField string, first, second Period) PeriodComparison {
	var a, b []types.CaseRecord
	for _, rec := range records {
		year, ok := yearOf(rec.Get(yearField))
		if !ok {
			continue
		}
		if first.contains(year) {
			a = append(a, rec)
		}
		if second.contains(year) {
			b = append(b, rec)
		}
	}

	sa, sb := Generate(a), Generate(b)
	return PeriodComparison{
		First:           first,
		Second:          second,
		FirstStats:      sa,
		SecondStats:     sb,
		CaseCountChange: sb.TotalCases - sa.TotalCases,
		AvgLengthChange: sb.Text.AvgLength - sa.Text.AvgLength,
	}
}

func yearOf(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	if s, ok := v.(string); ok {
		y, err := strconv.Atoi(strings.TrimSpace(s))
		return y, err == nil
	}
	if types.KindOf(v) != types.KindInteger {
		return 0, false
	}
	y, err := strconv.Atoi(types.ValueString(v))
	return y, err == nil
}

// nameOr buckets absent and null values as Unknown. An empty string is its own key.
func nameOr(v any) string {
	if v == nil {
		return unknown
	}
	return types.ValueString(v)
}

// tally counts names and remembers first-seen order.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(name string) {
	if _, ok := t.counts[name]; !ok {
		t.order = append(t.order, name)
	}
	t.counts[name]++
}

func (t *tally) top(n int) []Count {
	out := make([]Count, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, Count{Name: name, Count: t.counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (t *tally) sorted() []Count {
	out := make([]Count, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, Count{Name: name, Count: t.counts[name]})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
