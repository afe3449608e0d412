package analytics

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/steveyegge/caseqa/internal/types"
)

// mostCitedN bounds the most-cited ranking.
const mostCitedN = 20

// DefaultPatterns are the built-in citation patterns, keyed by citation type.
var DefaultPatterns = map[string]string{
	// 2024 SC 445
	"case_citation": `\d{4}\s+[A-Z]{2,6}\s+\d+`,
	// Section 302, section 9(a)
	"statute_section": `[Ss]ection\s+\d+[A-Za-z]?(?:\s*\([a-z0-9]+\))?`,
	// Article 199, article 10A (1)
	"article": `[Aa]rticle\s+\d+[A-Za-z]?(?:\s*\([a-z0-9]+\))?`,
	// Order XXI Rule 4
	"order_rule": `[Oo]rder\s+[IVXLCDM]+\s+[Rr]ule\s+\d+`,
}

// defaultOrder is the order built-in types are reported in.
var defaultOrder = []string{"case_citation", "statute_section", "article", "order_rule"}

var defaultExtractor = mustExtractor()

type citationPattern struct {
	name string
	re   *regexp.Regexp
}

// Extractor finds legal citations in case text.
type Extractor struct {
	patterns []citationPattern
}

// CitationStats summarizes citations across a dataset.
type CitationStats struct {
	TotalCitations     int     `json:"total_citations"`
	UniqueCitations    int     `json:"unique_citations"`
	CasesAnalyzed      int     `json:"cases_analyzed"`
	CasesWithCitations int     `json:"cases_with_citations"`
	MostCited          []Count `json:"most_cited"`
	AvgPerCase         float64 `json:"avg_per_case"`
}

// NewExtractor compiles the default patterns merged with custom ones.
// A custom pattern with a built-in name replaces it; new names are appended
// in name order.
func NewExtractor(custom map[string]string) (*Extractor, error) {
	names := append([]string(nil), defaultOrder...)
	extra := make([]string, 0, len(custom))
	for name := range custom {
		if _, builtin := DefaultPatterns[name]; !builtin {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	e := &Extractor{patterns: make([]citationPattern, 0, len(names))}
	for _, name := range names {
		expr, ok := custom[name]
		if !ok {
			expr = DefaultPatterns[name]
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("citation pattern %s: %w", name, err)
		}
		e.patterns = append(e.patterns, citationPattern{name: name, re: re})
	}
	return e, nil
}

func mustExtractor() *Extractor {
	e, err := NewExtractor(nil)
	if err != nil {
		panic(err)
	}
	return e
}

// Types returns the citation types in report order.
func (e *Extractor) Types() []string {
	out := make([]string, len(e.patterns))
	for i, p := range e.patterns {
		out[i] = p.name
	}
	return out
}

// Extract maps each citation type with at least one match to its distinct
// matches in first-seen order.
func (e *Extractor) Extract(text string) map[string][]string {
	out := make(map[string][]string)
	for _, p := range e.patterns {
		matches := p.re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		seen := make(map[string]bool, len(matches))
		distinct := make([]string, 0, len(matches))
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				distinct = append(distinct, m)
			}
		}
		out[p.name] = distinct
	}
	return out
}

// ExtractAll returns every distinct citation, grouped by type in report order.
func (e *Extractor) ExtractAll(text string) []string {
	found := e.Extract(text)
	var out []string
	for _, p := range e.patterns {
		out = append(out, found[p.name]...)
	}
	return out
}

// Count tallies the citations in text. Each citation counts once per type it
// matches.
func (e *Extractor) Count(text string) map[string]int {
	out := make(map[string]int)
	for _, c := range e.ExtractAll(text) {
		out[c]++
	}
	return out
}

// Analyze aggregates citations over records. A citation counts once per
// case; cases without text are analyzed but contribute nothing.
func (e *Extractor) Analyze(records []types.CaseRecord, textField string) CitationStats {
	all := newTally()
	stats := CitationStats{CasesAnalyzed: len(records)}

	for _, rec := range records {
		text, ok := rec.Get(textField).(string)
		if !ok || text == "" {
			continue
		}
		citations := e.ExtractAll(text)
		if len(citations) == 0 {
			continue
		}
		stats.CasesWithCitations++
		for _, c := range citations {
			all.add(c)
		}
	}

	for _, n := range all.counts {
		stats.TotalCitations += n
	}
	stats.UniqueCitations = len(all.counts)
	stats.MostCited = all.top(mostCitedN)
	if stats.CasesAnalyzed > 0 {
		stats.AvgPerCase = float64(stats.TotalCitations) / float64(stats.CasesAnalyzed)
	}
	return stats
}

// AnalyzeCitations aggregates citations over records with the default patterns.
func AnalyzeCitations(records []types.CaseRecord, textField string) CitationStats {
	return defaultExtractor.Analyze(records, textField)
}

// ExtractCitations returns every distinct citation in text using the default
// patterns merged with custom ones.
func ExtractCitations(text string, custom map[string]string) ([]string, error) {
	e, err := NewExtractor(custom)
	if err != nil {
		return nil, err
	}
	return e.ExtractAll(text), nil
}
