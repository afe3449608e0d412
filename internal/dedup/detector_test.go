package dedup

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/caseqa/internal/fingerprint"
	"github.com/steveyegge/caseqa/internal/metrics"
	"github.com/steveyegge/caseqa/internal/types"
)

func newDetector(t *testing.T, threshold float64) *Detector {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Threshold = threshold
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

func textCase(text string) types.CaseRecord {
	return types.CaseRecord{"text": text}
}

// opinion builds a 40 sentence document; sentence k is replaced when
// replace is non-empty.
func opinion(k int, replace string) string {
	words := strings.Fields("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima mike " +
		"november oscar papa quebec romeo sierra tango uniform victor whiskey xray yankee zulu")
	sentences := make([]string, 40)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Sentence %d considers the %s and %s doctrine under section %d of the act.",
			i, words[i%26], words[(i*7)%26], i*3)
	}
	if replace != "" {
		sentences[k] = replace
	}
	return strings.Join(sentences, " ")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"threshold one", func(c *Config) { c.Threshold = 1.0 }, ""},
		{"negative threshold", func(c *Config) { c.Threshold = -0.1 }, "threshold must be between"},
		{"threshold above one", func(c *Config) { c.Threshold = 1.5 }, "threshold must be between"},
		{"nan threshold", func(c *Config) { c.Threshold = math.NaN() }, "threshold must be between"},
		{"bad hash bits", func(c *Config) { c.HashBits = 256 }, "hash_bits must be 64 or 128"},
		{"zero ngram", func(c *Config) { c.NgramSize = 0 }, "ngram_size must be at least 1"},
		{"huge ngram", func(c *Config) { c.NgramSize = 100 }, "ngram_size too large"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers must be positive"},
		{"too many workers", func(c *Config) { c.Workers = 1000 }, "workers too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRejectsHashBits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HashBits = 256
	d, err := New(cfg)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.True(t, errors.Is(err, fingerprint.ErrInvalidHashBits))
}

func TestConfigString(t *testing.T) {
	assert.Equal(t, "Config{Threshold: 0.85, HashBits: 128, NgramSize: 3, Workers: 1}", DefaultConfig().String())
}

func TestExactDuplicates(t *testing.T) {
	text := strings.Repeat("The appellant contends the lower court erred. ", 30)[:1000]
	require.Len(t, text, 1000)

	d := newDetector(t, 0.85)
	d.Add("case_1", textCase(text), "text")
	d.Add("case_2", textCase(text), "text")

	dups := d.FindDuplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, DuplicatePair{IDA: "case_1", IDB: "case_2", Similarity: 1.0, Method: MethodExact}, dups[0])
}

func TestExactDuplicatesIgnoreThreshold(t *testing.T) {
	d := newDetector(t, 1.0)
	d.Add("b", textCase("Identical opinion text."), "text")
	d.Add("a", textCase("Identical opinion text."), "text")

	dups := d.FindDuplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, "a", dups[0].IDA)
	assert.Equal(t, "b", dups[0].IDB)
	assert.Equal(t, MethodExact, dups[0].Method)

	dups = d.FindDuplicatesAt(0.0)
	require.Len(t, dups, 1)
	assert.Equal(t, MethodExact, dups[0].Method)
}

func TestExactGroup(t *testing.T) {
	d := newDetector(t, 0.99)
	for _, id := range []string{"c", "a", "b"} {
		d.Add(id, textCase("Same text in every copy."), "text")
	}
	d.Add("z", textCase("Something else entirely, about tax law."), "text")

	dups := d.FindDuplicates()
	require.Len(t, dups, 3)
	for _, p := range dups {
		assert.Equal(t, MethodExact, p.Method)
		assert.Less(t, p.IDA, p.IDB)
	}
	assert.Equal(t, 1, d.Stats().ExactDuplicateGroups)
}

func TestNearDuplicate(t *testing.T) {
	a := opinion(0, "")
	b := opinion(8, "Zoning variance appeals were quickly dismissed by the municipal board yesterday.")

	d := newDetector(t, 0.99)
	d.Add("orig", textCase(a), "text")
	d.Add("edited", textCase(b), "text")

	// 3 of 128 bits differ, below the detector threshold
	assert.Empty(t, d.FindDuplicates())

	similar, err := d.FindSimilar("orig", 1)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, MethodNear, similar[0].Method)
	assert.Equal(t, 0.9765625, similar[0].Similarity)
	assert.Greater(t, similar[0].Similarity, 0.5)
	assert.Less(t, similar[0].Similarity, 0.99)

	dups := d.FindDuplicatesAt(0.95)
	require.Len(t, dups, 1)
	assert.Equal(t, DuplicatePair{IDA: "edited", IDB: "orig", Similarity: 0.9765625, Method: MethodNear}, dups[0])
	assert.Equal(t, "edited <-> orig (97.7% similar, near)", dups[0].String())
}

func TestNoDuplicatePairs(t *testing.T) {
	d := newDetector(t, 0.5)
	texts := []string{
		"The Supreme Court held that the defendant's rights were violated.",
		"The Supreme Court held that the defendants rights were violated.",
		"The Supreme Court held that the defendant's rights were violated.",
		"Criminal law case about theft and burglary at night.",
		"Tax dispute regarding corporate income assessment rates.",
		"",
		"",
	}
	for i, text := range texts {
		d.Add(fmt.Sprintf("case_%d", i), textCase(text), "text")
	}

	dups := d.FindDuplicates()
	seen := make(map[pairKey]bool)
	for i, p := range dups {
		key := canonical(p.IDA, p.IDB)
		assert.False(t, seen[key], "pair %s reported twice", p)
		seen[key] = true
		assert.Equal(t, key.a, p.IDA)
		assert.GreaterOrEqual(t, p.Similarity, 0.5)
		if i > 0 {
			assert.GreaterOrEqual(t, dups[i-1].Similarity, p.Similarity)
		}
	}

	// identical text is always exact, and two empty texts are fully similar
	assert.True(t, seen[pairKey{"case_0", "case_2"}])
	assert.True(t, seen[pairKey{"case_5", "case_6"}])
}

func TestEmptyTextsAreNearNotExact(t *testing.T) {
	d := newDetector(t, 0.85)
	d.Add("a", types.CaseRecord{"title": "no text"}, "text")
	d.Add("b", textCase(""), "text")

	dups := d.FindDuplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, MethodNear, dups[0].Method)
	assert.Equal(t, 1.0, dups[0].Similarity)
	assert.Zero(t, d.Stats().ExactDuplicateGroups)
}

func TestParallelScanMatchesSerial(t *testing.T) {
	var records []types.CaseRecord
	for i := 0; i < 30; i++ {
		text := opinion(i%40, fmt.Sprintf("Variant %d of the replacement sentence about appellate review.", i%5))
		records = append(records, types.CaseRecord{"id": fmt.Sprintf("c%02d", i), "text": text})
	}

	serial := newDetector(t, 0.9)
	serial.AddBatch(records, "id", "text")

	cfg := DefaultConfig()
	cfg.Threshold = 0.9
	cfg.Workers = 8
	parallel, err := New(cfg)
	require.NoError(t, err)
	parallel.AddBatch(records, "id", "text")

	want := serial.FindDuplicates()
	require.NotEmpty(t, want)
	assert.Equal(t, want, parallel.FindDuplicates())
}

func TestAddReplacesEntry(t *testing.T) {
	d := newDetector(t, 0.85)
	d.Add("a", textCase("first version of the text"), "text")
	d.Add("b", textCase("first version of the text"), "text")
	d.Add("a", textCase("completely rewritten opinion on maritime salvage"), "text")

	assert.Equal(t, 2, d.Len())
	assert.Zero(t, d.Stats().ExactDuplicateGroups)

	rec, ok := d.Record("a")
	require.True(t, ok)
	assert.Equal(t, "completely rewritten opinion on maritime salvage", rec["text"])
}

func TestAddBatch(t *testing.T) {
	d := newDetector(t, 0.85)
	added := d.AddBatch([]types.CaseRecord{
		{"id": "x1", "text": "one"},
		{"id": float64(12), "text": "two"},
		{"text": "no id"},
		{"id": nil, "text": "nil id"},
		{"id": "", "text": "empty id"},
	}, "id", "text")

	assert.Equal(t, 2, added)
	assert.Equal(t, 2, d.Len())
	_, ok := d.Record("12")
	assert.True(t, ok)
}

func TestFindSimilar(t *testing.T) {
	d := newDetector(t, 0.85)
	d.Add("target", textCase("The court granted the motion to dismiss for lack of jurisdiction."), "text")
	d.Add("close", textCase("The court granted the motion to dismiss for lack of jurisdction."), "text")
	d.Add("far", textCase("Tax dispute regarding corporate income assessment rates."), "text")
	d.Add("farther", textCase("Zoning variance appeals were dismissed by the municipal board."), "text")

	t.Run("ranked", func(t *testing.T) {
		similar, err := d.FindSimilar("target", 10)
		require.NoError(t, err)
		require.Len(t, similar, 3)
		assert.Equal(t, "close", similar[0].IDB)
		for i, p := range similar {
			assert.Equal(t, "target", p.IDA)
			assert.Equal(t, MethodNear, p.Method)
			if i > 0 {
				assert.GreaterOrEqual(t, similar[i-1].Similarity, p.Similarity)
			}
		}
	})

	t.Run("top k", func(t *testing.T) {
		similar, err := d.FindSimilar("target", 2)
		require.NoError(t, err)
		assert.Len(t, similar, 2)

		similar, err = d.FindSimilar("target", 0)
		require.NoError(t, err)
		assert.Empty(t, similar)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := d.FindSimilar("missing", 5)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), "missing")
	})
}

func TestStatsAndClear(t *testing.T) {
	d := newDetector(t, 0.9)
	d.Add("a", textCase("same"), "text")
	d.Add("b", textCase("same"), "text")
	d.Add("c", textCase("different"), "text")

	assert.Equal(t, Stats{TotalIndexed: 3, ExactDuplicateGroups: 1, Threshold: 0.9, HashBits: 128}, d.Stats())

	d.Clear()
	assert.Zero(t, d.Len())
	assert.Empty(t, d.FindDuplicates())
	assert.Equal(t, Stats{Threshold: 0.9, HashBits: 128}, d.Stats())

	_, err := d.FindSimilar("a", 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDuplicateMetrics(t *testing.T) {
	before := testutil.ToFloat64(metrics.DuplicatePairs.WithLabelValues(MethodExact))

	d := newDetector(t, 0.85)
	d.Add("a", textCase("same text"), "text")
	d.Add("b", textCase("same text"), "text")
	d.FindDuplicates()

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DuplicatePairs.WithLabelValues(MethodExact)))
}
