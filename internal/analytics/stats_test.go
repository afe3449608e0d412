package analytics

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/steveyegge/caseqa/internal/types"
)

func sampleRecords() []types.CaseRecord {
	return []types.CaseRecord{
		{"court": "Supreme Court", "year": int64(2021), "text": strings.Repeat("a", 100), "judges": []any{"Roberts", "Kagan"}},
		{"court": "High Court", "year": int64(2020), "text": strings.Repeat("b", 301), "judges": []string{"Roberts"}},
		{"court": "Supreme Court", "year": "2021", "text": "", "judges": "Kagan"},
		{"year": int64(2019), "text": strings.Repeat("é", 50)},
	}
}

func TestGenerate(t *testing.T) {
	got := Generate(sampleRecords())
	want := Stats{
		TotalCases: 4,
		Courts: []Count{
			{Name: "Supreme Court", Count: 2},
			{Name: "High Court", Count: 1},
			{Name: "Unknown", Count: 1},
		},
		Years: []Count{
			{Name: "2019", Count: 1},
			{Name: "2020", Count: 1},
			{Name: "2021", Count: 2},
		},
		Text: TextStats{AvgLength: 150, MaxLength: 301, MinLength: 50, CasesWithText: 3},
		TopJudges: []Count{
			{Name: "Roberts", Count: 2},
			{Name: "Kagan", Count: 1},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateEmptyCourtIsOwnKey(t *testing.T) {
	records := []types.CaseRecord{
		{"court": "", "year": ""},
		{"court": nil},
		{"court": ""},
	}

	got := Generate(records)
	assert.Equal(t, []Count{{Name: "", Count: 2}, {Name: "Unknown", Count: 1}}, got.Courts)
	assert.Equal(t, []Count{{Name: "", Count: 1}, {Name: "Unknown", Count: 2}}, got.Years)
}

func TestGenerateEmpty(t *testing.T) {
	got := Generate(nil)
	assert.Zero(t, got.TotalCases)
	assert.Empty(t, got.Courts)
	assert.NotNil(t, got.Courts)
	assert.Equal(t, TextStats{}, got.Text)
}

func TestGenerateTopTen(t *testing.T) {
	var records []types.CaseRecord
	for i := 0; i < 15; i++ {
		for j := 0; j <= i; j++ {
			records = append(records, types.CaseRecord{"court": fmt.Sprintf("court-%02d", i)})
		}
	}

	got := Generate(records)
	assert.Len(t, got.Courts, topN)
	assert.Equal(t, Count{Name: "court-14", Count: 15}, got.Courts[0])
	assert.Equal(t, "court-05", got.Courts[9].Name)
	assert.Equal(t, []Count{{Name: "Unknown", Count: len(records)}}, got.Years)
}

func TestComparePeriods(t *testing.T) {
	got := ComparePeriods(sampleRecords(), "year", Period{Start: 2019, End: 2020}, Period{Start: 2021, End: 2021})

	assert.Equal(t, 2, got.FirstStats.TotalCases)
	assert.Equal(t, 2, got.SecondStats.TotalCases)
	assert.Equal(t, 0, got.CaseCountChange)
	// first: (301 + 50) / 2 = 175.5 rounds to even; second: only one text
	assert.Equal(t, 176, got.FirstStats.Text.AvgLength)
	assert.Equal(t, 100, got.SecondStats.Text.AvgLength)
	assert.Equal(t, -76, got.AvgLengthChange)
	assert.Equal(t, "2019-2020", got.First.String())
}

func TestYearOf(t *testing.T) {
	tests := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{int64(2020), 2020, true},
		{float64(1999), 1999, true},
		{" 2001 ", 2001, true},
		{"unknown", 0, false},
		{1999.5, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := yearOf(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got)
		}
	}
}
