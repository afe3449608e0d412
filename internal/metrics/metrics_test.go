package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(DuplicatePairs.WithLabelValues("exact"))
	DuplicatePairs.WithLabelValues("exact").Add(2)
	assert.Equal(t, before+2, testutil.ToFloat64(DuplicatePairs.WithLabelValues("exact")))
}

func TestWriteTextfile(t *testing.T) {
	ReportsGenerated.Inc()

	path := filepath.Join(t.TempDir(), "nested", "caseqa.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "caseqa_reports_generated_total")
}
