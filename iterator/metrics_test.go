package iterator

import (
	"expvar"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScanMetrics_Local(t *testing.T) {
	m, err := NewScanMetrics(false, "local_")
	require.NoError(t, err)
	assert.False(t, m.PublishedGlobally)
	assert.Nil(t, expvar.Get("local_keys_visited_total"))
	assert.Zero(t, m.KeysPerDocumentQuantile(0.5), "no documents observed yet")

	require.NoError(t, m.observeDocument(4))
	require.NoError(t, m.observeDocument(4))
	assert.Equal(t, int64(2), m.DocumentsTotal.Value())
	assert.InDelta(t, 4.0, m.KeysPerDocumentQuantile(0.5), 0.001)
	p50, ok := m.KeysPerDocument.Get("p50").(*expvar.Float)
	require.True(t, ok)
	assert.InDelta(t, 4.0, p50.Value(), 0.001)
}

func TestNewScanMetrics_Global(t *testing.T) {
	m, err := NewScanMetrics(true, "docseek_metrics_test_")
	require.NoError(t, err)
	assert.True(t, m.PublishedGlobally)
	m.SeeksTotal.Add(3)
	v, ok := expvar.Get("docseek_metrics_test_seeks_total").(*expvar.Int)
	require.True(t, ok)
	assert.Equal(t, int64(3), v.Value())

	// Publishing again reuses and resets the existing variables.
	again, err := NewScanMetrics(true, "docseek_metrics_test_")
	require.NoError(t, err)
	assert.Same(t, m.SeeksTotal, again.SeeksTotal)
	assert.Zero(t, again.SeeksTotal.Value())
}
