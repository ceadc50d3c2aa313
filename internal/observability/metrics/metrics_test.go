package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordSync(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordSync("shopify", 2*time.Second, 12, nil)
	m.RecordSync("shopify", time.Second, 0, errors.New("relay_unavailable"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.syncRuns.WithLabelValues("shopify", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.syncRuns.WithLabelValues("shopify", "failure")))
	require.Equal(t, 12.0, testutil.ToFloat64(m.syncRecords.WithLabelValues("shopify")))
}

func TestRecomputeAndCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveRecompute("collective", 5*time.Millisecond)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)

	require.Equal(t, 1.0, testutil.ToFloat64(m.recomputeTotal.WithLabelValues("collective")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.memoHits.WithLabelValues("hit")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.memoHits.WithLabelValues("miss")))
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	first.RecordVerification("Confirmed", 2)
	second.RecordVerification("Confirmed", 1)

	require.Equal(t, 3.0, testutil.ToFloat64(second.verifications.WithLabelValues("Confirmed")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveRecompute("single", time.Millisecond)
		m.RecordCacheLookup(true)
		m.RecordVerification("Canceled", 1)
		m.RecordSync("csv", time.Millisecond, 1, nil)
		m.RecordHTTPRequest("/api/v1/metrics", 200)
	})
}
