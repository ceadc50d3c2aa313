package metrics

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the engine's prometheus collectors.
type Metrics struct {
	recomputeTotal    *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	memoHits          *prometheus.CounterVec
	verifications     *prometheus.CounterVec
	syncRuns          *prometheus.CounterVec
	syncDuration      *prometheus.HistogramVec
	syncRecords       *prometheus.GaugeVec
	httpRequests      *prometheus.CounterVec
}

// New registers collectors on reg. Collectors already registered by a
// previous call are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		recomputeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profitlens_recompute_total",
			Help: "Total number of analytics snapshot recomputations.",
		}, []string{"view_kind"}),
		recomputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "profitlens_recompute_duration_seconds",
			Help:    "Duration of analytics snapshot recomputations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"view_kind"}),
		memoHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profitlens_snapshot_cache_total",
			Help: "Snapshot cache lookups by result.",
		}, []string{"result"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profitlens_verification_transitions_total",
			Help: "Verification transitions applied by target state.",
		}, []string{"state"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profitlens_source_sync_total",
			Help: "Source sync attempts by source type and outcome.",
		}, []string{"source_type", "status"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "profitlens_source_sync_duration_seconds",
			Help:    "Duration of source sync attempts.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source_type"}),
		syncRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "profitlens_source_records",
			Help: "Records held by the last successful sync, by source type.",
		}, []string{"source_type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profitlens_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status_class"}),
	}

	if reg == nil {
		return m, nil
	}

	m.recomputeTotal = register(reg, m.recomputeTotal)
	m.recomputeDuration = register(reg, m.recomputeDuration)
	m.memoHits = register(reg, m.memoHits)
	m.verifications = register(reg, m.verifications)
	m.syncRuns = register(reg, m.syncRuns)
	m.syncDuration = register(reg, m.syncDuration)
	m.syncRecords = register(reg, m.syncRecords)
	m.httpRequests = register(reg, m.httpRequests)
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// ObserveRecompute records one snapshot recomputation.
func (m *Metrics) ObserveRecompute(viewKind string, d time.Duration) {
	if m == nil {
		return
	}
	viewKind = normalizeLabel(viewKind)
	m.recomputeTotal.WithLabelValues(viewKind).Inc()
	m.recomputeDuration.WithLabelValues(viewKind).Observe(d.Seconds())
}

// RecordCacheLookup records a snapshot cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.memoHits.WithLabelValues(result).Inc()
}

// RecordVerification increments the transition counter for state.
func (m *Metrics) RecordVerification(state string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(state)).Add(float64(count))
}

// RecordSync records the outcome of one source sync.
func (m *Metrics) RecordSync(sourceType string, d time.Duration, records int, err error) {
	if m == nil {
		return
	}
	sourceType = normalizeLabel(sourceType)
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.syncRuns.WithLabelValues(sourceType, status).Inc()
	m.syncDuration.WithLabelValues(sourceType).Observe(d.Seconds())
	if err == nil {
		m.syncRecords.WithLabelValues(sourceType).Set(float64(records))
	}
}

// RecordHTTPRequest counts one served request.
func (m *Metrics) RecordHTTPRequest(route string, status int) {
	if m == nil {
		return
	}
	class := "2xx"
	switch {
	case status >= 500:
		class = "5xx"
	case status >= 400:
		class = "4xx"
	case status >= 300:
		class = "3xx"
	}
	m.httpRequests.WithLabelValues(normalizeLabel(route), class).Inc()
}

func normalizeLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
