package ingest

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/smallbiznis/profitlens/internal/config"
	obsmetrics "github.com/smallbiznis/profitlens/internal/observability/metrics"
	"github.com/smallbiznis/profitlens/internal/record"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
	sourceservice "github.com/smallbiznis/profitlens/internal/source/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errRelayDown = errors.New("relay down")

func row(fields ...any) record.Record {
	out := make([]record.Field, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, record.Field{Name: fields[i].(string), Value: fields[i+1]})
	}
	return record.New(out...)
}

type harness struct {
	sources  sourcedomain.Service
	registry *prometheus.Registry
	syncer   *Syncer
}

func newHarness(t *testing.T, fetcher Fetcher) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC))
	reg := prometheus.NewRegistry()
	m, err := obsmetrics.New(reg)
	require.NoError(t, err)

	sources := sourceservice.New(sourceservice.Params{Log: log, Clock: clk})
	syncer := NewSyncer(Params{
		Log:       log,
		Clock:     clk,
		Sources:   sources,
		Fetcher:   fetcher,
		Metrics:   m,
		AppConfig: config.Config{SyncConcurrency: 2},
	})
	return &harness{sources: sources, registry: reg, syncer: syncer}
}

func (h *harness) connect(t *testing.T, typ sourcedomain.Type, name string) string {
	t.Helper()
	ds, err := h.sources.Connect(context.Background(), sourcedomain.ConnectRequest{Type: typ, Name: name})
	require.NoError(t, err)
	return ds.ID
}

func TestSyncSourceReplacesRecords(t *testing.T) {
	h := newHarness(t, FetcherFunc(func(_ context.Context, ds sourcedomain.DataSource) ([]record.Record, error) {
		return []record.Record{
			row("order_id", "1", "amount", 100),
			row("order_id", "2", "amount", 200),
		}, nil
	}))
	id := h.connect(t, sourcedomain.TypeShopify, "Shop")

	res, err := h.syncer.SyncSource(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, res.SourceID)
	assert.Equal(t, 2, res.Records)
	assert.Len(t, res.RunID, 26)

	ds, err := h.sources.Get(id)
	require.NoError(t, err)
	assert.Equal(t, sourcedomain.StatusConnected, ds.Status)
	assert.Equal(t, 2, ds.RecordCount)
	require.NotNil(t, ds.LastSync)

	expected := `
# HELP profitlens_source_records Records held by the last successful sync, by source type.
# TYPE profitlens_source_records gauge
profitlens_source_records{source_type="shopify"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(h.registry, strings.NewReader(expected), "profitlens_source_records"))
}

func TestSyncFailureKeepsPriorRecords(t *testing.T) {
	var fail atomic.Bool
	h := newHarness(t, FetcherFunc(func(context.Context, sourcedomain.DataSource) ([]record.Record, error) {
		if fail.Load() {
			return nil, errRelayDown
		}
		return []record.Record{row("order_id", "1", "amount", 100)}, nil
	}))
	id := h.connect(t, sourcedomain.TypeShopify, "Shop")

	_, err := h.syncer.SyncSource(context.Background(), id)
	require.NoError(t, err)

	fail.Store(true)
	_, err = h.syncer.SyncSource(context.Background(), id)
	assert.ErrorIs(t, err, errRelayDown)

	ds, err := h.sources.Get(id)
	require.NoError(t, err)
	assert.Equal(t, sourcedomain.StatusError, ds.Status)
	assert.Equal(t, "relay down", ds.LastError)
	recs, err := h.sources.Records(id)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	expected := `
# HELP profitlens_source_sync_total Source sync attempts by source type and outcome.
# TYPE profitlens_source_sync_total counter
profitlens_source_sync_total{source_type="shopify",status="failure"} 1
profitlens_source_sync_total{source_type="shopify",status="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(h.registry, strings.NewReader(expected), "profitlens_source_sync_total"))
}

func TestSyncSourceRejects(t *testing.T) {
	h := newHarness(t, FetcherFunc(func(context.Context, sourcedomain.DataSource) ([]record.Record, error) {
		return nil, nil
	}))
	csv := h.connect(t, sourcedomain.TypeCSV, "Upload")

	_, err := h.syncer.SyncSource(context.Background(), csv)
	assert.ErrorIs(t, err, ErrNotSyncable)
	_, err = h.syncer.SyncSource(context.Background(), "missing")
	assert.ErrorIs(t, err, sourcedomain.ErrNotFound)

	disabled := newHarness(t, nil)
	assert.False(t, disabled.syncer.Enabled())
	_, err = disabled.syncer.SyncNow(context.Background(), csv)
	assert.ErrorIs(t, err, ErrNoFetcher)
	assert.ErrorIs(t, disabled.syncer.SyncAll(context.Background()), ErrNoFetcher)
}

func TestSyncAllJoinsFailures(t *testing.T) {
	var calls atomic.Int32
	var failingID string
	h := newHarness(t, FetcherFunc(func(_ context.Context, ds sourcedomain.DataSource) ([]record.Record, error) {
		calls.Add(1)
		if ds.ID == failingID {
			return nil, errRelayDown
		}
		return []record.Record{row("date", "2026-02-01", "fb_spend", 10)}, nil
	}))
	h.connect(t, sourcedomain.TypeMetaAds, "Meta")
	h.connect(t, sourcedomain.TypeTikTokAds, "TikTok")
	failingID = h.connect(t, sourcedomain.TypeGoogleAds, "Google")
	h.connect(t, sourcedomain.TypeCSV, "Upload")

	err := h.syncer.SyncAll(context.Background())
	assert.ErrorIs(t, err, errRelayDown)
	assert.Equal(t, int32(3), calls.Load())

	synced := 0
	for _, ds := range h.sources.List() {
		if ds.RecordCount == 1 {
			synced++
		}
	}
	assert.Equal(t, 2, synced)
}

func TestSchedulerRunOnce(t *testing.T) {
	h := newHarness(t, FetcherFunc(func(context.Context, sourcedomain.DataSource) ([]record.Record, error) {
		return nil, errRelayDown
	}))
	h.connect(t, sourcedomain.TypeShopify, "Shop")

	sched := NewScheduler(zaptest.NewLogger(t), h.syncer, time.Minute)
	assert.ErrorIs(t, sched.RunOnce(context.Background()), errRelayDown)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sched.RunForever(ctx)
}

func TestSyncNowWithoutLimiter(t *testing.T) {
	h := newHarness(t, FetcherFunc(func(context.Context, sourcedomain.DataSource) ([]record.Record, error) {
		return []record.Record{row("order_id", "1")}, nil
	}))
	id := h.connect(t, sourcedomain.TypeGoogleSheets, "Sheet")
	for range 3 {
		_, err := h.syncer.SyncNow(context.Background(), id)
		require.NoError(t, err)
	}
}
