package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/profitlens/internal/analytics/domain"
	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/smallbiznis/profitlens/internal/config"
	ledgerdomain "github.com/smallbiznis/profitlens/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/profitlens/internal/ledger/service"
	obsmetrics "github.com/smallbiznis/profitlens/internal/observability/metrics"
	"github.com/smallbiznis/profitlens/internal/record"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
	sourceservice "github.com/smallbiznis/profitlens/internal/source/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	clock    *clock.FakeClock
	sources  sourcedomain.Service
	ledger   ledgerdomain.Service
	registry *prometheus.Registry
	engine   *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m, err := obsmetrics.New(reg)
	require.NoError(t, err)

	sources := sourceservice.New(sourceservice.Params{Log: log, Clock: clk})
	ledger := ledgerservice.NewService(ledgerservice.Params{Log: log, GenID: node, Clock: clk})
	engine := NewEngine(Params{
		Log:     log,
		Clock:   clk,
		Sources: sources,
		Ledger:  ledger,
		Engine:  config.NewStaticEngineConfigHolder(config.DefaultEngineConfig()),
		Metrics: m,
	})
	return &fixture{clock: clk, sources: sources, ledger: ledger, registry: reg, engine: engine}
}

func row(fields ...any) record.Record {
	out := make([]record.Field, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, record.Field{Name: fields[i].(string), Value: fields[i+1]})
	}
	return record.New(out...)
}

func (f *fixture) connect(t *testing.T, typ sourcedomain.Type, name string, recs ...record.Record) sourcedomain.DataSource {
	t.Helper()
	ctx := context.Background()
	ds, err := f.sources.Connect(ctx, sourcedomain.ConnectRequest{Type: typ, Name: name})
	require.NoError(t, err)
	_, err = f.sources.ReplaceRecords(ctx, ds.ID, recs)
	require.NoError(t, err)
	return ds
}

func TestCollectiveRevenueIsSumOfSources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.connect(t, sourcedomain.TypeCSV, "North",
		row("order_id", "1", "amount", 1000, "status", "delivered"),
		row("order_id", "2", "amount", 500, "status", "pending"),
	)
	b := f.connect(t, sourcedomain.TypeShopify, "South",
		row("name", "#1001", "total_price", "2,500.00", "fulfillment_status", "fulfilled"),
	)

	collective := f.engine.Snapshot(ctx).Metrics.TotalRevenue

	require.NoError(t, f.sources.SetView(ctx, a.ID))
	revA := f.engine.Snapshot(ctx).Metrics.TotalRevenue
	require.NoError(t, f.sources.SetView(ctx, b.ID))
	revB := f.engine.Snapshot(ctx).Metrics.TotalRevenue

	assert.InDelta(t, 1500.0, revA, 1e-9)
	assert.InDelta(t, 2500.0, revB, 1e-9)
	assert.InDelta(t, revA+revB, collective, 1e-9)
}

func TestLinkChangesAdSpendByLinkedSpend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shop := f.connect(t, sourcedomain.TypeShopify, "Shop",
		row("order_id", "1", "date", "2026-02-01", "amount", 4000, "status", "delivered"),
	)
	meta := f.connect(t, sourcedomain.TypeMetaAds, "Meta",
		row("date", "2026-02-01", "fb_spend", 300),
		row("date", "2026-02-02", "fb_spend", 200),
	)
	require.NoError(t, f.sources.SetView(ctx, shop.ID))

	before := f.engine.Snapshot(ctx).Metrics
	assert.Zero(t, before.AdSpend)

	_, err := f.sources.Link(ctx, shop.ID, meta.ID)
	require.NoError(t, err)
	linked := f.engine.Snapshot(ctx).Metrics
	assert.InDelta(t, 500.0, linked.AdSpend-before.AdSpend, 1e-9)
	assert.InDelta(t, 500.0, linked.LinkedAdSpend, 1e-9)
	assert.InDelta(t, before.NetProfit-500, linked.NetProfit, 1e-9)

	_, err = f.sources.Link(ctx, shop.ID, meta.ID)
	require.NoError(t, err)
	assert.InDelta(t, linked.AdSpend, f.engine.Snapshot(ctx).Metrics.AdSpend, 1e-9)

	_, err = f.sources.Unlink(ctx, shop.ID, meta.ID)
	require.NoError(t, err)
	after := f.engine.Snapshot(ctx).Metrics
	assert.InDelta(t, before.AdSpend, after.AdSpend, 1e-9)
	assert.InDelta(t, before.NetProfit, after.NetProfit, 1e-9)
}

func TestSnapshotIsMemoizedUntilInputsChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, sourcedomain.TypeCSV, "Orders", row("order_id", "1", "amount", 100))

	first := f.engine.Snapshot(ctx)
	f.clock.Advance(time.Minute)
	second := f.engine.Snapshot(ctx)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	_, err := f.ledger.AddEntry(ctx, ledgerdomain.CreateEntryRequest{Date: "2026-02-01", Category: "Payroll", Amount: 40})
	require.NoError(t, err)
	third := f.engine.Snapshot(ctx)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
	assert.True(t, third.GeneratedAt.After(first.GeneratedAt))
	assert.InDelta(t, 40.0, third.Metrics.TotalCapitalOutflow, 1e-9)

	require.NoError(t, f.engine.SetOpsPercent(12))
	fourth := f.engine.Snapshot(ctx)
	assert.NotEqual(t, third.Fingerprint, fourth.Fingerprint)
	assert.InDelta(t, 12.0, fourth.Metrics.EstimatedOpsPercent, 1e-9)

	expected := `
# HELP profitlens_snapshot_cache_total Snapshot cache lookups by result.
# TYPE profitlens_snapshot_cache_total counter
profitlens_snapshot_cache_total{result="hit"} 1
profitlens_snapshot_cache_total{result="miss"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "profitlens_snapshot_cache_total"))
}

func TestSetOpsPercentValidates(t *testing.T) {
	f := newFixture(t)
	assert.InDelta(t, 5.0, f.engine.OpsPercent(), 1e-9)
	assert.ErrorIs(t, f.engine.SetOpsPercent(-1), domain.ErrInvalidOpsPercent)
	assert.ErrorIs(t, f.engine.SetOpsPercent(101), domain.ErrInvalidOpsPercent)
	require.NoError(t, f.engine.SetOpsPercent(0))
	assert.Zero(t, f.engine.OpsPercent())
}

func TestPublishedWithoutStore(t *testing.T) {
	f := newFixture(t)
	_, ok := f.engine.Published(context.Background(), sourcedomain.CollectiveView)
	assert.False(t, ok)
}
