package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/profitlens/internal/analytics/domain"
	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type staticSource domain.Snapshot

func (s staticSource) Snapshot(context.Context) domain.Snapshot { return domain.Snapshot(s) }

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		View: "collective",
		Metrics: domain.BusinessMetrics{
			TotalRevenue:    125000,
			NetProfit:       18250.5,
			NetMargin:       14.6,
			TotalOrders:     42,
			InventoryHealth: domain.InventoryHealthy,
		},
		Monthly: []domain.PeriodProfitability{
			{Period: "Jan 2026", PeriodKey: "2026-01", Revenue: 60000, Orders: 20, NetProfit: 9000},
			{Period: "Feb 2026", PeriodKey: "2026-02", Revenue: 65000, Orders: 22, NetProfit: 9250.5},
		},
		Products: []domain.ProductPerformance{
			{Name: "Widget", Orders: 30, Revenue: 90000, NetProfit: 15000, DaysOfStock: 120},
			{Name: "Gadget", Orders: 12, Revenue: 35000, NetProfit: 3250.5, DaysOfStock: 999},
		},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	doc, err := Render(sampleSnapshot(), Meta{GeneratedAt: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.NotEmpty(t, doc)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestRenderEmptySnapshot(t *testing.T) {
	doc, err := Render(domain.Snapshot{View: "collective"}, Meta{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestServiceGenerate(t *testing.T) {
	svc := NewService(Params{
		Log:    zaptest.NewLogger(t),
		Clock:  clock.NewFakeClock(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)),
		Source: staticSource(sampleSnapshot()),
	})
	doc, err := svc.Generate(context.Background(), "Lahore Store")
	require.NoError(t, err)
	assert.NotEmpty(t, doc)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "1,250.50", money(1250.5))
	assert.Equal(t, "-3,000.00", money(-3000))
	assert.Equal(t, "14.6%", percent(14.6))
}
