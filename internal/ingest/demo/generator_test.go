package demo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/smallbiznis/profitlens/internal/column"
	"github.com/smallbiznis/profitlens/internal/record"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchJSON(t *testing.T, g *Generator, ds sourcedomain.DataSource) string {
	t.Helper()
	recs, err := g.Fetch(context.Background(), ds)
	require.NoError(t, err)
	b, err := json.Marshal(recs)
	require.NoError(t, err)
	return string(b)
}

func TestGeneratorIsDeterministicPerSource(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC))
	g := NewGenerator(clk)
	shop := sourcedomain.DataSource{ID: "lahore-store-1a2b3c4d", Type: sourcedomain.TypeShopify}
	other := sourcedomain.DataSource{ID: "karachi-store-9f8e7d6c", Type: sourcedomain.TypeShopify}

	first := fetchJSON(t, g, shop)
	clk.Advance(3 * time.Hour)
	assert.Equal(t, first, fetchJSON(t, g, shop))
	assert.NotEqual(t, first, fetchJSON(t, g, other))
}

func TestGeneratorOrders(t *testing.T) {
	g := NewGenerator(clock.NewFakeClock(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)))
	recs, err := g.Fetch(context.Background(), sourcedomain.DataSource{ID: "shop", Type: sourcedomain.TypeShopify})
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	schema := column.Infer(record.Columns(recs))
	assert.Equal(t, "order_id", schema.OrderID)
	assert.Equal(t, "amount", schema.Revenue)
	assert.Equal(t, "status", schema.Status)
	assert.Equal(t, column.VerificationStatus, schema.Verification)

	orders := record.ProjectAll(recs, schema, "shop", false)
	days := map[string]bool{}
	for _, o := range orders {
		assert.False(t, o.AdInsight)
		assert.Positive(t, o.Revenue)
		require.True(t, o.Dated())
		days[o.Day] = true
	}
	assert.Len(t, days, defaultDays)
	assert.True(t, days["2026-02-10"])
	assert.True(t, days["2026-01-12"])
}

func TestGeneratorInsights(t *testing.T) {
	g := NewGenerator(clock.NewFakeClock(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)))
	recs, err := g.Fetch(context.Background(), sourcedomain.DataSource{ID: "tt", Type: sourcedomain.TypeTikTokAds})
	require.NoError(t, err)
	require.Len(t, recs, defaultDays)

	orders := record.ProjectAll(recs, column.Infer(record.Columns(recs)), "tt", true)
	for _, o := range orders {
		assert.True(t, o.AdInsight)
		assert.Positive(t, o.Spend.TikTok)
		assert.Zero(t, o.Spend.Meta)
	}
}

func TestGeneratorRejectsUploadOnlySources(t *testing.T) {
	g := NewGenerator(nil)
	_, err := g.Fetch(context.Background(), sourcedomain.DataSource{ID: "csv", Type: sourcedomain.TypeCSV})
	assert.Error(t, err)
}
