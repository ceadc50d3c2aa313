package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/smallbiznis/profitlens/internal/record"
	"github.com/smallbiznis/profitlens/internal/source/domain"
	"github.com/smallbiznis/profitlens/internal/source/repository"
	"github.com/smallbiznis/profitlens/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newRegistry(t *testing.T, conn *gorm.DB) *Registry {
	t.Helper()
	return New(Params{
		DB:    conn,
		Log:   zaptest.NewLogger(t),
		Clock: clock.NewFakeClock(time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	}).(*Registry)
}

func row(fields ...any) record.Record {
	out := make([]record.Field, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, record.Field{Name: fields[i].(string), Value: fields[i+1]})
	}
	return record.New(out...)
}

func TestConnectValidates(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()

	_, err := r.Connect(ctx, domain.ConnectRequest{Type: "fax", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	_, err = r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeCSV, Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	ds, err := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeShopify, Name: "Lahore Store", Currency: "pkr"})
	require.NoError(t, err)
	assert.Regexp(t, `^lahore-store-[0-9a-f]{8}$`, ds.ID)
	assert.Equal(t, "PKR", ds.Currency)
	assert.Equal(t, domain.StatusConnected, ds.Status)
}

func TestLinkIsIdempotentAndUnlinkReverts(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()
	shop, _ := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeShopify, Name: "Shop"})
	ads, _ := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeMetaAds, Name: "Meta"})

	_, err := r.Link(ctx, shop.ID, shop.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidLink)
	_, err = r.Link(ctx, shop.ID, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	linked, err := r.Link(ctx, shop.ID, ads.ID)
	require.NoError(t, err)
	linked, err = r.Link(ctx, shop.ID, ads.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ads.ID}, []string(linked.LinkedSourceIDs))

	unlinked, err := r.Unlink(ctx, shop.ID, ads.ID)
	require.NoError(t, err)
	assert.Empty(t, unlinked.LinkedSourceIDs)
}

func TestDisconnectCleansLinksAndView(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.DataSource{}))

	r := newRegistry(t, conn)
	ctx := context.Background()
	shop, _ := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeShopify, Name: "Shop"})
	ads, _ := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeMetaAds, Name: "Meta"})
	_, err = r.Link(ctx, shop.ID, ads.ID)
	require.NoError(t, err)
	require.NoError(t, r.SetView(ctx, ads.ID))

	require.NoError(t, r.Disconnect(ctx, ads.ID))
	assert.Equal(t, domain.CollectiveView, r.View())

	got, err := r.Get(shop.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LinkedSourceIDs)

	assert.ErrorIs(t, r.Disconnect(ctx, ads.ID), domain.ErrNotFound)

	restored := newRegistry(t, conn)
	require.NoError(t, restored.Load(ctx))
	list := restored.List()
	require.Len(t, list, 1)
	assert.Equal(t, shop.ID, list[0].ID)
	assert.Empty(t, list[0].LinkedSourceIDs)
}

func TestSetViewRejectsUnknownSource(t *testing.T) {
	r := newRegistry(t, nil)
	assert.ErrorIs(t, r.SetView(context.Background(), "nope"), domain.ErrInvalidView)
	require.NoError(t, r.SetView(context.Background(), ""))
	assert.Equal(t, domain.CollectiveView, r.View())
}

func TestCollectiveConcatenatesInConnectionOrder(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()
	a, _ := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeCSV, Name: "A"})
	b, _ := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeCSV, Name: "B"})

	_, err := r.ReplaceRecords(ctx, a.ID, []record.Record{row("order_id", "1", "amount", 100)})
	require.NoError(t, err)
	_, err = r.ReplaceRecords(ctx, b.ID, []record.Record{row("order_id", "1", "amount", 100), row("order_id", "2", "amount", 50)})
	require.NoError(t, err)

	state := r.State()
	orders := state.ActiveOrders()
	require.Len(t, orders, 3)
	assert.Equal(t, a.ID, orders[0].SourceID)
	assert.Equal(t, b.ID, orders[1].SourceID)

	require.NoError(t, r.SetView(ctx, b.ID))
	assert.Len(t, r.State().ActiveOrders(), 2)
}

func TestActiveRecordsSortedNewestFirst(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()
	a, _ := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeCSV, Name: "A"})
	_, err := r.ReplaceRecords(ctx, a.ID, []record.Record{
		row("order_id", "old", "date", "2026-01-01"),
		row("order_id", "undated", "date", "garbage"),
		row("order_id", "new", "date", "2026-02-05"),
		row("order_id", "mid", "date", "2026-01-15"),
	})
	require.NoError(t, err)

	var ids []string
	for _, rec := range r.ActiveRecords() {
		ids = append(ids, record.Text(rec, "order_id"))
	}
	assert.Equal(t, []string{"new", "mid", "old", "undated"}, ids)
}

func TestSyncFailureKeepsRecords(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()
	shop, _ := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeShopify, Name: "Shop"})
	_, err := r.ReplaceRecords(ctx, shop.ID, []record.Record{row("order_id", "1"), row("order_id", "2")})
	require.NoError(t, err)

	require.NoError(t, r.MarkSyncing(ctx, shop.ID))
	require.NoError(t, r.MarkSyncFailed(ctx, shop.ID, errors.New("relay_unavailable")))

	got, err := r.Get(shop.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Equal(t, "relay_unavailable", got.LastError)
	assert.Equal(t, 2, got.RecordCount)

	recs, err := r.Records(shop.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestAppendAndReplaceUpdateDerivedFields(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()
	csv, _ := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeCSV, Name: "Upload"})

	ds, err := r.ReplaceRecords(ctx, csv.ID, []record.Record{row("date", "2026-02-01", "amount", 10)})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.RecordCount)
	assert.Equal(t, []string{"date", "amount"}, ds.Columns)
	require.NotNil(t, ds.LastSync)

	ds, err = r.AppendRecords(ctx, csv.ID, []record.Record{row("date", "2026-02-02", "amount", 20, "city", "Karachi")})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.RecordCount)
	assert.Equal(t, []string{"date", "amount", "city"}, ds.Columns)
}

func TestRewriteBumpsVersionOnlyOnChange(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()
	csv, _ := r.Connect(ctx, domain.ConnectRequest{Type: domain.TypeCSV, Name: "Upload"})
	_, err := r.ReplaceRecords(ctx, csv.ID, []record.Record{row("order_id", "1")})
	require.NoError(t, err)

	before := r.State().Version
	n, err := r.Rewrite(ctx, func(domain.DataSource, []record.Record) ([]record.Record, bool) { return nil, false })
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, before, r.State().Version)

	n, err = r.Rewrite(ctx, func(_ domain.DataSource, recs []record.Record) ([]record.Record, bool) {
		return append(recs, row("order_id", "2")), true
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Greater(t, r.State().Version, before)
	assert.Equal(t, 2, r.State().Sources[0].RecordCount)
}
