package aggregate

import (
	"fmt"
	"testing"

	"github.com/smallbiznis/profitlens/internal/analytics/domain"
	"github.com/smallbiznis/profitlens/internal/column"
	"github.com/smallbiznis/profitlens/internal/config"
	ledgerdomain "github.com/smallbiznis/profitlens/internal/ledger/domain"
	"github.com/smallbiznis/profitlens/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func project(sourceID string, adPlatform bool, recs ...record.Record) []record.Order {
	s := column.Infer(record.Columns(recs))
	return record.ProjectAll(recs, s, sourceID, adPlatform)
}

func row(fields ...any) record.Record {
	out := make([]record.Field, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, record.Field{Name: fields[i].(string), Value: fields[i+1]})
	}
	return record.New(out...)
}

func inputs(view string, orders []record.Order) domain.Inputs {
	return domain.Inputs{
		View:       view,
		Orders:     orders,
		OpsPercent: 5,
		Config:     config.DefaultEngineConfig(),
	}
}

func TestStatusScenario(t *testing.T) {
	var recs []record.Record
	for i := 0; i < 6; i++ {
		recs = append(recs, row("order_id", fmt.Sprintf("D%d", i), "amount", 1000, "status", "delivered"))
	}
	for i := 0; i < 3; i++ {
		recs = append(recs, row("order_id", fmt.Sprintf("R%d", i), "amount", 1000, "status", "returned"))
	}
	recs = append(recs, row("order_id", "P0", "amount", 1000, "status", "processing"))

	m := Compute(inputs("collective", project("csv", false, recs...)))
	assert.Equal(t, 10, m.TotalOrders)
	assert.Equal(t, 6, m.TotalDelivered)
	assert.Equal(t, 3, m.TotalReturned)
	assert.Equal(t, 1, m.TotalPending)
	assert.InDelta(t, 60.0, m.DeliveryRatio, 1e-9)
	assert.InDelta(t, 30.0, m.ReturnRatio, 1e-9)
	assert.Equal(t, m.TotalOrders, m.TotalDelivered+m.TotalReturned+m.TotalPending)
}

func TestNetProfitFormula(t *testing.T) {
	orders := project("csv", false,
		row("amount", 2000, "cost", 800, "status", "delivered", "fb_spend", 100),
		row("amount", 1000, "status", "returned"),
	)
	in := inputs("collective", orders)
	in.Ledger = []ledgerdomain.LedgerEntry{{Amount: 300}, {Amount: 200}}
	m := Compute(in)

	// cost: 800 + 0.6*1000
	assert.InDelta(t, 3000.0, m.TotalRevenue, 1e-9)
	assert.InDelta(t, 1400.0, m.TotalCost, 1e-9)
	assert.InDelta(t, 1600.0, m.GrossProfit, 1e-9)
	assert.InDelta(t, 100.0, m.AdSpend, 1e-9)
	assert.InDelta(t, 150.0, m.OperatingCostEstimate, 1e-9)
	assert.InDelta(t, 500.0, m.ShippingCost, 1e-9)
	assert.InDelta(t, 150.0, m.ReturnProcessingFee, 1e-9)
	assert.InDelta(t, 1600.0-100-150-500-150, m.NetProfit, 1e-9)
	assert.InDelta(t, 30.0, m.ROAS, 1e-9)
	assert.InDelta(t, m.NetProfit/100, m.POAS, 1e-9)
	assert.InDelta(t, 50.0, m.CustomerAcquisitionCost, 1e-9)
	assert.InDelta(t, 500.0, m.RTOLoss, 1e-9)
	assert.InDelta(t, 500.0, m.TotalCapitalOutflow, 1e-9)
	assert.InDelta(t, m.NetProfit-500, m.CashInHand, 1e-9)
	// rtoLoss 500 / netProfit 700 > 0.5
	assert.Equal(t, domain.InventoryWarning, m.InventoryHealth)
}

func TestZeroAdSpendGuards(t *testing.T) {
	for _, revenue := range []float64{0, 1500} {
		m := Compute(inputs("collective", project("csv", false, row("amount", revenue, "status", "delivered"))))
		assert.Zero(t, m.AdSpend)
		assert.Zero(t, m.ROAS)
		assert.Zero(t, m.POAS)
		assert.Zero(t, m.CustomerAcquisitionCost)
	}
}

func TestMissingRevenueColumn(t *testing.T) {
	m := Compute(inputs("collective", project("csv", false,
		row("order_id", "1", "city", "Lahore"),
		row("order_id", "2", "city", "Karachi"),
	)))
	assert.Zero(t, m.TotalRevenue)
	assert.Zero(t, m.TotalCost)
	assert.Zero(t, m.GrossProfit)
	assert.Equal(t, 2, m.TotalOrders)
}

func TestEmptyInputsAreZero(t *testing.T) {
	m := Compute(inputs("collective", nil))
	assert.Zero(t, m.TotalRevenue)
	assert.Zero(t, m.NetProfit)
	assert.Zero(t, m.DeliveryRatio)
	assert.Equal(t, domain.InventoryHealthy, m.InventoryHealth)
}

func TestManualAdSpendScoping(t *testing.T) {
	manual := []ledgerdomain.AdSpendEntry{{Amount: 5000, Source: ledgerdomain.AdSpendManual, TargetSourceID: "shopA", Date: "2026-02-01"}}
	for view, want := range map[string]float64{"shopA": 5000, "collective": 5000, "shopB": 0} {
		in := inputs(view, nil)
		in.AdSpend = manual
		m := Compute(in)
		assert.InDelta(t, want, m.AdSpend, 1e-9, view)
		assert.InDelta(t, want, m.ManualAdSpend, 1e-9, view)
	}
}

func TestAdInsightRowsAreNotOrders(t *testing.T) {
	orders := append(
		project("shop", false, row("order_id", "1", "amount", 1000, "status", "delivered")),
		project("meta", true, row("date", "2026-02-01", "fb_spend", 200), row("date", "2026-02-02", "fb_spend", 50))...,
	)
	orders = append(orders, project("google", false, row("date", "2026-02-01", "google_spend", 75))...)

	m := Compute(inputs("collective", orders))
	assert.Equal(t, 1, m.TotalOrders)
	assert.InDelta(t, 325.0, m.AdSpend, 1e-9)
	assert.InDelta(t, 250.0, m.AdSpendBreakdown.Meta, 1e-9)
	assert.InDelta(t, 75.0, m.AdSpendBreakdown.Google, 1e-9)
}

func TestLinkedSpendOnlyFromLinkedRows(t *testing.T) {
	in := inputs("shop", project("shop", false, row("order_id", "1", "amount", 1000)))
	base := Compute(in).AdSpend

	in.Linked = project("meta", true, row("date", "2026-02-01", "fb_spend", 120), row("date", "2026-02-02", "fb_spend", 80))
	m := Compute(in)
	assert.InDelta(t, base+200, m.AdSpend, 1e-9)
	assert.InDelta(t, 200.0, m.LinkedAdSpend, 1e-9)
}

func TestAutoAdSpend(t *testing.T) {
	in := inputs("collective", project("meta", true,
		row("date", "2026-02-02", "fb_spend", 10),
		row("date", "2026-02-01", "fb_spend", 20),
		row("date", "2026-02-01", "fb_spend", 5),
		row("date", "bad", "fb_spend", 99),
	))
	entries := AutoAdSpend(in)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-02-01", entries[0].Date)
	assert.InDelta(t, 25.0, entries[0].Amount, 1e-9)
	assert.Equal(t, ledgerdomain.AdSpendAuto, entries[0].Source)
	assert.Equal(t, "meta", entries[0].Platform)
}
