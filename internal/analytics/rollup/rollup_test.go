package rollup

import (
	"testing"
	"time"

	"github.com/smallbiznis/profitlens/internal/analytics/domain"
	"github.com/smallbiznis/profitlens/internal/column"
	"github.com/smallbiznis/profitlens/internal/config"
	ledgerdomain "github.com/smallbiznis/profitlens/internal/ledger/domain"
	"github.com/smallbiznis/profitlens/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(fields ...any) record.Record {
	out := make([]record.Field, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, record.Field{Name: fields[i].(string), Value: fields[i+1]})
	}
	return record.New(out...)
}

func project(sourceID string, adPlatform bool, recs ...record.Record) []record.Order {
	return record.ProjectAll(recs, column.Infer(record.Columns(recs)), sourceID, adPlatform)
}

func TestWeekKey(t *testing.T) {
	cases := map[string]string{
		"2026-01-01": "2026-W01", // Thursday
		"2026-01-03": "2026-W01", // Saturday
		"2026-01-04": "2026-W02", // Sunday starts a new week
		"2026-01-31": "2026-W05",
		"2026-02-01": "2026-W06",
		"2025-12-31": "2025-W53",
	}
	for day, want := range cases {
		d, err := time.Parse(time.DateOnly, day)
		require.NoError(t, err)
		assert.Equal(t, want, WeekKey(d), day)
	}
}

func TestMonthKeyAndLabel(t *testing.T) {
	d := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-02", MonthKey(d))
	assert.Equal(t, "Feb 2026", monthLabel(d))
}

func sampleInputs() domain.Inputs {
	orders := project("shop", false,
		row("date", "2026-01-30", "amount", 1200, "status", "delivered"),
		row("date", "2026-01-31", "amount", 800, "cost", 300, "status", "returned"),
		row("date", "2026-02-01", "amount", 1500, "status", "delivered"),
		row("date", "2026-02-03", "amount", 700, "status", "pending"),
		row("date", "2026-02-09", "amount", 400, "status", "delivered"),
		row("date", "not-a-date", "amount", 9999, "status", "delivered"),
	)
	orders = append(orders, project("meta", true,
		row("date", "2026-01-31", "fb_spend", 150),
		row("date", "2026-02-05", "fb_spend", 90),
	)...)
	return domain.Inputs{
		View:       "collective",
		Orders:     orders,
		OpsPercent: 5,
		Config:     config.DefaultEngineConfig(),
		AdSpend: []ledgerdomain.AdSpendEntry{
			{Date: "2026-02-02", Amount: 60, Source: ledgerdomain.AdSpendManual},
		},
	}
}

func TestUndatedRowsAreExcluded(t *testing.T) {
	s := Build(sampleInputs())
	var revenue float64
	for _, d := range s.Daily {
		revenue += d.Revenue
	}
	assert.InDelta(t, 4600.0, revenue, 1e-9)
}

func TestDailySortedAndSpendOnlyDaysPresent(t *testing.T) {
	s := Build(sampleInputs())
	var keys []string
	for _, d := range s.Daily {
		keys = append(keys, d.PeriodKey)
	}
	assert.Equal(t, []string{"2026-01-30", "2026-01-31", "2026-02-01", "2026-02-02", "2026-02-03", "2026-02-05", "2026-02-09"}, keys)

	spendOnly := s.Daily[3]
	assert.Zero(t, spendOnly.Orders)
	assert.InDelta(t, 60.0, spendOnly.AdSpend, 1e-9)
	assert.InDelta(t, -60.0, spendOnly.NetProfit, 1e-9)
}

func TestRollupsEqualSumOfDays(t *testing.T) {
	s := Build(sampleInputs())

	check := func(buckets []domain.PeriodProfitability, keyOf func(time.Time) string) {
		for _, b := range buckets {
			var net, revenue, spend float64
			var orders int
			for _, d := range s.Daily {
				day, err := time.Parse(time.DateOnly, d.PeriodKey)
				require.NoError(t, err)
				if keyOf(day) != b.PeriodKey {
					continue
				}
				net += d.NetProfit
				revenue += d.Revenue
				spend += d.AdSpend
				orders += d.Orders
			}
			assert.InDelta(t, net, b.NetProfit, 1e-6, b.PeriodKey)
			assert.InDelta(t, revenue, b.Revenue, 1e-6, b.PeriodKey)
			assert.InDelta(t, spend, b.AdSpend, 1e-6, b.PeriodKey)
			assert.Equal(t, orders, b.Orders, b.PeriodKey)
		}
	}
	check(s.Weekly, WeekKey)
	check(s.Monthly, MonthKey)

	require.Len(t, s.Monthly, 2)
	assert.Equal(t, "2026-01", s.Monthly[0].PeriodKey)
	assert.Equal(t, "Jan 2026", s.Monthly[0].Period)
	assert.Equal(t, "2026-02", s.Monthly[1].PeriodKey)
}

func TestLinkedSpendByDate(t *testing.T) {
	in := domain.Inputs{
		View:   "shop",
		Orders: project("shop", false, row("date", "2026-02-01", "amount", 1000)),
		Linked: project("meta", true, row("date", "2026-02-01", "fb_spend", 100), row("date", "2026-02-02", "fb_spend", 40)),
		Config: config.DefaultEngineConfig(),
	}
	s := Build(in)
	require.Len(t, s.Daily, 2)
	assert.InDelta(t, 100.0, s.Daily[0].AdSpend, 1e-9)
	assert.InDelta(t, 10.0, s.Daily[0].ROAS, 1e-9)
	assert.InDelta(t, 40.0, s.Daily[1].AdSpend, 1e-9)
}
