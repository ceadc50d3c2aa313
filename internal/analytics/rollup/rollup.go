// Package rollup buckets profitability by day, week and month.
package rollup

import (
	"sort"
	"time"

	"github.com/smallbiznis/profitlens/internal/analytics/aggregate"
	"github.com/smallbiznis/profitlens/internal/analytics/domain"
)

// Series holds the three granularities, each sorted by period key.
type Series struct {
	Daily   []domain.PeriodProfitability
	Weekly  []domain.PeriodProfitability
	Monthly []domain.PeriodProfitability
}

type bucket struct {
	key    string
	label  string
	totals aggregate.Totals
}

// Build buckets the view's dated rows by day, then rolls the daily sums
// into weeks and months. Undated rows are left out of every bucket.
func Build(in domain.Inputs) Series {
	days := make(map[string]*aggregate.Totals)
	at := func(day string) *aggregate.Totals {
		t, ok := days[day]
		if !ok {
			t = &aggregate.Totals{}
			days[day] = t
		}
		return t
	}

	for _, o := range in.Orders {
		if !o.Dated() {
			continue
		}
		t := at(o.Day)
		t.AdSpend += o.Spend.Total()
		if o.AdInsight {
			continue
		}
		*t = t.Add(aggregate.OrderTotals(o, in.Config.CostFallbackRatio))
	}
	for _, o := range in.Linked {
		if o.Dated() && o.Spend.Total() != 0 {
			at(o.Day).AdSpend += o.Spend.Total()
		}
	}
	for _, e := range in.AdSpend {
		if e.Date == "" || !e.AppliesTo(in.View) {
			continue
		}
		at(e.Date).AdSpend += e.Amount
	}

	dayKeys := make([]string, 0, len(days))
	for k := range days {
		dayKeys = append(dayKeys, k)
	}
	sort.Strings(dayKeys)

	weeks := make(map[string]*bucket)
	months := make(map[string]*bucket)
	daily := make([]bucket, 0, len(dayKeys))
	for _, k := range dayKeys {
		t, err := time.Parse(time.DateOnly, k)
		if err != nil {
			continue
		}
		totals := *days[k]
		daily = append(daily, bucket{key: k, label: dayLabel(t), totals: totals})
		roll(weeks, WeekKey(t), weekLabel(t), totals)
		roll(months, MonthKey(t), monthLabel(t), totals)
	}

	return Series{
		Daily:   rows(daily, in),
		Weekly:  rows(sorted(weeks), in),
		Monthly: rows(sorted(months), in),
	}
}

func roll(into map[string]*bucket, key, label string, t aggregate.Totals) {
	b, ok := into[key]
	if !ok {
		b = &bucket{key: key, label: label}
		into[key] = b
	}
	b.totals = b.totals.Add(t)
}

func sorted(m map[string]*bucket) []bucket {
	out := make([]bucket, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func rows(buckets []bucket, in domain.Inputs) []domain.PeriodProfitability {
	out := make([]domain.PeriodProfitability, 0, len(buckets))
	for _, b := range buckets {
		p := aggregate.Derive(b.totals, in.Config, in.OpsPercent)
		out = append(out, domain.PeriodProfitability{
			Period:              b.label,
			PeriodKey:           b.key,
			Revenue:             b.totals.Revenue,
			Cost:                b.totals.Cost,
			AdSpend:             b.totals.AdSpend,
			Orders:              b.totals.Orders,
			Delivered:           b.totals.Delivered,
			Returned:            b.totals.Returned,
			Pending:             b.totals.Pending,
			ShippingCost:        p.ShippingCost,
			ReturnProcessingFee: p.ReturnProcessingFee,
			OperatingCost:       p.OperatingCost,
			GrossProfit:         p.GrossProfit,
			NetProfit:           p.NetProfit,
			GrossMargin:         p.GrossMargin,
			NetMargin:           p.NetMargin,
			ROAS:                p.ROAS,
			POAS:                p.POAS,
			DeliveryRatio:       p.DeliveryRatio,
			ReturnRatio:         p.ReturnRatio,
		})
	}
	return out
}
