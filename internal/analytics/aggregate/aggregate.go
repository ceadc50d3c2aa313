package aggregate

import (
	"math"
	"sort"

	"github.com/smallbiznis/profitlens/internal/analytics/domain"
	ledgerdomain "github.com/smallbiznis/profitlens/internal/ledger/domain"
	"github.com/smallbiznis/profitlens/internal/record"
)

// Compute derives the BusinessMetrics of the view described by in. Only
// the active view's rows are summed; linked rows contribute platform spend.
func Compute(in domain.Inputs) domain.BusinessMetrics {
	cfg := in.Config
	var (
		t         Totals
		breakdown domain.SpendBreakdown
	)

	for _, o := range in.Orders {
		addPlatform(&breakdown, o.Spend)
		if o.AdInsight {
			continue
		}
		t = t.Add(OrderTotals(o, cfg.CostFallbackRatio))
	}
	for _, o := range in.Linked {
		breakdown.Linked += o.Spend.Total()
	}
	for _, e := range in.AdSpend {
		if e.AppliesTo(in.View) {
			breakdown.Manual += e.Amount
		}
	}

	platform := breakdown.Meta + breakdown.Google + breakdown.TikTok + breakdown.Snapchat
	t.AdSpend = platform + breakdown.Linked + breakdown.Manual
	p := Derive(t, cfg, in.OpsPercent)

	var outflow float64
	for _, e := range in.Ledger {
		outflow += e.Amount
	}
	rtoLoss := float64(t.Returned) * (cfg.ForwardShippingCost + cfg.ReverseShippingCost)

	m := domain.BusinessMetrics{
		TotalRevenue:   t.Revenue,
		TotalCost:      t.Cost,
		GrossProfit:    p.GrossProfit,
		GrossMargin:    p.GrossMargin,
		TotalOrders:    t.Orders,
		TotalDelivered: t.Delivered,
		TotalReturned:  t.Returned,
		TotalPending:   t.Pending,
		DeliveryRatio:  p.DeliveryRatio,
		ReturnRatio:    p.ReturnRatio,

		AdSpend:                 t.AdSpend,
		PlatformAdSpend:         platform + breakdown.Linked,
		ManualAdSpend:           breakdown.Manual,
		LinkedAdSpend:           breakdown.Linked,
		AdSpendBreakdown:        breakdown,
		ROAS:                    p.ROAS,
		POAS:                    p.POAS,
		CustomerAcquisitionCost: ratio(t.AdSpend, float64(t.Orders)),
		AverageOrderValue:       ratio(t.Revenue, float64(t.Orders)),

		EstimatedOpsPercent:   in.OpsPercent,
		OperatingCostEstimate: p.OperatingCost,
		ShippingCost:          p.ShippingCost,
		ReturnProcessingFee:   p.ReturnProcessingFee,
		NetProfit:             p.NetProfit,
		NetMargin:             p.NetMargin,
		RTOLoss:               rtoLoss,

		TotalCapitalOutflow: outflow,
		CashInHand:          p.NetProfit - outflow,
		InventoryHealth:     domain.InventoryHealthy,
	}
	if rtoLoss/math.Max(p.NetProfit, 1) > cfg.InventoryWarningRatio {
		m.InventoryHealth = domain.InventoryWarning
	}
	return m
}

// OrderTotals returns the additive contribution of one non-ad row.
func OrderTotals(o record.Order, costRatio float64) Totals {
	t := Totals{
		Revenue: o.Revenue,
		Cost:    o.CostOr(costRatio),
		Orders:  1,
	}
	switch o.State {
	case record.StateDelivered:
		t.Delivered = 1
	case record.StateReturned:
		t.Returned = 1
	default:
		t.Pending = 1
	}
	return t
}

func addPlatform(b *domain.SpendBreakdown, s record.Spend) {
	b.Meta += s.Meta
	b.Google += s.Google
	b.TikTok += s.TikTok
	b.Snapchat += s.Snapchat
}

// AutoAdSpend lists the platform spend of the view's rows and linked rows
// as derived entries, one per (day, platform), ordered by day then
// platform. Undated spend is omitted.
func AutoAdSpend(in domain.Inputs) []ledgerdomain.AdSpendEntry {
	type key struct{ day, platform string }
	sums := make(map[key]float64)
	add := func(day, platform string, amount float64) {
		if day == "" || amount == 0 {
			return
		}
		sums[key{day, platform}] += amount
	}
	collect := func(orders []record.Order) {
		for _, o := range orders {
			add(o.Day, "meta", o.Spend.Meta)
			add(o.Day, "google", o.Spend.Google)
			add(o.Day, "tiktok", o.Spend.TikTok)
			add(o.Day, "snapchat", o.Spend.Snapchat)
		}
	}
	collect(in.Orders)
	collect(in.Linked)

	out := make([]ledgerdomain.AdSpendEntry, 0, len(sums))
	for k, amount := range sums {
		out = append(out, ledgerdomain.AdSpendEntry{
			Date:           k.day,
			Platform:       k.platform,
			Amount:         amount,
			Source:         ledgerdomain.AdSpendAuto,
			TargetSourceID: in.View,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Platform < out[j].Platform
	})
	return out
}
