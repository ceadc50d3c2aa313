// Package aggregate computes the business metrics snapshot of a view.
package aggregate

import "github.com/smallbiznis/profitlens/internal/config"

// Totals are the additive sums a profitability row is derived from.
type Totals struct {
	Revenue   float64
	Cost      float64
	AdSpend   float64
	Orders    int
	Delivered int
	Returned  int
	Pending   int
}

func (t Totals) Add(o Totals) Totals {
	return Totals{
		Revenue:   t.Revenue + o.Revenue,
		Cost:      t.Cost + o.Cost,
		AdSpend:   t.AdSpend + o.AdSpend,
		Orders:    t.Orders + o.Orders,
		Delivered: t.Delivered + o.Delivered,
		Returned:  t.Returned + o.Returned,
		Pending:   t.Pending + o.Pending,
	}
}

// Profit holds the fields derived from Totals. Every field except the
// ratios is linear in Totals, so buckets can be summed.
type Profit struct {
	GrossProfit         float64
	ShippingCost        float64
	ReturnProcessingFee float64
	OperatingCost       float64
	NetProfit           float64
	GrossMargin         float64
	NetMargin           float64
	ROAS                float64
	POAS                float64
	DeliveryRatio       float64
	ReturnRatio         float64
}

// Derive applies the profitability formulas to t.
func Derive(t Totals, cfg config.EngineConfig, opsPercent float64) Profit {
	p := Profit{
		GrossProfit:         t.Revenue - t.Cost,
		ShippingCost:        float64(t.Delivered+t.Returned) * cfg.ShippingCostPerOrder,
		ReturnProcessingFee: float64(t.Returned) * cfg.ReturnProcessingFee,
		OperatingCost:       t.Revenue * opsPercent / 100,
	}
	p.NetProfit = p.GrossProfit - t.AdSpend - p.OperatingCost - p.ShippingCost - p.ReturnProcessingFee
	p.GrossMargin = percent(p.GrossProfit, t.Revenue)
	p.NetMargin = percent(p.NetProfit, t.Revenue)
	p.ROAS = ratio(t.Revenue, t.AdSpend)
	p.POAS = ratio(p.NetProfit, t.AdSpend)
	p.DeliveryRatio = percent(float64(t.Delivered), float64(t.Orders))
	p.ReturnRatio = percent(float64(t.Returned), float64(t.Orders))
	return p
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func percent(num, den float64) float64 {
	return ratio(num, den) * 100
}
