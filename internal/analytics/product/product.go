// Package product analyzes per-product profitability, city delivery rates
// and courier performance.
package product

import (
	"sort"

	"github.com/smallbiznis/profitlens/internal/analytics/domain"
	"github.com/smallbiznis/profitlens/internal/record"
)

const (
	UnknownProduct = "Unknown Product"
	UnknownCity    = "Unknown"
	UnknownCourier = "Unknown"
)

type productAcc struct {
	name      string
	orders    int
	delivered int
	returned  int
	revenue   float64
	cost      float64
}

// Analyze groups the view's orders by product. totalAdSpend is allocated by
// revenue share. Products are ordered by revenue, highest first, ties in
// first-seen order.
func Analyze(in domain.Inputs, totalAdSpend float64, estimator InventoryEstimator) []domain.ProductPerformance {
	if estimator == nil {
		estimator = NameHashEstimator{}
	}
	cfg := in.Config

	var (
		order        []*productAcc
		byName       = make(map[string]*productAcc)
		totalRevenue float64
	)
	for _, o := range in.Orders {
		if o.AdInsight {
			continue
		}
		name := o.Product
		if name == "" {
			name = UnknownProduct
		}
		acc, ok := byName[name]
		if !ok {
			acc = &productAcc{name: name}
			byName[name] = acc
			order = append(order, acc)
		}
		acc.orders++
		acc.revenue += o.Revenue
		acc.cost += o.CostOr(cfg.ProductCostFallbackRatio)
		switch o.State {
		case record.StateDelivered:
			acc.delivered++
		case record.StateReturned:
			acc.returned++
		}
		totalRevenue += o.Revenue
	}

	out := make([]domain.ProductPerformance, 0, len(order))
	for _, acc := range order {
		share := 0.0
		if totalRevenue != 0 {
			share = acc.revenue / totalRevenue
		}
		adSpend := totalAdSpend * share
		shipping := float64(acc.delivered+acc.returned) * cfg.ShippingCostPerOrder
		returnFee := float64(acc.returned) * cfg.ReturnProcessingFee
		ops := acc.revenue * in.OpsPercent / 100
		net := acc.revenue - acc.cost - adSpend - ops - shipping - returnFee

		poas := 0.0
		if adSpend != 0 {
			poas = net / adSpend
		}

		inventory := estimator.Estimate(acc.name)
		burn := 0.0
		if cfg.BurnWindowDays > 0 {
			burn = float64(acc.orders) / cfg.BurnWindowDays
		}
		days := cfg.DaysOfStockSentinel
		if burn != 0 {
			days = float64(inventory) / burn
		}

		out = append(out, domain.ProductPerformance{
			Name:         acc.name,
			Orders:       acc.orders,
			Delivered:    acc.delivered,
			Returned:     acc.returned,
			Revenue:      acc.revenue,
			Cost:         acc.cost,
			RevenueShare: share * 100,
			AdSpend:      adSpend,
			NetProfit:    net,
			POAS:         poas,
			Inventory:    inventory,
			BurnRate:     burn,
			DaysOfStock:  days,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out
}

// Cities summarizes revenue and delivery rate per city.
func Cities(orders []record.Order) map[string]domain.CitySummary {
	out := make(map[string]domain.CitySummary)
	for _, o := range orders {
		if o.AdInsight {
			continue
		}
		city := o.City
		if city == "" {
			city = UnknownCity
		}
		s := out[city]
		s.City = city
		s.Revenue += o.Revenue
		s.Orders++
		if o.State == record.StateDelivered {
			s.Delivered++
		}
		out[city] = s
	}
	for city, s := range out {
		if s.Orders > 0 {
			s.DeliveryRate = float64(s.Delivered) / float64(s.Orders) * 100
		}
		out[city] = s
	}
	return out
}

// Couriers ranks couriers per city by delivered/total. The first courier
// seen wins a tie, so the result depends on row order.
func Couriers(orders []record.Order) map[string]domain.CourierInsight {
	type cityAcc struct {
		order []string
		stats map[string]*domain.CourierStat
	}
	cities := make(map[string]*cityAcc)
	for _, o := range orders {
		if o.AdInsight {
			continue
		}
		city := o.City
		if city == "" {
			city = UnknownCity
		}
		courier := o.Courier
		if courier == "" {
			courier = UnknownCourier
		}
		acc, ok := cities[city]
		if !ok {
			acc = &cityAcc{stats: make(map[string]*domain.CourierStat)}
			cities[city] = acc
		}
		stat, ok := acc.stats[courier]
		if !ok {
			stat = &domain.CourierStat{Courier: courier}
			acc.stats[courier] = stat
			acc.order = append(acc.order, courier)
		}
		stat.Total++
		if o.State == record.StateDelivered {
			stat.Delivered++
		}
	}

	out := make(map[string]domain.CourierInsight, len(cities))
	for city, acc := range cities {
		insight := domain.CourierInsight{City: city, WinnerRate: -1}
		for _, name := range acc.order {
			stat := *acc.stats[name]
			stat.Rate = float64(stat.Delivered) / float64(stat.Total)
			insight.Couriers = append(insight.Couriers, stat)
			if stat.Rate > insight.WinnerRate {
				insight.Winner = stat.Courier
				insight.WinnerRate = stat.Rate
			}
		}
		out[city] = insight
	}
	return out
}
