// Package demo generates deterministic sample data for demo mode.
package demo

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/smallbiznis/profitlens/internal/column"
	"github.com/smallbiznis/profitlens/internal/record"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
)

const (
	defaultDays   = 30
	ordersPerDay  = 4
	orderIDOffset = 1000
)

var (
	products = []struct {
		name  string
		price float64
	}{
		{"Classic Leather Wallet", 2499},
		{"Smart Fitness Band", 4999},
		{"Cotton Kurta Set", 3499},
		{"Wireless Earbuds", 5999},
		{"Ceramic Dinner Set", 7999},
	}
	cities   = []string{"Karachi", "Lahore", "Islamabad", "Faisalabad", "Multan"}
	couriers = []string{"PostEx", "DEX", "Leopards", "TCS"}
)

// Generator produces the same records for the same source id and day.
type Generator struct {
	clock clock.Clock
	days  int
}

func NewGenerator(clk clock.Clock) *Generator {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Generator{clock: clk, days: defaultDays}
}

func (g *Generator) Fetch(ctx context.Context, ds sourcedomain.DataSource) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	today := g.clock.Now().UTC().Truncate(24 * time.Hour)
	rng := rand.New(rand.NewPCG(seed(ds.ID), uint64(today.Unix())))

	switch {
	case ds.Type.IsAdPlatform():
		return g.insights(rng, ds.Type, today), nil
	case ds.Type.IsCourier():
		return g.shipments(rng, ds.Type, today), nil
	case ds.Type.Syncable():
		return g.orders(rng, today), nil
	default:
		return nil, fmt.Errorf("demo: unsupported source type %q", ds.Type)
	}
}

func seed(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func (g *Generator) eachDay(today time.Time, fn func(day string)) {
	for i := g.days - 1; i >= 0; i-- {
		fn(today.AddDate(0, 0, -i).Format(time.DateOnly))
	}
}

func (g *Generator) orders(rng *rand.Rand, today time.Time) []record.Record {
	var out []record.Record
	n := 0
	g.eachDay(today, func(day string) {
		for range rng.IntN(ordersPerDay*2) + 1 {
			n++
			p := products[rng.IntN(len(products))]
			qty := rng.IntN(2) + 1
			amount := p.price * float64(qty)
			status, verification := orderStatus(rng)

			fields := []record.Field{
				{Name: "order_id", Value: fmt.Sprintf("#%d", orderIDOffset+n)},
				{Name: "date", Value: day},
				{Name: "product", Value: p.name},
				{Name: "city", Value: cities[rng.IntN(len(cities))]},
				{Name: "phone", Value: fmt.Sprintf("03%02d%07d", rng.IntN(50), rng.IntN(10_000_000))},
				{Name: "courier", Value: couriers[rng.IntN(len(couriers))]},
				{Name: "amount", Value: amount},
				{Name: "status", Value: status},
				{Name: column.VerificationStatus, Value: verification},
			}
			// about a third of the rows carry no cost so fallbacks are exercised
			if rng.IntN(3) > 0 {
				fields = append(fields, record.Field{Name: "cost", Value: round(amount * (0.35 + rng.Float64()*0.2))})
			}
			out = append(out, record.New(fields...))
		}
	})
	return out
}

func orderStatus(rng *rand.Rand) (string, string) {
	switch r := rng.IntN(100); {
	case r < 62:
		return "Delivered", record.VerificationConfirmed
	case r < 78:
		return "Returned", record.VerificationConfirmed
	case r < 84:
		return "Cancelled", record.VerificationCanceled
	default:
		return "In Transit", record.VerificationPending
	}
}

func (g *Generator) insights(rng *rand.Rand, t sourcedomain.Type, today time.Time) []record.Record {
	spendKey := column.MetaSpend
	switch t {
	case sourcedomain.TypeGoogleAds:
		spendKey = column.GoogleSpend
	case sourcedomain.TypeTikTokAds:
		spendKey = column.TikTokSpend
	case sourcedomain.TypeSnapchatAds:
		spendKey = column.SnapchatSpend
	}

	var out []record.Record
	g.eachDay(today, func(day string) {
		impressions := 2000 + rng.IntN(8000)
		out = append(out, record.New(
			record.Field{Name: "date", Value: day},
			record.Field{Name: spendKey, Value: round(1500 + rng.Float64()*3500)},
			record.Field{Name: "impressions", Value: impressions},
			record.Field{Name: "clicks", Value: impressions / (20 + rng.IntN(30))},
		))
	})
	return out
}

func (g *Generator) shipments(rng *rand.Rand, t sourcedomain.Type, today time.Time) []record.Record {
	courier := "PostEx"
	if t == sourcedomain.TypeDex {
		courier = "DEX"
	}

	var out []record.Record
	n := 0
	g.eachDay(today, func(day string) {
		for range rng.IntN(ordersPerDay) + 1 {
			n++
			status := "In Transit"
			switch r := rng.IntN(10); {
			case r < 7:
				status = "Delivered"
			case r < 9:
				status = "Returned to shipper"
			}
			out = append(out, record.New(
				record.Field{Name: "order_id", Value: fmt.Sprintf("#%d", orderIDOffset+n)},
				record.Field{Name: "booked_at_date", Value: day},
				record.Field{Name: "cod_amount", Value: products[rng.IntN(len(products))].price},
				record.Field{Name: "delivery_status", Value: status},
				record.Field{Name: "city", Value: cities[rng.IntN(len(cities))]},
				record.Field{Name: "courier", Value: courier},
			))
		}
	})
	return out
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
