// Package report renders a profitability snapshot as a PDF.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/profitlens/internal/analytics/domain"
	"github.com/smallbiznis/profitlens/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxProducts = 10

// SnapshotSource supplies the snapshot of the current view.
type SnapshotSource interface {
	Snapshot(ctx context.Context) domain.Snapshot
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Clock
	Source SnapshotSource
}

type Service struct {
	log    *zap.Logger
	clock  clock.Clock
	source SnapshotSource
}

func NewService(p Params) *Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		log:    p.Log.Named("report.service"),
		clock:  clk,
		source: p.Source,
	}
}

// Generate renders the current snapshot.
func (s *Service) Generate(ctx context.Context, title string) ([]byte, error) {
	snap := s.source.Snapshot(ctx)
	doc, err := Render(snap, Meta{Title: title, GeneratedAt: s.clock.Now()})
	if err != nil {
		s.log.Error("failed to render report", zap.String("view", snap.View), zap.Error(err))
		return nil, err
	}
	return doc, nil
}

type Meta struct {
	Title       string
	GeneratedAt time.Time
}

var (
	headerText = props.Text{Style: fontstyle.Bold, Size: 9}
	headerNum  = props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	cellText   = props.Text{Size: 9}
	cellNum    = props.Text{Size: 9, Align: align.Right}
)

// Render lays out the headline metrics, the monthly roll-up and the top
// products by revenue.
func Render(snap domain.Snapshot, meta Meta) ([]byte, error) {
	if meta.Title == "" {
		meta.Title = "Profitability Report"
	}
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(12, text.NewCol(12, meta.Title, props.Text{Size: 18, Style: fontstyle.Bold}))
	m.AddRow(8,
		text.NewCol(6, "View: "+snap.View, cellText),
		text.NewCol(6, "Generated "+meta.GeneratedAt.UTC().Format("Jan 2, 2006 15:04 MST"), props.Text{Size: 9, Align: align.Right}),
	)

	addSection(m, "Summary")
	metrics := snap.Metrics
	summary := [][2]string{
		{"Revenue", money(metrics.TotalRevenue)},
		{"Gross profit", money(metrics.GrossProfit)},
		{"Ad spend", money(metrics.AdSpend)},
		{"Operating cost", money(metrics.OperatingCostEstimate)},
		{"Shipping cost", money(metrics.ShippingCost)},
		{"Net profit", money(metrics.NetProfit)},
		{"Net margin", percent(metrics.NetMargin)},
		{"ROAS / POAS", fmt.Sprintf("%.2f / %.2f", metrics.ROAS, metrics.POAS)},
		{"Orders (delivered / returned / pending)", fmt.Sprintf("%d (%d / %d / %d)", metrics.TotalOrders, metrics.TotalDelivered, metrics.TotalReturned, metrics.TotalPending)},
		{"RTO loss", money(metrics.RTOLoss)},
		{"Cash in hand", money(metrics.CashInHand)},
		{"Inventory health", metrics.InventoryHealth},
	}
	for _, kv := range summary {
		m.AddRow(6,
			text.NewCol(8, kv[0], cellText),
			text.NewCol(4, kv[1], cellNum),
		)
	}

	addSection(m, "Monthly")
	m.AddRow(7,
		text.NewCol(3, "Month", headerText),
		text.NewCol(2, "Revenue", headerNum),
		text.NewCol(2, "Ad spend", headerNum),
		text.NewCol(1, "Orders", headerNum),
		text.NewCol(2, "Net profit", headerNum),
		text.NewCol(2, "Net margin", headerNum),
	)
	for _, p := range snap.Monthly {
		m.AddRow(6,
			text.NewCol(3, p.Period, cellText),
			text.NewCol(2, money(p.Revenue), cellNum),
			text.NewCol(2, money(p.AdSpend), cellNum),
			text.NewCol(1, fmt.Sprintf("%d", p.Orders), cellNum),
			text.NewCol(2, money(p.NetProfit), cellNum),
			text.NewCol(2, percent(p.NetMargin), cellNum),
		)
	}
	if len(snap.Monthly) == 0 {
		m.AddRow(6, text.NewCol(12, "No dated orders.", cellText))
	}

	addSection(m, "Top products")
	m.AddRow(7,
		text.NewCol(4, "Product", headerText),
		text.NewCol(1, "Orders", headerNum),
		text.NewCol(2, "Revenue", headerNum),
		text.NewCol(2, "Net profit", headerNum),
		text.NewCol(1, "POAS", headerNum),
		text.NewCol(2, "Days of stock", headerNum),
	)
	products := snap.Products
	if len(products) > maxProducts {
		products = products[:maxProducts]
	}
	for _, p := range products {
		m.AddRow(6,
			text.NewCol(4, p.Name, cellText),
			text.NewCol(1, fmt.Sprintf("%d", p.Orders), cellNum),
			text.NewCol(2, money(p.Revenue), cellNum),
			text.NewCol(2, money(p.NetProfit), cellNum),
			text.NewCol(1, fmt.Sprintf("%.2f", p.POAS), cellNum),
			text.NewCol(2, humanize.FormatFloat("#,###.", p.DaysOfStock), cellNum),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	return doc.GetBytes(), nil
}

func addSection(m core.Maroto, title string) {
	m.AddRow(4, col.New(12))
	m.AddRow(9, text.NewCol(12, title, props.Text{Size: 12, Style: fontstyle.Bold, Top: 2}))
}

func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
