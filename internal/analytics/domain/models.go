package domain

import (
	"errors"
	"time"

	"github.com/smallbiznis/profitlens/internal/config"
	ledgerdomain "github.com/smallbiznis/profitlens/internal/ledger/domain"
	"github.com/smallbiznis/profitlens/internal/record"
)

// Inventory health labels.
const (
	InventoryHealthy = "Healthy"
	InventoryWarning = "Warning"
)

// SpendBreakdown splits the blended ad spend by origin.
type SpendBreakdown struct {
	Meta     float64 `json:"meta"`
	Google   float64 `json:"google"`
	TikTok   float64 `json:"tiktok"`
	Snapchat float64 `json:"snapchat"`
	Linked   float64 `json:"linked"`
	Manual   float64 `json:"manual"`
}

type BusinessMetrics struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalCost      float64 `json:"totalCost"`
	GrossProfit    float64 `json:"grossProfit"`
	GrossMargin    float64 `json:"grossMargin"`
	TotalOrders    int     `json:"totalOrders"`
	TotalDelivered int     `json:"totalDelivered"`
	TotalReturned  int     `json:"totalReturned"`
	TotalPending   int     `json:"totalPending"`
	DeliveryRatio  float64 `json:"deliveryRatio"`
	ReturnRatio    float64 `json:"returnRatio"`

	AdSpend                 float64        `json:"adSpend"`
	PlatformAdSpend         float64        `json:"platformAdSpend"`
	ManualAdSpend           float64        `json:"manualAdSpend"`
	LinkedAdSpend           float64        `json:"linkedAdSpend"`
	AdSpendBreakdown        SpendBreakdown `json:"adSpendBreakdown"`
	ROAS                    float64        `json:"roas"`
	POAS                    float64        `json:"poas"`
	CustomerAcquisitionCost float64        `json:"customerAcquisitionCost"`
	AverageOrderValue       float64        `json:"averageOrderValue"`

	EstimatedOpsPercent   float64 `json:"estimatedOpsPercent"`
	OperatingCostEstimate float64 `json:"operatingCostEstimate"`
	ShippingCost          float64 `json:"shippingCost"`
	ReturnProcessingFee   float64 `json:"returnProcessingFee"`
	NetProfit             float64 `json:"netProfit"`
	NetMargin             float64 `json:"netMargin"`
	RTOLoss               float64 `json:"rtoLoss"`

	TotalCapitalOutflow float64 `json:"totalCapitalOutflow"`
	CashInHand          float64 `json:"cashInHand"`
	InventoryHealth     string  `json:"inventoryHealth"`
}

type PeriodProfitability struct {
	Period    string `json:"period"`
	PeriodKey string `json:"periodKey"`

	Revenue   float64 `json:"revenue"`
	Cost      float64 `json:"cost"`
	AdSpend   float64 `json:"adSpend"`
	Orders    int     `json:"orders"`
	Delivered int     `json:"delivered"`
	Returned  int     `json:"returned"`
	Pending   int     `json:"pending"`

	ShippingCost        float64 `json:"shippingCost"`
	ReturnProcessingFee float64 `json:"returnProcessingFee"`
	OperatingCost       float64 `json:"operatingCost"`
	GrossProfit         float64 `json:"grossProfit"`
	NetProfit           float64 `json:"netProfit"`
	GrossMargin         float64 `json:"grossMargin"`
	NetMargin           float64 `json:"netMargin"`
	ROAS                float64 `json:"roas"`
	POAS                float64 `json:"poas"`
	DeliveryRatio       float64 `json:"deliveryRatio"`
	ReturnRatio         float64 `json:"returnRatio"`
}

type ProductPerformance struct {
	Name         string  `json:"name"`
	Orders       int     `json:"orders"`
	Delivered    int     `json:"delivered"`
	Returned     int     `json:"returned"`
	Revenue      float64 `json:"revenue"`
	Cost         float64 `json:"cost"`
	RevenueShare float64 `json:"revenueShare"`
	AdSpend      float64 `json:"adSpend"`
	NetProfit    float64 `json:"netProfit"`
	POAS         float64 `json:"poas"`
	Inventory    int     `json:"inventory"`
	BurnRate     float64 `json:"burnRate"`
	DaysOfStock  float64 `json:"daysOfStock"`
}

type CitySummary struct {
	City         string  `json:"city"`
	Revenue      float64 `json:"revenue"`
	Orders       int     `json:"orders"`
	Delivered    int     `json:"delivered"`
	DeliveryRate float64 `json:"deliveryRate"`
}

type CourierStat struct {
	Courier   string  `json:"courier"`
	Total     int     `json:"total"`
	Delivered int     `json:"delivered"`
	Rate      float64 `json:"rate"`
}

// CourierInsight lists a city's couriers in first-seen order and the one
// with the best delivered/total ratio.
type CourierInsight struct {
	City       string        `json:"city"`
	Winner     string        `json:"winner"`
	WinnerRate float64       `json:"winnerRate"`
	Couriers   []CourierStat `json:"couriers"`
}

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

func ParseGranularity(v string) (Granularity, error) {
	switch Granularity(v) {
	case "", Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", ErrInvalidGranularity
	}
}

// Inputs is everything a snapshot is derived from.
type Inputs struct {
	View       string
	Orders     []record.Order
	Linked     []record.Order
	AdSpend    []ledgerdomain.AdSpendEntry
	Ledger     []ledgerdomain.LedgerEntry
	OpsPercent float64
	Config     config.EngineConfig
}

// Snapshot is the full derived output for one view.
type Snapshot struct {
	View        string                      `json:"view"`
	Fingerprint string                      `json:"fingerprint"`
	GeneratedAt time.Time                   `json:"generatedAt"`
	Metrics     BusinessMetrics             `json:"metrics"`
	Daily       []PeriodProfitability       `json:"daily"`
	Weekly      []PeriodProfitability       `json:"weekly"`
	Monthly     []PeriodProfitability       `json:"monthly"`
	Products    []ProductPerformance        `json:"products"`
	Cities      map[string]CitySummary      `json:"cities"`
	Couriers    map[string]CourierInsight   `json:"couriers"`
	AutoAdSpend []ledgerdomain.AdSpendEntry `json:"autoAdSpend"`
}

// Periods returns the bucket list for g.
func (s Snapshot) Periods(g Granularity) []PeriodProfitability {
	switch g {
	case Weekly:
		return s.Weekly
	case Monthly:
		return s.Monthly
	default:
		return s.Daily
	}
}

var (
	ErrInvalidGranularity = errors.New("invalid_granularity")
	ErrInvalidOpsPercent  = errors.New("invalid_ops_percent")
)
