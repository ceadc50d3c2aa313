package relay

import (
	"strings"

	"github.com/smallbiznis/profitlens/internal/column"
	"github.com/smallbiznis/profitlens/internal/record"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
	"github.com/spf13/cast"
)

type shopifyOrder struct {
	Name              string  `json:"name"`
	CreatedAt         string  `json:"created_at"`
	TotalPrice        any     `json:"total_price"`
	FinancialStatus   string  `json:"financial_status"`
	FulfillmentStatus *string `json:"fulfillment_status"`
	CancelledAt       *string `json:"cancelled_at"`
	Tags              string  `json:"tags"`
	ShippingAddress   *struct {
		City  string `json:"city"`
		Phone string `json:"phone"`
	} `json:"shipping_address"`
	LineItems []struct {
		Title    string `json:"title"`
		Quantity int    `json:"quantity"`
	} `json:"line_items"`
}

type insight struct {
	Date         string `json:"date"`
	DateStart    string `json:"date_start"`
	CampaignName string `json:"campaign_name"`
	Spend        any    `json:"spend"`
	Impressions  any    `json:"impressions"`
	Clicks       any    `json:"clicks"`
}

type shipment struct {
	TrackingNumber string `json:"tracking_number"`
	OrderRef       string `json:"order_ref"`
	BookedAt       string `json:"booked_at"`
	City           string `json:"city"`
	Courier        string `json:"courier"`
	TrackingStatus string `json:"tracking_status"`
	CODAmount      any    `json:"cod_amount"`
}

// mapShopifyOrders writes a normalized delivery_status ahead of the raw
// Shopify states so the status resolver reads delivered, returned or pending.
func mapShopifyOrders(orders []shopifyOrder) []record.Record {
	out := make([]record.Record, 0, len(orders))
	for _, o := range orders {
		var city, phone string
		if o.ShippingAddress != nil {
			city = o.ShippingAddress.City
			phone = o.ShippingAddress.Phone
		}
		product := ""
		if len(o.LineItems) > 0 {
			product = o.LineItems[0].Title
		}
		out = append(out, record.New(
			record.Field{Name: "order_name", Value: o.Name},
			record.Field{Name: "created_at", Value: o.CreatedAt},
			record.Field{Name: "total_price", Value: cast.ToFloat64(o.TotalPrice)},
			record.Field{Name: "delivery_status", Value: shopifyDeliveryStatus(o)},
			record.Field{Name: "fulfillment_status", Value: deref(o.FulfillmentStatus)},
			record.Field{Name: "financial_status", Value: o.FinancialStatus},
			record.Field{Name: "cancelled_at", Value: deref(o.CancelledAt)},
			record.Field{Name: "city", Value: city},
			record.Field{Name: "phone", Value: phone},
			record.Field{Name: "product", Value: product},
			record.Field{Name: column.Tags, Value: o.Tags},
			record.Field{Name: column.VerificationStatus, Value: verificationFromTags(o.Tags)},
		))
	}
	return out
}

// shopifyDeliveryStatus folds the fulfillment and financial states into the
// delivery classification. Cancelled, refunded and restocked orders are
// returns even when they were fulfilled first.
func shopifyDeliveryStatus(o shopifyOrder) string {
	switch strings.ToLower(strings.TrimSpace(o.FinancialStatus)) {
	case "refunded", "voided":
		return string(record.StateReturned)
	}
	if strings.TrimSpace(deref(o.CancelledAt)) != "" {
		return string(record.StateReturned)
	}
	switch strings.ToLower(strings.TrimSpace(deref(o.FulfillmentStatus))) {
	case "restocked":
		return string(record.StateReturned)
	case "fulfilled":
		return string(record.StateDelivered)
	}
	return string(record.StatePending)
}

// verificationFromTags restores a verification decision recorded as a tag
// on the store side.
func verificationFromTags(tags string) string {
	for _, t := range strings.Split(tags, ",") {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "confirmed":
			return record.VerificationConfirmed
		case "canceled", "cancelled":
			return record.VerificationCanceled
		}
	}
	return record.VerificationPending
}

func spendColumn(t sourcedomain.Type) string {
	switch t {
	case sourcedomain.TypeGoogleAds:
		return column.GoogleSpend
	case sourcedomain.TypeTikTokAds:
		return column.TikTokSpend
	case sourcedomain.TypeSnapchatAds:
		return column.SnapchatSpend
	default:
		return column.MetaSpend
	}
}

func mapInsights(t sourcedomain.Type, rows []insight) []record.Record {
	spendKey := spendColumn(t)
	out := make([]record.Record, 0, len(rows))
	for _, r := range rows {
		date := r.Date
		if date == "" {
			date = r.DateStart
		}
		out = append(out, record.New(
			record.Field{Name: "date", Value: date},
			record.Field{Name: "campaign", Value: r.CampaignName},
			record.Field{Name: spendKey, Value: cast.ToFloat64(r.Spend)},
			record.Field{Name: "impressions", Value: cast.ToInt64(r.Impressions)},
			record.Field{Name: "clicks", Value: cast.ToInt64(r.Clicks)},
		))
	}
	return out
}

func mapShipments(t sourcedomain.Type, rows []shipment) []record.Record {
	out := make([]record.Record, 0, len(rows))
	for _, r := range rows {
		courier := r.Courier
		if courier == "" {
			courier = strings.ToUpper(string(t))
		}
		out = append(out, record.New(
			record.Field{Name: "order_id", Value: r.OrderRef},
			record.Field{Name: "booked_at_date", Value: r.BookedAt},
			record.Field{Name: "cod_amount", Value: cast.ToFloat64(r.CODAmount)},
			record.Field{Name: "delivery_status", Value: r.TrackingStatus},
			record.Field{Name: "city", Value: r.City},
			record.Field{Name: "courier", Value: courier},
			record.Field{Name: "tracking_ref", Value: r.TrackingNumber},
		))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
