package record

import (
	"strings"
	"time"

	"github.com/smallbiznis/profitlens/internal/column"
)

// State is the mutually exclusive delivery classification of an order.
type State string

const (
	StateDelivered State = "delivered"
	StateReturned  State = "returned"
	StatePending   State = "pending"
)

// Verification values stored in the verification column.
const (
	VerificationPending   = "Pending Verification"
	VerificationConfirmed = "Confirmed"
	VerificationCanceled  = "Canceled"
)

// Spend is platform-reported ad spend carried on a row.
type Spend struct {
	Meta     float64 `json:"meta"`
	Google   float64 `json:"google"`
	TikTok   float64 `json:"tiktok"`
	Snapchat float64 `json:"snapchat"`
}

func (s Spend) Total() float64 {
	return s.Meta + s.Google + s.TikTok + s.Snapchat
}

func (s Spend) Add(o Spend) Spend {
	return Spend{
		Meta:     s.Meta + o.Meta,
		Google:   s.Google + o.Google,
		TikTok:   s.TikTok + o.TikTok,
		Snapchat: s.Snapchat + o.Snapchat,
	}
}

// Order is the typed projection of one record through its source's schema.
type Order struct {
	SourceID     string
	OrderID      string
	Day          string
	Date         time.Time
	Revenue      float64
	Cost         float64
	State        State
	City         string
	Phone        string
	Courier      string
	Product      string
	Verification string
	Tags         string
	Spend        Spend
	// AdInsight rows carry spend only and are not orders.
	AdInsight bool
}

// Dated reports whether the order has a parseable date.
func (o Order) Dated() bool { return o.Day != "" }

// CostOr returns the recorded cost, or ratio × revenue when the cost is
// zero or absent.
func (o Order) CostOr(ratio float64) float64 {
	if o.Cost != 0 {
		return o.Cost
	}
	return ratio * o.Revenue
}

// Classify places r in exactly one of delivered, returned or pending.
func Classify(r Record, s column.Schema) State {
	switch {
	case StatusMatches(r, s.Status, "delivered"):
		return StateDelivered
	case StatusMatches(r, s.Status, "return"),
		cancelFlagged(r, s.Cancel),
		strings.EqualFold(Text(r, s.Verification), VerificationCanceled):
		return StateReturned
	default:
		return StatePending
	}
}

func cancelFlagged(r Record, key string) bool {
	switch strings.ToLower(Text(r, key)) {
	case "", "false", "0", "no", "null":
		return false
	default:
		return true
	}
}

// Project reads r through schema s. adPlatform marks rows of ad-platform
// sources, which are always ad insights.
func Project(r Record, s column.Schema, sourceID string, adPlatform bool) Order {
	o := Order{
		SourceID:     sourceID,
		OrderID:      Text(r, s.OrderID),
		Revenue:      Number(r, s.Revenue),
		Cost:         Number(r, s.Cost),
		State:        Classify(r, s),
		City:         Text(r, s.City),
		Phone:        Text(r, s.Phone),
		Courier:      Text(r, s.Courier),
		Product:      Text(r, s.Product),
		Verification: Text(r, s.Verification),
		Tags:         Text(r, s.Tags),
		Spend: Spend{
			Meta:     Number(r, s.MetaSpend),
			Google:   Number(r, s.GoogleSpend),
			TikTok:   Number(r, s.TikTokSpend),
			Snapchat: Number(r, s.SnapchatSpend),
		},
		AdInsight: adPlatform || (s.HasSpend() && s.Revenue == ""),
	}
	if s.Date != "" {
		v, _ := r.Get(s.Date)
		if t, ok := ParseDate(v); ok {
			o.Date = t
			o.Day = t.Format(time.DateOnly)
		}
	}
	return o
}

// ProjectAll projects every record of one source with a shared schema.
func ProjectAll(records []Record, s column.Schema, sourceID string, adPlatform bool) []Order {
	out := make([]Order, len(records))
	for i, r := range records {
		out[i] = Project(r, s, sourceID, adPlatform)
	}
	return out
}
