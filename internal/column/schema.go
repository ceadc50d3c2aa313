package column

import (
	"strings"

	"github.com/smallbiznis/profitlens/internal/cache"
)

// Schema is the resolved column for each semantic field. An empty string
// means the field is absent.
type Schema struct {
	OrderID      string `json:"orderId,omitempty"`
	Date         string `json:"date,omitempty"`
	Revenue      string `json:"revenue,omitempty"`
	Cost         string `json:"cost,omitempty"`
	Status       string `json:"status,omitempty"`
	Verification string `json:"verification,omitempty"`
	City         string `json:"city,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Courier      string `json:"courier,omitempty"`
	Product      string `json:"product,omitempty"`
	Tags         string `json:"tags,omitempty"`
	Cancel       string `json:"cancel,omitempty"`

	MetaSpend     string `json:"metaSpend,omitempty"`
	GoogleSpend   string `json:"googleSpend,omitempty"`
	TikTokSpend   string `json:"tiktokSpend,omitempty"`
	SnapchatSpend string `json:"snapchatSpend,omitempty"`
}

// HasSpend reports whether any platform spend column resolved.
func (s Schema) HasSpend() bool {
	return s.MetaSpend != "" || s.GoogleSpend != "" || s.TikTokSpend != "" || s.SnapchatSpend != ""
}

// Infer resolves every semantic field over the ordered column list.
func Infer(columns []string) Schema {
	var s Schema
	s.Verification = first(columns, VerificationKeywords)

	// Spend columns are claimed first so "google_spend" never reads as cost
	// or revenue.
	s.MetaSpend = first(columns, MetaSpendKeywords)
	s.GoogleSpend = first(columns, GoogleSpendKeywords)
	s.TikTokSpend = first(columns, TikTokSpendKeywords)
	s.SnapchatSpend = first(columns, SnapchatSpendKeywords)
	spend := []string{s.MetaSpend, s.GoogleSpend, s.TikTokSpend, s.SnapchatSpend}

	s.Revenue = firstExcluding(columns, spend, RevenueKeywords)
	s.Cost = firstExcluding(columns, spend, CostKeywords)
	s.Status = firstExcluding(columns, []string{s.Verification}, StatusKeywords)
	s.City = first(columns, CityKeywords)
	s.Phone = first(columns, PhoneKeywords)
	s.Courier = first(columns, CourierKeywords)
	s.Product = first(columns, ProductKeywords)
	s.Date = first(columns, DateKeywords)
	s.Tags, _ = resolveExact(columns, TagKeywords...)
	s.Cancel = first(columns, CancelKeywords)

	// The order id is claimed last: headers like "Order Date" or
	// "order_status" belong to the field they were resolved to.
	claimed := []string{
		s.Date, s.Revenue, s.Cost, s.Status, s.Verification, s.City, s.Phone,
		s.Courier, s.Product, s.Tags, s.Cancel,
		s.MetaSpend, s.GoogleSpend, s.TikTokSpend, s.SnapchatSpend,
	}
	s.OrderID = firstExcluding(columns, claimed, OrderIDKeywords)
	if s.OrderID == "" {
		s.OrderID = firstExcluding(columns, claimed, []string{"order"})
	}
	if s.OrderID == "" {
		s.OrderID, _ = resolveExact(columns, orderIDFallback...)
	}
	return s
}

func first(columns, keywords []string) string {
	col, _ := Resolve(columns, keywords...)
	return col
}

func firstExcluding(columns, exclude, keywords []string) string {
	col, _ := ResolveExcluding(columns, exclude, keywords...)
	return col
}

// SchemaCache memoizes inferred schemas by ordered column list.
type SchemaCache struct {
	entries cache.Cache[string, Schema]
}

func NewSchemaCache() *SchemaCache {
	return &SchemaCache{entries: cache.NewTTLCache[string, Schema](cache.WithMaxSize(1024))}
}

// Get returns the schema for columns, inferring it on a miss.
func (c *SchemaCache) Get(columns []string) Schema {
	if c == nil {
		return Infer(columns)
	}
	key := Fingerprint(columns)
	if s, ok := c.entries.Get(key); ok {
		return s
	}
	s := Infer(columns)
	c.entries.Set(key, s, 0)
	return s
}

// Fingerprint identifies an ordered column list.
func Fingerprint(columns []string) string {
	return strings.Join(columns, "\x1f")
}
