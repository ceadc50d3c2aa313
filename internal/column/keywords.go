package column

// Keyword lists, ordered by preference.
var (
	RevenueKeywords      = []string{"revenue", "amount", "total", "price", "sales"}
	CostKeywords         = []string{"cost", "cogs"}
	StatusKeywords       = []string{"status", "delivery", "fulfillment"}
	VerificationKeywords = []string{"verification", "verified"}
	CityKeywords         = []string{"city", "town"}
	PhoneKeywords        = []string{"phone", "mobile", "contact"}
	CourierKeywords      = []string{"courier", "carrier", "logistic"}
	ProductKeywords      = []string{"product", "item", "title", "sku"}
	DateKeywords         = []string{"date", "createdat", "created", "time", "day"}
	OrderIDKeywords      = []string{"orderid", "ordernumber", "ordername"}
	TagKeywords          = []string{"tags", "tag"} // exact match only
	CancelKeywords       = []string{"cancelledat", "canceledat", "cancelled", "canceled"}

	MetaSpendKeywords     = []string{"fbspend", "metaspend", "facebookspend"}
	GoogleSpendKeywords   = []string{"googlespend", "adwordsspend"}
	TikTokSpendKeywords   = []string{"tiktokspend"}
	SnapchatSpendKeywords = []string{"snapspend", "snapchatspend"}
)

// orderIDFallback names accepted only as exact column names.
var orderIDFallback = []string{"id", "name", "number"}

// Canonical column names written by connectors and by verification.
const (
	VerificationStatus = "verification_status"
	Tags               = "tags"
	MetaSpend          = "fb_spend"
	GoogleSpend        = "google_spend"
	TikTokSpend        = "tiktok_spend"
	SnapchatSpend      = "snap_spend"
)
