package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Category string

const (
	CategoryInventory Category = "Inventory"
	CategoryUSDTBuy   Category = "USDT Buy"
	CategoryAdCredits Category = "Ad Credits"
	CategoryPayroll   Category = "Payroll"
	CategorySourcing  Category = "Sourcing"
	CategoryOther     Category = "Other"
)

var categories = []Category{
	CategoryInventory, CategoryUSDTBuy, CategoryAdCredits,
	CategoryPayroll, CategorySourcing, CategoryOther,
}

// ParseCategory matches case-insensitively.
func ParseCategory(v string) (Category, bool) {
	v = strings.TrimSpace(v)
	for _, c := range categories {
		if strings.EqualFold(string(c), v) {
			return c, true
		}
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPartial PaymentStatus = "Partial"
)

func ParsePaymentStatus(v string) (PaymentStatus, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return PaymentStatusPaid, true
	}
	for _, s := range []PaymentStatus{PaymentStatusPaid, PaymentStatusPending, PaymentStatusPartial} {
		if strings.EqualFold(string(s), v) {
			return s, true
		}
	}
	return "", false
}

// LedgerEntry is a capital outflow independent of sales. Entries are
// view-global.
type LedgerEntry struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	Date          string        `gorm:"type:varchar(10);not null;index" json:"date"`
	Category      Category      `gorm:"type:varchar(32);not null" json:"category"`
	Description   string        `gorm:"type:text" json:"description"`
	Amount        float64       `gorm:"not null" json:"amount"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(16);not null" json:"paymentStatus"`
	CreatedAt     time.Time     `gorm:"not null" json:"createdAt"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

type AdSpendSource string

const (
	AdSpendManual AdSpendSource = "manual"
	AdSpendAuto   AdSpendSource = "auto"
)

// TargetCollective scopes a manual entry to every view.
const TargetCollective = "collective"

// AdSpendEntry is ad spend entered by hand or derived from ad-platform rows.
// Only manual entries are persisted.
type AdSpendEntry struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	Date           string        `gorm:"type:varchar(10);not null;index" json:"date"`
	Platform       string        `gorm:"type:varchar(32);not null" json:"platform"`
	Amount         float64       `gorm:"not null" json:"amount"`
	Source         AdSpendSource `gorm:"type:varchar(8);not null" json:"source"`
	TargetSourceID string        `gorm:"type:varchar(128)" json:"targetSourceId,omitempty"`
	Notes          string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time     `gorm:"not null" json:"createdAt"`
}

func (AdSpendEntry) TableName() string { return "ad_spend_entries" }

// AppliesTo reports whether the entry counts toward view. Collective sees
// every entry; a single-source view sees unscoped, collective and its own
// entries.
func (e AdSpendEntry) AppliesTo(view string) bool {
	view = strings.TrimSpace(view)
	if view == "" || view == TargetCollective {
		return true
	}
	target := strings.TrimSpace(e.TargetSourceID)
	return target == "" || target == TargetCollective || target == view
}

// Book is an immutable copy of the ledger and manual ad-spend lists.
type Book struct {
	Version uint64
	Entries []LedgerEntry
	AdSpend []AdSpendEntry
}

// TotalOutflow sums every ledger entry.
func (b Book) TotalOutflow() float64 {
	var total float64
	for _, e := range b.Entries {
		total += e.Amount
	}
	return total
}
