package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateEntryRequest struct {
	Date          string  `json:"date"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"paymentStatus"`
}

type CreateAdSpendRequest struct {
	Date           string  `json:"date"`
	Platform       string  `json:"platform"`
	Amount         float64 `json:"amount"`
	TargetSourceID string  `json:"targetSourceId"`
	Notes          string  `json:"notes"`
}

type Service interface {
	Load(ctx context.Context) error
	Book() Book

	ListEntries() []LedgerEntry
	AddEntry(ctx context.Context, req CreateEntryRequest) (LedgerEntry, error)
	DeleteEntry(ctx context.Context, id snowflake.ID) error

	ListAdSpend() []AdSpendEntry
	AddAdSpend(ctx context.Context, req CreateAdSpendRequest) (AdSpendEntry, error)
	DeleteAdSpend(ctx context.Context, id snowflake.ID) error
}

var (
	ErrNotFound        = errors.New("ledger_entry_not_found")
	ErrDuplicateEntry  = errors.New("ledger_entry_exists")
	ErrInvalidDate     = errors.New("invalid_date")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidStatus   = errors.New("invalid_payment_status")
	ErrInvalidPlatform = errors.New("invalid_platform")
)
