package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	InsertEntry(ctx context.Context, entry *LedgerEntry) error
	DeleteEntry(ctx context.Context, id snowflake.ID) error
	ListEntries(ctx context.Context) ([]*LedgerEntry, error)

	InsertAdSpend(ctx context.Context, entry *AdSpendEntry) error
	DeleteAdSpend(ctx context.Context, id snowflake.ID) error
	ListAdSpend(ctx context.Context) ([]*AdSpendEntry, error)
}
