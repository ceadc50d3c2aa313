package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/profitlens/internal/ledger/domain"
	"github.com/smallbiznis/profitlens/pkg/db"
	"github.com/smallbiznis/profitlens/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	entries repository.Repository[domain.LedgerEntry]
	adSpend repository.Repository[domain.AdSpendEntry]
}

func Provide(db *gorm.DB) domain.Repository {
	if db == nil {
		return nil
	}
	return &repo{
		entries: repository.ProvideStore[domain.LedgerEntry](db),
		adSpend: repository.ProvideStore[domain.AdSpendEntry](db),
	}
}

func (r *repo) InsertEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	return translate(r.entries.Create(ctx, entry))
}

func (r *repo) DeleteEntry(ctx context.Context, id snowflake.ID) error {
	return r.entries.Delete(ctx, int64(id))
}

func (r *repo) ListEntries(ctx context.Context) ([]*domain.LedgerEntry, error) {
	return r.entries.Find(ctx, &domain.LedgerEntry{}, "date ASC, id ASC")
}

func (r *repo) InsertAdSpend(ctx context.Context, entry *domain.AdSpendEntry) error {
	return translate(r.adSpend.Create(ctx, entry))
}

func (r *repo) DeleteAdSpend(ctx context.Context, id snowflake.ID) error {
	return r.adSpend.Delete(ctx, int64(id))
}

func (r *repo) ListAdSpend(ctx context.Context) ([]*domain.AdSpendEntry, error) {
	return r.adSpend.Find(ctx, &domain.AdSpendEntry{}, "date ASC, id ASC")
}

func translate(err error) error {
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateEntry
	}
	return err
}
