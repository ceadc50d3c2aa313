// Package ingest refreshes syncable sources through a Fetcher, on demand
// and on a fixed interval.
package ingest

import (
	"context"
	"errors"

	"github.com/smallbiznis/profitlens/internal/record"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
)

// Fetcher returns the complete current record list of a source.
type Fetcher interface {
	Fetch(ctx context.Context, source sourcedomain.DataSource) ([]record.Record, error)
}

type FetcherFunc func(ctx context.Context, source sourcedomain.DataSource) ([]record.Record, error)

func (f FetcherFunc) Fetch(ctx context.Context, source sourcedomain.DataSource) ([]record.Record, error) {
	return f(ctx, source)
}

var (
	ErrNoFetcher      = errors.New("sync_not_configured")
	ErrNotSyncable    = errors.New("source_not_syncable")
	ErrSyncInProgress = errors.New("sync_in_progress")
	ErrSyncThrottled  = errors.New("sync_throttled")
)
