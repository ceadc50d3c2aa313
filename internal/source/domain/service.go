package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/profitlens/internal/record"
)

type ConnectRequest struct {
	Type     Type           `json:"type"`
	Name     string         `json:"name"`
	Currency string         `json:"currency"`
	Config   map[string]any `json:"config"`
}

// RewriteFunc receives one source's records and returns the replacement
// list, or false to leave the source untouched.
type RewriteFunc func(source DataSource, records []record.Record) ([]record.Record, bool)

type Service interface {
	Load(ctx context.Context) error
	Connect(ctx context.Context, req ConnectRequest) (DataSource, error)
	Disconnect(ctx context.Context, id string) error
	Get(id string) (DataSource, error)
	List() []DataSource

	ReplaceRecords(ctx context.Context, id string, records []record.Record) (DataSource, error)
	AppendRecords(ctx context.Context, id string, records []record.Record) (DataSource, error)
	MarkSyncing(ctx context.Context, id string) error
	MarkSyncFailed(ctx context.Context, id string, cause error) error
	Rewrite(ctx context.Context, fn RewriteFunc) (int, error)

	Link(ctx context.Context, shopID, adID string) (DataSource, error)
	Unlink(ctx context.Context, shopID, adID string) (DataSource, error)

	SetView(ctx context.Context, view string) error
	View() string
	Records(id string) ([]record.Record, error)
	ActiveRecords() []record.Record
	State() State
}

var (
	ErrNotFound     = errors.New("source_not_found")
	ErrInvalidType  = errors.New("invalid_source_type")
	ErrInvalidName  = errors.New("invalid_source_name")
	ErrInvalidView  = errors.New("invalid_view")
	ErrInvalidLink  = errors.New("invalid_link")
	ErrInvalidInput = errors.New("invalid_records")
)
