package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/smallbiznis/profitlens/internal/column"
	"github.com/smallbiznis/profitlens/internal/record"
	"github.com/smallbiznis/profitlens/internal/source/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB `optional:"true"`
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Schemas *column.SchemaCache `optional:"true"`
}

// Registry owns the connected sources, their record lists, the link graph
// and the current view. Record lists are only ever replaced wholesale.
type Registry struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	schemas *column.SchemaCache

	mu      sync.RWMutex
	order   []string
	sources map[string]*domain.DataSource
	records map[string][]record.Record
	orders  map[string][]record.Order
	view    string
	version uint64
}

func New(p Params) domain.Service {
	schemas := p.Schemas
	if schemas == nil {
		schemas = column.NewSchemaCache()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Registry{
		db:      p.DB,
		log:     p.Log.Named("source.registry"),
		clock:   clk,
		repo:    p.Repo,
		schemas: schemas,
		sources: make(map[string]*domain.DataSource),
		records: make(map[string][]record.Record),
		orders:  make(map[string][]record.Order),
		view:    domain.CollectiveView,
	}
}

// Load restores persisted source metadata. Records are not persisted and
// start empty until the next sync or upload.
func (r *Registry) Load(ctx context.Context) error {
	if r.db == nil || r.repo == nil {
		return nil
	}
	stored, err := r.repo.List(ctx, r.db)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ds := range stored {
		if ds == nil {
			continue
		}
		if _, exists := r.sources[ds.ID]; exists {
			continue
		}
		ds.Status = domain.StatusConnected
		ds.LastError = ""
		if ds.LinkedSourceIDs == nil {
			ds.LinkedSourceIDs = datatypes.JSONSlice[string]{}
		}
		r.sources[ds.ID] = ds
		r.order = append(r.order, ds.ID)
	}
	r.version++
	r.log.Info("sources loaded", zap.Int("count", len(stored)))
	return nil
}

func (r *Registry) Connect(ctx context.Context, req domain.ConnectRequest) (domain.DataSource, error) {
	if !req.Type.Valid() {
		return domain.DataSource{}, domain.ErrInvalidType
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.DataSource{}, domain.ErrInvalidName
	}

	now := r.clock.Now()
	ds := &domain.DataSource{
		ID:              newSourceID(name, req.Type),
		Type:            req.Type,
		Name:            name,
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		Status:          domain.StatusConnected,
		LinkedSourceIDs: datatypes.JSONSlice[string]{},
		Config:          datatypes.JSONMap(req.Config),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.persist(ctx, ds); err != nil {
		return domain.DataSource{}, err
	}
	r.sources[ds.ID] = ds
	r.order = append(r.order, ds.ID)
	r.version++

	r.log.Info("source connected",
		zap.String("source_id", ds.ID),
		zap.String("source_type", string(ds.Type)),
	)
	return ds.Clone(), nil
}

// Disconnect removes the source, drops it from every link set and resets
// the view when it was selected.
func (r *Registry) Disconnect(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[id]; !ok {
		return domain.ErrNotFound
	}

	var relinked []*domain.DataSource
	for _, other := range r.sources {
		if other.ID == id || !other.IsLinked(id) {
			continue
		}
		updated := other.Clone()
		updated.LinkedSourceIDs = without(updated.LinkedSourceIDs, id)
		updated.UpdatedAt = r.clock.Now()
		relinked = append(relinked, &updated)
	}

	if r.db != nil && r.repo != nil {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := r.repo.Delete(ctx, tx, id); err != nil {
				return err
			}
			for _, ds := range relinked {
				if err := r.repo.Upsert(ctx, tx, ds); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("disconnect %s: %w", id, err)
		}
	}

	for _, ds := range relinked {
		r.sources[ds.ID] = ds
	}
	delete(r.sources, id)
	delete(r.records, id)
	delete(r.orders, id)
	r.order = without(r.order, id)
	if r.view == id {
		r.view = domain.CollectiveView
	}
	r.version++

	r.log.Info("source disconnected", zap.String("source_id", id), zap.Int("unlinked_from", len(relinked)))
	return nil
}

func (r *Registry) Get(id string) (domain.DataSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.sources[id]
	if !ok {
		return domain.DataSource{}, domain.ErrNotFound
	}
	return ds.Clone(), nil
}

// List returns the sources in connection order.
func (r *Registry) List() []domain.DataSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

func (r *Registry) listLocked() []domain.DataSource {
	out := make([]domain.DataSource, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sources[id].Clone())
	}
	return out
}

func (r *Registry) ReplaceRecords(ctx context.Context, id string, records []record.Record) (domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.sources[id]
	if !ok {
		return domain.DataSource{}, domain.ErrNotFound
	}
	next := make([]record.Record, len(records))
	copy(next, records)
	r.storeLocked(ds, next)
	r.markSyncedLocked(ctx, ds)
	return ds.Clone(), nil
}

func (r *Registry) AppendRecords(ctx context.Context, id string, records []record.Record) (domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.sources[id]
	if !ok {
		return domain.DataSource{}, domain.ErrNotFound
	}
	current := r.records[id]
	next := make([]record.Record, 0, len(current)+len(records))
	next = append(next, current...)
	next = append(next, records...)
	r.storeLocked(ds, next)
	r.markSyncedLocked(ctx, ds)
	return ds.Clone(), nil
}

func (r *Registry) MarkSyncing(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.sources[id]
	if !ok {
		return domain.ErrNotFound
	}
	ds.Status = domain.StatusSyncing
	ds.UpdatedAt = r.clock.Now()
	r.persistBestEffort(ctx, ds)
	return nil
}

// MarkSyncFailed records a failed refresh. The prior records stay in place.
func (r *Registry) MarkSyncFailed(ctx context.Context, id string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.sources[id]
	if !ok {
		return domain.ErrNotFound
	}
	ds.Status = domain.StatusError
	if cause != nil {
		ds.LastError = cause.Error()
	}
	ds.UpdatedAt = r.clock.Now()
	r.persistBestEffort(ctx, ds)
	return nil
}

// Rewrite offers every source's record list to fn under the registry lock
// and stores the lists fn replaces. It returns the number of sources changed.
func (r *Registry) Rewrite(ctx context.Context, fn domain.RewriteFunc) (int, error) {
	if fn == nil {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	for _, id := range r.order {
		ds := r.sources[id]
		next, ok := fn(ds.Clone(), r.records[id])
		if !ok {
			continue
		}
		r.storeLocked(ds, next)
		ds.UpdatedAt = r.clock.Now()
		changed++
	}
	return changed, nil
}

// Link attributes adID's spend to shopID. Linking twice is a no-op.
func (r *Registry) Link(ctx context.Context, shopID, adID string) (domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shop, err := r.linkPairLocked(shopID, adID)
	if err != nil {
		return domain.DataSource{}, err
	}
	if shop.IsLinked(adID) {
		return shop.Clone(), nil
	}

	updated := shop.Clone()
	updated.LinkedSourceIDs = append(updated.LinkedSourceIDs, adID)
	updated.UpdatedAt = r.clock.Now()
	if err := r.persist(ctx, &updated); err != nil {
		return domain.DataSource{}, err
	}
	r.sources[shopID] = &updated
	r.version++
	r.log.Info("source linked", zap.String("source_id", shopID), zap.String("linked_source_id", adID))
	return updated.Clone(), nil
}

func (r *Registry) Unlink(ctx context.Context, shopID, adID string) (domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shop, ok := r.sources[shopID]
	if !ok {
		return domain.DataSource{}, domain.ErrNotFound
	}
	if !shop.IsLinked(adID) {
		return shop.Clone(), nil
	}

	updated := shop.Clone()
	updated.LinkedSourceIDs = without(updated.LinkedSourceIDs, adID)
	updated.UpdatedAt = r.clock.Now()
	if err := r.persist(ctx, &updated); err != nil {
		return domain.DataSource{}, err
	}
	r.sources[shopID] = &updated
	r.version++
	r.log.Info("source unlinked", zap.String("source_id", shopID), zap.String("linked_source_id", adID))
	return updated.Clone(), nil
}

func (r *Registry) linkPairLocked(shopID, adID string) (*domain.DataSource, error) {
	if shopID == "" || adID == "" || shopID == adID {
		return nil, domain.ErrInvalidLink
	}
	shop, ok := r.sources[shopID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if _, ok := r.sources[adID]; !ok {
		return nil, domain.ErrNotFound
	}
	return shop, nil
}

func (r *Registry) SetView(ctx context.Context, view string) error {
	view = strings.TrimSpace(view)
	if view == "" {
		view = domain.CollectiveView
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if view != domain.CollectiveView {
		if _, ok := r.sources[view]; !ok {
			return domain.ErrInvalidView
		}
	}
	if r.view != view {
		r.view = view
		r.version++
	}
	return nil
}

func (r *Registry) View() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

func (r *Registry) Records(id string) ([]record.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.sources[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return append([]record.Record(nil), r.records[id]...), nil
}

type datedRecord struct {
	rec record.Record
	at  time.Time
}

var epoch = time.Unix(0, 0).UTC()

// ActiveRecords returns the current view's records, newest first. Records
// without a parseable date sort as the epoch.
func (r *Registry) ActiveRecords() []record.Record {
	state := r.State()

	var rows []datedRecord
	for _, id := range state.ActiveSourceIDs() {
		recs := state.Records[id]
		orders := state.Orders[id]
		for i, rec := range recs {
			at := epoch
			if i < len(orders) && orders[i].Dated() {
				at = orders[i].Date
			}
			rows = append(rows, datedRecord{rec: rec, at: at})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].at.After(rows[j].at)
	})

	out := make([]record.Record, len(rows))
	for i, row := range rows {
		out[i] = row.rec
	}
	return out
}

// State returns an immutable snapshot of the registry.
func (r *Registry) State() domain.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state := domain.State{
		Version: r.version,
		View:    r.view,
		Sources: r.listLocked(),
		Records: make(map[string][]record.Record, len(r.records)),
		Orders:  make(map[string][]record.Order, len(r.orders)),
	}
	for id, recs := range r.records {
		state.Records[id] = recs
	}
	for id, orders := range r.orders {
		state.Orders[id] = orders
	}
	return state
}

func (r *Registry) storeLocked(ds *domain.DataSource, records []record.Record) {
	cols := record.Columns(records)
	schema := r.schemas.Get(cols)
	r.records[ds.ID] = records
	r.orders[ds.ID] = record.ProjectAll(records, schema, ds.ID, ds.Type.IsAdPlatform())
	ds.RecordCount = len(records)
	ds.Columns = cols
	r.version++
}

func (r *Registry) markSyncedLocked(ctx context.Context, ds *domain.DataSource) {
	now := r.clock.Now()
	ds.Status = domain.StatusConnected
	ds.LastError = ""
	ds.LastSync = &now
	ds.UpdatedAt = now
	r.persistBestEffort(ctx, ds)
}

func (r *Registry) persist(ctx context.Context, ds *domain.DataSource) error {
	if r.db == nil || r.repo == nil {
		return nil
	}
	if err := r.repo.Upsert(ctx, r.db, ds); err != nil {
		return fmt.Errorf("persist source %s: %w", ds.ID, err)
	}
	return nil
}

func (r *Registry) persistBestEffort(ctx context.Context, ds *domain.DataSource) {
	if err := r.persist(ctx, ds); err != nil {
		r.log.Warn("source metadata not persisted", zap.String("source_id", ds.ID), zap.Error(err))
	}
}

func newSourceID(name string, t domain.Type) string {
	base := slug.Make(name)
	if base == "" {
		base = slug.Make(string(t))
	}
	return base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func without[S ~[]string](list S, v string) S {
	out := make(S, 0, len(list))
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
