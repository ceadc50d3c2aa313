package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/smallbiznis/profitlens/internal/analytics/domain"
	"github.com/smallbiznis/profitlens/internal/analytics/product"
	"github.com/smallbiznis/profitlens/internal/cache"
	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/smallbiznis/profitlens/internal/config"
	ledgerdomain "github.com/smallbiznis/profitlens/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/profitlens/internal/observability/metrics"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultSnapshotTTL = 10 * time.Minute

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Sources   sourcedomain.Service
	Ledger    ledgerdomain.Service
	Engine    *config.EngineConfigHolder
	AppConfig config.Config              `optional:"true"`
	Estimator product.InventoryEstimator `optional:"true"`
	Store     *cache.SnapshotStore       `optional:"true"`
	Metrics   *obsmetrics.Metrics        `optional:"true"`
}

// Engine recomputes snapshots on demand and memoizes them by the versions
// of every input.
type Engine struct {
	log       *zap.Logger
	clock     clock.Clock
	sources   sourcedomain.Service
	ledger    ledgerdomain.Service
	engineCfg *config.EngineConfigHolder
	estimator product.InventoryEstimator
	store     *cache.SnapshotStore
	metrics   *obsmetrics.Metrics
	memo      cache.Cache[string, domain.Snapshot]
	ttl       time.Duration

	mu         sync.RWMutex
	opsPercent float64
}

func NewEngine(p Params) *Engine {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	estimator := p.Estimator
	if estimator == nil {
		estimator = product.NameHashEstimator{}
	}
	ttl := p.AppConfig.SnapshotTTL
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &Engine{
		log:        p.Log.Named("analytics.engine"),
		clock:      clk,
		sources:    p.Sources,
		ledger:     p.Ledger,
		engineCfg:  p.Engine,
		estimator:  estimator,
		store:      p.Store,
		metrics:    p.Metrics,
		memo:       cache.NewTTLCache[string, domain.Snapshot](cache.WithNow(clk.Now), cache.WithMaxSize(64)),
		ttl:        ttl,
		opsPercent: p.Engine.Get().DefaultOpsPercent,
	}
}

func (e *Engine) OpsPercent() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opsPercent
}

// SetOpsPercent changes the operating-cost multiplier, in percent of revenue.
func (e *Engine) SetOpsPercent(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
		return domain.ErrInvalidOpsPercent
	}
	e.mu.Lock()
	e.opsPercent = v
	e.mu.Unlock()
	e.log.Info("ops percent updated", zap.Float64("ops_percent", v))
	return nil
}

// Inputs gathers the current inputs and their fingerprint.
func (e *Engine) Inputs() (domain.Inputs, string) {
	state := e.sources.State()
	book := e.ledger.Book()
	cfg := e.engineCfg.Get()
	ops := e.OpsPercent()

	view := state.View
	if view == "" {
		view = sourcedomain.CollectiveView
	}
	in := domain.Inputs{
		View:       view,
		Orders:     state.ActiveOrders(),
		Linked:     state.LinkedOrders(),
		AdSpend:    book.AdSpend,
		Ledger:     book.Entries,
		OpsPercent: ops,
		Config:     cfg,
	}
	key := fmt.Sprintf("%d:%d:%s:%g:%+v", state.Version, book.Version, view, ops, cfg)
	return in, key
}

// Snapshot returns the snapshot for the current inputs, recomputing only
// when one of them changed.
func (e *Engine) Snapshot(ctx context.Context) domain.Snapshot {
	in, key := e.Inputs()
	if snap, ok := e.memo.Get(key); ok {
		e.metrics.RecordCacheLookup(true)
		return snap
	}
	e.metrics.RecordCacheLookup(false)

	_, span := otel.Tracer("profitlens/analytics").Start(ctx, "analytics.recompute")
	span.SetAttributes(
		attribute.String("view", in.View),
		attribute.Int("orders", len(in.Orders)),
		attribute.Int("linked_rows", len(in.Linked)),
	)
	start := time.Now()
	snap := BuildSnapshot(in, e.estimator)
	elapsed := time.Since(start)
	span.End()

	snap.Fingerprint = key
	snap.GeneratedAt = e.clock.Now()
	e.memo.Set(key, snap, e.ttl)
	e.metrics.ObserveRecompute(viewKind(in.View), elapsed)
	e.store.Store(ctx, latestKey(in.View), snap, e.ttl)

	e.log.Debug("snapshot recomputed",
		zap.String("view", in.View),
		zap.Int("orders", len(in.Orders)),
		zap.Duration("elapsed", elapsed),
	)
	return snap
}

// Published returns the last snapshot mirrored for view, if any.
func (e *Engine) Published(ctx context.Context, view string) (domain.Snapshot, bool) {
	var snap domain.Snapshot
	if !e.store.Load(ctx, latestKey(view), &snap) {
		return domain.Snapshot{}, false
	}
	return snap, true
}

func latestKey(view string) string {
	return "latest:" + view
}

func viewKind(view string) string {
	if view == sourcedomain.CollectiveView {
		return "collective"
	}
	return "single"
}
