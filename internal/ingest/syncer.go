package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/smallbiznis/profitlens/internal/config"
	obsmetrics "github.com/smallbiznis/profitlens/internal/observability/metrics"
	"github.com/smallbiznis/profitlens/internal/ratelimit"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency  = 4
	defaultFetchTimeout = time.Minute
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Sources   sourcedomain.Service
	Fetcher   Fetcher                `optional:"true"`
	Limiter   *ratelimit.SyncLimiter `optional:"true"`
	Metrics   *obsmetrics.Metrics    `optional:"true"`
	AppConfig config.Config          `optional:"true"`
}

type Result struct {
	RunID    string        `json:"runId"`
	SourceID string        `json:"sourceId"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration"`
}

// Syncer pulls records for syncable sources and hands them to the
// registry. A failed fetch marks the source as errored and keeps its
// previous records.
type Syncer struct {
	log         *zap.Logger
	clock       clock.Clock
	sources     sourcedomain.Service
	fetcher     Fetcher
	limiter     *ratelimit.SyncLimiter
	metrics     *obsmetrics.Metrics
	concurrency int
	timeout     time.Duration
}

func NewSyncer(p Params) *Syncer {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	concurrency := p.AppConfig.SyncConcurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Syncer{
		log:         p.Log.Named("ingest.syncer"),
		clock:       clk,
		sources:     p.Sources,
		fetcher:     p.Fetcher,
		limiter:     p.Limiter,
		metrics:     p.Metrics,
		concurrency: concurrency,
		timeout:     defaultFetchTimeout,
	}
}

func (s *Syncer) Enabled() bool {
	return s != nil && s.fetcher != nil
}

// SyncNow is the user-triggered sync. It is throttled per source before
// running SyncSource.
func (s *Syncer) SyncNow(ctx context.Context, sourceID string) (Result, error) {
	if !s.Enabled() {
		return Result{}, ErrNoFetcher
	}
	decision, err := s.limiter.AllowSyncNow(ctx, sourceID)
	if err != nil {
		return Result{}, err
	}
	if !decision.Allowed {
		return Result{}, ErrSyncThrottled
	}
	return s.SyncSource(ctx, sourceID)
}

func (s *Syncer) SyncSource(ctx context.Context, sourceID string) (Result, error) {
	if !s.Enabled() {
		return Result{}, ErrNoFetcher
	}
	ds, err := s.sources.Get(sourceID)
	if err != nil {
		return Result{}, err
	}
	if !ds.Type.Syncable() {
		return Result{}, ErrNotSyncable
	}

	release, ok, err := s.limiter.Acquire(ctx, ds.ID)
	if err != nil {
		return Result{}, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return Result{}, ErrSyncInProgress
	}
	defer release()

	return s.sync(ctx, ds)
}

func (s *Syncer) sync(ctx context.Context, ds sourcedomain.DataSource) (Result, error) {
	start := s.clock.Now()
	runID := ulid.MustNew(ulid.Timestamp(start), ulid.DefaultEntropy()).String()
	log := s.log.With(
		zap.String("run_id", runID),
		zap.String("source_id", ds.ID),
		zap.String("source_type", string(ds.Type)),
	)

	ctx, span := otel.Tracer("profitlens/ingest").Start(ctx, "ingest.sync")
	defer span.End()
	span.SetAttributes(
		attribute.String("source_id", ds.ID),
		attribute.String("source_type", string(ds.Type)),
	)

	if err := s.sources.MarkSyncing(ctx, ds.ID); err != nil {
		return Result{}, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	records, err := s.fetcher.Fetch(fetchCtx, ds)
	cancel()
	elapsed := s.clock.Now().Sub(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.metrics.RecordSync(string(ds.Type), elapsed, 0, err)
		if markErr := s.sources.MarkSyncFailed(ctx, ds.ID, err); markErr != nil {
			log.Warn("failed to mark sync failure", zap.Error(markErr))
		}
		log.Warn("source sync failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return Result{}, fmt.Errorf("sync %s: %w", ds.ID, err)
	}

	if _, err := s.sources.ReplaceRecords(ctx, ds.ID, records); err != nil {
		s.metrics.RecordSync(string(ds.Type), elapsed, 0, err)
		return Result{}, fmt.Errorf("sync %s: %w", ds.ID, err)
	}
	s.metrics.RecordSync(string(ds.Type), elapsed, len(records), nil)
	log.Info("source synced", zap.Int("records", len(records)), zap.Duration("elapsed", elapsed))

	return Result{RunID: runID, SourceID: ds.ID, Records: len(records), Duration: elapsed}, nil
}

// SyncAll refreshes every syncable source with bounded concurrency. One
// failing source does not stop the others; all failures are joined.
func (s *Syncer) SyncAll(ctx context.Context) error {
	if !s.Enabled() {
		return ErrNoFetcher
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(s.concurrency)
	for _, ds := range s.sources.List() {
		if !ds.Type.Syncable() {
			continue
		}
		id := ds.ID
		g.Go(func() error {
			if _, err := s.SyncSource(ctx, id); err != nil && !errors.Is(err, ErrSyncInProgress) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
