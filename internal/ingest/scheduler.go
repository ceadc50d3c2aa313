package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const defaultInterval = 5 * time.Minute

// Scheduler runs SyncAll on a fixed interval.
type Scheduler struct {
	log      *zap.Logger
	syncer   *Syncer
	interval time.Duration
	timeout  time.Duration
}

func NewScheduler(log *zap.Logger, syncer *Syncer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		log:      log.Named("ingest.scheduler"),
		syncer:   syncer,
		interval: interval,
		timeout:  interval,
	}
}

// RunOnce performs one sync pass. A pass cut short by its deadline is
// logged, not returned.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	err := s.syncer.SyncAll(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("sync pass timed out", zap.Duration("timeout", s.timeout), zap.Error(err))
		return nil
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sync pass failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
