package ingest

import (
	"context"

	"github.com/smallbiznis/profitlens/internal/clock"
	"github.com/smallbiznis/profitlens/internal/config"
	"github.com/smallbiznis/profitlens/internal/ingest/demo"
	"github.com/smallbiznis/profitlens/internal/ingest/relay"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ingest",
	fx.Provide(NewFetcher),
	fx.Provide(NewSyncer),
	fx.Invoke(startScheduler),
)

// NewFetcher picks the demo generator in demo mode, the relay client when
// a relay is configured, and nothing otherwise.
func NewFetcher(cfg config.Config, clk clock.Clock, log *zap.Logger) Fetcher {
	switch {
	case cfg.DemoMode:
		log.Info("demo mode enabled, sources sync from the demo generator")
		return demo.NewGenerator(clk)
	case cfg.RelayBaseURL != "":
		return relay.NewClient(cfg.RelayBaseURL, cfg.RelayToken)
	default:
		log.Info("no relay configured, scheduled sync disabled")
		return nil
	}
}

func startScheduler(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, syncer *Syncer) {
	if !syncer.Enabled() {
		return
	}
	sched := NewScheduler(log, syncer, cfg.SyncInterval)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			go sched.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
			return nil
		},
	})
}
