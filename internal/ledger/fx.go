package ledger

import (
	"context"

	"github.com/smallbiznis/profitlens/internal/ledger/domain"
	"github.com/smallbiznis/profitlens/internal/ledger/repository"
	"github.com/smallbiznis/profitlens/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Invoke(func(lc fx.Lifecycle, svc domain.Service) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return svc.Load(ctx)
			},
		})
	}),
)
