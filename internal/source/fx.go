package source

import (
	"context"

	"github.com/smallbiznis/profitlens/internal/column"
	"github.com/smallbiznis/profitlens/internal/source/domain"
	"github.com/smallbiznis/profitlens/internal/source/repository"
	"github.com/smallbiznis/profitlens/internal/source/service"
	"go.uber.org/fx"
)

var Module = fx.Module("source.service",
	fx.Provide(column.NewSchemaCache),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Invoke(func(lc fx.Lifecycle, svc domain.Service) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return svc.Load(ctx)
			},
		})
	}),
)
