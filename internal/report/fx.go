package report

import (
	analyticsservice "github.com/smallbiznis/profitlens/internal/analytics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(func(e *analyticsservice.Engine) SnapshotSource { return e }),
	fx.Provide(NewService),
)
