package service

import (
	"github.com/smallbiznis/profitlens/internal/analytics/aggregate"
	"github.com/smallbiznis/profitlens/internal/analytics/domain"
	"github.com/smallbiznis/profitlens/internal/analytics/product"
	"github.com/smallbiznis/profitlens/internal/analytics/rollup"
)

// BuildSnapshot derives every output for in. It performs no I/O and is
// deterministic for a given input.
func BuildSnapshot(in domain.Inputs, estimator product.InventoryEstimator) domain.Snapshot {
	metrics := aggregate.Compute(in)
	series := rollup.Build(in)
	return domain.Snapshot{
		View:        in.View,
		Metrics:     metrics,
		Daily:       series.Daily,
		Weekly:      series.Weekly,
		Monthly:     series.Monthly,
		Products:    product.Analyze(in, metrics.AdSpend, estimator),
		Cities:      product.Cities(in.Orders),
		Couriers:    product.Couriers(in.Orders),
		AutoAdSpend: aggregate.AutoAdSpend(in),
	}
}
