package metrics_fx

import (
	"go.uber.org/fx"

	"koreafit/pkg/metrics"
)

var Module = fx.Provide(metrics.NewCollector)
