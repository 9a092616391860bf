package ideas_fx

import (
	"go.uber.org/fx"

	"koreafit/internal/services"
)

var Module = fx.Provide(
	services.NewHashTrendAnalyzer,
	services.NewScoringService,
	services.NewIdeaService,
	services.NewBookmarkService,
	services.NewExportService,
)
