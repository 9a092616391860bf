package subscription_fx

import (
	"go.uber.org/fx"

	"koreafit/internal/services"
)

var Module = fx.Provide(
	services.NewSubscriptionService,
	services.NewEntitlementService,
)
