package stripe

import (
	"go.uber.org/fx"
)

var Module = fx.Module("providers.stripe",
	fx.Provide(NewClient),
)
