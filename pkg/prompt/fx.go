package prompt

import "go.uber.org/fx"

// Module provides the prompt coordinator.
var Module = fx.Module("prompt",
	fx.Provide(NewCoordinator),
)
