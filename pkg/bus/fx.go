package bus

import (
	"context"

	"go.uber.org/fx"

	"counterbot/pkg/config"
	"counterbot/pkg/logger"
)

// Module is the fx module for the message bus.
var Module = fx.Module("bus",
	fx.Provide(NewMessageBus),
)

// NewMessageBus creates the in-process message bus for fx.
func NewMessageBus(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) Bus {
	bus := NewLocalBus(log, cfg.Bus.BufferSize)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return bus.Start()
		},
		OnStop: func(ctx context.Context) error {
			return bus.Stop()
		},
	})

	return bus
}
