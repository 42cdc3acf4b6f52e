package channels

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"counterbot/pkg/bus"
	"counterbot/pkg/commands"
	"counterbot/pkg/config"
	"counterbot/pkg/logger"
)

// Module is the fx module for channels. The application supplies a
// Selection naming the channels to run.
var Module = fx.Module("channels",
	fx.Provide(NewChannelManager),
	fx.Invoke(RegisterChannels),
)

// NewChannelManager creates a new channel manager for fx.
func NewChannelManager(
	lc fx.Lifecycle,
	log *logger.Logger,
	messageBus bus.Bus,
	router *commands.Router,
) *Manager {
	manager := NewManager(log, messageBus, router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return manager.Start()
		},
		OnStop: func(ctx context.Context) error {
			return manager.Stop()
		},
	})

	return manager
}

// RegisterChannels builds and registers the selected channels that are
// enabled in config.
func RegisterChannels(
	manager *Manager,
	log *logger.Logger,
	messageBus bus.Bus,
	cfg *config.Config,
	selection Selection,
	shutdowner fx.Shutdowner,
) error {
	onExit := func() {
		if err := shutdowner.Shutdown(); err != nil {
			log.Warn("Failed to request shutdown", zap.Error(err))
		}
	}

	for _, name := range selection {
		enabled, err := IsChannelEnabled(name, cfg)
		if err != nil {
			return err
		}
		if !enabled {
			log.Info("Channel disabled in config, skipping", zap.String("channel", name))
			continue
		}

		ch, err := BuildChannel(name, log, messageBus, cfg, onExit)
		if err != nil {
			log.Warn("Failed to create channel, skipping", zap.String("channel", name), zap.Error(err))
			continue
		}
		if err := manager.Register(ch); err != nil {
			return err
		}
	}

	return nil
}
