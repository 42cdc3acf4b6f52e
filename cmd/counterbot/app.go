package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"counterbot/pkg/bus"
	"counterbot/pkg/channels"
	"counterbot/pkg/commands"
	"counterbot/pkg/config"
	"counterbot/pkg/counters"
	"counterbot/pkg/docs"
	"counterbot/pkg/logger"
	"counterbot/pkg/permissions"
	"counterbot/pkg/prompt"
	"counterbot/pkg/version"
)

// appOptions assembles the application for the given channels.
func appOptions(selection channels.Selection, extra ...fx.Option) fx.Option {
	return fx.Options(
		// Core modules
		config.Module,
		logger.Module,
		counters.Module,
		prompt.Module,
		permissions.Module,
		commands.Module,

		// Transport modules
		bus.Module,
		channels.Module,
		docs.Module,

		fx.Supply(selection),
		fx.Invoke(logStartup),
		fx.Options(extra...),
	)
}

func logStartup(lc fx.Lifecycle, log *logger.Logger, cm *channels.Manager, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			names := make([]string, 0)
			for _, ch := range cm.GetEnabledChannels() {
				names = append(names, ch.Name())
			}
			log.Info("counterbot started",
				zap.String("version", version.GetVersion()),
				zap.String("prefix", cfg.Discord.Prefix),
				zap.String("store", cfg.Store.Backend),
				zap.Strings("channels", names))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("counterbot stopped")
			return nil
		},
	})
}
