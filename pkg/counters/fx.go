package counters

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"counterbot/pkg/logger"
)

// Module is the fx module for counter storage. It expects a *StoreConfig.
var Module = fx.Module("counters",
	fx.Provide(ProvideStore),
	fx.Provide(ProvideIDTable),
)

// ProvideStore opens the configured store and closes it on shutdown.
func ProvideStore(lc fx.Lifecycle, log *logger.Logger, cfg *StoreConfig) (Store, error) {
	store, err := NewStore(log, cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Counter store initialized", zap.String("backend", string(cfg.Backend)))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})

	return store, nil
}

// ProvideIDTable loads the id table at startup and keeps it fresh.
func ProvideIDTable(lc fx.Lifecycle, log *logger.Logger, store Store, cfg *StoreConfig) *IDTable {
	table := NewIDTable(store, log)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := table.Refresh(ctx); err != nil {
				// The bot can still answer "unknown counter" until a refresh succeeds.
				log.Warn("Initial counter id load failed", zap.Error(err))
			}
			if cfg.IDRefresh != "" {
				return table.StartSchedule(cfg.IDRefresh)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			table.StopSchedule()
			return nil
		},
	})

	return table
}
