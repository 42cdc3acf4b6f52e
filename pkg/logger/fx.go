package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the logger for fx dependency injection.
// It expects a *Config to be provided by the config module.
var Module = fx.Module("logger",
	fx.Provide(ProvideLoggerFromConfig),
)

// ProvideLoggerFromConfig builds a logger and flushes it on shutdown.
func ProvideLoggerFromConfig(cfg *Config, lc fx.Lifecycle) (*Logger, error) {
	logger, err := New(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Logger initialized",
				zap.String("level", string(cfg.Level)),
				zap.String("output", cfg.OutputPath),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Sync on stdout returns EINVAL on some platforms; ignore it.
			_ = logger.Sync()
			return nil
		},
	})

	return logger, nil
}
