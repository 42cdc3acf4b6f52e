package config

import (
	"context"

	"go.uber.org/fx"

	"counterbot/pkg/counters"
	"counterbot/pkg/logger"
)

// Module provides configuration for fx dependency injection, together with
// the derived configs the logger and counters modules expect.
var Module = fx.Module("config",
	fx.Provide(ProvideLoader),
	fx.Provide(ProvideConfig),
	fx.Provide(ProvideLoggerConfig),
	fx.Provide(ProvideStoreConfig),
	fx.Provide(ProvideWatcher),
)

// ProvideLoader provides a configuration loader.
func ProvideLoader() *Loader {
	return NewLoader()
}

// ProvideConfig loads and validates the configuration. The file path comes
// from COUNTERBOT_CONFIG_FILE or the default search paths.
func ProvideConfig(loader *Loader) (*Config, error) {
	cfg, err := loader.Load("")
	if err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ProvideLoggerConfig derives the logger configuration.
func ProvideLoggerConfig(cfg *Config) *logger.Config {
	return cfg.Logger.ToLoggerConfig()
}

// ProvideStoreConfig derives the counter store configuration.
func ProvideStoreConfig(cfg *Config) *counters.StoreConfig {
	return cfg.Store.ToStoreConfig()
}

// ProvideWatcher provides a configuration watcher with hot-reload.
// Backend and transport settings are read once at startup; counter
// definitions, overrides and permissions follow the live file.
func ProvideWatcher(loader *Loader, cfg *Config, lc fx.Lifecycle, log *logger.Logger) *Watcher {
	watcher := NewWatcher(loader, cfg, log)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting configuration watcher")
			return watcher.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping configuration watcher")
			watcher.Stop()
			return nil
		},
	})

	return watcher
}
