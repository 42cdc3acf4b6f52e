package docs

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"counterbot/pkg/commands"
	"counterbot/pkg/config"
	"counterbot/pkg/logger"
)

// Module provides the docs API for fx dependency injection.
var Module = fx.Module("docs",
	fx.Provide(ProvideCatalog),
	fx.Provide(ProvideServer),
	fx.Invoke(registerLifecycle),
)

// ProvideCatalog creates the plugin catalog over the command registry.
func ProvideCatalog(registry *commands.Registry, cfg *config.Config) *Catalog {
	return NewCatalog(registry, cfg.Discord.Prefix)
}

// ProvideServer creates the docs server.
func ProvideServer(cfg *config.Config, catalog *Catalog, log *logger.Logger) *Server {
	return NewServer(cfg.Docs, catalog, log)
}

func registerLifecycle(lc fx.Lifecycle, s *Server, cfg *config.Config, log *logger.Logger) {
	if !cfg.Docs.Enabled {
		log.Info("Docs API disabled in config")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting docs API", zap.String("addr", s.addr))
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return s.Stop(shutdownCtx)
		},
	})
}
