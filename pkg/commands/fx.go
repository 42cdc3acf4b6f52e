package commands

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"counterbot/pkg/bus"
	"counterbot/pkg/config"
	"counterbot/pkg/counters"
	"counterbot/pkg/logger"
	"counterbot/pkg/permissions"
	"counterbot/pkg/prompt"
)

// Module provides the commands system.
var Module = fx.Module("commands",
	fx.Provide(NewRegistry),
	fx.Provide(ProvideRouter),
	fx.Invoke(registerBuiltins),
	fx.Invoke(registerViewCounter),
)

// ProvideRouter creates the router and attaches it to the inbound bus.
func ProvideRouter(
	lc fx.Lifecycle,
	log *logger.Logger,
	cfg *config.Config,
	watcher *config.Watcher,
	registry *Registry,
	prompts *prompt.Coordinator,
	gate *permissions.Gate,
	messageBus bus.Bus,
) *Router {
	router := NewRouter(log, RouterConfig{
		Registry: registry,
		Prompts:  prompts,
		Gate:     gate,
		Configs:  watcher,
		Bus:      messageBus,
		Prefix:   cfg.Discord.Prefix,
	})
	messageBus.RegisterInboundHandler(router.HandleInbound)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			router.Stop()
			return nil
		},
	})

	return router
}

// registerBuiltins registers built-in commands on startup.
func registerBuiltins(registry *Registry, prompts *prompt.Coordinator, log *logger.Logger) error {
	if err := RegisterBuiltinCommands(registry, prompts); err != nil {
		log.Error("Failed to register builtin commands", zap.Error(err))
		return err
	}

	log.Info("Registered builtin commands", zap.Int("count", len(registry.List())))
	return nil
}

// registerViewCounter registers the counter view command.
func registerViewCounter(
	registry *Registry,
	log *logger.Logger,
	ids *counters.IDTable,
	store counters.Store,
	prompts *prompt.Coordinator,
) error {
	cmd := NewViewCounter(ids, store, prompts).Command()
	if err := registry.Register(cmd); err != nil {
		log.Error("Failed to register counter commands", zap.Error(err))
		return err
	}

	log.Info("Registered counter commands", zap.Strings("triggers", cmd.Triggers()))
	return nil
}
