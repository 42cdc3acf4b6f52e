package permissions

import (
	"go.uber.org/fx"

	"counterbot/pkg/config"
)

// Module provides the permission gate for fx dependency injection.
var Module = fx.Module("permissions",
	fx.Provide(ProvideGate),
)

// ProvideGate creates a gate from config and keeps it in sync with
// configuration reloads.
func ProvideGate(cfg *config.Config, watcher *config.Watcher) *Gate {
	gate := NewGate(FromConfig(cfg.Permissions))
	watcher.AddHandler(func(newCfg *config.Config) error {
		gate.Update(FromConfig(newCfg.Permissions))
		return nil
	})
	return gate
}

// FromConfig converts configured permission rules.
func FromConfig(rules map[string]config.PermissionRule) map[string]Rule {
	out := make(map[string]Rule, len(rules))
	for name, r := range rules {
		out[name] = Rule{Allow: r.Allow, Deny: r.Deny}
	}
	return out
}
