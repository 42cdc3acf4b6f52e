package channels

import (
	"fmt"
	"strings"

	"counterbot/pkg/bus"
	"counterbot/pkg/channels/console"
	"counterbot/pkg/channels/discord"
	"counterbot/pkg/config"
	"counterbot/pkg/logger"
)

// Selection names the channels a process runs.
type Selection []string

// BuildChannel creates a channel instance from the current config. onExit
// is called when an interactive channel ends its session.
func BuildChannel(
	name string,
	log *logger.Logger,
	messageBus bus.Bus,
	cfg *config.Config,
	onExit func(),
) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "discord":
		return discord.NewChannel(log, cfg.Discord, messageBus)
	case "console":
		return console.NewChannel(log, cfg.Console, messageBus, console.Options{OnExit: onExit})
	default:
		return nil, fmt.Errorf("unknown channel: %s", name)
	}
}

// IsChannelEnabled checks whether a channel is enabled in config.
func IsChannelEnabled(name string, cfg *config.Config) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "discord":
		return cfg.Discord.Enabled, nil
	case "console":
		return true, nil
	default:
		return false, fmt.Errorf("unknown channel: %s", name)
	}
}
