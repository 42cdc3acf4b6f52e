package commands

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"counterbot/pkg/signature"
	"counterbot/pkg/version"
)

var processStartTime = time.Now()

// StatusSource reports runtime state for the status command.
type StatusSource interface {
	Pending() int
}

// RegisterBuiltinCommands registers built-in commands.
func RegisterBuiltinCommands(registry *Registry, prompts StatusSource) error {
	builtins := []*Command{
		{
			Name:        "help",
			Description: "Show available commands",
			Plugin:      "utility",
			Signatures: []signature.Shape{
				{{Name: "command", Type: signature.String, Optional: true}},
			},
			Handler: helpHandler(registry),
		},
		{
			Name:        "status",
			Description: "Show bot status",
			Plugin:      "utility",
			Handler:     statusHandler(prompts),
		},
	}

	for _, cmd := range builtins {
		if err := registry.Register(cmd); err != nil {
			return fmt.Errorf("failed to register %s: %w", cmd.Name, err)
		}
	}

	return nil
}

// helpHandler creates a handler for the help command.
func helpHandler(registry *Registry) CommandHandler {
	return func(ctx context.Context, inv *Invocation, rawArgs []string) error {
		// A multi-word trigger may be quoted or given as separate words.
		if len(rawArgs) > 0 {
			name := strings.TrimPrefix(strings.Join(rawArgs, " "), inv.Prefix)
			cmd, exists := registry.Get(name)
			if !exists {
				return userErrorf("Unknown command: %s", name)
			}

			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("**%s%s**\n\n%s\n\n**Usage:** %s",
				inv.Prefix, cmd.Name, cmd.Description, cmd.Usage(inv.Prefix)))
			if len(cmd.Aliases) > 0 {
				sb.WriteString("\n**Aliases:** " + strings.Join(cmd.Aliases, ", "))
			}
			return inv.Channel.Send(ctx, sb.String())
		}

		cmds := registry.List()

		var sb strings.Builder
		sb.WriteString("🤖 **Available Commands**\n\n")
		for _, cmd := range cmds {
			sb.WriteString(fmt.Sprintf("**%s%s** - %s\n", inv.Prefix, cmd.Name, compactDescription(cmd.Description, 72)))
		}
		sb.WriteString(fmt.Sprintf("\nUse `%shelp [command]` for detailed information.", inv.Prefix))

		return inv.Channel.Send(ctx, sb.String())
	}
}

func compactDescription(desc string, limit int) string {
	desc = strings.Join(strings.Fields(strings.TrimSpace(desc)), " ")
	if limit <= 0 {
		limit = 72
	}
	runes := []rune(desc)
	if len(runes) <= limit {
		return desc
	}
	if limit <= 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

// statusHandler creates a handler for the status command.
func statusHandler(prompts StatusSource) CommandHandler {
	return func(ctx context.Context, inv *Invocation, rawArgs []string) error {
		if len(rawArgs) > 0 {
			return userErrorf("Usage: %s", inv.Command.Usage(inv.Prefix))
		}

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		content := fmt.Sprintf(`✅ **Counterbot Status**

Platform: %s
Status: 🟢 Online
Version: %s
OS: %s/%s
Go: %s
Uptime: %s
Memory: %.2f MB
Pending prompts: %d`,
			inv.Platform,
			version.GetVersion(),
			runtime.GOOS,
			runtime.GOARCH,
			runtime.Version(),
			time.Since(processStartTime).Round(time.Second),
			float64(mem.Alloc)/1024.0/1024.0,
			prompts.Pending(),
		)

		return inv.Channel.Send(ctx, content)
	}
}
