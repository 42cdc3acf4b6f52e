package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"counterbot/pkg/channels"
	"counterbot/pkg/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot in the foreground",
	Long: `Connect to Discord and answer commands until interrupted.

Examples:
  # Use the default config search path (~/.counterbot, ., ./config)
  counterbot run

  # Use a specific config file
  counterbot -c /etc/counterbot/config.yaml run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Starting counterbot in foreground mode...")
		fmt.Println("To install as a system service, use: counterbot service install")
		fmt.Println()

		app := fx.New(appOptions(channels.Selection{"discord"}))
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()
		return nil
	},
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Try commands in the terminal",
	Long: `Start an interactive session where every line is sent as a chat message.

Channel and user references resolve against the entities in the "console"
config section, so the full flow including follow-up questions works
without Discord.

Examples:
  counterbot console
  > !counters view messages
  Which channel's counter value would you like to view?
  > #general`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			appOptions(channels.Selection{"console"}, fx.Decorate(quietLogger)),
			fx.NopLogger,
		)
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()
		return nil
	},
}

// quietLogger keeps informational logs from interleaving with the console
// conversation unless they go to a file.
func quietLogger(cfg *logger.Config) *logger.Config {
	if cfg.OutputPath != "" {
		return cfg
	}
	quiet := *cfg
	if quiet.Level == logger.LevelDebug || quiet.Level == logger.LevelInfo {
		quiet.Level = logger.LevelWarn
	}
	return &quiet
}
