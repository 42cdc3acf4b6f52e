// Package main is the entry point for the counterbot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"counterbot/pkg/config"
	"counterbot/pkg/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "counterbot",
	Short: "counterbot - a Discord bot that shows counter values",
	Long: `counterbot is a Discord bot that shows the values of configured counters.

Counters can be global, per channel, per user or per channel and user. When a
command leaves out a channel or user the counter needs, the bot asks for it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			return nil
		}
		// Modules read the path from the environment.
		return os.Setenv(config.ConfigPathEnv, configPath)
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetFullVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(serviceCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
