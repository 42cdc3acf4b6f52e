package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"counterbot/pkg/commands"
	"counterbot/pkg/config"
	"counterbot/pkg/counters"
	"counterbot/pkg/docs"
	"counterbot/pkg/logger"
	"counterbot/pkg/prompt"
)

var (
	docsPlugin        string
	docsDefaultConfig bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Print plugin documentation",
	Long: `Print the documentation served by the docs API as YAML.

Examples:
  # All plugins
  counterbot docs

  # One plugin
  counterbot docs --plugin counters

  # A starter config file
  counterbot docs --default-config > config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if docsDefaultConfig {
			return writeYAML(cmd.OutOrStdout(), config.DefaultConfig())
		}
		return writePluginDocs(cmd.OutOrStdout(), docsPlugin)
	},
}

func init() {
	docsCmd.Flags().StringVarP(&docsPlugin, "plugin", "p", "", "only print this plugin")
	docsCmd.Flags().BoolVar(&docsDefaultConfig, "default-config", false, "print the default configuration instead")
}

// offlineCatalog builds a catalog without connecting to storage or chat.
func offlineCatalog() (*docs.Catalog, error) {
	log := logger.NewNop()
	prompts := prompt.NewCoordinator(log)
	registry := commands.NewRegistry()
	if err := commands.RegisterBuiltinCommands(registry, prompts); err != nil {
		return nil, err
	}

	store := counters.NewMemoryStore()
	view := commands.NewViewCounter(counters.NewIDTable(store, log), store, prompts)
	if err := registry.Register(view.Command()); err != nil {
		return nil, err
	}

	return docs.NewCatalog(registry, config.DefaultConfig().Discord.Prefix), nil
}

func writePluginDocs(w io.Writer, only string) error {
	catalog, err := offlineCatalog()
	if err != nil {
		return err
	}

	var names []string
	if only != "" {
		names = []string{only}
	} else {
		for _, p := range catalog.Plugins() {
			names = append(names, p.Name)
		}
	}

	for i, name := range names {
		detail, ok := catalog.Plugin(name)
		if !ok {
			return fmt.Errorf("unknown plugin: %s", name)
		}
		if i > 0 {
			fmt.Fprintln(w, "---")
		}
		if err := writeYAML(w, detail); err != nil {
			return err
		}
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
