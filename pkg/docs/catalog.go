// Package docs describes the bot's plugins and serves the description over
// HTTP.
package docs

import (
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"counterbot/pkg/commands"
	"counterbot/pkg/config"
	"counterbot/pkg/counters"
	"counterbot/pkg/signature"
)

// PluginInfo is the descriptive metadata of a plugin.
type PluginInfo struct {
	PrettyName  string `json:"prettyName" yaml:"prettyName"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Legacy      bool   `json:"legacy" yaml:"legacy"`
}

// PluginSummary is a plugin list entry.
type PluginSummary struct {
	Name string         `json:"name"`
	Info PluginInfoThin `json:"info"`
}

// PluginInfoThin is the subset of PluginInfo shown in the plugin list.
type PluginInfoThin struct {
	PrettyName string `json:"prettyName"`
	Legacy     bool   `json:"legacy"`
}

// MessageCommand documents one chat command.
type MessageCommand struct {
	Trigger     []string `json:"trigger" yaml:"trigger"`
	Permission  string   `json:"permission,omitempty" yaml:"permission,omitempty"`
	Signature   []string `json:"signature" yaml:"signature"`
	Description string   `json:"description" yaml:"description"`
	Usage       string   `json:"usage" yaml:"usage"`
}

// PluginDetail is the full description of a plugin.
type PluginDetail struct {
	Name            string           `json:"name" yaml:"name"`
	Info            PluginInfo       `json:"info" yaml:"info"`
	ConfigSchema    string           `json:"configSchema,omitempty" yaml:"configSchema,omitempty"`
	DefaultOptions  map[string]any   `json:"defaultOptions" yaml:"defaultOptions"`
	MessageCommands []MessageCommand `json:"messageCommands" yaml:"messageCommands"`
}

// CommandLister lists registered commands.
type CommandLister interface {
	List() []*commands.Command
}

type pluginSpec struct {
	info       PluginInfo
	schema     *jsonschema.Schema
	defaults   map[string]any
	showInDocs bool
}

// Catalog describes the plugins whose commands are registered.
type Catalog struct {
	registry CommandLister
	prefix   string
	plugins  map[string]pluginSpec
}

// NewCatalog creates a catalog over the registry. prefix is used to render
// usage lines.
func NewCatalog(registry CommandLister, prefix string) *Catalog {
	defaults := config.DefaultConfig()

	return &Catalog{
		registry: registry,
		prefix:   prefix,
		plugins: map[string]pluginSpec{
			"counters": {
				info: PluginInfo{
					PrettyName:  "Counters",
					Description: "Keep track of per-user, per-channel, or global numbers",
				},
				schema: counters.ConfigSchema(),
				defaults: map[string]any{
					"counters":       map[string]any{},
					"prompt_timeout": defaults.Counters.PromptTimeout.String(),
					"overrides":      []any{},
				},
				showInDocs: true,
			},
			"utility": {
				info: PluginInfo{
					PrettyName:  "Utility",
					Description: "Help and bot status",
				},
				defaults:   map[string]any{},
				showInDocs: true,
			},
		},
	}
}

// Plugins lists the documented plugins sorted by name.
func (c *Catalog) Plugins() []PluginSummary {
	names := make([]string, 0, len(c.plugins))
	for name, spec := range c.plugins {
		if spec.showInDocs {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]PluginSummary, 0, len(names))
	for _, name := range names {
		info := c.plugins[name].info
		out = append(out, PluginSummary{
			Name: name,
			Info: PluginInfoThin{PrettyName: info.PrettyName, Legacy: info.Legacy},
		})
	}
	return out
}

// Plugin describes one plugin.
func (c *Catalog) Plugin(name string) (PluginDetail, bool) {
	spec, ok := c.plugins[name]
	if !ok || !spec.showInDocs {
		return PluginDetail{}, false
	}

	detail := PluginDetail{
		Name:            name,
		Info:            spec.info,
		DefaultOptions:  spec.defaults,
		MessageCommands: []MessageCommand{},
	}
	if spec.schema != nil {
		detail.ConfigSchema = RenderSchema(spec.schema)
	}

	for _, cmd := range c.registry.List() {
		if cmd.Plugin != name {
			continue
		}
		detail.MessageCommands = append(detail.MessageCommands, describeCommand(cmd, c.prefix))
	}
	return detail, true
}

func describeCommand(cmd *commands.Command, prefix string) MessageCommand {
	sigs := make([]string, 0, len(cmd.Signatures))
	for _, shape := range cmd.Signatures {
		sigs = append(sigs, signature.Describe(shape))
	}
	return MessageCommand{
		Trigger:     cmd.Triggers(),
		Permission:  cmd.Permission,
		Signature:   sigs,
		Description: cmd.Description,
		Usage:       cmd.Usage(prefix),
	}
}
