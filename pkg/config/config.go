// Package config provides configuration management for counterbot.
// It uses Viper for flexible configuration loading with support for:
// - Multiple formats (JSON, YAML, TOML)
// - Environment variables and .env files
// - Hot-reload
// - Default values
package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"counterbot/pkg/counters"
)

// Config represents the complete counterbot configuration.
type Config struct {
	Logger      LoggerConfig              `mapstructure:"logger" json:"logger" yaml:"logger"`
	Discord     DiscordConfig             `mapstructure:"discord" json:"discord" yaml:"discord"`
	Bus         BusConfig                 `mapstructure:"bus" json:"bus" yaml:"bus"`
	Store       StoreConfig               `mapstructure:"store" json:"store" yaml:"store"`
	Counters    CountersConfig            `mapstructure:"counters" json:"counters" yaml:"counters"`
	Permissions map[string]PermissionRule `mapstructure:"permissions" json:"permissions" yaml:"permissions"`
	Docs        DocsConfig                `mapstructure:"docs" json:"docs" yaml:"docs"`
	Console     ConsoleConfig             `mapstructure:"console" json:"console" yaml:"console"`
	mu          sync.RWMutex
}

// LoggerConfig configures logging.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level" yaml:"level"`
	OutputPath  string `mapstructure:"output_path" json:"output_path" yaml:"output_path"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" json:"compress" yaml:"compress"`
	Development bool   `mapstructure:"development" json:"development" yaml:"development"`
}

// DiscordConfig for the Discord channel.
type DiscordConfig struct {
	Enabled   bool     `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Token     string   `mapstructure:"token" json:"token" yaml:"token"`
	Prefix    string   `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
	AllowFrom []string `mapstructure:"allow_from" json:"allow_from" yaml:"allow_from"`
}

// BusConfig configures the in-process message bus.
type BusConfig struct {
	BufferSize int `mapstructure:"buffer_size" json:"buffer_size" yaml:"buffer_size"`
}

// StoreConfig selects and configures the counter store backend.
type StoreConfig struct {
	Backend       string `mapstructure:"backend" json:"backend" yaml:"backend"` // memory, file, sqlite, redis
	FilePath      string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`
	WatchFile     bool   `mapstructure:"watch_file" json:"watch_file" yaml:"watch_file"`
	SQLitePath    string `mapstructure:"sqlite_path" json:"sqlite_path" yaml:"sqlite_path"`
	RedisAddr     string `mapstructure:"redis_addr" json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" json:"redis_db" yaml:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix" json:"redis_prefix" yaml:"redis_prefix"`
	IDRefresh     string `mapstructure:"id_refresh" json:"id_refresh" yaml:"id_refresh"` // cron spec
}

// CountersConfig is the counters plugin configuration.
type CountersConfig struct {
	PromptTimeout time.Duration            `mapstructure:"prompt_timeout" json:"prompt_timeout" yaml:"prompt_timeout"`
	Counters      map[string]CounterConfig `mapstructure:"counters" json:"counters" yaml:"counters"`
	Overrides     []CounterOverride        `mapstructure:"overrides" json:"overrides" yaml:"overrides"`
}

// CounterConfig defines one counter.
type CounterConfig struct {
	Name         string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
	PerChannel   bool   `mapstructure:"per_channel" json:"per_channel" yaml:"per_channel"`
	PerUser      bool   `mapstructure:"per_user" json:"per_user" yaml:"per_user"`
	CanView      *bool  `mapstructure:"can_view" json:"can_view,omitempty" yaml:"can_view,omitempty"`
	InitialValue int64  `mapstructure:"initial_value" json:"initial_value" yaml:"initial_value"`
}

// CounterOverride changes counter options for messages in the listed
// channels or from the listed users. An override with neither list applies
// to every message.
type CounterOverride struct {
	ChannelIDs []string                          `mapstructure:"channel_ids" json:"channel_ids,omitempty" yaml:"channel_ids,omitempty"`
	UserIDs    []string                          `mapstructure:"user_ids" json:"user_ids,omitempty" yaml:"user_ids,omitempty"`
	Counters   map[string]CounterOverrideOptions `mapstructure:"counters" json:"counters" yaml:"counters"`
}

// CounterOverrideOptions are the counter options an override may set.
// A nil CanView leaves the counter's setting unchanged.
type CounterOverrideOptions struct {
	CanView *bool `mapstructure:"can_view" json:"can_view" yaml:"can_view"`
}

// PermissionRule grants a permission. "*" matches every user.
type PermissionRule struct {
	Allow []string `mapstructure:"allow" json:"allow" yaml:"allow"`
	Deny  []string `mapstructure:"deny" json:"deny,omitempty" yaml:"deny,omitempty"`
}

// DocsConfig configures the documentation HTTP API.
type DocsConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" json:"host" yaml:"host"`
	Port    int    `mapstructure:"port" json:"port" yaml:"port"`
}

// ConsoleConfig describes the local console session and the channels and
// users its directory knows about.
type ConsoleConfig struct {
	GuildID   string                 `mapstructure:"guild_id" json:"guild_id" yaml:"guild_id"`
	ChannelID string                 `mapstructure:"channel_id" json:"channel_id" yaml:"channel_id"`
	UserID    string                 `mapstructure:"user_id" json:"user_id" yaml:"user_id"`
	Channels  []ConsoleChannelConfig `mapstructure:"channels" json:"channels" yaml:"channels"`
	Users     []ConsoleUserConfig    `mapstructure:"users" json:"users" yaml:"users"`
}

// ConsoleChannelConfig is a channel known to the console directory.
type ConsoleChannelConfig struct {
	ID   string `mapstructure:"id" json:"id" yaml:"id"`
	Name string `mapstructure:"name" json:"name" yaml:"name"`
	Type string `mapstructure:"type" json:"type" yaml:"type"` // text, voice, category, ...
}

// ConsoleUserConfig is a user known to the console directory.
type ConsoleUserConfig struct {
	ID       string `mapstructure:"id" json:"id" yaml:"id"`
	Username string `mapstructure:"username" json:"username" yaml:"username"`
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".counterbot")

	return &Config{
		Logger: LoggerConfig{
			Level:      "info",
			OutputPath: filepath.Join(dataDir, "logs", "counterbot.log"),
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		Discord: DiscordConfig{
			Enabled:   false,
			Prefix:    "!",
			AllowFrom: []string{},
		},
		Bus: BusConfig{
			BufferSize: 100,
		},
		Store: StoreConfig{
			Backend:    string(counters.BackendMemory),
			FilePath:   filepath.Join(dataDir, "counters.json"),
			SQLitePath: filepath.Join(dataDir, "counters.db"),
			RedisAddr:  "localhost:6379",
			IDRefresh:  "@every 5m",
		},
		Counters: CountersConfig{
			PromptTimeout: 30 * time.Second,
			Counters:      map[string]CounterConfig{},
			Overrides:     []CounterOverride{},
		},
		Permissions: map[string]PermissionRule{
			"can_view": {Allow: []string{"*"}},
		},
		Docs: DocsConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    18791,
		},
		Console: ConsoleConfig{
			GuildID:   "100000000000000000",
			ChannelID: "100000000000000001",
			UserID:    "100000000000000010",
			Channels: []ConsoleChannelConfig{
				{ID: "100000000000000001", Name: "general", Type: "text"},
				{ID: "100000000000000002", Name: "lounge", Type: "voice"},
			},
			Users: []ConsoleUserConfig{
				{ID: "100000000000000010", Username: "you"},
			},
		},
	}
}

// MessageConfig is the configuration in effect for one message.
type MessageConfig struct {
	Counters      map[string]counters.Definition
	PromptTimeout time.Duration
}

// ForMessage returns counter definitions with the overrides matching the
// message's channel and author applied, in declaration order. The result
// is a fresh copy; mutating it does not affect the config.
func (c *Config) ForMessage(channelID, userID string) MessageConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make(map[string]counters.Definition, len(c.Counters.Counters))
	for key, cc := range c.Counters.Counters {
		defs[key] = cc.definition(key)
	}

	for _, o := range c.Counters.Overrides {
		if !o.matches(channelID, userID) {
			continue
		}
		for key, opts := range o.Counters {
			def, ok := defs[key]
			if !ok || opts.CanView == nil {
				continue
			}
			v := *opts.CanView
			def.CanView = &v
			defs[key] = def
		}
	}

	return MessageConfig{
		Counters:      defs,
		PromptTimeout: c.Counters.PromptTimeout,
	}
}

func (cc CounterConfig) definition(key string) counters.Definition {
	def := counters.Definition{
		Key:          key,
		Name:         cc.Name,
		PerChannel:   cc.PerChannel,
		PerUser:      cc.PerUser,
		InitialValue: cc.InitialValue,
	}
	if cc.CanView != nil {
		v := *cc.CanView
		def.CanView = &v
	}
	return def
}

func (o CounterOverride) matches(channelID, userID string) bool {
	if len(o.ChannelIDs) > 0 && !contains(o.ChannelIDs, channelID) {
		return false
	}
	if len(o.UserIDs) > 0 && !contains(o.UserIDs, userID) {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
