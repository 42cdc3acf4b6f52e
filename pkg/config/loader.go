package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	viper *viper.Viper

	mu   sync.Mutex
	path string
}

const ConfigPathEnv = "COUNTERBOT_CONFIG_FILE"

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	// Set default config name and paths
	v.SetConfigName("config")
	v.SetConfigType("json")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".counterbot"))
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variable settings
	v.SetEnvPrefix("COUNTERBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, DefaultConfig())

	return &Loader{viper: v}
}

// bindDefaults registers scalar keys so AutomaticEnv can override them
// even when the config file omits them.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("logger.level", cfg.Logger.Level)
	v.SetDefault("logger.output_path", cfg.Logger.OutputPath)
	v.SetDefault("logger.max_size", cfg.Logger.MaxSize)
	v.SetDefault("logger.max_backups", cfg.Logger.MaxBackups)
	v.SetDefault("logger.max_age", cfg.Logger.MaxAge)
	v.SetDefault("logger.compress", cfg.Logger.Compress)
	v.SetDefault("logger.development", cfg.Logger.Development)
	v.SetDefault("discord.enabled", cfg.Discord.Enabled)
	v.SetDefault("discord.token", cfg.Discord.Token)
	v.SetDefault("discord.prefix", cfg.Discord.Prefix)
	v.SetDefault("bus.buffer_size", cfg.Bus.BufferSize)
	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.file_path", cfg.Store.FilePath)
	v.SetDefault("store.watch_file", cfg.Store.WatchFile)
	v.SetDefault("store.sqlite_path", cfg.Store.SQLitePath)
	v.SetDefault("store.redis_addr", cfg.Store.RedisAddr)
	v.SetDefault("store.redis_password", cfg.Store.RedisPassword)
	v.SetDefault("store.redis_db", cfg.Store.RedisDB)
	v.SetDefault("store.redis_prefix", cfg.Store.RedisPrefix)
	v.SetDefault("store.id_refresh", cfg.Store.IDRefresh)
	v.SetDefault("counters.prompt_timeout", cfg.Counters.PromptTimeout)
	v.SetDefault("docs.enabled", cfg.Docs.Enabled)
	v.SetDefault("docs.host", cfg.Docs.Host)
	v.SetDefault("docs.port", cfg.Docs.Port)
}

// Load loads the configuration from file and environment variables.
// If configPath is empty, it will search default paths.
// If the file doesn't exist, it auto-creates one.
func (l *Loader) Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Allow global override from environment.
	if strings.TrimSpace(configPath) == "" {
		configPath = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	explicitPath := strings.TrimSpace(configPath) != ""
	resolvedPath, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, err
	}

	if explicitPath {
		l.viper.SetConfigFile(resolvedPath)
		l.viper.SetConfigType(formatForPath(resolvedPath))
	}

	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			if err := SaveToFile(cfg, resolvedPath); err != nil {
				return nil, fmt.Errorf("creating config file: %w", err)
			}
			l.setPath(resolvedPath)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := l.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if used := strings.TrimSpace(l.viper.ConfigFileUsed()); used != "" {
		resolvedPath = used
	}
	l.setPath(resolvedPath)

	return cfg, nil
}

// Reload re-reads the file used by the last Load.
func (l *Loader) Reload() (*Config, error) {
	return l.Load(l.GetConfigPath())
}

// loadDotEnv loads .env from the working directory and then from the
// config directory. Variables already set in the environment win.
func loadDotEnv(configDir string) error {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// Save saves the configuration to a file.
func (l *Loader) Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Create a new viper instance for writing
	v := viper.New()
	v.SetConfigType(formatForPath(path))

	// Set all values from config
	v.Set("logger", cfg.Logger)
	v.Set("discord", cfg.Discord)
	v.Set("bus", cfg.Bus)
	v.Set("store", cfg.Store)
	v.Set("counters", cfg.Counters)
	v.Set("permissions", cfg.Permissions)
	v.Set("docs", cfg.Docs)
	v.Set("console", cfg.Console)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SaveToFile is a convenience function to save config without creating a Loader.
func SaveToFile(cfg *Config, path string) error {
	loader := NewLoader()
	return loader.Save(path, cfg)
}

// GetConfigHome returns the default config directory.
func GetConfigHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".counterbot"), nil
}

// GetConfigPath returns the path of the loaded config file.
func (l *Loader) GetConfigPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

func (l *Loader) setPath(path string) {
	l.mu.Lock()
	l.path = path
	l.mu.Unlock()
}

// Viper exposes the underlying viper instance.
func (l *Loader) Viper() *viper.Viper {
	return l.viper
}

// formatForPath determines the config format from the file extension.
func formatForPath(path string) string {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

func resolveConfigPath(configPath string) (string, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		home, err := GetConfigHome()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, "config.json")
	}
	abs, err := filepath.Abs(expandPath(path))
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return abs, nil
}
