package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"counterbot/pkg/counters"
	"counterbot/pkg/logger"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

var (
	snowflakePattern  = regexp.MustCompile(`^\d{17,20}$`)
	counterKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	v.validateLogger(&cfg.Logger)
	v.validateDiscord(&cfg.Discord)
	v.validateBus(&cfg.Bus)
	v.validateStore(&cfg.Store)
	v.validateCounters(&cfg.Counters)
	v.validatePermissions(cfg.Permissions)
	v.validateDocs(&cfg.Docs)
	v.validateConsole(&cfg.Console)

	if len(v.errors) > 0 {
		return v.errors
	}

	return nil
}

// validateLogger validates logger configuration.
func (v *Validator) validateLogger(cfg *LoggerConfig) {
	level := strings.ToLower(strings.TrimSpace(cfg.Level))
	if level != "" && logger.ParseLevel(level) != logger.Level(level) {
		v.addError("logger.level", "level must be one of: debug, info, warn, error, fatal")
	}
	if cfg.MaxSize < 0 {
		v.addError("logger.max_size", "max_size must be non-negative")
	}
	if cfg.MaxBackups < 0 {
		v.addError("logger.max_backups", "max_backups must be non-negative")
	}
	if cfg.MaxAge < 0 {
		v.addError("logger.max_age", "max_age must be non-negative")
	}
}

// validateDiscord validates Discord configuration.
func (v *Validator) validateDiscord(cfg *DiscordConfig) {
	if cfg.Enabled && strings.TrimSpace(cfg.Token) == "" {
		v.addError("discord.token", "token is required when discord is enabled")
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		v.addError("discord.prefix", "prefix is required")
	} else if strings.ContainsAny(cfg.Prefix, " \t\n") {
		v.addError("discord.prefix", "prefix must not contain whitespace")
	}
}

// validateBus validates bus configuration.
func (v *Validator) validateBus(cfg *BusConfig) {
	if cfg.BufferSize < 1 {
		v.addError("bus.buffer_size", "buffer_size must be at least 1")
	}
}

// validateStore validates counter store configuration.
func (v *Validator) validateStore(cfg *StoreConfig) {
	switch counters.BackendType(strings.ToLower(strings.TrimSpace(cfg.Backend))) {
	case counters.BackendMemory, "":
	case counters.BackendFile:
		if strings.TrimSpace(cfg.FilePath) == "" {
			v.addError("store.file_path", "file_path is required when backend is file")
		}
	case counters.BackendSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			v.addError("store.sqlite_path", "sqlite_path is required when backend is sqlite")
		}
	case counters.BackendRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			v.addError("store.redis_addr", "redis_addr is required when backend is redis")
		}
		if cfg.RedisDB < 0 {
			v.addError("store.redis_db", "redis_db must be non-negative")
		}
	default:
		v.addError("store.backend", "backend must be one of: memory, file, sqlite, redis")
	}

	if spec := strings.TrimSpace(cfg.IDRefresh); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			v.addError("store.id_refresh", fmt.Sprintf("invalid cron spec: %v", err))
		}
	}
}

// validateCounters validates counter definitions and overrides.
func (v *Validator) validateCounters(cfg *CountersConfig) {
	if cfg.PromptTimeout < time.Second {
		v.addError("counters.prompt_timeout", "prompt_timeout must be at least 1s")
	}

	for key := range cfg.Counters {
		if !counterKeyPattern.MatchString(key) {
			v.addError("counters.counters."+key, "counter key may only contain letters, digits, '_' and '-'")
		}
	}

	for i, o := range cfg.Overrides {
		prefix := fmt.Sprintf("counters.overrides[%d]", i)
		for _, id := range o.ChannelIDs {
			if !snowflakePattern.MatchString(id) {
				v.addError(prefix+".channel_ids", fmt.Sprintf("invalid channel id %q", id))
			}
		}
		for _, id := range o.UserIDs {
			if !snowflakePattern.MatchString(id) {
				v.addError(prefix+".user_ids", fmt.Sprintf("invalid user id %q", id))
			}
		}
		for key := range o.Counters {
			if _, ok := cfg.Counters[key]; !ok {
				v.addError(prefix+".counters."+key, "override refers to an undefined counter")
			}
		}
	}
}

// validatePermissions validates permission rules.
func (v *Validator) validatePermissions(rules map[string]PermissionRule) {
	for name, rule := range rules {
		for _, id := range rule.Allow {
			if id != "*" && !snowflakePattern.MatchString(id) {
				v.addError("permissions."+name+".allow", fmt.Sprintf("invalid user id %q", id))
			}
		}
		for _, id := range rule.Deny {
			if id != "*" && !snowflakePattern.MatchString(id) {
				v.addError("permissions."+name+".deny", fmt.Sprintf("invalid user id %q", id))
			}
		}
	}
}

// validateDocs validates docs API configuration.
func (v *Validator) validateDocs(cfg *DocsConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("docs.port", "port must be between 1 and 65535")
	}
}

// validateConsole validates console configuration.
func (v *Validator) validateConsole(cfg *ConsoleConfig) {
	if strings.TrimSpace(cfg.ChannelID) == "" {
		v.addError("console.channel_id", "channel_id is required")
	}
	if strings.TrimSpace(cfg.UserID) == "" {
		v.addError("console.user_id", "user_id is required")
	}
	for i, ch := range cfg.Channels {
		if strings.TrimSpace(ch.ID) == "" {
			v.addError(fmt.Sprintf("console.channels[%d].id", i), "id is required")
		}
	}
	for i, u := range cfg.Users {
		if strings.TrimSpace(u.ID) == "" {
			v.addError(fmt.Sprintf("console.users[%d].id", i), "id is required")
		}
	}
}

// addError adds a validation error.
func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// ValidateConfig is a convenience function to validate a configuration.
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.Validate(cfg)
}
