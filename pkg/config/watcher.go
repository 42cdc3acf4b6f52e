package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"counterbot/pkg/logger"
)

// ChangeHandler is a callback function called when configuration changes.
type ChangeHandler func(*Config) error

// Watcher monitors the configuration file and swaps in a new snapshot when
// it changes. Invalid files are logged and ignored; the previous snapshot
// stays in effect.
type Watcher struct {
	loader   *Loader
	log      *logger.Logger
	config   *Config
	handlers []ChangeHandler
	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(loader *Loader, config *Config, log *logger.Logger) *Watcher {
	return &Watcher{
		loader:   loader,
		log:      log,
		config:   config,
		handlers: make([]ChangeHandler, 0),
	}
}

// AddHandler registers a handler to be called when configuration changes.
func (w *Watcher) AddHandler(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins watching the configuration file for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	w.watching = true
	w.mu.Unlock()

	w.loader.viper.OnConfigChange(func(e fsnotify.Event) {
		w.reload(e.Name)
	})
	w.loader.viper.WatchConfig()

	return nil
}

func (w *Watcher) reload(file string) {
	w.mu.RLock()
	watching := w.watching
	w.mu.RUnlock()
	if !watching {
		return
	}

	newConfig, err := w.loader.Reload()
	if err != nil {
		w.log.Warn("Config reload failed", zap.String("file", file), zap.Error(err))
		return
	}
	if err := ValidateConfig(newConfig); err != nil {
		w.log.Warn("Reloaded config is invalid, keeping previous", zap.String("file", file), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.config = newConfig
	w.mu.Unlock()

	w.log.Info("Configuration reloaded",
		zap.String("file", file),
		zap.Int("counters", len(newConfig.Counters.Counters)))
	w.notifyHandlers(newConfig)
}

// Stop stops reacting to file changes. Viper offers no way to remove its
// watcher, so later events are ignored instead.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watching = false
}

// GetConfig returns the current configuration (thread-safe).
func (w *Watcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// ForMessage resolves per-message settings against the current snapshot.
func (w *Watcher) ForMessage(channelID, userID string) MessageConfig {
	return w.GetConfig().ForMessage(channelID, userID)
}

// notifyHandlers calls all registered handlers with the new configuration.
func (w *Watcher) notifyHandlers(config *Config) {
	w.mu.RLock()
	handlers := make([]ChangeHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(config); err != nil {
			w.log.Warn("Config change handler failed", zap.Error(err))
		}
	}
}
