package channels

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"counterbot/pkg/bus"
	"counterbot/pkg/logger"
)

// Manager manages all communication channels.
type Manager struct {
	log         *logger.Logger
	bus         bus.Bus
	directories DirectoryRegistry
	channels    map[string]Channel
	mu          sync.RWMutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a new channel manager.
func NewManager(log *logger.Logger, messageBus bus.Bus, directories DirectoryRegistry) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		log:         log,
		bus:         messageBus,
		directories: directories,
		channels:    make(map[string]Channel),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register registers a channel and its entity directory.
func (m *Manager) Register(channel Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := channel.ID()
	if _, exists := m.channels[id]; exists {
		return fmt.Errorf("channel %s already registered", id)
	}

	m.channels[id] = channel
	m.directories.RegisterDirectory(id, channel.Directory())
	m.log.Info("Registered channel",
		zap.String("id", id),
		zap.String("name", channel.Name()))

	return nil
}

// Start starts all enabled channels.
func (m *Manager) Start() error {
	m.log.Info("Starting channel manager")

	channels := m.GetEnabledChannels()

	for _, ch := range channels {
		channel := ch

		m.bus.RegisterOutboundHandler(channel.ID(), channel.SendMessage)

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()

			m.log.Info("Starting channel",
				zap.String("id", channel.ID()),
				zap.String("name", channel.Name()))

			if err := channel.Start(m.ctx); err != nil {
				m.log.Error("Channel start failed",
					zap.String("channel", channel.ID()),
					zap.Error(err))
			}
		}()
	}

	if len(channels) == 0 {
		m.log.Warn("No channels enabled")
	} else {
		m.log.Info("Started channels", zap.Int("count", len(channels)))
	}

	return nil
}

// Stop stops all channels gracefully.
func (m *Manager) Stop() error {
	m.log.Info("Stopping channel manager")

	m.cancel()
	m.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, ch := range m.ListChannels() {
		m.bus.UnregisterOutboundHandlers(ch.ID())
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Stop(ctx); err != nil {
			m.log.Error("Error stopping channel",
				zap.String("channel", ch.ID()),
				zap.Error(err))
		}
	}

	m.log.Info("Channel manager stopped")
	return nil
}

// GetChannel returns a channel by ID.
func (m *Manager) GetChannel(channelID string) (Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	channel, exists := m.channels[channelID]
	if !exists {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}

	return channel, nil
}

// ListChannels returns all registered channels sorted by ID.
func (m *Manager) ListChannels() []Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()

	channels := make([]Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].ID() < channels[j].ID() })

	return channels
}

// GetEnabledChannels returns all enabled channels.
func (m *Manager) GetEnabledChannels() []Channel {
	all := m.ListChannels()
	channels := make([]Channel, 0, len(all))
	for _, ch := range all {
		if ch.IsEnabled() {
			channels = append(channels, ch)
		}
	}
	return channels
}
