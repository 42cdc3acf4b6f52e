// Package discord provides the Discord channel implementation.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"counterbot/pkg/bus"
	"counterbot/pkg/config"
	"counterbot/pkg/logger"
	"counterbot/pkg/resolver"
)

// errorPrefix marks replies that report a failure.
const errorPrefix = "⚠️ "

// Channel implements the Discord channel.
type Channel struct {
	log       *logger.Logger
	config    config.DiscordConfig
	bus       bus.Bus
	session   *discordgo.Session
	directory *Directory

	mu      sync.Mutex
	running bool
}

// NewChannel creates a new Discord channel.
func NewChannel(log *logger.Logger, cfg config.DiscordConfig, b bus.Bus) (*Channel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	return &Channel{
		log:       log,
		config:    cfg,
		bus:       b,
		session:   session,
		directory: NewDirectory(session, session.State),
	}, nil
}

// ID returns the channel identifier.
func (c *Channel) ID() string {
	return "discord"
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "Discord"
}

// IsEnabled returns whether the channel is enabled.
func (c *Channel) IsEnabled() bool {
	return c.config.Enabled
}

// Directory returns the entity directory backed by the session cache.
func (c *Channel) Directory() resolver.Directory {
	return c.directory
}

// Start connects the Discord bot.
func (c *Channel) Start(ctx context.Context) error {
	c.log.Info("Starting Discord channel")

	c.session.AddHandler(c.handleMessage)

	// Guilds is needed for the channel cache used to resolve channel names.
	c.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("opening discord connection: %w", err)
	}

	c.mu.Lock()
	c.running = true
	c.mu.Unlock()

	botUser, err := c.session.User("@me")
	if err != nil {
		c.log.Warn("Failed to get bot user", zap.Error(err))
	} else {
		c.log.Info("Discord bot connected",
			zap.String("username", botUser.Username),
			zap.String("user_id", botUser.ID))
	}

	return nil
}

// Stop disconnects the Discord bot.
func (c *Channel) Stop(ctx context.Context) error {
	c.log.Info("Stopping Discord channel")

	c.mu.Lock()
	wasRunning := c.running
	c.running = false
	c.mu.Unlock()

	if !wasRunning {
		return nil
	}
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("closing discord session: %w", err)
	}
	return nil
}

// handleMessage forwards guild messages to the bus.
func (c *Channel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	c.directory.Observe(m.Author)

	msg, ok := c.inboundMessage(m)
	if !ok {
		return
	}

	if err := c.bus.SendInbound(msg); err != nil {
		c.log.Error("Failed to send inbound message", zap.Error(err))
	}
}

// inboundMessage converts a Discord message. Messages from users outside
// allow_from and empty messages are dropped.
func (c *Channel) inboundMessage(m *discordgo.MessageCreate) (*bus.Message, bool) {
	if !c.isAllowed(m.Author.ID) {
		c.log.Debug("Ignoring message from user not in allow_from",
			zap.String("user_id", m.Author.ID),
			zap.String("username", m.Author.Username))
		return nil, false
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return nil, false
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &bus.Message{
		ID:         m.ID,
		Platform:   c.ID(),
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Bot:        m.Author.Bot,
		Type:       bus.MessageTypeText,
		Content:    content,
		Timestamp:  ts,
	}, true
}

// SendMessage sends a reply to a Discord channel.
func (c *Channel) SendMessage(ctx context.Context, msg *bus.Message) error {
	content := renderContent(msg)
	if _, err := c.session.ChannelMessageSend(msg.ChannelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending discord message: %w", err)
	}

	c.log.Debug("Sent Discord message",
		zap.String("channel_id", msg.ChannelID),
		zap.Int("length", len(content)))

	return nil
}

func renderContent(msg *bus.Message) string {
	if msg.Type == bus.MessageTypeError {
		return errorPrefix + msg.Content
	}
	return msg.Content
}

// isAllowed checks if a user is allowed to use the bot.
func (c *Channel) isAllowed(userID string) bool {
	if len(c.config.AllowFrom) == 0 {
		return true
	}

	for _, allowed := range c.config.AllowFrom {
		if allowed == userID || allowed == "*" {
			return true
		}
	}

	return false
}
