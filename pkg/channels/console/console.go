// Package console provides a terminal channel for trying commands locally.
//
// Every line typed is posted as the configured console user in the
// configured console channel. Channel and user references resolve against
// the entities listed in the console config section.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"counterbot/pkg/bus"
	"counterbot/pkg/config"
	"counterbot/pkg/logger"
	"counterbot/pkg/resolver"
)

const prompt = "> "

// LineReader reads user input one line at a time.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// Options overrides the terminal the channel talks to.
type Options struct {
	Reader LineReader
	Output io.Writer
	// OnExit is called when the user ends the session.
	OnExit func()
}

// Channel implements the console channel.
type Channel struct {
	log       *logger.Logger
	config    config.ConsoleConfig
	bus       bus.Bus
	directory *resolver.StaticDirectory
	reader    LineReader
	onExit    func()

	outMu sync.Mutex
	out   io.Writer

	replyColor *color.Color
	errorColor *color.Color

	wg sync.WaitGroup
}

// NewChannel creates a console channel. Without a reader in opts it opens a
// readline terminal on stdin.
func NewChannel(log *logger.Logger, cfg config.ConsoleConfig, b bus.Bus, opts Options) (*Channel, error) {
	c := &Channel{
		log:        log,
		config:     cfg,
		bus:        b,
		directory:  NewDirectory(cfg),
		reader:     opts.Reader,
		out:        opts.Output,
		onExit:     opts.OnExit,
		replyColor: color.New(color.FgHiGreen),
		errorColor: color.New(color.FgRed, color.Bold),
	}

	if c.reader == nil {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          prompt,
			HistoryFile:     filepath.Join(os.TempDir(), ".counterbot_history"),
			HistoryLimit:    100,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return nil, fmt.Errorf("opening terminal: %w", err)
		}
		c.reader = rl
		if c.out == nil {
			c.out = rl.Stdout()
		}
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.onExit == nil {
		c.onExit = func() {}
	}

	return c, nil
}

// NewDirectory builds the entity directory from the console config. The
// console channel and user are always present.
func NewDirectory(cfg config.ConsoleConfig) *resolver.StaticDirectory {
	channels := make([]resolver.Channel, 0, len(cfg.Channels)+1)
	hasOwn := false
	for _, ch := range cfg.Channels {
		channels = append(channels, resolver.Channel{
			ID:      ch.ID,
			GuildID: cfg.GuildID,
			Name:    ch.Name,
			Type:    resolver.ParseChannelType(ch.Type),
		})
		hasOwn = hasOwn || ch.ID == cfg.ChannelID
	}
	if !hasOwn {
		channels = append(channels, resolver.Channel{
			ID:      cfg.ChannelID,
			GuildID: cfg.GuildID,
			Name:    "console",
			Type:    resolver.ChannelTypeText,
		})
	}

	users := make([]resolver.User, 0, len(cfg.Users)+1)
	hasSelf := false
	for _, u := range cfg.Users {
		users = append(users, resolver.User{ID: u.ID, Username: u.Username})
		hasSelf = hasSelf || u.ID == cfg.UserID
	}
	if !hasSelf {
		users = append(users, resolver.User{ID: cfg.UserID, Username: "you"})
	}

	return resolver.NewStaticDirectory(channels, users)
}

// ID returns the channel identifier.
func (c *Channel) ID() string {
	return "console"
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "Console"
}

// IsEnabled returns whether the channel is enabled.
func (c *Channel) IsEnabled() bool {
	return true
}

// Directory returns the entity directory built from config.
func (c *Channel) Directory() resolver.Directory {
	return c.directory
}

// Start begins reading input.
func (c *Channel) Start(ctx context.Context) error {
	c.log.Info("Starting console channel",
		zap.String("channel_id", c.config.ChannelID),
		zap.String("user_id", c.config.UserID))

	c.println(color.New(color.FgHiBlack).Sprint("Type a command such as !help. Ctrl+D or exit to quit."))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.readLoop(ctx)
	}()
	return nil
}

// Stop closes the terminal and waits for the reader to return.
func (c *Channel) Stop(ctx context.Context) error {
	c.log.Info("Stopping console channel")
	err := c.reader.Close()
	c.wg.Wait()
	return err
}

func (c *Channel) readLoop(ctx context.Context) {
	defer c.onExit()

	for {
		if ctx.Err() != nil {
			return
		}

		line, err := c.reader.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return
			}
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("Failed to read console input", zap.Error(err))
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return
		}

		if err := c.bus.SendInbound(c.inboundMessage(input)); err != nil {
			c.log.Error("Failed to send inbound message", zap.Error(err))
		}
	}
}

func (c *Channel) inboundMessage(content string) *bus.Message {
	return &bus.Message{
		ID:         uuid.NewString(),
		Platform:   c.ID(),
		GuildID:    c.config.GuildID,
		ChannelID:  c.config.ChannelID,
		AuthorID:   c.config.UserID,
		AuthorName: "you",
		Type:       bus.MessageTypeText,
		Content:    content,
		Timestamp:  time.Now(),
	}
}

// SendMessage prints a reply.
func (c *Channel) SendMessage(ctx context.Context, msg *bus.Message) error {
	if msg.Type == bus.MessageTypeError {
		c.println(c.errorColor.Sprint(msg.Content))
		return nil
	}
	c.println(c.replyColor.Sprint("🤖 ") + msg.Content)
	return nil
}

func (c *Channel) println(text string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintln(c.out, text)
}
