package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"counterbot/pkg/bus"
)

// busChannel replies to a chat channel through the outbound bus.
type busChannel struct {
	bus       bus.Bus
	platform  string
	guildID   string
	channelID string
	replyTo   string
}

func (c *busChannel) ID() string {
	return c.channelID
}

func (c *busChannel) Send(ctx context.Context, text string) error {
	return c.send(ctx, bus.MessageTypeText, text)
}

func (c *busChannel) SendError(ctx context.Context, text string) error {
	return c.send(ctx, bus.MessageTypeError, text)
}

func (c *busChannel) send(ctx context.Context, kind bus.MessageType, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.bus.SendOutbound(&bus.Message{
		ID:        uuid.NewString(),
		Platform:  c.platform,
		GuildID:   c.guildID,
		ChannelID: c.channelID,
		Type:      kind,
		Content:   text,
		Timestamp: time.Now(),
		ReplyTo:   c.replyTo,
	})
}
