// Package bus provides message routing between chat transports and the
// command router.
package bus

import (
	"context"
	"time"
)

// MessageType represents the type of message.
type MessageType string

const (
	MessageTypeText MessageType = "text"
	// MessageTypeError marks a bot reply that reports a failure. Transports
	// may render it differently.
	MessageTypeError MessageType = "error"
)

// Message represents a message flowing through the bus.
type Message struct {
	ID         string      `json:"id"`          // Unique message ID
	Platform   string      `json:"platform"`    // Transport name, e.g. "discord"
	GuildID    string      `json:"guild_id"`    // Server the channel belongs to, empty for DMs
	ChannelID  string      `json:"channel_id"`  // Source/target chat channel
	AuthorID   string      `json:"author_id"`   // User identifier
	AuthorName string      `json:"author_name"` // User display name
	Bot        bool        `json:"bot"`         // Author is a bot account
	Type       MessageType `json:"type"`        // Message type
	Content    string      `json:"content"`     // Text content
	Timestamp  time.Time   `json:"timestamp"`   // Message timestamp
	ReplyTo    string      `json:"reply_to"`    // ID of message being replied to
}

// Handler is a function that processes messages.
type Handler func(ctx context.Context, msg *Message) error

// Bus is the interface for message routing.
type Bus interface {
	// Start starts the message bus.
	Start() error

	// Stop stops the message bus.
	Stop() error

	// RegisterInboundHandler registers a handler for every inbound message.
	RegisterInboundHandler(handler Handler)

	// RegisterOutboundHandler registers a handler for outbound messages
	// addressed to a platform.
	RegisterOutboundHandler(platform string, handler Handler)

	// UnregisterOutboundHandlers removes all outbound handlers for a platform.
	UnregisterOutboundHandlers(platform string)

	// SendInbound sends an inbound message (from transport to router).
	SendInbound(msg *Message) error

	// SendOutbound sends an outbound message (from router to transport).
	SendOutbound(msg *Message) error

	// GetMetrics returns current bus metrics.
	GetMetrics() map[string]uint64
}
