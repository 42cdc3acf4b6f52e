// Package channels connects chat transports to the message bus.
package channels

import (
	"context"

	"counterbot/pkg/bus"
	"counterbot/pkg/resolver"
)

// Channel represents a chat transport (Discord, the local console).
type Channel interface {
	// ID returns the unique channel identifier. It is also the bus platform name.
	ID() string

	// Name returns the human-readable channel name.
	Name() string

	// Start starts the channel and begins listening for messages.
	Start(ctx context.Context) error

	// Stop stops the channel gracefully.
	Stop(ctx context.Context) error

	// IsEnabled returns whether the channel is enabled in configuration.
	IsEnabled() bool

	// SendMessage sends a message through this channel.
	SendMessage(ctx context.Context, msg *bus.Message) error

	// Directory returns the channel's entity directory used to resolve
	// channel and user references.
	Directory() resolver.Directory
}

// DirectoryRegistry accepts per-platform entity directories.
type DirectoryRegistry interface {
	RegisterDirectory(platform string, dir resolver.Directory)
}
