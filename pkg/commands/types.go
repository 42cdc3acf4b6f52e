// Package commands parses chat messages into command invocations and runs
// them.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"counterbot/pkg/config"
	"counterbot/pkg/logger"
	"counterbot/pkg/resolver"
	"counterbot/pkg/signature"
)

// genericFailure is sent when a command fails for a reason the user cannot fix.
const genericFailure = "❌ Command failed, please try again later"

// permissionDenied is sent when the permission gate rejects an invocation.
const permissionDenied = "You don't have permission to use this command"

// Command represents a message command.
type Command struct {
	// Name is the canonical trigger, e.g. "counters view".
	Name string
	// Aliases are additional triggers.
	Aliases []string
	// Description is a short description of what the command does
	Description string
	// Plugin groups the command in the docs API.
	Plugin string
	// Permission must be held by the caller. Empty means anyone may run it.
	Permission string
	// Signatures lists the accepted argument shapes in priority order.
	Signatures []signature.Shape
	// Handler is the function that executes the command
	Handler CommandHandler
}

// Triggers returns the name followed by the aliases.
func (c *Command) Triggers() []string {
	return append([]string{c.Name}, c.Aliases...)
}

// Usage renders the usage line, e.g. "!counters view <counterName> [user] [channel]".
func (c *Command) Usage(prefix string) string {
	args := signature.Usage(c.Signatures)
	if args == "" {
		return prefix + c.Name
	}
	return prefix + c.Name + " " + args
}

// CommandHandler runs a command. rawArgs are the tokens after the trigger.
// A *UserError is reported to the user as is; any other error is logged and
// replaced with a generic failure notice.
type CommandHandler func(ctx context.Context, inv *Invocation, rawArgs []string) error

// TextChannel is the chat channel an invocation replies to.
type TextChannel interface {
	ID() string
	// Send posts a regular reply.
	Send(ctx context.Context, text string) error
	// SendError posts a reply that reports a failure.
	SendError(ctx context.Context, text string) error
}

// ConfigSource resolves configuration for one message.
type ConfigSource interface {
	ForMessage(channelID, userID string) config.MessageConfig
}

// Invocation is everything a command needs for one run. It is built when
// the command starts and is not shared with other invocations.
type Invocation struct {
	ID         string
	Command    *Command
	Trigger    string
	Prefix     string
	Platform   string
	GuildID    string
	AuthorID   string
	AuthorName string
	Channel    TextChannel
	// Config is the configuration snapshot taken at invocation start.
	Config   config.MessageConfig
	Resolver *resolver.Resolver
	Log      *logger.Logger
}

// Parser returns a signature parser scoped to the invocation's guild.
func (inv *Invocation) Parser() signature.Parser {
	return signature.ResolverParser{Resolver: inv.Resolver, GuildID: inv.GuildID}
}

// Match matches rawArgs against the command's signatures. No match is
// returned as a *UserError carrying the usage line.
func (inv *Invocation) Match(ctx context.Context, rawArgs []string) (int, signature.Args, error) {
	index, args, err := signature.Match(ctx, inv.Command.Signatures, rawArgs, inv.Parser())
	if errors.Is(err, signature.ErrNoMatch) {
		return -1, nil, userErrorf("Usage: %s", inv.Command.Usage(inv.Prefix))
	}
	return index, args, err
}

// UserError is a failure caused by the user's input. Its message is sent
// to the channel verbatim.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

func userErrorf(format string, args ...interface{}) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// normalizeTrigger lowercases a trigger and collapses inner whitespace.
func normalizeTrigger(trigger string) string {
	return strings.ToLower(strings.Join(strings.Fields(trigger), " "))
}
