package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"counterbot/pkg/bus"
	"counterbot/pkg/logger"
	"counterbot/pkg/permissions"
	"counterbot/pkg/prompt"
	"counterbot/pkg/resolver"
	"counterbot/pkg/signature"
)

// Router turns inbound chat messages into command invocations.
//
// Every message is first offered to the prompt coordinator; a message that
// answers a pending prompt is not treated as a command. Each invocation
// runs in its own goroutine so a command waiting for a reply never holds
// up the message loop.
type Router struct {
	log      *logger.Logger
	registry *Registry
	prompts  *prompt.Coordinator
	gate     *permissions.Gate
	configs  ConfigSource
	bus      bus.Bus
	prefix   string

	mu        sync.RWMutex
	resolvers map[string]*resolver.Resolver // platform -> resolver

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// RouterConfig holds the collaborators of a Router.
type RouterConfig struct {
	Registry *Registry
	Prompts  *prompt.Coordinator
	Gate     *permissions.Gate
	Configs  ConfigSource
	Bus      bus.Bus
	Prefix   string
}

// NewRouter creates a router.
func NewRouter(log *logger.Logger, cfg RouterConfig) *Router {
	ctx, cancel := context.WithCancel(context.Background())
	return &Router{
		log:       log,
		registry:  cfg.Registry,
		prompts:   cfg.Prompts,
		gate:      cfg.Gate,
		configs:   cfg.Configs,
		bus:       cfg.Bus,
		prefix:    cfg.Prefix,
		resolvers: make(map[string]*resolver.Resolver),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// RegisterDirectory sets the entity directory used to resolve channel and
// user references for messages from platform.
func (r *Router) RegisterDirectory(platform string, dir resolver.Directory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[platform] = resolver.New(dir)
}

// Prefix returns the command prefix.
func (r *Router) Prefix() string {
	return r.prefix
}

// HandleInbound is the bus handler for inbound messages. It never blocks
// on a running command.
func (r *Router) HandleInbound(_ context.Context, msg *bus.Message) error {
	if msg.Bot {
		return nil
	}

	if r.prompts.Deliver(prompt.Reply{
		ChannelID: msg.ChannelID,
		AuthorID:  msg.AuthorID,
		Content:   msg.Content,
	}) {
		return nil
	}

	content := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(content, r.prefix) {
		return nil
	}

	tokens, err := signature.Tokenize(strings.TrimPrefix(content, r.prefix))
	if err != nil {
		r.log.Debug("Ignoring unparsable command", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}

	cmd, trigger, rawArgs, ok := r.registry.Lookup(tokens)
	if !ok {
		return nil
	}

	res, err := r.resolverFor(msg.Platform)
	if err != nil {
		return err
	}

	inv := r.newInvocation(msg, cmd, trigger, res)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(r.ctx, inv, rawArgs)
	}()
	return nil
}

// Stop cancels running invocations and waits for them to return.
func (r *Router) Stop() {
	r.cancel()
	r.wg.Wait()
}

// Wait blocks until all running invocations have returned.
func (r *Router) Wait() {
	r.wg.Wait()
}

func (r *Router) resolverFor(platform string) (*resolver.Resolver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resolvers[platform]
	if !ok {
		return nil, fmt.Errorf("no directory registered for platform %q", platform)
	}
	return res, nil
}

func (r *Router) newInvocation(msg *bus.Message, cmd *Command, trigger string, res *resolver.Resolver) *Invocation {
	id := uuid.NewString()
	return &Invocation{
		ID:         id,
		Command:    cmd,
		Trigger:    trigger,
		Prefix:     r.prefix,
		Platform:   msg.Platform,
		GuildID:    msg.GuildID,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Channel: &busChannel{
			bus:       r.bus,
			platform:  msg.Platform,
			guildID:   msg.GuildID,
			channelID: msg.ChannelID,
			replyTo:   msg.ID,
		},
		Config:   r.configs.ForMessage(msg.ChannelID, msg.AuthorID),
		Resolver: res,
		Log: r.log.WithFields(
			zap.String("invocation_id", id),
			zap.String("command", cmd.Name),
			zap.String("user_id", msg.AuthorID),
			zap.String("channel_id", msg.ChannelID),
		),
	}
}

// run executes one invocation and reports its outcome to the channel.
func (r *Router) run(ctx context.Context, inv *Invocation, rawArgs []string) {
	defer func() {
		if p := recover(); p != nil {
			inv.Log.Error("Command panicked",
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			r.reply(ctx, inv, genericFailure)
		}
	}()

	inv.Log.Debug("Running command", zap.String("trigger", inv.Trigger), zap.Strings("args", rawArgs))

	if p := inv.Command.Permission; p != "" && !r.gate.Allowed(p, inv.AuthorID) {
		inv.Log.Debug("Permission denied", zap.String("permission", p))
		r.reply(ctx, inv, permissionDenied)
		return
	}

	err := inv.Command.Handler(ctx, inv, rawArgs)
	if err == nil {
		return
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		inv.Log.Debug("Command ended with user error", zap.String("reason", userErr.Message))
		r.reply(ctx, inv, userErr.Message)
		return
	}

	inv.Log.Error("Command failed", zap.Error(err))
	r.reply(ctx, inv, genericFailure)
}

func (r *Router) reply(ctx context.Context, inv *Invocation, text string) {
	if err := inv.Channel.SendError(ctx, text); err != nil {
		inv.Log.Warn("Failed to send error reply", zap.Error(err))
	}
}
