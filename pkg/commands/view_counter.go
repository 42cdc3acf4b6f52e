package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"counterbot/pkg/counters"
	"counterbot/pkg/prompt"
	"counterbot/pkg/resolver"
	"counterbot/pkg/signature"
)

// PermissionView is the permission required to run the view command.
const PermissionView = "can_view"

const (
	askChannelPrompt = "Which channel's counter value would you like to view?"
	askUserPrompt    = "Which user's counter value would you like to view?"
)

var viewCounterSignatures = []signature.Shape{
	{
		{Name: "counterName", Type: signature.String},
		{Name: "user", Type: signature.User},
		{Name: "channel", Type: signature.TextChannel},
	},
	{
		{Name: "counterName", Type: signature.String},
		{Name: "user", Type: signature.User},
	},
	{
		{Name: "counterName", Type: signature.String},
		{Name: "channel", Type: signature.TextChannel},
	},
	{
		{Name: "counterName", Type: signature.String},
	},
}

// CounterIDs looks up the storage ID assigned to a counter key.
type CounterIDs interface {
	Lookup(key string) (counters.CounterID, bool)
}

// Prompter asks the invoking user a follow-up question.
type Prompter interface {
	PromptAndWait(ctx context.Context, ch prompt.Channel, askingUserID, question string, timeout time.Duration) (string, error)
}

// ViewCounter shows the current value of a counter for a scope. Missing
// channel or user dimensions that the counter requires are asked for
// interactively.
type ViewCounter struct {
	ids     CounterIDs
	store   counters.Store
	prompts Prompter
}

// NewViewCounter creates the view command.
func NewViewCounter(ids CounterIDs, store counters.Store, prompts Prompter) *ViewCounter {
	return &ViewCounter{ids: ids, store: store, prompts: prompts}
}

// Command returns the registrable command.
func (v *ViewCounter) Command() *Command {
	return &Command{
		Name:        "counters view",
		Aliases:     []string{"counter view", "viewcounter"},
		Description: "View a counter's current value",
		Plugin:      "counters",
		Permission:  PermissionView,
		Signatures:  viewCounterSignatures,
		Handler:     v.Run,
	}
}

// viewScope is the resolved scope of one view.
type viewScope struct {
	channel *resolver.Channel
	user    *resolver.User
}

// Run executes the view. Steps run strictly in order: match arguments,
// validate the counter, check scope compatibility, ask for a missing
// channel, ask for a missing user, read the value, reply.
func (v *ViewCounter) Run(ctx context.Context, inv *Invocation, rawArgs []string) error {
	_, args, err := inv.Match(ctx, rawArgs)
	if err != nil {
		return err
	}

	key, _ := args.Text("counterName")
	def, err := v.validateCounter(inv, key)
	if err != nil {
		return err
	}
	id, _ := v.ids.Lookup(key)

	if args.Has("channel") && !def.PerChannel {
		return userErrorf("This counter is not per-channel")
	}
	if args.Has("user") && !def.PerUser {
		return userErrorf("This counter is not per-user")
	}

	var scope viewScope
	if ch, ok := args.Channel("channel"); ok {
		scope.channel = &ch
	}
	if u, ok := args.User("user"); ok {
		scope.user = &u.User
	}

	if def.PerChannel && scope.channel == nil {
		ch, err := v.askChannel(ctx, inv)
		if err != nil {
			return err
		}
		scope.channel = &ch
	}
	if def.PerUser && scope.user == nil {
		u, err := v.askUser(ctx, inv)
		if err != nil {
			return err
		}
		scope.user = &u
	}

	scopeKey := counters.ScopeKey{CounterID: id}
	if scope.channel != nil {
		scopeKey.ChannelID = scope.channel.ID
	}
	if scope.user != nil {
		scopeKey.UserID = scope.user.ID
	}

	value, ok, err := v.store.GetCurrentValue(ctx, scopeKey)
	if err != nil {
		return fmt.Errorf("reading counter %s: %w", key, err)
	}
	if !ok {
		value = def.InitialValue
	}

	inv.Log.Debug("Counter viewed",
		zap.String("counter", key),
		zap.String("scope", scopeKey.String()),
		zap.Bool("recorded", ok))

	return inv.Channel.Send(ctx, formatCounterValue(def.DisplayName(key), scope, value))
}

// validateCounter checks that the counter is configured, has a storage ID
// and may be viewed.
func (v *ViewCounter) validateCounter(inv *Invocation, key string) (counters.Definition, error) {
	def, configured := inv.Config.Counters[key]
	if _, hasID := v.ids.Lookup(key); !configured || !hasID {
		return counters.Definition{}, userErrorf("Unknown counter: %s", key)
	}
	if !def.Viewable() {
		return counters.Definition{}, userErrorf("Missing permissions to view this counter's values")
	}
	return def, nil
}

func (v *ViewCounter) askChannel(ctx context.Context, inv *Invocation) (resolver.Channel, error) {
	reply, err := v.ask(ctx, inv, askChannelPrompt)
	if err != nil {
		return resolver.Channel{}, err
	}

	ch, err := inv.Resolver.ResolveChannel(ctx, inv.GuildID, reply)
	switch {
	case errors.Is(err, resolver.ErrNotTextChannel):
		return resolver.Channel{}, userErrorf("Channel is not a text channel, cancelling")
	case errors.Is(err, resolver.ErrNotFound):
		return resolver.Channel{}, userErrorf("Unknown channel, cancelling")
	case err != nil:
		return resolver.Channel{}, fmt.Errorf("resolving channel reply: %w", err)
	}
	return ch, nil
}

func (v *ViewCounter) askUser(ctx context.Context, inv *Invocation) (resolver.User, error) {
	reply, err := v.ask(ctx, inv, askUserPrompt)
	if err != nil {
		return resolver.User{}, err
	}

	res := inv.Resolver.ResolveUser(ctx, reply)
	if !res.Ok() {
		return resolver.User{}, userErrorf("Unknown user, cancelling")
	}
	return res.User, nil
}

func (v *ViewCounter) ask(ctx context.Context, inv *Invocation, question string) (string, error) {
	reply, err := v.prompts.PromptAndWait(ctx, inv.Channel, inv.AuthorID, question, inv.Config.PromptTimeout)
	if errors.Is(err, prompt.ErrCancelled) {
		return "", userErrorf("Cancelling")
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func formatCounterValue(name string, scope viewScope, value int64) string {
	switch {
	case scope.channel != nil && scope.user != nil:
		return fmt.Sprintf("%s for <@!%s> in <#%s> is %d", name, scope.user.ID, scope.channel.ID, value)
	case scope.channel != nil:
		return fmt.Sprintf("%s in <#%s> is %d", name, scope.channel.ID, value)
	case scope.user != nil:
		return fmt.Sprintf("%s for <@!%s> is %d", name, scope.user.ID, value)
	default:
		return fmt.Sprintf("%s is %d", name, value)
	}
}
