package signature

import (
	"context"
	"errors"

	"counterbot/pkg/resolver"
)

// ResolverParser parses tokens with a resolver, scoped to one guild.
type ResolverParser struct {
	Resolver *resolver.Resolver
	GuildID  string
}

// ParseUser implements Parser.
func (p ResolverParser) ParseUser(ctx context.Context, token string) (resolver.UserResult, bool) {
	res := p.Resolver.ResolveUser(ctx, token)
	return res, res.Ok()
}

// ParseTextChannel implements Parser. Tokens that name no channel, or a
// non-text channel, are rejected; directory failures are returned.
func (p ResolverParser) ParseTextChannel(ctx context.Context, token string) (resolver.Channel, bool, error) {
	ch, err := p.Resolver.ResolveChannel(ctx, p.GuildID, token)
	switch {
	case err == nil:
		return ch, true, nil
	case errors.Is(err, resolver.ErrNotFound), errors.Is(err, resolver.ErrNotTextChannel):
		return resolver.Channel{}, false, nil
	default:
		return resolver.Channel{}, false, err
	}
}
