package discord

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"

	"counterbot/pkg/resolver"
)

// restAPI is the subset of *discordgo.Session the directory calls when the
// cache cannot answer.
type restAPI interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// Directory resolves guild channels and users from the gateway cache,
// falling back to the REST API.
type Directory struct {
	api   restAPI
	state *discordgo.State

	mu    sync.RWMutex
	users map[string]resolver.User // users seen in messages or fetched
}

// NewDirectory creates a directory. state may be nil.
func NewDirectory(api restAPI, state *discordgo.State) *Directory {
	return &Directory{
		api:   api,
		state: state,
		users: make(map[string]resolver.User),
	}
}

// Observe records a user seen on the gateway.
func (d *Directory) Observe(u *discordgo.User) {
	if u == nil || u.ID == "" {
		return
	}
	d.mu.Lock()
	d.users[u.ID] = convertUser(u)
	d.mu.Unlock()
}

// GuildChannels implements resolver.Directory.
func (d *Directory) GuildChannels(ctx context.Context, guildID string) ([]resolver.Channel, error) {
	if d.state != nil {
		if g, err := d.state.Guild(guildID); err == nil {
			d.state.RLock()
			cached := convertChannels(guildID, g.Channels)
			d.state.RUnlock()
			if len(cached) > 0 {
				return cached, nil
			}
		}
	}

	channels, err := d.api.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching guild channels: %w", err)
	}
	return convertChannels(guildID, channels), nil
}

// KnownUsers implements resolver.Directory. It merges cached guild members
// with users observed in messages.
func (d *Directory) KnownUsers(ctx context.Context) []resolver.User {
	byID := make(map[string]resolver.User)

	if d.state != nil {
		d.state.RLock()
		for _, g := range d.state.Guilds {
			for _, m := range g.Members {
				if m.User != nil {
					byID[m.User.ID] = convertUser(m.User)
				}
			}
		}
		d.state.RUnlock()
	}

	d.mu.RLock()
	for id, u := range d.users {
		byID[id] = u
	}
	d.mu.RUnlock()

	users := make([]resolver.User, 0, len(byID))
	for _, u := range byID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// FetchUser implements resolver.Directory.
func (d *Directory) FetchUser(ctx context.Context, userID string) (*resolver.User, error) {
	u, err := d.api.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}
	d.Observe(u)
	out := convertUser(u)
	return &out, nil
}

func convertChannels(guildID string, channels []*discordgo.Channel) []resolver.Channel {
	out := make([]resolver.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		out = append(out, resolver.Channel{
			ID:      ch.ID,
			GuildID: guildID,
			Name:    ch.Name,
			Type:    channelType(ch.Type),
		})
	}
	return out
}

func convertUser(u *discordgo.User) resolver.User {
	return resolver.User{
		ID:            u.ID,
		Username:      u.Username,
		GlobalName:    u.GlobalName,
		Discriminator: u.Discriminator,
		Bot:           u.Bot,
	}
}

func channelType(t discordgo.ChannelType) resolver.ChannelType {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return resolver.ChannelTypeText
	case discordgo.ChannelTypeGuildNews:
		return resolver.ChannelTypeNews
	case discordgo.ChannelTypeGuildVoice:
		return resolver.ChannelTypeVoice
	case discordgo.ChannelTypeGuildStageVoice:
		return resolver.ChannelTypeStage
	case discordgo.ChannelTypeGuildCategory:
		return resolver.ChannelTypeCategory
	case discordgo.ChannelTypeGuildForum:
		return resolver.ChannelTypeForum
	case discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread:
		return resolver.ChannelTypeThread
	case discordgo.ChannelTypeDM, discordgo.ChannelTypeGroupDM:
		return resolver.ChannelTypeDM
	default:
		return resolver.ChannelTypeOther
	}
}
