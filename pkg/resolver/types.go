// Package resolver turns free-form chat text into channel and user entities.
//
// References may be raw snowflake IDs, mention syntax (<#id>, <@id>, <@!id>)
// or names. Lookups go through a Directory, which is backed by the chat
// transport's entity cache in production and by StaticDirectory in tests.
package resolver

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the reference did not match any known entity.
	ErrNotFound = errors.New("reference not found")
	// ErrNotTextChannel means the reference matched a channel that cannot hold text messages.
	ErrNotTextChannel = errors.New("channel is not a text channel")
)

// ChannelType classifies guild channels.
type ChannelType int

const (
	ChannelTypeText ChannelType = iota
	ChannelTypeVoice
	ChannelTypeCategory
	ChannelTypeNews
	ChannelTypeStage
	ChannelTypeForum
	ChannelTypeThread
	ChannelTypeDM
	ChannelTypeOther
)

// IsText reports whether messages can be sent to and read from the channel.
// Announcement channels count as text channels.
func (t ChannelType) IsText() bool {
	return t == ChannelTypeText || t == ChannelTypeNews
}

func (t ChannelType) String() string {
	switch t {
	case ChannelTypeText:
		return "text"
	case ChannelTypeVoice:
		return "voice"
	case ChannelTypeCategory:
		return "category"
	case ChannelTypeNews:
		return "news"
	case ChannelTypeStage:
		return "stage"
	case ChannelTypeForum:
		return "forum"
	case ChannelTypeThread:
		return "thread"
	case ChannelTypeDM:
		return "dm"
	default:
		return "other"
	}
}

// ParseChannelType parses the String form of a channel type. Unknown names
// map to ChannelTypeOther.
func ParseChannelType(name string) ChannelType {
	for t := ChannelTypeText; t < ChannelTypeOther; t++ {
		if t.String() == name {
			return t
		}
	}
	return ChannelTypeOther
}

// Channel is a guild channel.
type Channel struct {
	ID      string      `json:"id" mapstructure:"id"`
	GuildID string      `json:"guild_id" mapstructure:"guild_id"`
	Name    string      `json:"name" mapstructure:"name"`
	Type    ChannelType `json:"type" mapstructure:"type"`
}

// User is a chat user.
type User struct {
	ID            string `json:"id" mapstructure:"id"`
	Username      string `json:"username" mapstructure:"username"`
	GlobalName    string `json:"global_name" mapstructure:"global_name"`
	Discriminator string `json:"discriminator" mapstructure:"discriminator"`
	Bot           bool   `json:"bot" mapstructure:"bot"`
}

// Tag returns the name#discriminator form, or just the name for migrated accounts.
func (u User) Tag() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// UserResultKind tags the outcome of a loose user lookup.
type UserResultKind int

const (
	// UserNotFound means nothing matched the reference.
	UserNotFound UserResultKind = iota
	// UserFound means a full profile was resolved.
	UserFound
	// UserUnknownProfile means the reference was a valid ID or mention but the
	// profile could not be fetched. Only User.ID is populated.
	UserUnknownProfile
)

// UserResult is the result of a loose user lookup.
type UserResult struct {
	Kind UserResultKind
	User User
}

// Ok reports whether the result identifies a user, with or without profile data.
func (r UserResult) Ok() bool {
	return r.Kind == UserFound || r.Kind == UserUnknownProfile
}

// Directory is the entity cache/API the resolver reads from.
type Directory interface {
	// GuildChannels returns every channel of the guild.
	GuildChannels(ctx context.Context, guildID string) ([]Channel, error)
	// KnownUsers returns the users currently in the client cache.
	KnownUsers(ctx context.Context) []User
	// FetchUser loads a single user by ID, bypassing the cache.
	FetchUser(ctx context.Context, userID string) (*User, error)
}
