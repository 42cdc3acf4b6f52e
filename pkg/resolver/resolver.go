package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	snowflakePattern      = regexp.MustCompile(`^\d{17,20}$`)
	channelMentionPattern = regexp.MustCompile(`^<#(\d+)>$`)
	userMentionPattern    = regexp.MustCompile(`^<@!?(\d+)>$`)
)

// Resolver resolves channel and user references against a Directory.
type Resolver struct {
	dir Directory
}

// New creates a resolver.
func New(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// ResolveChannel resolves text to a text-capable channel of the guild.
// It returns ErrNotFound when nothing matches and ErrNotTextChannel when the
// match is a voice, category or other non-text channel.
func (r *Resolver) ResolveChannel(ctx context.Context, guildID, text string) (Channel, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Channel{}, ErrNotFound
	}

	channels, err := r.dir.GuildChannels(ctx, guildID)
	if err != nil {
		return Channel{}, fmt.Errorf("listing guild channels: %w", err)
	}

	if id, ok := channelIDFromReference(text); ok {
		for _, ch := range channels {
			if ch.ID == id {
				return requireText(ch)
			}
		}
		return Channel{}, ErrNotFound
	}

	name := strings.ToLower(strings.TrimPrefix(text, "#"))
	var exact []Channel
	for _, ch := range channels {
		if strings.ToLower(ch.Name) == name {
			exact = append(exact, ch)
		}
	}
	if len(exact) > 0 {
		// A voice and a text channel may share a name; the text one wins.
		for _, ch := range exact {
			if ch.Type.IsText() {
				return ch, nil
			}
		}
		return Channel{}, ErrNotTextChannel
	}

	var partial *Channel
	for i := range channels {
		if strings.HasPrefix(strings.ToLower(channels[i].Name), name) {
			if partial != nil {
				return Channel{}, ErrNotFound
			}
			partial = &channels[i]
		}
	}
	if partial == nil {
		return Channel{}, ErrNotFound
	}
	return requireText(*partial)
}

// ResolveUser resolves text to a user. ID and mention references always
// identify a user: when the profile cannot be loaded the result degrades to
// UserUnknownProfile instead of UserNotFound.
func (r *Resolver) ResolveUser(ctx context.Context, text string) UserResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return UserResult{Kind: UserNotFound}
	}

	known := r.dir.KnownUsers(ctx)

	if id, ok := userIDFromReference(text); ok {
		for _, u := range known {
			if u.ID == id {
				return UserResult{Kind: UserFound, User: u}
			}
		}
		u, err := r.dir.FetchUser(ctx, id)
		if err != nil || u == nil {
			return UserResult{Kind: UserUnknownProfile, User: User{ID: id}}
		}
		return UserResult{Kind: UserFound, User: *u}
	}

	name := strings.TrimPrefix(text, "@")
	if name == "" {
		return UserResult{Kind: UserNotFound}
	}

	for _, u := range known {
		if u.Tag() == name || u.Username == name {
			return UserResult{Kind: UserFound, User: u}
		}
	}

	lower := strings.ToLower(name)
	for _, u := range known {
		if strings.ToLower(u.Tag()) == lower ||
			strings.ToLower(u.Username) == lower ||
			(u.GlobalName != "" && strings.ToLower(u.GlobalName) == lower) {
			return UserResult{Kind: UserFound, User: u}
		}
	}

	var match *User
	for i := range known {
		if strings.HasPrefix(strings.ToLower(known[i].Username), lower) {
			if match != nil && match.ID != known[i].ID {
				return UserResult{Kind: UserNotFound}
			}
			match = &known[i]
		}
	}
	if match == nil {
		return UserResult{Kind: UserNotFound}
	}
	return UserResult{Kind: UserFound, User: *match}
}

func requireText(ch Channel) (Channel, error) {
	if !ch.Type.IsText() {
		return Channel{}, ErrNotTextChannel
	}
	return ch, nil
}

func channelIDFromReference(text string) (string, bool) {
	if m := channelMentionPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if snowflakePattern.MatchString(text) {
		return text, true
	}
	return "", false
}

func userIDFromReference(text string) (string, bool) {
	if m := userMentionPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if snowflakePattern.MatchString(text) {
		return text, true
	}
	return "", false
}
