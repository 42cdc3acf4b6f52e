package resolver

import (
	"context"
	"sync"
)

// StaticDirectory is an in-memory Directory. The console transport and tests use it.
type StaticDirectory struct {
	mu       sync.RWMutex
	channels []Channel
	users    []User
}

// NewStaticDirectory creates a directory holding the given entities.
func NewStaticDirectory(channels []Channel, users []User) *StaticDirectory {
	return &StaticDirectory{
		channels: append([]Channel(nil), channels...),
		users:    append([]User(nil), users...),
	}
}

// GuildChannels implements Directory.
func (d *StaticDirectory) GuildChannels(ctx context.Context, guildID string) ([]Channel, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Channel, 0, len(d.channels))
	for _, ch := range d.channels {
		if ch.GuildID == guildID {
			out = append(out, ch)
		}
	}
	return out, nil
}

// KnownUsers implements Directory.
func (d *StaticDirectory) KnownUsers(ctx context.Context) []User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]User(nil), d.users...)
}

// FetchUser implements Directory. Static directories have no API to fall
// back to, so unknown IDs are reported as not found.
func (d *StaticDirectory) FetchUser(ctx context.Context, userID string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.ID == userID {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}
