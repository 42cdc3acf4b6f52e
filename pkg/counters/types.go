// Package counters provides read access to scoped counter values.
//
// A counter may be tracked globally, per channel, per user, or per
// channel+user. Each of those scopes is an independent key: the store never
// aggregates values across scopes.
package counters

import (
	"context"
	"errors"
	"fmt"
)

// ErrStorageUnavailable is returned when the backing store cannot be read.
// It is never used to signal an unset value.
var ErrStorageUnavailable = errors.New("counter storage unavailable")

var errClosed = errors.New("store closed")

// CounterID identifies a counter's row group in storage.
type CounterID int64

// Definition describes a configured counter.
type Definition struct {
	// Key is the stable identifier used in commands and config.
	Key string
	// Name is the display name. Empty means Key is shown instead.
	Name       string
	PerChannel bool
	PerUser    bool
	// CanView gates viewing; nil means viewing is allowed.
	CanView      *bool
	InitialValue int64
}

// Viewable reports whether the counter's values may be viewed.
func (d Definition) Viewable() bool {
	return d.CanView == nil || *d.CanView
}

// DisplayName returns the configured name, falling back to fallback.
func (d Definition) DisplayName(fallback string) string {
	if d.Name != "" {
		return d.Name
	}
	return fallback
}

// ScopeKey addresses one counter value. Empty ChannelID or UserID means the
// dimension is absent; both empty is the counter's global value.
type ScopeKey struct {
	CounterID CounterID
	ChannelID string
	UserID    string
}

// String encodes the key for key-value backends as "<id>:<channel|->:<user|->".
func (k ScopeKey) String() string {
	return fmt.Sprintf("%d:%s:%s", k.CounterID, orDash(k.ChannelID), orDash(k.UserID))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Store is the read surface of counter storage.
type Store interface {
	// GetCurrentValue returns the recorded value for exactly this scope.
	// ok is false when nothing has been recorded. A recorded 0 is returned
	// with ok set.
	GetCurrentValue(ctx context.Context, key ScopeKey) (value int64, ok bool, err error)

	// CounterIDs returns the registered counter keys and their IDs.
	CounterIDs(ctx context.Context) (map[string]CounterID, error)

	// Close releases backend resources.
	Close() error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
