// Package prompt asks a user a follow-up question in chat and waits for
// their answer without blocking the message loop.
//
// A pending prompt is scoped to one (channel, user) pair. Only a message
// from that user in that channel can answer it, and only the first such
// message is consulted. When several prompts share a scope the oldest is
// answered first.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"counterbot/pkg/logger"
)

// ErrCancelled is returned when the wait times out, the reply is empty,
// or the caller's context ends first.
var ErrCancelled = errors.New("prompt cancelled")

// DefaultTimeout is used when PromptAndWait is given a non-positive timeout.
const DefaultTimeout = 30 * time.Second

// Channel is the chat channel a question is asked in.
type Channel interface {
	ID() string
	Send(ctx context.Context, text string) error
}

// Reply is an inbound chat message offered to the coordinator.
type Reply struct {
	ChannelID string
	AuthorID  string
	Content   string
}

type scope struct {
	channelID string
	userID    string
}

type waiter struct {
	reply chan string
}

// Coordinator tracks pending prompts.
type Coordinator struct {
	log *logger.Logger

	mu      sync.Mutex
	waiters map[scope][]*waiter
}

// NewCoordinator creates a coordinator with no pending prompts.
func NewCoordinator(log *logger.Logger) *Coordinator {
	return &Coordinator{
		log:     log,
		waiters: make(map[scope][]*waiter),
	}
}

// PromptAndWait sends question to ch and waits for askingUserID to answer
// in the same channel. It returns the trimmed reply text, or ErrCancelled
// on timeout or an empty reply. An error from Send is returned wrapped.
func (c *Coordinator) PromptAndWait(ctx context.Context, ch Channel, askingUserID, question string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	key := scope{channelID: ch.ID(), userID: askingUserID}
	w := &waiter{reply: make(chan string, 1)}

	// Registered before sending so a fast reply is never missed.
	c.register(key, w)

	if err := ch.Send(ctx, question); err != nil {
		c.remove(key, w)
		return "", fmt.Errorf("sending prompt: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case text := <-w.reply:
		return answer(text)
	case <-timer.C:
		if text, delivered := c.expire(key, w); delivered {
			return answer(text)
		}
		c.log.Debug("Prompt timed out",
			zap.String("channel_id", key.channelID),
			zap.String("user_id", key.userID),
			zap.Duration("timeout", timeout))
		return "", ErrCancelled
	case <-ctx.Done():
		if text, delivered := c.expire(key, w); delivered {
			return answer(text)
		}
		return "", ErrCancelled
	}
}

func answer(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrCancelled
	}
	return text, nil
}

// expire unregisters w. If Deliver already claimed it, the message it
// consumed is the answer and is returned with delivered set.
func (c *Coordinator) expire(key scope, w *waiter) (string, bool) {
	if c.remove(key, w) {
		return "", false
	}
	return <-w.reply, true
}

// Deliver offers an inbound message to the oldest prompt pending for its
// channel and author. It reports whether the message was consumed. It never
// blocks.
func (c *Coordinator) Deliver(r Reply) bool {
	key := scope{channelID: r.ChannelID, userID: r.AuthorID}

	c.mu.Lock()
	queue := c.waiters[key]
	if len(queue) == 0 {
		c.mu.Unlock()
		return false
	}
	w := queue[0]
	c.dropLocked(key, 0)
	c.mu.Unlock()

	// Capacity one and removed from the queue above, so this is the only send.
	w.reply <- r.Content
	return true
}

// Pending returns the number of prompts waiting for a reply.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, q := range c.waiters {
		n += len(q)
	}
	return n
}

func (c *Coordinator) register(key scope, w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiters[key] = append(c.waiters[key], w)
}

// remove unregisters w and reports whether it was still pending.
func (c *Coordinator) remove(key scope, w *waiter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, other := range c.waiters[key] {
		if other == w {
			c.dropLocked(key, i)
			return true
		}
	}
	return false
}

func (c *Coordinator) dropLocked(key scope, i int) {
	queue := c.waiters[key]
	queue = append(queue[:i:i], queue[i+1:]...)
	if len(queue) == 0 {
		delete(c.waiters, key)
		return
	}
	c.waiters[key] = queue
}
