package commands

import (
	"context"
	"sync"
	"time"

	"counterbot/pkg/config"
	"counterbot/pkg/counters"
	"counterbot/pkg/logger"
	"counterbot/pkg/prompt"
	"counterbot/pkg/resolver"
)

const (
	guildID   = "100000000000000000"
	generalID = "200000000000000001"
	voiceID   = "200000000000000002"
	randomID  = "200000000000000003"
	aliceID   = "300000000000000001"
	bobID     = "300000000000000002"
)

func testDirectory() *resolver.StaticDirectory {
	return resolver.NewStaticDirectory(
		[]resolver.Channel{
			{ID: generalID, GuildID: guildID, Name: "general", Type: resolver.ChannelTypeText},
			{ID: voiceID, GuildID: guildID, Name: "voice-chat", Type: resolver.ChannelTypeVoice},
			{ID: randomID, GuildID: guildID, Name: "random", Type: resolver.ChannelTypeText},
		},
		[]resolver.User{
			{ID: aliceID, Username: "alice"},
			{ID: bobID, Username: "bob"},
		},
	)
}

type sentMessage struct {
	text    string
	isError bool
}

// recordingChannel captures replies.
type recordingChannel struct {
	id string

	mu   sync.Mutex
	sent []sentMessage
}

func (c *recordingChannel) ID() string { return c.id }

func (c *recordingChannel) Send(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMessage{text: text})
	return nil
}

func (c *recordingChannel) SendError(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMessage{text: text, isError: true})
	return nil
}

func (c *recordingChannel) messages() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentMessage(nil), c.sent...)
}

// scriptedPrompter answers prompts from a fixed list of replies. An empty
// entry or running out of replies cancels.
type scriptedPrompter struct {
	replies   []string
	questions []string
}

func (p *scriptedPrompter) PromptAndWait(ctx context.Context, ch prompt.Channel, askingUserID, question string, timeout time.Duration) (string, error) {
	p.questions = append(p.questions, question)
	if err := ch.Send(ctx, question); err != nil {
		return "", err
	}
	if len(p.replies) == 0 {
		return "", prompt.ErrCancelled
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	if reply == "" {
		return "", prompt.ErrCancelled
	}
	return reply, nil
}

// countingStore counts reads.
type countingStore struct {
	counters.Store
	mu    sync.Mutex
	reads []counters.ScopeKey
}

func (s *countingStore) GetCurrentValue(ctx context.Context, key counters.ScopeKey) (int64, bool, error) {
	s.mu.Lock()
	s.reads = append(s.reads, key)
	s.mu.Unlock()
	return s.Store.GetCurrentValue(ctx, key)
}

func (s *countingStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reads)
}

type staticIDs map[string]counters.CounterID

func (m staticIDs) Lookup(key string) (counters.CounterID, bool) {
	id, ok := m[key]
	return id, ok
}

func boolPtr(b bool) *bool { return &b }

func testCounterConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Counters.PromptTimeout = time.Second
	cfg.Counters.Counters = map[string]config.CounterConfig{
		"warnings": {PerUser: true},
		"messages": {Name: "Messages", PerChannel: true, PerUser: true, InitialValue: 7},
		"channel":  {PerChannel: true},
		"global":   {InitialValue: 100},
		"secret":   {CanView: boolPtr(false)},
		"orphan":   {},
	}
	return cfg
}

func testIDs() staticIDs {
	return staticIDs{
		"warnings": 1,
		"messages": 2,
		"channel":  3,
		"global":   4,
		"secret":   5,
	}
}

func testStore() *counters.MemoryStore {
	store := counters.NewMemoryStore()
	store.Seed("warnings", 1, map[counters.ScopeKey]int64{
		{CounterID: 1, UserID: aliceID}: 3,
		{CounterID: 1, UserID: bobID}:   0,
	})
	store.Seed("messages", 2, map[counters.ScopeKey]int64{
		{CounterID: 2, ChannelID: generalID, UserID: aliceID}: 42,
	})
	store.Seed("channel", 3, map[counters.ScopeKey]int64{
		{CounterID: 3, ChannelID: generalID}: 12,
	})
	store.Seed("global", 4, nil)
	store.Seed("secret", 5, map[counters.ScopeKey]int64{
		{CounterID: 5}: 9,
	})
	return store
}

func newTestInvocation(cmd *Command, ch TextChannel) *Invocation {
	return &Invocation{
		ID:         "test-invocation",
		Command:    cmd,
		Trigger:    cmd.Name,
		Prefix:     "!",
		Platform:   "test",
		GuildID:    guildID,
		AuthorID:   aliceID,
		AuthorName: "alice",
		Channel:    ch,
		Config:     testCounterConfig().ForMessage(ch.ID(), aliceID),
		Resolver:   resolver.New(testDirectory()),
		Log:        logger.NewNop(),
	}
}
