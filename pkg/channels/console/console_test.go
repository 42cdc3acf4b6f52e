package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"

	"counterbot/pkg/bus"
	"counterbot/pkg/config"
	"counterbot/pkg/logger"
	"counterbot/pkg/resolver"
)

// scriptedReader returns queued lines, then blocks until closed.
type scriptedReader struct {
	lines  chan string
	closed chan struct{}
	once   sync.Once
}

func newScriptedReader(lines ...string) *scriptedReader {
	r := &scriptedReader{lines: make(chan string, len(lines)), closed: make(chan struct{})}
	for _, l := range lines {
		r.lines <- l
	}
	return r
}

func (r *scriptedReader) Readline() (string, error) {
	select {
	case l := <-r.lines:
		return l, nil
	case <-r.closed:
		return "", io.EOF
	}
}

func (r *scriptedReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConsoleForwardsLines(t *testing.T) {
	color.NoColor = true

	log := logger.NewNop()
	messageBus := bus.NewLocalBus(log, 10)
	if err := messageBus.Start(); err != nil {
		t.Fatalf("Start bus: %v", err)
	}
	defer messageBus.Stop()

	received := make(chan *bus.Message, 4)
	messageBus.RegisterInboundHandler(func(ctx context.Context, msg *bus.Message) error {
		received <- msg
		return nil
	})

	exited := make(chan struct{})
	cfg := config.DefaultConfig().Console
	reader := newScriptedReader("  !counters view warnings ", "", "exit", "!never")
	ch, err := NewChannel(log, cfg, messageBus, Options{
		Reader: reader,
		Output: &syncBuffer{},
		OnExit: func() { close(exited) },
	})
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case msg := <-received:
		if msg.Content != "!counters view warnings" || msg.Platform != "console" ||
			msg.ChannelID != cfg.ChannelID || msg.AuthorID != cfg.UserID || msg.GuildID != cfg.GuildID {
			t.Errorf("unexpected inbound message %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound message")
	}

	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("exit did not end the session")
	}

	if err := ch.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case msg := <-received:
		t.Fatalf("line after exit was forwarded: %q", msg.Content)
	default:
	}
}

func TestConsoleStopEndsSession(t *testing.T) {
	exited := make(chan struct{})
	ch, err := NewChannel(logger.NewNop(), config.DefaultConfig().Console, bus.NewLocalBus(logger.NewNop(), 1), Options{
		Reader: newScriptedReader(),
		Output: &syncBuffer{},
		OnExit: func() { close(exited) },
	})
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := ch.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-exited:
	default:
		t.Fatal("OnExit not called after Stop")
	}
}

func TestConsoleSendMessage(t *testing.T) {
	color.NoColor = true

	out := &syncBuffer{}
	ch, err := NewChannel(logger.NewNop(), config.DefaultConfig().Console, nil, Options{
		Reader: newScriptedReader(),
		Output: out,
	})
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	_ = ch.SendMessage(context.Background(), &bus.Message{Type: bus.MessageTypeText, Content: "warnings is 3"})
	_ = ch.SendMessage(context.Background(), &bus.Message{Type: bus.MessageTypeError, Content: "Cancelling"})

	if got, want := out.String(), "🤖 warnings is 3\nCancelling\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestNewDirectory(t *testing.T) {
	cfg := config.ConsoleConfig{
		GuildID:   "1",
		ChannelID: "10",
		UserID:    "20",
		Channels: []config.ConsoleChannelConfig{
			{ID: "11", Name: "lounge", Type: "voice"},
			{ID: "12", Name: "news", Type: "news"},
		},
		Users: []config.ConsoleUserConfig{{ID: "21", Username: "alice"}},
	}
	dir := NewDirectory(cfg)
	ctx := context.Background()

	channels, err := dir.GuildChannels(ctx, "1")
	if err != nil {
		t.Fatalf("GuildChannels: %v", err)
	}
	types := map[string]resolver.ChannelType{}
	for _, ch := range channels {
		types[ch.Name] = ch.Type
	}
	if types["lounge"] != resolver.ChannelTypeVoice || types["news"] != resolver.ChannelTypeNews || types["console"] != resolver.ChannelTypeText {
		t.Errorf("unexpected channels %+v", channels)
	}

	var names []string
	for _, u := range dir.KnownUsers(ctx) {
		names = append(names, u.Username)
	}
	if got := strings.Join(names, ","); !strings.Contains(got, "alice") || !strings.Contains(got, "you") {
		t.Errorf("KnownUsers = %s", got)
	}
}
