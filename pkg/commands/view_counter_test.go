package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"counterbot/pkg/counters"
	"counterbot/pkg/logger"
	"counterbot/pkg/prompt"
	"counterbot/pkg/resolver"
)

func runView(t *testing.T, store counters.Store, prompter Prompter, args ...string) (*recordingChannel, error) {
	t.Helper()

	view := NewViewCounter(testIDs(), store, prompter)
	ch := &recordingChannel{id: generalID}
	inv := newTestInvocation(view.Command(), ch)
	return ch, view.Run(context.Background(), inv, args)
}

func requireUserError(t *testing.T, err error, want string) {
	t.Helper()

	var userErr *UserError
	if !errors.As(err, &userErr) {
		t.Fatalf("expected *UserError %q, got %v", want, err)
	}
	if userErr.Message != want {
		t.Fatalf("user error = %q, want %q", userErr.Message, want)
	}
}

func TestViewCounter_Replies(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		replies   []string
		want      []sentMessage
		questions []string
	}{
		{
			name: "global counter with no recorded value uses initial value",
			args: []string{"global"},
			want: []sentMessage{{text: "global is 100"}},
		},
		{
			name: "per-user counter given a mention",
			args: []string{"warnings", "<@" + aliceID + ">"},
			want: []sentMessage{{text: "warnings for <@!" + aliceID + "> is 3"}},
		},
		{
			name: "recorded zero is not replaced by initial value",
			args: []string{"warnings", "bob"},
			want: []sentMessage{{text: "warnings for <@!" + bobID + "> is 0"}},
		},
		{
			name:      "per-user counter asks for the user",
			args:      []string{"warnings"},
			replies:   []string{"@alice"},
			questions: []string{askUserPrompt},
			want: []sentMessage{
				{text: askUserPrompt},
				{text: "warnings for <@!" + aliceID + "> is 3"},
			},
		},
		{
			name:      "per-channel counter asks for the channel",
			args:      []string{"channel"},
			replies:   []string{"#general"},
			questions: []string{askChannelPrompt},
			want: []sentMessage{
				{text: askChannelPrompt},
				{text: "channel in <#" + generalID + "> is 12"},
			},
		},
		{
			name:      "both dimensions asked channel first",
			args:      []string{"messages"},
			replies:   []string{"<#" + generalID + ">", "alice"},
			questions: []string{askChannelPrompt, askUserPrompt},
			want: []sentMessage{
				{text: askChannelPrompt},
				{text: askUserPrompt},
				{text: "Messages for <@!" + aliceID + "> in <#" + generalID + "> is 42"},
			},
		},
		{
			name:      "channel given only the user is asked",
			args:      []string{"messages", "random"},
			replies:   []string{"bob"},
			questions: []string{askUserPrompt},
			want: []sentMessage{
				{text: askUserPrompt},
				{text: "Messages for <@!" + bobID + "> in <#" + randomID + "> is 7"},
			},
		},
		{
			name: "both dimensions given",
			args: []string{"messages", "alice", "general"},
			want: []sentMessage{{text: "Messages for <@!" + aliceID + "> in <#" + generalID + "> is 42"}},
		},
		{
			name: "bare user id without a profile",
			args: []string{"warnings", "399999999999999999"},
			want: []sentMessage{{text: "warnings for <@!399999999999999999> is 0"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompter := &scriptedPrompter{replies: tt.replies}
			ch, err := runView(t, testStore(), prompter, tt.args...)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if diff := cmp.Diff(tt.want, ch.messages(), cmp.AllowUnexported(sentMessage{})); diff != "" {
				t.Errorf("messages mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.questions, prompter.questions); diff != "" {
				t.Errorf("questions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestViewCounter_UserErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		replies []string
		want    string
		prompts int
	}{
		{name: "unknown counter", args: []string{"votes"}, want: "Unknown counter: votes"},
		{name: "configured without storage id", args: []string{"orphan"}, want: "Unknown counter: orphan"},
		{name: "not viewable", args: []string{"secret"}, want: "Missing permissions to view this counter's values"},
		{name: "channel on a global counter", args: []string{"global", "general"}, want: "This counter is not per-channel"},
		{name: "user on a per-channel counter", args: []string{"channel", "alice"}, want: "This counter is not per-user"},
		{name: "no arguments", args: nil, want: "Usage: !counters view <counterName> [user] [channel]"},
		{name: "too many arguments", args: []string{"warnings", "alice", "general", "extra"}, want: "Usage: !counters view <counterName> [user] [channel]"},
		{name: "voice channel reply", args: []string{"channel"}, replies: []string{"voice-chat"}, want: "Channel is not a text channel, cancelling", prompts: 1},
		{name: "unknown channel reply", args: []string{"channel"}, replies: []string{"nowhere"}, want: "Unknown channel, cancelling", prompts: 1},
		{name: "unknown user reply", args: []string{"warnings"}, replies: []string{"carol"}, want: "Unknown user, cancelling", prompts: 1},
		{name: "empty reply cancels", args: []string{"warnings"}, replies: []string{""}, want: "Cancelling", prompts: 1},
		{name: "no reply cancels", args: []string{"messages"}, want: "Cancelling", prompts: 1},
		{name: "second prompt cancelled", args: []string{"messages"}, replies: []string{"general"}, want: "Cancelling", prompts: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &countingStore{Store: testStore()}
			prompter := &scriptedPrompter{replies: tt.replies}

			_, err := runView(t, store, prompter, tt.args...)
			requireUserError(t, err, tt.want)

			if got := len(prompter.questions); got != tt.prompts {
				t.Errorf("prompts = %d, want %d", got, tt.prompts)
			}
			if n := store.readCount(); n != 0 {
				t.Errorf("store read %d times, want 0", n)
			}
		})
	}
}

func TestViewCounter_OverrideHidesCounter(t *testing.T) {
	view := NewViewCounter(testIDs(), testStore(), &scriptedPrompter{})
	ch := &recordingChannel{id: generalID}
	inv := newTestInvocation(view.Command(), ch)

	def := inv.Config.Counters["global"]
	def.CanView = boolPtr(false)
	inv.Config.Counters["global"] = def

	err := view.Run(context.Background(), inv, []string{"global"})
	requireUserError(t, err, "Missing permissions to view this counter's values")
	if len(ch.messages()) != 0 {
		t.Fatalf("expected no messages, got %v", ch.messages())
	}
}

func TestViewCounter_StorageUnavailable(t *testing.T) {
	store := testStore()
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ch, err := runView(t, store, &scriptedPrompter{}, "global")
	if !errors.Is(err, counters.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	var userErr *UserError
	if errors.As(err, &userErr) {
		t.Fatalf("storage failure must not be a user error: %v", err)
	}
	if len(ch.messages()) != 0 {
		t.Fatalf("expected no messages, got %v", ch.messages())
	}
}

type unreachableDirectory struct {
	*resolver.StaticDirectory
}

func (unreachableDirectory) GuildChannels(context.Context, string) ([]resolver.Channel, error) {
	return nil, errors.New("gateway unavailable")
}

func TestViewCounter_DirectoryFailureIsNotUsage(t *testing.T) {
	view := NewViewCounter(testIDs(), testStore(), &scriptedPrompter{})
	ch := &recordingChannel{id: generalID}
	inv := newTestInvocation(view.Command(), ch)
	inv.Resolver = resolver.New(unreachableDirectory{testDirectory()})

	err := view.Run(context.Background(), inv, []string{"channel", "#general"})
	if err == nil {
		t.Fatal("expected an error")
	}
	var userErr *UserError
	if errors.As(err, &userErr) {
		t.Fatalf("directory failure must not be a user error: %v", err)
	}
	if len(ch.messages()) != 0 {
		t.Fatalf("expected no messages, got %v", ch.messages())
	}
}

func TestViewCounter_RealCoordinatorTimeout(t *testing.T) {
	coord := prompt.NewCoordinator(logger.NewNop())
	view := NewViewCounter(testIDs(), testStore(), coord)
	ch := &recordingChannel{id: generalID}
	inv := newTestInvocation(view.Command(), ch)
	inv.Config.PromptTimeout = 20 * time.Millisecond

	err := view.Run(context.Background(), inv, []string{"warnings"})
	requireUserError(t, err, "Cancelling")
	if coord.Pending() != 0 {
		t.Fatalf("expected no pending prompts, got %d", coord.Pending())
	}
}

func TestFormatCounterValue(t *testing.T) {
	general := &resolver.Channel{ID: generalID, Name: "general", Type: resolver.ChannelTypeText}
	alice := &resolver.User{ID: aliceID, Username: "alice"}

	tests := []struct {
		scope viewScope
		want  string
	}{
		{viewScope{}, "hits is 5"},
		{viewScope{channel: general}, "hits in <#" + generalID + "> is 5"},
		{viewScope{user: alice}, "hits for <@!" + aliceID + "> is 5"},
		{viewScope{channel: general, user: alice}, "hits for <@!" + aliceID + "> in <#" + generalID + "> is 5"},
	}
	for _, tt := range tests {
		if got := formatCounterValue("hits", tt.scope, 5); got != tt.want {
			t.Errorf("formatCounterValue() = %q, want %q", got, tt.want)
		}
	}
}
