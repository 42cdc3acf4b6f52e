package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"

	"counterbot/pkg/bus"
	"counterbot/pkg/config"
	"counterbot/pkg/logger"
	"counterbot/pkg/resolver"
)

type fakeAPI struct {
	channels   []*discordgo.Channel
	users      map[string]*discordgo.User
	fetchCalls int
}

func (f *fakeAPI) GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	return f.channels, nil
}

func (f *fakeAPI) User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error) {
	f.fetchCalls++
	u, ok := f.users[userID]
	if !ok {
		return nil, errors.New("unknown user")
	}
	return u, nil
}

func TestDirectoryGuildChannelsFromState(t *testing.T) {
	state := discordgo.NewState()
	guild := &discordgo.Guild{
		ID: "g1",
		Channels: []*discordgo.Channel{
			{ID: "c1", Name: "general", Type: discordgo.ChannelTypeGuildText},
			{ID: "c2", Name: "Voice", Type: discordgo.ChannelTypeGuildVoice},
			{ID: "c3", Name: "news", Type: discordgo.ChannelTypeGuildNews},
		},
	}
	if err := state.GuildAdd(guild); err != nil {
		t.Fatalf("GuildAdd: %v", err)
	}

	dir := NewDirectory(&fakeAPI{}, state)
	got, err := dir.GuildChannels(context.Background(), "g1")
	if err != nil {
		t.Fatalf("GuildChannels: %v", err)
	}

	want := []resolver.Channel{
		{ID: "c1", GuildID: "g1", Name: "general", Type: resolver.ChannelTypeText},
		{ID: "c2", GuildID: "g1", Name: "Voice", Type: resolver.ChannelTypeVoice},
		{ID: "c3", GuildID: "g1", Name: "news", Type: resolver.ChannelTypeNews},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("channels mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectoryGuildChannelsFallsBackToREST(t *testing.T) {
	api := &fakeAPI{channels: []*discordgo.Channel{
		{ID: "c9", Name: "stage", Type: discordgo.ChannelTypeGuildStageVoice},
	}}
	dir := NewDirectory(api, nil)

	got, err := dir.GuildChannels(context.Background(), "g2")
	if err != nil {
		t.Fatalf("GuildChannels: %v", err)
	}
	if len(got) != 1 || got[0].Type != resolver.ChannelTypeStage || got[0].GuildID != "g2" {
		t.Fatalf("unexpected channels: %+v", got)
	}
}

func TestDirectoryUsers(t *testing.T) {
	api := &fakeAPI{users: map[string]*discordgo.User{
		"u2": {ID: "u2", Username: "bob", GlobalName: "Bobby"},
	}}
	dir := NewDirectory(api, nil)
	dir.Observe(&discordgo.User{ID: "u1", Username: "alice"})
	dir.Observe(nil)

	if got := dir.KnownUsers(context.Background()); len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("KnownUsers = %+v", got)
	}

	u, err := dir.FetchUser(context.Background(), "u2")
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if u.GlobalName != "Bobby" {
		t.Errorf("FetchUser = %+v", u)
	}
	if got := dir.KnownUsers(context.Background()); len(got) != 2 {
		t.Errorf("fetched user should be remembered, got %+v", got)
	}

	if _, err := dir.FetchUser(context.Background(), "u3"); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestResolverOverDirectory(t *testing.T) {
	api := &fakeAPI{
		channels: []*discordgo.Channel{
			{ID: "111111111111111111", Name: "general", Type: discordgo.ChannelTypeGuildText},
			{ID: "222222222222222222", Name: "general", Type: discordgo.ChannelTypeGuildVoice},
		},
		users: map[string]*discordgo.User{},
	}
	res := resolver.New(NewDirectory(api, nil))

	ch, err := res.ResolveChannel(context.Background(), "g", "#general")
	if err != nil || ch.ID != "111111111111111111" {
		t.Fatalf("ResolveChannel = %+v, %v", ch, err)
	}

	got := res.ResolveUser(context.Background(), "<@!333333333333333333>")
	if got.Kind != resolver.UserUnknownProfile || got.User.ID != "333333333333333333" {
		t.Fatalf("ResolveUser = %+v", got)
	}
}

func TestChannelType(t *testing.T) {
	tests := map[discordgo.ChannelType]resolver.ChannelType{
		discordgo.ChannelTypeGuildText:         resolver.ChannelTypeText,
		discordgo.ChannelTypeGuildNews:         resolver.ChannelTypeNews,
		discordgo.ChannelTypeGuildVoice:        resolver.ChannelTypeVoice,
		discordgo.ChannelTypeGuildCategory:     resolver.ChannelTypeCategory,
		discordgo.ChannelTypeGuildForum:        resolver.ChannelTypeForum,
		discordgo.ChannelTypeGuildPublicThread: resolver.ChannelTypeThread,
		discordgo.ChannelTypeDM:                resolver.ChannelTypeDM,
		discordgo.ChannelTypeGuildDirectory:    resolver.ChannelTypeOther,
	}
	for in, want := range tests {
		if got := channelType(in); got != want {
			t.Errorf("channelType(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestInboundMessage(t *testing.T) {
	c := &Channel{
		log:    logger.NewNop(),
		config: config.DiscordConfig{Enabled: true, AllowFrom: []string{"u1"}},
	}

	msg, ok := c.inboundMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		GuildID:   "g1",
		ChannelID: "c1",
		Content:   "  !counters view warnings ",
		Author:    &discordgo.User{ID: "u1", Username: "alice"},
	}})
	if !ok {
		t.Fatal("expected message to be forwarded")
	}
	if msg.Platform != "discord" || msg.Content != "!counters view warnings" || msg.GuildID != "g1" || msg.Timestamp.IsZero() {
		t.Errorf("unexpected message %+v", msg)
	}

	if _, ok := c.inboundMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		Content: "!status",
		Author:  &discordgo.User{ID: "u2"},
	}}); ok {
		t.Error("message from user outside allow_from must be dropped")
	}

	if _, ok := c.inboundMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		Content: "   ",
		Author:  &discordgo.User{ID: "u1"},
	}}); ok {
		t.Error("empty message must be dropped")
	}
}

func TestRenderContent(t *testing.T) {
	if got := renderContent(&bus.Message{Type: bus.MessageTypeError, Content: "Cancelling"}); got != "⚠️ Cancelling" {
		t.Errorf("renderContent(error) = %q", got)
	}
	if got := renderContent(&bus.Message{Type: bus.MessageTypeText, Content: "x is 1"}); got != "x is 1" {
		t.Errorf("renderContent(text) = %q", got)
	}
}
