package commands

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func noopHandler(ctx context.Context, inv *Invocation, rawArgs []string) error { return nil }

func TestRegistryLookupLongestTrigger(t *testing.T) {
	registry := NewRegistry()
	counters := &Command{Name: "counters", Handler: noopHandler}
	view := &Command{Name: "Counters  View", Aliases: []string{"viewcounter"}, Handler: noopHandler}

	for _, cmd := range []*Command{counters, view} {
		if err := registry.Register(cmd); err != nil {
			t.Fatalf("Register(%s): %v", cmd.Name, err)
		}
	}

	tests := []struct {
		tokens      []string
		wantCmd     *Command
		wantTrigger string
		wantRest    []string
	}{
		{[]string{"counters", "view", "warnings"}, view, "counters view", []string{"warnings"}},
		{[]string{"COUNTERS", "VIEW"}, view, "counters view", []string{}},
		{[]string{"counters", "list"}, counters, "counters", []string{"list"}},
		{[]string{"viewcounter", "a", "b"}, view, "viewcounter", []string{"a", "b"}},
	}
	for _, tt := range tests {
		cmd, trigger, rest, ok := registry.Lookup(tt.tokens)
		if !ok {
			t.Fatalf("Lookup(%v) found nothing", tt.tokens)
		}
		if cmd != tt.wantCmd || trigger != tt.wantTrigger {
			t.Errorf("Lookup(%v) = %s/%q, want %s/%q", tt.tokens, cmd.Name, trigger, tt.wantCmd.Name, tt.wantTrigger)
		}
		if diff := cmp.Diff(tt.wantRest, rest); diff != "" {
			t.Errorf("Lookup(%v) rest mismatch (-want +got):\n%s", tt.tokens, diff)
		}
	}

	if _, _, _, ok := registry.Lookup([]string{"unknown"}); ok {
		t.Error("expected no match for unknown trigger")
	}
	if _, _, _, ok := registry.Lookup(nil); ok {
		t.Error("expected no match for empty input")
	}
}

func TestRegistryRegisterRejects(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&Command{Name: "help", Handler: noopHandler}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name string
		cmd  *Command
	}{
		{"nil", nil},
		{"empty name", &Command{Name: "  ", Handler: noopHandler}},
		{"no handler", &Command{Name: "status"}},
		{"duplicate name", &Command{Name: "HELP", Handler: noopHandler}},
		{"duplicate alias", &Command{Name: "assist", Aliases: []string{"help"}, Handler: noopHandler}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := registry.Register(tt.cmd); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, ok := registry.Get("assist"); ok {
		t.Error("rejected command must not be partially registered")
	}
}

func TestRegistryListUnique(t *testing.T) {
	registry := NewRegistry()
	for _, cmd := range []*Command{
		{Name: "status", Handler: noopHandler},
		{Name: "counters view", Aliases: []string{"counter view", "viewcounter"}, Handler: noopHandler},
		{Name: "help", Handler: noopHandler},
	} {
		if err := registry.Register(cmd); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	var names []string
	for _, cmd := range registry.List() {
		names = append(names, cmd.Name)
	}
	if diff := cmp.Diff([]string{"counters view", "help", "status"}, names); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandUsage(t *testing.T) {
	view := NewViewCounter(testIDs(), testStore(), &scriptedPrompter{}).Command()
	if got, want := view.Usage("!"), "!counters view <counterName> [user] [channel]"; got != want {
		t.Errorf("Usage() = %q, want %q", got, want)
	}

	status := &Command{Name: "status"}
	if got := status.Usage("?"); got != "?status" {
		t.Errorf("Usage() = %q, want %q", got, "?status")
	}
}
