package permissions

import (
	"testing"

	"counterbot/pkg/config"
)

func TestWildcardAllow(t *testing.T) {
	gate := NewGate(map[string]Rule{"can_view": {Allow: []string{"*"}}})

	if !gate.Allowed("can_view", "300000000000000001") {
		t.Fatal("expected wildcard allow")
	}
}

func TestDenylistBeatsAllowlist(t *testing.T) {
	gate := NewGate(map[string]Rule{
		"can_view": {Allow: []string{"*"}, Deny: []string{"300000000000000002"}},
	})

	if got := gate.Check("can_view", "300000000000000002"); got != Denied {
		t.Fatalf("expected Denied, got %s", got)
	}
	if got := gate.Check("can_view", "300000000000000001"); got != Allowed {
		t.Fatalf("expected Allowed, got %s", got)
	}
}

func TestUnlistedUserDenied(t *testing.T) {
	gate := NewGate(map[string]Rule{"can_view": {Allow: []string{"300000000000000001"}}})

	if gate.Allowed("can_view", "300000000000000002") {
		t.Fatal("unlisted user should be denied")
	}
}

func TestUnconfiguredPermission(t *testing.T) {
	gate := NewGate(nil)

	if got := gate.Check("can_edit", "300000000000000001"); got != Unconfigured {
		t.Fatalf("expected Unconfigured, got %s", got)
	}
	if gate.Allowed("can_edit", "300000000000000001") {
		t.Fatal("unconfigured permission must not be allowed")
	}
}

func TestUpdateReplacesRules(t *testing.T) {
	rules := map[string]Rule{"can_view": {Allow: []string{"*"}}}
	gate := NewGate(rules)

	rules["can_view"].Allow[0] = "300000000000000001"
	if !gate.Allowed("can_view", "300000000000000009") {
		t.Fatal("gate must not alias the caller's slices")
	}

	gate.Update(FromConfig(map[string]config.PermissionRule{
		"can_view": {Deny: []string{"*"}},
		"can_help": {Allow: []string{"*"}},
	}))
	if gate.Allowed("can_view", "300000000000000009") {
		t.Fatal("updated rules should deny")
	}
	if got := gate.Permissions(); len(got) != 2 || got[0] != "can_help" || got[1] != "can_view" {
		t.Fatalf("unexpected permissions %v", got)
	}
}
