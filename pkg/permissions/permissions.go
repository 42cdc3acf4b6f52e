// Package permissions decides whether a user may use a command.
//
// Each permission has an allow list and a deny list of user IDs; "*"
// matches everyone. The deny list is checked first. A permission with no
// rule is denied.
package permissions

import (
	"sort"
	"sync"
)

// Decision represents a permission decision.
type Decision string

const (
	Allowed Decision = "allowed"
	Denied  Decision = "denied"
	// Unconfigured means no rule exists for the permission.
	Unconfigured Decision = "unconfigured"
)

// Rule grants a permission.
type Rule struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

// Gate evaluates permission rules. It is safe for concurrent use and its
// rules can be replaced at runtime.
type Gate struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewGate creates a gate with the given rules.
func NewGate(rules map[string]Rule) *Gate {
	g := &Gate{}
	g.Update(rules)
	return g
}

// Check returns the decision for userID on permission.
func (g *Gate) Check(permission, userID string) Decision {
	g.mu.RLock()
	rule, ok := g.rules[permission]
	g.mu.RUnlock()

	if !ok {
		return Unconfigured
	}
	// Check denylist first
	if isInList(userID, rule.Deny) {
		return Denied
	}
	if isInList(userID, rule.Allow) {
		return Allowed
	}
	return Denied
}

// Allowed reports whether userID holds permission.
func (g *Gate) Allowed(permission, userID string) bool {
	return g.Check(permission, userID) == Allowed
}

// Update replaces all rules.
func (g *Gate) Update(rules map[string]Rule) {
	copied := make(map[string]Rule, len(rules))
	for name, r := range rules {
		copied[name] = Rule{
			Allow: append([]string(nil), r.Allow...),
			Deny:  append([]string(nil), r.Deny...),
		}
	}

	g.mu.Lock()
	g.rules = copied
	g.mu.Unlock()
}

// Permissions returns the configured permission names, sorted.
func (g *Gate) Permissions() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.rules))
	for name := range g.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isInList(name string, list []string) bool {
	for _, item := range list {
		if item == name || item == "*" {
			return true
		}
	}
	return false
}
