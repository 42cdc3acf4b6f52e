package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry manages command registration and lookup. Triggers may span
// several words; lookup prefers the longest trigger that matches.
type Registry struct {
	commands map[string]*Command // normalized trigger -> command
	maxWords int
	mu       sync.RWMutex
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
	}
}

// Register registers a command under its name and aliases.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}

	cmd.Name = normalizeTrigger(cmd.Name)
	if cmd.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %s has no handler", cmd.Name)
	}
	for i, alias := range cmd.Aliases {
		cmd.Aliases[i] = normalizeTrigger(alias)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, trigger := range cmd.Triggers() {
		if trigger == "" {
			return fmt.Errorf("command %s has an empty alias", cmd.Name)
		}
		if _, exists := r.commands[trigger]; exists {
			return fmt.Errorf("command %s already registered", trigger)
		}
	}

	for _, trigger := range cmd.Triggers() {
		r.commands[trigger] = cmd
		if words := len(strings.Fields(trigger)); words > r.maxWords {
			r.maxWords = words
		}
	}
	return nil
}

// Get retrieves a command by trigger.
func (r *Registry) Get(trigger string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, exists := r.commands[normalizeTrigger(trigger)]
	return cmd, exists
}

// Lookup finds the command whose trigger matches the leading tokens. It
// returns the command, the trigger that matched and the remaining tokens.
func (r *Registry) Lookup(tokens []string) (*Command, string, []string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.maxWords
	if len(tokens) < n {
		n = len(tokens)
	}
	for ; n > 0; n-- {
		trigger := normalizeTrigger(strings.Join(tokens[:n], " "))
		if cmd, ok := r.commands[trigger]; ok {
			return cmd, trigger, tokens[n:], true
		}
	}
	return nil, "", nil, false
}

// List returns all registered commands sorted by name.
func (r *Registry) List() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[*Command]bool, len(r.commands))
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		if seen[cmd] {
			continue
		}
		seen[cmd] = true
		cmds = append(cmds, cmd)
	}

	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name < cmds[j].Name
	})
	return cmds
}
