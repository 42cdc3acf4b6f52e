// Package signature matches command arguments against an ordered list of
// accepted argument shapes.
//
// Shapes are tried in order and the first one that fully matches wins.
// Within a shape, tokens are consumed left to right: a token is taken by a
// field only if it parses as that field's type. Optional fields that do not
// accept the next token are skipped. A shape that leaves tokens unconsumed
// does not match.
package signature

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"counterbot/pkg/resolver"
)

// ErrNoMatch is returned when no shape accepts the arguments.
var ErrNoMatch = errors.New("arguments do not match any signature")

// FieldType is the semantic type of an argument.
type FieldType int

const (
	// String accepts any token.
	String FieldType = iota
	// User accepts anything that identifies a user, including IDs whose
	// profile cannot be fetched.
	User
	// TextChannel accepts a reference to a text-capable channel.
	TextChannel
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case User:
		return "user"
	case TextChannel:
		return "textChannel"
	default:
		return "unknown"
	}
}

// Field is one named argument of a shape.
type Field struct {
	Name     string
	Type     FieldType
	Optional bool
}

// Shape is one accepted argument list.
type Shape []Field

// Parser converts tokens to users and channels. A false result with a nil
// error means the token is not of that type; a non-nil error is a lookup
// failure and aborts matching.
type Parser interface {
	ParseUser(ctx context.Context, token string) (resolver.UserResult, bool)
	ParseTextChannel(ctx context.Context, token string) (resolver.Channel, bool, error)
}

// Value is an extracted argument.
type Value struct {
	Raw     string
	User    *resolver.UserResult
	Channel *resolver.Channel
}

// Args holds the extracted arguments by field name. Absent optional fields
// have no entry.
type Args map[string]Value

// Text returns the raw token bound to name.
func (a Args) Text(name string) (string, bool) {
	v, ok := a[name]
	return v.Raw, ok
}

// User returns the user bound to name.
func (a Args) User(name string) (resolver.UserResult, bool) {
	v, ok := a[name]
	if !ok || v.User == nil {
		return resolver.UserResult{}, false
	}
	return *v.User, true
}

// Channel returns the channel bound to name.
func (a Args) Channel(name string) (resolver.Channel, bool) {
	v, ok := a[name]
	if !ok || v.Channel == nil {
		return resolver.Channel{}, false
	}
	return *v.Channel, true
}

// Has reports whether name was supplied.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Match returns the index of the first shape that accepts tokens together
// with the extracted arguments, or ErrNoMatch. Each token is parsed at most
// once per type across all shapes. A parser lookup failure is returned as is.
func Match(ctx context.Context, shapes []Shape, tokens []string, p Parser) (int, Args, error) {
	cp := newCachedParser(p)
	for i, shape := range shapes {
		args, ok, err := matchShape(ctx, shape, tokens, cp)
		if err != nil {
			return -1, nil, err
		}
		if ok {
			return i, args, nil
		}
	}
	return -1, nil, ErrNoMatch
}

func matchShape(ctx context.Context, shape Shape, tokens []string, p *cachedParser) (Args, bool, error) {
	args := make(Args, len(shape))
	pos := 0

	for _, field := range shape {
		if pos < len(tokens) {
			v, ok, err := parseField(ctx, field.Type, tokens[pos], p)
			if err != nil {
				return nil, false, err
			}
			if ok {
				args[field.Name] = v
				pos++
				continue
			}
		}
		if !field.Optional {
			return nil, false, nil
		}
	}

	if pos != len(tokens) {
		return nil, false, nil
	}
	return args, true, nil
}

func parseField(ctx context.Context, t FieldType, token string, p *cachedParser) (Value, bool, error) {
	switch t {
	case String:
		return Value{Raw: token}, true, nil
	case User:
		u, ok := p.user(ctx, token)
		if !ok {
			return Value{}, false, nil
		}
		return Value{Raw: token, User: &u}, true, nil
	case TextChannel:
		ch, ok, err := p.textChannel(ctx, token)
		if err != nil || !ok {
			return Value{}, false, err
		}
		return Value{Raw: token, Channel: &ch}, true, nil
	default:
		return Value{}, false, nil
	}
}

type userParse struct {
	result resolver.UserResult
	ok     bool
}

type channelParse struct {
	channel resolver.Channel
	ok      bool
}

// cachedParser remembers parse results for the duration of one Match, so a
// token offered to the same field type by several shapes hits the
// directory once.
type cachedParser struct {
	p        Parser
	users    map[string]userParse
	channels map[string]channelParse
}

func newCachedParser(p Parser) *cachedParser {
	return &cachedParser{
		p:        p,
		users:    make(map[string]userParse),
		channels: make(map[string]channelParse),
	}
}

func (c *cachedParser) user(ctx context.Context, token string) (resolver.UserResult, bool) {
	if hit, ok := c.users[token]; ok {
		return hit.result, hit.ok
	}
	res, ok := c.p.ParseUser(ctx, token)
	c.users[token] = userParse{result: res, ok: ok}
	return res, ok
}

func (c *cachedParser) textChannel(ctx context.Context, token string) (resolver.Channel, bool, error) {
	if hit, ok := c.channels[token]; ok {
		return hit.channel, hit.ok, nil
	}
	ch, ok, err := c.p.ParseTextChannel(ctx, token)
	if err != nil {
		return resolver.Channel{}, false, fmt.Errorf("parsing channel %q: %w", token, err)
	}
	c.channels[token] = channelParse{channel: ch, ok: ok}
	return ch, ok, nil
}

// Usage renders the argument part of a usage line. A field missing from
// any shape, or marked optional, is shown in brackets.
//
//	[]Shape{{name, user}, {name}} -> "<name> [user]"
func Usage(shapes []Shape) string {
	var (
		order    []string
		count    = make(map[string]int)
		optional = make(map[string]bool)
	)
	for _, shape := range shapes {
		for _, f := range shape {
			if _, seen := count[f.Name]; !seen {
				order = append(order, f.Name)
			}
			count[f.Name]++
			if f.Optional {
				optional[f.Name] = true
			}
		}
	}

	parts := make([]string, 0, len(order))
	for _, name := range order {
		if optional[name] || count[name] < len(shapes) {
			parts = append(parts, "["+name+"]")
		} else {
			parts = append(parts, "<"+name+">")
		}
	}
	return strings.Join(parts, " ")
}

// Describe renders a shape for documentation, e.g. "counterName: string, user?: user".
func Describe(shape Shape) string {
	parts := make([]string, len(shape))
	for i, f := range shape {
		name := f.Name
		if f.Optional {
			name += "?"
		}
		parts[i] = name + ": " + f.Type.String()
	}
	return strings.Join(parts, ", ")
}
