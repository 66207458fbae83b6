package command

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/go-faster/errors"
)

type HandlerFunc func(ctx context.Context, inv *Invocation) error

// Command is immutable once registered.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Category    string
	Usage       string
	// React is sent as a reaction to the triggering message before the
	// handler runs. Empty disables it.
	React   string
	Handler HandlerFunc
}

var (
	ErrDuplicate = errors.New("command already registered")
	ErrInvalid   = errors.New("invalid command")
)

type Registry struct {
	mu       sync.RWMutex
	commands []*Command
	byName   map[string]*Command
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Command)}
}

// Register adds cmd under its name and every alias. Nothing is added when
// any of them is already taken.
func (r *Registry) Register(cmd Command) error {
	name := normalize(cmd.Name)
	if name == "" {
		return errors.Wrap(ErrInvalid, "empty name")
	}
	if cmd.Handler == nil {
		return errors.Wrapf(ErrInvalid, "%s: nil handler", name)
	}

	keys := []string{name}
	for _, alias := range cmd.Aliases {
		if a := normalize(alias); a != "" {
			keys = append(keys, a)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := r.byName[k]; ok {
			return errors.Wrapf(ErrDuplicate, "%q", k)
		}
		if _, ok := seen[k]; ok {
			return errors.Wrapf(ErrDuplicate, "%q listed twice", k)
		}
		seen[k] = struct{}{}
	}

	c := cmd
	c.Name = name
	c.Aliases = append([]string(nil), keys[1:]...)
	for _, k := range keys {
		r.byName[k] = &c
	}
	r.commands = append(r.commands, &c)
	return nil
}

// MustRegister panics on error. Meant for wiring at startup.
func (r *Registry) MustRegister(cmds ...Command) {
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byName[normalize(name)]
	return c, ok
}

// List returns commands ordered by category, then name.
func (r *Registry) List() []*Command {
	r.mu.RLock()
	out := append([]*Command(nil), r.commands...)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
