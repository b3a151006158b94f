package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/parleybot/parley/internal/log"
)

var (
	// ErrDuplicateCommand is returned when a registration declares a
	// command already owned by a registered plugin.
	ErrDuplicateCommand = errors.New("duplicate command")

	// ErrNotFound is returned for operations on an unknown plugin name.
	ErrNotFound = errors.New("plugin not found")
)

type entry struct {
	plugin  Plugin
	factory Factory
	enabled bool
}

// Registry owns all plugin instances and the command- and listener-ownership
// tables the dispatcher routes through. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]*entry
	commands map[string]string // command name -> owning plugin name
	order    []string          // registration order, for Describe
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:  make(map[string]*entry),
		commands: make(map[string]string),
	}
}

// Register instantiates a plugin via its factory and claims its declared
// commands. The first registrant of a command wins: a later registration
// declaring the same command fails with ErrDuplicateCommand and stays
// unregistered. Registered plugins start enabled.
func (r *Registry) Register(factory Factory) error {
	p, err := factory()
	if err != nil {
		return fmt.Errorf("instantiate plugin: %w", err)
	}
	name := p.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}
	for _, cmd := range p.Commands() {
		if owner, taken := r.commands[cmd]; taken {
			return fmt.Errorf("command %q already owned by plugin %q: %w", cmd, owner, ErrDuplicateCommand)
		}
	}

	for _, cmd := range p.Commands() {
		r.commands[cmd] = name
	}
	r.plugins[name] = &entry{plugin: p, factory: factory, enabled: true}
	r.order = append(r.order, name)
	log.WithPlugin(name).Info("plugin registered", "commands", p.Commands(), "listener", p.HasListener())
	return nil
}

// Enable marks the named plugin active and fires its Enable hook.
func (r *Registry) Enable(name string) error {
	return r.setEnabled(name, true)
}

// Disable marks the named plugin inactive and fires its Disable hook. The
// plugin stays registered and its commands stay claimed, so a disabled
// plugin still blocks other registrations from taking its commands.
func (r *Registry) Disable(name string) error {
	return r.setEnabled(name, false)
}

func (r *Registry) setEnabled(name string, enabled bool) error {
	r.mu.Lock()
	e, ok := r.plugins[name]
	if ok {
		e.enabled = enabled
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if enabled {
		e.plugin.Enable()
	} else {
		e.plugin.Disable()
	}
	log.WithPlugin(name).Info("plugin state changed", "enabled", enabled)
	return nil
}

// Reload re-instantiates the named plugin from its backing store, keeping
// its enabled/disabled state. If the fresh instance declares a command owned
// by a different plugin, the reload fails and the old instance stays.
func (r *Registry) Reload(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.plugins[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	fresh, err := e.factory()
	if err != nil {
		return fmt.Errorf("reload plugin %q: %w", name, err)
	}
	for _, cmd := range fresh.Commands() {
		if owner, taken := r.commands[cmd]; taken && owner != name {
			return fmt.Errorf("command %q already owned by plugin %q: %w", cmd, owner, ErrDuplicateCommand)
		}
	}

	// Release commands the old instance owned and claim the fresh set.
	for cmd, owner := range r.commands {
		if owner == name {
			delete(r.commands, cmd)
		}
	}
	for _, cmd := range fresh.Commands() {
		r.commands[cmd] = name
	}
	e.plugin = fresh
	log.WithPlugin(name).Info("plugin reloaded", "enabled", e.enabled)
	return nil
}

// Resolve returns the enabled plugin owning the given command name. The match
// is exact and case-sensitive. Commands owned by disabled plugins resolve to
// nothing.
func (r *Registry) Resolve(cmd string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.commands[cmd]
	if !ok {
		return nil, false
	}
	e := r.plugins[owner]
	if !e.enabled {
		return nil, false
	}
	return e.plugin, true
}

// Listeners returns every enabled plugin that wants free-text messages.
func (r *Registry) Listeners() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Plugin
	for _, name := range r.order {
		e := r.plugins[name]
		if e.enabled && e.plugin.HasListener() {
			out = append(out, e.plugin)
		}
	}
	return out
}

// Description summarizes one registered plugin for operator introspection.
type Description struct {
	Name     string   `json:"name"`
	Commands []string `json:"commands"`
	Listener bool     `json:"listener"`
	Enabled  bool     `json:"enabled"`
	Help     string   `json:"help"`
}

// Describe returns all registered plugins sorted by name.
func (r *Registry) Describe() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Description, 0, len(r.plugins))
	for name, e := range r.plugins {
		cmds := append([]string(nil), e.plugin.Commands()...)
		sort.Strings(cmds)
		out = append(out, Description{
			Name:     name,
			Commands: cmds,
			Listener: e.plugin.HasListener(),
			Enabled:  e.enabled,
			Help:     e.plugin.Help(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Help returns the named plugin's help text.
func (r *Registry) Help(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.plugins[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.plugin.Help(), nil
}
