// Package plugin defines the capability contract bot plugins implement and
// the registry that owns them.
package plugin

import (
	"context"

	"github.com/parleybot/parley/internal/command"
	"github.com/parleybot/parley/internal/telegram"
)

// Plugin is one independently loadable capability module. Instances are
// shared across concurrent dispatches; any mutable state a plugin holds must
// be synchronized internally.
type Plugin interface {
	// Name is the unique, stable identifier used for enable/disable/reload.
	Name() string

	// Help returns the operator-facing usage text.
	Help() string

	// Commands returns the command names this plugin owns. Ownership is
	// exclusive across the registry.
	Commands() []string

	// HasListener reports whether OnMessage should receive every
	// non-command message.
	HasListener() bool

	// OnCommand handles one owned command. A nil response means silence.
	OnCommand(ctx context.Context, cmd *command.Command) (*Response, error)

	// OnMessage handles a free-text message. Only called when HasListener
	// is true.
	OnMessage(ctx context.Context, msg *telegram.Message) (*Response, error)

	// Enable and Disable are lifecycle hooks invoked when the registry
	// flips the plugin's state.
	Enable()
	Disable()
}

// Factory builds a fresh plugin instance from its persisted backing store.
// The registry calls it once at registration and again on every reload.
type Factory func() (Plugin, error)
