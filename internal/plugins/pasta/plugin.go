// Package pasta is a snippet-store plugin: users save named blocks of text
// and recall them by title, or get a random one.
package pasta

import (
	"context"
	"strings"

	"github.com/parleybot/parley/internal/command"
	"github.com/parleybot/parley/internal/plugin"
	"github.com/parleybot/parley/internal/telegram"
)

const (
	noneSet       = "No pasta set!"
	syntaxMessage = "Invalid syntax! Please enter pasta title on first line and begin pasta on next line"
)

// Pasta serves the pasta, listpasta and newpasta commands from a Store.
type Pasta struct {
	store *Store
}

// Factory returns a plugin factory bound to dir. The store is created once
// and reloaded on subsequent instantiations, so a registry reload re-reads
// only the files that changed on disk.
func Factory(dir string) plugin.Factory {
	var store *Store
	return func() (plugin.Plugin, error) {
		if store == nil {
			s, err := Open(dir)
			if err != nil {
				return nil, err
			}
			store = s
		} else if err := store.Reload(); err != nil {
			return nil, err
		}
		return &Pasta{store: store}, nil
	}
}

func (p *Pasta) Name() string       { return "pasta" }
func (p *Pasta) Help() string       { return "/pasta <name (optional)>" }
func (p *Pasta) Commands() []string { return []string{"pasta", "listpasta", "newpasta"} }
func (p *Pasta) HasListener() bool  { return false }
func (p *Pasta) Enable()            {}
func (p *Pasta) Disable()           {}

func (p *Pasta) OnMessage(context.Context, *telegram.Message) (*plugin.Response, error) {
	return nil, nil
}

func (p *Pasta) OnCommand(_ context.Context, cmd *command.Command) (*plugin.Response, error) {
	switch cmd.Name {
	case "pasta":
		return plugin.Text(p.lookup(cmd.Args)), nil
	case "listpasta":
		titles := p.store.Titles()
		if len(titles) == 0 {
			return plugin.Text(noneSet), nil
		}
		return plugin.Text(strings.Join(titles, "\n")), nil
	case "newpasta":
		return plugin.Text(p.create(cmd.Args)), nil
	}
	return nil, nil
}

// lookup prefers an exact title match, falls back to a random entry, and
// reports an empty store.
func (p *Pasta) lookup(title string) string {
	if body, ok := p.store.Get(title); ok {
		return body
	}
	if body, ok := p.store.Random(); ok {
		return body
	}
	return noneSet
}

// create expects the title on the first line and the body on the rest.
func (p *Pasta) create(args string) string {
	title, body, found := strings.Cut(args, "\n")
	if !found || title == "" || body == "" {
		return syntaxMessage
	}
	if err := p.store.Add(title, body); err != nil {
		return syntaxMessage
	}
	return "Created pasta '" + title + "'"
}
