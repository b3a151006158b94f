package watch

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) renderHeader() string {
	status := m.theme.StatusFailed.Render("● disconnected")
	if m.health.Connected {
		status = m.theme.StatusOK.Render("● " + m.health.Status)
	}

	uptime := time.Duration(m.health.UptimeSeconds) * time.Second
	line := fmt.Sprintf("%s  %s  up %s  plugins %d  in-flight %d  %s",
		m.theme.Title.Render("parley watch"),
		status,
		uptime.Truncate(time.Second),
		m.health.PluginsLoaded,
		m.health.DispatchesInFlight,
		m.spinner.Render(m.theme),
	)
	return m.theme.Border.Width(m.paneWidth()).Render(line)
}

func (m Model) renderPlugins() string {
	var rows []string
	rows = append(rows, m.theme.Header.Render("PLUGINS"))
	if len(m.plugins) == 0 {
		rows = append(rows, m.theme.Dim.Render("  (none loaded)"))
	}
	for i, p := range m.plugins {
		state := m.theme.StatusOK.Render("enabled ")
		if !p.Enabled {
			state = m.theme.StatusFailed.Render("disabled")
		}
		kind := "commands: " + strings.Join(p.Commands, ", ")
		if p.Listener {
			kind += " +listener"
		}
		line := fmt.Sprintf("  %s %s  %s", state, p.Name, m.theme.Dim.Render(kind))
		if i == m.selected {
			line = m.theme.Highlight.Render("▸") + line[1:]
		}
		rows = append(rows, line)
	}
	return m.theme.Border.Width(m.paneWidth()).Render(strings.Join(rows, "\n"))
}

func (m Model) renderEvents() string {
	var rows []string
	rows = append(rows, m.theme.Header.Render("EVENTS"))

	limit := m.height - len(m.plugins) - 12
	if limit < 3 {
		limit = 3
	}
	for i, e := range m.eventLog {
		if i >= limit {
			break
		}
		detail := e.Plugin
		if e.Detail != "" {
			if detail != "" {
				detail += " "
			}
			detail += e.Detail
		}
		rows = append(rows, fmt.Sprintf("  %s  %-18s %s",
			m.theme.Dim.Render(e.At.Local().Format("15:04:05")),
			e.Type,
			m.theme.Dim.Render(detail),
		))
	}
	if len(m.eventLog) == 0 {
		rows = append(rows, m.theme.Dim.Render("  (no events yet)"))
	}
	return m.theme.Border.Width(m.paneWidth()).Render(strings.Join(rows, "\n"))
}

func (m Model) paneWidth() int {
	w := m.width - 6
	if w < 20 {
		w = 20
	}
	return w
}

// Run starts the TUI and blocks until the user quits.
func Run(apiURL, apiKey string) error {
	p := tea.NewProgram(New(apiURL, apiKey))
	_, err := p.Run()
	return err
}
