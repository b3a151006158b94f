package watch

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parleybot/parley/internal/events"
	"github.com/parleybot/parley/internal/plugin"
)

const eventLogSize = 50

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	health struct {
		healthMsg
		Connected bool
		LastCheck time.Time
	}
	plugins     []plugin.Description
	eventLog    []events.Event
	lastEventID int64

	spinner Spinner
	theme   Theme

	selected  int
	lastError string
}

// New creates a watch model pointed at the admin API.
func New(apiURL, apiKey string) *Model {
	return &Model{
		apiURL:  apiURL,
		apiKey:  apiKey,
		spinner: NewSpinner(),
		theme:   NewDefaultTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return fetchHealth(m.apiURL, m.apiKey) },
		func() tea.Msg { return fetchPlugins(m.apiURL, m.apiKey) },
		fetchEvents(m.apiURL, m.apiKey, 0),
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.plugins)-1 {
				m.selected++
			}
		case "e", "d", "r":
			if m.selected < len(m.plugins) {
				action := map[string]string{"e": "enable", "d": "disable", "r": "reload"}[msg.String()]
				return m, pluginAction(m.apiURL, m.apiKey, m.plugins[m.selected].Name, action)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.spinner.Decay()
		return m, tea.Batch(
			tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
			fetchEvents(m.apiURL, m.apiKey, m.lastEventID),
		)

	case healthMsg:
		m.health.healthMsg = msg
		m.health.Connected = true
		m.health.LastCheck = time.Now()
		m.lastError = ""
		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL, m.apiKey)
		})

	case pluginsMsg:
		m.plugins = msg
		if m.selected >= len(m.plugins) {
			m.selected = 0
		}

	case eventsMsg:
		for _, e := range msg {
			// Newest first.
			m.eventLog = append([]events.Event{e}, m.eventLog...)
			if e.ID > m.lastEventID {
				m.lastEventID = e.ID
			}
		}
		if len(m.eventLog) > eventLogSize {
			m.eventLog = m.eventLog[:eventLogSize]
		}
		if len(msg) > 0 {
			m.spinner.OnEvent()
		}

	case actionDoneMsg:
		m.lastError = ""
		return m, func() tea.Msg { return fetchPlugins(m.apiURL, m.apiKey) }

	case errMsg:
		m.health.Connected = false
		m.lastError = msg.Error()
		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL, m.apiKey)
		})
	}

	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting to parley..."
	}

	header := m.renderHeader()
	plugins := m.renderPlugins()
	eventStream := m.renderEvents()

	var errBar string
	if m.lastError != "" {
		errBar = m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError))
	}

	help := m.theme.Dim.Render(" [q] Quit • [↑/↓] Select • [e]nable [d]isable [r]eload")

	parts := []string{header, plugins, eventStream}
	if errBar != "" {
		parts = append(parts, errBar)
	}
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
