package watch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleybot/parley/internal/events"
	"github.com/parleybot/parley/internal/plugin"
)

// --- Message types ---

type healthMsg struct {
	Status             string `json:"status"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	PluginsLoaded      int    `json:"plugins_loaded"`
	DispatchesInFlight int64  `json:"dispatches_in_flight"`
}

type pluginsMsg []plugin.Description

type eventsMsg []events.Event

type actionDoneMsg struct{ plugin, action string }

type tickMsg time.Time

type errMsg error

// --- Commands ---

func getJSON(apiURL, apiKey, path string, out any) error {
	client := &http.Client{Timeout: 2 * time.Second}
	req, err := http.NewRequest(http.MethodGet, apiURL+path, nil)
	if err != nil {
		return err
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// fetchHealth queries the /healthz endpoint.
func fetchHealth(apiURL, apiKey string) tea.Msg {
	var h healthMsg
	if err := getJSON(apiURL, apiKey, "/healthz", &h); err != nil {
		return errMsg(err)
	}
	return h
}

// fetchPlugins queries the /plugins endpoint.
func fetchPlugins(apiURL, apiKey string) tea.Msg {
	var ps pluginsMsg
	if err := getJSON(apiURL, apiKey, "/plugins", &ps); err != nil {
		return errMsg(err)
	}
	return ps
}

// fetchEvents queries /events for entries newer than after.
func fetchEvents(apiURL, apiKey string, after int64) tea.Cmd {
	return func() tea.Msg {
		var evs eventsMsg
		if err := getJSON(apiURL, apiKey, fmt.Sprintf("/events?after=%d", after), &evs); err != nil {
			return errMsg(err)
		}
		return evs
	}
}

// pluginAction posts an enable/disable/reload for the named plugin.
func pluginAction(apiURL, apiKey, name, action string) tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{Timeout: 5 * time.Second}
		req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/plugins/%s/%s", apiURL, name, action), nil)
		if err != nil {
			return errMsg(err)
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		resp, err := client.Do(req)
		if err != nil {
			return errMsg(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errMsg(fmt.Errorf("%s %s: %s", action, name, resp.Status))
		}
		return actionDoneMsg{plugin: name, action: action}
	}
}
