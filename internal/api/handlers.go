package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parleybot/parley/internal/events"
	"github.com/parleybot/parley/internal/plugin"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var inFlight int64
	if s.dispatcher != nil {
		inFlight = s.dispatcher.InFlight()
	}
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:             "ok",
		UptimeSeconds:      int64(time.Since(s.startedAt).Seconds()),
		PluginsLoaded:      len(s.registry.Describe()),
		DispatchesInFlight: inFlight,
	})
}

// handleListPlugins handles GET /plugins.
func (s *Server) handleListPlugins(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.registry.Describe())
}

// handlePluginHelp handles GET /plugins/{name}/help.
func (s *Server) handlePluginHelp(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	help, err := s.registry.Help(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, HelpResponse{Plugin: name, Help: help})
}

// handlePluginState handles POST /plugins/{name}/enable|disable|reload.
func (s *Server) handlePluginState(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var err error
		switch action {
		case "enable":
			err = s.registry.Enable(name)
		case "disable":
			err = s.registry.Disable(name)
		case "reload":
			err = s.registry.Reload(name)
		}
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, plugin.ErrNotFound) {
				status = http.StatusNotFound
			}
			s.writeError(w, status, err.Error())
			return
		}

		s.logger.Info("plugin state changed", "plugin", name, "action", action)
		if s.hub != nil {
			s.hub.Publish(events.Event{Type: events.TypePluginState, Plugin: name, Detail: action})
		}
		respondJSON(w, http.StatusOK, PluginStateResponse{Plugin: name, Action: action, Status: "ok"})
	}
}

// handleBalance handles GET /ledger/{owner}. Reading through the API never
// creates an account.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if !s.ledger.Exists(owner) {
		s.writeError(w, http.StatusNotFound, "no such account")
		return
	}
	respondJSON(w, http.StatusOK, BalanceResponse{Owner: owner, Balance: s.ledger.Balance(r.Context(), owner)})
}

// handleEvents handles GET /events?after=<id>.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var after int64
	if v := r.URL.Query().Get("after"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "after must be an integer")
			return
		}
		after = parsed
	}

	evs := []events.Event{}
	if s.hub != nil {
		evs = s.hub.SnapshotSince(after)
	}
	respondJSON(w, http.StatusOK, evs)
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
