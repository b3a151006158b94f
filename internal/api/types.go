package api

// HealthzResponse is the GET /healthz payload.
type HealthzResponse struct {
	Status             string `json:"status"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	PluginsLoaded      int    `json:"plugins_loaded"`
	DispatchesInFlight int64  `json:"dispatches_in_flight"`
}

// PluginStateResponse reports the outcome of an enable/disable/reload.
type PluginStateResponse struct {
	Plugin string `json:"plugin"`
	Action string `json:"action"`
	Status string `json:"status"`
}

// HelpResponse is the GET /plugins/{name}/help payload.
type HelpResponse struct {
	Plugin string `json:"plugin"`
	Help   string `json:"help"`
}

// BalanceResponse is the GET /ledger/{owner} payload.
type BalanceResponse struct {
	Owner   string `json:"owner"`
	Balance int64  `json:"balance"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
