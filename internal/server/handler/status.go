package handler

import (
	"net/http"
)

// StatusHandler serves build and runtime facts for the dashboard.
type StatusHandler struct {
	Version        string
	RealtimeSource string
	AuthEnabled    bool
	// Clients reports connected websocket clients; may be nil.
	Clients func() int
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(version, realtimeSource string, authEnabled bool, clients func() int) *StatusHandler {
	return &StatusHandler{
		Version:        version,
		RealtimeSource: realtimeSource,
		AuthEnabled:    authEnabled,
		Clients:        clients,
	}
}

// GetStatus responds with the version, the request environment and the
// live feed configuration.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if h.Clients != nil {
		clients = h.Clients()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":         h.Version,
		"environment":     envFrom(r),
		"realtime_source": h.RealtimeSource,
		"auth_enabled":    h.AuthEnabled,
		"ws_clients":      clients,
	})
}
