package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	backends domain.HealthChecker
	logger   *slog.Logger
}

// NewHealthHandler creates a HealthHandler. backends may be nil.
func NewHealthHandler(backends domain.HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{backends: backends, logger: logHandler(logger, "health")}
}

// HealthCheck reports liveness. It always answers 200; backend reachability
// per environment is informational.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.backends != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		backends := make(map[domain.Environment]string, len(domain.Environments))
		for _, env := range domain.Environments {
			if err := h.backends.Ping(ctx, env); err != nil {
				backends[env] = err.Error()
				resp["status"] = "degraded"
				continue
			}
			backends[env] = "ok"
		}
		resp["backends"] = backends
	}
	writeJSON(w, http.StatusOK, resp)
}
