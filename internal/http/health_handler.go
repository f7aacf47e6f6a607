package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthCheck reports whether the storage backend is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	check     HealthCheck
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewHealthHandler(check HealthCheck, logger *slog.Logger) *HealthHandler {
	base := defaultLogger(logger)
	return &HealthHandler{check: check, now: time.Now, responder: newResponder(base), logger: base}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)}
	if h == nil {
		newResponder(nil).writeJSON(r.Context(), w, http.StatusOK, resp)
		return
	}
	resp.Time = h.now().UTC().Format(time.RFC3339)

	if h.check != nil {
		if err := h.check(r.Context()); err != nil {
			handlerLogger(r.Context(), h.logger, "HealthHandler", "Health").ErrorContext(r.Context(), "health check failed", "error", err)
			resp.Status = "unavailable"
			h.responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
