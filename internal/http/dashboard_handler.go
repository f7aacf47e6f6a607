package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/worktime/internal/application"
)

type dashboardService interface {
	Dashboard(ctx context.Context, principal application.Principal, userID string) (application.Dashboard, error)
	Hours(ctx context.Context, principal application.Principal, userID, period, date string) (application.HoursSummary, error)
}

// DashboardHandler serves the per-user aggregates.
type DashboardHandler struct {
	service   dashboardService
	responder responder
	logger    *slog.Logger
}

func NewDashboardHandler(service dashboardService, logger *slog.Logger) *DashboardHandler {
	base := defaultLogger(logger)
	return &DashboardHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DashboardHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DashboardHandler", operation, attrs...)
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := pathParam(r, "userId")
	principal, _ := PrincipalFromContext(r.Context())

	dashboard, err := h.service.Dashboard(r.Context(), principal, userID)
	if err != nil {
		h.log(r.Context(), "Dashboard", "user_id", userID).WarnContext(r.Context(), "dashboard failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dashboard)
}

// Hours totals a week or month. Query: period (default week), date (default today).
func (h *DashboardHandler) Hours(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	period := strings.TrimSpace(query.Get("period"))
	if period == "" {
		period = application.PeriodWeek
	}

	summary, err := h.service.Hours(r.Context(), principal, userID, period, strings.TrimSpace(query.Get("date")))
	if err != nil {
		h.log(r.Context(), "Hours", "user_id", userID, "period", period).WarnContext(r.Context(), "hours summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, summary)
}
