package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/persistence"
)

type userService interface {
	Get(ctx context.Context, id string) (persistence.User, error)
	List(ctx context.Context) ([]persistence.User, error)
	Update(ctx context.Context, principal application.Principal, id string, patch application.UserUpdate) (persistence.User, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
	Filter(ctx context.Context, input application.FilterInput) ([]application.FilteredEmployee, error)
}

// UserHandler serves the employee directory and profiles.
type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	users, err := h.service.List(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "listing users failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Get", "user_id", id).WarnContext(r.Context(), "user lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var req userUpdateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Update", "user_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode user update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "user_id", id)

	user, err := h.service.Update(r.Context(), principal, id, req.toUpdate())
	if err != nil {
		logger.WarnContext(r.Context(), "user update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "user_id", id)

	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		logger.WarnContext(r.Context(), "user deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Filter lists employees for assignment. Query: date, positionIds (comma
// separated or repeated), includeUnavailable.
func (h *UserHandler) Filter(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	includeUnavailable, err := queryBool(r, "includeUnavailable")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}

	input := application.FilterInput{
		Date:               strings.TrimSpace(r.URL.Query().Get("date")),
		PositionIDs:        queryList(r, "positionIds"),
		IncludeUnavailable: includeUnavailable,
	}

	employees, err := h.service.Filter(r.Context(), input)
	if err != nil {
		h.log(r.Context(), "Filter", "date", input.Date).WarnContext(r.Context(), "filtering users failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, employees)
}

type userUpdateRequest struct {
	Name             *string                              `json:"name"`
	Phone            *string                              `json:"phone"`
	Avatar           *string                              `json:"avatar"`
	HourlyRate       *decimal.Decimal                     `json:"hourlyRate"`
	Positions        *[]string                            `json:"positions"`
	Notifications    *persistence.NotificationPreferences `json:"notifications"`
	MonthlyGoalHours *float64                             `json:"monthlyGoalHours"`
	IsEmployer       *bool                                `json:"isEmployer"`
}

func (r userUpdateRequest) toUpdate() application.UserUpdate {
	return application.UserUpdate{
		Name:             r.Name,
		Phone:            r.Phone,
		Avatar:           r.Avatar,
		HourlyRate:       r.HourlyRate,
		Positions:        r.Positions,
		Notifications:    r.Notifications,
		MonthlyGoalHours: r.MonthlyGoalHours,
		IsEmployer:       r.IsEmployer,
	}
}
