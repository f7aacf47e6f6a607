package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/persistence"
)

type timesheetService interface {
	ClockIn(ctx context.Context, principal application.Principal, input application.ClockInInput) (persistence.Timesheet, error)
	ClockOut(ctx context.Context, principal application.Principal, input application.ClockOutInput) (persistence.Timesheet, error)
	Active(ctx context.Context, userID string) (*persistence.Timesheet, error)
	List(ctx context.Context, filter application.TimesheetFilter) ([]application.TimesheetView, error)
}

// TimesheetHandler serves clock-in and clock-out.
type TimesheetHandler struct {
	service   timesheetService
	responder responder
	logger    *slog.Logger
}

func NewTimesheetHandler(service timesheetService, logger *slog.Logger) *TimesheetHandler {
	base := defaultLogger(logger)
	return &TimesheetHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TimesheetHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TimesheetHandler", operation, attrs...)
}

func (h *TimesheetHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req clockInRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.log(r.Context(), "ClockIn", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode clock-in request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	userID := userOrCaller(r.Context(), req.UserID)

	logger := h.log(r.Context(), "ClockIn", "user_id", userID)

	sheet, err := h.service.ClockIn(r.Context(), principal, req.toInput(userID))
	if err != nil {
		logger.WarnContext(r.Context(), "clock-in failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("timesheet_id", sheet.ID).InfoContext(r.Context(), "clocked in")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sheet)
}

func (h *TimesheetHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req clockOutRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.log(r.Context(), "ClockOut", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode clock-out request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	userID := userOrCaller(r.Context(), req.UserID)

	logger := h.log(r.Context(), "ClockOut", "user_id", userID)

	sheet, err := h.service.ClockOut(r.Context(), principal, application.ClockOutInput{UserID: userID, At: req.Timestamp})
	if err != nil {
		logger.WarnContext(r.Context(), "clock-out failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("timesheet_id", sheet.ID).InfoContext(r.Context(), "clocked out")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sheet)
}

// Active answers {"active": <timesheet|null>}; having no open session is not an error.
func (h *TimesheetHandler) Active(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := pathParam(r, "userId")
	sheet, err := h.service.Active(r.Context(), userID)
	if err != nil {
		h.log(r.Context(), "Active", "user_id", userID).ErrorContext(r.Context(), "active timesheet lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, activeTimesheetResponse{Active: sheet})
}

func (h *TimesheetHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	views, err := h.service.List(r.Context(), application.TimesheetFilter{
		UserID: strings.TrimSpace(query.Get("userId")),
		From:   strings.TrimSpace(query.Get("from")),
		To:     strings.TrimSpace(query.Get("to")),
	})
	if err != nil {
		h.log(r.Context(), "List").WarnContext(r.Context(), "listing timesheets failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

type coordinateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

func (c *coordinateRequest) toInput() *application.CoordinateInput {
	if c == nil {
		return nil
	}
	return &application.CoordinateInput{Latitude: c.Latitude, Longitude: c.Longitude, Accuracy: c.Accuracy}
}

type clockInRequest struct {
	UserID    string             `json:"userId"`
	Timestamp *time.Time         `json:"timestamp"`
	ShiftID   *string            `json:"shiftId"`
	Location  *coordinateRequest `json:"location"`
}

func (r clockInRequest) toInput(userID string) application.ClockInInput {
	var shiftID *string
	if r.ShiftID != nil && strings.TrimSpace(*r.ShiftID) != "" {
		trimmed := strings.TrimSpace(*r.ShiftID)
		shiftID = &trimmed
	}
	return application.ClockInInput{
		UserID:   userID,
		At:       r.Timestamp,
		ShiftID:  shiftID,
		Location: r.Location.toInput(),
	}
}

type clockOutRequest struct {
	UserID    string     `json:"userId"`
	Timestamp *time.Time `json:"timestamp"`
}

type activeTimesheetResponse struct {
	Active *persistence.Timesheet `json:"active"`
}
