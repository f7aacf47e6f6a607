package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/persistence"
)

type shiftService interface {
	Create(ctx context.Context, principal application.Principal, input application.ShiftInput) (persistence.Shift, error)
	Get(ctx context.Context, id string) (persistence.Shift, error)
	Update(ctx context.Context, principal application.Principal, id string, patch application.ShiftUpdate) (persistence.Shift, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
	Assign(ctx context.Context, principal application.Principal, id string, userID *string) (persistence.Shift, error)
	List(ctx context.Context, filter application.ShiftFilter) (application.ShiftList, error)
}

// ShiftHandler serves the schedule.
type ShiftHandler struct {
	service   shiftService
	responder responder
	logger    *slog.Logger
}

func NewShiftHandler(service shiftService, logger *slog.Logger) *ShiftHandler {
	base := defaultLogger(logger)
	return &ShiftHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ShiftHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ShiftHandler", operation, attrs...)
}

func (h *ShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req shiftRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode shift request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "date", req.Date)

	shift, err := h.service.Create(r.Context(), principal, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "shift creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("shift_id", shift.ID).InfoContext(r.Context(), "shift created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, shift)
}

func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	shift, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Get", "shift_id", id).WarnContext(r.Context(), "shift lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shift)
}

func (h *ShiftHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var req shiftUpdateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Update", "shift_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode shift update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "shift_id", id)

	shift, err := h.service.Update(r.Context(), principal, id, req.toUpdate())
	if err != nil {
		logger.WarnContext(r.Context(), "shift update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "shift updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shift)
}

func (h *ShiftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "shift_id", id)

	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		logger.WarnContext(r.Context(), "shift deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "shift deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Assign sets or clears the holder. Body: {"userId": "<id>"|null}.
func (h *ShiftHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var req assignRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.log(r.Context(), "Assign", "shift_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode assign request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	var userID *string
	if req.UserID != nil && strings.TrimSpace(*req.UserID) != "" {
		trimmed := strings.TrimSpace(*req.UserID)
		userID = &trimmed
	}
	logger := h.log(r.Context(), "Assign", "shift_id", id)

	shift, err := h.service.Assign(r.Context(), principal, id, userID)
	if err != nil {
		logger.WarnContext(r.Context(), "shift assignment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "shift assigned", "assigned", userID != nil)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shift)
}

// List returns shifts matching from, to, userId, role and unassigned. With
// groupBy=day the shifts are keyed by date; summary=true adds totalMinutes.
func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	unassigned, err := queryBool(r, "unassigned")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}
	summary, err := queryBool(r, "summary")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}
	groupBy := strings.TrimSpace(query.Get("groupBy"))
	if groupBy != "" && groupBy != "day" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}

	filter := application.ShiftFilter{
		From:           strings.TrimSpace(query.Get("from")),
		To:             strings.TrimSpace(query.Get("to")),
		UserID:         strings.TrimSpace(query.Get("userId")),
		Role:           strings.TrimSpace(query.Get("role")),
		UnassignedOnly: unassigned,
	}

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.log(r.Context(), "List").WarnContext(r.Context(), "listing shifts failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if groupBy == "" && !summary {
		h.responder.writeJSON(r.Context(), w, http.StatusOK, list.Shifts)
		return
	}

	if groupBy == "day" {
		resp := shiftDaysResponse{Days: list.GroupByDay()}
		if summary {
			total := list.TotalMinutes
			resp.TotalMinutes = &total
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shiftSummaryResponse{Shifts: list.Shifts, TotalMinutes: list.TotalMinutes})
}

type shiftRequest struct {
	Date           string  `json:"date"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Role           string  `json:"role"`
	Location       string  `json:"location"`
	Notes          string  `json:"notes"`
	AssignedUserID *string `json:"assignedUserId"`
}

func (r shiftRequest) toInput() application.ShiftInput {
	return application.ShiftInput{
		Date:           r.Date,
		Start:          r.Start,
		End:            r.End,
		Role:           r.Role,
		Location:       r.Location,
		Notes:          r.Notes,
		AssignedUserID: r.AssignedUserID,
	}
}

type shiftUpdateRequest struct {
	Date           *string    `json:"date"`
	Start          *string    `json:"start"`
	End            *string    `json:"end"`
	Role           *string    `json:"role"`
	Location       *string    `json:"location"`
	Notes          *string    `json:"notes"`
	AssignedUserID nullableID `json:"assignedUserId"`
}

func (r shiftUpdateRequest) toUpdate() application.ShiftUpdate {
	update := application.ShiftUpdate{
		Date:     r.Date,
		Start:    r.Start,
		End:      r.End,
		Role:     r.Role,
		Location: r.Location,
		Notes:    r.Notes,
	}
	if r.AssignedUserID.set {
		if r.AssignedUserID.value == nil {
			update.AssignedUserID = application.OptionalID{Set: true}
		} else {
			update.AssignedUserID = application.SetID(strings.TrimSpace(*r.AssignedUserID.value))
		}
	}
	return update
}

type assignRequest struct {
	UserID *string `json:"userId"`
}

type shiftDaysResponse struct {
	Days         map[string][]persistence.Shift `json:"days"`
	TotalMinutes *int                           `json:"totalMinutes,omitempty"`
}

type shiftSummaryResponse struct {
	Shifts       []persistence.Shift `json:"shifts"`
	TotalMinutes int                 `json:"totalMinutes"`
}
