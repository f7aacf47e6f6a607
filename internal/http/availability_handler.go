package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/persistence"
)

type availabilityService interface {
	Create(ctx context.Context, principal application.Principal, input application.AvailabilityInput) (persistence.Availability, error)
	Update(ctx context.Context, principal application.Principal, id string, patch application.AvailabilityUpdate) (persistence.Availability, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
	List(ctx context.Context, filter application.AvailabilityFilter) ([]application.AvailabilityView, error)
}

// AvailabilityHandler serves declared availability windows.
type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, attrs...)
}

// Create records a window. userId defaults to the caller.
func (h *AvailabilityHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req availabilityRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode availability request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	req.UserID = userOrCaller(r.Context(), req.UserID)

	logger := h.log(r.Context(), "Create", "user_id", req.UserID, "date", req.Date)

	avail, err := h.service.Create(r.Context(), principal, application.AvailabilityInput{
		UserID: req.UserID,
		Date:   req.Date,
		Start:  req.Start,
		End:    req.End,
		Notes:  req.Notes,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "availability creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("availability_id", avail.ID).InfoContext(r.Context(), "availability created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, avail)
}

func (h *AvailabilityHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var req availabilityUpdateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Update", "availability_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode availability update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "availability_id", id)

	avail, err := h.service.Update(r.Context(), principal, id, application.AvailabilityUpdate{
		Date:  req.Date,
		Start: req.Start,
		End:   req.End,
		Notes: req.Notes,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "availability update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "availability updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, avail)
}

func (h *AvailabilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "availability_id", id)

	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		logger.WarnContext(r.Context(), "availability deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "availability deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	withUser, err := queryBool(r, "withUser")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}
	query := r.URL.Query()

	views, err := h.service.List(r.Context(), application.AvailabilityFilter{
		UserID:   strings.TrimSpace(query.Get("userId")),
		From:     strings.TrimSpace(query.Get("from")),
		To:       strings.TrimSpace(query.Get("to")),
		WithUser: withUser,
	})
	if err != nil {
		h.log(r.Context(), "List").WarnContext(r.Context(), "listing availabilities failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

type availabilityRequest struct {
	UserID string `json:"userId"`
	Date   string `json:"date"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Notes  string `json:"notes"`
}

type availabilityUpdateRequest struct {
	Date  *string `json:"date"`
	Start *string `json:"start"`
	End   *string `json:"end"`
	Notes *string `json:"notes"`
}
