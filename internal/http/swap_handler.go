package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/persistence"
)

type swapService interface {
	Create(ctx context.Context, principal application.Principal, input application.SwapInput) (persistence.Swap, error)
	Accept(ctx context.Context, principal application.Principal, id, actorID string) (persistence.Swap, error)
	Reject(ctx context.Context, principal application.Principal, id, actorID string) (persistence.Swap, error)
	Cancel(ctx context.Context, principal application.Principal, id, actorID string) (persistence.Swap, error)
	List(ctx context.Context, filter application.SwapFilter) ([]application.SwapView, error)
}

// SwapHandler serves shift swap requests.
type SwapHandler struct {
	service   swapService
	responder responder
	logger    *slog.Logger
}

func NewSwapHandler(service swapService, logger *slog.Logger) *SwapHandler {
	base := defaultLogger(logger)
	return &SwapHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SwapHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SwapHandler", operation, attrs...)
}

// Create opens a swap. requesterId defaults to the caller; a missing
// targetUserId offers the shift on the open market.
func (h *SwapHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req swapRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode swap request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	req.RequesterID = userOrCaller(r.Context(), req.RequesterID)
	var target *string
	if req.TargetUserID != nil && strings.TrimSpace(*req.TargetUserID) != "" {
		trimmed := strings.TrimSpace(*req.TargetUserID)
		target = &trimmed
	}

	logger := h.log(r.Context(), "Create", "shift_id", req.ShiftID, "requester_id", req.RequesterID)

	swap, err := h.service.Create(r.Context(), principal, application.SwapInput{
		ShiftID:      req.ShiftID,
		RequesterID:  req.RequesterID,
		TargetUserID: target,
		Note:         req.Note,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "swap creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("swap_id", swap.ID).InfoContext(r.Context(), "swap created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, swap)
}

func (h *SwapHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Accept", swapService.Accept)
}

func (h *SwapHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Reject", swapService.Reject)
}

func (h *SwapHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Cancel", swapService.Cancel)
}

type swapTransition func(svc swapService, ctx context.Context, principal application.Principal, id, actorID string) (persistence.Swap, error)

// transition runs one state change. The optional body {"userId"} names the
// acting user; it defaults to the caller.
func (h *SwapHandler) transition(w http.ResponseWriter, r *http.Request, operation string, apply swapTransition) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())

	var req swapActionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.log(r.Context(), operation, "swap_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode swap action", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	actorID := strings.TrimSpace(req.UserID)
	logger := h.log(r.Context(), operation, "swap_id", id, "actor_id", actorID)

	swap, err := apply(h.service, r.Context(), principal, id, actorID)
	if err != nil {
		logger.WarnContext(r.Context(), "swap transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "swap transitioned", "status", swap.Status)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, swap)
}

// List returns swaps. Query: userId, type (market|mine), status. A type
// without userId applies to the caller.
func (h *SwapHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	filter := application.SwapFilter{
		UserID: strings.TrimSpace(query.Get("userId")),
		Mode:   application.SwapListMode(strings.TrimSpace(query.Get("type"))),
		Status: persistence.SwapStatus(strings.TrimSpace(query.Get("status"))),
	}
	if filter.Mode != application.SwapListInvolved {
		filter.UserID = userOrCaller(r.Context(), filter.UserID)
	}

	views, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.log(r.Context(), "List").WarnContext(r.Context(), "listing swaps failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

type swapRequest struct {
	ShiftID      string  `json:"shiftId"`
	RequesterID  string  `json:"requesterId"`
	TargetUserID *string `json:"targetUserId"`
	Note         string  `json:"note"`
}

type swapActionRequest struct {
	UserID string `json:"userId"`
}
