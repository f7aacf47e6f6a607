package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/geofence"
	"github.com/example/worktime/internal/persistence"
)

type companyService interface {
	Get(ctx context.Context) (persistence.Company, error)
	Location(ctx context.Context) (persistence.Location, error)
	CheckLocation(ctx context.Context, input application.CoordinateInput) (geofence.Result, error)
}

// CompanyHandler serves the workplace record and the geofence check.
type CompanyHandler struct {
	service   companyService
	responder responder
	logger    *slog.Logger
}

func NewCompanyHandler(service companyService, logger *slog.Logger) *CompanyHandler {
	base := defaultLogger(logger)
	return &CompanyHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CompanyHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CompanyHandler", operation, attrs...)
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	company, err := h.service.Get(r.Context())
	if err != nil {
		h.log(r.Context(), "Get").ErrorContext(r.Context(), "company lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, company)
}

func (h *CompanyHandler) Location(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	location, err := h.service.Location(r.Context())
	if err != nil {
		h.log(r.Context(), "Location").ErrorContext(r.Context(), "company location lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, location)
}

// CheckLocation answers {isWithin, distance, radius} for {latitude, longitude}.
func (h *CompanyHandler) CheckLocation(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req coordinateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "CheckLocation", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode coordinate", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.CheckLocation(r.Context(), *req.toInput())
	if err != nil {
		h.log(r.Context(), "CheckLocation").WarnContext(r.Context(), "location check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, result)
}
