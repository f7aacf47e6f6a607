package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/worktime/internal/application"
)

var (
	errBadRequestBody = errors.New("Nieprawidłowy format żądania.")
	errInvalidQuery   = errors.New("Nieprawidłowe parametry zapytania.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError responds with err's text, or the generic message for status.
func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message, Code: statusCode(status)})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Message: "Dane wejściowe są nieprawidłowe.",
			Code:    "validation_failed",
			Fields:  localizeValidationErrors(vErr),
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			Message: "Nieprawidłowa nazwa użytkownika lub hasło.",
			Code:    "invalid_credentials",
		})
	case errors.Is(err, application.ErrUnauthenticated):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			Message: "Sesja jest nieprawidłowa lub wygasła. Zaloguj się ponownie.",
			Code:    "unauthenticated",
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			Message: "Nie masz uprawnień do wykonania tej operacji.",
			Code:    "forbidden",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			Message: "Nie znaleziono zasobu.",
			Code:    "not_found",
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			Message: "Taki zasób już istnieje.",
			Code:    "already_exists",
		})
	case errors.Is(err, application.ErrAlreadyClockedIn):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Message: "Zmiana została już rozpoczęta. Najpierw zakończ poprzednią.",
			Code:    "already_clocked_in",
		})
	case errors.Is(err, application.ErrNotClockedIn):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Message: "Brak rozpoczętej zmiany do zakończenia.",
			Code:    "not_clocked_in",
		})
	case errors.Is(err, application.ErrSwapNotPending):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Message: "Prośba o zamianę nie oczekuje już na decyzję.",
			Code:    "swap_not_pending",
		})
	case errors.Is(err, application.ErrOutsideGeofence):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			Message: "Znajdujesz się poza obszarem miejsca pracy.",
			Code:    "outside_geofence",
		})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			Message: localizedStatusMessage(http.StatusInternalServerError),
			Code:    "internal_error",
		})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	return requestLogger(ctx, r.logger)
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Żądanie jest nieprawidłowe."
	case http.StatusUnauthorized:
		return "Wymagane jest zalogowanie."
	case http.StatusForbidden:
		return "Nie masz uprawnień do wykonania tej operacji."
	case http.StatusNotFound:
		return "Nie znaleziono zasobu."
	case http.StatusMethodNotAllowed:
		return "Metoda nie jest obsługiwana dla tego zasobu."
	case http.StatusConflict:
		return "Żądanie jest sprzeczne z bieżącym stanem zasobu."
	case http.StatusServiceUnavailable:
		return "Usługa jest chwilowo niedostępna."
	default:
		return "Wystąpił wewnętrzny błąd serwera."
	}
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "already_exists"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "date is required":
		return "Data jest wymagana."
	case "date must be YYYY-MM-DD":
		return "Data musi mieć format RRRR-MM-DD."
	case "start is required":
		return "Godzina rozpoczęcia jest wymagana."
	case "start must be HH:MM or an ISO-8601 timestamp":
		return "Godzina rozpoczęcia musi mieć format GG:MM lub ISO-8601."
	case "end is required":
		return "Godzina zakończenia jest wymagana."
	case "end must be HH:MM or an ISO-8601 timestamp":
		return "Godzina zakończenia musi mieć format GG:MM lub ISO-8601."
	case "end must be after start":
		return "Koniec musi być późniejszy niż początek."
	case "role is required":
		return "Stanowisko jest wymagane."
	case "userId is required":
		return "Identyfikator użytkownika jest wymagany."
	case "user does not exist":
		return "Wskazany użytkownik nie istnieje."
	case "shiftId is required":
		return "Identyfikator zmiany jest wymagany."
	case "shift does not exist":
		return "Wskazana zmiana nie istnieje."
	case "target must differ from requester":
		return "Adresat musi być inną osobą niż wnioskujący."
	case "username is required":
		return "Nazwa użytkownika jest wymagana."
	case "username must be at least 3 characters":
		return "Nazwa użytkownika musi mieć co najmniej 3 znaki."
	case "password is required":
		return "Hasło jest wymagane."
	case "name is required":
		return "Imię i nazwisko są wymagane."
	case "hourly rate is below the minimum":
		return "Stawka godzinowa jest niższa niż minimalna."
	case "monthly goal must be positive":
		return "Miesięczny cel godzin musi być dodatni."
	case "latitude is required":
		return "Szerokość geograficzna jest wymagana."
	case "longitude is required":
		return "Długość geograficzna jest wymagana."
	case "latitude must be between -90 and 90":
		return "Szerokość geograficzna musi mieścić się w przedziale od -90 do 90."
	case "longitude must be between -180 and 180":
		return "Długość geograficzna musi mieścić się w przedziale od -180 do 180."
	case "clock-out cannot precede clock-in":
		return "Zakończenie pracy nie może być wcześniejsze niż jej rozpoczęcie."
	case "period must be week or month":
		return "Okres musi mieć wartość week lub month."
	case "status is invalid":
		return "Nieprawidłowy status."
	case "from must not be after to":
		return "Data początkowa nie może być późniejsza niż końcowa."
	default:
		return message
	}
}

type errorResponse struct {
	Message string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
