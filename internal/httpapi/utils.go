package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/seeding-service/internal/journal"
	"github.com/focusnest/seeding-service/pkg/auth"
	sharederrors "github.com/focusnest/seeding-service/pkg/errors"
	"github.com/focusnest/seeding-service/pkg/logging"
)

type errorResponse = sharederrors.ErrorResponse

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{
		Code:      sharederrors.CodeForStatus(status),
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondServiceError maps journal errors onto the shared envelope. Anything
// unrecognised is logged and reported as a 500.
func (h *handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := sharederrors.CodeInternal, "internal server error"
	switch {
	case errors.Is(err, journal.ErrInvalidInput):
		code, message = sharederrors.CodeBadRequest, strings.TrimPrefix(err.Error(), journal.ErrInvalidInput.Error()+": ")
	case errors.Is(err, journal.ErrNotFound), errors.Is(err, journal.ErrJourneyNotStarted):
		code, message = sharederrors.CodeNotFound, err.Error()
	case errors.Is(err, journal.ErrConflict):
		code, message = sharederrors.CodeConflict, err.Error()
	case errors.Is(err, journal.ErrMissingUserID):
		code, message = sharederrors.CodeUnauthorized, err.Error()
	default:
		h.logRequestError(r, "request failed", err)
	}
	writeError(w, r, sharederrors.ToStatusCode(code), message)
}

func (h *handler) logRequestError(r *http.Request, msg string, err error) {
	logging.WithRequestID(r.Context(), h.logger).ErrorContext(r.Context(), msg,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
}

// requestUserID returns the authenticated user, writing a 401 when absent.
func requestUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || strings.TrimSpace(user.UserID) == "" {
		writeError(w, r, http.StatusUnauthorized, "missing user ID")
		return "", false
	}
	return user.UserID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON payload")
	}
	return nil
}

func parseRFC3339Pointer(value, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC3339", field)
	}
	utc := t.UTC()
	return &utc, nil
}
