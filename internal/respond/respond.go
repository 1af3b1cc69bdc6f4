// Package respond writes JSON responses and maps domain errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
)

// ForbiddenBody is the fixed body of every 403.
const ForbiddenBody = `{"error":"forbidden"}`

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

func Forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(ForbiddenBody))
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, appErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, appErrors.ErrValidation), errors.Is(err, appErrors.ErrInvalidCSVHeader):
		return http.StatusBadRequest
	case errors.Is(err, appErrors.ErrDuplicate), errors.Is(err, appErrors.ErrDuplicateSystem):
		return http.StatusConflict
	case errors.Is(err, appErrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, appErrors.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with the status Status picks. Internal errors are logged
// and never echoed to the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	switch status {
	case http.StatusForbidden:
		Forbidden(w)
	case http.StatusInternalServerError:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		Message(w, status, "internal error")
	default:
		Message(w, status, err.Error())
	}
}
