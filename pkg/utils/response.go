package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RespondJSON writes payload as a JSON body with status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError writes {"error": message}.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondStatus writes status with an empty body.
func RespondStatus(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// RespondFieldErrors writes the validation messages carried by err as a JSON
// array of strings. Errors without field details become a single entry.
func RespondFieldErrors(w http.ResponseWriter, status int, err error) {
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		RespondJSON(w, status, []string{err.Error()})
		return
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Err.Error())
	}
	RespondJSON(w, status, messages)
}

// RespondInternal logs err with the request logger and hides it from the
// client.
func RespondInternal(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	RespondError(w, http.StatusInternalServerError, "internal server error")
}

// IsFieldErrors reports whether err carries validation field errors.
func IsFieldErrors(err error) bool {
	var fieldErrs criterio.FieldErrors
	return errors.As(err, &fieldErrs)
}
