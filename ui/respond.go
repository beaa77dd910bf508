package ui

import (
	"fmt"
	"net/http"
	"strings"

	"sakilahypo/domain/core"
	"sakilahypo/internal/errors"
	"sakilahypo/internal/logging"

	"github.com/goccy/go-json"
)

// apiError is the body of every error response
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondError maps an application error to its HTTP status
func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if status >= http.StatusInternalServerError {
		logging.Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("request failed")
	}
	respondJSON(w, status, apiError{Code: code, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.IsCode(err, errors.CodeNotFound):
		return http.StatusNotFound
	case errors.IsCode(err, errors.CodeInvalidInput),
		errors.IsCode(err, errors.CodeValidationError),
		errors.IsCode(err, errors.CodeMissingColumn),
		errors.IsCode(err, errors.CodeInsufficientData):
		return http.StatusBadRequest
	case errors.IsCode(err, errors.CodeDegenerateSample):
		return http.StatusUnprocessableEntity
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// sanitizeLogValue escapes control characters so request data cannot forge log lines
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
