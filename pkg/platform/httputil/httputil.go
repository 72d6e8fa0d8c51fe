// Package httputil holds the response and decode helpers shared by every
// handler. Error translation lives here and nowhere else: handlers pass
// domain errors through untouched.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "hati/pkg/domain-errors"
)

type errorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON serializes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error onto its HTTP status and envelope. Internal
// errors keep their detail out of the response body.
func WriteError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	envelope := errorEnvelope{Error: string(code)}
	var derr *domainerrors.Error
	if code != domainerrors.CodeInternal && errors.As(err, &derr) {
		envelope.ErrorDescription = derr.Message
	}
	WriteJSON(w, domainerrors.ToHTTPStatus(code), envelope)
}

// Decode unmarshals the request body into T, answering bad_request on failure.
// The bool result tells the handler whether to continue.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		logger.WarnContext(r.Context(), "undecodable request body", "error", err)
		WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed JSON body"))
		var zero T
		return zero, false
	}
	return v, true
}
