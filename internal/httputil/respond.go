// Package httputil provides the JSON response helpers shared by handlers
// and middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/launchfoundry/appstack/internal/errors"
)

// ErrorBody is the wire shape of an error response.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// WriteError translates an error into a structured response. ServiceErrors
// keep their code and status; anything else becomes an opaque 500.
func WriteError(w http.ResponseWriter, err error) {
	svcErr := errors.GetServiceError(err)
	if svcErr == nil {
		svcErr = errors.Internal("internal server error", err)
	}
	WriteJSON(w, svcErr.HTTPStatus, ErrorBody{
		Code:    string(svcErr.Code),
		Message: svcErr.Message,
		Details: svcErr.Details,
	})
}

// Unauthorized writes a 401 with an optional message.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, errors.Unauthorized(message))
}

// DecodeJSON decodes a request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Validation("invalid request body: " + err.Error())
	}
	return nil
}
