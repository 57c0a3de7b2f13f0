package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/logfields"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", logfields.Error(err))
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// errorBody is the JSON shape of an engine error.
type errorBody struct {
	Error     string            `json:"error"`
	Kind      apperr.Kind       `json:"kind,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// engineError maps an engine error onto its HTTP status. Unclassified errors
// are logged and hidden behind a generic message.
func engineError(w http.ResponseWriter, r *http.Request, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		slog.ErrorContext(r.Context(), "unclassified error", logfields.Error(err))
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := apperr.HTTPStatus(e.Kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", logfields.Error(err))
	}

	body := errorBody{
		Error:     e.Message,
		Kind:      e.Kind,
		Retryable: apperr.Retryable(err),
		Meta:      e.Meta,
	}
	if e.Kind == apperr.KindTransient {
		// Driver details stay in the log.
		body.Error = "temporarily unavailable, retry"
	}
	jsonResponse(w, status, body)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
