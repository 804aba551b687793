package httperr

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON error envelope.
type Response struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Write renders err as JSON with the status code of its HTTPError.
func Write(w http.ResponseWriter, err error) error {
	httpErr := From(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(httpErr.Code)

	return json.NewEncoder(w).Encode(Response{
		Error:   httpErr.Key,
		Message: http.StatusText(httpErr.Code),
		Details: httpErr.Details,
	})
}
