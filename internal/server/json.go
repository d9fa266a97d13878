package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/mibands/internal/shared"
	"github.com/goccy/go-json"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// DecodeJSON reads a JSON request body of at most 1 MiB into v.
func DecodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return fmt.Errorf("%w: failed to read body: %v", shared.ErrInvalidInput, err)
	}
	if len(body) > maxJSONBody {
		return fmt.Errorf("%w: body too large", shared.ErrInvalidInput)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
