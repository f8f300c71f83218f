package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alloro/taskhub/internal/task"
)

// jsonResponse writes a JSON success envelope with the given status code.
// Extra fields are merged next to "success": true.
func jsonResponse(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// jsonError writes a JSON error response. Callers surface message directly to
// the end user.
func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}

// taskError maps engine errors to HTTP responses.
func taskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, task.ErrUnauthorized):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, task.ErrInvalidStatus),
		errors.Is(err, task.ErrInvalidCategory),
		errors.Is(err, task.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("task operation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
