package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/vinylbank/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		// The status line is already out, nothing useful to do on failure.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps store and validation errors to HTTP responses. subject
// names the resource in 404 and 409 messages, action describes the failed
// operation in 500 responses.
func writeError(w http.ResponseWriter, log *zap.SugaredLogger, err error, subject, action string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, subject+" not found")
	case errors.Is(err, model.ErrConflict):
		jsonError(w, http.StatusConflict, subject+" already exists")
	default:
		log.Errorw("Request failed", "action", action, "error", err)
		jsonResponse(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to " + action,
			"details": err.Error(),
		})
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses a numeric URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}
