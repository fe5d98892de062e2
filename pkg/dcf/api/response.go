package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// respondJSON writes data with the given status. Encoding failures are logged
// only; the status has already been sent.
func respondJSON(w http.ResponseWriter, log *zap.SugaredLogger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorw("failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, log *zap.SugaredLogger, status int, message string, details any) {
	respondJSON(w, log, status, ErrorResponse{Error: message, Details: details})
}
