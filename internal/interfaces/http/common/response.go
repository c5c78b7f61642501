package common

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Warn("encode json response", zap.Error(err))
	}
}

// WriteError writes the {"error": message} body used by every endpoint.
func WriteError(logger *zap.Logger, w http.ResponseWriter, status int, message string) {
	WriteJSON(logger, w, status, map[string]string{"error": message})
}
