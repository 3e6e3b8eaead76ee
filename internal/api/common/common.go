package common

import (
	"encoding/json"
	"net/http"

	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

// WriteJSONResponse encodes data as the response body under the given status.
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already flushed; all we can do is log.
		logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// WriteErrorResponse writes the standard {"error": message} body.
func WriteErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	WriteJSONResponse(w, map[string]string{"error": message}, statusCode)
}
