package v1

import (
	"errors"
	"net/http"

	"github.com/plexushq/plexus-registry-server/internal/api/common"
	"github.com/plexushq/plexus-registry-server/pkg/logger"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

// statusForError maps registry sentinel errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, registry.ErrServiceNotFound),
		errors.Is(err, registry.ErrCapabilityNotFound),
		errors.Is(err, registry.ErrRouteNotFound),
		errors.Is(err, registry.ErrArtifactNotFound),
		errors.Is(err, registry.ErrArtifactVersionNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrInvalidTransition),
		errors.Is(err, registry.ErrInvalidState),
		errors.Is(err, registry.ErrClientMismatch):
		return http.StatusConflict
	case errors.Is(err, registry.ErrAccessDenied),
		errors.Is(err, registry.ErrTenantDenied):
		return http.StatusForbidden
	case errors.Is(err, registry.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeRegistryError renders err with its mapped status code. Sentinel
// failures surface their message; anything unexpected is logged and masked.
func writeRegistryError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("Registry operation failed: %v", err)
		common.WriteErrorResponse(w, "internal error", status)
		return
	}
	common.WriteErrorResponse(w, err.Error(), status)
}
