package registry

import "errors"

var (
	// ErrServiceNotFound is returned when a service cannot be found
	ErrServiceNotFound = errors.New("service not found")
	// ErrCapabilityNotFound is returned when a capability cannot be found
	ErrCapabilityNotFound = errors.New("capability not found")
	// ErrRouteNotFound is returned when a route cannot be found
	ErrRouteNotFound = errors.New("route not found")
	// ErrArtifactNotFound is returned when an artifact cannot be found
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrArtifactVersionNotFound is returned when a specific artifact
	// version snapshot cannot be found
	ErrArtifactVersionNotFound = errors.New("artifact version not found")
	// ErrInvalidTransition is returned when an artifact status change is not
	// permitted by the workflow table
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrClientMismatch is returned when an artifact operation supplies a
	// client id that does not match the artifact's stored client id
	ErrClientMismatch = errors.New("artifact client mismatch")
	// ErrInvalidState is returned when an artifact is not in the state an
	// operation requires (promotion requires "approved")
	ErrInvalidState = errors.New("artifact not in required state")
	// ErrAccessDenied is returned when the access controller rejects the
	// caller for the requested resource and action
	ErrAccessDenied = errors.New("access denied")
	// ErrTenantDenied is returned when the caller's tenant fails validation
	ErrTenantDenied = errors.New("tenant access denied")
	// ErrValidation is returned when input fails registration validation
	ErrValidation = errors.New("validation failed")
	// ErrBackendUnavailable marks external discovery backend failures. It is
	// logged and absorbed inside the registry; facade operations never
	// return it.
	ErrBackendUnavailable = errors.New("discovery backend unavailable")
)
