package v1

import "github.com/plexushq/plexus-registry-server/pkg/registry"

// UpdateStateRequest sets a service's lifecycle state.
type UpdateStateRequest struct {
	State string `json:"state"`
}

// ShutdownRequest controls the drain window before unregistration. A zero or
// missing value selects the configured default drain interval.
type ShutdownRequest struct {
	DrainSeconds float64 `json:"drain_seconds"`
}

// CreateArtifactRequest carries a new artifact submission.
type CreateArtifactRequest struct {
	ArtifactType string         `json:"artifact_type"`
	Data         map[string]any `json:"data"`
	ClientID     string         `json:"client_id"`
}

// UpdateArtifactStatusRequest moves an artifact through the workflow.
type UpdateArtifactStatusRequest struct {
	Status string `json:"status"`
}

// PromoteRequest identifies the client promoting an artifact.
type PromoteRequest struct {
	ClientID string `json:"client_id"`
}

// ListServicesResponse is the payload for service listings.
type ListServicesResponse struct {
	Services []*registry.ServiceRegistration `json:"services"`
	Count    int                             `json:"count"`
}

// ListCapabilitiesResponse is the payload for capability listings.
type ListCapabilitiesResponse struct {
	Capabilities []*registry.CapabilityDefinition `json:"capabilities"`
	Count        int                              `json:"count"`
}

// ListRoutesResponse is the payload for route discovery.
type ListRoutesResponse struct {
	Routes []*registry.RouteDefinition `json:"routes"`
	Count  int                         `json:"count"`
}

// ListArtifactsResponse is the payload for artifact listings.
type ListArtifactsResponse struct {
	Artifacts []*registry.ArtifactRecord `json:"artifacts"`
	Count     int                        `json:"count"`
}
