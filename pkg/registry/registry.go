package registry

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_registry.go -package=mocks -source=registry.go Registry

// Registry is the coordinating entry point over the four registries. Every
// operation takes an optional UserContext; a nil user (or no configured
// access controller) skips enforcement. Mutations emit lifecycle events and
// telemetry, both fire-and-forget.
type Registry interface {
	// RegisterService adds a service and registers its declared capabilities.
	// An existing name is a no-op reported as already_registered.
	RegisterService(ctx context.Context, user *UserContext, registration *ServiceRegistration) (*RegistrationOutcome, error)

	// UnregisterService removes a service, deregistering it from the backend
	// and cascading over its capabilities. externalID overrides the stored
	// backend id when non-empty.
	UnregisterService(ctx context.Context, user *UserContext, serviceName, externalID string) (*UnregisterOutcome, error)

	// UpdateService merges partial fields into a registration. A
	// capabilities field replaces the service's capability set.
	UpdateService(ctx context.Context, user *UserContext, serviceName string, fields map[string]any) (*ServiceRegistration, error)

	// UpdateServiceState sets the service state directly; states have no
	// transition table.
	UpdateServiceState(ctx context.Context, user *UserContext, serviceName string, state ServiceState) (*ServiceRegistration, error)

	// GracefulShutdown drains a service for the given interval and then
	// unregisters it. A non-positive drain selects the configured default.
	// Context cancellation aborts the shutdown, leaving the service draining.
	GracefulShutdown(ctx context.Context, user *UserContext, serviceName string, drain time.Duration) (*UnregisterOutcome, error)

	// DiscoverServiceByName resolves a service from the cache or, on a miss,
	// from the discovery backend. A miss everywhere returns (nil, nil).
	DiscoverServiceByName(ctx context.Context, user *UserContext, serviceName string) (*Discovery, error)

	// ListServices returns all cached registrations.
	ListServices(ctx context.Context, user *UserContext) ([]*ServiceRegistration, error)

	// RegisterCapability upserts a capability and derives routes from its
	// REST and SOA contracts.
	RegisterCapability(ctx context.Context, user *UserContext, capability *CapabilityDefinition) error

	// UpdateCapability merges known fields into a capability; unknown fields
	// are dropped silently.
	UpdateCapability(ctx context.Context, user *UserContext, serviceName, capabilityName string, fields map[string]any) error

	// UnregisterCapability removes one capability, or every capability of
	// the service when capabilityName is empty.
	UnregisterCapability(ctx context.Context, user *UserContext, serviceName, capabilityName string) (*UnregisterSummary, error)

	// ListCapabilities returns the capabilities of one service, or all
	// capabilities when serviceName is empty.
	ListCapabilities(ctx context.Context, user *UserContext, serviceName string) ([]*CapabilityDefinition, error)

	// DiscoverRoutes returns routes matching the filter intersection.
	DiscoverRoutes(ctx context.Context, user *UserContext, filter RouteFilter) ([]*RouteDefinition, error)

	// CreateArtifact registers a new artifact in draft at version 1.
	CreateArtifact(ctx context.Context, user *UserContext, artifactType string, data map[string]any, clientID string) (*ArtifactRecord, error)

	// GetArtifact returns the latest version of an artifact.
	GetArtifact(ctx context.Context, user *UserContext, artifactID string) (*ArtifactRecord, error)

	// GetArtifactVersion returns a specific immutable version snapshot.
	GetArtifactVersion(ctx context.Context, user *UserContext, artifactID string, version int) (*ArtifactRecord, error)

	// UpdateArtifactStatus moves an artifact through the workflow table.
	UpdateArtifactStatus(ctx context.Context, user *UserContext, artifactID string, status ArtifactStatus) (*ArtifactRecord, error)

	// PromoteArtifactToSolution creates the downstream solution for an
	// approved artifact and marks it implemented.
	PromoteArtifactToSolution(ctx context.Context, user *UserContext, artifactID, clientID string, create SolutionCreator) (*PromotionOutcome, error)

	// ListArtifacts returns artifacts matching the filter intersection.
	ListArtifacts(ctx context.Context, user *UserContext, filter ArtifactFilter) ([]*ArtifactRecord, error)

	// Status reports a point-in-time summary of registry contents.
	Status(ctx context.Context, user *UserContext) (*RegistryStatus, error)
}
