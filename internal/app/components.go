package app

import (
	"github.com/plexushq/plexus-registry-server/internal/telemetry"
	"github.com/plexushq/plexus-registry-server/pkg/discovery"
	"github.com/plexushq/plexus-registry-server/pkg/events"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

// Components groups the assembled collaborators behind the running server.
type Components struct {
	// Registry is the facade every API handler talks to.
	Registry registry.Registry

	// Backend is the external discovery backend, nil in cache-only mode.
	Backend discovery.Backend

	// Publisher delivers lifecycle events; NopPublisher when events are
	// not configured.
	Publisher events.Publisher

	// Telemetry owns the OpenTelemetry providers and their shutdown.
	Telemetry *telemetry.Telemetry
}
