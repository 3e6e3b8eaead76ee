package authz

import (
	"github.com/plexushq/plexus-registry-server/internal/config"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

// Action aliases from config for convenience within the authz package.
const (
	ActionRead  = config.ActionRead
	ActionWrite = config.ActionWrite
	ActionAdmin = config.ActionAdmin
)

// RequiredAction determines the Cedar action a registry operation needs.
// Lookups and discovery require read, mutations require write, and removing
// entries from the platform requires admin.
func RequiredAction(operation string) string {
	switch operation {
	case registry.ActionRead, registry.ActionDiscover:
		return ActionRead
	case registry.ActionRegister, registry.ActionUpdate,
		registry.ActionCreate, registry.ActionPromote:
		return ActionWrite
	case registry.ActionUnregister:
		return ActionAdmin
	default:
		// Unknown operations require the highest privilege.
		return ActionAdmin
	}
}

// ResourceEntityType maps a registry resource name to its Cedar entity type
// within the Plexus::Registry namespace.
func ResourceEntityType(resource string) string {
	switch resource {
	case registry.ResourceService:
		return "Service"
	case registry.ResourceCapability:
		return "Capability"
	case registry.ResourceRoute:
		return "Route"
	case registry.ResourceArtifact:
		return "Artifact"
	default:
		return "Registry"
	}
}
