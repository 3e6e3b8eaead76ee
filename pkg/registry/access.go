package registry

import "context"

// Resource and action names the facade submits to the access controller.
// One resource per registry plus the registry itself for status reads.
const (
	ResourceService    = "service"
	ResourceCapability = "capability"
	ResourceRoute      = "route"
	ResourceArtifact   = "artifact"
	ResourceRegistry   = "registry"

	ActionRegister   = "register"
	ActionUnregister = "unregister"
	ActionUpdate     = "update"
	ActionDiscover   = "discover"
	ActionCreate     = "create"
	ActionRead       = "read"
	ActionPromote    = "promote"
)

// AccessController is the tenant/permission collaborator. The registry calls
// it at the top of operations when the caller supplied a UserContext; a nil
// controller or nil user means no enforcement, which is the deliberate
// open-by-default posture.
type AccessController interface {
	// CheckPermission reports whether user may perform action on resource.
	CheckPermission(ctx context.Context, user *UserContext, resource, action string) bool

	// ValidateTenantAccess reports whether tenantID is allowed on this
	// deployment. Called only when the user context carries a tenant.
	ValidateTenantAccess(ctx context.Context, tenantID string) bool
}
