package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/plexushq/plexus-registry-server/pkg/events"
	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

// facade coordinates the four registries and applies the cross-cutting
// concerns: access control, telemetry, lifecycle events.
type facade struct {
	services     *ServiceRegistry
	capabilities *CapabilityRegistry
	routes       *RouteRegistry
	artifacts    *ArtifactRegistry

	access       AccessController
	telemetry    TelemetrySink
	publisher    events.Publisher
	clock        func() time.Time
	defaultDrain time.Duration

	backendConfigured bool
}

var _ Registry = (*facade)(nil)

// New assembles a Registry over in-memory registries. With no options the
// result is a cache-only registry with no enforcement, no telemetry and no
// event transport, which is a fully functional mode.
func New(opts ...Option) Registry {
	o := &options{
		telemetry:    nopTelemetry{},
		publisher:    events.NopPublisher{},
		clock:        time.Now,
		defaultDrain: DefaultDrainInterval,
	}
	for _, opt := range opts {
		opt(o)
	}

	routes := NewRouteRegistry()
	capabilities := NewCapabilityRegistry(routes)
	services := NewServiceRegistry(o.backend, capabilities, o.backendTimeout)
	artifacts := NewArtifactRegistry(o.store)

	routes.clock = o.clock
	capabilities.clock = o.clock
	services.clock = o.clock
	artifacts.clock = o.clock

	return &facade{
		services:          services,
		capabilities:      capabilities,
		routes:            routes,
		artifacts:         artifacts,
		access:            o.access,
		telemetry:         o.telemetry,
		publisher:         o.publisher,
		clock:             o.clock,
		defaultDrain:      o.defaultDrain,
		backendConfigured: o.backend != nil,
	}
}

// authorize applies the optional access controller. Nil controller or nil
// user means no enforcement.
func (f *facade) authorize(ctx context.Context, user *UserContext, resource, action string) error {
	if f.access == nil || user == nil {
		return nil
	}
	if !f.access.CheckPermission(ctx, user, resource, action) {
		return fmt.Errorf("%w: user %q may not %s %s",
			ErrAccessDenied, user.UserID, action, resource)
	}
	if user.TenantID != "" && !f.access.ValidateTenantAccess(ctx, user.TenantID) {
		return fmt.Errorf("%w: tenant %q", ErrTenantDenied, user.TenantID)
	}
	return nil
}

// track opens a telemetry span around an operation; the returned func
// completes it using the caller's final error.
func (f *facade) track(ctx context.Context, operation string, err *error) func() {
	f.telemetry.OperationStarted(ctx, operation)
	return func() { f.telemetry.OperationCompleted(ctx, operation, *err == nil) }
}

// publish emits a lifecycle event, fire-and-forget.
func (f *facade) publish(ctx context.Context, entity, action, subject string, user *UserContext) {
	event := events.Event{
		Entity:  entity,
		Action:  action,
		Subject: subject,
		At:      f.clock(),
	}
	if user != nil {
		event.Tenant = user.TenantID
	}
	if err := f.publisher.Publish(ctx, event); err != nil {
		logger.Debug("lifecycle event publish failed",
			"entity", entity, "action", action, "subject", subject, "error", err)
	}
}

func (f *facade) RegisterService(ctx context.Context, user *UserContext, registration *ServiceRegistration) (outcome *RegistrationOutcome, err error) {
	defer f.track(ctx, "register_service", &err)()
	if err = f.authorize(ctx, user, ResourceService, ActionRegister); err != nil {
		return nil, err
	}

	outcome, err = f.services.Register(ctx, registration)
	if err != nil {
		return nil, err
	}
	if outcome.Status == OutcomeRegistered {
		f.registerDeclaredCapabilities(ctx, registration)
		f.publish(ctx, ResourceService, "registered", outcome.ServiceName, user)
	}
	return outcome, nil
}

func (f *facade) UnregisterService(ctx context.Context, user *UserContext, serviceName, externalID string) (outcome *UnregisterOutcome, err error) {
	defer f.track(ctx, "unregister_service", &err)()
	if err = f.authorize(ctx, user, ResourceService, ActionUnregister); err != nil {
		return nil, err
	}

	outcome, err = f.services.Unregister(ctx, serviceName, externalID)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, ResourceService, "unregistered", serviceName, user)
	return outcome, nil
}

func (f *facade) UpdateService(ctx context.Context, user *UserContext, serviceName string, fields map[string]any) (updated *ServiceRegistration, err error) {
	defer f.track(ctx, "update_service", &err)()
	if err = f.authorize(ctx, user, ResourceService, ActionUpdate); err != nil {
		return nil, err
	}

	updated, err = f.services.Update(ctx, serviceName, fields)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, ResourceService, "updated", serviceName, user)
	return updated, nil
}

func (f *facade) UpdateServiceState(ctx context.Context, user *UserContext, serviceName string, state ServiceState) (updated *ServiceRegistration, err error) {
	defer f.track(ctx, "update_service_state", &err)()
	if err = f.authorize(ctx, user, ResourceService, ActionUpdate); err != nil {
		return nil, err
	}

	updated, err = f.services.UpdateState(ctx, serviceName, state)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, ResourceService, "updated", serviceName, user)
	return updated, nil
}

func (f *facade) GracefulShutdown(ctx context.Context, user *UserContext, serviceName string, drain time.Duration) (outcome *UnregisterOutcome, err error) {
	defer f.track(ctx, "graceful_shutdown", &err)()
	if err = f.authorize(ctx, user, ResourceService, ActionUnregister); err != nil {
		return nil, err
	}

	if drain <= 0 {
		drain = f.defaultDrain
	}
	outcome, err = f.services.GracefulShutdown(ctx, serviceName, drain)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, ResourceService, "unregistered", serviceName, user)
	return outcome, nil
}

func (f *facade) DiscoverServiceByName(ctx context.Context, user *UserContext, serviceName string) (found *Discovery, err error) {
	defer f.track(ctx, "discover_service", &err)()
	if err = f.authorize(ctx, user, ResourceService, ActionDiscover); err != nil {
		return nil, err
	}
	return f.services.DiscoverByName(ctx, serviceName)
}

func (f *facade) ListServices(ctx context.Context, user *UserContext) (list []*ServiceRegistration, err error) {
	defer f.track(ctx, "list_services", &err)()
	if err = f.authorize(ctx, user, ResourceService, ActionDiscover); err != nil {
		return nil, err
	}
	return f.services.List(ctx), nil
}

func (f *facade) RegisterCapability(ctx context.Context, user *UserContext, capability *CapabilityDefinition) (err error) {
	defer f.track(ctx, "register_capability", &err)()
	if err = f.authorize(ctx, user, ResourceCapability, ActionRegister); err != nil {
		return err
	}

	if err = f.capabilities.Register(ctx, capability); err != nil {
		return err
	}
	f.publish(ctx, ResourceCapability, "registered", capability.Key(), user)
	return nil
}

func (f *facade) UpdateCapability(ctx context.Context, user *UserContext, serviceName, capabilityName string, fields map[string]any) (err error) {
	defer f.track(ctx, "update_capability", &err)()
	if err = f.authorize(ctx, user, ResourceCapability, ActionUpdate); err != nil {
		return err
	}

	if err = f.capabilities.Update(ctx, serviceName, capabilityName, fields); err != nil {
		return err
	}
	f.publish(ctx, ResourceCapability, "updated", CapabilityKey(serviceName, capabilityName), user)
	return nil
}

func (f *facade) UnregisterCapability(ctx context.Context, user *UserContext, serviceName, capabilityName string) (summary *UnregisterSummary, err error) {
	defer f.track(ctx, "unregister_capability", &err)()
	if err = f.authorize(ctx, user, ResourceCapability, ActionUnregister); err != nil {
		return nil, err
	}

	if capabilityName == "" {
		var all UnregisterSummary
		if all, err = f.capabilities.UnregisterAll(ctx, serviceName); err != nil {
			return nil, err
		}
		f.publish(ctx, ResourceCapability, "unregistered", serviceName, user)
		return &all, nil
	}

	if err = f.capabilities.Unregister(ctx, serviceName, capabilityName); err != nil {
		return nil, err
	}
	f.publish(ctx, ResourceCapability, "unregistered", CapabilityKey(serviceName, capabilityName), user)
	return &UnregisterSummary{Unregistered: 1}, nil
}

func (f *facade) ListCapabilities(ctx context.Context, user *UserContext, serviceName string) (list []*CapabilityDefinition, err error) {
	defer f.track(ctx, "list_capabilities", &err)()
	if err = f.authorize(ctx, user, ResourceCapability, ActionDiscover); err != nil {
		return nil, err
	}

	if serviceName == "" {
		return f.capabilities.List(ctx), nil
	}
	return f.capabilities.ListByService(ctx, serviceName), nil
}

func (f *facade) DiscoverRoutes(ctx context.Context, user *UserContext, filter RouteFilter) (list []*RouteDefinition, err error) {
	defer f.track(ctx, "discover_routes", &err)()
	if err = f.authorize(ctx, user, ResourceRoute, ActionDiscover); err != nil {
		return nil, err
	}
	return f.routes.Discover(ctx, filter), nil
}

func (f *facade) CreateArtifact(ctx context.Context, user *UserContext, artifactType string, data map[string]any, clientID string) (created *ArtifactRecord, err error) {
	defer f.track(ctx, "create_artifact", &err)()
	if err = f.authorize(ctx, user, ResourceArtifact, ActionCreate); err != nil {
		return nil, err
	}

	created, err = f.artifacts.Create(ctx, artifactType, data, clientID)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, ResourceArtifact, "created", created.ArtifactID, user)
	return created, nil
}

func (f *facade) GetArtifact(ctx context.Context, user *UserContext, artifactID string) (record *ArtifactRecord, err error) {
	defer f.track(ctx, "get_artifact", &err)()
	if err = f.authorize(ctx, user, ResourceArtifact, ActionRead); err != nil {
		return nil, err
	}
	return f.artifacts.Get(ctx, artifactID)
}

func (f *facade) GetArtifactVersion(ctx context.Context, user *UserContext, artifactID string, version int) (record *ArtifactRecord, err error) {
	defer f.track(ctx, "get_artifact_version", &err)()
	if err = f.authorize(ctx, user, ResourceArtifact, ActionRead); err != nil {
		return nil, err
	}
	return f.artifacts.GetVersion(ctx, artifactID, version)
}

func (f *facade) UpdateArtifactStatus(ctx context.Context, user *UserContext, artifactID string, status ArtifactStatus) (updated *ArtifactRecord, err error) {
	defer f.track(ctx, "update_artifact_status", &err)()
	if err = f.authorize(ctx, user, ResourceArtifact, ActionUpdate); err != nil {
		return nil, err
	}

	updated, err = f.artifacts.UpdateStatus(ctx, artifactID, status)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, ResourceArtifact, "status_changed", artifactID, user)
	return updated, nil
}

func (f *facade) PromoteArtifactToSolution(ctx context.Context, user *UserContext, artifactID, clientID string, create SolutionCreator) (outcome *PromotionOutcome, err error) {
	defer f.track(ctx, "promote_artifact", &err)()
	if err = f.authorize(ctx, user, ResourceArtifact, ActionPromote); err != nil {
		return nil, err
	}

	outcome, err = f.artifacts.Promote(ctx, artifactID, clientID, create)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, ResourceArtifact, "promoted", artifactID, user)
	return outcome, nil
}

func (f *facade) ListArtifacts(ctx context.Context, user *UserContext, filter ArtifactFilter) (list []*ArtifactRecord, err error) {
	defer f.track(ctx, "list_artifacts", &err)()
	if err = f.authorize(ctx, user, ResourceArtifact, ActionRead); err != nil {
		return nil, err
	}
	return f.artifacts.List(ctx, filter), nil
}

func (f *facade) Status(ctx context.Context, user *UserContext) (status *RegistryStatus, err error) {
	defer f.track(ctx, "status", &err)()
	if err = f.authorize(ctx, user, ResourceRegistry, ActionRead); err != nil {
		return nil, err
	}

	status = &RegistryStatus{
		Services:          f.services.Count(),
		Capabilities:      f.capabilities.Count(),
		Routes:            f.routes.Count(),
		Artifacts:         f.artifacts.Count(),
		ServicesByState:   make(map[string]int),
		BackendConfigured: f.backendConfigured,
	}
	for state, n := range f.services.CountByState() {
		status.ServicesByState[string(state)] = n
	}

	f.telemetry.RecordHealthMetric(ctx, "services_registered", float64(status.Services), nil)
	f.telemetry.RecordHealthMetric(ctx, "capabilities_registered", float64(status.Capabilities), nil)
	f.telemetry.RecordHealthMetric(ctx, "routes_registered", float64(status.Routes), nil)
	f.telemetry.RecordHealthMetric(ctx, "artifacts_tracked", float64(status.Artifacts), nil)
	return status, nil
}

// registerDeclaredCapabilities creates minimal capability entries for the
// names a service declared at registration time. Failures are logged; the
// registration itself already succeeded.
func (f *facade) registerDeclaredCapabilities(ctx context.Context, registration *ServiceRegistration) {
	for _, name := range registration.Capabilities {
		capability := &CapabilityDefinition{
			ServiceName:    registration.ServiceName,
			CapabilityName: name,
			Realm:          registration.Realm,
			State:          CapabilityStateActive,
		}
		if err := f.capabilities.Register(ctx, capability); err != nil {
			logger.Warn("declared capability registration failed",
				"service", registration.ServiceName, "capability", name, "error", err)
		}
	}
}
