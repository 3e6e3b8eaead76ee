package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/plexushq/plexus-registry-server/pkg/discovery"
	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

// DefaultBackendTimeout bounds every discovery backend call. The backend is
// optional and independently failing; a slow backend must never hold the
// local registry hostage.
const DefaultBackendTimeout = 5 * time.Second

// CapabilityCascader is the slice of the capability registry that service
// lifecycle operations drive: the unregister cascade, and the minimal
// re-registration used when a service's declared capability set is replaced.
type CapabilityCascader interface {
	Register(ctx context.Context, capability *CapabilityDefinition) error
	UnregisterAll(ctx context.Context, serviceName string) (UnregisterSummary, error)
}

var _ CapabilityCascader = (*CapabilityRegistry)(nil)

// ServiceRegistry owns the service cache. The cache is authoritative for
// same-process discovery (it alone can hold a live instance reference); the
// external backend is authoritative for cross-process discovery and carries
// metadata only. Writes to the backend are best-effort: on failure the call
// degrades to cache-only success instead of failing the caller.
type ServiceRegistry struct {
	mu       sync.RWMutex
	services map[string]*ServiceRegistration

	locks *keyLock
	group singleflight.Group

	backend        discovery.Backend
	backendTimeout time.Duration
	capabilities   CapabilityCascader
	clock          func() time.Time
}

// NewServiceRegistry creates a service registry. backend may be nil for
// cache-only deployments; capabilities may be nil when no cascade is wired.
// A non-positive timeout selects DefaultBackendTimeout.
func NewServiceRegistry(backend discovery.Backend, capabilities CapabilityCascader, backendTimeout time.Duration) *ServiceRegistry {
	if backendTimeout <= 0 {
		backendTimeout = DefaultBackendTimeout
	}
	return &ServiceRegistry{
		services:       make(map[string]*ServiceRegistration),
		locks:          newKeyLock(),
		backend:        backend,
		backendTimeout: backendTimeout,
		capabilities:   capabilities,
		clock:          time.Now,
	}
}

// Register adds a service to the cache and announces it to the discovery
// backend when one is configured. A name that is already registered is a
// no-op reported as already_registered; the existing entry is untouched and
// the backend is not contacted.
func (r *ServiceRegistry) Register(ctx context.Context, registration *ServiceRegistration) (*RegistrationOutcome, error) {
	if registration == nil {
		return nil, fmt.Errorf("%w: registration is required", ErrValidation)
	}
	if err := validateRegistration(registration); err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(registration.ServiceName)
	defer unlock()

	r.mu.RLock()
	existing, ok := r.services[registration.ServiceName]
	var existingID string
	if ok {
		existingID = existing.ExternalID
	}
	r.mu.RUnlock()
	if ok {
		return &RegistrationOutcome{
			Status:      OutcomeAlreadyRegistered,
			ServiceName: registration.ServiceName,
			ExternalID:  existingID,
		}, nil
	}

	record := registration.Clone()
	if record.State == "" {
		record.State = ServiceStateActive
	}
	if !record.State.Valid() {
		return nil, fmt.Errorf("%w: unknown service state %q", ErrValidation, record.State)
	}
	now := r.clock()
	record.RegisteredAt = now
	record.UpdatedAt = now
	record.StateUpdatedAt = now

	outcome := &RegistrationOutcome{
		Status:      OutcomeRegistered,
		ServiceName: record.ServiceName,
	}
	if r.backend != nil {
		ack, err := r.backendRegister(ctx, record)
		switch {
		case err != nil:
			logger.Warn("backend registration failed, continuing cache-only",
				"service", record.ServiceName, "error", err)
			outcome.Degraded = true
		case ack != nil && ack.ID != "":
			record.ExternalID = ack.ID
		default:
			// Backend accepted but assigned no id; derive a stable handle so
			// deregistration still works.
			record.ExternalID = fallbackExternalID(record)
		}
	}
	outcome.ExternalID = record.ExternalID

	r.mu.Lock()
	r.services[record.ServiceName] = record
	r.mu.Unlock()
	return outcome, nil
}

// Unregister removes a service: backend deregistration first, then the
// capability cascade, then the cache entry. Only a missing service fails the
// call; collaborator failures are logged and absorbed so the cache removal
// always happens. A non-empty externalID overrides the stored backend id.
func (r *ServiceRegistry) Unregister(ctx context.Context, serviceName, externalID string) (*UnregisterOutcome, error) {
	unlock := r.locks.Lock(serviceName)
	defer unlock()

	r.mu.RLock()
	existing, ok := r.services[serviceName]
	if ok && externalID == "" {
		externalID = existing.ExternalID
	}
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceName)
	}

	outcome := &UnregisterOutcome{ServiceName: serviceName}
	if r.backend != nil && externalID != "" {
		if err := r.backendDeregister(ctx, externalID); err != nil {
			logger.Warn("backend deregistration failed",
				"service", serviceName, "external_id", externalID, "error", err)
		} else {
			outcome.ExternalDeregistered = true
		}
	}

	if r.capabilities != nil {
		summary, err := r.capabilities.UnregisterAll(ctx, serviceName)
		if err != nil {
			logger.Warn("capability cascade failed", "service", serviceName, "error", err)
		}
		outcome.Capabilities = summary
	}

	r.mu.Lock()
	delete(r.services, serviceName)
	r.mu.Unlock()
	return outcome, nil
}

// Update merges partial fields into an existing registration. Recognized
// fields are applied with type checks; anything else lands in the metadata
// bag. A capabilities field replaces the service's whole capability set.
// When the backend holds an id for this service the refreshed record is
// re-registered in place, best-effort.
func (r *ServiceRegistry) Update(ctx context.Context, serviceName string, fields map[string]any) (*ServiceRegistration, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	unlock := r.locks.Lock(serviceName)
	defer unlock()

	r.mu.RLock()
	existing, ok := r.services[serviceName]
	var updated *ServiceRegistration
	if ok {
		updated = existing.Clone()
	}
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceName)
	}

	replaceCapabilities, err := applyServiceFields(updated, fields, r.clock())
	if err != nil {
		return nil, err
	}
	updated.UpdatedAt = r.clock()

	if replaceCapabilities && r.capabilities != nil {
		r.replaceCapabilitySet(ctx, updated)
	}

	if r.backend != nil && updated.ExternalID != "" {
		if _, err := r.backendRegister(ctx, updated); err != nil {
			logger.Warn("backend re-registration failed, cache updated anyway",
				"service", serviceName, "error", err)
		}
	}

	r.mu.Lock()
	r.services[serviceName] = updated
	r.mu.Unlock()
	return updated.Clone(), nil
}

// UpdateState is a convenience wrapper over Update for the state field.
// Service states carry no transition table; any known state may be set
// directly.
func (r *ServiceRegistry) UpdateState(ctx context.Context, serviceName string, state ServiceState) (*ServiceRegistration, error) {
	return r.Update(ctx, serviceName, map[string]any{"state": string(state)})
}

// GracefulShutdown drains a service and then unregisters it: the state moves
// to draining, the call suspends for the drain interval, and unregistration
// follows. Cancelling the context aborts the shutdown and leaves the service
// draining. A failed drain-state update is logged and shutdown proceeds;
// only an unknown service aborts immediately.
func (r *ServiceRegistry) GracefulShutdown(ctx context.Context, serviceName string, drain time.Duration) (*UnregisterOutcome, error) {
	if _, err := r.UpdateState(ctx, serviceName, ServiceStateDraining); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		logger.Warn("drain state update failed, continuing shutdown",
			"service", serviceName, "error", err)
	}

	if drain > 0 {
		timer := time.NewTimer(drain)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("shutdown of %s aborted during drain: %w", serviceName, ctx.Err())
		case <-timer.C:
		}
	}

	return r.Unregister(ctx, serviceName, "")
}

// DiscoverByName resolves a service. The cache is the fast path and the only
// source that can carry a live instance reference. On a miss the backend,
// when configured, is queried with concurrent lookups for the same name
// collapsed into one call. The collapsed lookup runs detached from the
// caller's cancellation, bounded only by the backend timeout, so one caller
// giving up cannot turn the shared result into a miss for the rest. A hit is
// written back as a metadata-only registration; a miss everywhere returns
// nil with no error.
func (r *ServiceRegistry) DiscoverByName(ctx context.Context, serviceName string) (*Discovery, error) {
	r.mu.RLock()
	if existing, ok := r.services[serviceName]; ok {
		found := existing.Clone()
		r.mu.RUnlock()
		return &Discovery{Source: DiscoverySourceCache, Registration: found}, nil
	}
	r.mu.RUnlock()

	if r.backend == nil {
		return nil, nil
	}

	fetched, _, _ := r.group.Do(serviceName, func() (any, error) {
		// The closure serves every collapsed caller; backendLookup applies
		// the backend timeout to the detached context.
		return r.backendLookup(context.WithoutCancel(ctx), serviceName), nil
	})
	record, _ := fetched.(*ServiceRegistration)
	if record == nil {
		return nil, nil
	}

	unlock := r.locks.Lock(serviceName)
	defer unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.services[serviceName]; ok {
		// A registration raced the lookup; the cached entry wins because it
		// may carry a live instance.
		return &Discovery{Source: DiscoverySourceCache, Registration: existing.Clone()}, nil
	}
	r.services[serviceName] = record
	return &Discovery{Source: DiscoverySourceBackend, Registration: record.Clone()}, nil
}

// Get returns the cached registration for a name.
func (r *ServiceRegistry) Get(_ context.Context, serviceName string) (*ServiceRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	existing, ok := r.services[serviceName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceName)
	}
	return existing.Clone(), nil
}

// List returns all cached registrations sorted by name.
func (r *ServiceRegistry) List(_ context.Context) []*ServiceRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ServiceRegistration, 0, len(r.services))
	for _, record := range r.services {
		out = append(out, record.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceName < out[j].ServiceName })
	return out
}

// Count returns the number of cached registrations.
func (r *ServiceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

// CountByState buckets cached registrations by their current state.
func (r *ServiceRegistry) CountByState() map[ServiceState]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[ServiceState]int, len(r.services))
	for _, record := range r.services {
		out[record.State]++
	}
	return out
}

func (r *ServiceRegistry) backendRegister(ctx context.Context, record *ServiceRegistration) (*discovery.Registration, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.backendTimeout)
	defer cancel()
	return r.backend.Register(callCtx, serviceInfo(record))
}

func (r *ServiceRegistry) backendDeregister(ctx context.Context, externalID string) error {
	callCtx, cancel := context.WithTimeout(ctx, r.backendTimeout)
	defer cancel()
	return r.backend.Deregister(callCtx, externalID)
}

// backendLookup queries the backend for a named service and synthesizes a
// metadata-only registration from the first instance. Errors and empty
// results both read as a miss, never as an outage of the registry itself.
func (r *ServiceRegistry) backendLookup(ctx context.Context, serviceName string) *ServiceRegistration {
	callCtx, cancel := context.WithTimeout(ctx, r.backendTimeout)
	defer cancel()

	instances, err := r.backend.Discover(callCtx, serviceName)
	if err != nil {
		logger.Warn("backend discovery failed", "service", serviceName, "error", err)
		return nil
	}
	if len(instances) == 0 {
		return nil
	}

	instance := instances[0]
	now := r.clock()
	record := &ServiceRegistration{
		ServiceName:    serviceName,
		Realm:          instance.Realm,
		Address:        instance.Address,
		Port:           instance.Port,
		Tags:           cloneStrings(instance.Tags),
		ExternalID:     instance.ServiceID,
		State:          ServiceStateActive,
		RegisteredAt:   now,
		UpdatedAt:      now,
		StateUpdatedAt: now,
	}
	if len(instance.Meta) > 0 {
		record.Metadata = make(map[string]any, len(instance.Meta))
		for k, v := range instance.Meta {
			record.Metadata[k] = v
		}
		if t, ok := instance.Meta["type"]; ok {
			record.ServiceType = t
		}
	}
	return record
}

// replaceCapabilitySet swaps a service's capability set for its declared
// names: unregister everything, then re-register minimal definitions.
// Individual failures are logged, not fatal, matching the cascade policy.
func (r *ServiceRegistry) replaceCapabilitySet(ctx context.Context, record *ServiceRegistration) {
	if _, err := r.capabilities.UnregisterAll(ctx, record.ServiceName); err != nil {
		logger.Warn("capability set replacement: unregister failed",
			"service", record.ServiceName, "error", err)
	}
	for _, name := range record.Capabilities {
		capability := &CapabilityDefinition{
			ServiceName:    record.ServiceName,
			CapabilityName: name,
			Realm:          record.Realm,
			State:          CapabilityStateActive,
		}
		if err := r.capabilities.Register(ctx, capability); err != nil {
			logger.Warn("capability set replacement: register failed",
				"service", record.ServiceName, "capability", name, "error", err)
		}
	}
}

// serviceInfo projects a registration onto the backend wire shape: network
// coordinates and string metadata only, never the live instance.
func serviceInfo(record *ServiceRegistration) discovery.ServiceInfo {
	info := discovery.ServiceInfo{
		ID:      record.ExternalID,
		Name:    record.ServiceName,
		Type:    record.ServiceType,
		Realm:   record.Realm,
		Address: record.Address,
		Port:    record.Port,
		Tags:    cloneStrings(record.Tags),
	}
	if len(record.Metadata) > 0 {
		info.Meta = make(map[string]string, len(record.Metadata))
		for k, v := range record.Metadata {
			info.Meta[k] = fmt.Sprintf("%v", v)
		}
	}
	return info
}

func fallbackExternalID(record *ServiceRegistration) string {
	return fmt.Sprintf("%s-%s-%d", record.ServiceName, record.Address, record.Port)
}

// applyServiceFields merges an update map into a registration. Recognized
// keys are typed; unknown keys are kept in the metadata bag rather than
// rejected. Reports whether the capabilities list was among the updates.
func applyServiceFields(record *ServiceRegistration, fields map[string]any, now time.Time) (bool, error) {
	replacedCapabilities := false
	for key, value := range fields {
		switch key {
		case "service_name":
			// Identity is immutable; a rename would orphan capability keys.
			continue
		case "service_type":
			s, err := asString(key, value)
			if err != nil {
				return false, err
			}
			record.ServiceType = s
		case "realm":
			s, err := asString(key, value)
			if err != nil {
				return false, err
			}
			record.Realm = s
		case "address":
			s, err := asString(key, value)
			if err != nil {
				return false, err
			}
			record.Address = s
		case "port":
			n, err := asInt(key, value)
			if err != nil {
				return false, err
			}
			record.Port = n
		case "endpoints":
			list, err := asStringSlice(key, value)
			if err != nil {
				return false, err
			}
			record.Endpoints = list
		case "tags":
			list, err := asStringSlice(key, value)
			if err != nil {
				return false, err
			}
			record.Tags = list
		case "capabilities":
			list, err := asStringSlice(key, value)
			if err != nil {
				return false, err
			}
			record.Capabilities = list
			replacedCapabilities = true
		case "state", "status":
			s, err := asString(key, value)
			if err != nil {
				return false, err
			}
			state := ServiceState(s)
			if !state.Valid() {
				return false, fmt.Errorf("%w: unknown service state %q", ErrValidation, s)
			}
			record.State = state
			record.StateUpdatedAt = now
		case "metadata":
			m, ok := value.(map[string]any)
			if !ok {
				return false, fmt.Errorf("%w: field %q must be an object", ErrValidation, key)
			}
			if record.Metadata == nil {
				record.Metadata = make(map[string]any, len(m))
			}
			for k, v := range m {
				record.Metadata[k] = cloneAnyValue(v)
			}
		default:
			if record.Metadata == nil {
				record.Metadata = make(map[string]any)
			}
			record.Metadata[key] = cloneAnyValue(value)
		}
	}
	return replacedCapabilities, nil
}

func asInt(field string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: field %q must be an integer", ErrValidation, field)
	}
}
