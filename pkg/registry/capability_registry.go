package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

// CapabilityRegistry owns capability definitions keyed by
// "service_name.capability_name". Registration is an idempotent upsert, in
// contrast to service registration's already-registered no-op; the asymmetry
// is inherited behavior and covered by tests.
type CapabilityRegistry struct {
	mu           sync.RWMutex
	capabilities map[string]*CapabilityDefinition

	routes *RouteRegistry
	locks  *keyLock
	clock  func() time.Time
}

// NewCapabilityRegistry creates a capability registry that derives routes
// into the given route registry.
func NewCapabilityRegistry(routes *RouteRegistry) *CapabilityRegistry {
	return &CapabilityRegistry{
		capabilities: make(map[string]*CapabilityDefinition),
		routes:       routes,
		locks:        newKeyLock(),
		clock:        time.Now,
	}
}

// Register upserts a capability definition. A REST or SOA contract derives a
// route with a deterministic id, so registering the same capability twice
// yields exactly one route per contract.
func (r *CapabilityRegistry) Register(ctx context.Context, capability *CapabilityDefinition) error {
	if err := validateCapability(capability); err != nil {
		return err
	}
	if capability.State != "" && !capability.State.Valid() {
		return fmt.Errorf("%w: unknown capability state %q", ErrValidation, capability.State)
	}

	stored := capability.Clone()
	if stored.State == "" {
		stored.State = CapabilityStateActive
	}

	key := stored.Key()
	unlock := r.locks.Lock(key)
	defer unlock()

	now := r.clock()
	stored.UpdatedAt = now

	r.mu.Lock()
	if existing, ok := r.capabilities[key]; ok {
		stored.RegisteredAt = existing.RegisteredAt
	} else {
		stored.RegisteredAt = now
	}
	r.capabilities[key] = stored
	r.mu.Unlock()

	for _, route := range deriveRoutes(stored) {
		if err := r.routes.Register(ctx, route); err != nil {
			logger.Warn("failed to register derived route",
				"route_id", route.RouteID, "capability", key, "error", err)
		}
	}
	return nil
}

// Update applies partial fields to an existing capability. Only fields that
// exist on the capability schema are applied; unknown fields are silently
// dropped rather than rejected. Routes are not re-derived here; contract
// changes take effect on the next full registration.
func (r *CapabilityRegistry) Update(_ context.Context, serviceName, capabilityName string, fields map[string]any) error {
	key := CapabilityKey(serviceName, capabilityName)
	unlock := r.locks.Lock(key)
	defer unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.capabilities[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCapabilityNotFound, key)
	}

	updated := existing.Clone()
	if err := applyCapabilityFields(updated, fields); err != nil {
		return err
	}
	updated.UpdatedAt = r.clock()
	r.capabilities[key] = updated
	return nil
}

// Unregister removes a single capability and its derived routes.
func (r *CapabilityRegistry) Unregister(ctx context.Context, serviceName, capabilityName string) error {
	key := CapabilityKey(serviceName, capabilityName)
	unlock := r.locks.Lock(key)
	defer unlock()

	r.mu.Lock()
	_, ok := r.capabilities[key]
	if ok {
		delete(r.capabilities, key)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrCapabilityNotFound, key)
	}

	r.routes.RemoveByCapability(ctx, serviceName, capabilityName)
	return nil
}

// UnregisterAll removes every capability owned by a service, reporting
// per-capability success and failure counts. Individual failures never abort
// the batch; this backs the service unregistration cascade.
func (r *CapabilityRegistry) UnregisterAll(ctx context.Context, serviceName string) (UnregisterSummary, error) {
	names := make([]string, 0)
	r.mu.RLock()
	for _, capability := range r.capabilities {
		if capability.ServiceName == serviceName {
			names = append(names, capability.CapabilityName)
		}
	}
	r.mu.RUnlock()

	summary := UnregisterSummary{}
	for _, name := range names {
		if err := r.Unregister(ctx, serviceName, name); err != nil {
			logger.Warn("cascade unregister failed for capability",
				"service", serviceName, "capability", name, "error", err)
			summary.Failed++
			continue
		}
		summary.Unregistered++
	}
	return summary, nil
}

// Get returns one capability by its key parts.
func (r *CapabilityRegistry) Get(_ context.Context, serviceName, capabilityName string) (*CapabilityDefinition, error) {
	key := CapabilityKey(serviceName, capabilityName)
	r.mu.RLock()
	defer r.mu.RUnlock()
	capability, ok := r.capabilities[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCapabilityNotFound, key)
	}
	return capability.Clone(), nil
}

// ListByService returns every capability owned by a service, sorted by
// capability name.
func (r *CapabilityRegistry) ListByService(_ context.Context, serviceName string) []*CapabilityDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*CapabilityDefinition, 0)
	for _, capability := range r.capabilities {
		if capability.ServiceName == serviceName {
			out = append(out, capability.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CapabilityName < out[j].CapabilityName
	})
	return out
}

// List returns every capability, sorted by key.
func (r *CapabilityRegistry) List(_ context.Context) []*CapabilityDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*CapabilityDefinition, 0, len(r.capabilities))
	for _, capability := range r.capabilities {
		out = append(out, capability.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key() < out[j].Key()
	})
	return out
}

// Count returns the number of registered capabilities.
func (r *CapabilityRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.capabilities)
}

// deriveRoutes synthesizes route definitions from a capability's REST and
// SOA contracts. MCP tool contracts do not derive routes.
func deriveRoutes(capability *CapabilityDefinition) []*RouteDefinition {
	if capability.Contracts == nil {
		return nil
	}

	var routes []*RouteDefinition
	if rest := capability.Contracts.REST; rest != nil {
		routes = append(routes, &RouteDefinition{
			RouteID:        RESTRouteID(capability.ServiceName, capability.CapabilityName, rest.Endpoint),
			Path:           rest.Endpoint,
			Method:         rest.Method,
			Pillar:         PillarFromSemanticMapping(capability.SemanticMapping),
			Realm:          capability.Realm,
			ServiceName:    capability.ServiceName,
			CapabilityName: capability.CapabilityName,
			Handler:        rest.Handler,
			ContractType:   ContractTypeREST,
		})
	}
	if soa := capability.Contracts.SOA; soa != nil {
		routes = append(routes, &RouteDefinition{
			RouteID:        SOARouteID(capability.ServiceName, capability.CapabilityName, soa.APIName),
			Path:           soa.Endpoint,
			Method:         soa.Method,
			Realm:          capability.Realm,
			ServiceName:    capability.ServiceName,
			CapabilityName: capability.CapabilityName,
			Handler:        soa.Handler,
			ContractType:   ContractTypeSOA,
		})
	}
	return routes
}

// applyCapabilityFields merges recognized schema fields into the definition.
// Unknown keys are dropped without error; wrong value types for known keys
// are a validation failure.
func applyCapabilityFields(capability *CapabilityDefinition, fields map[string]any) error {
	for key, value := range fields {
		switch key {
		case "interface_name":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			capability.InterfaceName = s
		case "endpoints":
			list, err := asStringSlice(key, value)
			if err != nil {
				return err
			}
			capability.Endpoints = list
		case "tools":
			list, err := asStringSlice(key, value)
			if err != nil {
				return err
			}
			capability.Tools = list
		case "description":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			capability.Description = s
		case "realm":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			capability.Realm = s
		case "version":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			capability.Version = s
		case "state":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			state := CapabilityState(s)
			if !state.Valid() {
				return fmt.Errorf("%w: unknown capability state %q", ErrValidation, s)
			}
			capability.State = state
		case "semantic_mapping":
			m, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: field %q must be an object", ErrValidation, key)
			}
			capability.SemanticMapping = cloneAnyMap(m)
		case "contracts":
			m, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: field %q must be an object", ErrValidation, key)
			}
			contracts, err := contractsFromMap(m)
			if err != nil {
				return err
			}
			capability.Contracts = contracts
		default:
			// Unknown fields are dropped, not rejected.
			logger.Debug("dropping unknown capability field", "field", key)
		}
	}
	return nil
}

// contractsFromMap decodes the wire shape of a contract set. Unknown
// contract types are dropped like any other unknown field.
func contractsFromMap(m map[string]any) (*Contracts, error) {
	contracts := &Contracts{}

	if raw, ok := m["rest_api"]; ok {
		sub, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: contracts.rest_api must be an object", ErrValidation)
		}
		contracts.REST = &RESTContract{
			Endpoint: stringField(sub, "endpoint"),
			Method:   stringField(sub, "method"),
			Handler:  stringField(sub, "handler"),
		}
	}
	if raw, ok := m["soa_api"]; ok {
		sub, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: contracts.soa_api must be an object", ErrValidation)
		}
		contracts.SOA = &SOAContract{
			APIName:  stringField(sub, "api_name"),
			Endpoint: stringField(sub, "endpoint"),
			Method:   stringField(sub, "method"),
			Handler:  stringField(sub, "handler"),
		}
	}
	if raw, ok := m["mcp_tool"]; ok {
		sub, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: contracts.mcp_tool must be an object", ErrValidation)
		}
		contracts.MCPTool = &MCPToolContract{
			ToolName: stringField(sub, "tool_name"),
			Handler:  stringField(sub, "handler"),
		}
	}
	return contracts, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func asString(field string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q must be a string", ErrValidation, field)
	}
	return s, nil
}

func asStringSlice(field string, value any) ([]string, error) {
	switch tv := value.(type) {
	case []string:
		return cloneStrings(tv), nil
	case []any:
		out := make([]string, 0, len(tv))
		for _, item := range tv {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: field %q must be a list of strings", ErrValidation, field)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: field %q must be a list of strings", ErrValidation, field)
	}
}
