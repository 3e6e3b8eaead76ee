// Package registry implements the platform registry: service registration
// and discovery, capability definitions with derived routes, and versioned
// artifacts with a strict approval workflow. It is consumed in-process; the
// HTTP surface in internal/api is a thin layer over the Registry facade.
package registry

import (
	"time"
)

// ServiceState tracks the lifecycle of a registered service. Transitions are
// deliberately unconstrained: any state may be set directly, unlike artifact
// statuses which go through a strict table.
type ServiceState string

// Known service states.
const (
	ServiceStateActive      ServiceState = "active"
	ServiceStateInactive    ServiceState = "inactive"
	ServiceStateMaintenance ServiceState = "maintenance"
	ServiceStateDeprecated  ServiceState = "deprecated"
	ServiceStateDraining    ServiceState = "draining"
)

// Valid reports whether s is one of the known service states.
func (s ServiceState) Valid() bool {
	switch s {
	case ServiceStateActive, ServiceStateInactive, ServiceStateMaintenance,
		ServiceStateDeprecated, ServiceStateDraining:
		return true
	}
	return false
}

// CapabilityState tracks the lifecycle of a capability. Same looseness as
// ServiceState.
type CapabilityState string

// Known capability states.
const (
	CapabilityStateActive       CapabilityState = "active"
	CapabilityStateDeprecated   CapabilityState = "deprecated"
	CapabilityStateMaintenance  CapabilityState = "maintenance"
	CapabilityStateExperimental CapabilityState = "experimental"
)

// Valid reports whether s is one of the known capability states.
func (s CapabilityState) Valid() bool {
	switch s {
	case CapabilityStateActive, CapabilityStateDeprecated,
		CapabilityStateMaintenance, CapabilityStateExperimental:
		return true
	}
	return false
}

// ArtifactStatus is the workflow status of an artifact. Unlike service and
// capability states, status changes are validated against a transition table.
type ArtifactStatus string

// Artifact workflow statuses.
const (
	ArtifactStatusDraft       ArtifactStatus = "draft"
	ArtifactStatusReview      ArtifactStatus = "review"
	ArtifactStatusApproved    ArtifactStatus = "approved"
	ArtifactStatusRejected    ArtifactStatus = "rejected"
	ArtifactStatusImplemented ArtifactStatus = "implemented"
	ArtifactStatusActive      ArtifactStatus = "active"
	ArtifactStatusPaused      ArtifactStatus = "paused"
	ArtifactStatusCancelled   ArtifactStatus = "cancelled"
	ArtifactStatusCompleted   ArtifactStatus = "completed"
)

// artifactTransitions is the complete workflow table. Cancelled and completed
// are terminal: they have entries with no outgoing edges so Valid and
// CanTransitionTo agree on what a known status is.
var artifactTransitions = map[ArtifactStatus][]ArtifactStatus{
	ArtifactStatusDraft:       {ArtifactStatusReview, ArtifactStatusCancelled},
	ArtifactStatusReview:      {ArtifactStatusApproved, ArtifactStatusRejected, ArtifactStatusDraft},
	ArtifactStatusApproved:    {ArtifactStatusImplemented, ArtifactStatusDraft},
	ArtifactStatusImplemented: {ArtifactStatusActive},
	ArtifactStatusActive:      {ArtifactStatusPaused, ArtifactStatusCompleted},
	ArtifactStatusRejected:    {ArtifactStatusDraft},
	ArtifactStatusPaused:      {ArtifactStatusActive, ArtifactStatusCancelled},
	ArtifactStatusCancelled:   {},
	ArtifactStatusCompleted:   {},
}

// Valid reports whether s is a known workflow status.
func (s ArtifactStatus) Valid() bool {
	_, ok := artifactTransitions[s]
	return ok
}

// CanTransitionTo reports whether the workflow table permits moving from s
// to next.
func (s ArtifactStatus) CanTransitionTo(next ArtifactStatus) bool {
	for _, allowed := range artifactTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s ArtifactStatus) Terminal() bool {
	allowed, ok := artifactTransitions[s]
	return ok && len(allowed) == 0
}

// ServiceRegistration is the registry's record of one service. ServiceName
// is the only strictly required field; everything else is permissive, with
// unrecognized registration fields kept in Metadata.
type ServiceRegistration struct {
	ServiceName  string         `json:"service_name"`
	ServiceType  string         `json:"service_type,omitempty"`
	Realm        string         `json:"realm,omitempty"`
	Address      string         `json:"address,omitempty"`
	Port         int            `json:"port,omitempty"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Endpoints    []string       `json:"endpoints,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`

	// ExternalID is assigned by the external discovery backend. Empty means
	// the registration is cache-only, which is a fully supported mode.
	ExternalID string       `json:"external_id,omitempty"`
	State      ServiceState `json:"state"`

	// Instance is the live in-process object registered by the service, used
	// for same-process invocation. It never leaves the process: backend
	// registrations and API responses carry metadata only.
	Instance any `json:"-"`

	RegisteredAt   time.Time `json:"registered_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	StateUpdatedAt time.Time `json:"state_updated_at,omitempty"`
}

// Clone returns a copy safe for callers to hold: slices and the metadata map
// are copied, the live Instance reference is shared.
func (r *ServiceRegistration) Clone() *ServiceRegistration {
	if r == nil {
		return nil
	}
	out := *r
	out.Capabilities = cloneStrings(r.Capabilities)
	out.Endpoints = cloneStrings(r.Endpoints)
	out.Tags = cloneStrings(r.Tags)
	out.Metadata = cloneAnyMap(r.Metadata)
	return &out
}

// RESTContract describes how a capability is invoked over HTTP.
type RESTContract struct {
	Endpoint string `json:"endpoint"`
	Method   string `json:"method,omitempty"`
	Handler  string `json:"handler,omitempty"`
}

// SOAContract describes an RPC-style invocation contract.
type SOAContract struct {
	APIName  string `json:"api_name"`
	Endpoint string `json:"endpoint,omitempty"`
	Method   string `json:"method,omitempty"`
	Handler  string `json:"handler,omitempty"`
}

// MCPToolContract describes a tool-invocation contract. It does not derive a
// route; tools are discovered through the capability itself.
type MCPToolContract struct {
	ToolName string `json:"tool_name"`
	Handler  string `json:"handler,omitempty"`
}

// Contracts groups the per-protocol invocation contracts a capability may
// carry. Handler values are symbolic references resolved by the serving
// layer, not in-process pointers.
type Contracts struct {
	REST    *RESTContract    `json:"rest_api,omitempty"`
	SOA     *SOAContract     `json:"soa_api,omitempty"`
	MCPTool *MCPToolContract `json:"mcp_tool,omitempty"`
}

// Clone returns a copy of the contract set.
func (c *Contracts) Clone() *Contracts {
	if c == nil {
		return nil
	}
	out := Contracts{}
	if c.REST != nil {
		rest := *c.REST
		out.REST = &rest
	}
	if c.SOA != nil {
		soa := *c.SOA
		out.SOA = &soa
	}
	if c.MCPTool != nil {
		tool := *c.MCPTool
		out.MCPTool = &tool
	}
	return &out
}

// CapabilityDefinition is one named unit of functionality owned by a
// service, keyed by "service_name.capability_name".
type CapabilityDefinition struct {
	ServiceName     string          `json:"service_name"`
	CapabilityName  string          `json:"capability_name"`
	InterfaceName   string          `json:"interface_name,omitempty"`
	Endpoints       []string        `json:"endpoints,omitempty"`
	Tools           []string        `json:"tools,omitempty"`
	Description     string          `json:"description,omitempty"`
	Realm           string          `json:"realm,omitempty"`
	Version         string          `json:"version,omitempty"`
	State           CapabilityState `json:"state,omitempty"`
	SemanticMapping map[string]any  `json:"semantic_mapping,omitempty"`
	Contracts       *Contracts      `json:"contracts,omitempty"`

	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Key returns the capability's composite identity key.
func (c *CapabilityDefinition) Key() string {
	return CapabilityKey(c.ServiceName, c.CapabilityName)
}

// Clone returns a copy safe for callers to hold.
func (c *CapabilityDefinition) Clone() *CapabilityDefinition {
	if c == nil {
		return nil
	}
	out := *c
	out.Endpoints = cloneStrings(c.Endpoints)
	out.Tools = cloneStrings(c.Tools)
	out.SemanticMapping = cloneAnyMap(c.SemanticMapping)
	out.Contracts = c.Contracts.Clone()
	return &out
}

// ContractType identifies which contract a route was derived from.
type ContractType string

// Contract types that derive routes.
const (
	ContractTypeREST ContractType = "rest_api"
	ContractTypeSOA  ContractType = "soa_api"
)

// RouteDefinition is the platform-wide route index entry derived from a
// capability contract. Routes are never mutated directly; re-registering the
// owning capability replaces them.
type RouteDefinition struct {
	RouteID        string       `json:"route_id"`
	Path           string       `json:"path"`
	Method         string       `json:"method"`
	Pillar         string       `json:"pillar,omitempty"`
	Realm          string       `json:"realm,omitempty"`
	ServiceName    string       `json:"service_name"`
	CapabilityName string       `json:"capability_name"`
	Handler        string       `json:"handler,omitempty"`
	ContractType   ContractType `json:"contract_type"`
	RegisteredAt   time.Time    `json:"registered_at"`
}

// Clone returns a copy of the route.
func (r *RouteDefinition) Clone() *RouteDefinition {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// ArtifactRecord is a versioned, client-scoped work object (a migration
// plan, a roadmap) that moves through the artifact workflow.
type ArtifactRecord struct {
	ArtifactID   string         `json:"artifact_id"`
	ArtifactType string         `json:"artifact_type"`
	ClientID     string         `json:"client_id,omitempty"`
	Status       ArtifactStatus `json:"status"`
	Data         map[string]any `json:"data,omitempty"`
	Version      int            `json:"version"`
	SolutionID   string         `json:"solution_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Clone returns a deep copy. Versioned snapshots rely on this to stay
// immutable after they are written.
func (a *ArtifactRecord) Clone() *ArtifactRecord {
	if a == nil {
		return nil
	}
	out := *a
	out.Data = cloneAnyMap(a.Data)
	return &out
}

// UserContext identifies the caller for access-control purposes. A nil
// context on a facade call means enforcement is skipped (open-by-default).
type UserContext struct {
	UserID   string   `json:"user_id"`
	TenantID string   `json:"tenant_id,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
}

// OutcomeStatus discriminates service registration results.
type OutcomeStatus string

// Registration outcome statuses.
const (
	OutcomeRegistered        OutcomeStatus = "registered"
	OutcomeAlreadyRegistered OutcomeStatus = "already_registered"
)

// RegistrationOutcome reports what a RegisterService call did. Degraded is
// set when an external backend was configured but could not be reached; the
// registration itself still succeeded in cache-only mode.
type RegistrationOutcome struct {
	Status      OutcomeStatus `json:"status"`
	ServiceName string        `json:"service_name"`
	ExternalID  string        `json:"external_id,omitempty"`
	Degraded    bool          `json:"degraded,omitempty"`
}

// UnregisterSummary counts the per-capability results of a cascade removal.
// Failures do not abort the batch.
type UnregisterSummary struct {
	Unregistered int `json:"unregistered"`
	Failed       int `json:"failed"`
}

// UnregisterOutcome reports what an UnregisterService call did.
type UnregisterOutcome struct {
	ServiceName          string            `json:"service_name"`
	ExternalDeregistered bool              `json:"external_deregistered"`
	Capabilities         UnregisterSummary `json:"capabilities"`
}

// DiscoverySource discriminates where a discovery result came from: the
// local cache (may carry a live instance) or the external backend (metadata
// only). Callers must not conflate the two.
type DiscoverySource string

// Discovery sources.
const (
	DiscoverySourceCache   DiscoverySource = "cache"
	DiscoverySourceBackend DiscoverySource = "backend"
)

// Discovery is the result of DiscoverServiceByName.
type Discovery struct {
	Source       DiscoverySource      `json:"source"`
	Registration *ServiceRegistration `json:"registration"`
}

// PromotionOutcome reports an artifact promotion. StatusUpdated is false on
// the partial-success path: the downstream object was created but the
// follow-up status update failed; Warning carries the detail.
type PromotionOutcome struct {
	Artifact      *ArtifactRecord `json:"artifact"`
	SolutionID    string          `json:"solution_id"`
	StatusUpdated bool            `json:"status_updated"`
	Warning       string          `json:"warning,omitempty"`
}

// RouteFilter narrows DiscoverRoutes results. Zero-value fields are ignored;
// provided fields intersect.
type RouteFilter struct {
	Pillar      string
	Realm       string
	ServiceName string
}

// ArtifactFilter narrows ListArtifacts results. Zero-value fields are
// ignored; provided fields intersect.
type ArtifactFilter struct {
	ArtifactType string
	ClientID     string
	Status       ArtifactStatus
}

// RegistryStatus is a point-in-time summary of registry contents.
type RegistryStatus struct {
	Services          int            `json:"services"`
	Capabilities      int            `json:"capabilities"`
	Routes            int            `json:"routes"`
	Artifacts         int            `json:"artifacts"`
	ServicesByState   map[string]int `json:"services_by_state"`
	BackendConfigured bool           `json:"backend_configured"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// cloneAnyMap deep-copies the nested map/slice structure produced by JSON
// decoding. Other value types are shared, which is safe for the scalar
// payloads the registry stores.
func cloneAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneAnyValue(v)
	}
	return out
}

func cloneAnyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return cloneAnyMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = cloneAnyValue(item)
		}
		return out
	default:
		return v
	}
}
