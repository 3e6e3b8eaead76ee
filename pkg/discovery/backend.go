// Package discovery defines the external service-discovery backend contract
// and an HTTP adapter for Consul-like catalogs. The registry treats the
// backend as optional and independently failing: every error is absorbed
// into cache-only operation by the caller.
package discovery

import "context"

//go:generate mockgen -destination=mocks/mock_backend.go -package=mocks -source=backend.go Backend

// ServiceInfo is the metadata pushed to the backend on registration. It
// deliberately carries no in-process references; the backend only ever sees
// network coordinates. ID carries an existing backend identifier when a
// caller refreshes a registration in place; empty means first registration.
type ServiceInfo struct {
	ID      string            `json:"id,omitempty"`
	Name    string            `json:"name"`
	Type    string            `json:"type,omitempty"`
	Realm   string            `json:"realm,omitempty"`
	Address string            `json:"address,omitempty"`
	Port    int               `json:"port,omitempty"`
	Tags    []string          `json:"tags,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Registration is the backend's acknowledgement of a registered service.
type Registration struct {
	// ID is the backend-assigned identifier used for later deregistration.
	ID string `json:"id"`
}

// InstanceMetadata describes one instance of a service known to the backend:
// network coordinates only, never an invocable reference.
type InstanceMetadata struct {
	ServiceID string            `json:"service_id"`
	Name      string            `json:"name"`
	Address   string            `json:"address,omitempty"`
	Port      int               `json:"port,omitempty"`
	Realm     string            `json:"realm,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Backend is the external discovery system the registry optionally delegates
// to. Implementations must honor context cancellation; the registry wraps
// every call in a timeout.
type Backend interface {
	// Register announces a service and returns the backend-assigned handle.
	Register(ctx context.Context, info ServiceInfo) (*Registration, error)

	// Discover returns the known instances of a named service. An empty
	// slice with a nil error is a clean miss.
	Discover(ctx context.Context, serviceName string) ([]InstanceMetadata, error)

	// Deregister removes a previously registered service by its backend id.
	Deregister(ctx context.Context, externalID string) error
}
