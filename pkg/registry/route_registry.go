package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// RouteRegistry owns the platform-wide endpoint index. Entries are derived
// from capability contracts and are only ever written through capability
// registration, so the registry itself is a thin idempotent upsert store.
type RouteRegistry struct {
	mu     sync.RWMutex
	routes map[string]*RouteDefinition
	clock  func() time.Time
}

// NewRouteRegistry creates an empty route registry.
func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{
		routes: make(map[string]*RouteDefinition),
		clock:  time.Now,
	}
}

// Register upserts a route by its derived id. Registering the same route
// twice is a no-op apart from freshening the stored copy.
func (r *RouteRegistry) Register(_ context.Context, route *RouteDefinition) error {
	if route == nil || route.RouteID == "" {
		return fmt.Errorf("%w: route_id is required", ErrValidation)
	}

	stored := route.Clone()
	if stored.Method == "" {
		stored.Method = "POST"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.routes[stored.RouteID]; ok {
		stored.RegisteredAt = existing.RegisteredAt
	} else if stored.RegisteredAt.IsZero() {
		stored.RegisteredAt = r.clock()
	}
	r.routes[stored.RouteID] = stored
	return nil
}

// Get returns the route with the given id.
func (r *RouteRegistry) Get(_ context.Context, routeID string) (*RouteDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.routes[routeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, routeID)
	}
	return route.Clone(), nil
}

// Discover returns all routes matching the filter. Provided filter fields
// intersect; an empty filter returns every route. Results are sorted by
// route id for stable output.
func (r *RouteRegistry) Discover(_ context.Context, filter RouteFilter) []*RouteDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*RouteDefinition, 0, len(r.routes))
	for _, route := range r.routes {
		if filter.Pillar != "" && route.Pillar != filter.Pillar {
			continue
		}
		if filter.Realm != "" && route.Realm != filter.Realm {
			continue
		}
		if filter.ServiceName != "" && route.ServiceName != filter.ServiceName {
			continue
		}
		matches = append(matches, route.Clone())
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].RouteID < matches[j].RouteID
	})
	return matches
}

// RemoveByCapability removes every route owned by the given capability and
// returns how many were removed. Used by capability unregistration.
func (r *RouteRegistry) RemoveByCapability(_ context.Context, serviceName, capabilityName string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, route := range r.routes {
		if route.ServiceName == serviceName && route.CapabilityName == capabilityName {
			delete(r.routes, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of registered routes.
func (r *RouteRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
