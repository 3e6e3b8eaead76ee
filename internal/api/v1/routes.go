// Package v1 provides the v1 REST handlers over the registry facade.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/plexushq/plexus-registry-server/internal/api/common"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

// Routes handles HTTP requests for the v1 registry endpoints.
type Routes struct {
	registry  registry.Registry
	solutions registry.SolutionCreator
}

// RouterOption configures the v1 router.
type RouterOption func(*Routes)

// WithSolutionCreator sets the downstream collaborator invoked when an
// artifact is promoted. Without one, promotion requests are rejected.
func WithSolutionCreator(create registry.SolutionCreator) RouterOption {
	return func(routes *Routes) {
		routes.solutions = create
	}
}

// NewRoutes creates a new Routes instance over the given registry.
func NewRoutes(reg registry.Registry, opts ...RouterOption) *Routes {
	routes := &Routes{registry: reg}
	for _, opt := range opts {
		opt(routes)
	}
	return routes
}

// Router creates and configures the HTTP router for the v1 endpoints.
func Router(reg registry.Registry, opts ...RouterOption) http.Handler {
	routes := NewRoutes(reg, opts...)

	r := chi.NewRouter()

	r.Route("/services", func(r chi.Router) {
		r.Post("/", routes.registerService)
		r.Get("/", routes.listServices)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", routes.discoverService)
			r.Patch("/", routes.updateService)
			r.Delete("/", routes.unregisterService)
			r.Put("/state", routes.updateServiceState)
			r.Post("/shutdown", routes.shutdownService)
			r.Get("/capabilities", routes.listServiceCapabilities)
		})
	})

	r.Route("/capabilities", func(r chi.Router) {
		r.Post("/", routes.registerCapability)
		r.Get("/", routes.listCapabilities)
		r.Delete("/{service}", routes.unregisterServiceCapabilities)
		r.Route("/{service}/{capability}", func(r chi.Router) {
			r.Patch("/", routes.updateCapability)
			r.Delete("/", routes.unregisterCapability)
		})
	})

	r.Get("/routes", routes.discoverRoutes)

	r.Route("/artifacts", func(r chi.Router) {
		r.Post("/", routes.createArtifact)
		r.Get("/", routes.listArtifacts)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", routes.getArtifact)
			r.Get("/versions/{version}", routes.getArtifactVersion)
			r.Put("/status", routes.updateArtifactStatus)
			r.Post("/promote", routes.promoteArtifact)
		})
	})

	r.Get("/status", routes.status)

	return r
}

// registerService handles POST /api/v1/services
func (routes *Routes) registerService(w http.ResponseWriter, r *http.Request) {
	var registration registry.ServiceRegistration
	if err := json.NewDecoder(r.Body).Decode(&registration); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := routes.registry.RegisterService(r.Context(), common.UserFromContext(r.Context()), &registration)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	status := http.StatusCreated
	if outcome.Status == registry.OutcomeAlreadyRegistered {
		status = http.StatusOK
	}
	common.WriteJSONResponse(w, outcome, status)
}

// listServices handles GET /api/v1/services
func (routes *Routes) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := routes.registry.ListServices(r.Context(), common.UserFromContext(r.Context()))
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, ListServicesResponse{
		Services: services,
		Count:    len(services),
	}, http.StatusOK)
}

// discoverService handles GET /api/v1/services/{name}
func (routes *Routes) discoverService(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetAndValidateURLParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	discovery, err := routes.registry.DiscoverServiceByName(r.Context(), common.UserFromContext(r.Context()), name)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if discovery == nil {
		common.WriteErrorResponse(w, "Service not found: "+name, http.StatusNotFound)
		return
	}

	common.WriteJSONResponse(w, discovery, http.StatusOK)
}

// updateService handles PATCH /api/v1/services/{name}
func (routes *Routes) updateService(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetAndValidateURLParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := routes.registry.UpdateService(r.Context(), common.UserFromContext(r.Context()), name, fields)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, updated, http.StatusOK)
}

// updateServiceState handles PUT /api/v1/services/{name}/state
func (routes *Routes) updateServiceState(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetAndValidateURLParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req UpdateStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.State == "" {
		common.WriteErrorResponse(w, "state is required", http.StatusBadRequest)
		return
	}

	updated, err := routes.registry.UpdateServiceState(
		r.Context(), common.UserFromContext(r.Context()), name, registry.ServiceState(req.State))
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, updated, http.StatusOK)
}

// unregisterService handles DELETE /api/v1/services/{name}
func (routes *Routes) unregisterService(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetAndValidateURLParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	externalID := r.URL.Query().Get("external_id")

	outcome, err := routes.registry.UnregisterService(r.Context(), common.UserFromContext(r.Context()), name, externalID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, outcome, http.StatusOK)
}

// shutdownService handles POST /api/v1/services/{name}/shutdown
func (routes *Routes) shutdownService(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetAndValidateURLParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The body is optional; an absent or empty drain selects the default.
	var req ShutdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	drain := time.Duration(req.DrainSeconds * float64(time.Second))

	// The drain can outlast the request-timeout middleware and the server's
	// write deadline; an aborted drain would strand the service in draining.
	// Detach from the request's cancellation (keeping its values) and clear
	// the write deadline so the shutdown always runs to completion.
	ctx := context.WithoutCancel(r.Context())
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	outcome, err := routes.registry.GracefulShutdown(ctx, common.UserFromContext(ctx), name, drain)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, outcome, http.StatusOK)
}

// registerCapability handles POST /api/v1/capabilities
func (routes *Routes) registerCapability(w http.ResponseWriter, r *http.Request) {
	var capability registry.CapabilityDefinition
	if err := json.NewDecoder(r.Body).Decode(&capability); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := routes.registry.RegisterCapability(r.Context(), common.UserFromContext(r.Context()), &capability); err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, map[string]string{
		"status": "registered",
		"key":    capability.Key(),
	}, http.StatusCreated)
}

// listCapabilities handles GET /api/v1/capabilities
func (routes *Routes) listCapabilities(w http.ResponseWriter, r *http.Request) {
	serviceName := r.URL.Query().Get("service")

	capabilities, err := routes.registry.ListCapabilities(r.Context(), common.UserFromContext(r.Context()), serviceName)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, ListCapabilitiesResponse{
		Capabilities: capabilities,
		Count:        len(capabilities),
	}, http.StatusOK)
}

// listServiceCapabilities handles GET /api/v1/services/{name}/capabilities
func (routes *Routes) listServiceCapabilities(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetAndValidateURLParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	capabilities, err := routes.registry.ListCapabilities(r.Context(), common.UserFromContext(r.Context()), name)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, ListCapabilitiesResponse{
		Capabilities: capabilities,
		Count:        len(capabilities),
	}, http.StatusOK)
}

// updateCapability handles PATCH /api/v1/capabilities/{service}/{capability}
func (routes *Routes) updateCapability(w http.ResponseWriter, r *http.Request) {
	serviceName, err := common.GetAndValidateURLParam(r, "service")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	capabilityName, err := common.GetAndValidateURLParam(r, "capability")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := routes.registry.UpdateCapability(
		r.Context(), common.UserFromContext(r.Context()), serviceName, capabilityName, fields); err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, map[string]string{
		"status": "updated",
		"key":    registry.CapabilityKey(serviceName, capabilityName),
	}, http.StatusOK)
}

// unregisterCapability handles DELETE /api/v1/capabilities/{service}/{capability}
func (routes *Routes) unregisterCapability(w http.ResponseWriter, r *http.Request) {
	serviceName, err := common.GetAndValidateURLParam(r, "service")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	capabilityName, err := common.GetAndValidateURLParam(r, "capability")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := routes.registry.UnregisterCapability(
		r.Context(), common.UserFromContext(r.Context()), serviceName, capabilityName)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, summary, http.StatusOK)
}

// unregisterServiceCapabilities handles DELETE /api/v1/capabilities/{service}
func (routes *Routes) unregisterServiceCapabilities(w http.ResponseWriter, r *http.Request) {
	serviceName, err := common.GetAndValidateURLParam(r, "service")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := routes.registry.UnregisterCapability(
		r.Context(), common.UserFromContext(r.Context()), serviceName, "")
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, summary, http.StatusOK)
}

// discoverRoutes handles GET /api/v1/routes
func (routes *Routes) discoverRoutes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := registry.RouteFilter{
		Pillar:      query.Get("pillar"),
		Realm:       query.Get("realm"),
		ServiceName: query.Get("service"),
	}

	matched, err := routes.registry.DiscoverRoutes(r.Context(), common.UserFromContext(r.Context()), filter)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, ListRoutesResponse{
		Routes: matched,
		Count:  len(matched),
	}, http.StatusOK)
}

// status handles GET /api/v1/status
func (routes *Routes) status(w http.ResponseWriter, r *http.Request) {
	status, err := routes.registry.Status(r.Context(), common.UserFromContext(r.Context()))
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, status, http.StatusOK)
}
