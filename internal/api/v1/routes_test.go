package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/plexushq/plexus-registry-server/internal/api/common"
	v1 "github.com/plexushq/plexus-registry-server/internal/api/v1"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
	"github.com/plexushq/plexus-registry-server/pkg/registry/mocks"
)

func newTestRouter(t *testing.T, opts ...v1.RouterOption) http.Handler {
	t.Helper()
	return v1.Router(registry.New(), opts...)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

func TestServiceLifecycle(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	// Register a new service.
	rr := doJSON(t, router, http.MethodPost, "/services", map[string]any{
		"service_name": "billing-engine",
		"service_type": "worker",
		"realm":        "finance",
		"address":      "10.0.0.8",
		"port":         8443,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	outcome := decodeBody[registry.RegistrationOutcome](t, rr)
	assert.Equal(t, registry.OutcomeRegistered, outcome.Status)
	assert.Equal(t, "billing-engine", outcome.ServiceName)
	assert.False(t, outcome.Degraded)

	// Re-registering the same name is idempotent.
	rr = doJSON(t, router, http.MethodPost, "/services", map[string]any{
		"service_name": "billing-engine",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	outcome = decodeBody[registry.RegistrationOutcome](t, rr)
	assert.Equal(t, registry.OutcomeAlreadyRegistered, outcome.Status)

	// Discovery hits the cache.
	rr = doJSON(t, router, http.MethodGet, "/services/billing-engine", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	discovery := decodeBody[registry.Discovery](t, rr)
	assert.Equal(t, registry.DiscoverySourceCache, discovery.Source)
	require.NotNil(t, discovery.Registration)
	assert.Equal(t, "10.0.0.8", discovery.Registration.Address)
	assert.Equal(t, registry.ServiceStateActive, discovery.Registration.State)

	// Partial update.
	rr = doJSON(t, router, http.MethodPatch, "/services/billing-engine", map[string]any{
		"address": "10.0.0.9",
		"tags":    []string{"canary"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decodeBody[registry.ServiceRegistration](t, rr)
	assert.Equal(t, "10.0.0.9", updated.Address)
	assert.Equal(t, []string{"canary"}, updated.Tags)

	// State change.
	rr = doJSON(t, router, http.MethodPut, "/services/billing-engine/state", v1.UpdateStateRequest{
		State: string(registry.ServiceStateMaintenance),
	})
	require.Equal(t, http.StatusOK, rr.Code)
	updated = decodeBody[registry.ServiceRegistration](t, rr)
	assert.Equal(t, registry.ServiceStateMaintenance, updated.State)

	// List contains the service.
	rr = doJSON(t, router, http.MethodGet, "/services", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[v1.ListServicesResponse](t, rr)
	assert.Equal(t, 1, list.Count)

	// Unregister.
	rr = doJSON(t, router, http.MethodDelete, "/services/billing-engine", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	unreg := decodeBody[registry.UnregisterOutcome](t, rr)
	assert.Equal(t, "billing-engine", unreg.ServiceName)

	rr = doJSON(t, router, http.MethodGet, "/services/billing-engine", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGracefulShutdown(t *testing.T) {
	t.Parallel()

	// A short default drain keeps the empty-body path from blocking the test
	// for the production default.
	reg := registry.New(registry.WithDefaultDrain(10 * time.Millisecond))
	router := v1.Router(reg)

	rr := doJSON(t, router, http.MethodPost, "/services", map[string]any{
		"service_name": "search-indexer",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	// An empty body selects the default drain window.
	req := httptest.NewRequest(http.MethodPost, "/services/search-indexer/shutdown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	outcome := decodeBody[registry.UnregisterOutcome](t, rec)
	assert.Equal(t, "search-indexer", outcome.ServiceName)

	rr = doJSON(t, router, http.MethodGet, "/services/search-indexer", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGracefulShutdownOutlivesRequestTimeout(t *testing.T) {
	t.Parallel()

	// The default drain window is longer than the per-request timeout in the
	// production middleware chain. The drain must still run to completion and
	// unregister the service rather than stranding it in draining.
	reg := registry.New(registry.WithDefaultDrain(150 * time.Millisecond))
	router := chi.NewRouter()
	router.Use(middleware.Timeout(30 * time.Millisecond))
	router.Mount("/", v1.Router(reg))

	rr := doJSON(t, router, http.MethodPost, "/services", map[string]any{
		"service_name": "ledger-sync",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	// Empty body selects the default drain.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/services/ledger-sync/shutdown", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	outcome := decodeBody[registry.UnregisterOutcome](t, rec)
	assert.Equal(t, "ledger-sync", outcome.ServiceName)

	rr = doJSON(t, router, http.MethodGet, "/services/ledger-sync", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServiceErrorResponses(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/services", map[string]any{
		"service_name": "known",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{
			name:       "register without name",
			method:     http.MethodPost,
			path:       "/services",
			body:       map[string]any{"service_type": "worker"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "register malformed name",
			method:     http.MethodPost,
			path:       "/services",
			body:       map[string]any{"service_name": "-bad-"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "discover missing service",
			method:     http.MethodGet,
			path:       "/services/ghost",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "update missing service",
			method:     http.MethodPatch,
			path:       "/services/ghost",
			body:       map[string]any{"address": "10.1.1.1"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "update with no fields",
			method:     http.MethodPatch,
			path:       "/services/known",
			body:       map[string]any{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "state change with unknown state",
			method:     http.MethodPut,
			path:       "/services/known/state",
			body:       v1.UpdateStateRequest{State: "hibernating"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "state change with empty state",
			method:     http.MethodPut,
			path:       "/services/known/state",
			body:       v1.UpdateStateRequest{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unregister missing service",
			method:     http.MethodDelete,
			path:       "/services/ghost",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "shutdown missing service",
			method:     http.MethodPost,
			path:       "/services/ghost/shutdown",
			body:       v1.ShutdownRequest{DrainSeconds: 0.1},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestInvalidJSONBody(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/services"},
		{http.MethodPost, "/capabilities"},
		{http.MethodPost, "/artifacts"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, bytes.NewReader([]byte("{not json")))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, p.path)
	}
}

func TestCapabilityRegistrationDerivesRoutes(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/capabilities", map[string]any{
		"service_name":    "orders",
		"capability_name": "create_order",
		"realm":           "commerce",
		"semantic_mapping": map[string]any{
			"pillar": "sales",
		},
		"contracts": map[string]any{
			"rest_api": map[string]any{
				"endpoint": "/orders",
				"method":   "POST",
				"handler":  "CreateOrder",
			},
			"soa_api": map[string]any{
				"api_name": "OrderService.Create",
				"endpoint": "/soa/orders",
				"method":   "POST",
			},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[map[string]string](t, rr)
	assert.Equal(t, "registered", created["status"])
	assert.Equal(t, registry.CapabilityKey("orders", "create_order"), created["key"])

	// Both contracts derive routes.
	rr = doJSON(t, router, http.MethodGet, "/routes?service=orders", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	routes := decodeBody[v1.ListRoutesResponse](t, rr)
	require.Equal(t, 2, routes.Count)

	// The pillar filter only matches the REST route, which carries the
	// semantic mapping's pillar.
	rr = doJSON(t, router, http.MethodGet, "/routes?pillar=sales", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	routes = decodeBody[v1.ListRoutesResponse](t, rr)
	require.Equal(t, 1, routes.Count)
	assert.Equal(t, registry.ContractTypeREST, routes.Routes[0].ContractType)
	assert.Equal(t, "/orders", routes.Routes[0].Path)

	rr = doJSON(t, router, http.MethodGet, "/routes?realm=nowhere", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	routes = decodeBody[v1.ListRoutesResponse](t, rr)
	assert.Zero(t, routes.Count)
}

func TestCapabilityUpdateAndUnregister(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	for _, name := range []string{"lookup", "refresh"} {
		rr := doJSON(t, router, http.MethodPost, "/capabilities", map[string]any{
			"service_name":    "catalog",
			"capability_name": name,
			"contracts": map[string]any{
				"rest_api": map[string]any{
					"endpoint": "/catalog/" + name,
					"method":   "GET",
				},
			},
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := doJSON(t, router, http.MethodPatch, "/capabilities/catalog/lookup", map[string]any{
		"description": "catalog lookup by SKU",
		"version":     "2.1.0",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, router, http.MethodGet, "/services/catalog/capabilities", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[v1.ListCapabilitiesResponse](t, rr)
	require.Equal(t, 2, list.Count)

	// Removing one capability drops its routes but keeps the sibling's.
	rr = doJSON(t, router, http.MethodDelete, "/capabilities/catalog/lookup", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	summary := decodeBody[registry.UnregisterSummary](t, rr)
	assert.Equal(t, 1, summary.Unregistered)

	rr = doJSON(t, router, http.MethodGet, "/routes?service=catalog", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	routes := decodeBody[v1.ListRoutesResponse](t, rr)
	assert.Equal(t, 1, routes.Count)

	// Removing the whole service clears the rest.
	rr = doJSON(t, router, http.MethodDelete, "/capabilities/catalog", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	summary = decodeBody[registry.UnregisterSummary](t, rr)
	assert.Equal(t, 1, summary.Unregistered)

	rr = doJSON(t, router, http.MethodGet, "/capabilities", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list = decodeBody[v1.ListCapabilitiesResponse](t, rr)
	assert.Zero(t, list.Count)

	// Unregistering an absent capability is a 404.
	rr = doJSON(t, router, http.MethodDelete, "/capabilities/catalog/lookup", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestArtifactWorkflow(t *testing.T) {
	t.Parallel()

	solutions := func(_ context.Context, record *registry.ArtifactRecord) (string, error) {
		return "sol-" + record.ArtifactID, nil
	}
	router := newTestRouter(t, v1.WithSolutionCreator(solutions))

	rr := doJSON(t, router, http.MethodPost, "/artifacts", v1.CreateArtifactRequest{
		ArtifactType: "workflow",
		Data:         map[string]any{"steps": []string{"extract", "load"}},
		ClientID:     "client-7",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[registry.ArtifactRecord](t, rr)
	require.NotEmpty(t, created.ArtifactID)
	assert.Equal(t, registry.ArtifactStatusDraft, created.Status)
	assert.Equal(t, 1, created.Version)

	id := created.ArtifactID
	artifactPath := "/artifacts/" + id

	// Draft cannot jump straight to implemented.
	rr = doJSON(t, router, http.MethodPut, artifactPath+"/status", v1.UpdateArtifactStatusRequest{
		Status: string(registry.ArtifactStatusImplemented),
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Promotion requires approved status.
	rr = doJSON(t, router, http.MethodPost, artifactPath+"/promote", v1.PromoteRequest{ClientID: "client-7"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Walk the workflow to approved; each transition bumps the version.
	for i, status := range []registry.ArtifactStatus{
		registry.ArtifactStatusReview,
		registry.ArtifactStatusApproved,
	} {
		rr = doJSON(t, router, http.MethodPut, artifactPath+"/status", v1.UpdateArtifactStatusRequest{
			Status: string(status),
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		updated := decodeBody[registry.ArtifactRecord](t, rr)
		assert.Equal(t, status, updated.Status)
		assert.Equal(t, i+2, updated.Version)
	}

	// Earlier versions remain readable.
	rr = doJSON(t, router, http.MethodGet, artifactPath+"/versions/1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snapshot := decodeBody[registry.ArtifactRecord](t, rr)
	assert.Equal(t, registry.ArtifactStatusDraft, snapshot.Status)

	// Only the creating client may promote.
	rr = doJSON(t, router, http.MethodPost, artifactPath+"/promote", v1.PromoteRequest{ClientID: "intruder"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, router, http.MethodPost, artifactPath+"/promote", v1.PromoteRequest{ClientID: "client-7"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	promotion := decodeBody[registry.PromotionOutcome](t, rr)
	assert.Equal(t, "sol-"+id, promotion.SolutionID)
	assert.True(t, promotion.StatusUpdated)
	require.NotNil(t, promotion.Artifact)
	assert.Equal(t, registry.ArtifactStatusImplemented, promotion.Artifact.Status)
	assert.Equal(t, "sol-"+id, promotion.Artifact.SolutionID)

	rr = doJSON(t, router, http.MethodGet, artifactPath, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	latest := decodeBody[registry.ArtifactRecord](t, rr)
	assert.Equal(t, registry.ArtifactStatusImplemented, latest.Status)
}

func TestArtifactErrorResponses(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/artifacts", v1.CreateArtifactRequest{
		ArtifactType: "intent",
		ClientID:     "client-1",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeBody[registry.ArtifactRecord](t, rr)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{
			name:       "create without type",
			method:     http.MethodPost,
			path:       "/artifacts",
			body:       v1.CreateArtifactRequest{ClientID: "client-1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "get unknown artifact",
			method:     http.MethodGet,
			path:       "/artifacts/no-such-id",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown version",
			method:     http.MethodGet,
			path:       fmt.Sprintf("/artifacts/%s/versions/9", created.ArtifactID),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "non-integer version",
			method:     http.MethodGet,
			path:       fmt.Sprintf("/artifacts/%s/versions/latest", created.ArtifactID),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "status update without status",
			method:     http.MethodPut,
			path:       fmt.Sprintf("/artifacts/%s/status", created.ArtifactID),
			body:       v1.UpdateArtifactStatusRequest{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "status update to unknown status",
			method:     http.MethodPut,
			path:       fmt.Sprintf("/artifacts/%s/status", created.ArtifactID),
			body:       v1.UpdateArtifactStatusRequest{Status: "archived"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "disallowed transition",
			method:     http.MethodPut,
			path:       fmt.Sprintf("/artifacts/%s/status", created.ArtifactID),
			body:       v1.UpdateArtifactStatusRequest{Status: string(registry.ArtifactStatusActive)},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "promote without wired solution creator",
			method:     http.MethodPost,
			path:       fmt.Sprintf("/artifacts/%s/promote", created.ArtifactID),
			body:       v1.PromoteRequest{ClientID: "client-1"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestListArtifactsFilters(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	seed := []v1.CreateArtifactRequest{
		{ArtifactType: "workflow", ClientID: "alpha"},
		{ArtifactType: "workflow", ClientID: "beta"},
		{ArtifactType: "intent", ClientID: "alpha"},
	}
	for _, req := range seed {
		rr := doJSON(t, router, http.MethodPost, "/artifacts", req)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	tests := []struct {
		name      string
		query     string
		wantCount int
	}{
		{name: "all", query: "", wantCount: 3},
		{name: "by type", query: "?type=workflow", wantCount: 2},
		{name: "by client", query: "?client_id=alpha", wantCount: 2},
		{name: "type and client", query: "?type=workflow&client_id=alpha", wantCount: 1},
		{name: "by status", query: "?status=draft", wantCount: 3},
		{name: "no matches", query: "?status=approved", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, router, http.MethodGet, "/artifacts"+tt.query, nil)
			require.Equal(t, http.StatusOK, rr.Code)
			list := decodeBody[v1.ListArtifactsResponse](t, rr)
			assert.Equal(t, tt.wantCount, list.Count)
		})
	}
}

// denyController refuses every permission check. Tenant checks pass so the
// failure is attributable to the permission path.
type denyController struct{}

func (denyController) CheckPermission(context.Context, *registry.UserContext, string, string) bool {
	return false
}

func (denyController) ValidateTenantAccess(context.Context, string) bool { return true }

func TestAccessDeniedMapsToForbidden(t *testing.T) {
	t.Parallel()

	reg := registry.New(registry.WithAccessController(denyController{}))
	router := v1.Router(reg)

	body, err := json.Marshal(map[string]any{"service_name": "guarded"})
	require.NoError(t, err)

	// Anonymous requests bypass enforcement.
	req := httptest.NewRequest(http.MethodPost, "/services", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	// An identified caller is subject to the controller's verdict.
	req = httptest.NewRequest(http.MethodGet, "/services/guarded", nil)
	req = req.WithContext(common.WithUser(req.Context(), &registry.UserContext{
		UserID: "user-1",
		Scopes: []string{"registry:read"},
	}))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUnexpectedErrorsAreMasked(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockReg := mocks.NewMockRegistry(ctrl)
	mockReg.EXPECT().
		ListServices(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection pool exhausted: host db-internal-3"))

	router := v1.Router(mockReg)
	rr := doJSON(t, router, http.MethodGet, "/services", nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "db-internal-3")
}

func TestStatusReportsCounts(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/services", map[string]any{"service_name": "metrics-src"})
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = doJSON(t, router, http.MethodPost, "/artifacts", v1.CreateArtifactRequest{ArtifactType: "intent"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	status := decodeBody[registry.RegistryStatus](t, rr)
	assert.Equal(t, 1, status.Services)
	assert.Equal(t, 1, status.Artifacts)
}
