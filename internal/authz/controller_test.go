package authz_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/plexushq/plexus-registry-server/internal/authz"
	"github.com/plexushq/plexus-registry-server/internal/authz/mocks"
	"github.com/plexushq/plexus-registry-server/internal/config"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

func newCedarController(t *testing.T, allowedTenants []string) *authz.Controller {
	t.Helper()

	authorizer, err := authz.NewCedarAuthorizer(nil)
	require.NoError(t, err)

	return authz.NewController(authorizer, config.DefaultScopeMapping(), allowedTenants)
}

func TestController_CheckPermission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		user     *registry.UserContext
		resource string
		action   string
		want     bool
	}{
		{
			name:     "read scope may discover services",
			user:     &registry.UserContext{UserID: "alice", Scopes: []string{"registry:read"}},
			resource: registry.ResourceService,
			action:   registry.ActionDiscover,
			want:     true,
		},
		{
			name:     "read scope may read registry status",
			user:     &registry.UserContext{UserID: "alice", Scopes: []string{"registry:read"}},
			resource: registry.ResourceRegistry,
			action:   registry.ActionRead,
			want:     true,
		},
		{
			name:     "read scope may not register a service",
			user:     &registry.UserContext{UserID: "alice", Scopes: []string{"registry:read"}},
			resource: registry.ResourceService,
			action:   registry.ActionRegister,
			want:     false,
		},
		{
			name:     "write scope may register a service",
			user:     &registry.UserContext{UserID: "bob", Scopes: []string{"registry:write"}},
			resource: registry.ResourceService,
			action:   registry.ActionRegister,
			want:     true,
		},
		{
			name:     "write scope may promote an artifact",
			user:     &registry.UserContext{UserID: "bob", Scopes: []string{"registry:write"}},
			resource: registry.ResourceArtifact,
			action:   registry.ActionPromote,
			want:     true,
		},
		{
			name:     "write scope may not unregister a service",
			user:     &registry.UserContext{UserID: "bob", Scopes: []string{"registry:write"}},
			resource: registry.ResourceService,
			action:   registry.ActionUnregister,
			want:     false,
		},
		{
			name:     "admin scope may unregister a capability",
			user:     &registry.UserContext{UserID: "carol", Scopes: []string{"registry:admin"}},
			resource: registry.ResourceCapability,
			action:   registry.ActionUnregister,
			want:     true,
		},
		{
			name:     "no scopes is denied",
			user:     &registry.UserContext{UserID: "dave"},
			resource: registry.ResourceRoute,
			action:   registry.ActionDiscover,
			want:     false,
		},
		{
			name:     "unrecognized scope is denied",
			user:     &registry.UserContext{UserID: "dave", Scopes: []string{"billing:read"}},
			resource: registry.ResourceService,
			action:   registry.ActionDiscover,
			want:     false,
		},
		{
			name:     "nil user is allowed",
			user:     nil,
			resource: registry.ResourceService,
			action:   registry.ActionRegister,
			want:     true,
		},
	}

	controller := newCedarController(t, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := controller.CheckPermission(context.Background(), tt.user, tt.resource, tt.action)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestController_CheckPermission_EvaluationFailureDenies(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockAuth := mocks.NewMockAuthorizer(ctrl)
	mockAuth.EXPECT().
		Authorize(gomock.Any(), gomock.Any()).
		Return(authz.Decision{}, errors.New("policy engine unavailable"))

	controller := authz.NewController(mockAuth, config.DefaultScopeMapping(), nil)
	user := &registry.UserContext{UserID: "alice", Scopes: []string{"registry:admin"}}

	allowed := controller.CheckPermission(context.Background(), user, registry.ResourceService, registry.ActionDiscover)
	assert.False(t, allowed, "evaluation failures must deny")
}

func TestController_CheckPermission_PassesMappedRequest(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockAuth := mocks.NewMockAuthorizer(ctrl)
	mockAuth.EXPECT().
		Authorize(gomock.Any(), authz.Request{
			GrantedActions: []string{"read"},
			Action:         "write",
			ResourceType:   "Artifact",
		}).
		Return(authz.Decision{Allowed: false}, nil)

	mapping := []config.ScopeMappingEntry{
		{Scope: "viewer", Actions: []string{"read"}},
	}
	controller := authz.NewController(mockAuth, mapping, nil)
	user := &registry.UserContext{UserID: "alice", Scopes: []string{"viewer"}}

	allowed := controller.CheckPermission(context.Background(), user, registry.ResourceArtifact, registry.ActionCreate)
	assert.False(t, allowed)
}

func TestController_ValidateTenantAccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		allowedTenants []string
		tenantID       string
		want           bool
	}{
		{
			name:           "empty allowlist admits any tenant",
			allowedTenants: nil,
			tenantID:       "acme",
			want:           true,
		},
		{
			name:           "listed tenant is admitted",
			allowedTenants: []string{"acme", "globex"},
			tenantID:       "globex",
			want:           true,
		},
		{
			name:           "unlisted tenant is rejected",
			allowedTenants: []string{"acme", "globex"},
			tenantID:       "initech",
			want:           false,
		},
		{
			name:           "empty tenant id is rejected when allowlist set",
			allowedTenants: []string{"acme"},
			tenantID:       "",
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			controller := newCedarController(t, tt.allowedTenants)
			got := controller.ValidateTenantAccess(context.Background(), tt.tenantID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewControllerFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults work without a policy file", func(t *testing.T) {
		t.Parallel()

		controller, err := authz.NewControllerFromConfig(&config.AuthzConfig{Enabled: true})
		require.NoError(t, err)

		user := &registry.UserContext{UserID: "alice", Scopes: []string{"registry:read"}}
		assert.True(t, controller.CheckPermission(context.Background(), user, registry.ResourceService, registry.ActionDiscover))
		assert.False(t, controller.CheckPermission(context.Background(), user, registry.ResourceService, registry.ActionRegister))
	})

	t.Run("loads a custom policy file", func(t *testing.T) {
		t.Parallel()

		policyPath := filepath.Join(t.TempDir(), "policies.cedar")
		policy := `permit(
			principal,
			action == Plexus::Registry::Action::"read",
			resource
		) when {
			principal.grantedActions.contains("read")
		};`
		require.NoError(t, os.WriteFile(policyPath, []byte(policy), 0o600))

		controller, err := authz.NewControllerFromConfig(&config.AuthzConfig{
			Enabled:    true,
			PolicyFile: policyPath,
		})
		require.NoError(t, err)

		reader := &registry.UserContext{UserID: "alice", Scopes: []string{"registry:read"}}
		admin := &registry.UserContext{UserID: "carol", Scopes: []string{"registry:admin"}}
		assert.True(t, controller.CheckPermission(context.Background(), reader, registry.ResourceService, registry.ActionDiscover))
		// The custom file has no write or admin policies.
		assert.False(t, controller.CheckPermission(context.Background(), admin, registry.ResourceService, registry.ActionUnregister))
	})

	t.Run("missing policy file returns error", func(t *testing.T) {
		t.Parallel()

		_, err := authz.NewControllerFromConfig(&config.AuthzConfig{
			Enabled:    true,
			PolicyFile: filepath.Join(t.TempDir(), "missing.cedar"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read Cedar policy file")
	})

	t.Run("invalid policy file returns error", func(t *testing.T) {
		t.Parallel()

		policyPath := filepath.Join(t.TempDir(), "broken.cedar")
		require.NoError(t, os.WriteFile(policyPath, []byte("not cedar at all"), 0o600))

		_, err := authz.NewControllerFromConfig(&config.AuthzConfig{
			Enabled:    true,
			PolicyFile: policyPath,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Cedar policies")
	})
}
