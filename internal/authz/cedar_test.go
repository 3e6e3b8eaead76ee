package authz

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCedarAuthorizer(t *testing.T) {
	t.Parallel()

	t.Run("nil bytes loads the default policies", func(t *testing.T) {
		t.Parallel()
		authorizer, err := NewCedarAuthorizer(nil)
		require.NoError(t, err)
		require.NotNil(t, authorizer.policySet)
	})

	t.Run("empty bytes yields an empty policy set", func(t *testing.T) {
		t.Parallel()
		authorizer, err := NewCedarAuthorizer([]byte(""))
		require.NoError(t, err)

		// With no policies everything is denied.
		decision, err := authorizer.Authorize(context.Background(), Request{
			GrantedActions: []string{"admin"},
			Action:         "admin",
		})
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
	})

	t.Run("unparseable bytes return an error", func(t *testing.T) {
		t.Parallel()
		authorizer, err := NewCedarAuthorizer([]byte("permit everything please"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Cedar policies")
		assert.Nil(t, authorizer)
	})
}

func TestCedarAuthorizer_DefaultPolicyMatrix(t *testing.T) {
	t.Parallel()

	authorizer, err := NewCedarAuthorizer(nil)
	require.NoError(t, err)

	// Each granted-action set against each required action. The default
	// policies grant exactly the actions the scope mapping produced, with no
	// implied hierarchy between them.
	grantSets := [][]string{
		nil,
		{"read"},
		{"write"},
		{"admin"},
		{"read", "write"},
		{"read", "write", "admin"},
	}

	for _, grants := range grantSets {
		for _, action := range []string{"read", "write", "admin", "unknown"} {
			name := fmt.Sprintf("grants=%v action=%s", grants, action)
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				decision, err := authorizer.Authorize(context.Background(), Request{
					GrantedActions: grants,
					Action:         action,
				})
				require.NoError(t, err)

				wantAllowed := slicesContains(grants, action)
				assert.Equal(t, wantAllowed, decision.Allowed)
				if wantAllowed {
					assert.NotEmpty(t, decision.Reasons, "allowed decisions carry policy IDs")
				}
			})
		}
	}
}

func slicesContains(grants []string, action string) bool {
	for _, g := range grants {
		if g == action {
			return true
		}
	}
	return false
}

func TestCedarAuthorizer_ResourceDefaults(t *testing.T) {
	t.Parallel()

	authorizer, err := NewCedarAuthorizer(nil)
	require.NoError(t, err)

	// Default policies match any resource, so a read grant succeeds whether
	// the resource is named explicitly or left to the registry-wide default.
	targets := []struct {
		resourceType string
		resourceID   string
	}{
		{"", ""},
		{"Service", "billing-service"},
		{"Artifact", ""},
		{"", "insight-bundle"},
	}

	for _, target := range targets {
		name := fmt.Sprintf("type=%q id=%q", target.resourceType, target.resourceID)
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			decision, err := authorizer.Authorize(context.Background(), Request{
				GrantedActions: []string{"read"},
				Action:         "read",
				ResourceType:   target.resourceType,
				ResourceID:     target.resourceID,
			})
			require.NoError(t, err)
			assert.True(t, decision.Allowed)
		})
	}
}

func TestCedarAuthorizer_CustomPolicy(t *testing.T) {
	t.Parallel()

	// A read-only deployment: the policy file never permits write or admin,
	// whatever the caller's grants say.
	readOnly := []byte(`permit(
		principal,
		action == Plexus::Registry::Action::"read",
		resource
	) when {
		principal.grantedActions.contains("read")
	};`)

	authorizer, err := NewCedarAuthorizer(readOnly)
	require.NoError(t, err)

	for _, action := range []string{"read", "write", "admin"} {
		t.Run(action, func(t *testing.T) {
			t.Parallel()

			decision, err := authorizer.Authorize(context.Background(), Request{
				GrantedActions: []string{action},
				Action:         action,
			})
			require.NoError(t, err)
			assert.Equal(t, action == "read", decision.Allowed)
		})
	}
}

func TestDefaultPoliciesCoverEveryAction(t *testing.T) {
	t.Parallel()

	for _, action := range []string{ActionRead, ActionWrite, ActionAdmin} {
		assert.True(t, strings.Contains(defaultPolicies, fmt.Sprintf("%s::Action::%q", cedarNamespace, action)),
			"default policies missing a permit for %s", action)
	}
}
