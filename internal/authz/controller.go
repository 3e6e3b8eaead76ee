package authz

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/plexushq/plexus-registry-server/internal/config"
	"github.com/plexushq/plexus-registry-server/pkg/logger"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

// Controller adapts the Cedar authorizer to the registry's access contract.
// Evaluation failures deny: a broken policy engine must never widen access.
type Controller struct {
	authorizer     Authorizer
	scopeMapping   []config.ScopeMappingEntry
	allowedTenants map[string]struct{}
}

var _ registry.AccessController = (*Controller)(nil)

// NewController builds the access controller the registry facade consults.
// An empty allowedTenants list admits every tenant.
func NewController(authorizer Authorizer, scopeMapping []config.ScopeMappingEntry, allowedTenants []string) *Controller {
	var tenants map[string]struct{}
	if len(allowedTenants) > 0 {
		tenants = make(map[string]struct{}, len(allowedTenants))
		for _, t := range allowedTenants {
			tenants[t] = struct{}{}
		}
	}

	return &Controller{
		authorizer:     authorizer,
		scopeMapping:   scopeMapping,
		allowedTenants: tenants,
	}
}

// NewControllerFromConfig wires a controller from the authorization config
// section, loading the Cedar policy file when one is named.
func NewControllerFromConfig(cfg *config.AuthzConfig) (*Controller, error) {
	var policyBytes []byte
	if cfg.PolicyFile != "" {
		b, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read Cedar policy file: %w", err)
		}
		policyBytes = b
	}

	authorizer, err := NewCedarAuthorizer(policyBytes)
	if err != nil {
		return nil, err
	}

	return NewController(authorizer, cfg.GetScopeMapping(), cfg.AllowedTenants), nil
}

// CheckPermission reports whether user may perform action on resource. The
// caller's scopes are mapped to granted actions, the operation is mapped to
// the Cedar action it requires, and the policy set decides.
func (c *Controller) CheckPermission(ctx context.Context, user *registry.UserContext, resource, action string) bool {
	if user == nil {
		return true
	}

	grantedActions := MapScopesToActions(user.Scopes, c.scopeMapping)
	required := RequiredAction(action)

	decision, err := c.authorizer.Authorize(ctx, Request{
		GrantedActions: grantedActions,
		Action:         required,
		ResourceType:   ResourceEntityType(resource),
	})
	if err != nil {
		logger.Error("authorization evaluation failed",
			"error", err,
			"user", user.UserID,
			"resource", resource,
			"action", action,
		)
		return false
	}

	if !decision.Allowed {
		logger.Warn("authorization denied",
			"user", user.UserID,
			"resource", resource,
			"action", action,
			"requiredAction", required,
			"scopes", user.Scopes,
			"hint", scopeHint(required, c.scopeMapping),
		)
		return false
	}

	return true
}

// ValidateTenantAccess reports whether tenantID may use this deployment.
func (c *Controller) ValidateTenantAccess(_ context.Context, tenantID string) bool {
	if len(c.allowedTenants) == 0 {
		return true
	}

	if _, ok := c.allowedTenants[tenantID]; !ok {
		logger.Warn("tenant not in allowlist", "tenant", tenantID)
		return false
	}
	return true
}

// scopeHint names the scopes that would grant the required action, so denial
// logs tell operators what the caller was missing.
func scopeHint(requiredAction string, mapping []config.ScopeMappingEntry) string {
	var matching []string
	for _, entry := range mapping {
		if slices.Contains(entry.Actions, requiredAction) {
			matching = append(matching, entry.Scope)
		}
	}

	if len(matching) == 0 {
		return "no configured scope grants action " + requiredAction
	}
	return "requires one of: " + strings.Join(matching, ", ")
}
