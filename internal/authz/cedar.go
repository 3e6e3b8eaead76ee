package authz

import (
	"context"
	"fmt"

	cedar "github.com/cedar-policy/cedar-go"

	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

// cedarNamespace prefixes every entity type the registry policies refer to.
const cedarNamespace = "Plexus::Registry"

type cedarAuthorizer struct {
	policySet *cedar.PolicySet
}

// NewCedarAuthorizer parses policyBytes into a policy set. Nil bytes load the
// built-in default policies.
func NewCedarAuthorizer(policyBytes []byte) (*cedarAuthorizer, error) {
	if policyBytes == nil {
		policyBytes = []byte(defaultPolicies)
	}

	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", policyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Cedar policies: %w", err)
	}

	return &cedarAuthorizer{policySet: ps}, nil
}

// Authorize evaluates the request against the loaded policy set. The granted
// actions ride on the principal entity so policies match on them instead of
// raw scope names.
func (a *cedarAuthorizer) Authorize(_ context.Context, req Request) (Decision, error) {
	principal, entities := principalWithGrants(req.GrantedActions)

	allowed, diagnostic := cedar.Authorize(a.policySet, entities, cedar.Request{
		Principal: principal,
		Action:    entityUID("Action", req.Action),
		Resource:  targetResource(req),
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	})

	logger.Debug("authorization decision",
		"action", req.Action,
		"decision", allowed,
		"grantedActions", req.GrantedActions,
		"resource", req.ResourceID,
	)

	var reasons []string
	for _, r := range diagnostic.Reasons {
		reasons = append(reasons, string(r.PolicyID))
	}

	return Decision{Allowed: allowed == cedar.Allow, Reasons: reasons}, nil
}

// principalWithGrants builds the authenticated-user principal carrying its
// grantedActions attribute, plus the entity map Cedar evaluates against.
func principalWithGrants(granted []string) (cedar.EntityUID, cedar.EntityMap) {
	values := make([]cedar.Value, len(granted))
	for i, action := range granted {
		values[i] = cedar.String(action)
	}

	uid := entityUID("User", "authenticated")
	return uid, cedar.EntityMap{
		uid: cedar.Entity{
			UID: uid,
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"grantedActions": cedar.NewSet(values...),
			}),
		},
	}
}

// targetResource resolves the resource UID for a request. Requests without an
// explicit resource target the registry as a whole.
func targetResource(req Request) cedar.EntityUID {
	resourceType := req.ResourceType
	if resourceType == "" {
		resourceType = "Registry"
	}
	resourceID := req.ResourceID
	if resourceID == "" {
		resourceID = "global"
	}
	return entityUID(resourceType, resourceID)
}

func entityUID(entityType, id string) cedar.EntityUID {
	return cedar.NewEntityUID(cedar.EntityType(cedarNamespace+"::"+entityType), cedar.String(id))
}
