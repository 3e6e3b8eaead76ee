// Package authz enforces Cedar-based access control over registry operations.
package authz

import "context"

//go:generate mockgen -destination=mocks/mock_authorizer.go -package=mocks -source=authorizer.go Authorizer

// Authorizer decides whether a caller may perform an action. The Cedar
// implementation is the default; tests substitute their own.
type Authorizer interface {
	Authorize(ctx context.Context, req Request) (Decision, error)
}

// Request describes one authorization check. GrantedActions come from the
// caller's scope mapping, Action is the Cedar action the operation requires
// (read, write, admin), and the resource fields identify the target entity.
type Request struct {
	GrantedActions []string
	Action         string
	ResourceType   string
	ResourceID     string
}

// Decision is the outcome of a check. Reasons names the policy IDs that
// produced it, for audit logs.
type Decision struct {
	Allowed bool
	Reasons []string
}
