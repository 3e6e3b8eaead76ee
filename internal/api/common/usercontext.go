package common

import (
	"context"

	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

type userContextKey struct{}

// WithUser returns a context carrying the caller's identity.
func WithUser(ctx context.Context, user *registry.UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the caller's identity, or nil when the request
// carried no identity headers.
func UserFromContext(ctx context.Context) *registry.UserContext {
	user, _ := ctx.Value(userContextKey{}).(*registry.UserContext)
	return user
}
