package api

import (
	"net/http"

	"github.com/plexushq/plexus-registry-server/internal/api/common"
	"github.com/plexushq/plexus-registry-server/internal/authz"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

// Headers the platform gateway sets after authenticating the caller. The
// registry trusts them as-is; token validation happens at the gateway.
const (
	HeaderUserID   = "X-Plx-User-Id"
	HeaderTenantID = "X-Plx-Tenant-Id"
	HeaderScopes   = "X-Plx-Scopes"
)

// UserContextMiddleware derives the caller's identity from gateway headers
// and stores it in the request context. Requests without a user id header
// pass through with no identity, which the registry treats as unenforced.
func UserContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		user := &registry.UserContext{
			UserID:   userID,
			TenantID: r.Header.Get(HeaderTenantID),
			Scopes:   authz.ParseScopes(r.Header.Get(HeaderScopes)),
		}

		next.ServeHTTP(w, r.WithContext(common.WithUser(r.Context(), user)))
	})
}
