package authz

import (
	"strings"
	"unicode"

	"github.com/plexushq/plexus-registry-server/internal/config"
)

// ParseScopes splits a gateway scope header value into individual scopes.
// Commas are the documented separator; space-separated values are tolerated
// because some proxies forward the raw OAuth scope string (RFC 6749).
func ParseScopes(raw string) []string {
	scopes := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(scopes) == 0 {
		return nil
	}
	return scopes
}

// MapScopesToActions resolves the caller's scopes to the set of granted
// authorization actions via the configured scope mapping. Scopes without a
// mapping entry grant nothing.
func MapScopesToActions(scopes []string, mapping []config.ScopeMappingEntry) []string {
	held := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		held[scope] = struct{}{}
	}

	granted := make(map[string]struct{})
	for _, entry := range mapping {
		if _, ok := held[entry.Scope]; !ok {
			continue
		}
		for _, action := range entry.Actions {
			granted[action] = struct{}{}
		}
	}

	actions := make([]string, 0, len(granted))
	for action := range granted {
		actions = append(actions, action)
	}
	return actions
}
