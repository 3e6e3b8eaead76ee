package registry

import (
	"fmt"
	"strings"
)

// KeySeparator joins service and capability names into a composite key.
// Neither name may contain it.
const KeySeparator = "."

// CapabilityKey returns the composite identity key for a capability.
func CapabilityKey(serviceName, capabilityName string) string {
	return serviceName + KeySeparator + capabilityName
}

// SplitCapabilityKey splits a composite capability key back into its parts.
// The capability part keeps any further separators so keys survive a
// round-trip even when capability names contain dots.
func SplitCapabilityKey(key string) (serviceName, capabilityName string, ok bool) {
	idx := strings.Index(key, KeySeparator)
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

// RESTRouteID derives the route identity for a REST contract. The derivation
// is deterministic: the same (service, capability, endpoint) always yields
// the same id, so re-registration upserts instead of duplicating.
func RESTRouteID(serviceName, capabilityName, endpoint string) string {
	return fmt.Sprintf("%s_%s_%s", serviceName, capabilityName,
		strings.ReplaceAll(endpoint, "/", "_"))
}

// SOARouteID derives the route identity for a SOA contract.
func SOARouteID(serviceName, capabilityName, apiName string) string {
	return fmt.Sprintf("%s_%s_soa_%s", serviceName, capabilityName, apiName)
}

// artifactVersionKey keys the immutable versioned snapshot store.
func artifactVersionKey(artifactID string, version int) string {
	return fmt.Sprintf("%s_v%d", artifactID, version)
}

// PillarFromSemanticMapping extracts the platform pillar from a capability's
// semantic mapping. The mapping's semantic_api value is expected to look
// like "/api/v1/<pillar>/...". Anything else yields an empty pillar.
func PillarFromSemanticMapping(mapping map[string]any) string {
	if mapping == nil {
		return ""
	}
	semanticAPI, _ := mapping["semantic_api"].(string)
	if semanticAPI == "" {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(semanticAPI, "/"), "/")
	if len(parts) >= 3 && parts[0] == "api" {
		return parts[2]
	}
	return ""
}
