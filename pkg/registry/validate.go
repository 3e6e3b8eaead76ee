package registry

import (
	"fmt"
	"regexp"
	"strings"
)

const maxNameLength = 200

var (
	// Service names become the first half of composite capability keys, so
	// the key separator is excluded from the character set.
	serviceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]*[a-zA-Z0-9])?$`)

	// Capability names may contain dots; composite keys split on the first
	// separator so the remainder stays intact.
	capabilityNamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]*[a-zA-Z0-9])?$`)
)

// ValidateServiceName checks that a service name is usable as an identity
// key. Returns the trimmed name. All failures wrap ErrValidation.
//
// Requirements:
//   - non-empty
//   - at most 200 characters
//   - starts and ends with an alphanumeric character, with underscores and
//     hyphens permitted in the middle (no dots: the key separator)
func ValidateServiceName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("%w: service_name is required", ErrValidation)
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("%w: service name exceeds maximum length of %d characters",
			ErrValidation, maxNameLength)
	}
	if strings.Contains(name, KeySeparator) {
		return "", fmt.Errorf("%w: service name %q must not contain %q",
			ErrValidation, name, KeySeparator)
	}
	if !serviceNamePattern.MatchString(name) {
		return "", fmt.Errorf(
			"%w: service name %q must start and end with alphanumeric characters, "+
				"and may contain underscores and hyphens in the middle",
			ErrValidation, name)
	}
	return name, nil
}

// ValidateCapabilityName checks that a capability name is usable as the
// second half of a composite key. Returns the trimmed name.
func ValidateCapabilityName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("%w: capability_name is required", ErrValidation)
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("%w: capability name exceeds maximum length of %d characters",
			ErrValidation, maxNameLength)
	}
	if !capabilityNamePattern.MatchString(name) {
		return "", fmt.Errorf(
			"%w: capability name %q must start and end with alphanumeric characters, "+
				"and may contain dots, underscores, and hyphens in the middle",
			ErrValidation, name)
	}
	return name, nil
}

// validateRegistration applies the registry's deliberately permissive rules:
// the name must be a well-formed key and everything else is accepted as-is.
// The trimmed name is written back.
func validateRegistration(reg *ServiceRegistration) error {
	if reg == nil {
		return fmt.Errorf("%w: registration is required", ErrValidation)
	}
	name, err := ValidateServiceName(reg.ServiceName)
	if err != nil {
		return err
	}
	reg.ServiceName = name
	return nil
}

// validateCapability checks both halves of the capability key and writes the
// trimmed names back. Contract contents are not schema-validated; unknown
// shapes are the caller's business.
func validateCapability(capability *CapabilityDefinition) error {
	if capability == nil {
		return fmt.Errorf("%w: capability is required", ErrValidation)
	}
	serviceName, err := ValidateServiceName(capability.ServiceName)
	if err != nil {
		return err
	}
	capabilityName, err := ValidateCapabilityName(capability.CapabilityName)
	if err != nil {
		return err
	}
	capability.ServiceName = serviceName
	capability.CapabilityName = capabilityName
	return nil
}
