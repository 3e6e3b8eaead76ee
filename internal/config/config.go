// Package config provides configuration loading and management for the registry server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plexushq/plexus-registry-server/internal/telemetry"
)

// Authorization action names referenced by policies and scope mappings.
const (
	ActionRead  = "read"
	ActionWrite = "write"
	ActionAdmin = "admin"
)

// EnvPrefix namespaces the environment variables the CLI binds flags to,
// e.g. PLX_REGISTRY_ADDRESS.
const EnvPrefix = "PLX_REGISTRY"

const (
	// DefaultListenAddress is used when no server section is configured.
	DefaultListenAddress = ":8080"

	// DefaultDiscoveryTimeout bounds each discovery backend call.
	DefaultDiscoveryTimeout = 5 * time.Second

	// DefaultDiscoveryCacheTTL is how long discovery responses are cached.
	DefaultDiscoveryCacheTTL = 30 * time.Second

	// DefaultDrain is the drain interval for graceful service shutdown when
	// the caller does not pick one.
	DefaultDrain = 30 * time.Second
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// RegistryName is the name/identifier for this registry instance
	// Defaults to "default" if not specified
	RegistryName string `yaml:"registryName,omitempty"`

	// Server holds HTTP listener settings
	Server *ServerConfig `yaml:"server,omitempty"`

	// Discovery configures the optional external discovery backend.
	// When absent the registry runs cache-only.
	Discovery *DiscoveryConfig `yaml:"discovery,omitempty"`

	// Authz configures Cedar-based access control.
	// When absent or disabled, every operation is permitted.
	Authz *AuthzConfig `yaml:"authz,omitempty"`

	// Telemetry configures OpenTelemetry tracing and metrics
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`

	// Events configures the NATS lifecycle event publisher.
	// When absent events are discarded.
	Events *EventsConfig `yaml:"events,omitempty"`

	// Drain is the default drain interval for graceful shutdown
	// as a duration string (e.g., "30s", "1m")
	Drain string `yaml:"drain,omitempty"`
}

// ServerConfig defines HTTP listener settings
type ServerConfig struct {
	// Address is the listen address in host:port form. The host may be
	// empty to bind all interfaces.
	Address string `yaml:"address,omitempty"`
}

// DiscoveryConfig defines the external discovery backend connection
type DiscoveryConfig struct {
	// Endpoint is the base URL of the catalog, e.g. "http://consul.infra:8500"
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds each backend call as a duration string (e.g., "5s")
	Timeout string `yaml:"timeout,omitempty"`

	// CacheTTL is how long discovery responses are cached (e.g., "30s").
	// "off" disables the cache.
	CacheTTL string `yaml:"cacheTTL,omitempty"`

	// MaxTries caps retry attempts per backend call
	MaxTries uint `yaml:"maxTries,omitempty"`
}

// AuthzConfig defines Cedar-based access control settings
type AuthzConfig struct {
	// Enabled controls whether authorization is enforced
	Enabled bool `yaml:"enabled"`

	// PolicyFile is a path to a Cedar policy file. When empty the built-in
	// default policies are used.
	PolicyFile string `yaml:"policyFile,omitempty"`

	// ScopeMapping maps caller scopes to granted actions. When empty the
	// default mapping is used.
	ScopeMapping []ScopeMappingEntry `yaml:"scopeMapping,omitempty"`

	// AllowedTenants restricts which tenant ids may call the registry.
	// Empty means all tenants are allowed.
	AllowedTenants []string `yaml:"allowedTenants,omitempty"`
}

// ScopeMappingEntry maps a single caller scope to the actions it grants
type ScopeMappingEntry struct {
	Scope   string   `yaml:"scope"`
	Actions []string `yaml:"actions"`
}

// EventsConfig defines the lifecycle event publisher connection
type EventsConfig struct {
	// URL is the NATS server URL, e.g. "nats://nats.infra:4222"
	URL string `yaml:"url"`

	// SubjectPrefix namespaces published subjects. Defaults to
	// "plx.registry".
	SubjectPrefix string `yaml:"subjectPrefix,omitempty"`
}

// DefaultScopeMapping returns the built-in scope-to-action mapping used when
// authorization is enabled without a custom mapping.
func DefaultScopeMapping() []ScopeMappingEntry {
	return []ScopeMappingEntry{
		{Scope: "registry:read", Actions: []string{ActionRead}},
		{Scope: "registry:write", Actions: []string{ActionRead, ActionWrite}},
		{Scope: "registry:admin", Actions: []string{ActionRead, ActionWrite, ActionAdmin}},
	}
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	// As of now, this is required because there's no other options to load
	// configuration. Once we add more options, we can remove this check.
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetRegistryName returns the registry name, using "default" if not specified
func (c *Config) GetRegistryName() string {
	if c.RegistryName == "" {
		return "default"
	}
	return c.RegistryName
}

// GetListenAddress returns the configured listen address or the default
func (c *Config) GetListenAddress() string {
	if c.Server == nil || c.Server.Address == "" {
		return DefaultListenAddress
	}
	return c.Server.Address
}

// GetDrain returns the default drain interval. Validation guarantees the
// string parses, so a parse failure here falls back to the default.
func (c *Config) GetDrain() time.Duration {
	if c.Drain == "" {
		return DefaultDrain
	}
	d, err := time.ParseDuration(c.Drain)
	if err != nil {
		return DefaultDrain
	}
	return d
}

// GetTimeout returns the backend call timeout
func (d *DiscoveryConfig) GetTimeout() time.Duration {
	if d == nil || d.Timeout == "" {
		return DefaultDiscoveryTimeout
	}
	t, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return DefaultDiscoveryTimeout
	}
	return t
}

// GetCacheTTL returns the discovery cache TTL. "off" yields a negative
// duration, which disables caching.
func (d *DiscoveryConfig) GetCacheTTL() time.Duration {
	if d == nil || d.CacheTTL == "" {
		return DefaultDiscoveryCacheTTL
	}
	if d.CacheTTL == "off" {
		return -1
	}
	t, err := time.ParseDuration(d.CacheTTL)
	if err != nil {
		return DefaultDiscoveryCacheTTL
	}
	return t
}

// GetScopeMapping returns the configured mapping or the default
func (a *AuthzConfig) GetScopeMapping() []ScopeMappingEntry {
	if a == nil || len(a.ScopeMapping) == 0 {
		return DefaultScopeMapping()
	}
	return a.ScopeMapping
}

// GetSubjectPrefix returns the configured subject prefix or empty for the
// publisher's default
func (e *EventsConfig) GetSubjectPrefix() string {
	if e == nil {
		return ""
	}
	return e.SubjectPrefix
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateDrain(c.Drain); err != nil {
		return err
	}

	if c.Discovery != nil {
		if err := c.Discovery.validate(); err != nil {
			return err
		}
	}

	if c.Authz != nil {
		if err := c.Authz.validate(); err != nil {
			return err
		}
	}

	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}

	if c.Events != nil {
		if err := c.Events.validate(); err != nil {
			return err
		}
	}

	return nil
}

func validateDrain(drain string) error {
	if drain == "" {
		return nil
	}
	d, err := time.ParseDuration(drain)
	if err != nil {
		return fmt.Errorf("drain must be a valid duration (e.g., '30s', '1m'): %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("drain must be positive, got %s", drain)
	}
	return nil
}

// validate validates the discovery backend configuration
func (d *DiscoveryConfig) validate() error {
	if d.Endpoint == "" {
		return fmt.Errorf("discovery: endpoint is required")
	}

	parsed, err := url.Parse(d.Endpoint)
	if err != nil {
		return fmt.Errorf("discovery: endpoint is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("discovery: endpoint scheme must be http or https, got %q", parsed.Scheme)
	}

	if d.Timeout != "" {
		if _, err := time.ParseDuration(d.Timeout); err != nil {
			return fmt.Errorf("discovery: timeout must be a valid duration: %w", err)
		}
	}

	if d.CacheTTL != "" && d.CacheTTL != "off" {
		if _, err := time.ParseDuration(d.CacheTTL); err != nil {
			return fmt.Errorf("discovery: cacheTTL must be a valid duration or 'off': %w", err)
		}
	}

	return nil
}

// validate validates the authorization configuration
func (a *AuthzConfig) validate() error {
	if !a.Enabled {
		return nil
	}

	validActions := map[string]bool{
		ActionRead:  true,
		ActionWrite: true,
		ActionAdmin: true,
	}

	for i, entry := range a.ScopeMapping {
		if entry.Scope == "" {
			return fmt.Errorf("authz: scopeMapping[%d]: scope is required", i)
		}
		if len(entry.Actions) == 0 {
			return fmt.Errorf("authz: scopeMapping[%d] (%s): at least one action is required", i, entry.Scope)
		}
		for _, action := range entry.Actions {
			if !validActions[action] {
				return fmt.Errorf("authz: scopeMapping[%d] (%s): unknown action %q", i, entry.Scope, action)
			}
		}
	}

	return nil
}

// validate validates the events configuration
func (e *EventsConfig) validate() error {
	if e.URL == "" {
		return fmt.Errorf("events: url is required")
	}
	return nil
}
