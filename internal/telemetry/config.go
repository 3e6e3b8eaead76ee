package telemetry

import (
	"errors"
	"fmt"
)

const (
	// DefaultServiceName identifies this server when none is configured.
	DefaultServiceName = "plx-registry-api"

	// DefaultEndpoint is the OTLP collector address, host:port. The HTTP
	// exporter appends /v1/traces and /v1/metrics itself.
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling keeps 5% of traces, a workable default for a registry
	// serving constant discovery polls.
	DefaultSampling = 0.05
)

// Config is the telemetry section of the server configuration. A disabled or
// absent section leaves the server on no-op providers.
type Config struct {
	Enabled        bool   `yaml:"enabled"`
	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty"`

	// Insecure allows plain HTTP to the collector. Development only.
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls span export. Sampling is a ratio in [0,1]; zero is
// indistinguishable from unset in YAML and selects DefaultSampling.
type TracingConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls metric export. Prometheus additionally exposes the
// collected metrics on the server's /metrics endpoint; OTLP export continues
// regardless.
type MetricsConfig struct {
	Enabled    bool `yaml:"enabled"`
	Prometheus bool `yaml:"prometheus,omitempty"`
}

// GetServiceName returns the configured service name or the default.
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the configured version, or "unknown".
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return "unknown"
	}
	return c.ServiceVersion
}

// GetEndpoint returns the configured collector endpoint or the default.
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// GetInsecure reports whether plain HTTP to the collector is allowed.
func (c *Config) GetInsecure() bool {
	return c.Insecure
}

// GetSampling returns the sampling ratio, substituting the default for zero.
// Range checking happens in Validate, not here.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0.0 {
		return DefaultSampling
	}
	return c.Sampling
}

// PrometheusEnabled reports whether the Prometheus endpoint should be wired.
func (c *Config) PrometheusEnabled() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Enabled && c.Metrics.Prometheus
}

// Validate checks the section. Nil or disabled sections are always valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	return errors.Join(errs...)
}

// Validate checks the tracing section.
func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if c.Sampling < 0 || c.Sampling > 1.0 {
		return fmt.Errorf("sampling must be between 0.0 and 1.0, got %f", c.Sampling)
	}
	return nil
}

// Validate checks the metrics section. Every combination of flags is valid
// today; the method exists so the config surface stays uniform.
func (c *MetricsConfig) Validate() error {
	return nil
}
