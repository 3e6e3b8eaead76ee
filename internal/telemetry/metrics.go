package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

const (
	// RegistryMetricsMeterName is the name used for the registry metrics meter
	RegistryMetricsMeterName = "github.com/plexushq/plexus-registry-server/registry"
)

// Health metric names the registry facade reports, each backed by its own
// gauge. Anything else lands on the generic health gauge with a name label.
const (
	healthServices     = "services_registered"
	healthCapabilities = "capabilities_registered"
	healthRoutes       = "routes_registered"
	healthArtifacts    = "artifacts_tracked"
)

// RegistryMetrics holds the OpenTelemetry instruments for registry operation
// and health metrics.
type RegistryMetrics struct {
	operationsStarted metric.Int64Counter
	operationsTotal   metric.Int64Counter

	servicesRegistered     metric.Float64Gauge
	capabilitiesRegistered metric.Float64Gauge
	routesRegistered       metric.Float64Gauge
	artifactsTracked       metric.Float64Gauge
	health                 metric.Float64Gauge
}

// NewRegistryMetrics creates a new RegistryMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRegistryMetrics(provider metric.MeterProvider) (*RegistryMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RegistryMetricsMeterName)

	operationsStarted, err := meter.Int64Counter(
		"plx_reg_operations_started_total",
		metric.WithDescription("Number of registry operations started"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	operationsTotal, err := meter.Int64Counter(
		"plx_reg_operations_total",
		metric.WithDescription("Number of registry operations completed"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	servicesRegistered, err := meter.Float64Gauge(
		"plx_reg_services_registered",
		metric.WithDescription("Number of services currently registered"),
		metric.WithUnit("{service}"),
	)
	if err != nil {
		return nil, err
	}

	capabilitiesRegistered, err := meter.Float64Gauge(
		"plx_reg_capabilities_registered",
		metric.WithDescription("Number of capabilities currently registered"),
		metric.WithUnit("{capability}"),
	)
	if err != nil {
		return nil, err
	}

	routesRegistered, err := meter.Float64Gauge(
		"plx_reg_routes_registered",
		metric.WithDescription("Number of routes currently derived from capabilities"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return nil, err
	}

	artifactsTracked, err := meter.Float64Gauge(
		"plx_reg_artifacts_tracked",
		metric.WithDescription("Number of artifacts currently tracked"),
		metric.WithUnit("{artifact}"),
	)
	if err != nil {
		return nil, err
	}

	health, err := meter.Float64Gauge(
		"plx_reg_health",
		metric.WithDescription("Generic registry health observations by name"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{
		operationsStarted:      operationsStarted,
		operationsTotal:        operationsTotal,
		servicesRegistered:     servicesRegistered,
		capabilitiesRegistered: capabilitiesRegistered,
		routesRegistered:       routesRegistered,
		artifactsTracked:       artifactsTracked,
		health:                 health,
	}, nil
}

// RecordOperationStarted counts the start of a registry operation.
func (m *RegistryMetrics) RecordOperationStarted(ctx context.Context, operation string) {
	if m == nil || m.operationsStarted == nil {
		return
	}

	m.operationsStarted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordOperationCompleted counts a finished registry operation with its outcome.
func (m *RegistryMetrics) RecordOperationCompleted(ctx context.Context, operation string, success bool) {
	if m == nil || m.operationsTotal == nil {
		return
	}

	m.operationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	))
}

// RecordHealth records a named health observation.
func (m *RegistryMetrics) RecordHealth(ctx context.Context, name string, value float64, labels map[string]string) {
	if m == nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(labels)+1)
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}

	switch name {
	case healthServices:
		m.servicesRegistered.Record(ctx, value, metric.WithAttributes(attrs...))
	case healthCapabilities:
		m.capabilitiesRegistered.Record(ctx, value, metric.WithAttributes(attrs...))
	case healthRoutes:
		m.routesRegistered.Record(ctx, value, metric.WithAttributes(attrs...))
	case healthArtifacts:
		m.artifactsTracked.Record(ctx, value, metric.WithAttributes(attrs...))
	default:
		attrs = append(attrs, attribute.String("name", name))
		m.health.Record(ctx, value, metric.WithAttributes(attrs...))
	}
}

// Sink adapts RegistryMetrics to the registry's telemetry contract.
type Sink struct {
	metrics *RegistryMetrics
}

var _ registry.TelemetrySink = (*Sink)(nil)

// NewSink creates the telemetry sink handed to the registry facade.
// A nil provider yields a sink that records nothing.
func NewSink(provider metric.MeterProvider) (*Sink, error) {
	metrics, err := NewRegistryMetrics(provider)
	if err != nil {
		return nil, err
	}
	return &Sink{metrics: metrics}, nil
}

// OperationStarted implements registry.TelemetrySink.
func (s *Sink) OperationStarted(ctx context.Context, operation string) {
	s.metrics.RecordOperationStarted(ctx, operation)
}

// OperationCompleted implements registry.TelemetrySink.
func (s *Sink) OperationCompleted(ctx context.Context, operation string, success bool) {
	s.metrics.RecordOperationCompleted(ctx, operation, success)
}

// RecordHealthMetric implements registry.TelemetrySink.
func (s *Sink) RecordHealthMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	s.metrics.RecordHealth(ctx, name, value, labels)
}
