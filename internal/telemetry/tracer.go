package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

// newTracerProvider builds the tracer provider for the given tracing section.
// A nil or disabled section yields a no-op provider. The SDK provider is
// installed globally together with W3C trace context propagation.
func newTracerProvider(ctx context.Context, res *resource.Resource, tc *TracingConfig, endpoint string, insecure bool) (trace.TracerProvider, error) {
	if tc == nil || !tc.Enabled {
		logger.Info("tracing disabled, using no-op tracer provider")
		return noop.NewTracerProvider(), nil
	}

	exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
		logger.Warn("trace export uses an insecure connection")
	}
	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(tc.GetSampling())),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing initialized",
		"endpoint", endpoint,
		"sampling_ratio", tc.GetSampling(),
	)
	return provider, nil
}
