package telemetry

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

// DefaultMetricsInterval is the push interval for the OTLP periodic reader.
const DefaultMetricsInterval = 60 * time.Second

// newMeterProvider builds the meter provider for the given metrics section.
// A nil or disabled section yields a no-op provider. When promRegistry is
// non-nil, a Prometheus reader serves the same instruments over /metrics in
// addition to the OTLP push.
func newMeterProvider(ctx context.Context, res *resource.Resource, mc *MetricsConfig, endpoint string, insecure bool, promRegistry *promclient.Registry) (metric.MeterProvider, error) {
	if mc == nil || !mc.Enabled {
		logger.Info("metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}

	exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	providerOpts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(DefaultMetricsInterval)),
		),
	}
	if promRegistry != nil {
		promExporter, err := otelprom.New(otelprom.WithRegisterer(promRegistry))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(promExporter))
	}

	provider := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(provider)

	logger.Info("metrics initialized",
		"endpoint", endpoint,
		"prometheus", promRegistry != nil,
	)
	return provider, nil
}
