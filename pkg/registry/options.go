package registry

import (
	"time"

	"github.com/plexushq/plexus-registry-server/pkg/discovery"
	"github.com/plexushq/plexus-registry-server/pkg/events"
)

// DefaultDrainInterval is the drain wait used by GracefulShutdown when the
// caller does not supply one.
const DefaultDrainInterval = 30 * time.Second

type options struct {
	backend        discovery.Backend
	backendTimeout time.Duration
	store          ArtifactStore
	access         AccessController
	telemetry      TelemetrySink
	publisher      events.Publisher
	clock          func() time.Time
	defaultDrain   time.Duration
}

// Option configures the registry facade.
type Option func(*options)

// WithBackend wires the external discovery backend. Nil (the default) keeps
// the registry in cache-only mode.
func WithBackend(backend discovery.Backend) Option {
	return func(o *options) {
		o.backend = backend
	}
}

// WithBackendTimeout bounds each discovery backend call.
func WithBackendTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.backendTimeout = timeout
	}
}

// WithArtifactStore swaps the artifact storage seam; the default is the
// in-memory store.
func WithArtifactStore(store ArtifactStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAccessController enables permission and tenant checks on facade
// operations carrying a UserContext.
func WithAccessController(access AccessController) Option {
	return func(o *options) {
		o.access = access
	}
}

// WithTelemetry wires the operation and health metric sink.
func WithTelemetry(sink TelemetrySink) Option {
	return func(o *options) {
		if sink != nil {
			o.telemetry = sink
		}
	}
}

// WithPublisher wires the lifecycle event publisher.
func WithPublisher(publisher events.Publisher) Option {
	return func(o *options) {
		if publisher != nil {
			o.publisher = publisher
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithDefaultDrain sets the drain wait used when GracefulShutdown is called
// without one.
func WithDefaultDrain(drain time.Duration) Option {
	return func(o *options) {
		o.defaultDrain = drain
	}
}
