package app

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/plexushq/plexus-registry-server/internal/api"
	"github.com/plexushq/plexus-registry-server/internal/authz"
	"github.com/plexushq/plexus-registry-server/internal/config"
	"github.com/plexushq/plexus-registry-server/internal/telemetry"
	"github.com/plexushq/plexus-registry-server/pkg/discovery"
	"github.com/plexushq/plexus-registry-server/pkg/events"
	"github.com/plexushq/plexus-registry-server/pkg/logger"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// Option configures the registry app builder.
type Option func(*appConfig) error

// appConfig collects everything the builder needs. Component fields are
// injection points, primarily for tests; production wiring derives them
// from the configuration file.
type appConfig struct {
	config *config.Config

	// HTTP server settings
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Optional component overrides
	backend   discovery.Backend
	access    registry.AccessController
	publisher events.Publisher
	solutions registry.SolutionCreator
}

func baseConfig(opts ...Option) (*appConfig, error) {
	cfg := &appConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = &config.Config{}
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetListenAddress()
	}

	return cfg, nil
}

// New assembles a runnable registry app: telemetry providers, the optional
// discovery backend, access control, the event publisher, the registry
// facade and the HTTP server around it.
func New(ctx context.Context, opts ...Option) (*App, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.config.Telemetry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	backend := buildBackend(cfg)
	access, err := buildAccessController(cfg)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}
	publisher, err := buildPublisher(cfg)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	sink, err := telemetry.NewSink(tel.MeterProvider())
	if err != nil {
		publisher.Close()
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create registry telemetry sink: %w", err)
	}

	reg := registry.New(
		registry.WithBackend(backend),
		registry.WithBackendTimeout(cfg.config.Discovery.GetTimeout()),
		registry.WithAccessController(access),
		registry.WithTelemetry(sink),
		registry.WithPublisher(publisher),
		registry.WithDefaultDrain(cfg.config.GetDrain()),
	)

	httpServer, err := buildHTTPServer(cfg, reg, tel)
	if err != nil {
		publisher.Close()
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	return &App{
		config: cfg.config,
		components: &Components{
			Registry:  reg,
			Backend:   backend,
			Publisher: publisher,
			Telemetry: tel,
		},
		httpServer: httpServer,
	}, nil
}

// WithConfig sets the loaded configuration.
func WithConfig(c *config.Config) Option {
	return func(cfg *appConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress overrides the HTTP listen address from the configuration.
func WithAddress(addr string) Option {
	return func(cfg *appConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return fmt.Errorf("address is not a valid host:port: %s", addr)
		}
		host := parts[0]
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}
		if _, err := netip.ParseAddrPort(host + ":" + parts[1]); err != nil {
			return fmt.Errorf("address is not a valid host:port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middleware chain.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *appConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithBackend injects a discovery backend, bypassing the configuration.
// Used by tests to substitute a fake catalog.
func WithBackend(backend discovery.Backend) Option {
	return func(cfg *appConfig) error {
		cfg.backend = backend
		return nil
	}
}

// WithAccessController injects an access controller, bypassing the
// configuration.
func WithAccessController(access registry.AccessController) Option {
	return func(cfg *appConfig) error {
		cfg.access = access
		return nil
	}
}

// WithPublisher injects an event publisher, bypassing the configuration.
func WithPublisher(publisher events.Publisher) Option {
	return func(cfg *appConfig) error {
		cfg.publisher = publisher
		return nil
	}
}

// WithSolutionCreator wires the downstream collaborator invoked when an
// artifact is promoted.
func WithSolutionCreator(create registry.SolutionCreator) Option {
	return func(cfg *appConfig) error {
		cfg.solutions = create
		return nil
	}
}

// buildBackend returns the injected backend, or one built from the
// discovery section, or nil for cache-only mode.
func buildBackend(cfg *appConfig) discovery.Backend {
	if cfg.backend != nil {
		return cfg.backend
	}
	if cfg.config.Discovery == nil {
		logger.Info("no discovery backend configured, running cache-only")
		return nil
	}

	d := cfg.config.Discovery
	logger.Info("discovery backend configured",
		"endpoint", d.Endpoint, "timeout", d.GetTimeout(), "cacheTTL", d.GetCacheTTL())

	var opts []discovery.HTTPBackendOption
	opts = append(opts, discovery.WithCacheTTL(d.GetCacheTTL()))
	if d.MaxTries > 0 {
		opts = append(opts, discovery.WithMaxTries(d.MaxTries))
	}
	return discovery.NewHTTPBackend(d.Endpoint, opts...)
}

// buildAccessController returns the injected controller, or one built from
// the authz section, or nil for open-by-default.
func buildAccessController(cfg *appConfig) (registry.AccessController, error) {
	if cfg.access != nil {
		return cfg.access, nil
	}
	if cfg.config.Authz == nil || !cfg.config.Authz.Enabled {
		logger.Info("authorization disabled, all operations permitted")
		return nil, nil
	}

	controller, err := authz.NewControllerFromConfig(cfg.config.Authz)
	if err != nil {
		return nil, fmt.Errorf("failed to build access controller: %w", err)
	}
	logger.Info("cedar authorization enabled",
		"allowedTenants", len(cfg.config.Authz.AllowedTenants))
	return controller, nil
}

// buildPublisher returns the injected publisher, or a NATS publisher from
// the events section, or the discarding default.
func buildPublisher(cfg *appConfig) (events.Publisher, error) {
	if cfg.publisher != nil {
		return cfg.publisher, nil
	}
	if cfg.config.Events == nil {
		return events.NopPublisher{}, nil
	}

	publisher, err := events.Connect(cfg.config.Events.URL, cfg.config.Events.GetSubjectPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	logger.Info("lifecycle event publisher connected", "url", cfg.config.Events.URL)
	return publisher, nil
}

// buildHTTPServer assembles the chi router and the http.Server around it.
func buildHTTPServer(cfg *appConfig, reg registry.Registry, tel *telemetry.Telemetry) (*http.Server, error) {
	if cfg.middlewares == nil {
		cfg.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(cfg.requestTimeout),
			api.LoggingMiddleware,
			api.UserContextMiddleware,
		}
	}

	// Telemetry middlewares go first so every request is measured, even
	// ones the rest of the chain rejects.
	metricsMiddleware, err := telemetry.MetricsMiddleware(tel.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	chain := []func(http.Handler) http.Handler{
		telemetry.TracingMiddleware(tel.TracerProvider()),
	}
	if metricsMiddleware != nil {
		chain = append(chain, metricsMiddleware)
	}
	chain = append(chain, cfg.middlewares...)

	router := api.NewServer(reg,
		api.WithMiddlewares(chain...),
		api.WithMetricsHandler(tel.PrometheusHandler()),
		api.WithSolutionCreator(cfg.solutions),
	)

	return &http.Server{
		Addr:         cfg.address,
		Handler:      router,
		ReadTimeout:  cfg.readTimeout,
		WriteTimeout: cfg.writeTimeout,
		IdleTimeout:  cfg.idleTimeout,
	}, nil
}
