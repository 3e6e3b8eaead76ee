package app

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	registryapp "github.com/plexushq/plexus-registry-server/internal/app"
	"github.com/plexushq/plexus-registry-server/internal/config"
	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the registry API server",
	Long: `Start the registry API server.

The server takes an optional configuration file (--config) specifying the
listen address, the external discovery backend, access control, telemetry
and the lifecycle event publisher. Without one the server runs cache-only
with open access, which is a fully supported mode.

See the examples/ directory for sample configurations.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides configuration)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		logger.Errorf("Failed to bind address flag: %v", err)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		logger.Errorf("Failed to bind config flag: %v", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	if configPath := viper.GetString("config"); configPath != "" {
		loaded, err := config.LoadConfig(config.WithConfigPath(configPath))
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		logger.Infof("Loaded configuration from %s (registry: %s)",
			configPath, cfg.GetRegistryName())
	} else {
		logger.Info("no configuration file given, using defaults")
	}

	opts := []registryapp.Option{registryapp.WithConfig(cfg)}
	if address := viper.GetString("address"); address != "" {
		opts = append(opts, registryapp.WithAddress(address))
	}

	app, err := registryapp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	logger.Infof("Starting registry API server on %s", app.HTTPServer().Addr)
	return app.Run(ctx)
}
