// Package app provides the command-line entry points for the Plexus
// Registry API server.
package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plexushq/plexus-registry-server/internal/config"
	"github.com/plexushq/plexus-registry-server/pkg/logger"
	"github.com/plexushq/plexus-registry-server/pkg/versions"
)

var rootCmd = &cobra.Command{
	Use:               "plx-registry-api",
	DisableAutoGenTag: true,
	Short:             "Plexus platform registry server",
	Long: `Plexus platform registry server tracks the services, capabilities, routes
and versioned artifacts that exist on the platform, makes them discoverable,
and enforces their lifecycle rules.`,
	// Bare invocation prints help; serving requires the explicit subcommand.
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// NewRootCmd assembles the command tree and binds the environment.
func NewRootCmd() *cobra.Command {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, versionCmd)
	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		return printVersion(versions.GetVersionInfo(), format)
	},
}

func printVersion(info versions.VersionInfo, format string) error {
	if format == "json" {
		output, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format version info: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	logger.Info("plx-registry-api version",
		"version", info.Version,
		"commit", info.Commit,
		"built", info.BuildDate,
		"go", info.GoVersion,
		"platform", info.Platform)
	return nil
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}
