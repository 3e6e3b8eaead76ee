// Package main is the entry point for the Plexus Registry API server.
package main

import (
	"os"

	"github.com/plexushq/plexus-registry-server/cmd/plx-registry-api/app"
	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

func main() {
	logger.Initialize()
	defer logger.Sync()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
