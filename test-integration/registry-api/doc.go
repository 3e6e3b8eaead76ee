// Package integration provides integration tests for the Plexus Registry API
// Server. These tests start the full application, HTTP listener included, and
// exercise the registry surface end to end: service registration and
// discovery, capability and route derivation, the artifact workflow, and
// degraded operation when the discovery backend fails.
package integration
