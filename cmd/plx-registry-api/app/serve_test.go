package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServeCommandFlags(t *testing.T) {
	t.Parallel()

	require.NotNil(t, serveCmd.Flags().Lookup("address"))
	require.NotNil(t, serveCmd.Flags().Lookup("config"))
}

func TestRootCommandSubcommands(t *testing.T) {
	root := NewRootCmd()

	names := make(map[string]bool)
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	require.True(t, names["serve"])
	require.True(t, names["version"])
}
