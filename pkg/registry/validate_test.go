package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateServiceName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		serviceName string
		want        string
		wantErr     bool
	}{
		{name: "simple", serviceName: "checkout", want: "checkout"},
		{name: "single character", serviceName: "x", want: "x"},
		{name: "hyphens and underscores", serviceName: "content_service-v2", want: "content_service-v2"},
		{name: "trimmed", serviceName: "  checkout  ", want: "checkout"},
		{name: "max length", serviceName: strings.Repeat("a", 200), want: strings.Repeat("a", 200)},
		{name: "empty", serviceName: "", wantErr: true},
		{name: "whitespace only", serviceName: "   ", wantErr: true},
		{name: "too long", serviceName: strings.Repeat("a", 201), wantErr: true},
		{name: "contains key separator", serviceName: "check.out", wantErr: true},
		{name: "contains space", serviceName: "check out", wantErr: true},
		{name: "leading hyphen", serviceName: "-checkout", wantErr: true},
		{name: "trailing underscore", serviceName: "checkout_", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ValidateServiceName(tt.serviceName)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateCapabilityName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		capabilityName string
		want           string
		wantErr        bool
	}{
		{name: "simple", capabilityName: "upload", want: "upload"},
		{name: "dotted", capabilityName: "files.upload.v2", want: "files.upload.v2"},
		{name: "trimmed", capabilityName: " upload ", want: "upload"},
		{name: "empty", capabilityName: "", wantErr: true},
		{name: "leading dot", capabilityName: ".upload", wantErr: true},
		{name: "trailing dot", capabilityName: "upload.", wantErr: true},
		{name: "too long", capabilityName: strings.Repeat("b", 201), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ValidateCapabilityName(tt.capabilityName)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	t.Parallel()

	t.Run("nil registration", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, validateRegistration(nil), ErrValidation)
	})

	t.Run("writes trimmed name back", func(t *testing.T) {
		t.Parallel()
		reg := &ServiceRegistration{ServiceName: "  checkout "}
		require.NoError(t, validateRegistration(reg))
		assert.Equal(t, "checkout", reg.ServiceName)
	})

	t.Run("only the name is required", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, validateRegistration(&ServiceRegistration{ServiceName: "checkout"}))
	})
}
