package providers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError_Error(t *testing.T) {
	err := NewProviderError("openai", "rate_limit", "too many requests", 429, true, nil)

	assert.Equal(t, "openai provider error [rate_limit]: too many requests", err.Error())
	assert.True(t, err.Retryable)
	assert.Equal(t, 429, err.StatusCode)
}

func TestProviderError_Unwrap(t *testing.T) {
	baseErr := errors.New("connection reset")
	err := NewProviderError("openai", "network", "request failed", 0, true, baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(err))
	assert.True(t, errors.Is(err, baseErr))
}

func TestProviderError_As(t *testing.T) {
	wrapped := NewProviderError("openai", "server_error", "upstream failed", 503, true, nil)

	var provErr *ProviderError
	require.True(t, errors.As(error(wrapped), &provErr))
	assert.Equal(t, "openai", provErr.Provider)
	assert.Equal(t, "server_error", provErr.Code)
}

func TestMessageRoles(t *testing.T) {
	// role strings are part of the provider wire contract
	assert.Equal(t, "system", RoleSystem)
	assert.Equal(t, "user", RoleUser)
	assert.Equal(t, "assistant", RoleAssistant)
}
