package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvDefaults(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY_SECRET_KEY", "")

	var cfg CheckoutAPI
	require.NoError(t, ParseEnv(&cfg))

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "/sucesso", cfg.SuccessPath)
	assert.Equal(t, "/", cfg.CancelPath)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.GatewaySecretKey, "a missing credential is not a parse error")
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY_SECRET_KEY", "sk_test_123")
	t.Setenv("PAYMENT_GATEWAY_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "debug")

	var cfg CheckoutAPI
	require.NoError(t, ParseEnv(&cfg))
	assert.Equal(t, "sk_test_123", cfg.GatewaySecretKey)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("CHECKOUT_SUBMIT_TIMEOUT", "soon")

	var cfg Storefront
	assert.Error(t, ParseEnv(&cfg))
}
