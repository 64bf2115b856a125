package fulfillment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fulfillment "github.com/goliatone/go-fulfillment"
)

func TestWebhookConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())
}

func TestWebhookConfigValidateRejectsBadValues(t *testing.T) {
	cfg := testConfig()
	cfg.TenantID = "not-a-uuid"
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.SupportEmail = "nope"
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.ClientID = ""
	assert.Error(t, cfg.Validate())
}

func TestWebhookConfigKeySetURLFallback(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "https://keys.example.com/discovery/v2.0/keys", cfg.GetKeySetURL())

	cfg.KeySetURL = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, fulfillment.DefaultKeySetURL, cfg.GetKeySetURL())
}
