package fulfillment

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// DefaultKeySetURL is the common discovery endpoint for webhook signing keys.
const DefaultKeySetURL = "https://login.microsoftonline.com/common/discovery/v2.0/keys"

// WebhookConfig is a plain-struct Config implementation, convenient for
// loading from a file or environment.
type WebhookConfig struct {
	ClientID       string `json:"client_id"`
	TenantID       string `json:"tenant_id"`
	MarketplaceISV string `json:"marketplace_isv"`
	Homepage       string `json:"homepage"`
	SupportEmail   string `json:"support_email"`
	KeySetURL      string `json:"key_set_url"`
}

var _ Config = (*WebhookConfig)(nil)

// Validate satisfies validation.Validatable.
func (c WebhookConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.TenantID, validation.Required, is.UUID),
		validation.Field(&c.MarketplaceISV, validation.Required),
		validation.Field(&c.Homepage, validation.Required, is.URL),
		validation.Field(&c.SupportEmail, validation.Required, is.Email),
		validation.Field(&c.KeySetURL, is.URL),
	)
}

func (c *WebhookConfig) GetClientID() string       { return c.ClientID }
func (c *WebhookConfig) GetTenantID() string       { return c.TenantID }
func (c *WebhookConfig) GetMarketplaceISV() string { return c.MarketplaceISV }
func (c *WebhookConfig) GetHomepage() string       { return c.Homepage }
func (c *WebhookConfig) GetSupportEmail() string   { return c.SupportEmail }

// GetKeySetURL falls back to the common discovery endpoint when unset.
func (c *WebhookConfig) GetKeySetURL() string {
	if c.KeySetURL == "" {
		return DefaultKeySetURL
	}
	return c.KeySetURL
}
