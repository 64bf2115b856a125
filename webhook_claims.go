package fulfillment

import (
	"github.com/golang-jwt/jwt/v5"
)

// WebhookClaims is the claim set carried by marketplace webhook tokens.
type WebhookClaims struct {
	jwt.RegisteredClaims
	// TenantID is the issuer tenant (`tid`).
	TenantID string `json:"tid,omitempty"`
	// AppID is the calling application id (`appid`, v1 tokens).
	AppID string `json:"appid,omitempty"`
	// AuthorizedParty is the calling application id (`azp`, v2 tokens).
	AuthorizedParty string `json:"azp,omitempty"`
}

// CallerAppID returns the calling application id, preferring `appid` and
// falling back to `azp`.
func (c *WebhookClaims) CallerAppID() string {
	if c.AppID != "" {
		return c.AppID
	}
	return c.AuthorizedParty
}

// PrimaryAudience returns the first audience value, or "".
func (c *WebhookClaims) PrimaryAudience() string {
	if len(c.Audience) > 0 {
		return c.Audience[0]
	}
	return ""
}
