package fulfillment

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

// Logger is the minimal logging surface the package depends on. Arguments are
// alternating key/value pairs appended to the message.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config exposes the expectations used to authorize webhook callers and to
// render landing responses.
type Config interface {
	// GetClientID is the app registration id the webhook tokens must be
	// addressed to (the `aud` claim).
	GetClientID() string
	// GetTenantID is the issuer tenant webhook tokens must originate from
	// (the `tid` claim).
	GetTenantID() string
	// GetMarketplaceISV is the application id of the marketplace service
	// allowed to call the webhook (the `appid`/`azp` claim).
	GetMarketplaceISV() string
	GetHomepage() string
	GetSupportEmail() string
	// GetKeySetURL is the discovery endpoint publishing the current signing
	// keys.
	GetKeySetURL() string
}

// KeyResolver resolves the RSA public key matching a token's signing key id
// against a remote key set.
type KeyResolver interface {
	ResolveSigningKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// WebhookAuthenticator authenticates the Authorization header of an inbound
// lifecycle webhook and returns the validated claim set.
type WebhookAuthenticator interface {
	Authenticate(ctx context.Context, authorizationHeader string) (*WebhookClaims, error)
}

// Beneficiary identifies who a subscription is held for.
type Beneficiary struct {
	EmailID  string    `json:"emailId"`
	TenantID uuid.UUID `json:"tenantId"`
}

// Validate satisfies validation.Validatable.
func (b Beneficiary) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.EmailID, validation.Required, is.Email),
		validation.Field(&b.TenantID, validation.By(requireTenantID)),
	)
}

// Domain returns the part of the beneficiary email after the last '@', or ""
// when there is none.
func (b Beneficiary) Domain() string {
	if i := strings.LastIndex(b.EmailID, "@"); i >= 0 && i < len(b.EmailID)-1 {
		return b.EmailID[i+1:]
	}
	return ""
}

func requireTenantID(value any) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return fmt.Errorf("must be a non-zero UUID")
	}
	return nil
}

// Subscription is the descriptor a purchase token resolves to. It is transient;
// only the derived Customer and ProvisionLog rows are persisted.
type Subscription struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"subscriptionName,omitempty"`
	OfferID     string      `json:"offerId,omitempty"`
	PlanID      string      `json:"planId"`
	Quantity    int         `json:"quantity"`
	Beneficiary Beneficiary `json:"beneficiary"`
}

// SubscriberPlan is the plan/quantity pair sent on activation.
type SubscriberPlan struct {
	PlanID   string `json:"planId"`
	Quantity int    `json:"quantity"`
}

// MarketplaceClient is the capability boundary to the marketplace fulfillment
// API. Production callers use the marketplace subpackage; tests use its mock.
type MarketplaceClient interface {
	ResolveSubscription(ctx context.Context, purchaseToken string) (*Subscription, error)
	ActivateSubscription(ctx context.Context, subscriptionID uuid.UUID, plan SubscriberPlan) error
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Printf("[ERR] FULFILLMENT "+newline(msg), args...)
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Printf("[INF] FULFILLMENT "+newline(msg), args...)
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Printf("[DBG] FULFILLMENT "+newline(msg), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
