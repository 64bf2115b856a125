// Package marketplace provides the production and mock implementations of the
// fulfillment.MarketplaceClient boundary.
package marketplace

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	fulfillment "github.com/goliatone/go-fulfillment"
)

const (
	defaultBaseURL = "https://marketplaceapi.microsoft.com/api/saas"
	apiVersion     = "2018-08-31"

	purchaseTokenHeader = "x-ms-marketplace-token"
)

// CredentialProvider returns a bearer token for the marketplace API. Callers
// plug in their identity platform's client-credential flow.
type CredentialProvider func(ctx context.Context) (string, error)

// Client talks to the marketplace SaaS fulfillment REST API.
type Client struct {
	http       *resty.Client
	credential CredentialProvider
	baseURL    string
}

var _ fulfillment.MarketplaceClient = (*Client)(nil)

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint (useful against sandboxes or tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *resty.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// NewClient builds a fulfillment API client authenticating every call through
// the credential provider.
func NewClient(credential CredentialProvider, opts ...ClientOption) *Client {
	c := &Client{
		http:       resty.New(),
		credential: credential,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// resolveResponse is the wire shape of the resolve call.
type resolveResponse struct {
	ID               uuid.UUID `json:"id"`
	SubscriptionName string    `json:"subscriptionName"`
	OfferID          string    `json:"offerId"`
	PlanID           string    `json:"planId"`
	Quantity         int       `json:"quantity"`
	Subscription     struct {
		Beneficiary fulfillment.Beneficiary `json:"beneficiary"`
	} `json:"subscription"`
}

// ResolveSubscription exchanges an opaque purchase token for the subscription
// it was minted for.
func (c *Client) ResolveSubscription(ctx context.Context, purchaseToken string) (*fulfillment.Subscription, error) {
	token, err := c.credential(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "marketplace credential lookup failed")
	}

	out := &resolveResponse{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader(purchaseTokenHeader, purchaseToken).
		SetQueryParam("api-version", apiVersion).
		SetResult(out).
		Post(c.baseURL + "/subscriptions/resolve")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "marketplace resolve call failed")
	}
	if resp.IsError() {
		return nil, goerrors.New("marketplace resolve call returned an error", goerrors.CategoryOperation).
			WithMetadata(map[string]any{"status": resp.StatusCode()})
	}

	return &fulfillment.Subscription{
		ID:          out.ID,
		Name:        out.SubscriptionName,
		OfferID:     out.OfferID,
		PlanID:      out.PlanID,
		Quantity:    out.Quantity,
		Beneficiary: out.Subscription.Beneficiary,
	}, nil
}

// ActivateSubscription activates a resolved subscription with its plan and
// seat count.
func (c *Client) ActivateSubscription(ctx context.Context, subscriptionID uuid.UUID, plan fulfillment.SubscriberPlan) error {
	token, err := c.credential(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "marketplace credential lookup failed")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("api-version", apiVersion).
		SetBody(plan).
		Post(fmt.Sprintf("%s/subscriptions/%s/activate", c.baseURL, subscriptionID))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "marketplace activate call failed")
	}
	if resp.IsError() {
		return goerrors.New("marketplace activate call returned an error", goerrors.CategoryOperation).
			WithMetadata(map[string]any{
				"status":          resp.StatusCode(),
				"subscription_id": subscriptionID.String(),
			})
	}

	return nil
}
