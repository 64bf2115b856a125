package marketplace

import (
	"context"
	"sync"

	"github.com/google/uuid"

	fulfillment "github.com/goliatone/go-fulfillment"
)

// ActivationCall records one activation request received by the mock.
type ActivationCall struct {
	SubscriptionID uuid.UUID
	Plan           fulfillment.SubscriberPlan
}

// MockClient is an in-memory MarketplaceClient for development and tests.
// Every purchase token resolves to the configured subscription; errors can be
// injected per call.
type MockClient struct {
	mu sync.Mutex

	Subscription *fulfillment.Subscription
	ResolveErr   error
	ActivateErr  error

	resolved    []string
	activations []ActivationCall
}

var _ fulfillment.MarketplaceClient = (*MockClient)(nil)

// NewMockClient returns a mock resolving every token to a ten-seat
// subscription held by the given tenant.
func NewMockClient(tenantID uuid.UUID) *MockClient {
	return &MockClient{
		Subscription: &fulfillment.Subscription{
			ID:       uuid.New(),
			Name:     "sub",
			OfferID:  "offer",
			PlanID:   "plan",
			Quantity: 10,
			Beneficiary: fulfillment.Beneficiary{
				EmailID:  "alex@email.com",
				TenantID: tenantID,
			},
		},
	}
}

// ResolveSubscription satisfies fulfillment.MarketplaceClient.
func (m *MockClient) ResolveSubscription(_ context.Context, purchaseToken string) (*fulfillment.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}

	m.resolved = append(m.resolved, purchaseToken)
	sub := *m.Subscription
	return &sub, nil
}

// ActivateSubscription satisfies fulfillment.MarketplaceClient.
func (m *MockClient) ActivateSubscription(_ context.Context, subscriptionID uuid.UUID, plan fulfillment.SubscriberPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ActivateErr != nil {
		return m.ActivateErr
	}

	m.activations = append(m.activations, ActivationCall{
		SubscriptionID: subscriptionID,
		Plan:           plan,
	})
	return nil
}

// Activations returns the activation calls received so far.
func (m *MockClient) Activations() []ActivationCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ActivationCall, len(m.activations))
	copy(out, m.activations)
	return out
}

// ResolvedTokens returns the purchase tokens resolved so far.
func (m *MockClient) ResolvedTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.resolved))
	copy(out, m.resolved)
	return out
}
