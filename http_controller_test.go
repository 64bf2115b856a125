package fulfillment_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fulfillment "github.com/goliatone/go-fulfillment"
	"github.com/goliatone/go-fulfillment/marketplace"
)

// authStub satisfies fulfillment.WebhookAuthenticator without real tokens.
type authStub struct {
	claims *fulfillment.WebhookClaims
	err    error
}

func (s *authStub) Authenticate(_ context.Context, _ string) (*fulfillment.WebhookClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

type webhookFixture struct {
	app    *fiber.App
	repo   fulfillment.RepositoryManager
	client *marketplace.MockClient
	auth   *authStub
}

func setupWebhookApp(t *testing.T, tenantID uuid.UUID) *webhookFixture {
	t.Helper()

	repo := setupRepo(t)
	client := marketplace.NewMockClient(tenantID)
	auth := &authStub{
		claims: &fulfillment.WebhookClaims{
			TenantID: testTenantID,
			AppID:    testISVAppID,
		},
	}

	provisioner := fulfillment.NewProvisioner(client, repo)
	controller := fulfillment.NewWebhookController(auth, provisioner, testConfig())

	app := fiber.New()
	fulfillment.RegisterWebhookRoutes(app, controller)

	return &webhookFixture{app: app, repo: repo, client: client, auth: auth}
}

func operationBody(action string, quantity int, tenantID uuid.UUID) string {
	return fmt.Sprintf(`{
		"action": %q,
		"quantity": %d,
		"subscription": {
			"beneficiary": {
				"emailId": "alex@example.com",
				"tenantId": %q
			}
		}
	}`, action, quantity, tenantID.String())
}

func TestLandingEndpointRequiresToken(t *testing.T) {
	fx := setupWebhookApp(t, uuid.New())

	resp, err := fx.app.Test(httptest.NewRequest("GET", "/landing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLandingEndpointActivates(t *testing.T) {
	tenantID := uuid.New()
	fx := setupWebhookApp(t, tenantID)

	resp, err := fx.app.Test(httptest.NewRequest("GET", "/landing?token=token", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "subscription has been activated")
	assert.Contains(t, string(body), "https://portal.example.com")

	customer, err := fx.repo.Customers().GetByTenantID(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, "email.com", customer.Domain)
}

func TestLandingEndpointRedirectsKnownTenant(t *testing.T) {
	fx := setupWebhookApp(t, uuid.New())

	resp, err := fx.app.Test(httptest.NewRequest("GET", "/landing?token=token", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = fx.app.Test(httptest.NewRequest("GET", "/landing?token=token", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://portal.example.com", resp.Header.Get("Location"))
}

func TestLandingEndpointUnresolvableToken(t *testing.T) {
	fx := setupWebhookApp(t, uuid.New())
	fx.client.ResolveErr = errors.New("nope")

	resp, err := fx.app.Test(httptest.NewRequest("GET", "/landing?token=bad", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLandingEndpointActivationFailure(t *testing.T) {
	fx := setupWebhookApp(t, uuid.New())
	fx.client.ActivateErr = errors.New("marketplace is down")

	resp, err := fx.app.Test(httptest.NewRequest("GET", "/landing?token=token", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mailto:support@example.com")
	assert.Contains(t, string(body), fx.client.Subscription.ID.String())
}

func TestWebhookEndpointRejectsUnauthenticatedCaller(t *testing.T) {
	tenantID := uuid.New()
	fx := setupWebhookApp(t, tenantID)
	fx.auth.err = fulfillment.ErrMissingToken

	req := httptest.NewRequest("POST", "/webhook",
		strings.NewReader(operationBody("ChangeQuantity", 2, tenantID)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// A rejected caller must leave no audit trace.
	logs, err := fx.repo.ProvisionLogs().ListByDomain(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestWebhookEndpointAppliesOperation(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	fx := setupWebhookApp(t, tenantID)

	_, err := fx.repo.Customers().Create(ctx, &fulfillment.Customer{
		TenantID: tenantID,
		Domain:   "example.com",
		Licenses: 1,
		Active:   true,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/webhook",
		strings.NewReader(operationBody("ChangeQuantity", 2, tenantID)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer whatever")

	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	customer, err := fx.repo.Customers().GetByTenantID(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 2, customer.Licenses)
}

func TestWebhookEndpointUnknownTenant(t *testing.T) {
	tenantID := uuid.New()
	fx := setupWebhookApp(t, tenantID)

	req := httptest.NewRequest("POST", "/webhook",
		strings.NewReader(operationBody("ChangeQuantity", 2, tenantID)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestWebhookEndpointRejectsBadPayload(t *testing.T) {
	fx := setupWebhookApp(t, uuid.New())

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader("not json"))
	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
