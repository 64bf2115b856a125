package fulfillment

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// WebhookController serves the two marketplace-facing endpoints: the landing
// redirect that provisions a purchase, and the lifecycle webhook.
type WebhookController struct {
	Logger      Logger
	Auth        WebhookAuthenticator
	Provisioner *Provisioner
	Config      Config
	Metrics     Metrics
}

// WebhookControllerOption customizes a WebhookController.
type WebhookControllerOption func(*WebhookController)

// WithControllerLogger overrides the logger.
func WithControllerLogger(logger Logger) WebhookControllerOption {
	return func(c *WebhookController) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithControllerMetrics overrides the metrics sink.
func WithControllerMetrics(metrics Metrics) WebhookControllerOption {
	return func(c *WebhookController) {
		if metrics != nil {
			c.Metrics = metrics
		}
	}
}

// NewWebhookController wires the controller with its collaborators.
func NewWebhookController(auth WebhookAuthenticator, provisioner *Provisioner, cfg Config, opts ...WebhookControllerOption) *WebhookController {
	c := &WebhookController{
		Logger:      defLogger{},
		Auth:        auth,
		Provisioner: provisioner,
		Config:      cfg,
		Metrics:     NoopMetrics{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// RegisterWebhookRoutes mounts the fulfillment endpoints on a fiber app.
func RegisterWebhookRoutes(app *fiber.App, controller *WebhookController) {
	app.Get("/landing", controller.Landing)
	app.Post("/landing", controller.Landing)
	app.Post("/webhook", controller.Webhook)
}

// Landing handles the marketplace purchase redirect. The token arrives as a
// query parameter; responses are human-facing HTML because the buyer's
// browser lands here.
func (ct *WebhookController) Landing(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	result, err := ct.Provisioner.Landing(c.UserContext(), token)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.TextCode == textCodeActivationFailed {
			subscriptionID, _ := richErr.Metadata["subscription_id"].(string)
			return c.Status(fiber.StatusInternalServerError).
				Type("html").
				SendString(landingFailureBody(subscriptionID, ct.Config.GetSupportEmail()))
		}
		if goerrors.IsNotFound(err) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		ct.Logger.Error("Landing failed", "error", err)
		return c.SendStatus(HTTPStatus(err))
	}

	if result.Status == LandingAlreadyProvisioned {
		return c.Redirect(ct.Config.GetHomepage(), fiber.StatusFound)
	}

	return c.Status(fiber.StatusOK).
		Type("html").
		SendString(landingSuccessBody(ct.Config.GetHomepage()))
}

// Webhook handles authenticated lifecycle deliveries. Authentication failures
// terminate the request before any audit row is written.
func (ct *WebhookController) Webhook(c *fiber.Ctx) error {
	claims, err := ct.Auth.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		ct.Logger.Error("Webhook caller rejected", "error", err)
		ct.Metrics.RecordAuthFailure(TextCode(err))
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	op, err := ParseOperation(c.Body())
	if err != nil {
		ct.Logger.Error("Webhook payload rejected", "error", err, "tid", claims.TenantID)
		return c.SendStatus(fiber.StatusBadRequest)
	}

	if err := ct.Provisioner.Apply(c.UserContext(), op); err != nil {
		if goerrors.IsNotFound(err) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		ct.Logger.Error("Webhook processing failed",
			"error", err, "tenant_id", op.TenantID(), "action", string(op.Action))
		return c.SendStatus(HTTPStatus(err))
	}

	return c.SendStatus(fiber.StatusOK)
}

func landingSuccessBody(homepage string) string {
	return fmt.Sprintf("<!DOCTYPE html><html><body>Your subscription has been activated! "+
		"You can now use the <a href='%s'>link</a> to access the portal using your "+
		"Azure AD credentials.</body></html>", homepage)
}

func landingFailureBody(subscriptionID, supportEmail string) string {
	return fmt.Sprintf("<!DOCTYPE html><html><body>Error activating subscription %s! "+
		"Please contact our support at <a href='mailto:%s'>%s</a></body></html>",
		subscriptionID, supportEmail, supportEmail)
}
