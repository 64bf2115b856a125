package fulfillment

import (
	"context"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// LandingStatus is the outcome of a landing request.
type LandingStatus string

const (
	// LandingActivated means a new customer was provisioned and activated.
	LandingActivated LandingStatus = "activated"
	// LandingAlreadyProvisioned means the tenant already had a customer row;
	// the request was a no-op.
	LandingAlreadyProvisioned LandingStatus = "already_provisioned"
)

// LandingResult reports what a landing request did.
type LandingResult struct {
	Status       LandingStatus
	Subscription *Subscription
}

// Provisioner applies marketplace events to customer records. It performs no
// locking of its own: concurrent deliveries for the same tenant race at the
// store, which resolves them last-write-wins.
type Provisioner struct {
	client  MarketplaceClient
	repo    RepositoryManager
	logger  Logger
	metrics Metrics
	now     func() time.Time
}

// ProvisionerOption customizes a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithProvisionerLogger overrides the logger.
func WithProvisionerLogger(logger Logger) ProvisionerOption {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProvisionerMetrics overrides the metrics sink.
func WithProvisionerMetrics(metrics Metrics) ProvisionerOption {
	return func(p *Provisioner) {
		if metrics != nil {
			p.metrics = metrics
		}
	}
}

// WithProvisionerClock injects a custom clock (useful for tests).
func WithProvisionerClock(clock func() time.Time) ProvisionerOption {
	return func(p *Provisioner) {
		if clock != nil {
			p.now = clock
		}
	}
}

// NewProvisioner wires the state machine with its collaborators.
func NewProvisioner(client MarketplaceClient, repo RepositoryManager, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		client:  client,
		repo:    repo,
		logger:  defLogger{},
		metrics: NoopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Landing provisions a tenant from a marketplace purchase token. The customer
// row is committed before the external activation call on purpose: a failed
// activation leaves a traceable customer/log pair for reconciliation instead
// of silently dropping the request.
func (p *Provisioner) Landing(ctx context.Context, purchaseToken string) (*LandingResult, error) {
	if purchaseToken == "" {
		return nil, ErrMissingPurchaseToken
	}
	start := p.now()

	p.logger.Info("Landing with purchase token", "token", purchaseToken)

	sub, err := p.client.ResolveSubscription(ctx, purchaseToken)
	if err != nil {
		p.logger.Error("Landing could not resolve purchase token", "error", err)
		p.metrics.RecordLanding("not_resolved")
		clone := ErrSubscriptionNotResolved.Clone()
		clone.Source = err
		return nil, clone
	}

	tenantID := sub.Beneficiary.TenantID
	domain := sub.Beneficiary.Domain()

	existing, err := p.repo.Customers().GetByTenantID(ctx, tenantID)
	if err != nil && !goerrors.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		p.logger.Info("Landing tenant already provisioned",
			"tenant_id", tenantID.String(), "domain", domain)
		p.metrics.RecordLanding(string(LandingAlreadyProvisioned))
		return &LandingResult{Status: LandingAlreadyProvisioned, Subscription: sub}, nil
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize subscription payload")
	}

	row, err := p.repo.ProvisionLogs().Create(ctx, &ProvisionLog{
		Action:    ActionCreate,
		Domain:    domain,
		Status:    StatusInProgress,
		Payload:   string(payload),
		Timestamp: p.now(),
	})
	if err != nil {
		return nil, err
	}

	if _, err := p.repo.Customers().Create(ctx, &Customer{
		TenantID: tenantID,
		Domain:   domain,
	}); err != nil {
		p.logger.Error("Landing failed to insert customer record",
			"error", err, "tenant_id", tenantID.String(), "domain", domain)
		p.failLog(ctx, row.ID)
		return nil, err
	}

	if err := p.client.ActivateSubscription(ctx, sub.ID, SubscriberPlan{
		PlanID:   sub.PlanID,
		Quantity: sub.Quantity,
	}); err != nil {
		p.logger.Error("Error activating subscription",
			"error", err, "tenant_id", tenantID.String(), "domain", domain)
		p.failLog(ctx, row.ID)
		p.metrics.RecordLanding("activation_failed")
		clone := ErrActivationFailed.Clone()
		clone.Source = err
		return nil, clone.WithMetadata(map[string]any{
			"subscription_id": sub.ID.String(),
			"tenant_id":       tenantID.String(),
			"domain":          domain,
		})
	}

	if _, err := p.repo.ProvisionLogs().Finalize(ctx, row.ID, StatusSucceeded); err != nil {
		p.logger.Error("Landing could not finalize provision log",
			"error", err, "id", row.ID.String())
	}

	p.metrics.RecordLanding(string(LandingActivated))
	p.metrics.RecordProvisioningDuration("landing", p.now().Sub(start))

	return &LandingResult{Status: LandingActivated, Subscription: sub}, nil
}

// Apply executes one authenticated lifecycle event against the customer
// record. The audit row is written and committed before the lookup so even a
// delivery for an unknown tenant leaves a Failed trace.
func (p *Provisioner) Apply(ctx context.Context, op *Operation) error {
	if op == nil {
		return goerrors.New("operation payload is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	start := p.now()

	tenantID := op.Subscription.Beneficiary.TenantID
	domain := op.Subscription.Beneficiary.Domain()

	action := ActionModify
	if op.Action == ActionUnsubscribe {
		action = ActionDelete
	}

	payload, err := json.Marshal(op)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize operation payload")
	}

	row, err := p.repo.ProvisionLogs().Create(ctx, &ProvisionLog{
		Action:    action,
		Domain:    domain,
		Status:    StatusInProgress,
		Payload:   string(payload),
		Licenses:  op.LicenseQuantity(),
		Timestamp: p.now(),
	})
	if err != nil {
		return err
	}

	customer, err := p.repo.Customers().GetByTenantID(ctx, tenantID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			p.logger.Error("Customer not found for tenant", "tenant_id", tenantID.String())
			p.failLog(ctx, row.ID)
			p.metrics.RecordWebhookEvent(string(op.Action), "not_found")
			return err
		}
		p.failLog(ctx, row.ID)
		return err
	}

	if err := p.transition(ctx, customer, op); err != nil {
		p.logger.Error("Error modifying subscription",
			"error", err, "tenant_id", tenantID.String(), "domain", domain)
		p.failLog(ctx, row.ID)
		p.metrics.RecordWebhookEvent(string(op.Action), "error")
		return err
	}

	if _, err := p.repo.ProvisionLogs().Finalize(ctx, row.ID, StatusSucceeded); err != nil {
		p.logger.Error("Apply could not finalize provision log",
			"error", err, "id", row.ID.String())
	}

	p.metrics.RecordWebhookEvent(string(op.Action), "success")
	p.metrics.RecordProvisioningDuration("webhook", p.now().Sub(start))

	return nil
}

// transition applies the action's license/active mutation and persists it.
// Unrecognized actions fall through without touching the record; the delivery
// still succeeds so the marketplace does not redeliver events we cannot use.
func (p *Provisioner) transition(ctx context.Context, customer *Customer, op *Operation) error {
	switch op.Action {
	case ActionChangeQuantity, ActionChangePlan:
		customer.Licenses = op.LicenseQuantity()
	case ActionSuspend, ActionUnsubscribe:
		customer.Active = false
		customer.Licenses = 0
	case ActionReinstate, ActionRenew:
		customer.Active = true
		customer.Licenses = op.LicenseQuantity()
	default:
		p.logger.Info("Ignoring unrecognized webhook action", "action", string(op.Action))
		return nil
	}

	_, err := p.repo.Customers().Update(ctx, customer)
	return err
}

func (p *Provisioner) failLog(ctx context.Context, id uuid.UUID) {
	if _, err := p.repo.ProvisionLogs().Finalize(ctx, id, StatusFailed); err != nil {
		p.logger.Error("Could not mark provision log as failed",
			"error", err, "id", id.String())
	}
}
