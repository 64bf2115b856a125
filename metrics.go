package fulfillment

import "time"

// Metrics records provisioning outcomes. Implementations must be safe for
// concurrent use; the prometheus subpackage provides one.
type Metrics interface {
	// RecordLanding counts landing attempts by outcome
	// ("activated", "already_provisioned", "not_resolved", "activation_failed").
	RecordLanding(outcome string)

	// RecordWebhookEvent counts lifecycle deliveries by action and outcome
	// ("success", "not_found", "error").
	RecordWebhookEvent(action, outcome string)

	// RecordAuthFailure counts rejected webhook callers by reason text code.
	RecordAuthFailure(reason string)

	// RecordProvisioningDuration records how long one provisioning operation
	// ("landing" or "webhook") took end to end.
	RecordProvisioningDuration(operation string, duration time.Duration)
}

// NoopMetrics is the default Metrics implementation.
type NoopMetrics struct{}

var _ Metrics = (*NoopMetrics)(nil)

func (NoopMetrics) RecordLanding(_ string)                               {}
func (NoopMetrics) RecordWebhookEvent(_, _ string)                       {}
func (NoopMetrics) RecordAuthFailure(_ string)                           {}
func (NoopMetrics) RecordProvisioningDuration(_ string, _ time.Duration) {}
