// Package prommetrics implements fulfillment.Metrics on Prometheus.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	fulfillment "github.com/goliatone/go-fulfillment"
)

// Metrics implements fulfillment.Metrics using Prometheus.
type Metrics struct {
	landingTotal         *prometheus.CounterVec
	webhookEventsTotal   *prometheus.CounterVec
	authFailuresTotal    *prometheus.CounterVec
	provisioningDuration *prometheus.HistogramVec
}

var _ fulfillment.Metrics = (*Metrics)(nil)

// NewMetrics registers the fulfillment collectors with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		landingTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fulfillment",
			Name:      "landing_total",
			Help:      "Total number of marketplace landing requests by outcome.",
		}, []string{"outcome"}),

		webhookEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fulfillment",
			Name:      "webhook_events_total",
			Help:      "Total number of lifecycle webhook deliveries by action and outcome.",
		}, []string{"action", "outcome"}),

		authFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fulfillment",
			Name:      "webhook_auth_failures_total",
			Help:      "Total number of rejected webhook callers by reason.",
		}, []string{"reason"}),

		provisioningDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fulfillment",
			Name:      "provisioning_duration_seconds",
			Help:      "End to end duration of provisioning operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) RecordLanding(outcome string) {
	m.landingTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordWebhookEvent(action, outcome string) {
	m.webhookEventsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) RecordAuthFailure(reason string) {
	m.authFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordProvisioningDuration(operation string, duration time.Duration) {
	m.provisioningDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
