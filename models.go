package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProvisionAction classifies what a provisioning attempt did to the customer
// record.
type ProvisionAction string

const (
	// ActionCreate is a first-time landing provisioning.
	ActionCreate ProvisionAction = "Create"
	// ActionModify is a lifecycle webhook mutating licenses or the active flag.
	ActionModify ProvisionAction = "Modify"
	// ActionDelete is an unsubscribe. The customer row is kept; only its
	// licenses and active flag are cleared.
	ActionDelete ProvisionAction = "Delete"
)

// OperationStatus is the audit row lifecycle. InProgress rows are written
// before any side effect and move exactly once to a terminal status.
type OperationStatus string

const (
	StatusInProgress OperationStatus = "InProgress"
	StatusSucceeded  OperationStatus = "Succeeded"
	StatusFailed     OperationStatus = "Failed"
)

// Terminal reports whether the status accepts no further transitions.
func (s OperationStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Customer is one provisioned tenant. At most one row exists per tenant id;
// rows are created on first successful landing and never deleted.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:cst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	TenantID      uuid.UUID  `bun:"tenant_id,notnull,unique,type:uuid" json:"tenant_id"`
	Domain        string     `bun:"domain,notnull" json:"domain"`
	Licenses      int        `bun:"licenses,notnull,default:0" json:"licenses"`
	Active        bool       `bun:"active,notnull,default:false" json:"active"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ProvisionLog is the audit record of one attempted provisioning action.
// Payload holds the serialized inbound payload that triggered the action.
type ProvisionLog struct {
	bun.BaseModel `bun:"table:provision_logs,alias:plg"`
	ID            uuid.UUID       `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Action        ProvisionAction `bun:"action,notnull" json:"action"`
	Domain        string          `bun:"domain,notnull" json:"domain"`
	Status        OperationStatus `bun:"status,notnull" json:"status"`
	Payload       string          `bun:"payload" json:"payload,omitempty"`
	Licenses      int             `bun:"licenses" json:"licenses"`
	Timestamp     time.Time       `bun:"timestamp,notnull" json:"timestamp"`
}

// Finalize moves the row to a terminal status. It fails if the row already
// reached one, or if the target is not terminal.
func (l *ProvisionLog) Finalize(status OperationStatus) error {
	if l.Status.Terminal() {
		return ErrProvisionLogFinalized.Clone().WithMetadata(map[string]any{
			"id":     l.ID.String(),
			"status": string(l.Status),
		})
	}
	if !status.Terminal() {
		return ErrProvisionLogFinalized.Clone().WithMetadata(map[string]any{
			"id":     l.ID.String(),
			"target": string(status),
		})
	}
	l.Status = status
	return nil
}
