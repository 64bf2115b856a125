package fulfillment

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// OperationAction is a marketplace lifecycle event type.
type OperationAction string

const (
	ActionChangeQuantity OperationAction = "ChangeQuantity"
	ActionChangePlan     OperationAction = "ChangePlan"
	ActionSuspend        OperationAction = "Suspend"
	ActionUnsubscribe    OperationAction = "Unsubscribe"
	ActionReinstate      OperationAction = "Reinstate"
	ActionRenew          OperationAction = "Renew"
)

// Operation is the payload of one lifecycle webhook delivery. Quantity is
// optional; absent means zero. Actions outside the known set are accepted and
// treated as no-ops rather than rejected, matching the marketplace contract
// of forward-compatible event types.
type Operation struct {
	Quantity     *int                  `json:"quantity,omitempty"`
	Action       OperationAction       `json:"action"`
	Subscription OperationSubscription `json:"subscription"`
}

// OperationSubscription carries the subscription identity of the event.
type OperationSubscription struct {
	Beneficiary Beneficiary `json:"beneficiary"`
}

// Validate satisfies validation.Validatable.
func (s OperationSubscription) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Beneficiary),
	)
}

// Validate satisfies validation.Validatable.
func (o Operation) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Subscription),
	)
}

// LicenseQuantity returns the payload quantity, defaulting to zero when the
// field is absent.
func (o *Operation) LicenseQuantity() int {
	if o.Quantity == nil {
		return 0
	}
	return *o.Quantity
}

// TenantID is the tenant the event applies to.
func (o *Operation) TenantID() string {
	return o.Subscription.Beneficiary.TenantID.String()
}

// ParseOperation decodes and validates a webhook body.
func ParseOperation(body []byte) (*Operation, error) {
	op := &Operation{}
	if err := json.Unmarshal(body, op); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse webhook payload").
			WithCode(goerrors.CodeBadRequest)
	}
	if err := op.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid webhook payload").
			WithCode(goerrors.CodeBadRequest)
	}
	return op, nil
}
