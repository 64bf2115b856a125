package fulfillment

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeMissingToken     = "WEBHOOK_TOKEN_MISSING"
	textCodeTokenMalformed   = "WEBHOOK_TOKEN_MALFORMED"
	textCodeTokenExpired     = "WEBHOOK_TOKEN_EXPIRED"
	textCodeTokenInvalid     = "WEBHOOK_TOKEN_INVALID"
	textCodeKeyResolution    = "WEBHOOK_KEY_RESOLUTION_FAILED"
	textCodePolicyMismatch   = "WEBHOOK_POLICY_MISMATCH"
	textCodeKeyNotFound      = "SIGNING_KEY_NOT_FOUND"
	textCodeKeySetFetch      = "SIGNING_KEY_SET_UNAVAILABLE"
	textCodeMissingPurchase  = "PURCHASE_TOKEN_MISSING"
	textCodeUnresolvedToken  = "PURCHASE_TOKEN_UNRESOLVED"
	textCodeCustomerNotFound = "CUSTOMER_NOT_FOUND"
	textCodeActivationFailed = "SUBSCRIPTION_ACTIVATION_FAILED"
	textCodeLogFinalized     = "PROVISION_LOG_FINALIZED"
)

// ErrMissingToken is returned when the Authorization header is absent or not a
// bearer token.
var ErrMissingToken = goerrors.New("authorization bearer token is missing", goerrors.CategoryAuth).
	WithTextCode(textCodeMissingToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when the bearer token cannot be parsed or
// lacks the claims webhook authorization depends on.
var ErrTokenMalformed = goerrors.New("webhook token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when the token's lifetime has lapsed.
var ErrTokenExpired = goerrors.New("webhook token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid covers signature or claim validation failures.
var ErrTokenInvalid = goerrors.New("webhook token signature or claims are invalid", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrKeyResolution is returned when the signing key for the token's kid could
// not be resolved. The resolver failure travels in Source.
var ErrKeyResolution = goerrors.New("unable to resolve webhook signing key", goerrors.CategoryAuth).
	WithTextCode(textCodeKeyResolution).
	WithCode(goerrors.CodeUnauthorized)

// ErrPolicyMismatch is returned when a cryptographically valid token does not
// match the configured tenant, client id, or caller application id.
var ErrPolicyMismatch = goerrors.New("webhook token does not match configured caller policy", goerrors.CategoryAuth).
	WithTextCode(textCodePolicyMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrSigningKeyNotFound is returned when the key set has no entry for the
// requested key id, even after a refetch.
var ErrSigningKeyNotFound = goerrors.New("no signing key matches the requested key id", goerrors.CategoryNotFound).
	WithTextCode(textCodeKeyNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrKeySetUnavailable is returned when the discovery document cannot be
// fetched or parsed.
var ErrKeySetUnavailable = goerrors.New("signing key set could not be fetched", goerrors.CategoryOperation).
	WithTextCode(textCodeKeySetFetch).
	WithCode(goerrors.CodeInternal)

// ErrMissingPurchaseToken is returned when a landing request carries no token.
var ErrMissingPurchaseToken = goerrors.New("purchase token is required", goerrors.CategoryBadInput).
	WithTextCode(textCodeMissingPurchase).
	WithCode(goerrors.CodeBadRequest)

// ErrSubscriptionNotResolved is returned when the marketplace cannot resolve a
// purchase token.
var ErrSubscriptionNotResolved = goerrors.New("purchase token did not resolve to a subscription", goerrors.CategoryNotFound).
	WithTextCode(textCodeUnresolvedToken).
	WithCode(goerrors.CodeNotFound)

// ErrCustomerNotFound is returned when no customer record exists for a tenant.
var ErrCustomerNotFound = goerrors.New("customer not found for tenant", goerrors.CategoryNotFound).
	WithTextCode(textCodeCustomerNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrActivationFailed is returned when the external activation call fails
// after the customer row was committed. The row is kept for reconciliation.
var ErrActivationFailed = goerrors.New("subscription activation failed", goerrors.CategoryOperation).
	WithTextCode(textCodeActivationFailed).
	WithCode(goerrors.CodeInternal)

// ErrProvisionLogFinalized guards the one-way InProgress -> terminal status
// transition on audit rows.
var ErrProvisionLogFinalized = goerrors.New("provision log row is already finalized", goerrors.CategoryConflict).
	WithTextCode(textCodeLogFinalized).
	WithCode(goerrors.CodeConflict)

// IsAuthError reports whether err is one of the authentication failures. All
// of them map to a plain 401 at the HTTP surface.
func IsAuthError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth
}

// HTTPStatus maps an error to the status code it should surface as. Rich
// errors carry their own code; anything else is an internal failure.
func HTTPStatus(err error) int {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code > 0 {
		return int(richErr.Code)
	}
	return http.StatusInternalServerError
}

// TextCode extracts the machine readable code from a rich error, or "".
func TextCode(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}
