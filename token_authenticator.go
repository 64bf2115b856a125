package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

const bearerPrefix = "Bearer "

// issuerFormat is the STS issuer pattern webhook tokens must carry; the
// tenant slot is filled with the token's own tid claim and the tid itself is
// checked against configuration afterwards.
const issuerFormat = "https://sts.windows.net/%s/"

// TokenAuthenticator authorizes marketplace webhook callers. Validation is
// two-layered on purpose: the signature, issuer, audience, and lifetime are
// verified cryptographically, and then the extracted tenant, audience, and
// caller application id are compared against configuration independently.
// Keep both layers; a misconfigured validator must not be the only gate.
type TokenAuthenticator struct {
	keys        KeyResolver
	clientID    string
	tenantID    string
	callerAppID string
	logger      Logger
}

var _ WebhookAuthenticator = (*TokenAuthenticator)(nil)

// TokenAuthenticatorOption customizes a TokenAuthenticator.
type TokenAuthenticatorOption func(*TokenAuthenticator)

// WithTokenAuthenticatorLogger overrides the logger.
func WithTokenAuthenticatorLogger(logger Logger) TokenAuthenticatorOption {
	return func(a *TokenAuthenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewTokenAuthenticator wires an authenticator from the key resolver and the
// configured caller expectations.
func NewTokenAuthenticator(keys KeyResolver, cfg Config, opts ...TokenAuthenticatorOption) *TokenAuthenticator {
	a := &TokenAuthenticator{
		keys:        keys,
		clientID:    cfg.GetClientID(),
		tenantID:    cfg.GetTenantID(),
		callerAppID: cfg.GetMarketplaceISV(),
		logger:      defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Authenticate validates the Authorization header of a webhook delivery and
// returns the verified claims. Every failure is an auth error mapping to 401.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, authorizationHeader string) (*WebhookClaims, error) {
	if authorizationHeader == "" || !strings.HasPrefix(authorizationHeader, bearerPrefix) {
		return nil, ErrMissingToken
	}
	raw := authorizationHeader[len(bearerPrefix):]

	// First pass: parse without verifying, to learn which key and tenant the
	// token claims to be signed with.
	unverified := &WebhookClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, unverified)
	if err != nil {
		clone := ErrTokenMalformed.Clone()
		clone.Source = err
		return nil, clone
	}

	kid, _ := parsed.Header["kid"].(string)
	if kid == "" || unverified.TenantID == "" || unverified.CallerAppID() == "" || unverified.PrimaryAudience() == "" {
		return nil, ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"reason": "token is missing kid, tid, appid/azp, or aud",
		})
	}

	key, err := a.keys.ResolveSigningKey(ctx, kid)
	if err != nil {
		a.logger.Error("TokenAuthenticator could not resolve signing key", "kid", kid, "error", err)
		clone := ErrKeyResolution.Clone()
		clone.Source = err
		return nil, clone.WithMetadata(map[string]any{"kid": kid})
	}

	// Second pass: full cryptographic validation against the resolved key.
	claims := &WebhookClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(fmt.Sprintf(issuerFormat, unverified.TenantID)),
		jwt.WithAudience(a.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		clone := ErrTokenInvalid.Clone()
		clone.Source = err
		return nil, clone
	}

	// Configuration cross-check, independent of the parser above.
	if claims.CallerAppID() != a.callerAppID ||
		claims.PrimaryAudience() != a.clientID ||
		claims.TenantID != a.tenantID {
		a.logger.Error("TokenAuthenticator rejected token on policy mismatch",
			"tid", claims.TenantID,
			"appid", claims.CallerAppID(),
		)
		return nil, ErrPolicyMismatch.Clone().WithMetadata(map[string]any{
			"tid":   claims.TenantID,
			"appid": claims.CallerAppID(),
		})
	}

	return claims, nil
}
