package fulfillment

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"sync"

	"github.com/go-resty/resty/v2"
)

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSResolver resolves signing keys from a JWK discovery document, fetching
// it lazily and caching the parsed RSA keys by kid. A kid absent from the
// cache always forces one refetch before the lookup fails, so key rotation is
// picked up without restarts.
type JWKSResolver struct {
	url    string
	client *resty.Client
	logger Logger

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

var _ KeyResolver = (*JWKSResolver)(nil)

// JWKSResolverOption customizes a JWKSResolver.
type JWKSResolverOption func(*JWKSResolver)

// WithJWKSHTTPClient overrides the HTTP client used for discovery fetches.
func WithJWKSHTTPClient(client *resty.Client) JWKSResolverOption {
	return func(r *JWKSResolver) {
		if client != nil {
			r.client = client
		}
	}
}

// WithJWKSLogger overrides the logger.
func WithJWKSLogger(logger Logger) JWKSResolverOption {
	return func(r *JWKSResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewJWKSResolver returns a resolver reading from the given discovery URL.
func NewJWKSResolver(url string, opts ...JWKSResolverOption) *JWKSResolver {
	r := &JWKSResolver{
		url:    url,
		client: resty.New(),
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// ResolveSigningKey returns the RSA public key for kid. A cache miss triggers
// a refetch of the key set; a second miss fails with ErrSigningKeyNotFound.
func (r *JWKSResolver) ResolveSigningKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key := r.cached(kid); key != nil {
		return key, nil
	}

	if err := r.refresh(ctx); err != nil {
		return nil, err
	}

	if key := r.cached(kid); key != nil {
		return key, nil
	}

	return nil, ErrSigningKeyNotFound.Clone().WithMetadata(map[string]any{"kid": kid})
}

func (r *JWKSResolver) cached(kid string) *rsa.PublicKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[kid]
}

func (r *JWKSResolver) refresh(ctx context.Context) error {
	doc := &jwksDocument{}
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(doc).
		Get(r.url)
	if err != nil {
		clone := ErrKeySetUnavailable.Clone()
		clone.Source = err
		return clone.WithMetadata(map[string]any{"url": r.url})
	}
	if resp.IsError() {
		return ErrKeySetUnavailable.Clone().WithMetadata(map[string]any{
			"url":    r.url,
			"status": resp.StatusCode(),
		})
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, entry := range doc.Keys {
		key, err := entry.publicKey()
		if err != nil {
			r.logger.Debug("JWKSResolver skipping unparseable key entry", "kid", entry.Kid, "error", err)
			continue
		}
		keys[entry.Kid] = key
	}

	if len(keys) == 0 {
		return ErrKeySetUnavailable.Clone().WithMetadata(map[string]any{
			"url":    r.url,
			"reason": "document contains no usable RSA keys",
		})
	}

	r.mu.Lock()
	r.keys = keys
	r.mu.Unlock()

	return nil
}

// publicKey decodes the url-safe base64, unpadded modulus and exponent into an
// RSA public key.
func (k jwksKey) publicKey() (*rsa.PublicKey, error) {
	if k.Kid == "" || k.N == "" || k.E == "" {
		return nil, ErrSigningKeyNotFound.Clone().WithMetadata(map[string]any{
			"reason": "entry is missing kid, modulus, or exponent",
		})
	}

	modulus, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	exponent, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(modulus),
		E: int(new(big.Int).SetBytes(exponent).Int64()),
	}, nil
}
