package fulfillment_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	fulfillment "github.com/goliatone/go-fulfillment"
)

const (
	testClientID = "11111111-aaaa-bbbb-cccc-222222222222"
	testTenantID = "9b92d605-9919-4f8e-86cb-dd9071dd0a2e"
	testISVAppID = "33333333-dddd-eeee-ffff-444444444444"
	testKid      = "test-key-1"
)

func testConfig() *fulfillment.WebhookConfig {
	return &fulfillment.WebhookConfig{
		ClientID:       testClientID,
		TenantID:       testTenantID,
		MarketplaceISV: testISVAppID,
		Homepage:       "https://portal.example.com",
		SupportEmail:   "support@example.com",
		KeySetURL:      "https://keys.example.com/discovery/v2.0/keys",
	}
}

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	fulfillment.RegisterModels(db)
	require.NoError(t, fulfillment.CreateTables(context.Background(), db))

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func setupRepo(t *testing.T) fulfillment.RepositoryManager {
	t.Helper()
	return fulfillment.NewRepositoryManager(setupDB(t))
}

// mintToken signs an RS256 token with the given claims and kid.
func mintToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	require.NoError(t, err)

	return signed
}

// webhookClaims returns a claim set that passes both validation layers
// against testConfig.
func webhookClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"aud":   testClientID,
		"tid":   testTenantID,
		"appid": testISVAppID,
		"iss":   "https://sts.windows.net/" + testTenantID + "/",
		"iat":   jwt.NewNumericDate(now),
		"exp":   jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// jwksDocumentFor renders a discovery document publishing the given keys.
func jwksDocumentFor(keys map[string]*rsa.PublicKey) []byte {
	type entry struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		N   string `json:"n"`
		E   string `json:"e"`
	}
	doc := struct {
		Keys []entry `json:"keys"`
	}{}
	for kid, pub := range keys {
		doc.Keys = append(doc.Keys, entry{
			Kid: kid,
			Kty: "RSA",
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	body, _ := json.Marshal(doc)
	return body
}

// jwksFixture serves a discovery document that tests can swap out to simulate
// key rotation, counting fetches as it goes.
type jwksFixture struct {
	srv *httptest.Server

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	fetches int
}

func jwksServer(t *testing.T, keys map[string]*rsa.PublicKey) *jwksFixture {
	t.Helper()

	f := &jwksFixture{keys: keys}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.fetches++
		body := jwksDocumentFor(f.keys)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(f.srv.Close)

	return f
}

func (f *jwksFixture) setKeys(keys map[string]*rsa.PublicKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = keys
}

func (f *jwksFixture) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// keyResolverStub satisfies fulfillment.KeyResolver without any network.
type keyResolverStub struct {
	key   *rsa.PublicKey
	err   error
	calls int
}

func (s *keyResolverStub) ResolveSigningKey(_ context.Context, _ string) (*rsa.PublicKey, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.key, nil
}
