// Package azureadtest mints Azure AD style tokens and key sets for tests.
package azureadtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/upb/estimate-api/azuread"
)

// Issuer signs tokens for a single tenant and application.
type Issuer struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
	TenantID   string
	AppID      string
}

// NewIssuer generates a fresh RSA key pair.
func NewIssuer(t testing.TB, tenantID, appID string) *Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &Issuer{
		KeyID:      "kid-" + uuid.NewString()[:8],
		PrivateKey: key,
		TenantID:   tenantID,
		AppID:      appID,
	}
}

// Config returns the verifier configuration matching the issuer.
func (i *Issuer) Config() azuread.VerifierConfig {
	return azuread.VerifierConfig{AppID: i.AppID, TenantID: i.TenantID}
}

// SigningKey returns the public half of the issuer's key.
func (i *Issuer) SigningKey() azuread.SigningKey {
	pub := &i.PrivateKey.PublicKey
	return azuread.SigningKey{
		KeyID:     i.KeyID,
		KeyType:   "RSA",
		Use:       "sig",
		Modulus:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		Exponent:  base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		PublicKey: pub,
	}
}

// Directory returns a key directory holding only the issuer's key.
func (i *Issuer) Directory(t testing.TB) *azuread.KeyDirectory {
	t.Helper()
	dir, err := azuread.NewKeyDirectory([]azuread.SigningKey{i.SigningKey()})
	require.NoError(t, err)
	return dir
}

// KeySetJSON renders the issuer's key as a JWKS document.
func (i *Issuer) KeySetJSON() []byte {
	k := i.SigningKey()
	doc := map[string]interface{}{
		"keys": []map[string]string{{
			"kid": k.KeyID,
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"n":   k.Modulus,
			"e":   k.Exponent,
		}},
	}
	b, _ := json.Marshal(doc)
	return b
}

// Server serves the issuer's key set at /{tenant}/discovery/keys.
func (i *Issuer) Server(t testing.TB) *httptest.Server {
	t.Helper()
	path := "/" + i.TenantID + "/discovery/keys"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(i.KeySetJSON())
	}))
	t.Cleanup(srv.Close)
	return srv
}

// Claims returns valid claims for the issuer expiring in one hour.
func (i *Issuer) Claims(groups ...string) *azuread.Claims {
	now := time.Now()
	oid := uuid.NewString()
	return &azuread.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.Config().Issuer(),
			Subject:   oid,
			Audience:  jwt.ClaimStrings{i.Config().Audience()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Groups:     groups,
		IPAddress:  "10.0.0.1",
		Name:       "Test User",
		ObjectID:   oid,
		TenantID:   i.TenantID,
		UniqueName: "test.user@example.com",
		UPN:        "test.user@example.com",
	}
}

// Sign signs claims with RS256 under the issuer's key id.
func (i *Issuer) Sign(t testing.TB, claims *azuread.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.KeyID
	signed, err := token.SignedString(i.PrivateKey)
	require.NoError(t, err)
	return signed
}
