package azuread

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

var (
	// ErrKeyFetchFailed is returned when the identity provider's key set cannot be retrieved
	ErrKeyFetchFailed = errors.New("failed to fetch signing keys")

	// ErrNoSigningKeys is returned when the key set holds no usable RSA signing key
	ErrNoSigningKeys = errors.New("no usable signing keys")
)

// DefaultKeysBaseURL is the Azure AD authority serving tenant key sets.
const DefaultKeysBaseURL = "https://login.microsoftonline.com"

const maxKeySetBytes = 1 << 20

// jwks is the wire form of a JSON Web Key Set
type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// SigningKey is one public signing key published by the identity provider.
type SigningKey struct {
	KeyID     string
	KeyType   string
	Use       string
	Modulus   string // base64url
	Exponent  string // base64url
	PublicKey *rsa.PublicKey
}

// KeyDirectory is the immutable set of signing keys fetched at startup.
// It is safe for concurrent reads.
type KeyDirectory struct {
	keys map[string]*SigningKey
}

// NewKeyDirectory builds a directory from already-decoded keys.
func NewKeyDirectory(keys []SigningKey) (*KeyDirectory, error) {
	dir := &KeyDirectory{keys: make(map[string]*SigningKey, len(keys))}
	for i := range keys {
		k := keys[i]
		if k.KeyID == "" || k.PublicKey == nil {
			continue
		}
		dir.keys[k.KeyID] = &k
	}
	if len(dir.keys) == 0 {
		return nil, ErrNoSigningKeys
	}
	return dir, nil
}

// Lookup returns the key with the given key id.
func (d *KeyDirectory) Lookup(kid string) (*SigningKey, bool) {
	k, ok := d.keys[kid]
	return k, ok
}

// Len returns the number of keys held.
func (d *KeyDirectory) Len() int {
	return len(d.keys)
}

// KeyIDs returns the held key ids in sorted order.
func (d *KeyDirectory) KeyIDs() []string {
	ids := make([]string, 0, len(d.keys))
	for id := range d.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FetchOptions configures FetchKeys
type FetchOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// FetchKeys downloads the tenant's key set once. Any transport failure,
// non-200 status or empty result is an error; callers treat it as fatal.
func FetchKeys(ctx context.Context, tenantID string, opts FetchOptions) (*KeyDirectory, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", ErrKeyFetchFailed)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultKeysBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	keysURL := KeysURL(opts.BaseURL, tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keysURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrKeyFetchFailed, resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeySetBytes)).Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: failed to decode key set: %v", ErrKeyFetchFailed, err)
	}

	keys := make([]SigningKey, 0, len(set.Keys))
	for i := range set.Keys {
		k := &set.Keys[i]
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := jwkToRSAPublicKey(k)
		if err != nil {
			continue
		}
		keys = append(keys, SigningKey{
			KeyID:     k.Kid,
			KeyType:   k.Kty,
			Use:       k.Use,
			Modulus:   k.N,
			Exponent:  k.E,
			PublicKey: pub,
		})
	}

	return NewKeyDirectory(keys)
}

// KeysURL returns the discovery keys endpoint for a tenant.
func KeysURL(baseURL, tenantID string) string {
	return fmt.Sprintf("%s/%s/discovery/keys", strings.TrimSuffix(baseURL, "/"), url.PathEscape(tenantID))
}

// jwkToRSAPublicKey converts a JWK to an RSA public key
func jwkToRSAPublicKey(k *jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 || len(eBytes) > 4 {
		return nil, errors.New("invalid RSA key material")
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e < 3 {
		return nil, errors.New("invalid RSA exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
