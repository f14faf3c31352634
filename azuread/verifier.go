package azuread

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	// ErrInvalidToken is returned when the token is malformed, badly signed or otherwise unverifiable
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidClaims is returned when the audience or issuer does not match
	ErrInvalidClaims = errors.New("invalid token claims")

	// ErrNoMatchingKey is returned when the token's key id is not in the key directory
	ErrNoMatchingKey = errors.New("no matching signing key")
)

// VerifierConfig identifies the application and tenant tokens must be minted for.
type VerifierConfig struct {
	AppID    string
	TenantID string
}

// Audience returns the expected aud claim.
func (c VerifierConfig) Audience() string {
	return "api://" + c.AppID
}

// Issuer returns the expected iss claim.
func (c VerifierConfig) Issuer() string {
	return fmt.Sprintf("https://sts.windows.net/%s/", c.TenantID)
}

// Verifier validates bearer tokens against a KeyDirectory.
type Verifier struct {
	keys   *KeyDirectory
	parser *jwt.Parser
	logger *zap.Logger
}

// NewVerifier creates a verifier accepting RS256 tokens for cfg's audience and issuer.
func NewVerifier(keys *KeyDirectory, cfg VerifierConfig, logger *zap.Logger) *Verifier {
	return &Verifier{
		keys: keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithAudience(cfg.Audience()),
			jwt.WithIssuer(cfg.Issuer()),
			jwt.WithExpirationRequired(),
		),
		logger: logger,
	}
}

// Verify checks the token's key id, signature, audience, issuer and expiry
// and returns its claims. Every failure is one of the package sentinels.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		v.logger.Warn("malformed token", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	kid, _ := unverified.Header["kid"].(string)
	key, ok := v.keys.Lookup(kid)
	if !ok {
		v.logger.Error("no matching signing key for token",
			zap.String("kid", kid),
			zap.Strings("known_kids", v.keys.KeyIDs()))
		return nil, ErrNoMatchingKey
	}

	claims := &Claims{}
	_, err = v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key.PublicKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			v.logger.Warn("token expired", zap.String("kid", kid))
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenInvalidAudience), errors.Is(err, jwt.ErrTokenInvalidIssuer):
			v.logger.Warn("token has invalid claims", zap.String("kid", kid), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
		default:
			v.logger.Warn("token verification failed", zap.String("kid", kid), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	return claims, nil
}
