package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/upb/estimate-api/azuread"
	"github.com/upb/estimate-api/internal/observability"
	"github.com/upb/estimate-api/services"
	"github.com/upb/estimate-api/session"
	"github.com/upb/estimate-api/utils"
	"go.uber.org/zap"
)

var (
	errMissingToken    = errors.New("missing authorization header")
	errMalformedHeader = errors.New("authorization header must be 'Bearer <token>'")
)

// TokenVerifier verifies a raw bearer token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*azuread.Claims, error)
}

// SessionManager loads and stores the identity bound to a request's session
type SessionManager interface {
	Load(r *http.Request) (string, *session.Identity)
	Save(ctx context.Context, w http.ResponseWriter, id string, ident *session.Identity) (string, error)
	Clear(ctx context.Context, id string) error
}

// AuthConfig holds the tenant and group ids the gate checks against
type AuthConfig struct {
	TenantID        string
	AdminGroupID    string
	TimecardGroupID string
}

// Requirement describes what a protected route demands of the caller
type Requirement struct {
	AdminRequired bool
}

var (
	// RequireUser admits members of the admin or timecard group
	RequireUser = Requirement{}

	// RequireAdmin admits members of the admin group only
	RequireAdmin = Requirement{AdminRequired: true}
)

// AuthGate resolves the caller's identity from the session or a bearer
// token and applies group-based permission checks
type AuthGate struct {
	verifier TokenVerifier
	sessions SessionManager
	cfg      AuthConfig
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthGate creates a new AuthGate. metrics may be nil.
func NewAuthGate(verifier TokenVerifier, sessions SessionManager, cfg AuthConfig, metrics *observability.Metrics, logger *zap.Logger) *AuthGate {
	return &AuthGate{
		verifier: verifier,
		sessions: sessions,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Authorize returns the caller's identity if it satisfies req.
//
// An active identity cached in the session is used as is. Otherwise the
// bearer token is verified and the derived identity is stored in the
// session before permissions are checked, so a verified but forbidden
// caller is still cached.
func (g *AuthGate) Authorize(w http.ResponseWriter, r *http.Request, req Requirement) (*session.Identity, error) {
	ctx := r.Context()
	requestID := GetRequestIDFromContext(ctx)

	sessionID, ident := g.sessions.Load(r)
	outcome := observability.AuthOutcomeCached

	if !ident.IsActive(g.now()) {
		fresh, err := g.verify(w, r, sessionID, ident != nil)
		if err != nil {
			g.logger.Warn("authentication failed",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path),
				zap.Error(err))
			g.metrics.RecordAuthDecision(observability.AuthOutcomeUnauthorized)
			return nil, err
		}
		ident = fresh
		outcome = observability.AuthOutcomeAllowed
	}

	if err := g.checkPermissions(ident.Claims, req); err != nil {
		g.logger.Warn("authorization denied",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.String("employee_id", ident.EmployeeID),
			zap.Bool("admin_required", req.AdminRequired),
			zap.Error(err))
		if services.IsForbiddenError(err) {
			g.metrics.RecordAuthDecision(observability.AuthOutcomeForbidden)
		} else {
			g.metrics.RecordAuthDecision(observability.AuthOutcomeUnauthorized)
		}
		return nil, err
	}

	g.metrics.RecordAuthDecision(outcome)
	return ident, nil
}

// Require is a middleware that admits only callers satisfying req and
// places their identity in the request context
func (g *AuthGate) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := g.Authorize(w, r, req)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// verify runs the bearer token through the verifier and caches the result.
func (g *AuthGate) verify(w http.ResponseWriter, r *http.Request, sessionID string, stale bool) (*session.Identity, error) {
	ctx := r.Context()

	token, err := extractBearerToken(r)
	if err != nil {
		g.dropStale(ctx, sessionID, stale)
		return nil, services.Unauthorized("missing or malformed bearer token", err)
	}

	claims, err := g.verifier.Verify(ctx, token)
	if err != nil {
		g.dropStale(ctx, sessionID, stale)
		return nil, services.Unauthorized("token verification failed", err)
	}

	ident := session.NewIdentity(claims, g.cfg.AdminGroupID)
	if _, err := g.sessions.Save(ctx, w, sessionID, ident); err != nil {
		// the request is still served from the verified token
		g.logger.Error("failed to store session identity",
			zap.String("request_id", GetRequestIDFromContext(ctx)),
			zap.Error(err))
	}

	g.logger.Info("user logged in",
		zap.String("name", ident.Name),
		zap.String("employee_id", ident.EmployeeID),
		zap.String("ip_address", claims.IPAddress))
	return ident, nil
}

func (g *AuthGate) dropStale(ctx context.Context, sessionID string, stale bool) {
	if !stale {
		return
	}
	if err := g.sessions.Clear(ctx, sessionID); err != nil {
		g.logger.Warn("failed to clear stale session", zap.Error(err))
	}
}

func (g *AuthGate) checkPermissions(claims *azuread.Claims, req Requirement) error {
	if claims == nil || claims.TenantID != g.cfg.TenantID {
		return services.Unauthorized("token issued for another tenant", nil)
	}

	isAdmin := claims.HasGroup(g.cfg.AdminGroupID)
	if req.AdminRequired && !isAdmin {
		return services.Forbidden("admin group membership required")
	}
	if !isAdmin && !claims.HasGroup(g.cfg.TimecardGroupID) {
		return services.Forbidden("no recognized group membership")
	}
	return nil
}

// writeAuthError writes the status name for gate failures and the generic
// server error body for anything else
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case services.IsUnauthorizedError(err):
		utils.WriteStatus(w, http.StatusUnauthorized)
	case services.IsForbiddenError(err):
		utils.WriteStatus(w, http.StatusForbidden)
	default:
		utils.WriteServerError(w)
	}
}

// extractBearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is case-insensitive; anything other than exactly two parts is rejected.
func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errMalformedHeader
	}

	return parts[1], nil
}
