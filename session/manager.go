package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// ErrEmptySecret is returned when the manager is built without a signing secret
var ErrEmptySecret = errors.New("session secret is required")

const minSessionTTL = time.Minute

// ManagerConfig configures the session cookie.
type ManagerConfig struct {
	CookieName string
	Secure     bool
}

// Manager binds requests to stored identities through a signed session id cookie.
type Manager struct {
	store      Store
	codec      *securecookie.SecureCookie
	cookieName string
	secure     bool
	logger     *zap.Logger
}

// NewManager creates a session manager signing cookies with secret.
func NewManager(store Store, secret string, cfg ManagerConfig, logger *zap.Logger) (*Manager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "estimate_session"
	}
	return &Manager{
		store:      store,
		codec:      securecookie.New([]byte(secret), nil),
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		logger:     logger,
	}, nil
}

// Load returns the request's session id and its stored identity.
// A missing or tampered cookie yields an empty id; a store failure is
// logged and treated as an empty session.
func (m *Manager) Load(r *http.Request) (string, *Identity) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", nil
	}

	var id string
	if err := m.codec.Decode(m.cookieName, cookie.Value, &id); err != nil {
		m.logger.Warn("discarding invalid session cookie", zap.Error(err))
		return "", nil
	}

	ident, err := m.store.Get(r.Context(), id)
	if err != nil {
		m.logger.Error("failed to load session", zap.String("session_id", id), zap.Error(err))
		return id, nil
	}
	return id, ident
}

// Save stores ident under id, minting a new id and cookie when id is empty.
// The stored entry lives until the identity expires.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, id string, ident *Identity) (string, error) {
	if id == "" {
		id = uuid.New().String()
		encoded, err := m.codec.Encode(m.cookieName, id)
		if err != nil {
			return "", fmt.Errorf("failed to encode session cookie: %w", err)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    encoded,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	ttl := time.Until(ident.ExpiresAt)
	if ttl < minSessionTTL {
		ttl = minSessionTTL
	}
	if err := m.store.Save(ctx, id, ident, ttl); err != nil {
		return id, err
	}
	return id, nil
}

// Clear removes the stored identity for id.
func (m *Manager) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}
