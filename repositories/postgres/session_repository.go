package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/upb/estimate-api/session"
	"go.uber.org/zap"
)

// SessionRepository stores session identities in the web_sessions table.
// It implements session.Store.
type SessionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSessionRepository creates a new SQL-backed session store
func NewSessionRepository(db *DB, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves an unexpired identity. Returns nil if not found.
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Identity, error) {
	query := `
		SELECT data
		FROM web_sessions
		WHERE session_id = $1 AND expires_at > NOW()
	`

	var data []byte
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var ident session.Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &ident, nil
}

// Save upserts the identity for the session id.
func (r *SessionRepository) Save(ctx context.Context, id string, ident *session.Identity, ttl time.Duration) error {
	query := `
		INSERT INTO web_sessions (session_id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id)
		DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at
	`

	data, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	expiresAt := time.Now().Add(ttl).UTC()
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id, data, expiresAt); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	r.logger.Debug("session stored", zap.String("session_id", id), zap.Time("expires_at", expiresAt))
	return nil
}

// Delete removes a session by id
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM web_sessions WHERE session_id = $1`

	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
