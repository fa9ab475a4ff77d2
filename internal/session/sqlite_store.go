package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database"
)

// SQLiteStore provides access to session persistence operations
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create creates a new session for userID that lives for ttl.
func (s *SQLiteStore) Create(ctx context.Context, userID string, ttl time.Duration) (*Session, error) {
	sess, err := newSession(userID, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.UserID, database.FormatTime(sess.ExpiresAt), database.FormatTime(sess.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return sess, nil
}

// Get retrieves a non-expired session.
func (s *SQLiteStore) Get(ctx context.Context, id string, now time.Time) (*Session, error) {
	var (
		sess                 Session
		expiresAt, createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ? AND expires_at > ?`,
		id, database.FormatTime(now),
	).Scan(&sess.ID, &sess.UserID, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Session not found")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if sess.ExpiresAt, err = database.ParseTime(expiresAt); err != nil {
		return nil, err
	}
	if sess.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Touch moves the expiry of a session.
func (s *SQLiteStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET expires_at = ? WHERE id = ?`, database.FormatTime(expiresAt), id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Destroy removes a session. Destroying a missing session is not an error.
func (s *SQLiteStore) Destroy(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes all expired sessions
func (s *SQLiteStore) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, database.FormatTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	return res.RowsAffected()
}
