package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "grocery.sid"
	// CookieMaxAge is how long the browser keeps the cookie.
	CookieMaxAge = 7 * 24 * time.Hour
	// StoreTTL is how long a session lives in the store.
	StoreTTL = 14 * 24 * time.Hour
)

// Session is a logged-in browser session.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions. Get returns a not-found error for unknown and
// expired sessions alike.
type Store interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (*Session, error)
	Get(ctx context.Context, id string, now time.Time) (*Session, error)
	Touch(ctx context.Context, id string, expiresAt time.Time) error
	Destroy(ctx context.Context, id string) error
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

func newSession(userID string, ttl time.Duration) (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Session{
		ID:        id.String(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}
