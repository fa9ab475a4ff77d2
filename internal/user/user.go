package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database"

	"github.com/google/uuid"
)

// User is an account created on first Google sign-in. There is no password.
type User struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	GoogleID             string     `json:"googleId"`
	Name                 string     `json:"name"`
	Avatar               string     `json:"avatar,omitempty"`
	AccessToken          string     `json:"-"`
	AccessTokenExpiresAt *time.Time `json:"-"`
	RefreshToken         string     `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// Tokens are the OAuth credentials kept for a user.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Repository is a database-backed repository for users.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

const selectUser = `SELECT id, email, google_id, name, avatar, access_token, access_token_expires_at, refresh_token, created_at, updated_at FROM users`

// Create inserts u, assigning an ID and timestamps. The email is trimmed
// and lowercased.
func (r *Repository) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = now
	u.UpdatedAt = now

	var expires sql.NullString
	if u.AccessTokenExpiresAt != nil {
		expires = sql.NullString{String: database.FormatTime(*u.AccessTokenExpiresAt), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, google_id, name, avatar, access_token, access_token_expires_at, refresh_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.GoogleID, u.Name, u.Avatar,
		database.NullString(u.AccessToken), expires, database.NullString(u.RefreshToken),
		database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Duplicate("User with this email or Google account already exists")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByID returns the user with the given ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, selectUser+` WHERE id = ?`, id)
}

// FindByGoogleID returns the user linked to a Google account.
func (r *Repository) FindByGoogleID(ctx context.Context, googleID string) (*User, error) {
	return r.findOne(ctx, selectUser+` WHERE google_id = ?`, googleID)
}

// FindByEmail returns the user with the given email, compared lowercased.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, selectUser+` WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

// UpdateTokens stores fresh OAuth tokens. An empty refresh token keeps the
// stored one, since Google only sends it on first consent.
func (r *Repository) UpdateTokens(ctx context.Context, id string, tokens Tokens) error {
	var expires sql.NullString
	if !tokens.ExpiresAt.IsZero() {
		expires = sql.NullString{String: database.FormatTime(tokens.ExpiresAt), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET access_token = ?, access_token_expires_at = ?,
		 refresh_token = COALESCE(?, refresh_token), updated_at = ? WHERE id = ?`,
		database.NullString(tokens.AccessToken), expires, database.NullString(tokens.RefreshToken),
		database.FormatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens for user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

func (r *Repository) findOne(ctx context.Context, query string, arg string) (*User, error) {
	var (
		u                        User
		access, expires, refresh sql.NullString
		createdAt, updatedAt     string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.GoogleID, &u.Name, &u.Avatar,
		&access, &expires, &refresh, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.AccessToken = access.String
	u.RefreshToken = refresh.String
	if expires.Valid {
		t, err := database.ParseTime(expires.String)
		if err != nil {
			return nil, err
		}
		u.AccessTokenExpiresAt = &t
	}
	if u.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
