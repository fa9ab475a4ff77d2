package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/session"
	"grocery-planner/internal/user"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// UserStore is what sign-in needs from the user repository.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*user.User, error)
	Create(ctx context.Context, u *user.User) error
	UpdateTokens(ctx context.Context, id string, tokens user.Tokens) error
}

// Authenticator runs the Google sign-in flow and resolves session cookies.
type Authenticator struct {
	provider OAuthProvider
	profiles ProfileFetcher
	users    UserStore
	sessions session.Store
	signer   *Signer
	logger   *logrus.Entry
	now      func() time.Time
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(
	provider OAuthProvider,
	profiles ProfileFetcher,
	users UserStore,
	sessions session.Store,
	signer *Signer,
	logger *logrus.Entry,
) *Authenticator {
	return &Authenticator{
		provider: provider,
		profiles: profiles,
		users:    users,
		sessions: sessions,
		signer:   signer,
		logger:   logger,
		now:      time.Now,
	}
}

// LoginURL returns the Google consent URL with a signed state.
func (a *Authenticator) LoginURL(returnTo string) (string, error) {
	state, err := a.signer.NewState(safeReturnPath(returnTo))
	if err != nil {
		return "", err
	}
	return a.provider.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Result is the outcome of a completed sign-in.
type Result struct {
	User     *user.User
	Session  *session.Session
	Cookie   string
	ReturnTo string
}

// Complete handles Google's redirect: it checks the state, exchanges the
// code, finds or creates the user and opens a session.
func (a *Authenticator) Complete(ctx context.Context, state, code string) (*Result, error) {
	returnTo, err := a.signer.VerifyState(state)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid OAuth state")
	}
	if code == "" {
		return nil, apperr.BadRequest("Missing authorization code")
	}

	token, err := a.provider.Exchange(ctx, code)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "Failed to exchange authorization code", Err: err}
	}

	profile, err := a.profiles.FetchProfile(ctx, token)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "Failed to load Google profile", Err: err}
	}

	u, err := a.findOrCreate(ctx, profile)
	if err != nil {
		return nil, err
	}

	if err := a.users.UpdateTokens(ctx, u.ID, user.Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}); err != nil {
		return nil, apperr.Database("Failed to store tokens", err)
	}

	sess, err := a.sessions.Create(ctx, u.ID, session.StoreTTL)
	if err != nil {
		return nil, apperr.Database("Failed to create session", err)
	}
	cookie, err := a.signer.SignSession(sess.ID)
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{"user_id": u.ID}).Info("user signed in")
	return &Result{User: u, Session: sess, Cookie: cookie, ReturnTo: returnTo}, nil
}

func (a *Authenticator) findOrCreate(ctx context.Context, p *Profile) (*user.User, error) {
	u, err := a.users.FindByGoogleID(ctx, p.GoogleID)
	if err == nil {
		return u, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Database("Failed to look up user", err)
	}

	u = &user.User{
		GoogleID: p.GoogleID,
		Email:    p.Email,
		Name:     p.Name,
		Avatar:   p.Avatar,
	}
	if err := a.users.Create(ctx, u); err != nil {
		if apperr.Is(err, apperr.KindDuplicate) {
			return nil, err
		}
		return nil, apperr.Database("Failed to create user", err)
	}
	a.logger.WithFields(logrus.Fields{"user_id": u.ID}).Info("created user on first sign-in")
	return u, nil
}

// Authenticate resolves a session cookie to its user and session.
func (a *Authenticator) Authenticate(ctx context.Context, cookie string) (*user.User, *session.Session, error) {
	if cookie == "" {
		return nil, nil, apperr.Unauthorized("Unauthorized")
	}
	sessionID, err := a.signer.VerifySession(cookie)
	if err != nil {
		return nil, nil, apperr.Unauthorized("Unauthorized")
	}

	sess, err := a.sessions.Get(ctx, sessionID, a.now())
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil, apperr.Unauthorized("Unauthorized")
		}
		return nil, nil, apperr.Database("Failed to load session", err)
	}

	// sliding expiry: refresh sessions past half their lifetime
	if now := a.now(); sess.ExpiresAt.Sub(now) < session.StoreTTL/2 {
		expires := now.Add(session.StoreTTL)
		if err := a.sessions.Touch(ctx, sess.ID, expires); err != nil {
			a.logger.WithError(err).WithField("session_id", sess.ID).Warn("failed to extend session")
		} else {
			sess.ExpiresAt = expires
		}
	}

	u, err := a.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil, apperr.Unauthorized("Unauthorized")
		}
		return nil, nil, apperr.Database("Failed to load user", err)
	}
	return u, sess, nil
}

// Logout ends a session. Steps run in order and stop at the first failure:
// the cookie is resolved, then the session is destroyed in the store. The
// caller clears the cookie only after Logout returns nil.
func (a *Authenticator) Logout(ctx context.Context, cookie string) error {
	if cookie == "" {
		return nil
	}
	sessionID, err := a.signer.VerifySession(cookie)
	if err != nil {
		// nothing server-side to end
		return nil
	}
	if err := a.sessions.Destroy(ctx, sessionID); err != nil {
		return apperr.Database("Failed to destroy session", fmt.Errorf("session %s: %w", sessionID, err))
	}
	a.logger.WithField("session_id", sessionID).Debug("session destroyed")
	return nil
}

// safeReturnPath keeps post-login redirects on this site.
func safeReturnPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return "/"
	}
	return p
}
