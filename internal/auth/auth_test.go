package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database/dbtest"
	"grocery-planner/internal/logging"
	"grocery-planner/internal/session"
	"grocery-planner/internal/user"

	"golang.org/x/oauth2"
)

type fakeProvider struct {
	exchangeErr error
	codes       []string
}

func (f *fakeProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	f.codes = append(f.codes, code)
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

type fakeProfiles struct {
	profile *Profile
}

func (f *fakeProfiles) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	if f.profile == nil {
		return nil, errors.New("no profile")
	}
	return f.profile, nil
}

func newTestAuthenticator(t *testing.T, provider *fakeProvider, profiles *fakeProfiles) (*Authenticator, *user.Repository) {
	t.Helper()
	db := dbtest.New(t)
	users := user.NewRepository(db)
	a := NewAuthenticator(provider, profiles, users, session.NewSQLiteStore(db), NewSigner("test-secret"), logging.Component(logging.Discard(), "auth"))
	return a, users
}

func stateFrom(t *testing.T, loginURL string) string {
	t.Helper()
	u, err := url.Parse(loginURL)
	if err != nil {
		t.Fatalf("Failed to parse login URL: %v", err)
	}
	return u.Query().Get("state")
}

func TestLoginAndComplete(t *testing.T) {
	provider := &fakeProvider{}
	profiles := &fakeProfiles{profile: &Profile{GoogleID: "g-1", Email: "Cook@Example.com", Name: "Cook"}}
	a, users := newTestAuthenticator(t, provider, profiles)
	ctx := context.Background()

	loginURL, err := a.LoginURL("/plans")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	state := stateFrom(t, loginURL)

	res, err := a.Complete(ctx, state, "code-1")
	if err != nil {
		t.Fatalf("Expected sign-in to succeed, got %v", err)
	}
	if res.ReturnTo != "/plans" {
		t.Errorf("Expected return path '/plans', got '%s'", res.ReturnTo)
	}
	if res.User.Email != "cook@example.com" {
		t.Errorf("Expected lowercased email, got '%s'", res.User.Email)
	}

	stored, err := users.FindByGoogleID(ctx, "g-1")
	if err != nil {
		t.Fatalf("Expected user to be stored, got %v", err)
	}
	if stored.RefreshToken != "refresh-code-1" {
		t.Errorf("Expected refresh token to be stored, got '%s'", stored.RefreshToken)
	}

	u, sess, err := a.Authenticate(ctx, res.Cookie)
	if err != nil {
		t.Fatalf("Expected cookie to authenticate, got %v", err)
	}
	if u.ID != stored.ID || sess.UserID != stored.ID {
		t.Errorf("Expected session for user %s, got user %s session user %s", stored.ID, u.ID, sess.UserID)
	}

	// A second sign-in reuses the account.
	res2, err := a.Complete(ctx, stateFrom(t, mustLoginURL(t, a)), "code-2")
	if err != nil {
		t.Fatalf("Expected second sign-in to succeed, got %v", err)
	}
	if res2.User.ID != stored.ID {
		t.Errorf("Expected the same user on second sign-in, got %s and %s", stored.ID, res2.User.ID)
	}
}

func mustLoginURL(t *testing.T, a *Authenticator) string {
	t.Helper()
	u, err := a.LoginURL("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return u
}

func TestCompleteRejectsBadState(t *testing.T) {
	provider := &fakeProvider{}
	a, _ := newTestAuthenticator(t, provider, &fakeProfiles{profile: &Profile{GoogleID: "g", Email: "a@b.c"}})

	_, err := a.Complete(context.Background(), "forged", "code")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Errorf("Expected unauthorized error, got %v", err)
	}
	if len(provider.codes) != 0 {
		t.Errorf("Expected no code exchange with a bad state, got %v", provider.codes)
	}
}

func TestCompleteExchangeFailure(t *testing.T) {
	provider := &fakeProvider{exchangeErr: errors.New("invalid_grant")}
	a, _ := newTestAuthenticator(t, provider, &fakeProfiles{})

	_, err := a.Complete(context.Background(), stateFrom(t, mustLoginURL(t, a)), "code")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Errorf("Expected unauthorized error, got %v", err)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	a, _ := newTestAuthenticator(t, &fakeProvider{}, &fakeProfiles{})
	ctx := context.Background()

	orphan, err := a.signer.SignSession("missing-session")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for name, cookie := range map[string]string{
		"Empty":   "",
		"Garbage": "not-a-token",
		"Unknown": orphan,
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := a.Authenticate(ctx, cookie); !apperr.Is(err, apperr.KindUnauthorized) {
				t.Errorf("Expected unauthorized error, got %v", err)
			}
		})
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	a, _ := newTestAuthenticator(t, &fakeProvider{}, &fakeProfiles{profile: &Profile{GoogleID: "g-2", Email: "x@example.com"}})
	ctx := context.Background()

	res, err := a.Complete(ctx, stateFrom(t, mustLoginURL(t, a)), "code")
	if err != nil {
		t.Fatalf("Expected sign-in to succeed, got %v", err)
	}
	if err := a.Logout(ctx, res.Cookie); err != nil {
		t.Fatalf("Expected logout to succeed, got %v", err)
	}
	if _, _, err := a.Authenticate(ctx, res.Cookie); err == nil {
		t.Error("Expected cookie to be rejected after logout")
	}
	if err := a.Logout(ctx, ""); err != nil {
		t.Errorf("Expected logout without a cookie to succeed, got %v", err)
	}
}

func TestSafeReturnPath(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/plans":               "/plans",
		"//evil.example.com":   "/",
		"https://evil.example": "/",
	}
	for in, want := range tests {
		if got := safeReturnPath(in); got != want {
			t.Errorf("safeReturnPath(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestSignerState(t *testing.T) {
	s := NewSigner("secret")
	state, err := s.NewState("/x")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := s.VerifySession(state); err == nil {
		t.Error("Expected a state token to be rejected as a session cookie")
	}

	s.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	if _, err := s.VerifyState(state); err == nil {
		t.Error("Expected an expired state to be rejected")
	}

	other := NewSigner("other-secret")
	if _, err := other.VerifyState(state); err == nil || !strings.Contains(err.Error(), "invalid token") {
		t.Errorf("Expected a foreign signature to be rejected, got %v", err)
	}
}
