package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	purposeState   = "oauth-state"
	purposeSession = "session"

	stateTTL = 5 * time.Minute
)

var errInvalidToken = errors.New("invalid token")

type claims struct {
	Purpose   string `json:"pur"`
	SessionID string `json:"sid,omitempty"`
	ReturnTo  string `json:"ret,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and checks the HS256 tokens used for the OAuth state
// parameter and the session cookie.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer keyed with secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// NewState returns a short-lived state value for the authorization request.
func (s *Signer) NewState(returnTo string) (string, error) {
	now := s.now()
	return s.sign(claims{
		Purpose:  purposeState,
		ReturnTo: returnTo,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	})
}

// VerifyState checks a state value and returns where to send the user.
func (s *Signer) VerifyState(state string) (string, error) {
	c, err := s.parse(state, purposeState)
	if err != nil {
		return "", err
	}
	return c.ReturnTo, nil
}

// SignSession returns the cookie value for a session ID. Expiry lives in
// the session store, not in the cookie.
func (s *Signer) SignSession(sessionID string) (string, error) {
	return s.sign(claims{
		Purpose:   purposeSession,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	})
}

// VerifySession extracts the session ID from a cookie value.
func (s *Signer) VerifySession(value string) (string, error) {
	c, err := s.parse(value, purposeSession)
	if err != nil {
		return "", err
	}
	if c.SessionID == "" {
		return "", errInvalidToken
	}
	return c.SessionID, nil
}

func (s *Signer) sign(c claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Signer) parse(value, purpose string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(value, c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if c.Purpose != purpose {
		return nil, errInvalidToken
	}
	return c, nil
}
