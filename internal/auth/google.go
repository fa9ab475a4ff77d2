package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Profile is the part of a Google account the app keeps.
type Profile struct {
	GoogleID string
	Email    string
	Name     string
	Avatar   string
}

// OAuthProvider is the authorization-code half of an OAuth2 client.
// *oauth2.Config satisfies it.
type OAuthProvider interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// ProfileFetcher loads the signed-in user's profile with a fresh token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error)
}

// NewGoogleConfig returns the OAuth2 config for "Sign in with Google".
func NewGoogleConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			oauth2api.UserinfoProfileScope,
			oauth2api.UserinfoEmailScope,
		},
		Endpoint: google.Endpoint,
	}
}

// googleProfiles reads the profile from the Google userinfo endpoint.
type googleProfiles struct {
	config *oauth2.Config
}

// NewGoogleProfileFetcher creates a ProfileFetcher backed by the OAuth2 v2 API.
func NewGoogleProfileFetcher(config *oauth2.Config) ProfileFetcher {
	return &googleProfiles{config: config}
}

func (g *googleProfiles) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(g.config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	if info.Id == "" || info.Email == "" {
		return nil, fmt.Errorf("google profile is missing id or email")
	}

	return &Profile{
		GoogleID: info.Id,
		Email:    info.Email,
		Name:     info.Name,
		Avatar:   info.Picture,
	}, nil
}
