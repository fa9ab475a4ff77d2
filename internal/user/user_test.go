package user

import (
	"context"
	"testing"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database/dbtest"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))

	u := &User{Email: "  Cook@Example.COM ", GoogleID: "g-123", Name: "Cook"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID == "" {
		t.Fatal("Expected an ID to be assigned")
	}

	t.Run("FindByGoogleID", func(t *testing.T) {
		got, err := repo.FindByGoogleID(ctx, "g-123")
		if err != nil {
			t.Fatalf("FindByGoogleID failed: %v", err)
		}
		if got.Email != "cook@example.com" {
			t.Errorf("Expected normalized email, got '%s'", got.Email)
		}
	})

	t.Run("FindByEmail", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "COOK@example.com")
		if err != nil {
			t.Fatalf("FindByEmail failed: %v", err)
		}
		if got.ID != u.ID {
			t.Errorf("Expected %s, got %s", u.ID, got.ID)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "missing")
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found, got %v", err)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		err := repo.Create(ctx, &User{Email: "cook@example.com", GoogleID: "g-other"})
		if !apperr.Is(err, apperr.KindDuplicate) {
			t.Errorf("Expected duplicate error, got %v", err)
		}
	})

	t.Run("UpdateTokens", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).UTC()
		if err := repo.UpdateTokens(ctx, u.ID, Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: exp}); err != nil {
			t.Fatalf("UpdateTokens failed: %v", err)
		}
		// no refresh token on later sign-ins
		if err := repo.UpdateTokens(ctx, u.ID, Tokens{AccessToken: "a2", ExpiresAt: exp}); err != nil {
			t.Fatalf("UpdateTokens failed: %v", err)
		}

		got, err := repo.FindByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if got.AccessToken != "a2" {
			t.Errorf("Expected access token a2, got '%s'", got.AccessToken)
		}
		if got.RefreshToken != "r1" {
			t.Errorf("Expected refresh token to be kept, got '%s'", got.RefreshToken)
		}
		if got.AccessTokenExpiresAt == nil || !got.AccessTokenExpiresAt.Equal(exp) {
			t.Errorf("Expected expiry %s, got %v", exp, got.AccessTokenExpiresAt)
		}

		if err := repo.UpdateTokens(ctx, "missing", Tokens{}); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found for unknown user, got %v", err)
		}
	})
}
