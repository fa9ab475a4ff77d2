package recipe

import (
	"context"
	"testing"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database/dbtest"

	"github.com/google/uuid"
)

func newTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	db := dbtest.New(t)
	userID := uuid.NewString()
	dbtest.SeedUser(t, db, userID)
	return NewRepository(db), userID
}

func TestCreateAndGet(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	flour := uuid.NewString()
	rec := &Recipe{
		UserID:       userID,
		Title:        "  Pancakes ",
		Ingredients:  []Ingredient{{IngredientID: flour, Quantity: 200, Unit: "g"}},
		Instructions: "Mix and fry.",
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := repo.Get(ctx, userID, rec.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Title != "Pancakes" {
		t.Errorf("Expected trimmed title 'Pancakes', got '%s'", got.Title)
	}
	if len(got.Ingredients) != 1 || got.Ingredients[0].IngredientID != flour || got.Ingredients[0].Quantity != 200 {
		t.Errorf("Expected stored ingredients to round-trip, got %+v", got.Ingredients)
	}

	if _, err := repo.Get(ctx, uuid.NewString(), rec.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected another user's lookup to miss, got %v", err)
	}
	if _, err := repo.Get(ctx, userID, "123"); !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("Expected bad request for malformed id, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  Recipe
		kind apperr.Kind
	}{
		{"MissingTitle", Recipe{UserID: userID}, apperr.KindBadRequest},
		{"BadIngredientID", Recipe{UserID: userID, Title: "x", Ingredients: []Ingredient{{IngredientID: "nope"}}}, apperr.KindBadRequest},
		{"NegativeQuantity", Recipe{UserID: userID, Title: "x", Ingredients: []Ingredient{{IngredientID: uuid.NewString(), Quantity: -1}}}, apperr.KindBadRequest},
		{"UnknownCategory", Recipe{UserID: userID, Title: "x", CategoryID: uuid.NewString()}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			if err := repo.Create(ctx, &rec); !apperr.Is(err, tt.kind) {
				t.Errorf("Expected error kind %d, got %v", tt.kind, err)
			}
		})
	}
}

func TestListPagination(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if err := repo.Create(ctx, &Recipe{UserID: userID, Title: "Recipe"}); err != nil {
			t.Fatalf("Failed to create recipe %d: %v", i, err)
		}
	}

	page, err := repo.List(ctx, userID, 0, 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.CurrentPage != 1 || len(page.Recipes) != 10 {
		t.Errorf("Expected default page 1 with 10 recipes, got page %d with %d", page.CurrentPage, len(page.Recipes))
	}
	if page.TotalRecipes != 12 || page.TotalPages != 2 {
		t.Errorf("Expected 12 recipes over 2 pages, got %d over %d", page.TotalRecipes, page.TotalPages)
	}

	second, err := repo.List(ctx, userID, 2, 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(second.Recipes) != 2 {
		t.Errorf("Expected 2 recipes on page 2, got %d", len(second.Recipes))
	}

	empty, err := repo.List(ctx, uuid.NewString(), 1, 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if empty.Recipes == nil || empty.TotalPages != 0 {
		t.Errorf("Expected an empty non-nil page, got %+v", empty)
	}
}

func TestUpdatePartial(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	rec := &Recipe{UserID: userID, Title: "Soup", Description: "Warm", Instructions: "Boil."}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	fav := true
	updated, err := repo.Update(ctx, userID, rec.ID, Patch{IsFavorite: &fav})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !updated.IsFavorite || updated.Title != "Soup" || updated.Description != "Warm" {
		t.Errorf("Expected only isFavorite to change, got %+v", updated)
	}

	empty := ""
	if _, err := repo.Update(ctx, userID, rec.ID, Patch{Title: &empty}); !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("Expected blank title to be rejected, got %v", err)
	}

	got, err := repo.Get(ctx, userID, rec.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !got.IsFavorite || got.Title != "Soup" {
		t.Errorf("Expected persisted favorite with original title, got %+v", got)
	}
}

func TestCategoriesAndGetByIDs(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	cat := &Category{UserID: userID, Name: "Breakfast"}
	if err := repo.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := repo.CreateCategory(ctx, &Category{UserID: userID, Name: "Breakfast"}); !apperr.Is(err, apperr.KindDuplicate) {
		t.Errorf("Expected duplicate error, got %v", err)
	}

	a := &Recipe{UserID: userID, Title: "Oats", CategoryID: cat.ID}
	b := &Recipe{UserID: userID, Title: "Toast"}
	for _, rec := range []*Recipe{a, b} {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	found, err := repo.GetByIDs(ctx, userID, []string{a.ID, b.ID, uuid.NewString()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(found) != 2 || found[a.ID].CategoryID != cat.ID {
		t.Errorf("Expected both recipes with category on the first, got %v", found)
	}

	if err := repo.DeleteCategory(ctx, userID, cat.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, err := repo.Get(ctx, userID, a.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.CategoryID != "" {
		t.Errorf("Expected recipe to be uncategorized, got %s", got.CategoryID)
	}

	if err := repo.Delete(ctx, userID, a.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := repo.Delete(ctx, userID, a.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected second delete to miss, got %v", err)
	}
}

func TestNormalizePaging(t *testing.T) {
	tests := []struct{ page, limit, wantPage, wantLimit int }{
		{0, 0, 1, 10},
		{3, 5, 3, 5},
		{-1, 1000, 1, 100},
	}
	for _, tt := range tests {
		p, l := NormalizePaging(tt.page, tt.limit)
		if p != tt.wantPage || l != tt.wantLimit {
			t.Errorf("NormalizePaging(%d, %d): expected (%d, %d), got (%d, %d)", tt.page, tt.limit, tt.wantPage, tt.wantLimit, p, l)
		}
	}
}
