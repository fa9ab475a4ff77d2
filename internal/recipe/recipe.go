package recipe

import (
	"strings"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database"
)

// Ingredient is a quantity of a pantry ingredient used by a recipe.
type Ingredient struct {
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// Recipe is a user's recipe.
type Recipe struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions string       `json:"instructions"`
	CategoryID   string       `json:"categoryId,omitempty"`
	IsFavorite   bool         `json:"isFavorite"`
	SourceURL    string       `json:"sourceUrl,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Category groups recipes, e.g. "Soups".
type Category struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title        *string       `json:"title"`
	Description  *string       `json:"description"`
	Ingredients  *[]Ingredient `json:"ingredients"`
	Instructions *string       `json:"instructions"`
	CategoryID   *string       `json:"categoryId"`
	IsFavorite   *bool         `json:"isFavorite"`
}

// Apply copies the set fields of p onto r after validating them.
func (p Patch) Apply(r *Recipe) error {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Ingredients != nil {
		r.Ingredients = *p.Ingredients
	}
	if p.Instructions != nil {
		r.Instructions = *p.Instructions
	}
	if p.CategoryID != nil {
		r.CategoryID = *p.CategoryID
	}
	if p.IsFavorite != nil {
		r.IsFavorite = *p.IsFavorite
	}
	return r.Validate()
}

// Validate normalizes r and checks the fields a stored recipe must have.
func (r *Recipe) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return apperr.BadRequest("Recipe title is required")
	}
	if r.CategoryID != "" {
		if err := database.CheckID(r.CategoryID, "category"); err != nil {
			return err
		}
	}
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	for _, ing := range r.Ingredients {
		if err := database.CheckID(ing.IngredientID, "ingredient"); err != nil {
			return err
		}
		if ing.Quantity < 0 {
			return apperr.BadRequest("Ingredient quantity cannot be negative")
		}
	}
	return nil
}

// Page is one page of a user's recipes.
type Page struct {
	Recipes      []Recipe `json:"recipes"`
	TotalRecipes int      `json:"totalRecipes"`
	TotalPages   int      `json:"totalPages"`
	CurrentPage  int      `json:"currentPage"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	maxLimit     = 100
)

// NormalizePaging applies defaults to page and limit and bounds limit.
func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func totalPages(total, limit int) int {
	return (total + limit - 1) / limit
}
