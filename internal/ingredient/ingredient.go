package ingredient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database"

	"github.com/google/uuid"
)

// Ingredient is a pantry item a user can put in recipes, plans and lists.
type Ingredient struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	CategoryID string `json:"categoryId,omitempty"`
}

// Category groups ingredients, e.g. "Dairy" or "Produce".
type Category struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// Repository is a database-backed repository for ingredients and their
// categories. Every method is scoped to a user.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// List returns the user's ingredients ordered by name.
func (r *Repository) List(ctx context.Context, userID string) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, category_id FROM ingredients WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, apperr.Database("Failed to get ingredients", err)
	}
	defer rows.Close()

	ingredients := []Ingredient{}
	for rows.Next() {
		var (
			ing      Ingredient
			category sql.NullString
		)
		if err := rows.Scan(&ing.ID, &ing.UserID, &ing.Name, &category); err != nil {
			return nil, apperr.Database("Failed to get ingredients", err)
		}
		ing.CategoryID = category.String
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database("Failed to get ingredients", err)
	}
	return ingredients, nil
}

// Get returns one of the user's ingredients.
func (r *Repository) Get(ctx context.Context, userID, id string) (*Ingredient, error) {
	if err := database.CheckID(id, "ingredient"); err != nil {
		return nil, err
	}
	var (
		ing      Ingredient
		category sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, category_id FROM ingredients WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&ing.ID, &ing.UserID, &ing.Name, &category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Ingredient not found")
		}
		return nil, apperr.Database("Failed to get ingredient", err)
	}
	ing.CategoryID = category.String
	return &ing, nil
}

// Names maps ingredient IDs to names for the user. Unknown IDs are absent.
func (r *Repository) Names(ctx context.Context, userID string) (map[string]string, error) {
	ingredients, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(ingredients))
	for _, ing := range ingredients {
		names[ing.ID] = ing.Name
	}
	return names, nil
}

// Create adds an ingredient. Names are unique per user.
func (r *Repository) Create(ctx context.Context, ing *Ingredient) error {
	ing.Name = strings.TrimSpace(ing.Name)
	if ing.Name == "" {
		return apperr.BadRequest("Ingredient name is required")
	}
	if ing.CategoryID != "" {
		if err := database.CheckID(ing.CategoryID, "category"); err != nil {
			return err
		}
		if _, err := r.getCategory(ctx, ing.UserID, ing.CategoryID); err != nil {
			return err
		}
	}

	ing.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (id, user_id, name, category_id) VALUES (?, ?, ?, ?)`,
		ing.ID, ing.UserID, ing.Name, database.NullString(ing.CategoryID),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Duplicate("Ingredient with this name already exists")
		}
		return apperr.Database("Failed to create ingredient", err)
	}
	return nil
}

// Delete removes one of the user's ingredients.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	if err := database.CheckID(id, "ingredient"); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return apperr.Database("Failed to delete ingredient", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Ingredient not found")
	}
	return nil
}

// ListCategories returns the user's ingredient categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM ingredient_categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, apperr.Database("Failed to get categories", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, apperr.Database("Failed to get categories", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database("Failed to get categories", err)
	}
	return categories, nil
}

// CreateCategory adds a category. Names are unique per user.
func (r *Repository) CreateCategory(ctx context.Context, c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperr.BadRequest("Category name is required")
	}
	c.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredient_categories (id, user_id, name) VALUES (?, ?, ?)`, c.ID, c.UserID, c.Name)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Duplicate("Category with this name already exists")
		}
		return apperr.Database("Failed to create category", err)
	}
	return nil
}

// DeleteCategory removes a category. Its ingredients become uncategorized.
func (r *Repository) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := database.CheckID(id, "category"); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM ingredient_categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return apperr.Database("Failed to delete category", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Category not found")
	}
	return nil
}

func (r *Repository) getCategory(ctx context.Context, userID, id string) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name FROM ingredient_categories WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&c.ID, &c.UserID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Category not found")
		}
		return nil, fmt.Errorf("failed to get category %s: %w", id, err)
	}
	return &c, nil
}
