package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database"

	"github.com/google/uuid"
)

// Repository is a database-backed repository for recipes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

const selectRecipe = `SELECT id, user_id, title, description, ingredients, instructions, category_id, is_favorite, source_url, created_at, updated_at FROM recipes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row scanner) (*Recipe, error) {
	var (
		rec                  Recipe
		ingredients          string
		category             sql.NullString
		favorite             int
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &ingredients,
		&rec.Instructions, &category, &favorite, &rec.SourceURL, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ingredients), &rec.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients of recipe %s: %w", rec.ID, err)
	}
	rec.CategoryID = category.String
	rec.IsFavorite = favorite != 0

	var err error
	if rec.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns one page of the user's recipes, newest first.
func (r *Repository) List(ctx context.Context, userID string, page, limit int) (*Page, error) {
	page, limit = NormalizePaging(page, limit)

	total, err := r.Count(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		selectRecipe+` WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		userID, limit, (page-1)*limit)
	if err != nil {
		return nil, apperr.Database("Failed to get recipes", err)
	}
	defer rows.Close()

	recipes := []Recipe{}
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, apperr.Database("Failed to get recipes", err)
		}
		recipes = append(recipes, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database("Failed to get recipes", err)
	}

	return &Page{
		Recipes:      recipes,
		TotalRecipes: total,
		TotalPages:   totalPages(total, limit),
		CurrentPage:  page,
	}, nil
}

// Count returns the number of recipes the user has.
func (r *Repository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, apperr.Database("Failed to count recipes", err)
	}
	return n, nil
}

// Get returns one of the user's recipes.
func (r *Repository) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	if err := database.CheckID(id, "recipe"); err != nil {
		return nil, err
	}
	rec, err := scanRecipe(r.db.QueryRowContext(ctx, selectRecipe+` WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Recipe not found")
		}
		return nil, apperr.Database("Failed to get recipe", err)
	}
	return rec, nil
}

// GetByIDs returns the user's recipes with the given IDs keyed by ID.
// Missing IDs are absent from the result.
func (r *Repository) GetByIDs(ctx context.Context, userID string, ids []string) (map[string]*Recipe, error) {
	found := make(map[string]*Recipe, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := r.db.QueryContext(ctx,
		selectRecipe+` WHERE user_id = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, apperr.Database("Failed to get recipes", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, apperr.Database("Failed to get recipes", err)
		}
		found[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database("Failed to get recipes", err)
	}
	return found, nil
}

// Create validates and inserts rec, assigning its ID and timestamps.
func (r *Repository) Create(ctx context.Context, rec *Recipe) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := r.checkCategory(ctx, rec.UserID, rec.CategoryID); err != nil {
		return err
	}

	ingredients, err := json.Marshal(rec.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	now := time.Now().UTC()
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO recipes (id, user_id, title, description, ingredients, instructions, category_id, is_favorite, source_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Title, rec.Description, string(ingredients), rec.Instructions,
		database.NullString(rec.CategoryID), boolToInt(rec.IsFavorite), rec.SourceURL,
		database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		return apperr.Database("Failed to create recipe", err)
	}
	return nil
}

// Update applies a partial update to one of the user's recipes.
func (r *Repository) Update(ctx context.Context, userID, id string, patch Patch) (*Recipe, error) {
	rec, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(rec); err != nil {
		return nil, err
	}
	if patch.CategoryID != nil {
		if err := r.checkCategory(ctx, userID, rec.CategoryID); err != nil {
			return nil, err
		}
	}

	ingredients, err := json.Marshal(rec.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	rec.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`UPDATE recipes SET title = ?, description = ?, ingredients = ?, instructions = ?, category_id = ?, is_favorite = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		rec.Title, rec.Description, string(ingredients), rec.Instructions,
		database.NullString(rec.CategoryID), boolToInt(rec.IsFavorite), database.FormatTime(rec.UpdatedAt),
		rec.ID, userID,
	)
	if err != nil {
		return nil, apperr.Database("Failed to update recipe", err)
	}
	return rec, nil
}

// Delete removes one of the user's recipes.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	if err := database.CheckID(id, "recipe"); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return apperr.Database("Failed to delete recipe", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Recipe not found")
	}
	return nil
}

// ListCategories returns the user's recipe categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM recipe_categories WHERE user_id = ? ORDER BY name`, userID)
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

// CreateCategory adds a recipe category. Names are unique per user.
func (r *Repository) CreateCategory(ctx context.Context, c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperr.BadRequest("Category name is required")
	}
	c.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recipe_categories (id, user_id, name) VALUES (?, ?, ?)`, c.ID, c.UserID, c.Name)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Duplicate("Category with this name already exists")
		}
		return apperr.Database("Failed to create category", err)
	}
	return nil
}

// DeleteCategory removes a recipe category. Its recipes become uncategorized.
func (r *Repository) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := database.CheckID(id, "category"); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipe_categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return apperr.Database("Failed to delete category", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Category not found")
	}
	return nil
}

func (r *Repository) checkCategory(ctx context.Context, userID, id string) error {
	if id == "" {
		return nil
	}
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipe_categories WHERE id = ? AND user_id = ?`, id, userID).Scan(&n)
	if err != nil {
		return apperr.Database("Failed to get category", err)
	}
	if n == 0 {
		return apperr.NotFound("Category not found")
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
