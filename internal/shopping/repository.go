package shopping

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

// Repository handles persistence of shopping lists. Items are stored as a
// JSON document on the list row.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

const selectList = `SELECT id, user_id, meal_plan_id, title, description, items, created_at, updated_at FROM shopping_lists`

type scanner interface {
	Scan(dest ...any) error
}

func scanList(row scanner) (*ShoppingList, error) {
	var (
		l                    ShoppingList
		planID               sql.NullString
		items                string
		createdAt, updatedAt string
	)
	if err := row.Scan(&l.ID, &l.UserID, &planID, &l.Title, &l.Description, &items, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &l.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	l.MealPlanID = planID.String

	var err error
	if l.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns the user's shopping lists, most recently changed first.
func (r *Repository) List(ctx context.Context, userID string) ([]ShoppingList, error) {
	rows, err := r.db.QueryContext(ctx, selectList+` WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, apperr.Database("Failed to get shopping lists", err)
	}
	defer rows.Close()

	lists := []ShoppingList{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, apperr.Database("Failed to get shopping lists", err)
		}
		lists = append(lists, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database("Failed to get shopping lists", err)
	}
	return lists, nil
}

// Get returns one of the user's shopping lists.
func (r *Repository) Get(ctx context.Context, userID, id string) (*ShoppingList, error) {
	if err := database.CheckID(id, "shopping list"); err != nil {
		return nil, err
	}
	return getList(ctx, r.db, selectList+` WHERE id = ? AND user_id = ?`, id, userID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getList(ctx context.Context, q querier, query string, args ...any) (*ShoppingList, error) {
	l, err := scanList(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Shopping list not found")
		}
		return nil, apperr.Database("Failed to get shopping list", err)
	}
	return l, nil
}

// Create validates and inserts a list, assigning IDs to it and its items.
func (r *Repository) Create(ctx context.Context, l *ShoppingList) error {
	return insertList(ctx, r.db, l)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertList(ctx context.Context, q execer, l *ShoppingList) error {
	if err := l.validate(); err != nil {
		return err
	}
	assignItemIDs(l.Items)
	items, err := json.Marshal(l.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping list items: %w", err)
	}

	now := time.Now().UTC()
	l.ID = uuid.NewString()
	l.CreatedAt = now
	l.UpdatedAt = now

	_, err = q.ExecContext(ctx,
		`INSERT INTO shopping_lists (id, user_id, meal_plan_id, title, description, items, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, database.NullString(l.MealPlanID), l.Title, l.Description, string(items),
		database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.NotFound("Meal plan not found")
		}
		if database.IsUniqueViolation(err) {
			return apperr.Duplicate("A shopping list already exists for this meal plan")
		}
		return apperr.Database("Failed to create shopping list", err)
	}
	return nil
}

func assignItemIDs(items []Item) {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
}

// SaveForMealPlan stores the list generated from a meal plan. A list
// already generated from the same plan gets its items replaced, keeping
// its title and description. Lookup and write share one transaction.
func (r *Repository) SaveForMealPlan(ctx context.Context, l *ShoppingList) (*ShoppingList, error) {
	if l.MealPlanID == "" {
		return nil, apperr.BadRequest("Meal plan is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Database("Failed to save shopping list", err)
	}
	defer tx.Rollback()

	saved, err := getList(ctx, tx,
		selectList+` WHERE meal_plan_id = ? AND user_id = ?`, l.MealPlanID, l.UserID)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		if err := insertList(ctx, tx, l); err != nil {
			return nil, err
		}
		saved = l
	case err != nil:
		return nil, err
	default:
		saved.Items = l.Items
		assignItemIDs(saved.Items)
		if err := writeList(ctx, tx, saved); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Database("Failed to save shopping list", err)
	}
	return saved, nil
}

// Update changes a list's title and description.
func (r *Repository) Update(ctx context.Context, userID, id string, patch ListPatch) (*ShoppingList, error) {
	return r.update(ctx, userID, id, func(l *ShoppingList) error {
		if patch.Title != nil {
			l.Title = *patch.Title
		}
		if patch.Description != nil {
			l.Description = strings.TrimSpace(*patch.Description)
		}
		return l.validate()
	})
}

// Delete removes one of the user's shopping lists.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	if err := database.CheckID(id, "shopping list"); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return apperr.Database("Failed to delete shopping list", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Shopping list not found")
	}
	return nil
}

// Items returns the items of one of the user's lists.
func (r *Repository) Items(ctx context.Context, userID, id string) ([]Item, error) {
	l, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return l.Items, nil
}

// AddItem appends an item to a list.
func (r *Repository) AddItem(ctx context.Context, userID, listID string, in ItemInput) (*ShoppingList, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return r.update(ctx, userID, listID, func(l *ShoppingList) error {
		l.Items = append(l.Items, Item{
			ID:           uuid.NewString(),
			IngredientID: in.IngredientID,
			Quantity:     in.Quantity,
			Unit:         strings.TrimSpace(in.Unit),
		})
		return nil
	})
}

// UpdateItem changes one item of a list.
func (r *Repository) UpdateItem(ctx context.Context, userID, listID, itemID string, patch ItemPatch) (*ShoppingList, error) {
	if err := database.CheckID(itemID, "item"); err != nil {
		return nil, err
	}
	return r.update(ctx, userID, listID, func(l *ShoppingList) error {
		i := l.itemIndex(itemID)
		if i < 0 {
			return apperr.NotFound("Item not found")
		}
		return patch.apply(&l.Items[i])
	})
}

// RemoveItem deletes one item of a list.
func (r *Repository) RemoveItem(ctx context.Context, userID, listID, itemID string) (*ShoppingList, error) {
	if err := database.CheckID(itemID, "item"); err != nil {
		return nil, err
	}
	return r.update(ctx, userID, listID, func(l *ShoppingList) error {
		i := l.itemIndex(itemID)
		if i < 0 {
			return apperr.NotFound("Item not found")
		}
		l.Items = append(l.Items[:i], l.Items[i+1:]...)
		return nil
	})
}

// update is a read-modify-write of one list inside a transaction.
func (r *Repository) update(ctx context.Context, userID, id string, fn func(*ShoppingList) error) (*ShoppingList, error) {
	if err := database.CheckID(id, "shopping list"); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Database("Failed to update shopping list", err)
	}
	defer tx.Rollback()

	l, err := getList(ctx, tx, selectList+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(l); err != nil {
		return nil, err
	}

	if err := writeList(ctx, tx, l); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Database("Failed to update shopping list", err)
	}
	return l, nil
}

func writeList(ctx context.Context, q execer, l *ShoppingList) error {
	items, err := json.Marshal(l.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping list items: %w", err)
	}
	l.UpdatedAt = time.Now().UTC()

	_, err = q.ExecContext(ctx,
		`UPDATE shopping_lists SET title = ?, description = ?, items = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		l.Title, l.Description, string(items), database.FormatTime(l.UpdatedAt), l.ID, l.UserID,
	)
	if err != nil {
		return apperr.Database("Failed to update shopping list", err)
	}
	return nil
}
