package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database"

	"github.com/google/uuid"
)

// PlanRepository is a database-backed repository for meal plans. The day
// schedule is stored as a JSON document next to the plan's date range.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

const selectPlan = `SELECT id, user_id, title, start_date, end_date, number_of_days, days, created_at, updated_at FROM meal_plans`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*MealPlan, error) {
	var (
		p                    MealPlan
		start, end, days     string
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &start, &end, &p.NumberOfDays, &days, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(days), &p.Days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal days of meal plan %s: %w", p.ID, err)
	}

	var err error
	if p.StartDate, err = database.ParseDate(start); err != nil {
		return nil, err
	}
	if p.EndDate, err = database.ParseDate(end); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a plan, assigning its ID and timestamps.
func (r *PlanRepository) Create(ctx context.Context, p *MealPlan) error {
	days, err := json.Marshal(p.Days)
	if err != nil {
		return fmt.Errorf("failed to marshal days: %w", err)
	}

	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (id, user_id, title, start_date, end_date, number_of_days, days, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, database.FormatDate(p.StartDate), database.FormatDate(p.EndDate),
		p.NumberOfDays, string(days), database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		return apperr.Database("Failed to create meal plan", err)
	}
	return nil
}

// List returns the user's plans, latest start date first.
func (r *PlanRepository) List(ctx context.Context, userID string) ([]MealPlan, error) {
	rows, err := r.db.QueryContext(ctx, selectPlan+` WHERE user_id = ? ORDER BY start_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, apperr.Database("Failed to get meal plans", err)
	}
	defer rows.Close()

	plans := []MealPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, apperr.Database("Failed to get meal plans", err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database("Failed to get meal plans", err)
	}
	return plans, nil
}

// Get returns one of the user's plans.
func (r *PlanRepository) Get(ctx context.Context, userID, id string) (*MealPlan, error) {
	if err := database.CheckID(id, "meal plan"); err != nil {
		return nil, err
	}
	return getPlan(ctx, r.db, userID, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getPlan(ctx context.Context, q querier, userID, id string) (*MealPlan, error) {
	p, err := scanPlan(q.QueryRowContext(ctx, selectPlan+` WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Meal plan not found")
		}
		return nil, apperr.Database("Failed to get meal plan", err)
	}
	return p, nil
}

// Update loads a plan, lets fn change it and writes it back in one
// transaction. The connection takes the write lock when the transaction
// begins, so concurrent updates to a plan are applied one after another.
// Nothing is written when fn returns an error.
func (r *PlanRepository) Update(ctx context.Context, userID, id string, fn func(*MealPlan) error) (*MealPlan, error) {
	if err := database.CheckID(id, "meal plan"); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Database("Failed to update meal plan", err)
	}
	defer tx.Rollback()

	p, err := getPlan(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}

	days, err := json.Marshal(p.Days)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal days: %w", err)
	}
	p.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE meal_plans SET title = ?, start_date = ?, end_date = ?, number_of_days = ?, days = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		p.Title, database.FormatDate(p.StartDate), database.FormatDate(p.EndDate), p.NumberOfDays,
		string(days), database.FormatTime(p.UpdatedAt), p.ID, userID,
	)
	if err != nil {
		return nil, apperr.Database("Failed to update meal plan", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Database("Failed to update meal plan", err)
	}
	return p, nil
}

// Delete removes one of the user's plans together with its days.
func (r *PlanRepository) Delete(ctx context.Context, userID, id string) error {
	if err := database.CheckID(id, "meal plan"); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM meal_plans WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return apperr.Database("Failed to delete meal plan", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Meal plan not found")
	}
	return nil
}
