package shopping

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database"
	"grocery-planner/internal/database/dbtest"

	"github.com/google/uuid"
)

func newTestRepo(t *testing.T) (*Repository, *sql.DB, string) {
	t.Helper()
	db := dbtest.New(t)
	userID := uuid.NewString()
	dbtest.SeedUser(t, db, userID)
	return NewRepository(db), db, userID
}

func seedPlan(t *testing.T, db *sql.DB, userID string) string {
	t.Helper()
	id := uuid.NewString()
	now := database.FormatTime(time.Now())
	_, err := db.Exec(
		`INSERT INTO meal_plans (id, user_id, start_date, end_date, number_of_days, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, "2024-03-04", "2024-03-04", 1, now, now,
	)
	if err != nil {
		t.Fatalf("Failed to seed meal plan: %v", err)
	}
	return id
}

func TestCreateGetAndPatch(t *testing.T) {
	repo, _, userID := newTestRepo(t)
	ctx := context.Background()

	l := &ShoppingList{UserID: userID, Title: " Weekend ", Description: "BBQ"}
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := repo.Get(ctx, userID, l.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Title != "Weekend" || got.Items == nil {
		t.Errorf("Expected trimmed title and empty items, got %+v", got)
	}

	desc := "Garden party"
	updated, err := repo.Update(ctx, userID, l.ID, ListPatch{Description: &desc})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Title != "Weekend" || updated.Description != "Garden party" {
		t.Errorf("Expected only the description to change, got %+v", updated)
	}

	blank := " "
	if _, err := repo.Update(ctx, userID, l.ID, ListPatch{Title: &blank}); !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("Expected blank title to be rejected, got %v", err)
	}
	if err := repo.Create(ctx, &ShoppingList{UserID: userID}); !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("Expected list without title to be rejected, got %v", err)
	}
}

func TestItemOperations(t *testing.T) {
	repo, _, userID := newTestRepo(t)
	ctx := context.Background()

	l := &ShoppingList{UserID: userID, Title: "Groceries"}
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	milk := uuid.NewString()
	if _, err := repo.AddItem(ctx, userID, l.ID, ItemInput{IngredientID: milk}); !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("Expected zero quantity to be rejected, got %v", err)
	}
	updated, err := repo.AddItem(ctx, userID, l.ID, ItemInput{IngredientID: milk, Quantity: 1, Unit: "l"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(updated.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(updated.Items))
	}
	itemID := updated.Items[0].ID

	checked := true
	qty := 2.5
	updated, err = repo.UpdateItem(ctx, userID, l.ID, itemID, ItemPatch{IsChecked: &checked, Quantity: &qty})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !updated.Items[0].IsChecked || updated.Items[0].Quantity != 2.5 || updated.Items[0].Unit != "l" {
		t.Errorf("Expected checked item with quantity 2.5 l, got %+v", updated.Items[0])
	}

	items, err := repo.Items(ctx, userID, l.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(items) != 1 || !items[0].IsChecked {
		t.Errorf("Expected persisted checked item, got %+v", items)
	}

	if _, err := repo.UpdateItem(ctx, userID, l.ID, uuid.NewString(), ItemPatch{IsChecked: &checked}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected unknown item to be not found, got %v", err)
	}

	updated, err = repo.RemoveItem(ctx, userID, l.ID, itemID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(updated.Items) != 0 {
		t.Errorf("Expected no items, got %+v", updated.Items)
	}
	if _, err := repo.RemoveItem(ctx, userID, l.ID, itemID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected second remove to miss, got %v", err)
	}
}

func TestSaveForMealPlanReplacesItems(t *testing.T) {
	repo, db, userID := newTestRepo(t)
	ctx := context.Background()
	planID := seedPlan(t, db, userID)

	first, err := repo.SaveForMealPlan(ctx, &ShoppingList{
		UserID:     userID,
		MealPlanID: planID,
		Title:      "Week list",
		Items:      []Item{{IngredientID: uuid.NewString(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	second, err := repo.SaveForMealPlan(ctx, &ShoppingList{
		UserID:     userID,
		MealPlanID: planID,
		Title:      "ignored",
		Items:      []Item{{IngredientID: uuid.NewString(), Quantity: 2}, {IngredientID: uuid.NewString(), Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if second.ID != first.ID || second.Title != "Week list" {
		t.Errorf("Expected the existing list to be reused, got %+v", second)
	}
	if len(second.Items) != 2 || second.Items[0].ID == "" {
		t.Errorf("Expected 2 replaced items with IDs, got %+v", second.Items)
	}

	lists, err := repo.List(ctx, userID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(lists) != 1 {
		t.Errorf("Expected a single list, got %d", len(lists))
	}

	if _, err := db.Exec(`DELETE FROM meal_plans WHERE id = ?`, planID); err != nil {
		t.Fatalf("Failed to delete plan: %v", err)
	}
	kept, err := repo.Get(ctx, userID, first.ID)
	if err != nil {
		t.Fatalf("Expected list to outlive its plan, got %v", err)
	}
	if kept.MealPlanID != "" {
		t.Errorf("Expected plan link to be cleared, got %s", kept.MealPlanID)
	}
}

func TestScopedToUser(t *testing.T) {
	repo, _, userID := newTestRepo(t)
	ctx := context.Background()

	l := &ShoppingList{UserID: userID, Title: "Mine"}
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stranger := uuid.NewString()
	if _, err := repo.Get(ctx, stranger, l.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected another user's list to be invisible, got %v", err)
	}
	if err := repo.Delete(ctx, stranger, l.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected another user's delete to miss, got %v", err)
	}
	if _, err := repo.Get(ctx, userID, "xyz"); !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("Expected malformed id to be a bad request, got %v", err)
	}
	if err := repo.Delete(ctx, userID, l.ID); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestSaveForMealPlanConcurrent(t *testing.T) {
	repo, db, userID := newTestRepo(t)
	ctx := context.Background()
	planID := seedPlan(t, db, userID)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.SaveForMealPlan(ctx, &ShoppingList{
				UserID:     userID,
				MealPlanID: planID,
				Title:      "Week list",
				Items:      []Item{{IngredientID: uuid.NewString(), Quantity: 1}},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM shopping_lists WHERE meal_plan_id = ?`, planID).Scan(&count); err != nil {
		t.Fatalf("Failed to count lists: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected one list for the plan, got %d", count)
	}
}

func TestOneListPerMealPlan(t *testing.T) {
	repo, db, userID := newTestRepo(t)
	ctx := context.Background()
	planID := seedPlan(t, db, userID)

	if err := repo.Create(ctx, &ShoppingList{UserID: userID, MealPlanID: planID, Title: "First"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	err := repo.Create(ctx, &ShoppingList{UserID: userID, MealPlanID: planID, Title: "Second"})
	if !apperr.Is(err, apperr.KindDuplicate) {
		t.Errorf("Expected duplicate error, got %v", err)
	}

	// Lists without a plan are not constrained.
	for _, title := range []string{"Manual A", "Manual B"} {
		if err := repo.Create(ctx, &ShoppingList{UserID: userID, Title: title}); err != nil {
			t.Errorf("Expected no error for %s, got %v", title, err)
		}
	}
}
