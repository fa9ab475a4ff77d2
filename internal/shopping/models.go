package shopping

import (
	"strings"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database"
)

// Item is one line of a shopping list.
type Item struct {
	ID           string  `json:"id"`
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	IsChecked    bool    `json:"isChecked"`
}

// ShoppingList is a user's list of ingredients to buy, optionally
// generated from a meal plan.
type ShoppingList struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	MealPlanID  string    `json:"mealPlanId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListPatch changes a list's title and description. Items are changed
// through the item operations only.
type ListPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// ItemInput adds an item to a list.
type ItemInput struct {
	IngredientID string  `json:"ingredientId" binding:"required"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// ItemPatch changes an item. Nil fields are left unchanged.
type ItemPatch struct {
	Quantity  *float64 `json:"quantity"`
	Unit      *string  `json:"unit"`
	IsChecked *bool    `json:"isChecked"`
}

func (in ItemInput) validate() error {
	if err := database.CheckID(in.IngredientID, "ingredient"); err != nil {
		return err
	}
	if in.Quantity <= 0 {
		return apperr.BadRequest("Quantity must be greater than zero")
	}
	return nil
}

func (p ItemPatch) apply(item *Item) error {
	if p.Quantity != nil {
		if *p.Quantity <= 0 {
			return apperr.BadRequest("Quantity must be greater than zero")
		}
		item.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		item.Unit = strings.TrimSpace(*p.Unit)
	}
	if p.IsChecked != nil {
		item.IsChecked = *p.IsChecked
	}
	return nil
}

func (l *ShoppingList) validate() error {
	l.Title = strings.TrimSpace(l.Title)
	if l.Title == "" {
		return apperr.BadRequest("Shopping list title is required")
	}
	if l.Items == nil {
		l.Items = []Item{}
	}
	return nil
}

func (l *ShoppingList) itemIndex(itemID string) int {
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}
