package planner

import "time"

// MealType is the slot of the day a meal is planned for.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// Valid reports whether t is one of the known meal types.
func (t MealType) Valid() bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return true
	}
	return false
}

// MealEntry is a single planned meal. Either RecipeID or MealName is
// expected to be set; both are allowed.
type MealEntry struct {
	ID       string   `json:"id"`
	RecipeID string   `json:"recipeId,omitempty"`
	MealName string   `json:"mealName,omitempty"`
	MealType MealType `json:"mealType"`
}

// MiscItem is an extra ingredient bought for a day outside any recipe.
type MiscItem struct {
	ID           string  `json:"id"`
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// DayRecord holds one calendar day of a meal plan.
type DayRecord struct {
	Date      time.Time   `json:"date"`
	Meals     []MealEntry `json:"meals"`
	MiscItems []MiscItem  `json:"miscItems"`
}

// MealPlan is a user's planned meals over a contiguous date range.
type MealPlan struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	Title        string      `json:"title"`
	StartDate    time.Time   `json:"startDate"`
	EndDate      time.Time   `json:"endDate"`
	NumberOfDays int         `json:"numberOfDays"`
	Days         []DayRecord `json:"days"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// DayIndex returns the position of date inside the plan, or -1 when the
// date is outside the plan's range.
func (p *MealPlan) DayIndex(date time.Time) int {
	target := NormalizeDate(date)
	for i := range p.Days {
		if NormalizeDate(p.Days[i].Date).Equal(target) {
			return i
		}
	}
	return -1
}
