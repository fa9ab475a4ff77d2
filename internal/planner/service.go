package planner

import (
	"context"
	"strings"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database"
	"grocery-planner/internal/recipe"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateInput is the body of a new meal plan.
type CreateInput struct {
	Title     string `json:"title"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

// UpdateInput changes a plan. Nil fields are left unchanged.
type UpdateInput struct {
	Title     *string `json:"title"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// EntryInput adds a meal to a day of a plan.
type EntryInput struct {
	Date     string   `json:"date" binding:"required"`
	RecipeID string   `json:"recipeId"`
	MealName string   `json:"mealName"`
	MealType MealType `json:"mealType" binding:"required"`
}

// MiscInput adds an extra ingredient to a day of a plan.
type MiscInput struct {
	Date         string  `json:"date" binding:"required"`
	IngredientID string  `json:"ingredientId" binding:"required"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// RecipeLookup resolves the recipes a plan points at.
type RecipeLookup interface {
	GetByIDs(ctx context.Context, userID string, ids []string) (map[string]*recipe.Recipe, error)
}

// Service implements the meal plan operations on top of the repository.
type Service struct {
	plans   *PlanRepository
	recipes RecipeLookup
	logger  *logrus.Entry
	now     func() time.Time
}

// NewService creates a new Service.
func NewService(plans *PlanRepository, recipes RecipeLookup, logger *logrus.Entry) *Service {
	return &Service{plans: plans, recipes: recipes, logger: logger, now: time.Now}
}

// List returns the user's plans.
func (s *Service) List(ctx context.Context, userID string) ([]MealPlan, error) {
	return s.plans.List(ctx, userID)
}

// Get returns one of the user's plans.
func (s *Service) Get(ctx context.Context, userID, planID string) (*MealPlan, error) {
	return s.plans.Get(ctx, userID, planID)
}

// Delete removes one of the user's plans.
func (s *Service) Delete(ctx context.Context, userID, planID string) error {
	return s.plans.Delete(ctx, userID, planID)
}

// Create makes a plan with one empty day per date in the range.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*MealPlan, error) {
	start, err := ParseInputDate(in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := ParseInputDate(in.EndDate)
	if err != nil {
		return nil, err
	}
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	n := CalculateNumberOfDays(start, end)
	p := &MealPlan{
		UserID:       userID,
		Title:        strings.TrimSpace(in.Title),
		StartDate:    start,
		EndDate:      end,
		NumberOfDays: n,
		Days:         GenerateEmptyDays(start, n),
	}
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"plan_id": p.ID, "days": n}).Info("meal plan created")
	return p, nil
}

// Update changes the title and/or date range of a plan. When the range
// changes the day schedule is reconciled: days still in range keep their
// meals and items, days that left the range are dropped.
func (s *Service) Update(ctx context.Context, userID, planID string, in UpdateInput) (*MealPlan, error) {
	var start, end *time.Time
	if in.StartDate != nil {
		t, err := ParseInputDate(*in.StartDate)
		if err != nil {
			return nil, err
		}
		start = &t
	}
	if in.EndDate != nil {
		t, err := ParseInputDate(*in.EndDate)
		if err != nil {
			return nil, err
		}
		end = &t
	}

	return s.plans.Update(ctx, userID, planID, func(p *MealPlan) error {
		if in.Title != nil {
			p.Title = strings.TrimSpace(*in.Title)
		}
		if start == nil && end == nil {
			return nil
		}

		newStart, newEnd := p.StartDate, p.EndDate
		if start != nil {
			newStart = *start
		}
		if end != nil {
			newEnd = *end
		}
		if err := checkRange(newStart, newEnd); err != nil {
			return err
		}

		before := len(p.Days)
		p.StartDate = newStart
		p.EndDate = newEnd
		p.NumberOfDays = CalculateNumberOfDays(newStart, newEnd)
		p.Days = UpdateDaysArray(p.Days, newStart, p.NumberOfDays)

		s.logger.WithFields(logrus.Fields{
			"plan_id":     p.ID,
			"days_before": before,
			"days_after":  p.NumberOfDays,
		}).Info("meal plan range changed")
		return nil
	})
}

// AddEntry appends a meal to the day matching in.Date.
func (s *Service) AddEntry(ctx context.Context, userID, planID string, in EntryInput) (*MealPlan, error) {
	date, err := ParseInputDate(in.Date)
	if err != nil {
		return nil, err
	}
	if !in.MealType.Valid() {
		return nil, apperr.BadRequest("Invalid meal type")
	}
	if in.RecipeID != "" {
		if err := database.CheckID(in.RecipeID, "recipe"); err != nil {
			return nil, err
		}
	}
	in.MealName = strings.TrimSpace(in.MealName)
	if in.RecipeID == "" && in.MealName == "" {
		return nil, apperr.BadRequest("A recipe or a meal name is required")
	}

	return s.plans.Update(ctx, userID, planID, func(p *MealPlan) error {
		i := p.DayIndex(date)
		if i < 0 {
			return apperr.BadRequest("Date is outside the meal plan")
		}
		p.Days[i].Meals = append(p.Days[i].Meals, MealEntry{
			ID:       uuid.NewString(),
			RecipeID: in.RecipeID,
			MealName: in.MealName,
			MealType: in.MealType,
		})
		return nil
	})
}

// DeleteEntry removes a meal from whichever day holds it.
func (s *Service) DeleteEntry(ctx context.Context, userID, planID, entryID string) (*MealPlan, error) {
	if err := database.CheckID(entryID, "meal entry"); err != nil {
		return nil, err
	}
	return s.plans.Update(ctx, userID, planID, func(p *MealPlan) error {
		for i := range p.Days {
			for j, m := range p.Days[i].Meals {
				if m.ID == entryID {
					p.Days[i].Meals = append(p.Days[i].Meals[:j], p.Days[i].Meals[j+1:]...)
					return nil
				}
			}
		}
		return apperr.NotFound("Meal entry not found")
	})
}

// AddMisc appends an extra ingredient to the day matching in.Date.
func (s *Service) AddMisc(ctx context.Context, userID, planID string, in MiscInput) (*MealPlan, error) {
	date, err := ParseInputDate(in.Date)
	if err != nil {
		return nil, err
	}
	if err := database.CheckID(in.IngredientID, "ingredient"); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, apperr.BadRequest("Quantity must be greater than zero")
	}

	return s.plans.Update(ctx, userID, planID, func(p *MealPlan) error {
		i := p.DayIndex(date)
		if i < 0 {
			return apperr.BadRequest("Date is outside the meal plan")
		}
		p.Days[i].MiscItems = append(p.Days[i].MiscItems, MiscItem{
			ID:           uuid.NewString(),
			IngredientID: in.IngredientID,
			Quantity:     in.Quantity,
			Unit:         strings.TrimSpace(in.Unit),
		})
		return nil
	})
}

// DeleteMisc removes an extra ingredient from whichever day holds it.
func (s *Service) DeleteMisc(ctx context.Context, userID, planID, miscID string) (*MealPlan, error) {
	if err := database.CheckID(miscID, "misc item"); err != nil {
		return nil, err
	}
	return s.plans.Update(ctx, userID, planID, func(p *MealPlan) error {
		for i := range p.Days {
			for j, m := range p.Days[i].MiscItems {
				if m.ID == miscID {
					p.Days[i].MiscItems = append(p.Days[i].MiscItems[:j], p.Days[i].MiscItems[j+1:]...)
					return nil
				}
			}
		}
		return apperr.NotFound("Misc item not found")
	})
}

// Calendar renders one of the user's plans as an iCalendar feed.
func (s *Service) Calendar(ctx context.Context, userID, planID string) (*MealPlan, []byte, error) {
	p, recipes, err := s.withRecipes(ctx, userID, planID)
	if err != nil {
		return nil, nil, err
	}
	titles := make(map[string]string, len(recipes))
	for id, rec := range recipes {
		titles[id] = rec.Title
	}
	data, err := EncodeCalendar(p, titles, s.now())
	if err != nil {
		return nil, nil, err
	}
	return p, data, nil
}

// ShoppingNeeds totals the ingredients one of the user's plans calls for.
func (s *Service) ShoppingNeeds(ctx context.Context, userID, planID string) (*MealPlan, []Need, error) {
	p, recipes, err := s.withRecipes(ctx, userID, planID)
	if err != nil {
		return nil, nil, err
	}
	return p, ShoppingNeeds(p, recipes), nil
}

func (s *Service) withRecipes(ctx context.Context, userID, planID string) (*MealPlan, map[string]*recipe.Recipe, error) {
	p, err := s.plans.Get(ctx, userID, planID)
	if err != nil {
		return nil, nil, err
	}
	recipes, err := s.recipes.GetByIDs(ctx, userID, p.RecipeIDs())
	if err != nil {
		return nil, nil, err
	}
	return p, recipes, nil
}

// ParseInputDate accepts a calendar date ("2024-03-01") or an RFC 3339
// timestamp and returns its calendar day at midnight UTC.
func ParseInputDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(database.DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NormalizeDate(t), nil
	}
	return time.Time{}, apperr.BadRequest("Invalid date: " + s)
}

func checkRange(start, end time.Time) error {
	if end.Before(start) {
		return apperr.BadRequest("End date must not be before start date")
	}
	return nil
}
