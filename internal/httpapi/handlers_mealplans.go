package httpapi

import (
	"fmt"
	"net/http"

	"grocery-planner/internal/database"
	"grocery-planner/internal/planner"
	"grocery-planner/internal/shopping"

	"github.com/gin-gonic/gin"
)

func (s *server) listMealPlans(c *gin.Context) {
	plans, err := s.Plans.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (s *server) getMealPlan(c *gin.Context) {
	p, err := s.Plans.Get(c.Request.Context(), userID(c), c.Param("planId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *server) createMealPlan(c *gin.Context) {
	var in planner.CreateInput
	if !s.bind(c, &in) {
		return
	}
	p, err := s.Plans.Create(c.Request.Context(), userID(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *server) updateMealPlan(c *gin.Context) {
	var in planner.UpdateInput
	if !s.bind(c, &in) {
		return
	}
	p, err := s.Plans.Update(c.Request.Context(), userID(c), c.Param("planId"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *server) deleteMealPlan(c *gin.Context) {
	if err := s.Plans.Delete(c.Request.Context(), userID(c), c.Param("planId")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal plan deleted"})
}

func (s *server) addMealEntry(c *gin.Context) {
	var in planner.EntryInput
	if !s.bind(c, &in) {
		return
	}
	p, err := s.Plans.AddEntry(c.Request.Context(), userID(c), c.Param("planId"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *server) deleteMealEntry(c *gin.Context) {
	p, err := s.Plans.DeleteEntry(c.Request.Context(), userID(c), c.Param("planId"), c.Param("entryId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *server) addMiscItem(c *gin.Context) {
	var in planner.MiscInput
	if !s.bind(c, &in) {
		return
	}
	p, err := s.Plans.AddMisc(c.Request.Context(), userID(c), c.Param("planId"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *server) deleteMiscItem(c *gin.Context) {
	p, err := s.Plans.DeleteMisc(c.Request.Context(), userID(c), c.Param("planId"), c.Param("miscId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *server) mealPlanCalendar(c *gin.Context) {
	p, data, err := s.Plans.Calendar(c.Request.Context(), userID(c), c.Param("planId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="meal-plan-%s.ics"`, database.FormatDate(p.StartDate)))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

func (s *server) mealPlanShoppingList(c *gin.Context) {
	p, needs, err := s.Plans.ShoppingNeeds(c.Request.Context(), userID(c), c.Param("planId"))
	if err != nil {
		s.fail(c, err)
		return
	}

	items := make([]shopping.Item, 0, len(needs))
	for _, n := range needs {
		items = append(items, shopping.Item{IngredientID: n.IngredientID, Quantity: n.Quantity, Unit: n.Unit})
	}

	title := p.Title
	if title == "" {
		title = fmt.Sprintf("%s to %s", database.FormatDate(p.StartDate), database.FormatDate(p.EndDate))
	}
	list, err := s.Lists.SaveForMealPlan(c.Request.Context(), &shopping.ShoppingList{
		UserID:     userID(c),
		MealPlanID: p.ID,
		Title:      "Shopping for " + title,
		Items:      items,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}
