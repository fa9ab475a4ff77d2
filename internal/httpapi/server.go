// Package httpapi exposes the planner over a JSON REST API.
package httpapi

import (
	"net/http"
	"time"

	"grocery-planner/internal/auth"
	"grocery-planner/internal/clipper"
	"grocery-planner/internal/ingredient"
	"grocery-planner/internal/metrics"
	"grocery-planner/internal/planner"
	"grocery-planner/internal/recipe"
	"grocery-planner/internal/shopping"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps are the components the API is served from.
type Deps struct {
	Logger      *logrus.Entry
	Auth        *auth.Authenticator
	Ingredients *ingredient.Repository
	Recipes     *recipe.Repository
	Plans       *planner.Service
	Lists       *shopping.Repository
	Clipper     *clipper.Clipper
	Metrics     *metrics.Store

	// DataDir is reported on by the health endpoint.
	DataDir       string
	CORSOrigins   []string
	SecureCookies bool

	// Telegram handles bot webhook updates when set.
	Telegram http.Handler
}

type server struct {
	Deps
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	s := &server{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(d.Logger))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	authGroup := r.Group("/auth")
	{
		authGroup.GET("/google", s.login)
		authGroup.GET("/google/callback", s.callback)
		authGroup.GET("/logout", s.logout)
		authGroup.GET("/profile", s.requireAuthenticated(), s.profile)
	}

	r.GET("/api/health", s.health)

	api := r.Group("/api", s.requireAuthenticated())
	{
		api.GET("/metrics/usage", s.usage)

		ingredients := api.Group("/ingredients")
		ingredients.GET("", s.listIngredients)
		ingredients.POST("", s.createIngredient)
		ingredients.GET("/categories", s.listIngredientCategories)
		ingredients.POST("/categories", s.createIngredientCategory)
		ingredients.DELETE("/categories/:id", s.deleteIngredientCategory)
		ingredients.DELETE("/:id", s.deleteIngredient)

		recipes := api.Group("/recipes")
		recipes.GET("", s.listRecipes)
		recipes.POST("", s.createRecipe)
		recipes.POST("/import", s.importRecipe)
		recipes.GET("/categories", s.listRecipeCategories)
		recipes.POST("/categories", s.createRecipeCategory)
		recipes.DELETE("/categories/:id", s.deleteRecipeCategory)
		recipes.GET("/:id", s.getRecipe)
		recipes.PATCH("/:id", s.updateRecipe)
		recipes.DELETE("/:id", s.deleteRecipe)

		plans := api.Group("/meal-plans")
		plans.POST("/:planId/add-entry", s.addMealEntry)
		plans.DELETE("/:planId/delete-entry/:entryId", s.deleteMealEntry)
		plans.POST("/:planId/add-misc", s.addMiscItem)
		plans.DELETE("/:planId/delete-misc/:miscId", s.deleteMiscItem)
		plans.GET("/:planId/calendar.ics", s.mealPlanCalendar)
		plans.POST("/:planId/shopping-list", s.mealPlanShoppingList)
		plans.GET("", s.listMealPlans)
		plans.GET("/:planId", s.getMealPlan)
		plans.POST("", s.createMealPlan)
		plans.PATCH("/:planId", s.updateMealPlan)
		plans.DELETE("/:planId", s.deleteMealPlan)

		lists := api.Group("/shopping-lists")
		lists.GET("", s.listShoppingLists)
		lists.POST("", s.createShoppingList)
		lists.GET("/:listId", s.getShoppingList)
		lists.PATCH("/:listId", s.updateShoppingList)
		lists.DELETE("/:listId", s.deleteShoppingList)
		lists.GET("/:listId/items", s.listShoppingItems)
		lists.POST("/:listId/add-item", s.addShoppingItem)
		lists.PATCH("/:listId/update-item/:itemId", s.updateShoppingItem)
		lists.DELETE("/:listId/remove-item/:itemId", s.removeShoppingItem)
	}

	if d.Telegram != nil {
		r.POST("/telegram/webhook", gin.WrapH(d.Telegram))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})
	return r
}
