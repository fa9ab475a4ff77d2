package httpapi

import (
	"net/http"
	"strconv"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/recipe"

	"github.com/gin-gonic/gin"
)

type recipeRequest struct {
	Title        string              `json:"title" binding:"required"`
	Description  string              `json:"description"`
	Ingredients  []recipe.Ingredient `json:"ingredients"`
	Instructions string              `json:"instructions"`
	CategoryID   string              `json:"categoryId"`
	IsFavorite   bool                `json:"isFavorite"`
	SourceURL    string              `json:"sourceUrl"`
}

type importRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *server) listRecipes(c *gin.Context) {
	page, err := queryInt(c, "page", recipe.DefaultPage)
	if err != nil {
		s.fail(c, err)
		return
	}
	limit, err := queryInt(c, "limit", recipe.DefaultLimit)
	if err != nil {
		s.fail(c, err)
		return
	}

	result, err := s.Recipes.List(c.Request.Context(), userID(c), page, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *server) getRecipe(c *gin.Context) {
	rec, err := s.Recipes.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *server) createRecipe(c *gin.Context) {
	var req recipeRequest
	if !s.bind(c, &req) {
		return
	}
	rec := &recipe.Recipe{
		UserID:       userID(c),
		Title:        req.Title,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		CategoryID:   req.CategoryID,
		IsFavorite:   req.IsFavorite,
		SourceURL:    req.SourceURL,
	}
	if err := s.Recipes.Create(c.Request.Context(), rec); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *server) updateRecipe(c *gin.Context) {
	var patch recipe.Patch
	if !s.bind(c, &patch) {
		return
	}
	rec, err := s.Recipes.Update(c.Request.Context(), userID(c), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *server) deleteRecipe(c *gin.Context) {
	if err := s.Recipes.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted"})
}

func (s *server) importRecipe(c *gin.Context) {
	var req importRequest
	if !s.bind(c, &req) {
		return
	}
	clipped, err := s.Clipper.ClipURL(c.Request.Context(), req.URL)
	if err != nil {
		s.fail(c, err)
		return
	}

	rec := clipped.ToRecipe(userID(c))
	if err := s.Recipes.Create(c.Request.Context(), rec); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": rec, "source": clipped.Source})
}

func (s *server) listRecipeCategories(c *gin.Context) {
	list, err := s.Recipes.ListCategories(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) createRecipeCategory(c *gin.Context) {
	var req categoryRequest
	if !s.bind(c, &req) {
		return
	}
	cat := &recipe.Category{UserID: userID(c), Name: req.Name}
	if err := s.Recipes.CreateCategory(c.Request.Context(), cat); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *server) deleteRecipeCategory(c *gin.Context) {
	if err := s.Recipes.DeleteCategory(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest("Invalid " + key + " parameter")
	}
	return n, nil
}
