package httpapi

import (
	"net/http"

	"grocery-planner/internal/ingredient"

	"github.com/gin-gonic/gin"
)

type ingredientRequest struct {
	Name       string `json:"name" binding:"required"`
	CategoryID string `json:"categoryId"`
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *server) listIngredients(c *gin.Context) {
	list, err := s.Ingredients.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) createIngredient(c *gin.Context) {
	var req ingredientRequest
	if !s.bind(c, &req) {
		return
	}
	ing := &ingredient.Ingredient{UserID: userID(c), Name: req.Name, CategoryID: req.CategoryID}
	if err := s.Ingredients.Create(c.Request.Context(), ing); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ing)
}

func (s *server) deleteIngredient(c *gin.Context) {
	if err := s.Ingredients.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ingredient deleted"})
}

func (s *server) listIngredientCategories(c *gin.Context) {
	list, err := s.Ingredients.ListCategories(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) createIngredientCategory(c *gin.Context) {
	var req categoryRequest
	if !s.bind(c, &req) {
		return
	}
	cat := &ingredient.Category{UserID: userID(c), Name: req.Name}
	if err := s.Ingredients.CreateCategory(c.Request.Context(), cat); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *server) deleteIngredientCategory(c *gin.Context) {
	if err := s.Ingredients.DeleteCategory(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
