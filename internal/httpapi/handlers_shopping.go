package httpapi

import (
	"net/http"

	"grocery-planner/internal/shopping"

	"github.com/gin-gonic/gin"
)

type shoppingListRequest struct {
	Title       string               `json:"title" binding:"required"`
	Description string               `json:"description"`
	Items       []shopping.ItemInput `json:"items"`
}

func (s *server) listShoppingLists(c *gin.Context) {
	lists, err := s.Lists.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (s *server) getShoppingList(c *gin.Context) {
	l, err := s.Lists.Get(c.Request.Context(), userID(c), c.Param("listId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *server) createShoppingList(c *gin.Context) {
	var req shoppingListRequest
	if !s.bind(c, &req) {
		return
	}

	l := &shopping.ShoppingList{UserID: userID(c), Title: req.Title, Description: req.Description}
	if err := s.Lists.Create(c.Request.Context(), l); err != nil {
		s.fail(c, err)
		return
	}
	for _, in := range req.Items {
		updated, err := s.Lists.AddItem(c.Request.Context(), l.UserID, l.ID, in)
		if err != nil {
			s.fail(c, err)
			return
		}
		l = updated
	}
	c.JSON(http.StatusCreated, l)
}

func (s *server) updateShoppingList(c *gin.Context) {
	var patch shopping.ListPatch
	if !s.bind(c, &patch) {
		return
	}
	l, err := s.Lists.Update(c.Request.Context(), userID(c), c.Param("listId"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *server) deleteShoppingList(c *gin.Context) {
	if err := s.Lists.Delete(c.Request.Context(), userID(c), c.Param("listId")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shopping list deleted"})
}

func (s *server) listShoppingItems(c *gin.Context) {
	items, err := s.Lists.Items(c.Request.Context(), userID(c), c.Param("listId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *server) addShoppingItem(c *gin.Context) {
	var in shopping.ItemInput
	if !s.bind(c, &in) {
		return
	}
	l, err := s.Lists.AddItem(c.Request.Context(), userID(c), c.Param("listId"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (s *server) updateShoppingItem(c *gin.Context) {
	var patch shopping.ItemPatch
	if !s.bind(c, &patch) {
		return
	}
	l, err := s.Lists.UpdateItem(c.Request.Context(), userID(c), c.Param("listId"), c.Param("itemId"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *server) removeShoppingItem(c *gin.Context) {
	l, err := s.Lists.RemoveItem(c.Request.Context(), userID(c), c.Param("listId"), c.Param("itemId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}
