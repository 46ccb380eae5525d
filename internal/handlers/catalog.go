package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/forms"
	"coffeeshop/internal/models"
)

// GET /api/state
func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, shopOf(c).View())
}

// GET /api/products?category=
func (h *Handler) Products(c *gin.Context) {
	cat := shopOf(c).Catalog
	products := cat.List()
	if category := c.Query("category"); category != "" {
		products = cat.ListCategory(category)
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// GET /api/products/:id
func (h *Handler) Product(c *gin.Context) {
	id, err := forms.ParseProductID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := shopOf(c).Catalog.Get(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/categories
func (h *Handler) Categories(c *gin.Context) {
	categories := shopOf(c).Catalog.Categories()
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, categories)
}
