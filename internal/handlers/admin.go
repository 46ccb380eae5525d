package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/admin"
	"coffeeshop/internal/forms"
	"coffeeshop/internal/middleware"
	"coffeeshop/internal/models"
)

func consoleOf(c *gin.Context) *admin.Console {
	return c.MustGet(middleware.ConsoleKey).(*admin.Console)
}

// GET /api/admin/stats
func (h *Handler) AdminStats(c *gin.Context) {
	c.JSON(http.StatusOK, consoleOf(c).Stats())
}

// GET /api/admin/products
func (h *Handler) AdminProducts(c *gin.Context) {
	products := consoleOf(c).Products()
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// POST /api/admin/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var form forms.ProductForm
	if !bindJSON(c, &form) {
		return
	}
	draft, err := form.Draft()
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := consoleOf(c).AddProduct(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PUT /api/admin/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := forms.ParseProductID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var form forms.ProductForm
	if !bindJSON(c, &form) {
		return
	}
	draft, err := form.Draft()
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := consoleOf(c).UpdateProduct(c.Request.Context(), id, draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/admin/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := forms.ParseProductID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := consoleOf(c).DeleteProduct(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/admin/products/export
func (h *Handler) ExportProducts(c *gin.Context) {
	var buf bytes.Buffer
	if err := consoleOf(c).ExportCatalog(&buf); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="products.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// GET /api/admin/orders
func (h *Handler) AdminOrders(c *gin.Context) {
	orders := consoleOf(c).Orders()
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// PUT /api/admin/orders/:id/status
func (h *Handler) SetOrderStatus(c *gin.Context) {
	var form forms.StatusForm
	if !bindJSON(c, &form) {
		return
	}
	status, err := form.Parse()
	if err != nil {
		h.fail(c, err)
		return
	}
	order, err := consoleOf(c).SetOrderStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GET /api/admin/users
func (h *Handler) AdminUsers(c *gin.Context) {
	users := consoleOf(c).Users()
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}
