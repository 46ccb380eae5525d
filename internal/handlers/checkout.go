package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coffeeshop/internal/forms"
	"coffeeshop/internal/models"
)

// POST /api/checkout
func (h *Handler) Checkout(c *gin.Context) {
	var form forms.CheckoutForm
	if !bindJSON(c, &form) {
		return
	}
	f, err := form.Checkout()
	if err != nil {
		h.fail(c, err)
		return
	}
	order, err := shopOf(c).Checkout.Place(c.Request.Context(), f)
	// a stored order with a failed cart clear still counts as placed
	if err != nil && order.ID == "" {
		h.fail(c, err)
		return
	}
	h.log.Info("☕ order placed", zap.String("order", order.ID), zap.String("total", order.Total.StringFixed(2)))
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GET /api/orders lists the logged-in customer's orders, newest first.
func (h *Handler) History(c *gin.Context) {
	s := shopOf(c)
	u, ok := s.Session.Current()
	if !ok {
		h.fail(c, models.ErrUnauthenticated)
		return
	}
	orders := s.Checkout.History(u.Email)
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// GET /api/orders/:id
func (h *Handler) Order(c *gin.Context) {
	s := shopOf(c)
	u, ok := s.Session.Current()
	if !ok {
		h.fail(c, models.ErrUnauthenticated)
		return
	}
	order, err := s.Checkout.Order(c.Param("id"))
	if err == nil && order.Email != u.Email && !u.IsAdmin() {
		err = models.ErrNotFound
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
