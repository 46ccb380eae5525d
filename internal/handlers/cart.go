package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/forms"
	"coffeeshop/internal/models"
)

type cartRequest struct {
	ProductID any `json:"product_id"`
	Quantity  any `json:"quantity"`
}

// GET /api/cart
func (h *Handler) Cart(c *gin.Context) {
	c.JSON(http.StatusOK, cartView(shopOf(c).Cart.View()))
}

// POST /api/cart {product_id}
func (h *Handler) AddToCart(c *gin.Context) {
	var req cartRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := forms.ParseProductID(req.ProductID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cartOp(c, func(ctx context.Context) error {
		_, err := shopOf(c).Cart.Add(ctx, id)
		return err
	})
}

// PUT /api/cart/:id {quantity}
func (h *Handler) SetCartQuantity(c *gin.Context) {
	var req cartRequest
	if !bindJSON(c, &req) {
		return
	}
	h.itemOp(c, func(ctx context.Context, id int64) error {
		_, err := shopOf(c).Cart.SetQuantity(ctx, id, forms.ParseQuantity(req.Quantity))
		return err
	})
}

// POST /api/cart/:id/increment
func (h *Handler) IncrementCart(c *gin.Context) {
	h.itemOp(c, func(ctx context.Context, id int64) error {
		_, err := shopOf(c).Cart.Increment(ctx, id)
		return err
	})
}

// POST /api/cart/:id/decrement
func (h *Handler) DecrementCart(c *gin.Context) {
	h.itemOp(c, func(ctx context.Context, id int64) error {
		_, err := shopOf(c).Cart.Decrement(ctx, id)
		return err
	})
}

// DELETE /api/cart/:id
func (h *Handler) RemoveFromCart(c *gin.Context) {
	h.itemOp(c, func(ctx context.Context, id int64) error {
		return shopOf(c).Cart.Remove(ctx, id)
	})
}

// DELETE /api/cart
func (h *Handler) ClearCart(c *gin.Context) {
	h.cartOp(c, func(ctx context.Context) error {
		return shopOf(c).Cart.Clear(ctx)
	})
}

func (h *Handler) itemOp(c *gin.Context, op func(ctx context.Context, id int64) error) {
	id, err := forms.ParseProductID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cartOp(c, func(ctx context.Context) error { return op(ctx, id) })
}

// cartOp runs op and answers with the resulting cart.
func (h *Handler) cartOp(c *gin.Context, op func(ctx context.Context) error) {
	if err := op(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartView(shopOf(c).Cart.View()))
}

func cartView(v models.CartView) models.CartView {
	if v.Items == nil {
		v.Items = []models.CartItem{}
	}
	return v
}
