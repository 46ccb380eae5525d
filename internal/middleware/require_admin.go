package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/models"
	"coffeeshop/internal/shop"
)

// ShopKey and ConsoleKey hold the per-request shop and admin console.
const (
	ShopKey    = "shop"
	ConsoleKey = "admin_console"
)

// RequireAdmin opens the admin console for the request's shop and aborts
// unless the session holds an administrator.
func RequireAdmin(c *gin.Context) {
	s, ok := c.MustGet(ShopKey).(*shop.Shop)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	console, err := s.Admin()
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": models.ErrForbidden.Error()})
		return
	}
	c.Set(ConsoleKey, console)
	c.Next()
}
