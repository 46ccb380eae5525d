// Package handlers exposes the shop over HTTP. Every request works on the
// storage profile resolved by middleware.Profile.
package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/middleware"
	"coffeeshop/internal/notify"
	"coffeeshop/internal/shop"
	"coffeeshop/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Deps struct {
	Store    *storage.Store
	Shop     shop.Options
	Notifier notify.Notifier
	Tokens   *auth.Tokens
	// Origins allowed to open the cart websocket. Empty allows any.
	Origins []string
	Logger  *zap.Logger
}

type Handler struct {
	deps Deps
	log  *zap.Logger
}

func New(deps Deps) *Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{deps: deps, log: log}
}

func profileNamespace(id string) string { return "profile:" + id + ":" }

// openShop builds the shop of one profile.
func (h *Handler) openShop(ctx context.Context, profileID string) (*shop.Shop, error) {
	opts := h.deps.Shop
	if opts.Logger == nil {
		opts.Logger = h.log
	}
	if h.deps.Notifier != nil {
		opts.Notifier = h.deps.Notifier
		opts.Topic = notify.CartTopic(profileID)
	}
	return shop.Open(ctx, h.deps.Store.Namespace(profileNamespace(profileID)), opts)
}

// OpenShop loads the request's shop and stores it under middleware.ShopKey.
func (h *Handler) OpenShop(c *gin.Context) {
	id := c.GetString(middleware.ProfileKey)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no profile"})
		return
	}
	s, err := h.openShop(c.Request.Context(), id)
	if err != nil {
		h.log.Error("open shop", zap.String("profile", id), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Set(middleware.ShopKey, s)
	c.Next()
}

func shopOf(c *gin.Context) *shop.Shop {
	return c.MustGet(middleware.ShopKey).(*shop.Shop)
}

// bindJSON decodes the body keeping numbers as json.Number so large product
// ids survive. An empty body decodes to the zero value.
func bindJSON(c *gin.Context, v any) bool {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return false
	}
	return true
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
