package routes

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"coffeeshop/internal/handlers"
	"coffeeshop/internal/middleware"
)

// CorsConfig allows the listed origins, or any origin when the list is empty
// or holds "*". Credentials are allowed so the profile cookie travels.
func CorsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// RegisterRoutes mounts the shop API. profile resolves the storage profile
// of each request.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, profile gin.HandlerFunc, origins []string) {
	r.Use(cors.New(CorsConfig(origins)))

	r.GET("/health", handlers.Health)
	r.GET("/ws/cart", profile, h.CartWebSocket)

	api := r.Group("/api", profile, h.OpenShop)
	{
		api.GET("/state", h.State)
		api.GET("/products", h.Products)
		api.GET("/products/:id", h.Product)
		api.GET("/categories", h.Categories)
		api.POST("/profile/token", h.ProfileToken)
	}

	cart := api.Group("/cart")
	{
		cart.GET("", h.Cart)
		cart.POST("", h.AddToCart)
		cart.DELETE("", h.ClearCart)
		cart.PUT("/:id", h.SetCartQuantity)
		cart.DELETE("/:id", h.RemoveFromCart)
		cart.POST("/:id/increment", h.IncrementCart)
		cart.POST("/:id/decrement", h.DecrementCart)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/admin/login", h.AdminLogin)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
		auth.PUT("/profile", h.UpdateProfile)
	}

	api.POST("/checkout", h.Checkout)
	api.GET("/orders", h.History)
	api.GET("/orders/:id", h.Order)

	admin := api.Group("/admin", middleware.RequireAdmin)
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/products", h.AdminProducts)
		admin.GET("/products/export", h.ExportProducts)
		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)
		admin.GET("/orders", h.AdminOrders)
		admin.PUT("/orders/:id/status", h.SetOrderStatus)
		admin.GET("/users", h.AdminUsers)
	}
}
