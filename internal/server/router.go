package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ovestreet/storefront-backend/internal/handlers"
	"github.com/ovestreet/storefront-backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins    []string
	AuthMiddleware  *middleware.AuthMiddleware
	CartHandler     *handlers.CartHandler
	OrderHandler    *handlers.OrderHandler
	CatalogHandler  *handlers.CatalogHandler
	WishlistHandler *handlers.WishlistHandler
	FaultsHandler   *handlers.FaultsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("storefront"))
	router.Use(middleware.RequestMetrics())

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     trimOrigins(origins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/products/:productID", cfg.CatalogHandler.GetProduct)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Cart
	protected.GET("/cart", cfg.CartHandler.Get)
	protected.POST("/cart/items", cfg.CartHandler.AddItem)
	protected.PUT("/cart/items/:productID", cfg.CartHandler.UpdateQuantity)
	protected.DELETE("/cart/items/:productID", cfg.CartHandler.RemoveItem)
	// Orders
	protected.POST("/orders", cfg.OrderHandler.Place)
	protected.GET("/orders", cfg.OrderHandler.List)
	protected.GET("/orders/:orderID", cfg.OrderHandler.Get)
	// Wishlist
	protected.POST("/wishlist/toggle", cfg.WishlistHandler.Toggle)
	protected.GET("/wishlist", cfg.WishlistHandler.List)
	// Catalog administration
	protected.POST("/categories/:categoryID/discount", cfg.CatalogHandler.ApplyDiscount)
	// Diagnostics
	protected.GET("/diagnostics/faults/stream", cfg.FaultsHandler.Stream)

	return router
}

func trimOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
