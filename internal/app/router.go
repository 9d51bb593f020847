package app

import (
	"github.com/gin-gonic/gin"

	"github.com/ovestreet/storefront-backend/internal/server"
)

func wireRouter(cfg Config, handlerSet Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowOrigins:    cfg.AllowOrigins,
		AuthMiddleware:  mw.Auth,
		CartHandler:     handlerSet.Cart,
		OrderHandler:    handlerSet.Order,
		CatalogHandler:  handlerSet.Catalog,
		WishlistHandler: handlerSet.Wishlist,
		FaultsHandler:   handlerSet.Faults,
	})
}
