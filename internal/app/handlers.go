package app

import (
	"github.com/ovestreet/storefront-backend/internal/cart"
	"github.com/ovestreet/storefront-backend/internal/handlers"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/sse"
)

type Handlers struct {
	Cart     *handlers.CartHandler
	Order    *handlers.OrderHandler
	Catalog  *handlers.CatalogHandler
	Wishlist *handlers.WishlistHandler
	Faults   *handlers.FaultsHandler
}

func wireHandlers(log *logger.Logger, serviceSet Services, slots cart.SlotFactory, hub *sse.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Cart:     handlers.NewCartHandler(log, slots, serviceSet.Catalog),
		Order:    handlers.NewOrderHandler(log, slots, serviceSet.Order),
		Catalog:  handlers.NewCatalogHandler(log, serviceSet.Catalog, serviceSet.Roles),
		Wishlist: handlers.NewWishlistHandler(log, serviceSet.Wishlist),
		Faults:   handlers.NewFaultsHandler(log, hub, serviceSet.Roles),
	}
}
