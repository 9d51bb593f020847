package app

import (
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/faultbus"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/services"
)

type Services struct {
	Order    services.OrderService
	Catalog  services.CatalogService
	Wishlist services.WishlistService
	Roles    services.RoleResolver
}

func wireServices(db *gorm.DB, log *logger.Logger, bus *faultbus.Bus, repoSet Repos) Services {
	log.Info("Wiring services...")
	return Services{
		Order:    services.NewOrderService(db, log, bus, repoSet.Product, repoSet.Order, repoSet.UserAggregate),
		Catalog:  services.NewCatalogService(db, log, bus, repoSet.Product),
		Wishlist: services.NewWishlistService(db, log, bus, repoSet.Wishlist),
		Roles:    services.NewClaimsRoleResolver(log),
	}
}
