package app

import (
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/repos"
)

type Repos struct {
	Product       repos.ProductRepo
	Order         repos.OrderRepo
	UserAggregate repos.UserAggregateRepo
	Wishlist      repos.WishlistRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Product:       repos.NewProductRepo(db, log),
		Order:         repos.NewOrderRepo(db, log),
		UserAggregate: repos.NewUserAggregateRepo(db, log),
		Wishlist:      repos.NewWishlistRepo(db, log),
	}
}
