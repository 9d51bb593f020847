package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/faultbus"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/repos"
	"github.com/ovestreet/storefront-backend/internal/storeerr"
	"github.com/ovestreet/storefront-backend/internal/types"
)

type WishlistService interface {
	Toggle(ctx context.Context, ownerID, productID uuid.UUID) (added bool, err error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*types.WishlistItem, error)
}

type wishlistService struct {
	db           *gorm.DB
	log          *logger.Logger
	bus          *faultbus.Bus
	wishlistRepo repos.WishlistRepo
}

func NewWishlistService(db *gorm.DB, log *logger.Logger, bus *faultbus.Bus, wishlistRepo repos.WishlistRepo) WishlistService {
	serviceLog := log.With("service", "WishlistService")
	return &wishlistService{
		db:           db,
		log:          serviceLog,
		bus:          bus,
		wishlistRepo: wishlistRepo,
	}
}

// Toggle flips the membership record for (owner, product): present deletes
// it, absent creates it. Each branch is a single-record write; there is no
// cross-record invariant, so no transaction. Calling twice restores the
// original state.
func (ws *wishlistService) Toggle(ctx context.Context, ownerID, productID uuid.UUID) (bool, error) {
	path := wishlistPath(ownerID, productID)

	existing, err := ws.wishlistRepo.Get(ctx, nil, ownerID, productID)
	if err != nil {
		return false, storeerr.Classify(err, string(faultbus.OpCreate), path)
	}

	if existing != nil {
		if err := ws.wishlistRepo.Delete(ctx, nil, ownerID, productID); err != nil {
			classified := storeerr.Classify(err, string(faultbus.OpDelete), path)
			ws.publishFailure(faultbus.OpDelete, path, nil, classified)
			return false, classified
		}
		return false, nil
	}

	item := &types.WishlistItem{
		OwnerID:   ownerID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
	if _, err := ws.wishlistRepo.Create(ctx, nil, item); err != nil {
		classified := storeerr.Classify(err, string(faultbus.OpCreate), path)
		ws.publishFailure(faultbus.OpCreate, path, map[string]any{
			"product_id": productID.String(),
			"created_at": item.CreatedAt,
		}, classified)
		return false, classified
	}
	return true, nil
}

func (ws *wishlistService) List(ctx context.Context, ownerID uuid.UUID) ([]*types.WishlistItem, error) {
	return ws.wishlistRepo.ListByOwner(ctx, nil, ownerID)
}

func (ws *wishlistService) publishFailure(op faultbus.Op, path string, payload map[string]any, err error) {
	ws.bus.Publish(faultbus.ChannelPermissionError, faultbus.Event{
		Op:      op,
		Path:    path,
		Payload: payload,
		Reason:  failureReason(err),
	})
}

func failureReason(err error) string {
	if storeerr.IsDenied(err) {
		return "authorization-denied"
	}
	return "unknown"
}

func wishlistPath(ownerID, productID uuid.UUID) string {
	return fmt.Sprintf("wishlist/%s/%s", ownerID, productID)
}
