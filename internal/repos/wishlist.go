package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/types"
)

type WishlistRepo interface {
	Get(ctx context.Context, tx *gorm.DB, ownerID, productID uuid.UUID) (*types.WishlistItem, error)
	Create(ctx context.Context, tx *gorm.DB, item *types.WishlistItem) (*types.WishlistItem, error)
	Delete(ctx context.Context, tx *gorm.DB, ownerID, productID uuid.UUID) error
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.WishlistItem, error)
}

type wishlistRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWishlistRepo(db *gorm.DB, baseLog *logger.Logger) WishlistRepo {
	repoLog := baseLog.With("repo", "WishlistRepo")
	return &wishlistRepo{db: db, log: repoLog}
}

// Get returns (nil, nil) when no membership record exists.
func (wr *wishlistRepo) Get(ctx context.Context, tx *gorm.DB, ownerID, productID uuid.UUID) (*types.WishlistItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}

	var result types.WishlistItem
	err := transaction.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (wr *wishlistRepo) Create(ctx context.Context, tx *gorm.DB, item *types.WishlistItem) (*types.WishlistItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}

	if err := transaction.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (wr *wishlistRepo) Delete(ctx context.Context, tx *gorm.DB, ownerID, productID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}

	return transaction.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Delete(&types.WishlistItem{}).Error
}

func (wr *wishlistRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.WishlistItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}

	var results []*types.WishlistItem
	if err := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
