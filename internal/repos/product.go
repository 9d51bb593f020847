package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/types"
)

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Product, error)
	GetByIDsForUpdate(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Product, error)
	ListIDsByCategory(ctx context.Context, tx *gorm.DB, categoryID string, offset, limit int) ([]uuid.UUID, error)
	SetDiscountByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, discountPercent int) (int64, error)
	AdjustStockAndSold(ctx context.Context, tx *gorm.DB, id uuid.UUID, quantity int) error
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	repoLog := baseLog.With("repo", "ProductRepo")
	return &productRepo{db: db, log: repoLog}
}

func (pr *productRepo) Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(products) == 0 {
		return []*types.Product{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (pr *productRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Product
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByIDsForUpdate locks the rows for the remainder of the enclosing
// transaction so the stock check and the later decrement see the same
// values under concurrent commits.
func (pr *productRepo) GetByIDsForUpdate(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Product
	if len(ids) == 0 {
		return results, nil
	}

	if err := withRowLock(transaction.WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *productRepo) ListIDsByCategory(ctx context.Context, tx *gorm.DB, categoryID string, offset, limit int) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("category_id = ?", categoryID).
		Order("id").
		Offset(offset).
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (pr *productRepo) SetDiscountByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, discountPercent int) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(ids) == 0 {
		return 0, nil
	}

	res := transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id IN ?", ids).
		Update("discount_percent", discountPercent)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// AdjustStockAndSold moves quantity units from stock to sold in one
// statement. Callers validate availability beforehand inside the same
// transaction.
func (pr *productRepo) AdjustStockAndSold(ctx context.Context, tx *gorm.DB, id uuid.UUID, quantity int) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"stock": gorm.Expr("stock - ?", quantity),
			"sold":  gorm.Expr("sold + ?", quantity),
		}).Error
}
