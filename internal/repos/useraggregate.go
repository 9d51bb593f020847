package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/types"
)

type UserAggregateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, agg *types.UserAggregate) (*types.UserAggregate, error)
	GetByBuyer(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID) (*types.UserAggregate, error)
	GetByBuyerForUpdate(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID) (*types.UserAggregate, error)
	IncrementOrder(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, spendCents int64) error
}

type userAggregateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAggregateRepo(db *gorm.DB, baseLog *logger.Logger) UserAggregateRepo {
	repoLog := baseLog.With("repo", "UserAggregateRepo")
	return &userAggregateRepo{db: db, log: repoLog}
}

func (ur *userAggregateRepo) Create(ctx context.Context, tx *gorm.DB, agg *types.UserAggregate) (*types.UserAggregate, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	if err := transaction.WithContext(ctx).Create(agg).Error; err != nil {
		return nil, err
	}
	return agg, nil
}

func (ur *userAggregateRepo) GetByBuyer(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID) (*types.UserAggregate, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var result types.UserAggregate
	if err := transaction.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ur *userAggregateRepo) GetByBuyerForUpdate(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID) (*types.UserAggregate, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var result types.UserAggregate
	if err := withRowLock(transaction.WithContext(ctx)).
		Where("buyer_id = ?", buyerID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// IncrementOrder bumps order count and lifetime spend together; the two
// columns only ever move in the same statement.
func (ur *userAggregateRepo) IncrementOrder(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, spendCents int64) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(ctx).
		Model(&types.UserAggregate{}).
		Where("buyer_id = ?", buyerID).
		UpdateColumns(map[string]interface{}{
			"order_count":          gorm.Expr("order_count + 1"),
			"lifetime_spend_cents": gorm.Expr("lifetime_spend_cents + ?", spendCents),
		}).Error
}
