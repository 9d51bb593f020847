package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/faultbus"
	"github.com/ovestreet/storefront-backend/internal/observability"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/repos"
	"github.com/ovestreet/storefront-backend/internal/storeerr"
	"github.com/ovestreet/storefront-backend/internal/types"
)

// Batches stay under the store's per-batch record ceiling.
const defaultBatchSize = 450

// Groups that commit in parallel; each group is its own transaction.
const defaultGroupParallelism = 4

type CatalogService interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*types.Product, error)
	ApplyDiscountToCategory(ctx context.Context, categoryID string, discountPercent int) (int, error)
}

type catalogService struct {
	db          *gorm.DB
	log         *logger.Logger
	bus         *faultbus.Bus
	productRepo repos.ProductRepo
	batchSize   int
	parallelism int
}

func NewCatalogService(db *gorm.DB, log *logger.Logger, bus *faultbus.Bus, productRepo repos.ProductRepo) CatalogService {
	serviceLog := log.With("service", "CatalogService")
	return &catalogService{
		db:          db,
		log:         serviceLog,
		bus:         bus,
		productRepo: productRepo,
		batchSize:   defaultBatchSize,
		parallelism: defaultGroupParallelism,
	}
}

func (cs *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	products, err := cs.productRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, &storeerr.NotFoundError{Kind: "product", ID: id.String()}
	}
	return products[0], nil
}

// ApplyDiscountToCategory sets the discount on every product in the
// category and returns how many records were updated.
//
// Atomicity is per group, not per category: matches are paged in groups
// bounded by the store's batch ceiling and each group commits in its own
// transaction. A category wider than one group can therefore be observed
// partially updated if a later group fails; the error reports how many
// records had already committed.
func (cs *catalogService) ApplyDiscountToCategory(ctx context.Context, categoryID string, discountPercent int) (int, error) {
	if discountPercent < 0 || discountPercent > 100 {
		return 0, storeerr.Validationf("discount percent %d is out of range 0..100", discountPercent)
	}
	if categoryID == "" {
		return 0, storeerr.Validationf("category id is required")
	}

	groups, err := cs.pageCategory(ctx, categoryID)
	if err != nil {
		return 0, storeerr.Classify(err, string(faultbus.OpUpdate), categoryPath(categoryID))
	}
	if len(groups) == 0 {
		return 0, nil
	}

	var updated atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cs.parallelism)
	metrics := observability.Current()
	for _, group := range groups {
		ids := group
		g.Go(func() error {
			err := cs.db.WithContext(gctx).Transaction(func(tx *gorm.DB) error {
				rows, err := cs.productRepo.SetDiscountByIDs(gctx, tx, ids, discountPercent)
				if err != nil {
					return err
				}
				updated.Add(rows)
				return nil
			}, serializableTxOptions(cs.db))
			if err != nil {
				metrics.RecordDiscountGroup("failed")
				return err
			}
			metrics.RecordDiscountGroup("committed")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		classified := storeerr.Classify(err, string(faultbus.OpUpdate), categoryPath(categoryID))
		var authErr *storeerr.AuthorizationError
		if errors.As(classified, &authErr) {
			cs.bus.Publish(faultbus.ChannelPermissionError, faultbus.Event{
				Op:   faultbus.OpUpdate,
				Path: categoryPath(categoryID),
				Payload: map[string]any{
					"discount_percent": discountPercent,
					"category_id":      categoryID,
				},
				Reason: "authorization-denied",
			})
		}
		cs.log.Warn("Category discount update failed", "category_id", categoryID, "updated_before_failure", updated.Load(), "error", classified)
		return int(updated.Load()), classified
	}

	cs.log.Info("Category discount applied", "category_id", categoryID, "discount_percent", discountPercent, "updated", updated.Load())
	return int(updated.Load()), nil
}

// pageCategory reads all matching product ids in batchSize pages before
// any write happens.
func (cs *catalogService) pageCategory(ctx context.Context, categoryID string) ([][]uuid.UUID, error) {
	var groups [][]uuid.UUID
	offset := 0
	for {
		ids, err := cs.productRepo.ListIDsByCategory(ctx, nil, categoryID, offset, cs.batchSize)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return groups, nil
		}
		groups = append(groups, ids)
		if len(ids) < cs.batchSize {
			return groups, nil
		}
		offset += len(ids)
	}
}

func categoryPath(categoryID string) string {
	return fmt.Sprintf("products/category/%s", categoryID)
}
