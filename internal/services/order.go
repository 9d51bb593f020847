package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/cart"
	"github.com/ovestreet/storefront-backend/internal/faultbus"
	"github.com/ovestreet/storefront-backend/internal/observability"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/repos"
	"github.com/ovestreet/storefront-backend/internal/storeerr"
	"github.com/ovestreet/storefront-backend/internal/types"
)

// OrderService turns a cart snapshot into one atomic five-effect commit:
// order record, per-product stock decrement and sold increment, and the
// buyer aggregate bump. Either all five apply or none do.
type OrderService interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID, shippingAddress string, lines []cart.Line, totalCents int64) *OrderTicket
	GetOrder(ctx context.Context, id uuid.UUID) (*types.Order, error)
	ListOrders(ctx context.Context, buyerID uuid.UUID) ([]*types.Order, error)
}

// OrderTicket is the deferred handle PlaceOrder hands back before the
// commit resolves. The caller may ignore it entirely; the commit still
// runs to completion and a denied write still reaches the fault bus.
type OrderTicket struct {
	ID uuid.UUID

	mu      sync.Mutex
	done    chan struct{}
	orderID uuid.UUID
	err     error
}

func newOrderTicket() *OrderTicket {
	return &OrderTicket{ID: uuid.New(), done: make(chan struct{})}
}

func (t *OrderTicket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the commit resolves or ctx expires. Waiting is
// optional; cancelling ctx abandons the wait, not the commit.
func (t *OrderTicket) Wait(ctx context.Context) (uuid.UUID, error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.orderID, t.err
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}
}

func (t *OrderTicket) resolve(orderID uuid.UUID, err error) {
	t.mu.Lock()
	t.orderID = orderID
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

type orderService struct {
	db          *gorm.DB
	log         *logger.Logger
	bus         *faultbus.Bus
	productRepo repos.ProductRepo
	orderRepo   repos.OrderRepo
	aggRepo     repos.UserAggregateRepo
	maxRetries  int
}

func NewOrderService(db *gorm.DB, log *logger.Logger, bus *faultbus.Bus, productRepo repos.ProductRepo, orderRepo repos.OrderRepo, aggRepo repos.UserAggregateRepo) OrderService {
	serviceLog := log.With("service", "OrderService")
	return &orderService{
		db:          db,
		log:         serviceLog,
		bus:         bus,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		aggRepo:     aggRepo,
		maxRetries:  5,
	}
}

// PlaceOrder validates the snapshot, dispatches the commit and returns
// immediately. The commit goroutine runs on a background context: once
// dispatched it is not cancellable and its outcome is only observable
// through the ticket, the eventual order record, or the fault bus.
func (os *orderService) PlaceOrder(ctx context.Context, buyerID uuid.UUID, shippingAddress string, lines []cart.Line, totalCents int64) *OrderTicket {
	ticket := newOrderTicket()

	if err := validateOrderInput(buyerID, lines, totalCents); err != nil {
		ticket.resolve(uuid.Nil, err)
		return ticket
	}

	go os.commit(context.Background(), ticket, buyerID, shippingAddress, lines, totalCents)
	return ticket
}

func validateOrderInput(buyerID uuid.UUID, lines []cart.Line, totalCents int64) error {
	if buyerID == uuid.Nil {
		return storeerr.Validationf("buyer id is required")
	}
	if len(lines) == 0 {
		return storeerr.Validationf("cart is empty")
	}
	if totalCents < 0 {
		return storeerr.Validationf("total amount %d is negative", totalCents)
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return storeerr.Validationf("quantity %d for product %s is not positive", line.Quantity, line.Product.ID)
		}
	}
	return nil
}

func (os *orderService) commit(ctx context.Context, ticket *OrderTicket, buyerID uuid.UUID, shippingAddress string, lines []cart.Line, totalCents int64) {
	started := time.Now()
	metrics := observability.Current()
	var err error
	for attempt := 1; attempt <= os.maxRetries; attempt++ {
		err = os.tryCommit(ctx, ticket, buyerID, shippingAddress, lines, totalCents)
		if err == nil {
			break
		}
		if !storeerr.Retryable(err) {
			break
		}
		metrics.RecordCommitRetry()
		os.log.Debug("Retrying order commit after conflict", "attempt", attempt, "ticket_id", ticket.ID)
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
	if err == nil {
		metrics.RecordCommit("committed", time.Since(started))
		os.log.Info("Order committed", "order_id", ticket.ID, "buyer_id", buyerID.String(), "total_cents", totalCents)
		ticket.resolve(ticket.ID, nil)
		return
	}
	metrics.RecordCommit("failed", time.Since(started))

	classified := storeerr.Classify(err, string(faultbus.OpCreate), "orders")
	os.log.Warn("Order commit failed", "ticket_id", ticket.ID, "buyer_id", buyerID.String(), "error", classified)

	// The caller already returned to its UI; the bus is the only channel
	// through which this late denial can reach an observer. Published
	// exactly once, with a redacted shape of the attempt.
	var authErr *storeerr.AuthorizationError
	if errors.As(classified, &authErr) {
		os.bus.Publish(faultbus.ChannelPermissionError, faultbus.Event{
			Op:   faultbus.OpCreate,
			Path: "orders",
			Payload: map[string]any{
				"item_count":  len(lines),
				"total_cents": totalCents,
			},
			Reason: "authorization-denied",
		})
	}
	ticket.resolve(uuid.Nil, classified)
}

// tryCommit is one serializable attempt. Every read and every check runs
// before the first write so an abort leaves nothing behind; conflicting
// concurrent commits surface as retryable serialization errors.
func (os *orderService) tryCommit(ctx context.Context, ticket *OrderTicket, buyerID uuid.UUID, shippingAddress string, lines []cart.Line, totalCents int64) error {
	return os.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := os.aggRepo.GetByBuyerForUpdate(ctx, tx, buyerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &storeerr.NotFoundError{Kind: "buyer", ID: buyerID.String()}
			}
			return err
		}

		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.Product.ID)
		}
		products, err := os.productRepo.GetByIDsForUpdate(ctx, tx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*types.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		for _, line := range lines {
			p, ok := byID[line.Product.ID]
			if !ok {
				return &storeerr.NotFoundError{Kind: "product", ID: line.Product.ID.String()}
			}
			if p.Stock < line.Quantity {
				return &storeerr.InsufficientStockError{
					ProductID: p.ID,
					Name:      p.LocalizedName("en"),
					Available: p.Stock,
					Requested: line.Quantity,
				}
			}
		}

		order := &types.Order{
			ID:              ticket.ID,
			BuyerID:         buyerID,
			Status:          types.OrderStatusPending,
			ShippingAddress: shippingAddress,
			TotalCents:      totalCents,
		}
		for _, line := range lines {
			p := byID[line.Product.ID]
			order.Lines = append(order.Lines, types.OrderLine{
				ProductID:      p.ID,
				Name:           p.Name,
				Quantity:       line.Quantity,
				UnitPriceCents: p.DiscountedPriceCents(),
			})
		}
		if _, err := os.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}

		for _, line := range lines {
			if err := os.productRepo.AdjustStockAndSold(ctx, tx, line.Product.ID, line.Quantity); err != nil {
				return err
			}
		}

		return os.aggRepo.IncrementOrder(ctx, tx, buyerID, totalCents)
	}, serializableTxOptions(os.db))
}

func (os *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	order, err := os.orderRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &storeerr.NotFoundError{Kind: "order", ID: id.String()}
		}
		return nil, err
	}
	return order, nil
}

func (os *orderService) ListOrders(ctx context.Context, buyerID uuid.UUID) ([]*types.Order, error) {
	return os.orderRepo.ListByBuyer(ctx, nil, buyerID)
}
