package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/cart"
	"github.com/ovestreet/storefront-backend/internal/db/dbtest"
	"github.com/ovestreet/storefront-backend/internal/faultbus"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/repos"
	"github.com/ovestreet/storefront-backend/internal/storeerr"
	"github.com/ovestreet/storefront-backend/internal/types"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

type orderFixture struct {
	db          *gorm.DB
	bus         *faultbus.Bus
	productRepo repos.ProductRepo
	orderRepo   repos.OrderRepo
	aggRepo     repos.UserAggregateRepo
	service     OrderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	log := mustTestLogger(t)
	gdb := dbtest.Open(t)
	bus := faultbus.New(log)
	productRepo := repos.NewProductRepo(gdb, log)
	orderRepo := repos.NewOrderRepo(gdb, log)
	aggRepo := repos.NewUserAggregateRepo(gdb, log)
	return &orderFixture{
		db:          gdb,
		bus:         bus,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		aggRepo:     aggRepo,
		service:     NewOrderService(gdb, log, bus, productRepo, orderRepo, aggRepo),
	}
}

func (f *orderFixture) seedBuyer(t *testing.T) uuid.UUID {
	t.Helper()
	buyerID := uuid.New()
	if _, err := f.aggRepo.Create(context.Background(), nil, &types.UserAggregate{BuyerID: buyerID}); err != nil {
		t.Fatalf("seed buyer aggregate: %v", err)
	}
	return buyerID
}

func (f *orderFixture) seedProduct(t *testing.T, priceCents int64, discount, stock int) *types.Product {
	t.Helper()
	p := &types.Product{
		ID:              uuid.New(),
		Name:            datatypes.JSONMap{"en": "Saffron", "de": "Safran"},
		PriceCents:      priceCents,
		DiscountPercent: discount,
		Stock:           stock,
		CategoryID:      "spices",
	}
	if _, err := f.productRepo.Create(context.Background(), nil, []*types.Product{p}); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func (f *orderFixture) reloadProduct(t *testing.T, id uuid.UUID) *types.Product {
	t.Helper()
	products, err := f.productRepo.GetByIDs(context.Background(), nil, []uuid.UUID{id})
	if err != nil || len(products) != 1 {
		t.Fatalf("reload product: %v (%d found)", err, len(products))
	}
	return products[0]
}

func waitTicket(t *testing.T, ticket *OrderTicket) (uuid.UUID, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := ticket.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ticket did not resolve in time")
	}
	return id, err
}

func TestPlaceOrderCommitsAllFiveEffects(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	buyerID := f.seedBuyer(t)
	// 1000 cents at 20% off -> 800 per unit
	p := f.seedProduct(t, 1000, 20, 5)

	lines := []cart.Line{{Product: *p, Quantity: 2}}
	total := int64(1600)

	ticket := f.service.PlaceOrder(ctx, buyerID, "12 Harbor Lane", lines, total)
	orderID, err := waitTicket(t, ticket)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	order, err := f.service.GetOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != types.OrderStatusPending {
		t.Fatalf("status: want %q got %q", types.OrderStatusPending, order.Status)
	}
	if order.TotalCents != total {
		t.Fatalf("total: want %d got %d", total, order.TotalCents)
	}
	if len(order.Lines) != 1 {
		t.Fatalf("lines: want 1 got %d", len(order.Lines))
	}
	line := order.Lines[0]
	if line.Quantity != 2 || line.UnitPriceCents != 800 {
		t.Fatalf("line snapshot: got qty=%d unit=%d", line.Quantity, line.UnitPriceCents)
	}
	if line.Name["en"] != "Saffron" {
		t.Fatalf("line name snapshot: %v", line.Name)
	}

	reloaded := f.reloadProduct(t, p.ID)
	if reloaded.Stock != 3 || reloaded.Sold != 2 {
		t.Fatalf("product counters: want stock=3 sold=2, got stock=%d sold=%d", reloaded.Stock, reloaded.Sold)
	}

	agg, err := f.aggRepo.GetByBuyer(ctx, nil, buyerID)
	if err != nil {
		t.Fatalf("reload aggregate: %v", err)
	}
	if agg.OrderCount != 1 || agg.LifetimeSpendCents != total {
		t.Fatalf("aggregate: want count=1 spend=%d, got count=%d spend=%d", total, agg.OrderCount, agg.LifetimeSpendCents)
	}
}

func TestPlaceOrderBuyerNotFoundWritesNothing(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, 500, 0, 5)

	ticket := f.service.PlaceOrder(context.Background(), uuid.New(), "addr", []cart.Line{{Product: *p, Quantity: 1}}, 500)
	_, err := waitTicket(t, ticket)

	var nf *storeerr.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "buyer" {
		t.Fatalf("want buyer NotFoundError, got %v", err)
	}
	if got := f.reloadProduct(t, p.ID); got.Stock != 5 || got.Sold != 0 {
		t.Fatalf("product touched despite abort: stock=%d sold=%d", got.Stock, got.Sold)
	}
	var count int64
	f.db.Model(&types.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("order rows after abort: %d", count)
	}
}

func TestPlaceOrderMissingProductAbortsWholeCommit(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	buyerID := f.seedBuyer(t)
	p := f.seedProduct(t, 500, 0, 5)
	ghost := types.Product{ID: uuid.New(), Name: datatypes.JSONMap{"en": "Ghost"}, PriceCents: 100}

	lines := []cart.Line{
		{Product: *p, Quantity: 1},
		{Product: ghost, Quantity: 1},
	}
	ticket := f.service.PlaceOrder(ctx, buyerID, "addr", lines, 600)
	_, err := waitTicket(t, ticket)

	var nf *storeerr.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "product" || nf.ID != ghost.ID.String() {
		t.Fatalf("want product NotFoundError naming %s, got %v", ghost.ID, err)
	}
	if got := f.reloadProduct(t, p.ID); got.Stock != 5 {
		t.Fatalf("valid line applied despite abort: stock=%d", got.Stock)
	}
	agg, _ := f.aggRepo.GetByBuyer(ctx, nil, buyerID)
	if agg.OrderCount != 0 {
		t.Fatalf("aggregate bumped despite abort: %d", agg.OrderCount)
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	buyerID := f.seedBuyer(t)
	p := f.seedProduct(t, 500, 0, 1)

	ticket := f.service.PlaceOrder(context.Background(), buyerID, "addr", []cart.Line{{Product: *p, Quantity: 2}}, 1000)
	_, err := waitTicket(t, ticket)

	var is *storeerr.InsufficientStockError
	if !errors.As(err, &is) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if is.ProductID != p.ID || is.Available != 1 || is.Requested != 2 {
		t.Fatalf("error detail: %+v", is)
	}
	if got := f.reloadProduct(t, p.ID); got.Stock != 1 || got.Sold != 0 {
		t.Fatalf("partial apply: stock=%d sold=%d", got.Stock, got.Sold)
	}
}

func TestPlaceOrderValidatesBeforeDispatch(t *testing.T) {
	f := newOrderFixture(t)
	buyerID := f.seedBuyer(t)

	cases := []struct {
		name  string
		lines []cart.Line
		total int64
	}{
		{name: "empty_cart", lines: nil, total: 0},
		{name: "negative_total", lines: []cart.Line{{Product: *f.seedProduct(t, 100, 0, 1), Quantity: 1}}, total: -1},
		{name: "zero_quantity", lines: []cart.Line{{Product: *f.seedProduct(t, 100, 0, 1), Quantity: 0}}, total: 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ticket := f.service.PlaceOrder(context.Background(), buyerID, "addr", tc.lines, tc.total)
			_, err := waitTicket(t, ticket)
			var ve *storeerr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("want ValidationError, got %v", err)
			}
		})
	}
}

func TestConcurrentCommitsFirstWriterWins(t *testing.T) {
	f := newOrderFixture(t)
	buyerA := f.seedBuyer(t)
	buyerB := f.seedBuyer(t)
	p := f.seedProduct(t, 500, 0, 3)

	ticketA := f.service.PlaceOrder(context.Background(), buyerA, "addr a", []cart.Line{{Product: *p, Quantity: 2}}, 1000)
	ticketB := f.service.PlaceOrder(context.Background(), buyerB, "addr b", []cart.Line{{Product: *p, Quantity: 2}}, 1000)

	_, errA := waitTicket(t, ticketA)
	_, errB := waitTicket(t, ticketB)

	succeeded, failed := 0, 0
	for _, err := range []error{errA, errB} {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var is *storeerr.InsufficientStockError
		if !errors.As(err, &is) {
			t.Fatalf("loser must fail with InsufficientStockError, got %v", err)
		}
	}
	if succeeded != 1 || failed != 1 {
		t.Fatalf("want exactly one winner: succeeded=%d failed=%d (errA=%v errB=%v)", succeeded, failed, errA, errB)
	}

	if got := f.reloadProduct(t, p.ID); got.Stock != 1 {
		t.Fatalf("final stock: want 1 got %d", got.Stock)
	}
}

func TestPlaceOrderIsFireAndForget(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	buyerID := f.seedBuyer(t)
	p := f.seedProduct(t, 500, 0, 5)

	ticket := f.service.PlaceOrder(ctx, buyerID, "addr", []cart.Line{{Product: *p, Quantity: 1}}, 500)

	// Never wait on the ticket: the commit must still land.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := f.service.GetOrder(ctx, ticket.ID); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("order never appeared in the store")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// deniedProductRepo lets the happy path run until the write phase, then
// reports a store-side denial.
type deniedProductRepo struct {
	repos.ProductRepo
}

func (r *deniedProductRepo) AdjustStockAndSold(ctx context.Context, tx *gorm.DB, id uuid.UUID, quantity int) error {
	return storeerr.ErrPermissionDenied
}

func TestPlaceOrderDenialPublishesExactlyOneFaultEvent(t *testing.T) {
	f := newOrderFixture(t)
	log := mustTestLogger(t)
	denied := NewOrderService(f.db, log, f.bus, &deniedProductRepo{ProductRepo: f.productRepo}, f.orderRepo, f.aggRepo)

	buyerID := f.seedBuyer(t)
	p := f.seedProduct(t, 500, 0, 5)

	events := make(chan faultbus.Event, 4)
	f.bus.Subscribe(faultbus.ChannelPermissionError, func(ev faultbus.Event) { events <- ev })

	ticket := denied.PlaceOrder(context.Background(), buyerID, "addr", []cart.Line{{Product: *p, Quantity: 2}}, 1000)
	_, err := waitTicket(t, ticket)

	var authErr *storeerr.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("want AuthorizationError, got %v", err)
	}

	select {
	case ev := <-events:
		if ev.Op != faultbus.OpCreate || ev.Path != "orders" {
			t.Fatalf("event shape: %+v", ev)
		}
		if ev.Payload["item_count"] != 1 || ev.Payload["total_cents"] != int64(1000) {
			t.Fatalf("redacted payload: %+v", ev.Payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("no fault event published")
	}
	select {
	case ev := <-events:
		t.Fatalf("second fault event published: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	// the denied write rolled the whole transaction back
	if got := f.reloadProduct(t, p.ID); got.Stock != 5 {
		t.Fatalf("stock mutated despite denial: %d", got.Stock)
	}
	var count int64
	f.db.Model(&types.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("order row exists despite denial")
	}
}
