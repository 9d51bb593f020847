package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ovestreet/storefront-backend/internal/cart"
	"github.com/ovestreet/storefront-backend/internal/platform/apierr"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/requestdata"
	"github.com/ovestreet/storefront-backend/internal/services"
)

type OrderHandler struct {
	log    *logger.Logger
	slots  cart.SlotFactory
	orders services.OrderService
}

func NewOrderHandler(log *logger.Logger, slots cart.SlotFactory, orders services.OrderService) *OrderHandler {
	return &OrderHandler{
		log:    log.With("handler", "OrderHandler"),
		slots:  slots,
		orders: orders,
	}
}

// Place snapshots the session cart, hands it to the order coordinator and
// answers 202 with the ticket id without waiting for the commit. The cart
// slot is cleared as soon as the commit is dispatched; a failed commit is
// reported on the fault bus and through GET /orders, not by restoring the
// cart.
func (oh *OrderHandler) Place(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("missing caller identity"))
		return
	}
	var req struct {
		ShippingAddress string `json:"shipping_address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}
	if req.ShippingAddress == "" {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("shipping_address is required"))
		return
	}

	store := cart.Open(c.Request.Context(), oh.log, oh.slots(rd.SessionID))
	state := store.Snapshot()
	if len(state.Lines) == 0 {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("cart is empty"))
		return
	}

	ticket := oh.orders.PlaceOrder(c.Request.Context(), rd.UserID, req.ShippingAddress, state.Lines, state.TotalPriceCents())

	// Synchronous validation failures resolve the ticket before PlaceOrder
	// returns; surface those as 400 instead of a dead ticket.
	select {
	case <-ticket.Done():
		if _, err := ticket.Wait(c.Request.Context()); err != nil {
			RespondDomainError(c, err)
			return
		}
	default:
	}

	store.Clear(c.Request.Context())
	RespondAccepted(c, gin.H{"ticket_id": ticket.ID})
}

func (oh *OrderHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("missing caller identity"))
		return
	}
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid order id"))
		return
	}
	order, err := oh.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if order.BuyerID != rd.UserID {
		RespondError(c, http.StatusNotFound, apierr.CodeNotFound, errors.New("order not found"))
		return
	}
	RespondOK(c, order)
}

func (oh *OrderHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("missing caller identity"))
		return
	}
	orders, err := oh.orders.ListOrders(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"orders": orders})
}
