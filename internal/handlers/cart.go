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

// CartHandler opens the caller's cart slot per request. The slot is keyed
// by the session id from the auth token, so two sessions of the same user
// carry independent carts.
type CartHandler struct {
	log     *logger.Logger
	slots   cart.SlotFactory
	catalog services.CatalogService
}

func NewCartHandler(log *logger.Logger, slots cart.SlotFactory, catalog services.CatalogService) *CartHandler {
	return &CartHandler{
		log:     log.With("handler", "CartHandler"),
		slots:   slots,
		catalog: catalog,
	}
}

func (ch *CartHandler) open(c *gin.Context) (*cart.Store, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.SessionID == "" {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("missing session"))
		return nil, false
	}
	return cart.Open(c.Request.Context(), ch.log, ch.slots(rd.SessionID)), true
}

func (ch *CartHandler) Get(c *gin.Context) {
	store, ok := ch.open(c)
	if !ok {
		return
	}
	state := store.Snapshot()
	RespondOK(c, gin.H{
		"lines":             state.Lines,
		"total_items":       state.TotalItems(),
		"total_price_cents": state.TotalPriceCents(),
	})
}

func (ch *CartHandler) AddItem(c *gin.Context) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid product_id"))
		return
	}
	store, ok := ch.open(c)
	if !ok {
		return
	}
	product, err := ch.catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	state := store.AddItem(c.Request.Context(), *product)
	RespondOK(c, gin.H{"lines": state.Lines, "total_items": state.TotalItems()})
}

func (ch *CartHandler) UpdateQuantity(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid product id"))
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}
	store, ok := ch.open(c)
	if !ok {
		return
	}
	state := store.UpdateQuantity(c.Request.Context(), productID, req.Quantity)
	RespondOK(c, gin.H{"lines": state.Lines, "total_items": state.TotalItems()})
}

func (ch *CartHandler) RemoveItem(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid product id"))
		return
	}
	store, ok := ch.open(c)
	if !ok {
		return
	}
	state := store.RemoveItem(c.Request.Context(), productID)
	RespondOK(c, gin.H{"lines": state.Lines, "total_items": state.TotalItems()})
}
