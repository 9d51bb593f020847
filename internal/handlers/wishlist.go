package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ovestreet/storefront-backend/internal/platform/apierr"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/requestdata"
	"github.com/ovestreet/storefront-backend/internal/services"
)

type WishlistHandler struct {
	log      *logger.Logger
	wishlist services.WishlistService
}

func NewWishlistHandler(log *logger.Logger, wishlist services.WishlistService) *WishlistHandler {
	return &WishlistHandler{
		log:      log.With("handler", "WishlistHandler"),
		wishlist: wishlist,
	}
}

func (wh *WishlistHandler) Toggle(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("missing caller identity"))
		return
	}
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
	added, err := wh.wishlist.Toggle(c.Request.Context(), rd.UserID, productID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"product_id": productID, "wishlisted": added})
}

func (wh *WishlistHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("missing caller identity"))
		return
	}
	items, err := wh.wishlist.List(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}
