package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ovestreet/storefront-backend/internal/platform/apierr"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/services"
)

type CatalogHandler struct {
	log     *logger.Logger
	catalog services.CatalogService
	roles   services.RoleResolver
}

func NewCatalogHandler(log *logger.Logger, catalog services.CatalogService, roles services.RoleResolver) *CatalogHandler {
	return &CatalogHandler{
		log:     log.With("handler", "CatalogHandler"),
		catalog: catalog,
		roles:   roles,
	}
}

func (ch *CatalogHandler) GetProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid product id"))
		return
	}
	product, err := ch.catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, product)
}

// ApplyDiscount runs the bulk category discount. The role check happens
// here, before the coordinator touches any rows.
func (ch *CatalogHandler) ApplyDiscount(c *gin.Context) {
	if !ch.roles.PrivilegedForBulk(c.Request.Context()) {
		RespondError(c, http.StatusForbidden, apierr.CodeForbidden, errors.New("bulk discount requires the admin role"))
		return
	}
	categoryID := c.Param("categoryID")
	var req struct {
		DiscountPercent int `json:"discount_percent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body"))
		return
	}
	updated, err := ch.catalog.ApplyDiscountToCategory(c.Request.Context(), categoryID, req.DiscountPercent)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"category_id": categoryID, "updated": updated})
}
