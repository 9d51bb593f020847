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
	"github.com/ovestreet/storefront-backend/internal/sse"
)

// FaultsHandler streams fault bus events to privileged operators over SSE.
type FaultsHandler struct {
	log   *logger.Logger
	hub   *sse.Hub
	roles services.RoleResolver
}

func NewFaultsHandler(log *logger.Logger, hub *sse.Hub, roles services.RoleResolver) *FaultsHandler {
	return &FaultsHandler{
		log:   log.With("handler", "FaultsHandler"),
		hub:   hub,
		roles: roles,
	}
}

func (fh *FaultsHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("missing caller identity"))
		return
	}
	if !fh.roles.PrivilegedForBulk(c.Request.Context()) {
		RespondError(c, http.StatusForbidden, apierr.CodeForbidden, errors.New("fault stream requires the admin role"))
		return
	}
	client := fh.hub.NewClient(rd.UserID)
	defer fh.hub.CloseClient(client)
	fh.hub.ServeHTTP(c.Writer, c.Request, client)
}
