package services

import (
	"context"

	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/requestdata"
)

// RoleResolver answers one question: is this caller privileged for bulk
// operations. Anything that prevents an answer counts as "no".
type RoleResolver interface {
	PrivilegedForBulk(ctx context.Context) bool
}

const bulkRole = "admin"

type claimsRoleResolver struct {
	log *logger.Logger
}

// NewClaimsRoleResolver resolves privilege from the roles the auth
// middleware extracted into the request context.
func NewClaimsRoleResolver(log *logger.Logger) RoleResolver {
	return &claimsRoleResolver{log: log.With("service", "RoleResolver")}
}

func (rr *claimsRoleResolver) PrivilegedForBulk(ctx context.Context) bool {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		rr.log.Warn("No request data in context, treating caller as unprivileged")
		return false
	}
	return rd.HasRole(bulkRole)
}
