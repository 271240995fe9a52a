package middleware

import (
	"glowdesk/internal/common"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type RBACMiddleware struct {
	rbacService services.RBACService
	log         *logrus.Logger
}

func NewRBACMiddleware(rbacService services.RBACService, log *logrus.Logger) *RBACMiddleware {
	return &RBACMiddleware{
		rbacService: rbacService,
		log:         log,
	}
}

// RequirePermission rejects callers whose roles do not grant permission in their tenant.
func (m *RBACMiddleware) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userID, ok := common.GetUserIDFromContext(ctx)
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			hasPermission, err := m.rbacService.UserHasPermission(ctx, userID, tenantID, permission)
			if err != nil {
				m.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "permission": permission}).Error("Permission check failed")
				return common.SendServerError(c, "Error checking permission")
			}
			if !hasPermission {
				return common.SendForbiddenError(c)
			}

			return next(c)
		}
	}
}
