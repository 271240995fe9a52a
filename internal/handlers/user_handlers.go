package handlers

import (
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// UserHandlers manages role assignments inside a salon
type UserHandlers struct {
	rbacService services.RBACService
}

func NewUserHandlers(rbacService services.RBACService) *UserHandlers {
	return &UserHandlers{rbacService: rbacService}
}

// AssignRoleRequest names the role to grant
type AssignRoleRequest struct {
	RoleID string `json:"role_id"`
}

// ListRoles returns the tenant's roles
func (h *UserHandlers) ListRoles(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	roles, err := h.rbacService.ListRoles(ctx, tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"roles": roles})
}

// GetUserRoles returns the roles held by a user
func (h *UserHandlers) GetUserRoles(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, err := common.ValidateUUID(c.Param("id"), "user_id")
	if err != nil {
		return common.SendValidationError(c, "user_id", err.Error())
	}

	roles, err := h.rbacService.GetUserRoles(ctx, userID, tenantID)
	if err != nil {
		return respondError(c, err, "user")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"roles": roles})
}

// AssignRole grants a role to a user of the same salon
func (h *UserHandlers) AssignRole(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, err := common.ValidateUUID(c.Param("id"), "user_id")
	if err != nil {
		return common.SendValidationError(c, "user_id", err.Error())
	}

	var req AssignRoleRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	roleID, err := common.ValidateUUID(req.RoleID, "role_id")
	if err != nil {
		return common.SendValidationError(c, "role_id", err.Error())
	}

	if err := h.rbacService.AssignRole(ctx, tenantID, userID, roleID); err != nil {
		return respondError(c, err, "role")
	}
	return c.NoContent(http.StatusNoContent)
}

// RevokeRole removes a role from a user
func (h *UserHandlers) RevokeRole(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, err := common.ValidateUUID(c.Param("id"), "user_id")
	if err != nil {
		return common.SendValidationError(c, "user_id", err.Error())
	}
	roleID, err := common.ValidateUUID(c.Param("roleId"), "role_id")
	if err != nil {
		return common.SendValidationError(c, "role_id", err.Error())
	}

	if err := h.rbacService.RevokeRole(ctx, tenantID, userID, roleID); err != nil {
		return respondError(c, err, "role")
	}
	return c.NoContent(http.StatusNoContent)
}
