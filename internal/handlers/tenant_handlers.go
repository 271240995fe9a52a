package handlers

import (
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers handles the signed in salon's settings
type TenantHandlers struct {
	tenantService services.TenantService
	publicURL     string
}

// NewTenantHandlers creates tenant handlers. publicURL prefixes calendar subscription links.
func NewTenantHandlers(tenantService services.TenantService, publicURL string) *TenantHandlers {
	return &TenantHandlers{
		tenantService: tenantService,
		publicURL:     publicURL,
	}
}

// GetTenant returns the caller's salon
func (h *TenantHandlers) GetTenant(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	tenant, err := h.tenantService.GetByID(ctx, tenantID)
	if err != nil {
		return respondError(c, err, "tenant")
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenant changes the salon name and timezone
func (h *TenantHandlers) UpdateTenant(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	tenant, err := h.tenantService.Update(ctx, tenantID, &req)
	if err != nil {
		return respondError(c, err, "tenant")
	}
	return c.JSON(http.StatusOK, tenant)
}

// RotateCalendarToken issues a new subscription URL; the previous one stops working
// @Summary Rotate calendar feed URL
// @Tags tenant
// @Produce json
// @Security BearerAuth
// @Router /v1/tenant/calendar-token [post]
func (h *TenantHandlers) RotateCalendarToken(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	token, err := h.tenantService.RotateCalendarToken(ctx, tenantID)
	if err != nil {
		return respondError(c, err, "tenant")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"calendar_url": h.publicURL + "/calendar/" + token + ".ics",
	})
}
