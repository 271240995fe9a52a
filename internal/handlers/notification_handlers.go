package handlers

import (
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// NotificationHandlers handles the caller's notification preferences
type NotificationHandlers struct {
	notificationService services.NotificationService
}

func NewNotificationHandlers(notificationService services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notificationService: notificationService}
}

// GetPreferences returns stored preferences, or the defaults when none were saved
// @Summary Notification preferences
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.NotificationPreferences
// @Router /v1/me/notification-preferences [get]
func (h *NotificationHandlers) GetPreferences(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	prefs, err := h.notificationService.GetPreferences(ctx, tenantID, userID)
	if err != nil {
		return respondError(c, err, "notification preferences")
	}
	return c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences upserts the fields present in the body
// @Summary Update notification preferences
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.NotificationPreferencesRequest true "Changed fields"
// @Success 200 {object} models.NotificationPreferences
// @Router /v1/me/notification-preferences [put]
func (h *NotificationHandlers) UpdatePreferences(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.NotificationPreferencesRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	prefs, err := h.notificationService.UpdatePreferences(ctx, tenantID, userID, &req)
	if err != nil {
		return respondError(c, err, "notification preferences")
	}
	return c.JSON(http.StatusOK, prefs)
}
