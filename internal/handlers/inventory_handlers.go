package handlers

import (
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// InventoryHandlers handles salon stock (products, color, supplies)
type InventoryHandlers struct {
	inventoryService services.InventoryService
}

// NewInventoryHandlers creates a new inventory handlers instance
func NewInventoryHandlers(inventoryService services.InventoryService) *InventoryHandlers {
	return &InventoryHandlers{inventoryService: inventoryService}
}

// ListInventory handles listing stock items with an optional category
func (h *InventoryHandlers) ListInventory(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	items, err := h.inventoryService.List(ctx, tenantID, c.QueryParam("category"), limit, offset)
	if err != nil {
		return respondError(c, err, "inventory item")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

// LowStock handles listing items at or below their reorder level
// @Summary Low stock items
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Router /v1/inventory/low-stock [get]
func (h *InventoryHandlers) LowStock(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	items, err := h.inventoryService.LowStock(ctx, tenantID)
	if err != nil {
		return respondError(c, err, "inventory item")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// CreateInventoryItem handles adding a stock item
func (h *InventoryHandlers) CreateInventoryItem(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.InventoryItemRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	item, err := h.inventoryService.Create(ctx, tenantID, &req)
	if err != nil {
		return respondError(c, err, "inventory item")
	}
	return c.JSON(http.StatusCreated, item)
}

// GetInventoryItem handles getting a stock item by ID
func (h *InventoryHandlers) GetInventoryItem(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "item_id")
	if err != nil {
		return common.SendValidationError(c, "item_id", err.Error())
	}

	item, err := h.inventoryService.GetByID(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "inventory item")
	}
	return c.JSON(http.StatusOK, item)
}

// UpdateInventoryItem handles editing item details; quantity changes go through AdjustStock
func (h *InventoryHandlers) UpdateInventoryItem(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "item_id")
	if err != nil {
		return common.SendValidationError(c, "item_id", err.Error())
	}

	var req services.InventoryItemRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	item, err := h.inventoryService.Update(ctx, tenantID, id, &req)
	if err != nil {
		return respondError(c, err, "inventory item")
	}
	return c.JSON(http.StatusOK, item)
}

// DeleteInventoryItem handles deleting a stock item
func (h *InventoryHandlers) DeleteInventoryItem(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "item_id")
	if err != nil {
		return common.SendValidationError(c, "item_id", err.Error())
	}

	if err := h.inventoryService.Delete(ctx, tenantID, id); err != nil {
		return respondError(c, err, "inventory item")
	}
	return c.NoContent(http.StatusNoContent)
}

// AdjustStock handles POST /inventory/:id/adjust {delta, reason}
// @Summary Adjust stock
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.AdjustStockRequest true "Delta and reason"
// @Success 200 {object} models.InventoryItem
// @Failure 409 {object} common.ErrorResponse
// @Router /v1/inventory/{id}/adjust [post]
func (h *InventoryHandlers) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "item_id")
	if err != nil {
		return common.SendValidationError(c, "item_id", err.Error())
	}

	var req services.AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	item, err := h.inventoryService.Adjust(ctx, tenantID, userID, id, &req)
	if err != nil {
		return respondError(c, err, "inventory item")
	}
	return c.JSON(http.StatusOK, item)
}
