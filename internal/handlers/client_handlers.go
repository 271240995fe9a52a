package handlers

import (
	"net/http"
	"strconv"

	"glowdesk/internal/common"
	"glowdesk/internal/middleware"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// ClientHandlers handles the salon's customer records
type ClientHandlers struct {
	clientService services.ClientService
	audit         *middleware.AuditMiddleware
}

// NewClientHandlers creates a new client handlers instance. audit may be nil.
func NewClientHandlers(clientService services.ClientService, audit *middleware.AuditMiddleware) *ClientHandlers {
	return &ClientHandlers{
		clientService: clientService,
		audit:         audit,
	}
}

// ListClients handles listing clients filtered by status and tag
// @Summary List clients
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param status query string false "active, inactive, vip or lead"
// @Param tag query string false "Tag"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Router /v1/clients [get]
func (h *ClientHandlers) ListClients(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	clients, err := h.clientService.List(ctx, tenantID, models.ClientFilter{
		Status: c.QueryParam("status"),
		Tag:    c.QueryParam("tag"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return respondError(c, err, "client")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"clients": clients,
		"limit":   limit,
		"offset":  offset,
	})
}

// SearchClients handles free text client lookup
// @Summary Search clients
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param q query string true "Name, email or phone"
// @Router /v1/clients/search [get]
func (h *ClientHandlers) SearchClients(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	query := c.QueryParam("q")
	if query == "" {
		return common.SendValidationError(c, "q", "q is required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	clients, err := h.clientService.Search(ctx, tenantID, query, limit)
	if err != nil {
		return respondError(c, err, "client")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"clients": clients,
		"query":   query,
	})
}

// CreateClient handles creating a client
// @Summary Create client
// @Tags clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.ClientRequest true "Client"
// @Success 201 {object} models.Client
// @Router /v1/clients [post]
func (h *ClientHandlers) CreateClient(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.ClientRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	client, err := h.clientService.Create(ctx, tenantID, &req)
	if err != nil {
		return respondError(c, err, "client")
	}

	if h.audit != nil {
		h.audit.AuditEntityChange(ctx, "clients", client.ID.String(), models.ActionInsert, nil, client)
	}
	return c.JSON(http.StatusCreated, client)
}

// GetClient handles getting a client by ID
func (h *ClientHandlers) GetClient(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "client_id")
	if err != nil {
		return common.SendValidationError(c, "client_id", err.Error())
	}

	client, err := h.clientService.GetByID(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "client")
	}
	return c.JSON(http.StatusOK, client)
}

// UpdateClient handles replacing a client's details
func (h *ClientHandlers) UpdateClient(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "client_id")
	if err != nil {
		return common.SendValidationError(c, "client_id", err.Error())
	}

	var req services.ClientRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	var before *models.Client
	if h.audit != nil {
		before, _ = h.clientService.GetByID(ctx, tenantID, id)
	}

	client, err := h.clientService.Update(ctx, tenantID, id, &req)
	if err != nil {
		return respondError(c, err, "client")
	}

	if h.audit != nil {
		h.audit.AuditEntityChange(ctx, "clients", id.String(), models.ActionUpdate, before, client)
	}
	return c.JSON(http.StatusOK, client)
}

// DeleteClient handles deleting a client
func (h *ClientHandlers) DeleteClient(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "client_id")
	if err != nil {
		return common.SendValidationError(c, "client_id", err.Error())
	}

	var before *models.Client
	if h.audit != nil {
		before, _ = h.clientService.GetByID(ctx, tenantID, id)
	}

	if err := h.clientService.Delete(ctx, tenantID, id); err != nil {
		return respondError(c, err, "client")
	}

	if h.audit != nil {
		h.audit.AuditEntityChange(ctx, "clients", id.String(), models.ActionDelete, before, nil)
	}
	return c.NoContent(http.StatusNoContent)
}
