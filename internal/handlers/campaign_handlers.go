package handlers

import (
	"net/http"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// CampaignHandlers handles marketing campaigns and their delivery log
type CampaignHandlers struct {
	campaignService services.CampaignService
}

func NewCampaignHandlers(campaignService services.CampaignService) *CampaignHandlers {
	return &CampaignHandlers{campaignService: campaignService}
}

// ScheduleCampaignRequest sets the dispatch time
type ScheduleCampaignRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// ListCampaigns handles listing campaigns, optionally by status
func (h *CampaignHandlers) ListCampaigns(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	campaigns, err := h.campaignService.List(ctx, tenantID, c.QueryParam("status"), limit, offset)
	if err != nil {
		return respondError(c, err, "campaign")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"campaigns": campaigns,
		"limit":     limit,
		"offset":    offset,
	})
}

// CreateCampaign handles creating a draft campaign
// @Summary Create campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.CampaignRequest true "Campaign"
// @Success 201 {object} models.Campaign
// @Router /v1/campaigns [post]
func (h *CampaignHandlers) CreateCampaign(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.CampaignRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	campaign, err := h.campaignService.Create(ctx, tenantID, userID, &req)
	if err != nil {
		return respondError(c, err, "campaign")
	}
	return c.JSON(http.StatusCreated, campaign)
}

// GetCampaign handles getting a campaign by ID
func (h *CampaignHandlers) GetCampaign(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "campaign_id")
	if err != nil {
		return common.SendValidationError(c, "campaign_id", err.Error())
	}

	campaign, err := h.campaignService.GetByID(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "campaign")
	}
	return c.JSON(http.StatusOK, campaign)
}

// UpdateCampaign handles editing a draft or scheduled campaign
func (h *CampaignHandlers) UpdateCampaign(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "campaign_id")
	if err != nil {
		return common.SendValidationError(c, "campaign_id", err.Error())
	}

	var req services.CampaignRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	campaign, err := h.campaignService.Update(ctx, tenantID, id, &req)
	if err != nil {
		return respondError(c, err, "campaign")
	}
	return c.JSON(http.StatusOK, campaign)
}

// DeleteCampaign handles deleting a campaign that was never sent
func (h *CampaignHandlers) DeleteCampaign(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "campaign_id")
	if err != nil {
		return common.SendValidationError(c, "campaign_id", err.Error())
	}

	if err := h.campaignService.Delete(ctx, tenantID, id); err != nil {
		return respondError(c, err, "campaign")
	}
	return c.NoContent(http.StatusNoContent)
}

// ScheduleCampaign handles POST /campaigns/:id/schedule {scheduled_at}
func (h *CampaignHandlers) ScheduleCampaign(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "campaign_id")
	if err != nil {
		return common.SendValidationError(c, "campaign_id", err.Error())
	}

	var req ScheduleCampaignRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.ScheduledAt == nil {
		return common.SendValidationError(c, "scheduled_at", "scheduled_at is required")
	}

	campaign, err := h.campaignService.Schedule(ctx, tenantID, id, *req.ScheduledAt)
	if err != nil {
		return respondError(c, err, "campaign")
	}
	return c.JSON(http.StatusOK, campaign)
}

// SendCampaign handles immediate dispatch
// @Summary Send campaign now
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Success 202 {object} services.DispatchResult
// @Failure 409 {object} common.ErrorResponse
// @Router /v1/campaigns/{id}/send [post]
func (h *CampaignHandlers) SendCampaign(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "campaign_id")
	if err != nil {
		return common.SendValidationError(c, "campaign_id", err.Error())
	}

	result, err := h.campaignService.Send(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "campaign")
	}
	return c.JSON(http.StatusAccepted, result)
}

// CancelCampaign handles POST /campaigns/:id/cancel
func (h *CampaignHandlers) CancelCampaign(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "campaign_id")
	if err != nil {
		return common.SendValidationError(c, "campaign_id", err.Error())
	}

	campaign, err := h.campaignService.Cancel(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "campaign")
	}
	return c.JSON(http.StatusOK, campaign)
}

// PreviewCampaign renders the campaign for a sample client of its audience
func (h *CampaignHandlers) PreviewCampaign(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "campaign_id")
	if err != nil {
		return common.SendValidationError(c, "campaign_id", err.Error())
	}

	preview, err := h.campaignService.Preview(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "campaign")
	}
	return c.JSON(http.StatusOK, preview)
}

// ListCampaignMessages returns the per-recipient delivery log
func (h *CampaignHandlers) ListCampaignMessages(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "campaign_id")
	if err != nil {
		return common.SendValidationError(c, "campaign_id", err.Error())
	}
	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	messages, err := h.campaignService.ListMessages(ctx, tenantID, id, limit, offset)
	if err != nil {
		return respondError(c, err, "campaign")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"limit":    limit,
		"offset":   offset,
	})
}
