package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"glowdesk/internal/common"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// PortfolioHandlers handles the salon's photo portfolio
type PortfolioHandlers struct {
	portfolioService services.PortfolioService
}

func NewPortfolioHandlers(portfolioService services.PortfolioService) *PortfolioHandlers {
	return &PortfolioHandlers{portfolioService: portfolioService}
}

// UploadPortfolioItem handles a multipart upload with fields title, description, tags and file
// @Summary Upload portfolio image
// @Tags portfolio
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param tags formData string false "Comma separated tags"
// @Param file formData file true "JPEG, PNG or WebP, at most 10 MiB"
// @Success 201 {object} models.PortfolioItem
// @Router /v1/portfolio [post]
func (h *PortfolioHandlers) UploadPortfolioItem(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "file is required")
	}
	if fh.Size > services.MaxPortfolioImageSize {
		return common.SendValidationError(c, "file", "image must be at most 10 MiB")
	}

	file, err := fh.Open()
	if err != nil {
		return common.SendClientError(c, "Could not read uploaded file")
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return common.SendClientError(c, "Could not read uploaded file")
	}
	head = head[:n]

	item, err := h.portfolioService.Upload(ctx, tenantID, &services.PortfolioUpload{
		Title:       c.FormValue("title"),
		Description: common.StringPtr(c.FormValue("description")),
		Tags:        splitTags(c.FormValue("tags")),
		ContentType: http.DetectContentType(head),
		Size:        fh.Size,
		Body:        io.MultiReader(bytes.NewReader(head), file),
	})
	if err != nil {
		return respondError(c, err, "portfolio item")
	}
	return c.JSON(http.StatusCreated, item)
}

// ListPortfolio handles listing portfolio items with presigned URLs
func (h *PortfolioHandlers) ListPortfolio(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	items, err := h.portfolioService.List(ctx, tenantID, c.QueryParam("tag"), limit, offset)
	if err != nil {
		return respondError(c, err, "portfolio item")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

// GetPortfolioItem handles getting a portfolio item by ID
func (h *PortfolioHandlers) GetPortfolioItem(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "item_id")
	if err != nil {
		return common.SendValidationError(c, "item_id", err.Error())
	}

	item, err := h.portfolioService.GetByID(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "portfolio item")
	}
	return c.JSON(http.StatusOK, item)
}

// DeletePortfolioItem removes the row and its stored image
func (h *PortfolioHandlers) DeletePortfolioItem(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "item_id")
	if err != nil {
		return common.SendValidationError(c, "item_id", err.Error())
	}

	if err := h.portfolioService.Delete(ctx, tenantID, id); err != nil {
		return respondError(c, err, "portfolio item")
	}
	return c.NoContent(http.StatusNoContent)
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
