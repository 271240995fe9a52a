package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// InsightsProvider is implemented by analytics.AnalyticsService.
type InsightsProvider interface {
	Range(from, to *time.Time) (time.Time, time.Time, error)
	Summary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*models.InsightsSummary, error)
	TimeSeries(ctx context.Context, tenantID uuid.UUID, metric, bucket string, from, to time.Time) (*models.TimeSeries, error)
	TopServices(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]*models.ServiceStat, error)
}

// InsightsHandlers serves the business dashboard
type InsightsHandlers struct {
	insights InsightsProvider
}

func NewInsightsHandlers(insights InsightsProvider) *InsightsHandlers {
	return &InsightsHandlers{insights: insights}
}

// dateRange reads from/to and applies the default window.
func (h *InsightsHandlers) dateRange(c echo.Context) (time.Time, time.Time, error) {
	from, err := common.ParseTimeParam(c.QueryParam("from"), "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := common.ParseTimeParam(c.QueryParam("to"), "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return h.insights.Range(from, to)
}

// Summary handles GET /insights/summary
// @Summary Business summary
// @Tags insights
// @Produce json
// @Security BearerAuth
// @Param from query string false "Start, defaults to 30 days ago"
// @Param to query string false "End, defaults to now"
// @Success 200 {object} models.InsightsSummary
// @Router /v1/insights/summary [get]
func (h *InsightsHandlers) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	from, to, err := h.dateRange(c)
	if err != nil {
		return respondRangeError(c, err)
	}

	summary, err := h.insights.Summary(ctx, tenantID, from, to)
	if err != nil {
		return respondError(c, err, "insights")
	}
	return c.JSON(http.StatusOK, summary)
}

// TimeSeries handles GET /insights/timeseries?metric&bucket
// @Summary Metric over time
// @Tags insights
// @Produce json
// @Security BearerAuth
// @Param metric query string true "revenue, expenses, appointments or new_clients"
// @Param bucket query string false "day, week or month"
// @Success 200 {object} models.TimeSeries
// @Router /v1/insights/timeseries [get]
func (h *InsightsHandlers) TimeSeries(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	from, to, err := h.dateRange(c)
	if err != nil {
		return respondRangeError(c, err)
	}
	bucket := c.QueryParam("bucket")
	if bucket == "" {
		bucket = "day"
	}

	series, err := h.insights.TimeSeries(ctx, tenantID, c.QueryParam("metric"), bucket, from, to)
	if err != nil {
		return respondError(c, err, "insights")
	}
	return c.JSON(http.StatusOK, series)
}

// TopServices handles GET /insights/top-services?limit
func (h *InsightsHandlers) TopServices(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	from, to, err := h.dateRange(c)
	if err != nil {
		return respondRangeError(c, err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	stats, err := h.insights.TopServices(ctx, tenantID, from, to, limit)
	if err != nil {
		return respondError(c, err, "insights")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"services": stats,
		"from":     from,
		"to":       to,
	})
}

// respondRangeError keeps the field of service validation errors; parse errors are reported on the range.
func respondRangeError(c echo.Context, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return common.SendValidationError(c, verr.Field, verr.Message)
	}
	return common.SendValidationError(c, "range", err.Error())
}
