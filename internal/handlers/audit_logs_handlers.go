package handlers

import (
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers handles audit logs related HTTP requests
type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

// NewAuditLogsHandlers creates a new audit logs handlers instance
func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// ListAuditLogs retrieves audit logs with filtering and pagination
// @Summary List audit logs
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param table query string false "Table name"
// @Param changed_by query string false "User ID"
// @Param start_date query string false "RFC 3339 or YYYY-MM-DD"
// @Param end_date query string false "RFC 3339 or YYYY-MM-DD"
// @Router /v1/audit-logs [get]
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	filters := &models.AuditLogFilters{Limit: limit, Offset: offset}
	if table := c.QueryParam("table"); table != "" {
		filters.TableName = &table
	}
	if filters.ChangedBy, err = optionalUUID(c.QueryParam("changed_by"), "changed_by"); err != nil {
		return common.SendValidationError(c, "changed_by", err.Error())
	}
	if filters.StartDate, err = common.ParseTimeParam(c.QueryParam("start_date"), "start_date"); err != nil {
		return common.SendValidationError(c, "start_date", err.Error())
	}
	if filters.EndDate, err = common.ParseTimeParam(c.QueryParam("end_date"), "end_date"); err != nil {
		return common.SendValidationError(c, "end_date", err.Error())
	}

	logs, err := h.auditLogsService.ListAuditLogs(ctx, tenantID, filters)
	if err != nil {
		return respondError(c, err, "audit log")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
		"limit":      limit,
		"offset":     offset,
	})
}
