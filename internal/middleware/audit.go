package middleware

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// AuditMiddleware records who changed what in a tenant
type AuditMiddleware struct {
	auditService services.AuditLogsService
	log          *logrus.Logger
}

// NewAuditMiddleware creates a new audit middleware instance
func NewAuditMiddleware(auditService services.AuditLogsService, log *logrus.Logger) *AuditMiddleware {
	return &AuditMiddleware{
		auditService: auditService,
		log:          log,
	}
}

// AuditRequest logs every mutating request and every failed request of an authenticated tenant.
func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			ctx := c.Request().Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return err
			}

			status := c.Response().Status
			if !isMutating(c.Request().Method) && status < http.StatusBadRequest {
				return err
			}

			var userPtr *uuid.UUID
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				userPtr = &userID
			}

			data := models.JSONB{
				"method":     c.Request().Method,
				"path":       c.Path(),
				"status":     status,
				"user_agent": c.Request().UserAgent(),
				"ip":         c.RealIP(),
				"timestamp":  time.Now().UTC().Format(time.RFC3339),
			}
			if err != nil {
				data["error"] = err.Error()
			}

			recordID := c.Param("id")
			if recordID == "" {
				recordID = c.Path()
			}
			action := c.Request().Method + " " + c.Path()
			if logErr := m.auditService.LogActivity(ctx, tenantID, "http_requests", recordID, action, userPtr, nil, data); logErr != nil {
				m.log.WithError(logErr).WithField("path", c.Path()).Warn("Failed to log audit activity")
			}
			return err
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// AuditEntityChange records a before/after snapshot of a business entity.
// Audit failures are logged, never returned to the caller.
func (m *AuditMiddleware) AuditEntityChange(ctx context.Context, tableName, recordID, action string, oldEntity, newEntity interface{}) {
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return
	}
	var userPtr *uuid.UUID
	if userID, ok := common.GetUserIDFromContext(ctx); ok {
		userPtr = &userID
	}

	oldValues, err := snapshot(oldEntity)
	if err != nil {
		m.log.WithError(err).Warn("Failed to snapshot audited entity")
		return
	}
	newValues, err := snapshot(newEntity)
	if err != nil {
		m.log.WithError(err).Warn("Failed to snapshot audited entity")
		return
	}

	switch strings.ToUpper(action) {
	case models.ActionInsert:
		err = m.auditService.LogEntityCreate(ctx, tenantID, tableName, recordID, userPtr, newValues)
	case models.ActionUpdate:
		err = m.auditService.LogEntityUpdate(ctx, tenantID, tableName, recordID, userPtr, oldValues, newValues)
	case models.ActionDelete:
		err = m.auditService.LogEntityDelete(ctx, tenantID, tableName, recordID, userPtr, oldValues)
	default:
		err = m.auditService.LogActivity(ctx, tenantID, tableName, recordID, action, userPtr, oldValues, newValues)
	}
	if err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{"table": tableName, "record_id": recordID}).Warn("Failed to log entity change")
	}
}

func snapshot(entity interface{}) (models.JSONB, error) {
	if entity == nil {
		return nil, nil
	}
	if v := reflect.ValueOf(entity); v.Kind() == reflect.Ptr && v.IsNil() {
		return nil, nil
	}
	return services.CreateEntityValues(entity)
}
