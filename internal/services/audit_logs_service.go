package services

import (
	"context"
	"fmt"
	"time"

	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
)

const (
	maxAuditRange = 365 * 24 * time.Hour
	maxAuditLimit = 1000
)

// AuditLogsService records and lists tenant change history.
type AuditLogsService interface {
	LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error
	ListAuditLogs(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
	LogEntityCreate(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, newValues models.JSONB) error
	LogEntityUpdate(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error
	LogEntityDelete(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues models.JSONB) error
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{auditLogsRepo: auditLogsRepo}
}

// LogActivity writes one audit entry.
func (s *auditLogsService) LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error {
	if tenantID == uuid.Nil {
		return invalid("tenant_id", "is required")
	}
	if tableName == "" || recordID == "" || action == "" {
		return invalid("table_name", "table, record and action are required")
	}

	return s.auditLogsRepo.Create(ctx, &models.AuditLog{
		TenantID:  tenantID,
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		OldValues: oldValues,
		NewValues: newValues,
		ChangedBy: changedBy,
	})
}

func (s *auditLogsService) ListAuditLogs(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if err := ValidateAuditFilters(filters); err != nil {
		return nil, err
	}
	logs, err := s.auditLogsRepo.List(ctx, tenantID, filters)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}
	return logs, nil
}

func (s *auditLogsService) LogEntityCreate(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, newValues models.JSONB) error {
	return s.LogActivity(ctx, tenantID, tableName, recordID, models.ActionInsert, changedBy, nil, newValues)
}

func (s *auditLogsService) LogEntityUpdate(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error {
	return s.LogActivity(ctx, tenantID, tableName, recordID, models.ActionUpdate, changedBy, oldValues, newValues)
}

func (s *auditLogsService) LogEntityDelete(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues models.JSONB) error {
	return s.LogActivity(ctx, tenantID, tableName, recordID, models.ActionDelete, changedBy, oldValues, nil)
}

// CreateEntityValues builds the audited snapshot of an entity, leaving out
// credentials and free-text notes.
func CreateEntityValues(entity interface{}) (models.JSONB, error) {
	switch v := entity.(type) {
	case *models.User:
		return models.JSONB{
			"id":         v.ID,
			"email":      v.Email,
			"first_name": v.FirstName,
			"last_name":  v.LastName,
			"status":     v.Status,
		}, nil
	case *models.Client:
		return models.JSONB{
			"id":         v.ID,
			"first_name": v.FirstName,
			"last_name":  v.LastName,
			"email":      v.Email,
			"phone":      v.Phone,
			"status":     v.Status,
			"tags":       v.Tags,
		}, nil
	case *models.Coupon:
		return models.JSONB{
			"id":             v.ID,
			"code":           v.Code,
			"discount_type":  v.DiscountType,
			"discount_value": v.DiscountValue,
			"redeemed":       v.Redeemed,
			"expires_at":     v.ExpiresAt,
		}, nil
	case *models.Campaign:
		return models.JSONB{
			"id":           v.ID,
			"name":         v.Name,
			"subject":      v.Subject,
			"status":       v.Status,
			"scheduled_at": v.ScheduledAt,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported entity type %T for audit logging", entity)
	}
}

// ValidateAuditFilters bounds the range and page size of an audit query.
func ValidateAuditFilters(filters *models.AuditLogFilters) error {
	if filters == nil {
		return nil
	}
	if filters.StartDate != nil && filters.EndDate != nil {
		if filters.EndDate.Before(*filters.StartDate) {
			return invalid("end_date", "cannot be before start_date")
		}
		if filters.EndDate.Sub(*filters.StartDate) > maxAuditRange {
			return invalid("end_date", "date range cannot exceed 1 year")
		}
	}
	if filters.Limit > maxAuditLimit {
		return invalid("limit", fmt.Sprintf("maximum limit is %d records", maxAuditLimit))
	}
	return nil
}
