package services

import (
	"context"
	"strings"

	"glowdesk/internal/common"
	"glowdesk/internal/email"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type InventoryService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *InventoryItemRequest) (*models.InventoryItem, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.InventoryItem, error)
	// Update changes item details. Quantity only moves through Adjust.
	Update(ctx context.Context, tenantID, id uuid.UUID, req *InventoryItemRequest) (*models.InventoryItem, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, category string, limit, offset int) ([]*models.InventoryItem, error)
	Adjust(ctx context.Context, tenantID, userID, id uuid.UUID, req *AdjustStockRequest) (*models.InventoryItem, error)
	LowStock(ctx context.Context, tenantID uuid.UUID) ([]*models.InventoryItem, error)

	// NotifyLowStock emails opted-in owners and managers of every tenant with low items.
	NotifyLowStock(ctx context.Context) (int, error)
}

type InventoryItemRequest struct {
	Name         string  `json:"name"`
	SKU          *string `json:"sku"`
	Category     *string `json:"category"`
	Quantity     int     `json:"quantity"`
	UnitCost     float64 `json:"unit_cost"`
	ReorderLevel int     `json:"reorder_level"`
	Supplier     *string `json:"supplier"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

type inventoryService struct {
	inventoryRepo repositories.InventoryRepository
	tenantRepo    repositories.TenantRepository
	userRepo      repositories.UserRepository
	emailQueue    EmailQueue
	log           *logrus.Logger
}

func NewInventoryService(inventoryRepo repositories.InventoryRepository, tenantRepo repositories.TenantRepository, userRepo repositories.UserRepository, emailQueue EmailQueue, log *logrus.Logger) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		tenantRepo:    tenantRepo,
		userRepo:      userRepo,
		emailQueue:    emailQueue,
		log:           log,
	}
}

func (r *InventoryItemRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	if err := common.ValidateRequiredString(r.Name, "name"); err != nil {
		return fieldError("name", err)
	}
	if r.Quantity < 0 {
		return invalid("quantity", "quantity cannot be negative")
	}
	if r.UnitCost < 0 {
		return invalid("unit_cost", "unit_cost cannot be negative")
	}
	if r.ReorderLevel < 0 {
		return invalid("reorder_level", "reorder_level cannot be negative")
	}
	r.SKU = trimOptional(r.SKU)
	r.Category = trimOptional(r.Category)
	if r.Category != nil {
		lower := strings.ToLower(*r.Category)
		r.Category = &lower
	}
	r.Supplier = trimOptional(r.Supplier)
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return common.StringPtr(*s)
}

func (s *inventoryService) Create(ctx context.Context, tenantID uuid.UUID, req *InventoryItemRequest) (*models.InventoryItem, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         req.Name,
		SKU:          req.SKU,
		Category:     req.Category,
		Quantity:     req.Quantity,
		UnitCost:     req.UnitCost,
		ReorderLevel: req.ReorderLevel,
		Supplier:     req.Supplier,
	}
	if err := s.inventoryRepo.Create(ctx, item); err != nil {
		return nil, repoError(err, "inventory item")
	}
	return item, nil
}

func (s *inventoryService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.inventoryRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "inventory item")
	}
	return item, nil
}

func (s *inventoryService) Update(ctx context.Context, tenantID, id uuid.UUID, req *InventoryItemRequest) (*models.InventoryItem, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	item, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	item.Name = req.Name
	item.SKU = req.SKU
	item.Category = req.Category
	item.UnitCost = req.UnitCost
	item.ReorderLevel = req.ReorderLevel
	item.Supplier = req.Supplier
	if err := s.inventoryRepo.Update(ctx, item); err != nil {
		return nil, repoError(err, "inventory item")
	}
	return item, nil
}

func (s *inventoryService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return repoError(s.inventoryRepo.Delete(ctx, tenantID, id), "inventory item")
}

func (s *inventoryService) List(ctx context.Context, tenantID uuid.UUID, category string, limit, offset int) ([]*models.InventoryItem, error) {
	return s.inventoryRepo.List(ctx, tenantID, strings.ToLower(strings.TrimSpace(category)), limit, offset)
}

func (s *inventoryService) Adjust(ctx context.Context, tenantID, userID, id uuid.UUID, req *AdjustStockRequest) (*models.InventoryItem, error) {
	if req.Delta == 0 {
		return nil, invalid("delta", "delta must not be zero")
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := common.ValidateRequiredString(req.Reason, "reason"); err != nil {
		return nil, fieldError("reason", err)
	}

	adj := &models.InventoryAdjustment{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ItemID:    id,
		Delta:     req.Delta,
		Reason:    req.Reason,
		CreatedBy: &userID,
	}
	item, err := s.inventoryRepo.Adjust(ctx, adj)
	if err == nil {
		return item, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, err
	}

	// Either the item is gone or the stock would go negative.
	if _, getErr := s.GetByID(ctx, tenantID, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrInsufficientQuantity
}

func (s *inventoryService) LowStock(ctx context.Context, tenantID uuid.UUID) ([]*models.InventoryItem, error) {
	return s.inventoryRepo.ListLowStock(ctx, tenantID)
}

func (s *inventoryService) NotifyLowStock(ctx context.Context) (int, error) {
	tenantIDs, err := s.tenantRepo.ListActiveIDs(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		logger := s.log.WithField("tenant_id", tenantID)

		items, err := s.inventoryRepo.ListLowStock(ctx, tenantID)
		if err != nil {
			logger.WithError(err).Error("Failed to list low stock items")
			continue
		}
		if len(items) == 0 {
			continue
		}
		logger.WithField("items", len(items)).Info("Low stock detected")

		tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
		if err != nil {
			logger.WithError(err).Error("Failed to load tenant for low stock alert")
			continue
		}
		recipients, err := s.userRepo.ListAlertRecipients(ctx, tenantID)
		if err != nil {
			logger.WithError(err).Error("Failed to list alert recipients")
			continue
		}

		for _, rc := range recipients {
			msg, err := email.LowStockMessage(rc.Email, rc.FirstName, tenant.Name, rc.Language, items)
			if err != nil {
				logger.WithError(err).Error("Failed to render low stock email")
				break
			}
			if err := s.emailQueue.EnqueueEmail(ctx, msg); err != nil {
				logger.WithError(err).WithField("user_id", rc.UserID).Error("Failed to enqueue low stock email")
				continue
			}
			sent++
		}
	}
	return sent, nil
}
