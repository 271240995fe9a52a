package services

import (
	"context"
	"strings"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ExpenseService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *ExpenseRequest) (*models.Expense, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Expense, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *ExpenseRequest) (*models.Expense, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.ExpenseFilter) ([]*models.Expense, error)
}

type ExpenseRequest struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description *string `json:"description"`
	IncurredOn  string  `json:"incurred_on"`
	Vendor      *string `json:"vendor"`
}

type expenseService struct {
	expenseRepo repositories.ExpenseRepository
	insights    InsightsInvalidator
	log         *logrus.Logger
}

func NewExpenseService(expenseRepo repositories.ExpenseRepository, insights InsightsInvalidator, log *logrus.Logger) ExpenseService {
	if insights == nil {
		insights = nopInvalidator{}
	}
	return &expenseService{expenseRepo: expenseRepo, insights: insights, log: log}
}

// build validates the request and returns the expense fields it describes.
func (r *ExpenseRequest) build() (*models.Expense, error) {
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	if !models.ValidExpenseCategories[r.Category] {
		return nil, invalid("category", "must be one of supplies, rent, utilities, payroll, marketing, other")
	}
	if r.Amount <= 0 {
		return nil, invalid("amount", "amount must be greater than 0")
	}
	incurred, err := time.Parse("2006-01-02", strings.TrimSpace(r.IncurredOn))
	if err != nil {
		return nil, invalid("incurred_on", "incurred_on must be a YYYY-MM-DD date")
	}
	if err := common.ValidateOptionalString(r.Description, "description", 1000); err != nil {
		return nil, fieldError("description", err)
	}
	return &models.Expense{
		Category:    r.Category,
		Amount:      r.Amount,
		Description: r.Description,
		IncurredOn:  incurred,
		Vendor:      trimOptional(r.Vendor),
	}, nil
}

func (s *expenseService) Create(ctx context.Context, tenantID uuid.UUID, req *ExpenseRequest) (*models.Expense, error) {
	expense, err := req.build()
	if err != nil {
		return nil, err
	}
	expense.ID = uuid.New()
	expense.TenantID = tenantID
	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, repoError(err, "expense")
	}
	invalidateInsights(ctx, s.insights, s.log, tenantID)
	return expense, nil
}

func (s *expenseService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "expense")
	}
	return expense, nil
}

func (s *expenseService) Update(ctx context.Context, tenantID, id uuid.UUID, req *ExpenseRequest) (*models.Expense, error) {
	fields, err := req.build()
	if err != nil {
		return nil, err
	}
	expense, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	expense.Category = fields.Category
	expense.Amount = fields.Amount
	expense.Description = fields.Description
	expense.IncurredOn = fields.IncurredOn
	expense.Vendor = fields.Vendor
	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, repoError(err, "expense")
	}
	invalidateInsights(ctx, s.insights, s.log, tenantID)
	return expense, nil
}

func (s *expenseService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.expenseRepo.Delete(ctx, tenantID, id); err != nil {
		return repoError(err, "expense")
	}
	invalidateInsights(ctx, s.insights, s.log, tenantID)
	return nil
}

func (s *expenseService) List(ctx context.Context, tenantID uuid.UUID, filter models.ExpenseFilter) ([]*models.Expense, error) {
	if filter.Category != "" && !models.ValidExpenseCategories[filter.Category] {
		return nil, invalid("category", "unknown expense category")
	}
	if filter.From != nil && filter.To != nil {
		if err := common.ValidateDateRange(*filter.From, *filter.To); err != nil {
			return nil, fieldError("to", err)
		}
	}
	return s.expenseRepo.List(ctx, tenantID, filter)
}
