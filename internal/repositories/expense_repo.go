package repositories

import (
	"context"
	"fmt"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type ExpenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Expense, error)
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.ExpenseFilter) ([]*models.Expense, error)
}

type expenseRepo struct {
	db DBTX
}

func NewExpenseRepo(db DBTX) ExpenseRepository {
	return &expenseRepo{db: db}
}

const expenseColumns = `id, tenant_id, category, amount, description, incurred_on, vendor, created_at, updated_at`

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	if err := row.Scan(&e.ID, &e.TenantID, &e.Category, &e.Amount, &e.Description, &e.IncurredOn, &e.Vendor, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *expenseRepo) Create(ctx context.Context, e *models.Expense) error {
	query := `
		INSERT INTO expenses (id, tenant_id, category, amount, description, incurred_on, vendor, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, e.ID, e.TenantID, e.Category, e.Amount, e.Description, e.IncurredOn, e.Vendor).
		Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *expenseRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE tenant_id = $1 AND id = $2`
	return scanExpense(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *expenseRepo) Update(ctx context.Context, e *models.Expense) error {
	query := `
		UPDATE expenses
		SET category = $1, amount = $2, description = $3, incurred_on = $4, vendor = $5, updated_at = NOW()
		WHERE tenant_id = $6 AND id = $7
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, e.Category, e.Amount, e.Description, e.IncurredOn, e.Vendor, e.TenantID, e.ID).Scan(&e.UpdatedAt)
}

func (r *expenseRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return affectedOne(r.db.Exec(ctx, `DELETE FROM expenses WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

func (r *expenseRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.ExpenseFilter) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND incurred_on >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND incurred_on <= $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY incurred_on DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []*models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
