package repositories

import (
	"context"
	"fmt"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error)
}

type taskRepo struct {
	db DBTX
}

func NewTaskRepo(db DBTX) TaskRepository {
	return &taskRepo{db: db}
}

const taskColumns = `id, tenant_id, title, description, assignee_id, due_date, status, priority, created_at, updated_at`

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	if err := row.Scan(&t.ID, &t.TenantID, &t.Title, &t.Description, &t.AssigneeID, &t.DueDate, &t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *taskRepo) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, tenant_id, title, description, assignee_id, due_date, status, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, task.ID, task.TenantID, task.Title, task.Description, task.AssigneeID, task.DueDate, task.Status, task.Priority).
		Scan(&task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE tenant_id = $1 AND id = $2`
	return scanTask(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *taskRepo) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, assignee_id = $3, due_date = $4, status = $5, priority = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, task.Title, task.Description, task.AssigneeID, task.DueDate, task.Status, task.Priority, task.TenantID, task.ID).
		Scan(&task.UpdatedAt)
}

func (r *taskRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return affectedOne(r.db.Exec(ctx, `DELETE FROM tasks WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

func (r *taskRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY due_date NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
