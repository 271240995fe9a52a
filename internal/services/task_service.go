package services

import (
	"context"
	"strings"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
)

type TaskService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *TaskRequest) (*models.Task, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *TaskRequest) (*models.Task, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error)
}

type TaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
}

type taskService struct {
	taskRepo repositories.TaskRepository
	userRepo repositories.UserRepository
}

func NewTaskService(taskRepo repositories.TaskRepository, userRepo repositories.UserRepository) TaskService {
	return &taskService{taskRepo: taskRepo, userRepo: userRepo}
}

func (r *TaskRequest) normalize() error {
	r.Title = strings.TrimSpace(r.Title)
	if err := common.ValidateRequiredString(r.Title, "title"); err != nil {
		return fieldError("title", err)
	}
	if len(r.Title) > 200 {
		return invalid("title", "title cannot exceed 200 characters")
	}
	if r.Status == "" {
		r.Status = models.TaskTodo
	}
	if !models.ValidTaskStatuses[r.Status] {
		return invalid("status", "must be one of todo, in_progress, done")
	}
	if r.Priority == "" {
		r.Priority = models.PriorityMedium
	}
	if !models.ValidTaskPriorities[r.Priority] {
		return invalid("priority", "must be one of low, medium, high")
	}
	return fieldError("description", common.ValidateOptionalString(r.Description, "description", 2000))
}

func (s *taskService) checkAssignee(ctx context.Context, tenantID uuid.UUID, assigneeID *uuid.UUID) error {
	if assigneeID == nil {
		return nil
	}
	if _, err := s.userRepo.GetByID(ctx, tenantID, *assigneeID); err != nil {
		if repositories.IsNotFound(err) {
			return invalid("assignee_id", "user not found")
		}
		return err
	}
	return nil
}

func (s *taskService) Create(ctx context.Context, tenantID uuid.UUID, req *TaskRequest) (*models.Task, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, tenantID, req.AssigneeID); err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, repoError(err, "task")
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "task")
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, tenantID, id uuid.UUID, req *TaskRequest) (*models.Task, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, tenantID, req.AssigneeID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "task")
	}
	task.Title = req.Title
	task.Description = req.Description
	task.AssigneeID = req.AssigneeID
	task.DueDate = req.DueDate
	task.Status = req.Status
	task.Priority = req.Priority

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, repoError(err, "task")
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return repoError(s.taskRepo.Delete(ctx, tenantID, id), "task")
}

func (s *taskService) List(ctx context.Context, tenantID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error) {
	if filter.Status != "" && !models.ValidTaskStatuses[filter.Status] {
		return nil, invalid("status", "must be one of todo, in_progress, done")
	}
	return s.taskRepo.List(ctx, tenantID, filter)
}
