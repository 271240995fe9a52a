package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var ValidTaskStatuses = map[string]bool{TaskTodo: true, TaskInProgress: true, TaskDone: true}

var ValidTaskPriorities = map[string]bool{PriorityLow: true, PriorityMedium: true, PriorityHigh: true}

type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty" db:"assignee_id"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	Status      string     `json:"status" db:"status"`
	Priority    string     `json:"priority" db:"priority"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type TaskFilter struct {
	Status     string
	AssigneeID *uuid.UUID
	Limit      int
	Offset     int
}
