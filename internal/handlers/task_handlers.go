package handlers

import (
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// TaskHandlers handles staff to-dos
type TaskHandlers struct {
	taskService services.TaskService
}

func NewTaskHandlers(taskService services.TaskService) *TaskHandlers {
	return &TaskHandlers{taskService: taskService}
}

// ListTasks handles listing tasks by status and assignee
func (h *TaskHandlers) ListTasks(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}
	assignee, err := optionalUUID(c.QueryParam("assignee_id"), "assignee_id")
	if err != nil {
		return common.SendValidationError(c, "assignee_id", err.Error())
	}

	tasks, err := h.taskService.List(ctx, tenantID, models.TaskFilter{
		Status:     c.QueryParam("status"),
		AssigneeID: assignee,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return respondError(c, err, "task")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tasks":  tasks,
		"limit":  limit,
		"offset": offset,
	})
}

// CreateTask handles creating a task
func (h *TaskHandlers) CreateTask(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.TaskRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	task, err := h.taskService.Create(ctx, tenantID, &req)
	if err != nil {
		return respondError(c, err, "task")
	}
	return c.JSON(http.StatusCreated, task)
}

// GetTask handles getting a task by ID
func (h *TaskHandlers) GetTask(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "task_id")
	if err != nil {
		return common.SendValidationError(c, "task_id", err.Error())
	}

	task, err := h.taskService.GetByID(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "task")
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTask handles replacing a task
func (h *TaskHandlers) UpdateTask(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "task_id")
	if err != nil {
		return common.SendValidationError(c, "task_id", err.Error())
	}

	var req services.TaskRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	task, err := h.taskService.Update(ctx, tenantID, id, &req)
	if err != nil {
		return respondError(c, err, "task")
	}
	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles deleting a task
func (h *TaskHandlers) DeleteTask(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "task_id")
	if err != nil {
		return common.SendValidationError(c, "task_id", err.Error())
	}

	if err := h.taskService.Delete(ctx, tenantID, id); err != nil {
		return respondError(c, err, "task")
	}
	return c.NoContent(http.StatusNoContent)
}
