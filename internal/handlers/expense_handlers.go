package handlers

import (
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// ExpenseHandlers handles salon running costs
type ExpenseHandlers struct {
	expenseService services.ExpenseService
}

func NewExpenseHandlers(expenseService services.ExpenseService) *ExpenseHandlers {
	return &ExpenseHandlers{expenseService: expenseService}
}

// ListExpenses handles listing expenses by date range and category
func (h *ExpenseHandlers) ListExpenses(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}
	filter := models.ExpenseFilter{
		Category: c.QueryParam("category"),
		Limit:    limit,
		Offset:   offset,
	}
	if filter.From, err = common.ParseTimeParam(c.QueryParam("from"), "from"); err != nil {
		return common.SendValidationError(c, "from", err.Error())
	}
	if filter.To, err = common.ParseTimeParam(c.QueryParam("to"), "to"); err != nil {
		return common.SendValidationError(c, "to", err.Error())
	}
	if filter.From != nil && filter.To != nil {
		if err := common.ValidateDateRange(*filter.From, *filter.To); err != nil {
			return common.SendValidationError(c, "to", err.Error())
		}
	}

	expenses, err := h.expenseService.List(ctx, tenantID, filter)
	if err != nil {
		return respondError(c, err, "expense")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"limit":    limit,
		"offset":   offset,
	})
}

// CreateExpense handles recording an expense
func (h *ExpenseHandlers) CreateExpense(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	expense, err := h.expenseService.Create(ctx, tenantID, &req)
	if err != nil {
		return respondError(c, err, "expense")
	}
	return c.JSON(http.StatusCreated, expense)
}

// GetExpense handles getting an expense by ID
func (h *ExpenseHandlers) GetExpense(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "expense_id")
	if err != nil {
		return common.SendValidationError(c, "expense_id", err.Error())
	}

	expense, err := h.expenseService.GetByID(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "expense")
	}
	return c.JSON(http.StatusOK, expense)
}

// UpdateExpense handles replacing an expense
func (h *ExpenseHandlers) UpdateExpense(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "expense_id")
	if err != nil {
		return common.SendValidationError(c, "expense_id", err.Error())
	}

	var req services.ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	expense, err := h.expenseService.Update(ctx, tenantID, id, &req)
	if err != nil {
		return respondError(c, err, "expense")
	}
	return c.JSON(http.StatusOK, expense)
}

// DeleteExpense handles deleting an expense
func (h *ExpenseHandlers) DeleteExpense(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "expense_id")
	if err != nil {
		return common.SendValidationError(c, "expense_id", err.Error())
	}

	if err := h.expenseService.Delete(ctx, tenantID, id); err != nil {
		return respondError(c, err, "expense")
	}
	return c.NoContent(http.StatusNoContent)
}
