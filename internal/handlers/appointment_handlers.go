package handlers

import (
	"net/http"
	"strings"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const calendarContentType = "text/calendar; charset=utf-8"

// AppointmentHandlers handles bookings and the calendar feeds
type AppointmentHandlers struct {
	appointmentService services.AppointmentService
}

func NewAppointmentHandlers(appointmentService services.AppointmentService) *AppointmentHandlers {
	return &AppointmentHandlers{appointmentService: appointmentService}
}

// UpdateStatusRequest represents a status transition
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ListAppointments handles listing appointments by date range, client, staff and status
// @Summary List appointments
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param from query string false "RFC 3339 or YYYY-MM-DD"
// @Param to query string false "RFC 3339 or YYYY-MM-DD"
// @Param client_id query string false "Client"
// @Param staff_id query string false "Staff member"
// @Param status query string false "Status"
// @Router /v1/appointments [get]
func (h *AppointmentHandlers) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}
	filter := models.AppointmentFilter{
		Status: c.QueryParam("status"),
		Limit:  limit,
		Offset: offset,
	}
	if filter.From, err = common.ParseTimeParam(c.QueryParam("from"), "from"); err != nil {
		return common.SendValidationError(c, "from", err.Error())
	}
	if filter.To, err = common.ParseTimeParam(c.QueryParam("to"), "to"); err != nil {
		return common.SendValidationError(c, "to", err.Error())
	}
	if filter.ClientID, err = optionalUUID(c.QueryParam("client_id"), "client_id"); err != nil {
		return common.SendValidationError(c, "client_id", err.Error())
	}
	if filter.StaffID, err = optionalUUID(c.QueryParam("staff_id"), "staff_id"); err != nil {
		return common.SendValidationError(c, "staff_id", err.Error())
	}

	appointments, err := h.appointmentService.List(ctx, tenantID, filter)
	if err != nil {
		return respondError(c, err, "appointment")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"limit":        limit,
		"offset":       offset,
	})
}

// CreateAppointment handles booking an appointment
// @Summary Create appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.AppointmentRequest true "Appointment"
// @Success 201 {object} models.Appointment
// @Router /v1/appointments [post]
func (h *AppointmentHandlers) CreateAppointment(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	appointment, err := h.appointmentService.Create(ctx, tenantID, &req)
	if err != nil {
		return respondError(c, err, "appointment")
	}
	return c.JSON(http.StatusCreated, appointment)
}

// GetAppointment handles getting an appointment by ID
func (h *AppointmentHandlers) GetAppointment(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "appointment_id")
	if err != nil {
		return common.SendValidationError(c, "appointment_id", err.Error())
	}

	appointment, err := h.appointmentService.GetByID(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "appointment")
	}
	return c.JSON(http.StatusOK, appointment)
}

// UpdateAppointment handles rescheduling or editing an appointment
func (h *AppointmentHandlers) UpdateAppointment(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "appointment_id")
	if err != nil {
		return common.SendValidationError(c, "appointment_id", err.Error())
	}

	var req services.AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	appointment, err := h.appointmentService.Update(ctx, tenantID, id, &req)
	if err != nil {
		return respondError(c, err, "appointment")
	}
	return c.JSON(http.StatusOK, appointment)
}

// UpdateAppointmentStatus handles PATCH /appointments/:id/status
func (h *AppointmentHandlers) UpdateAppointmentStatus(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "appointment_id")
	if err != nil {
		return common.SendValidationError(c, "appointment_id", err.Error())
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	appointment, err := h.appointmentService.UpdateStatus(ctx, tenantID, id, req.Status)
	if err != nil {
		return respondError(c, err, "appointment")
	}
	return c.JSON(http.StatusOK, appointment)
}

// DeleteAppointment handles deleting an appointment
func (h *AppointmentHandlers) DeleteAppointment(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "appointment_id")
	if err != nil {
		return common.SendValidationError(c, "appointment_id", err.Error())
	}

	if err := h.appointmentService.Delete(ctx, tenantID, id); err != nil {
		return respondError(c, err, "appointment")
	}
	return c.NoContent(http.StatusNoContent)
}

// CalendarFeed serves the signed in tenant's iCalendar feed
// @Summary Calendar feed
// @Tags appointments
// @Produce text/calendar
// @Security BearerAuth
// @Router /v1/calendar.ics [get]
func (h *AppointmentHandlers) CalendarFeed(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	from, err := common.ParseTimeParam(c.QueryParam("from"), "from")
	if err != nil {
		return common.SendValidationError(c, "from", err.Error())
	}
	to, err := common.ParseTimeParam(c.QueryParam("to"), "to")
	if err != nil {
		return common.SendValidationError(c, "to", err.Error())
	}

	feed, err := h.appointmentService.CalendarFeed(ctx, tenantID, from, to)
	if err != nil {
		return respondError(c, err, "calendar")
	}
	return c.Blob(http.StatusOK, calendarContentType, feed)
}

// PublicCalendarFeed serves /calendar/<token>.ics for calendar subscriptions
func (h *AppointmentHandlers) PublicCalendarFeed(c echo.Context) error {
	token := strings.TrimSuffix(c.Param("feed"), ".ics")
	if token == "" {
		return common.SendNotFoundError(c, "calendar")
	}

	feed, err := h.appointmentService.CalendarFeedByToken(c.Request().Context(), token)
	if err != nil {
		return respondError(c, err, "calendar")
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	return c.Blob(http.StatusOK, calendarContentType, feed)
}

func optionalUUID(value, field string) (*uuid.UUID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	id, err := common.ValidateUUID(value, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
