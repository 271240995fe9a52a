package services

import (
	"context"
	"strings"
	"time"

	"glowdesk/internal/calendar"
	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Default calendar feed window around now.
const (
	calendarLookBack  = 30 * 24 * time.Hour
	calendarLookAhead = 180 * 24 * time.Hour
)

type AppointmentService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *AppointmentRequest) (*models.Appointment, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *AppointmentRequest) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) (*models.Appointment, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error)

	// CalendarFeed renders the tenant's appointments as iCalendar. Nil bounds use the default window.
	CalendarFeed(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]byte, error)
	// CalendarFeedByToken serves the public subscription URL.
	CalendarFeedByToken(ctx context.Context, token string) ([]byte, error)
}

type AppointmentRequest struct {
	ClientID    uuid.UUID  `json:"client_id"`
	StaffID     *uuid.UUID `json:"staff_id"`
	ServiceName string     `json:"service_name"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	Price       float64    `json:"price"`
	Status      string     `json:"status"`
	Notes       *string    `json:"notes"`
}

type appointmentService struct {
	apptRepo   repositories.AppointmentRepository
	tenantRepo repositories.TenantRepository
	publisher  EventPublisher
	insights   InsightsInvalidator
	domain     string
	log        *logrus.Logger
}

func NewAppointmentService(apptRepo repositories.AppointmentRepository, tenantRepo repositories.TenantRepository, publisher EventPublisher, insights InsightsInvalidator, domain string, log *logrus.Logger) AppointmentService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if insights == nil {
		insights = nopInvalidator{}
	}
	return &appointmentService{apptRepo: apptRepo, tenantRepo: tenantRepo, publisher: publisher, insights: insights, domain: domain, log: log}
}

func (r *AppointmentRequest) normalize() error {
	if r.ClientID == uuid.Nil {
		return invalid("client_id", "client_id is required")
	}
	r.ServiceName = strings.TrimSpace(r.ServiceName)
	if err := common.ValidateRequiredString(r.ServiceName, "service_name"); err != nil {
		return fieldError("service_name", err)
	}
	if r.StartsAt.IsZero() || r.EndsAt.IsZero() {
		return invalid("starts_at", "starts_at and ends_at are required")
	}
	if !r.EndsAt.After(r.StartsAt) {
		return invalid("ends_at", "ends_at must be after starts_at")
	}
	if r.Price < 0 {
		return invalid("price", "price cannot be negative")
	}
	if r.Status == "" {
		r.Status = models.AppointmentScheduled
	}
	if !models.ValidAppointmentStatuses[r.Status] {
		return invalid("status", "unknown appointment status")
	}
	return fieldError("notes", common.ValidateOptionalString(r.Notes, "notes", 2000))
}

func (s *appointmentService) Create(ctx context.Context, tenantID uuid.UUID, req *AppointmentRequest) (*models.Appointment, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ClientID:    req.ClientID,
		StaffID:     req.StaffID,
		ServiceName: req.ServiceName,
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		Price:       req.Price,
		Status:      req.Status,
		Notes:       req.Notes,
	}
	if err := s.apptRepo.Create(ctx, appt); err != nil {
		if repositories.IsNotFound(err) {
			// Nothing was inserted because the client is not in this tenant.
			return nil, invalid("client_id", "client not found")
		}
		return nil, repoError(err, "appointment")
	}
	invalidateInsights(ctx, s.insights, s.log, tenantID)
	return appt, nil
}

func (s *appointmentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "appointment")
	}
	return appt, nil
}

func (s *appointmentService) Update(ctx context.Context, tenantID, id uuid.UUID, req *AppointmentRequest) (*models.Appointment, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	appt, err := s.apptRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "appointment")
	}
	appt.ClientID = req.ClientID
	appt.StaffID = req.StaffID
	appt.ServiceName = req.ServiceName
	appt.StartsAt = req.StartsAt.UTC()
	appt.EndsAt = req.EndsAt.UTC()
	appt.Price = req.Price
	appt.Notes = req.Notes

	if err := s.apptRepo.Update(ctx, appt); err != nil {
		if repositories.IsNotFound(err) {
			return nil, invalid("client_id", "client not found")
		}
		return nil, repoError(err, "appointment")
	}
	invalidateInsights(ctx, s.insights, s.log, tenantID)
	return appt, nil
}

func (s *appointmentService) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) (*models.Appointment, error) {
	if !models.ValidAppointmentStatuses[status] {
		return nil, invalid("status", "unknown appointment status")
	}
	if err := s.apptRepo.UpdateStatus(ctx, tenantID, id, status); err != nil {
		return nil, repoError(err, "appointment")
	}
	invalidateInsights(ctx, s.insights, s.log, tenantID)

	appt, err := s.apptRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "appointment")
	}

	event := newEvent(models.EventAppointmentStatusChange, tenantID, id, map[string]string{"status": status})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithField("appointment_id", id).Warn("Failed to publish appointment status event")
	}
	return appt, nil
}

func (s *appointmentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.apptRepo.Delete(ctx, tenantID, id); err != nil {
		return repoError(err, "appointment")
	}
	invalidateInsights(ctx, s.insights, s.log, tenantID)
	return nil
}

func (s *appointmentService) List(ctx context.Context, tenantID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	if filter.From != nil && filter.To != nil {
		if err := common.ValidateDateRange(*filter.From, *filter.To); err != nil {
			return nil, fieldError("to", err)
		}
	}
	if filter.Status != "" && !models.ValidAppointmentStatuses[filter.Status] {
		return nil, invalid("status", "unknown appointment status")
	}
	return s.apptRepo.List(ctx, tenantID, filter)
}

func (s *appointmentService) CalendarFeed(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]byte, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, repoError(err, "tenant")
	}
	return s.renderFeed(ctx, tenant, from, to)
}

func (s *appointmentService) CalendarFeedByToken(ctx context.Context, token string) ([]byte, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	tenant, err := s.tenantRepo.GetByCalendarToken(ctx, token)
	if err != nil {
		return nil, repoError(err, "calendar")
	}
	return s.renderFeed(ctx, tenant, nil, nil)
}

func (s *appointmentService) renderFeed(ctx context.Context, tenant *models.Tenant, from, to *time.Time) ([]byte, error) {
	now := time.Now().UTC()
	start, end := now.Add(-calendarLookBack), now.Add(calendarLookAhead)
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	if err := common.ValidateDateRange(start, end); err != nil {
		return nil, fieldError("to", err)
	}

	events, err := s.apptRepo.ListCalendar(ctx, tenant.ID, start, end)
	if err != nil {
		return nil, err
	}

	feed := calendar.Feed{SalonName: tenant.Name, Domain: s.domain, Now: now}
	return feed.Render(events), nil
}
