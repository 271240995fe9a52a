package repositories

import (
	"context"
	"fmt"
	"time"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error)
	Update(ctx context.Context, appt *models.Appointment) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error)
	// ListCalendar returns non-cancelled appointments overlapping [from, to) with client names.
	ListCalendar(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.CalendarEvent, error)
}

type appointmentRepo struct {
	db DBTX
}

func NewAppointmentRepo(db DBTX) AppointmentRepository {
	return &appointmentRepo{db: db}
}

const appointmentColumns = `id, tenant_id, client_id, staff_id, service_name, starts_at, ends_at, price, status, notes, created_at, updated_at`

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	a := &models.Appointment{}
	err := row.Scan(&a.ID, &a.TenantID, &a.ClientID, &a.StaffID, &a.ServiceName, &a.StartsAt, &a.EndsAt, &a.Price, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepo) Create(ctx context.Context, appt *models.Appointment) error {
	query := `
		INSERT INTO appointments (id, tenant_id, client_id, staff_id, service_name, starts_at, ends_at, price, status, notes, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		WHERE EXISTS (SELECT 1 FROM clients WHERE id = $3 AND tenant_id = $2)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, appt.ID, appt.TenantID, appt.ClientID, appt.StaffID, appt.ServiceName, appt.StartsAt, appt.EndsAt, appt.Price, appt.Status, appt.Notes).
		Scan(&appt.CreatedAt, &appt.UpdatedAt)
}

func (r *appointmentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE tenant_id = $1 AND id = $2`
	return scanAppointment(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *appointmentRepo) Update(ctx context.Context, appt *models.Appointment) error {
	query := `
		UPDATE appointments
		SET client_id = $1, staff_id = $2, service_name = $3, starts_at = $4, ends_at = $5, price = $6, notes = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
		  AND EXISTS (SELECT 1 FROM clients WHERE id = $1 AND tenant_id = $8)
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, appt.ClientID, appt.StaffID, appt.ServiceName, appt.StartsAt, appt.EndsAt, appt.Price, appt.Notes, appt.TenantID, appt.ID).
		Scan(&appt.UpdatedAt)
}

func (r *appointmentRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	query := `UPDATE appointments SET status = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`
	return affectedOne(r.db.Exec(ctx, query, status, tenantID, id))
}

func (r *appointmentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM appointments WHERE tenant_id = $1 AND id = $2`
	return affectedOne(r.db.Exec(ctx, query, tenantID, id))
}

func (r *appointmentRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND starts_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND starts_at < $%d", len(args))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		query += fmt.Sprintf(" AND staff_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY starts_at LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := []*models.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *appointmentRepo) ListCalendar(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.CalendarEvent, error) {
	query := `
		SELECT a.id, a.tenant_id, a.client_id, a.staff_id, a.service_name, a.starts_at, a.ends_at, a.price, a.status, a.notes, a.created_at, a.updated_at,
		       TRIM(c.first_name || ' ' || c.last_name)
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		WHERE a.tenant_id = $1
		  AND a.status <> 'cancelled'
		  AND a.starts_at < $3 AND a.ends_at > $2
		ORDER BY a.starts_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.CalendarEvent
	for rows.Next() {
		ev := &models.CalendarEvent{}
		a := &ev.Appointment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ClientID, &a.StaffID, &a.ServiceName, &a.StartsAt, &a.EndsAt, &a.Price, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt, &ev.ClientName); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
