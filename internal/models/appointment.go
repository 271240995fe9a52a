package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

var ValidAppointmentStatuses = map[string]bool{
	AppointmentScheduled: true,
	AppointmentConfirmed: true,
	AppointmentCompleted: true,
	AppointmentCancelled: true,
	AppointmentNoShow:    true,
}

type Appointment struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	ClientID    uuid.UUID  `json:"client_id" db:"client_id"`
	StaffID     *uuid.UUID `json:"staff_id,omitempty" db:"staff_id"`
	ServiceName string     `json:"service_name" db:"service_name"`
	StartsAt    time.Time  `json:"starts_at" db:"starts_at"`
	EndsAt      time.Time  `json:"ends_at" db:"ends_at"`
	Price       float64    `json:"price" db:"price"`
	Status      string     `json:"status" db:"status"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// AppointmentFilter narrows appointment listings. Zero values are ignored.
type AppointmentFilter struct {
	From     *time.Time
	To       *time.Time
	ClientID *uuid.UUID
	StaffID  *uuid.UUID
	Status   string
	Limit    int
	Offset   int
}

// CalendarEvent is an appointment joined with its client name for calendar feeds.
type CalendarEvent struct {
	Appointment
	ClientName string `json:"client_name"`
}
