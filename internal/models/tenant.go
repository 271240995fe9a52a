package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

// Tenant is a salon account. Every business row is scoped by its ID.
type Tenant struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Subdomain     string    `json:"subdomain" db:"subdomain"`
	Timezone      string    `json:"timezone" db:"timezone"`
	Status        string    `json:"status" db:"status"`
	CalendarToken string    `json:"-" db:"calendar_token"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
