package models

import (
	"time"

	"github.com/google/uuid"
)

// Built-in role names created for every new salon.
const (
	RoleOwner        = "owner"
	RoleManager      = "manager"
	RoleStaff        = "staff"
	RoleReceptionist = "receptionist"
)

type Role struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
