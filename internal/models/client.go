package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
	ClientStatusVIP      = "vip"
	ClientStatusLead     = "lead"
)

// ValidClientStatuses is used by request validation and audience filters.
var ValidClientStatuses = map[string]bool{
	ClientStatusActive:   true,
	ClientStatusInactive: true,
	ClientStatusVIP:      true,
	ClientStatusLead:     true,
}

// Client is a salon's end customer.
type Client struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	FirstName string     `json:"first_name" db:"first_name"`
	LastName  string     `json:"last_name" db:"last_name"`
	Email     *string    `json:"email,omitempty" db:"email"`
	Phone     string     `json:"phone" db:"phone"`
	Status    string     `json:"status" db:"status"`
	Tags      []string   `json:"tags" db:"tags"`
	Notes     *string    `json:"notes,omitempty" db:"notes"`
	Birthday  *time.Time `json:"birthday,omitempty" db:"birthday"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// ClientFilter narrows client listings.
type ClientFilter struct {
	Status string
	Tag    string
	Limit  int
	Offset int
}
