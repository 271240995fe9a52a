package models

import (
	"time"

	"github.com/google/uuid"
)

var ValidExpenseCategories = map[string]bool{
	"supplies":  true,
	"rent":      true,
	"utilities": true,
	"payroll":   true,
	"marketing": true,
	"other":     true,
}

type Expense struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Category    string    `json:"category" db:"category"`
	Amount      float64   `json:"amount" db:"amount"`
	Description *string   `json:"description,omitempty" db:"description"`
	IncurredOn  time.Time `json:"incurred_on" db:"incurred_on"`
	Vendor      *string   `json:"vendor,omitempty" db:"vendor"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type ExpenseFilter struct {
	From     *time.Time
	To       *time.Time
	Category string
	Limit    int
	Offset   int
}
