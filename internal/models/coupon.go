package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DiscountPercent = "percent"
	DiscountAmount  = "amount"
)

type Coupon struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	TenantID           uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Code               string     `json:"code" db:"code"`
	Description        *string    `json:"description,omitempty" db:"description"`
	DiscountType       string     `json:"discount_type" db:"discount_type"`
	DiscountValue      float64    `json:"discount_value" db:"discount_value"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Redeemed           bool       `json:"redeemed" db:"redeemed"`
	RedeemedAt         *time.Time `json:"redeemed_at,omitempty" db:"redeemed_at"`
	RedeemedByClientID *uuid.UUID `json:"redeemed_by_client_id,omitempty" db:"redeemed_by_client_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the coupon is past its expiry at the given time.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}
