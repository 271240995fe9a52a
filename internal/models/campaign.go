package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CampaignDraft     = "draft"
	CampaignScheduled = "scheduled"
	CampaignSending   = "sending"
	CampaignSent      = "sent"
	CampaignFailed    = "failed"
	CampaignCancelled = "cancelled"

	ChannelEmail = "email"

	MessagePending = "pending"
	MessageSent    = "sent"
	MessageFailed  = "failed"
)

type Campaign struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Name           string     `json:"name" db:"name"`
	Channel        string     `json:"channel" db:"channel"`
	Subject        string     `json:"subject" db:"subject"`
	BodyTemplate   string     `json:"body_template" db:"body_template"`
	AudienceStatus *string    `json:"audience_status,omitempty" db:"audience_status"`
	AudienceTag    *string    `json:"audience_tag,omitempty" db:"audience_tag"`
	CouponID       *uuid.UUID `json:"coupon_id,omitempty" db:"coupon_id"`
	Status         string     `json:"status" db:"status"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	SentAt         *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	SentCount      int        `json:"sent_count" db:"sent_count"`
	FailedCount    int        `json:"failed_count" db:"failed_count"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Editable reports whether the campaign can still be changed.
func (c *Campaign) Editable() bool {
	return c.Status == CampaignDraft || c.Status == CampaignScheduled
}

// CampaignMessage is one recipient of a campaign.
type CampaignMessage struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TenantID   uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	CampaignID uuid.UUID  `json:"campaign_id" db:"campaign_id"`
	ClientID   uuid.UUID  `json:"client_id" db:"client_id"`
	Email      string     `json:"email" db:"email"`
	Status     string     `json:"status" db:"status"`
	Error      *string    `json:"error,omitempty" db:"error"`
	SentAt     *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// TemplateData is the set of fields available to campaign body templates.
type TemplateData struct {
	FirstName  string
	LastName   string
	SalonName  string
	CouponCode string
}
