package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LanguageEnglish = "en"
	LanguageSpanish = "es"
)

// NotificationPreferences controls which messages a user receives and in which language.
type NotificationPreferences struct {
	UserID               uuid.UUID `json:"user_id" db:"user_id"`
	TenantID             uuid.UUID `json:"tenant_id" db:"tenant_id"`
	EmailEnabled         bool      `json:"email_enabled" db:"email_enabled"`
	SMSEnabled           bool      `json:"sms_enabled" db:"sms_enabled"`
	AppointmentReminders bool      `json:"appointment_reminders" db:"appointment_reminders"`
	MarketingEmails      bool      `json:"marketing_emails" db:"marketing_emails"`
	LowStockAlerts       bool      `json:"low_stock_alerts" db:"low_stock_alerts"`
	Language             string    `json:"language" db:"language"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultNotificationPreferences is what a user gets before saving anything.
func DefaultNotificationPreferences(tenantID, userID uuid.UUID) *NotificationPreferences {
	return &NotificationPreferences{
		UserID:               userID,
		TenantID:             tenantID,
		EmailEnabled:         true,
		SMSEnabled:           false,
		AppointmentReminders: true,
		MarketingEmails:      true,
		LowStockAlerts:       true,
		Language:             LanguageEnglish,
	}
}

// EmailMessage is the payload handed to the email queue.
type EmailMessage struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Markdown string `json:"markdown"`

	// Set for campaign deliveries so the worker can record the outcome.
	TenantID   *uuid.UUID `json:"tenant_id,omitempty"`
	CampaignID *uuid.UUID `json:"campaign_id,omitempty"`
	MessageID  *uuid.UUID `json:"message_id,omitempty"`
}
