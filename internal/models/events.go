package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventClientCreated           = "client.created"
	EventClientUpdated           = "client.updated"
	EventClientDeleted           = "client.deleted"
	EventSocialMessageReceived   = "social.message_received"
	EventCampaignDispatched      = "campaign.dispatched"
	EventAppointmentStatusChange = "appointment.status_changed"
)

// DomainEvent is published to the event bus.
type DomainEvent struct {
	Type       string      `json:"type"`
	TenantID   uuid.UUID   `json:"tenant_id"`
	EntityID   uuid.UUID   `json:"entity_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}
