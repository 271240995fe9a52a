package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"

	SocialConnected = "connected"
	SocialExpired   = "expired"
	SocialRevoked   = "revoked"

	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

type SocialAccount struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Platform       string     `json:"platform" db:"platform"`
	PageID         string     `json:"page_id" db:"page_id"`
	PageName       string     `json:"page_name" db:"page_name"`
	AccessToken    string     `json:"-" db:"access_token"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" db:"token_expires_at"`
	ConnectedAt    time.Time  `json:"connected_at" db:"connected_at"`
	Status         string     `json:"status" db:"status"`
}

type SocialPost struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	AccountID      uuid.UUID  `json:"account_id" db:"account_id"`
	Message        string     `json:"message" db:"message"`
	ImageURL       *string    `json:"image_url,omitempty" db:"image_url"`
	PlatformPostID string     `json:"platform_post_id" db:"platform_post_id"`
	PostedBy       *uuid.UUID `json:"posted_by,omitempty" db:"posted_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

type SocialMessage struct {
	ID                uuid.UUID `json:"id" db:"id"`
	TenantID          uuid.UUID `json:"tenant_id" db:"tenant_id"`
	AccountID         uuid.UUID `json:"account_id" db:"account_id"`
	Direction         string    `json:"direction" db:"direction"`
	SenderID          string    `json:"sender_id" db:"sender_id"`
	RecipientID       string    `json:"recipient_id" db:"recipient_id"`
	Text              string    `json:"text" db:"text"`
	PlatformMessageID string    `json:"platform_message_id" db:"platform_message_id"`
	SentAt            time.Time `json:"sent_at" db:"sent_at"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Conversation summarises the messages exchanged with one external participant.
type Conversation struct {
	AccountID     uuid.UUID `json:"account_id"`
	ParticipantID string    `json:"participant_id"`
	LastText      string    `json:"last_text"`
	LastAt        time.Time `json:"last_at"`
	MessageCount  int       `json:"message_count"`
}

// InboundMessage is a message extracted from a webhook delivery.
type InboundMessage struct {
	PageID      string
	SenderID    string
	RecipientID string
	MessageID   string
	Text        string
	Timestamp   time.Time
}

// OAuthState is stored in Redis between the authorize redirect and the callback.
type OAuthState struct {
	TenantID uuid.UUID `json:"tenant_id"`
	UserID   uuid.UUID `json:"user_id"`
	Platform string    `json:"platform"`
}
