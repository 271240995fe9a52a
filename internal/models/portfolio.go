package models

import (
	"time"

	"github.com/google/uuid"
)

// PortfolioItem is a photo of the salon's work stored in object storage.
type PortfolioItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	ObjectKey   string    `json:"object_key" db:"object_key"`
	ContentType string    `json:"content_type" db:"content_type"`
	Tags        []string  `json:"tags" db:"tags"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// URL is a presigned download link filled in on read.
	URL string `json:"url,omitempty" db:"-"`
}
