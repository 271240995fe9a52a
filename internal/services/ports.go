package services

import (
	"context"
	"time"

	"glowdesk/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EmailQueue hands messages to the background email worker.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, msg *models.EmailMessage) error
}

// EventPublisher sends domain events to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event models.DomainEvent) error
}

// ClientSearcher finds client ids in the search index, best match first.
type ClientSearcher interface {
	SearchClients(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]uuid.UUID, error)
}

// InsightsInvalidator drops a tenant's cached dashboards after the data behind them changes.
type InsightsInvalidator interface {
	InvalidateTenantAnalyticsCache(ctx context.Context, tenantID uuid.UUID) error
}

type nopInvalidator struct{}

func (nopInvalidator) InvalidateTenantAnalyticsCache(context.Context, uuid.UUID) error { return nil }

func invalidateInsights(ctx context.Context, insights InsightsInvalidator, log *logrus.Logger, tenantID uuid.UUID) {
	if err := insights.InvalidateTenantAnalyticsCache(ctx, tenantID); err != nil {
		log.WithError(err).WithField("tenant_id", tenantID).Warn("Failed to invalidate insight cache")
	}
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.DomainEvent) error { return nil }

func newEvent(eventType string, tenantID, entityID uuid.UUID, payload interface{}) models.DomainEvent {
	return models.DomainEvent{
		Type:       eventType,
		TenantID:   tenantID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
