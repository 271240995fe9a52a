package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"glowdesk/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ClientIndexer applies client changes to the search index.
type ClientIndexer interface {
	IndexClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id uuid.UUID) error
}

const maxAttempts = 3

// envelope mirrors models.DomainEvent with the payload left raw.
type envelope struct {
	Type     string          `json:"type"`
	TenantID uuid.UUID       `json:"tenant_id"`
	EntityID uuid.UUID       `json:"entity_id"`
	Payload  json.RawMessage `json:"payload"`
}

// ClientConsumer keeps the client search index in step with client events.
type ClientConsumer struct {
	reader  MessageReader
	indexer ClientIndexer
	log     *logrus.Logger
	backoff time.Duration
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
		MaxWait: 10 * time.Second,
	})
}

func NewClientConsumer(reader MessageReader, indexer ClientIndexer, log *logrus.Logger) *ClientConsumer {
	return &ClientConsumer{reader: reader, indexer: indexer, log: log, backoff: 5 * time.Second}
}

// Run consumes until ctx is cancelled. A message that keeps failing is
// dropped after maxAttempts.
func (c *ClientConsumer) Run(ctx context.Context) error {
	c.log.Info("Starting client index consumer")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.WithError(err).Warn("Kafka read error, will retry")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		if !c.apply(ctx, msg) {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.WithError(err).Warn("Failed to commit offset")
		}
	}
}

// apply retries Handle with backoff. It returns false when ctx ended first.
func (c *ClientConsumer) apply(ctx context.Context, msg kafka.Message) bool {
	for attempt := 1; ; attempt++ {
		err := c.Handle(ctx, msg.Value)
		if err == nil {
			return true
		}
		logger := c.log.WithError(err).WithFields(logrus.Fields{"offset": msg.Offset, "attempt": attempt})
		if attempt >= maxAttempts {
			logger.Error("Dropping client event after repeated failures")
			return true
		}
		logger.Warn("Failed to apply client event, will retry")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.backoff):
		}
	}
}

// Handle applies one event. Unparseable and non-client events are skipped.
func (c *ClientConsumer) Handle(ctx context.Context, value []byte) error {
	var ev envelope
	if err := json.Unmarshal(value, &ev); err != nil {
		c.log.WithError(err).Warn("Skipping malformed event")
		return nil
	}

	switch ev.Type {
	case models.EventClientCreated, models.EventClientUpdated:
		var client models.Client
		if err := json.Unmarshal(ev.Payload, &client); err != nil {
			c.log.WithError(err).WithField("entity_id", ev.EntityID).Warn("Skipping client event with bad payload")
			return nil
		}
		if client.ID == uuid.Nil {
			client.ID = ev.EntityID
		}
		if client.TenantID == uuid.Nil {
			client.TenantID = ev.TenantID
		}
		if err := c.indexer.IndexClient(ctx, &client); err != nil {
			return fmt.Errorf("index client %s: %w", client.ID, err)
		}
	case models.EventClientDeleted:
		if err := c.indexer.DeleteClient(ctx, ev.EntityID); err != nil {
			return fmt.Errorf("delete client %s: %w", ev.EntityID, err)
		}
	default:
		return nil
	}

	c.log.WithFields(logrus.Fields{"event": ev.Type, "entity_id": ev.EntityID}).Debug("Applied client event")
	return nil
}

func (c *ClientConsumer) Close() error {
	return c.reader.Close()
}
