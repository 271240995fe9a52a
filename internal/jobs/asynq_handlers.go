package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"glowdesk/internal/email"
	"glowdesk/internal/models"
	"glowdesk/internal/monitoring"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Task type definitions
const (
	TypeEmailSend = "email:send"
)

const (
	QueueEmail     = "email"
	emailMaxRetry  = 3
	emailTimeout   = 30 * time.Second
	deliveryFailed = "failed"
)

// NewEmailTask wraps a message in an email:send task.
func NewEmailTask(msg *models.EmailMessage) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailSend, data), nil
}

// TaskEnqueuer is the part of *asynq.Client the queue needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EmailQueue hands messages to the email worker through Redis.
type EmailQueue struct {
	client TaskEnqueuer
}

func NewEmailQueue(client TaskEnqueuer) *EmailQueue {
	return &EmailQueue{client: client}
}

func (q *EmailQueue) EnqueueEmail(ctx context.Context, msg *models.EmailMessage) error {
	task, err := NewEmailTask(msg)
	if err != nil {
		return fmt.Errorf("failed to build email task: %w", err)
	}
	if _, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueEmail),
		asynq.MaxRetry(emailMaxRetry),
		asynq.Timeout(emailTimeout),
	); err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	return nil
}

// DeliveryRecorder stores campaign message outcomes. Satisfied by the campaign repository.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, tenantID, messageID uuid.UUID, deliveryErr *string) error
	Finalize(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// EmailHandler renders and delivers email:send tasks.
type EmailHandler struct {
	sender   email.Sender
	renderer *email.Renderer
	recorder DeliveryRecorder
	log      *logrus.Logger
}

func NewEmailHandler(sender email.Sender, renderer *email.Renderer, recorder DeliveryRecorder, log *logrus.Logger) *EmailHandler {
	return &EmailHandler{sender: sender, renderer: renderer, recorder: recorder, log: log}
}

// HandleEmailSend handles email:send tasks
func (h *EmailHandler) HandleEmailSend(ctx context.Context, t *asynq.Task) error {
	var msg models.EmailMessage
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal email payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := h.log.WithField("to", msg.To)
	if msg.CampaignID != nil {
		logger = logger.WithField("campaign_id", *msg.CampaignID)
	}

	html, err := h.renderer.HTML(msg.Markdown)
	if err != nil {
		// Rendering is deterministic; retrying cannot help.
		h.record(ctx, logger, &msg, err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = h.sender.Send(ctx, &email.Payload{To: msg.To, Subject: msg.Subject, HTML: html, Text: msg.Markdown})
	if err != nil {
		if !finalAttempt(ctx) {
			monitoring.EmailsSent.WithLabelValues("retry").Inc()
			logger.WithError(err).Warn("Email delivery failed, will retry")
			return err
		}
		monitoring.EmailsSent.WithLabelValues(deliveryFailed).Inc()
		logger.WithError(err).Error("Email delivery failed permanently")
		h.record(ctx, logger, &msg, err)
		return err
	}

	monitoring.EmailsSent.WithLabelValues("sent").Inc()
	logger.Debug("Email delivered")
	h.record(ctx, logger, &msg, nil)
	return nil
}

// finalAttempt reports whether asynq will not retry this task again. Outside a
// worker there is no retry metadata and every attempt is final.
func finalAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}

// record stores the outcome of a campaign message and closes the campaign when it was the last one.
func (h *EmailHandler) record(ctx context.Context, logger *logrus.Entry, msg *models.EmailMessage, sendErr error) {
	if msg.TenantID == nil || msg.CampaignID == nil || msg.MessageID == nil || h.recorder == nil {
		return
	}

	var reason *string
	status := "sent"
	if sendErr != nil {
		r := sendErr.Error()
		reason = &r
		status = deliveryFailed
	}
	monitoring.CampaignMessages.WithLabelValues(status).Inc()

	if err := h.recorder.RecordDelivery(ctx, *msg.TenantID, *msg.MessageID, reason); err != nil {
		logger.WithError(err).WithField("message_id", *msg.MessageID).Error("Failed to record campaign delivery")
		return
	}
	done, err := h.recorder.Finalize(ctx, *msg.TenantID, *msg.CampaignID)
	if err != nil {
		logger.WithError(err).Error("Failed to finalize campaign")
		return
	}
	if done {
		logger.Info("Campaign finished sending")
	}
}
