package repositories

import (
	"context"
	"fmt"
	"time"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

// CampaignRecipient is a pending message row joined with the client's name.
type CampaignRecipient struct {
	MessageID uuid.UUID
	ClientID  uuid.UUID
	Email     string
	FirstName string
	LastName  string
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Campaign, error)

	SetSchedule(ctx context.Context, tenantID, id uuid.UUID, status string, scheduledAt *time.Time) error
	// MarkSending moves a draft or scheduled campaign to sending. It returns pgx.ErrNoRows if
	// the campaign was not in one of those states, so concurrent dispatchers cannot both win.
	MarkSending(ctx context.Context, tenantID, id uuid.UUID) error
	SetStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error
	// ListDue returns scheduled campaigns of every tenant whose time has come.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error)

	// CreateMessages inserts one pending message per audience client and returns them.
	CreateMessages(ctx context.Context, campaign *models.Campaign) ([]*CampaignRecipient, error)
	ListMessages(ctx context.Context, tenantID, campaignID uuid.UUID, limit, offset int) ([]*models.CampaignMessage, error)
	// RecordDelivery stores the outcome for one message and bumps the campaign counters.
	RecordDelivery(ctx context.Context, tenantID, messageID uuid.UUID, deliveryErr *string) error
	// Finalize marks a sending campaign sent (or failed when nothing was delivered) once no messages are pending.
	Finalize(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

type campaignRepo struct {
	db DBTX
}

func NewCampaignRepo(db DBTX) CampaignRepository {
	return &campaignRepo{db: db}
}

const campaignColumns = `id, tenant_id, name, channel, subject, body_template, audience_status, audience_tag, coupon_id, status, scheduled_at, sent_at, sent_count, failed_count, created_by, created_at, updated_at`

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	c := &models.Campaign{}
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Channel, &c.Subject, &c.BodyTemplate, &c.AudienceStatus, &c.AudienceTag, &c.CouponID,
		&c.Status, &c.ScheduledAt, &c.SentAt, &c.SentCount, &c.FailedCount, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *campaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	query := `
		INSERT INTO campaigns (id, tenant_id, name, channel, subject, body_template, audience_status, audience_tag, coupon_id, status, scheduled_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, c.ID, c.TenantID, c.Name, c.Channel, c.Subject, c.BodyTemplate, c.AudienceStatus, c.AudienceTag, c.CouponID, c.Status, c.ScheduledAt, c.CreatedBy).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *campaignRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE tenant_id = $1 AND id = $2`
	return scanCampaign(r.db.QueryRow(ctx, query, tenantID, id))
}

// Update only touches editable campaigns.
func (r *campaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $1, subject = $2, body_template = $3, audience_status = $4, audience_tag = $5, coupon_id = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8 AND status IN ('draft', 'scheduled')
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, c.Name, c.Subject, c.BodyTemplate, c.AudienceStatus, c.AudienceTag, c.CouponID, c.TenantID, c.ID).
		Scan(&c.UpdatedAt)
}

func (r *campaignRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM campaigns WHERE tenant_id = $1 AND id = $2 AND status IN ('draft', 'scheduled', 'cancelled')`
	return affectedOne(r.db.Exec(ctx, query, tenantID, id))
}

func (r *campaignRepo) List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.scanCampaigns(ctx, query, tenantID, status, limit, offset)
}

func (r *campaignRepo) SetSchedule(ctx context.Context, tenantID, id uuid.UUID, status string, scheduledAt *time.Time) error {
	query := `
		UPDATE campaigns
		SET status = $1, scheduled_at = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4 AND status IN ('draft', 'scheduled')
	`
	return affectedOne(r.db.Exec(ctx, query, status, scheduledAt, tenantID, id))
}

func (r *campaignRepo) MarkSending(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `
		UPDATE campaigns
		SET status = 'sending', updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status IN ('draft', 'scheduled')
	`
	return affectedOne(r.db.Exec(ctx, query, tenantID, id))
}

func (r *campaignRepo) SetStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	query := `UPDATE campaigns SET status = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`
	return affectedOne(r.db.Exec(ctx, query, status, tenantID, id))
}

func (r *campaignRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = 'scheduled' AND scheduled_at <= $1
		ORDER BY scheduled_at
		LIMIT $2
	`
	return r.scanCampaigns(ctx, query, now, limit)
}

func (r *campaignRepo) CreateMessages(ctx context.Context, c *models.Campaign) ([]*CampaignRecipient, error) {
	query := `
		WITH audience AS (
			SELECT id, email, first_name, last_name
			FROM clients
			WHERE tenant_id = $1
			  AND email IS NOT NULL
			  AND ($3::text IS NULL OR status = $3)
			  AND ($4::text IS NULL OR $4 = ANY(tags))
		), ins AS (
			INSERT INTO campaign_messages (id, tenant_id, campaign_id, client_id, email, status, created_at)
			SELECT gen_random_uuid(), $1, $2, a.id, a.email, 'pending', NOW()
			FROM audience a
			ON CONFLICT (campaign_id, client_id) DO NOTHING
			RETURNING id, client_id, email
		)
		SELECT ins.id, ins.client_id, ins.email, a.first_name, a.last_name
		FROM ins
		JOIN audience a ON a.id = ins.client_id
	`
	rows, err := r.db.Query(ctx, query, c.TenantID, c.ID, c.AudienceStatus, c.AudienceTag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []*CampaignRecipient
	for rows.Next() {
		rc := &CampaignRecipient{}
		if err := rows.Scan(&rc.MessageID, &rc.ClientID, &rc.Email, &rc.FirstName, &rc.LastName); err != nil {
			return nil, err
		}
		recipients = append(recipients, rc)
	}
	return recipients, rows.Err()
}

func (r *campaignRepo) ListMessages(ctx context.Context, tenantID, campaignID uuid.UUID, limit, offset int) ([]*models.CampaignMessage, error) {
	query := `
		SELECT id, tenant_id, campaign_id, client_id, email, status, error, sent_at, created_at
		FROM campaign_messages
		WHERE tenant_id = $1 AND campaign_id = $2
		ORDER BY created_at, email
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, campaignID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.CampaignMessage{}
	for rows.Next() {
		m := &models.CampaignMessage{}
		if err := rows.Scan(&m.ID, &m.TenantID, &m.CampaignID, &m.ClientID, &m.Email, &m.Status, &m.Error, &m.SentAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *campaignRepo) RecordDelivery(ctx context.Context, tenantID, messageID uuid.UUID, deliveryErr *string) error {
	status := models.MessageSent
	counter := "sent_count"
	if deliveryErr != nil {
		status = models.MessageFailed
		counter = "failed_count"
	}

	query := fmt.Sprintf(`
		WITH upd AS (
			UPDATE campaign_messages
			SET status = $1, error = $2, sent_at = CASE WHEN $1 = 'sent' THEN NOW() ELSE NULL END
			WHERE tenant_id = $3 AND id = $4 AND status = 'pending'
			RETURNING campaign_id
		)
		UPDATE campaigns
		SET %[1]s = %[1]s + 1, updated_at = NOW()
		WHERE id = (SELECT campaign_id FROM upd)
	`, counter)
	_, err := r.db.Exec(ctx, query, status, deliveryErr, tenantID, messageID)
	return err
}

func (r *campaignRepo) Finalize(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	query := `
		UPDATE campaigns
		SET status = CASE WHEN sent_count = 0 AND failed_count > 0 THEN 'failed' ELSE 'sent' END,
		    sent_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = 'sending'
		  AND NOT EXISTS (SELECT 1 FROM campaign_messages WHERE campaign_id = $2 AND status = 'pending')
	`
	tag, err := r.db.Exec(ctx, query, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *campaignRepo) scanCampaigns(ctx context.Context, query string, args ...any) ([]*models.Campaign, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}
