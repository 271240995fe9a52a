package repositories

import (
	"context"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type NotificationPreferencesRepository interface {
	Get(ctx context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreferences, error)
	Upsert(ctx context.Context, prefs *models.NotificationPreferences) error
}

type notificationPrefsRepo struct {
	db DBTX
}

func NewNotificationPreferencesRepo(db DBTX) NotificationPreferencesRepository {
	return &notificationPrefsRepo{db: db}
}

func (r *notificationPrefsRepo) Get(ctx context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreferences, error) {
	p := &models.NotificationPreferences{}
	query := `
		SELECT user_id, tenant_id, email_enabled, sms_enabled, appointment_reminders, marketing_emails, low_stock_alerts, language, updated_at
		FROM notification_preferences
		WHERE tenant_id = $1 AND user_id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, userID).Scan(&p.UserID, &p.TenantID, &p.EmailEnabled, &p.SMSEnabled, &p.AppointmentReminders, &p.MarketingEmails, &p.LowStockAlerts, &p.Language, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *notificationPrefsRepo) Upsert(ctx context.Context, p *models.NotificationPreferences) error {
	query := `
		INSERT INTO notification_preferences (user_id, tenant_id, email_enabled, sms_enabled, appointment_reminders, marketing_emails, low_stock_alerts, language, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET email_enabled = EXCLUDED.email_enabled,
		    sms_enabled = EXCLUDED.sms_enabled,
		    appointment_reminders = EXCLUDED.appointment_reminders,
		    marketing_emails = EXCLUDED.marketing_emails,
		    low_stock_alerts = EXCLUDED.low_stock_alerts,
		    language = EXCLUDED.language,
		    updated_at = NOW()
		WHERE notification_preferences.tenant_id = EXCLUDED.tenant_id
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, p.UserID, p.TenantID, p.EmailEnabled, p.SMSEnabled, p.AppointmentReminders, p.MarketingEmails, p.LowStockAlerts, p.Language).
		Scan(&p.UpdatedAt)
}
