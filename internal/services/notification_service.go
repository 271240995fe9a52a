package services

import (
	"context"
	"time"

	"glowdesk/internal/caching"
	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const languageCacheTTL = 24 * time.Hour

// NotificationService manages per-user notification preferences
type NotificationService interface {
	GetPreferences(ctx context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreferences, error)
	UpdatePreferences(ctx context.Context, tenantID, userID uuid.UUID, req *NotificationPreferencesRequest) (*models.NotificationPreferences, error)
	// PreferredLanguage is read on every authenticated request, so it is cached.
	PreferredLanguage(ctx context.Context, tenantID, userID uuid.UUID) (string, error)
}

// NotificationPreferencesRequest is a partial update. Nil fields keep their current value.
type NotificationPreferencesRequest struct {
	EmailEnabled         *bool   `json:"email_enabled"`
	SMSEnabled           *bool   `json:"sms_enabled"`
	AppointmentReminders *bool   `json:"appointment_reminders"`
	MarketingEmails      *bool   `json:"marketing_emails"`
	LowStockAlerts       *bool   `json:"low_stock_alerts"`
	Language             *string `json:"language"`
}

type notificationService struct {
	prefsRepo repositories.NotificationPreferencesRepository
	cacheSvc  caching.CacheService
	log       *logrus.Logger
}

func NewNotificationService(prefsRepo repositories.NotificationPreferencesRepository, cacheSvc caching.CacheService, log *logrus.Logger) NotificationService {
	return &notificationService{prefsRepo: prefsRepo, cacheSvc: cacheSvc, log: log}
}

func (s *notificationService) GetPreferences(ctx context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreferences, error) {
	prefs, err := s.prefsRepo.Get(ctx, tenantID, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return models.DefaultNotificationPreferences(tenantID, userID), nil
		}
		return nil, err
	}
	return prefs, nil
}

func (s *notificationService) UpdatePreferences(ctx context.Context, tenantID, userID uuid.UUID, req *NotificationPreferencesRequest) (*models.NotificationPreferences, error) {
	if req.Language != nil && !common.SupportedLanguage(*req.Language) {
		return nil, invalid("language", "must be en or es")
	}

	prefs, err := s.GetPreferences(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	setBool(&prefs.EmailEnabled, req.EmailEnabled)
	setBool(&prefs.SMSEnabled, req.SMSEnabled)
	setBool(&prefs.AppointmentReminders, req.AppointmentReminders)
	setBool(&prefs.MarketingEmails, req.MarketingEmails)
	setBool(&prefs.LowStockAlerts, req.LowStockAlerts)
	if req.Language != nil {
		prefs.Language = *req.Language
	}

	if err := s.prefsRepo.Upsert(ctx, prefs); err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetString(ctx, caching.LanguageKey(userID), prefs.Language, languageCacheTTL); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Failed to cache preferred language")
	}
	return prefs, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func (s *notificationService) PreferredLanguage(ctx context.Context, tenantID, userID uuid.UUID) (string, error) {
	key := caching.LanguageKey(userID)
	if lang, err := s.cacheSvc.GetString(ctx, key); err == nil && lang != "" {
		return lang, nil
	}

	prefs, err := s.GetPreferences(ctx, tenantID, userID)
	if err != nil {
		return "", err
	}
	if err := s.cacheSvc.SetString(ctx, key, prefs.Language, languageCacheTTL); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Debug("Failed to cache preferred language")
	}
	return prefs.Language, nil
}
