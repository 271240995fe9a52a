package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"glowdesk/internal/caching"
	"glowdesk/internal/logging"
	"glowdesk/internal/models"
	"glowdesk/testhelpers"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type NotificationServiceTestSuite struct {
	suite.Suite
	prefs    *MockNotificationPreferencesRepository
	cache    *testhelpers.MockCacheService
	service  NotificationService
	tenantID uuid.UUID
	userID   uuid.UUID
	ctx      context.Context
}

func (suite *NotificationServiceTestSuite) SetupTest() {
	suite.prefs = &MockNotificationPreferencesRepository{}
	suite.cache = &testhelpers.MockCacheService{}
	suite.service = NewNotificationService(suite.prefs, suite.cache, logging.Discard())
	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *NotificationServiceTestSuite) TearDownTest() {
	suite.prefs.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
}

func (suite *NotificationServiceTestSuite) TestGetPreferences_DefaultsWhenMissing() {
	suite.prefs.On("Get", suite.ctx, suite.tenantID, suite.userID).Return(nil, pgx.ErrNoRows)

	prefs, err := suite.service.GetPreferences(suite.ctx, suite.tenantID, suite.userID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.DefaultNotificationPreferences(suite.tenantID, suite.userID), prefs)
	assert.True(suite.T(), prefs.EmailEnabled)
	assert.False(suite.T(), prefs.SMSEnabled)
	assert.Equal(suite.T(), models.LanguageEnglish, prefs.Language)
}

func (suite *NotificationServiceTestSuite) TestGetPreferences_RepositoryError() {
	suite.prefs.On("Get", suite.ctx, suite.tenantID, suite.userID).Return(nil, errors.New("db down"))

	_, err := suite.service.GetPreferences(suite.ctx, suite.tenantID, suite.userID)

	assert.Error(suite.T(), err)
}

func (suite *NotificationServiceTestSuite) TestUpdatePreferences_UpsertsPartialChange() {
	off := false
	es := models.LanguageSpanish
	suite.prefs.On("Get", suite.ctx, suite.tenantID, suite.userID).Return(nil, pgx.ErrNoRows)
	suite.prefs.On("Upsert", suite.ctx, mock.MatchedBy(func(p *models.NotificationPreferences) bool {
		return p.UserID == suite.userID && !p.MarketingEmails && p.EmailEnabled && p.Language == es
	})).Return(nil)
	suite.cache.On("SetString", suite.ctx, caching.LanguageKey(suite.userID), es, 24*time.Hour).Return(nil)

	prefs, err := suite.service.UpdatePreferences(suite.ctx, suite.tenantID, suite.userID, &NotificationPreferencesRequest{
		MarketingEmails: &off,
		Language:        &es,
	})

	require.NoError(suite.T(), err)
	assert.False(suite.T(), prefs.MarketingEmails)
	assert.True(suite.T(), prefs.AppointmentReminders)
	assert.Equal(suite.T(), es, prefs.Language)
}

func (suite *NotificationServiceTestSuite) TestUpdatePreferences_RejectsUnsupportedLanguage() {
	fr := "fr"

	_, err := suite.service.UpdatePreferences(suite.ctx, suite.tenantID, suite.userID, &NotificationPreferencesRequest{Language: &fr})

	var verr *ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Equal(suite.T(), "language", verr.Field)
	suite.prefs.AssertNotCalled(suite.T(), "Upsert", mock.Anything, mock.Anything)
}

func (suite *NotificationServiceTestSuite) TestUpdatePreferences_CacheFailureIsNotFatal() {
	on := true
	existing := models.DefaultNotificationPreferences(suite.tenantID, suite.userID)
	suite.prefs.On("Get", suite.ctx, suite.tenantID, suite.userID).Return(existing, nil)
	suite.prefs.On("Upsert", suite.ctx, existing).Return(nil)
	suite.cache.On("SetString", suite.ctx, caching.LanguageKey(suite.userID), models.LanguageEnglish, 24*time.Hour).Return(errors.New("redis down"))

	prefs, err := suite.service.UpdatePreferences(suite.ctx, suite.tenantID, suite.userID, &NotificationPreferencesRequest{SMSEnabled: &on})

	require.NoError(suite.T(), err)
	assert.True(suite.T(), prefs.SMSEnabled)
}

func (suite *NotificationServiceTestSuite) TestPreferredLanguage_CacheHit() {
	suite.cache.On("GetString", suite.ctx, caching.LanguageKey(suite.userID)).Return("es", nil)

	lang, err := suite.service.PreferredLanguage(suite.ctx, suite.tenantID, suite.userID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "es", lang)
	suite.prefs.AssertNotCalled(suite.T(), "Get", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *NotificationServiceTestSuite) TestPreferredLanguage_FillsCacheOnMiss() {
	key := caching.LanguageKey(suite.userID)
	saved := models.DefaultNotificationPreferences(suite.tenantID, suite.userID)
	saved.Language = models.LanguageSpanish
	suite.cache.On("GetString", suite.ctx, key).Return("", nil)
	suite.prefs.On("Get", suite.ctx, suite.tenantID, suite.userID).Return(saved, nil)
	suite.cache.On("SetString", suite.ctx, key, models.LanguageSpanish, 24*time.Hour).Return(nil)

	lang, err := suite.service.PreferredLanguage(suite.ctx, suite.tenantID, suite.userID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.LanguageSpanish, lang)
}

func TestNotificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}
