package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"glowdesk/internal/logging"
	"glowdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AppointmentServiceTestSuite struct {
	suite.Suite
	appts     *MockAppointmentRepository
	tenants   *MockTenantRepository
	publisher *MockPublisher
	insights  *MockInsightsInvalidator
	service   AppointmentService
	tenantID  uuid.UUID
	ctx       context.Context
}

func (suite *AppointmentServiceTestSuite) SetupTest() {
	suite.appts = &MockAppointmentRepository{}
	suite.tenants = &MockTenantRepository{}
	suite.publisher = &MockPublisher{}
	suite.insights = &MockInsightsInvalidator{}
	suite.service = NewAppointmentService(suite.appts, suite.tenants, suite.publisher, suite.insights, "glowdesk.test", logging.Discard())
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *AppointmentServiceTestSuite) TearDownTest() {
	suite.appts.AssertExpectations(suite.T())
	suite.publisher.AssertExpectations(suite.T())
	suite.insights.AssertExpectations(suite.T())
}

func (suite *AppointmentServiceTestSuite) request() *AppointmentRequest {
	start := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	return &AppointmentRequest{
		ClientID:    uuid.New(),
		ServiceName: " Balayage ",
		StartsAt:    start,
		EndsAt:      start.Add(2 * time.Hour),
		Price:       120,
	}
}

func (suite *AppointmentServiceTestSuite) TestCreate_DefaultsStatusAndDropsInsights() {
	req := suite.request()
	suite.appts.On("Create", suite.ctx, mock.AnythingOfType("*models.Appointment")).Return(nil)
	suite.insights.On("InvalidateTenantAnalyticsCache", suite.ctx, suite.tenantID).Return(nil)

	appt, err := suite.service.Create(suite.ctx, suite.tenantID, req)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.AppointmentScheduled, appt.Status)
	assert.Equal(suite.T(), "Balayage", appt.ServiceName)
	assert.Equal(suite.T(), suite.tenantID, appt.TenantID)
}

func (suite *AppointmentServiceTestSuite) TestCreate_EndsAtMustFollowStartsAt() {
	req := suite.request()
	req.EndsAt = req.StartsAt

	_, err := suite.service.Create(suite.ctx, suite.tenantID, req)

	var verr *ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Equal(suite.T(), "ends_at", verr.Field)

	req.EndsAt = req.StartsAt.Add(-time.Minute)
	_, err = suite.service.Create(suite.ctx, suite.tenantID, req)
	assert.ErrorIs(suite.T(), err, ErrValidation)
	suite.appts.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *AppointmentServiceTestSuite) TestCreate_RejectsUnknownStatus() {
	req := suite.request()
	req.Status = "no_show"

	_, err := suite.service.Create(suite.ctx, suite.tenantID, req)

	var verr *ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Equal(suite.T(), "status", verr.Field)
}

func (suite *AppointmentServiceTestSuite) TestCreate_ForeignClient() {
	suite.appts.On("Create", suite.ctx, mock.Anything).Return(pgx.ErrNoRows)

	_, err := suite.service.Create(suite.ctx, suite.tenantID, suite.request())

	var verr *ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Equal(suite.T(), "client_id", verr.Field)
	suite.insights.AssertNotCalled(suite.T(), "InvalidateTenantAnalyticsCache", mock.Anything, mock.Anything)
}

func (suite *AppointmentServiceTestSuite) TestUpdateStatus_PublishesEvent() {
	id := uuid.New()
	appt := &models.Appointment{ID: id, TenantID: suite.tenantID, Status: models.AppointmentCompleted}
	suite.appts.On("UpdateStatus", suite.ctx, suite.tenantID, id, models.AppointmentCompleted).Return(nil)
	suite.insights.On("InvalidateTenantAnalyticsCache", suite.ctx, suite.tenantID).Return(nil)
	suite.appts.On("GetByID", suite.ctx, suite.tenantID, id).Return(appt, nil)
	suite.publisher.On("Publish", suite.ctx, mock.MatchedBy(func(e models.DomainEvent) bool {
		payload, ok := e.Payload.(map[string]string)
		return e.Type == models.EventAppointmentStatusChange && e.EntityID == id && ok && payload["status"] == models.AppointmentCompleted
	})).Return(nil)

	got, err := suite.service.UpdateStatus(suite.ctx, suite.tenantID, id, models.AppointmentCompleted)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.AppointmentCompleted, got.Status)
}

func (suite *AppointmentServiceTestSuite) TestUpdateStatus_PublishFailureIsNotFatal() {
	id := uuid.New()
	suite.appts.On("UpdateStatus", suite.ctx, suite.tenantID, id, models.AppointmentCancelled).Return(nil)
	suite.insights.On("InvalidateTenantAnalyticsCache", suite.ctx, suite.tenantID).Return(errors.New("redis down"))
	suite.appts.On("GetByID", suite.ctx, suite.tenantID, id).Return(&models.Appointment{ID: id, Status: models.AppointmentCancelled}, nil)
	suite.publisher.On("Publish", suite.ctx, mock.Anything).Return(errors.New("broker down"))

	_, err := suite.service.UpdateStatus(suite.ctx, suite.tenantID, id, models.AppointmentCancelled)

	assert.NoError(suite.T(), err)
}

func (suite *AppointmentServiceTestSuite) TestUpdateStatus_UnknownStatus() {
	_, err := suite.service.UpdateStatus(suite.ctx, suite.tenantID, uuid.New(), "done")

	assert.ErrorIs(suite.T(), err, ErrValidation)
	suite.appts.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AppointmentServiceTestSuite) TestUpdateStatus_NotFound() {
	id := uuid.New()
	suite.appts.On("UpdateStatus", suite.ctx, suite.tenantID, id, models.AppointmentConfirmed).Return(pgx.ErrNoRows)

	_, err := suite.service.UpdateStatus(suite.ctx, suite.tenantID, id, models.AppointmentConfirmed)

	assert.ErrorIs(suite.T(), err, ErrNotFound)
	suite.insights.AssertNotCalled(suite.T(), "InvalidateTenantAnalyticsCache", mock.Anything, mock.Anything)
	suite.publisher.AssertNotCalled(suite.T(), "Publish", mock.Anything, mock.Anything)
}

func (suite *AppointmentServiceTestSuite) TestDelete_DropsInsights() {
	id := uuid.New()
	suite.appts.On("Delete", suite.ctx, suite.tenantID, id).Return(nil)
	suite.insights.On("InvalidateTenantAnalyticsCache", suite.ctx, suite.tenantID).Return(nil)

	assert.NoError(suite.T(), suite.service.Delete(suite.ctx, suite.tenantID, id))
}

func TestAppointmentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AppointmentServiceTestSuite))
}
