package services

import (
	"context"
	"time"

	"glowdesk/internal/models"
	"glowdesk/internal/repositories"
	"glowdesk/internal/social"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, auditLog *models.AuditLog) error {
	return m.Called(ctx, auditLog).Error(0)
}

func (m *MockAuditLogsRepository) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, filters)
	logs, _ := args.Get(0).([]*models.AuditLog)
	return logs, args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, tenantID, id)
	client, _ := args.Get(0).(*models.Client)
	return client, args.Error(1)
}

func (m *MockClientRepository) GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*models.Client, error) {
	args := m.Called(ctx, tenantID, ids)
	clients, _ := args.Get(0).([]*models.Client)
	return clients, args.Error(1)
}

func (m *MockClientRepository) Update(ctx context.Context, client *models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockClientRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.ClientFilter) ([]*models.Client, error) {
	args := m.Called(ctx, tenantID, filter)
	clients, _ := args.Get(0).([]*models.Client)
	return clients, args.Error(1)
}

func (m *MockClientRepository) Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Client, error) {
	args := m.Called(ctx, tenantID, query, limit)
	clients, _ := args.Get(0).([]*models.Client)
	return clients, args.Error(1)
}

func (m *MockClientRepository) FirstInAudience(ctx context.Context, tenantID uuid.UUID, status, tag *string) (*models.Client, error) {
	args := m.Called(ctx, tenantID, status, tag)
	client, _ := args.Get(0).(*models.Client)
	return client, args.Error(1)
}

type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return m.Called(ctx, coupon).Error(0)
}

func (m *MockCouponRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Coupon, error) {
	args := m.Called(ctx, tenantID, id)
	coupon, _ := args.Get(0).(*models.Coupon)
	return coupon, args.Error(1)
}

func (m *MockCouponRepository) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error) {
	args := m.Called(ctx, tenantID, code)
	coupon, _ := args.Get(0).(*models.Coupon)
	return coupon, args.Error(1)
}

func (m *MockCouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	return m.Called(ctx, coupon).Error(0)
}

func (m *MockCouponRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockCouponRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	coupons, _ := args.Get(0).([]*models.Coupon)
	return coupons, args.Error(1)
}

func (m *MockCouponRepository) Redeem(ctx context.Context, tenantID, id, clientID uuid.UUID, now time.Time) (*models.Coupon, error) {
	args := m.Called(ctx, tenantID, id, clientID, now)
	coupon, _ := args.Get(0).(*models.Coupon)
	return coupon, args.Error(1)
}

func (m *MockCouponRepository) CountExpiredUnredeemed(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, now)
	counts, _ := args.Get(0).(map[uuid.UUID]int)
	return counts, args.Error(1)
}

type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	return m.Called(ctx, campaign).Error(0)
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Campaign, error) {
	args := m.Called(ctx, tenantID, id)
	campaign, _ := args.Get(0).(*models.Campaign)
	return campaign, args.Error(1)
}

func (m *MockCampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	return m.Called(ctx, campaign).Error(0)
}

func (m *MockCampaignRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockCampaignRepository) List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Campaign, error) {
	args := m.Called(ctx, tenantID, status, limit, offset)
	campaigns, _ := args.Get(0).([]*models.Campaign)
	return campaigns, args.Error(1)
}

func (m *MockCampaignRepository) SetSchedule(ctx context.Context, tenantID, id uuid.UUID, status string, scheduledAt *time.Time) error {
	return m.Called(ctx, tenantID, id, status, scheduledAt).Error(0)
}

func (m *MockCampaignRepository) MarkSending(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockCampaignRepository) SetStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	return m.Called(ctx, tenantID, id, status).Error(0)
}

func (m *MockCampaignRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error) {
	args := m.Called(ctx, now, limit)
	campaigns, _ := args.Get(0).([]*models.Campaign)
	return campaigns, args.Error(1)
}

func (m *MockCampaignRepository) CreateMessages(ctx context.Context, campaign *models.Campaign) ([]*repositories.CampaignRecipient, error) {
	args := m.Called(ctx, campaign)
	recipients, _ := args.Get(0).([]*repositories.CampaignRecipient)
	return recipients, args.Error(1)
}

func (m *MockCampaignRepository) ListMessages(ctx context.Context, tenantID, campaignID uuid.UUID, limit, offset int) ([]*models.CampaignMessage, error) {
	args := m.Called(ctx, tenantID, campaignID, limit, offset)
	msgs, _ := args.Get(0).([]*models.CampaignMessage)
	return msgs, args.Error(1)
}

func (m *MockCampaignRepository) RecordDelivery(ctx context.Context, tenantID, messageID uuid.UUID, deliveryErr *string) error {
	return m.Called(ctx, tenantID, messageID, deliveryErr).Error(0)
}

func (m *MockCampaignRepository) Finalize(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	tenant, _ := args.Get(0).(*models.Tenant)
	return tenant, args.Error(1)
}

func (m *MockTenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	args := m.Called(ctx, subdomain)
	tenant, _ := args.Get(0).(*models.Tenant)
	return tenant, args.Error(1)
}

func (m *MockTenantRepository) GetByCalendarToken(ctx context.Context, token string) (*models.Tenant, error) {
	args := m.Called(ctx, token)
	tenant, _ := args.Get(0).(*models.Tenant)
	return tenant, args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *MockTenantRepository) SetCalendarToken(ctx context.Context, id uuid.UUID, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

func (m *MockTenantRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, tenantID, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Error(1)
}

func (m *MockUserRepository) ListAlertRecipients(ctx context.Context, tenantID uuid.UUID) ([]*repositories.AlertRecipient, error) {
	args := m.Called(ctx, tenantID)
	recipients, _ := args.Get(0).([]*repositories.AlertRecipient)
	return recipients, args.Error(1)
}

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockInventoryRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.InventoryItem, error) {
	args := m.Called(ctx, tenantID, id)
	item, _ := args.Get(0).(*models.InventoryItem)
	return item, args.Error(1)
}

func (m *MockInventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockInventoryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockInventoryRepository) List(ctx context.Context, tenantID uuid.UUID, category string, limit, offset int) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, tenantID, category, limit, offset)
	items, _ := args.Get(0).([]*models.InventoryItem)
	return items, args.Error(1)
}

func (m *MockInventoryRepository) ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, tenantID)
	items, _ := args.Get(0).([]*models.InventoryItem)
	return items, args.Error(1)
}

func (m *MockInventoryRepository) Adjust(ctx context.Context, adj *models.InventoryAdjustment) (*models.InventoryItem, error) {
	args := m.Called(ctx, adj)
	item, _ := args.Get(0).(*models.InventoryItem)
	return item, args.Error(1)
}

type MockSocialRepository struct {
	mock.Mock
}

func (m *MockSocialRepository) UpsertAccount(ctx context.Context, account *models.SocialAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockSocialRepository) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*models.SocialAccount, error) {
	args := m.Called(ctx, tenantID, id)
	acct, _ := args.Get(0).(*models.SocialAccount)
	return acct, args.Error(1)
}

func (m *MockSocialRepository) GetAccountByPageID(ctx context.Context, platform, pageID string) (*models.SocialAccount, error) {
	args := m.Called(ctx, platform, pageID)
	acct, _ := args.Get(0).(*models.SocialAccount)
	return acct, args.Error(1)
}

func (m *MockSocialRepository) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.SocialAccount, error) {
	args := m.Called(ctx, tenantID)
	accts, _ := args.Get(0).([]*models.SocialAccount)
	return accts, args.Error(1)
}

func (m *MockSocialRepository) SetAccountStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	return m.Called(ctx, tenantID, id, status).Error(0)
}

func (m *MockSocialRepository) ExpireAccounts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *MockSocialRepository) CreatePost(ctx context.Context, post *models.SocialPost) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockSocialRepository) ListPosts(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.SocialPost, error) {
	args := m.Called(ctx, tenantID, accountID, limit, offset)
	posts, _ := args.Get(0).([]*models.SocialPost)
	return posts, args.Error(1)
}

func (m *MockSocialRepository) CreateMessage(ctx context.Context, msg *models.SocialMessage) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}

func (m *MockSocialRepository) ListConversations(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.Conversation, error) {
	args := m.Called(ctx, tenantID, accountID, limit, offset)
	convs, _ := args.Get(0).([]*models.Conversation)
	return convs, args.Error(1)
}

func (m *MockSocialRepository) ListMessages(ctx context.Context, tenantID, accountID uuid.UUID, participantID string, limit, offset int) ([]*models.SocialMessage, error) {
	args := m.Called(ctx, tenantID, accountID, participantID, limit, offset)
	msgs, _ := args.Get(0).([]*models.SocialMessage)
	return msgs, args.Error(1)
}

type MockGraphAPI struct {
	mock.Mock
}

func (m *MockGraphAPI) AuthorizeURL(redirectURI, state string) string {
	return m.Called(redirectURI, state).String(0)
}

func (m *MockGraphAPI) ExchangeCode(ctx context.Context, code, redirectURI string) (*social.Token, error) {
	args := m.Called(ctx, code, redirectURI)
	tok, _ := args.Get(0).(*social.Token)
	return tok, args.Error(1)
}

func (m *MockGraphAPI) LongLivedToken(ctx context.Context, shortLived string) (*social.Token, error) {
	args := m.Called(ctx, shortLived)
	tok, _ := args.Get(0).(*social.Token)
	return tok, args.Error(1)
}

func (m *MockGraphAPI) ListPages(ctx context.Context, userToken string) ([]social.Page, error) {
	args := m.Called(ctx, userToken)
	pages, _ := args.Get(0).([]social.Page)
	return pages, args.Error(1)
}

func (m *MockGraphAPI) PublishPage(ctx context.Context, pageID, pageToken, message, imageURL string) (string, error) {
	args := m.Called(ctx, pageID, pageToken, message, imageURL)
	return args.String(0), args.Error(1)
}

func (m *MockGraphAPI) PublishInstagram(ctx context.Context, igUserID, pageToken, caption, imageURL string) (string, error) {
	args := m.Called(ctx, igUserID, pageToken, caption, imageURL)
	return args.String(0), args.Error(1)
}

func (m *MockGraphAPI) SendMessage(ctx context.Context, pageToken, recipientID, text string) (string, error) {
	args := m.Called(ctx, pageToken, recipientID, text)
	return args.String(0), args.Error(1)
}

type MockEmailQueue struct {
	mock.Mock
}

func (m *MockEmailQueue) EnqueueEmail(ctx context.Context, msg *models.EmailMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event models.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) SearchClients(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, query, limit)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func uniqueViolationErr() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	args := m.Called(ctx, tenantID, id)
	appt, _ := args.Get(0).(*models.Appointment)
	return appt, args.Error(1)
}

func (m *MockAppointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockAppointmentRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	args := m.Called(ctx, tenantID, id, status)
	return args.Error(0)
}

func (m *MockAppointmentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockAppointmentRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, filter)
	appts, _ := args.Get(0).([]*models.Appointment)
	return appts, args.Error(1)
}

func (m *MockAppointmentRepository) ListCalendar(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.CalendarEvent, error) {
	args := m.Called(ctx, tenantID, from, to)
	events, _ := args.Get(0).([]*models.CalendarEvent)
	return events, args.Error(1)
}

type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Expense, error) {
	args := m.Called(ctx, tenantID, id)
	expense, _ := args.Get(0).(*models.Expense)
	return expense, args.Error(1)
}

func (m *MockExpenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockExpenseRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.ExpenseFilter) ([]*models.Expense, error) {
	args := m.Called(ctx, tenantID, filter)
	expenses, _ := args.Get(0).([]*models.Expense)
	return expenses, args.Error(1)
}

type MockNotificationPreferencesRepository struct {
	mock.Mock
}

func (m *MockNotificationPreferencesRepository) Get(ctx context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreferences, error) {
	args := m.Called(ctx, tenantID, userID)
	prefs, _ := args.Get(0).(*models.NotificationPreferences)
	return prefs, args.Error(1)
}

func (m *MockNotificationPreferencesRepository) Upsert(ctx context.Context, prefs *models.NotificationPreferences) error {
	args := m.Called(ctx, prefs)
	return args.Error(0)
}

type MockInsightsInvalidator struct {
	mock.Mock
}

func (m *MockInsightsInvalidator) InvalidateTenantAnalyticsCache(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}
