package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
)

// newRequest builds an echo context carrying the given identity. Nil ids are left off the context.
func newRequest(e *echo.Echo, method, target string, body io.Reader, tenantID, userID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tenantID != uuid.Nil {
		req = req.WithContext(common.WithIdentity(req.Context(), userID, tenantID))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func jsonBody(s string) io.Reader {
	return bytes.NewBufferString(s)
}

type MockClientService struct{ mock.Mock }

func (m *MockClientService) Create(ctx context.Context, tenantID uuid.UUID, req *services.ClientRequest) (*models.Client, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientService) Update(ctx context.Context, tenantID, id uuid.UUID, req *services.ClientRequest) (*models.Client, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockClientService) List(ctx context.Context, tenantID uuid.UUID, filter models.ClientFilter) ([]*models.Client, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

func (m *MockClientService) Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Client, error) {
	args := m.Called(ctx, tenantID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

type MockCouponService struct{ mock.Mock }

func (m *MockCouponService) coupon(args mock.Arguments) (*models.Coupon, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCouponService) Create(ctx context.Context, tenantID uuid.UUID, req *services.CouponRequest) (*models.Coupon, error) {
	return m.coupon(m.Called(ctx, tenantID, req))
}

func (m *MockCouponService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Coupon, error) {
	return m.coupon(m.Called(ctx, tenantID, id))
}

func (m *MockCouponService) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error) {
	return m.coupon(m.Called(ctx, tenantID, code))
}

func (m *MockCouponService) Update(ctx context.Context, tenantID, id uuid.UUID, req *services.CouponRequest) (*models.Coupon, error) {
	return m.coupon(m.Called(ctx, tenantID, id, req))
}

func (m *MockCouponService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockCouponService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Coupon), args.Error(1)
}

func (m *MockCouponService) Redeem(ctx context.Context, tenantID, id, clientID uuid.UUID) (*models.Coupon, error) {
	return m.coupon(m.Called(ctx, tenantID, id, clientID))
}

func (m *MockCouponService) ReportExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

type MockAppointmentService struct{ mock.Mock }

func (m *MockAppointmentService) appointment(args mock.Arguments) (*models.Appointment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentService) Create(ctx context.Context, tenantID uuid.UUID, req *services.AppointmentRequest) (*models.Appointment, error) {
	return m.appointment(m.Called(ctx, tenantID, req))
}

func (m *MockAppointmentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	return m.appointment(m.Called(ctx, tenantID, id))
}

func (m *MockAppointmentService) Update(ctx context.Context, tenantID, id uuid.UUID, req *services.AppointmentRequest) (*models.Appointment, error) {
	return m.appointment(m.Called(ctx, tenantID, id, req))
}

func (m *MockAppointmentService) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) (*models.Appointment, error) {
	return m.appointment(m.Called(ctx, tenantID, id, status))
}

func (m *MockAppointmentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockAppointmentService) List(ctx context.Context, tenantID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentService) CalendarFeed(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]byte, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockAppointmentService) CalendarFeedByToken(ctx context.Context, token string) ([]byte, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockPortfolioService struct{ mock.Mock }

func (m *MockPortfolioService) Upload(ctx context.Context, tenantID uuid.UUID, req *services.PortfolioUpload) (*models.PortfolioItem, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PortfolioItem), args.Error(1)
}

func (m *MockPortfolioService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PortfolioItem, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PortfolioItem), args.Error(1)
}

func (m *MockPortfolioService) List(ctx context.Context, tenantID uuid.UUID, tag string, limit, offset int) ([]*models.PortfolioItem, error) {
	args := m.Called(ctx, tenantID, tag, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PortfolioItem), args.Error(1)
}

func (m *MockPortfolioService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockSocialService struct{ mock.Mock }

func (m *MockSocialService) StartOAuth(ctx context.Context, tenantID, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID, userID)
	return args.String(0), args.Error(1)
}

func (m *MockSocialService) CompleteOAuth(ctx context.Context, code, state string) ([]*models.SocialAccount, error) {
	args := m.Called(ctx, code, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SocialAccount), args.Error(1)
}

func (m *MockSocialService) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.SocialAccount, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SocialAccount), args.Error(1)
}

func (m *MockSocialService) Disconnect(ctx context.Context, tenantID, accountID uuid.UUID) error {
	return m.Called(ctx, tenantID, accountID).Error(0)
}

func (m *MockSocialService) CreatePost(ctx context.Context, tenantID, userID, accountID uuid.UUID, req *services.SocialPostRequest) (*models.SocialPost, error) {
	args := m.Called(ctx, tenantID, userID, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SocialPost), args.Error(1)
}

func (m *MockSocialService) ListPosts(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.SocialPost, error) {
	args := m.Called(ctx, tenantID, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SocialPost), args.Error(1)
}

func (m *MockSocialService) ListConversations(ctx context.Context, tenantID, accountID uuid.UUID, limit, offset int) ([]*models.Conversation, error) {
	args := m.Called(ctx, tenantID, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Conversation), args.Error(1)
}

func (m *MockSocialService) ListMessages(ctx context.Context, tenantID, accountID uuid.UUID, participantID string, limit, offset int) ([]*models.SocialMessage, error) {
	args := m.Called(ctx, tenantID, accountID, participantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SocialMessage), args.Error(1)
}

func (m *MockSocialService) SendMessage(ctx context.Context, tenantID, accountID uuid.UUID, req *services.SocialMessageRequest) (*models.SocialMessage, error) {
	args := m.Called(ctx, tenantID, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SocialMessage), args.Error(1)
}

func (m *MockSocialService) VerifyChallenge(mode, token, challenge string) (string, bool) {
	args := m.Called(mode, token, challenge)
	return args.String(0), args.Bool(1)
}

func (m *MockSocialService) VerifySignature(body []byte, header string) bool {
	return m.Called(body, header).Bool(0)
}

func (m *MockSocialService) HandleWebhook(ctx context.Context, body []byte) (int, error) {
	args := m.Called(ctx, body)
	return args.Int(0), args.Error(1)
}

func (m *MockSocialService) ExpireTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) tokens(args mock.Arguments) (*models.TokenResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	return m.tokens(m.Called(ctx, email, password))
}

func (m *MockAuthService) GenerateTokens(ctx context.Context, userID, tenantID uuid.UUID) (*models.TokenResponse, error) {
	return m.tokens(m.Called(ctx, userID, tenantID))
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	return m.tokens(m.Called(ctx, refreshToken))
}

func (m *MockAuthService) ValidateToken(tokenString string) (*services.TokenClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenClaims), args.Error(1)
}

func (m *MockAuthService) RevokeToken(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

type MockTenantService struct{ mock.Mock }

func (m *MockTenantService) Signup(ctx context.Context, req *services.SignupRequest) (*services.SignupResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SignupResult), args.Error(1)
}

func (m *MockTenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) Update(ctx context.Context, id uuid.UUID, req *services.UpdateTenantRequest) (*models.Tenant, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) RotateCalendarToken(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockTenantService) Profile(ctx context.Context, tenantID, userID uuid.UUID) (*services.Profile, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Profile), args.Error(1)
}

type MockInsights struct{ mock.Mock }

func (m *MockInsights) Range(from, to *time.Time) (time.Time, time.Time, error) {
	args := m.Called(from, to)
	return args.Get(0).(time.Time), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockInsights) Summary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*models.InsightsSummary, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InsightsSummary), args.Error(1)
}

func (m *MockInsights) TimeSeries(ctx context.Context, tenantID uuid.UUID, metric, bucket string, from, to time.Time) (*models.TimeSeries, error) {
	args := m.Called(ctx, tenantID, metric, bucket, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeSeries), args.Error(1)
}

func (m *MockInsights) TopServices(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]*models.ServiceStat, error) {
	args := m.Called(ctx, tenantID, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ServiceStat), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
