package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/logging"
	"glowdesk/internal/models"
	"glowdesk/internal/services"
	"glowdesk/testhelpers"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRBAC struct {
	services.RBACService
	mock.Mock
}

func (m *mockRBAC) UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permission string) (bool, error) {
	args := m.Called(ctx, userID, tenantID, permission)
	return args.Bool(0), args.Error(1)
}

type mockAudit struct {
	services.AuditLogsService
	mock.Mock
}

func (m *mockAudit) LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error {
	return m.Called(ctx, tenantID, tableName, recordID, action, changedBy, oldValues, newValues).Error(0)
}

func (m *mockAudit) LogEntityUpdate(ctx context.Context, tenantID uuid.UUID, tableName, recordID string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error {
	return m.Called(ctx, tenantID, tableName, recordID, changedBy, oldValues, newValues).Error(0)
}

type stubLanguages struct{ lang string }

func (s stubLanguages) PreferredLanguage(context.Context, uuid.UUID, uuid.UUID) (string, error) {
	return s.lang, nil
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newAuth(t *testing.T) services.AuthService {
	cache := &testhelpers.MockCacheService{}
	cache.On("SetString", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return services.NewAuthService(nil, nil, cache, "test-secret", time.Hour, 24*time.Hour, logging.Discard())
}

func TestJWTMiddleware_HS256(t *testing.T) {
	auth := newAuth(t)
	userID, tenantID := uuid.New(), uuid.New()
	tokens, err := auth.GenerateTokens(context.Background(), userID, tenantID)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		uid, _ := common.GetUserIDFromContext(c.Request().Context())
		tid, _ := common.GetTenantIDFromContext(c.Request().Context())
		return c.String(http.StatusOK, uid.String()+"/"+tid.String())
	}, JWTMiddleware(auth, nil))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tokens.AccessToken)
	rec := serve(e, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String()+"/"+tenantID.String(), rec.Body.String())
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	auth := newAuth(t)
	e := echo.New()
	e.GET("/me", ok, JWTMiddleware(auth, nil))

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": uuid.NewString(), "tenant_id": uuid.NewString()})
	signed, _ := forged.SignedString([]byte("other-secret"))

	for _, header := range []string{"", "Bearer nope", "Bearer " + signed} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code, header)
	}
}

func TestParseIdentity_ProviderToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	jwks := keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		"k1": keyfunc.NewGivenRSA(&key.PublicKey, keyfunc.GivenKeyOptions{Algorithm: "RS256"}),
	})
	userID, tenantID := uuid.New(), uuid.New()

	sign := func(claims jwt.MapClaims) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		tok.Header["kid"] = "k1"
		s, err := tok.SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	id, err := ParseIdentity(newAuth(t), jwks, sign(jwt.MapClaims{
		"sub": userID.String(), "exp": exp, "app_metadata": map[string]interface{}{"tenant_id": tenantID.String()},
	}))
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, tenantID, id.TenantID)

	_, err = ParseIdentity(newAuth(t), jwks, sign(jwt.MapClaims{"sub": userID.String(), "exp": exp}))
	assert.ErrorIs(t, err, errNoTenant)

	_, err = ParseIdentity(newAuth(t), nil, sign(jwt.MapClaims{"sub": userID.String(), "exp": exp}))
	assert.Error(t, err)
}

func withIdentity(userID, tenantID uuid.UUID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(common.WithIdentity(c.Request().Context(), userID, tenantID)))
			return next(c)
		}
	}
}

func TestRequirePermission(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	rbac := &mockRBAC{}
	rbac.On("UserHasPermission", mock.Anything, userID, tenantID, "clients:read").Return(true, nil)
	rbac.On("UserHasPermission", mock.Anything, userID, tenantID, "campaigns:send").Return(false, nil)
	rbac.On("UserHasPermission", mock.Anything, userID, tenantID, "broken").Return(false, errors.New("db down"))
	m := NewRBACMiddleware(rbac, logging.Discard())

	e := echo.New()
	e.Use(withIdentity(userID, tenantID))
	e.GET("/clients", ok, m.RequirePermission("clients:read"))
	e.POST("/send", ok, m.RequirePermission("campaigns:send"))
	e.GET("/broken", ok, m.RequirePermission("broken"))

	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/clients", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, httptest.NewRequest(http.MethodPost, "/send", nil)).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(e, httptest.NewRequest(http.MethodGet, "/broken", nil)).Code)
}

func TestRequirePermission_Anonymous(t *testing.T) {
	m := NewRBACMiddleware(&mockRBAC{}, logging.Discard())
	e := echo.New()
	e.GET("/clients", ok, m.RequirePermission("clients:read"))

	assert.Equal(t, http.StatusUnauthorized, serve(e, httptest.NewRequest(http.MethodGet, "/clients", nil)).Code)
}

func TestAuditRequest_LogsMutationsOnly(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	audit := &mockAudit{}
	audit.On("LogActivity", mock.Anything, tenantID, "http_requests", "abc", "DELETE /clients/:id", &userID, models.JSONB(nil), mock.Anything).Return(nil).Once()
	m := NewAuditMiddleware(audit, logging.Discard())

	e := echo.New()
	e.Use(withIdentity(userID, tenantID), m.AuditRequest())
	e.GET("/clients/:id", ok)
	e.DELETE("/clients/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	serve(e, httptest.NewRequest(http.MethodGet, "/clients/abc", nil))
	serve(e, httptest.NewRequest(http.MethodDelete, "/clients/abc", nil))

	audit.AssertExpectations(t)
}

func TestAuditEntityChange_Update(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	audit := &mockAudit{}
	before := &models.Coupon{ID: uuid.New(), Code: "OLD"}
	after := &models.Coupon{ID: before.ID, Code: "NEW"}
	audit.On("LogEntityUpdate", mock.Anything, tenantID, "coupons", before.ID.String(), &userID,
		mock.MatchedBy(func(v models.JSONB) bool { return v["code"] == "OLD" }),
		mock.MatchedBy(func(v models.JSONB) bool { return v["code"] == "NEW" }),
	).Return(nil)
	m := NewAuditMiddleware(audit, logging.Discard())

	ctx := common.WithIdentity(context.Background(), userID, tenantID)
	m.AuditEntityChange(ctx, "coupons", before.ID.String(), models.ActionUpdate, before, after)

	audit.AssertExpectations(t)
}

func TestLanguage(t *testing.T) {
	e := echo.New()
	e.GET("/lang", func(c echo.Context) error {
		return c.String(http.StatusOK, common.LanguageFromEcho(c))
	}, Language(nil))

	req := httptest.NewRequest(http.MethodGet, "/lang", nil)
	req.Header.Set(common.HeaderAcceptLanguage, "es-MX,es;q=0.9,en;q=0.8")
	assert.Equal(t, "es", serve(e, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/lang", nil)
	req.Header.Set(common.HeaderAcceptLanguage, "fr")
	assert.Equal(t, "en", serve(e, req).Body.String())
}

func TestLanguage_SavedPreferenceWins(t *testing.T) {
	e := echo.New()
	e.Use(withIdentity(uuid.New(), uuid.New()))
	e.GET("/lang", func(c echo.Context) error {
		return c.String(http.StatusOK, common.LanguageFromEcho(c))
	}, Language(stubLanguages{lang: "es"}))

	req := httptest.NewRequest(http.MethodGet, "/lang", nil)
	req.Header.Set(common.HeaderAcceptLanguage, "en")
	rec := serve(e, req)

	assert.Equal(t, "es", rec.Body.String())
	assert.Equal(t, "es", rec.Header().Get("Content-Language"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, logging.Discard())
	e := echo.New()
	e.POST("/webhook", ok, rl.Handler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		codes = append(codes, serve(e, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	other.RemoteAddr = "198.51.100.1:5555"
	assert.Equal(t, http.StatusOK, serve(e, other).Code)

	assert.Equal(t, 0, rl.Cleanup(time.Hour))
	assert.Equal(t, 2, rl.Cleanup(-time.Second))
}

func TestAPIVersionResolver(t *testing.T) {
	vm := NewVersionMiddleware()
	e := echo.New()
	e.Use(vm.APIVersionResolver())
	e.GET("/v1/ping", ok, vm.VersionHeader("v1"))
	e.GET("/v2/ping", ok)
	e.GET("/health", ok)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))

	assert.Equal(t, http.StatusNotFound, serve(e, httptest.NewRequest(http.MethodGet, "/v2/ping", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}
