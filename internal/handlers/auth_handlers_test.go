package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	tenant := &models.Tenant{ID: uuid.New(), Name: "Studio Nova"}
	user := &models.User{ID: uuid.New(), TenantID: tenant.ID, Email: "owner@nova.test"}

	tenants := &MockTenantService{}
	tenants.On("Signup", mock.Anything, mock.MatchedBy(func(r *services.SignupRequest) bool {
		return r.SalonName == "Studio Nova" && r.Email == "owner@nova.test"
	})).Return(&services.SignupResult{Tenant: tenant, User: user}, nil)

	auth := &MockAuthService{}
	auth.On("GenerateTokens", mock.Anything, user.ID, tenant.ID).
		Return(&models.TokenResponse{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}, nil)

	c, rec := newRequest(echo.New(), http.MethodPost, "/v1/auth/signup",
		jsonBody(`{"salon_name":"Studio Nova","subdomain":"nova","email":"owner@nova.test","password":"s3cret-pass"}`), uuid.Nil, uuid.Nil)

	require.NoError(t, NewAuthHandlers(auth, tenants, nil).Signup(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "access", body["access_token"])
	assert.Contains(t, body, "tenant")
	assert.Contains(t, body, "user")
}

func TestSignup_SubdomainTaken(t *testing.T) {
	tenants := &MockTenantService{}
	tenants.On("Signup", mock.Anything, mock.Anything).Return(nil, services.ErrConflict)
	auth := &MockAuthService{}

	c, rec := newRequest(echo.New(), http.MethodPost, "/v1/auth/signup",
		jsonBody(`{"salon_name":"Studio Nova","subdomain":"nova"}`), uuid.Nil, uuid.Nil)

	require.NoError(t, NewAuthHandlers(auth, tenants, nil).Signup(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	auth.AssertNotCalled(t, "GenerateTokens", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	e := echo.New()

	t.Run("wrong password", func(t *testing.T) {
		auth := &MockAuthService{}
		auth.On("Login", mock.Anything, "owner@nova.test", "nope").Return(nil, services.ErrInvalidCredentials)

		c, rec := newRequest(e, http.MethodPost, "/v1/auth/login",
			jsonBody(`{"email":"owner@nova.test","password":"nope"}`), uuid.Nil, uuid.Nil)

		require.NoError(t, NewAuthHandlers(auth, nil, nil).Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, common.CodeInvalidLogin, decodeError(t, rec).Error.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		auth := &MockAuthService{}

		c, rec := newRequest(e, http.MethodPost, "/v1/auth/login", jsonBody(`{"email":"owner@nova.test"}`), uuid.Nil, uuid.Nil)

		require.NoError(t, NewAuthHandlers(auth, nil, nil).Login(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure bubbles up", func(t *testing.T) {
		auth := &MockAuthService{}
		boom := errors.New("pool closed")
		auth.On("Login", mock.Anything, "owner@nova.test", "pw").Return(nil, boom)

		c, _ := newRequest(e, http.MethodPost, "/v1/auth/login",
			jsonBody(`{"email":"owner@nova.test","password":"pw"}`), uuid.Nil, uuid.Nil)

		assert.ErrorIs(t, NewAuthHandlers(auth, nil, nil).Login(c), boom)
	})
}

func TestLogout(t *testing.T) {
	auth := &MockAuthService{}
	auth.On("RevokeToken", mock.Anything, "refresh-1").Return(nil)

	c, rec := newRequest(echo.New(), http.MethodPost, "/v1/auth/logout", jsonBody(`{"refresh_token":"refresh-1"}`), uuid.New(), uuid.New())

	require.NoError(t, NewAuthHandlers(auth, nil, nil).Logout(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	auth.AssertExpectations(t)
}
