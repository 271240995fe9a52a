package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"glowdesk/internal/common"
	"glowdesk/internal/logging"
	"glowdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation field", &services.ValidationError{Field: "phone", Message: "too short"}, http.StatusBadRequest, common.CodeValidation},
		{"wrapped not found", fmt.Errorf("client: %w", services.ErrNotFound), http.StatusNotFound, common.CodeNotFound},
		{"conflict", fmt.Errorf("coupon: %w", services.ErrConflict), http.StatusConflict, common.CodeConflict},
		{"redeemed", services.ErrCouponRedeemed, http.StatusConflict, common.CodeCouponRedeemed},
		{"expired", services.ErrCouponExpired, http.StatusConflict, common.CodeCouponExpired},
		{"campaign locked", services.ErrCampaignNotEditable, http.StatusConflict, common.CodeCampaignLocked},
		{"stock", services.ErrInsufficientQuantity, http.StatusConflict, common.CodeInsufficientQty},
		{"login", services.ErrInvalidCredentials, http.StatusUnauthorized, common.CodeInvalidLogin},
		{"login throttled", services.ErrRateLimited, http.StatusTooManyRequests, common.CodeRateLimited},
		{"oauth state", services.ErrInvalidState, http.StatusBadRequest, common.CodeInvalidState},
		{"graph api", fmt.Errorf("%w: publish failed", services.ErrUpstream), http.StatusBadGateway, common.CodeUpstream},
	}

	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newRequest(e, http.MethodGet, "/", nil, uuid.Nil, uuid.Nil)

			require.NoError(t, respondError(c, tc.err, "client"))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestRespondError_ValidationDetails(t *testing.T) {
	c, rec := newRequest(echo.New(), http.MethodPost, "/", nil, uuid.Nil, uuid.Nil)

	require.NoError(t, respondError(c, &services.ValidationError{Field: "ends_at", Message: "must be after starts_at"}, "appointment"))

	body := decodeError(t, rec)
	assert.Equal(t, "must be after starts_at", body.Error.Details["ends_at"])
}

func TestRespondError_UnknownErrorIsReturned(t *testing.T) {
	c, rec := newRequest(echo.New(), http.MethodGet, "/", nil, uuid.Nil, uuid.Nil)
	boom := errors.New("connection reset")

	err := respondError(c, boom, "client")

	assert.Equal(t, boom, err)
	assert.False(t, c.Response().Committed)
	assert.Empty(t, rec.Body.String())
}

func TestRespondError_TranslatesMessages(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), common.LanguageKey, "es"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, respondError(c, services.ErrNotFound, "cliente"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "cliente: no encontrado", decodeError(t, rec).Error.Message)
}

func TestHTTPErrorHandler(t *testing.T) {
	handler := HTTPErrorHandler(logging.Discard())
	e := echo.New()

	t.Run("unexpected error hides details", func(t *testing.T) {
		c, rec := newRequest(e, http.MethodGet, "/v1/clients", nil, uuid.Nil, uuid.Nil)

		handler(errors.New("pq: relation does not exist"), c)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, common.CodeServer, body.Error.Code)
		assert.NotContains(t, body.Error.Message, "relation")
	})

	t.Run("echo not found", func(t *testing.T) {
		c, rec := newRequest(e, http.MethodGet, "/nope", nil, uuid.Nil, uuid.Nil)

		handler(echo.ErrNotFound, c)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, common.CodeNotFound, decodeError(t, rec).Error.Code)
	})

	t.Run("rate limited", func(t *testing.T) {
		c, rec := newRequest(e, http.MethodPost, "/webhooks/social", nil, uuid.Nil, uuid.Nil)

		handler(echo.NewHTTPError(http.StatusTooManyRequests, "slow down"), c)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, common.CodeRateLimited, body.Error.Code)
		assert.Equal(t, "slow down", body.Error.Message)
	})

	t.Run("head requests get no body", func(t *testing.T) {
		c, rec := newRequest(e, http.MethodHead, "/health", nil, uuid.Nil, uuid.Nil)

		handler(errors.New("boom"), c)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}
