package handlers

import (
	"errors"
	"net/http"
	"testing"

	"glowdesk/internal/common"
	"glowdesk/internal/logging"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const webhookPayload = `{"object":"page","entry":[{"id":"1234","messaging":[]}]}`

func TestSocialWebhook_MissingSignature(t *testing.T) {
	svc := &MockSocialService{}
	h := NewWebhookHandlers(svc, logging.Discard())

	c, rec := newRequest(echo.New(), http.MethodPost, "/webhooks/social", jsonBody(webhookPayload), uuid.Nil, uuid.Nil)

	require.NoError(t, h.SocialWebhook(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.CodeInvalidSignature, decodeError(t, rec).Error.Code)
	svc.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything)
}

func TestSocialWebhook_BadSignature(t *testing.T) {
	svc := &MockSocialService{}
	svc.On("VerifySignature", []byte(webhookPayload), "sha256=deadbeef").Return(false)
	h := NewWebhookHandlers(svc, logging.Discard())

	c, rec := newRequest(echo.New(), http.MethodPost, "/webhooks/social", jsonBody(webhookPayload), uuid.Nil, uuid.Nil)
	c.Request().Header.Set(signatureHeader, "sha256=deadbeef")

	require.NoError(t, h.SocialWebhook(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything)
}

func TestSocialWebhook_AcknowledgesStoredEvents(t *testing.T) {
	svc := &MockSocialService{}
	svc.On("VerifySignature", []byte(webhookPayload), "sha256=ok").Return(true)
	svc.On("HandleWebhook", mock.Anything, []byte(webhookPayload)).Return(2, nil)
	h := NewWebhookHandlers(svc, logging.Discard())

	c, rec := newRequest(echo.New(), http.MethodPost, "/webhooks/social", jsonBody(webhookPayload), uuid.Nil, uuid.Nil)
	c.Request().Header.Set(signatureHeader, "sha256=ok")

	require.NoError(t, h.SocialWebhook(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"received","stored":2}`, rec.Body.String())
}

func TestSocialWebhook_AcknowledgesEvenWhenStoringFails(t *testing.T) {
	svc := &MockSocialService{}
	svc.On("VerifySignature", mock.Anything, "sha256=ok").Return(true)
	svc.On("HandleWebhook", mock.Anything, mock.Anything).Return(0, errors.New("db down"))
	h := NewWebhookHandlers(svc, logging.Discard())

	c, rec := newRequest(echo.New(), http.MethodPost, "/webhooks/social", jsonBody(webhookPayload), uuid.Nil, uuid.Nil)
	c.Request().Header.Set(signatureHeader, "sha256=ok")

	require.NoError(t, h.SocialWebhook(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stored":0`)
}

func TestVerifySubscription(t *testing.T) {
	e := echo.New()

	t.Run("echoes challenge", func(t *testing.T) {
		svc := &MockSocialService{}
		svc.On("VerifyChallenge", "subscribe", "secret", "1158201444").Return("1158201444", true)

		c, rec := newRequest(e, http.MethodGet,
			"/webhooks/social?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=1158201444", nil, uuid.Nil, uuid.Nil)

		require.NoError(t, NewWebhookHandlers(svc, logging.Discard()).VerifySubscription(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1158201444", rec.Body.String())
	})

	t.Run("wrong token", func(t *testing.T) {
		svc := &MockSocialService{}
		svc.On("VerifyChallenge", "subscribe", "guess", "42").Return("", false)

		c, rec := newRequest(e, http.MethodGet,
			"/webhooks/social?hub.mode=subscribe&hub.verify_token=guess&hub.challenge=42", nil, uuid.Nil, uuid.Nil)

		require.NoError(t, NewWebhookHandlers(svc, logging.Discard()).VerifySubscription(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
