package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"glowdesk/internal/logging"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOAuthCallback(t *testing.T) {
	const appURL = "https://app.glowdesk.test"

	cases := []struct {
		name     string
		target   string
		accounts []*models.SocialAccount
		err      error
		location string
	}{
		{
			name:     "connected",
			target:   "/social/oauth/callback?code=abc&state=xyz",
			accounts: []*models.SocialAccount{{ID: uuid.New()}, {ID: uuid.New()}},
			location: appURL + "/settings/social?connected=2",
		},
		{
			name:     "expired state",
			target:   "/social/oauth/callback?code=abc&state=xyz",
			err:      fmt.Errorf("consume state: %w", services.ErrInvalidState),
			location: appURL + "/settings/social?error=expired",
		},
		{
			name:     "graph failure",
			target:   "/social/oauth/callback?code=abc&state=xyz",
			err:      errors.New("exchange code: 500"),
			location: appURL + "/settings/social?error=failed",
		},
		{
			name:     "user denied",
			target:   "/social/oauth/callback?error=access_denied&state=xyz",
			location: appURL + "/settings/social?error=denied",
		},
		{
			name:     "missing code",
			target:   "/social/oauth/callback?state=xyz",
			location: appURL + "/settings/social?error=invalid_request",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &MockSocialService{}
			if tc.accounts != nil || tc.err != nil {
				svc.On("CompleteOAuth", mock.Anything, "abc", "xyz").Return(tc.accounts, tc.err)
			}
			h := NewSocialHandlers(svc, appURL, logging.Discard())

			c, rec := newRequest(echo.New(), http.MethodGet, tc.target, nil, uuid.Nil, uuid.Nil)

			require.NoError(t, h.OAuthCallback(c))

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get(echo.HeaderLocation))
			svc.AssertExpectations(t)
		})
	}
}

func TestStartOAuth(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()
	svc := &MockSocialService{}
	svc.On("StartOAuth", mock.Anything, tenantID, userID).Return("https://www.facebook.com/v19.0/dialog/oauth?state=s1", nil)
	h := NewSocialHandlers(svc, "https://app.glowdesk.test", logging.Discard())

	c, rec := newRequest(echo.New(), http.MethodGet, "/v1/social/oauth/start", nil, tenantID, userID)

	require.NoError(t, h.StartOAuth(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "state=s1")
}
