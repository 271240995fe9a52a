package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"glowdesk/internal/common"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// SocialHandlers handles connected Facebook pages and Instagram accounts
type SocialHandlers struct {
	socialService services.SocialService
	appURL        string
	log           *logrus.Logger
}

// NewSocialHandlers creates social handlers. appURL is where the OAuth callback sends the browser back to.
func NewSocialHandlers(socialService services.SocialService, appURL string, log *logrus.Logger) *SocialHandlers {
	return &SocialHandlers{
		socialService: socialService,
		appURL:        appURL,
		log:           log,
	}
}

// StartOAuth returns the authorize URL for connecting a page
// @Summary Start social connection
// @Tags social
// @Produce json
// @Security BearerAuth
// @Router /v1/social/oauth/start [get]
func (h *SocialHandlers) StartOAuth(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	authorizeURL, err := h.socialService.StartOAuth(ctx, tenantID, userID)
	if err != nil {
		return respondError(c, err, "social account")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": authorizeURL})
}

// OAuthCallback completes the connection and redirects back to the app
func (h *SocialHandlers) OAuthCallback(c echo.Context) error {
	if denied := c.QueryParam("error"); denied != "" {
		return c.Redirect(http.StatusFound, h.settingsURL(url.Values{"error": {"denied"}}))
	}

	code, state := c.QueryParam("code"), c.QueryParam("state")
	if code == "" || state == "" {
		return c.Redirect(http.StatusFound, h.settingsURL(url.Values{"error": {"invalid_request"}}))
	}

	accounts, err := h.socialService.CompleteOAuth(c.Request().Context(), code, state)
	if err != nil {
		reason := "failed"
		if errors.Is(err, services.ErrInvalidState) {
			reason = "expired"
		}
		h.log.WithError(err).Warn("Social connection failed")
		return c.Redirect(http.StatusFound, h.settingsURL(url.Values{"error": {reason}}))
	}

	return c.Redirect(http.StatusFound, h.settingsURL(url.Values{"connected": {strconv.Itoa(len(accounts))}}))
}

func (h *SocialHandlers) settingsURL(q url.Values) string {
	return h.appURL + "/settings/social?" + q.Encode()
}

// ListAccounts handles listing connected accounts
func (h *SocialHandlers) ListAccounts(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	accounts, err := h.socialService.ListAccounts(ctx, tenantID)
	if err != nil {
		return respondError(c, err, "social account")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"accounts": accounts})
}

// DisconnectAccount marks an account revoked
func (h *SocialHandlers) DisconnectAccount(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "account_id")
	if err != nil {
		return common.SendValidationError(c, "account_id", err.Error())
	}

	if err := h.socialService.Disconnect(ctx, tenantID, id); err != nil {
		return respondError(c, err, "social account")
	}
	return c.NoContent(http.StatusNoContent)
}

// CreatePost handles POST /social/accounts/:id/posts {message, image_url?}
// @Summary Publish a post
// @Tags social
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.SocialPostRequest true "Post"
// @Success 201 {object} models.SocialPost
// @Failure 502 {object} common.ErrorResponse
// @Router /v1/social/accounts/{id}/posts [post]
func (h *SocialHandlers) CreatePost(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "account_id")
	if err != nil {
		return common.SendValidationError(c, "account_id", err.Error())
	}

	var req services.SocialPostRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	post, err := h.socialService.CreatePost(ctx, tenantID, userID, id, &req)
	if err != nil {
		return respondError(c, err, "social account")
	}
	return c.JSON(http.StatusCreated, post)
}

// ListPosts handles listing posts published through an account
func (h *SocialHandlers) ListPosts(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "account_id")
	if err != nil {
		return common.SendValidationError(c, "account_id", err.Error())
	}
	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	posts, err := h.socialService.ListPosts(ctx, tenantID, id, limit, offset)
	if err != nil {
		return respondError(c, err, "social account")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"posts":  posts,
		"limit":  limit,
		"offset": offset,
	})
}

// ListConversations handles listing message threads of an account
func (h *SocialHandlers) ListConversations(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "account_id")
	if err != nil {
		return common.SendValidationError(c, "account_id", err.Error())
	}
	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	conversations, err := h.socialService.ListConversations(ctx, tenantID, id, limit, offset)
	if err != nil {
		return respondError(c, err, "social account")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversations": conversations,
		"limit":         limit,
		"offset":        offset,
	})
}

// ListMessages handles listing messages, optionally for one participant
func (h *SocialHandlers) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "account_id")
	if err != nil {
		return common.SendValidationError(c, "account_id", err.Error())
	}
	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	messages, err := h.socialService.ListMessages(ctx, tenantID, id, c.QueryParam("participant_id"), limit, offset)
	if err != nil {
		return respondError(c, err, "social account")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"limit":    limit,
		"offset":   offset,
	})
}

// SendMessage handles POST /social/accounts/:id/messages {recipient_id, text}
func (h *SocialHandlers) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "account_id")
	if err != nil {
		return common.SendValidationError(c, "account_id", err.Error())
	}

	var req services.SocialMessageRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	msg, err := h.socialService.SendMessage(ctx, tenantID, id, &req)
	if err != nil {
		return respondError(c, err, "social account")
	}
	return c.JSON(http.StatusCreated, msg)
}
