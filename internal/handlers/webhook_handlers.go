package handlers

import (
	"io"
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/monitoring"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	signatureHeader    = "X-Hub-Signature-256"
	maxWebhookBodySize = 1 << 20
)

// WebhookHandlers handles deliveries from the social platform
type WebhookHandlers struct {
	socialService services.SocialService
	log           *logrus.Logger
}

// NewWebhookHandlers creates a new webhook handlers instance
func NewWebhookHandlers(socialService services.SocialService, log *logrus.Logger) *WebhookHandlers {
	return &WebhookHandlers{
		socialService: socialService,
		log:           log,
	}
}

// VerifySubscription handles GET /webhooks/social (hub.mode, hub.verify_token, hub.challenge)
func (h *WebhookHandlers) VerifySubscription(c echo.Context) error {
	challenge, ok := h.socialService.VerifyChallenge(
		c.QueryParam("hub.mode"),
		c.QueryParam("hub.verify_token"),
		c.QueryParam("hub.challenge"),
	)
	if !ok {
		monitoring.WebhookEvents.WithLabelValues("challenge_rejected").Inc()
		return common.SendForbiddenError(c)
	}
	return c.String(http.StatusOK, challenge)
}

// SocialWebhook handles POST /webhooks/social
// Once the signature checks out the delivery is always acknowledged, even if storing it fails.
func (h *WebhookHandlers) SocialWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodySize))
	if err != nil {
		return common.SendClientError(c, "Failed to read request body")
	}

	signature := c.Request().Header.Get(signatureHeader)
	if signature == "" || !h.socialService.VerifySignature(body, signature) {
		monitoring.WebhookEvents.WithLabelValues("invalid_signature").Inc()
		return sendCoded(c, http.StatusUnauthorized, common.CodeInvalidSignature)
	}

	stored, err := h.socialService.HandleWebhook(c.Request().Context(), body)
	if err != nil {
		monitoring.WebhookEvents.WithLabelValues("error").Inc()
		h.log.WithError(err).Error("Failed to process social webhook")
	} else {
		monitoring.WebhookEvents.WithLabelValues("processed").Inc()
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "received",
		"stored": stored,
	})
}
