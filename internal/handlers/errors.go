package handlers

import (
	"errors"
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/middleware"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// respondError writes the response for a known service error. Anything else is
// returned unchanged for HTTPErrorHandler.
func respondError(c echo.Context, err error, resource string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return common.SendValidationError(c, verr.Field, verr.Message)
	case errors.Is(err, services.ErrValidation):
		return common.SendValidationError(c, "request", err.Error())
	case errors.Is(err, services.ErrNotFound):
		return common.SendNotFoundError(c, resource)
	case errors.Is(err, services.ErrForbidden):
		return common.SendForbiddenError(c)
	case errors.Is(err, services.ErrConflict):
		return sendCoded(c, http.StatusConflict, common.CodeConflict)
	case errors.Is(err, services.ErrCouponRedeemed):
		return sendCoded(c, http.StatusConflict, common.CodeCouponRedeemed)
	case errors.Is(err, services.ErrCouponExpired):
		return sendCoded(c, http.StatusConflict, common.CodeCouponExpired)
	case errors.Is(err, services.ErrCampaignNotEditable):
		return sendCoded(c, http.StatusConflict, common.CodeCampaignLocked)
	case errors.Is(err, services.ErrInsufficientQuantity):
		return sendCoded(c, http.StatusConflict, common.CodeInsufficientQty)
	case errors.Is(err, services.ErrInvalidCredentials):
		return sendCoded(c, http.StatusUnauthorized, common.CodeInvalidLogin)
	case errors.Is(err, services.ErrInvalidSignature):
		return sendCoded(c, http.StatusUnauthorized, common.CodeInvalidSignature)
	case errors.Is(err, services.ErrInvalidState):
		return sendCoded(c, http.StatusBadRequest, common.CodeInvalidState)
	case errors.Is(err, services.ErrRateLimited):
		return sendCoded(c, http.StatusTooManyRequests, common.CodeRateLimited)
	case errors.Is(err, services.ErrUpstream):
		return sendCoded(c, http.StatusBadGateway, common.CodeUpstream)
	}
	return err
}

func sendCoded(c echo.Context, status int, code string) error {
	msg := common.Translate(common.LanguageFromEcho(c), code)
	return c.JSON(status, common.CreateErrorResponse(code, msg, nil))
}

// HTTPErrorHandler renders errors that escaped the handlers. Unexpected errors are
// logged and reported to Sentry; the client only sees a generic message.
func HTTPErrorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code := common.CodeClient
			switch he.Code {
			case http.StatusNotFound:
				code = common.CodeNotFound
			case http.StatusUnauthorized:
				code = common.CodeUnauthorized
			case http.StatusForbidden:
				code = common.CodeForbidden
			case http.StatusTooManyRequests:
				code = common.CodeRateLimited
			}
			if he.Code >= http.StatusInternalServerError {
				code = common.CodeServer
				middleware.CaptureError(c, err)
			}
			msg := common.Translate(common.LanguageFromEcho(c), code)
			if m, ok := he.Message.(string); ok && he.Code < http.StatusInternalServerError {
				msg = m
			}
			writeError(c, log, he.Code, common.CreateErrorResponse(code, msg, nil))
			return
		}

		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("Request failed")
		middleware.CaptureError(c, err)

		msg := common.Translate(common.LanguageFromEcho(c), common.CodeServer)
		writeError(c, log, http.StatusInternalServerError, common.CreateErrorResponse(common.CodeServer, msg, nil))
	}
}

func writeError(c echo.Context, log *logrus.Logger, status int, body *common.ErrorResponse) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.WithError(err).Warn("Failed to write error response")
	}
}
