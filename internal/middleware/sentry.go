package middleware

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

const sentryHubKey = "sentry_hub"

// Sentry gives each request its own hub and transaction and reports panics.
func Sentry() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()
			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(req)
			hub.Scope().SetTag("path", c.Path())

			ctx := sentry.SetHubOnContext(req.Context(), hub)
			span := sentry.StartTransaction(ctx, fmt.Sprintf("%s %s", req.Method, c.Path()),
				sentry.ContinueFromRequest(req))
			defer span.Finish()

			c.Set(sentryHubKey, hub)
			c.SetRequest(req.WithContext(span.Context()))

			defer func() {
				if r := recover(); r != nil {
					hub.RecoverWithContext(span.Context(), r)
					span.Status = sentry.SpanStatusInternalError
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}()

			err = next(c)
			span.Status = sentry.HTTPtoSpanStatus(c.Response().Status)
			return err
		}
	}
}

// CaptureError reports err on the request's hub, falling back to the global hub.
func CaptureError(c echo.Context, err error) {
	hub, _ := c.Get(sentryHubKey).(*sentry.Hub)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtra("method", c.Request().Method)
		scope.SetExtra("path", c.Path())
		hub.CaptureException(err)
	})
}
