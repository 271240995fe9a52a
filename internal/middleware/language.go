package middleware

import (
	"context"

	"glowdesk/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LanguageSource looks up a user's saved language.
type LanguageSource interface {
	PreferredLanguage(ctx context.Context, tenantID, userID uuid.UUID) (string, error)
}

// Language picks the response language: the user's saved preference when
// authenticated, else Accept-Language, else English.
func Language(prefs LanguageSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			lang := common.ParseAcceptLanguage(c.Request().Header.Get(common.HeaderAcceptLanguage))

			if prefs != nil {
				userID, okUser := common.GetUserIDFromContext(ctx)
				tenantID, okTenant := common.GetTenantIDFromContext(ctx)
				if okUser && okTenant {
					if saved, err := prefs.PreferredLanguage(ctx, tenantID, userID); err == nil && common.SupportedLanguage(saved) {
						lang = saved
					}
				}
			}

			if lang == "" {
				lang = "en"
			}
			c.Response().Header().Set("Content-Language", lang)
			c.SetRequest(c.Request().WithContext(context.WithValue(ctx, common.LanguageKey, lang)))
			return next(c)
		}
	}
}
