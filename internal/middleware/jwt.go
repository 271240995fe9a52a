package middleware

import (
	"errors"
	"fmt"

	"glowdesk/internal/common"
	"glowdesk/internal/services"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
}

const identityContextKey = "identity"

var errNoTenant = errors.New("token carries no tenant")

// JWTMiddleware accepts our own HS256 access tokens and, when jwks is set,
// RS256 tokens from the hosted auth provider.
func JWTMiddleware(authSvc services.AuthService, jwks *keyfunc.JWKS) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: identityContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return ParseIdentity(authSvc, jwks, auth)
		},
		SuccessHandler: func(c echo.Context) {
			id := c.Get(identityContextKey).(*Identity)
			c.SetRequest(c.Request().WithContext(common.WithIdentity(c.Request().Context(), id.UserID, id.TenantID)))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendUnauthorizedError(c)
		},
	})
}

// ParseIdentity verifies a raw bearer token and extracts the user and tenant.
func ParseIdentity(authSvc services.AuthService, jwks *keyfunc.JWKS, raw string) (*Identity, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	switch unverified.Method.Alg() {
	case jwt.SigningMethodHS256.Alg():
		claims, err := authSvc.ValidateToken(raw)
		if err != nil {
			return nil, err
		}
		return identityFrom(claims.UserID, claims.TenantID)
	case jwt.SigningMethodRS256.Alg():
		if jwks == nil {
			return nil, fmt.Errorf("RS256 tokens are not accepted")
		}
		return parseProviderToken(jwks, raw)
	default:
		return nil, fmt.Errorf("unexpected signing method %s", unverified.Method.Alg())
	}
}

// parseProviderToken reads sub and app_metadata.tenant_id from a JWKS-verified token.
func parseProviderToken(jwks *keyfunc.JWKS, raw string) (*Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, jwks.Keyfunc, jwt.WithValidMethods([]string{"RS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	meta, _ := claims["app_metadata"].(map[string]interface{})
	tenant, _ := meta["tenant_id"].(string)
	return identityFrom(sub, tenant)
}

func identityFrom(userID, tenantID string) (*Identity, error) {
	if tenantID == "" {
		return nil, errNoTenant
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	tid, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant id: %w", err)
	}
	return &Identity{UserID: uid, TenantID: tid}, nil
}
