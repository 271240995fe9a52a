package handlers

import (
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles signup, login and the signed in user's role context
type AuthHandlers struct {
	authService   services.AuthService
	tenantService services.TenantService
	rbacService   services.RBACService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, tenantService services.TenantService, rbacService services.RBACService) *AuthHandlers {
	return &AuthHandlers{
		authService:   authService,
		tenantService: tenantService,
		rbacService:   rbacService,
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResponse is the new salon, its owner and a token pair
type SignupResponse struct {
	models.TokenResponse
	Tenant *models.Tenant `json:"tenant"`
	User   *models.User   `json:"user"`
}

// Signup creates a salon and its owner account
// @Summary Register a salon
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.SignupRequest true "Salon and owner"
// @Success 201 {object} SignupResponse
// @Router /v1/auth/signup [post]
func (h *AuthHandlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req services.SignupRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	result, err := h.tenantService.Signup(ctx, &req)
	if err != nil {
		return respondError(c, err, "tenant")
	}

	tokens, err := h.authService.GenerateTokens(ctx, result.User.ID, result.Tenant.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, SignupResponse{
		TokenResponse: *tokens,
		Tenant:        result.Tenant,
		User:          result.User,
	})
}

// Login handles user login with email and password
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} models.TokenResponse
// @Router /v1/auth/login [post]
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return common.SendValidationError(c, "email", "email and password are required")
	}

	tokens, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "user")
	}
	return c.JSON(http.StatusOK, tokens)
}

// Refresh rotates a refresh token
// @Summary Refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} models.TokenResponse
// @Router /v1/auth/refresh [post]
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.RefreshToken == "" {
		return common.SendValidationError(c, "refresh_token", "refresh_token is required")
	}

	tokens, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondError(c, err, "refresh token")
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout revokes a refresh token. Unknown tokens are accepted silently.
func (h *AuthHandlers) Logout(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.RefreshToken != "" {
		if err := h.authService.RevokeToken(c.Request().Context(), req.RefreshToken); err != nil {
			return err
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the user, tenant, roles and permissions of the caller
// @Summary Current role context
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.Profile
// @Router /v1/me [get]
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	profile, err := h.tenantService.Profile(ctx, tenantID, userID)
	if err != nil {
		return respondError(c, err, "user")
	}
	return c.JSON(http.StatusOK, profile)
}

// MyPermissions returns the flattened permission names of the caller
func (h *AuthHandlers) MyPermissions(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	permissions, err := h.rbacService.GetUserPermissions(ctx, userID, tenantID)
	if err != nil {
		return err
	}
	if permissions == nil {
		permissions = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"permissions": permissions,
	})
}
