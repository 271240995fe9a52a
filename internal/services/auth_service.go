package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"glowdesk/internal/caching"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "glowdesk-auth"
	tokenAudience = "glowdesk-api"

	// Login attempts allowed per email within loginWindow.
	loginAttemptLimit = 10
	loginWindow       = 15 * time.Minute
)

// AuthService handles password login and JWT token management
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.TokenResponse, error)
	GenerateTokens(ctx context.Context, userID, tenantID uuid.UUID) (*models.TokenResponse, error)
	// RefreshToken consumes a refresh token and issues a new pair.
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	ValidateToken(tokenString string) (*TokenClaims, error)
	RevokeToken(ctx context.Context, refreshToken string) error
}

type authService struct {
	userRepo   repositories.UserRepository
	tenantRepo repositories.TenantRepository
	cacheSvc   caching.CacheService
	jwtSecret  []byte
	tokenTTL   time.Duration
	refreshTTL time.Duration
	log        *logrus.Logger
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	TokenID  string `json:"token_id"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo repositories.UserRepository, tenantRepo repositories.TenantRepository, cacheSvc caching.CacheService, jwtSecret string, tokenTTL, refreshTTL time.Duration, log *logrus.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		cacheSvc:   cacheSvc,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	limited, err := s.cacheSvc.IsRateLimited(ctx, "login:"+email, loginAttemptLimit, loginWindow)
	if err != nil {
		s.log.WithError(err).Warn("Login throttle check failed")
	} else if limited {
		return nil, ErrRateLimited
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return nil, ErrForbidden
	}

	tenant, err := s.tenantRepo.GetByID(ctx, user.TenantID)
	if err != nil {
		return nil, repoError(err, "tenant")
	}
	if tenant.Status != models.TenantStatusActive {
		return nil, ErrForbidden
	}

	return s.GenerateTokens(ctx, user.ID, user.TenantID)
}

// GenerateTokens generates access and refresh tokens for a user
func (s *authService) GenerateTokens(ctx context.Context, userID, tenantID uuid.UUID) (*models.TokenResponse, error) {
	now := time.Now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		UserID:   userID.String(),
		TenantID: tenantID.String(),
		TokenID:  tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessTokenString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refreshToken := generateSecureToken()
	refreshTokenData := fmt.Sprintf("%s:%s:%d", userID, tenantID, now.Add(s.refreshTTL).Unix())
	if err := s.cacheSvc.SetString(ctx, caching.RefreshTokenKey(hashToken(refreshToken)), refreshTokenData, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenTTL.Seconds()),
		RefreshToken: refreshToken,
		UserID:       userID.String(),
		TenantID:     tenantID.String(),
		TokenID:      tokenID,
		IssuedAt:     now,
	}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrInvalidCredentials
	}

	// Taking the key makes every refresh token single use.
	tokenData, err := s.cacheSvc.TakeString(ctx, caching.RefreshTokenKey(hashToken(refreshToken)))
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}
	if tokenData == "" {
		return nil, ErrInvalidCredentials
	}

	parts := strings.Split(tokenData, ":")
	if len(parts) != 3 {
		return nil, ErrInvalidCredentials
	}
	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	tenantID, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	expiry, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || time.Now().Unix() > expiry {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, tenantID, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Status != models.UserStatusActive {
		return nil, ErrForbidden
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "tenant_id": tenantID}).Debug("Refresh token rotated")
	return s.GenerateTokens(ctx, userID, tenantID)
}

// ValidateToken parses an HS256 access token issued by this service.
func (s *authService) ValidateToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if !token.Valid {
		return nil, ErrInvalidCredentials
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, errors.Join(ErrInvalidCredentials, err)
	}
	if _, err := uuid.Parse(claims.TenantID); err != nil {
		return nil, errors.Join(ErrInvalidCredentials, err)
	}
	return claims, nil
}

func (s *authService) RevokeToken(ctx context.Context, refreshToken string) error {
	return s.cacheSvc.Delete(ctx, caching.RefreshTokenKey(hashToken(refreshToken)))
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
