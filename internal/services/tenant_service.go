package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/email"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)

// defaultRoleOrder fixes the creation order of built-in roles.
var defaultRoleOrder = []string{models.RoleOwner, models.RoleManager, models.RoleStaff, models.RoleReceptionist}

type TenantService interface {
	// Signup creates a salon, its built-in roles and the owner account in one transaction.
	Signup(ctx context.Context, req *SignupRequest) (*SignupResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateTenantRequest) (*models.Tenant, error)
	RotateCalendarToken(ctx context.Context, id uuid.UUID) (string, error)
	// Profile is the role context for the signed in user.
	Profile(ctx context.Context, tenantID, userID uuid.UUID) (*Profile, error)
}

type SignupRequest struct {
	SalonName string `json:"salon_name"`
	Subdomain string `json:"subdomain"`
	Timezone  string `json:"timezone"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UpdateTenantRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type SignupResult struct {
	Tenant *models.Tenant `json:"tenant"`
	User   *models.User   `json:"user"`
}

type Profile struct {
	User        *models.User   `json:"user"`
	Tenant      *models.Tenant `json:"tenant"`
	Roles       []string       `json:"roles"`
	Permissions []string       `json:"permissions"`
}

type tenantService struct {
	db         repositories.DBTX
	tenantRepo repositories.TenantRepository
	userRepo   repositories.UserRepository
	rbacSvc    RBACService
	emailQueue EmailQueue
	log        *logrus.Logger
}

func NewTenantService(db repositories.DBTX, rbacSvc RBACService, emailQueue EmailQueue, log *logrus.Logger) TenantService {
	return &tenantService{
		db:         db,
		tenantRepo: repositories.NewTenantRepo(db),
		userRepo:   repositories.NewUserRepo(db),
		rbacSvc:    rbacSvc,
		emailQueue: emailQueue,
		log:        log,
	}
}

func (r *SignupRequest) normalize() error {
	r.SalonName = strings.TrimSpace(r.SalonName)
	r.Subdomain = strings.ToLower(strings.TrimSpace(r.Subdomain))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)

	if err := common.ValidateRequiredString(r.SalonName, "salon_name"); err != nil {
		return fieldError("salon_name", err)
	}
	if !subdomainPattern.MatchString(r.Subdomain) {
		return invalid("subdomain", "must be 3-63 lowercase letters, digits or hyphens")
	}
	if err := common.ValidateRequiredString(r.FirstName, "first_name"); err != nil {
		return fieldError("first_name", err)
	}
	addr, err := common.ValidateEmail(r.Email, "email")
	if err != nil {
		return fieldError("email", err)
	}
	r.Email = addr
	if len(r.Password) < 8 || len(r.Password) > 72 {
		return invalid("password", "must be between 8 and 72 characters")
	}

	tz, err := normalizeTimezone(r.Timezone)
	if err != nil {
		return err
	}
	r.Timezone = tz
	return nil
}

func normalizeTimezone(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "UTC", nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", invalid("timezone", "unknown time zone")
	}
	return tz, nil
}

func (s *tenantService) Signup(ctx context.Context, req *SignupRequest) (*SignupResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tenant := &models.Tenant{
		ID:            uuid.New(),
		Name:          req.SalonName,
		Subdomain:     req.Subdomain,
		Timezone:      req.Timezone,
		Status:        models.TenantStatusActive,
		CalendarToken: generateSecureToken(),
	}
	user := &models.User{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Status:       models.UserStatusActive,
	}

	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := repositories.NewTenantRepo(tx).Create(ctx, tenant); err != nil {
			return repoError(err, "tenant")
		}
		if err := repositories.NewUserRepo(tx).Create(ctx, user); err != nil {
			return repoError(err, "user")
		}

		roleRepo := repositories.NewRoleRepo(tx)
		grants := repositories.NewRolePermissionRepo(tx)
		matrix := models.DefaultRolePermissions()
		var ownerRoleID uuid.UUID
		for _, name := range defaultRoleOrder {
			role := &models.Role{ID: uuid.New(), TenantID: tenant.ID, Name: name}
			if err := roleRepo.Create(ctx, role); err != nil {
				return fmt.Errorf("failed to create role %s: %w", name, err)
			}
			if err := grants.GrantByNames(ctx, role.ID, matrix[name]); err != nil {
				return fmt.Errorf("failed to grant permissions to %s: %w", name, err)
			}
			if name == models.RoleOwner {
				ownerRoleID = role.ID
			}
		}

		ur := &models.UserRole{ID: uuid.New(), UserID: user.ID, RoleID: ownerRoleID}
		return repositories.NewUserRoleRepo(tx).Create(ctx, tenant.ID, ur)
	})
	if err != nil {
		return nil, err
	}

	logger := s.log.WithFields(logrus.Fields{"tenant_id": tenant.ID, "user_id": user.ID})
	logger.Info("Salon signed up")

	if err := s.emailQueue.EnqueueEmail(ctx, email.WelcomeMessage(user.Email, user.FirstName, tenant.Name, common.GetLanguageFromContext(ctx))); err != nil {
		logger.WithError(err).Error("Failed to enqueue welcome email")
	}

	return &SignupResult{Tenant: tenant, User: user}, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "tenant")
	}
	return tenant, nil
}

func (s *tenantService) Update(ctx context.Context, id uuid.UUID, req *UpdateTenantRequest) (*models.Tenant, error) {
	existing, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "tenant")
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		existing.Name = name
	}
	if req.Timezone != "" {
		tz, err := normalizeTimezone(req.Timezone)
		if err != nil {
			return nil, err
		}
		existing.Timezone = tz
	}

	if err := s.tenantRepo.Update(ctx, existing); err != nil {
		return nil, repoError(err, "tenant")
	}
	return existing, nil
}

func (s *tenantService) RotateCalendarToken(ctx context.Context, id uuid.UUID) (string, error) {
	token := generateSecureToken()
	if err := s.tenantRepo.SetCalendarToken(ctx, id, token); err != nil {
		return "", repoError(err, "tenant")
	}
	return token, nil
}

func (s *tenantService) Profile(ctx context.Context, tenantID, userID uuid.UUID) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, tenantID, userID)
	if err != nil {
		return nil, repoError(err, "user")
	}
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, repoError(err, "tenant")
	}
	roles, err := s.rbacSvc.GetUserRoles(ctx, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	perms, err := s.rbacSvc.GetUserPermissions(ctx, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return &Profile{User: user, Tenant: tenant, Roles: names, Permissions: perms}, nil
}
