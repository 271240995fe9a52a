package services

import (
	"context"
	"sort"

	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
)

type RBACService interface {
	UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permissionName string) (bool, error)
	GetUserPermissions(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error)
	GetUserRoles(ctx context.Context, userID, tenantID uuid.UUID) ([]*models.Role, error)
	ListRoles(ctx context.Context, tenantID uuid.UUID) ([]*models.Role, error)
	AssignRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error
	RevokeRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error
}

type rbacService struct {
	userRepo       repositories.UserRepository
	roleRepo       repositories.RoleRepository
	userRoleRepo   repositories.UserRoleRepository
	permissionRepo repositories.PermissionRepository
}

func NewRBACService(userRepo repositories.UserRepository, roleRepo repositories.RoleRepository, userRoleRepo repositories.UserRoleRepository, permissionRepo repositories.PermissionRepository) RBACService {
	return &rbacService{
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		userRoleRepo:   userRoleRepo,
		permissionRepo: permissionRepo,
	}
}

func (s *rbacService) UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permissionName string) (bool, error) {
	return s.permissionRepo.UserHasPermission(ctx, tenantID, userID, permissionName)
}

func (s *rbacService) GetUserPermissions(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error) {
	perms, err := s.permissionRepo.ListNamesByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	sort.Strings(perms)
	return perms, nil
}

func (s *rbacService) GetUserRoles(ctx context.Context, userID, tenantID uuid.UUID) ([]*models.Role, error) {
	return s.roleRepo.ListByUser(ctx, tenantID, userID)
}

func (s *rbacService) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]*models.Role, error) {
	return s.roleRepo.List(ctx, tenantID)
}

func (s *rbacService) AssignRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error {
	// Both sides must belong to the caller's tenant.
	if _, err := s.userRepo.GetByID(ctx, tenantID, userID); err != nil {
		return repoError(err, "user")
	}
	if _, err := s.roleRepo.GetByID(ctx, tenantID, roleID); err != nil {
		return repoError(err, "role")
	}

	ur := &models.UserRole{ID: uuid.New(), UserID: userID, RoleID: roleID}
	return repoError(s.userRoleRepo.Create(ctx, tenantID, ur), "user role")
}

func (s *rbacService) RevokeRole(ctx context.Context, tenantID, userID, roleID uuid.UUID) error {
	return repoError(s.userRoleRepo.Delete(ctx, tenantID, userID, roleID), "user role")
}
