package repositories

import (
	"context"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type UserRoleRepository interface {
	Create(ctx context.Context, tenantID uuid.UUID, userRole *models.UserRole) error
	Delete(ctx context.Context, tenantID uuid.UUID, userID, roleID uuid.UUID) error
}

type userRoleRepo struct {
	db DBTX
}

func NewUserRoleRepo(db DBTX) UserRoleRepository {
	return &userRoleRepo{db: db}
}

// Create assigns a role; both the user and the role must belong to tenantID.
func (r *userRoleRepo) Create(ctx context.Context, tenantID uuid.UUID, userRole *models.UserRole) error {
	query := `
		INSERT INTO user_roles (id, user_id, role_id, created_at)
		SELECT $1, $2, $3, NOW()
		WHERE EXISTS (SELECT 1 FROM users WHERE id = $2 AND tenant_id = $4)
		AND EXISTS (SELECT 1 FROM roles WHERE id = $3 AND tenant_id = $4)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userRole.ID, userRole.UserID, userRole.RoleID, tenantID)
	return err
}

func (r *userRoleRepo) Delete(ctx context.Context, tenantID uuid.UUID, userID, roleID uuid.UUID) error {
	query := `
		DELETE FROM user_roles
		WHERE user_id = $1 AND role_id = $2
		AND EXISTS (SELECT 1 FROM users WHERE id = $1 AND tenant_id = $3)
		AND EXISTS (SELECT 1 FROM roles WHERE id = $2 AND tenant_id = $3)
	`
	return affectedOne(r.db.Exec(ctx, query, userID, roleID, tenantID))
}
