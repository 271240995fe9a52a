package repositories

import (
	"context"

	"github.com/google/uuid"
)

type RolePermissionRepository interface {
	// GrantByNames attaches the named permissions to a role. Unknown names are skipped.
	GrantByNames(ctx context.Context, roleID uuid.UUID, names []string) error
}

type rolePermissionRepo struct {
	db DBTX
}

func NewRolePermissionRepo(db DBTX) RolePermissionRepository {
	return &rolePermissionRepo{db: db}
}

func (r *rolePermissionRepo) GrantByNames(ctx context.Context, roleID uuid.UUID, names []string) error {
	query := `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		SELECT $1, id, NOW() FROM permissions WHERE name = ANY($2)
		ON CONFLICT (role_id, permission_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, roleID, names)
	return err
}
