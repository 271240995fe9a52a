package repositories

import (
	"context"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type PermissionRepository interface {
	List(ctx context.Context) ([]*models.Permission, error)
	ListNamesByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error)
	UserHasPermission(ctx context.Context, tenantID, userID uuid.UUID, name string) (bool, error)
}

type permissionRepo struct {
	db DBTX
}

func NewPermissionRepo(db DBTX) PermissionRepository {
	return &permissionRepo{db: db}
}

func (r *permissionRepo) List(ctx context.Context) ([]*models.Permission, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, created_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []*models.Permission
	for rows.Next() {
		p := &models.Permission{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		permissions = append(permissions, p)
	}
	return permissions, rows.Err()
}

func (r *permissionRepo) ListNamesByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN roles ro ON ro.id = rp.role_id
		JOIN user_roles ur ON ur.role_id = ro.id
		WHERE ro.tenant_id = $1 AND ur.user_id = $2
		ORDER BY p.name
	`
	rows, err := r.db.Query(ctx, query, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *permissionRepo) UserHasPermission(ctx context.Context, tenantID, userID uuid.UUID, name string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM permissions p
			JOIN role_permissions rp ON rp.permission_id = p.id
			JOIN roles ro ON ro.id = rp.role_id
			JOIN user_roles ur ON ur.role_id = ro.id
			WHERE ro.tenant_id = $1 AND ur.user_id = $2 AND p.name = $3
		)
	`
	var ok bool
	err := r.db.QueryRow(ctx, query, tenantID, userID, name).Scan(&ok)
	return ok, err
}
