package repositories

import (
	"context"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Role, error)
	GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Role, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*models.Role, error)
	ListByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*models.Role, error)
}

type roleRepo struct {
	db DBTX
}

func NewRoleRepo(db DBTX) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) Create(ctx context.Context, role *models.Role) error {
	query := `
		INSERT INTO roles (id, tenant_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (tenant_id, name) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, role.ID, role.TenantID, role.Name, role.Description)
	return err
}

func (r *roleRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Role, error) {
	role := &models.Role{}
	query := `
		SELECT id, tenant_id, name, description, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *roleRepo) GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Role, error) {
	role := &models.Role{}
	query := `
		SELECT id, tenant_id, name, description, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1 AND name = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, name).Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *roleRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*models.Role, error) {
	query := `
		SELECT id, tenant_id, name, description, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1
		ORDER BY name
	`
	return r.scanRoles(ctx, query, tenantID)
}

func (r *roleRepo) ListByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*models.Role, error) {
	query := `
		SELECT ro.id, ro.tenant_id, ro.name, ro.description, ro.created_at, ro.updated_at
		FROM roles ro
		JOIN user_roles ur ON ur.role_id = ro.id
		WHERE ro.tenant_id = $1 AND ur.user_id = $2
		ORDER BY ro.name
	`
	return r.scanRoles(ctx, query, tenantID, userID)
}

func (r *roleRepo) scanRoles(ctx context.Context, query string, args ...any) ([]*models.Role, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		role := &models.Role{}
		if err := rows.Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
