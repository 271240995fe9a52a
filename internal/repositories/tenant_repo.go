package repositories

import (
	"context"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	GetByCalendarToken(ctx context.Context, token string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	SetCalendarToken(ctx context.Context, id uuid.UUID, token string) error
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type tenantRepo struct {
	db DBTX
}

func NewTenantRepo(db DBTX) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, subdomain, timezone, status, calendar_token, created_at, updated_at`

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, subdomain, timezone, status, calendar_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Subdomain, tenant.Timezone, tenant.Status, tenant.CalendarToken)
	return err
}

func (r *tenantRepo) getOne(ctx context.Context, where string, arg any) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE ` + where
	err := r.db.QueryRow(ctx, query, arg).Scan(&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.Timezone, &tenant.Status, &tenant.CalendarToken, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *tenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	return r.getOne(ctx, "subdomain = $1", subdomain)
}

func (r *tenantRepo) GetByCalendarToken(ctx context.Context, token string) (*models.Tenant, error) {
	return r.getOne(ctx, "calendar_token = $1 AND status = 'active'", token)
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, timezone = $2, status = $3, updated_at = NOW()
		WHERE id = $4
	`
	return affectedOne(r.db.Exec(ctx, query, tenant.Name, tenant.Timezone, tenant.Status, tenant.ID))
}

func (r *tenantRepo) SetCalendarToken(ctx context.Context, id uuid.UUID, token string) error {
	query := `UPDATE tenants SET calendar_token = $1, updated_at = NOW() WHERE id = $2`
	return affectedOne(r.db.Exec(ctx, query, token, id))
}

func (r *tenantRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM tenants WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
