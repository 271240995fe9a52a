package repositories

import (
	"context"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type PortfolioRepository interface {
	Create(ctx context.Context, item *models.PortfolioItem) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PortfolioItem, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, tag string, limit, offset int) ([]*models.PortfolioItem, error)
}

type portfolioRepo struct {
	db DBTX
}

func NewPortfolioRepo(db DBTX) PortfolioRepository {
	return &portfolioRepo{db: db}
}

func (r *portfolioRepo) Create(ctx context.Context, item *models.PortfolioItem) error {
	query := `
		INSERT INTO portfolio_items (id, tenant_id, title, description, object_key, content_type, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query, item.ID, item.TenantID, item.Title, item.Description, item.ObjectKey, item.ContentType, item.Tags).
		Scan(&item.CreatedAt)
}

func (r *portfolioRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PortfolioItem, error) {
	item := &models.PortfolioItem{}
	query := `
		SELECT id, tenant_id, title, description, object_key, content_type, tags, created_at
		FROM portfolio_items
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&item.ID, &item.TenantID, &item.Title, &item.Description, &item.ObjectKey, &item.ContentType, &item.Tags, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *portfolioRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return affectedOne(r.db.Exec(ctx, `DELETE FROM portfolio_items WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

func (r *portfolioRepo) List(ctx context.Context, tenantID uuid.UUID, tag string, limit, offset int) ([]*models.PortfolioItem, error) {
	query := `
		SELECT id, tenant_id, title, description, object_key, content_type, tags, created_at
		FROM portfolio_items
		WHERE tenant_id = $1 AND ($2 = '' OR $2 = ANY(tags))
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, tag, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.PortfolioItem{}
	for rows.Next() {
		item := &models.PortfolioItem{}
		if err := rows.Scan(&item.ID, &item.TenantID, &item.Title, &item.Description, &item.ObjectKey, &item.ContentType, &item.Tags, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
