package repositories

import (
	"context"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type InventoryRepository interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.InventoryItem, error)
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, category string, limit, offset int) ([]*models.InventoryItem, error)
	ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]*models.InventoryItem, error)
	// Adjust applies delta and records the adjustment. It returns pgx.ErrNoRows when the
	// item is missing or the result would be negative.
	Adjust(ctx context.Context, adj *models.InventoryAdjustment) (*models.InventoryItem, error)
}

type inventoryRepo struct {
	db DBTX
}

func NewInventoryRepo(db DBTX) InventoryRepository {
	return &inventoryRepo{db: db}
}

const inventoryColumns = `id, tenant_id, name, sku, category, quantity, unit_cost, reorder_level, supplier, created_at, updated_at`

func scanInventoryItem(row rowScanner) (*models.InventoryItem, error) {
	i := &models.InventoryItem{}
	if err := row.Scan(&i.ID, &i.TenantID, &i.Name, &i.SKU, &i.Category, &i.Quantity, &i.UnitCost, &i.ReorderLevel, &i.Supplier, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	return i, nil
}

func (r *inventoryRepo) Create(ctx context.Context, i *models.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (id, tenant_id, name, sku, category, quantity, unit_cost, reorder_level, supplier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, i.ID, i.TenantID, i.Name, i.SKU, i.Category, i.Quantity, i.UnitCost, i.ReorderLevel, i.Supplier).
		Scan(&i.CreatedAt, &i.UpdatedAt)
}

func (r *inventoryRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE tenant_id = $1 AND id = $2`
	return scanInventoryItem(r.db.QueryRow(ctx, query, tenantID, id))
}

// Update changes descriptive fields; quantity only moves through Adjust.
func (r *inventoryRepo) Update(ctx context.Context, i *models.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET name = $1, sku = $2, category = $3, unit_cost = $4, reorder_level = $5, supplier = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
		RETURNING quantity, updated_at
	`
	return r.db.QueryRow(ctx, query, i.Name, i.SKU, i.Category, i.UnitCost, i.ReorderLevel, i.Supplier, i.TenantID, i.ID).
		Scan(&i.Quantity, &i.UpdatedAt)
}

func (r *inventoryRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return affectedOne(r.db.Exec(ctx, `DELETE FROM inventory_items WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

func (r *inventoryRepo) List(ctx context.Context, tenantID uuid.UUID, category string, limit, offset int) ([]*models.InventoryItem, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE tenant_id = $1 AND ($2 = '' OR category = $2)
		ORDER BY name
		LIMIT $3 OFFSET $4
	`
	return r.scanItems(ctx, query, tenantID, category, limit, offset)
}

func (r *inventoryRepo) ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]*models.InventoryItem, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE tenant_id = $1 AND quantity <= reorder_level
		ORDER BY quantity - reorder_level, name
	`
	return r.scanItems(ctx, query, tenantID)
}

func (r *inventoryRepo) Adjust(ctx context.Context, adj *models.InventoryAdjustment) (*models.InventoryItem, error) {
	query := `
		WITH upd AS (
			UPDATE inventory_items
			SET quantity = quantity + $4, updated_at = NOW()
			WHERE tenant_id = $2 AND id = $3 AND quantity + $4 >= 0
			RETURNING ` + inventoryColumns + `
		), log AS (
			INSERT INTO inventory_adjustments (id, tenant_id, item_id, delta, reason, created_by, created_at)
			SELECT $1, $2, $3, $4, $5, $6, NOW() FROM upd
		)
		SELECT ` + inventoryColumns + ` FROM upd
	`
	return scanInventoryItem(r.db.QueryRow(ctx, query, adj.ID, adj.TenantID, adj.ItemID, adj.Delta, adj.Reason, adj.CreatedBy))
}

func (r *inventoryRepo) scanItems(ctx context.Context, query string, args ...any) ([]*models.InventoryItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.InventoryItem{}
	for rows.Next() {
		i, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
