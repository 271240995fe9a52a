package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"glowdesk/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inventoryCols = []string{"id", "tenant_id", "name", "sku", "category", "quantity", "unit_cost", "reorder_level", "supplier", "created_at", "updated_at"}

func TestInventoryAdjust(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	adj := &models.InventoryAdjustment{ID: uuid.New(), TenantID: uuid.New(), ItemID: uuid.New(), Delta: -2, Reason: "used in service"}

	mock.ExpectQuery(regexp.QuoteMeta("quantity + $4 >= 0")).
		WithArgs(adj.ID, adj.TenantID, adj.ItemID, adj.Delta, adj.Reason, adj.CreatedBy).
		WillReturnRows(pgxmock.NewRows(inventoryCols).
			AddRow(adj.ItemID, adj.TenantID, "Gel polish", (*string)(nil), stringPtr("polish"), 3, 4.5, 5, (*string)(nil), now, now))

	repo := NewInventoryRepo(mock)
	item, err := repo.Adjust(context.Background(), adj)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.LowStock())
}

func TestInventoryAdjust_WouldGoNegative(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	adj := &models.InventoryAdjustment{ID: uuid.New(), TenantID: uuid.New(), ItemID: uuid.New(), Delta: -100, Reason: "count"}
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE inventory_items")).
		WithArgs(adj.ID, adj.TenantID, adj.ItemID, adj.Delta, adj.Reason, adj.CreatedBy).
		WillReturnError(pgx.ErrNoRows)

	repo := NewInventoryRepo(mock)
	_, err = repo.Adjust(context.Background(), adj)
	assert.True(t, IsNotFound(err))
}
