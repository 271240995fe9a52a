package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"glowdesk/internal/logging"
	"glowdesk/internal/models"
	"glowdesk/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func()
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the migrations.
// The test is skipped when the variable is not set.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	log := logging.Discard()
	if err := database.Migrate(dsn, log); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := database.NewPool(ctx, dsn, log)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool}
	db.Cleanup = func() {
		pool.Close()
	}
	t.Cleanup(db.Cleanup)
	return db
}

// SetupTestTenant creates a salon with a unique subdomain. Its rows are
// removed by cascade when the test ends.
func SetupTestTenant(t *testing.T, db *TestDB) uuid.UUID {
	t.Helper()

	tenantID := uuid.New()
	suffix := tenantID.String()[:8]
	query := `
		INSERT INTO tenants (id, name, subdomain, timezone, status, calendar_token)
		VALUES ($1, $2, $3, 'UTC', 'active', $4)
	`
	_, err := db.Pool.Exec(context.Background(), query, tenantID, "Test Salon "+suffix, "test-"+suffix, "cal-"+tenantID.String())
	if err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}

	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM tenants WHERE id = $1`, tenantID)
	})
	return tenantID
}

// SetupTestClient inserts a client for tenantID.
func SetupTestClient(t *testing.T, db *TestDB, tenantID uuid.UUID) *models.Client {
	t.Helper()

	email := "client-" + uuid.NewString()[:8] + "@example.com"
	client := &models.Client{
		ID:        uuid.New(),
		TenantID:  tenantID,
		FirstName: "Test",
		LastName:  "Client",
		Email:     &email,
		Phone:     "+15550100",
		Status:    "active",
		Tags:      []string{"test"},
	}

	query := `
		INSERT INTO clients (id, tenant_id, first_name, last_name, email, phone, status, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := db.Pool.QueryRow(context.Background(), query,
		client.ID, client.TenantID, client.FirstName, client.LastName, client.Email,
		client.Phone, client.Status, client.Tags).Scan(&client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}

	return client
}

// SetupTestCoupon inserts an unredeemed percent coupon for tenantID.
func SetupTestCoupon(t *testing.T, db *TestDB, tenantID uuid.UUID, expiresAt *time.Time) *models.Coupon {
	t.Helper()

	coupon := &models.Coupon{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Code:          "TEST-" + uuid.NewString()[:6],
		DiscountType:  models.DiscountPercent,
		DiscountValue: 10,
		ExpiresAt:     expiresAt,
	}

	query := `
		INSERT INTO coupons (id, tenant_id, code, discount_type, discount_value, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := db.Pool.QueryRow(context.Background(), query,
		coupon.ID, coupon.TenantID, coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.ExpiresAt).
		Scan(&coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test coupon: %v", err)
	}

	return coupon
}
