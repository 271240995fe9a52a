package repositories

import (
	"context"
	"time"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Coupon, error)
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error)
	// Redeem flags an unredeemed, unexpired coupon. It returns pgx.ErrNoRows when no row qualified.
	Redeem(ctx context.Context, tenantID, id, clientID uuid.UUID, now time.Time) (*models.Coupon, error)
	CountExpiredUnredeemed(ctx context.Context, now time.Time) (map[uuid.UUID]int, error)
}

type couponRepo struct {
	db DBTX
}

func NewCouponRepo(db DBTX) CouponRepository {
	return &couponRepo{db: db}
}

const couponColumns = `id, tenant_id, code, description, discount_type, discount_value, expires_at, redeemed, redeemed_at, redeemed_by_client_id, created_at, updated_at`

func scanCoupon(row rowScanner) (*models.Coupon, error) {
	c := &models.Coupon{}
	err := row.Scan(&c.ID, &c.TenantID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue, &c.ExpiresAt, &c.Redeemed, &c.RedeemedAt, &c.RedeemedByClientID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *couponRepo) Create(ctx context.Context, c *models.Coupon) error {
	query := `
		INSERT INTO coupons (id, tenant_id, code, description, discount_type, discount_value, expires_at, redeemed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, c.ID, c.TenantID, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.ExpiresAt).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *couponRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE tenant_id = $1 AND id = $2`
	return scanCoupon(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *couponRepo) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE tenant_id = $1 AND code = $2`
	return scanCoupon(r.db.QueryRow(ctx, query, tenantID, code))
}

func (r *couponRepo) Update(ctx context.Context, c *models.Coupon) error {
	query := `
		UPDATE coupons
		SET code = $1, description = $2, discount_type = $3, discount_value = $4, expires_at = $5, updated_at = NOW()
		WHERE tenant_id = $6 AND id = $7
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.ExpiresAt, c.TenantID, c.ID).
		Scan(&c.UpdatedAt)
}

func (r *couponRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return affectedOne(r.db.Exec(ctx, `DELETE FROM coupons WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

func (r *couponRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coupons := []*models.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *couponRepo) Redeem(ctx context.Context, tenantID, id, clientID uuid.UUID, now time.Time) (*models.Coupon, error) {
	query := `
		UPDATE coupons
		SET redeemed = TRUE, redeemed_at = $1, redeemed_by_client_id = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4
		  AND redeemed = FALSE
		  AND (expires_at IS NULL OR expires_at > $1)
		  AND EXISTS (SELECT 1 FROM clients WHERE id = $2 AND tenant_id = $3)
		RETURNING ` + couponColumns
	return scanCoupon(r.db.QueryRow(ctx, query, now, clientID, tenantID, id))
}

func (r *couponRepo) CountExpiredUnredeemed(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	query := `
		SELECT tenant_id, COUNT(*)
		FROM coupons
		WHERE redeemed = FALSE AND expires_at IS NOT NULL AND expires_at <= $1
		GROUP BY tenant_id
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var tenantID uuid.UUID
		var n int
		if err := rows.Scan(&tenantID, &n); err != nil {
			return nil, err
		}
		counts[tenantID] = n
	}
	return counts, rows.Err()
}
