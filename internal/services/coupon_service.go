package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var couponCodePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

type CouponService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *CouponRequest) (*models.Coupon, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Coupon, error)
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *CouponRequest) (*models.Coupon, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error)
	Redeem(ctx context.Context, tenantID, id, clientID uuid.UUID) (*models.Coupon, error)
	// ReportExpired logs per-tenant counts of expired, unredeemed coupons.
	ReportExpired(ctx context.Context, now time.Time) (int, error)
}

type CouponRequest struct {
	Code          string     `json:"code"`
	Description   *string    `json:"description"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue float64    `json:"discount_value"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

type couponService struct {
	couponRepo repositories.CouponRepository
	clientRepo repositories.ClientRepository
	log        *logrus.Logger
	now        func() time.Time
}

func NewCouponService(couponRepo repositories.CouponRepository, clientRepo repositories.ClientRepository, log *logrus.Logger) CouponService {
	return &couponService{couponRepo: couponRepo, clientRepo: clientRepo, log: log, now: time.Now}
}

// NormalizeCouponCode upper-cases and trims a code for storage and lookup.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *CouponRequest) normalize() error {
	r.Code = NormalizeCouponCode(r.Code)
	if !couponCodePattern.MatchString(r.Code) {
		return invalid("code", "must be 3-32 letters, digits, dashes or underscores")
	}
	switch r.DiscountType {
	case models.DiscountPercent:
		if r.DiscountValue <= 0 || r.DiscountValue > 100 {
			return invalid("discount_value", "percent discount must be greater than 0 and at most 100")
		}
	case models.DiscountAmount:
		if r.DiscountValue <= 0 {
			return invalid("discount_value", "amount discount must be greater than 0")
		}
	default:
		return invalid("discount_type", "must be percent or amount")
	}
	return fieldError("description", common.ValidateOptionalString(r.Description, "description", 500))
}

func (s *couponService) Create(ctx context.Context, tenantID uuid.UUID, req *CouponRequest) (*models.Coupon, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Code:          req.Code,
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		ExpiresAt:     req.ExpiresAt,
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, repoError(err, "coupon")
	}
	return coupon, nil
}

func (s *couponService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, repoError(err, "coupon")
	}
	return coupon, nil
}

func (s *couponService) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, tenantID, NormalizeCouponCode(code))
	if err != nil {
		return nil, repoError(err, "coupon")
	}
	return coupon, nil
}

func (s *couponService) Update(ctx context.Context, tenantID, id uuid.UUID, req *CouponRequest) (*models.Coupon, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	coupon, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if coupon.Redeemed {
		return nil, ErrCouponRedeemed
	}

	coupon.Code = req.Code
	coupon.Description = req.Description
	coupon.DiscountType = req.DiscountType
	coupon.DiscountValue = req.DiscountValue
	coupon.ExpiresAt = req.ExpiresAt
	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, repoError(err, "coupon")
	}
	return coupon, nil
}

func (s *couponService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return repoError(s.couponRepo.Delete(ctx, tenantID, id), "coupon")
}

func (s *couponService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error) {
	return s.couponRepo.List(ctx, tenantID, limit, offset)
}

func (s *couponService) Redeem(ctx context.Context, tenantID, id, clientID uuid.UUID) (*models.Coupon, error) {
	if clientID == uuid.Nil {
		return nil, invalid("client_id", "client_id is required")
	}
	if _, err := s.clientRepo.GetByID(ctx, tenantID, clientID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, invalid("client_id", "client not found")
		}
		return nil, err
	}

	now := s.now()
	coupon, err := s.couponRepo.Redeem(ctx, tenantID, id, clientID, now)
	if err == nil {
		return coupon, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, err
	}

	// Nothing qualified; work out why.
	current, getErr := s.GetByID(ctx, tenantID, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Redeemed {
		return nil, ErrCouponRedeemed
	}
	if current.Expired(now) {
		return nil, ErrCouponExpired
	}
	return nil, ErrConflict
}

func (s *couponService) ReportExpired(ctx context.Context, now time.Time) (int, error) {
	counts, err := s.couponRepo.CountExpiredUnredeemed(ctx, now)
	if err != nil {
		return 0, err
	}
	total := 0
	for tenantID, n := range counts {
		total += n
		s.log.WithFields(logrus.Fields{"tenant_id": tenantID, "expired_unredeemed": n}).Info("Expired coupons")
	}
	return total, nil
}
