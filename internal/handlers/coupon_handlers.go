package handlers

import (
	"net/http"

	"glowdesk/internal/common"
	"glowdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// CouponHandlers handles discount codes
type CouponHandlers struct {
	couponService services.CouponService
}

func NewCouponHandlers(couponService services.CouponService) *CouponHandlers {
	return &CouponHandlers{couponService: couponService}
}

// RedeemCouponRequest names the client using the coupon
type RedeemCouponRequest struct {
	ClientID string `json:"client_id"`
}

// ListCoupons handles listing coupons
func (h *CouponHandlers) ListCoupons(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := common.ParsePagination(c)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	coupons, err := h.couponService.List(ctx, tenantID, limit, offset)
	if err != nil {
		return respondError(c, err, "coupon")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"coupons": coupons,
		"limit":   limit,
		"offset":  offset,
	})
}

// CreateCoupon handles creating a coupon
func (h *CouponHandlers) CreateCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.CouponRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	coupon, err := h.couponService.Create(ctx, tenantID, &req)
	if err != nil {
		return respondError(c, err, "coupon")
	}
	return c.JSON(http.StatusCreated, coupon)
}

// GetCoupon handles getting a coupon by ID
func (h *CouponHandlers) GetCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "coupon_id")
	if err != nil {
		return common.SendValidationError(c, "coupon_id", err.Error())
	}

	coupon, err := h.couponService.GetByID(ctx, tenantID, id)
	if err != nil {
		return respondError(c, err, "coupon")
	}
	return c.JSON(http.StatusOK, coupon)
}

// GetCouponByCode handles GET /coupons/code/:code
func (h *CouponHandlers) GetCouponByCode(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	coupon, err := h.couponService.GetByCode(ctx, tenantID, c.Param("code"))
	if err != nil {
		return respondError(c, err, "coupon")
	}
	return c.JSON(http.StatusOK, coupon)
}

// UpdateCoupon handles editing an unredeemed coupon
func (h *CouponHandlers) UpdateCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "coupon_id")
	if err != nil {
		return common.SendValidationError(c, "coupon_id", err.Error())
	}

	var req services.CouponRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	coupon, err := h.couponService.Update(ctx, tenantID, id, &req)
	if err != nil {
		return respondError(c, err, "coupon")
	}
	return c.JSON(http.StatusOK, coupon)
}

// DeleteCoupon handles deleting a coupon
func (h *CouponHandlers) DeleteCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "coupon_id")
	if err != nil {
		return common.SendValidationError(c, "coupon_id", err.Error())
	}

	if err := h.couponService.Delete(ctx, tenantID, id); err != nil {
		return respondError(c, err, "coupon")
	}
	return c.NoContent(http.StatusNoContent)
}

// RedeemCoupon handles POST /coupons/:id/redeem {client_id}
// @Summary Redeem coupon
// @Tags coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RedeemCouponRequest true "Client"
// @Success 200 {object} models.Coupon
// @Failure 409 {object} common.ErrorResponse "Already redeemed or expired"
// @Router /v1/coupons/{id}/redeem [post]
func (h *CouponHandlers) RedeemCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "coupon_id")
	if err != nil {
		return common.SendValidationError(c, "coupon_id", err.Error())
	}

	var req RedeemCouponRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	clientID, err := common.ValidateUUID(req.ClientID, "client_id")
	if err != nil {
		return common.SendValidationError(c, "client_id", err.Error())
	}

	coupon, err := h.couponService.Redeem(ctx, tenantID, id, clientID)
	if err != nil {
		return respondError(c, err, "coupon")
	}
	return c.JSON(http.StatusOK, coupon)
}
