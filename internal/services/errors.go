package services

import (
	"errors"
	"fmt"

	"glowdesk/internal/repositories"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("conflict")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrCouponRedeemed       = errors.New("coupon already redeemed")
	ErrCouponExpired        = errors.New("coupon expired")
	ErrCampaignNotEditable  = errors.New("campaign can no longer be changed")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrInvalidState         = errors.New("invalid or expired oauth state")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrUpstream             = errors.New("upstream service error")
	ErrRateLimited          = errors.New("too many attempts")
)

// ValidationError names the offending field. It unwraps to ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// fieldError wraps a common.Validate* error so handlers can still see the field.
func fieldError(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// repoError turns repository errors into service sentinels.
func repoError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case repositories.IsNotFound(err):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case repositories.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
