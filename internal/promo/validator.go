package promo

import (
	"context"
	"time"
)

// Validator checks a code against the current cart. Validation never
// consumes a use; redemption happens inside the order transaction when
// checkout finalizes.
type Validator interface {
	// Validate runs the eligibility checks in order; the first failure
	// wins: existence/active, expiry, usage limit, minimum order amount.
	Validate(ctx context.Context, code string, cartSubtotal float64, now time.Time) (*Promo, error)
}

type validator struct {
	repo Repository
}

func NewValidator(repo Repository) Validator {
	return &validator{repo: repo}
}

func (v *validator) Validate(ctx context.Context, code string, cartSubtotal float64, now time.Time) (*Promo, error) {
	p, err := v.repo.GetByCode(ctx, Normalize(code))
	if err != nil {
		return nil, err
	}

	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return nil, ErrExpired
	}

	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return nil, ErrLimitReached
	}

	if cartSubtotal < p.MinOrderAmount {
		return nil, &BelowMinimumError{Required: p.MinOrderAmount, Actual: cartSubtotal}
	}

	return p, nil
}
