package promo

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("promo code not found or inactive")
	ErrExpired      = errors.New("promo code expired")
	ErrLimitReached = errors.New("promo code usage limit reached")
)

// BelowMinimumError rejects a code whose minimum order amount the cart
// does not meet. Callers render both amounts to the user.
type BelowMinimumError struct {
	Required float64
	Actual   float64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("order total %.0f below promo minimum %.0f", e.Actual, e.Required)
}
