package checkout

import "errors"

var (
	ErrAlreadyInCheckout   = errors.New("checkout already in progress")
	ErrNotInCheckout       = errors.New("no checkout step awaiting this input")
	ErrEmptyAddress        = errors.New("address must not be empty")
	ErrInvalidDeliveryTime = errors.New("unknown delivery time option")
	ErrInvalidPhone        = errors.New("phone must be at least 10 characters and contain a digit")
	ErrInvalidPayment      = errors.New("unknown payment method")
	ErrEmptyPromoCode      = errors.New("promo code must not be empty")
)
