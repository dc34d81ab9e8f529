package cart

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("invalid cart quantity")
	ErrEntryNotFound      = errors.New("cart entry not found")
)
