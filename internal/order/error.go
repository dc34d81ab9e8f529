package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrNoItems       = errors.New("order has no items")
	ErrCreateOrder   = errors.New("failed to create order")
)
