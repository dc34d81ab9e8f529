package user

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrAlreadyPremium = errors.New("premium subscription already active")
)
