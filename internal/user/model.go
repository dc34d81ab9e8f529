package user

import "time"

type User struct {
	ID          int64
	Username    string
	FirstName   string
	Phone       *string
	Premium     bool
	OrdersCount int
	TotalSpent  float64
	CreatedAt   time.Time
}

// HasPhone reports whether a usable phone number is on file.
func (u *User) HasPhone() bool {
	return u.Phone != nil && *u.Phone != ""
}

// LoyaltyTier is derived from lifetime spend, never stored.
type LoyaltyTier struct {
	Name            string
	DiscountPercent int
	NextTierAt      float64 // 0 when the top tier is reached
}

func (u *User) Loyalty() LoyaltyTier {
	switch {
	case u.TotalSpent >= 10000:
		return LoyaltyTier{Name: "gold", DiscountPercent: 15}
	case u.TotalSpent >= 5000:
		return LoyaltyTier{Name: "silver", DiscountPercent: 10, NextTierAt: 10000}
	case u.TotalSpent >= 1000:
		return LoyaltyTier{Name: "bronze", DiscountPercent: 5, NextTierAt: 5000}
	default:
		return LoyaltyTier{Name: "starter", DiscountPercent: 0, NextTierAt: 1000}
	}
}
