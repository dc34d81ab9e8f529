package promo

import (
	"strings"
	"time"
)

type Promo struct {
	Code            string
	DiscountPercent int
	DiscountAmount  float64
	MinOrderAmount  float64
	UsageLimit      int // 0 = unlimited
	UsedCount       int
	ExpiresAt       *time.Time
	Active          bool
}

// Normalize canonicalizes user-entered codes: codes match
// case-insensitively and ignore surrounding whitespace.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
