// Package pricing computes order totals from a cart snapshot. It is pure:
// no storage, no clock, no side effects, so the checkout flow can recompute
// a quote from the live cart at any point without observable drift.
package pricing

import (
	"math"

	"foodline-bot/internal/cart"
)

// Options carries the discount and delivery knobs for one quote.
type Options struct {
	// PromoPercent is the applied promo discount, 0..100. Zero means no promo.
	PromoPercent float64
	// Premium applies the subscriber discount on top of the promo discount.
	Premium bool
	// PremiumPercent is the subscriber discount, normally 10.
	PremiumPercent float64
	// FreeDeliveryThreshold waives the fee when the discounted total
	// reaches it. Delivery is free exactly at the threshold.
	FreeDeliveryThreshold float64
	DeliveryFee           float64
}

// Receipt is the result of one quote. All values are unrounded; use Round
// for display only, never for further arithmetic.
type Receipt struct {
	Subtotal        float64
	PromoDiscount   float64
	PremiumDiscount float64
	AfterDiscounts  float64
	DeliveryCost    float64
	GrandTotal      float64
}

// Quote prices a cart snapshot. Discounts compound sequentially: the promo
// percent applies to the subtotal, the premium percent to the post-promo
// value. Negative prices or quantities contribute nothing — the cart ledger
// never stores them, but the engine does not trust its input.
func Quote(entries []cart.Entry, opts Options) Receipt {
	var subtotal float64
	for _, e := range entries {
		if e.Price < 0 || e.Quantity < 0 {
			continue
		}
		subtotal += e.Price * float64(e.Quantity)
	}

	r := Receipt{Subtotal: subtotal}

	afterPromo := subtotal
	if pct := clampPercent(opts.PromoPercent); pct > 0 {
		r.PromoDiscount = subtotal * pct / 100
		afterPromo = subtotal - r.PromoDiscount
	}

	afterPremium := afterPromo
	if opts.Premium {
		pct := clampPercent(opts.PremiumPercent)
		r.PremiumDiscount = afterPromo * pct / 100
		afterPremium = afterPromo - r.PremiumDiscount
	}
	r.AfterDiscounts = afterPremium

	if afterPremium < opts.FreeDeliveryThreshold {
		r.DeliveryCost = opts.DeliveryFee
	}

	r.GrandTotal = afterPremium + r.DeliveryCost
	return r
}

func clampPercent(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Round converts an internal amount to whole currency units for display.
func Round(amount float64) int64 {
	return int64(math.Round(amount))
}
