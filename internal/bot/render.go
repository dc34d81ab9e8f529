package bot

import (
	"fmt"
	"strings"

	"foodline-bot/internal/cart"
	"foodline-bot/internal/catalog"
	"foodline-bot/internal/checkout"
	"foodline-bot/internal/order"
	"foodline-bot/internal/pricing"
	"foodline-bot/internal/promo"
	"foodline-bot/internal/review"
	"foodline-bot/internal/user"
)

const (
	msgSomethingWrong = "Something went wrong, please try again."
	msgCartEmpty      = "Your cart is empty."
	msgCartCleared    = "Cart cleared."
	msgCancelled      = "Checkout cancelled. Your cart is untouched."
)

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func renderMenu(firstName string, categories []string) *Reply {
	var rows [][]Button
	var row []Button
	for _, c := range categories {
		row = append(row, Button{Label: c, Data: "category:" + c})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		[]Button{{Label: "Popular", Data: "popular"}, {Label: "Cart", Data: "cart"}},
		[]Button{{Label: "My orders", Data: "orders"}, {Label: "Reviews", Data: "reviews"}},
		[]Button{{Label: "Promotions", Data: "promotions"}, {Label: "Promo code", Data: "promo"}},
		[]Button{{Label: "Profile", Data: "profile"}},
	)

	text := "What would you like to order?"
	if firstName != "" {
		text = fmt.Sprintf("Hi %s! %s", firstName, text)
	}
	return &Reply{Text: text, Keyboard: rows}
}

func renderProducts(title string, products []*catalog.Product) *Reply {
	if len(products) == 0 {
		return &Reply{Text: "Nothing here yet.", Keyboard: [][]Button{{{Label: "Back to menu", Data: "menu"}}}}
	}

	var rows [][]Button
	for _, p := range products {
		rows = append(rows, []Button{{
			Label: fmt.Sprintf("%s - %s", p.Name, money(p.Price)),
			Data:  fmt.Sprintf("product:%d", p.ID),
		}})
	}
	rows = append(rows, []Button{{Label: "Back to menu", Data: "menu"}})

	return &Reply{Text: title, Keyboard: rows}
}

func renderProductCard(p *catalog.Product, inCart int) *Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\nPrice: %s", p.Name, p.Description, money(p.Price))
	if inCart > 0 {
		fmt.Fprintf(&b, "\nIn your cart: x%d", inCart)
	}
	if !p.Available {
		b.WriteString("\n\nCurrently unavailable.")
		return &Reply{Text: b.String(), Keyboard: [][]Button{{{Label: "Back to menu", Data: "menu"}}}}
	}

	return &Reply{
		Text: b.String(),
		Keyboard: [][]Button{
			{{Label: "Add to cart", Data: fmt.Sprintf("add:%d", p.ID)}},
			{{Label: "Back to menu", Data: "menu"}},
		},
	}
}

func renderCart(entries []cart.Entry, receipt pricing.Receipt) *Reply {
	if len(entries) == 0 {
		return &Reply{Text: msgCartEmpty, Keyboard: [][]Button{{{Label: "Back to menu", Data: "menu"}}}}
	}

	var b strings.Builder
	b.WriteString("Your cart:\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s x%d = %s\n", e.Name, e.Quantity, money(e.LineTotal()))
	}
	b.WriteString("\n")
	writeReceipt(&b, receipt)

	var rows [][]Button
	for _, e := range entries {
		rows = append(rows, []Button{
			{Label: "-", Data: fmt.Sprintf("dec:%d", e.ProductID)},
			{Label: fmt.Sprintf("%s x%d", e.Name, e.Quantity), Data: fmt.Sprintf("product:%d", e.ProductID)},
			{Label: "+", Data: fmt.Sprintf("inc:%d", e.ProductID)},
		})
	}
	rows = append(rows,
		[]Button{{Label: "Checkout", Data: "checkout"}},
		[]Button{{Label: "Clear cart", Data: "clear"}, {Label: "Back to menu", Data: "menu"}},
	)

	return &Reply{Text: b.String(), Keyboard: rows}
}

func writeReceipt(b *strings.Builder, r pricing.Receipt) {
	fmt.Fprintf(b, "Subtotal: %s\n", money(r.Subtotal))
	if r.PromoDiscount > 0 {
		fmt.Fprintf(b, "Promo discount: -%s\n", money(r.PromoDiscount))
	}
	if r.PremiumDiscount > 0 {
		fmt.Fprintf(b, "Premium discount: -%s\n", money(r.PremiumDiscount))
	}
	if r.DeliveryCost > 0 {
		fmt.Fprintf(b, "Delivery: %s\n", money(r.DeliveryCost))
	} else {
		b.WriteString("Delivery: free\n")
	}
	fmt.Fprintf(b, "Total: %s", money(r.GrandTotal))
}

func renderOrderPlaced(res *checkout.Result) *Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d accepted!\n\n", res.Order.ID)
	writeReceipt(&b, res.Receipt)
	fmt.Fprintf(&b, "\n\nDelivery to %s, %s.", res.Order.Address, res.Order.DeliveryTime)

	return &Reply{Text: b.String(), Keyboard: [][]Button{{{Label: "Back to menu", Data: "menu"}}}}
}

func renderOrders(orders []order.Order) *Reply {
	if len(orders) == 0 {
		return &Reply{Text: "You have no orders yet.", Keyboard: [][]Button{{{Label: "Back to menu", Data: "menu"}}}}
	}

	var rows [][]Button
	for _, o := range orders {
		rows = append(rows, []Button{{
			Label: fmt.Sprintf("#%d - %s - %s", o.ID, money(o.Amount), o.Status),
			Data:  fmt.Sprintf("order:%d", o.ID),
		}})
	}
	rows = append(rows, []Button{{Label: "Back to menu", Data: "menu"}})

	return &Reply{Text: "Your recent orders:", Keyboard: rows}
}

func renderOrderDetail(d *order.Detail) *Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d (%s)\n\n", d.ID, d.Status)
	for _, it := range d.Items {
		fmt.Fprintf(&b, "%s x%d = %s\n", it.Name, it.Quantity, money(it.Price*float64(it.Quantity)))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", money(d.Amount))
	fmt.Fprintf(&b, "Address: %s\nTime: %s", d.Address, d.DeliveryTime)

	return &Reply{
		Text: b.String(),
		Keyboard: [][]Button{
			{{Label: "Repeat this order", Data: fmt.Sprintf("reorder:%d", d.ID)}},
			{{Label: "Back to menu", Data: "menu"}},
		},
	}
}

func renderReviews(reviews []review.Review, summary *review.Summary) *Reply {
	var b strings.Builder
	if summary.Count == 0 {
		b.WriteString("No reviews yet. Be the first!")
	} else {
		fmt.Fprintf(&b, "Rating %.1f from %d reviews.\n\n", summary.Average, summary.Count)
		for _, r := range reviews {
			fmt.Fprintf(&b, "%s: %d/5", r.UserName, r.Rating)
			if r.Comment != nil {
				fmt.Fprintf(&b, " - %s", *r.Comment)
			}
			b.WriteString("\n")
		}
	}

	rate := make([]Button, 0, 5)
	for i := 1; i <= 5; i++ {
		rate = append(rate, Button{Label: fmt.Sprintf("%d", i), Data: fmt.Sprintf("rate:%d", i)})
	}

	return &Reply{
		Text: b.String(),
		Keyboard: [][]Button{
			rate,
			{{Label: "Back to menu", Data: "menu"}},
		},
	}
}

func renderPromotions(promos []promo.Promo) *Reply {
	if len(promos) == 0 {
		return &Reply{
			Text:     "No promotions running right now. Check back later!",
			Keyboard: [][]Button{{{Label: "Back to menu", Data: "menu"}}},
		}
	}

	var b strings.Builder
	b.WriteString("Current promotions:\n\n")
	for _, p := range promos {
		fmt.Fprintf(&b, "%s: %d%% off", p.Code, p.DiscountPercent)
		if p.MinOrderAmount > 0 {
			fmt.Fprintf(&b, " on orders from %s", money(p.MinOrderAmount))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nSend a code via the Promo code button to apply it.")

	return &Reply{
		Text: b.String(),
		Keyboard: [][]Button{
			{{Label: "Enter promo code", Data: "promo"}},
			{{Label: "Back to menu", Data: "menu"}},
		},
	}
}

func renderProfile(u *user.User) *Reply {
	tier := u.Loyalty()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", u.FirstName)
	fmt.Fprintf(&b, "Orders: %d\nSpent: %s\n", u.OrdersCount, money(u.TotalSpent))
	fmt.Fprintf(&b, "Loyalty tier: %s (%d%% off)\n", tier.Name, tier.DiscountPercent)
	if tier.NextTierAt > 0 {
		fmt.Fprintf(&b, "Spend %s more to reach the next tier.\n", money(tier.NextTierAt-u.TotalSpent))
	}
	if u.Premium {
		b.WriteString("\nPremium is active.")
	} else {
		b.WriteString("\nPremium gives you an extra discount on every order.")
	}

	rows := [][]Button{}
	if !u.Premium {
		rows = append(rows, []Button{{Label: "Get premium", Data: "premium:buy"}})
	}
	rows = append(rows, []Button{{Label: "Back to menu", Data: "menu"}})

	return &Reply{Text: b.String(), Keyboard: rows}
}

func promptAddress() *Reply {
	return &Reply{
		Text:     "Where should we deliver? Send the address as text.",
		Keyboard: [][]Button{{{Label: "Cancel", Data: "cancel"}}},
	}
}

func promptDeliveryTime() *Reply {
	return &Reply{
		Text: "When should we deliver?",
		Keyboard: [][]Button{
			{{Label: "As soon as possible", Data: "time:asap"}},
			{{Label: "Within an hour", Data: "time:1h"}, {Label: "Within two hours", Data: "time:2h"}},
			{{Label: "Another time", Data: "time:custom"}},
			{{Label: "Cancel", Data: "cancel"}},
		},
	}
}

func promptCustomTime() *Reply {
	return &Reply{
		Text:     "Send the delivery time as text.",
		Keyboard: [][]Button{{{Label: "Cancel", Data: "cancel"}}},
	}
}

func promptPhone() *Reply {
	return &Reply{
		Text:     "Send a contact phone number.",
		Keyboard: [][]Button{{{Label: "Cancel", Data: "cancel"}}},
	}
}

func promptComment() *Reply {
	return &Reply{
		Text: "Add a comment to the order?",
		Keyboard: [][]Button{
			{{Label: "Yes", Data: "comment:yes"}, {Label: "No", Data: "comment:no"}},
			{{Label: "Cancel", Data: "cancel"}},
		},
	}
}

func promptCommentText() *Reply {
	return &Reply{
		Text:     "Send the comment as text.",
		Keyboard: [][]Button{{{Label: "Cancel", Data: "cancel"}}},
	}
}

func promptPayment(receipt pricing.Receipt) *Reply {
	var b strings.Builder
	writeReceipt(&b, receipt)
	b.WriteString("\n\nHow would you like to pay?")

	return &Reply{
		Text: b.String(),
		Keyboard: [][]Button{
			{{Label: "Online", Data: "pay:online"}},
			{{Label: "Cash", Data: "pay:cash"}, {Label: "Card on delivery", Data: "pay:card"}},
			{{Label: "Cancel", Data: "cancel"}},
		},
	}
}

func promptPromoCode() *Reply {
	return &Reply{
		Text:     "Send the promo code as text.",
		Keyboard: [][]Button{{{Label: "Cancel", Data: "cancel"}}},
	}
}
