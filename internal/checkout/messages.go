package checkout

import (
	"fmt"
	"strings"

	"foodline-bot/internal/order"
	"foodline-bot/internal/user"
)

func orderConfirmationText(o *order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d accepted, total %.2f.\n", o.ID, o.Amount)
	fmt.Fprintf(&b, "Delivery to %s, %s.", o.Address, o.DeliveryTime)
	if o.DeliveryCost == 0 {
		b.WriteString(" Delivery is free.")
	} else {
		fmt.Fprintf(&b, " Delivery fee %.2f included.", o.DeliveryCost)
	}
	return b.String()
}

func operatorAlertText(o *order.Order, u *user.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order #%d from %s (%s).\n", o.ID, u.FirstName, o.Phone)
	fmt.Fprintf(&b, "Total %.2f, payment %s.\n", o.Amount, o.Payment)
	fmt.Fprintf(&b, "Address: %s, time: %s.", o.Address, o.DeliveryTime)
	if o.Comments != nil {
		fmt.Fprintf(&b, "\nComment: %s", *o.Comments)
	}
	return b.String()
}
