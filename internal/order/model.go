package order

import "time"

// Order statuses follow the kitchen's lifecycle. Operators move orders
// forward through the ops API; "new" is the only status the checkout
// flow ever writes.
const (
	StatusNew        = "new"
	StatusConfirmed  = "confirmed"
	StatusCooking    = "cooking"
	StatusDelivering = "delivering"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var validStatuses = map[string]bool{
	StatusNew:        true,
	StatusConfirmed:  true,
	StatusCooking:    true,
	StatusDelivering: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

type Order struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Amount       float64   `json:"amount"`
	DeliveryCost float64   `json:"delivery_cost"`
	Address      string    `json:"address"`
	DeliveryTime string    `json:"delivery_time"`
	Phone        string    `json:"phone"`
	Comments     *string   `json:"comments,omitempty"`
	Payment      string    `json:"payment"`
	PromoCode    *string   `json:"promo_code,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Item is an order line with the price frozen at checkout time. Later
// catalog price changes never touch past orders.
type Item struct {
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Detail is an order together with its frozen lines.
type Detail struct {
	Order
	Items []Item `json:"items"`
}
