package session

// State is the position of a user's conversation inside the checkout or
// promo-entry flow. Transitions are owned by the checkout package; the
// session package only stores the value.
type State int

const (
	StateIdle State = iota
	StateAwaitingAddress
	StateAwaitingDeliveryTime
	StateAwaitingCustomTime
	StateAwaitingPhone
	StateAwaitingCommentChoice
	StateAwaitingCommentText
	StateAwaitingPayment
	StateAwaitingPromoCode
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAddress:
		return "awaiting_address"
	case StateAwaitingDeliveryTime:
		return "awaiting_delivery_time"
	case StateAwaitingCustomTime:
		return "awaiting_custom_time"
	case StateAwaitingPhone:
		return "awaiting_phone"
	case StateAwaitingCommentChoice:
		return "awaiting_comment_choice"
	case StateAwaitingCommentText:
		return "awaiting_comment_text"
	case StateAwaitingPayment:
		return "awaiting_payment"
	case StateAwaitingPromoCode:
		return "awaiting_promo_code"
	default:
		return "unknown"
	}
}

// Draft is the transient order being assembled across checkout steps.
// It never outlives a finalized or cancelled flow.
type Draft struct {
	State State

	Address      string
	DeliveryTime string
	Phone        string
	Comments     *string
	Payment      string

	PromoCode    string
	PromoPercent int

	// Last quote shown to the user; the finalizer recomputes from the
	// live cart and never trusts these.
	TotalAmount  float64
	DeliveryCost float64
}
