package checkout

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"foodline-bot/internal/cart"
	"foodline-bot/internal/logger"
	"foodline-bot/internal/notify"
	"foodline-bot/internal/order"
	"foodline-bot/internal/pricing"
	"foodline-bot/internal/promo"
	"foodline-bot/internal/session"
	"foodline-bot/internal/user"
)

const (
	PaymentOnline = "online"
	PaymentCash   = "cash"
	PaymentCard   = "card"

	DeliveryCustom = "custom"
)

var validPayments = map[string]bool{
	PaymentOnline: true,
	PaymentCash:   true,
	PaymentCard:   true,
}

var deliveryPresets = map[string]string{
	"asap": "As soon as possible",
	"1h":   "Within an hour",
	"2h":   "Within two hours",
}

// transitions is the only source of truth for which state may follow
// which. Every operation moves the draft through this table; an input
// arriving in a state with no edge for it is rejected, never absorbed.
var transitions = map[session.State][]session.State{
	session.StateIdle:                  {session.StateAwaitingAddress, session.StateAwaitingPromoCode},
	session.StateAwaitingAddress:       {session.StateAwaitingDeliveryTime},
	session.StateAwaitingDeliveryTime:  {session.StateAwaitingCustomTime, session.StateAwaitingPhone, session.StateAwaitingCommentChoice},
	session.StateAwaitingCustomTime:    {session.StateAwaitingPhone, session.StateAwaitingCommentChoice},
	session.StateAwaitingPhone:         {session.StateAwaitingCommentChoice},
	session.StateAwaitingCommentChoice: {session.StateAwaitingCommentText, session.StateAwaitingPayment},
	session.StateAwaitingCommentText:   {session.StateAwaitingPayment},
	session.StateAwaitingPayment:       {},
	session.StateAwaitingPromoCode:     {session.StateIdle},
}

func canTransition(from, to session.State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Config carries the pricing knobs the flow needs to quote an order.
type Config struct {
	DeliveryFee            float64
	FreeDeliveryThreshold  float64
	PremiumDiscountPercent float64
}

// Result is a finalized order together with the receipt that produced
// its total.
type Result struct {
	Order   *order.Order
	Receipt pricing.Receipt
}

// Flow drives a user's draft through the checkout conversation. All
// methods expect the caller to hold the per-user session lock; the flow
// itself never serializes.
type Flow struct {
	sessions *session.Store
	carts    cart.Service
	users    user.Service
	promos   promo.Validator
	orders   order.Service
	notifier notify.Notifier
	cfg      Config

	now func() time.Time
}

func NewFlow(
	sessions *session.Store,
	carts cart.Service,
	users user.Service,
	promos promo.Validator,
	orders order.Service,
	notifier notify.Notifier,
	cfg Config,
) *Flow {
	return &Flow{
		sessions: sessions,
		carts:    carts,
		users:    users,
		promos:   promos,
		orders:   orders,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Start opens the checkout conversation. The cart must be non-empty and
// no other flow may be in progress. A promo already attached to the
// draft survives the restart.
func (f *Flow) Start(ctx context.Context, userID int64) (*session.Draft, error) {
	entries, err := f.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, cart.ErrCartEmpty
	}

	d := f.sessions.Get(userID)
	if d.State != session.StateIdle {
		return nil, ErrAlreadyInCheckout
	}

	promoCode, promoPercent := d.PromoCode, d.PromoPercent
	*d = session.Draft{
		State:        session.StateAwaitingAddress,
		PromoCode:    promoCode,
		PromoPercent: promoPercent,
	}

	logger.FromCtx(ctx).Info("checkout started", zap.Int64("user_id", userID))
	return d, nil
}

func (f *Flow) SubmitAddress(ctx context.Context, userID int64, text string) (*session.Draft, error) {
	d, err := f.draftIn(userID, session.StateAwaitingAddress)
	if err != nil {
		return nil, err
	}

	address := strings.TrimSpace(text)
	if address == "" {
		return nil, ErrEmptyAddress
	}

	d.Address = address
	d.State = session.StateAwaitingDeliveryTime
	return d, nil
}

// ChooseDeliveryTime accepts one of the preset keys or "custom". A
// preset advances the flow; "custom" loops into a free-text step.
func (f *Flow) ChooseDeliveryTime(ctx context.Context, userID int64, choice string) (*session.Draft, error) {
	d, err := f.draftIn(userID, session.StateAwaitingDeliveryTime)
	if err != nil {
		return nil, err
	}

	if choice == DeliveryCustom {
		d.State = session.StateAwaitingCustomTime
		return d, nil
	}

	label, ok := deliveryPresets[choice]
	if !ok {
		return nil, ErrInvalidDeliveryTime
	}

	d.DeliveryTime = label
	return d, f.advancePastDeliveryTime(ctx, userID, d)
}

func (f *Flow) SubmitCustomTime(ctx context.Context, userID int64, text string) (*session.Draft, error) {
	d, err := f.draftIn(userID, session.StateAwaitingCustomTime)
	if err != nil {
		return nil, err
	}

	t := strings.TrimSpace(text)
	if t == "" {
		return nil, ErrInvalidDeliveryTime
	}

	d.DeliveryTime = t
	return d, f.advancePastDeliveryTime(ctx, userID, d)
}

// advancePastDeliveryTime skips the phone step for users with a phone
// already on file.
func (f *Flow) advancePastDeliveryTime(ctx context.Context, userID int64, d *session.Draft) error {
	u, err := f.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	if u.HasPhone() {
		d.Phone = *u.Phone
		d.State = session.StateAwaitingCommentChoice
		return nil
	}

	d.State = session.StateAwaitingPhone
	return nil
}

// SubmitPhone validates and stores the number, persisting it to the
// profile so the next checkout skips this step.
func (f *Flow) SubmitPhone(ctx context.Context, userID int64, text string) (*session.Draft, error) {
	d, err := f.draftIn(userID, session.StateAwaitingPhone)
	if err != nil {
		return nil, err
	}

	phone := strings.TrimSpace(text)
	if !validPhone(phone) {
		return nil, ErrInvalidPhone
	}

	if err := f.users.SavePhone(ctx, userID, phone); err != nil {
		return nil, err
	}

	d.Phone = phone
	d.State = session.StateAwaitingCommentChoice
	return d, nil
}

func (f *Flow) ChooseComment(ctx context.Context, userID int64, wantsComment bool) (*session.Draft, error) {
	d, err := f.draftIn(userID, session.StateAwaitingCommentChoice)
	if err != nil {
		return nil, err
	}

	if wantsComment {
		d.State = session.StateAwaitingCommentText
		return d, nil
	}

	d.Comments = nil
	d.State = session.StateAwaitingPayment
	return d, nil
}

func (f *Flow) SubmitComment(ctx context.Context, userID int64, text string) (*session.Draft, error) {
	d, err := f.draftIn(userID, session.StateAwaitingCommentText)
	if err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(text)
	if comment != "" {
		d.Comments = &comment
	}
	d.State = session.StateAwaitingPayment
	return d, nil
}

// Quote prices the live cart under the draft's promo and the user's
// premium flag. Display only; the finalizer recomputes.
func (f *Flow) Quote(ctx context.Context, userID int64) (pricing.Receipt, error) {
	entries, err := f.carts.GetCart(ctx, userID)
	if err != nil {
		return pricing.Receipt{}, err
	}

	u, err := f.users.Get(ctx, userID)
	if err != nil {
		return pricing.Receipt{}, err
	}

	d := f.sessions.Get(userID)
	return pricing.Quote(entries, f.options(d, u)), nil
}

// SelectPayment records the method and finalizes the order in one step.
// The total is recomputed from the live cart and the order lands in a
// single transaction together with the promo redemption and the cart
// wipe, so a failed persist never burns a promo use. A persistence
// failure leaves cart and draft intact so the user can retry;
// notification failures never fail the checkout.
func (f *Flow) SelectPayment(ctx context.Context, userID int64, method string) (*Result, error) {
	d, err := f.draftIn(userID, session.StateAwaitingPayment)
	if err != nil {
		return nil, err
	}
	if !validPayments[method] {
		return nil, ErrInvalidPayment
	}
	d.Payment = method

	log := logger.FromCtx(ctx).With(zap.Int64("user_id", userID))

	entries, err := f.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		f.sessions.Drop(userID)
		return nil, cart.ErrCartEmpty
	}

	u, err := f.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	subtotal := cart.Subtotal(entries)

	// Re-check the promo against the live subtotal. A rejection drops
	// the code from the draft; the user stays on the payment step and
	// can retry without it. The use itself is consumed inside the order
	// transaction below.
	var promoCode *string
	if d.PromoCode != "" {
		p, err := f.promos.Validate(ctx, d.PromoCode, subtotal, f.now())
		if err != nil {
			log.Warn("promo rejected at finalize",
				zap.String("code", d.PromoCode),
				zap.Error(err),
			)
			d.PromoCode = ""
			d.PromoPercent = 0
			return nil, err
		}
		d.PromoPercent = p.DiscountPercent
		promoCode = &p.Code
	}

	receipt := pricing.Quote(entries, f.options(d, u))

	o := &order.Order{
		UserID:       userID,
		Amount:       receipt.GrandTotal,
		DeliveryCost: receipt.DeliveryCost,
		Address:      d.Address,
		DeliveryTime: d.DeliveryTime,
		Phone:        d.Phone,
		Comments:     d.Comments,
		Payment:      d.Payment,
		PromoCode:    promoCode,
	}

	items := make([]order.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, order.Item{
			ProductID: e.ProductID,
			Name:      e.Name,
			Price:     e.Price,
			Quantity:  e.Quantity,
		})
	}

	if err := f.orders.Create(ctx, o, items); err != nil {
		// A code spent by a concurrent checkout rolls the order back;
		// detach it so the retry goes through without the discount.
		if errors.Is(err, promo.ErrLimitReached) {
			log.Warn("promo spent at finalize", zap.String("code", d.PromoCode))
			d.PromoCode = ""
			d.PromoPercent = 0
			return nil, err
		}
		log.Error("order persistence failed, cart and draft preserved", zap.Error(err))
		return nil, err
	}

	d.TotalAmount = receipt.GrandTotal
	d.DeliveryCost = receipt.DeliveryCost
	f.sessions.Drop(userID)

	if err := f.notifier.SendToUser(ctx, userID, orderConfirmationText(o)); err != nil {
		log.Warn("user notification failed", zap.Error(err))
	}
	if err := f.notifier.SendToOperators(ctx, operatorAlertText(o, u)); err != nil {
		log.Warn("operator notification failed", zap.Error(err))
	}

	log.Info("checkout finalized",
		zap.Int64("order_id", o.ID),
		zap.Float64("amount", o.Amount),
	)

	return &Result{Order: o, Receipt: receipt}, nil
}

// Cancel abandons the flow from any state. The draft is destroyed, the
// cart is untouched.
func (f *Flow) Cancel(ctx context.Context, userID int64) {
	if _, ok := f.sessions.Peek(userID); ok {
		f.sessions.Drop(userID)
		logger.FromCtx(ctx).Info("checkout cancelled", zap.Int64("user_id", userID))
	}
}

// StartPromo opens the promo entry prompt outside of checkout.
func (f *Flow) StartPromo(ctx context.Context, userID int64) (*session.Draft, error) {
	d := f.sessions.Get(userID)
	if !canTransition(d.State, session.StateAwaitingPromoCode) {
		return nil, ErrAlreadyInCheckout
	}

	d.State = session.StateAwaitingPromoCode
	return d, nil
}

// SubmitPromoCode checks the code against the current cart and, on
// success, attaches it to the draft. No use is consumed until checkout
// finalizes.
func (f *Flow) SubmitPromoCode(ctx context.Context, userID int64, code string) (*promo.Promo, error) {
	d, err := f.draftIn(userID, session.StateAwaitingPromoCode)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyPromoCode
	}

	entries, err := f.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err := f.promos.Validate(ctx, code, cart.Subtotal(entries), f.now())
	if err != nil {
		return nil, err
	}

	d.PromoCode = p.Code
	d.PromoPercent = p.DiscountPercent
	d.State = session.StateIdle
	return p, nil
}

// State reports the draft's current position for dispatching free-text
// input.
func (f *Flow) State(userID int64) session.State {
	d, ok := f.sessions.Peek(userID)
	if !ok {
		return session.StateIdle
	}
	return d.State
}

func (f *Flow) draftIn(userID int64, want session.State) (*session.Draft, error) {
	d, ok := f.sessions.Peek(userID)
	if !ok || d.State != want {
		return nil, ErrNotInCheckout
	}
	return d, nil
}

func (f *Flow) options(d *session.Draft, u *user.User) pricing.Options {
	return pricing.Options{
		PromoPercent:          float64(d.PromoPercent),
		Premium:               u.Premium,
		PremiumPercent:        f.cfg.PremiumDiscountPercent,
		FreeDeliveryThreshold: f.cfg.FreeDeliveryThreshold,
		DeliveryFee:           f.cfg.DeliveryFee,
	}
}

// validPhone accepts any string of at least 10 characters containing a
// digit. Formats vary too much across regions for anything stricter.
func validPhone(s string) bool {
	if len(s) < 10 {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
