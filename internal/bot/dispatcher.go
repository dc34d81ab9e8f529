package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"foodline-bot/internal/cart"
	"foodline-bot/internal/catalog"
	"foodline-bot/internal/checkout"
	"foodline-bot/internal/logger"
	"foodline-bot/internal/metrics"
	"foodline-bot/internal/order"
	"foodline-bot/internal/promo"
	"foodline-bot/internal/review"
	"foodline-bot/internal/session"
	"foodline-bot/internal/user"
)

const popularLimit = 6

// Dispatcher routes chat events to the domain services and renders the
// replies. Events for one user run strictly one at a time under the
// session lock; the flow state decides what free text means.
type Dispatcher struct {
	users    user.Service
	products catalog.Service
	carts    cart.Service
	orders   order.Service
	reviews  review.Service
	promos   promo.Lister
	flow     *checkout.Flow
	sessions *session.Store
	registry *metrics.Registry
}

func NewDispatcher(
	users user.Service,
	products catalog.Service,
	carts cart.Service,
	orders order.Service,
	reviews review.Service,
	promos promo.Lister,
	flow *checkout.Flow,
	sessions *session.Store,
	registry *metrics.Registry,
) *Dispatcher {
	return &Dispatcher{
		users:    users,
		products: products,
		carts:    carts,
		orders:   orders,
		reviews:  reviews,
		promos:   promos,
		flow:     flow,
		sessions: sessions,
		registry: registry,
	}
}

func (d *Dispatcher) HandleEvent(ctx context.Context, ev Event) *Reply {
	l := d.sessions.Lock(ev.UserID)
	l.Lock()
	defer l.Unlock()

	d.registry.EventsHandled.Inc()
	ctx = logger.WithUserID(ctx, ev.UserID)

	u, err := d.users.GetOrCreate(ctx, ev.UserID, ev.Username, ev.FirstName)
	if err != nil {
		return d.fail(ctx, err)
	}

	switch {
	case ev.Command != "":
		return d.handleCommand(ctx, u, ev)
	case ev.Callback != "":
		return d.handleCallback(ctx, u, ev)
	default:
		return d.handleText(ctx, u, ev)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, u *user.User, ev Event) *Reply {
	cmd, arg, _ := strings.Cut(strings.TrimPrefix(ev.Command, "/"), " ")

	switch cmd {
	case "start", "menu":
		return d.showMenu(ctx, u)
	case "cart":
		return d.showCart(ctx, u)
	case "orders":
		return d.showOrders(ctx, u)
	case "reviews":
		return d.showReviews(ctx)
	case "review":
		return d.addReview(ctx, u, arg)
	case "profile", "premium":
		return renderProfile(u)
	case "promo":
		return d.startPromo(ctx, u)
	case "promotions", "deals":
		return d.showPromotions(ctx)
	case "search":
		return d.search(ctx, arg)
	case "cancel":
		d.flow.Cancel(ctx, u.ID)
		return &Reply{Text: msgCancelled}
	default:
		return &Reply{Text: "Unknown command. Try /menu."}
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, u *user.User, ev Event) *Reply {
	action, arg, _ := strings.Cut(ev.Callback, ":")

	switch action {
	case "menu":
		return d.showMenu(ctx, u)
	case "popular":
		products, err := d.products.PopularProducts(ctx, popularLimit)
		if err != nil {
			return d.fail(ctx, err)
		}
		return renderProducts("Our bestsellers:", products)
	case "category":
		products, err := d.products.ProductsByCategory(ctx, arg)
		if err != nil {
			return d.fail(ctx, err)
		}
		return renderProducts(arg+":", products)
	case "product":
		return d.showProduct(ctx, u, arg)
	case "add":
		return d.addToCart(ctx, u, arg)
	case "inc", "dec", "del":
		return d.changeQuantity(ctx, u, action, arg)
	case "cart":
		return d.showCart(ctx, u)
	case "clear":
		return d.clearCart(ctx, u)
	case "checkout":
		return d.startCheckout(ctx, u)
	case "cancel":
		d.flow.Cancel(ctx, u.ID)
		return &Reply{Text: msgCancelled}
	case "time":
		return d.chooseTime(ctx, u, arg)
	case "comment":
		return d.chooseComment(ctx, u, arg == "yes")
	case "pay":
		return d.pay(ctx, u, arg)
	case "orders":
		return d.showOrders(ctx, u)
	case "order":
		return d.showOrder(ctx, u, arg)
	case "reorder":
		return d.reorder(ctx, u, arg)
	case "reviews":
		return d.showReviews(ctx)
	case "rate":
		return d.addReview(ctx, u, arg)
	case "profile":
		return renderProfile(u)
	case "premium":
		return d.buyPremium(ctx, u)
	case "promo":
		return d.startPromo(ctx, u)
	case "promotions":
		return d.showPromotions(ctx)
	default:
		return &Reply{Text: "This button has expired. Try /menu."}
	}
}

// handleText interprets free text through the flow state. Outside of any
// flow, text is a catalog search.
func (d *Dispatcher) handleText(ctx context.Context, u *user.User, ev Event) *Reply {
	switch d.flow.State(u.ID) {
	case session.StateAwaitingAddress:
		draft, err := d.flow.SubmitAddress(ctx, u.ID, ev.Text)
		if err != nil {
			return d.fail(ctx, err)
		}
		return d.promptFor(ctx, u, draft)
	case session.StateAwaitingCustomTime:
		draft, err := d.flow.SubmitCustomTime(ctx, u.ID, ev.Text)
		if err != nil {
			return d.fail(ctx, err)
		}
		return d.promptFor(ctx, u, draft)
	case session.StateAwaitingPhone:
		draft, err := d.flow.SubmitPhone(ctx, u.ID, ev.Text)
		if err != nil {
			return d.fail(ctx, err)
		}
		return d.promptFor(ctx, u, draft)
	case session.StateAwaitingCommentText:
		draft, err := d.flow.SubmitComment(ctx, u.ID, ev.Text)
		if err != nil {
			return d.fail(ctx, err)
		}
		return d.promptFor(ctx, u, draft)
	case session.StateAwaitingPromoCode:
		return d.submitPromo(ctx, u, ev.Text)
	default:
		return d.search(ctx, ev.Text)
	}
}

// promptFor renders the question matching the draft's state after a
// successful transition.
func (d *Dispatcher) promptFor(ctx context.Context, u *user.User, draft *session.Draft) *Reply {
	switch draft.State {
	case session.StateAwaitingAddress:
		return promptAddress()
	case session.StateAwaitingDeliveryTime:
		return promptDeliveryTime()
	case session.StateAwaitingCustomTime:
		return promptCustomTime()
	case session.StateAwaitingPhone:
		return promptPhone()
	case session.StateAwaitingCommentChoice:
		return promptComment()
	case session.StateAwaitingCommentText:
		return promptCommentText()
	case session.StateAwaitingPayment:
		receipt, err := d.flow.Quote(ctx, u.ID)
		if err != nil {
			return d.fail(ctx, err)
		}
		return promptPayment(receipt)
	default:
		return d.showMenu(ctx, u)
	}
}

func (d *Dispatcher) showMenu(ctx context.Context, u *user.User) *Reply {
	categories, err := d.products.Categories(ctx)
	if err != nil {
		return d.fail(ctx, err)
	}
	return renderMenu(u.FirstName, categories)
}

func (d *Dispatcher) showProduct(ctx context.Context, u *user.User, arg string) *Reply {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return &Reply{Text: msgSomethingWrong}
	}

	p, err := d.products.Product(ctx, id)
	if err != nil {
		return d.fail(ctx, err)
	}

	inCart := 0
	entries, err := d.carts.GetCart(ctx, u.ID)
	if err != nil {
		return d.fail(ctx, err)
	}
	for _, e := range entries {
		if e.ProductID == p.ID {
			inCart = e.Quantity
			break
		}
	}
	return renderProductCard(p, inCart)
}

func (d *Dispatcher) addToCart(ctx context.Context, u *user.User, arg string) *Reply {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return &Reply{Text: msgSomethingWrong}
	}

	if err := d.carts.AddToCart(ctx, u.ID, id, 1); err != nil {
		return d.fail(ctx, err)
	}

	return &Reply{
		Text: "Added to cart.",
		Keyboard: [][]Button{
			{{Label: "Open cart", Data: "cart"}, {Label: "Back to menu", Data: "menu"}},
		},
	}
}

func (d *Dispatcher) changeQuantity(ctx context.Context, u *user.User, action, arg string) *Reply {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return &Reply{Text: msgSomethingWrong}
	}

	switch action {
	case "inc":
		err = d.carts.Increment(ctx, u.ID, id)
	case "dec":
		err = d.carts.Decrement(ctx, u.ID, id)
	case "del":
		err = d.carts.Remove(ctx, u.ID, id)
	}
	if err != nil {
		return d.fail(ctx, err)
	}

	return d.showCart(ctx, u)
}

func (d *Dispatcher) showCart(ctx context.Context, u *user.User) *Reply {
	entries, err := d.carts.GetCart(ctx, u.ID)
	if err != nil {
		return d.fail(ctx, err)
	}

	receipt, err := d.flow.Quote(ctx, u.ID)
	if err != nil {
		return d.fail(ctx, err)
	}
	return renderCart(entries, receipt)
}

// clearCart wipes the cart and the checkout draft together; a draft
// pointing at a cart that no longer exists would only confuse the flow.
func (d *Dispatcher) clearCart(ctx context.Context, u *user.User) *Reply {
	if err := d.carts.ClearCart(ctx, u.ID); err != nil {
		return d.fail(ctx, err)
	}
	d.sessions.Drop(u.ID)
	return &Reply{Text: msgCartCleared, Keyboard: [][]Button{{{Label: "Back to menu", Data: "menu"}}}}
}

func (d *Dispatcher) startCheckout(ctx context.Context, u *user.User) *Reply {
	if _, err := d.flow.Start(ctx, u.ID); err != nil {
		return d.fail(ctx, err)
	}
	return promptAddress()
}

func (d *Dispatcher) chooseTime(ctx context.Context, u *user.User, choice string) *Reply {
	draft, err := d.flow.ChooseDeliveryTime(ctx, u.ID, choice)
	if err != nil {
		return d.fail(ctx, err)
	}
	return d.promptFor(ctx, u, draft)
}

func (d *Dispatcher) chooseComment(ctx context.Context, u *user.User, wants bool) *Reply {
	draft, err := d.flow.ChooseComment(ctx, u.ID, wants)
	if err != nil {
		return d.fail(ctx, err)
	}
	return d.promptFor(ctx, u, draft)
}

func (d *Dispatcher) pay(ctx context.Context, u *user.User, method string) *Reply {
	res, err := d.flow.SelectPayment(ctx, u.ID, method)
	if err != nil {
		return d.fail(ctx, err)
	}

	d.registry.OrdersPlaced.Inc()
	return renderOrderPlaced(res)
}

func (d *Dispatcher) showOrders(ctx context.Context, u *user.User) *Reply {
	orders, err := d.orders.History(ctx, u.ID)
	if err != nil {
		return d.fail(ctx, err)
	}
	return renderOrders(orders)
}

func (d *Dispatcher) showOrder(ctx context.Context, u *user.User, arg string) *Reply {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return &Reply{Text: msgSomethingWrong}
	}

	detail, err := d.orders.Detail(ctx, u.ID, id)
	if err != nil {
		return d.fail(ctx, err)
	}
	return renderOrderDetail(detail)
}

// reorder puts a past order's items back into the cart at today's
// prices. Lines for products that vanished or went unavailable are
// skipped, not failed.
func (d *Dispatcher) reorder(ctx context.Context, u *user.User, arg string) *Reply {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return &Reply{Text: msgSomethingWrong}
	}

	detail, err := d.orders.Detail(ctx, u.ID, id)
	if err != nil {
		return d.fail(ctx, err)
	}

	skipped := 0
	for _, it := range detail.Items {
		err := d.carts.AddToCart(ctx, u.ID, it.ProductID, it.Quantity)
		switch {
		case err == nil:
		case errors.Is(err, cart.ErrProductNotFound), errors.Is(err, cart.ErrProductUnavailable):
			skipped++
		default:
			return d.fail(ctx, err)
		}
	}

	text := "Items added to your cart."
	if skipped > 0 {
		text = fmt.Sprintf("Items added to your cart, %d no longer available.", skipped)
	}
	return &Reply{
		Text:     text,
		Keyboard: [][]Button{{{Label: "Open cart", Data: "cart"}}},
	}
}

func (d *Dispatcher) showReviews(ctx context.Context) *Reply {
	summary, err := d.reviews.Summary(ctx)
	if err != nil {
		return d.fail(ctx, err)
	}

	list, err := d.reviews.ListReviews(ctx)
	if err != nil {
		return d.fail(ctx, err)
	}
	return renderReviews(list, summary)
}

// addReview parses "<rating> [comment...]".
func (d *Dispatcher) addReview(ctx context.Context, u *user.User, arg string) *Reply {
	ratingStr, comment, _ := strings.Cut(strings.TrimSpace(arg), " ")
	rating, err := strconv.Atoi(ratingStr)
	if err != nil {
		return d.fail(ctx, review.ErrInvalidRating)
	}

	if _, err := d.reviews.AddReview(ctx, u.ID, rating, strings.TrimSpace(comment)); err != nil {
		return d.fail(ctx, err)
	}
	return &Reply{Text: "Thanks for the review!"}
}

func (d *Dispatcher) buyPremium(ctx context.Context, u *user.User) *Reply {
	if err := d.users.PurchasePremium(ctx, u.ID); err != nil {
		return d.fail(ctx, err)
	}
	return &Reply{Text: "Premium is now active. The discount applies to your next order."}
}

func (d *Dispatcher) startPromo(ctx context.Context, u *user.User) *Reply {
	if _, err := d.flow.StartPromo(ctx, u.ID); err != nil {
		return d.fail(ctx, err)
	}
	return promptPromoCode()
}

func (d *Dispatcher) submitPromo(ctx context.Context, u *user.User, code string) *Reply {
	p, err := d.flow.SubmitPromoCode(ctx, u.ID, code)
	if err != nil {
		return d.fail(ctx, err)
	}
	return &Reply{
		Text: fmt.Sprintf("Code %s applied: %d%% off your next order.", p.Code, p.DiscountPercent),
	}
}

func (d *Dispatcher) showPromotions(ctx context.Context) *Reply {
	promos, err := d.promos.ListActive(ctx)
	if err != nil {
		return d.fail(ctx, err)
	}
	return renderPromotions(promos)
}

func (d *Dispatcher) search(ctx context.Context, query string) *Reply {
	products, err := d.products.SearchProducts(ctx, query)
	if err != nil {
		return d.fail(ctx, err)
	}
	if len(products) == 0 {
		return &Reply{
			Text:     "Nothing found. Try the menu instead.",
			Keyboard: [][]Button{{{Label: "Back to menu", Data: "menu"}}},
		}
	}
	return renderProducts("Found:", products)
}

// fail translates domain errors into user-facing text. Anything not
// recognized counts as an internal error.
func (d *Dispatcher) fail(ctx context.Context, err error) *Reply {
	var belowMin *promo.BelowMinimumError
	switch {
	case errors.Is(err, cart.ErrCartEmpty):
		return &Reply{Text: msgCartEmpty}
	case errors.Is(err, cart.ErrProductUnavailable):
		return &Reply{Text: "This item is currently unavailable."}
	case errors.Is(err, cart.ErrProductNotFound), errors.Is(err, catalog.ErrProductNotFound):
		return &Reply{Text: "This item is no longer on the menu."}
	case errors.Is(err, cart.ErrEntryNotFound):
		return &Reply{Text: "This item is not in your cart."}
	case errors.Is(err, order.ErrOrderNotFound):
		return &Reply{Text: "Order not found."}
	case errors.Is(err, user.ErrAlreadyPremium):
		return &Reply{Text: "You already have premium."}
	case errors.Is(err, review.ErrInvalidRating):
		return &Reply{Text: "Rating must be a number from 1 to 5."}
	case errors.Is(err, checkout.ErrAlreadyInCheckout):
		return &Reply{Text: "Please finish or cancel the current checkout first."}
	case errors.Is(err, checkout.ErrNotInCheckout):
		return &Reply{Text: "Nothing is waiting for that input. Try /menu."}
	case errors.Is(err, checkout.ErrEmptyAddress):
		return &Reply{Text: "The address cannot be empty, please try again."}
	case errors.Is(err, checkout.ErrInvalidDeliveryTime):
		return &Reply{Text: "Please pick a delivery time or send one as text."}
	case errors.Is(err, checkout.ErrInvalidPhone):
		return &Reply{Text: "That does not look like a phone number, please try again."}
	case errors.Is(err, checkout.ErrInvalidPayment):
		return &Reply{Text: "Please pick a payment method from the buttons."}
	case errors.Is(err, checkout.ErrEmptyPromoCode), errors.Is(err, promo.ErrNotFound):
		d.registry.PromoRejected.Inc()
		return &Reply{Text: "This promo code does not exist."}
	case errors.Is(err, promo.ErrExpired):
		d.registry.PromoRejected.Inc()
		return &Reply{Text: "This promo code has expired."}
	case errors.Is(err, promo.ErrLimitReached):
		d.registry.PromoRejected.Inc()
		return &Reply{Text: "This promo code has been fully used up."}
	case errors.As(err, &belowMin):
		d.registry.PromoRejected.Inc()
		return &Reply{Text: fmt.Sprintf(
			"This code needs an order of at least %s, your cart is at %s.",
			money(belowMin.Required), money(belowMin.Actual),
		)}
	default:
		d.registry.EventErrors.Inc()
		logger.FromCtx(ctx).Error("event handling failed", zap.Error(err))
		return &Reply{Text: msgSomethingWrong}
	}
}
