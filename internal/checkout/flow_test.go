package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foodline-bot/internal/cart"
	"foodline-bot/internal/order"
	"foodline-bot/internal/promo"
	"foodline-bot/internal/session"
	"foodline-bot/internal/user"
)

// MockCartService is a mock implementation of the cart.Service interface
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) AddToCart(ctx context.Context, userID, productID int64, qty int) error {
	args := m.Called(ctx, userID, productID, qty)
	return args.Error(0)
}

func (m *MockCartService) Increment(ctx context.Context, userID, productID int64) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *MockCartService) Decrement(ctx context.Context, userID, productID int64) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *MockCartService) Remove(ctx context.Context, userID, productID int64) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *MockCartService) GetCart(ctx context.Context, userID int64) ([]cart.Entry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.Entry), args.Error(1)
}

func (m *MockCartService) ClearCart(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockUserService is a mock implementation of the user.Service interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetOrCreate(ctx context.Context, id int64, username, firstName string) (*user.User, error) {
	args := m.Called(ctx, id, username, firstName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) SavePhone(ctx context.Context, id int64, phone string) error {
	args := m.Called(ctx, id, phone)
	return args.Error(0)
}

func (m *MockUserService) PurchasePremium(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPromoValidator is a mock implementation of the promo.Validator interface
type MockPromoValidator struct {
	mock.Mock
}

func (m *MockPromoValidator) Validate(ctx context.Context, code string, subtotal float64, now time.Time) (*promo.Promo, error) {
	args := m.Called(ctx, code, subtotal, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promo.Promo), args.Error(1)
}

// MockOrderService is a mock implementation of the order.Service interface
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, o *order.Order, items []order.Item) error {
	args := m.Called(ctx, o, items)
	return args.Error(0)
}

func (m *MockOrderService) History(ctx context.Context, userID int64) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) Detail(ctx context.Context, userID, orderID int64) (*order.Detail, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Detail), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*order.Detail, error) {
	args := m.Called(ctx, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Detail), args.Error(1)
}

func (m *MockOrderService) ActiveOrders(ctx context.Context) ([]order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

// MockNotifier is a mock implementation of the notify.Notifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendToUser(ctx context.Context, userID int64, text string) error {
	args := m.Called(ctx, userID, text)
	return args.Error(0)
}

func (m *MockNotifier) SendToOperators(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

type flowFixture struct {
	flow     *Flow
	sessions *session.Store
	carts    *MockCartService
	users    *MockUserService
	promos   *MockPromoValidator
	orders   *MockOrderService
	notifier *MockNotifier
	now      time.Time
}

func newFlowFixture() *flowFixture {
	fx := &flowFixture{
		sessions: session.NewStore(time.Minute),
		carts:    new(MockCartService),
		users:    new(MockUserService),
		promos:   new(MockPromoValidator),
		orders:   new(MockOrderService),
		notifier: new(MockNotifier),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	fx.flow = NewFlow(fx.sessions, fx.carts, fx.users, fx.promos, fx.orders, fx.notifier, Config{
		DeliveryFee:            150,
		FreeDeliveryThreshold:  1500,
		PremiumDiscountPercent: 10,
	})
	fx.flow.now = func() time.Time { return fx.now }
	return fx
}

func testEntries() []cart.Entry {
	return []cart.Entry{
		{ProductID: 1, Name: "Pepperoni", Price: 450, Quantity: 2},
		{ProductID: 5, Name: "Cola", Price: 120, Quantity: 1},
	}
}

func regularUser() *user.User {
	return &user.User{ID: 100, FirstName: "Alex"}
}

func userWithPhone() *user.User {
	phone := "+71234567890"
	return &user.User{ID: 100, FirstName: "Alex", Phone: &phone}
}

func TestFlow_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty cart blocks checkout", func(t *testing.T) {
		fx := newFlowFixture()
		fx.carts.On("GetCart", ctx, int64(100)).Return([]cart.Entry{}, nil).Once()

		_, err := fx.flow.Start(ctx, 100)

		assert.ErrorIs(t, err, cart.ErrCartEmpty)
		assert.Equal(t, session.StateIdle, fx.flow.State(100))
	})

	t.Run("Success", func(t *testing.T) {
		fx := newFlowFixture()
		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()

		d, err := fx.flow.Start(ctx, 100)

		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingAddress, d.State)
	})

	t.Run("Second start while in progress is rejected", func(t *testing.T) {
		fx := newFlowFixture()
		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Twice()

		_, err := fx.flow.Start(ctx, 100)
		require.NoError(t, err)

		_, err = fx.flow.Start(ctx, 100)
		assert.ErrorIs(t, err, ErrAlreadyInCheckout)
	})

	t.Run("Attached promo survives the restart", func(t *testing.T) {
		fx := newFlowFixture()
		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()

		d := fx.sessions.Get(100)
		d.PromoCode = "WELCOME10"
		d.PromoPercent = 10

		got, err := fx.flow.Start(ctx, 100)

		require.NoError(t, err)
		assert.Equal(t, "WELCOME10", got.PromoCode)
		assert.Equal(t, 10, got.PromoPercent)
	})
}

func TestFlow_AddressStep(t *testing.T) {
	ctx := context.Background()

	t.Run("Blank address rejected, state unchanged", func(t *testing.T) {
		fx := newFlowFixture()
		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		_, err := fx.flow.Start(ctx, 100)
		require.NoError(t, err)

		_, err = fx.flow.SubmitAddress(ctx, 100, "   ")

		assert.ErrorIs(t, err, ErrEmptyAddress)
		assert.Equal(t, session.StateAwaitingAddress, fx.flow.State(100))
	})

	t.Run("Address input outside checkout is rejected", func(t *testing.T) {
		fx := newFlowFixture()

		_, err := fx.flow.SubmitAddress(ctx, 100, "Main st 1")

		assert.ErrorIs(t, err, ErrNotInCheckout)
	})
}

func TestFlow_DeliveryTimeStep(t *testing.T) {
	ctx := context.Background()

	startToDeliveryTime := func(t *testing.T, fx *flowFixture) {
		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		_, err := fx.flow.Start(ctx, 100)
		require.NoError(t, err)
		_, err = fx.flow.SubmitAddress(ctx, 100, "Main st 1")
		require.NoError(t, err)
	}

	t.Run("Preset advances to phone for a user without one", func(t *testing.T) {
		fx := newFlowFixture()
		startToDeliveryTime(t, fx)
		fx.users.On("Get", ctx, int64(100)).Return(regularUser(), nil).Once()

		d, err := fx.flow.ChooseDeliveryTime(ctx, 100, "asap")

		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingPhone, d.State)
		assert.Equal(t, "As soon as possible", d.DeliveryTime)
	})

	t.Run("Phone step is skipped when the profile has one", func(t *testing.T) {
		fx := newFlowFixture()
		startToDeliveryTime(t, fx)
		fx.users.On("Get", ctx, int64(100)).Return(userWithPhone(), nil).Once()

		d, err := fx.flow.ChooseDeliveryTime(ctx, 100, "1h")

		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingCommentChoice, d.State)
		assert.Equal(t, "+71234567890", d.Phone)
	})

	t.Run("Custom loops into free text", func(t *testing.T) {
		fx := newFlowFixture()
		startToDeliveryTime(t, fx)

		d, err := fx.flow.ChooseDeliveryTime(ctx, 100, DeliveryCustom)
		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingCustomTime, d.State)

		fx.users.On("Get", ctx, int64(100)).Return(userWithPhone(), nil).Once()
		d, err = fx.flow.SubmitCustomTime(ctx, 100, "tomorrow at 18:00")
		require.NoError(t, err)
		assert.Equal(t, "tomorrow at 18:00", d.DeliveryTime)
		assert.Equal(t, session.StateAwaitingCommentChoice, d.State)
	})

	t.Run("Unknown preset rejected", func(t *testing.T) {
		fx := newFlowFixture()
		startToDeliveryTime(t, fx)

		_, err := fx.flow.ChooseDeliveryTime(ctx, 100, "next week")

		assert.ErrorIs(t, err, ErrInvalidDeliveryTime)
		assert.Equal(t, session.StateAwaitingDeliveryTime, fx.flow.State(100))
	})
}

func TestFlow_PhoneStep(t *testing.T) {
	ctx := context.Background()

	startToPhone := func(t *testing.T, fx *flowFixture) {
		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.users.On("Get", ctx, int64(100)).Return(regularUser(), nil).Once()
		_, err := fx.flow.Start(ctx, 100)
		require.NoError(t, err)
		_, err = fx.flow.SubmitAddress(ctx, 100, "Main st 1")
		require.NoError(t, err)
		_, err = fx.flow.ChooseDeliveryTime(ctx, 100, "asap")
		require.NoError(t, err)
	}

	t.Run("Valid phone is persisted to the profile", func(t *testing.T) {
		fx := newFlowFixture()
		startToPhone(t, fx)
		fx.users.On("SavePhone", ctx, int64(100), "+71234567890").Return(nil).Once()

		d, err := fx.flow.SubmitPhone(ctx, 100, " +71234567890 ")

		require.NoError(t, err)
		assert.Equal(t, "+71234567890", d.Phone)
		assert.Equal(t, session.StateAwaitingCommentChoice, d.State)
		fx.users.AssertExpectations(t)
	})

	t.Run("Too short", func(t *testing.T) {
		fx := newFlowFixture()
		startToPhone(t, fx)

		_, err := fx.flow.SubmitPhone(ctx, 100, "12345")

		assert.ErrorIs(t, err, ErrInvalidPhone)
		assert.Equal(t, session.StateAwaitingPhone, fx.flow.State(100))
	})

	t.Run("No digit at all", func(t *testing.T) {
		fx := newFlowFixture()
		startToPhone(t, fx)

		_, err := fx.flow.SubmitPhone(ctx, 100, "call me maybe")

		assert.ErrorIs(t, err, ErrInvalidPhone)
	})
}

func TestFlow_CommentStep(t *testing.T) {
	ctx := context.Background()

	startToComment := func(t *testing.T, fx *flowFixture) {
		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.users.On("Get", ctx, int64(100)).Return(userWithPhone(), nil).Once()
		_, err := fx.flow.Start(ctx, 100)
		require.NoError(t, err)
		_, err = fx.flow.SubmitAddress(ctx, 100, "Main st 1")
		require.NoError(t, err)
		_, err = fx.flow.ChooseDeliveryTime(ctx, 100, "asap")
		require.NoError(t, err)
	}

	t.Run("Declining goes straight to payment", func(t *testing.T) {
		fx := newFlowFixture()
		startToComment(t, fx)

		d, err := fx.flow.ChooseComment(ctx, 100, false)

		require.NoError(t, err)
		assert.Nil(t, d.Comments)
		assert.Equal(t, session.StateAwaitingPayment, d.State)
	})

	t.Run("Comment text is captured", func(t *testing.T) {
		fx := newFlowFixture()
		startToComment(t, fx)

		_, err := fx.flow.ChooseComment(ctx, 100, true)
		require.NoError(t, err)

		d, err := fx.flow.SubmitComment(ctx, 100, "no onions please")
		require.NoError(t, err)
		require.NotNil(t, d.Comments)
		assert.Equal(t, "no onions please", *d.Comments)
		assert.Equal(t, session.StateAwaitingPayment, d.State)
	})
}

func TestFlow_SelectPayment(t *testing.T) {
	ctx := context.Background()

	startToPayment := func(t *testing.T, fx *flowFixture, u *user.User) {
		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.users.On("Get", ctx, int64(100)).Return(u, nil).Once()
		_, err := fx.flow.Start(ctx, 100)
		require.NoError(t, err)
		_, err = fx.flow.SubmitAddress(ctx, 100, "Main st 1")
		require.NoError(t, err)
		_, err = fx.flow.ChooseDeliveryTime(ctx, 100, "asap")
		require.NoError(t, err)
		_, err = fx.flow.ChooseComment(ctx, 100, false)
		require.NoError(t, err)
	}

	t.Run("Finalizes with delivery fee below the threshold", func(t *testing.T) {
		fx := newFlowFixture()
		startToPayment(t, fx, userWithPhone())

		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.users.On("Get", ctx, int64(100)).Return(userWithPhone(), nil).Once()
		fx.orders.On("Create", ctx, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				o := args.Get(1).(*order.Order)
				o.ID = 7
			}).Return(nil).Once()
		fx.notifier.On("SendToUser", ctx, int64(100), mock.Anything).Return(nil).Once()
		fx.notifier.On("SendToOperators", ctx, mock.Anything).Return(nil).Once()

		res, err := fx.flow.SelectPayment(ctx, 100, PaymentCash)

		require.NoError(t, err)
		assert.Equal(t, int64(7), res.Order.ID)
		assert.Equal(t, 1020.0, res.Receipt.Subtotal)
		assert.Equal(t, 150.0, res.Receipt.DeliveryCost)
		assert.Equal(t, 1170.0, res.Receipt.GrandTotal)

		// Draft destroyed, order items frozen from the cart.
		_, alive := fx.sessions.Peek(100)
		assert.False(t, alive)
		fx.orders.AssertExpectations(t)
		fx.notifier.AssertExpectations(t)
	})

	t.Run("Promo discount is applied against the live subtotal", func(t *testing.T) {
		fx := newFlowFixture()
		startToPayment(t, fx, userWithPhone())

		d, ok := fx.sessions.Peek(100)
		require.True(t, ok)
		d.PromoCode = "WELCOME10"
		d.PromoPercent = 10

		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.users.On("Get", ctx, int64(100)).Return(userWithPhone(), nil).Once()
		fx.promos.On("Validate", ctx, "WELCOME10", 1020.0, fx.now).
			Return(&promo.Promo{Code: "WELCOME10", DiscountPercent: 10}, nil).Once()
		fx.orders.On("Create", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		fx.notifier.On("SendToUser", ctx, int64(100), mock.Anything).Return(nil).Once()
		fx.notifier.On("SendToOperators", ctx, mock.Anything).Return(nil).Once()

		res, err := fx.flow.SelectPayment(ctx, 100, PaymentOnline)

		require.NoError(t, err)
		// 1020 - 10% = 918, below 1500, so 150 delivery on top.
		assert.Equal(t, 918.0, res.Receipt.AfterDiscounts)
		assert.Equal(t, 1068.0, res.Receipt.GrandTotal)
		require.NotNil(t, res.Order.PromoCode)
		assert.Equal(t, "WELCOME10", *res.Order.PromoCode)
		fx.promos.AssertExpectations(t)
	})

	t.Run("Promo rejected at finalize detaches the code", func(t *testing.T) {
		fx := newFlowFixture()
		startToPayment(t, fx, userWithPhone())

		d, ok := fx.sessions.Peek(100)
		require.True(t, ok)
		d.PromoCode = "FIRSTORDER"
		d.PromoPercent = 15

		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.users.On("Get", ctx, int64(100)).Return(userWithPhone(), nil).Once()
		fx.promos.On("Validate", ctx, "FIRSTORDER", 1020.0, fx.now).
			Return(nil, promo.ErrLimitReached).Once()

		_, err := fx.flow.SelectPayment(ctx, 100, PaymentCash)

		assert.ErrorIs(t, err, promo.ErrLimitReached)
		assert.Equal(t, session.StateAwaitingPayment, fx.flow.State(100))
		assert.Empty(t, d.PromoCode)
		fx.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Code spent inside the order transaction detaches it too", func(t *testing.T) {
		fx := newFlowFixture()
		startToPayment(t, fx, userWithPhone())

		d, ok := fx.sessions.Peek(100)
		require.True(t, ok)
		d.PromoCode = "FIRSTORDER"
		d.PromoPercent = 15

		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.users.On("Get", ctx, int64(100)).Return(userWithPhone(), nil).Once()
		fx.promos.On("Validate", ctx, "FIRSTORDER", 1020.0, fx.now).
			Return(&promo.Promo{Code: "FIRSTORDER", DiscountPercent: 15}, nil).Once()
		fx.orders.On("Create", ctx, mock.Anything, mock.Anything).
			Return(promo.ErrLimitReached).Once()

		_, err := fx.flow.SelectPayment(ctx, 100, PaymentCash)

		assert.ErrorIs(t, err, promo.ErrLimitReached)
		assert.Equal(t, session.StateAwaitingPayment, fx.flow.State(100))
		assert.Empty(t, d.PromoCode)
		fx.notifier.AssertNotCalled(t, "SendToUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed persist never burns the promo, retry redeems once", func(t *testing.T) {
		fx := newFlowFixture()
		startToPayment(t, fx, userWithPhone())

		d, ok := fx.sessions.Peek(100)
		require.True(t, ok)
		d.PromoCode = "WELCOME10"
		d.PromoPercent = 10

		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Twice()
		fx.users.On("Get", ctx, int64(100)).Return(userWithPhone(), nil).Twice()
		fx.promos.On("Validate", ctx, "WELCOME10", 1020.0, fx.now).
			Return(&promo.Promo{Code: "WELCOME10", DiscountPercent: 10}, nil).Twice()
		fx.orders.On("Create", ctx, mock.Anything, mock.Anything).
			Return(errors.New("db down")).Once()

		_, err := fx.flow.SelectPayment(ctx, 100, PaymentCash)
		require.Error(t, err)

		// The code stays on the draft; no use was consumed outside the
		// rolled-back transaction.
		assert.Equal(t, "WELCOME10", d.PromoCode)
		assert.Equal(t, session.StateAwaitingPayment, fx.flow.State(100))

		fx.orders.On("Create", ctx, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				o := args.Get(1).(*order.Order)
				require.NotNil(t, o.PromoCode)
				assert.Equal(t, "WELCOME10", *o.PromoCode)
				o.ID = 8
			}).Return(nil).Once()
		fx.notifier.On("SendToUser", ctx, int64(100), mock.Anything).Return(nil).Once()
		fx.notifier.On("SendToOperators", ctx, mock.Anything).Return(nil).Once()

		res, err := fx.flow.SelectPayment(ctx, 100, PaymentCash)

		require.NoError(t, err)
		assert.Equal(t, 1068.0, res.Receipt.GrandTotal)
		fx.orders.AssertExpectations(t)
	})

	t.Run("Persistence failure preserves cart and draft", func(t *testing.T) {
		fx := newFlowFixture()
		startToPayment(t, fx, userWithPhone())

		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.users.On("Get", ctx, int64(100)).Return(userWithPhone(), nil).Once()
		fx.orders.On("Create", ctx, mock.Anything, mock.Anything).
			Return(errors.New("db down")).Once()

		_, err := fx.flow.SelectPayment(ctx, 100, PaymentCash)

		assert.Error(t, err)
		assert.Equal(t, session.StateAwaitingPayment, fx.flow.State(100))
		fx.carts.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything)
		fx.notifier.AssertNotCalled(t, "SendToUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Notification failure does not fail the checkout", func(t *testing.T) {
		fx := newFlowFixture()
		startToPayment(t, fx, userWithPhone())

		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.users.On("Get", ctx, int64(100)).Return(userWithPhone(), nil).Once()
		fx.orders.On("Create", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		fx.notifier.On("SendToUser", ctx, int64(100), mock.Anything).
			Return(errors.New("delivery failed")).Once()
		fx.notifier.On("SendToOperators", ctx, mock.Anything).
			Return(errors.New("delivery failed")).Once()

		res, err := fx.flow.SelectPayment(ctx, 100, PaymentCard)

		assert.NoError(t, err)
		assert.NotNil(t, res)
	})

	t.Run("Unknown method rejected", func(t *testing.T) {
		fx := newFlowFixture()
		startToPayment(t, fx, userWithPhone())

		_, err := fx.flow.SelectPayment(ctx, 100, "barter")

		assert.ErrorIs(t, err, ErrInvalidPayment)
		assert.Equal(t, session.StateAwaitingPayment, fx.flow.State(100))
	})
}

func TestFlow_Cancel(t *testing.T) {
	ctx := context.Background()

	fx := newFlowFixture()
	fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
	_, err := fx.flow.Start(ctx, 100)
	require.NoError(t, err)

	fx.flow.Cancel(ctx, 100)

	assert.Equal(t, session.StateIdle, fx.flow.State(100))
	// The cart is never touched on cancel.
	fx.carts.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything)

	// Cancelling with no flow in progress is a no-op.
	fx.flow.Cancel(ctx, 100)
}

func TestFlow_PromoEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid code attaches without redeeming", func(t *testing.T) {
		fx := newFlowFixture()

		_, err := fx.flow.StartPromo(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingPromoCode, fx.flow.State(100))

		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.promos.On("Validate", ctx, "welcome10", 1020.0, fx.now).
			Return(&promo.Promo{Code: "WELCOME10", DiscountPercent: 10}, nil).Once()

		p, err := fx.flow.SubmitPromoCode(ctx, 100, "welcome10")

		require.NoError(t, err)
		assert.Equal(t, "WELCOME10", p.Code)
		assert.Equal(t, session.StateIdle, fx.flow.State(100))

		d, ok := fx.sessions.Peek(100)
		require.True(t, ok)
		assert.Equal(t, "WELCOME10", d.PromoCode)
	})

	t.Run("Rejected code leaves the prompt open", func(t *testing.T) {
		fx := newFlowFixture()

		_, err := fx.flow.StartPromo(ctx, 100)
		require.NoError(t, err)

		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		fx.promos.On("Validate", ctx, "NOPE", 1020.0, fx.now).
			Return(nil, promo.ErrNotFound).Once()

		_, err = fx.flow.SubmitPromoCode(ctx, 100, "NOPE")

		assert.ErrorIs(t, err, promo.ErrNotFound)
		assert.Equal(t, session.StateAwaitingPromoCode, fx.flow.State(100))
	})

	t.Run("Promo entry is blocked mid-checkout", func(t *testing.T) {
		fx := newFlowFixture()
		fx.carts.On("GetCart", ctx, int64(100)).Return(testEntries(), nil).Once()
		_, err := fx.flow.Start(ctx, 100)
		require.NoError(t, err)

		_, err = fx.flow.StartPromo(ctx, 100)

		assert.ErrorIs(t, err, ErrAlreadyInCheckout)
	})
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(session.StateIdle, session.StateAwaitingAddress))
	assert.True(t, canTransition(session.StateAwaitingPhone, session.StateAwaitingCommentChoice))
	assert.False(t, canTransition(session.StateAwaitingAddress, session.StateAwaitingPayment))
	assert.False(t, canTransition(session.StateAwaitingPayment, session.StateAwaitingAddress))
}
