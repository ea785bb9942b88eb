package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
	"menswear/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type PaymentGatewayMock struct{ mock.Mock }

func (m *PaymentGatewayMock) CreateIntent(ctx context.Context, in usecase.CreatePaymentIntentInput) (usecase.PaymentIntent, error) {
	args := m.Called(ctx, in)
	pi, _ := args.Get(0).(usecase.PaymentIntent)
	return pi, args.Error(1)
}

func (m *PaymentGatewayMock) GetIntent(ctx context.Context, id string) (usecase.PaymentIntent, error) {
	args := m.Called(ctx, id)
	pi, _ := args.Get(0).(usecase.PaymentIntent)
	return pi, args.Error(1)
}

func (m *PaymentGatewayMock) CancelIntent(ctx context.Context, id string) (usecase.PaymentIntent, error) {
	args := m.Called(ctx, id)
	pi, _ := args.Get(0).(usecase.PaymentIntent)
	return pi, args.Error(1)
}

func (m *PaymentGatewayMock) ParseWebhook(payload []byte, signature string) (usecase.PaymentEvent, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(usecase.PaymentEvent)
	return ev, args.Error(1)
}

type checkoutFixture struct {
	tx        *TxManagerMock
	carts     *CartRepoMock
	cartItems *CartItemRepoMock
	checkouts *CheckoutRepoMock
	addresses *AddressRepoMock
	orders    *OrderRepoMock
	items     *OrderItemRepoMock
	variants  *VariantRepoMock
	products  *ProductRepoMock
	inventory *InventoryRepoMock
	customers *CustomerRepoMock
	payments  *PaymentGatewayMock
	uc        *usecase.CheckoutUsecase
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		carts:     new(CartRepoMock),
		cartItems: new(CartItemRepoMock),
		checkouts: new(CheckoutRepoMock),
		addresses: new(AddressRepoMock),
		orders:    new(OrderRepoMock),
		items:     new(OrderItemRepoMock),
		variants:  new(VariantRepoMock),
		products:  new(ProductRepoMock),
		inventory: new(InventoryRepoMock),
		customers: new(CustomerRepoMock),
		payments:  new(PaymentGatewayMock),
	}
	f.tx = newTx(&TxReposMock{
		carts:      f.carts,
		cartItems:  f.cartItems,
		checkouts:  f.checkouts,
		orders:     f.orders,
		orderItems: f.items,
		variants:   f.variants,
		products:   f.products,
		inventory:  f.inventory,
		customers:  f.customers,
	})
	f.uc = usecase.NewCheckoutUsecase(f.tx, f.carts, f.cartItems, f.checkouts, f.addresses, f.payments,
		usecase.CheckoutConfig{Currency: "usd", TTL: time.Hour, FreeShippingThreshold: 20000},
		nopLogger{})
	return f
}

func openSession() model.CheckoutSession {
	addr := int64(5)
	return model.CheckoutSession{
		ID:               11,
		UserID:           1,
		CartID:           7,
		AddressID:        &addr,
		ShippingRateCode: usecase.ShippingExpress,
		ShippingCost:     1995,
		Subtotal:         9000,
		Total:            10995,
		Currency:         "usd",
		Status:           model.CheckoutStatusOpen,
		ExpiresAt:        time.Now().Add(time.Hour),
	}
}

func TestCheckoutUsecase_ShippingRatesFor_FreeStandardAboveThreshold(t *testing.T) {
	f := newCheckoutFixture()

	rates := f.uc.ShippingRatesFor(19999)
	require.Len(t, rates, 3)
	assert.Equal(t, int64(795), rates[0].Amount)

	rates = f.uc.ShippingRatesFor(20000)
	assert.Equal(t, int64(0), rates[0].Amount)
	assert.Equal(t, int64(1995), rates[1].Amount)
	assert.Equal(t, int64(3995), rates[2].Amount)
}

func TestCheckoutUsecase_Start_CreatesSession(t *testing.T) {
	f := newCheckoutFixture()

	f.carts.On("FindActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 7}, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(7)).Return([]model.CartItem{
		{Quantity: 2, UnitPriceSnapshot: 4500},
	}, nil)
	f.checkouts.On("FindOpenByCartID", mock.Anything, int64(7)).Return(model.CheckoutSession{}, repo.ErrNotFound)
	f.checkouts.On("Create", mock.Anything, mock.MatchedBy(func(s model.CheckoutSession) bool {
		return s.Subtotal == 9000 && s.Total == 9000 && s.Status == model.CheckoutStatusOpen && s.Currency == "usd"
	})).Return(model.CheckoutSession{ID: 11, UserID: 1, CartID: 7, Subtotal: 9000, Total: 9000, Status: model.CheckoutStatusOpen}, nil)

	out, err := f.uc.Start(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(11), out.Session.ID)
	assert.Equal(t, usecase.StepAddress, out.NextStep)
}

func TestCheckoutUsecase_Start_ReusesOpenSession(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	f.carts.On("FindActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 7}, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(7)).Return([]model.CartItem{
		{Quantity: 1, UnitPriceSnapshot: 25000},
	}, nil)
	f.checkouts.On("FindOpenByCartID", mock.Anything, int64(7)).Return(s, nil)
	f.checkouts.On("Save", mock.Anything, mock.MatchedBy(func(s model.CheckoutSession) bool {
		return s.ID == 11 && s.Subtotal == 25000 && s.Total == 25000+1995
	})).Return(nil)

	out, err := f.uc.Start(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, usecase.StepPayment, out.NextStep)
	f.checkouts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckoutUsecase_Start_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.On("FindActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 7}, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(7)).Return([]model.CartItem{}, nil)

	_, err := f.uc.Start(context.Background(), 1)
	assertHTTPError(t, err, http.StatusBadRequest, "cart empty")
}

func TestCheckoutUsecase_SetShipping_RequiresAddress(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.AddressID = nil
	s.ShippingRateCode = ""
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)

	_, err := f.uc.SetShipping(context.Background(), 1, 11, usecase.ShippingStandard)
	assertHTTPError(t, err, http.StatusConflict, "address step required")
}

func TestCheckoutUsecase_SetShipping_InvalidCode(t *testing.T) {
	f := newCheckoutFixture()
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(openSession(), nil)

	_, err := f.uc.SetShipping(context.Background(), 1, 11, "drone")
	assertHTTPError(t, err, http.StatusBadRequest, "invalid shipping rate")
}

func TestCheckoutUsecase_SetAddress_ExpiredSession(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.ExpiresAt = time.Now().Add(-time.Minute)
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)
	f.checkouts.On("Save", mock.Anything, mock.MatchedBy(func(s model.CheckoutSession) bool {
		return s.Status == model.CheckoutStatusExpired
	})).Return(nil)

	_, err := f.uc.SetAddress(context.Background(), 1, 11, 5)
	assertHTTPError(t, err, http.StatusGone, "checkout expired")
}

func TestCheckoutUsecase_SetAddress_OtherUsersAddress(t *testing.T) {
	f := newCheckoutFixture()
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(openSession(), nil)
	f.addresses.On("FindByID", mock.Anything, int64(6)).Return(model.Address{ID: 6, UserID: 2}, nil)

	_, err := f.uc.SetAddress(context.Background(), 1, 11, 6)
	assertHTTPError(t, err, http.StatusForbidden, "forbidden")
}

func TestCheckoutUsecase_Get_OtherUsersSessionIsNotFound(t *testing.T) {
	f := newCheckoutFixture()
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(openSession(), nil)

	_, err := f.uc.Get(context.Background(), 2, 11)
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestCheckoutUsecase_CreatePayment_CreatesIntent(t *testing.T) {
	f := newCheckoutFixture()

	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(openSession(), nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(7)).Return([]model.CartItem{
		{Quantity: 2, UnitPriceSnapshot: 4500},
	}, nil)
	f.payments.On("CreateIntent", mock.Anything, mock.MatchedBy(func(in usecase.CreatePaymentIntentInput) bool {
		return in.Amount == 10995 &&
			in.Currency == "usd" &&
			in.IdempotencyKey == "checkout-11-10995" &&
			in.Metadata["checkout_session_id"] == "11" &&
			in.Metadata["user_id"] == "1"
	})).Return(usecase.PaymentIntent{ID: "pi_1", ClientSecret: "secret", Amount: 10995, Status: "requires_payment_method"}, nil)
	f.checkouts.On("Save", mock.Anything, mock.MatchedBy(func(s model.CheckoutSession) bool {
		return s.PaymentIntentID == "pi_1"
	})).Return(nil)

	out, err := f.uc.CreatePayment(context.Background(), 1, 11)
	require.NoError(t, err)
	assert.Equal(t, "pi_1", out.PaymentIntentID)
	assert.Equal(t, "secret", out.ClientSecret)
	assert.Equal(t, int64(10995), out.Amount)
	f.payments.AssertExpectations(t)
}

func TestCheckoutUsecase_CreatePayment_ReusesMatchingIntent(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(7)).Return([]model.CartItem{
		{Quantity: 2, UnitPriceSnapshot: 4500},
	}, nil)
	f.payments.On("GetIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", ClientSecret: "secret", Amount: 10995, Status: "requires_payment_method"}, nil)
	f.checkouts.On("Save", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.CreatePayment(context.Background(), 1, 11)
	require.NoError(t, err)
	assert.Equal(t, "pi_1", out.PaymentIntentID)
	f.payments.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestCheckoutUsecase_CreatePayment_NotConfigured(t *testing.T) {
	f := newCheckoutFixture()

	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(openSession(), nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(7)).Return([]model.CartItem{
		{Quantity: 2, UnitPriceSnapshot: 4500},
	}, nil)
	f.payments.On("CreateIntent", mock.Anything, mock.Anything).Return(nil, usecase.ErrPaymentNotConfigured)

	_, err := f.uc.CreatePayment(context.Background(), 1, 11)
	assertHTTPError(t, err, http.StatusServiceUnavailable, "payments not configured")
}

func TestCheckoutUsecase_Complete_PaymentNotSucceeded(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)
	f.payments.On("GetIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", Amount: 10995, Status: usecase.PaymentStatusProcessing}, nil)

	_, err := f.uc.Complete(context.Background(), 1, 11)
	assertHTTPError(t, err, http.StatusPaymentRequired, "payment not completed")
}

func TestCheckoutUsecase_Complete_AmountMismatch(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)
	f.payments.On("GetIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", Amount: 500, Status: usecase.PaymentStatusSucceeded}, nil)

	_, err := f.uc.Complete(context.Background(), 1, 11)
	assertHTTPError(t, err, http.StatusConflict, "payment amount mismatch")
}

// 決済成功 → 注文作成・PAID・顧客統計・セッション完了
func expectFinalize(f *checkoutFixture, s model.CheckoutSession) {
	f.checkouts.On("FindByID", mock.Anything, s.ID).Return(s, nil)
	f.orders.On("FindByIdempotencyKey", mock.Anything, int64(1), "checkout-11").Return(model.Order{}, false, nil)
	f.carts.On("FindActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 7}, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ProductID: 10, VariantID: 100, Quantity: 2, UnitPriceSnapshot: 4500},
	}, nil)
	f.variants.On("FindByID", mock.Anything, int64(100)).Return(model.ProductVariant{ID: 100, SKU: "OX-W-15"}, nil)
	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Oxford", IsActive: true}, nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(100), int64(2)).Return(true, nil)
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.TotalPrice == 10995 && o.ShippingCost == 1995 && o.CheckoutSessionID != nil && *o.CheckoutSessionID == 11
	})).Return(int64(55), nil)
	f.items.On("CreateBulk", mock.Anything, int64(55), mock.Anything).Return(nil)
	f.carts.On("UpdateStatus", mock.Anything, int64(7), model.CartStatusCheckedOut).Return(nil)
	f.carts.On("Clear", mock.Anything, int64(7)).Return(nil)
	f.orders.On("MarkPaid", mock.Anything, int64(55), "pi_1", mock.Anything).Return(nil)
	f.customers.On("FindByUserID", mock.Anything, int64(1)).Return(model.CustomerProfile{UserID: 1, Tier: model.TierBronze}, nil)
	f.customers.On("SaveStats", mock.Anything, mock.MatchedBy(func(p model.CustomerProfile) bool {
		return p.OrderCount == 1 && p.LifetimeSpend == 10995
	})).Return(nil)
	f.checkouts.On("Save", mock.Anything, mock.MatchedBy(func(s model.CheckoutSession) bool {
		return s.Status == model.CheckoutStatusCompleted && s.OrderID != nil && *s.OrderID == 55
	})).Return(nil)
}

func TestCheckoutUsecase_Complete_Success(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	expectFinalize(f, s)
	f.payments.On("GetIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", Amount: 10995, Status: usecase.PaymentStatusSucceeded}, nil)

	out, err := f.uc.Complete(context.Background(), 1, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(55), out.Order.ID)
	assert.Equal(t, "PAID", out.Order.Status)
	assert.Equal(t, model.CheckoutStatusCompleted, out.Session.Status)

	f.orders.AssertExpectations(t)
	f.customers.AssertExpectations(t)
	f.inventory.AssertExpectations(t)
}

func TestCheckoutUsecase_HandleWebhook_Succeeded(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	expectFinalize(f, s)
	f.checkouts.On("FindByPaymentIntentID", mock.Anything, "pi_1").Return(s, nil)
	f.payments.On("ParseWebhook", []byte("{}"), "sig").Return(usecase.PaymentEvent{
		ID:     "evt_1",
		Type:   usecase.PaymentEventSucceeded,
		Intent: usecase.PaymentIntent{ID: "pi_1", Amount: 10995, Status: usecase.PaymentStatusSucceeded},
	}, nil)

	err := f.uc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	f.orders.AssertCalled(t, "MarkPaid", mock.Anything, int64(55), "pi_1", mock.Anything)
}

func TestCheckoutUsecase_HandleWebhook_CompletedSessionIsNoop(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.Status = model.CheckoutStatusCompleted
	f.checkouts.On("FindByPaymentIntentID", mock.Anything, "pi_1").Return(s, nil)
	f.payments.On("ParseWebhook", mock.Anything, mock.Anything).Return(usecase.PaymentEvent{
		Type:   usecase.PaymentEventSucceeded,
		Intent: usecase.PaymentIntent{ID: "pi_1", Amount: 10995},
	}, nil)

	require.NoError(t, f.uc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestCheckoutUsecase_HandleWebhook_Errors(t *testing.T) {
	t.Run("bad signature", func(t *testing.T) {
		f := newCheckoutFixture()
		f.payments.On("ParseWebhook", mock.Anything, mock.Anything).Return(nil, errors.New("no signatures found"))
		err := f.uc.HandleWebhook(context.Background(), []byte("{}"), "bad")
		assertHTTPError(t, err, http.StatusBadRequest, "invalid signature")
	})

	t.Run("not configured", func(t *testing.T) {
		f := newCheckoutFixture()
		f.payments.On("ParseWebhook", mock.Anything, mock.Anything).Return(nil, usecase.ErrPaymentNotConfigured)
		err := f.uc.HandleWebhook(context.Background(), []byte("{}"), "")
		assertHTTPError(t, err, http.StatusServiceUnavailable, "payments not configured")
	})

	t.Run("unknown intent", func(t *testing.T) {
		f := newCheckoutFixture()
		f.payments.On("ParseWebhook", mock.Anything, mock.Anything).Return(usecase.PaymentEvent{
			Type:   usecase.PaymentEventSucceeded,
			Intent: usecase.PaymentIntent{ID: "pi_x"},
		}, nil)
		f.checkouts.On("FindByPaymentIntentID", mock.Anything, "pi_x").Return(model.CheckoutSession{}, repo.ErrNotFound)
		assert.NoError(t, f.uc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	})
}

func TestCheckoutUsecase_SetShipping_CancelsUnpaidIntent(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)
	f.payments.On("GetIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", Amount: 10995, Status: "requires_payment_method"}, nil)
	f.payments.On("CancelIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", Status: usecase.PaymentStatusCanceled}, nil)
	f.checkouts.On("Save", mock.Anything, mock.MatchedBy(func(s model.CheckoutSession) bool {
		return s.PaymentIntentID == "" && s.ShippingRateCode == usecase.ShippingOvernight && s.Total == 12995
	})).Return(nil)

	out, err := f.uc.SetShipping(context.Background(), 1, 11, usecase.ShippingOvernight)
	require.NoError(t, err)
	assert.Equal(t, int64(12995), out.Session.Total)
	assert.Empty(t, out.Session.PaymentIntentID)
	assert.Equal(t, usecase.StepPayment, out.NextStep)
	f.payments.AssertExpectations(t)
}

func TestCheckoutUsecase_SetShipping_RejectedAfterPayment(t *testing.T) {
	for _, status := range []string{usecase.PaymentStatusSucceeded, usecase.PaymentStatusProcessing} {
		t.Run(status, func(t *testing.T) {
			f := newCheckoutFixture()

			s := openSession()
			s.PaymentIntentID = "pi_1"
			f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)
			f.payments.On("GetIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", Amount: 10995, Status: status}, nil)

			_, err := f.uc.SetShipping(context.Background(), 1, 11, usecase.ShippingOvernight)
			assertHTTPError(t, err, http.StatusConflict, "payment already submitted")
			f.payments.AssertNotCalled(t, "CancelIntent", mock.Anything, mock.Anything)
			f.checkouts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckoutUsecase_SetShipping_SameRateKeepsIntent(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)
	f.checkouts.On("Save", mock.Anything, mock.MatchedBy(func(s model.CheckoutSession) bool {
		return s.PaymentIntentID == "pi_1" && s.Total == 10995
	})).Return(nil)

	out, err := f.uc.SetShipping(context.Background(), 1, 11, usecase.ShippingExpress)
	require.NoError(t, err)
	assert.Equal(t, usecase.StepComplete, out.NextStep)
	f.payments.AssertNotCalled(t, "GetIntent", mock.Anything, mock.Anything)
}

// 住所は金額に影響しないのでIntentはそのまま
func TestCheckoutUsecase_SetAddress_KeepsIntent(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)
	f.addresses.On("FindByID", mock.Anything, int64(6)).Return(model.Address{ID: 6, UserID: 1}, nil)
	f.checkouts.On("Save", mock.Anything, mock.MatchedBy(func(s model.CheckoutSession) bool {
		return *s.AddressID == 6 && s.PaymentIntentID == "pi_1" && s.Total == 10995
	})).Return(nil)

	out, err := f.uc.SetAddress(context.Background(), 1, 11, 6)
	require.NoError(t, err)
	assert.Equal(t, usecase.StepComplete, out.NextStep)
}

func TestCheckoutUsecase_CreatePayment_CancelsIntentWithOldAmount(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(7)).Return([]model.CartItem{
		{Quantity: 2, UnitPriceSnapshot: 5000},
	}, nil)
	f.payments.On("GetIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", Amount: 10995, Status: "requires_payment_method"}, nil)
	f.payments.On("CancelIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", Status: usecase.PaymentStatusCanceled}, nil)
	f.payments.On("CreateIntent", mock.Anything, mock.MatchedBy(func(in usecase.CreatePaymentIntentInput) bool {
		return in.Amount == 11995 && in.IdempotencyKey == "checkout-11-11995"
	})).Return(usecase.PaymentIntent{ID: "pi_2", ClientSecret: "secret2", Amount: 11995}, nil)
	f.checkouts.On("Save", mock.Anything, mock.MatchedBy(func(s model.CheckoutSession) bool {
		return s.PaymentIntentID == "pi_2" && s.Total == 11995
	})).Return(nil)

	out, err := f.uc.CreatePayment(context.Background(), 1, 11)
	require.NoError(t, err)
	assert.Equal(t, "pi_2", out.PaymentIntentID)
	f.payments.AssertExpectations(t)
}

func TestCheckoutUsecase_Complete_RequiresPaymentStep(t *testing.T) {
	f := newCheckoutFixture()
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(openSession(), nil)

	_, err := f.uc.Complete(context.Background(), 1, 11)
	assertHTTPError(t, err, http.StatusConflict, "payment step required")
	f.payments.AssertNotCalled(t, "GetIntent", mock.Anything, mock.Anything)
}

// 支払い済みなら期限切れ後でも注文にする
func TestCheckoutUsecase_Complete_ExpiredButPaid(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	s.Status = model.CheckoutStatusExpired
	s.ExpiresAt = time.Now().Add(-time.Hour)
	expectFinalize(f, s)
	f.payments.On("GetIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", Amount: 10995, Status: usecase.PaymentStatusSucceeded}, nil)

	out, err := f.uc.Complete(context.Background(), 1, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(55), out.Order.ID)
	assert.Equal(t, model.CheckoutStatusCompleted, out.Session.Status)
}

func TestCheckoutUsecase_Complete_CartChangedAfterPayment(t *testing.T) {
	f := newCheckoutFixture()

	s := openSession()
	s.PaymentIntentID = "pi_1"
	f.checkouts.On("FindByID", mock.Anything, int64(11)).Return(s, nil)
	f.payments.On("GetIntent", mock.Anything, "pi_1").Return(usecase.PaymentIntent{ID: "pi_1", Amount: 10995, Status: usecase.PaymentStatusSucceeded}, nil)
	f.orders.On("FindByIdempotencyKey", mock.Anything, int64(1), "checkout-11").Return(model.Order{}, false, nil)
	f.carts.On("FindActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 7}, nil)
	f.cartItems.On("ListByCartID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ProductID: 10, VariantID: 100, Quantity: 3, UnitPriceSnapshot: 4500},
	}, nil)
	f.variants.On("FindByID", mock.Anything, int64(100)).Return(model.ProductVariant{ID: 100, SKU: "OX-W-15"}, nil)
	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Oxford", IsActive: true}, nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(100), int64(3)).Return(true, nil)

	_, err := f.uc.Complete(context.Background(), 1, 11)
	assertHTTPError(t, err, http.StatusConflict, "cart changed")
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
