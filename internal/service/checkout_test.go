package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
	apperrors "github.com/aaronkwesiga/kabale-market/pkg/errors"
)

// --- Mock Order Registry ---

type mockOrderRegistry struct {
	mock.Mock
}

func (m *mockOrderRegistry) Register(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRegistry) Cancel(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *mockOrderRegistry) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRegistry) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// --- Fake Cart Source ---

type fakeCart struct {
	snapshot domain.Snapshot
	cleared  bool
	clearErr error
}

func (f *fakeCart) Snapshot() domain.Snapshot {
	return f.snapshot.Clone()
}

func (f *fakeCart) ClearCart(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	f.snapshot = domain.Snapshot{}
	return nil
}

// --- Test Helpers ---

const testDeliveryFee = 5000

func newTestCheckoutService(registry *mockOrderRegistry) *CheckoutService {
	return NewCheckoutService(registry, newTestEventProducer(), newTestLogger(), testDeliveryFee)
}

func validCheckoutRequest() *domain.CheckoutRequest {
	return &domain.CheckoutRequest{
		FullName:      "Aisha Tumusiime",
		Phone:         "+256700123456",
		Address:       "Plot 12, Kabale Town",
		PaymentMethod: domain.PaymentCashOnDelivery,
	}
}

func twoVendorCart() *fakeCart {
	return &fakeCart{snapshot: domain.Snapshot{
		{ProductID: "prod-1", Name: "Fresh Matooke Bunch", UnitPrice: 25000, Quantity: 1, VendorID: "ven-1", VendorName: "Mama Grace Produce"},
		{ProductID: "prod-2", Name: "Arabica Coffee 1kg", UnitPrice: 18000, Quantity: 1, VendorID: "ven-2", VendorName: "Kigezi Coffee Co"},
	}}
}

func customerSession() domain.Session {
	return domain.Session{CustomerID: "cust-001", DeviceID: "dev-001"}
}

// --- PlaceOrder Tests ---

func TestPlaceOrder_SingleVendor(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)
	cart := &fakeCart{snapshot: domain.Snapshot{
		{ProductID: "prod-1", UnitPrice: 25000, Quantity: 2, VendorID: "ven-1"},
	}}

	registry.On("Register", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()

	result, err := svc.PlaceOrder(context.Background(), customerSession(), cart, validCheckoutRequest())

	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	// Single vendor carries the whole delivery fee.
	assert.Equal(t, int64(55000), result.Orders[0].TotalAmount)
	assert.Equal(t, int64(50000), result.Subtotal)
	assert.Equal(t, int64(55000), result.GrandTotal)
	assert.Equal(t, domain.OrderStatusPending, result.Orders[0].Status)
	assert.Equal(t, domain.PaymentStatusPending, result.Orders[0].PaymentStatus)
	assert.True(t, cart.cleared)
	registry.AssertExpectations(t)
}

func TestPlaceOrder_TwoVendors_FeeSplitEvenly(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)
	cart := twoVendorCart()

	var registered []domain.Order
	registry.On("Register", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) {
			registered = append(registered, *args.Get(1).(*domain.Order))
		}).
		Return(nil).Twice()

	result, err := svc.PlaceOrder(context.Background(), customerSession(), cart, validCheckoutRequest())

	require.NoError(t, err)
	require.Len(t, registered, 2)
	assert.Equal(t, "ven-1", registered[0].VendorID)
	assert.Equal(t, int64(27500), registered[0].TotalAmount)
	assert.Equal(t, "ven-2", registered[1].VendorID)
	assert.Equal(t, int64(20500), registered[1].TotalAmount)
	assert.Equal(t, int64(48000), result.GrandTotal)
	for _, step := range result.Steps {
		assert.Equal(t, domain.RegistrationCompleted, step.Status)
	}
	assert.True(t, cart.cleared)
}

func TestPlaceOrder_GuestCheckout(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)
	cart := &fakeCart{snapshot: domain.Snapshot{
		{ProductID: "prod-1", UnitPrice: 10000, Quantity: 1, VendorID: "ven-1"},
	}}

	var registered domain.Order
	registry.On("Register", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) {
			registered = *args.Get(1).(*domain.Order)
		}).
		Return(nil).Once()

	_, err := svc.PlaceOrder(context.Background(), domain.Session{DeviceID: "dev-001"}, cart, validCheckoutRequest())

	require.NoError(t, err)
	assert.Empty(t, registered.CustomerID)
}

func TestPlaceOrder_SecondVendorFails_FirstOrderCancelled(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)
	cart := twoVendorCart()

	var firstOrderID string
	registry.On("Register", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.VendorID == "ven-1"
	})).Run(func(args mock.Arguments) {
		firstOrderID = args.Get(1).(*domain.Order).ID
	}).Return(nil).Once()
	registry.On("Register", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.VendorID == "ven-2"
	})).Return(errors.New("connection refused")).Once()
	registry.On("Cancel", mock.Anything, mock.MatchedBy(func(id string) bool {
		return id == firstOrderID
	})).Return(nil).Once()

	_, err := svc.PlaceOrder(context.Background(), customerSession(), cart, validCheckoutRequest())

	assert.Error(t, err)
	assert.False(t, cart.cleared)
	assert.NotEmpty(t, cart.Snapshot())
	registry.AssertExpectations(t)
}

func TestPlaceOrder_CompensationCancelFails_StillReturnsError(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)
	cart := twoVendorCart()

	registry.On("Register", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.VendorID == "ven-1"
	})).Return(nil).Once()
	registry.On("Register", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.VendorID == "ven-2"
	})).Return(errors.New("connection refused")).Once()
	registry.On("Cancel", mock.Anything, mock.Anything).Return(errors.New("still down")).Once()

	_, err := svc.PlaceOrder(context.Background(), customerSession(), cart, validCheckoutRequest())

	assert.Error(t, err)
	assert.False(t, cart.cleared)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)

	_, err := svc.PlaceOrder(context.Background(), customerSession(), &fakeCart{}, validCheckoutRequest())

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	registry.AssertNotCalled(t, "Register")
}

func TestPlaceOrder_MissingDeliveryDetails(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)
	cart := twoVendorCart()

	for _, mutate := range []func(*domain.CheckoutRequest){
		func(r *domain.CheckoutRequest) { r.FullName = "" },
		func(r *domain.CheckoutRequest) { r.Phone = "" },
		func(r *domain.CheckoutRequest) { r.Address = "" },
	} {
		req := validCheckoutRequest()
		mutate(req)
		_, err := svc.PlaceOrder(context.Background(), customerSession(), cart, req)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
	registry.AssertNotCalled(t, "Register")
}

func TestPlaceOrder_UnsupportedPaymentMethod(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)
	req := validCheckoutRequest()
	req.PaymentMethod = "bank_transfer"

	_, err := svc.PlaceOrder(context.Background(), customerSession(), twoVendorCart(), req)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPlaceOrder_MobileMoneyRequiresNumber(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)
	req := validCheckoutRequest()
	req.PaymentMethod = domain.PaymentMTNMobileMoney

	_, err := svc.PlaceOrder(context.Background(), customerSession(), twoVendorCart(), req)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	req.MobileMoneyNumber = "+256772000111"
	registry.On("Register", mock.Anything, mock.Anything).Return(nil).Twice()

	_, err = svc.PlaceOrder(context.Background(), customerSession(), twoVendorCart(), req)
	assert.NoError(t, err)
}

func TestPlaceOrder_CartClearFailureDoesNotFailCheckout(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)
	cart := twoVendorCart()
	cart.clearErr = errors.New("connection refused")

	registry.On("Register", mock.Anything, mock.Anything).Return(nil).Twice()

	result, err := svc.PlaceOrder(context.Background(), customerSession(), cart, validCheckoutRequest())

	require.NoError(t, err)
	assert.Len(t, result.Orders, 2)
}

func TestPlaceOrder_OrderItemsCarryLineTotals(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)
	cart := &fakeCart{snapshot: domain.Snapshot{
		{ProductID: "prod-1", UnitPrice: 10000, Quantity: 3, VendorID: "ven-1"},
	}}

	var registered domain.Order
	registry.On("Register", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			registered = *args.Get(1).(*domain.Order)
		}).
		Return(nil).Once()

	_, err := svc.PlaceOrder(context.Background(), customerSession(), cart, validCheckoutRequest())

	require.NoError(t, err)
	require.Len(t, registered.Items, 1)
	assert.Equal(t, registered.ID, registered.Items[0].OrderID)
	assert.Equal(t, int64(10000), registered.Items[0].UnitPrice)
	assert.Equal(t, int64(30000), registered.Items[0].TotalPrice)
}

// --- ListOrders Tests ---

func TestListOrders_RequiresAuthentication(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)

	_, err := svc.ListOrders(context.Background(), domain.Session{DeviceID: "dev-001"})

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestListOrders_Success(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)

	registry.On("ListByCustomer", mock.Anything, "cust-001").
		Return([]domain.Order{{ID: "order-001"}}, nil).Once()

	orders, err := svc.ListOrders(context.Background(), customerSession())

	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

// --- GetOrder Tests ---

func TestGetOrder_WrongOwnerHidden(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)

	registry.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", CustomerID: "cust-999"}, nil).Once()

	_, err := svc.GetOrder(context.Background(), customerSession(), "order-001")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetOrder_Success(t *testing.T) {
	registry := new(mockOrderRegistry)
	svc := newTestCheckoutService(registry)

	registry.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", CustomerID: "cust-001"}, nil).Once()

	order, err := svc.GetOrder(context.Background(), customerSession(), "order-001")

	require.NoError(t, err)
	assert.Equal(t, "order-001", order.ID)
}
