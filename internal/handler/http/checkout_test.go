package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
)

func checkoutBody() map[string]any {
	return map[string]any{
		"full_name":      "Aisha Tumusiime",
		"phone":          "+256700123456",
		"address":        "Plot 12, Kabale Town",
		"payment_method": "cash_on_delivery",
	}
}

// ============================================================================
// POST /api/v1/checkout
// ============================================================================

func TestCheckout_Success(t *testing.T) {
	router, mr, registry := testServer(t)

	doJSON(t, router, http.MethodPost, "/api/v1/cart/items", addItemBody(), guestHeaders())
	registry.On("Register", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/checkout", checkoutBody(), guestHeaders())

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data struct {
			Orders     []domain.Order `json:"orders"`
			Subtotal   int64          `json:"subtotal"`
			GrandTotal int64          `json:"grand_total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Orders, 1)
	assert.Equal(t, int64(25000), envelope.Data.Subtotal)
	assert.Equal(t, int64(30000), envelope.Data.GrandTotal)

	// Checkout clears the guest cart document.
	assert.False(t, mr.Exists("guestcart:dev-001"))
	registry.AssertExpectations(t)
}

func TestCheckout_EmptyCart(t *testing.T) {
	router, _, registry := testServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/checkout", checkoutBody(), guestHeaders())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	registry.AssertNotCalled(t, "Register")
}

func TestCheckout_ValidationFailure(t *testing.T) {
	router, _, _ := testServer(t)

	body := checkoutBody()
	body["full_name"] = ""
	rec := doJSON(t, router, http.MethodPost, "/api/v1/checkout", body, guestHeaders())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestCheckout_RegistrationFailureLeavesCart(t *testing.T) {
	router, mr, registry := testServer(t)

	doJSON(t, router, http.MethodPost, "/api/v1/cart/items", addItemBody(), guestHeaders())
	registry.On("Register", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/checkout", checkoutBody(), guestHeaders())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, mr.Exists("guestcart:dev-001"))
}

// ============================================================================
// GET /api/v1/orders
// ============================================================================

func TestListOrders_GuestRejected(t *testing.T) {
	router, _, _ := testServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders", nil, guestHeaders())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListOrders_Customer(t *testing.T) {
	router, _, registry := testServer(t)

	registry.On("ListByCustomer", mock.Anything, "cust-001").
		Return([]domain.Order{{ID: "order-001", CustomerID: "cust-001"}}, nil).Once()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders", nil, map[string]string{"X-Customer-ID": "cust-001"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "order-001")
}

// ============================================================================
// GET /api/v1/orders/{orderId}
// ============================================================================

func TestGetOrder_Customer(t *testing.T) {
	router, _, registry := testServer(t)

	registry.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", CustomerID: "cust-001"}, nil).Once()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/order-001", nil, map[string]string{"X-Customer-ID": "cust-001"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "order-001")
}

func TestGetOrder_OtherCustomersOrderHidden(t *testing.T) {
	router, _, registry := testServer(t)

	registry.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", CustomerID: "cust-999"}, nil).Once()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/order-001", nil, map[string]string{"X-Customer-ID": "cust-001"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
