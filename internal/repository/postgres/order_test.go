package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
	"github.com/aaronkwesiga/kabale-market/pkg/database"
	apperrors "github.com/aaronkwesiga/kabale-market/pkg/errors"
)

func newTestRegistry(t *testing.T) (*OrderRegistry, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewOrderRegistry(mock), mock
}

func sampleVendorOrder() *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		ID:              "order-001",
		CustomerID:      "cust-001",
		VendorID:        "ven-1",
		TotalAmount:     27500,
		DeliveryName:    "Aisha Tumusiime",
		DeliveryPhone:   "+256700123456",
		DeliveryAddress: "Plot 12, Kabale Town",
		Notes:           "Call on arrival",
		PaymentMethod:   domain.PaymentCashOnDelivery,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items: []domain.OrderItem{
			{
				ID:         "item-001",
				OrderID:    "order-001",
				ProductID:  "prod-1",
				Quantity:   1,
				UnitPrice:  25000,
				TotalPrice: 25000,
			},
		},
	}
}

// --- Register Tests ---

func TestOrderRegistry_Register_Success(t *testing.T) {
	registry, mock := newTestRegistry(t)

	o := sampleVendorOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.CustomerID, o.VendorID, o.TotalAmount,
			o.DeliveryName, o.DeliveryPhone, o.DeliveryAddress, o.Notes,
			o.PaymentMethod, o.Status, o.PaymentStatus,
			o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for _, item := range o.Items {
		mock.ExpectExec("INSERT INTO order_items").
			WithArgs(item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	err := registry.Register(context.Background(), o)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRegistry_Register_GuestOrder(t *testing.T) {
	registry, mock := newTestRegistry(t)

	o := sampleVendorOrder()
	o.CustomerID = ""
	o.Items = nil

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, "", o.VendorID, o.TotalAmount,
			o.DeliveryName, o.DeliveryPhone, o.DeliveryAddress, o.Notes,
			o.PaymentMethod, o.Status, o.PaymentStatus,
			o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := registry.Register(context.Background(), o)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRegistry_Register_BeginError(t *testing.T) {
	registry, mock := newTestRegistry(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := registry.Register(context.Background(), sampleVendorOrder())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
}

func TestOrderRegistry_Register_ItemInsertError(t *testing.T) {
	registry, mock := newTestRegistry(t)

	o := sampleVendorOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.CustomerID, o.VendorID, o.TotalAmount,
			o.DeliveryName, o.DeliveryPhone, o.DeliveryAddress, o.Notes,
			o.PaymentMethod, o.Status, o.PaymentStatus,
			o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	err := registry.Register(context.Background(), o)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert order item")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Cancel Tests ---

func TestOrderRegistry_Cancel_Success(t *testing.T) {
	registry, mock := newTestRegistry(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM order_items").
		WithArgs("order-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM orders").
		WithArgs("order-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := registry.Cancel(context.Background(), "order-001")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRegistry_Cancel_AlreadyGone(t *testing.T) {
	registry, mock := newTestRegistry(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM order_items").
		WithArgs("order-404").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM orders").
		WithArgs("order-404").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCommit()

	err := registry.Cancel(context.Background(), "order-404")

	assert.NoError(t, err)
}

// --- GetByID Tests ---

func TestOrderRegistry_GetByID_Success(t *testing.T) {
	registry, mock := newTestRegistry(t)

	now := time.Now().UTC()
	itemsJSON := []byte(`[{"id":"item-001","order_id":"order-001","product_id":"prod-1","quantity":1,"unit_price":25000,"total_price":25000}]`)

	mock.ExpectQuery("SELECT").
		WithArgs("order-001").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "customer_id", "vendor_id", "total_amount",
			"delivery_name", "delivery_phone", "delivery_address", "notes",
			"payment_method", "status", "payment_status", "created_at", "updated_at", "items",
		}).AddRow(
			"order-001", "cust-001", "ven-1", int64(27500),
			"Aisha Tumusiime", "+256700123456", "Plot 12, Kabale Town", "",
			domain.PaymentCashOnDelivery, domain.OrderStatusPending, domain.PaymentStatusPending, now, now, itemsJSON,
		))

	o, err := registry.GetByID(context.Background(), "order-001")

	require.NoError(t, err)
	assert.Equal(t, "order-001", o.ID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(25000), o.Items[0].UnitPrice)
}

func TestOrderRegistry_GetByID_NotFound(t *testing.T) {
	registry, mock := newTestRegistry(t)

	mock.ExpectQuery("SELECT").
		WithArgs("order-404").
		WillReturnError(pgx.ErrNoRows)

	_, err := registry.GetByID(context.Background(), "order-404")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- ListByCustomer Tests ---

func TestOrderRegistry_ListByCustomer_Success(t *testing.T) {
	registry, mock := newTestRegistry(t)

	now := time.Now().UTC()
	orderCols := []string{
		"id", "customer_id", "vendor_id", "total_amount",
		"delivery_name", "delivery_phone", "delivery_address", "notes",
		"payment_method", "status", "payment_status", "created_at", "updated_at",
	}

	mock.ExpectQuery("SELECT id").
		WithArgs("cust-001").
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow("order-002", "cust-001", "ven-2", int64(20500),
				"Aisha Tumusiime", "+256700123456", "Plot 12, Kabale Town", "",
				domain.PaymentCashOnDelivery, domain.OrderStatusPending, domain.PaymentStatusPending, now, now).
			AddRow("order-001", "cust-001", "ven-1", int64(27500),
				"Aisha Tumusiime", "+256700123456", "Plot 12, Kabale Town", "",
				domain.PaymentCashOnDelivery, domain.OrderStatusPending, domain.PaymentStatusPending, now, now))
	mock.ExpectQuery("SELECT id, order_id").
		WithArgs([]string{"order-002", "order-001"}).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "order_id", "product_id", "quantity", "unit_price", "total_price",
		}).AddRow("item-001", "order-001", "prod-1", 1, int64(25000), int64(25000)))

	orders, err := registry.ListByCustomer(context.Background(), "cust-001")

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "order-002", orders[0].ID)
	assert.Empty(t, orders[0].Items)
	require.Len(t, orders[1].Items, 1)
	assert.Equal(t, "prod-1", orders[1].Items[0].ProductID)
}

func TestOrderRegistry_ListByCustomer_Empty(t *testing.T) {
	registry, mock := newTestRegistry(t)

	mock.ExpectQuery("SELECT id").
		WithArgs("cust-999").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "customer_id", "vendor_id", "total_amount",
			"delivery_name", "delivery_phone", "delivery_address", "notes",
			"payment_method", "status", "payment_status", "created_at", "updated_at",
		}))

	orders, err := registry.ListByCustomer(context.Background(), "cust-999")

	require.NoError(t, err)
	assert.Empty(t, orders)
}
