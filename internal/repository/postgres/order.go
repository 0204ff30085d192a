package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
	"github.com/aaronkwesiga/kabale-market/pkg/database"
	apperrors "github.com/aaronkwesiga/kabale-market/pkg/errors"
)

// OrderRegistry implements repository.OrderRegistry using PostgreSQL.
type OrderRegistry struct {
	pool database.PgxPool
}

// NewOrderRegistry creates a PostgreSQL-backed order registry.
func NewOrderRegistry(pool database.PgxPool) *OrderRegistry {
	return &OrderRegistry{pool: pool}
}

// Register inserts an order and its items atomically within a transaction.
func (r *OrderRegistry) Register(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (id, customer_id, vendor_id, total_amount, delivery_name, delivery_phone, delivery_address, notes, payment_method, status, payment_status, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.CustomerID,
		o.VendorID,
		o.TotalAmount,
		o.DeliveryName,
		o.DeliveryPhone,
		o.DeliveryAddress,
		o.Notes,
		o.PaymentMethod,
		o.Status,
		o.PaymentStatus,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Cancel removes an order and its items atomically. Cancelling an order that
// no longer exists is not an error.
func (r *OrderRegistry) Cancel(ctx context.Context, orderID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order with its items in a single query.
func (r *OrderRegistry) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `
		SELECT
			o.id, COALESCE(o.customer_id, ''), o.vendor_id, o.total_amount,
			o.delivery_name, o.delivery_phone, o.delivery_address, o.notes,
			o.payment_method, o.status, o.payment_status, o.created_at, o.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'product_id', oi.product_id,
						'quantity', oi.quantity,
						'unit_price', oi.unit_price,
						'total_price', oi.total_price
					) ORDER BY oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1
		GROUP BY o.id`

	var (
		o         domain.Order
		itemsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&o.ID,
		&o.CustomerID,
		&o.VendorID,
		&o.TotalAmount,
		&o.DeliveryName,
		&o.DeliveryPhone,
		&o.DeliveryAddress,
		&o.Notes,
		&o.PaymentMethod,
		&o.Status,
		&o.PaymentStatus,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", orderID)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}

	return &o, nil
}

// ListByCustomer returns a customer's orders, newest first, with items
// batch-loaded in a second query.
func (r *OrderRegistry) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	query := `
		SELECT id, COALESCE(customer_id, ''), vendor_id, total_amount,
			delivery_name, delivery_phone, delivery_address, notes,
			payment_method, status, payment_status, created_at, updated_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.CustomerID,
			&o.VendorID,
			&o.TotalAmount,
			&o.DeliveryName,
			&o.DeliveryPhone,
			&o.DeliveryAddress,
			&o.Notes,
			&o.PaymentMethod,
			&o.Status,
			&o.PaymentStatus,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	orderIDs := make([]string, len(orders))
	for i := range orders {
		orderIDs[i] = orders[i].ID
	}

	itemsQuery := `
		SELECT id, order_id, product_id, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`

	itemRows, err := r.pool.Query(ctx, itemsQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("batch load order items: %w", err)
	}
	defer itemRows.Close()

	itemsByOrderID := make(map[string][]domain.OrderItem, len(orders))
	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		itemsByOrderID[item.OrderID] = append(itemsByOrderID[item.OrderID], item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order item rows: %w", err)
	}

	for i := range orders {
		if items, ok := itemsByOrderID[orders[i].ID]; ok {
			orders[i].Items = items
		} else {
			orders[i].Items = []domain.OrderItem{}
		}
	}

	return orders, nil
}
