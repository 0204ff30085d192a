package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
	"github.com/aaronkwesiga/kabale-market/pkg/database"
)

// CustomerCartStrategy persists an authenticated customer's cart as rows in
// PostgreSQL, one row per product. Every mutation is followed by a re-read of
// the rows joined to the catalog, so the returned snapshot always carries the
// catalog's current names and prices.
type CustomerCartStrategy struct {
	pool       database.PgxPool
	customerID string
}

// NewCustomerCartStrategy creates a PostgreSQL-backed cart strategy for one
// customer.
func NewCustomerCartStrategy(pool database.PgxPool, customerID string) *CustomerCartStrategy {
	return &CustomerCartStrategy{
		pool:       pool,
		customerID: customerID,
	}
}

const readCartQuery = `
	SELECT ci.id, ci.product_id,
		COALESCE(p.name, ''), COALESCE(p.price, 0), COALESCE(p.image_url, ''),
		COALESCE(p.vendor_id, ''), COALESCE(v.name, 'Unknown Vendor'),
		ci.quantity
	FROM cart_items ci
	LEFT JOIN products p ON p.id = ci.product_id
	LEFT JOIN vendors v ON v.id = p.vendor_id
	WHERE ci.customer_id = $1
	ORDER BY ci.created_at, ci.id`

// Read loads the customer's cart rows joined to the catalog. Rows whose
// product no longer exists are kept with empty catalog fields rather than
// silently dropped.
func (s *CustomerCartStrategy) Read(ctx context.Context) (domain.Snapshot, error) {
	rows, err := s.pool.Query(ctx, readCartQuery, s.customerID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	snapshot := make(domain.Snapshot, 0)
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.ProductID,
			&line.Name,
			&line.UnitPrice,
			&line.ImageURL,
			&line.VendorID,
			&line.VendorName,
			&line.Quantity,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		snapshot = append(snapshot, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart item rows: %w", err)
	}

	return snapshot, nil
}

// WriteAdd upserts one unit of the product into the customer's cart and
// returns the re-read snapshot.
func (s *CustomerCartStrategy) WriteAdd(ctx context.Context, _ domain.Snapshot, product domain.Product) (domain.Snapshot, error) {
	query := `
		INSERT INTO cart_items (id, customer_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)
		ON CONFLICT (customer_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = $4`

	_, err := s.pool.Exec(ctx, query, uuid.NewString(), s.customerID, product.ID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}

	return s.Read(ctx)
}

// WriteUpdate sets the quantity of the customer's row for the product and
// returns the re-read snapshot. A missing row is a no-op.
func (s *CustomerCartStrategy) WriteUpdate(ctx context.Context, _ domain.Snapshot, productID string, quantity int) (domain.Snapshot, error) {
	query := `
		UPDATE cart_items
		SET quantity = $1, updated_at = $2
		WHERE customer_id = $3 AND product_id = $4`

	_, err := s.pool.Exec(ctx, query, quantity, time.Now().UTC(), s.customerID, productID)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	return s.Read(ctx)
}

// WriteRemove deletes the customer's row for the product and returns the
// re-read snapshot.
func (s *CustomerCartStrategy) WriteRemove(ctx context.Context, _ domain.Snapshot, productID string) (domain.Snapshot, error) {
	query := `DELETE FROM cart_items WHERE customer_id = $1 AND product_id = $2`

	_, err := s.pool.Exec(ctx, query, s.customerID, productID)
	if err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}

	return s.Read(ctx)
}

// WriteClear deletes every cart row belonging to the customer.
func (s *CustomerCartStrategy) WriteClear(ctx context.Context) error {
	query := `DELETE FROM cart_items WHERE customer_id = $1`

	if _, err := s.pool.Exec(ctx, query, s.customerID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	return nil
}
