package repository

import (
	"context"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
)

// CartStrategy is the persistence contract behind a cart session. The guest
// strategy keeps the whole cart as one Redis document; the customer strategy
// keeps individual rows in Postgres. Every mutation returns the authoritative
// snapshot after the write, so callers never have to guess what persisted.
type CartStrategy interface {
	// Read loads the current snapshot for the session. An absent or
	// unreadable cart yields an empty snapshot, not an error.
	Read(ctx context.Context) (domain.Snapshot, error)

	// WriteAdd persists adding one unit of the product to the cart given
	// the current snapshot and returns the resulting snapshot.
	WriteAdd(ctx context.Context, current domain.Snapshot, product domain.Product) (domain.Snapshot, error)

	// WriteUpdate persists setting the quantity of a product line and
	// returns the resulting snapshot. Quantity is always >= 1 here;
	// removal is a separate operation.
	WriteUpdate(ctx context.Context, current domain.Snapshot, productID string, quantity int) (domain.Snapshot, error)

	// WriteRemove persists dropping a product line and returns the
	// resulting snapshot.
	WriteRemove(ctx context.Context, current domain.Snapshot, productID string) (domain.Snapshot, error)

	// WriteClear persists emptying the cart.
	WriteClear(ctx context.Context) error
}

// OrderRegistry defines persistence for vendor orders produced at checkout.
type OrderRegistry interface {
	// Register persists an order together with its items in one
	// transaction.
	Register(ctx context.Context, order *domain.Order) error

	// Cancel removes a previously registered order and its items. Used to
	// unwind a checkout when a later vendor's registration fails.
	Cancel(ctx context.Context, orderID string) error

	// ListByCustomer returns a customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)

	// GetByID returns one order with its items.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
}
