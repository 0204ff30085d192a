package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
	pkgkafka "github.com/aaronkwesiga/kabale-market/pkg/kafka"
)

// Kafka topic constants for storefront domain events.
const (
	TopicCartUpdated    = "kabale.cart.updated"
	TopicCartCleared    = "kabale.cart.cleared"
	TopicOrderPlaced    = "kabale.order.placed"
	TopicCheckoutFailed = "kabale.checkout.failed"
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeCheckout = "checkout"
)

// Source identifier for events originating from the storefront service.
const SourceStorefront = "storefront-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionKey string         `json:"session_key"`
	Lines      []CartLineData `json:"lines"`
	TotalItems int            `json:"total_items"`
	Subtotal   int64          `json:"subtotal"`
}

// CartLineData is the line payload within cart events.
type CartLineData struct {
	ProductID string `json:"product_id"`
	VendorID  string `json:"vendor_id"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionKey string `json:"session_key"`
}

// OrderPlacedData is the payload for an order.placed event, covering every
// vendor order registered by one checkout.
type OrderPlacedData struct {
	SessionKey    string           `json:"session_key"`
	CustomerID    string           `json:"customer_id,omitempty"`
	PaymentMethod string           `json:"payment_method"`
	Orders        []PlacedOrderRef `json:"orders"`
	GrandTotal    int64            `json:"grand_total"`
}

// PlacedOrderRef identifies one vendor order within an order.placed event.
type PlacedOrderRef struct {
	OrderID     string `json:"order_id"`
	VendorID    string `json:"vendor_id"`
	TotalAmount int64  `json:"total_amount"`
}

// CheckoutFailedData is the payload for a checkout.failed event.
type CheckoutFailedData struct {
	SessionKey string `json:"session_key"`
	VendorID   string `json:"vendor_id"`
	Reason     string `json:"reason"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the storefront service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionKey string, snapshot domain.Snapshot) error {
	lines := make([]CartLineData, len(snapshot))
	for i, line := range snapshot {
		lines[i] = CartLineData{
			ProductID: line.ProductID,
			VendorID:  line.VendorID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}

	data := CartUpdatedData{
		SessionKey: sessionKey,
		Lines:      lines,
		TotalItems: snapshot.TotalItems(),
		Subtotal:   snapshot.Subtotal(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, sessionKey, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_key", sessionKey),
		slog.Int("total_items", data.TotalItems),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionKey string) error {
	data := CartClearedData{SessionKey: sessionKey}

	event, err := pkgkafka.NewEvent(TopicCartCleared, sessionKey, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("session_key", sessionKey),
	)

	return nil
}

// PublishOrderPlaced publishes an order.placed event for a completed checkout.
func (p *Producer) PublishOrderPlaced(ctx context.Context, sessionKey string, customerID string, paymentMethod string, orders []domain.Order) error {
	refs := make([]PlacedOrderRef, len(orders))
	var grandTotal int64
	for i, o := range orders {
		refs[i] = PlacedOrderRef{
			OrderID:     o.ID,
			VendorID:    o.VendorID,
			TotalAmount: o.TotalAmount,
		}
		grandTotal += o.TotalAmount
	}

	data := OrderPlacedData{
		SessionKey:    sessionKey,
		CustomerID:    customerID,
		PaymentMethod: paymentMethod,
		Orders:        refs,
		GrandTotal:    grandTotal,
	}

	event, err := pkgkafka.NewEvent(TopicOrderPlaced, sessionKey, AggregateTypeCheckout, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.placed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPlaced, event); err != nil {
		return fmt.Errorf("publish order.placed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("session_key", sessionKey),
		slog.Int("order_count", len(refs)),
	)

	return nil
}

// PublishCheckoutFailed publishes a checkout.failed event after compensation.
func (p *Producer) PublishCheckoutFailed(ctx context.Context, sessionKey string, vendorID string, reason string) error {
	data := CheckoutFailedData{
		SessionKey: sessionKey,
		VendorID:   vendorID,
		Reason:     reason,
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutFailed, sessionKey, AggregateTypeCheckout, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create checkout.failed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutFailed, event); err != nil {
		return fmt.Errorf("publish checkout.failed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.failed event",
		slog.String("session_key", sessionKey),
		slog.String("vendor_id", vendorID),
	)

	return nil
}
