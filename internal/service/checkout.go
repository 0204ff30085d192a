package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
	"github.com/aaronkwesiga/kabale-market/internal/event"
	"github.com/aaronkwesiga/kabale-market/internal/repository"
	apperrors "github.com/aaronkwesiga/kabale-market/pkg/errors"
)

// CartSource is the slice of cart behaviour checkout needs. *CartStore
// satisfies it.
type CartSource interface {
	Snapshot() domain.Snapshot
	ClearCart(ctx context.Context) error
}

// CheckoutResult reports the outcome of a successful checkout.
type CheckoutResult struct {
	Orders      []domain.Order            `json:"orders"`
	Steps       []domain.RegistrationStep `json:"steps"`
	Subtotal    int64                     `json:"subtotal"`
	DeliveryFee int64                     `json:"delivery_fee"`
	GrandTotal  int64                     `json:"grand_total"`
}

// CheckoutService turns one cart into per-vendor orders. Vendor orders are
// registered sequentially; if any registration fails, every order already
// registered during this checkout is cancelled, so a checkout either produces
// all of its vendor orders or none of them.
type CheckoutService struct {
	registry    repository.OrderRegistry
	producer    *event.Producer
	logger      *slog.Logger
	deliveryFee int64
}

// NewCheckoutService creates a new checkout service. deliveryFee is the flat
// per-checkout delivery charge that is split across vendor orders.
func NewCheckoutService(registry repository.OrderRegistry, producer *event.Producer, logger *slog.Logger, deliveryFee int64) *CheckoutService {
	return &CheckoutService{
		registry:    registry,
		producer:    producer,
		logger:      logger,
		deliveryFee: deliveryFee,
	}
}

// PlaceOrder validates the checkout request, partitions the cart by vendor,
// registers one order per vendor, and clears the cart once every order is in.
func (s *CheckoutService) PlaceOrder(ctx context.Context, session domain.Session, cart CartSource, req *domain.CheckoutRequest) (*CheckoutResult, error) {
	if !session.Valid() {
		return nil, apperrors.Unauthorized("a customer or device identity is required")
	}
	if req == nil {
		return nil, apperrors.InvalidInput("checkout details are required")
	}
	if req.FullName == "" {
		return nil, apperrors.InvalidInput("full name is required")
	}
	if req.Phone == "" {
		return nil, apperrors.InvalidInput("phone is required")
	}
	if req.Address == "" {
		return nil, apperrors.InvalidInput("delivery address is required")
	}
	if !domain.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, apperrors.InvalidInput("unsupported payment method")
	}
	if domain.IsMobileMoney(req.PaymentMethod) && req.MobileMoneyNumber == "" {
		return nil, apperrors.InvalidInput("mobile money number is required for mobile money payments")
	}

	snapshot := cart.Snapshot()
	if len(snapshot) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	groups := domain.PartitionByVendor(snapshot)
	domain.SplitDeliveryFee(groups, s.deliveryFee)

	now := time.Now().UTC()
	orders := make([]domain.Order, 0, len(groups))
	steps := make([]domain.RegistrationStep, 0, len(groups))

	for _, group := range groups {
		order := s.buildOrder(session, group, req, now)
		step := domain.NewRegistrationStep(group.VendorID)

		if err := s.registry.Register(ctx, &order); err != nil {
			step.Fail(err.Error())
			steps = append(steps, step)
			s.compensate(ctx, session, orders, steps)
			s.publishCheckoutFailed(ctx, session, group.VendorID, err)
			return nil, fmt.Errorf("register vendor order: %w", err)
		}

		step.Complete(order.ID)
		steps = append(steps, step)
		orders = append(orders, order)
	}

	// Orders are all in; a failed cart clear must not undo the checkout.
	if err := cart.ClearCart(ctx); err != nil {
		s.logger.WarnContext(ctx, "checkout succeeded but cart clear failed",
			slog.String("session_key", session.Key()),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderPlaced(ctx, session.Key(), session.CustomerID, req.PaymentMethod, orders); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("session_key", session.Key()),
			slog.String("error", err.Error()),
		)
	}

	result := &CheckoutResult{
		Orders:      orders,
		Steps:       steps,
		Subtotal:    snapshot.Subtotal(),
		DeliveryFee: s.deliveryFee,
	}
	for _, o := range orders {
		result.GrandTotal += o.TotalAmount
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("session_key", session.Key()),
		slog.Int("vendor_orders", len(orders)),
		slog.Int64("grand_total", result.GrandTotal),
	)

	return result, nil
}

// ListOrders returns the authenticated customer's orders, newest first.
func (s *CheckoutService) ListOrders(ctx context.Context, session domain.Session) ([]domain.Order, error) {
	if !session.Authenticated() {
		return nil, apperrors.Unauthorized("sign in to view orders")
	}

	orders, err := s.registry.ListByCustomer(ctx, session.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns one order, restricted to its owning customer.
func (s *CheckoutService) GetOrder(ctx context.Context, session domain.Session, orderID string) (*domain.Order, error) {
	if !session.Authenticated() {
		return nil, apperrors.Unauthorized("sign in to view orders")
	}

	order, err := s.registry.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.CustomerID != session.CustomerID {
		return nil, apperrors.NotFound("order", orderID)
	}
	return order, nil
}

func (s *CheckoutService) buildOrder(session domain.Session, group domain.VendorOrderGroup, req *domain.CheckoutRequest, now time.Time) domain.Order {
	orderID := uuid.NewString()

	items := make([]domain.OrderItem, len(group.Lines))
	for i, line := range group.Lines {
		items[i] = domain.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.LineTotal(),
		}
	}

	return domain.Order{
		ID:              orderID,
		CustomerID:      session.CustomerID,
		VendorID:        group.VendorID,
		TotalAmount:     group.Total(),
		DeliveryName:    req.FullName,
		DeliveryPhone:   req.Phone,
		DeliveryAddress: req.Address,
		Notes:           req.Notes,
		PaymentMethod:   req.PaymentMethod,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// compensate cancels every order registered so far, newest first, and marks
// the matching steps compensated.
func (s *CheckoutService) compensate(ctx context.Context, session domain.Session, orders []domain.Order, steps []domain.RegistrationStep) {
	for i := len(orders) - 1; i >= 0; i-- {
		if err := s.registry.Cancel(ctx, orders[i].ID); err != nil {
			// Leave the step completed so the stuck order is visible in logs.
			s.logger.ErrorContext(ctx, "failed to cancel order during checkout rollback",
				slog.String("session_key", session.Key()),
				slog.String("order_id", orders[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		for j := range steps {
			if steps[j].OrderID == orders[i].ID {
				steps[j].Compensate()
			}
		}
	}
}

func (s *CheckoutService) publishCheckoutFailed(ctx context.Context, session domain.Session, vendorID string, cause error) {
	if err := s.producer.PublishCheckoutFailed(ctx, session.Key(), vendorID, cause.Error()); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.failed event",
			slog.String("session_key", session.Key()),
			slog.String("error", err.Error()),
		)
	}
}
