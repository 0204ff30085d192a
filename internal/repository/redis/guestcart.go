package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
)

const keyPrefix = "guestcart:"

// GuestCartStrategy persists an anonymous visitor's cart as a single JSON
// document in Redis, keyed by device ID. A corrupt or missing document reads
// back as an empty cart so the visitor is never blocked by stale state.
type GuestCartStrategy struct {
	client   *redis.Client
	deviceID string
	ttl      time.Duration
	logger   *slog.Logger
}

// NewGuestCartStrategy creates a Redis-backed cart strategy for one device.
func NewGuestCartStrategy(client *redis.Client, deviceID string, ttl time.Duration, logger *slog.Logger) *GuestCartStrategy {
	return &GuestCartStrategy{
		client:   client,
		deviceID: deviceID,
		ttl:      ttl,
		logger:   logger,
	}
}

func (s *GuestCartStrategy) key() string {
	return keyPrefix + s.deviceID
}

// Read loads the cart document. Absent and malformed documents both yield an
// empty snapshot; a malformed one is deleted so it cannot keep resurfacing.
func (s *GuestCartStrategy) Read(ctx context.Context) (domain.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.Snapshot{}, nil
		}
		return nil, fmt.Errorf("redis get guest cart: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.logger.WarnContext(ctx, "discarding malformed guest cart",
			slog.String("device_id", s.deviceID),
			slog.String("error", err.Error()),
		)
		if delErr := s.client.Del(ctx, s.key()).Err(); delErr != nil {
			return nil, fmt.Errorf("redis del malformed guest cart: %w", delErr)
		}
		return domain.Snapshot{}, nil
	}

	return snapshot, nil
}

// WriteAdd merges one unit of the product into the cart. An existing line for
// the same product gains quantity; otherwise a new line is appended.
func (s *GuestCartStrategy) WriteAdd(ctx context.Context, current domain.Snapshot, product domain.Product) (domain.Snapshot, error) {
	next := current.Clone()
	if i := next.FindLine(product.ID); i >= 0 {
		next[i].Quantity++
	} else {
		next = append(next, domain.CartLine{
			ID:         "local_" + uuid.NewString(),
			ProductID:  product.ID,
			Name:       product.Name,
			UnitPrice:  product.Price,
			ImageURL:   product.ImageURL,
			VendorID:   product.VendorID,
			VendorName: product.VendorName,
			Quantity:   1,
		})
	}

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// WriteUpdate sets the quantity of the product's line. A product absent from
// the cart leaves the snapshot unchanged.
func (s *GuestCartStrategy) WriteUpdate(ctx context.Context, current domain.Snapshot, productID string, quantity int) (domain.Snapshot, error) {
	next := current.Clone()
	i := next.FindLine(productID)
	if i < 0 {
		return current, nil
	}
	next[i].Quantity = quantity

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// WriteRemove drops the product's line from the cart.
func (s *GuestCartStrategy) WriteRemove(ctx context.Context, current domain.Snapshot, productID string) (domain.Snapshot, error) {
	i := current.FindLine(productID)
	if i < 0 {
		return current, nil
	}
	next := make(domain.Snapshot, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// WriteClear deletes the cart document.
func (s *GuestCartStrategy) WriteClear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("redis del guest cart: %w", err)
	}
	return nil
}

func (s *GuestCartStrategy) save(ctx context.Context, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal guest cart: %w", err)
	}
	if err := s.client.Set(ctx, s.key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set guest cart: %w", err)
	}
	return nil
}
