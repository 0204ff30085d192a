package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
	"github.com/aaronkwesiga/kabale-market/internal/event"
	"github.com/aaronkwesiga/kabale-market/internal/repository"
	postgresrepo "github.com/aaronkwesiga/kabale-market/internal/repository/postgres"
	redisrepo "github.com/aaronkwesiga/kabale-market/internal/repository/redis"
	"github.com/aaronkwesiga/kabale-market/pkg/database"
	apperrors "github.com/aaronkwesiga/kabale-market/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerLine is the maximum quantity allowed for a single cart line.
	MaxQuantityPerLine = 100
	// MaxLinesPerCart is the maximum number of distinct lines allowed in a cart.
	MaxLinesPerCart = 50
)

// storeSweepInterval bounds how often the manager scans for idle stores.
const storeSweepInterval = time.Minute

// cartEvents is the slice of the event producer the cart store publishes to.
type cartEvents interface {
	PublishCartUpdated(ctx context.Context, sessionKey string, snapshot domain.Snapshot) error
	PublishCartCleared(ctx context.Context, sessionKey string) error
}

// CartStore owns one session's cart. All operations are serialized through a
// single mutex, so two rapid mutations from the same session can never
// interleave their read-modify-write cycles. Mutations go to the persistence
// strategy first; the in-memory snapshot only advances to what the strategy
// reports back, so a failed write leaves the last known good state intact.
type CartStore struct {
	mu       sync.Mutex
	session  domain.Session
	strategy repository.CartStrategy
	producer cartEvents
	logger   *slog.Logger
	snapshot domain.Snapshot
	loading  bool
	hydrated bool
}

// NewCartStore creates a cart store for the session backed by the given
// strategy. The store starts in the loading state until Hydrate runs.
func NewCartStore(session domain.Session, strategy repository.CartStrategy, producer cartEvents, logger *slog.Logger) *CartStore {
	return &CartStore{
		session:  session,
		strategy: strategy,
		producer: producer,
		logger:   logger,
		snapshot: domain.Snapshot{},
		loading:  true,
	}
}

// Hydrate loads the persisted cart into memory. Repeated calls after a
// successful load are no-ops; Rehydrate forces a fresh read.
func (s *CartStore) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return nil
	}
	return s.hydrateLocked(ctx)
}

// Rehydrate discards the in-memory snapshot and reloads from the strategy.
func (s *CartStore) Rehydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hydrated = false
	s.loading = true
	return s.hydrateLocked(ctx)
}

func (s *CartStore) hydrateLocked(ctx context.Context) error {
	snapshot, err := s.strategy.Read(ctx)
	s.loading = false
	if err != nil {
		s.snapshot = domain.Snapshot{}
		return fmt.Errorf("hydrate cart: %w", err)
	}
	s.snapshot = snapshot
	s.hydrated = true
	return nil
}

// AddToCart merges one unit of the product into the cart. An existing line
// for the same product gains quantity; otherwise a new line is appended.
func (s *CartStore) AddToCart(ctx context.Context, product domain.Product) (domain.Snapshot, error) {
	if product.ID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if product.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	s.mu.Lock()

	if i := s.snapshot.FindLine(product.ID); i >= 0 {
		if s.snapshot[i].Quantity >= MaxQuantityPerLine {
			s.mu.Unlock()
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
		}
	} else if len(s.snapshot) >= MaxLinesPerCart {
		s.mu.Unlock()
		return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not exceed %d distinct products", MaxLinesPerCart))
	}

	next, err := s.strategy.WriteAdd(ctx, s.snapshot, product)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	s.snapshot = next
	result := next.Clone()
	s.mu.Unlock()

	s.publishUpdated(ctx, result)
	return result, nil
}

// UpdateQuantity sets the quantity of an existing line. Quantities below one
// remove the line. Updating a product that is not in the cart is a no-op.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) (domain.Snapshot, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	s.mu.Lock()

	if quantity < 1 {
		result, changed, err := s.removeLocked(ctx, productID)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		if changed {
			s.publishUpdated(ctx, result)
		}
		return result, nil
	}

	if s.snapshot.FindLine(productID) < 0 {
		result := s.snapshot.Clone()
		s.mu.Unlock()
		return result, nil
	}

	next, err := s.strategy.WriteUpdate(ctx, s.snapshot, productID, quantity)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("update quantity: %w", err)
	}
	s.snapshot = next
	result := next.Clone()
	s.mu.Unlock()

	s.publishUpdated(ctx, result)
	return result, nil
}

// RemoveFromCart drops a line from the cart. Removing a product that is not
// in the cart is a no-op.
func (s *CartStore) RemoveFromCart(ctx context.Context, productID string) (domain.Snapshot, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	s.mu.Lock()
	result, changed, err := s.removeLocked(ctx, productID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if changed {
		s.publishUpdated(ctx, result)
	}
	return result, nil
}

// removeLocked requires s.mu to be held. It reports whether a write happened
// so the caller can publish after releasing the lock.
func (s *CartStore) removeLocked(ctx context.Context, productID string) (domain.Snapshot, bool, error) {
	if s.snapshot.FindLine(productID) < 0 {
		return s.snapshot.Clone(), false, nil
	}

	next, err := s.strategy.WriteRemove(ctx, s.snapshot, productID)
	if err != nil {
		return nil, false, fmt.Errorf("remove from cart: %w", err)
	}
	s.snapshot = next
	return next.Clone(), true, nil
}

// ClearCart empties the cart. Clearing an already empty cart succeeds.
func (s *CartStore) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	if err := s.strategy.WriteClear(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("clear cart: %w", err)
	}
	s.snapshot = domain.Snapshot{}
	s.mu.Unlock()

	if err := s.producer.PublishCartCleared(ctx, s.session.Key()); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_key", s.session.Key()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Snapshot returns a copy of the current cart lines.
func (s *CartStore) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// TotalItems returns the summed quantity across all lines.
func (s *CartStore) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.TotalItems()
}

// Subtotal returns the summed line totals.
func (s *CartStore) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Subtotal()
}

// Loading reports whether the initial hydration is still in progress.
func (s *CartStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Session returns the session this store belongs to.
func (s *CartStore) Session() domain.Session {
	return s.session
}

// publishUpdated emits a cart.updated event. Events are best-effort and run
// outside s.mu so a slow broker never holds up cart operations.
func (s *CartStore) publishUpdated(ctx context.Context, snapshot domain.Snapshot) {
	if err := s.producer.PublishCartUpdated(ctx, s.session.Key(), snapshot); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_key", s.session.Key()),
			slog.String("error", err.Error()),
		)
	}
}

// cartEntry pairs a cached store with its last access time so idle entries
// can be evicted.
type cartEntry struct {
	store      *CartStore
	lastAccess time.Time
}

// CartManager hands out one CartStore per session. Authenticated sessions get
// the PostgreSQL row strategy keyed by customer ID; anonymous sessions get
// the Redis document strategy keyed by device ID. Stores idle longer than the
// guest cart TTL are evicted, so the map stays bounded by recently active
// sessions and a long-idle store can never write a stale snapshot back over
// an expired cart.
type CartManager struct {
	mu        sync.Mutex
	stores    map[string]*cartEntry
	pool      database.PgxPool
	redis     *goredis.Client
	producer  *event.Producer
	logger    *slog.Logger
	guestTTL  time.Duration
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewCartManager creates a cart manager over the given persistence backends.
func NewCartManager(pool database.PgxPool, redisClient *goredis.Client, producer *event.Producer, logger *slog.Logger, guestTTL time.Duration) *CartManager {
	return &CartManager{
		stores:   make(map[string]*cartEntry),
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		logger:   logger,
		guestTTL: guestTTL,
		idleTTL:  guestTTL,
		now:      time.Now,
	}
}

// Store returns the hydrated cart store for the session, creating it on
// first use.
func (m *CartManager) Store(ctx context.Context, session domain.Session) (*CartStore, error) {
	if !session.Valid() {
		return nil, apperrors.Unauthorized("a customer or device identity is required")
	}

	store := m.lookup(session)
	if err := store.Hydrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Refresh discards any cached state for the session and reloads it from the
// persistence strategy. Used when a visitor signs in or out and the client
// needs the authoritative cart for the new identity.
func (m *CartManager) Refresh(ctx context.Context, session domain.Session) (*CartStore, error) {
	if !session.Valid() {
		return nil, apperrors.Unauthorized("a customer or device identity is required")
	}

	store := m.lookup(session)
	if err := store.Rehydrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Evict drops the session's cached store. The next request rebuilds it from
// the persistence strategy.
func (m *CartManager) Evict(session domain.Session) {
	m.mu.Lock()
	delete(m.stores, session.Key())
	m.mu.Unlock()
}

// lookup returns the cached store for the session, creating one if absent. A
// cached store whose last access predates the idle TTL is discarded first; by
// then its backing Redis document has expired, so it must rehydrate rather
// than reuse the old snapshot.
func (m *CartManager) lookup(session domain.Session) *CartStore {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked(now)

	entry, ok := m.stores[session.Key()]
	if ok && now.Sub(entry.lastAccess) > m.idleTTL {
		delete(m.stores, session.Key())
		ok = false
	}
	if !ok {
		entry = &cartEntry{store: NewCartStore(session, m.strategyFor(session), m.producer, m.logger)}
		m.stores[session.Key()] = entry
	}
	entry.lastAccess = now
	return entry.store
}

// sweepLocked requires m.mu to be held. It runs at most once per
// storeSweepInterval.
func (m *CartManager) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < storeSweepInterval {
		return
	}
	m.lastSweep = now

	evicted := 0
	for key, entry := range m.stores {
		if now.Sub(entry.lastAccess) > m.idleTTL {
			delete(m.stores, key)
			evicted++
		}
	}
	if evicted > 0 {
		m.logger.Debug("evicted idle cart stores",
			slog.Int("evicted", evicted),
			slog.Int("remaining", len(m.stores)),
		)
	}
}

func (m *CartManager) strategyFor(session domain.Session) repository.CartStrategy {
	if session.Authenticated() {
		return postgresrepo.NewCustomerCartStrategy(m.pool, session.CustomerID)
	}
	return redisrepo.NewGuestCartStrategy(m.redis, session.DeviceID, m.guestTTL, m.logger)
}
