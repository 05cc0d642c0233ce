package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/feed"
	"github.com/kirana-labs/kirana/internal/identity"
	ordersvc "github.com/kirana-labs/kirana/internal/service/order"
)

// Mutator is the write surface a session delegates to. Writes never touch
// session state directly; the next feed snapshot carries the result back.
type Mutator interface {
	PlaceOrder(ctx context.Context, viewer identity.Identity, in ordersvc.PlaceOrderInput) (*entity.Order, error)
	PlaceDefaultOrder(ctx context.Context, viewer identity.Identity, hotelID string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, viewer identity.Identity, id string, next entity.Status) (*entity.Order, error)
}

// Store is the single owner of one session's order collection. It holds the
// latest snapshot for a fixed viewer and derives role-facing views from it.
// A store is bound to one viewer for its whole lifetime; a role or identity
// change means closing it and opening a fresh one.
type Store struct {
	viewer  identity.Identity
	mutator Mutator
	now     func() time.Time

	mu     sync.RWMutex
	orders []entity.Order
	err    error

	updates chan struct{}
	closeFn func()
}

func newStore(viewer identity.Identity, mutator Mutator, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		viewer:  viewer,
		mutator: mutator,
		now:     now,
		updates: make(chan struct{}, 1),
	}
}

// Viewer returns the identity this store is scoped to.
func (s *Store) Viewer() identity.Identity {
	return s.viewer
}

// Updates signals after each applied snapshot. Signals coalesce; the channel
// closes when the store is closed.
func (s *Store) Updates() <-chan struct{} {
	return s.updates
}

// Close tears down the underlying subscription. Safe to call more than once.
func (s *Store) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// Apply replaces the session's collection with a fresh snapshot. Snapshots
// carrying an error keep the previous orders (stale-but-present).
func (s *Store) Apply(snap feed.Snapshot) {
	s.mu.Lock()
	if snap.Err == nil {
		s.orders = snap.Orders
	}
	s.err = snap.Err
	s.mu.Unlock()

	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Store) consume(sub *feed.Subscription) {
	for snap := range sub.C {
		s.Apply(snap)
	}
	close(s.updates)
}

// PlaceOrder delegates to the order service. On failure nothing changes
// locally; on success the new order appears with the next snapshot.
func (s *Store) PlaceOrder(ctx context.Context, in ordersvc.PlaceOrderInput) (*entity.Order, error) {
	return s.mutator.PlaceOrder(ctx, s.viewer, in)
}

// PlaceDefaultOrder places the hotel's saved template as a new order.
func (s *Store) PlaceDefaultOrder(ctx context.Context, hotelID string) (*entity.Order, error) {
	return s.mutator.PlaceDefaultOrder(ctx, s.viewer, hotelID)
}

// UpdateStatus delegates a status write to the order service.
func (s *Store) UpdateStatus(ctx context.Context, id string, next entity.Status) (*entity.Order, error) {
	return s.mutator.UpdateStatus(ctx, s.viewer, id, next)
}

// Orders returns the current collection, newest first, along with the error
// state of the last snapshot.
func (s *Store) Orders() ([]entity.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Order, len(s.orders))
	copy(out, s.orders)
	return out, s.err
}

// Pending returns orders awaiting confirmation.
func (s *Store) Pending() []entity.Order {
	return s.filter(func(o *entity.Order) bool { return o.Status == entity.StatusPending })
}

// Ready returns orders packed and waiting for pickup.
func (s *Store) Ready() []entity.Order {
	return s.filter(func(o *entity.Order) bool { return o.Status == entity.StatusReady })
}

// Completed returns delivered orders.
func (s *Store) Completed() []entity.Order {
	return s.filter(func(o *entity.Order) bool { return o.Status == entity.StatusCompleted })
}

// Today returns orders created on the current calendar day, local time.
func (s *Store) Today() []entity.Order {
	now := s.now()
	y, m, d := now.Date()
	loc := now.Location()
	return s.filter(func(o *entity.Order) bool {
		oy, om, od := o.CreatedAt.In(loc).Date()
		return oy == y && om == m && od == d
	})
}

func (s *Store) filter(keep func(*entity.Order) bool) []entity.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Order, 0, len(s.orders))
	for i := range s.orders {
		if keep(&s.orders[i]) {
			out = append(out, s.orders[i])
		}
	}
	return out
}

// Factory opens viewer-bound stores on top of the live feed.
type Factory struct {
	hub     *feed.Hub
	mutator Mutator
	logger  *zap.Logger
}

// NewFactory wires a store factory.
func NewFactory(hub *feed.Hub, mutator Mutator, logger *zap.Logger) *Factory {
	return &Factory{hub: hub, mutator: mutator, logger: logger}
}

// Open subscribes the viewer to the feed and returns a live store. The store
// follows the feed until ctx is cancelled or Close is called.
func (f *Factory) Open(ctx context.Context, viewer identity.Identity) *Store {
	sub := f.hub.Subscribe(ctx, viewer)
	s := newStore(viewer, f.mutator, time.Now)
	s.closeFn = sub.Close
	go s.consume(sub)
	f.logger.Debug("order store opened", zap.String("role", viewer.Role().String()))
	return s
}
