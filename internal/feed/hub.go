package feed

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/config"
	"github.com/kirana-labs/kirana/internal/identity"
)

// Hub hands out live, role-scoped order subscriptions. Each subscription owns
// a goroutine that reloads the viewer's order set whenever a change notice
// arrives and pushes the result as a Snapshot.
type Hub struct {
	lister   Lister
	notifier Notifier
	logger   *zap.Logger
	cfg      config.Feed
}

// Params defines dependencies for constructing the Hub.
type Params struct {
	fx.In

	Lister   Lister
	Notifier Notifier
	Logger   *zap.Logger
	Config   config.Config
}

// NewHub wires a Hub instance.
func NewHub(p Params) *Hub {
	return &Hub{
		lister:   p.Lister,
		notifier: p.Notifier,
		logger:   p.Logger,
		cfg:      p.Config.Feed,
	}
}

// Subscription is one viewer's live order feed. Snapshots arrives on C until
// the subscription context is cancelled, after which C is closed and backend
// resources are released. A role or identity change means a new subscription.
type Subscription struct {
	C      <-chan Snapshot
	cancel context.CancelFunc
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
}

// Subscribe starts a live feed for the viewer. The first snapshot carries the
// current visible set; later ones follow change notices.
func (h *Hub) Subscribe(ctx context.Context, viewer identity.Identity) *Subscription {
	runCtx, cancel := context.WithCancel(ctx)
	out := make(chan Snapshot, h.cfg.Buffer)

	go h.run(runCtx, viewer, out)

	return &Subscription{C: out, cancel: cancel}
}

func (h *Hub) run(ctx context.Context, viewer identity.Identity, out chan<- Snapshot) {
	defer close(out)

	var retained Snapshot
	backoff := h.cfg.RetryMin

	emit := func(snap Snapshot) bool {
		select {
		case out <- snap:
			return true
		case <-ctx.Done():
			return false
		}
	}

	reload := func() bool {
		orders, err := h.lister.ListForViewer(ctx, viewer)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			h.logger.Warn("order feed reload failed", zap.String("role", viewer.Role().String()), zap.Error(err))
			// stale-but-present: keep the previously delivered orders
			return emit(Snapshot{Orders: retained.Orders, Err: err})
		}
		retained = Snapshot{Orders: orders}
		return emit(retained)
	}

	// pause is the shared bounded wait for the subscribe-error and
	// dropped-stream paths.
	pause := func() bool {
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false
		}
		if backoff < h.cfg.RetryMax {
			backoff *= 2
			if backoff > h.cfg.RetryMax {
				backoff = h.cfg.RetryMax
			}
		}
		return true
	}

	for {
		notices, release, err := h.notifier.Subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.logger.Warn("order feed subscribe failed", zap.Error(err))
			if !emit(Snapshot{Orders: retained.Orders, Err: err}) {
				return
			}
			if !pause() {
				return
			}
			continue
		}

		if !reload() {
			release()
			return
		}

		dropped := false
		for !dropped {
			select {
			case <-ctx.Done():
				release()
				return
			case _, ok := <-notices:
				if !ok {
					dropped = true
					break
				}
				backoff = h.cfg.RetryMin
				drain(notices)
				if !reload() {
					release()
					return
				}
			}
		}
		release()

		// the notice stream dropped; resubscribing immediately would spin
		// against a broken pubsub
		if !pause() {
			return
		}
	}
}

// drain coalesces bursts of notices into a single reload.
func drain(notices <-chan string) {
	for {
		select {
		case _, ok := <-notices:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
