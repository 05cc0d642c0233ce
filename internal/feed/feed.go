package feed

import (
	"context"

	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/identity"
)

// Snapshot is a point-in-time push of the viewer's visible order set. When a
// transient source failure occurs, Err is set and Orders retains the last
// successfully delivered data rather than being cleared.
type Snapshot struct {
	Orders []entity.Order
	Err    error
}

// Lister loads the role-scoped order set. Implemented by the order repository.
type Lister interface {
	ListForViewer(ctx context.Context, viewer identity.Identity) ([]entity.Order, error)
}

// Notifier fans order-change notices out to live subscribers. Publish is
// called after every successful order mutation; Subscribe yields a channel of
// change notices plus a release function that must be called on teardown.
type Notifier interface {
	Publish(ctx context.Context, orderID string) error
	Subscribe(ctx context.Context) (<-chan string, func(), error)
}
