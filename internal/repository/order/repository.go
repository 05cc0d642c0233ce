package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kirana-labs/kirana/internal/database"
	"github.com/kirana-labs/kirana/internal/entity"
	"github.com/kirana-labs/kirana/internal/identity"
)

var repoTracer = otel.Tracer("github.com/kirana-labs/kirana/repository/order")

// ErrNotFound is returned when an order is missing or outside the viewer's scope.
var ErrNotFound = errors.New("order not found")

// ErrStatusConflict is returned when a guarded status update matched no row
// because the stored status no longer equals the expected prior status.
var ErrStatusConflict = errors.New("order status changed concurrently")

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new order together with its items in one transaction.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("order.hotel_id", order.HotelID),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		_, err := tx.NewInsert().Model(&order.Items).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order with its items, unscoped. Intended for internal
// callers (workers, cache refresh); transport paths go through GetForViewer.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).
		Relation("Items").
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// GetForViewer fetches an order by id within the viewer's visibility scope.
// Orders belonging to other hotels are indistinguishable from missing ones.
func (r *Repository) GetForViewer(ctx context.Context, viewer identity.Identity, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetForViewer", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("viewer.role", viewer.Role().String()),
	))
	defer span.End()

	order := new(entity.Order)
	q := r.reader.NewSelect().Model(order).
		Relation("Items").
		Where("o.id = ?", id)
	q, visible := scopeQuery(q, viewer)
	if !visible {
		return nil, ErrNotFound
	}

	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// ListForViewer returns the viewer's visible orders, newest first.
func (r *Repository) ListForViewer(ctx context.Context, viewer identity.Identity) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListForViewer", trace.WithAttributes(
		attribute.String("viewer.role", viewer.Role().String()),
	))
	defer span.End()

	var orders []entity.Order
	q := r.reader.NewSelect().Model(&orders).
		Relation("Items").
		Order("o.created_at DESC")
	q, visible := scopeQuery(q, viewer)
	if !visible {
		return []entity.Order{}, nil
	}

	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	return orders, nil
}

// UpdateStatus applies a guarded status write: the row is updated only when
// its stored status still equals from. No-match resolves to ErrNotFound for a
// missing row or ErrStatusConflict for a concurrent transition.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to entity.Status, at time.Time) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status.from", string(from)),
		attribute.String("order.status.to", string(to)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	exists, err := r.reader.NewSelect().Model((*entity.Order)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !exists {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	span.SetStatus(codes.Error, "status conflict")
	return ErrStatusConflict
}

// scopeQuery narrows a select to the viewer's policy: admins see everything,
// delivery sees ready and delivering orders, hotel users see their own hotel.
// The second result is false when the viewer sees nothing at all.
func scopeQuery(q *bun.SelectQuery, viewer identity.Identity) (*bun.SelectQuery, bool) {
	switch viewer.Role() {
	case identity.RoleAdmin:
		return q, true
	case identity.RoleDelivery:
		return q.Where("o.status IN (?)", bun.In([]entity.Status{entity.StatusReady, entity.StatusDelivering})), true
	case identity.RoleHotelUser:
		hotelID, ok := viewer.HotelID()
		if !ok {
			return q, false
		}
		return q.Where("o.hotel_id = ?", hotelID), true
	default:
		return q, false
	}
}
