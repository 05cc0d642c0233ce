package defaultorder

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kirana-labs/kirana/internal/database"
	"github.com/kirana-labs/kirana/internal/entity"
)

var repoTracer = otel.Tracer("github.com/kirana-labs/kirana/repository/defaultorder")

// ErrNotFound is returned when a hotel has no default order template.
var ErrNotFound = errors.New("default order not found")

// Repository stores per-hotel default order templates and the grocery catalog.
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

// GetByHotel fetches the template for a hotel, items included.
func (r *Repository) GetByHotel(ctx context.Context, hotelID string) (*entity.DefaultOrder, error) {
	ctx, span := repoTracer.Start(ctx, "DefaultOrderRepository.GetByHotel", trace.WithAttributes(attribute.String("hotel.id", hotelID)))
	defer span.End()

	tpl := new(entity.DefaultOrder)
	err := r.reader.NewSelect().Model(tpl).
		Relation("Items").
		Where("do.hotel_id = ?", hotelID).
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
	return tpl, nil
}

// List returns every hotel's template, items included.
func (r *Repository) List(ctx context.Context) ([]entity.DefaultOrder, error) {
	ctx, span := repoTracer.Start(ctx, "DefaultOrderRepository.List")
	defer span.End()

	var tpls []entity.DefaultOrder
	if err := r.reader.NewSelect().Model(&tpls).Relation("Items").Order("do.hotel_id ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	if tpls == nil {
		tpls = []entity.DefaultOrder{}
	}
	return tpls, nil
}

// Upsert replaces a hotel's template items in one transaction.
func (r *Repository) Upsert(ctx context.Context, hotelID string, items []entity.DefaultOrderItem) (*entity.DefaultOrder, error) {
	ctx, span := repoTracer.Start(ctx, "DefaultOrderRepository.Upsert", trace.WithAttributes(attribute.String("hotel.id", hotelID)))
	defer span.End()

	tpl := &entity.DefaultOrder{HotelID: hotelID}
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(tpl).
			On("CONFLICT (hotel_id) DO UPDATE").
			Set("hotel_id = EXCLUDED.hotel_id").
			Returning("id").
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*entity.DefaultOrderItem)(nil)).
			Where("default_order_id = ?", tpl.ID).
			Exec(ctx); err != nil {
			return err
		}
		if len(items) == 0 {
			tpl.Items = []entity.DefaultOrderItem{}
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].DefaultOrderID = tpl.ID
		}
		if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
			return err
		}
		tpl.Items = items
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return nil, err
	}
	return tpl, nil
}

// Catalog returns the grocery items available for ordering.
func (r *Repository) Catalog(ctx context.Context) ([]entity.CatalogItem, error) {
	ctx, span := repoTracer.Start(ctx, "DefaultOrderRepository.Catalog")
	defer span.End()

	var items []entity.CatalogItem
	if err := r.reader.NewSelect().Model(&items).Order("ci.name ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	if items == nil {
		items = []entity.CatalogItem{}
	}
	return items, nil
}
